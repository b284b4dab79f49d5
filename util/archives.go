package util

import (
	"archive/zip"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
)

// ExtractZip unpacks the whole archive into destDir, creating it as needed.
// Entries that would land outside destDir are rejected.
func ExtractZip(archivePath string, destDir string) error {
	reader, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrap(err, "cannot open archive")
	}
	defer reader.Close()

	root := filepath.Clean(destDir)
	for _, f := range reader.File {
		target := filepath.Join(root, filepath.FromSlash(f.Name))
		if target != root && !strings.HasPrefix(target, root+string(os.PathSeparator)) {
			return errors.Errorf("archive entry %q escapes the extraction directory", f.Name)
		}

		if f.FileInfo().IsDir() {
			if err = os.MkdirAll(target, 0755); err != nil {
				return errors.Wrapf(err, "cannot create directory for %q", f.Name)
			}
			continue
		}

		if err = os.MkdirAll(filepath.Dir(target), 0755); err != nil {
			return errors.Wrapf(err, "cannot create directory for %q", f.Name)
		}
		if err = extractZipFile(f, target); err != nil {
			return errors.Wrapf(err, "cannot extract %q", f.Name)
		}
	}

	return nil
}

func extractZipFile(f *zip.File, target string) error {
	src, err := f.Open()
	if err != nil {
		return err
	}
	defer src.Close()

	dst, err := os.OpenFile(target, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return err
	}

	_, err = io.Copy(dst, src)
	if closeErr := dst.Close(); err == nil {
		err = closeErr
	}
	return err
}
