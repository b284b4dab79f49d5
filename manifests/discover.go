package manifests

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/getsentry/sentry-go"
	"github.com/pkg/errors"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/openrank/score-publisher/common/rcontext"
	"github.com/openrank/score-publisher/metrics"
	"github.com/openrank/score-publisher/pipeline"
	"github.com/openrank/score-publisher/util"
)

// JobSink receives upload jobs as the discoverer finds them, so uploads
// overlap with the rest of the scan instead of waiting for it to finish.
type JobSink interface {
	Enqueue(job pipeline.Job)
}

// Discoverer runs one pass over the score output directory, registering new
// manifests into the store and streaming their archive contents to the sink.
// Scratch is the cycle's workspace for extracted archives; the discoverer
// does not own or clean it.
type Discoverer struct {
	store   *Store
	sink    JobSink
	scratch string
}

func NewDiscoverer(store *Store, sink JobSink, scratch string) *Discoverer {
	return &Discoverer{
		store:   store,
		sink:    sink,
		scratch: scratch,
	}
}

// Scan visits the directory's immediate entries in whatever order the OS
// returns them. Entries that fail to parse are logged and skipped so they
// get retried on the next cycle; only a failure to read the directory itself
// aborts the scan.
func (d *Discoverer) Scan(ctx rcontext.RequestContext, dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return errors.Wrap(err, "cannot scan directory")
	}

	for _, entry := range entries {
		d.inspect(ctx, dir, entry.Name())
	}
	return nil
}

func (d *Discoverer) inspect(ctx rcontext.RequestContext, dir string, name string) {
	if filepath.Ext(name) != ManifestExtension {
		return
	}

	stem := strings.TrimSuffix(name, ManifestExtension)
	timestamp, err := strconv.ParseInt(stem, 10, 64)
	if err != nil {
		return // unrelated file
	}

	if d.store.Has(timestamp) {
		return // already processed on an earlier cycle
	}

	log := ctx.Log.WithField("path", filepath.Join(dir, name))
	manifest, err := ParseManifest(filepath.Join(dir, name))
	if err != nil {
		metrics.ManifestsSkipped.With(prometheus.Labels{"reason": "invalid_manifest"}).Inc()
		log.Error("Cannot load manifest: ", err)
		return
	}
	manifest.Timestamp = timestamp

	// A mismatch here means a corrupt or mis-named input, which no amount of
	// retrying will fix. Refusing to run beats publishing a broken epoch.
	if manifest.IssuedMillis() != timestamp {
		err = fmt.Errorf("manifest issuance date %s does not match its file name (%d != %d)", manifest.IssuanceDate, manifest.IssuedMillis(), timestamp)
		sentry.CaptureException(err)
		sentry.Flush(2 * time.Second) // Fatal exits before main's deferred flush
		log.Fatal(err)
	}

	if err = d.extract(filepath.Join(dir, stem+ArchiveExtension), timestamp); err != nil {
		metrics.ManifestsSkipped.With(prometheus.Labels{"reason": "archive_error"}).Inc()
		log.Error("Cannot extract archive: ", err)
		return
	}

	// Jobs are enqueued before the manifest is registered: if we die in
	// between, the next cycle redoes the whole manifest instead of silently
	// missing uploads.
	d.store.Register(manifest)
	metrics.ManifestsRegistered.Inc()
	log.WithField("epoch", manifest.Epoch).Info("Registered manifest")
}

func (d *Discoverer) extract(archivePath string, timestamp int64) error {
	dest := filepath.Join(d.scratch, strconv.FormatInt(timestamp, 10))
	if err := util.ExtractZip(archivePath, dest); err != nil {
		return err
	}

	keyPrefix := fmt.Sprintf("files/%d/", timestamp)
	return filepath.WalkDir(dest, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !entry.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(dest, path)
		if err != nil {
			return err
		}
		d.sink.Enqueue(pipeline.Job{
			LocalPath: path,
			RemoteKey: keyPrefix + filepath.ToSlash(rel),
		})
		return nil
	})
}
