package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReloadConfig_Defaults(t *testing.T) {
	oldPath := Path
	Path = filepath.Join(t.TempDir(), "score-publisher.yaml")
	defer func() { Path = oldPath }()

	c, err := reloadConfig()
	require.NoError(t, err)
	assert.Equal(t, 10, c.Publisher.NumWorkers)
	assert.Equal(t, 10, c.Publisher.ScanIntervalSeconds)
	assert.Equal(t, "STANDARD", c.S3.StorageClass)
	assert.False(t, c.Metrics.Enabled)

	// A default config file should have been generated
	_, err = os.Stat(Path)
	assert.NoError(t, err)
}

func TestReloadConfig_OverlaysFileOnDefaults(t *testing.T) {
	oldPath := Path
	Path = filepath.Join(t.TempDir(), "score-publisher.yaml")
	defer func() { Path = oldPath }()

	require.NoError(t, os.WriteFile(Path, []byte(`
publisher:
  directory: /var/scores
  numWorkers: 3
s3:
  bucketName: scores-prod
`), 0644))

	c, err := reloadConfig()
	require.NoError(t, err)
	assert.Equal(t, "/var/scores", c.Publisher.Directory)
	assert.Equal(t, 3, c.Publisher.NumWorkers)
	assert.Equal(t, "scores-prod", c.S3.BucketName)

	// Everything else keeps its default
	assert.Equal(t, 10, c.Publisher.ScanIntervalSeconds)
	assert.True(t, c.S3.Ssl)
}

func TestReloadConfig_DirectoryOverlay(t *testing.T) {
	oldPath := Path
	Path = t.TempDir()
	defer func() { Path = oldPath }()

	require.NoError(t, os.WriteFile(filepath.Join(Path, "01-base.yaml"), []byte(`
publisher:
  numWorkers: 3
`), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(Path, "02-override.yaml"), []byte(`
publisher:
  numWorkers: 7
`), 0644))

	c, err := reloadConfig()
	require.NoError(t, err)
	assert.Equal(t, 7, c.Publisher.NumWorkers)
}
