package tasks

import (
	"archive/zip"
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrank/score-publisher/common/config"
	"github.com/openrank/score-publisher/common/rcontext"
	"github.com/openrank/score-publisher/manifests"
	"github.com/openrank/score-publisher/pipeline"
)

// recordingUploader captures object contents at upload time, since the
// scratch workspace is gone by the time the cycle returns.
type recordingUploader struct {
	mu      sync.Mutex
	objects map[string]string
}

func (u *recordingUploader) Bucket() string {
	return "test-bucket"
}

func (u *recordingUploader) Upload(_ context.Context, localPath string, key string) error {
	body, err := os.ReadFile(localPath)
	if err != nil {
		return err
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.objects[key] = string(body)
	return nil
}

func (u *recordingUploader) get(key string) (string, bool) {
	u.mu.Lock()
	defer u.mu.Unlock()
	body, ok := u.objects[key]
	return body, ok
}

func testPublisher(uploader pipeline.Uploader) *Publisher {
	return &Publisher{
		store:   manifests.NewStore(),
		connect: func() (pipeline.Uploader, error) { return uploader, nil },
		stopCh:  make(chan bool),
	}
}

func writeSnapshot(t *testing.T, dir string, stem string, manifest string, files map[string]string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, stem+manifests.ManifestExtension), []byte(manifest), 0644))

	f, err := os.Create(filepath.Join(dir, stem+manifests.ArchiveExtension))
	require.NoError(t, err)
	w := zip.NewWriter(f)
	for name, content := range files {
		entry, err := w.Create(name)
		require.NoError(t, err)
		_, err = entry.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, w.Close())
	require.NoError(t, f.Close())
}

func testCycleConfig(t *testing.T, dir string) config.PublisherConfig {
	t.Helper()
	cachePath := filepath.Join(t.TempDir(), "indexer-scores.csv")
	require.NoError(t, os.WriteFile(cachePath, []byte("alice,0.4\n"), 0644))
	return config.PublisherConfig{
		Directory:           dir,
		IndexerCache:        cachePath,
		NumWorkers:          2,
		ScanIntervalSeconds: 10,
	}
}

func TestRunCycle_PublishesSnapshotAndIndex(t *testing.T) {
	scratchParent := t.TempDir()
	t.Setenv("TMPDIR", scratchParent)

	dir := t.TempDir()
	writeSnapshot(t, dir, "1700000000000", `{
		"epoch": "2023-11-14T00:00:00+0000",
		"issuanceDate": "2023-11-14T22:13:20+0000",
		"effectiveDate": "2023-11-14T22:13:20+0000"
	}`, map[string]string{"a.dat": "scores-a"})

	uploader := &recordingUploader{objects: make(map[string]string)}
	p := testPublisher(uploader)

	require.NoError(t, p.runCycle(rcontext.Initial(), testCycleConfig(t, dir)))

	body, ok := uploader.get("files/1700000000000/a.dat")
	require.True(t, ok)
	assert.Equal(t, "scores-a", body)

	index, ok := uploader.get(EpochIndexKey)
	require.True(t, ok)
	assert.JSONEq(t, `["1700000000000"]`, index)

	cache, ok := uploader.get(IndexerCacheKey)
	require.True(t, ok)
	assert.Equal(t, "alice,0.4\n", cache)

	// The scratch workspace must be gone once the cycle is over
	leftovers, err := filepath.Glob(filepath.Join(scratchParent, "score-publisher*"))
	require.NoError(t, err)
	assert.Empty(t, leftovers)

	status := p.Status()
	assert.Equal(t, int64(1699920000000), status.CurrentEpoch)
	assert.Equal(t, 1, status.ManifestCount)
}

func TestRunCycle_IndexListsOnlyCurrentEpoch(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "1700000000000", `{
		"epoch": "2023-11-14T00:00:00+0000",
		"issuanceDate": "2023-11-14T22:13:20+0000",
		"effectiveDate": "2023-11-14T22:13:20+0000"
	}`, map[string]string{"a.dat": "old"})
	writeSnapshot(t, dir, "1700000060000", `{
		"epoch": "2023-11-15T00:00:00+0000",
		"issuanceDate": "2023-11-14T22:14:20+0000",
		"effectiveDate": "2023-11-14T22:14:20+0000"
	}`, map[string]string{"a.dat": "new"})

	uploader := &recordingUploader{objects: make(map[string]string)}
	p := testPublisher(uploader)

	require.NoError(t, p.runCycle(rcontext.Initial(), testCycleConfig(t, dir)))

	index, ok := uploader.get(EpochIndexKey)
	require.True(t, ok)
	assert.JSONEq(t, `["1700000060000"]`, index)
}

func TestRunCycle_EmptyDirectoryPublishesNothing(t *testing.T) {
	uploader := &recordingUploader{objects: make(map[string]string)}
	p := testPublisher(uploader)

	require.NoError(t, p.runCycle(rcontext.Initial(), testCycleConfig(t, t.TempDir())))

	assert.Empty(t, uploader.objects)
}

func TestRunCycle_SecondCyclePublishesIndexWithoutNewManifests(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "1700000000000", `{
		"epoch": "2023-11-14T00:00:00+0000",
		"issuanceDate": "2023-11-14T22:13:20+0000",
		"effectiveDate": "2023-11-14T22:13:20+0000"
	}`, map[string]string{"a.dat": "scores-a"})

	uploader := &recordingUploader{objects: make(map[string]string)}
	p := testPublisher(uploader)
	cfg := testCycleConfig(t, dir)

	require.NoError(t, p.runCycle(rcontext.Initial(), cfg))

	// Forget the uploads, keep the store: an unchanged directory still
	// republishes the index and cache every cycle
	uploader.objects = make(map[string]string)
	require.NoError(t, p.runCycle(rcontext.Initial(), cfg))

	_, ok := uploader.get("files/1700000000000/a.dat")
	assert.False(t, ok)
	index, ok := uploader.get(EpochIndexKey)
	require.True(t, ok)
	assert.JSONEq(t, `["1700000000000"]`, index)
	_, ok = uploader.get(IndexerCacheKey)
	assert.True(t, ok)
}

func TestWriteEpochIndex_Ascending(t *testing.T) {
	path := filepath.Join(t.TempDir(), "list.json")
	require.NoError(t, writeEpochIndex(path, []int64{100, 200, 300}))

	body, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.JSONEq(t, `["100", "200", "300"]`, string(body))
}
