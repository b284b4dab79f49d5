package metrics

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/openrank/score-publisher/common/config"
)

func TestStop_ClearsServerForNextInit(t *testing.T) {
	oldPath := config.Path
	config.Path = filepath.Join(t.TempDir(), "score-publisher.yaml")
	defer func() { config.Path = oldPath }()
	require.NoError(t, os.WriteFile(config.Path, []byte(`
metrics:
  enabled: true
  bindAddress: localhost
  port: 0
`), 0644))

	Init()
	require.NotNil(t, srv)

	Stop()
	assert.Nil(t, srv)

	// Stopping an already-stopped listener is a no-op
	assert.NotPanics(t, Stop)
}
