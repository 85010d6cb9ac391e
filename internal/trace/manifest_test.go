package trace

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeManifest(t *testing.T, content string) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "trace.yaml")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	return path
}

func TestLoadManifest(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "events: events.csv\nmemory: memory.csv\nlabel: nightly run\n")

	m, err := LoadManifest(path)
	require.NoError(t, err)

	dir := filepath.Dir(path)
	assert.Equal(t, filepath.Join(dir, "events.csv"), m.Events)
	assert.Equal(t, filepath.Join(dir, "memory.csv"), m.Memory)
	assert.Equal(t, "nightly run", m.Label)
}

func TestLoadManifest_AbsolutePathsPreserved(t *testing.T) {
	t.Parallel()

	path := writeManifest(t, "events: /data/events.csv.lz4\nmemory: /data/memory.json\n")

	m, err := LoadManifest(path)
	require.NoError(t, err)

	assert.Equal(t, "/data/events.csv.lz4", m.Events)
	assert.Equal(t, "/data/memory.json", m.Memory)
}

func TestLoadManifest_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		content string
		wantErr error
	}{
		{name: "missing events", content: "memory: m.csv\n", wantErr: ErrManifestNoEvents},
		{name: "missing memory", content: "events: e.csv\n", wantErr: ErrManifestNoMemory},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			_, err := LoadManifest(writeManifest(t, tt.content))
			assert.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestLoadManifest_UnreadableFile(t *testing.T) {
	t.Parallel()

	_, err := LoadManifest(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestLoadManifest_MalformedYAML(t *testing.T) {
	t.Parallel()

	_, err := LoadManifest(writeManifest(t, "events: [unterminated\n"))
	assert.Error(t, err)
}
