package commands

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// writeLeakTrace writes a leaking event log and a rising memory series
// into dir and returns both paths.
func writeLeakTrace(t *testing.T, dir string) (eventsPath, memoryPath string) {
	t.Helper()

	var events bytes.Buffer

	events.WriteString("timestamp,Event type,size,ptr\n")

	for i := range 100 {
		fmt.Fprintf(&events, "%d,memtrace:malloc,1024,0x%x\n", 1_000_000_000+i*10_000_000, 0x1000+i)
	}

	var memory bytes.Buffer

	memory.WriteString("timestamp,Memory Usage\n")

	for i := range 50 {
		fmt.Fprintf(&memory, "%d,%d\n", 1_000_000_000+i*1_000_000_000, 1000+100*i)
	}

	eventsPath = filepath.Join(dir, "events.csv")
	memoryPath = filepath.Join(dir, "memory.csv")

	require.NoError(t, os.WriteFile(eventsPath, events.Bytes(), 0o600))
	require.NoError(t, os.WriteFile(memoryPath, memory.Bytes(), 0o600))

	return eventsPath, memoryPath
}

func runAnalyze(t *testing.T, args ...string) (string, error) {
	t.Helper()

	cmd := NewAnalyzeCommand()

	var out bytes.Buffer

	cmd.SetOut(&out)
	cmd.SetErr(&out)
	cmd.SetArgs(args)

	err := cmd.Execute()

	return out.String(), err
}

func TestAnalyzeCommand_TextReport(t *testing.T) {
	eventsPath, memoryPath := writeLeakTrace(t, t.TempDir())

	out, err := runAnalyze(t,
		"--events", eventsPath,
		"--memory", memoryPath,
		"--no-color",
		"--label", "soak test",
	)
	require.NoError(t, err)

	assert.Contains(t, out, "Trace: soak test")
	assert.Contains(t, out, "Severity:")
	assert.Contains(t, out, "Unreleased allocations")
}

func TestAnalyzeCommand_JSONReport(t *testing.T) {
	eventsPath, memoryPath := writeLeakTrace(t, t.TempDir())

	out, err := runAnalyze(t,
		"--events", eventsPath,
		"--memory", memoryPath,
		"--format", "json",
	)
	require.NoError(t, err)

	var doc map[string]any

	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Contains(t, doc, "severity")
	assert.Contains(t, doc, "metrics")
}

func TestAnalyzeCommand_Manifest(t *testing.T) {
	dir := t.TempDir()
	writeLeakTrace(t, dir)

	manifestPath := filepath.Join(dir, "trace.yaml")
	manifest := "events: events.csv\nmemory: memory.csv\nlabel: from manifest\n"
	require.NoError(t, os.WriteFile(manifestPath, []byte(manifest), 0o600))

	out, err := runAnalyze(t, "--manifest", manifestPath, "--no-color")
	require.NoError(t, err)

	assert.Contains(t, out, "Trace: from manifest")
}

func TestAnalyzeCommand_WritesPlot(t *testing.T) {
	dir := t.TempDir()
	eventsPath, memoryPath := writeLeakTrace(t, dir)

	plotPath := filepath.Join(dir, "usage.html")

	_, err := runAnalyze(t,
		"--events", eventsPath,
		"--memory", memoryPath,
		"--plot", plotPath,
	)
	require.NoError(t, err)

	html, err := os.ReadFile(plotPath)
	require.NoError(t, err)
	assert.Contains(t, string(html), "Memory usage")
}

func TestAnalyzeCommand_FlagValidation(t *testing.T) {
	eventsPath, memoryPath := writeLeakTrace(t, t.TempDir())

	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{
			name:    "no input",
			args:    nil,
			wantErr: ErrNoInput,
		},
		{
			name:    "events without memory",
			args:    []string{"--events", eventsPath},
			wantErr: ErrNoInput,
		},
		{
			name: "manifest with direct paths",
			args: []string{
				"--manifest", "trace.yaml",
				"--events", eventsPath,
				"--memory", memoryPath,
			},
			wantErr: ErrConflictingInput,
		},
		{
			name: "bad format",
			args: []string{
				"--events", eventsPath,
				"--memory", memoryPath,
				"--format", "xml",
			},
			wantErr: ErrUnknownFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := runAnalyze(t, tt.args...)
			require.ErrorIs(t, err, tt.wantErr)
		})
	}
}

func TestAnalyzeCommand_MissingTraceFile(t *testing.T) {
	dir := t.TempDir()

	_, err := runAnalyze(t,
		"--events", filepath.Join(dir, "nope.csv"),
		"--memory", filepath.Join(dir, "nope2.csv"),
	)
	require.Error(t, err)
}
