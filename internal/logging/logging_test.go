package logging

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New(Options{Level: "warn", NoColor: true, Output: &buf})
	require.NoError(t, err)
	defer cleanup()

	logger.Info("hidden")
	logger.Warn("shown")
	logger.Sync()

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")
	assert.Contains(t, buf.String(), "WARN")
}

func TestNewVerboseEnablesDebug(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := New(Options{Level: "error", Verbose: true, NoColor: true, Output: &buf})
	require.NoError(t, err)
	defer cleanup()

	logger.Debug("details")
	logger.Sync()

	assert.Contains(t, buf.String(), "details")
}

func TestNewRejectsUnknownLevel(t *testing.T) {
	_, _, err := New(Options{Level: "loud"})
	assert.Error(t, err)
}

func TestNewWritesJSONFileWithRunID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dupsweep.log")
	runID := NewRunID()

	var console bytes.Buffer
	logger, cleanup, err := New(Options{File: path, RunID: runID, Output: &console})
	require.NoError(t, err)

	logger.Debug("hashing")
	cleanup()

	data, err := os.ReadFile(path)
	require.NoError(t, err)

	line := strings.TrimSpace(string(data))
	var record map[string]any
	require.NoError(t, json.Unmarshal([]byte(line), &record))
	assert.Equal(t, "hashing", record["msg"])
	assert.Equal(t, runID, record["run_id"])
	assert.Empty(t, console.String(), "debug must not reach the console at the default level")
}

func TestNewRunIDUnique(t *testing.T) {
	assert.NotEqual(t, NewRunID(), NewRunID())
}
