package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// execute runs the root command with a config path that does not exist so
// the user's own configuration never leaks into tests
func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetIn(strings.NewReader(stdin))

	base := []string{"--config", filepath.Join(t.TempDir(), "none.yaml"), "--no-color"}
	cmd.SetArgs(append(base, args...))

	err := cmd.Execute()
	return out.String(), err
}

func duplicatesFixture(t *testing.T) (*testutil.TestFixture, []string) {
	t.Helper()
	f := testutil.NewFixture(t)
	paths := f.CreateDuplicates([]byte("same bytes"), "docs/a.txt", "backup/a.txt", "old/a copy.txt")
	f.CreateFile("docs/unique.txt", []byte("only one of these"))
	return f, paths
}

func TestReportJSON(t *testing.T) {
	f, paths := duplicatesFixture(t)

	out, err := execute(t, "", f.RootDir, "-o", "json")
	require.NoError(t, err)

	var doc struct {
		Groups          int `json:"groups"`
		DuplicateFiles  int `json:"duplicate_files"`
		DuplicateGroups []struct {
			Files []struct {
				Path   string `json:"path"`
				Status string `json:"status"`
			} `json:"files"`
		} `json:"duplicate_groups"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))

	assert.Equal(t, 1, doc.Groups)
	assert.Equal(t, 2, doc.DuplicateFiles)
	require.Len(t, doc.DuplicateGroups[0].Files, 3)
	assert.Equal(t, "keep", doc.DuplicateGroups[0].Files[0].Status)

	// report mode never deletes
	for _, p := range paths {
		f.AssertFileExists(p)
	}
}

func TestReportSummaryToFile(t *testing.T) {
	f, _ := duplicatesFixture(t)
	reportPath := filepath.Join(t.TempDir(), "report.txt")

	out, err := execute(t, "", f.RootDir, "--file", reportPath)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(reportPath)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Duplicate groups: 1")
}

func TestNoDuplicates(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateFile("a", []byte("alpha"))
	f.CreateFile("b", []byte("beta"))

	out, err := execute(t, "", f.RootDir)
	require.NoError(t, err)
	assert.Contains(t, out, "No duplicate files found.")
}

func TestNoValidRoots(t *testing.T) {
	_, err := execute(t, "", filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, scanner.ErrNoValidRoots)
}

func TestRequiresPath(t *testing.T) {
	_, err := execute(t, "")
	assert.Error(t, err)
}

func TestInteractiveKeepFirst(t *testing.T) {
	testutil.SkipOnWindows(t)
	f, paths := duplicatesFixture(t)
	manifest := filepath.Join(t.TempDir(), "manifest.txt")

	out, err := execute(t, "f\ny\n", f.RootDir, "-i", "--manifest", manifest)
	require.NoError(t, err)

	// lexical traversal puts backup/ first
	f.AssertFileExists(paths[1])
	f.AssertFileNotExists(paths[0])
	f.AssertFileNotExists(paths[2])

	assert.Contains(t, out, "Groups resolved: 1")
	assert.Contains(t, out, "Deleted: 2 files")

	data, err := os.ReadFile(manifest)
	require.NoError(t, err)
	assert.Contains(t, string(data), paths[0])
	assert.Contains(t, string(data), "Run:")
}

func TestInteractiveShowsScanWarnings(t *testing.T) {
	testutil.SkipOnWindows(t)
	testutil.SkipIfRoot(t)
	f, paths := duplicatesFixture(t)
	locked := f.CreateUnreadableDir("locked")

	out, err := execute(t, "s\n", f.RootDir, "-i", "-v")
	require.NoError(t, err)

	assert.Contains(t, out, "Warnings: 1")
	assert.Contains(t, out, locked)
	assert.Less(t, strings.Index(out, "Warnings: 1"), strings.Index(out, "Group 1/1"))
	assert.Contains(t, out, "Groups skipped:  1")
	for _, p := range paths {
		f.AssertFileExists(p)
	}
}

func TestInteractiveDryRunDeletesNothing(t *testing.T) {
	testutil.SkipOnWindows(t)
	f, paths := duplicatesFixture(t)

	out, err := execute(t, "2\ny\n", f.RootDir, "-i", "--dry-run")
	require.NoError(t, err)

	for _, p := range paths {
		f.AssertFileExists(p)
	}
	assert.Contains(t, out, "[DRY RUN MODE]")
	assert.Contains(t, out, "Would delete: 2 files")
}

func TestInteractiveDeclineAndQuit(t *testing.T) {
	testutil.SkipOnWindows(t)
	f, paths := duplicatesFixture(t)

	out, err := execute(t, "f\nn\n", f.RootDir, "-i")
	require.NoError(t, err)
	for _, p := range paths {
		f.AssertFileExists(p)
	}
	assert.Contains(t, out, "Groups skipped:  1")

	out, err = execute(t, "q\n", f.RootDir, "-i")
	require.NoError(t, err)
	assert.Contains(t, out, "Stopped before every group was reviewed")
}

func TestConfigInitAndShow(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dupsweep.toml")

	cmd := newRootCmd()
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--config", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "Config written to: "+path)

	_, err := os.Stat(path)
	require.NoError(t, err)

	cmd = newRootCmd()
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "init", "--config", path})
	assert.Error(t, cmd.Execute(), "init refuses to overwrite")

	cmd = newRootCmd()
	out.Reset()
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"config", "--config", path})
	require.NoError(t, cmd.Execute())
	assert.Contains(t, out.String(), "scan.chunk_size:           64KB")
	assert.Contains(t, out.String(), "output.format:             summary")
}

func TestFlagsOverrideConfig(t *testing.T) {
	f := testutil.NewFixture(t)
	f.CreateDuplicates([]byte("tiny"), "a", "b")
	f.CreateDuplicates([]byte(strings.Repeat("x", 4096)), "big/a", "big/b")

	out, err := execute(t, "", f.RootDir, "--min-size", "1KB", "-o", "json")
	require.NoError(t, err)

	var doc struct {
		Groups int `json:"groups"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &doc))
	assert.Equal(t, 1, doc.Groups)
}

func TestInvalidFlagValue(t *testing.T) {
	f, _ := duplicatesFixture(t)

	_, err := execute(t, "", f.RootDir, "--chunk-size", "lots")
	assert.Error(t, err)

	_, err = execute(t, "", f.RootDir, "-o", "xml")
	assert.Error(t, err)
}
