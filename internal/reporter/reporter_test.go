package reporter

import (
	"bytes"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/resolver"
	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestMain(m *testing.M) {
	styles.DisableColor()
	os.Exit(m.Run())
}

func sampleResult() *scanner.ScanResult {
	return &scanner.ScanResult{
		Groups: []scanner.DuplicateGroup{
			{
				Digest: "00000000000000aa",
				Size:   2048,
				Files: []scanner.FileRecord{
					{Path: "/data/big/a", Size: 2048, Device: 1, Inode: 1},
					{Path: "/data/big/b", Size: 2048, Device: 1, Inode: 2},
					{Path: "/data/big/c", Size: 2048, Device: 1, Inode: 1},
				},
			},
			{
				Digest: "00000000000000bb",
				Size:   10,
				Files: []scanner.FileRecord{
					{Path: "/data/small/x", Size: 10},
					{Path: "/data/small/y", Size: 10},
				},
			},
		},
		Errors: []*scanner.PathError{
			{Path: "/data/locked", Stage: scanner.StageCollect, Err: errors.New("permission denied")},
		},
		FilesScanned: 7,
		BytesScanned: 6200,
		Duration:     1500 * time.Millisecond,
	}
}

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in      string
		want    OutputFormat
		wantErr bool
	}{
		{"", FormatSummary, false},
		{"summary", FormatSummary, false},
		{"TABLE", FormatTable, false},
		{" json ", FormatJSON, false},
		{"yaml", FormatYAML, false},
		{"xml", "", true},
	}

	for _, tt := range tests {
		got, err := ParseFormat(tt.in)
		if tt.wantErr {
			assert.Error(t, err, tt.in)
			continue
		}
		require.NoError(t, err, tt.in)
		assert.Equal(t, tt.want, got)
	}
}

func TestMemberStatus(t *testing.T) {
	group := sampleResult().Groups[0]

	assert.Equal(t, StatusKeep, MemberStatus(group, 0))
	assert.Equal(t, StatusDup, MemberStatus(group, 1))
	assert.Equal(t, StatusLink, MemberStatus(group, 2))
}

func TestReportSummary(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatSummary, Options{}).Report(sampleResult()))
	out := buf.String()

	assert.Contains(t, out, "Group 1/2")
	assert.Contains(t, out, "[KEEP] /data/big/a")
	assert.Contains(t, out, "[DUP]  /data/big/b")
	assert.Contains(t, out, "[LINK] /data/big/c")
	assert.Contains(t, out, "(same file as 1)")
	assert.Contains(t, out, "00000000000000aa")
	assert.Contains(t, out, "Duplicate groups: 2")
	assert.Contains(t, out, "Duplicate files:  3")
	assert.Contains(t, out, "Reclaimable:      4.0 KB")
	assert.Contains(t, out, "Warnings: 1")
	assert.NotContains(t, out, "/data/locked")

	// groups appear in the order given
	assert.Less(t, strings.Index(out, "/data/big/a"), strings.Index(out, "/data/small/x"))
}

func TestReportSummaryVerboseListsWarnings(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatSummary, Options{Verbose: true}).Report(sampleResult()))

	assert.Contains(t, buf.String(), "collect /data/locked: permission denied")
}

func TestFormatWarnings(t *testing.T) {
	errs := sampleResult().Errors

	assert.Empty(t, FormatWarnings(nil, true))

	quiet := FormatWarnings(errs, false)
	assert.Contains(t, quiet, "Warnings: 1")
	assert.Contains(t, quiet, "use --verbose")
	assert.NotContains(t, quiet, "/data/locked")

	assert.Contains(t, FormatWarnings(errs, true), "collect /data/locked: permission denied")
}

func TestReportSummaryNoDuplicates(t *testing.T) {
	var buf bytes.Buffer
	result := &scanner.ScanResult{FilesScanned: 3}
	require.NoError(t, New(&buf, FormatSummary, Options{}).Report(result))

	assert.Contains(t, buf.String(), "No duplicate files found.")
	assert.Contains(t, buf.String(), "Duplicate groups: 0")
	assert.Contains(t, buf.String(), "Reclaimable:      0 B")
}

func TestReportDoesNotMutate(t *testing.T) {
	result := sampleResult()
	before := sampleResult()

	for _, format := range []OutputFormat{FormatSummary, FormatTable, FormatJSON, FormatYAML} {
		require.NoError(t, New(&bytes.Buffer{}, format, Options{Verbose: true}).Report(result))
	}

	assert.Equal(t, before, result)
}

func TestReportTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatTable, Options{}).Report(sampleResult()))
	out := buf.String()

	assert.Contains(t, out, "keep")
	assert.Contains(t, out, "duplicate")
	assert.Contains(t, out, "link")
	assert.Contains(t, out, "Total: 2 groups, 3 duplicate files, 4.0 KB reclaimable")
	assert.Equal(t, 5, strings.Count(out, "/data/"))
}

func TestReportJSON(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatJSON, Options{}).Report(sampleResult()))

	var doc document
	require.NoError(t, json.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, 2, doc.Groups)
	assert.Equal(t, 3, doc.DuplicateFiles)
	assert.Equal(t, int64(4106), doc.Reclaimable)
	require.Len(t, doc.DuplicateGroups, 2)
	assert.Equal(t, "00000000000000aa", doc.DuplicateGroups[0].Digest)
	assert.Equal(t, StatusLink, doc.DuplicateGroups[0].Files[2].Status)
	require.Len(t, doc.Warnings, 1)
	assert.Equal(t, "collect", doc.Warnings[0].Stage)
}

func TestReportYAML(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, New(&buf, FormatYAML, Options{}).Report(sampleResult()))

	var doc document
	require.NoError(t, yaml.Unmarshal(buf.Bytes(), &doc))

	assert.Equal(t, 2, doc.Groups)
	assert.Equal(t, "/data/small/y", doc.DuplicateGroups[1].Files[1].Path)
}

func TestReportUnsupportedFormat(t *testing.T) {
	err := New(&bytes.Buffer{}, OutputFormat("xml"), Options{}).Report(sampleResult())
	assert.Error(t, err)
}

func TestSaveToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	require.NoError(t, SaveToFile(sampleResult(), path, FormatJSON, Options{}))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.True(t, json.Valid(data))

	err = SaveToFile(sampleResult(), filepath.Join(t.TempDir(), "missing", "report.json"), FormatJSON, Options{})
	assert.Error(t, err)
}

func TestFormatOutcomes(t *testing.T) {
	outcomes := []cleaner.Outcome{
		{File: scanner.FileRecord{Path: "/data/a"}, Status: cleaner.StatusDeleted},
		{File: scanner.FileRecord{Path: "/data/b"}, Status: cleaner.StatusWouldDelete},
		{
			File:   scanner.FileRecord{Path: "/data/c"},
			Status: cleaner.StatusSkipped,
			Err:    &cleaner.DeletionError{Path: "/data/c", Reason: cleaner.ErrorChanged},
		},
	}

	out := FormatOutcomes(outcomes)
	assert.Contains(t, out, "deleted /data/a")
	assert.Contains(t, out, "would delete /data/b")
	assert.Contains(t, out, "skipped")
	assert.Contains(t, out, "Changed since scan, left untouched: /data/c")
}

func TestFormatResolution(t *testing.T) {
	summary := &resolver.Summary{
		Resolved:   2,
		Skipped:    1,
		Deleted:    3,
		BytesFreed: 3072,
		Stopped:    true,
		Errors: []*cleaner.DeletionError{
			{Path: "/data/x", Reason: cleaner.ErrorPermissionDenied},
		},
	}

	out := FormatResolution(summary)
	assert.Contains(t, out, "Groups resolved: 2")
	assert.Contains(t, out, "Groups skipped:  1")
	assert.Contains(t, out, "Deleted: 3 files (3.0 KB)")
	assert.Contains(t, out, "Stopped before every group was reviewed")
	assert.Contains(t, out, "Permission denied: 1 files")

	summary.DryRun = true
	assert.Contains(t, FormatResolution(summary), "Would delete: 3 files")
}
