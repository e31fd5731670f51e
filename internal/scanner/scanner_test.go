package scanner

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/fenilsonani/dupsweep/internal/progress"
	"github.com/fenilsonani/dupsweep/internal/testutil"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func paths(records []FileRecord) []string {
	out := make([]string, 0, len(records))
	for _, r := range records {
		out = append(out, r.Path)
	}
	return out
}

func scanMem(t *testing.T, fs afero.Fs, opts Options, roots ...string) *ScanResult {
	t.Helper()
	result, err := New(fs, opts, nil).Scan(context.Background(), roots)
	require.NoError(t, err)
	return result
}

func TestScanSameSizeDifferentContent(t *testing.T) {
	fs := testutil.MemFs(t, map[string]string{
		"/r/a": "hello",
		"/r/b": "hello",
		"/r/c": "world",
	})

	result := scanMem(t, fs, Options{}, "/r")

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	assert.Equal(t, int64(5), group.Size)
	assert.Equal(t, []string{"/r/a", "/r/b"}, paths(group.Files))
	assert.Len(t, group.Digest, 16)
	assert.Equal(t, 3, result.FilesScanned)
	assert.Equal(t, 3, result.Candidates)
	assert.Equal(t, 3, result.Hashed)
	assert.Empty(t, result.Errors)
}

func TestScanThreeIdenticalFiles(t *testing.T) {
	content := strings.Repeat("x", 100)
	fs := testutil.MemFs(t, map[string]string{
		"/r/one":       content,
		"/r/sub/two":   content,
		"/r/sub/three": content,
	})

	result := scanMem(t, fs, Options{}, "/r")

	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Files, 3)
	assert.Equal(t, int64(200), result.Groups[0].Reclaimable())

	summary := result.Summary()
	assert.Equal(t, Summary{Groups: 1, DuplicateFiles: 2, Reclaimable: 200}, summary)
}

func TestScanBoundaries(t *testing.T) {
	tests := []struct {
		name  string
		files map[string]string
	}{
		{"zero byte files", map[string]string{"/r/a": "", "/r/b": "", "/r/c": ""}},
		{"distinct sizes", map[string]string{"/r/a": "1", "/r/b": "22", "/r/c": "333"}},
		{"single file", map[string]string{"/r/a": "alone"}},
		{"empty tree", map[string]string{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := testutil.MemFs(t, tt.files)
			require.NoError(t, fs.MkdirAll("/r", 0755))

			result := scanMem(t, fs, Options{}, "/r")
			assert.Empty(t, result.Groups)
			assert.Zero(t, result.Summary().Reclaimable)
		})
	}
}

func TestScanDistinctSizesAreNeverHashed(t *testing.T) {
	fs := testutil.MemFs(t, map[string]string{"/r/a": "1", "/r/b": "22"})

	result := scanMem(t, fs, Options{}, "/r")

	assert.Equal(t, 2, result.FilesScanned)
	assert.Zero(t, result.Candidates)
	assert.Zero(t, result.Hashed)
}

func TestScanOrdersGroupsBySizeDescending(t *testing.T) {
	fs := testutil.MemFs(t, map[string]string{
		"/r/a1": "aa",
		"/r/a2": "aa",
		"/r/b1": "bbbbbb",
		"/r/b2": "bbbbbb",
		"/r/c1": "cc",
		"/r/c2": "cc",
	})

	result := scanMem(t, fs, Options{}, "/r")

	require.Len(t, result.Groups, 3)
	assert.Equal(t, []string{"/r/b1", "/r/b2"}, paths(result.Groups[0].Files))
	// Equal sizes keep discovery order of their first member
	assert.Equal(t, []string{"/r/a1", "/r/a2"}, paths(result.Groups[1].Files))
	assert.Equal(t, []string{"/r/c1", "/r/c2"}, paths(result.Groups[2].Files))
}

func TestScanMembershipIsOrderInsensitive(t *testing.T) {
	fs := testutil.MemFs(t, map[string]string{
		"/x/a": "same",
		"/y/b": "same",
		"/x/c": "diff",
		"/y/d": "diff",
		"/y/e": "solo!",
	})

	membership := func(result *ScanResult) map[string][]string {
		out := make(map[string][]string)
		for _, g := range result.Groups {
			members := paths(g.Files)
			// sort for comparison
			if len(members) == 2 && members[0] > members[1] {
				members[0], members[1] = members[1], members[0]
			}
			out[g.Digest] = members
		}
		return out
	}

	forward := scanMem(t, fs, Options{}, "/x", "/y")
	backward := scanMem(t, fs, Options{}, "/y", "/x")

	assert.Equal(t, membership(forward), membership(backward))
	// Keep candidate follows root argument order
	assert.Equal(t, "/x/a", forward.Groups[0].Keep().Path)
	assert.Equal(t, "/y/b", backward.Groups[0].Keep().Path)
}

func TestScanIsIdempotent(t *testing.T) {
	fs := testutil.MemFs(t, map[string]string{
		"/r/a": "dup", "/r/b": "dup", "/r/c": "dup",
		"/r/d": "other", "/r/e": "other",
	})

	first := scanMem(t, fs, Options{Workers: 1}, "/r")
	second := scanMem(t, fs, Options{Workers: 8}, "/r")

	assert.Equal(t, first.Groups, second.Groups)
}

func TestScanNoValidRoots(t *testing.T) {
	fs := afero.NewMemMapFs()

	result, err := New(fs, Options{}, nil).Scan(context.Background(), []string{"/missing", "/also-missing"})

	assert.ErrorIs(t, err, ErrNoValidRoots)
	assert.Nil(t, result)
}

func TestScanSkipsInvalidRootButContinues(t *testing.T) {
	fs := testutil.MemFs(t, map[string]string{"/r/a": "dup", "/r/b": "dup"})

	result := scanMem(t, fs, Options{}, "/missing", "/r")

	require.Len(t, result.Groups, 1)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, "/missing", result.Errors[0].Path)
	assert.Equal(t, StageCollect, result.Errors[0].Stage)
}

func TestScanCancelled(t *testing.T) {
	fs := testutil.MemFs(t, map[string]string{"/r/a": "dup", "/r/b": "dup"})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := New(fs, Options{}, nil).Scan(ctx, []string{"/r"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestScanReportsProgress(t *testing.T) {
	fs := testutil.MemFs(t, map[string]string{"/r/a": "dup", "/r/b": "dup"})

	s := New(fs, Options{}, nil)
	pr := progress.NewProgressReporter()
	s.SetProgressReporter(pr)
	require.Same(t, pr, s.GetProgressReporter())

	_, err := s.Scan(context.Background(), []string{"/r"})
	require.NoError(t, err)

	final := pr.GetScanProgress()
	require.NotNil(t, final)
	assert.Equal(t, progress.PhaseComplete, final.Phase)
	assert.Equal(t, 2, final.FilesFound)
	assert.Equal(t, 1, final.Groups)
}

func TestScanWithVerify(t *testing.T) {
	fs := testutil.MemFs(t, map[string]string{"/r/a": "dup", "/r/b": "dup", "/r/c": "dup"})

	result := scanMem(t, fs, Options{Verify: true}, "/r")

	require.Len(t, result.Groups, 1)
	assert.Len(t, result.Groups[0].Files, 3)
}

// flakyOpenFs fails every open of path after the first one
type flakyOpenFs struct {
	afero.Fs
	path  string
	mu    sync.Mutex
	opens int
}

func (f *flakyOpenFs) Open(name string) (afero.File, error) {
	if name == f.path {
		f.mu.Lock()
		f.opens++
		n := f.opens
		f.mu.Unlock()
		if n > 1 {
			return nil, os.ErrPermission
		}
	}
	return f.Fs.Open(name)
}

func TestScanVerifyFailureKeepsHashedCount(t *testing.T) {
	fs := &flakyOpenFs{
		Fs:   testutil.MemFs(t, map[string]string{"/r/a": "dup", "/r/b": "dup"}),
		path: "/r/b",
	}

	result := scanMem(t, fs, Options{Verify: true}, "/r")

	assert.Empty(t, result.Groups)
	require.Len(t, result.Errors, 1)
	assert.Equal(t, StageVerify, result.Errors[0].Stage)
	assert.Equal(t, 2, result.Candidates)
	assert.Equal(t, 2, result.Hashed)
}

func TestScanOnDisk(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := testutil.NewFixture(t)

	dups := f.CreateDuplicates([]byte("photo bytes"), "2023/photo.jpg", "backup/photo (1).jpg")
	f.CreateFile("2023/other.jpg", []byte("other bytes"))
	f.CreateFile("empty-a", nil)
	f.CreateFile("empty-b", nil)
	f.CreateSymlink(dups[0], "links/photo-link.jpg")
	f.CreateBrokenSymlink("links/dangling")

	result, err := New(afero.NewOsFs(), Options{}, nil).Scan(context.Background(), []string{f.RootDir})
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, dups, paths(result.Groups[0].Files))
	assert.Empty(t, result.Errors)
}

func TestScanOnDiskUnreadableDirectory(t *testing.T) {
	testutil.SkipOnWindows(t)
	testutil.SkipIfRoot(t)
	f := testutil.NewFixture(t)

	f.CreateDuplicates([]byte("data"), "ok/a", "ok/b")
	locked := f.CreateUnreadableDir("locked")

	result, err := New(afero.NewOsFs(), Options{}, nil).Scan(context.Background(), []string{f.RootDir})
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	require.NotEmpty(t, result.Errors)

	var pathErr *PathError
	require.True(t, errors.As(result.Errors[0], &pathErr))
	assert.Equal(t, locked, pathErr.Path)
	assert.True(t, os.IsPermission(pathErr.Err) || errors.Is(pathErr, os.ErrPermission))
}

func TestScanOnDiskHardLinksAreIndependent(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := testutil.NewFixture(t)

	original := f.CreateFile("a/original", []byte("linked content"))
	link := f.CreateHardLink(original, "b/link")

	result, err := New(afero.NewOsFs(), Options{}, nil).Scan(context.Background(), []string{f.RootDir})
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	group := result.Groups[0]
	assert.Equal(t, []string{original, link}, paths(group.Files))
	assert.True(t, group.Files[1].SameInode(group.Files[0]))
	assert.Equal(t, 0, group.LinkedTo(1))
}

func TestScanOverlappingRootsDoNotRepeatFiles(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := testutil.NewFixture(t)

	f.CreateDuplicates([]byte("twice"), "outer/a", "outer/inner/b")

	result, err := New(afero.NewOsFs(), Options{}, nil).Scan(context.Background(),
		[]string{f.Path("outer"), f.Path("outer/inner"), f.Path("outer")})
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	assert.Equal(t, []string{f.Path("outer/a"), f.Path("outer/inner/b")}, paths(result.Groups[0].Files))
	assert.Equal(t, 2, result.FilesScanned)
}

func TestScanSymlinkedRootIsFollowed(t *testing.T) {
	testutil.SkipOnWindows(t)
	f := testutil.NewFixture(t)

	f.CreateDuplicates([]byte("dup"), "real/a", "real/b")
	link := f.CreateSymlink(f.Path("real"), "alias")

	result, err := New(afero.NewOsFs(), Options{}, nil).Scan(context.Background(), []string{link})
	require.NoError(t, err)

	require.Len(t, result.Groups, 1)
	resolved, err := filepath.EvalSymlinks(f.Path("real"))
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(resolved, "a"), result.Groups[0].Keep().Path)
}
