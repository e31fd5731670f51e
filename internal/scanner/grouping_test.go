package scanner

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGroupBySize(t *testing.T) {
	records := []FileRecord{
		{Path: "/a", Size: 10},
		{Path: "/b", Size: 20},
		{Path: "/c", Size: 10},
		{Path: "/d", Size: 30},
		{Path: "/e", Size: 20},
		{Path: "/f", Size: 10},
	}

	groups := GroupBySize(records)

	assert.Equal(t, []int64{10, 20}, groups.Sizes)
	assert.Equal(t, []string{"/a", "/c", "/f"}, paths(groups.Members[10]))
	assert.Equal(t, []string{"/b", "/e"}, paths(groups.Members[20]))
	assert.NotContains(t, groups.Members, int64(30))
	assert.Equal(t, 2, groups.Len())
	assert.Equal(t, 5, groups.Candidates())
	assert.Equal(t, []string{"/a", "/c", "/f", "/b", "/e"}, paths(groups.Records()))
}

func TestGroupBySizeEmpty(t *testing.T) {
	groups := GroupBySize(nil)
	assert.Zero(t, groups.Len())
	assert.Zero(t, groups.Candidates())
	assert.Empty(t, groups.Records())
}

func TestGroupByDigest(t *testing.T) {
	hashed := []FileRecord{
		{Path: "/a", Size: 5, Digest: "d1"},
		{Path: "/b", Size: 5, Digest: "d2"},
		{Path: "/c", Size: 5, Digest: "d1"},
		{Path: "/d", Size: 5, Digest: "d3"},
		{Path: "/e", Size: 5, Digest: "d2"},
		{Path: "/f", Size: 5, Digest: ""},
	}

	groups := GroupByDigest(5, hashed)

	assert.Len(t, groups, 2)
	assert.Equal(t, "d1", groups[0].Digest)
	assert.Equal(t, []string{"/a", "/c"}, paths(groups[0].Files))
	assert.Equal(t, "d2", groups[1].Digest)
	assert.Equal(t, []string{"/b", "/e"}, paths(groups[1].Files))
	for _, g := range groups {
		assert.Equal(t, int64(5), g.Size)
	}
}

func TestDuplicateGroupAccessors(t *testing.T) {
	g := DuplicateGroup{
		Size:  100,
		Files: []FileRecord{{Path: "/keep"}, {Path: "/dup1"}, {Path: "/dup2"}},
	}

	assert.Equal(t, "/keep", g.Keep().Path)
	assert.Equal(t, []string{"/dup1", "/dup2"}, paths(g.Duplicates()))
	assert.Equal(t, int64(200), g.Reclaimable())

	single := DuplicateGroup{Size: 100, Files: []FileRecord{{Path: "/only"}}}
	assert.Nil(t, single.Duplicates())
	assert.Zero(t, single.Reclaimable())
}

func TestSameInode(t *testing.T) {
	a := FileRecord{Device: 1, Inode: 42}
	assert.True(t, a.SameInode(FileRecord{Device: 1, Inode: 42}))
	assert.False(t, a.SameInode(FileRecord{Device: 2, Inode: 42}))
	assert.False(t, FileRecord{}.SameInode(FileRecord{}), "unknown identity never matches")
}

func TestLinkedTo(t *testing.T) {
	group := DuplicateGroup{Files: []FileRecord{
		{Path: "/a", Device: 1, Inode: 10},
		{Path: "/b", Device: 1, Inode: 11},
		{Path: "/c", Device: 1, Inode: 10},
		{Path: "/d"},
	}}

	assert.Equal(t, -1, group.LinkedTo(0))
	assert.Equal(t, -1, group.LinkedTo(1))
	assert.Equal(t, 0, group.LinkedTo(2))
	assert.Equal(t, -1, group.LinkedTo(3))
}

func TestPathError(t *testing.T) {
	err := &PathError{Path: "/x", Stage: StageHash, Err: ErrSizeChanged}
	assert.Equal(t, "hash /x: file size changed during scan", err.Error())
	assert.ErrorIs(t, err, ErrSizeChanged)
}
