package scanner

import (
	"errors"
	"fmt"
	"time"
)

var (
	// ErrNoValidRoots is returned when none of the requested roots can be scanned
	ErrNoValidRoots = errors.New("no valid root paths to scan")
	// ErrSizeChanged marks a file whose size changed between collection and hashing
	ErrSizeChanged = errors.New("file size changed during scan")
)

// FileRecord represents a regular file discovered during collection
type FileRecord struct {
	Path    string
	Root    string // root argument the file was discovered under
	Size    int64
	Digest  string // empty until hashed
	ModTime time.Time
	Device  uint64
	Inode   uint64
}

// SameInode reports whether both records point at the same underlying file
func (r FileRecord) SameInode(other FileRecord) bool {
	return r.Inode != 0 && r.Device == other.Device && r.Inode == other.Inode
}

// DuplicateGroup is a set of files with identical size and content.
// Files[0] is the canonical copy kept by default.
type DuplicateGroup struct {
	Digest string
	Size   int64
	Files  []FileRecord
}

// Keep returns the default keep candidate
func (g DuplicateGroup) Keep() FileRecord {
	return g.Files[0]
}

// Duplicates returns every member after the keep candidate
func (g DuplicateGroup) Duplicates() []FileRecord {
	if len(g.Files) < 2 {
		return nil
	}
	return g.Files[1:]
}

// Reclaimable returns the bytes freed by keeping exactly one copy
func (g DuplicateGroup) Reclaimable() int64 {
	if len(g.Files) < 2 {
		return 0
	}
	return g.Size * int64(len(g.Files)-1)
}

// LinkedTo returns the index of an earlier member that shares the inode of
// member i, or -1 when member i is not a hard link of an earlier member
func (g DuplicateGroup) LinkedTo(i int) int {
	for j := 0; j < i && j < len(g.Files); j++ {
		if g.Files[i].SameInode(g.Files[j]) {
			return j
		}
	}
	return -1
}

// Stage identifies the pipeline stage an error occurred in
type Stage string

const (
	StageCollect Stage = "collect"
	StageHash    Stage = "hash"
	StageVerify  Stage = "verify"
	StageDelete  Stage = "delete"
)

// PathError records a recoverable failure for a single path
type PathError struct {
	Path  string
	Stage Stage
	Err   error
}

func (e *PathError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Stage, e.Path, e.Err)
}

func (e *PathError) Unwrap() error {
	return e.Err
}

// ScanResult represents the result of a duplicate scan
type ScanResult struct {
	Groups       []DuplicateGroup
	Errors       []*PathError
	FilesScanned int
	BytesScanned int64
	Candidates   int // files that shared a size with another file
	Hashed       int
	Duration     time.Duration
}

// Summary aggregates a set of duplicate groups
type Summary struct {
	Groups         int
	DuplicateFiles int // members beyond the first of each group
	Reclaimable    int64
}

// Summary computes aggregate counts over the result's groups
func (r *ScanResult) Summary() Summary {
	return Summarize(r.Groups)
}

// Summarize computes aggregate counts over groups
func Summarize(groups []DuplicateGroup) Summary {
	s := Summary{Groups: len(groups)}
	for _, g := range groups {
		s.DuplicateFiles += len(g.Duplicates())
		s.Reclaimable += g.Reclaimable()
	}
	return s
}
