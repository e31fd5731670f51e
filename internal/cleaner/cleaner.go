package cleaner

import (
	"context"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/security"
	"github.com/google/uuid"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Plan splits one duplicate group into the files to keep and the files to delete
type Plan struct {
	Group  scanner.DuplicateGroup
	Keep   []scanner.FileRecord
	Delete []scanner.FileRecord
}

// NewPlan builds a plan keeping the members at the given 0-based indices.
// Repeated indices are ignored; an empty keep set or an index outside the
// group is refused.
func NewPlan(group scanner.DuplicateGroup, keep []int) (*Plan, error) {
	if len(keep) == 0 {
		return nil, ErrEmptyKeepSet
	}

	kept := make(map[int]bool, len(keep))
	for _, idx := range keep {
		if idx < 0 || idx >= len(group.Files) {
			return nil, fmt.Errorf("%w: %d is not a member of a %d-file group", ErrInvalidSelection, idx+1, len(group.Files))
		}
		kept[idx] = true
	}

	plan := &Plan{Group: group}
	keepPaths := make(map[string]bool, len(kept))
	for i, file := range group.Files {
		if kept[i] {
			plan.Keep = append(plan.Keep, file)
			keepPaths[file.Path] = true
		}
	}
	if len(plan.Keep) == 0 {
		return nil, ErrEmptyKeepSet
	}

	for i, file := range group.Files {
		if kept[i] {
			continue
		}
		// Removing a path that is also kept would remove the kept copy
		if keepPaths[file.Path] {
			return nil, fmt.Errorf("%w: %s is both kept and deleted", ErrInvalidSelection, file.Path)
		}
		plan.Delete = append(plan.Delete, file)
	}

	return plan, nil
}

// KeepFirstPlan keeps the group's canonical first member
func KeepFirstPlan(group scanner.DuplicateGroup) (*Plan, error) {
	return NewPlan(group, []int{0})
}

// Reclaimable returns the bytes the plan would free
func (p *Plan) Reclaimable() int64 {
	return p.Group.Size * int64(len(p.Delete))
}

// Status is the final state of one planned deletion
type Status int

const (
	StatusDeleted Status = iota
	StatusWouldDelete
	StatusSkipped
	StatusFailed
)

func (s Status) String() string {
	switch s {
	case StatusDeleted:
		return "deleted"
	case StatusWouldDelete:
		return "would delete"
	case StatusSkipped:
		return "skipped"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Outcome records what happened to one file of the deletion set
type Outcome struct {
	File   scanner.FileRecord
	Status Status
	Err    *DeletionError
}

// CleanResult represents the result of executing one plan
type CleanResult struct {
	Outcomes     []Outcome
	DeletedFiles []string
	DeletedSize  int64
	Errors       []*DeletionError
	DryRun       bool
}

// Cleaner removes planned duplicates behind per-file safety guards
type Cleaner struct {
	fs          afero.Fs
	validator   *security.PathValidator
	manifest    *DeletionManifest
	dryRun      bool
	retryDelays []time.Duration
	logger      *zap.Logger
}

// New creates a new Cleaner
func New(fs afero.Fs, validator *security.PathValidator, logger *zap.Logger) *Cleaner {
	if validator == nil {
		validator = security.NewPathValidator()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Cleaner{
		fs:        fs,
		validator: validator,
		manifest:  NewDeletionManifest(),
		retryDelays: []time.Duration{
			100 * time.Millisecond,
			500 * time.Millisecond,
			2 * time.Second,
		},
		logger: logger,
	}
}

// SetDryRun makes Execute evaluate every guard without removing anything
func (c *Cleaner) SetDryRun(dryRun bool) {
	c.dryRun = dryRun
}

// DryRun reports whether removals are simulated
func (c *Cleaner) DryRun() bool {
	return c.dryRun
}

// SetRunID tags the manifest with the run identifier used in logs
func (c *Cleaner) SetRunID(runID string) {
	c.manifest.RunID = runID
}

// Guard re-checks a file immediately before removal. It returns nil only when
// the path is allowed by the validator and is still a regular file with the
// size recorded at scan time.
func (c *Cleaner) Guard(record scanner.FileRecord) *DeletionError {
	if err := c.validator.ValidatePathForDeletion(record.Path); err != nil {
		return &DeletionError{Path: record.Path, Reason: ErrorInvalidPath, Original: err}
	}

	info, err := c.lstat(record.Path)
	if err != nil {
		return CategorizeError(record.Path, err)
	}

	// A symlink swapped in after the scan would redirect the removal
	if info.Mode()&os.ModeSymlink != 0 {
		return &DeletionError{
			Path:     record.Path,
			Reason:   ErrorInvalidPath,
			Original: fmt.Errorf("%w: path is now a symlink", ErrFileChanged),
		}
	}
	if info.IsDir() {
		return &DeletionError{
			Path:     record.Path,
			Reason:   ErrorIsDirectory,
			Original: fmt.Errorf("%w: path is now a directory", ErrFileChanged),
		}
	}
	if !info.Mode().IsRegular() {
		return &DeletionError{
			Path:     record.Path,
			Reason:   ErrorInvalidPath,
			Original: fmt.Errorf("%w: not a regular file", ErrFileChanged),
		}
	}
	if info.Size() != record.Size {
		return &DeletionError{
			Path:     record.Path,
			Reason:   ErrorChanged,
			Original: fmt.Errorf("%w: recorded %d bytes, found %d", ErrFileChanged, record.Size, info.Size()),
		}
	}

	return nil
}

// CheckSurvivor returns nil when at least one kept file is still present with
// its recorded size
func (c *Cleaner) CheckSurvivor(keep []scanner.FileRecord) error {
	for _, record := range keep {
		info, err := c.lstat(record.Path)
		if err != nil {
			continue
		}
		if info.Mode().IsRegular() && info.Size() == record.Size {
			return nil
		}
	}
	return ErrNoSurvivor
}

func (c *Cleaner) lstat(path string) (os.FileInfo, error) {
	if lstater, ok := c.fs.(afero.Lstater); ok {
		info, _, err := lstater.LstatIfPossible(path)
		return info, err
	}
	return c.fs.Stat(path)
}

// Execute removes the plan's deletion set one file at a time. Failures are
// recorded per file and never roll back earlier removals.
func (c *Cleaner) Execute(ctx context.Context, plan *Plan) *CleanResult {
	result := &CleanResult{DryRun: c.dryRun}

	kept := ""
	if len(plan.Keep) > 0 {
		kept = plan.Keep[0].Path
	}

	for _, record := range plan.Delete {
		if err := ctx.Err(); err != nil {
			c.record(result, Outcome{
				File:   record,
				Status: StatusSkipped,
				Err:    &DeletionError{Path: record.Path, Reason: ErrorUnknown, Original: err},
			})
			continue
		}

		// Checked before every removal so the group never loses its last copy
		if err := c.CheckSurvivor(plan.Keep); err != nil {
			c.logger.Warn("refusing deletion without intact kept copy", zap.String("path", record.Path))
			c.record(result, Outcome{
				File:   record,
				Status: StatusSkipped,
				Err:    &DeletionError{Path: record.Path, Reason: ErrorNoSurvivor, Original: err},
			})
			continue
		}

		c.record(result, c.deleteFileWithRetry(ctx, record, kept))
	}

	return result
}

func (c *Cleaner) record(result *CleanResult, outcome Outcome) {
	result.Outcomes = append(result.Outcomes, outcome)
	switch outcome.Status {
	case StatusDeleted, StatusWouldDelete:
		result.DeletedFiles = append(result.DeletedFiles, outcome.File.Path)
		result.DeletedSize += outcome.File.Size
	default:
		if outcome.Err != nil {
			result.Errors = append(result.Errors, outcome.Err)
		}
	}
}

// deleteFileWithRetry attempts to delete a file with retries for transient errors
func (c *Cleaner) deleteFileWithRetry(ctx context.Context, record scanner.FileRecord, kept string) Outcome {
	var outcome Outcome

	for attempt := 0; attempt <= len(c.retryDelays); attempt++ {
		outcome = c.deleteFile(record, kept)
		if outcome.Err == nil || !outcome.Err.Retryable || attempt == len(c.retryDelays) {
			return outcome
		}

		c.logger.Debug("retrying deletion",
			zap.String("path", record.Path),
			zap.Int("attempt", attempt+1),
			zap.Error(outcome.Err.Original))

		select {
		case <-time.After(c.retryDelays[attempt]):
		case <-ctx.Done():
			return outcome
		}
	}

	return outcome
}

// deleteFile guards and removes a single file
func (c *Cleaner) deleteFile(record scanner.FileRecord, kept string) Outcome {
	if delErr := c.Guard(record); delErr != nil {
		c.logger.Warn("deletion refused",
			zap.String("path", record.Path),
			zap.String("reason", delErr.Reason.String()),
			zap.Error(delErr.Original))
		return Outcome{File: record, Status: StatusSkipped, Err: delErr}
	}

	if c.dryRun {
		c.logger.Info("dry run: would delete", zap.String("path", record.Path))
		return Outcome{File: record, Status: StatusWouldDelete}
	}

	if err := c.fs.Remove(record.Path); err != nil {
		delErr := CategorizeError(record.Path, err)
		c.logger.Warn("deletion failed", zap.String("path", record.Path), zap.Error(err))
		return Outcome{File: record, Status: StatusFailed, Err: delErr}
	}

	c.manifest.Add(record.Path, record.Size, record.Digest, kept)
	c.logger.Info("deleted duplicate",
		zap.String("path", record.Path),
		zap.Int64("size", record.Size),
		zap.String("kept", kept))
	return Outcome{File: record, Status: StatusDeleted}
}

// GetManifest returns the deletion manifest
func (c *Cleaner) GetManifest() *DeletionManifest {
	return c.manifest
}

// SaveManifest saves the deletion manifest to a file
func (c *Cleaner) SaveManifest(path string) error {
	return c.manifest.Save(c.fs, path)
}

// DeletionManifest keeps track of deleted files
type DeletionManifest struct {
	RunID     string
	Files     []DeletedFileInfo
	Timestamp time.Time
	TotalSize int64
}

// DeletedFileInfo represents information about a deleted file
type DeletedFileInfo struct {
	Path      string
	Size      int64
	Digest    string
	KeptPath  string
	DeletedAt time.Time
}

// NewDeletionManifest creates a new DeletionManifest
func NewDeletionManifest() *DeletionManifest {
	return &DeletionManifest{
		RunID:     uuid.NewString(),
		Files:     []DeletedFileInfo{},
		Timestamp: time.Now(),
	}
}

// Add adds a file to the manifest
func (m *DeletionManifest) Add(path string, size int64, digest, keptPath string) {
	m.Files = append(m.Files, DeletedFileInfo{
		Path:      path,
		Size:      size,
		Digest:    digest,
		KeptPath:  keptPath,
		DeletedAt: time.Now(),
	})
	m.TotalSize += size
}

// Save writes the manifest as a plain text audit log
func (m *DeletionManifest) Save(fs afero.Fs, path string) error {
	file, err := fs.Create(path)
	if err != nil {
		return err
	}
	defer file.Close()

	files := make([]DeletedFileInfo, len(m.Files))
	copy(files, m.Files)
	sort.SliceStable(files, func(i, j int) bool {
		return files[i].DeletedAt.Before(files[j].DeletedAt)
	})

	fmt.Fprintf(file, "Deletion Manifest\n")
	fmt.Fprintf(file, "Run: %s\n", m.RunID)
	fmt.Fprintf(file, "Created: %s\n", m.Timestamp.Format(time.RFC3339))
	fmt.Fprintf(file, "Total Size: %d bytes\n", m.TotalSize)
	fmt.Fprintf(file, "Total Files: %d\n\n", len(files))

	for _, f := range files {
		fmt.Fprintf(file, "%s | %d bytes | %s | kept %s | %s\n",
			f.Path, f.Size, f.Digest, f.KeptPath, f.DeletedAt.Format(time.RFC3339))
	}

	return file.Sync()
}
