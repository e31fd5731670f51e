package scanner

import (
	"context"
	"fmt"
	"time"

	"github.com/fenilsonani/dupsweep/internal/progress"
	"github.com/spf13/afero"
	"go.uber.org/zap"
)

// Options configures a scan
type Options struct {
	Filter    Filter
	Workers   int
	ChunkSize int
	BatchSize int
	Verify    bool
}

// Scanner runs the duplicate detection pipeline:
// collect, group by size, hash candidates, group by digest
type Scanner struct {
	fs               afero.Fs
	opts             Options
	logger           *zap.Logger
	progressReporter *progress.ProgressReporter
}

// New creates a new Scanner
func New(fs afero.Fs, opts Options, logger *zap.Logger) *Scanner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Scanner{
		fs:               fs,
		opts:             opts,
		logger:           logger,
		progressReporter: progress.NewProgressReporter(),
	}
}

// SetProgressReporter sets a custom progress reporter
func (s *Scanner) SetProgressReporter(pr *progress.ProgressReporter) {
	s.progressReporter = pr
}

// GetProgressReporter returns the scanner's progress reporter
func (s *Scanner) GetProgressReporter() *progress.ProgressReporter {
	return s.progressReporter
}

// Scan finds duplicate files under roots. Per-path failures are collected in
// the result; the error is non-nil only for ErrNoValidRoots or cancellation.
func (s *Scanner) Scan(ctx context.Context, roots []string) (*ScanResult, error) {
	startTime := time.Now()
	result := &ScanResult{}

	collector := NewCollector(s.fs, s.opts.Filter, s.logger)
	collector.SetBatchSize(s.opts.BatchSize)

	resolved, rootErrs, err := collector.ResolveRoots(roots)
	result.Errors = append(result.Errors, rootErrs...)
	if err != nil {
		s.reportError(startTime, err)
		return nil, err
	}

	s.logger.Info("scan started", zap.Strings("roots", resolved))

	var records []FileRecord
	for batch := range collector.Stream(ctx, resolved) {
		records = append(records, batch.Records...)
		result.Errors = append(result.Errors, batch.Errors...)
		result.FilesScanned += len(batch.Records)
		result.BytesScanned += batch.Bytes

		s.progressReporter.UpdateScanProgress(&progress.ScanProgress{
			Phase:       progress.PhaseCollecting,
			CurrentPath: batch.Last,
			FilesFound:  result.FilesScanned,
			BytesFound:  result.BytesScanned,
			Warnings:    len(result.Errors),
			StartTime:   startTime,
		})
	}
	if err := ctx.Err(); err != nil {
		s.reportError(startTime, err)
		return nil, fmt.Errorf("scan cancelled: %w", err)
	}

	sizeGroups := GroupBySize(records)
	result.Candidates = sizeGroups.Candidates()
	s.logger.Debug("size grouping complete",
		zap.Int("files", result.FilesScanned),
		zap.Int("size_groups", sizeGroups.Len()),
		zap.Int("candidates", result.Candidates))

	hasher := NewHasher(s.fs, s.opts.Workers, s.opts.ChunkSize, s.logger)
	hasher.SetVerify(s.opts.Verify)
	hasher.OnHashed(func(done int) {
		s.progressReporter.UpdateScanProgress(&progress.ScanProgress{
			Phase:      progress.PhaseHashing,
			FilesFound: result.FilesScanned,
			BytesFound: result.BytesScanned,
			Candidates: result.Candidates,
			Hashed:     done,
			StartTime:  startTime,
		})
	})

	groups, hashErrs, err := hasher.FindDuplicates(ctx, sizeGroups)
	if err != nil {
		s.reportError(startTime, err)
		return nil, fmt.Errorf("scan cancelled: %w", err)
	}
	result.Groups = groups
	result.Errors = append(result.Errors, hashErrs...)
	result.Hashed = result.Candidates - countStage(hashErrs, StageHash)
	result.Duration = time.Since(startTime)

	summary := result.Summary()
	s.logger.Info("scan complete",
		zap.Int("files", result.FilesScanned),
		zap.Int("groups", summary.Groups),
		zap.Int64("reclaimable", summary.Reclaimable),
		zap.Int("warnings", len(result.Errors)),
		zap.Duration("duration", result.Duration))

	s.progressReporter.UpdateScanProgress(&progress.ScanProgress{
		Phase:      progress.PhaseComplete,
		FilesFound: result.FilesScanned,
		BytesFound: result.BytesScanned,
		Candidates: result.Candidates,
		Hashed:     result.Hashed,
		Groups:     summary.Groups,
		Warnings:   len(result.Errors),
		StartTime:  startTime,
	})

	return result, nil
}

func (s *Scanner) reportError(startTime time.Time, err error) {
	s.progressReporter.UpdateScanProgress(&progress.ScanProgress{
		Phase:     progress.PhaseError,
		StartTime: startTime,
		Error:     err,
	})
}

func countStage(errs []*PathError, stage Stage) int {
	n := 0
	for _, err := range errs {
		if err.Stage == stage {
			n++
		}
	}
	return n
}
