package progress

import (
	"fmt"
	"sync"
	"time"

	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// Phase represents the current phase of operation
type Phase string

const (
	PhaseCollecting Phase = "collecting"
	PhaseHashing    Phase = "hashing"
	PhaseResolving  Phase = "resolving"
	PhaseComplete   Phase = "complete"
	PhaseError      Phase = "error"
)

// ScanProgress represents progress while collecting and hashing files
type ScanProgress struct {
	Phase       Phase
	CurrentPath string
	FilesFound  int
	BytesFound  int64
	Candidates  int // files sharing a size with at least one other file
	Hashed      int
	Groups      int
	Warnings    int
	StartTime   time.Time
	Error       error
}

// ResolveProgress represents progress through the interactive resolver
type ResolveProgress struct {
	Phase         Phase
	Group         int // 1-based index of the group being resolved
	TotalGroups   int
	CurrentFile   string
	DeletedFiles  int
	FreedBytes    int64
	SkippedGroups int
	ErrorCount    int
	DryRun        bool
	StartTime     time.Time
	Error         error
}

// ProgressReporter provides thread-safe progress reporting
type ProgressReporter struct {
	scanProgress    *ScanProgress
	resolveProgress *ResolveProgress
	mu              sync.RWMutex
	listeners       []chan interface{}
}

// NewProgressReporter creates a new progress reporter
func NewProgressReporter() *ProgressReporter {
	return &ProgressReporter{
		listeners: make([]chan interface{}, 0),
	}
}

// Subscribe returns a channel that receives progress updates
func (pr *ProgressReporter) Subscribe() <-chan interface{} {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	ch := make(chan interface{}, 10)
	pr.listeners = append(pr.listeners, ch)
	return ch
}

// Unsubscribe closes and removes a listener channel
func (pr *ProgressReporter) Unsubscribe(ch <-chan interface{}) {
	pr.mu.Lock()
	defer pr.mu.Unlock()

	for i, listener := range pr.listeners {
		if listener == ch {
			close(listener)
			pr.listeners = append(pr.listeners[:i], pr.listeners[i+1:]...)
			return
		}
	}
}

// UpdateScanProgress updates scan progress and notifies listeners
func (pr *ProgressReporter) UpdateScanProgress(update *ScanProgress) {
	pr.mu.Lock()
	pr.scanProgress = update
	pr.mu.Unlock()

	pr.notify(update)
}

// UpdateResolveProgress updates resolver progress and notifies listeners
func (pr *ProgressReporter) UpdateResolveProgress(update *ResolveProgress) {
	pr.mu.Lock()
	pr.resolveProgress = update
	pr.mu.Unlock()

	pr.notify(update)
}

func (pr *ProgressReporter) notify(update interface{}) {
	pr.mu.RLock()
	defer pr.mu.RUnlock()

	// Non-blocking: slow listeners miss intermediate updates
	for _, listener := range pr.listeners {
		select {
		case listener <- update:
		default:
		}
	}
}

// GetScanProgress returns the current scan progress
func (pr *ProgressReporter) GetScanProgress() *ScanProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.scanProgress
}

// GetResolveProgress returns the current resolver progress
func (pr *ProgressReporter) GetResolveProgress() *ResolveProgress {
	pr.mu.RLock()
	defer pr.mu.RUnlock()
	return pr.resolveProgress
}

// FormatScanProgress returns a human-readable scan progress string
func FormatScanProgress(p *ScanProgress) string {
	if p == nil {
		return "Initializing..."
	}

	elapsed := time.Since(p.StartTime)

	switch p.Phase {
	case PhaseCollecting:
		return fmt.Sprintf("Collecting... Found %d files (%s) [%s]",
			p.FilesFound,
			FormatBytes(p.BytesFound),
			FormatDuration(elapsed))
	case PhaseHashing:
		percentage := 0
		if p.Candidates > 0 {
			percentage = (p.Hashed * 100) / p.Candidates
		}
		return fmt.Sprintf("Hashing... %d/%d candidates (%d%%) [%s]",
			p.Hashed,
			p.Candidates,
			percentage,
			FormatDuration(elapsed))
	case PhaseComplete:
		return fmt.Sprintf("Scan complete: %d files (%s), %d duplicate groups in %s",
			p.FilesFound,
			FormatBytes(p.BytesFound),
			p.Groups,
			FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Scan error: %v", p.Error)
	default:
		return "Scanning..."
	}
}

// FormatResolveProgress returns a human-readable resolver progress string
func FormatResolveProgress(p *ResolveProgress) string {
	if p == nil {
		return "Preparing..."
	}

	elapsed := time.Since(p.StartTime)
	verb := "deleted"
	if p.DryRun {
		verb = "would delete"
	}

	switch p.Phase {
	case PhaseResolving:
		return fmt.Sprintf("Group %d/%d - %d files %s (%s)",
			p.Group,
			p.TotalGroups,
			p.DeletedFiles,
			verb,
			FormatBytes(p.FreedBytes))
	case PhaseComplete:
		return fmt.Sprintf("Resolution complete: %d files %s (%s), %d groups skipped in %s",
			p.DeletedFiles,
			verb,
			FormatBytes(p.FreedBytes),
			p.SkippedGroups,
			FormatDuration(elapsed))
	case PhaseError:
		return fmt.Sprintf("Resolution error: %v", p.Error)
	default:
		return "Resolving..."
	}
}

// FormatBytes formats bytes in human-readable format
func FormatBytes(bytes int64) string {
	return utils.FormatBytes(bytes)
}

// FormatDuration formats duration in human-readable format
func FormatDuration(d time.Duration) string {
	d = d.Round(time.Second)

	h := d / time.Hour
	d -= h * time.Hour
	m := d / time.Minute
	d -= m * time.Minute
	s := d / time.Second

	if h > 0 {
		return fmt.Sprintf("%dh%dm%ds", h, m, s)
	}
	if m > 0 {
		return fmt.Sprintf("%dm%ds", m, s)
	}
	return fmt.Sprintf("%ds", s)
}
