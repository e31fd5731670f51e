package ui

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fenilsonani/dupsweep/internal/progress"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	"github.com/fenilsonani/dupsweep/internal/ui/utils"
	"golang.org/x/term"
)

var spinner = []string{"⠋", "⠙", "⠹", "⠸", "⠼", "⠴", "⠦", "⠧", "⠇", "⠏"}

// LiveProgress draws scan progress on a terminal while the pipeline runs
type LiveProgress struct {
	mu          sync.Mutex
	out         io.Writer
	last        *progress.ScanProgress
	lastUpdate  time.Time
	interval    time.Duration
	termWidth   int
	enabled     bool
	started     bool
	statusLines int
	frame       int
}

// NewLiveProgress creates a live progress display writing to out.
// It is only enabled when out is a terminal.
func NewLiveProgress(out io.Writer) *LiveProgress {
	width := 80
	enabled := false
	if f, ok := out.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		enabled = true
		if w, _, err := term.GetSize(int(f.Fd())); err == nil && w > 0 {
			width = w
		}
	}

	return &LiveProgress{
		out:         out,
		interval:    100 * time.Millisecond,
		termWidth:   width,
		enabled:     enabled,
		statusLines: 2,
	}
}

// Start reserves the status area
func (lp *LiveProgress) Start() {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if !lp.enabled || lp.started {
		return
	}
	lp.started = true
	fmt.Fprint(lp.out, strings.Repeat("\n", lp.statusLines))
	fmt.Fprintf(lp.out, "\033[%dA", lp.statusLines)
}

// Update records the latest scan progress and redraws at most every interval.
// Phase changes are always drawn.
func (lp *LiveProgress) Update(p *progress.ScanProgress) {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if !lp.enabled || !lp.started || p == nil {
		return
	}

	now := time.Now()
	phaseChanged := lp.last == nil || lp.last.Phase != p.Phase
	if !phaseChanged && now.Sub(lp.lastUpdate) < lp.interval {
		lp.last = p
		return
	}
	lp.last = p
	lp.lastUpdate = now

	lp.render()
}

func (lp *LiveProgress) render() {
	width := lp.termWidth - 2
	lp.frame = (lp.frame + 1) % len(spinner)

	fmt.Fprint(lp.out, "\033[s")

	line1 := progress.FormatScanProgress(lp.last)
	if lp.last.Warnings > 0 {
		line1 += fmt.Sprintf(" | %d warnings", lp.last.Warnings)
	}
	fmt.Fprintf(lp.out, "\033[K%s\n", utils.TruncateString(line1, width))

	line2 := spinner[lp.frame] + " "
	pathWidth := width - 2
	if lp.last.Phase == progress.PhaseHashing && lp.last.Candidates > 0 {
		line2 += styles.ProgressBar(lp.last.Hashed, lp.last.Candidates, 20) + " "
		pathWidth -= 21
	}
	line2 += utils.TruncatePath(lp.last.CurrentPath, pathWidth)
	fmt.Fprintf(lp.out, "\033[K%s", line2)

	fmt.Fprint(lp.out, "\033[u")
}

// Watch subscribes to reporter and draws every update until the returned
// stop function is called
func (lp *LiveProgress) Watch(reporter *progress.ProgressReporter) func() {
	updates := reporter.Subscribe()
	done := make(chan struct{})

	go func() {
		defer close(done)
		for update := range updates {
			if p, ok := update.(*progress.ScanProgress); ok {
				lp.Update(p)
			}
		}
	}()

	var once sync.Once
	return func() {
		once.Do(func() {
			reporter.Unsubscribe(updates)
			<-done
		})
	}
}

// Finish clears the status area and leaves the cursor below it
func (lp *LiveProgress) Finish() {
	lp.mu.Lock()
	defer lp.mu.Unlock()

	if !lp.enabled || !lp.started {
		return
	}
	lp.started = false

	for i := 0; i < lp.statusLines; i++ {
		fmt.Fprint(lp.out, "\033[K\n")
	}
	fmt.Fprintf(lp.out, "\033[%dA", lp.statusLines)
}

// SetEnabled enables or disables live progress
func (lp *LiveProgress) SetEnabled(enabled bool) {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	lp.enabled = enabled
}

// Enabled reports whether progress is drawn
func (lp *LiveProgress) Enabled() bool {
	lp.mu.Lock()
	defer lp.mu.Unlock()
	return lp.enabled
}
