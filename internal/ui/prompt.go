package ui

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/reporter"
	"github.com/fenilsonani/dupsweep/internal/resolver"
	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/ui/styles"
	"github.com/fenilsonani/dupsweep/pkg/utils"
)

// ErrBadSelection is returned by ParseSelection for unreadable input
var ErrBadSelection = errors.New("could not read selection")

// maxRange bounds a single "a-b" range
const maxRange = 1 << 16

const selectionHelp = "numbers to keep (e.g. 1,3 or 2-4), f = keep first, s = skip, q = quit"

// LinePrompter asks for decisions on a line-oriented terminal
type LinePrompter struct {
	in    *bufio.Reader
	out   io.Writer
	start sync.Once
	lines chan lineResult
}

type lineResult struct {
	line string
	err  error
}

// NewLinePrompter creates a prompter reading answers from in
func NewLinePrompter(in io.Reader, out io.Writer) *LinePrompter {
	return &LinePrompter{
		in:    bufio.NewReader(in),
		out:   out,
		lines: make(chan lineResult),
	}
}

// readLoop is the only reader of p.in, so a line read ahead of a cancelled
// prompt is still handed to the next one.
func (p *LinePrompter) readLoop() {
	defer close(p.lines)
	for {
		line, err := p.in.ReadString('\n')
		p.lines <- lineResult{line: line, err: err}
		if err != nil {
			return
		}
	}
}

// readLine waits for the next line or for ctx to be done
func (p *LinePrompter) readLine(ctx context.Context) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	p.start.Do(func() { go p.readLoop() })

	var res lineResult
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case r, ok := <-p.lines:
		if !ok {
			return "", resolver.ErrQuit
		}
		res = r
	}

	line := strings.TrimSpace(res.line)
	if res.err != nil {
		if errors.Is(res.err, io.EOF) && line != "" {
			return line, nil
		}
		if errors.Is(res.err, io.EOF) {
			return "", resolver.ErrQuit
		}
		return "", res.err
	}
	return line, nil
}

// Present implements resolver.Prompter
func (p *LinePrompter) Present(ctx context.Context, view resolver.GroupView) (resolver.Decision, error) {
	fmt.Fprintln(p.out)
	fmt.Fprint(p.out, reporter.FormatGroup(view.Index, view.Total, view.Group))

	for {
		fmt.Fprintf(p.out, "%s\n%s ", styles.HelpStyle.Render(selectionHelp), styles.BoldStyle.Render("Keep>"))

		line, err := p.readLine(ctx)
		if err != nil {
			return resolver.Decision{}, err
		}

		switch strings.ToLower(line) {
		case "q", "quit":
			return resolver.Decision{}, resolver.ErrQuit
		case "s", "skip":
			return resolver.Decision{Action: resolver.ActionSkip}, nil
		case "f", "first":
			return resolver.Decision{Action: resolver.ActionKeepFirst}, nil
		case "a", "all":
			keep := make([]int, len(view.Group.Files))
			for i := range keep {
				keep[i] = i
			}
			return resolver.Decision{Action: resolver.ActionSelect, Keep: keep}, nil
		}

		keep, err := ParseSelection(line)
		if err != nil {
			fmt.Fprintln(p.out, styles.ErrorStyle.Render(err.Error()))
			continue
		}
		return resolver.Decision{Action: resolver.ActionSelect, Keep: keep}, nil
	}
}

// Reject implements resolver.Prompter
func (p *LinePrompter) Reject(ctx context.Context, view resolver.GroupView, reason error) error {
	msg := "Selection refused: " + reason.Error()
	if errors.Is(reason, cleaner.ErrEmptyKeepSet) {
		msg = "At least one copy must be kept. Choose again."
	}
	fmt.Fprintln(p.out, styles.ErrorStyle.Render(msg))
	return nil
}

// Confirm implements resolver.Prompter
func (p *LinePrompter) Confirm(ctx context.Context, view resolver.GroupView, deletions []scanner.FileRecord) (bool, error) {
	var total int64
	fmt.Fprintln(p.out, styles.WarningStyle.Render("About to delete:"))
	for _, file := range deletions {
		fmt.Fprintf(p.out, "  %s\n", styles.FilePathStyle.Render(file.Path))
		total += file.Size
	}
	fmt.Fprintf(p.out, "Delete %d file(s), %s? [y/N] ", len(deletions), utils.FormatBytes(total))

	line, err := p.readLine(ctx)
	if err != nil {
		return false, err
	}

	switch strings.ToLower(line) {
	case "y", "yes":
		return true, nil
	default:
		fmt.Fprintln(p.out, styles.DimStyle.Render("Nothing deleted."))
		return false, nil
	}
}

// Outcomes implements resolver.Prompter
func (p *LinePrompter) Outcomes(ctx context.Context, view resolver.GroupView, outcomes []cleaner.Outcome) error {
	fmt.Fprint(p.out, reporter.FormatOutcomes(outcomes))
	return nil
}

// ParseSelection turns 1-based member numbers ("1,3", "2-4", "1 3") into
// 0-based indices. Range checks are left to the plan.
func ParseSelection(input string) ([]int, error) {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return r == ',' || r == ' ' || r == '\t'
	})

	keep := []int{}
	for _, field := range fields {
		from, to, isRange := strings.Cut(field, "-")
		if !isRange {
			to = from
		}

		lo, err := strconv.Atoi(from)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrBadSelection, field)
		}
		hi, err := strconv.Atoi(to)
		if err != nil {
			return nil, fmt.Errorf("%w: %q is not a number", ErrBadSelection, field)
		}
		if hi < lo {
			return nil, fmt.Errorf("%w: range %q is reversed", ErrBadSelection, field)
		}
		if hi-lo >= maxRange {
			return nil, fmt.Errorf("%w: range %q is too long", ErrBadSelection, field)
		}

		for n := lo; n <= hi; n++ {
			keep = append(keep, n-1)
		}
	}

	return keep, nil
}
