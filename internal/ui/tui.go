package ui

import (
	"context"
	"errors"
	"fmt"
	"io"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/reporter"
	"github.com/fenilsonani/dupsweep/internal/resolver"
	"github.com/fenilsonani/dupsweep/internal/scanner"
	"github.com/fenilsonani/dupsweep/internal/ui/models"
)

// TUIPrompter asks for decisions with full-screen bubbletea views
type TUIPrompter struct {
	in     io.Reader
	out    io.Writer
	dryRun bool
	notice string
}

// NewTUIPrompter creates a prompter running its views on in/out
func NewTUIPrompter(in io.Reader, out io.Writer, dryRun bool) *TUIPrompter {
	return &TUIPrompter{in: in, out: out, dryRun: dryRun}
}

func (p *TUIPrompter) run(ctx context.Context, m tea.Model) error {
	program := tea.NewProgram(m,
		tea.WithContext(ctx),
		tea.WithInput(p.in),
		tea.WithOutput(p.out),
	)

	_, err := program.Run()
	if ctxErr := ctx.Err(); ctxErr != nil {
		return ctxErr
	}
	if err != nil {
		return fmt.Errorf("error running interactive mode: %w", err)
	}
	return nil
}

// Present implements resolver.Prompter
func (p *TUIPrompter) Present(ctx context.Context, view resolver.GroupView) (resolver.Decision, error) {
	m := models.NewKeepViewModel(view, p.notice)
	p.notice = ""

	if err := p.run(ctx, m); err != nil {
		return resolver.Decision{}, err
	}
	if m.Quit() {
		return resolver.Decision{}, resolver.ErrQuit
	}

	decision, ok := m.Decision()
	if !ok {
		return resolver.Decision{}, resolver.ErrQuit
	}
	return decision, nil
}

// Reject implements resolver.Prompter. The reason is shown on the next Present.
func (p *TUIPrompter) Reject(ctx context.Context, view resolver.GroupView, reason error) error {
	p.notice = "Selection refused: " + reason.Error()
	if errors.Is(reason, cleaner.ErrEmptyKeepSet) {
		p.notice = "At least one copy must be kept. Choose again."
	}
	return nil
}

// Confirm implements resolver.Prompter
func (p *TUIPrompter) Confirm(ctx context.Context, view resolver.GroupView, deletions []scanner.FileRecord) (bool, error) {
	m := models.NewConfirmViewModel(deletions, p.dryRun, 0, 0)
	if err := p.run(ctx, m); err != nil {
		return false, err
	}
	return m.Confirmed(), nil
}

// Outcomes implements resolver.Prompter
func (p *TUIPrompter) Outcomes(ctx context.Context, view resolver.GroupView, outcomes []cleaner.Outcome) error {
	fmt.Fprintf(p.out, "Group %d/%d:\n%s", view.Index, view.Total, reporter.FormatOutcomes(outcomes))
	return nil
}
