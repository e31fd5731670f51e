// Package resolver walks duplicate groups one at a time, asks a Prompter which
// copies to keep and hands confirmed deletions to the cleaner.
//
// Each group moves through these states:
//
//	Presented -> Skipped
//	Presented -> AwaitingSelection -> ConfirmedDeletion -> Deleted
//
// A selection that keeps nothing is refused and the group is presented again.
package resolver

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/fenilsonani/dupsweep/internal/cleaner"
	"github.com/fenilsonani/dupsweep/internal/progress"
	"github.com/fenilsonani/dupsweep/internal/scanner"
	"go.uber.org/zap"
)

// ErrQuit is returned by a Prompter when the user stops resolving
var ErrQuit = errors.New("resolution stopped by user")

// Action is what the user chose for a presented group
type Action int

const (
	ActionSkip Action = iota
	ActionSelect
	ActionKeepFirst
)

// Decision is a user's answer to a presented group
type Decision struct {
	Action Action
	Keep   []int // 0-based member indices, used with ActionSelect
}

// GroupView is a group as shown to the user
type GroupView struct {
	Index int // 1-based position among all groups
	Total int
	Group scanner.DuplicateGroup
}

// Prompter is the presentation side of the resolver
type Prompter interface {
	// Present shows a group and returns the user's decision
	Present(ctx context.Context, view GroupView) (Decision, error)
	// Reject tells the user a decision was refused before re-presenting
	Reject(ctx context.Context, view GroupView, reason error) error
	// Confirm asks for a final yes/no over the whole deletion set
	Confirm(ctx context.Context, view GroupView, deletions []scanner.FileRecord) (bool, error)
	// Outcomes reports what happened to each file of the deletion set
	Outcomes(ctx context.Context, view GroupView, outcomes []cleaner.Outcome) error
}

// State is the position of a group in the resolution protocol
type State int

const (
	StatePresented State = iota
	StateAwaitingSelection
	StateConfirmedDeletion
	StateSkipped
	StateDeleted
)

func (s State) String() string {
	switch s {
	case StatePresented:
		return "presented"
	case StateAwaitingSelection:
		return "awaiting selection"
	case StateConfirmedDeletion:
		return "confirmed deletion"
	case StateSkipped:
		return "skipped"
	case StateDeleted:
		return "deleted"
	default:
		return "unknown"
	}
}

// GroupResult records how one group was resolved
type GroupResult struct {
	View       GroupView
	State      State
	History    []State
	Plan       *cleaner.Plan
	Result     *cleaner.CleanResult
	Rejections int
}

func (g *GroupResult) transition(s State) {
	g.State = s
	g.History = append(g.History, s)
}

// Summary aggregates a resolver run
type Summary struct {
	Groups     []GroupResult
	Resolved   int // groups that reached Deleted
	Skipped    int
	Deleted    int // files removed, or that would be removed in a dry run
	BytesFreed int64
	Outcomes   []cleaner.Outcome
	Errors     []*cleaner.DeletionError
	DryRun     bool
	Stopped    bool // the user quit before every group was seen
}

// Resolver drives interactive resolution of duplicate groups
type Resolver struct {
	cleaner          *cleaner.Cleaner
	prompter         Prompter
	logger           *zap.Logger
	progressReporter *progress.ProgressReporter
}

// New creates a resolver
func New(c *cleaner.Cleaner, p Prompter, logger *zap.Logger) *Resolver {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Resolver{
		cleaner:          c,
		prompter:         p,
		logger:           logger,
		progressReporter: progress.NewProgressReporter(),
	}
}

// SetProgressReporter sets a custom progress reporter
func (r *Resolver) SetProgressReporter(pr *progress.ProgressReporter) {
	r.progressReporter = pr
}

// Run resolves groups strictly in order. A user quitting ends the run without
// error; any other prompter failure is returned with the partial summary.
func (r *Resolver) Run(ctx context.Context, groups []scanner.DuplicateGroup) (*Summary, error) {
	startTime := time.Now()
	summary := &Summary{DryRun: r.cleaner.DryRun()}

	for i, group := range groups {
		if err := ctx.Err(); err != nil {
			return summary, err
		}

		view := GroupView{Index: i + 1, Total: len(groups), Group: group}
		r.reportProgress(progress.PhaseResolving, view, summary, startTime, nil)

		result, err := r.ResolveGroup(ctx, view)
		if errors.Is(err, ErrQuit) {
			r.logger.Info("resolution stopped by user", zap.Int("group", view.Index))
			summary.Stopped = true
			break
		}
		if err != nil {
			r.reportProgress(progress.PhaseError, view, summary, startTime, err)
			return summary, fmt.Errorf("failed to resolve group %d: %w", view.Index, err)
		}

		summary.add(result)
	}

	r.reportProgress(progress.PhaseComplete, GroupView{Total: len(groups)}, summary, startTime, nil)
	r.logger.Info("resolution complete",
		zap.Int("resolved", summary.Resolved),
		zap.Int("skipped", summary.Skipped),
		zap.Int("deleted", summary.Deleted),
		zap.Int64("freed", summary.BytesFreed),
		zap.Bool("dry_run", summary.DryRun))

	return summary, nil
}

func (s *Summary) add(result GroupResult) {
	s.Groups = append(s.Groups, result)
	switch result.State {
	case StateDeleted:
		s.Resolved++
	case StateSkipped:
		s.Skipped++
	}
	if result.Result != nil {
		s.Deleted += len(result.Result.DeletedFiles)
		s.BytesFreed += result.Result.DeletedSize
		s.Outcomes = append(s.Outcomes, result.Result.Outcomes...)
		s.Errors = append(s.Errors, result.Result.Errors...)
	}
}

// ResolveGroup runs the protocol for a single group
func (r *Resolver) ResolveGroup(ctx context.Context, view GroupView) (GroupResult, error) {
	result := GroupResult{View: view}
	result.transition(StatePresented)

	log := r.logger.With(zap.Int("group", view.Index), zap.String("digest", view.Group.Digest))

	var plan *cleaner.Plan
	for plan == nil {
		decision, err := r.prompter.Present(ctx, view)
		if err != nil {
			return result, err
		}

		switch decision.Action {
		case ActionSkip:
			log.Debug("group skipped")
			result.transition(StateSkipped)
			return result, nil
		case ActionKeepFirst:
			plan, err = cleaner.KeepFirstPlan(view.Group)
		case ActionSelect:
			plan, err = cleaner.NewPlan(view.Group, decision.Keep)
		default:
			err = fmt.Errorf("%w: unknown action %d", cleaner.ErrInvalidSelection, decision.Action)
		}

		if result.State != StateAwaitingSelection {
			result.transition(StateAwaitingSelection)
		}

		if err != nil {
			if !errors.Is(err, cleaner.ErrEmptyKeepSet) && !errors.Is(err, cleaner.ErrInvalidSelection) {
				return result, err
			}
			result.Rejections++
			plan = nil
			log.Debug("selection refused", zap.Error(err))
			if rejectErr := r.prompter.Reject(ctx, view, err); rejectErr != nil {
				return result, rejectErr
			}
		}
	}
	result.Plan = plan

	if len(plan.Delete) == 0 {
		log.Debug("every member kept")
		result.transition(StateSkipped)
		return result, nil
	}

	confirmed, err := r.prompter.Confirm(ctx, view, plan.Delete)
	if err != nil {
		return result, err
	}
	if !confirmed {
		log.Debug("deletion declined")
		result.transition(StateSkipped)
		return result, nil
	}
	result.transition(StateConfirmedDeletion)

	result.Result = r.cleaner.Execute(ctx, plan)
	result.transition(StateDeleted)
	log.Debug("group resolved",
		zap.Int("deleted", len(result.Result.DeletedFiles)),
		zap.Int("refused", len(result.Result.Errors)))

	if err := r.prompter.Outcomes(ctx, view, result.Result.Outcomes); err != nil {
		return result, err
	}
	return result, nil
}

func (r *Resolver) reportProgress(phase progress.Phase, view GroupView, summary *Summary, startTime time.Time, err error) {
	if r.progressReporter == nil {
		return
	}
	r.progressReporter.UpdateResolveProgress(&progress.ResolveProgress{
		Phase:         phase,
		Group:         view.Index,
		TotalGroups:   view.Total,
		DeletedFiles:  summary.Deleted,
		FreedBytes:    summary.BytesFreed,
		SkippedGroups: summary.Skipped,
		ErrorCount:    len(summary.Errors),
		DryRun:        summary.DryRun,
		StartTime:     startTime,
		Error:         err,
	})
}
