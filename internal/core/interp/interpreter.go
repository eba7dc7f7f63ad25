// Package interp replays scenario scripts against a process tree. Steps are
// applied one at a time, each to completion, with no concurrency between
// simulated processes: concurrency is simulated by sequential application.
// A step either fully succeeds (tree mutated, log emitted) or fails and
// leaves the tree exactly as it was.
package interp

import (
	"fmt"

	"github.com/forklab-edu/forklab/internal/core/tree"
	"github.com/forklab-edu/forklab/pkg/types"
)

// Interpreter drives one scripted replay over one tree. It is not safe for
// concurrent use; the owning session serializes access.
type Interpreter struct {
	tree   *tree.Tree
	steps  []types.ScenarioStep
	cursor int
}

// New creates an interpreter for the given script. The tree must already
// have a root.
func New(t *tree.Tree, steps []types.ScenarioStep) *Interpreter {
	return &Interpreter{tree: t, steps: steps}
}

// Cursor returns the index of the next step to apply.
func (i *Interpreter) Cursor() int {
	return i.cursor
}

// Done reports whether every step has been applied.
func (i *Interpreter) Done() bool {
	return i.cursor >= len(i.steps)
}

// Step applies the next script step. A failed step does not advance the
// cursor, so a corrected retry is possible.
func (i *Interpreter) Step() error {
	if i.Done() {
		return fmt.Errorf("%w: script already finished", tree.ErrInvalidOperation)
	}
	step := i.steps[i.cursor]
	if err := i.apply(step); err != nil {
		return fmt.Errorf("step %d (%s): %w", i.cursor, step.Action, err)
	}
	i.cursor++
	return nil
}

// Run applies all remaining steps, stopping at the first failure, then
// checks completion.
func (i *Interpreter) Run() error {
	for !i.Done() {
		if err := i.Step(); err != nil {
			return err
		}
	}
	return i.Finish()
}

// Finish verifies that the script left no process blocked in wait. The
// simulation has no independent execution to wait on, so a wait the script
// never satisfies is a failure of that step, not a suspension.
func (i *Interpreter) Finish() error {
	if pids := i.tree.WaitingPIDs(); len(pids) > 0 {
		return fmt.Errorf("%w: process %d is still blocked in wait() at end of script", tree.ErrNoZombieChildren, pids[0])
	}
	return nil
}

func (i *Interpreter) apply(step types.ScenarioStep) error {
	if step.Action == types.ActionExplain {
		i.tree.Explain(step.OSExplanation, step.DSAExplanation)
		return nil
	}

	target, err := i.resolve(step.TargetPID)
	if err != nil {
		return err
	}

	switch step.Action {
	case types.ActionFork:
		_, err = i.tree.Fork(target)
	case types.ActionExit:
		err = i.tree.ApplyExit(target)
	case types.ActionWait:
		child := ""
		if step.ChildPID != 0 {
			if child, err = i.tree.ResolvePID(step.ChildPID); err != nil {
				return err
			}
		}
		err = i.tree.ApplyWait(target, child)
	case types.ActionOrphan:
		// Orphaning is demonstrated by exiting the target's parent while the
		// target is still alive.
		var parent string
		if parent, err = i.tree.ParentOf(target); err != nil {
			return err
		}
		if parent == i.tree.RootID() {
			return fmt.Errorf("%w: pid %d is already a child of init", tree.ErrInvalidOperation, step.TargetPID)
		}
		err = i.tree.ApplyExit(parent)
	default:
		return fmt.Errorf("%w: unknown action %q", tree.ErrInvalidOperation, step.Action)
	}
	if err != nil {
		return err
	}

	// Teaching text on a mutating step lands in the log right after the
	// mutation's own entries.
	if step.OSExplanation != "" || step.DSAExplanation != "" {
		i.tree.Explain(step.OSExplanation, step.DSAExplanation)
	}
	return nil
}

// resolve maps a script pid to a node ID; pid 0 means the root.
func (i *Interpreter) resolve(pid int) (string, error) {
	if pid == 0 {
		if i.tree.RootID() == "" {
			return "", fmt.Errorf("%w: the tree has no root", tree.ErrInvalidOperation)
		}
		return i.tree.RootID(), nil
	}
	return i.tree.ResolvePID(pid)
}
