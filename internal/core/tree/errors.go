package tree

import "errors"

// Engine errors. Sentinel variables let callers detect failure kinds via
// errors.Is instead of brittle string comparisons; every failing operation
// wraps one of these with context.

var (
	// ErrInvalidOperation indicates structural misuse, such as creating a
	// second root or exiting the root node.
	ErrInvalidOperation = errors.New("tree: invalid operation")

	// ErrInvalidParentState is returned when the acted-on node is not in an
	// eligible state for the operation (e.g. forking from a zombie).
	ErrInvalidParentState = errors.New("tree: invalid parent state")

	// ErrHasLiveChildren is returned by exit when the node still has live
	// children and orphan reparenting is disabled.
	ErrHasLiveChildren = errors.New("tree: has live children")

	// ErrNoZombieChildren is returned by wait-for-any when no child can ever
	// satisfy the wait.
	ErrNoZombieChildren = errors.New("tree: no zombie children")

	// ErrUnknownTarget indicates a reference to a node that does not exist.
	ErrUnknownTarget = errors.New("tree: unknown target")
)
