// Package challenge validates a finished process tree against an expected
// shape. Shapes are predicates, not literal trees: any pid assignment with
// the right structure and state counts passes. Count checks run before
// structural checks so the failure reason names the most concrete
// violation first.
package challenge

import (
	"fmt"

	"github.com/forklab-edu/forklab/pkg/types"
)

// Result is the outcome of one validation.
type Result struct {
	Passed bool   `json:"passed"`
	Reason string `json:"reason"`
}

// Validate evaluates the shape predicate against the snapshot. On failure
// the reason names the first violated condition.
func Validate(snap *types.TreeSnapshot, shape types.ExpectedShape) Result {
	root := snap.Root()
	if root == nil {
		return fail("the tree is empty; create the init process first")
	}

	stats := collectStats(snap)

	// Count predicates first.
	if shape.RootChildren != nil && len(root.Children) != *shape.RootChildren {
		return fail("expected the root to have %d children, found %d", *shape.RootChildren, len(root.Children))
	}
	if shape.TotalNodes != nil && stats.TotalNodes != *shape.TotalNodes {
		return fail("expected %d processes in the tree, found %d", *shape.TotalNodes, stats.TotalNodes)
	}
	if shape.MaxDepth != nil && stats.MaxDepth != *shape.MaxDepth {
		return fail("expected the deepest process at depth %d, found depth %d", *shape.MaxDepth, stats.MaxDepth)
	}
	if shape.ZombieCount != nil && stats.ZombieCount != *shape.ZombieCount {
		return fail("expected %d zombie(s), found %d", *shape.ZombieCount, stats.ZombieCount)
	}
	if shape.OrphanCount != nil && stats.OrphanCount != *shape.OrphanCount {
		return fail("expected %d orphan(s), found %d", *shape.OrphanCount, stats.OrphanCount)
	}
	if shape.TerminatedCount != nil && stats.TerminatedCount != *shape.TerminatedCount {
		return fail("expected %d terminated process(es), found %d", *shape.TerminatedCount, stats.TerminatedCount)
	}

	// Structural predicates second.
	switch shape.Structure {
	case types.StructureNone:
	case types.StructurePerfectBinary:
		if r := checkPerfectBinary(snap, shape.StructureDepth); !r.Passed {
			return r
		}
	case types.StructureLinearChain:
		if r := checkLinearChain(snap, shape.StructureDepth); !r.Passed {
			return r
		}
	default:
		return fail("unknown structure kind %q", shape.Structure)
	}

	return Result{Passed: true, Reason: "tree matches the expected shape"}
}

// CollectStats aggregates per-state counts and the maximum depth of a
// snapshot. Exposed for the UI stats panel.
func CollectStats(snap *types.TreeSnapshot) types.TreeStats {
	return collectStats(snap)
}

func collectStats(snap *types.TreeSnapshot) types.TreeStats {
	var stats types.TreeStats
	for _, node := range snap.Nodes {
		stats.TotalNodes++
		switch node.State {
		case types.ProcessRunning:
			stats.RunningCount++
		case types.ProcessWaiting:
			stats.WaitingCount++
		case types.ProcessZombie:
			stats.ZombieCount++
		case types.ProcessTerminated:
			stats.TerminatedCount++
		}
		if node.Orphaned {
			stats.OrphanCount++
		}
		if node.Depth > stats.MaxDepth {
			stats.MaxDepth = node.Depth
		}
	}
	return stats
}

// checkPerfectBinary requires every non-leaf to have exactly two children
// and every leaf to sit at the given depth.
func checkPerfectBinary(snap *types.TreeSnapshot, depth int) Result {
	for _, id := range snap.Order {
		node := snap.Node(id)
		switch {
		case len(node.Children) == 0:
			if node.Depth != depth {
				return fail("leaf process %d is at depth %d, every leaf of a perfect binary tree of depth %d must be at depth %d",
					node.PID, node.Depth, depth, depth)
			}
		case len(node.Children) != 2:
			return fail("process %d has %d children, every non-leaf of a perfect binary tree must have exactly 2",
				node.PID, len(node.Children))
		}
	}
	return Result{Passed: true}
}

// checkLinearChain requires at most one child per node and the deepest node
// at the given depth.
func checkLinearChain(snap *types.TreeSnapshot, depth int) Result {
	maxDepth := 0
	for _, id := range snap.Order {
		node := snap.Node(id)
		if len(node.Children) > 1 {
			return fail("process %d has %d children, a linear chain never branches", node.PID, len(node.Children))
		}
		if node.Depth > maxDepth {
			maxDepth = node.Depth
		}
	}
	if maxDepth != depth {
		return fail("the chain reaches depth %d, expected depth %d", maxDepth, depth)
	}
	return Result{Passed: true}
}

func fail(format string, args ...interface{}) Result {
	return Result{Passed: false, Reason: fmt.Sprintf(format, args...)}
}
