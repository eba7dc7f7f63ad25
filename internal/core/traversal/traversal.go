// Package traversal computes visitation orders over a process tree
// snapshot. Traversals are pure functions of the snapshot: they never
// mutate it, and they cover every node exactly once regardless of process
// state — shape decides the order, not liveness.
package traversal

import (
	"errors"
	"fmt"

	"github.com/forklab-edu/forklab/pkg/types"
)

// ErrUnsupportedShape is returned by inorder traversal when some node has
// more than two children.
var ErrUnsupportedShape = errors.New("traversal: unsupported shape")

// Traverse dispatches on the traversal type.
func Traverse(snap *types.TreeSnapshot, kind types.TraversalType) ([]types.TraversalStep, error) {
	switch kind {
	case types.TraversalPreorder:
		return Preorder(snap), nil
	case types.TraversalPostorder:
		return Postorder(snap), nil
	case types.TraversalLevelorder:
		return Levelorder(snap), nil
	case types.TraversalInorder:
		return Inorder(snap)
	default:
		return nil, fmt.Errorf("%w: unknown traversal type %q", ErrUnsupportedShape, kind)
	}
}

// Preorder visits a node before its children, children left to right in
// fork order.
func Preorder(snap *types.TreeSnapshot) []types.TraversalStep {
	steps := make([]types.TraversalStep, 0, snap.Len())
	var walk func(id string)
	walk = func(id string) {
		node := snap.Node(id)
		steps = appendStep(steps, node)
		for _, childID := range node.Children {
			walk(childID)
		}
	}
	if snap.RootID != "" {
		walk(snap.RootID)
	}
	return steps
}

// Postorder visits each child subtree left to right, then the node —
// the order a parent that waits for all children would resume in.
func Postorder(snap *types.TreeSnapshot) []types.TraversalStep {
	steps := make([]types.TraversalStep, 0, snap.Len())
	var walk func(id string)
	walk = func(id string) {
		node := snap.Node(id)
		for _, childID := range node.Children {
			walk(childID)
		}
		steps = appendStep(steps, node)
	}
	if snap.RootID != "" {
		walk(snap.RootID)
	}
	return steps
}

// Levelorder visits breadth-first: depth ascending, siblings in fork order
// within a depth.
func Levelorder(snap *types.TreeSnapshot) []types.TraversalStep {
	steps := make([]types.TraversalStep, 0, snap.Len())
	if snap.RootID == "" {
		return steps
	}
	queue := []string{snap.RootID}
	for len(queue) > 0 {
		node := snap.Node(queue[0])
		queue = queue[1:]
		steps = appendStep(steps, node)
		queue = append(queue, node.Children...)
	}
	return steps
}

// Inorder is defined only for trees where every node has at most two
// children: left subtree, node, right subtree. A node with more children
// fails with ErrUnsupportedShape.
func Inorder(snap *types.TreeSnapshot) ([]types.TraversalStep, error) {
	steps := make([]types.TraversalStep, 0, snap.Len())
	var walk func(id string) error
	walk = func(id string) error {
		node := snap.Node(id)
		if len(node.Children) > 2 {
			return fmt.Errorf("%w: pid %d has %d children, inorder needs a binary tree", ErrUnsupportedShape, node.PID, len(node.Children))
		}
		if len(node.Children) > 0 {
			if err := walk(node.Children[0]); err != nil {
				return err
			}
		}
		steps = appendStep(steps, node)
		if len(node.Children) > 1 {
			if err := walk(node.Children[1]); err != nil {
				return err
			}
		}
		return nil
	}
	if snap.RootID != "" {
		if err := walk(snap.RootID); err != nil {
			return nil, err
		}
	}
	return steps, nil
}

func appendStep(steps []types.TraversalStep, node *types.ProcessNode) []types.TraversalStep {
	return append(steps, types.TraversalStep{
		NodeID: node.ID,
		PID:    node.PID,
		Order:  len(steps),
	})
}
