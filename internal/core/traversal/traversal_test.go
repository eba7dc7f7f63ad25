package traversal

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forklab-edu/forklab/internal/core/tree"
	"github.com/forklab-edu/forklab/pkg/types"
)

// buildTree forks the given parent pids in order against a fresh tree and
// returns its snapshot. Pid numbering is deterministic: root is 1, forks
// allocate 2, 3, ...
func buildTree(t *testing.T, parents ...int) *types.TreeSnapshot {
	t.Helper()
	tr := tree.New(tree.DefaultOptions())
	_, err := tr.CreateRoot()
	require.NoError(t, err)

	for _, pid := range parents {
		id, err := tr.ResolvePID(pid)
		require.NoError(t, err)
		_, err = tr.Fork(id)
		require.NoError(t, err)
	}
	return tr.Snapshot()
}

func pids(steps []types.TraversalStep) []int {
	out := make([]int, len(steps))
	for i, s := range steps {
		out[i] = s.PID
	}
	return out
}

// Shape used below:
//
//	1
//	├── 2
//	│   ├── 4
//	│   └── 5
//	└── 3
//	    └── 6
func sampleTree(t *testing.T) *types.TreeSnapshot {
	return buildTree(t, 1, 1, 2, 2, 3)
}

func TestPreorder(t *testing.T) {
	steps := Preorder(sampleTree(t))
	assert.Equal(t, []int{1, 2, 4, 5, 3, 6}, pids(steps))
}

func TestPostorder(t *testing.T) {
	steps := Postorder(sampleTree(t))
	assert.Equal(t, []int{4, 5, 2, 6, 3, 1}, pids(steps))
}

func TestLevelorder(t *testing.T) {
	steps := Levelorder(sampleTree(t))
	assert.Equal(t, []int{1, 2, 3, 4, 5, 6}, pids(steps))
}

func TestInorderBinary(t *testing.T) {
	steps, err := Inorder(sampleTree(t))
	require.NoError(t, err)
	assert.Equal(t, []int{4, 2, 5, 1, 6, 3}, pids(steps))
}

func TestInorderRejectsWideNodes(t *testing.T) {
	snap := buildTree(t, 1, 1, 1)
	_, err := Inorder(snap)
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestTraverseDispatch(t *testing.T) {
	snap := sampleTree(t)

	for _, kind := range []types.TraversalType{
		types.TraversalPreorder,
		types.TraversalPostorder,
		types.TraversalLevelorder,
		types.TraversalInorder,
	} {
		steps, err := Traverse(snap, kind)
		require.NoError(t, err, "traversal %s", kind)
		assert.Len(t, steps, snap.Len())
	}

	_, err := Traverse(snap, types.TraversalType("sideways"))
	assert.ErrorIs(t, err, ErrUnsupportedShape)
}

func TestOrdersAreTotalWithoutGaps(t *testing.T) {
	snap := sampleTree(t)

	for _, steps := range [][]types.TraversalStep{
		Preorder(snap), Postorder(snap), Levelorder(snap),
	} {
		require.Len(t, steps, snap.Len())
		seen := make(map[string]bool)
		for i, step := range steps {
			assert.Equal(t, i, step.Order)
			assert.False(t, seen[step.NodeID], "node visited twice")
			seen[step.NodeID] = true
		}
	}
}

func TestPreorderVisitsParentBeforeDescendants(t *testing.T) {
	snap := buildTree(t, 1, 1, 2, 3, 4, 2)

	position := make(map[string]int)
	for _, step := range Preorder(snap) {
		position[step.NodeID] = step.Order
	}
	for id, n := range snap.Nodes {
		for _, childID := range n.Children {
			assert.Less(t, position[id], position[childID])
		}
	}
}

func TestPostorderVisitsParentAfterDescendants(t *testing.T) {
	snap := buildTree(t, 1, 1, 2, 3, 4, 2)

	position := make(map[string]int)
	for _, step := range Postorder(snap) {
		position[step.NodeID] = step.Order
	}
	for id, n := range snap.Nodes {
		for _, childID := range n.Children {
			assert.Greater(t, position[id], position[childID])
		}
	}
}

func TestLevelorderDepthNeverDecreases(t *testing.T) {
	snap := buildTree(t, 1, 1, 2, 3, 4, 2, 1)

	prev := 0
	for _, step := range Levelorder(snap) {
		depth := snap.Node(step.NodeID).Depth
		assert.GreaterOrEqual(t, depth, prev)
		prev = depth
	}
}

func TestTraversalCoversDeadNodes(t *testing.T) {
	tr := tree.New(tree.DefaultOptions())
	_, err := tr.CreateRoot()
	require.NoError(t, err)

	c1, err := tr.Fork(tr.RootID())
	require.NoError(t, err)
	_, err = tr.Fork(tr.RootID())
	require.NoError(t, err)

	// One zombie child; traversal is shape-based, not state-based.
	require.NoError(t, tr.ApplyExit(c1))

	snap := tr.Snapshot()
	assert.Equal(t, []int{1, 2, 3}, pids(Preorder(snap)))
}
