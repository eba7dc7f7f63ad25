package challenge

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forklab-edu/forklab/internal/core/tree"
	"github.com/forklab-edu/forklab/pkg/types"
)

func intp(v int) *int { return &v }

func newTree(t *testing.T) *tree.Tree {
	t.Helper()
	tr := tree.New(tree.DefaultOptions())
	_, err := tr.CreateRoot()
	require.NoError(t, err)
	return tr
}

func fork(t *testing.T, tr *tree.Tree, parentPID int) int {
	t.Helper()
	parent, err := tr.ResolvePID(parentPID)
	require.NoError(t, err)
	id, err := tr.Fork(parent)
	require.NoError(t, err)
	return tr.Snapshot().Node(id).PID
}

func exit(t *testing.T, tr *tree.Tree, pid int) {
	t.Helper()
	id, err := tr.ResolvePID(pid)
	require.NoError(t, err)
	require.NoError(t, tr.ApplyExit(id))
}

func wait(t *testing.T, tr *tree.Tree, parentPID, childPID int) {
	t.Helper()
	parent, err := tr.ResolvePID(parentPID)
	require.NoError(t, err)
	child := ""
	if childPID != 0 {
		child, err = tr.ResolvePID(childPID)
		require.NoError(t, err)
	}
	require.NoError(t, tr.ApplyWait(parent, child))
}

func TestEmptyTreeFails(t *testing.T) {
	result := Validate(&types.TreeSnapshot{}, types.ExpectedShape{})
	assert.False(t, result.Passed)
}

func TestRootWithOneChild(t *testing.T) {
	shape := types.ExpectedShape{RootChildren: intp(1), TotalNodes: intp(2)}

	tr := newTree(t)
	fork(t, tr, 1)
	assert.True(t, Validate(tr.Snapshot(), shape).Passed)

	fork(t, tr, 1)
	result := Validate(tr.Snapshot(), shape)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reason, "children")
}

func TestRootWithOneZombieChild(t *testing.T) {
	shape := types.ExpectedShape{RootChildren: intp(1), ZombieCount: intp(1)}

	tr := newTree(t)
	child := fork(t, tr, 1)
	exit(t, tr, child)
	assert.True(t, Validate(tr.Snapshot(), shape).Passed)

	// Reaping removes the zombie, so the shape no longer matches.
	wait(t, tr, 1, child)
	result := Validate(tr.Snapshot(), shape)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reason, "zombie")
}

func TestTwoTerminatedZeroZombies(t *testing.T) {
	shape := types.ExpectedShape{
		RootChildren:    intp(2),
		TerminatedCount: intp(2),
		ZombieCount:     intp(0),
	}

	tr := newTree(t)
	c1 := fork(t, tr, 1)
	c2 := fork(t, tr, 1)
	exit(t, tr, c1)
	exit(t, tr, c2)
	wait(t, tr, 1, 0)
	result := Validate(tr.Snapshot(), shape)
	assert.False(t, result.Passed) // one zombie still unreaped

	wait(t, tr, 1, 0)
	assert.True(t, Validate(tr.Snapshot(), shape).Passed)
}

func TestOrphanCount(t *testing.T) {
	shape := types.ExpectedShape{OrphanCount: intp(1)}

	tr := newTree(t)
	child := fork(t, tr, 1)
	fork(t, tr, child)
	exit(t, tr, child)

	assert.True(t, Validate(tr.Snapshot(), shape).Passed)
}

func TestPerfectBinaryDepthTwo(t *testing.T) {
	shape := types.ExpectedShape{
		TotalNodes:     intp(7),
		Structure:      types.StructurePerfectBinary,
		StructureDepth: 2,
	}

	tr := newTree(t)
	c1 := fork(t, tr, 1)
	c2 := fork(t, tr, 1)
	fork(t, tr, c1)
	fork(t, tr, c1)
	fork(t, tr, c2)
	result := Validate(tr.Snapshot(), shape)
	assert.False(t, result.Passed) // six nodes so far

	fork(t, tr, c2)
	assert.True(t, Validate(tr.Snapshot(), shape).Passed)
}

func TestPerfectBinaryRejectsWrongFanout(t *testing.T) {
	shape := types.ExpectedShape{
		Structure:      types.StructurePerfectBinary,
		StructureDepth: 2,
	}

	tr := newTree(t)
	c1 := fork(t, tr, 1)
	c2 := fork(t, tr, 1)
	fork(t, tr, c1)
	fork(t, tr, c1)
	fork(t, tr, c1) // three children under c1
	fork(t, tr, c2)
	fork(t, tr, c2)

	result := Validate(tr.Snapshot(), shape)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reason, "exactly 2")
}

func TestPerfectBinaryRejectsShallowLeaf(t *testing.T) {
	shape := types.ExpectedShape{
		Structure:      types.StructurePerfectBinary,
		StructureDepth: 2,
	}

	tr := newTree(t)
	c1 := fork(t, tr, 1)
	fork(t, tr, 1) // this leaf stays at depth 1
	fork(t, tr, c1)
	fork(t, tr, c1)

	result := Validate(tr.Snapshot(), shape)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reason, "depth")
}

func TestLinearChainDepthFour(t *testing.T) {
	shape := types.ExpectedShape{
		Structure:      types.StructureLinearChain,
		StructureDepth: 4,
	}

	tr := newTree(t)
	pid := 1
	for i := 0; i < 4; i++ {
		pid = fork(t, tr, pid)
	}
	assert.True(t, Validate(tr.Snapshot(), shape).Passed)

	// Any branch breaks the chain
	fork(t, tr, 2)
	result := Validate(tr.Snapshot(), shape)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reason, "branches")
}

func TestLinearChainWrongLength(t *testing.T) {
	shape := types.ExpectedShape{
		Structure:      types.StructureLinearChain,
		StructureDepth: 4,
	}

	tr := newTree(t)
	pid := 1
	for i := 0; i < 3; i++ {
		pid = fork(t, tr, pid)
	}
	result := Validate(tr.Snapshot(), shape)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reason, "depth 3")
}

func TestCountChecksPrecedeStructuralChecks(t *testing.T) {
	shape := types.ExpectedShape{
		TotalNodes:     intp(7),
		Structure:      types.StructurePerfectBinary,
		StructureDepth: 2,
	}

	// One lone child: both count and structure are wrong; the reason must
	// come from the count check.
	tr := newTree(t)
	fork(t, tr, 1)

	result := Validate(tr.Snapshot(), shape)
	assert.False(t, result.Passed)
	assert.Contains(t, result.Reason, "7 processes")
}

func TestCollectStats(t *testing.T) {
	tr := newTree(t)
	c1 := fork(t, tr, 1)
	c2 := fork(t, tr, 1)
	fork(t, tr, c1)
	exit(t, tr, c2)

	stats := CollectStats(tr.Snapshot())
	assert.Equal(t, 4, stats.TotalNodes)
	assert.Equal(t, 3, stats.RunningCount)
	assert.Equal(t, 1, stats.ZombieCount)
	assert.Equal(t, 0, stats.TerminatedCount)
	assert.Equal(t, 2, stats.MaxDepth)
}
