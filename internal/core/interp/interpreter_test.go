package interp

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forklab-edu/forklab/internal/core/tree"
	"github.com/forklab-edu/forklab/pkg/types"
)

func newInterp(t *testing.T, steps []types.ScenarioStep) (*Interpreter, *tree.Tree) {
	t.Helper()
	tr := tree.New(tree.DefaultOptions())
	_, err := tr.CreateRoot()
	require.NoError(t, err)
	return New(tr, steps), tr
}

func stateOf(t *testing.T, tr *tree.Tree, pid int) types.ProcessState {
	t.Helper()
	id, err := tr.ResolvePID(pid)
	require.NoError(t, err)
	return tr.Snapshot().Node(id).State
}

func TestRunForkScript(t *testing.T) {
	it, tr := newInterp(t, []types.ScenarioStep{
		{Action: types.ActionFork, TargetPID: 1},
		{Action: types.ActionFork, TargetPID: 1},
		{Action: types.ActionFork, TargetPID: 2},
	})

	require.NoError(t, it.Run())
	assert.True(t, it.Done())
	assert.Equal(t, 4, tr.Len())
}

func TestZombieScript(t *testing.T) {
	it, tr := newInterp(t, []types.ScenarioStep{
		{Action: types.ActionFork, TargetPID: 1},
		{Action: types.ActionExit, TargetPID: 2},
		{Action: types.ActionWait, TargetPID: 1},
	})

	require.NoError(t, it.Step())
	require.NoError(t, it.Step())
	assert.Equal(t, types.ProcessZombie, stateOf(t, tr, 2))

	require.NoError(t, it.Step())
	assert.Equal(t, types.ProcessTerminated, stateOf(t, tr, 2))
}

func TestTargetedWaitStep(t *testing.T) {
	it, tr := newInterp(t, []types.ScenarioStep{
		{Action: types.ActionFork, TargetPID: 1},
		{Action: types.ActionFork, TargetPID: 1},
		{Action: types.ActionExit, TargetPID: 2},
		{Action: types.ActionExit, TargetPID: 3},
		{Action: types.ActionWait, TargetPID: 1, ChildPID: 3},
	})

	require.NoError(t, it.Run())
	assert.Equal(t, types.ProcessZombie, stateOf(t, tr, 2))
	assert.Equal(t, types.ProcessTerminated, stateOf(t, tr, 3))
}

func TestOrphanActionExitsParent(t *testing.T) {
	it, tr := newInterp(t, []types.ScenarioStep{
		{Action: types.ActionFork, TargetPID: 1},
		{Action: types.ActionFork, TargetPID: 2},
		{Action: types.ActionOrphan, TargetPID: 3},
	})

	require.NoError(t, it.Run())
	assert.Equal(t, types.ProcessZombie, stateOf(t, tr, 2))

	id, err := tr.ResolvePID(3)
	require.NoError(t, err)
	n := tr.Snapshot().Node(id)
	assert.True(t, n.Orphaned)
	assert.Equal(t, 1, n.PPID)
	assert.Equal(t, 1, n.Depth)
}

func TestOrphanActionRejectsRootChild(t *testing.T) {
	it, _ := newInterp(t, []types.ScenarioStep{
		{Action: types.ActionFork, TargetPID: 1},
		{Action: types.ActionOrphan, TargetPID: 2},
	})

	require.NoError(t, it.Step())
	err := it.Step()
	assert.ErrorIs(t, err, tree.ErrInvalidOperation)
}

func TestExplainStepOnlyLogs(t *testing.T) {
	it, tr := newInterp(t, []types.ScenarioStep{
		{
			Action:         types.ActionExplain,
			OSExplanation:  "fork duplicates the process",
			DSAExplanation: "a node gains a child",
		},
	})

	before := tr.Len()
	require.NoError(t, it.Run())
	assert.Equal(t, before, tr.Len())

	log := tr.Log()
	last := log[len(log)-1]
	assert.Equal(t, types.LogExplain, last.Action)
	assert.Equal(t, "fork duplicates the process", last.OSExplanation)
	assert.Equal(t, "a node gains a child", last.DSAExplanation)
}

func TestMutatingStepCarriesExplanation(t *testing.T) {
	it, tr := newInterp(t, []types.ScenarioStep{
		{Action: types.ActionFork, TargetPID: 1, OSExplanation: "first fork"},
	})

	require.NoError(t, it.Run())
	log := tr.Log()
	require.Len(t, log, 3) // create_root, fork, explain
	assert.Equal(t, types.LogFork, log[1].Action)
	assert.Equal(t, types.LogExplain, log[2].Action)
	assert.Equal(t, "first fork", log[2].OSExplanation)
}

func TestUnknownTargetPid(t *testing.T) {
	it, _ := newInterp(t, []types.ScenarioStep{
		{Action: types.ActionFork, TargetPID: 99},
	})

	err := it.Step()
	assert.ErrorIs(t, err, tree.ErrUnknownTarget)
}

func TestFailedStepDoesNotAdvanceOrMutate(t *testing.T) {
	it, tr := newInterp(t, []types.ScenarioStep{
		{Action: types.ActionExit, TargetPID: 42},
		{Action: types.ActionFork, TargetPID: 1},
	})

	logBefore := len(tr.Log())
	err := it.Step()
	require.Error(t, err)
	assert.Equal(t, 0, it.Cursor())
	assert.Equal(t, 1, tr.Len())
	assert.Len(t, tr.Log(), logBefore)

	// The session can continue with the next valid action after the script
	// is corrected; here we simply confirm the tree still works.
	_, err = tr.Fork(tr.RootID())
	assert.NoError(t, err)
}

func TestFinishFailsWithBlockedWait(t *testing.T) {
	it, _ := newInterp(t, []types.ScenarioStep{
		{Action: types.ActionFork, TargetPID: 1},
		{Action: types.ActionWait, TargetPID: 1},
	})

	err := it.Run()
	assert.ErrorIs(t, err, tree.ErrNoZombieChildren)
}

func TestWaitResolvedByLaterExit(t *testing.T) {
	it, tr := newInterp(t, []types.ScenarioStep{
		{Action: types.ActionFork, TargetPID: 1},
		{Action: types.ActionWait, TargetPID: 1},
		{Action: types.ActionExit, TargetPID: 2},
	})

	require.NoError(t, it.Run())
	assert.Equal(t, types.ProcessRunning, stateOf(t, tr, 1))
	assert.Equal(t, types.ProcessTerminated, stateOf(t, tr, 2))
}

func TestStepPastEnd(t *testing.T) {
	it, _ := newInterp(t, []types.ScenarioStep{
		{Action: types.ActionFork, TargetPID: 1},
	})

	require.NoError(t, it.Run())
	err := it.Step()
	assert.ErrorIs(t, err, tree.ErrInvalidOperation)
}

func TestUnknownAction(t *testing.T) {
	it, _ := newInterp(t, []types.ScenarioStep{
		{Action: types.ScenarioAction("spawn"), TargetPID: 1},
	})

	err := it.Step()
	assert.ErrorIs(t, err, tree.ErrInvalidOperation)
}
