// Package tree implements the simulated process tree: an append-only arena
// of process nodes with fork/exit/wait state transitions and orphan
// reparenting. Nodes are never deleted; a finished process stays in the
// arena with its state updated, mirroring how a real process table keeps
// zombies around until they are reaped.
package tree

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/forklab-edu/forklab/pkg/types"
)

// Options configures a Tree.
type Options struct {
	// OrphanReparenting controls exit-with-live-children behavior: when true
	// (the default) live children of an exiting process are reparented to the
	// root; when false the exit fails with ErrHasLiveChildren.
	OrphanReparenting bool

	// MaxNodes caps the arena size; Fork fails once the cap is reached.
	// Zero means unlimited.
	MaxNodes int
}

// DefaultOptions returns the options used by scenarios and sandbox sessions.
func DefaultOptions() Options {
	return Options{OrphanReparenting: true, MaxNodes: 64}
}

// Tree owns the node arena, pid allocation, and the append-only simulation
// log. It is not safe for concurrent use: a tree is exclusively owned by one
// interpreter session at a time and the session serializes access.
type Tree struct {
	nodes  map[string]*types.ProcessNode
	byPID  map[int]string // pid -> node ID; pids are never reused
	order  []string       // node IDs in creation order
	rootID string

	nextPID int
	seq     int64 // logical creation clock

	log     []types.LogEntry
	logSeq  int64
	logSink func(types.LogEntry) // optional observer, invoked per appended entry

	opts Options
}

// New creates an empty tree. CreateRoot must be called before any other
// operation.
func New(opts Options) *Tree {
	return &Tree{
		nodes:   make(map[string]*types.ProcessNode),
		byPID:   make(map[int]string),
		nextPID: 1,
		opts:    opts,
	}
}

// SetLogSink registers an observer invoked for every appended log entry.
// Entries are delivered in causal order, after the mutation they describe.
func (t *Tree) SetLogSink(sink func(types.LogEntry)) {
	t.logSink = sink
}

// Len returns the number of nodes in the arena.
func (t *Tree) Len() int {
	return len(t.nodes)
}

// RootID returns the root node ID, or empty for an uninitialized tree.
func (t *Tree) RootID() string {
	return t.rootID
}

// ResolvePID maps a simulated pid to its node ID.
func (t *Tree) ResolvePID(pid int) (string, error) {
	id, ok := t.byPID[pid]
	if !ok {
		return "", fmt.Errorf("%w: pid %d", ErrUnknownTarget, pid)
	}
	return id, nil
}

// CreateRoot initializes the tree with a single running node, pid 1, depth 0.
// It fails with ErrInvalidOperation on a non-empty tree.
func (t *Tree) CreateRoot() (string, error) {
	if len(t.nodes) > 0 {
		return "", fmt.Errorf("%w: root already exists", ErrInvalidOperation)
	}

	root := t.newNode(nil)
	t.rootID = root.ID

	t.appendLog(types.LogEntry{
		Action:  types.LogCreateRoot,
		PID:     root.PID,
		Message: fmt.Sprintf("init process created (pid %d)", root.PID),
	})

	return root.ID, nil
}

// Fork creates a new child under parentID. The parent must be running or
// waiting; zombies and terminated processes cannot fork. Returns the new
// node's ID.
func (t *Tree) Fork(parentID string) (string, error) {
	parent, ok := t.nodes[parentID]
	if !ok {
		return "", fmt.Errorf("%w: node %s", ErrUnknownTarget, parentID)
	}
	if !parent.Alive() {
		return "", fmt.Errorf("%w: pid %d is %s and cannot fork", ErrInvalidParentState, parent.PID, parent.State)
	}
	if t.opts.MaxNodes > 0 && len(t.nodes) >= t.opts.MaxNodes {
		return "", fmt.Errorf("%w: node limit %d reached", ErrInvalidOperation, t.opts.MaxNodes)
	}

	child := t.newNode(parent)
	parent.Children = append(parent.Children, child.ID)

	t.appendLog(types.LogEntry{
		Action:    types.LogFork,
		PID:       parent.PID,
		TargetPID: child.PID,
		Message:   fmt.Sprintf("process %d forked child %d", parent.PID, child.PID),
	})

	return child.ID, nil
}

// ApplyExit transitions a running or waiting node to zombie. Live children
// of the exiting node are reparented to the root and flagged as orphans
// (or, with orphan reparenting disabled, block the exit with
// ErrHasLiveChildren). If the exiting node's parent is blocked in a
// wait-for-any, the fresh zombie is reaped immediately and the parent
// resumes running.
func (t *Tree) ApplyExit(nodeID string) error {
	node, ok := t.nodes[nodeID]
	if !ok {
		return fmt.Errorf("%w: node %s", ErrUnknownTarget, nodeID)
	}
	if node.ID == t.rootID {
		return fmt.Errorf("%w: the init process cannot exit", ErrInvalidOperation)
	}
	if !node.Alive() {
		return fmt.Errorf("%w: pid %d is already %s", ErrInvalidParentState, node.PID, node.State)
	}
	if !t.opts.OrphanReparenting {
		for _, childID := range node.Children {
			if t.nodes[childID].Alive() {
				return fmt.Errorf("%w: pid %d has live child %d", ErrHasLiveChildren, node.PID, t.nodes[childID].PID)
			}
		}
	}

	// All error conditions are checked; mutate.
	now := time.Now()
	node.State = types.ProcessZombie
	node.ExitedAt = &now

	t.appendLog(types.LogEntry{
		Action:  types.LogExit,
		PID:     node.PID,
		Message: fmt.Sprintf("process %d exited, now a zombie until reaped", node.PID),
	})

	t.reparentChildren(node)

	// A parent blocked in wait-for-any reaps the fresh zombie at once.
	if parent, ok := t.nodes[node.ParentID]; ok && parent.State == types.ProcessWaiting {
		t.reap(parent, node)
	}

	return nil
}

// ApplyWait reaps a zombie child of parentID. With targetID set, that exact
// child must be a zombie. With targetID empty ("wait for any") the
// earliest-created zombie child is reaped; if there is none but a live child
// remains, the parent blocks in the waiting state until a later exit
// resolves it; if no child could ever become a zombie the wait fails with
// ErrNoZombieChildren.
func (t *Tree) ApplyWait(parentID, targetID string) error {
	parent, ok := t.nodes[parentID]
	if !ok {
		return fmt.Errorf("%w: node %s", ErrUnknownTarget, parentID)
	}
	if parent.State != types.ProcessRunning {
		return fmt.Errorf("%w: pid %d is %s and cannot wait", ErrInvalidParentState, parent.PID, parent.State)
	}

	if targetID != "" {
		target, ok := t.nodes[targetID]
		if !ok {
			return fmt.Errorf("%w: node %s", ErrUnknownTarget, targetID)
		}
		if target.ParentID != parent.ID {
			return fmt.Errorf("%w: pid %d is not a child of pid %d", ErrUnknownTarget, target.PID, parent.PID)
		}
		if target.State != types.ProcessZombie {
			return fmt.Errorf("%w: pid %d is %s, not a zombie", ErrInvalidParentState, target.PID, target.State)
		}
		t.reap(parent, target)
		return nil
	}

	// Wait for any: pick the earliest-created zombie child (FIFO).
	var zombie *types.ProcessNode
	hasLive := false
	for _, childID := range parent.Children {
		child := t.nodes[childID]
		switch {
		case child.State == types.ProcessZombie:
			if zombie == nil || child.Seq < zombie.Seq {
				zombie = child
			}
		case child.Alive():
			hasLive = true
		}
	}

	if zombie != nil {
		t.reap(parent, zombie)
		return nil
	}
	if !hasLive {
		return fmt.Errorf("%w: pid %d has no child to wait for", ErrNoZombieChildren, parent.PID)
	}

	parent.State = types.ProcessWaiting
	t.appendLog(types.LogEntry{
		Action:  types.LogWaitBlock,
		PID:     parent.PID,
		Message: fmt.Sprintf("process %d blocked in wait(), no zombie child yet", parent.PID),
	})
	return nil
}

// ParentOf returns the node ID of the parent of nodeID. The root has no
// parent and returns ErrInvalidOperation.
func (t *Tree) ParentOf(nodeID string) (string, error) {
	node, ok := t.nodes[nodeID]
	if !ok {
		return "", fmt.Errorf("%w: node %s", ErrUnknownTarget, nodeID)
	}
	if node.ParentID == "" {
		return "", fmt.Errorf("%w: the init process has no parent", ErrInvalidOperation)
	}
	return node.ParentID, nil
}

// Explain appends a narration-only log entry. It performs no tree mutation;
// scenarios use it to attach teaching text to the log.
func (t *Tree) Explain(osExplanation, dsaExplanation string) {
	t.appendLog(types.LogEntry{
		Action:         types.LogExplain,
		Message:        osExplanation,
		OSExplanation:  osExplanation,
		DSAExplanation: dsaExplanation,
	})
}

// Snapshot returns an immutable deep copy of the full node set.
func (t *Tree) Snapshot() *types.TreeSnapshot {
	snap := &types.TreeSnapshot{
		RootID: t.rootID,
		Nodes:  make(map[string]*types.ProcessNode, len(t.nodes)),
		Order:  append([]string(nil), t.order...),
	}
	for id, node := range t.nodes {
		snap.Nodes[id] = node.Clone()
	}
	return snap
}

// Log returns a copy of the simulation log in causal order.
func (t *Tree) Log() []types.LogEntry {
	return append([]types.LogEntry(nil), t.log...)
}

// WaitingPIDs returns the pids of nodes still blocked in wait, in creation
// order. A scripted replay that ends with waiting nodes is incomplete.
func (t *Tree) WaitingPIDs() []int {
	var pids []int
	for _, id := range t.order {
		if t.nodes[id].State == types.ProcessWaiting {
			pids = append(pids, t.nodes[id].PID)
		}
	}
	return pids
}

// Internal methods

func (t *Tree) newNode(parent *types.ProcessNode) *types.ProcessNode {
	t.seq++
	node := &types.ProcessNode{
		ID:        uuid.NewString(),
		PID:       t.nextPID,
		PPID:      types.RootPPID,
		State:     types.ProcessRunning,
		Seq:       t.seq,
		CreatedAt: time.Now(),
	}
	t.nextPID++

	if parent != nil {
		node.PPID = parent.PID
		node.ParentID = parent.ID
		node.Depth = parent.Depth + 1
		node.ForkLevel = len(parent.Children)
	}

	t.nodes[node.ID] = node
	t.byPID[node.PID] = node.ID
	t.order = append(t.order, node.ID)
	return node
}

// reparentChildren moves every child of the exited node under the root.
// Children still alive are flagged as orphans; zombie children move too so
// the root can reap them, as init does.
func (t *Tree) reparentChildren(exited *types.ProcessNode) {
	if len(exited.Children) == 0 {
		return
	}
	root := t.nodes[t.rootID]

	for _, childID := range exited.Children {
		child := t.nodes[childID]
		child.ParentID = root.ID
		child.PPID = root.PID
		if child.Alive() {
			child.Orphaned = true
		}
		t.rebaseDepth(child, root.Depth+1)
		root.Children = append(root.Children, child.ID)

		if child.Orphaned {
			t.appendLog(types.LogEntry{
				Action:    types.LogOrphan,
				PID:       child.PID,
				TargetPID: root.PID,
				Message:   fmt.Sprintf("process %d orphaned, reparented to init (pid %d)", child.PID, root.PID),
			})
		}
	}
	exited.Children = nil
}

// rebaseDepth sets the node's depth and shifts its whole subtree by the
// same delta, keeping child.depth == parent.depth+1 everywhere.
func (t *Tree) rebaseDepth(node *types.ProcessNode, depth int) {
	delta := depth - node.Depth
	if delta == 0 {
		return
	}
	stack := []*types.ProcessNode{node}
	for len(stack) > 0 {
		n := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		n.Depth += delta
		for _, childID := range n.Children {
			stack = append(stack, t.nodes[childID])
		}
	}
}

func (t *Tree) reap(parent, zombie *types.ProcessNode) {
	zombie.State = types.ProcessTerminated
	if parent.State == types.ProcessWaiting {
		parent.State = types.ProcessRunning
	}
	t.appendLog(types.LogEntry{
		Action:    types.LogReap,
		PID:       parent.PID,
		TargetPID: zombie.PID,
		Message:   fmt.Sprintf("process %d reaped child %d, zombie cleaned up", parent.PID, zombie.PID),
	})
}

func (t *Tree) appendLog(entry types.LogEntry) {
	entry.ID = uuid.NewString()
	entry.Seq = t.logSeq
	entry.Timestamp = time.Now()
	t.logSeq++

	t.log = append(t.log, entry)
	if t.logSink != nil {
		t.logSink(entry)
	}
}
