package types

import "time"

// ProcessState represents the lifecycle state of a simulated process.
type ProcessState string

const (
	ProcessRunning    ProcessState = "running"
	ProcessWaiting    ProcessState = "waiting"
	ProcessZombie     ProcessState = "zombie"
	ProcessTerminated ProcessState = "terminated"
)

// RootPPID is the sentinel parent pid carried by the root ("init") node.
const RootPPID = 0

// ProcessNode represents a single node in the simulated process tree.
// Nodes are never removed from the tree; once a process exits it stays in
// the node set with its state updated, the way a real process table keeps
// zombies around until they are reaped.
type ProcessNode struct {
	ID        string       `json:"id"`         // Unique identifier (UUID), never reused
	PID       int          `json:"pid"`        // Simulated process ID, monotonic, never reused
	PPID      int          `json:"ppid"`       // Parent pid (RootPPID for the root node)
	ParentID  string       `json:"parent_id"`  // Parent node ID (empty if root)
	State     ProcessState `json:"state"`      // Current lifecycle state
	Orphaned  bool         `json:"orphaned"`   // True once the original parent exited; orthogonal to State
	Children  []string     `json:"children"`   // Child node IDs in fork order
	Depth     int          `json:"depth"`      // Distance from root; root is 0
	ForkLevel int          `json:"fork_level"` // Index of the fork within the parent that created this node
	Seq       int64        `json:"seq"`        // Logical creation clock, monotonic across the tree
	CreatedAt time.Time    `json:"created_at"` // Wall-clock creation time
	ExitedAt  *time.Time   `json:"exited_at"`  // When the process exited (nil while alive)
}

// Alive reports whether the process can still run (or block in wait).
func (n *ProcessNode) Alive() bool {
	return n.State == ProcessRunning || n.State == ProcessWaiting
}

// Clone returns a deep copy of the node.
func (n *ProcessNode) Clone() *ProcessNode {
	c := *n
	c.Children = append([]string(nil), n.Children...)
	if n.ExitedAt != nil {
		t := *n.ExitedAt
		c.ExitedAt = &t
	}
	return &c
}

// TreeSnapshot is an immutable copy of the full node set, taken between
// actions. Traversal and challenge validation only ever see snapshots, so
// they can never observe a tree mid-mutation.
type TreeSnapshot struct {
	RootID string                  `json:"root_id"`
	Nodes  map[string]*ProcessNode `json:"nodes"`
	Order  []string                `json:"order"` // Node IDs in creation order
}

// Root returns the root node, or nil for an empty snapshot.
func (s *TreeSnapshot) Root() *ProcessNode {
	if s == nil || s.RootID == "" {
		return nil
	}
	return s.Nodes[s.RootID]
}

// Node returns the node with the given ID, or nil.
func (s *TreeSnapshot) Node(id string) *ProcessNode {
	if s == nil {
		return nil
	}
	return s.Nodes[id]
}

// Len returns the number of nodes in the snapshot.
func (s *TreeSnapshot) Len() int {
	if s == nil {
		return 0
	}
	return len(s.Nodes)
}

// LogAction identifies the kind of simulation event a LogEntry records.
type LogAction string

const (
	LogCreateRoot LogAction = "create_root"
	LogFork       LogAction = "fork"
	LogExit       LogAction = "exit"
	LogWaitBlock  LogAction = "wait_block"
	LogReap       LogAction = "reap"
	LogOrphan     LogAction = "orphan"
	LogExplain    LogAction = "explain"
)

// LogEntry is an append-only, timestamped record of one simulation event.
// Entries are never mutated after creation and are emitted in the order
// actions are applied.
type LogEntry struct {
	ID             string    `json:"id"`
	Seq            int64     `json:"seq"`        // Position in the session log, 0-based
	SessionID      string    `json:"session_id"` // Filled in by the session manager
	Action         LogAction `json:"action"`
	PID            int       `json:"pid"`                  // Acting process
	TargetPID      int       `json:"target_pid,omitempty"` // Affected process (0 if none)
	Message        string    `json:"message"`
	OSExplanation  string    `json:"os_explanation,omitempty"`
	DSAExplanation string    `json:"dsa_explanation,omitempty"`
	Timestamp      time.Time `json:"timestamp"`
}

// TraversalType selects a tree visitation order.
type TraversalType string

const (
	TraversalPreorder   TraversalType = "preorder"
	TraversalPostorder  TraversalType = "postorder"
	TraversalLevelorder TraversalType = "levelorder"
	TraversalInorder    TraversalType = "inorder"
)

// TraversalStep is one visit in a traversal result. A full traversal covers
// every node in the snapshot exactly once with order values 0..n-1.
type TraversalStep struct {
	NodeID string `json:"node_id"`
	PID    int    `json:"pid"`
	Order  int    `json:"order"`
}

// TreeStats contains aggregated per-state counts for a snapshot.
type TreeStats struct {
	TotalNodes      int `json:"total_nodes"`
	RunningCount    int `json:"running_count"`
	WaitingCount    int `json:"waiting_count"`
	ZombieCount     int `json:"zombie_count"`
	TerminatedCount int `json:"terminated_count"`
	OrphanCount     int `json:"orphan_count"`
	MaxDepth        int `json:"max_depth"`
}

// TreeGraphData represents the data needed to render the process tree in the UI.
type TreeGraphData struct {
	Nodes []TreeGraphNode `json:"nodes"`
	Edges []TreeGraphEdge `json:"edges"`
	Stats TreeStats       `json:"stats"`
}

// TreeGraphNode represents a node in the tree visualization.
type TreeGraphNode struct {
	ID        string       `json:"id"`
	Label     string       `json:"label"`
	PID       int          `json:"pid"`
	PPID      int          `json:"ppid"`
	State     ProcessState `json:"state"`
	Orphaned  bool         `json:"orphaned"`
	Depth     int          `json:"depth"`
	ForkLevel int          `json:"fork_level"`
}

// TreeGraphEdge represents a parent-child link in the visualization.
type TreeGraphEdge struct {
	ID     string `json:"id"`
	Source string `json:"source"` // Parent node ID
	Target string `json:"target"` // Child node ID
}

// WebSocketMessage represents a message sent over WebSocket for real-time updates.
type WebSocketMessage struct {
	Type    string      `json:"type"`    // "log_entry", "session_graph"
	Payload interface{} `json:"payload"` // The actual data
}
