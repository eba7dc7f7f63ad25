package types

import "time"

// ScenarioAction is the kind of step a scenario script applies.
type ScenarioAction string

const (
	ActionFork    ScenarioAction = "fork"
	ActionWait    ScenarioAction = "wait"
	ActionExit    ScenarioAction = "exit"
	ActionOrphan  ScenarioAction = "orphan"
	ActionExplain ScenarioAction = "explain"
)

// ScenarioStep is one scripted action in a scenario or challenge replay.
// TargetPID names the acting process: the parent for fork and wait, the
// exiting process for exit, the to-be-orphaned child for orphan. ChildPID
// selects a specific child for a targeted wait; zero means "wait for any".
type ScenarioStep struct {
	Action         ScenarioAction `yaml:"action" json:"action"`
	TargetPID      int            `yaml:"target_pid,omitempty" json:"target_pid,omitempty"`
	ChildPID       int            `yaml:"child_pid,omitempty" json:"child_pid,omitempty"`
	OSExplanation  string         `yaml:"os_explanation,omitempty" json:"os_explanation,omitempty"`
	DSAExplanation string         `yaml:"dsa_explanation,omitempty" json:"dsa_explanation,omitempty"`
}

// Scenario is a scripted, replayable lesson.
type Scenario struct {
	ID          string         `yaml:"id" json:"id"`
	Title       string         `yaml:"title" json:"title"`
	Description string         `yaml:"description" json:"description"`
	Steps       []ScenarioStep `yaml:"steps" json:"steps"`
}

// ShapeStructure selects a structural predicate for challenge validation.
type ShapeStructure string

const (
	// StructureNone applies no structural check beyond the count predicates.
	StructureNone ShapeStructure = ""
	// StructurePerfectBinary requires every non-leaf to have exactly two
	// children and all leaves at StructureDepth.
	StructurePerfectBinary ShapeStructure = "perfect_binary"
	// StructureLinearChain requires every node to have at most one child and
	// the deepest node at StructureDepth.
	StructureLinearChain ShapeStructure = "linear_chain"
)

// ExpectedShape describes the tree a challenge expects, as a predicate
// rather than a literal tree: many concrete pid assignments satisfy the
// same shape. Nil pointer fields are unconstrained.
type ExpectedShape struct {
	RootChildren    *int           `yaml:"root_children,omitempty" json:"root_children,omitempty"`
	TotalNodes      *int           `yaml:"total_nodes,omitempty" json:"total_nodes,omitempty"`
	MaxDepth        *int           `yaml:"max_depth,omitempty" json:"max_depth,omitempty"`
	ZombieCount     *int           `yaml:"zombie_count,omitempty" json:"zombie_count,omitempty"`
	OrphanCount     *int           `yaml:"orphan_count,omitempty" json:"orphan_count,omitempty"`
	TerminatedCount *int           `yaml:"terminated_count,omitempty" json:"terminated_count,omitempty"`
	Structure       ShapeStructure `yaml:"structure,omitempty" json:"structure,omitempty"`
	StructureDepth  int            `yaml:"structure_depth,omitempty" json:"structure_depth,omitempty"`
}

// Challenge asks the learner to build a tree matching an expected shape.
type Challenge struct {
	ID          string        `yaml:"id" json:"id"`
	Title       string        `yaml:"title" json:"title"`
	Description string        `yaml:"description" json:"description"`
	Hint        string        `yaml:"hint,omitempty" json:"hint,omitempty"`
	Shape       ExpectedShape `yaml:"shape" json:"shape"`
}

// ChallengeResult is the outcome of validating one challenge attempt.
type ChallengeResult struct {
	ChallengeID string    `json:"challenge_id"`
	SessionID   string    `json:"session_id"`
	Passed      bool      `json:"passed"`
	Reason      string    `json:"reason"`
	CompletedAt time.Time `json:"completed_at"`
}

// ChallengeProgress summarizes a learner's attempts at one challenge.
type ChallengeProgress struct {
	ChallengeID string    `json:"challenge_id"`
	Attempts    int       `json:"attempts"`
	Passed      bool      `json:"passed"` // True if any attempt passed
	LastReason  string    `json:"last_reason"`
	LastAttempt time.Time `json:"last_attempt"`
}

// ProgressStats aggregates progress across all challenges.
type ProgressStats struct {
	Attempted int `json:"attempted"`
	Passed    int `json:"passed"`
}
