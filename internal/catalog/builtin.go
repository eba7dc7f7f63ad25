package catalog

import "github.com/forklab-edu/forklab/pkg/types"

func intp(v int) *int { return &v }

// builtinScenarios are the lessons that ship with the binary. Pids in the
// scripts are deterministic: the root is always 1 and forks allocate
// monotonically, so a fresh replay always produces the same numbering.
func builtinScenarios() []*types.Scenario {
	return []*types.Scenario{
		{
			ID:          "fork-basics",
			Title:       "Forking your first children",
			Description: "fork() duplicates the calling process; the child starts running immediately under its parent.",
			Steps: []types.ScenarioStep{
				{
					Action:         types.ActionExplain,
					OSExplanation:  "Every process tree starts from a single ancestor. Here that is init, pid 1.",
					DSAExplanation: "The process table is a rooted tree: one root, every other node has exactly one parent.",
				},
				{
					Action:         types.ActionFork,
					TargetPID:      1,
					OSExplanation:  "fork() returns twice: 0 in the child, the child's pid in the parent.",
					DSAExplanation: "A fork appends a child node; siblings keep their creation order.",
				},
				{Action: types.ActionFork, TargetPID: 1},
				{
					Action:         types.ActionFork,
					TargetPID:      2,
					OSExplanation:  "A child can fork too, growing the tree a level deeper.",
					DSAExplanation: "The grandchild's depth is its parent's depth plus one.",
				},
			},
		},
		{
			ID:          "zombie-lifecycle",
			Title:       "Zombies and reaping",
			Description: "An exited process lingers as a zombie until its parent collects the exit status with wait().",
			Steps: []types.ScenarioStep{
				{Action: types.ActionFork, TargetPID: 1},
				{
					Action:         types.ActionExit,
					TargetPID:      2,
					OSExplanation:  "The child exited, but its entry stays in the process table so the parent can read its status.",
					DSAExplanation: "The node is not deleted; only its state changes to zombie.",
				},
				{
					Action:         types.ActionWait,
					TargetPID:      1,
					OSExplanation:  "wait() collects the exit status and frees the table entry: the zombie is reaped.",
					DSAExplanation: "Reaping is a state transition from zombie to terminated; the tree shape is unchanged.",
				},
			},
		},
		{
			ID:          "orphan-reparenting",
			Title:       "Orphans adopt init",
			Description: "When a parent exits before its children, the children are reparented to init.",
			Steps: []types.ScenarioStep{
				{Action: types.ActionFork, TargetPID: 1},
				{Action: types.ActionFork, TargetPID: 2},
				{
					Action:         types.ActionOrphan,
					TargetPID:      3,
					OSExplanation:  "Pid 2 exited while pid 3 was still running, so init adopted pid 3.",
					DSAExplanation: "Reparenting rewrites one parent pointer and recomputes the subtree's depth.",
				},
				{
					Action:         types.ActionWait,
					TargetPID:      1,
					OSExplanation:  "init periodically waits to reap whatever zombies it inherited.",
					DSAExplanation: "The adopted zombie is now a direct child of the root, so the root can reap it.",
				},
			},
		},
		{
			ID:          "wait-any-fifo",
			Title:       "Waiting for any child",
			Description: "wait() without a pid reaps the earliest-created zombie child first.",
			Steps: []types.ScenarioStep{
				{Action: types.ActionFork, TargetPID: 1},
				{Action: types.ActionFork, TargetPID: 1},
				{Action: types.ActionFork, TargetPID: 1},
				{Action: types.ActionExit, TargetPID: 3},
				{Action: types.ActionExit, TargetPID: 2},
				{
					Action:         types.ActionWait,
					TargetPID:      1,
					OSExplanation:  "Two zombies are available; wait() picks the earliest-created child, pid 2.",
					DSAExplanation: "Zombie children are reaped in creation order, a FIFO over the sibling list.",
				},
				{Action: types.ActionWait, TargetPID: 1},
				{
					Action:         types.ActionWait,
					TargetPID:      1,
					OSExplanation:  "No zombie is left, so the parent blocks until pid 4 exits.",
					DSAExplanation: "A blocked wait is a pending edge: the next matching exit resolves it immediately.",
				},
				{Action: types.ActionExit, TargetPID: 4},
			},
		},
	}
}

// builtinChallenges ask the learner to build a tree matching a shape in
// sandbox mode.
func builtinChallenges() []*types.Challenge {
	return []*types.Challenge{
		{
			ID:          "one-child",
			Title:       "One child",
			Description: "Make init have exactly one running child.",
			Hint:        "A single fork from pid 1 is enough.",
			Shape: types.ExpectedShape{
				RootChildren: intp(1),
				TotalNodes:   intp(2),
			},
		},
		{
			ID:          "three-children",
			Title:       "Triple fork",
			Description: "Give init exactly three children, like a fork loop that runs three times.",
			Hint:        "Fork from pid 1 three times; do not fork from the children.",
			Shape: types.ExpectedShape{
				RootChildren: intp(3),
				TotalNodes:   intp(4),
			},
		},
		{
			ID:          "zombie-child",
			Title:       "Make a zombie",
			Description: "Leave init with exactly one zombie child.",
			Hint:        "Fork once, exit the child, and do not wait.",
			Shape: types.ExpectedShape{
				RootChildren: intp(1),
				ZombieCount:  intp(1),
			},
		},
		{
			ID:          "reap-two",
			Title:       "Reap both children",
			Description: "Fork two children, exit both, and reap both: two terminated processes, zero zombies.",
			Hint:        "Each exited child needs its own wait().",
			Shape: types.ExpectedShape{
				RootChildren:    intp(2),
				TerminatedCount: intp(2),
				ZombieCount:     intp(0),
			},
		},
		{
			ID:          "orphan-one",
			Title:       "Orphan a grandchild",
			Description: "End up with exactly one orphaned process adopted by init.",
			Hint:        "Fork a child, let it fork a grandchild, then exit the child.",
			Shape: types.ExpectedShape{
				OrphanCount: intp(1),
			},
		},
		{
			ID:          "binary-depth-2",
			Title:       "Perfect binary tree, depth 2",
			Description: "Build a perfect binary tree of depth 2: seven processes, every non-leaf with two children.",
			Hint:        "Root forks twice, then each of the two children forks twice.",
			Shape: types.ExpectedShape{
				TotalNodes:     intp(7),
				Structure:      types.StructurePerfectBinary,
				StructureDepth: 2,
			},
		},
		{
			ID:          "chain-depth-4",
			Title:       "Linear chain, depth 4",
			Description: "Build a chain five processes long: each process has exactly one child.",
			Hint:        "Always fork from the newest pid.",
			Shape: types.ExpectedShape{
				Structure:      types.StructureLinearChain,
				StructureDepth: 4,
			},
		},
	}
}
