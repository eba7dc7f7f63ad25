// Package session manages live simulation sessions for the API layer: it
// owns one process tree per session, enforces the single-writer discipline,
// fans simulation log entries out to subscribers, and records results in
// the optional store.
package session

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/forklab-edu/forklab/internal/core/challenge"
	"github.com/forklab-edu/forklab/internal/core/interp"
	"github.com/forklab-edu/forklab/internal/core/traversal"
	"github.com/forklab-edu/forklab/internal/core/tree"
	"github.com/forklab-edu/forklab/pkg/types"
)

var (
	// ErrSessionNotFound is returned for an unknown session ID.
	ErrSessionNotFound = errors.New("session: not found")

	// ErrWrongMode is returned when an operation is issued against a session
	// of the wrong kind (e.g. stepping a sandbox session).
	ErrWrongMode = errors.New("session: operation not allowed in this mode")
)

// Mode distinguishes how a session is driven.
type Mode string

const (
	// ModeSandbox lets the UI issue fork/wait/exit calls directly.
	ModeSandbox Mode = "sandbox"
	// ModeScenario replays a scripted lesson step by step.
	ModeScenario Mode = "scenario"
	// ModeChallenge is sandbox-driven but bound to an expected shape.
	ModeChallenge Mode = "challenge"
)

// Store persists simulation output. A nil store means in-memory only.
type Store interface {
	StoreLogEntry(entry *types.LogEntry) error
	StoreChallengeResult(result *types.ChallengeResult) error
}

// Info is the API-facing summary of a session.
type Info struct {
	ID          string    `json:"id"`
	Mode        Mode      `json:"mode"`
	ScenarioID  string    `json:"scenario_id,omitempty"`
	ChallengeID string    `json:"challenge_id,omitempty"`
	StepCursor  int       `json:"step_cursor,omitempty"`
	StepsTotal  int       `json:"steps_total,omitempty"`
	Done        bool      `json:"done"`
	CreatedAt   time.Time `json:"created_at"`
}

type session struct {
	mu sync.Mutex

	id        string
	mode      Mode
	scenario  *types.Scenario
	challenge *types.Challenge
	tree      *tree.Tree
	interp    *interp.Interpreter
	createdAt time.Time
}

// Manager owns all live sessions.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*session

	// Event subscribers
	subscribersMu sync.RWMutex
	subscribers   map[string]chan *types.LogEntry

	store      Store
	engineOpts tree.Options
}

// NewManager creates a session manager. store may be nil.
func NewManager(engineOpts tree.Options, store Store) *Manager {
	return &Manager{
		sessions:    make(map[string]*session),
		subscribers: make(map[string]chan *types.LogEntry),
		store:       store,
		engineOpts:  engineOpts,
	}
}

// CreateSandbox starts a free-form session with a fresh tree and root.
func (m *Manager) CreateSandbox() (Info, error) {
	return m.create(ModeSandbox, nil, nil)
}

// CreateScenario starts a scripted replay of the given scenario.
func (m *Manager) CreateScenario(sc *types.Scenario) (Info, error) {
	return m.create(ModeScenario, sc, nil)
}

// CreateChallenge starts a sandbox-driven session bound to a challenge.
func (m *Manager) CreateChallenge(ch *types.Challenge) (Info, error) {
	return m.create(ModeChallenge, nil, ch)
}

func (m *Manager) create(mode Mode, sc *types.Scenario, ch *types.Challenge) (Info, error) {
	s := &session{
		id:        uuid.NewString(),
		mode:      mode,
		scenario:  sc,
		challenge: ch,
		createdAt: time.Now(),
	}
	if err := m.initTree(s); err != nil {
		return Info{}, err
	}

	m.mu.Lock()
	m.sessions[s.id] = s
	m.mu.Unlock()

	return m.info(s), nil
}

// initTree builds a fresh tree with a root for the session and hooks the
// log sink into the manager's fan-out.
func (m *Manager) initTree(s *session) error {
	t := tree.New(m.engineOpts)
	t.SetLogSink(func(entry types.LogEntry) {
		entry.SessionID = s.id
		m.emit(&entry)
	})
	if _, err := t.CreateRoot(); err != nil {
		return err
	}
	s.tree = t
	if s.mode == ModeScenario {
		s.interp = interp.New(t, s.scenario.Steps)
	} else {
		s.interp = nil
	}
	return nil
}

// Get returns the session summary.
func (m *Manager) Get(id string) (Info, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return m.info(s), nil
}

// List returns summaries of all live sessions.
func (m *Manager) List() []Info {
	m.mu.RLock()
	defer m.mu.RUnlock()

	infos := make([]Info, 0, len(m.sessions))
	for _, s := range m.sessions {
		s.mu.Lock()
		infos = append(infos, m.info(s))
		s.mu.Unlock()
	}
	return infos
}

// Close discards a session. There is no cleanup obligation beyond dropping
// the tree.
func (m *Manager) Close(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.sessions[id]; !ok {
		return fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	delete(m.sessions, id)
	return nil
}

// Reset replaces the session's tree with a fresh one and rewinds any script.
func (m *Manager) Reset(id string) (Info, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := m.initTree(s); err != nil {
		return Info{}, err
	}
	return m.info(s), nil
}

// Fork forks a child under parentPID (0 means the root).
func (m *Manager) Fork(id string, parentPID int) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeScenario {
		return fmt.Errorf("%w: scenario sessions are script-driven", ErrWrongMode)
	}
	parent, err := m.resolve(s, parentPID)
	if err != nil {
		return err
	}
	_, err = s.tree.Fork(parent)
	return err
}

// Exit exits the process with the given pid.
func (m *Manager) Exit(id string, pid int) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeScenario {
		return fmt.Errorf("%w: scenario sessions are script-driven", ErrWrongMode)
	}
	node, err := s.tree.ResolvePID(pid)
	if err != nil {
		return err
	}
	return s.tree.ApplyExit(node)
}

// Wait makes parentPID wait; childPID of 0 means "wait for any".
func (m *Manager) Wait(id string, parentPID, childPID int) error {
	s, err := m.lookup(id)
	if err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode == ModeScenario {
		return fmt.Errorf("%w: scenario sessions are script-driven", ErrWrongMode)
	}
	parent, err := m.resolve(s, parentPID)
	if err != nil {
		return err
	}
	child := ""
	if childPID != 0 {
		if child, err = s.tree.ResolvePID(childPID); err != nil {
			return err
		}
	}
	return s.tree.ApplyWait(parent, child)
}

// Step advances a scenario session by one script step.
func (m *Manager) Step(id string) (Info, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeScenario {
		return Info{}, fmt.Errorf("%w: not a scenario session", ErrWrongMode)
	}
	if err := s.interp.Step(); err != nil {
		return Info{}, err
	}
	if s.interp.Done() {
		if err := s.interp.Finish(); err != nil {
			return Info{}, err
		}
	}
	return m.info(s), nil
}

// Run replays a scenario session to completion.
func (m *Manager) Run(id string) (Info, error) {
	s, err := m.lookup(id)
	if err != nil {
		return Info{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.mode != ModeScenario {
		return Info{}, fmt.Errorf("%w: not a scenario session", ErrWrongMode)
	}
	if err := s.interp.Run(); err != nil {
		return Info{}, err
	}
	return m.info(s), nil
}

// Snapshot returns an immutable copy of the session's tree.
func (m *Manager) Snapshot(id string) (*types.TreeSnapshot, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.tree.Snapshot(), nil
}

// Traverse computes a visitation order over the session's current tree.
func (m *Manager) Traverse(id string, kind types.TraversalType) ([]types.TraversalStep, error) {
	snap, err := m.Snapshot(id)
	if err != nil {
		return nil, err
	}
	return traversal.Traverse(snap, kind)
}

// Graph returns render-ready graph data for the session's current tree.
func (m *Manager) Graph(id string) (*types.TreeGraphData, error) {
	snap, err := m.Snapshot(id)
	if err != nil {
		return nil, err
	}
	return BuildGraph(snap), nil
}

// Log returns the session's simulation log in causal order.
func (m *Manager) Log(id string) ([]types.LogEntry, error) {
	s, err := m.lookup(id)
	if err != nil {
		return nil, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := s.tree.Log()
	for i := range entries {
		entries[i].SessionID = s.id
	}
	return entries, nil
}

// Validate checks a challenge session's tree against its expected shape and
// records the attempt.
func (m *Manager) Validate(id string) (challenge.Result, error) {
	s, err := m.lookup(id)
	if err != nil {
		return challenge.Result{}, err
	}
	s.mu.Lock()
	if s.mode != ModeChallenge {
		s.mu.Unlock()
		return challenge.Result{}, fmt.Errorf("%w: not a challenge session", ErrWrongMode)
	}
	snap := s.tree.Snapshot()
	ch := s.challenge
	s.mu.Unlock()

	result := challenge.Validate(snap, ch.Shape)

	if m.store != nil {
		record := &types.ChallengeResult{
			ChallengeID: ch.ID,
			SessionID:   s.id,
			Passed:      result.Passed,
			Reason:      result.Reason,
			CompletedAt: time.Now(),
		}
		if err := m.store.StoreChallengeResult(record); err != nil {
			return result, fmt.Errorf("failed to record challenge result: %w", err)
		}
	}
	return result, nil
}

// Subscribe creates a new log entry subscription.
func (m *Manager) Subscribe(id string) <-chan *types.LogEntry {
	m.subscribersMu.Lock()
	defer m.subscribersMu.Unlock()

	ch := make(chan *types.LogEntry, 100)
	m.subscribers[id] = ch
	return ch
}

// Unsubscribe removes a log entry subscription.
func (m *Manager) Unsubscribe(id string) {
	m.subscribersMu.Lock()
	defer m.subscribersMu.Unlock()

	if ch, ok := m.subscribers[id]; ok {
		close(ch)
		delete(m.subscribers, id)
	}
}

// Internal methods

func (m *Manager) lookup(id string) (*session, error) {
	m.mu.RLock()
	s, ok := m.sessions[id]
	m.mu.RUnlock()

	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrSessionNotFound, id)
	}
	return s, nil
}

func (m *Manager) resolve(s *session, pid int) (string, error) {
	if pid == 0 {
		return s.tree.RootID(), nil
	}
	return s.tree.ResolvePID(pid)
}

func (m *Manager) info(s *session) Info {
	info := Info{
		ID:        s.id,
		Mode:      s.mode,
		CreatedAt: s.createdAt,
	}
	switch s.mode {
	case ModeScenario:
		info.ScenarioID = s.scenario.ID
		info.StepCursor = s.interp.Cursor()
		info.StepsTotal = len(s.scenario.Steps)
		info.Done = s.interp.Done()
	case ModeChallenge:
		info.ChallengeID = s.challenge.ID
	}
	return info
}

func (m *Manager) emit(entry *types.LogEntry) {
	// Persist
	if m.store != nil {
		m.store.StoreLogEntry(entry)
	}

	// Notify subscribers
	m.subscribersMu.RLock()
	defer m.subscribersMu.RUnlock()

	for _, ch := range m.subscribers {
		select {
		case ch <- entry:
		default:
			// Channel full, skip
		}
	}
}
