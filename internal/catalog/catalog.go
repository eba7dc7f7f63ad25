// Package catalog holds the scenario and challenge content the engine
// replays and validates against. A built-in set ships with the binary;
// a directory of YAML files can add or override entries.
package catalog

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"gopkg.in/yaml.v3"

	"github.com/forklab-edu/forklab/pkg/types"
)

// ErrNotFound is returned for an unknown scenario or challenge ID.
var ErrNotFound = errors.New("catalog: not found")

// Catalog is the registry of scenarios and challenges.
type Catalog struct {
	mu             sync.RWMutex
	scenarios      map[string]*types.Scenario
	challenges     map[string]*types.Challenge
	scenarioOrder  []string
	challengeOrder []string
}

// New returns a catalog preloaded with the built-in content.
func New() *Catalog {
	c := &Catalog{
		scenarios:  make(map[string]*types.Scenario),
		challenges: make(map[string]*types.Challenge),
	}
	for _, sc := range builtinScenarios() {
		c.putScenario(sc)
	}
	for _, ch := range builtinChallenges() {
		c.putChallenge(ch)
	}
	return c
}

// catalogFile is the on-disk YAML document shape.
type catalogFile struct {
	Scenarios  []*types.Scenario  `yaml:"scenarios"`
	Challenges []*types.Challenge `yaml:"challenges"`
}

// LoadDir merges every .yaml/.yml file in dir into the catalog. Entries with
// an existing ID override the built-ins. A malformed file aborts the load
// with an error naming it; nothing is skipped silently.
func (c *Catalog) LoadDir(dir string) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return fmt.Errorf("failed to read catalog dir: %w", err)
	}

	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		ext := strings.ToLower(filepath.Ext(entry.Name()))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, entry.Name())
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("failed to read catalog file %s: %w", path, err)
		}

		var file catalogFile
		if err := yaml.Unmarshal(data, &file); err != nil {
			return fmt.Errorf("failed to parse catalog file %s: %w", path, err)
		}

		for _, sc := range file.Scenarios {
			if err := validateScenario(sc); err != nil {
				return fmt.Errorf("invalid scenario in %s: %w", path, err)
			}
			c.putScenario(sc)
		}
		for _, ch := range file.Challenges {
			if err := validateChallenge(ch); err != nil {
				return fmt.Errorf("invalid challenge in %s: %w", path, err)
			}
			c.putChallenge(ch)
		}
	}

	return nil
}

// Scenarios returns all scenarios in registration order.
func (c *Catalog) Scenarios() []*types.Scenario {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*types.Scenario, 0, len(c.scenarioOrder))
	for _, id := range c.scenarioOrder {
		out = append(out, c.scenarios[id])
	}
	return out
}

// Scenario returns the scenario with the given ID.
func (c *Catalog) Scenario(id string) (*types.Scenario, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	sc, ok := c.scenarios[id]
	if !ok {
		return nil, fmt.Errorf("%w: scenario %s", ErrNotFound, id)
	}
	return sc, nil
}

// Challenges returns all challenges in registration order.
func (c *Catalog) Challenges() []*types.Challenge {
	c.mu.RLock()
	defer c.mu.RUnlock()

	out := make([]*types.Challenge, 0, len(c.challengeOrder))
	for _, id := range c.challengeOrder {
		out = append(out, c.challenges[id])
	}
	return out
}

// Challenge returns the challenge with the given ID.
func (c *Catalog) Challenge(id string) (*types.Challenge, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	ch, ok := c.challenges[id]
	if !ok {
		return nil, fmt.Errorf("%w: challenge %s", ErrNotFound, id)
	}
	return ch, nil
}

// Internal methods

func (c *Catalog) putScenario(sc *types.Scenario) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.scenarios[sc.ID]; !exists {
		c.scenarioOrder = append(c.scenarioOrder, sc.ID)
	}
	c.scenarios[sc.ID] = sc
}

func (c *Catalog) putChallenge(ch *types.Challenge) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, exists := c.challenges[ch.ID]; !exists {
		c.challengeOrder = append(c.challengeOrder, ch.ID)
	}
	c.challenges[ch.ID] = ch
}

func validateScenario(sc *types.Scenario) error {
	if sc.ID == "" {
		return errors.New("scenario id is required")
	}
	if len(sc.Steps) == 0 {
		return fmt.Errorf("scenario %s has no steps", sc.ID)
	}
	for i, step := range sc.Steps {
		switch step.Action {
		case types.ActionFork, types.ActionWait, types.ActionExit, types.ActionOrphan, types.ActionExplain:
		default:
			return fmt.Errorf("scenario %s step %d has unknown action %q", sc.ID, i, step.Action)
		}
	}
	return nil
}

func validateChallenge(ch *types.Challenge) error {
	if ch.ID == "" {
		return errors.New("challenge id is required")
	}
	switch ch.Shape.Structure {
	case types.StructureNone, types.StructurePerfectBinary, types.StructureLinearChain:
	default:
		return fmt.Errorf("challenge %s has unknown structure %q", ch.ID, ch.Shape.Structure)
	}
	return nil
}
