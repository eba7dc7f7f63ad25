package catalog

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forklab-edu/forklab/internal/core/interp"
	"github.com/forklab-edu/forklab/internal/core/tree"
	"github.com/forklab-edu/forklab/pkg/types"
)

func TestBuiltinsPresent(t *testing.T) {
	c := New()

	assert.NotEmpty(t, c.Scenarios())
	assert.NotEmpty(t, c.Challenges())

	sc, err := c.Scenario("zombie-lifecycle")
	require.NoError(t, err)
	assert.NotEmpty(t, sc.Steps)

	ch, err := c.Challenge("binary-depth-2")
	require.NoError(t, err)
	assert.Equal(t, types.StructurePerfectBinary, ch.Shape.Structure)

	_, err = c.Scenario("missing")
	assert.ErrorIs(t, err, ErrNotFound)
	_, err = c.Challenge("missing")
	assert.ErrorIs(t, err, ErrNotFound)
}

// Every built-in scenario must replay cleanly against a fresh tree.
func TestBuiltinScenariosReplay(t *testing.T) {
	for _, sc := range New().Scenarios() {
		sc := sc
		t.Run(sc.ID, func(t *testing.T) {
			tr := tree.New(tree.DefaultOptions())
			_, err := tr.CreateRoot()
			require.NoError(t, err)

			assert.NoError(t, interp.New(tr, sc.Steps).Run())
		})
	}
}

func TestLoadDirMergesAndOverrides(t *testing.T) {
	dir := t.TempDir()
	content := `
scenarios:
  - id: custom-forks
    title: Custom forks
    steps:
      - action: fork
        target_pid: 1
challenges:
  - id: one-child
    title: Overridden
    shape:
      root_children: 2
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "extra.yaml"), []byte(content), 0644))

	c := New()
	builtins := len(c.Scenarios())
	require.NoError(t, c.LoadDir(dir))

	sc, err := c.Scenario("custom-forks")
	require.NoError(t, err)
	assert.Len(t, sc.Steps, 1)
	assert.Equal(t, types.ActionFork, sc.Steps[0].Action)
	assert.Len(t, c.Scenarios(), builtins+1)

	// Same ID replaces the built-in entry without duplicating it
	ch, err := c.Challenge("one-child")
	require.NoError(t, err)
	assert.Equal(t, "Overridden", ch.Title)
	require.NotNil(t, ch.Shape.RootChildren)
	assert.Equal(t, 2, *ch.Shape.RootChildren)
}

func TestLoadDirRejectsMalformedFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.yaml"), []byte("scenarios: {"), 0644))

	err := New().LoadDir(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "bad.yaml")
}

func TestLoadDirRejectsUnknownAction(t *testing.T) {
	dir := t.TempDir()
	content := `
scenarios:
  - id: broken
    steps:
      - action: spawn
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "broken.yaml"), []byte(content), 0644))

	err := New().LoadDir(dir)
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "unknown action")
}

func TestLoadDirIgnoresNonYAMLFiles(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("not yaml"), 0644))

	c := New()
	before := len(c.Scenarios())
	require.NoError(t, c.LoadDir(dir))
	assert.Len(t, c.Scenarios(), before)
}
