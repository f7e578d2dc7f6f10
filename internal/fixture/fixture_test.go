package fixture

import (
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/AndreyAkinshin/stochval/internal/formula"
	"github.com/AndreyAkinshin/stochval/internal/tests"
)

func normalSpec(name string) *tests.TestSpec {
	return &tests.TestSpec{
		Name:         name,
		Distribution: "normal",
		Params:       map[string]float64{"mean": 100, "sd": 15},
		Seed:         7,
		Iterations:   5000,
	}
}

func TestRender_Document(t *testing.T) {
	t.Parallel()

	f, err := formula.Build("normal", map[string]float64{"mean": 100, "sd": 15})
	require.NoError(t, err)

	data, err := Render(normalSpec("n"), f)
	require.NoError(t, err)

	var doc map[string]any
	require.NoError(t, yaml.Unmarshal(data, &doc))

	assert.Equal(t, "5.0.0", doc["_forge_version"])

	mc := doc["monte_carlo"].(map[string]any)
	assert.Equal(t, true, mc["enabled"])
	assert.Equal(t, 5000, mc["iterations"])
	assert.Equal(t, "monte_carlo", mc["sampling"])
	assert.Equal(t, 7, mc["seed"])

	outputs := mc["outputs"].([]any)
	require.Len(t, outputs, 1)
	out := outputs[0].(map[string]any)
	assert.Equal(t, "test_output", out["variable"])
	assert.Equal(t, []any{5, 10, 25, 50, 75, 90, 95}, out["percentiles"])

	scalar := doc["scalars"].(map[string]any)["test_output"].(map[string]any)
	assert.Nil(t, scalar["value"])
	assert.Equal(t, "=MC.Normal(100, 15)", scalar["formula"])
}

func TestRender_NullValueIsExplicit(t *testing.T) {
	t.Parallel()

	data, err := Render(normalSpec("n"), formula.Formula{Function: "MC.Uniform", Args: []float64{0, 1}})
	require.NoError(t, err)
	assert.Contains(t, string(data), "value: null")
}

func TestWorkspace_PrepareAndCleanup(t *testing.T) {
	t.Parallel()

	ws := NewWorkspace(t.TempDir(), false)
	f := formula.Formula{Function: "MC.Normal", Args: []float64{0, 1}}

	fx, err := ws.Prepare(normalSpec("normal/basic case"), f)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(fx.Dir, ws.Root))
	assert.NotContains(t, filepath.Base(fx.Dir), "/")
	assert.FileExists(t, fx.Path)
	assert.Equal(t, filepath.Join(fx.Dir, "results.json"), fx.OutputPath)
	assert.Equal(t, uint64(7), fx.Seed)

	require.NoError(t, ws.Cleanup(fx))
	assert.NoDirExists(t, fx.Dir)

	require.NoError(t, ws.Close())
	assert.NoDirExists(t, ws.Root)
}

func TestWorkspace_KeepLeavesFiles(t *testing.T) {
	t.Parallel()

	ws := NewWorkspace(t.TempDir(), true)
	fx, err := ws.Prepare(normalSpec("kept"), formula.Formula{Function: "MC.Normal", Args: []float64{0, 1}})
	require.NoError(t, err)

	require.NoError(t, ws.Cleanup(fx))
	require.NoError(t, ws.Close())
	assert.FileExists(t, fx.Path)
}

func TestWorkspace_ConcurrentCasesDoNotCollide(t *testing.T) {
	t.Parallel()

	ws := NewWorkspace(t.TempDir(), false)
	t.Cleanup(func() { _ = ws.Close() })
	f := formula.Formula{Function: "MC.Normal", Args: []float64{0, 1}}

	const n = 16
	dirs := make([]string, n)
	var wg sync.WaitGroup
	for i := range n {
		wg.Add(1)
		go func() {
			defer wg.Done()
			fx, err := ws.Prepare(normalSpec("same-name"), f)
			if err == nil {
				dirs[i] = fx.Dir
			}
		}()
	}
	wg.Wait()

	seen := make(map[string]bool)
	for _, d := range dirs {
		require.NotEmpty(t, d)
		assert.False(t, seen[d], "directory %s reused", d)
		seen[d] = true
	}
}

func TestNewWorkspace_UniqueRunIDs(t *testing.T) {
	t.Parallel()

	a := NewWorkspace("", false)
	b := NewWorkspace("", false)
	assert.NotEqual(t, a.RunID, b.RunID)
	assert.True(t, strings.HasPrefix(a.Root, os.TempDir()))
}
