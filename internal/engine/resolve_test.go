package engine_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andrej220/taskrun/internal/engine"
	"github.com/andrej220/taskrun/internal/registry"
)

// buildRegistry registers tasks given as name -> deps, with a trivial action
// on every task. Fails the test on registration errors.
func buildRegistry(t *testing.T, tasks []registry.Task) *registry.Registry {
	t.Helper()
	r := registry.New()
	for _, task := range tasks {
		require.NoError(t, r.Register(task))
	}
	r.Freeze()
	return r
}

func task(name string, deps ...string) registry.Task {
	return registry.Task{
		Name:   name,
		Action: &registry.Action{Program: "true"},
		Deps:   deps,
	}
}

func TestResolveLinearChain(t *testing.T) {
	reg := buildRegistry(t, []registry.Task{
		task("a"),
		task("b", "a"),
		task("c", "b"),
	})

	plan, err := engine.Resolve(reg, "c")
	require.NoError(t, err)
	assert.Equal(t, engine.Plan{"a", "b", "c"}, plan)
}

func TestResolveDiamond(t *testing.T) {
	// d depends on b and c, both depend on a; a must appear exactly once,
	// before b and c, with d last.
	reg := buildRegistry(t, []registry.Task{
		task("a"),
		task("b", "a"),
		task("c", "a"),
		task("d", "b", "c"),
	})

	plan, err := engine.Resolve(reg, "d")
	require.NoError(t, err)
	assert.Equal(t, engine.Plan{"a", "b", "c", "d"}, plan)
}

func TestResolveDependenciesInDeclaredOrder(t *testing.T) {
	reg := buildRegistry(t, []registry.Task{
		task("fmt_check"),
		task("check"),
		task("clippy"),
		task("test"),
		{Name: "full_check", Deps: []string{"fmt_check", "check", "clippy", "test"}},
	})

	plan, err := engine.Resolve(reg, "full_check")
	require.NoError(t, err)
	assert.Equal(t, engine.Plan{"fmt_check", "check", "clippy", "test", "full_check"}, plan)
}

func TestResolveDeterministic(t *testing.T) {
	reg := buildRegistry(t, []registry.Task{
		task("a"),
		task("b", "a"),
		task("c", "a"),
		task("d", "c", "b"),
	})

	first, err := engine.Resolve(reg, "d")
	require.NoError(t, err)
	second, err := engine.Resolve(reg, "d")
	require.NoError(t, err)
	assert.Equal(t, first, second)
}

func TestResolveCycle(t *testing.T) {
	reg := buildRegistry(t, []registry.Task{
		task("a", "b"),
		task("b", "c"),
		task("c", "a"),
	})

	_, err := engine.Resolve(reg, "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrCycle))

	var cycleErr *engine.CycleError
	require.True(t, errors.As(err, &cycleErr))
	assert.Equal(t, []string{"a", "b", "c", "a"}, cycleErr.Path)
}

func TestResolveSelfCycle(t *testing.T) {
	reg := buildRegistry(t, []registry.Task{task("a", "a")})

	_, err := engine.Resolve(reg, "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, engine.ErrCycle))
	assert.Contains(t, err.Error(), "a -> a")
}

func TestResolveUnknownRoot(t *testing.T) {
	reg := buildRegistry(t, []registry.Task{task("a")})

	_, err := engine.Resolve(reg, "missing")
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrUnknownTask))
	assert.Contains(t, err.Error(), "missing")
}

func TestResolveUnknownDependency(t *testing.T) {
	reg := buildRegistry(t, []registry.Task{task("a", "ghost")})

	_, err := engine.Resolve(reg, "a")
	require.Error(t, err)
	assert.True(t, errors.Is(err, registry.ErrUnknownTask))
	// error names both the missing task and the task referencing it
	assert.Contains(t, err.Error(), "ghost")
	assert.Contains(t, err.Error(), `"a"`)
}

func TestResolveIgnoresUnreachableTasks(t *testing.T) {
	// "audit" is defined but referenced by nothing; resolving another root
	// must neither include it nor complain about it.
	reg := buildRegistry(t, []registry.Task{
		task("audit"),
		task("check"),
		{Name: "full_check", Deps: []string{"check"}},
	})

	plan, err := engine.Resolve(reg, "full_check")
	require.NoError(t, err)
	assert.Equal(t, engine.Plan{"check", "full_check"}, plan)
	assert.NotContains(t, plan, "audit")
}

func TestResolveSharedSubtreeNotDuplicated(t *testing.T) {
	reg := buildRegistry(t, []registry.Task{
		task("base"),
		task("left", "base"),
		task("right", "base", "left"),
		task("top", "left", "right"),
	})

	plan, err := engine.Resolve(reg, "top")
	require.NoError(t, err)
	assert.Equal(t, engine.Plan{"base", "left", "right", "top"}, plan)

	seen := make(map[string]int)
	for _, name := range plan {
		seen[name]++
	}
	for name, count := range seen {
		assert.Equalf(t, 1, count, "task %q scheduled %d times", name, count)
	}
}
