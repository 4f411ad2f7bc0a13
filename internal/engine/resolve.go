package engine

import (
	"fmt"

	"github.com/andrej220/taskrun/internal/registry"
)

// Plan is the ordered, deduplicated sequence of task names produced by
// dependency resolution. Every task appears exactly once, after all of its
// own dependencies; the requested root is last.
type Plan []string

// Resolve computes the execution plan for root against reg.
//
// Resolution is depth-first in declared dependency order, so the plan is
// deterministic: the same registry and root always yield the same plan. A
// task reachable through several paths is placed at its first resolution and
// suppressed afterwards. A dependency name absent from the registry fails
// with registry.ErrUnknownTask naming the referencing task; a cycle reachable
// from root fails with a CycleError naming the cycle.
func Resolve(reg *registry.Registry, root string) (Plan, error) {
	r := resolver{
		reg:        reg,
		visited:    make(map[string]bool),
		inProgress: make(map[string]bool),
	}
	if err := r.visit(root, ""); err != nil {
		return nil, err
	}
	return r.plan, nil
}

type resolver struct {
	reg        *registry.Registry
	visited    map[string]bool
	inProgress map[string]bool
	stack      []string
	plan       Plan
}

func (r *resolver) visit(name, requiredBy string) error {
	if r.visited[name] {
		return nil
	}
	if r.inProgress[name] {
		return &CycleError{Path: r.cyclePath(name)}
	}

	task, err := r.reg.Lookup(name)
	if err != nil {
		if requiredBy != "" {
			return fmt.Errorf("resolving dependencies of %q: %w", requiredBy, err)
		}
		return err
	}

	r.inProgress[name] = true
	r.stack = append(r.stack, name)

	for _, dep := range task.Deps {
		if err := r.visit(dep, name); err != nil {
			return err
		}
	}

	r.stack = r.stack[:len(r.stack)-1]
	delete(r.inProgress, name)
	r.visited[name] = true
	r.plan = append(r.plan, name)
	return nil
}

// cyclePath slices the resolution stack from the first occurrence of name
// and closes the loop by repeating it.
func (r *resolver) cyclePath(name string) []string {
	for i, n := range r.stack {
		if n == name {
			path := make([]string, 0, len(r.stack)-i+1)
			path = append(path, r.stack[i:]...)
			return append(path, name)
		}
	}
	return []string{name, name}
}
