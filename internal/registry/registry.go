// Package registry holds the immutable table of task definitions.
//
// A Registry is populated once during the load phase and frozen before any
// execution starts. After Freeze it is safe for concurrent readers.
package registry

import (
	"errors"
	"fmt"
)

var (
	ErrDuplicateTask = errors.New("duplicate task")
	ErrUnknownTask   = errors.New("unknown task")
	ErrFrozen        = errors.New("registry is frozen")
)

// Error wraps registry failures with the offending task name.
type Error struct {
	Kind error
	Name string
}

func (e *Error) Error() string {
	return fmt.Sprintf("%s: %q", e.Kind.Error(), e.Name)
}

func (e *Error) Unwrap() error { return e.Kind }

// Action is an external program invocation with a fixed argument list.
type Action struct {
	Program string   `validate:"required"`
	Args    []string
}

// Task is a named unit of work: an optional action plus the names of the
// tasks that must run, and succeed, before it.
//
// A nil Action marks an aggregate task that exists purely to group its
// dependencies.
type Task struct {
	Name   string   `validate:"required,taskname"`
	Action *Action  `validate:"omitempty"`
	Deps   []string `validate:"dive,required,taskname"`
}

// Registry maps task names to definitions.
type Registry struct {
	tasks  map[string]Task
	names  []string // registration order
	frozen bool
}

func New() *Registry {
	return &Registry{tasks: make(map[string]Task)}
}

// Register inserts a task definition. The first registration of a name wins;
// a second one fails with ErrDuplicateTask and does not overwrite it.
func (r *Registry) Register(t Task) error {
	if r.frozen {
		return &Error{Kind: ErrFrozen, Name: t.Name}
	}
	if err := validateTask(&t); err != nil {
		return fmt.Errorf("invalid task %q: %w", t.Name, err)
	}
	if _, exists := r.tasks[t.Name]; exists {
		return &Error{Kind: ErrDuplicateTask, Name: t.Name}
	}
	r.tasks[t.Name] = t
	r.names = append(r.names, t.Name)
	return nil
}

// Freeze ends the load phase. Further Register calls fail.
func (r *Registry) Freeze() { r.frozen = true }

// Lookup returns the task definition for name.
func (r *Registry) Lookup(name string) (Task, error) {
	t, ok := r.tasks[name]
	if !ok {
		return Task{}, &Error{Kind: ErrUnknownTask, Name: name}
	}
	return t, nil
}

// Names returns the registered task names in registration order.
func (r *Registry) Names() []string {
	out := make([]string, len(r.names))
	copy(out, r.names)
	return out
}

// Len returns the number of registered tasks.
func (r *Registry) Len() int { return len(r.tasks) }
