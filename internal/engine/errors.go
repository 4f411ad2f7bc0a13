package engine

import (
	"errors"
	"fmt"
	"strings"
)

var ErrCycle = errors.New("cyclic dependency")

// CycleError reports a dependency cycle found during resolution.
// Path holds the task names along the cycle, starting and ending with the
// task that was revisited.
type CycleError struct {
	Path []string
}

func (e *CycleError) Error() string {
	return fmt.Sprintf("%s: %s", ErrCycle.Error(), strings.Join(e.Path, " -> "))
}

func (e *CycleError) Unwrap() error { return ErrCycle }
