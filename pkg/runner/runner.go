// Package runner defines the invocation boundary between the engine and the
// external programs tasks wrap.
package runner

import "context"

// ActionRunner knows how to invoke an external program with a fixed argument
// list and observe its completion. A nil return means the action succeeded;
// any non-nil error is a failure with a human-readable reason (non-zero exit,
// launch failure, transport error). Implementations must not retry a started
// action.
type ActionRunner interface {
	Run(ctx context.Context, program string, args []string) error
}

// Func adapts a plain function to the ActionRunner interface.
type Func func(ctx context.Context, program string, args []string) error

func (f Func) Run(ctx context.Context, program string, args []string) error {
	return f(ctx, program, args)
}
