// Package engine resolves a task's dependency closure into a linear plan and
// runs it sequentially with fail-fast semantics.
package engine

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/andrej220/taskrun/internal/lg"
	"github.com/andrej220/taskrun/internal/registry"
	"github.com/andrej220/taskrun/pkg/runner"
)

// Status is the terminal outcome of one planned task.
type Status string

const (
	StatusSucceeded Status = "succeeded"
	StatusFailed    Status = "failed"
	StatusSkipped   Status = "skipped"
)

// TaskResult is the outcome of a single planned task.
type TaskResult struct {
	Name    string        `json:"name"`
	Status  Status        `json:"status"`
	Reason  string        `json:"reason,omitempty"`
	Elapsed time.Duration `json:"elapsed_ns,omitempty"`
}

// RunResult summarizes one engine run: the plan in execution order with a
// terminal status per task, and the overall verdict. OK is false exactly when
// some task failed; everything planned after that task is Skipped.
type RunResult struct {
	RunID uuid.UUID    `json:"run_id"`
	Root  string       `json:"root"`
	Tasks []TaskResult `json:"tasks"`
	OK    bool         `json:"ok"`
}

// Attempted returns the names of tasks whose status is not Skipped, in plan
// order.
func (r *RunResult) Attempted() []string {
	out := make([]string, 0, len(r.Tasks))
	for _, t := range r.Tasks {
		if t.Status != StatusSkipped {
			out = append(out, t.Name)
		}
	}
	return out
}

// Engine executes plans against a frozen registry through an ActionRunner.
//
// One Engine value keeps no state between runs, but a single run is strictly
// sequential; callers must serialize concurrent Execute calls themselves.
type Engine struct {
	reg *registry.Registry
	run runner.ActionRunner
	lg  lg.Logger
}

func New(reg *registry.Registry, run runner.ActionRunner, logger lg.Logger) *Engine {
	if logger == nil {
		logger = lg.Discard
	}
	return &Engine{reg: reg, run: run, lg: logger}
}

// Resolve computes the plan for root without running anything.
func (e *Engine) Resolve(root string) (Plan, error) {
	return Resolve(e.reg, root)
}

// Execute resolves root and runs the plan in order.
//
// Resolution errors (unknown task, cycle) are returned before any action has
// run. A failing action is not an error return: the run stops, the remaining
// planned tasks are marked Skipped, and the failure is reported through the
// RunResult. Actions already completed keep their side effects.
func (e *Engine) Execute(ctx context.Context, root string) (*RunResult, error) {
	plan, err := Resolve(e.reg, root)
	if err != nil {
		return nil, err
	}

	res := &RunResult{
		RunID: uuid.New(),
		Root:  root,
		Tasks: make([]TaskResult, 0, len(plan)),
		OK:    true,
	}
	logger := e.lg.With(lg.String("run_id", res.RunID.String()), lg.String("root", root))
	logger.Info("run started", lg.Strings("plan", plan))

	for i, name := range plan {
		task, err := e.reg.Lookup(name)
		if err != nil {
			// cannot happen for a resolved plan against a frozen registry
			return nil, err
		}

		start := time.Now()
		runErr := e.runAction(ctx, task)
		elapsed := time.Since(start)

		if runErr != nil {
			logger.Warn("task failed",
				lg.String("task", name),
				lg.Err(runErr),
				lg.Duration("elapsed", elapsed))
			res.Tasks = append(res.Tasks, TaskResult{
				Name:    name,
				Status:  StatusFailed,
				Reason:  runErr.Error(),
				Elapsed: elapsed,
			})
			for _, rest := range plan[i+1:] {
				res.Tasks = append(res.Tasks, TaskResult{Name: rest, Status: StatusSkipped})
			}
			res.OK = false
			logger.Warn("run aborted", lg.String("failed_task", name), lg.Int("skipped", len(plan)-i-1))
			return res, nil
		}

		logger.Debug("task succeeded", lg.String("task", name), lg.Duration("elapsed", elapsed))
		res.Tasks = append(res.Tasks, TaskResult{Name: name, Status: StatusSucceeded, Elapsed: elapsed})
	}

	logger.Info("run finished", lg.Int("tasks", len(res.Tasks)))
	return res, nil
}

func (e *Engine) runAction(ctx context.Context, task registry.Task) error {
	if task.Action == nil {
		// aggregate task, nothing to invoke
		return nil
	}
	return e.run.Run(ctx, task.Action.Program, task.Action.Args)
}
