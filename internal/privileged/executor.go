package privileged

import (
	"context"
	"strings"
	"time"

	"github.com/hearthcore/hearth/internal/errcode"
	"github.com/hearthcore/hearth/internal/procexec"
)

const actionTimeout = 10 * time.Minute

const defaultShell = "/bin/sh"

// Action is one step of a privileged plan: either a named action the
// installed helper understands, or a raw shell command run under pkexec or
// sudo when no helper is available.
type Action struct {
	HelperAction string
	ShellCommand string
}

// Plan is an ordered sequence of privileged actions executed with
// first-failure short-circuit.
type Plan []Action

// Result is the aggregated outcome of running a Plan.
type Result struct {
	Succeeded    bool
	Stdout       string
	Stderr       string
	ErrorCode    errcode.Code
	FailedAction int
}

// Executor runs a Plan under a chosen Strategy via a CommandRunner.
type Executor struct {
	runner     *procexec.Runner
	helperPath string
}

// NewExecutor builds an Executor. A nil runner falls back to a
// production-default procexec.Runner.
func NewExecutor(runner *procexec.Runner, helperPath string) *Executor {
	if runner == nil {
		runner = procexec.NewRunner(nil, nil)
	}
	return &Executor{runner: runner, helperPath: helperPath}
}

// Execute runs plan under strategy, aggregating stdout/stderr fragments
// across actions and stopping at the first failed action. onLine, if
// non-nil, receives every sanitized output line across the whole plan in
// the order produced.
func (e *Executor) Execute(ctx context.Context, strategy Strategy, plan Plan, onLine func(string)) Result {
	if strategy == StrategyFailure {
		return Result{Succeeded: false, ErrorCode: errcode.PrivilegeRequired, FailedAction: -1}
	}

	var stdoutParts, stderrParts []string

	for i, action := range plan {
		name, args := e.commandFor(strategy, action)
		res, err := e.runner.Run(ctx, name, args, nil, actionTimeout, onLine)
		if err != nil {
			return Result{
				Succeeded:    false,
				Stdout:       strings.Join(stdoutParts, "\n"),
				Stderr:       strings.Join(stderrParts, "\n"),
				ErrorCode:    errcode.ShellSpawnError,
				FailedAction: i,
			}
		}

		stdoutParts = append(stdoutParts, res.Stdout)
		stderrParts = append(stderrParts, res.Stderr)

		failed := res.TimedOut || res.ExitCode == nil || *res.ExitCode != 0
		if failed {
			return Result{
				Succeeded:    false,
				Stdout:       strings.Join(stdoutParts, "\n"),
				Stderr:       strings.Join(stderrParts, "\n"),
				ErrorCode:    Classify(res),
				FailedAction: i,
			}
		}
	}

	return Result{
		Succeeded:    true,
		Stdout:       strings.Join(stdoutParts, "\n"),
		Stderr:       strings.Join(stderrParts, "\n"),
		FailedAction: -1,
	}
}

func (e *Executor) commandFor(strategy Strategy, action Action) (string, []string) {
	switch strategy {
	case StrategyPkexecHelper:
		return "pkexec", []string{e.helperPath, action.HelperAction}
	case StrategyPkexec:
		return "pkexec", []string{defaultShell, "-c", action.ShellCommand}
	case StrategySudoNonInteractive:
		return "sudo", []string{"-n", defaultShell, "-c", action.ShellCommand}
	default:
		return defaultShell, []string{"-c", action.ShellCommand}
	}
}
