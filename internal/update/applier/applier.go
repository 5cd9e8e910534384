// Package applier implements the UpdateApplier: the concrete strategies for
// putting a staged artifact into effect, chosen by the artifact's file
// extension.
package applier

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/hearthcore/hearth/internal/clock"
	"github.com/hearthcore/hearth/internal/errcode"
	"github.com/hearthcore/hearth/internal/procexec"
)

// relaunchDelay is how long the AppImage applier waits, after making the
// staged file executable, before spawning the detached relaunch.
const relaunchDelay = 120 * time.Millisecond

// Outcome reports what an Applier did.
type Outcome struct {
	Succeeded bool
	Message   string
	// Exit is true when the caller should now terminate the current
	// process: the new version is already launching (or has been handed
	// off to the user) and nothing more runs in this one.
	Exit      bool
	ErrorCode errcode.Code
}

// Applier puts a staged artifact into effect.
type Applier interface {
	Apply(ctx context.Context, artifactPath string) Outcome
}

// Select picks the Applier matching artifactPath's extension.
func Select(artifactPath string, spawn procexec.Spawn, envBuilder procexec.EnvBuilder, runner *procexec.Runner, scheduler clock.Scheduler, relaunch RelaunchFunc) Applier {
	switch strings.ToLower(filepath.Ext(artifactPath)) {
	case ".appimage":
		return &AppImageApplier{spawn: spawn, envBuilder: envBuilder, scheduler: scheduler}
	case ".deb":
		return &DebApplier{runner: runner}
	default:
		return &RelaunchApplier{relaunch: relaunch}
	}
}

// AppImageApplier sets the staged file executable, schedules a detached
// relaunch of it after relaunchDelay, and signals the caller to exit once the
// spawn is observed to have succeeded. It spawns directly rather than via
// Runner because the new process must outlive this one: Runner.Run always
// waits for its child to exit.
type AppImageApplier struct {
	spawn      procexec.Spawn
	envBuilder procexec.EnvBuilder
	scheduler  clock.Scheduler
}

func (a *AppImageApplier) Apply(ctx context.Context, artifactPath string) Outcome {
	if err := os.Chmod(artifactPath, 0o755); err != nil { // #nosec G302 - the artifact must be user-executable to relaunch
		return Outcome{ErrorCode: errcode.RestartFailed, Message: err.Error()}
	}

	scheduler := a.scheduler
	if scheduler == nil {
		scheduler = clock.Real{}
	}
	<-scheduler.After(relaunchDelay)

	spawn := a.spawn
	if spawn == nil {
		spawn = procexec.DefaultSpawn
	}
	envBuilder := a.envBuilder
	if envBuilder == nil {
		envBuilder = procexec.DefaultEnvBuilder
	}

	proc, err := spawn(context.Background(), artifactPath, nil, envBuilder(nil))
	if err != nil {
		return Outcome{ErrorCode: errcode.RestartFailed, Message: err.Error()}
	}
	if err := proc.Start(); err != nil {
		return Outcome{ErrorCode: errcode.RestartFailed, Message: err.Error()}
	}
	go func() { _ = proc.Wait() }()

	return Outcome{Succeeded: true, Exit: true, Message: "relaunching into " + artifactPath}
}

// DebApplier opens the platform install UI for the staged package and hands
// control back to the user: it never exits the current process, since the
// install happens in a separate application.
type DebApplier struct {
	runner *procexec.Runner
}

func (d *DebApplier) Apply(ctx context.Context, artifactPath string) Outcome {
	res, err := d.runner.Run(ctx, "xdg-open", []string{artifactPath}, nil, 5*time.Second, nil)
	if err != nil || res.ExitCode == nil || *res.ExitCode != 0 {
		return Outcome{ErrorCode: errcode.RestartFailed, Message: "could not open install UI for " + artifactPath}
	}
	return Outcome{Succeeded: true, Message: "install UI opened; complete the installation to finish updating"}
}

// RelaunchFunc asks the host application to relaunch itself in place.
type RelaunchFunc func() error

// RelaunchApplier is the default applier: it asks the host to relaunch
// itself rather than manipulating any staged file directly.
type RelaunchApplier struct {
	relaunch RelaunchFunc
}

func (r *RelaunchApplier) Apply(ctx context.Context, artifactPath string) Outcome {
	if r.relaunch == nil {
		return Outcome{ErrorCode: errcode.RestartUnavailable, Message: "no relaunch mechanism configured"}
	}
	if err := r.relaunch(); err != nil {
		return Outcome{ErrorCode: errcode.RestartFailed, Message: err.Error()}
	}
	return Outcome{Succeeded: true, Exit: true, Message: "relaunch requested"}
}
