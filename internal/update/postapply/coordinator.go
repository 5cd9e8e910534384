package postapply

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/hearthcore/hearth/internal/audit"
	"github.com/hearthcore/hearth/internal/clock"
	"github.com/hearthcore/hearth/internal/procexec"
)

const (
	defaultBootHealthyGraceMs = 15000
	minBootHealthyGraceMs     = 1000
)

// Config tunes the boot-healthy handshake and automatic rollback behavior.
type Config struct {
	BootHealthyHandshakeRequired bool
	BootHealthyGraceMs           int
	BootHealthyStabilityMs       int
	AutoDebRollbackOnBootFailure bool
	UpdatesDownloadsDir          string
}

func (c Config) graceDuration() time.Duration {
	ms := c.BootHealthyGraceMs
	if ms <= 0 {
		ms = defaultBootHealthyGraceMs
	}
	if ms < minBootHealthyGraceMs {
		ms = minBootHealthyGraceMs
	}
	return time.Duration(ms) * time.Millisecond
}

func (c Config) stabilityDuration() time.Duration {
	if c.BootHealthyStabilityMs <= 0 {
		return 0
	}
	return time.Duration(c.BootHealthyStabilityMs) * time.Millisecond
}

// Status is the outcome of starting or concluding validation.
type Status string

const (
	StatusValidated         Status = "validated"
	StatusAwaitingHandshake Status = "awaiting-handshake"
	StatusStabilizing       Status = "stabilizing"
	StatusNotApplied        Status = "not-applied"
	StatusUnexpectedVersion Status = "unexpected-version"
	StatusBootFailed        Status = "boot-failed"
)

// Coordinator drives post-apply validation for one attempt at a time.
type Coordinator struct {
	attemptPath string
	log         *audit.Log
	scheduler   clock.Scheduler
	spawn       procexec.Spawn
	cfg         Config

	mu              sync.Mutex
	armed           *Attempt
	healthyOnce     sync.Once
	healthyCh       chan string
	failedOnce      sync.Once
	stabilityFailed chan struct{}
}

// New constructs a Coordinator. A nil scheduler falls back to clock.Real{}
// and a nil spawn falls back to procexec.DefaultSpawn.
func New(attemptPath string, log *audit.Log, scheduler clock.Scheduler, spawn procexec.Spawn, cfg Config) *Coordinator {
	if scheduler == nil {
		scheduler = clock.Real{}
	}
	if spawn == nil {
		spawn = procexec.DefaultSpawn
	}
	return &Coordinator{attemptPath: attemptPath, log: log, scheduler: scheduler, spawn: spawn, cfg: cfg}
}

// RecordAttempt persists a before the host relaunches into the target
// version.
func (c *Coordinator) RecordAttempt(a Attempt) error {
	return SaveAttempt(c.attemptPath, &a)
}

func (c *Coordinator) logEvent(code string, meta map[string]interface{}) {
	if c.log == nil {
		return
	}
	_ = c.log.Append(audit.Event{Level: audit.LevelWarn, Code: code, Family: audit.FamilyApply, Meta: meta})
}

// StartValidation inspects the pending attempt (if any) against the running
// version and decides the next step. For a target-version match requiring
// the boot-healthy handshake, it arms a grace timer and returns
// StatusAwaitingHandshake; MarkBootHealthy and ReportBootFailure act on that
// armed attempt until it resolves.
func (c *Coordinator) StartValidation(runningVersion string) (Status, error) {
	attempt, err := LoadAttempt(c.attemptPath)
	if err != nil {
		return "", err
	}
	if attempt == nil {
		return StatusValidated, nil
	}

	if runningVersion == attempt.TargetVersion {
		if !c.cfg.BootHealthyHandshakeRequired {
			_ = ClearAttempt(c.attemptPath)
			return StatusValidated, nil
		}
		c.arm(attempt, runningVersion)
		return StatusAwaitingHandshake, nil
	}

	if runningVersion == attempt.PreviousVersion {
		c.logEvent("validation_not_applied", map[string]interface{}{
			"previousVersion": attempt.PreviousVersion,
			"targetVersion":   attempt.TargetVersion,
		})
		_ = ClearAttempt(c.attemptPath)
		return StatusNotApplied, nil
	}

	c.logEvent("validation_unexpected_version", map[string]interface{}{
		"runningVersion": runningVersion,
		"targetVersion":  attempt.TargetVersion,
	})
	_ = ClearAttempt(c.attemptPath)
	return StatusUnexpectedVersion, nil
}

func (c *Coordinator) arm(attempt *Attempt, runningVersion string) {
	c.mu.Lock()
	c.armed = attempt
	c.healthyCh = make(chan string, 1)
	c.healthyOnce = sync.Once{}
	c.failedOnce = sync.Once{}
	c.stabilityFailed = nil
	c.mu.Unlock()

	go func() {
		select {
		case source := <-c.healthyCh:
			c.onHealthy(attempt, runningVersion, source)
		case <-c.scheduler.After(c.cfg.graceDuration()):
			c.onBootFailure(attempt, runningVersion, "grace timer expired", true)
		}
	}()
}

func (c *Coordinator) onHealthy(attempt *Attempt, runningVersion, source string) {
	stability := c.cfg.stabilityDuration()
	if stability <= 0 {
		c.resolve(attempt)
		return
	}

	done := make(chan struct{})
	c.mu.Lock()
	c.stabilityFailed = done
	c.mu.Unlock()

	select {
	case <-c.scheduler.After(stability):
		c.resolve(attempt)
	case <-done:
	}
}

// MarkBootHealthy records the boot-healthy handshake from source, canceling
// the grace timer for the currently armed attempt.
func (c *Coordinator) MarkBootHealthy(source string) {
	c.mu.Lock()
	ch := c.healthyCh
	c.mu.Unlock()
	if ch == nil {
		return
	}
	c.healthyOnce.Do(func() { ch <- source })
}

// ReportBootFailure is the caller's explicit signal that the boot failed
// (a crash or error reason), during either the grace window or, if
// configured, the stability window.
func (c *Coordinator) ReportBootFailure(runningVersion, reason string) {
	c.mu.Lock()
	attempt := c.armed
	stabilityFailed := c.stabilityFailed
	c.mu.Unlock()
	if attempt == nil {
		return
	}
	if stabilityFailed != nil {
		select {
		case <-stabilityFailed:
		default:
			close(stabilityFailed)
		}
	}
	c.onBootFailure(attempt, runningVersion, reason, false)
}

func (c *Coordinator) resolve(attempt *Attempt) {
	c.mu.Lock()
	_ = ClearAttempt(c.attemptPath)
	c.armed = nil
	c.mu.Unlock()
	c.logEvent("validation_stable", map[string]interface{}{"targetVersion": attempt.TargetVersion})
}

// onBootFailure handles both an explicit ReportBootFailure call and a grace
// timer expiring with no handshake (timedOut); the latter logs
// validation_health_timeout before the shared validation_boot_failed event.
func (c *Coordinator) onBootFailure(attempt *Attempt, runningVersion, reason string, timedOut bool) {
	c.failedOnce.Do(func() {
		if timedOut {
			c.logEvent("validation_health_timeout", map[string]interface{}{
				"targetVersion": attempt.TargetVersion,
			})
		}
		c.logEvent("validation_boot_failed", map[string]interface{}{
			"reason":        reason,
			"targetVersion": attempt.TargetVersion,
		})

		if c.shouldAutoRollback(attempt, runningVersion) {
			if err := c.spawnRollback(attempt.RollbackDebPath); err == nil {
				c.mu.Lock()
				_ = ClearAttempt(c.attemptPath)
				c.armed = nil
				c.mu.Unlock()
				c.logEvent("rollback.deb_scheduled", map[string]interface{}{"path": attempt.RollbackDebPath})
			}
		}
	})
}

func (c *Coordinator) shouldAutoRollback(attempt *Attempt, runningVersion string) bool {
	if !c.cfg.AutoDebRollbackOnBootFailure {
		return false
	}
	if attempt.Mode != ModeDeb {
		return false
	}
	if runningVersion != attempt.TargetVersion {
		return false
	}
	if attempt.RollbackDebPath == "" || !strings.HasSuffix(attempt.RollbackDebPath, ".deb") {
		return false
	}
	if !strings.HasPrefix(attempt.RollbackDebPath, c.cfg.UpdatesDownloadsDir) {
		return false
	}
	return true
}

// spawnRollback launches a detached, graphically-prompted package install of
// the rollback artifact, observing only whether the spawn itself succeeded.
func (c *Coordinator) spawnRollback(debPath string) error {
	proc, err := c.spawn(context.Background(), "pkexec", []string{"apt-get", "install", "-y", debPath}, nil)
	if err != nil {
		return err
	}
	if err := proc.Start(); err != nil {
		return err
	}
	go func() { _ = proc.Wait() }()
	return nil
}
