package runtime

import (
	"context"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/hearthcore/hearth/internal/errcode"
	"github.com/hearthcore/hearth/internal/privileged"
)

const installTimeout = 20 * time.Minute

// manualInstallCommand is the exact fallback command surfaced in nextSteps
// when no privileged-execution strategy can complete the install
// unattended, so the user can paste it into their own terminal.
const manualInstallCommand = "curl -fsSL https://ollama.com/install.sh | sudo sh"

// Phase is the install/start/repair progress event's lifecycle marker.
type Phase string

const (
	PhaseStart    Phase = "start"
	PhaseProgress Phase = "progress"
	PhaseDone     Phase = "done"
	PhaseError    Phase = "error"
)

// ProgressEvent is emitted to the caller-supplied progress callback during
// install, start, and repair.
type ProgressEvent struct {
	Phase     Phase
	Percent   *float64
	Message   string
	Timestamp time.Time
	ErrorCode errcode.Code
	NextSteps []string
}

var percentPattern = regexp.MustCompile(`(-?\d{1,3}(?:[.,]\d+)?)\s*%`)

// parsePercent extracts a progress percentage from a runner output line,
// normalizing a locale comma decimal separator and clamping to [0,100].
func parsePercent(line string) (float64, bool) {
	m := percentPattern.FindStringSubmatch(line)
	if m == nil {
		return 0, false
	}
	normalized := strings.Replace(m[1], ",", ".", 1)
	v, err := strconv.ParseFloat(normalized, 64)
	if err != nil {
		return 0, false
	}
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}
	return v, true
}

// Install builds the install plan for the current platform, selects a
// runner strategy, and streams progress events. approvedPrompt records that
// the caller already surfaced a consent prompt to the user; the plan itself
// carries no scope check, that happens earlier at the PermissionPolicy gate.
func (o *Orchestrator) Install(ctx context.Context, executor *privileged.Executor, strategy privileged.Strategy, plan privileged.Plan, approvedPrompt bool, onEvent func(ProgressEvent), now func() time.Time) ProgressEvent {
	if now == nil {
		now = time.Now
	}
	emit := func(e ProgressEvent) {
		if onEvent != nil {
			onEvent(e)
		}
	}

	emit(ProgressEvent{Phase: PhaseStart, Message: "starting runtime install", Timestamp: now()})

	if !approvedPrompt {
		errEvent := ProgressEvent{
			Phase:     PhaseError,
			Message:   "install requires an approved consent prompt",
			Timestamp: now(),
			ErrorCode: errcode.PrivilegeRequired,
			NextSteps: []string{"re-run install after confirming the consent prompt"},
		}
		emit(errEvent)
		return errEvent
	}

	onLine := func(line string) {
		if pct, ok := parsePercent(line); ok {
			p := pct
			emit(ProgressEvent{Phase: PhaseProgress, Percent: &p, Message: line, Timestamp: now()})
			return
		}
		emit(ProgressEvent{Phase: PhaseProgress, Message: line, Timestamp: now()})
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, installTimeout)
	defer cancel()

	res := executor.Execute(ctxTimeout, strategy, plan, onLine)
	if !res.Succeeded {
		errEvent := ProgressEvent{
			Phase:     PhaseError,
			Message:   res.Stderr,
			Timestamp: now(),
			ErrorCode: res.ErrorCode,
			NextSteps: nextStepsFor(res.ErrorCode),
		}
		emit(errEvent)
		return errEvent
	}

	done := float64(100)
	doneEvent := ProgressEvent{Phase: PhaseDone, Percent: &done, Message: "install complete", Timestamp: now()}
	emit(doneEvent)
	return doneEvent
}

func nextStepsFor(code errcode.Code) []string {
	switch code {
	case errcode.PrivilegeRequired, errcode.SudoPolicyDenied, errcode.SudoTTYRequired:
		return []string{"grant the requested privilege and retry, or install manually: " + manualInstallCommand}
	case errcode.MissingDependency:
		return []string{"install the missing dependency and retry"}
	case errcode.Timeout:
		return []string{"check network connectivity and retry"}
	default:
		return []string{"retry the operation"}
	}
}
