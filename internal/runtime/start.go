package runtime

import (
	"context"
	"time"

	"github.com/hearthcore/hearth/internal/config"
	"github.com/hearthcore/hearth/internal/errcode"
	"github.com/hearthcore/hearth/internal/privileged"
)

const serviceControlTimeout = 90 * time.Second

// Start short-circuits if the endpoint is already reachable, refuses (with a
// note, not an error) for a remote endpoint, and otherwise tries helper then
// sudo-noninteractive then a direct spawn via the supplied plan chain.
func (o *Orchestrator) Start(ctx context.Context, executor *privileged.Executor, endpoint string, plans map[privileged.Strategy]privileged.Plan, strategies []privileged.Strategy, now func() time.Time) ProgressEvent {
	if now == nil {
		now = time.Now
	}

	if o.checkReachable(ctx, endpoint) {
		pct := float64(100)
		return ProgressEvent{Phase: PhaseDone, Percent: &pct, Message: "runtime already reachable", Timestamp: now()}
	}

	if config.ClassifyEndpoint(endpoint) == config.EndpointRemote {
		return ProgressEvent{Phase: PhaseDone, Message: "endpoint is remote; start is a local-only operation", Timestamp: now()}
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, serviceControlTimeout)
	defer cancel()

	var last ProgressEvent
	for _, strategy := range strategies {
		plan, ok := plans[strategy]
		if !ok {
			continue
		}
		res := executor.Execute(ctxTimeout, strategy, plan, nil)
		if res.Succeeded {
			pct := float64(100)
			return ProgressEvent{Phase: PhaseDone, Percent: &pct, Message: "runtime started", Timestamp: now()}
		}
		last = ProgressEvent{
			Phase:     PhaseError,
			Message:   res.Stderr,
			Timestamp: now(),
			ErrorCode: res.ErrorCode,
			NextSteps: nextStepsFor(res.ErrorCode),
		}
	}

	if last.ErrorCode == "" {
		last = ProgressEvent{Phase: PhaseError, Message: "no start strategy available", Timestamp: now(), ErrorCode: errcode.PrivilegeRequired}
	}
	return last
}

// Repair attempts a service restart via the same strategy chain as Start,
// falling through to Start when no restart path is available.
func (o *Orchestrator) Repair(ctx context.Context, executor *privileged.Executor, endpoint string, restartPlans map[privileged.Strategy]privileged.Plan, startPlans map[privileged.Strategy]privileged.Plan, strategies []privileged.Strategy, now func() time.Time) ProgressEvent {
	if now == nil {
		now = time.Now
	}

	ctxTimeout, cancel := context.WithTimeout(ctx, serviceControlTimeout)
	defer cancel()

	for _, strategy := range strategies {
		plan, ok := restartPlans[strategy]
		if !ok {
			continue
		}
		res := executor.Execute(ctxTimeout, strategy, plan, nil)
		if res.Succeeded {
			pct := float64(100)
			return ProgressEvent{Phase: PhaseDone, Percent: &pct, Message: "runtime restarted", Timestamp: now()}
		}
	}

	// no restart path succeeded (or none was available): fall through to start
	return o.Start(ctx, executor, endpoint, startPlans, strategies, now)
}
