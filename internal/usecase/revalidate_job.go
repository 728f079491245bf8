package usecase

import (
	"context"
	"fmt"

	domsvc "SignalGuard/internal/domain/service"
	"SignalGuard/pkg/queue"
)

// RevalidateJob retries validations that faulted on the hot path, e.g.
// when a backing store was briefly unavailable.
type RevalidateJob struct {
	orch domsvc.Orchestrator
	proc *VerdictProcessor
}

func NewRevalidateJob(orch domsvc.Orchestrator, proc *VerdictProcessor) *RevalidateJob {
	return &RevalidateJob{orch: orch, proc: proc}
}

func (j *RevalidateJob) Name() string { return "signal-revalidate" }

func (j *RevalidateJob) Type() string { return RevalidateType }

func (j *RevalidateJob) Handle(ctx context.Context, payload interface{}) error {
	raw, err := queue.ParsePayload[RawSignal](payload)
	if err != nil {
		return fmt.Errorf("parse revalidate payload: %w", err)
	}
	signal := raw.Signal()

	verdict, err := j.orch.ValidateSignal(ctx, signal)
	if err != nil {
		return fmt.Errorf("revalidate signal %s: %w", signal.SignalID, err)
	}
	return j.proc.Process(ctx, &verdict)
}

var _ queue.Job = (*RevalidateJob)(nil)
