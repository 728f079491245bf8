package usecase

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"SignalGuard/internal/domain/models"
)

func TestRevalidateJobIdentity(t *testing.T) {
	job := NewRevalidateJob(&fakeOrchestrator{}, NewVerdictProcessor(&fakePublisher{}, newCountingMetrics()))
	if job.Name() != "signal-revalidate" {
		t.Fatalf("unexpected job name %q", job.Name())
	}
	if job.Type() != RevalidateType {
		t.Fatalf("unexpected job type %q", job.Type())
	}
}

func TestRevalidateJobHandlesTypedPayload(t *testing.T) {
	verdict := models.CompositeVerdict{SignalID: "sig-1", Symbol: "AAPL", Action: models.ActionExecute}
	orch := &fakeOrchestrator{verdict: verdict}
	pub := &fakePublisher{}
	job := NewRevalidateJob(orch, NewVerdictProcessor(pub, newCountingMetrics()))

	raw := RawSignal{
		SignalID:    "sig-1",
		Symbol:      "AAPL",
		SignalType:  "BUY",
		Confidence:  0.7,
		GeneratedAt: time.Now().Unix(),
	}
	if err := job.Handle(context.Background(), raw); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(pub.published) != 1 || pub.published[0].SignalID != "sig-1" {
		t.Fatalf("verdict not published: %+v", pub.published)
	}
	if orch.gotSig.SignalType != models.Buy {
		t.Fatalf("unexpected signal: %+v", orch.gotSig)
	}
}

func TestRevalidateJobHandlesMapPayload(t *testing.T) {
	// Payloads rehydrated from redis arrive as generic maps.
	orch := &fakeOrchestrator{verdict: models.CompositeVerdict{SignalID: "sig-1"}}
	pub := &fakePublisher{}
	job := NewRevalidateJob(orch, NewVerdictProcessor(pub, newCountingMetrics()))

	b, err := json.Marshal(RawSignal{SignalID: "sig-1", Symbol: "AAPL", SignalType: "SELL", GeneratedAt: time.Now().Unix()})
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	var generic map[string]interface{}
	if err := json.Unmarshal(b, &generic); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}

	if err := job.Handle(context.Background(), generic); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if orch.gotSig.Symbol != "AAPL" || orch.gotSig.SignalType != models.Sell {
		t.Fatalf("unexpected signal from map payload: %+v", orch.gotSig)
	}
}

func TestRevalidateJobValidationError(t *testing.T) {
	orch := &fakeOrchestrator{err: errors.New("still failing")}
	job := NewRevalidateJob(orch, NewVerdictProcessor(&fakePublisher{}, newCountingMetrics()))

	raw := RawSignal{SignalID: "sig-1", Symbol: "AAPL", SignalType: "BUY", GeneratedAt: time.Now().Unix()}
	if err := job.Handle(context.Background(), raw); err == nil {
		t.Fatalf("expected error to surface for the queue's retry policy")
	}
}

func TestRevalidateJobBadPayload(t *testing.T) {
	job := NewRevalidateJob(&fakeOrchestrator{}, NewVerdictProcessor(&fakePublisher{}, newCountingMetrics()))
	if err := job.Handle(context.Background(), 42); err == nil {
		t.Fatalf("expected parse error for unsupported payload type")
	}
}
