package usecase

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
	domsvc "SignalGuard/internal/domain/service"
	"SignalGuard/internal/validation"
	pkgkafka "SignalGuard/pkg/kafka"
	"SignalGuard/pkg/queue"
)

// RevalidateType is the queue message type for deferred revalidation.
const RevalidateType = "signal.revalidate"

// RawSignal is the wire schema of inbound model signals.
type RawSignal struct {
	SignalID       string  `json:"signal_id"`
	Symbol         string  `json:"symbol"`
	SignalType     string  `json:"signal_type"`
	Confidence     float64 `json:"confidence"`
	Strength       float64 `json:"strength"`
	ExpectedReturn float64 `json:"expected_return"`
	ExpectedRisk   float64 `json:"expected_risk"`
	TimeHorizon    string  `json:"time_horizon"`
	TargetPrice    float64 `json:"target_price"`
	StopLossPrice  float64 `json:"stop_loss_price"`
	GeneratedAt    int64   `json:"generated_at"` // unix seconds or ms
	ModelName      string  `json:"model_name"`
	ModelVersion   string  `json:"model_version"`
}

// Signal converts the wire form to the domain model.
func (r RawSignal) Signal() models.TradingSignal {
	ts := r.GeneratedAt
	if ts > 1e11 { // ms
		ts = ts / 1000
	}
	return models.TradingSignal{
		SignalID:       r.SignalID,
		Symbol:         r.Symbol,
		SignalType:     models.SignalType(r.SignalType),
		Confidence:     r.Confidence,
		Strength:       r.Strength,
		ExpectedReturn: r.ExpectedReturn,
		ExpectedRisk:   r.ExpectedRisk,
		TimeHorizon:    r.TimeHorizon,
		TargetPrice:    r.TargetPrice,
		StopLossPrice:  r.StopLossPrice,
		GeneratedAt:    time.Unix(ts, 0),
		Model:          models.ModelInfo{Name: r.ModelName, Version: r.ModelVersion},
	}
}

// KafkaSignalsHandler consumes inbound signals, validates them through
// the orchestrator, and publishes the resulting verdicts. Validation
// failures are parked on the retry queue; when degraded mode is on, a
// conservative failsafe verdict is published in the meantime so
// downstream consumers are never left without a decision.
type KafkaSignalsHandler struct {
	topic    string
	orch     domsvc.Orchestrator
	proc     *VerdictProcessor
	retry    queue.QueueService
	metrics  domrepo.Metrics
	degraded bool
}

func NewKafkaSignalsHandler(topic string, orch domsvc.Orchestrator, proc *VerdictProcessor, retry queue.QueueService, metrics domrepo.Metrics, degraded bool) *KafkaSignalsHandler {
	return &KafkaSignalsHandler{topic: topic, orch: orch, proc: proc, retry: retry, metrics: metrics, degraded: degraded}
}

func (h *KafkaSignalsHandler) Topic() string { return h.topic }

func (h *KafkaSignalsHandler) Handle(ctx context.Context, b []byte) error {
	var raw RawSignal
	if err := json.Unmarshal(b, &raw); err != nil {
		h.metrics.RecordError("consumer_unmarshal")
		return err
	}
	signal := raw.Signal()

	// E2E latency from signal generation to now (approx)
	h.metrics.RecordLatency("ingest_e2e_seconds", time.Since(signal.GeneratedAt).Seconds())

	start := time.Now()
	verdict, err := h.orch.ValidateSignal(ctx, signal)
	h.metrics.RecordLatency("validate_seconds", time.Since(start).Seconds())
	if err != nil {
		h.metrics.RecordError("consumer_validate")
		if h.retry != nil {
			if qerr := h.retry.PublishMessage(ctx, RevalidateType, raw); qerr != nil {
				h.metrics.RecordError("retry_enqueue")
				return fmt.Errorf("validate: %v, retry enqueue: %w", err, qerr)
			}
		}
		if !h.degraded {
			return fmt.Errorf("validate signal %s: %w", signal.SignalID, err)
		}
		fallback := validation.FailsafeVerdict(signal, time.Now())
		return h.proc.Process(ctx, &fallback)
	}

	return h.proc.Process(ctx, &verdict)
}

var _ pkgkafka.MessageHandler = (*KafkaSignalsHandler)(nil)
