package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
	pkgkafka "SignalGuard/pkg/kafka"
)

// KafkaOutcomesHandler consumes resolved prediction outcomes and folds
// them into the per-model performance trackers and accuracy samples the
// statistical and performance stages read from.
type KafkaOutcomesHandler struct {
	topic    string
	trackers domrepo.TrackerStore
	samples  domrepo.SampleStore
	metrics  domrepo.Metrics
}

func NewKafkaOutcomesHandler(topic string, trackers domrepo.TrackerStore, samples domrepo.SampleStore, metrics domrepo.Metrics) *KafkaOutcomesHandler {
	return &KafkaOutcomesHandler{topic: topic, trackers: trackers, samples: samples, metrics: metrics}
}

func (h *KafkaOutcomesHandler) Topic() string { return h.topic }

// incoming message schema: {signal_id, symbol, signal_type, correct, realized_accuracy}
func (h *KafkaOutcomesHandler) Handle(ctx context.Context, b []byte) error {
	var m struct {
		SignalID         string  `json:"signal_id"`
		Symbol           string  `json:"symbol"`
		SignalType       string  `json:"signal_type"`
		Correct          bool    `json:"correct"`
		RealizedAccuracy float64 `json:"realized_accuracy"`
	}
	if err := json.Unmarshal(b, &m); err != nil {
		h.metrics.RecordError("outcome_unmarshal")
		return err
	}
	if m.Symbol == "" || !models.IsValidSignalType(models.SignalType(m.SignalType)) {
		h.metrics.RecordError("outcome_invalid")
		return fmt.Errorf("outcome for %q: bad symbol or signal type", m.SignalID)
	}

	key := models.TradingSignal{
		Symbol:     m.Symbol,
		SignalType: models.SignalType(m.SignalType),
	}.ModelKey()

	if err := h.trackers.RecordOutcome(ctx, key, m.Correct); err != nil {
		h.metrics.RecordError("outcome_tracker")
		return fmt.Errorf("record outcome %s: %w", key, err)
	}
	if m.RealizedAccuracy > 0 && m.RealizedAccuracy <= 1 {
		if err := h.samples.Append(ctx, key, m.RealizedAccuracy); err != nil {
			h.metrics.RecordError("outcome_sample")
			return fmt.Errorf("append sample %s: %w", key, err)
		}
	}
	return nil
}

var _ pkgkafka.MessageHandler = (*KafkaOutcomesHandler)(nil)
