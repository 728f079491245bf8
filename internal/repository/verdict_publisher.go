package repository

import (
	"context"

	"SignalGuard/internal/domain/models"
	"SignalGuard/internal/domain/repository"
	pkgkafka "SignalGuard/pkg/kafka"
)

// KafkaVerdictPublisher implements VerdictPublisher for Kafka.
type KafkaVerdictPublisher struct {
	producer *pkgkafka.Producer
	topic    string
}

// NewKafkaVerdictPublisher creates a Kafka-backed verdict publisher.
func NewKafkaVerdictPublisher(producer *pkgkafka.Producer, topic string) repository.VerdictPublisher {
	return &KafkaVerdictPublisher{producer: producer, topic: topic}
}

func (p *KafkaVerdictPublisher) Publish(ctx context.Context, v *models.CompositeVerdict) error {
	return p.producer.Publish(ctx, p.topic, []byte(v.Symbol), verdictPayload(v))
}

func (p *KafkaVerdictPublisher) PublishBatch(ctx context.Context, vs []*models.CompositeVerdict) error {
	if len(vs) == 0 {
		return nil
	}
	msgs := make([]pkgkafka.Message, len(vs))
	for i, v := range vs {
		msgs[i] = pkgkafka.Message{
			Key:   []byte(v.Symbol),
			Value: verdictPayload(v),
		}
	}
	return p.producer.PublishBatch(ctx, p.topic, msgs)
}

func (p *KafkaVerdictPublisher) Close() error {
	if p.producer != nil {
		return p.producer.Close()
	}
	return nil
}

// verdictPayload is the wire shape published downstream. Stage scores
// are already rounded to 4 decimals by the validators.
func verdictPayload(v *models.CompositeVerdict) map[string]interface{} {
	payload := map[string]interface{}{
		"signal_id":     v.SignalID,
		"symbol":        v.Symbol,
		"overall_score": v.OverallScore,
		"action":        string(v.Action),
		"grade":         string(v.Grade),
		"risk":          string(v.Risk),
		"failsafe":      v.Failsafe,
		"issues":        v.Issues,
		"validated_at":  v.ValidatedAt.Unix(),
	}
	if v.Quality != nil {
		payload["quality_score"] = v.Quality.Score
	}
	if v.Statistical != nil {
		payload["statistical_score"] = v.Statistical.Score
		payload["p_value"] = v.Statistical.PValue
	}
	if v.Ensemble != nil {
		payload["ensemble_score"] = v.Ensemble.Score
		payload["consensus"] = string(v.Ensemble.ConsensusSignal)
	}
	if v.Context != nil {
		payload["context_score"] = v.Context.Score
		payload["regime"] = string(v.Context.Regime)
	}
	if v.Performance != nil {
		payload["performance_score"] = v.Performance.Score
		payload["retraining"] = v.Performance.RecommendRetraining
	}
	return payload
}
