package validation

import (
	"context"
	"errors"
	"strings"
	"testing"

	"SignalGuard/internal/domain/models"
)

type fakeSiblings struct {
	peers []models.TradingSignal
	err   error
}

func (f *fakeSiblings) Peers(context.Context, models.TradingSignal) ([]models.TradingSignal, error) {
	return f.peers, f.err
}

func peer(t models.SignalType, conf float64) models.TradingSignal {
	return models.TradingSignal{Symbol: "AAPL", SignalType: t, Confidence: conf}
}

func TestEnsembleMajorityConsensus(t *testing.T) {
	siblings := &fakeSiblings{peers: []models.TradingSignal{
		peer(models.Buy, 0.8),
		peer(models.StrongBuy, 0.7),
		peer(models.WeakBuy, 0.6),
		peer(models.Sell, 0.5),
		peer(models.Hold, 0.5),
	}}
	v := NewEnsembleValidator(nil, siblings)

	res, err := v.Validate(context.Background(), peer(models.Buy, 0.8))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.EnsembleSize != 5 {
		t.Fatalf("expected ensemble size 5, got %d", res.EnsembleSize)
	}
	if res.ConsensusSignal != models.Buy {
		t.Fatalf("expected BUY consensus, got %s", res.ConsensusSignal)
	}
	if res.AgreementRatio != 0.6 {
		t.Fatalf("expected agreement 0.6, got %v", res.AgreementRatio)
	}
	if res.ConsensusStrength != 0.2 {
		t.Fatalf("expected strength 0.2, got %v", res.ConsensusStrength)
	}
	if res.WeightedConfidence != 0.6419 {
		t.Fatalf("expected weighted confidence 0.6419, got %v", res.WeightedConfidence)
	}
	if res.Diversity != 0.5913 {
		t.Fatalf("expected diversity 0.5913, got %v", res.Diversity)
	}
	if res.ConfidenceRange != 0.3 {
		t.Fatalf("expected confidence range 0.3, got %v", res.ConfidenceRange)
	}
	if res.Uncertainty != 0.332 {
		t.Fatalf("expected uncertainty 0.332, got %v", res.Uncertainty)
	}
	if res.Score != 0.5336 {
		t.Fatalf("expected score 0.5336, got %v", res.Score)
	}
	if res.Failsafe {
		t.Fatalf("complete validation must not be flagged failsafe")
	}
}

func TestEnsembleTieBreaksTowardBuy(t *testing.T) {
	siblings := &fakeSiblings{peers: []models.TradingSignal{
		peer(models.Buy, 0.7),
		peer(models.Buy, 0.6),
		peer(models.Sell, 0.7),
		peer(models.Sell, 0.6),
		peer(models.Hold, 0.5),
	}}
	v := NewEnsembleValidator(nil, siblings)

	res, err := v.Validate(context.Background(), peer(models.Buy, 0.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.ConsensusSignal != models.Buy {
		t.Fatalf("tie should resolve to BUY, got %s", res.ConsensusSignal)
	}
	if res.AgreementRatio != 0.4 {
		t.Fatalf("expected agreement 0.4, got %v", res.AgreementRatio)
	}
}

func TestEnsembleZeroConfidencePeers(t *testing.T) {
	siblings := &fakeSiblings{peers: []models.TradingSignal{
		peer(models.Hold, 0),
		peer(models.Hold, 0),
		peer(models.Hold, 0),
	}}
	v := NewEnsembleValidator(nil, siblings)

	res, err := v.Validate(context.Background(), peer(models.Hold, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.WeightedConfidence != 0.5 {
		t.Fatalf("zero total weight should default to 0.5, got %v", res.WeightedConfidence)
	}
}

func TestEnsembleFailsafeOnSourceError(t *testing.T) {
	siblings := &fakeSiblings{err: errors.New("peer feed down")}
	v := NewEnsembleValidator(nil, siblings)

	res, err := v.Validate(context.Background(), peer(models.Buy, 0.7))
	if err != nil {
		t.Fatalf("failsafe mode must swallow source errors, got %v", err)
	}
	want := FailsafeEnsembleResult()
	if !res.Failsafe || res.Score != want.Score || res.ConsensusSignal != want.ConsensusSignal {
		t.Fatalf("expected failsafe result, got %+v", res)
	}
	if res.EnsembleSize != 1 {
		t.Fatalf("expected failsafe ensemble size 1, got %d", res.EnsembleSize)
	}
}

func TestEnsembleFailsafeDisabled(t *testing.T) {
	siblings := &fakeSiblings{err: errors.New("peer feed down")}
	v := NewEnsembleValidator(nil, siblings, WithEnsembleFailsafe(false))

	if _, err := v.Validate(context.Background(), peer(models.Buy, 0.7)); err == nil {
		t.Fatalf("expected source error to propagate with failsafe disabled")
	}
}

func TestEnsembleEmptyPeerSetTriggersFailsafe(t *testing.T) {
	siblings := &fakeSiblings{peers: nil}
	v := NewEnsembleValidator(nil, siblings)

	res, err := v.Validate(context.Background(), peer(models.Buy, 0.7))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !res.Failsafe {
		t.Fatalf("empty peer set should yield failsafe result, got %+v", res)
	}
}

func TestEnsembleEmptyPeerSetErrorsWithFailsafeDisabled(t *testing.T) {
	siblings := &fakeSiblings{peers: nil}
	v := NewEnsembleValidator(nil, siblings, WithEnsembleFailsafe(false))

	res, err := v.Validate(context.Background(), peer(models.Buy, 0.7))
	if err == nil {
		t.Fatalf("expected an error for an empty peer set, got %+v", res)
	}
	if !strings.Contains(err.Error(), "no peer signals") {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestOptimalDiversityBands(t *testing.T) {
	cases := []struct {
		d    float64
		want float64
	}{
		{0.0, 0.0},
		{0.15, 0.5},
		{0.3, 1.0},
		{0.5, 1.0},
		{0.7, 1.0},
		{0.85, 0.5},
	}
	for _, tc := range cases {
		got := optimalDiversity(tc.d)
		if round4(got) != tc.want {
			t.Fatalf("optimalDiversity(%v): expected %v, got %v", tc.d, tc.want, got)
		}
	}
}
