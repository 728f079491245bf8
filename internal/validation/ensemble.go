package validation

import (
	"context"
	"fmt"

	"SignalGuard/internal/domain/models"
	domrepo "SignalGuard/internal/domain/repository"
	domsvc "SignalGuard/internal/domain/service"
	"SignalGuard/pkg/logger"
)

// EnsembleValidator measures agreement, diversity and uncertainty across
// a peer-signal set supplied by the injected sibling source. It is the
// one advisory stage: internal faults are replaced with a neutral
// failsafe result instead of propagating.
type EnsembleValidator struct {
	log      *logger.Logger
	siblings domrepo.SiblingSignalSource
	failsafe bool
}

type EnsembleOption func(*EnsembleValidator)

// WithEnsembleFailsafe toggles failsafe substitution on internal faults.
func WithEnsembleFailsafe(enabled bool) EnsembleOption {
	return func(v *EnsembleValidator) { v.failsafe = enabled }
}

func NewEnsembleValidator(log *logger.Logger, siblings domrepo.SiblingSignalSource, opts ...EnsembleOption) *EnsembleValidator {
	v := &EnsembleValidator{log: log, siblings: siblings, failsafe: true}
	for _, opt := range opts {
		opt(v)
	}
	return v
}

// Validate builds the peer set and scores consensus strength, optimal
// diversity and certainty.
func (v *EnsembleValidator) Validate(ctx context.Context, signal models.TradingSignal) (models.EnsembleResult, error) {
	peers, err := v.siblings.Peers(ctx, signal)
	if err == nil && len(peers) == 0 {
		err = fmt.Errorf("no peer signals for %s", signal.Symbol)
	}
	if err != nil {
		if !v.failsafe {
			return models.EnsembleResult{}, err
		}
		if v.log != nil {
			v.log.Warn("ensemble validation failed, using failsafe",
				logger.String("symbol", signal.Symbol),
				logger.Error(err))
		}
		return FailsafeEnsembleResult(), nil
	}

	consensusSignal, agreement := consensus(peers)
	strength := (agreement - 0.5) * 2
	if strength < 0 {
		strength = -strength
	}

	confidences := make([]float64, len(peers))
	for i, p := range peers {
		confidences[i] = p.Confidence
	}

	weighted := weightedConfidence(confidences)
	variation := stdev(confidences)
	diversity := diversityScore(variation, peers)
	lo, hi := minMax(confidences)
	confRange := hi - lo
	uncertainty := confRange*0.6 + (1-mean(confidences))*0.4

	score := clamp01(0.5*strength + 0.3*optimalDiversity(diversity) + 0.2*(1-uncertainty))

	result := models.EnsembleResult{
		EnsembleSize:        len(peers),
		ConsensusSignal:     consensusSignal,
		ConsensusStrength:   round4(strength),
		AgreementRatio:      round4(agreement),
		WeightedConfidence:  weighted,
		Diversity:           round4(diversity),
		ConfidenceVariation: round4(variation),
		Uncertainty:         round4(uncertainty),
		ConfidenceRange:     round4(confRange),
		Score:               round4(score),
	}

	if v.log != nil {
		v.log.Debug("ensemble validated",
			logger.String("symbol", signal.Symbol),
			logger.String("consensus", string(consensusSignal)),
			logger.Float64("score", result.Score))
	}
	return result, nil
}

// consensus runs a majority vote over the buy/sell/hold direction
// groups. Ties resolve buy over sell over hold.
func consensus(peers []models.TradingSignal) (models.SignalType, float64) {
	var buy, sell, hold int
	for _, p := range peers {
		switch {
		case p.SignalType.IsBuyLike():
			buy++
		case p.SignalType.IsSellLike():
			sell++
		default:
			hold++
		}
	}

	var winner models.SignalType
	var count int
	switch {
	case buy >= sell && buy >= hold:
		winner, count = models.Buy, buy
	case sell >= hold:
		winner, count = models.Sell, sell
	default:
		winner, count = models.Hold, hold
	}
	return winner, float64(count) / float64(len(peers))
}

// weightedConfidence self-weights each peer by its own confidence.
func weightedConfidence(confidences []float64) float64 {
	var totalWeight, weightedSum float64
	for _, c := range confidences {
		totalWeight += c
		weightedSum += c * c
	}
	if totalWeight <= 0 {
		return 0.5
	}
	return round4(weightedSum / totalWeight)
}

// diversityScore blends confidence spread with signal-type variety
// (three direction groups).
func diversityScore(confidenceVariation float64, peers []models.TradingSignal) float64 {
	unique := make(map[models.SignalType]struct{}, len(peers))
	for _, p := range peers {
		unique[p.SignalType] = struct{}{}
	}
	typeVariation := float64(len(unique)) / 3.0
	return confidenceVariation*0.7 + typeVariation*0.3
}

// optimalDiversity gives full credit in the [0.3, 0.7] band with linear
// falloff outside it: homogeneous and chaotic ensembles both score low.
func optimalDiversity(d float64) float64 {
	switch {
	case d < 0.3:
		return d / 0.3
	case d > 0.7:
		return (1.0 - d) / 0.3
	default:
		return 1.0
	}
}

// FailsafeEnsembleResult is the neutral default substituted when the
// stage cannot complete.
func FailsafeEnsembleResult() models.EnsembleResult {
	return models.EnsembleResult{
		EnsembleSize:        1,
		ConsensusSignal:     models.Hold,
		ConsensusStrength:   0.5,
		AgreementRatio:      0.5,
		WeightedConfidence:  0.5,
		Diversity:           0.5,
		ConfidenceVariation: 0,
		Uncertainty:         0.5,
		ConfidenceRange:     0,
		Failsafe:            true,
		Score:               0.5,
		Issues:              []string{"ensemble validation incomplete, failsafe result substituted"},
	}
}

var _ domsvc.EnsembleValidator = (*EnsembleValidator)(nil)
