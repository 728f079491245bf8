package models

import "time"

// Action is the execution recommendation derived from the overall score.
type Action string

const (
	ActionExecute Action = "EXECUTE"
	ActionCaution Action = "PROCEED_WITH_CAUTION"
	ActionReject  Action = "REJECT"
)

// Grade is the letter quality grade for a validated signal.
type Grade string

const (
	GradeAPlus Grade = "A+"
	GradeA     Grade = "A"
	GradeB     Grade = "B"
	GradeC     Grade = "C"
	GradeD     Grade = "D"
	GradeF     Grade = "F"
)

// RiskLevel classifies the residual risk of acting on a signal.
type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)

// QualityResult is produced by the basic quality stage.
type QualityResult struct {
	ConfidenceMet bool
	Consistent    bool
	DataValid     bool
	TimeValid     bool
	Score         float64
	Issues        []string
}

// StatisticalResult is produced by the statistical significance stage.
type StatisticalResult struct {
	SampleSize     int
	MeanAccuracy   float64
	ConfidenceLow  float64
	ConfidenceHigh float64
	PValue         float64
	EffectSize     float64
	Power          float64
	Significant    bool
	Sufficient     bool
	Score          float64
	Issues         []string
}

// EnsembleResult is produced by the ensemble consensus stage.
type EnsembleResult struct {
	EnsembleSize        int
	ConsensusSignal     SignalType
	ConsensusStrength   float64
	AgreementRatio      float64
	WeightedConfidence  float64
	Diversity           float64
	ConfidenceVariation float64
	Uncertainty         float64
	ConfidenceRange     float64
	Failsafe            bool
	Score               float64
	Issues              []string
}

// Regime is the qualitative market direction classification.
type Regime string

const (
	RegimeBull   Regime = "BULL"
	RegimeBear   Regime = "BEAR"
	RegimeNormal Regime = "NORMAL"
)

// VolatilityEnv classifies the absolute volatility level.
type VolatilityEnv string

const (
	VolHigh     VolatilityEnv = "HIGH"
	VolModerate VolatilityEnv = "MODERATE"
	VolLow      VolatilityEnv = "LOW"
)

// VolatilityTrend classifies the implied-vs-historical volatility drift.
type VolatilityTrend string

const (
	VolIncreasing VolatilityTrend = "INCREASING"
	VolDecreasing VolatilityTrend = "DECREASING"
	VolStable     VolatilityTrend = "STABLE"
)

// StressBand buckets the market stress index.
type StressBand string

const (
	StressLow     StressBand = "LOW"
	StressNormal  StressBand = "NORMAL"
	StressHigh    StressBand = "HIGH"
	StressExtreme StressBand = "EXTREME"
)

// ContextResult is produced by the market context stage.
type ContextResult struct {
	Regime              Regime
	Volatility          VolatilityEnv
	VolatilityTrend     VolatilityTrend
	ExpectedPerformance float64
	StressIndex         float64
	StressBand          StressBand
	Score               float64
	Issues              []string
}

// TrendDirection classifies recent accuracy movement for a model.
type TrendDirection string

const (
	TrendImproving        TrendDirection = "IMPROVING"
	TrendDeclining        TrendDirection = "DECLINING"
	TrendStable           TrendDirection = "STABLE"
	TrendInsufficientData TrendDirection = "INSUFFICIENT_DATA"
)

// FatigueLevel classifies model staleness by elapsed age.
type FatigueLevel string

const (
	FatigueLow      FatigueLevel = "LOW"
	FatigueModerate FatigueLevel = "MODERATE"
	FatigueHigh     FatigueLevel = "HIGH"
)

// Urgency ranks a retraining recommendation.
type Urgency string

const (
	UrgencyHigh   Urgency = "HIGH"
	UrgencyMedium Urgency = "MEDIUM"
	UrgencyLow    Urgency = "LOW"
)

// PerformanceResult is produced by the model performance stage.
type PerformanceResult struct {
	Accuracy             float64
	Precision            float64
	Recall               float64
	F1                   float64
	Trend                TrendDirection
	TrendStrength        float64
	TrendConfidence      float64
	Fatigue              FatigueLevel
	FatigueScore         float64
	NeedsRefresh         bool
	RecommendRetraining  bool
	RetrainingUrgency    Urgency
	EstimatedImprovement float64
	Score                float64
	Issues               []string
}

// CompositeVerdict joins all stage results into one decision.
type CompositeVerdict struct {
	SignalID     string
	Symbol       string
	OverallScore float64
	Action       Action
	Grade        Grade
	Risk         RiskLevel
	Failsafe     bool

	Quality     *QualityResult
	Statistical *StatisticalResult
	Ensemble    *EnsembleResult
	Context     *ContextResult
	Performance *PerformanceResult

	Issues      []string
	ValidatedAt time.Time
}
