package domain

import "math"

// Scoring weights. Fixed constants: identical metrics must always yield an
// identical ScoreResult.
const (
	WeightLintError    = 1.0
	WeightLintWarning  = 0.25
	WeightCriticalVuln = 15.0
	WeightHighVuln     = 5.0
)

// Status boundaries on the rounded final score
const (
	// LowRiskThreshold is the minimum score for low risk (inclusive)
	LowRiskThreshold = 80

	// ModerateRiskThreshold is the minimum score for moderate risk (inclusive)
	ModerateRiskThreshold = 60
)

// Score maps analyzer metrics to a bounded ARI score and risk category.
// Pure and total: every input produces an integer in [0, 100].
func Score(metrics AnalysisMetrics) ScoreResult {
	deduction := float64(metrics.LintErrors)*WeightLintError +
		float64(metrics.LintWarnings)*WeightLintWarning +
		float64(metrics.CriticalVulns)*WeightCriticalVuln +
		float64(metrics.HighVulns)*WeightHighVuln

	raw := 100.0 - deduction
	if raw < 0 {
		raw = 0
	}
	if raw > 100 {
		raw = 100
	}
	final := int(math.Round(raw))

	return ScoreResult{
		ARIScore: final,
		Status:   statusFor(final),
		Metrics:  metrics,
	}
}

// statusFor categorizes a final score per the fixed boundaries
func statusFor(score int) RiskStatus {
	switch {
	case score >= LowRiskThreshold:
		return RiskStatusLow
	case score >= ModerateRiskThreshold:
		return RiskStatusModerate
	default:
		return RiskStatusHigh
	}
}
