package ranking

import (
	"fmt"
	"strconv"

	"github.com/hyperjump/predicate/internal/models"
	"github.com/hyperjump/predicate/pkg/utils"
)

// Risk adjustments in points. These are fixed; only the final weights are configurable.
const (
	riskBase = 100.0

	oneRecallPenalty   = -15.0
	manyRecallsPenalty = -30.0
	noRecallsBonus     = 5.0

	recentAgeYears    = 2.0
	recentBonus       = 10.0
	moderateAgeYears  = 5.0
	moderateBonus     = 5.0
	oldAgeYears       = 10.0
	agePenaltyPerYear = 2.0
	maxAgePenalty     = 15.0

	specialControlsPenalty = -10.0
)

var maudeAdjustments = map[models.MAUDEClassification]float64{
	models.MAUDEExcellent:      10,
	models.MAUDEGood:           5,
	models.MAUDEConcerning:     -15,
	models.MAUDEExtremeOutlier: -25,
}

var clinicalAdjustments = map[models.ClinicalHistory]float64{
	models.ClinicalYes:      -20,
	models.ClinicalProbable: -10,
	models.ClinicalNo:       5,
}

// RiskResult is a candidate's 0-100 risk score with every adjustment that produced it.
type RiskResult struct {
	Score     float64
	Penalties []models.Adjustment
	Bonuses   []models.Adjustment
	// Notes are the adjustment labels in the order applied.
	Notes []string
}

// RiskScorer scores regulatory and safety risk from recall, adverse event, clinical and age data.
type RiskScorer struct{}

// NewRiskScorer creates a risk scorer.
func NewRiskScorer() *RiskScorer {
	return &RiskScorer{}
}

// Score starts at 100 and applies each adjustment in order, clamping the result to [0,100].
// ageYears is ignored when ageKnown is false.
func (r *RiskScorer) Score(c *models.CandidateDevice, ageYears float64, ageKnown bool) RiskResult {
	res := RiskResult{}
	deltas := []float64{riskBase}
	apply := func(label string, delta float64) {
		delta = utils.Round2(delta)
		adj := models.Adjustment{
			Label: fmt.Sprintf("%s (%s pts)", label, formatDelta(delta)),
			Delta: delta,
		}
		if delta < 0 {
			res.Penalties = append(res.Penalties, adj)
		} else {
			res.Bonuses = append(res.Bonuses, adj)
		}
		res.Notes = append(res.Notes, adj.Label)
		deltas = append(deltas, delta)
	}

	switch {
	case c.RecallsTotal == 1:
		apply("1 recall", oneRecallPenalty)
	case c.RecallsTotal >= 2:
		apply(fmt.Sprintf("%d recalls", c.RecallsTotal), manyRecallsPenalty)
	}

	if d, ok := maudeAdjustments[c.MAUDEClassification]; ok {
		apply(fmt.Sprintf("MAUDE %s", c.MAUDEClassification), d)
	}

	if d, ok := clinicalAdjustments[c.ClinicalHistory]; ok {
		apply(fmt.Sprintf("clinical data %s", c.ClinicalHistory), d)
	}

	if ageKnown {
		switch {
		case ageYears <= recentAgeYears:
			apply(fmt.Sprintf("cleared %.1f years ago", ageYears), recentBonus)
		case ageYears <= moderateAgeYears:
			apply(fmt.Sprintf("cleared %.1f years ago", ageYears), moderateBonus)
		case ageYears > oldAgeYears:
			penalty := (ageYears - oldAgeYears) * agePenaltyPerYear
			if penalty > maxAgePenalty {
				penalty = maxAgePenalty
			}
			apply(fmt.Sprintf("cleared %.1f years ago", ageYears), -penalty)
		}
	}

	if c.SpecialControls != nil && *c.SpecialControls {
		apply("special controls apply", specialControlsPenalty)
	}

	if c.RecallsTotal == 0 {
		apply("no recalls", noRecallsBonus)
	}

	res.Score = utils.Clamp(utils.Sum(deltas...), 0, 100)
	return res
}

// formatDelta renders points with an explicit sign, e.g. "+5" or "-7.5".
func formatDelta(v float64) string {
	s := strconv.FormatFloat(utils.Round2(v), 'f', -1, 64)
	if v >= 0 {
		return "+" + s
	}
	return s
}
