// Package ranking scores filtered predicate candidates for similarity and risk and orders them.
package ranking

import (
	"sort"

	"github.com/hyperjump/predicate/internal/models"
	"github.com/hyperjump/predicate/pkg/utils"
)

// Ranker combines similarity and risk into a final score and orders candidates.
type Ranker struct {
	config *Config
}

// NewRanker creates a new Ranker with the given configuration.
func NewRanker(config *Config) *Ranker {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	return &Ranker{config: config}
}

// FinalScore returns round2(similarity*w_s + risk*w_r), computed exactly so that equal
// similarity and a risk difference d yield a final difference of exactly d*w_r.
func (r *Ranker) FinalScore(similarity, risk float64) float64 {
	score := utils.WeightedSum(
		[]float64{similarity, risk},
		[]float64{r.config.SimilarityWeight, r.config.RiskWeight},
	)
	return utils.Clamp(score, 0, 100)
}

// Rank computes final scores, sorts descending with ties kept in input order, truncates to topN
// and assigns ranks 1..N. A topN <= 0 uses the configured default. The input is not modified.
func (r *Ranker) Rank(scored []models.ScoredCandidate, topN int) []models.ScoredCandidate {
	if topN <= 0 {
		topN = r.config.DefaultTopN
	}

	results := make([]models.ScoredCandidate, len(scored))
	copy(results, scored)
	for i := range results {
		results[i].FinalScore = r.FinalScore(results[i].SimilarityScore, results[i].RiskScore)
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].FinalScore > results[j].FinalScore
	})

	if len(results) > topN {
		results = results[:topN]
	}
	for i := range results {
		results[i].Rank = i + 1
	}
	return results
}

// FilterByMinScore drops results whose final score is below minScore, keeping ranks contiguous.
func FilterByMinScore(results []models.ScoredCandidate, minScore float64) []models.ScoredCandidate {
	filtered := make([]models.ScoredCandidate, 0, len(results))
	for _, res := range results {
		if res.FinalScore >= minScore {
			res.Rank = len(filtered) + 1
			filtered = append(filtered, res)
		}
	}
	return filtered
}
