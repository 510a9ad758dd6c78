package ranking

import (
	"fmt"

	"github.com/hyperjump/predicate/internal/features"
	"github.com/hyperjump/predicate/internal/models"
	"github.com/hyperjump/predicate/internal/textsim"
	"github.com/hyperjump/predicate/pkg/utils"
)

// SimilarityResult is the combined similarity of a candidate to the subject.
type SimilarityResult struct {
	Score             float64
	TextSimilarity    float64
	FeatureSimilarity float64
	// Components holds the feature-overlap points earned per dimension.
	Components  []models.Adjustment
	SharedTerms []string
}

// SimilarityScorer combines text similarity with discrete feature overlap.
type SimilarityScorer struct {
	config *Config
	engine *textsim.Engine
}

// NewSimilarityScorer creates a scorer. A nil config uses the defaults.
func NewSimilarityScorer(config *Config, engine *textsim.Engine) *SimilarityScorer {
	if config == nil {
		config = DefaultConfig()
	}
	config.ApplyDefaults()
	return &SimilarityScorer{config: config, engine: engine}
}

// Score compares the subject to a candidate. Text similarity is weighted against feature
// similarity, where the feature points are rescaled to 0-100.
func (s *SimilarityScorer) Score(subjectText string, subject features.Features, candidateText string, candidate features.Features) SimilarityResult {
	text := s.engine.Compare(subjectText, candidateText)
	components, points := s.FeaturePoints(subject, candidate)

	var feature float64
	if available := s.config.MaxFeaturePoints(); available > 0 {
		feature = utils.Round2(utils.Clamp(points*100/available, 0, 100))
	}
	score := utils.WeightedSum(
		[]float64{text.Score, feature},
		[]float64{s.config.TextWeight, s.config.FeatureWeight},
	)
	return SimilarityResult{
		Score:             utils.Clamp(score, 0, 100),
		TextSimilarity:    text.Score,
		FeatureSimilarity: feature,
		Components:        components,
		SharedTerms:       text.SharedTerms,
	}
}

// FeaturePoints returns the labelled points for each overlap dimension and their unrounded total.
// Every dimension is reported, including those that earned nothing.
func (s *SimilarityScorer) FeaturePoints(subject, candidate features.Features) ([]models.Adjustment, float64) {
	var total float64
	components := make([]models.Adjustment, 0, 4)
	add := func(label string, pts float64) {
		total += pts
		components = append(components, models.Adjustment{
			Label: fmt.Sprintf("%s (%s pts)", label, formatDelta(pts)),
			Delta: utils.Round2(pts),
		})
	}

	steril, label := s.sterilizationPoints(subject.Sterilization, candidate.Sterilization)
	add(label, steril)

	inter, union := overlap(subject.Materials, candidate.Materials)
	add(fmt.Sprintf("materials overlap %d/%d", inter, union), ratio(inter, union)*s.config.MaterialsPoints)

	// Assumed definition: size overlap is the Jaccard index of normalized size tokens
	// ("6fr", "150cm"), the same rule as materials.
	inter, union = overlap(subject.Sizes, candidate.Sizes)
	add(fmt.Sprintf("size overlap %d/%d", inter, union), ratio(inter, union)*s.config.SizesPoints)

	inter, _ = overlap(subject.Standards, candidate.Standards)
	n := len(subject.Standards)
	add(fmt.Sprintf("standards coverage %d/%d", inter, n), ratio(inter, n)*s.config.StandardsPoints)

	return components, total
}

func (s *SimilarityScorer) sterilizationPoints(subject, candidate models.SterilizationMethod) (float64, string) {
	switch {
	case !subject.Known() || !candidate.Known():
		return 0, "sterilization not comparable"
	case subject == candidate:
		return s.config.SterilizationExactPoints, fmt.Sprintf("sterilization match: %s", subject)
	case s.config.Compatible(subject, candidate):
		return s.config.SterilizationCompatiblePoints, fmt.Sprintf("sterilization compatible: %s/%s", subject, candidate)
	default:
		return 0, fmt.Sprintf("sterilization differs: %s/%s", subject, candidate)
	}
}

// overlap returns the intersection and union sizes of two deduplicated sets.
func overlap(a, b []string) (inter, union int) {
	seen := make(map[string]struct{}, len(a))
	for _, v := range a {
		seen[v] = struct{}{}
	}
	union = len(seen)
	counted := make(map[string]struct{}, len(b))
	for _, v := range b {
		if _, dup := counted[v]; dup {
			continue
		}
		counted[v] = struct{}{}
		if _, ok := seen[v]; ok {
			inter++
		} else {
			union++
		}
	}
	return inter, union
}

func ratio(num, den int) float64 {
	if den == 0 {
		return 0
	}
	return float64(num) / float64(den)
}
