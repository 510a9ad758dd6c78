package ranking

import (
	"fmt"

	"github.com/hyperjump/predicate/internal/models"
	"github.com/hyperjump/predicate/internal/textsim"
)

// Config holds all engine constants. It is set once per deployment and passed in at construction.
type Config struct {
	// Filter
	MaxCandidateAgeYears float64 `yaml:"max_candidate_age_years" validate:"gte=0"` // default: 15

	// Text similarity
	MaxFeatures int `yaml:"max_features" validate:"gte=0"` // default: 200
	NGramMin    int `yaml:"ngram_min" validate:"gte=0"`    // default: 1
	NGramMax    int `yaml:"ngram_max" validate:"gte=0"`    // default: 2

	// Similarity weights
	TextWeight    float64 `yaml:"text_weight" validate:"gte=0,lte=1"`    // default: 0.6
	FeatureWeight float64 `yaml:"feature_weight" validate:"gte=0,lte=1"` // default: 0.4

	// Final score weights
	SimilarityWeight float64 `yaml:"similarity_weight" validate:"gte=0,lte=1"` // default: 0.7
	RiskWeight       float64 `yaml:"risk_weight" validate:"gte=0,lte=1"`       // default: 0.3

	DefaultTopN int `yaml:"default_top_n" validate:"gte=0"` // default: 5

	// MinFinalScore drops ranked results below this final score. 0 keeps everything.
	MinFinalScore float64 `yaml:"min_final_score" validate:"gte=0,lte=100"`

	// Feature overlap points
	SterilizationExactPoints      float64 `yaml:"sterilization_exact_points" validate:"gte=0"`      // default: 15
	SterilizationCompatiblePoints float64 `yaml:"sterilization_compatible_points" validate:"gte=0"` // default: 7.5
	MaterialsPoints               float64 `yaml:"materials_points" validate:"gte=0"`                // default: 10
	SizesPoints                   float64 `yaml:"sizes_points" validate:"gte=0"`                    // default: 10
	StandardsPoints               float64 `yaml:"standards_points" validate:"gte=0"`                // default: 5

	// SterilizationCompatibility lists method pairs that earn partial credit, e.g.
	// ethylene_oxide: [radiation]. Pairs are symmetric. Empty by default, so only exact
	// matches score.
	SterilizationCompatibility map[models.SterilizationMethod][]models.SterilizationMethod `yaml:"sterilization_compatibility"`
}

// DefaultConfig returns the default engine configuration.
func DefaultConfig() *Config {
	return &Config{
		MaxCandidateAgeYears: 15,

		MaxFeatures: 200,
		NGramMin:    1,
		NGramMax:    2,

		TextWeight:    0.6,
		FeatureWeight: 0.4,

		SimilarityWeight: 0.7,
		RiskWeight:       0.3,

		DefaultTopN: models.DefaultTopN,

		SterilizationExactPoints:      15,
		SterilizationCompatiblePoints: 7.5,
		MaterialsPoints:               10,
		SizesPoints:                   10,
		StandardsPoints:               5,
	}
}

// ApplyDefaults fills in zero values with defaults.
func (c *Config) ApplyDefaults() {
	defaults := DefaultConfig()

	if c.MaxCandidateAgeYears == 0 {
		c.MaxCandidateAgeYears = defaults.MaxCandidateAgeYears
	}

	if c.MaxFeatures == 0 {
		c.MaxFeatures = defaults.MaxFeatures
	}
	if c.NGramMin == 0 {
		c.NGramMin = defaults.NGramMin
	}
	if c.NGramMax == 0 {
		c.NGramMax = defaults.NGramMax
	}

	if c.TextWeight == 0 && c.FeatureWeight == 0 {
		c.TextWeight = defaults.TextWeight
		c.FeatureWeight = defaults.FeatureWeight
	}
	if c.SimilarityWeight == 0 && c.RiskWeight == 0 {
		c.SimilarityWeight = defaults.SimilarityWeight
		c.RiskWeight = defaults.RiskWeight
	}

	if c.DefaultTopN == 0 {
		c.DefaultTopN = defaults.DefaultTopN
	}

	if c.SterilizationExactPoints == 0 {
		c.SterilizationExactPoints = defaults.SterilizationExactPoints
	}
	if c.SterilizationCompatiblePoints == 0 {
		c.SterilizationCompatiblePoints = defaults.SterilizationCompatiblePoints
	}
	if c.MaterialsPoints == 0 {
		c.MaterialsPoints = defaults.MaterialsPoints
	}
	if c.SizesPoints == 0 {
		c.SizesPoints = defaults.SizesPoints
	}
	if c.StandardsPoints == 0 {
		c.StandardsPoints = defaults.StandardsPoints
	}
}

// Validate checks value ranges and that the n-gram range is ordered.
func (c *Config) Validate() error {
	if err := models.ValidateStruct(c); err != nil {
		return fmt.Errorf("ranking config: %w", err)
	}
	if c.NGramMax < c.NGramMin {
		return fmt.Errorf("ranking config: ngram_max %d is less than ngram_min %d", c.NGramMax, c.NGramMin)
	}
	return nil
}

// TextConfig returns the vectorizer settings.
func (c *Config) TextConfig() textsim.Config {
	return textsim.Config{MaxFeatures: c.MaxFeatures, NGramMin: c.NGramMin, NGramMax: c.NGramMax}
}

// MaxFeaturePoints is the number of feature-overlap points available.
func (c *Config) MaxFeaturePoints() float64 {
	return c.SterilizationExactPoints + c.MaterialsPoints + c.SizesPoints + c.StandardsPoints
}

// Compatible reports whether two different sterilization methods are listed as compatible.
func (c *Config) Compatible(a, b models.SterilizationMethod) bool {
	for _, m := range c.SterilizationCompatibility[a] {
		if m == b {
			return true
		}
	}
	for _, m := range c.SterilizationCompatibility[b] {
		if m == a {
			return true
		}
	}
	return false
}

// Snapshot returns the numeric constants in effect, for audit trails.
func (c *Config) Snapshot() map[string]float64 {
	return map[string]float64{
		"max_candidate_age_years":         c.MaxCandidateAgeYears,
		"max_features":                    float64(c.MaxFeatures),
		"ngram_min":                       float64(c.NGramMin),
		"ngram_max":                       float64(c.NGramMax),
		"text_weight":                     c.TextWeight,
		"feature_weight":                  c.FeatureWeight,
		"similarity_weight":               c.SimilarityWeight,
		"risk_weight":                     c.RiskWeight,
		"default_top_n":                   float64(c.DefaultTopN),
		"min_final_score":                 c.MinFinalScore,
		"sterilization_exact_points":      c.SterilizationExactPoints,
		"sterilization_compatible_points": c.SterilizationCompatiblePoints,
		"materials_points":                c.MaterialsPoints,
		"sizes_points":                    c.SizesPoints,
		"standards_points":                c.StandardsPoints,
	}
}
