// Package recommend drives the predicate recommendation pipeline: filter, score and rank
// a candidate pool against a subject device, and package the result with its audit trail.
package recommend

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/predicate/internal/features"
	"github.com/hyperjump/predicate/internal/filter"
	"github.com/hyperjump/predicate/internal/models"
	"github.com/hyperjump/predicate/internal/ranking"
	"github.com/hyperjump/predicate/internal/textsim"
)

// maxSharedTerms bounds the shared terms reported per candidate.
const maxSharedTerms = 10

// Recommender runs recommendation requests. It holds no per-request state; the only shared
// mutable state is the optional feature cache, which is safe for concurrent use.
type Recommender struct {
	config     *ranking.Config
	filter     *filter.Filter
	similarity *ranking.SimilarityScorer
	risk       *ranking.RiskScorer
	ranker     *ranking.Ranker
	cache      *features.Cache
	logger     *zap.Logger
	now        func() time.Time
}

// Option configures a Recommender.
type Option func(*Recommender)

// WithLogger sets the logger. Nil keeps the no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(r *Recommender) {
		if l != nil {
			r.logger = l
		}
	}
}

// WithCache sets the candidate feature cache.
func WithCache(c *features.Cache) Option {
	return func(r *Recommender) { r.cache = c }
}

// WithClock sets the source of "now" used for candidate age.
func WithClock(now func() time.Time) Option {
	return func(r *Recommender) {
		if now != nil {
			r.now = now
		}
	}
}

// New creates a Recommender. A nil config uses the defaults.
func New(config *ranking.Config, opts ...Option) (*Recommender, error) {
	if config == nil {
		config = ranking.DefaultConfig()
	}
	config.ApplyDefaults()
	if err := config.Validate(); err != nil {
		return nil, err
	}

	analyzer, err := textsim.DefaultAnalyzer()
	if err != nil {
		return nil, fmt.Errorf("create text analyzer: %w", err)
	}

	r := &Recommender{
		config:     config,
		filter:     filter.New(config.MaxCandidateAgeYears),
		similarity: ranking.NewSimilarityScorer(config, textsim.NewEngine(config.TextConfig(), analyzer)),
		risk:       ranking.NewRiskScorer(),
		ranker:     ranking.NewRanker(config),
		logger:     zap.NewNop(),
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Config returns the engine configuration in effect.
func (r *Recommender) Config() *ranking.Config {
	return r.config
}

// Recommend ranks pool against subject using the recommender's clock. topN <= 0 uses the
// configured default.
func (r *Recommender) Recommend(ctx context.Context, subject *models.SubjectDevice, pool []models.CandidateDevice, topN int) (*models.RecommendationResult, error) {
	return r.RecommendAt(ctx, subject, pool, topN, r.now())
}

// RecommendAt ranks pool against subject with candidate age measured at now.
// A malformed subject fails with an InvalidInputError. Zero matching candidates is a valid
// result with status no_matching_predicates.
func (r *Recommender) RecommendAt(ctx context.Context, subject *models.SubjectDevice, pool []models.CandidateDevice, topN int, now time.Time) (*models.RecommendationResult, error) {
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	if topN <= 0 {
		topN = r.config.DefaultTopN
	}
	now = now.UTC()

	outcome := r.filter.Apply(subject, pool, now)
	r.logger.Debug("Filtered candidate pool",
		zap.String("product_code", subject.ProductCode),
		zap.Int("pool", len(pool)),
		zap.Int("kept", len(outcome.Kept)),
		zap.Int("skipped", len(outcome.Skipped)))
	for _, s := range outcome.Skipped {
		r.logger.Debug("Candidate skipped", zap.String("k_number", s.KNumber), zap.String("reason", s.Reason))
	}

	result := &models.RecommendationResult{
		Subject:         *subject,
		Recommendations: []models.ScoredCandidate{},
		SearchSummary: models.SearchSummary{
			TotalSearched: len(pool),
			AfterFilter:   len(outcome.Kept),
			Skipped:       len(outcome.Skipped),
			Status:        models.StatusNoMatchingPredicates,
		},
		Audit: models.AuditTrail{
			InputPoolSize:     len(pool),
			Stages:            outcome.Stages,
			Skipped:           filter.SkipReasons(outcome.Skipped),
			AsOf:              now.Format(time.RFC3339),
			VocabularyVersion: features.VocabularyVersion,
			Config:            r.config.Snapshot(),
		},
	}
	if len(outcome.Kept) == 0 {
		return result, nil
	}

	subjectText := subject.Text()
	subjectFeatures := features.ForSubject(subject)

	scored := make([]models.ScoredCandidate, 0, len(outcome.Kept))
	for i := range outcome.Kept {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		scored = append(scored, r.score(subjectText, subjectFeatures, &outcome.Kept[i], now))
	}
	result.SearchSummary.Scored = len(scored)

	ranked := r.ranker.Rank(scored, topN)
	if r.config.MinFinalScore > 0 {
		ranked = ranking.FilterByMinScore(ranked, r.config.MinFinalScore)
	}
	result.Recommendations = ranked
	result.SearchSummary.Returned = len(ranked)
	if len(ranked) > 0 {
		result.SearchSummary.Status = models.StatusOK
	}

	r.logger.Debug("Ranked candidates",
		zap.Int("scored", len(scored)),
		zap.Int("returned", len(ranked)))
	return result, nil
}

func (r *Recommender) score(subjectText string, subjectFeatures features.Features, cand *models.CandidateDevice, now time.Time) models.ScoredCandidate {
	candFeatures := r.cache.ForCandidate(cand)
	sim := r.similarity.Score(subjectText, subjectFeatures, cand.Text(), candFeatures)

	age, err := cand.Age(now)
	risk := r.risk.Score(cand, age, err == nil)

	notes := make([]string, 0, len(risk.Notes)+2)
	notes = append(notes,
		fmt.Sprintf("text similarity %.2f x %g", sim.TextSimilarity, r.config.TextWeight),
		fmt.Sprintf("feature similarity %.2f x %g", sim.FeatureSimilarity, r.config.FeatureWeight),
	)
	notes = append(notes, risk.Notes...)

	shared := sim.SharedTerms
	if len(shared) > maxSharedTerms {
		shared = shared[:maxSharedTerms]
	}

	return models.ScoredCandidate{
		Candidate:         *cand,
		TextSimilarity:    sim.TextSimilarity,
		FeatureSimilarity: sim.FeatureSimilarity,
		SimilarityScore:   sim.Score,
		RiskScore:         risk.Score,
		Breakdown: models.ScoreBreakdown{
			Similarity:  sim.Components,
			Penalties:   nonNil(risk.Penalties),
			Bonuses:     nonNil(risk.Bonuses),
			Notes:       notes,
			SharedTerms: shared,
		},
	}
}

func nonNil(adj []models.Adjustment) []models.Adjustment {
	if adj == nil {
		return []models.Adjustment{}
	}
	return adj
}
