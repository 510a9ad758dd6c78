package models

// Adjustment is a single labelled contribution to a score.
type Adjustment struct {
	Label string  `json:"label"`
	Delta float64 `json:"delta"`
}

// ScoreBreakdown carries every component that went into a candidate's scores.
type ScoreBreakdown struct {
	// Similarity lists the feature-overlap points earned per dimension.
	Similarity []Adjustment `json:"similarity"`
	// Penalties and Bonuses are the risk adjustments in the order they were applied.
	Penalties []Adjustment `json:"penalties"`
	Bonuses   []Adjustment `json:"bonuses"`
	// Notes are the human-readable rationale strings, e.g. "2 recalls (-30 pts)".
	Notes []string `json:"notes"`
	// SharedTerms are the strongest vocabulary terms common to subject and candidate text.
	SharedTerms []string `json:"shared_terms,omitempty"`
}

// ScoredCandidate is a candidate plus all computed scores. It is created per request and never persisted on its own.
type ScoredCandidate struct {
	Candidate         CandidateDevice `json:"candidate"`
	Rank              int             `json:"rank"`
	TextSimilarity    float64         `json:"text_similarity"`
	FeatureSimilarity float64         `json:"feature_similarity"`
	SimilarityScore   float64         `json:"similarity_score"`
	RiskScore         float64         `json:"risk_score"`
	FinalScore        float64         `json:"final_score"`
	Breakdown         ScoreBreakdown  `json:"breakdown"`
}

// SearchStatus distinguishes a successful search with hits from one that found none.
type SearchStatus string

const (
	StatusOK                   SearchStatus = "ok"
	StatusNoMatchingPredicates SearchStatus = "no_matching_predicates"
)

// SearchSummary holds the pool counts of a recommendation run.
// Returned <= AfterFilter <= TotalSearched always holds.
type SearchSummary struct {
	TotalSearched int          `json:"total_searched"`
	AfterFilter   int          `json:"after_filter"`
	Scored        int          `json:"scored"`
	Skipped       int          `json:"skipped"`
	Returned      int          `json:"returned"`
	Status        SearchStatus `json:"status"`
}

// StageCount is the number of candidates surviving a filter stage.
type StageCount struct {
	Stage     string `json:"stage"`
	Remaining int    `json:"remaining"`
}

// AuditTrail records how a result was produced.
type AuditTrail struct {
	InputPoolSize     int          `json:"input_pool_size"`
	Stages            []StageCount `json:"stages"`
	Skipped           []string     `json:"skipped"`
	AsOf              string       `json:"as_of"`
	VocabularyVersion string       `json:"vocabulary_version"`
	// Config is a snapshot of the engine constants in effect.
	Config map[string]float64 `json:"config"`
}

// RecommendationResult is the output of a recommendation request.
type RecommendationResult struct {
	Subject         SubjectDevice     `json:"subject"`
	Recommendations []ScoredCandidate `json:"recommendations"`
	SearchSummary   SearchSummary     `json:"search_summary"`
	Audit           AuditTrail        `json:"audit"`
}
