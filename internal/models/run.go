package models

import "time"

// Run is a persisted recommendation result.
type Run struct {
	ID        string                `json:"id"`
	CreatedAt time.Time             `json:"created_at"`
	Result    *RecommendationResult `json:"result"`
}
