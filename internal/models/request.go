package models

// DefaultTopN is the number of recommendations returned when none is requested.
const DefaultTopN = 5

// RecommendRequest is a recommendation request as received over the API.
// When Candidates is nil the pool is read from storage by the subject's product code.
type RecommendRequest struct {
	Subject    *SubjectDevice    `json:"subject" validate:"required"`
	Candidates []CandidateDevice `json:"candidates,omitempty"`
	TopN       int               `json:"top_n,omitempty" validate:"gte=0,lte=1000"`
	// AsOf optionally pins the reference date (YYYY-MM-DD) used for candidate age.
	AsOf string `json:"as_of,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

// Validate ensures the request has a valid subject. A zero TopN is left for the engine's
// configured default.
func (r *RecommendRequest) Validate() error {
	if r.Subject == nil {
		return &InvalidInputError{Field: "subject", Reason: "is required"}
	}
	if err := ValidateStruct(r); err != nil {
		return err
	}
	if err := r.Subject.Validate(); err != nil {
		return err
	}
	return nil
}
