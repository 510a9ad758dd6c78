// Package filter applies the hard eligibility rules that shrink a raw candidate pool
// before any scoring happens.
package filter

import (
	"fmt"
	"strings"
	"time"

	"github.com/hyperjump/predicate/internal/models"
)

// DefaultMaxAgeYears is the default clearance age ceiling.
const DefaultMaxAgeYears = 15

// Stage names, in the order they are applied.
const (
	StageProductCode   = "product_code"
	StageWellFormed    = "well_formed"
	StageMAUDEOutlier  = "maude_outlier"
	StageAcceptability = "acceptability"
	StageMaxAge        = "max_age"
	StageAPIValidated  = "api_validated"
)

// recallExclusionThreshold excludes high-recall candidates whatever their precomputed acceptability.
const recallExclusionThreshold = 2

// Skip records a candidate excluded because its fields could not be evaluated.
type Skip struct {
	KNumber string `json:"k_number"`
	Reason  string `json:"reason"`
}

// Outcome is the result of filtering a pool.
type Outcome struct {
	// Kept are the surviving candidates in input order.
	Kept []models.CandidateDevice
	// Stages holds the number of candidates remaining after each stage.
	Stages []models.StageCount
	// Skipped lists malformed candidates, each reason prefixed with "skipped: ".
	Skipped []Skip
}

// Filter applies the eligibility rules. It holds no per-call state and may be shared.
type Filter struct {
	maxAgeYears float64
}

// New creates a filter with the given maximum clearance age. A value <= 0 uses the default.
func New(maxAgeYears float64) *Filter {
	if maxAgeYears <= 0 {
		maxAgeYears = DefaultMaxAgeYears
	}
	return &Filter{maxAgeYears: maxAgeYears}
}

// MaxAgeYears returns the configured age ceiling.
func (f *Filter) MaxAgeYears() float64 {
	return f.maxAgeYears
}

// Apply runs every stage in order against pool, computing candidate age against now.
// The pool is never modified; an empty outcome is valid.
func (f *Filter) Apply(subject *models.SubjectDevice, pool []models.CandidateDevice, now time.Time) Outcome {
	var out Outcome
	code := strings.TrimSpace(subject.ProductCode)

	kept := make([]models.CandidateDevice, 0, len(pool))
	for i := range pool {
		if strings.EqualFold(strings.TrimSpace(pool[i].ProductCode), code) {
			kept = append(kept, pool[i])
		}
	}
	out.record(StageProductCode, kept)

	kept = out.keep(kept, StageWellFormed, func(c *models.CandidateDevice) (bool, error) {
		if strings.TrimSpace(c.KNumber) == "" {
			return false, fmt.Errorf("missing clearance number")
		}
		if c.RecallsTotal < 0 {
			return false, fmt.Errorf("negative recall count %d", c.RecallsTotal)
		}
		return true, nil
	})

	kept = out.keep(kept, StageMAUDEOutlier, func(c *models.CandidateDevice) (bool, error) {
		return c.MAUDEClassification != models.MAUDEExtremeOutlier, nil
	})

	kept = out.keep(kept, StageAcceptability, func(c *models.CandidateDevice) (bool, error) {
		if c.RecallsTotal >= recallExclusionThreshold {
			return false, nil
		}
		return c.Acceptability != models.AcceptabilityNotRecommended, nil
	})

	kept = out.keep(kept, StageMaxAge, func(c *models.CandidateDevice) (bool, error) {
		age, err := c.Age(now)
		if err != nil {
			return false, err
		}
		return age <= f.maxAgeYears, nil
	})

	kept = out.keep(kept, StageAPIValidated, func(c *models.CandidateDevice) (bool, error) {
		return c.APIValidated, nil
	})

	out.Kept = kept
	return out
}

// keep retains the candidates accepted by pred, recording skips for those pred cannot evaluate.
func (o *Outcome) keep(in []models.CandidateDevice, stage string, pred func(*models.CandidateDevice) (bool, error)) []models.CandidateDevice {
	kept := make([]models.CandidateDevice, 0, len(in))
	for i := range in {
		ok, err := pred(&in[i])
		if err != nil {
			o.Skipped = append(o.Skipped, Skip{
				KNumber: in[i].KNumber,
				Reason:  "skipped: " + describe(&in[i]) + ": " + err.Error(),
			})
			continue
		}
		if ok {
			kept = append(kept, in[i])
		}
	}
	o.record(stage, kept)
	return kept
}

func (o *Outcome) record(stage string, kept []models.CandidateDevice) {
	o.Stages = append(o.Stages, models.StageCount{Stage: stage, Remaining: len(kept)})
}

func describe(c *models.CandidateDevice) string {
	if k := strings.TrimSpace(c.KNumber); k != "" {
		return k
	}
	if c.DeviceName != "" {
		return fmt.Sprintf("candidate %q", c.DeviceName)
	}
	return "candidate without clearance number"
}

// SkipReasons returns the reason strings of skips in order.
func SkipReasons(skips []Skip) []string {
	out := make([]string, len(skips))
	for i, s := range skips {
		out[i] = s.Reason
	}
	return out
}
