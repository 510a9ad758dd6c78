// Package models defines core data structures for subject devices, predicate candidates, and recommendation results.
package models

import "strings"

// SterilizationMethod is the sterilization category of a device.
type SterilizationMethod string

const (
	SterilizationEthyleneOxide SterilizationMethod = "ethylene_oxide"
	SterilizationRadiation     SterilizationMethod = "radiation"
	SterilizationSteam         SterilizationMethod = "steam"
	SterilizationNonSterile    SterilizationMethod = "non_sterile"
	SterilizationUnknown       SterilizationMethod = "unknown"
)

// Known reports whether the method is a validated method rather than unknown/empty.
func (s SterilizationMethod) Known() bool {
	switch s {
	case SterilizationEthyleneOxide, SterilizationRadiation, SterilizationSteam, SterilizationNonSterile:
		return true
	default:
		return false
	}
}

// MAUDEClassification is the precomputed peer-percentile adverse-event bucket for a candidate.
type MAUDEClassification string

const (
	MAUDEExcellent        MAUDEClassification = "EXCELLENT"
	MAUDEGood             MAUDEClassification = "GOOD"
	MAUDEAverage          MAUDEClassification = "AVERAGE"
	MAUDEConcerning       MAUDEClassification = "CONCERNING"
	MAUDEExtremeOutlier   MAUDEClassification = "EXTREME_OUTLIER"
	MAUDEInsufficientData MAUDEClassification = "INSUFFICIENT_DATA"
	MAUDENoData           MAUDEClassification = "NO_MAUDE_DATA"
)

// ClinicalHistory indicates whether the predicate needed clinical data for clearance.
type ClinicalHistory string

const (
	ClinicalYes      ClinicalHistory = "YES"
	ClinicalNo       ClinicalHistory = "NO"
	ClinicalProbable ClinicalHistory = "PROBABLE"
	ClinicalUnlikely ClinicalHistory = "UNLIKELY"
)

// Acceptability is the externally computed citation acceptability of a candidate.
// The empty value means the flag was not precomputed.
type Acceptability string

const (
	AcceptabilityAcceptable     Acceptability = "ACCEPTABLE"
	AcceptabilityReviewRequired Acceptability = "REVIEW_REQUIRED"
	AcceptabilityNotRecommended Acceptability = "NOT_RECOMMENDED"
)

// SubjectDevice is the device seeking clearance. It is read-only for the duration of a request.
type SubjectDevice struct {
	ProductCode         string              `json:"product_code" yaml:"product_code" validate:"required,len=3,alpha"`
	DeviceName          string              `json:"device_name,omitempty" yaml:"device_name"`
	IntendedUse         string              `json:"intended_use,omitempty" yaml:"intended_use"`
	DeviceDescription   string              `json:"device_description,omitempty" yaml:"device_description"`
	IndicationsForUse   string              `json:"indications_for_use,omitempty" yaml:"indications_for_use"`
	SterilizationMethod SterilizationMethod `json:"sterilization_method,omitempty" yaml:"sterilization_method" validate:"omitempty,oneof=ethylene_oxide radiation steam non_sterile unknown"`
	Materials           []string            `json:"materials,omitempty" yaml:"materials"`
	StandardsReferenced []string            `json:"standards_referenced,omitempty" yaml:"standards_referenced"`
	// Dimensions are free-form size tokens such as "6 Fr" or "150 cm".
	Dimensions []string `json:"dimensions,omitempty" yaml:"dimensions"`
}

// Text returns the concatenated descriptive text used for similarity.
func (s *SubjectDevice) Text() string {
	return joinNonEmpty(s.IntendedUse, s.DeviceDescription, s.IndicationsForUse)
}

// CandidateDevice is a previously cleared device considered as a predicate.
type CandidateDevice struct {
	KNumber             string              `json:"k_number" yaml:"k_number" validate:"required"`
	ProductCode         string              `json:"product_code" yaml:"product_code" validate:"required,len=3,alpha"`
	DeviceName          string              `json:"device_name,omitempty" yaml:"device_name"`
	Applicant           string              `json:"applicant,omitempty" yaml:"applicant"`
	ClearanceDate       string              `json:"clearance_date,omitempty" yaml:"clearance_date"`
	DecisionText        string              `json:"decision_text,omitempty" yaml:"decision_text"`
	SummaryText         string              `json:"summary_text,omitempty" yaml:"summary_text"`
	RecallsTotal        int                 `json:"recalls_total" yaml:"recalls_total" validate:"gte=0"`
	MAUDEClassification MAUDEClassification `json:"maude_classification,omitempty" yaml:"maude_classification" validate:"omitempty,oneof=EXCELLENT GOOD AVERAGE CONCERNING EXTREME_OUTLIER INSUFFICIENT_DATA NO_MAUDE_DATA"`
	ClinicalHistory     ClinicalHistory     `json:"clinical_history,omitempty" yaml:"clinical_history" validate:"omitempty,oneof=YES NO PROBABLE UNLIKELY"`
	Acceptability       Acceptability       `json:"acceptability,omitempty" yaml:"acceptability" validate:"omitempty,oneof=ACCEPTABLE REVIEW_REQUIRED NOT_RECOMMENDED"`
	APIValidated        bool                `json:"api_validated" yaml:"api_validated"`
	SpecialControls     *bool               `json:"special_controls,omitempty" yaml:"special_controls"`
}

// Text returns the concatenated free text used for similarity and feature extraction.
func (c *CandidateDevice) Text() string {
	return joinNonEmpty(c.DeviceName, c.DecisionText, c.SummaryText)
}

func joinNonEmpty(parts ...string) string {
	kept := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			kept = append(kept, p)
		}
	}
	return strings.Join(kept, " ")
}
