// Package cli renders recommendation results for the command line.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/hyperjump/predicate/internal/models"
	"github.com/hyperjump/predicate/pkg/utils"
)

// OutputFormat is the format for recommendation output.
type OutputFormat string

const (
	// OutputText is a human-readable report listing every score component (default).
	OutputText OutputFormat = "text"
	// OutputCompact is one line per recommendation.
	OutputCompact OutputFormat = "compact"
	// OutputJSON is structured JSON for machine consumption.
	OutputJSON OutputFormat = "json"
)

// ParseFormat converts a flag value to an OutputFormat. Empty means text.
func ParseFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(strings.ToLower(strings.TrimSpace(s))); f {
	case "":
		return OutputText, nil
	case OutputText, OutputCompact, OutputJSON:
		return f, nil
	default:
		return "", fmt.Errorf("unknown output format %q (want text, compact or json)", s)
	}
}

// WriteResult writes result to w in the given format.
func WriteResult(w io.Writer, result *models.RecommendationResult, format OutputFormat) error {
	switch format {
	case OutputJSON:
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(result)
	case OutputCompact:
		return writeCompact(w, result)
	default:
		return writeText(w, result)
	}
}

func writeCompact(w io.Writer, result *models.RecommendationResult) error {
	if len(result.Recommendations) == 0 {
		_, err := fmt.Fprintf(w, "%s: %s\n", result.Subject.ProductCode, result.SearchSummary.Status)
		return err
	}
	for _, rec := range result.Recommendations {
		_, err := fmt.Fprintf(w, "%d\t%s\t%.2f\tsim=%.2f\trisk=%.2f\t%s\n",
			rec.Rank, rec.Candidate.KNumber, rec.FinalScore, rec.SimilarityScore, rec.RiskScore,
			utils.Truncate(rec.Candidate.DeviceName, 40))
		if err != nil {
			return err
		}
	}
	return nil
}

func writeText(w io.Writer, result *models.RecommendationResult) error {
	ew := &errWriter{w: w}
	sum := result.SearchSummary
	ew.printf("\nPredicate recommendations for product code %s\n", result.Subject.ProductCode)
	ew.printf("Searched %d, %d after filtering, %d skipped, %d returned (as of %s)\n\n",
		sum.TotalSearched, sum.AfterFilter, sum.Skipped, sum.Returned, result.Audit.AsOf)

	if len(result.Recommendations) == 0 {
		ew.printf("No matching predicates.\n")
	}
	for _, rec := range result.Recommendations {
		c := rec.Candidate
		ew.printf("─────────────────────────────────────────────────────────\n")
		ew.printf("#%d %s  final %.2f  (similarity %.2f, risk %.2f)\n",
			rec.Rank, c.KNumber, rec.FinalScore, rec.SimilarityScore, rec.RiskScore)
		if c.DeviceName != "" {
			ew.printf("   %s", c.DeviceName)
			if c.Applicant != "" {
				ew.printf(" by %s", c.Applicant)
			}
			ew.printf("\n")
		}
		if c.ClearanceDate != "" {
			ew.printf("   Cleared %s\n", c.ClearanceDate)
		}
		ew.printf("   Text %.2f, features %.2f\n", rec.TextSimilarity, rec.FeatureSimilarity)
		for _, a := range rec.Breakdown.Similarity {
			ew.printf("     + %s\n", a.Label)
		}
		for _, a := range rec.Breakdown.Penalties {
			ew.printf("     - %s\n", a.Label)
		}
		for _, a := range rec.Breakdown.Bonuses {
			ew.printf("     + %s\n", a.Label)
		}
		if len(rec.Breakdown.SharedTerms) > 0 {
			ew.printf("   Shared terms: %s\n", strings.Join(rec.Breakdown.SharedTerms, ", "))
		}
	}

	if len(result.Audit.Skipped) > 0 {
		ew.printf("\nSkipped:\n")
		for _, s := range result.Audit.Skipped {
			ew.printf("  %s\n", s)
		}
	}
	ew.printf("\n")
	return ew.err
}

// errWriter keeps the first write error so a report can be written without checking every line.
type errWriter struct {
	w   io.Writer
	err error
}

func (e *errWriter) printf(format string, args ...interface{}) {
	if e.err != nil {
		return
	}
	_, e.err = fmt.Fprintf(e.w, format, args...)
}
