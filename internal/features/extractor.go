// Package features extracts discrete device attributes (sterilization, materials, standards, sizes)
// from free text using static lookup tables.
package features

import (
	"sort"
	"strconv"
	"strings"

	"github.com/hyperjump/predicate/internal/models"
	"github.com/hyperjump/predicate/pkg/utils"
)

// Features are the discrete attributes found in a device's text. Sets are sorted and deduplicated.
type Features struct {
	Sterilization models.SterilizationMethod `json:"sterilization"`
	Materials     []string                   `json:"materials"`
	Standards     []string                   `json:"standards"`
	Sizes         []string                   `json:"sizes"`
}

// Extract scans text for sterilization method, materials, cited standards and sizes.
// It is pure and deterministic.
func Extract(text string) Features {
	normalized := utils.NormalizeText(text)
	return Features{
		Sterilization: DetectSterilization(normalized),
		Materials:     ExtractMaterials(normalized),
		Standards:     ExtractStandards(normalized),
		Sizes:         ExtractSizes(normalized),
	}
}

// DetectSterilization returns the first sterilization category whose markers occur in text,
// or unknown when none does.
func DetectSterilization(text string) models.SterilizationMethod {
	if text == "" {
		return models.SterilizationUnknown
	}
	for _, rule := range sterilizationRules {
		for _, p := range rule.Patterns {
			if p.MatchString(text) {
				return rule.Method
			}
		}
	}
	return models.SterilizationUnknown
}

// ExtractMaterials returns the canonical names of vocabulary materials mentioned in text.
// Negated mentions such as "latex-free" do not count.
func ExtractMaterials(text string) []string {
	lower := strings.ToLower(text)
	for _, neg := range materialNegations {
		lower = neg.ReplaceAllString(lower, " ")
	}
	found := make(map[string]struct{})
	for _, m := range materialVocabulary {
		for _, syn := range m.Synonyms {
			if strings.Contains(lower, syn) {
				found[m.Name] = struct{}{}
				break
			}
		}
	}
	return sortedKeys(found)
}

// NormalizeMaterial maps a material name or synonym to its canonical vocabulary name.
// Names outside the vocabulary are returned lowercased and trimmed.
func NormalizeMaterial(name string) string {
	lower := strings.ToLower(utils.NormalizeText(name))
	for _, m := range materialVocabulary {
		for _, syn := range m.Synonyms {
			if lower == syn {
				return m.Name
			}
		}
	}
	return lower
}

// NormalizeMaterials normalizes and deduplicates a list of material names.
func NormalizeMaterials(names []string) []string {
	found := make(map[string]struct{}, len(names))
	for _, n := range names {
		if norm := NormalizeMaterial(n); norm != "" {
			found[norm] = struct{}{}
		}
	}
	return sortedKeys(found)
}

// ExtractStandards returns normalized standard identifiers cited in text, e.g. "ISO 10993-1".
func ExtractStandards(text string) []string {
	found := make(map[string]struct{})
	for _, m := range standardPattern.FindAllStringSubmatch(text, -1) {
		found[formatStandard(m[1], m[2])] = struct{}{}
	}
	return sortedKeys(found)
}

// NormalizeStandard normalizes a single standard identifier. Strings that do not look like
// a standard citation are uppercased and whitespace-collapsed.
func NormalizeStandard(id string) string {
	clean := utils.NormalizeText(id)
	if m := standardPattern.FindStringSubmatch(clean); m != nil {
		return formatStandard(m[1], m[2])
	}
	return strings.ToUpper(clean)
}

// NormalizeStandards normalizes and deduplicates a list of standard identifiers.
func NormalizeStandards(ids []string) []string {
	found := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		if norm := NormalizeStandard(id); norm != "" {
			found[norm] = struct{}{}
		}
	}
	return sortedKeys(found)
}

func formatStandard(org, number string) string {
	return strings.ToUpper(org) + " " + strings.ToUpper(number)
}

// ExtractSizes returns normalized size tokens such as "6fr" or "150cm".
func ExtractSizes(text string) []string {
	found := make(map[string]struct{})
	for _, m := range sizePattern.FindAllStringSubmatch(text, -1) {
		if tok := formatSize(m[1], m[2]); tok != "" {
			found[tok] = struct{}{}
		}
	}
	return sortedKeys(found)
}

// NormalizeSizes converts free-form dimension strings ("6 Fr", "150 cm") to size tokens.
func NormalizeSizes(dims []string) []string {
	found := make(map[string]struct{})
	for _, d := range dims {
		for _, tok := range ExtractSizes(utils.NormalizeText(d)) {
			found[tok] = struct{}{}
		}
	}
	return sortedKeys(found)
}

func formatSize(value, unit string) string {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return ""
	}
	suffix, ok := sizeUnits[strings.ToLower(unit)]
	if !ok {
		return ""
	}
	return strconv.FormatFloat(v, 'f', -1, 64) + suffix
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}
