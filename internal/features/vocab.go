package features

import (
	"regexp"

	"github.com/hyperjump/predicate/internal/models"
)

// VocabularyVersion identifies the lookup tables below. Bump it when a table changes
// so audit trails show which vocabulary produced a result.
const VocabularyVersion = "2026.10.2"

// sterilizationRule is a category and the patterns that indicate it.
type sterilizationRule struct {
	Method   models.SterilizationMethod
	Patterns []*regexp.Regexp
}

// sterilizationRules are checked in order; the first category with a match wins.
// Word boundaries keep short markers like "eto" from matching inside "polyetheretherketone".
var sterilizationRules = []sterilizationRule{
	{
		Method: models.SterilizationEthyleneOxide,
		Patterns: compileAll(
			`\bethylene[\s-]+oxide\b`,
			`\beo[\s-]+sterili[sz]ed\b`,
			`\beto\b`,
			`\beo\s+sterilization\b`,
		),
	},
	{
		Method: models.SterilizationRadiation,
		Patterns: compileAll(
			`\bgamma\b`,
			`\be-beam\b`,
			`\belectron[\s-]+beam\b`,
			`\birradiat(ed|ion)\b`,
		),
	},
	{
		Method: models.SterilizationSteam,
		Patterns: compileAll(
			`\bautoclav(e|ed|able)\b`,
			`\bmoist\s+heat\b`,
			`\bsteam\b`,
		),
	},
	{
		Method: models.SterilizationNonSterile,
		Patterns: compileAll(
			`\bnon[\s-]?sterile\b`,
			`\bnot\s+(supplied\s+|provided\s+)?sterile\b`,
		),
	},
}

// materialVocabulary maps canonical material names to the substrings that indicate them.
// Matching is case-insensitive substring search over normalized text.
var materialVocabulary = []struct {
	Name     string
	Synonyms []string
}{
	{"peek", []string{"peek", "polyetheretherketone", "polyether ether ketone"}},
	{"titanium", []string{"titanium", "ti-6al-4v", "ti6al4v"}},
	{"stainless steel", []string{"stainless steel", "316l", "304 stainless"}},
	{"nitinol", []string{"nitinol", "nickel titanium", "nickel-titanium", "niti alloy"}},
	{"cobalt chromium", []string{"cobalt chromium", "cobalt-chromium", "cocr", "co-cr"}},
	{"polyethylene", []string{"polyethylene", "uhmwpe", "hdpe", "ldpe"}},
	{"silicone", []string{"silicone"}},
	{"ptfe", []string{"ptfe", "polytetrafluoroethylene", "teflon"}},
	{"nylon", []string{"nylon", "polyamide"}},
	{"polyurethane", []string{"polyurethane"}},
	{"polycarbonate", []string{"polycarbonate"}},
	{"polypropylene", []string{"polypropylene"}},
	{"pebax", []string{"pebax", "polyether block amide"}},
	{"platinum", []string{"platinum", "pt-ir", "platinum-iridium"}},
	{"pvc", []string{"pvc", "polyvinyl chloride"}},
	{"hydroxyapatite", []string{"hydroxyapatite"}},
	{"latex", []string{"latex"}},
	{"tantalum", []string{"tantalum"}},
	{"polyimide", []string{"polyimide"}},
	{"hydrophilic coating", []string{"hydrophilic coating", "hydrophilic coated"}},
}

// materialNegations match statements that a material is absent ("latex-free", "not made with
// natural rubber latex"). They are blanked out before material matching.
var materialNegations = compileAll(
	`\b(natural\s+rubber\s+)?(latex|pvc|dehp)[\s-]+free\b`,
	`\bfree\s+(of|from)\s+(natural\s+rubber\s+)?(latex|pvc)\b`,
	`\bnot\s+made\s+(with|of|from)\s+(natural\s+rubber\s+)?(latex|pvc)\b`,
	`\b(does|do)\s+not\s+contain\s+(natural\s+rubber\s+)?(latex|pvc)\b`,
	`\bno\s+(natural\s+rubber\s+)?(latex|pvc)\b`,
)

// standardPattern matches citations such as "ISO 10993-1", "IEC 60601-1-2:2014" or "ASTM F2063".
var standardPattern = regexp.MustCompile(`(?i)\b(ISO|IEC|ASTM|AAMI|ANSI|IEEE|EN)(?:/[A-Z]+)?[\s-]*([A-Z]{0,2}\d+(?:[-.]\d+)*)(?::\s?\d{4})?`)

// sizePattern matches a number and a dimensional unit, e.g. "6 Fr", "150cm", "0.035 in".
var sizePattern = regexp.MustCompile(`(?i)\b(\d+(?:\.\d+)?)\s*(mm|cm|fr|french|gauge|ga|in|inch|inches|ml)\b`)

// sizeUnits normalizes matched units to a compact token suffix.
var sizeUnits = map[string]string{
	"mm":     "mm",
	"cm":     "cm",
	"fr":     "fr",
	"french": "fr",
	"gauge":  "ga",
	"ga":     "ga",
	"in":     "in",
	"inch":   "in",
	"inches": "in",
	"ml":     "ml",
}

func compileAll(patterns ...string) []*regexp.Regexp {
	out := make([]*regexp.Regexp, len(patterns))
	for i, p := range patterns {
		out[i] = regexp.MustCompile(`(?i)` + p)
	}
	return out
}
