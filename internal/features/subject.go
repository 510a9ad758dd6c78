package features

import (
	"github.com/hyperjump/predicate/internal/models"
)

// ForSubject builds the feature set of the subject device. Declared attributes are used as given;
// the sterilization method falls back to text detection only when it is not declared, and size tokens
// combine declared dimensions with those mentioned in the descriptive text.
func ForSubject(s *models.SubjectDevice) Features {
	text := s.Text()
	f := Features{
		Sterilization: s.SterilizationMethod,
		Materials:     NormalizeMaterials(s.Materials),
		Standards:     NormalizeStandards(s.StandardsReferenced),
	}
	if !f.Sterilization.Known() {
		f.Sterilization = DetectSterilization(text)
	}
	sizes := make(map[string]struct{})
	for _, tok := range NormalizeSizes(s.Dimensions) {
		sizes[tok] = struct{}{}
	}
	for _, tok := range Extract(text).Sizes {
		sizes[tok] = struct{}{}
	}
	f.Sizes = sortedKeys(sizes)
	return f
}
