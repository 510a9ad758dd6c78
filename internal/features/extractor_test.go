package features

import (
	"reflect"
	"testing"

	"github.com/hyperjump/predicate/internal/models"
)

func TestDetectSterilization(t *testing.T) {
	tests := []struct {
		name string
		text string
		want models.SterilizationMethod
	}{
		{"ethylene oxide", "The device is sterilized using Ethylene Oxide to SAL 10^-6.", models.SterilizationEthyleneOxide},
		{"eto abbreviation", "Supplied sterile (EtO).", models.SterilizationEthyleneOxide},
		{"eo sterilized", "EO sterilized, single use.", models.SterilizationEthyleneOxide},
		{"gamma", "Gamma irradiation per ISO 11137.", models.SterilizationRadiation},
		{"electron beam", "Sterilized by electron beam.", models.SterilizationRadiation},
		{"autoclave", "Reusable; autoclave between uses.", models.SterilizationSteam},
		{"moist heat", "Moist heat sterilization validated.", models.SterilizationSteam},
		{"non-sterile", "Provided non-sterile.", models.SterilizationNonSterile},
		{"first match wins", "EtO sterilized; may be resterilized with steam.", models.SterilizationEthyleneOxide},
		{"eto inside word does not match", "Polyetheretherketone body.", models.SterilizationUnknown},
		{"nothing", "A catheter.", models.SterilizationUnknown},
		{"empty", "", models.SterilizationUnknown},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := DetectSterilization(tt.text); got != tt.want {
				t.Errorf("DetectSterilization(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestExtractMaterials(t *testing.T) {
	text := "Shaft of PEBAX and Nylon with a PTFE liner; Nitinol braid. Pebax jacket."
	got := ExtractMaterials(text)
	want := []string{"nitinol", "nylon", "pebax", "ptfe"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractMaterials() = %v, want %v", got, want)
	}
	if got := ExtractMaterials("no materials here"); len(got) != 0 {
		t.Errorf("expected empty set, got %v", got)
	}
}

func TestExtractMaterials_Negated(t *testing.T) {
	tests := []struct {
		text string
		want []string
	}{
		{"Latex-free silicone balloon.", []string{"silicone"}},
		{"Not made with natural rubber latex. PTFE liner.", []string{"ptfe"}},
		{"The device does not contain latex or PVC.", []string{"pvc"}},
		{"Free of natural rubber latex; DEHP-free PVC tubing.", []string{"pvc"}},
		{"No latex components.", []string{}},
		{"Natural rubber latex cuff.", []string{"latex"}},
	}
	for _, tt := range tests {
		got := ExtractMaterials(tt.text)
		if !reflect.DeepEqual(got, tt.want) {
			t.Errorf("ExtractMaterials(%q) = %v, want %v", tt.text, got, tt.want)
		}
	}
}

func TestNormalizeMaterials(t *testing.T) {
	got := NormalizeMaterials([]string{"Polyetheretherketone", "PEEK", " Teflon ", "Unobtainium"})
	want := []string{"peek", "ptfe", "unobtainium"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("NormalizeMaterials() = %v, want %v", got, want)
	}
}

func TestExtractStandards(t *testing.T) {
	text := "Tested per ISO 10993-1:2018, iso 10993-5, IEC 60601-1-2, ASTM F2063 and ANSI/AAMI ST72. ISO 10993-1 again."
	got := ExtractStandards(text)
	want := []string{"ANSI ST72", "ASTM F2063", "IEC 60601-1-2", "ISO 10993-1", "ISO 10993-5"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractStandards() = %v, want %v", got, want)
	}
}

func TestNormalizeStandard(t *testing.T) {
	tests := map[string]string{
		"ISO 10993-1":      "ISO 10993-1",
		"iso10993-1:2009":  "ISO 10993-1",
		"  ASTM  f2063 ":   "ASTM F2063",
		"internal spec 12": "INTERNAL SPEC 12",
	}
	for in, want := range tests {
		if got := NormalizeStandard(in); got != want {
			t.Errorf("NormalizeStandard(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestExtractSizes(t *testing.T) {
	got := ExtractSizes("Available in 6 Fr and 8French, lengths 150cm and 150 cm; 0.035 in guidewire.")
	want := []string{"0.035in", "150cm", "6fr", "8fr"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("ExtractSizes() = %v, want %v", got, want)
	}
}

func TestExtract_Deterministic(t *testing.T) {
	text := "Titanium and PEEK cage, gamma sterilized, ISO 10993-1, 10 mm."
	a := Extract(text)
	b := Extract(text)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("Extract not deterministic: %v vs %v", a, b)
	}
	if a.Sterilization != models.SterilizationRadiation {
		t.Errorf("sterilization = %q", a.Sterilization)
	}
	if !reflect.DeepEqual(a.Materials, []string{"peek", "titanium"}) {
		t.Errorf("materials = %v", a.Materials)
	}
	if !reflect.DeepEqual(a.Sizes, []string{"10mm"}) {
		t.Errorf("sizes = %v", a.Sizes)
	}
}

func TestForSubject(t *testing.T) {
	s := &models.SubjectDevice{
		ProductCode:         "DQY",
		DeviceDescription:   "A 6 Fr delivery catheter sterilized by ethylene oxide.",
		Materials:           []string{"Pebax", "nylon"},
		StandardsReferenced: []string{"iso 10993-1"},
		Dimensions:          []string{"150 cm"},
	}
	f := ForSubject(s)
	if f.Sterilization != models.SterilizationEthyleneOxide {
		t.Errorf("sterilization fallback = %q", f.Sterilization)
	}
	if !reflect.DeepEqual(f.Materials, []string{"nylon", "pebax"}) {
		t.Errorf("materials = %v", f.Materials)
	}
	if !reflect.DeepEqual(f.Standards, []string{"ISO 10993-1"}) {
		t.Errorf("standards = %v", f.Standards)
	}
	if !reflect.DeepEqual(f.Sizes, []string{"150cm", "6fr"}) {
		t.Errorf("sizes = %v", f.Sizes)
	}

	s.SterilizationMethod = models.SterilizationSteam
	if got := ForSubject(s).Sterilization; got != models.SterilizationSteam {
		t.Errorf("declared method should win, got %q", got)
	}
}
