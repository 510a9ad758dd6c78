package textsim

import (
	"reflect"
	"testing"
)

func newTestAnalyzer(t *testing.T) *Analyzer {
	t.Helper()
	a, err := NewAnalyzer()
	if err != nil {
		t.Fatalf("NewAnalyzer() error = %v", err)
	}
	return a
}

func TestAnalyzer_Terms(t *testing.T) {
	a := newTestAnalyzer(t)

	tests := []struct {
		name string
		text string
		want []string
	}{
		{"empty", "", nil},
		{"whitespace only", "   \t\n", nil},
		{"lowercases and drops stop words", "The Catheter is for the Vessel", []string{"catheter", "vessel"}},
		{"drops single characters", "a b catheter x", []string{"catheter"}},
		{"keeps order", "guide wire delivery", []string{"guide", "wire", "delivery"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := a.Terms(tt.text)
			if len(got) == 0 && len(tt.want) == 0 {
				return
			}
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("Terms(%q) = %v, want %v", tt.text, got, tt.want)
			}
		})
	}
}

func TestDefaultAnalyzer_Shared(t *testing.T) {
	a1, err := DefaultAnalyzer()
	if err != nil {
		t.Fatalf("DefaultAnalyzer() error = %v", err)
	}
	a2, _ := DefaultAnalyzer()
	if a1 != a2 {
		t.Error("expected the same analyzer instance")
	}
}

func TestNGrams(t *testing.T) {
	terms := []string{"guide", "wire", "catheter"}

	tests := []struct {
		name       string
		minN, maxN int
		want       []string
	}{
		{"unigrams", 1, 1, []string{"guide", "wire", "catheter"}},
		{"unigrams and bigrams", 1, 2, []string{"guide", "wire", "catheter", "guide wire", "wire catheter"}},
		{"bigrams only", 2, 2, []string{"guide wire", "wire catheter"}},
		{"n larger than input", 4, 4, []string{}},
		{"invalid range clamps", 0, 0, []string{"guide", "wire", "catheter"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NGrams(terms, tt.minN, tt.maxN)
			if !reflect.DeepEqual(got, tt.want) {
				t.Errorf("NGrams(%d,%d) = %v, want %v", tt.minN, tt.maxN, got, tt.want)
			}
		})
	}
}
