package utils

import (
	"testing"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		max  int
		want string
	}{
		{"catheter", 10, "catheter"},
		{"delivery catheter", 9, "delivery..."},
		{"x", 0, "x"},
		{"größe", 3, "grö..."},
	}
	for _, tt := range tests {
		if got := Truncate(tt.in, tt.max); got != tt.want {
			t.Errorf("Truncate(%q, %d) = %q, want %q", tt.in, tt.max, got, tt.want)
		}
	}
}

func TestNormalizeText(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", ""},
		{"  delivery\tcatheter \n", "delivery catheter"},
		{"ＩＳＯ １０９９３", "ISO 10993"},
		{"bell\x07char", "bellchar"},
	}
	for _, tt := range tests {
		if got := NormalizeText(tt.in); got != tt.want {
			t.Errorf("NormalizeText(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}
