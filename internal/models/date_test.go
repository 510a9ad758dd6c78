package models

import (
	"math"
	"testing"
	"time"
)

func TestParseClearanceDate(t *testing.T) {
	want := time.Date(2023, 3, 14, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		input   string
		wantErr bool
	}{
		{"iso", "2023-03-14", false},
		{"compact", "20230314", false},
		{"us", "03/14/2023", false},
		{"rfc3339", "2023-03-14T00:00:00Z", false},
		{"padded", "  2023-03-14 ", false},
		{"empty", "", true},
		{"garbage", "14th March", true},
		{"impossible day", "2023-02-30", true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseClearanceDate(tt.input)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ParseClearanceDate(%q) error = %v, wantErr %v", tt.input, err, tt.wantErr)
			}
			if !tt.wantErr && !got.Equal(want) {
				t.Errorf("ParseClearanceDate(%q) = %v, want %v", tt.input, got, want)
			}
		})
	}
}

func TestAgeYears(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name    string
		cleared time.Time
		want    float64
	}{
		{"same day", now, 0},
		{"future", now.AddDate(1, 0, 0), 0},
		{"four years", now.Add(-4 * 365.25 * 24 * time.Hour), 4},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := AgeYears(tt.cleared, now); math.Abs(got-tt.want) > 1e-9 {
				t.Errorf("AgeYears() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestCandidateDevice_Age(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	c := &CandidateDevice{ClearanceDate: "2016-01-01"}
	age, err := c.Age(now)
	if err != nil {
		t.Fatalf("Age() error = %v", err)
	}
	if age < 9.99 || age > 10.01 {
		t.Errorf("Age() = %v, want about 10", age)
	}
	if _, err := (&CandidateDevice{ClearanceDate: "soon"}).Age(now); err == nil {
		t.Error("expected error for unparseable date")
	}
}
