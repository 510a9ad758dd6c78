package filter

import (
	"reflect"
	"strings"
	"testing"
	"time"

	"github.com/hyperjump/predicate/internal/models"
)

var testNow = time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)

func eligible(k string) models.CandidateDevice {
	return models.CandidateDevice{
		KNumber:             k,
		ProductCode:         "DQY",
		ClearanceDate:       "2023-01-15",
		MAUDEClassification: models.MAUDEGood,
		APIValidated:        true,
	}
}

func kNumbers(cs []models.CandidateDevice) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.KNumber
	}
	return out
}

func TestFilter_Apply(t *testing.T) {
	subject := &models.SubjectDevice{ProductCode: "dqy"}

	tests := []struct {
		name   string
		modify func(c *models.CandidateDevice)
		kept   bool
	}{
		{"eligible", func(c *models.CandidateDevice) {}, true},
		{"product code case-insensitive", func(c *models.CandidateDevice) { c.ProductCode = " Dqy" }, true},
		{"other product code", func(c *models.CandidateDevice) { c.ProductCode = "OVE" }, false},
		{"extreme outlier", func(c *models.CandidateDevice) { c.MAUDEClassification = models.MAUDEExtremeOutlier }, false},
		{"concerning kept", func(c *models.CandidateDevice) { c.MAUDEClassification = models.MAUDEConcerning }, true},
		{"not recommended", func(c *models.CandidateDevice) { c.Acceptability = models.AcceptabilityNotRecommended }, false},
		{"two recalls without acceptability", func(c *models.CandidateDevice) { c.RecallsTotal = 2 }, false},
		{"one recall without acceptability", func(c *models.CandidateDevice) { c.RecallsTotal = 1 }, true},
		{"recalls with review required acceptability", func(c *models.CandidateDevice) {
			c.RecallsTotal = 3
			c.Acceptability = models.AcceptabilityReviewRequired
		}, false},
		{"two recalls marked acceptable", func(c *models.CandidateDevice) {
			c.RecallsTotal = 2
			c.Acceptability = models.AcceptabilityAcceptable
		}, false},
		{"one recall with review required acceptability", func(c *models.CandidateDevice) {
			c.RecallsTotal = 1
			c.Acceptability = models.AcceptabilityReviewRequired
		}, true},
		{"older than ceiling", func(c *models.CandidateDevice) { c.ClearanceDate = "2010-01-01" }, false},
		{"just inside ceiling", func(c *models.CandidateDevice) { c.ClearanceDate = "2011-07-01" }, true},
		{"not api validated", func(c *models.CandidateDevice) { c.APIValidated = false }, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := eligible("K200001")
			tt.modify(&c)
			out := New(0).Apply(subject, []models.CandidateDevice{c}, testNow)
			if got := len(out.Kept) == 1; got != tt.kept {
				t.Errorf("kept = %v, want %v (stages %+v)", got, tt.kept, out.Stages)
			}
			if len(out.Skipped) != 0 {
				t.Errorf("unexpected skips: %+v", out.Skipped)
			}
		})
	}
}

func TestFilter_Stages(t *testing.T) {
	pool := []models.CandidateDevice{
		eligible("K1"),
		eligible("K2"),
		eligible("K3"),
		eligible("K4"),
		eligible("K5"),
		eligible("K6"),
	}
	pool[1].ProductCode = "OVE"
	pool[2].MAUDEClassification = models.MAUDEExtremeOutlier
	pool[3].RecallsTotal = 2
	pool[4].ClearanceDate = "1999-01-01"
	pool[5].APIValidated = false

	out := New(15).Apply(&models.SubjectDevice{ProductCode: "DQY"}, pool, testNow)

	want := []models.StageCount{
		{Stage: StageProductCode, Remaining: 5},
		{Stage: StageWellFormed, Remaining: 5},
		{Stage: StageMAUDEOutlier, Remaining: 4},
		{Stage: StageAcceptability, Remaining: 3},
		{Stage: StageMaxAge, Remaining: 2},
		{Stage: StageAPIValidated, Remaining: 1},
	}
	if !reflect.DeepEqual(out.Stages, want) {
		t.Errorf("Stages = %+v, want %+v", out.Stages, want)
	}
	if got := kNumbers(out.Kept); !reflect.DeepEqual(got, []string{"K1"}) {
		t.Errorf("Kept = %v", got)
	}
}

func TestFilter_Skips(t *testing.T) {
	pool := []models.CandidateDevice{
		eligible("K1"),
		eligible(""),
		eligible("K3"),
		eligible("K4"),
		eligible("K5"),
	}
	pool[2].RecallsTotal = -1
	pool[3].ClearanceDate = "sometime in 2019"
	pool[4].ClearanceDate = ""

	out := New(0).Apply(&models.SubjectDevice{ProductCode: "DQY"}, pool, testNow)

	if got := kNumbers(out.Kept); !reflect.DeepEqual(got, []string{"K1"}) {
		t.Errorf("Kept = %v", got)
	}
	if len(out.Skipped) != 4 {
		t.Fatalf("expected 4 skips, got %+v", out.Skipped)
	}
	wantFragments := []string{"missing clearance number", "negative recall count", "unparseable clearance date", "missing clearance date"}
	for i, s := range out.Skipped {
		if !strings.HasPrefix(s.Reason, "skipped: ") {
			t.Errorf("reason %q lacks prefix", s.Reason)
		}
		if !strings.Contains(s.Reason, wantFragments[i]) {
			t.Errorf("reason %q does not mention %q", s.Reason, wantFragments[i])
		}
	}
	if reasons := SkipReasons(out.Skipped); len(reasons) != 4 || reasons[0] != out.Skipped[0].Reason {
		t.Errorf("SkipReasons() = %v", reasons)
	}
}

func TestFilter_EmptyPool(t *testing.T) {
	out := New(0).Apply(&models.SubjectDevice{ProductCode: "DQY"}, nil, testNow)
	if len(out.Kept) != 0 || len(out.Skipped) != 0 {
		t.Errorf("unexpected outcome %+v", out)
	}
	if len(out.Stages) != 6 {
		t.Errorf("expected all stages recorded, got %d", len(out.Stages))
	}
}

func TestFilter_DoesNotMutatePool(t *testing.T) {
	pool := []models.CandidateDevice{eligible("K1"), eligible("K2")}
	pool[1].ProductCode = "OVE"
	before := append([]models.CandidateDevice(nil), pool...)

	out := New(0).Apply(&models.SubjectDevice{ProductCode: "DQY"}, pool, testNow)
	out.Kept[0].DeviceName = "changed"

	if !reflect.DeepEqual(pool, before) {
		t.Error("pool was modified")
	}
}

func TestNew_Default(t *testing.T) {
	if got := New(-3).MaxAgeYears(); got != DefaultMaxAgeYears {
		t.Errorf("MaxAgeYears() = %v, want %v", got, DefaultMaxAgeYears)
	}
	if got := New(7).MaxAgeYears(); got != 7 {
		t.Errorf("MaxAgeYears() = %v, want 7", got)
	}
}
