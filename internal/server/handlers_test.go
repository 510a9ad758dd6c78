package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.uber.org/zap"

	"github.com/hyperjump/predicate/internal/config"
	"github.com/hyperjump/predicate/internal/features"
	"github.com/hyperjump/predicate/internal/models"
	"github.com/hyperjump/predicate/internal/recommend"
	"github.com/hyperjump/predicate/internal/storage"
)

type mockInbox struct{ dirs []string }

func (m *mockInbox) Directories() []string { return m.dirs }

const poolBody = `[
	{"k_number":"K252417","product_code":"DQY","device_name":"Delivery Catheter",
	 "decision_text":"Braided PTFE lined catheter for coronary vascular access, ethylene oxide sterilized",
	 "clearance_date":"2025-05-01","api_validated":true},
	{"k_number":"K231176","product_code":"DQY","device_name":"Guide Catheter",
	 "decision_text":"Guide catheter for peripheral vascular access, steam sterilized",
	 "clearance_date":"2023-03-15","api_validated":true,"recalls_total":1}
]`

const subjectJSON = `{"product_code":"DQY","intended_use":"Coronary vascular access catheter","device_description":"Braided PTFE lined shaft","sterilization_method":"ethylene_oxide"}`

func newTestServer(t *testing.T) (*Server, http.Handler, *features.Cache) {
	t.Helper()
	dir := t.TempDir()
	store, err := storage.NewSQLiteStorage(filepath.Join(dir, "db.sqlite"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = store.Close() })

	cfg := &config.Config{}
	config.ApplyDefaults(cfg)
	cfg.Storage.DatabasePath = filepath.Join(dir, "db.sqlite")

	cache := features.NewCache(100)
	rec, err := recommend.New(&cfg.Ranking, recommend.WithCache(cache))
	if err != nil {
		t.Fatal(err)
	}
	srv := NewServer(rec, store, cfg, zap.NewNop(), WithCache(cache), WithInbox(&mockInbox{dirs: []string{"/inbox"}}))
	srv.now = func() time.Time { return time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC) }
	return srv, srv.Router(), cache
}

func do(t *testing.T, h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var r *http.Request
	if body == "" {
		r = httptest.NewRequest(method, path, nil)
	} else {
		r = httptest.NewRequest(method, path, strings.NewReader(body))
		r.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, r)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.NewDecoder(bytes.NewReader(w.Body.Bytes())).Decode(v); err != nil {
		t.Fatalf("decode %q: %v", w.Body.String(), err)
	}
}

func TestHandleHealth(t *testing.T) {
	_, h, _ := newTestServer(t)
	w := do(t, h, http.MethodGet, "/health", "")
	if w.Code != http.StatusOK || !strings.Contains(w.Body.String(), `"ok"`) {
		t.Errorf("health: %d %s", w.Code, w.Body.String())
	}
}

func TestRecommendFromStoredPool(t *testing.T) {
	_, h, _ := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/v1/candidates", poolBody)
	if w.Code != http.StatusCreated {
		t.Fatalf("upsert: %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodPost, "/api/v1/recommend", `{"subject":`+subjectJSON+`}`)
	if w.Code != http.StatusOK {
		t.Fatalf("recommend: %d %s", w.Code, w.Body.String())
	}
	var resp struct {
		RunID string `json:"run_id"`
		models.RecommendationResult
	}
	decode(t, w, &resp)
	if resp.RunID == "" {
		t.Error("expected a run id")
	}
	if resp.SearchSummary.Status != models.StatusOK || len(resp.Recommendations) != 2 {
		t.Fatalf("result = %+v", resp.RecommendationResult)
	}
	if resp.Recommendations[0].Candidate.KNumber != "K252417" {
		t.Errorf("top candidate = %s", resp.Recommendations[0].Candidate.KNumber)
	}
	if resp.Audit.AsOf != "2026-01-01T00:00:00Z" {
		t.Errorf("as_of = %q", resp.Audit.AsOf)
	}

	w = do(t, h, http.MethodGet, "/api/v1/runs/"+resp.RunID, "")
	if w.Code != http.StatusOK {
		t.Fatalf("get run: %d %s", w.Code, w.Body.String())
	}
	var run models.Run
	decode(t, w, &run)
	if run.ID != resp.RunID || run.Result == nil || len(run.Result.Recommendations) != 2 {
		t.Errorf("run = %+v", run)
	}
	if run.Result.Recommendations[0].FinalScore != resp.Recommendations[0].FinalScore {
		t.Error("persisted run should match the response")
	}
}

func TestRecommendInlinePool(t *testing.T) {
	_, h, _ := newTestServer(t)

	tests := []struct {
		name       string
		body       string
		wantStatus models.SearchStatus
		wantCount  int
	}{
		{
			name:       "empty pool",
			body:       `{"subject":` + subjectJSON + `,"candidates":[]}`,
			wantStatus: models.StatusNoMatchingPredicates,
		},
		{
			name:       "old candidate filtered at default date",
			body:       `{"subject":` + subjectJSON + `,"candidates":[{"k_number":"K100001","product_code":"DQY","clearance_date":"2010-01-01","api_validated":true}]}`,
			wantStatus: models.StatusNoMatchingPredicates,
		},
		{
			name:       "old candidate kept with earlier as_of",
			body:       `{"subject":` + subjectJSON + `,"as_of":"2020-01-01","candidates":[{"k_number":"K100001","product_code":"DQY","clearance_date":"2010-01-01","api_validated":true}]}`,
			wantStatus: models.StatusOK,
			wantCount:  1,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/v1/recommend", tt.body)
			if w.Code != http.StatusOK {
				t.Fatalf("status %d: %s", w.Code, w.Body.String())
			}
			if !strings.Contains(w.Body.String(), `"recommendations":[`) {
				t.Errorf("recommendations should be a JSON array: %s", w.Body.String())
			}
			var res models.RecommendationResult
			decode(t, w, &res)
			if res.SearchSummary.Status != tt.wantStatus || len(res.Recommendations) != tt.wantCount {
				t.Errorf("got status %q with %d results", res.SearchSummary.Status, len(res.Recommendations))
			}
		})
	}
}

func TestRecommendBadRequests(t *testing.T) {
	_, h, _ := newTestServer(t)
	tests := []struct {
		name string
		body string
	}{
		{"not json", `{"subject":`},
		{"missing subject", `{"top_n":3}`},
		{"bad product code", `{"subject":{"product_code":"DQ1"}}`},
		{"negative top n", `{"subject":` + subjectJSON + `,"top_n":-1}`},
		{"bad as_of", `{"subject":` + subjectJSON + `,"as_of":"01/02/2026"}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := do(t, h, http.MethodPost, "/api/v1/recommend", tt.body)
			if w.Code != http.StatusBadRequest {
				t.Errorf("status %d, want 400: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestCandidateEndpoints(t *testing.T) {
	_, h, cache := newTestServer(t)

	w := do(t, h, http.MethodPost, "/api/v1/candidates", `{"candidates":[{"k_number":"K1","product_code":"DQY"},{"k_number":"","product_code":"DQY"}]}`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("invalid batch: status %d", w.Code)
	}
	w = do(t, h, http.MethodGet, "/api/v1/candidates/K1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("rejected batch should store nothing: status %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/v1/candidates", `{"candidates":[{"k_number":"K1","product_code":"DQY","device_name":"Catheter"}]}`)
	if w.Code != http.StatusCreated {
		t.Fatalf("upsert: %d %s", w.Code, w.Body.String())
	}

	w = do(t, h, http.MethodGet, "/api/v1/candidates/K1", "")
	var c models.CandidateDevice
	decode(t, w, &c)
	if w.Code != http.StatusOK || c.DeviceName != "Catheter" {
		t.Errorf("get: %d %+v", w.Code, c)
	}

	cache.Set("K1", features.Features{})
	w = do(t, h, http.MethodDelete, "/api/v1/candidates/K1", "")
	if w.Code != http.StatusOK {
		t.Errorf("delete: %d", w.Code)
	}
	if _, ok := cache.Get("K1"); ok {
		t.Error("delete should invalidate the feature cache")
	}
	w = do(t, h, http.MethodDelete, "/api/v1/candidates/K1", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("second delete: %d", w.Code)
	}

	w = do(t, h, http.MethodPost, "/api/v1/candidates", `"nope"`)
	if w.Code != http.StatusBadRequest {
		t.Errorf("scalar body: %d", w.Code)
	}
}

func TestGetRunNotFound(t *testing.T) {
	_, h, _ := newTestServer(t)
	w := do(t, h, http.MethodGet, "/api/v1/runs/does-not-exist", "")
	if w.Code != http.StatusNotFound {
		t.Errorf("status %d", w.Code)
	}
}

func TestHandleStatus(t *testing.T) {
	_, h, _ := newTestServer(t)
	do(t, h, http.MethodPost, "/api/v1/candidates", poolBody)
	do(t, h, http.MethodPost, "/api/v1/recommend", `{"subject":`+subjectJSON+`}`)

	w := do(t, h, http.MethodGet, "/api/v1/status", "")
	if w.Code != http.StatusOK {
		t.Fatalf("status: %d", w.Code)
	}
	var out struct {
		Candidates       int64              `json:"candidates"`
		Runs             int64              `json:"runs"`
		DiskUsageBytes   int64              `json:"disk_usage_bytes"`
		Ranking          map[string]float64 `json:"ranking"`
		InboxDirectories []string           `json:"inbox_directories"`
		FeatureCache     struct {
			Entries int `json:"entries"`
		} `json:"feature_cache"`
	}
	decode(t, w, &out)
	if out.Candidates != 2 || out.Runs != 1 {
		t.Errorf("counts = %d candidates, %d runs", out.Candidates, out.Runs)
	}
	if out.DiskUsageBytes <= 0 {
		t.Error("expected disk usage")
	}
	if out.Ranking["risk_weight"] != 0.3 {
		t.Errorf("ranking snapshot = %v", out.Ranking)
	}
	if len(out.InboxDirectories) != 1 || out.FeatureCache.Entries != 2 {
		t.Errorf("status = %+v", out)
	}
}

func TestRecommendInlineCandidatesReuseKNumber(t *testing.T) {
	_, h, _ := newTestServer(t)

	recommendInline := func(decisionText string) models.ScoredCandidate {
		t.Helper()
		body := `{"subject":` + subjectJSON + `,"candidates":[{"k_number":"K222222","product_code":"DQY",` +
			`"decision_text":"` + decisionText + `","clearance_date":"2025-05-01","api_validated":true}]}`
		w := do(t, h, http.MethodPost, "/api/v1/recommend", body)
		if w.Code != http.StatusOK {
			t.Fatalf("recommend: %d %s", w.Code, w.Body.String())
		}
		var res models.RecommendationResult
		decode(t, w, &res)
		if len(res.Recommendations) != 1 {
			t.Fatalf("recommendations = %+v", res.Recommendations)
		}
		return res.Recommendations[0]
	}

	if first := recommendInline("plain"); first.FeatureSimilarity != 0 {
		t.Fatalf("feature similarity = %v, want 0", first.FeatureSimilarity)
	}
	second := recommendInline("PTFE liner, ethylene oxide sterilized")
	if second.FeatureSimilarity < 37.5 {
		t.Errorf("feature similarity = %v, want the sterilization match of the new text", second.FeatureSimilarity)
	}
}
