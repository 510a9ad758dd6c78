package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"github.com/hyperjump/predicate/internal/models"
	"github.com/hyperjump/predicate/internal/pool"
	"github.com/hyperjump/predicate/internal/storage"
	"github.com/hyperjump/predicate/pkg/utils"
)

// recommendResponse is a recommendation result together with the id it was persisted under.
type recommendResponse struct {
	RunID string `json:"run_id"`
	*models.RecommendationResult
}

func (s *Server) handleRecommend(w http.ResponseWriter, r *http.Request) {
	var req models.RecommendRequest
	if err := decodeJSON(r, &req); err != nil {
		s.respondErr(w, err)
		return
	}
	if err := req.Validate(); err != nil {
		s.respondErr(w, err)
		return
	}

	ctx := r.Context()
	candidates := req.Candidates
	if candidates == nil {
		stored, err := s.storage.ListCandidatesByProductCode(ctx, req.Subject.ProductCode)
		if err != nil {
			s.respondErr(w, err)
			return
		}
		candidates = stored
	}

	now := s.now()
	if req.AsOf != "" {
		asOf, err := time.Parse("2006-01-02", req.AsOf)
		if err != nil {
			s.respondErr(w, &models.InvalidInputError{Field: "as_of", Reason: err.Error()})
			return
		}
		now = asOf
	}
	s.logger.Debug("recommend request",
		zap.String("product_code", req.Subject.ProductCode),
		zap.Int("pool", len(candidates)),
		zap.Int("top_n", req.TopN))

	result, err := s.recommender.RecommendAt(ctx, req.Subject, candidates, req.TopN, now)
	if err != nil {
		s.respondErr(w, err)
		return
	}

	run := &models.Run{Result: result}
	if err := s.storage.SaveRun(ctx, run); err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, recommendResponse{RunID: run.ID, RecommendationResult: result})
}

func (s *Server) handleGetRun(w http.ResponseWriter, r *http.Request) {
	run, err := s.storage.GetRun(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, run)
}

// handleUpsertCandidates stores a pool posted as an array or {"candidates": [...]}. The whole
// batch is rejected if any candidate is invalid.
func (s *Server) handleUpsertCandidates(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		s.respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	candidates, err := pool.DecodeCandidatesJSON(bytes.NewReader(body))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	for i := range candidates {
		if err := candidates[i].Validate(); err != nil {
			s.respondErr(w, err)
			return
		}
	}

	n, err := s.storage.UpsertCandidates(r.Context(), candidates)
	if err != nil {
		s.respondErr(w, err)
		return
	}
	for i := range candidates {
		s.invalidate(candidates[i].KNumber)
	}
	s.logger.Debug("candidates upserted", zap.Int("count", n))
	s.respondJSON(w, http.StatusCreated, map[string]interface{}{"imported": n, "status": "stored"})
}

func (s *Server) handleGetCandidate(w http.ResponseWriter, r *http.Request) {
	c, err := s.storage.GetCandidate(r.Context(), chi.URLParam(r, "k_number"))
	if err != nil {
		s.respondErr(w, err)
		return
	}
	s.respondJSON(w, http.StatusOK, c)
}

func (s *Server) handleDeleteCandidate(w http.ResponseWriter, r *http.Request) {
	kNumber := chi.URLParam(r, "k_number")
	s.logger.Debug("delete candidate request", zap.String("k_number", kNumber))
	if err := s.storage.DeleteCandidate(r.Context(), kNumber); err != nil {
		s.respondErr(w, err)
		return
	}
	s.invalidate(kNumber)
	s.respondJSON(w, http.StatusOK, map[string]string{"k_number": kNumber, "status": "deleted"})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	candidates, err := s.storage.CountCandidates(ctx)
	if err != nil {
		s.logger.Error("status: count candidates failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}
	runs, err := s.storage.CountRuns(ctx)
	if err != nil {
		s.logger.Error("status: count runs failed", zap.Error(err))
		s.respondErr(w, err)
		return
	}

	resp := map[string]interface{}{
		"candidates":    candidates,
		"runs":          runs,
		"database_path": s.config.Storage.DatabasePath,
		"ranking":       s.recommender.Config().Snapshot(),
	}
	if diskBytes, err := storage.DatabaseSize(s.config.Storage.DatabasePath); err == nil {
		resp["disk_usage_bytes"] = diskBytes
	}
	if s.cache != nil {
		hits, misses := s.cache.Stats()
		resp["feature_cache"] = map[string]interface{}{"entries": s.cache.Len(), "hits": hits, "misses": misses}
	}
	if s.inbox != nil {
		resp["inbox_directories"] = s.inbox.Directories()
	}
	s.respondJSON(w, http.StatusOK, resp)
}

func (s *Server) invalidate(kNumber string) {
	if s.cache != nil {
		s.cache.Invalidate(kNumber)
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	dec := json.NewDecoder(io.LimitReader(r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil {
		return &models.InvalidInputError{Reason: "invalid request body: " + err.Error()}
	}
	return nil
}

// respondErr maps err to a status: 400 for caller errors, 404 for missing records, 504 when the
// request deadline passed and 500 otherwise.
func (s *Server) respondErr(w http.ResponseWriter, err error) {
	switch {
	case models.IsInvalidInput(err):
		s.respondError(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound):
		s.respondError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, context.DeadlineExceeded):
		s.respondError(w, http.StatusGatewayTimeout, "request timed out")
	default:
		s.logger.Error("request failed", zap.Error(err))
		s.respondError(w, http.StatusInternalServerError, utils.Truncate(err.Error(), 200))
	}
}

func (s *Server) respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(data)
}

func (s *Server) respondError(w http.ResponseWriter, status int, message string) {
	s.respondJSON(w, status, map[string]string{"error": message})
}
