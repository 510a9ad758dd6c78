// Package storage defines the persistence interface for candidate pools and recommendation runs.
package storage

import (
	"context"
	"errors"

	"github.com/hyperjump/predicate/internal/models"
)

// ErrNotFound is returned, wrapped, when a candidate or run does not exist.
var ErrNotFound = errors.New("not found")

// Storage defines candidate and run persistence operations.
type Storage interface {
	// Candidate operations
	UpsertCandidate(ctx context.Context, c *models.CandidateDevice) error
	UpsertCandidates(ctx context.Context, cs []models.CandidateDevice) (int, error)
	GetCandidate(ctx context.Context, kNumber string) (*models.CandidateDevice, error)
	DeleteCandidate(ctx context.Context, kNumber string) error
	SetSummaryText(ctx context.Context, kNumber, text string) error
	ListCandidatesByProductCode(ctx context.Context, productCode string) ([]models.CandidateDevice, error)
	ListCandidates(ctx context.Context, offset, limit int) ([]models.CandidateDevice, error)

	// Run operations
	SaveRun(ctx context.Context, run *models.Run) error
	GetRun(ctx context.Context, id string) (*models.Run, error)

	// Import tracking
	ImportFingerprint(ctx context.Context, path string) (string, error)
	RecordImport(ctx context.Context, path, fingerprint, kind string) error

	// Stats
	CountCandidates(ctx context.Context) (int64, error)
	CountRuns(ctx context.Context) (int64, error)

	Close() error
}
