// Package importer loads candidate pools and 510(k) summary documents into storage.
package importer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"go.uber.org/zap"

	"github.com/hyperjump/predicate/internal/extract"
	"github.com/hyperjump/predicate/internal/features"
	"github.com/hyperjump/predicate/internal/fileid"
	"github.com/hyperjump/predicate/internal/models"
	"github.com/hyperjump/predicate/internal/pool"
	"github.com/hyperjump/predicate/internal/storage"
)

// Kind is the kind of file an import handled.
type Kind string

const (
	KindPool    Kind = "pool"
	KindSummary Kind = "summary"
)

// ErrUnsupported is returned for files that are neither a pool nor a summary document.
var ErrUnsupported = errors.New("unsupported file type")

// Report describes the outcome of importing one file.
type Report struct {
	Path     string   `json:"path"`
	Kind     Kind     `json:"kind"`
	Imported int      `json:"imported"`
	Skipped  []string `json:"skipped"`
	// KNumber is set for summary imports.
	KNumber string `json:"k_number,omitempty"`
	// Unchanged is set when the file matched its last recorded import and was not reloaded.
	Unchanged bool `json:"unchanged,omitempty"`
}

// Importer writes imported candidates and summaries to storage.
type Importer struct {
	storage   storage.Storage
	extractor *extract.Extractor
	cache     *features.Cache
	logger    *zap.Logger
}

// Option configures an Importer.
type Option func(*Importer)

// WithLogger sets a logger for debug output.
func WithLogger(l *zap.Logger) Option {
	return func(im *Importer) {
		if l != nil {
			im.logger = l
		}
	}
}

// WithCache sets the feature cache to invalidate when a candidate changes.
func WithCache(c *features.Cache) Option {
	return func(im *Importer) { im.cache = c }
}

// New creates an importer writing to store.
func New(store storage.Storage, opts ...Option) *Importer {
	im := &Importer{
		storage:   store,
		extractor: extract.NewExtractor(),
		logger:    zap.NewNop(),
	}
	for _, opt := range opts {
		opt(im)
	}
	return im
}

// ImportFile imports path as a candidate pool or a summary document depending on its extension,
// and records the file's fingerprint on success.
func (im *Importer) ImportFile(ctx context.Context, path string) (*Report, error) {
	return im.importFile(ctx, path, false)
}

// ImportIfChanged is ImportFile, except that a file whose content matches its last recorded
// import is skipped and reported as unchanged.
func (im *Importer) ImportIfChanged(ctx context.Context, path string) (*Report, error) {
	return im.importFile(ctx, path, true)
}

func (im *Importer) importFile(ctx context.Context, path string, skipUnchanged bool) (*Report, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("stat file: %w", err)
	}
	if !info.Mode().IsRegular() {
		return nil, fmt.Errorf("not a regular file: %s", path)
	}

	var kind Kind
	switch {
	case pool.IsPoolFile(path):
		kind = KindPool
	case extract.Supports(filepath.Ext(path)):
		kind = KindSummary
	default:
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), ErrUnsupported)
	}

	key, err := fileid.Key(path)
	if err != nil {
		return nil, err
	}
	fingerprint, err := fileid.Fingerprint(path)
	if err != nil {
		return nil, err
	}
	if skipUnchanged {
		previous, err := im.storage.ImportFingerprint(ctx, key)
		if err != nil {
			return nil, err
		}
		if previous == fingerprint {
			im.logger.Debug("Skipping unchanged file", zap.String("path", path))
			return &Report{Path: path, Kind: kind, Skipped: []string{}, Unchanged: true}, nil
		}
	}

	var report *Report
	if kind == KindPool {
		report, err = im.ImportPool(ctx, path)
	} else {
		report, err = im.AttachSummary(ctx, path)
	}
	if err != nil {
		return nil, err
	}
	if err := im.storage.RecordImport(ctx, key, fingerprint, string(kind)); err != nil {
		im.logger.Warn("Failed to record import", zap.String("path", path), zap.Error(err))
	}
	return report, nil
}

// ImportPool loads a pool file and upserts its valid candidates. Invalid candidates are
// reported in the skipped list rather than failing the import.
func (im *Importer) ImportPool(ctx context.Context, path string) (*Report, error) {
	candidates, err := pool.LoadCandidates(path)
	if err != nil {
		return nil, err
	}

	report := &Report{Path: path, Kind: KindPool, Skipped: []string{}}
	valid := make([]models.CandidateDevice, 0, len(candidates))
	for i := range candidates {
		c := &candidates[i]
		if err := c.Validate(); err != nil {
			report.Skipped = append(report.Skipped, fmt.Sprintf("%s: %v", candidateLabel(c, i), err))
			continue
		}
		valid = append(valid, *c)
	}

	n, err := im.storage.UpsertCandidates(ctx, valid)
	if err != nil {
		return nil, err
	}
	report.Imported = n
	for i := range valid {
		im.invalidate(valid[i].KNumber)
	}

	im.logger.Debug("Imported candidate pool",
		zap.String("path", path),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", len(report.Skipped)))
	return report, nil
}

// AttachSummary extracts the text of a summary document and stores it on the candidate whose
// clearance number appears in the file name.
func (im *Importer) AttachSummary(ctx context.Context, path string) (*Report, error) {
	kNumber, ok := extract.KNumberFromPath(path)
	if !ok {
		return nil, &models.InvalidInputError{Field: "path", Reason: fmt.Sprintf("no clearance number in file name %q", filepath.Base(path))}
	}
	text, err := im.extractor.Extract(path)
	if err != nil {
		return nil, fmt.Errorf("extract %s: %w", filepath.Base(path), err)
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("extract %s: no text found", filepath.Base(path))
	}
	if err := im.storage.SetSummaryText(ctx, kNumber, text); err != nil {
		return nil, err
	}
	im.invalidate(kNumber)

	im.logger.Debug("Attached summary",
		zap.String("path", path),
		zap.String("k_number", kNumber),
		zap.Int("chars", len(text)))
	return &Report{Path: path, Kind: KindSummary, Imported: 1, Skipped: []string{}, KNumber: kNumber}, nil
}

// Handle imports path if it changed since its last import and logs the outcome. It is the
// inbox watcher callback.
func (im *Importer) Handle(ctx context.Context, path string) {
	report, err := im.ImportIfChanged(ctx, path)
	if err != nil {
		im.logger.Warn("Import failed", zap.String("path", path), zap.Error(err))
		return
	}
	if report.Unchanged {
		return
	}
	im.logger.Info("Imported file",
		zap.String("path", path),
		zap.String("kind", string(report.Kind)),
		zap.Int("imported", report.Imported),
		zap.Int("skipped", len(report.Skipped)))
}

func (im *Importer) invalidate(kNumber string) {
	if im.cache != nil {
		im.cache.Invalidate(kNumber)
	}
}

func candidateLabel(c *models.CandidateDevice, i int) string {
	if k := strings.TrimSpace(c.KNumber); k != "" {
		return k
	}
	return fmt.Sprintf("entry %d", i+1)
}
