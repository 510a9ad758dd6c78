// Package pool loads candidate pools and subject device profiles from files.
package pool

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/hyperjump/predicate/internal/models"
)

// Extensions are the file types a candidate pool can be loaded from.
var Extensions = []string{".json", ".csv", ".xlsx"}

// IsPoolFile reports whether path has a candidate pool extension.
func IsPoolFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, e := range Extensions {
		if e == ext {
			return true
		}
	}
	return false
}

// LoadCandidates reads a candidate pool from path, dispatching on its extension.
// A document whose top level is malformed fails with an InvalidInputError. Individual
// candidates are not validated here; the engine skips malformed ones.
func LoadCandidates(path string) ([]models.CandidateDevice, error) {
	ext := strings.ToLower(filepath.Ext(path))
	if ext == ".xlsx" {
		return LoadCandidatesXLSX(path)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open pool %s: %w", filepath.Base(path), err)
	}
	defer f.Close()

	switch ext {
	case ".json":
		return DecodeCandidatesJSON(f)
	case ".csv":
		return DecodeCandidatesCSV(f)
	default:
		return nil, &models.InvalidInputError{Field: "pool", Reason: fmt.Sprintf("unsupported pool format %q", ext)}
	}
}

// DecodeCandidatesJSON decodes either a bare array of candidates or an object of the form
// {"candidates": [...]}. A JSON null is an empty pool.
func DecodeCandidatesJSON(r io.Reader) ([]models.CandidateDevice, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read pool: %w", err)
	}
	data = bytes.TrimSpace(data)
	if len(data) == 0 {
		return nil, &models.InvalidInputError{Field: "pool", Reason: "empty document"}
	}

	switch data[0] {
	case '[':
		var pool []models.CandidateDevice
		if err := json.Unmarshal(data, &pool); err != nil {
			return nil, &models.InvalidInputError{Field: "pool", Reason: err.Error()}
		}
		return nonNil(pool), nil
	case '{':
		var doc struct {
			Candidates *[]models.CandidateDevice `json:"candidates"`
		}
		if err := json.Unmarshal(data, &doc); err != nil {
			return nil, &models.InvalidInputError{Field: "pool", Reason: err.Error()}
		}
		if doc.Candidates == nil {
			return nil, &models.InvalidInputError{Field: "pool", Reason: `object has no "candidates" array`}
		}
		return nonNil(*doc.Candidates), nil
	case 'n':
		if string(data) == "null" {
			return []models.CandidateDevice{}, nil
		}
	}
	return nil, &models.InvalidInputError{Field: "pool", Reason: "expected a JSON array or object"}
}

func nonNil(pool []models.CandidateDevice) []models.CandidateDevice {
	if pool == nil {
		return []models.CandidateDevice{}
	}
	return pool
}
