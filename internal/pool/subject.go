package pool

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/hyperjump/predicate/internal/models"
)

// LoadSubject reads a subject device profile from a .json, .yaml or .yml file and validates it.
func LoadSubject(path string) (*models.SubjectDevice, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read subject %s: %w", filepath.Base(path), err)
	}

	var subject models.SubjectDevice
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".json":
		err = json.Unmarshal(data, &subject)
	case ".yaml", ".yml":
		err = yaml.Unmarshal(data, &subject)
	default:
		return nil, &models.InvalidInputError{Field: "subject", Reason: fmt.Sprintf("unsupported subject format %q", ext)}
	}
	if err != nil {
		return nil, &models.InvalidInputError{Field: "subject", Reason: err.Error()}
	}
	if err := subject.Validate(); err != nil {
		return nil, err
	}
	return &subject, nil
}
