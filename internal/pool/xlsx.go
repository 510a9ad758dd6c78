package pool

import (
	"fmt"
	"path/filepath"

	"github.com/xuri/excelize/v2"

	"github.com/hyperjump/predicate/internal/models"
)

// LoadCandidatesXLSX reads the first sheet of a workbook laid out like the CSV pool format.
func LoadCandidatesXLSX(path string) ([]models.CandidateDevice, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, &models.InvalidInputError{Field: "pool", Reason: fmt.Sprintf("open workbook %s: %v", filepath.Base(path), err)}
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, &models.InvalidInputError{Field: "pool", Reason: "workbook has no sheets"}
	}
	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("get rows for sheet %q: %w", sheets[0], err)
	}
	return decodeRows(rows)
}
