package pool

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/hyperjump/predicate/internal/models"
)

// columnAliases maps accepted header names, lower-cased, to candidate fields. The openFDA
// 510(k) export names are accepted alongside the native ones.
var columnAliases = map[string]string{
	"k_number":             "k_number",
	"knumber":              "k_number",
	"product_code":         "product_code",
	"productcode":          "product_code",
	"device_name":          "device_name",
	"devicename":           "device_name",
	"applicant":            "applicant",
	"clearance_date":       "clearance_date",
	"decision_date":        "clearance_date",
	"decision_text":        "decision_text",
	"decision_description": "decision_text",
	"statement_or_summary": "decision_text",
	"summary_text":         "summary_text",
	"recalls_total":        "recalls_total",
	"recalls":              "recalls_total",
	"maude_classification": "maude_classification",
	"clinical_history":     "clinical_history",
	"acceptability":        "acceptability",
	"api_validated":        "api_validated",
	"special_controls":     "special_controls",
}

// columns maps candidate fields to their position in a table row.
type columns map[string]int

// resolveColumns maps a header row to field positions. The clearance number and product code
// columns are required; unknown columns are ignored.
func resolveColumns(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, h := range header {
		name := strings.ToLower(cleanCell(h))
		name = strings.ReplaceAll(name, " ", "_")
		if field, ok := columnAliases[name]; ok {
			if _, dup := cols[field]; !dup {
				cols[field] = i
			}
		}
	}
	for _, required := range []string{"k_number", "product_code"} {
		if _, ok := cols[required]; !ok {
			return nil, &models.InvalidInputError{Field: "pool", Reason: "missing required column " + required}
		}
	}
	return cols, nil
}

func (c columns) get(row []string, field string) string {
	i, ok := c[field]
	if !ok || i >= len(row) {
		return ""
	}
	return cleanCell(row[i])
}

// candidate builds a candidate from one table row. line is the 1-based row number used in errors.
func (c columns) candidate(row []string, line int) (models.CandidateDevice, error) {
	cand := models.CandidateDevice{
		KNumber:             c.get(row, "k_number"),
		ProductCode:         c.get(row, "product_code"),
		DeviceName:          c.get(row, "device_name"),
		Applicant:           c.get(row, "applicant"),
		ClearanceDate:       c.get(row, "clearance_date"),
		DecisionText:        c.get(row, "decision_text"),
		SummaryText:         c.get(row, "summary_text"),
		MAUDEClassification: models.MAUDEClassification(strings.ToUpper(c.get(row, "maude_classification"))),
		ClinicalHistory:     models.ClinicalHistory(strings.ToUpper(c.get(row, "clinical_history"))),
		Acceptability:       models.Acceptability(strings.ToUpper(c.get(row, "acceptability"))),
	}

	if v := c.get(row, "recalls_total"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			return cand, rowError(line, "recalls_total", v)
		}
		cand.RecallsTotal = n
	}
	if v := c.get(row, "api_validated"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cand, rowError(line, "api_validated", v)
		}
		cand.APIValidated = b
	}
	if v := c.get(row, "special_controls"); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return cand, rowError(line, "special_controls", v)
		}
		cand.SpecialControls = &b
	}
	return cand, nil
}

func rowError(line int, field, value string) error {
	return &models.InvalidInputError{
		Field:  fmt.Sprintf("row %d", line),
		Reason: fmt.Sprintf("%s: unparseable value %q", field, value),
	}
}

// decodeRows converts a header row plus data rows into candidates, skipping blank rows.
func decodeRows(rows [][]string) ([]models.CandidateDevice, error) {
	if len(rows) == 0 {
		return nil, &models.InvalidInputError{Field: "pool", Reason: "missing header row"}
	}
	cols, err := resolveColumns(rows[0])
	if err != nil {
		return nil, err
	}
	out := make([]models.CandidateDevice, 0, len(rows)-1)
	for i, row := range rows[1:] {
		if blankRow(row) {
			continue
		}
		cand, err := cols.candidate(row, i+2)
		if err != nil {
			return nil, err
		}
		out = append(out, cand)
	}
	return out, nil
}

// DecodeCandidatesCSV reads a CSV pool whose first row names the columns.
func DecodeCandidatesCSV(r io.Reader) ([]models.CandidateDevice, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	rows, err := reader.ReadAll()
	if err != nil {
		return nil, &models.InvalidInputError{Field: "pool", Reason: err.Error()}
	}
	return decodeRows(rows)
}

func blankRow(row []string) bool {
	for _, cell := range row {
		if cleanCell(cell) != "" {
			return false
		}
	}
	return true
}

// cleanCell trims whitespace and a UTF-8 byte order mark.
func cleanCell(s string) string {
	return strings.TrimSpace(strings.TrimPrefix(s, "\ufeff"))
}
