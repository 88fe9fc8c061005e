// Package sources reads the clinic's exports into raw tables.
//
// Exports come as CSV or as spreadsheets. Every cell is kept as the string the
// export holds; typing the values is the job of the normalize package.
package sources

import (
	"strings"

	"clinic-backoffice/internal/models"
	"clinic-backoffice/pkg/errors"
)

// Table is a parsed export: its header row and one Row per data line
type Table struct {
	Name    string
	Headers []string
	Rows    []models.Row
}

// HasColumn reports whether the table has a header
func (t *Table) HasColumn(name string) bool {
	for _, header := range t.Headers {
		if header == name {
			return true
		}
	}
	return false
}

// Require fails with a missing-column error naming every absent column
func (t *Table) Require(columns ...string) error {
	var missing []string
	for _, column := range columns {
		if column != "" && !t.HasColumn(column) {
			missing = append(missing, column)
		}
	}
	if len(missing) > 0 {
		return errors.ParseError(errors.CodeMissingColumn, t.Name, 1, strings.Join(missing, ", "), nil).
			WithContext("available_headers", t.Headers)
	}
	return nil
}

// cleanHeaders trims headers and drops a UTF-8 byte order mark
func cleanHeaders(headers []string) []string {
	cleaned := make([]string, len(headers))
	for i, header := range headers {
		if i == 0 {
			header = strings.TrimPrefix(header, "\ufeff")
		}
		cleaned[i] = strings.TrimSpace(header)
	}
	return cleaned
}

func isEmptyRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

// toRow keys a record by header. Short records leave the trailing columns empty
// and cells beyond the header row are ignored.
func toRow(headers, record []string) models.Row {
	row := make(models.Row, len(headers))
	for i, header := range headers {
		if header == "" {
			continue
		}
		if i < len(record) {
			row[header] = record[i]
		} else {
			row[header] = ""
		}
	}
	return row
}
