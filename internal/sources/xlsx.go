package sources

import (
	"io"

	"clinic-backoffice/pkg/errors"
	"clinic-backoffice/pkg/logger"

	"github.com/xuri/excelize/v2"
)

// ReadXLSX reads one sheet of a spreadsheet export; an empty sheet name selects
// the first sheet. skipAfterHeader drops that many rows following the header.
func ReadXLSX(r io.Reader, name, sheet string, skipAfterHeader int) (*Table, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, name, 0, "", err)
	}
	defer f.Close()

	if sheet == "" {
		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, errors.ParseError(errors.CodeEmptySheet, name, 0, "", nil)
		}
		sheet = sheets[0]
	}

	records, err := f.GetRows(sheet)
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, name, 0, sheet, err).
			WithContext("sheet", sheet)
	}
	if len(records) == 0 {
		return nil, errors.ParseError(errors.CodeEmptySheet, name, 0, "", nil).
			WithContext("sheet", sheet)
	}

	table := &Table{Name: name, Headers: cleanHeaders(records[0])}
	for i, record := range records[1:] {
		if i < skipAfterHeader || isEmptyRecord(record) {
			continue
		}
		table.Rows = append(table.Rows, toRow(table.Headers, record))
	}

	logger.GetGlobalLogger().WithComponent("xlsx_reader").WithFields(logger.Fields{
		"file":  name,
		"sheet": sheet,
		"rows":  len(table.Rows),
	}).Debug("Read spreadsheet export")

	return table, nil
}
