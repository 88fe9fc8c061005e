package sources

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"unicode/utf8"

	"clinic-backoffice/pkg/errors"
	"clinic-backoffice/pkg/logger"
)

// ParseConfig holds configuration for reading exports
type ParseConfig struct {
	Delimiter        rune `json:"delimiter" mapstructure:"delimiter"`
	Comment          rune `json:"comment" mapstructure:"comment"`
	TrimLeadingSpace bool `json:"trim_leading_space" mapstructure:"trim_leading_space"`
	SkipEmptyRows    bool `json:"skip_empty_rows" mapstructure:"skip_empty_rows"`
	// SkipAfterHeader drops lines following the header row; some practice
	// management exports repeat a caption there.
	SkipAfterHeader  int  `json:"skip_after_header" mapstructure:"skip_after_header"`
	MaxFieldSize     int  `json:"max_field_size" mapstructure:"max_field_size"`
	ValidateEncoding bool `json:"validate_encoding" mapstructure:"validate_encoding"`
}

// DefaultParseConfig returns a configuration with sensible defaults
func DefaultParseConfig() *ParseConfig {
	return &ParseConfig{
		Delimiter:        ',',
		TrimLeadingSpace: true,
		SkipEmptyRows:    true,
		MaxFieldSize:     1000000,
		ValidateEncoding: true,
	}
}

// Validate validates the configuration
func (c *ParseConfig) Validate() error {
	if c.Delimiter == 0 || c.Delimiter == '\n' || c.Delimiter == '\r' || c.Delimiter == '"' {
		return fmt.Errorf("invalid delimiter %q", c.Delimiter)
	}
	if c.Comment == c.Delimiter {
		return fmt.Errorf("comment character cannot equal the delimiter")
	}
	if c.SkipAfterHeader < 0 {
		return fmt.Errorf("skip after header cannot be negative: %d", c.SkipAfterHeader)
	}
	if c.MaxFieldSize < 0 {
		return fmt.Errorf("max field size cannot be negative: %d", c.MaxFieldSize)
	}
	return nil
}

// ReadCSV reads a CSV export whose first line is the header row
func ReadCSV(r io.Reader, name string, config *ParseConfig) (*Table, error) {
	if config == nil {
		config = DefaultParseConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "sources.csv", nil, err)
	}

	log := logger.GetGlobalLogger().WithComponent("csv_reader").WithField("file", name)

	if config.ValidateEncoding {
		data, err := io.ReadAll(r)
		if err != nil {
			return nil, errors.FileError(errors.CodeInvalidFormat, name, err)
		}
		if err := validateEncoding(data, name); err != nil {
			return nil, err
		}
		r = bytes.NewReader(data)
	}

	reader := csv.NewReader(r)
	reader.Comma = config.Delimiter
	reader.Comment = config.Comment
	reader.TrimLeadingSpace = config.TrimLeadingSpace
	reader.FieldsPerRecord = -1

	headers, err := reader.Read()
	if err == io.EOF {
		return nil, errors.ParseError(errors.CodeEmptySheet, name, 0, "", nil)
	}
	if err != nil {
		return nil, errors.ParseError(errors.CodeInvalidFormat, name, 1, "headers", err)
	}

	table := &Table{Name: name, Headers: cleanHeaders(headers)}
	line := 1
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		line++
		if err != nil {
			return nil, errors.ParseError(errors.CodeInvalidFormat, name, line, "", err)
		}
		if line-1 <= config.SkipAfterHeader {
			continue
		}
		if config.SkipEmptyRows && isEmptyRecord(record) {
			continue
		}
		if config.MaxFieldSize > 0 {
			for i, field := range record {
				if len(field) > config.MaxFieldSize {
					return nil, errors.ParseError(errors.CodeInvalidFormat, name, line, fmt.Sprintf("field_%d", i),
						fmt.Errorf("field exceeds maximum size of %d bytes", config.MaxFieldSize))
				}
			}
		}
		table.Rows = append(table.Rows, toRow(table.Headers, record))
	}

	log.WithFields(logger.Fields{
		"headers": len(table.Headers),
		"rows":    len(table.Rows),
	}).Debug("Read CSV export")

	return table, nil
}

// validateEncoding checks the first lines are valid UTF-8
func validateEncoding(data []byte, name string) error {
	scanner := bufio.NewScanner(bytes.NewReader(data))
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	line := 0
	for scanner.Scan() && line < 100 {
		line++
		if !utf8.Valid(scanner.Bytes()) {
			return errors.ParseError(errors.CodeInvalidFormat, name, line, "encoding",
				fmt.Errorf("invalid UTF-8 encoding detected")).
				WithSuggestion("Save the file in UTF-8 encoding and try again")
		}
	}
	if err := scanner.Err(); err != nil {
		return errors.FileError(errors.CodeInvalidFormat, name, err)
	}
	return nil
}
