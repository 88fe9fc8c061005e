package sources

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"clinic-backoffice/pkg/errors"
	"clinic-backoffice/pkg/logger"
)

// Format is the file format of an export
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// DetectFormat picks the format from the file extension
func DetectFormat(path string) (Format, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".csv", ".txt":
		return FormatCSV, nil
	case ".xlsx", ".xlsm":
		return FormatXLSX, nil
	default:
		return "", errors.FileError(errors.CodeUnsupportedFile, path, nil)
	}
}

// Loader reads export files
type Loader struct {
	config         *ParseConfig
	sheet          string
	maxConcurrency int
	logger         logger.Logger
}

// NewLoader creates a loader. A nil config uses DefaultParseConfig.
func NewLoader(config *ParseConfig) *Loader {
	if config == nil {
		config = DefaultParseConfig()
	}
	return &Loader{
		config:         config,
		maxConcurrency: 4,
		logger:         logger.GetGlobalLogger().WithComponent("export_loader"),
	}
}

// WithSheet selects the spreadsheet sheet to read instead of the first one
func (l *Loader) WithSheet(sheet string) *Loader {
	clone := *l
	clone.sheet = sheet
	return &clone
}

// LoadFile reads a CSV or spreadsheet export
func (l *Loader) LoadFile(path string) (*Table, error) {
	format, err := DetectFormat(path)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(path)
	if err != nil {
		l.logger.WithError(err).WithField("file_path", path).Error("Failed to open export")
		if os.IsNotExist(err) {
			return nil, errors.FileError(errors.CodeFileNotFound, path, err)
		}
		if os.IsPermission(err) {
			return nil, errors.FileError(errors.CodeFilePermission, path, err)
		}
		return nil, errors.FileError(errors.CodeInvalidFormat, path, err)
	}
	defer file.Close()

	name := filepath.Base(path)
	if format == FormatXLSX {
		return ReadXLSX(file, name, l.sheet, l.config.SkipAfterHeader)
	}
	return ReadCSV(file, name, l.config)
}

// LoadFiles reads several exports concurrently; tables come back in path order.
// The first error in path order is returned.
func (l *Loader) LoadFiles(ctx context.Context, paths ...string) ([]*Table, error) {
	tables := make([]*Table, len(paths))
	errs := make([]error, len(paths))
	semaphore := make(chan struct{}, l.maxConcurrency)

	var wg sync.WaitGroup
	for i, path := range paths {
		wg.Add(1)
		go func(i int, path string) {
			defer wg.Done()

			select {
			case semaphore <- struct{}{}:
				defer func() { <-semaphore }()
			case <-ctx.Done():
				errs[i] = ctx.Err()
				return
			}

			tables[i], errs[i] = l.LoadFile(path)
		}(i, path)
	}
	wg.Wait()

	for _, err := range errs {
		if err != nil {
			return nil, err
		}
	}
	return tables, nil
}

// LoadFile reads an export with the default loader
func LoadFile(path string) (*Table, error) {
	return NewLoader(nil).LoadFile(path)
}
