package cmd

import (
	"context"
	"io"
	"os"
	"path/filepath"

	"clinic-backoffice/internal/commissions"
	"clinic-backoffice/internal/reconciler"
	"clinic-backoffice/internal/reporter"
	"clinic-backoffice/internal/service"
	"clinic-backoffice/internal/sources"
	"clinic-backoffice/internal/store"
	"clinic-backoffice/pkg/errors"
	"clinic-backoffice/pkg/logger"
)

// output flags shared by the reporting commands
var (
	outputFormat string
	outputFile   string
)

// backend is where a command reads its records from
type backend struct {
	snapshots service.Snapshots
	revenue   service.RevenueSource
	close     func() error

	files *sources.FileSnapshots
	paths sources.Paths
}

// preload reads the exports picked from the backend paths up front. One-shot
// commands use it; the server keeps re-reading so updated exports are served.
func (b *backend) preload(ctx context.Context, picks ...func(sources.Paths) string) error {
	if b.files == nil {
		return nil
	}
	files := make([]string, 0, len(picks))
	for _, pick := range picks {
		files = append(files, pick(b.paths))
	}
	return b.files.Preload(ctx, files...)
}

// openBackend prefers export files given on the command line or in the settings
// and falls back to the database when a DSN is configured.
func openBackend(overrides sources.Paths, needed ...func(sources.Paths) string) (*backend, error) {
	paths := mergePaths(settings.Sources, overrides)

	haveFiles := len(needed) > 0
	for _, pick := range needed {
		if pick(paths) == "" {
			haveFiles = false
		}
	}

	if haveFiles {
		for _, pick := range needed {
			if err := validateFileExists(pick(paths)); err != nil {
				return nil, err
			}
		}
		parse, err := settings.ParseConfig()
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "csv", nil, err)
		}
		loader := sources.NewLoader(parse).WithSheet(settings.CSV.Sheet)
		snapshots := sources.NewFileSnapshots(paths, settings.Columns, settings.DateLayouts, loader)
		return &backend{snapshots: snapshots, close: func() error { return nil }, files: snapshots, paths: paths}, nil
	}

	if settings.HasDatabase() {
		db, err := store.Open(settings.Store, settings.Columns)
		if err != nil {
			return nil, err
		}
		return &backend{snapshots: db, revenue: db, close: db.Close}, nil
	}

	return nil, errors.ConfigurationError(errors.CodeMissingConfig, "sources", nil, nil).
		WithSuggestion("Pass the export files as flags or set BACKOFFICE_STORE_DSN")
}

func mergePaths(base, overrides sources.Paths) sources.Paths {
	if overrides.Appointments != "" {
		base.Appointments = overrides.Appointments
	}
	if overrides.Treatments != "" {
		base.Treatments = overrides.Treatments
	}
	if overrides.Payments != "" {
		base.Payments = overrides.Payments
	}
	if overrides.PersonalData != "" {
		base.PersonalData = overrides.PersonalData
	}
	return base
}

func newService(snapshots service.Snapshots) (*service.Service, error) {
	engine, err := reconciler.NewEngine(settings.Checks)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "checks", nil, err)
	}
	calculator, err := commissions.NewCalculator(settings.Commissions)
	if err != nil {
		return nil, err
	}
	return service.New(snapshots, engine, calculator), nil
}

// writeReport renders result to --output-file or stdout
func writeReport(result interface{}, stdout io.Writer) error {
	reportConfig, err := settings.ReportConfig(outputFormat)
	if err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "output-format", outputFormat, err).
			WithSuggestion("Valid formats: console, json, csv")
	}
	generator, err := reporter.NewSafeReportGenerator(reportConfig, logger.GetGlobalLogger())
	if err != nil {
		return err
	}

	out := stdout
	if outputFile != "" {
		if dir := filepath.Dir(outputFile); dir != "." {
			if _, err := os.Stat(dir); os.IsNotExist(err) {
				return errors.FileError(errors.CodeFileNotFound, dir, err).
					WithSuggestion("Create the output directory first")
			}
		}
		file, err := os.Create(outputFile)
		if err != nil {
			return errors.FileError(errors.CodeFilePermission, outputFile, err)
		}
		defer file.Close()
		out = file
	}

	return generator.GenerateReportSafely(result, out)
}

func validateFileExists(path string) error {
	info, err := os.Stat(path)
	if os.IsNotExist(err) {
		return errors.FileError(errors.CodeFileNotFound, path, err)
	}
	if err != nil {
		return errors.FileError(errors.CodeFilePermission, path, err)
	}
	if info.IsDir() {
		return errors.FileError(errors.CodeUnsupportedFile, path, nil).
			WithSuggestion("Pass a file, not a directory")
	}
	return nil
}
