package sources

import (
	"context"
	"sync"
	"time"

	"clinic-backoffice/internal/models"
	"clinic-backoffice/internal/normalize"
	"clinic-backoffice/pkg/errors"
)

// Paths locates the export of each source. PersonalData is optional.
type Paths struct {
	Appointments string `json:"appointments" mapstructure:"appointments"`
	Treatments   string `json:"treatments" mapstructure:"treatments"`
	Payments     string `json:"payments" mapstructure:"payments"`
	PersonalData string `json:"personal_data" mapstructure:"personal_data"`
}

// FileSnapshots serves record snapshots straight from export files.
// Rows outside the requested range are left out when their date parses;
// rows with an unreadable date are handed over for the engines to count.
// Exports are re-read on every call unless they were preloaded.
type FileSnapshots struct {
	paths   Paths
	columns normalize.Columns
	layouts normalize.DateLayouts
	loader  *Loader

	mu     sync.RWMutex
	tables map[string]*Table
}

// NewFileSnapshots creates a snapshot source over the given exports
func NewFileSnapshots(paths Paths, columns normalize.Columns, layouts normalize.DateLayouts, loader *Loader) *FileSnapshots {
	if loader == nil {
		loader = NewLoader(nil)
	}
	return &FileSnapshots{paths: paths, columns: columns, layouts: layouts, loader: loader}
}

// Preload reads the given exports concurrently and keeps them for later calls.
// Blank paths are ignored.
func (s *FileSnapshots) Preload(ctx context.Context, paths ...string) error {
	files := make([]string, 0, len(paths))
	for _, path := range paths {
		if path != "" {
			files = append(files, path)
		}
	}

	tables, err := s.loader.LoadFiles(ctx, files...)
	if err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.tables == nil {
		s.tables = make(map[string]*Table, len(files))
	}
	for i, path := range files {
		s.tables[path] = tables[i]
	}
	return nil
}

// Appointments loads the scheduling portal export
func (s *FileSnapshots) Appointments(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	table, err := s.load(ctx, s.paths.Appointments, "sources.appointments", s.columns.Appointments.Required()...)
	if err != nil {
		return nil, err
	}
	rows := filterRows(table.Rows, s.columns.Appointments.Date, s.layouts.Appointments, from, to)
	return normalize.Appointments(rows, s.columns.Appointments), nil
}

// Treatments loads the treatment statistics export
func (s *FileSnapshots) Treatments(ctx context.Context, from, to time.Time) ([]models.Treatment, error) {
	table, err := s.load(ctx, s.paths.Treatments, "sources.treatments", s.columns.Treatments.Required()...)
	if err != nil {
		return nil, err
	}
	rows := filterRows(table.Rows, s.columns.Treatments.Date, s.layouts.Treatments, from, to)
	return normalize.Treatments(rows, s.columns.Treatments), nil
}

// Payments loads the billing export
func (s *FileSnapshots) Payments(ctx context.Context, from, to time.Time) ([]models.RawPayment, error) {
	table, err := s.load(ctx, s.paths.Payments, "sources.payments", s.columns.Payments.Required()...)
	if err != nil {
		return nil, err
	}
	rows := filterRows(table.Rows, s.columns.Payments.Date, s.layouts.Payments, from, to)
	return normalize.Payments(rows, s.columns.Payments), nil
}

// Referrals loads the personal data export; without one the lookup is empty
func (s *FileSnapshots) Referrals(ctx context.Context) (map[string]string, error) {
	if s.paths.PersonalData == "" {
		return map[string]string{}, nil
	}
	table, err := s.load(ctx, s.paths.PersonalData, "sources.personal_data", s.columns.PersonalData.PatientCode)
	if err != nil {
		return nil, err
	}
	return normalize.ReferralIndex(table.Rows, s.columns.PersonalData), nil
}

func (s *FileSnapshots) load(ctx context.Context, path, setting string, required ...string) (*Table, error) {
	if path == "" {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, setting, nil, nil)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	table, ok := s.tables[path]
	s.mu.RUnlock()
	if !ok {
		var err error
		if table, err = s.loader.LoadFile(path); err != nil {
			return nil, err
		}
	}
	if err := table.Require(required...); err != nil {
		return nil, err
	}
	return table, nil
}

// filterRows keeps rows whose day lies within [from, to]; zero bounds are open
func filterRows(rows []models.Row, column string, layouts []string, from, to time.Time) []models.Row {
	if from.IsZero() && to.IsZero() {
		return rows
	}
	first, _ := normalize.ParseDay(from.Format(normalize.ISODateLayout), normalize.ISODateLayout)
	last, _ := normalize.ParseDay(to.Format(normalize.ISODateLayout), normalize.ISODateLayout)

	kept := make([]models.Row, 0, len(rows))
	for _, row := range rows {
		day, ok := normalize.ParseDay(row.Get(column), layouts...)
		if ok && ((!from.IsZero() && day.Before(first)) || (!to.IsZero() && day.After(last))) {
			continue
		}
		kept = append(kept, row)
	}
	return kept
}
