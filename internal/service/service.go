// Package service wires record snapshots to the reconciliation, commission and
// reminder engines. It owns the date windows; the engines stay pure.
package service

import (
	"context"
	"strings"
	"time"

	"clinic-backoffice/internal/commissions"
	"clinic-backoffice/internal/models"
	"clinic-backoffice/internal/normalize"
	"clinic-backoffice/internal/reconciler"
	"clinic-backoffice/internal/reminders"
	"clinic-backoffice/pkg/errors"
	"clinic-backoffice/pkg/logger"

	"github.com/shopspring/decimal"
)

// Snapshots provides date-range snapshots of the clinic's records
type Snapshots interface {
	Appointments(ctx context.Context, from, to time.Time) ([]models.Appointment, error)
	Treatments(ctx context.Context, from, to time.Time) ([]models.Treatment, error)
	Payments(ctx context.Context, from, to time.Time) ([]models.RawPayment, error)
	Referrals(ctx context.Context) (map[string]string, error)
}

// RevenueSource sums collected amounts
type RevenueSource interface {
	Revenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error)
}

// Service runs the back-office operations over a snapshot source
type Service struct {
	snapshots  Snapshots
	engine     *reconciler.Engine
	calculator *commissions.Calculator
	extractor  *reminders.Extractor
	now        func() time.Time
	logger     logger.Logger
}

// Option configures a Service
type Option func(*Service)

// WithClock replaces time.Now; commission months and reminder windows derive from it
func WithClock(now func() time.Time) Option {
	return func(s *Service) {
		s.now = now
	}
}

// WithReminderExtractor replaces the default reminder extractor
func WithReminderExtractor(extractor *reminders.Extractor) Option {
	return func(s *Service) {
		s.extractor = extractor
	}
}

// New creates a service
func New(snapshots Snapshots, engine *reconciler.Engine, calculator *commissions.Calculator, opts ...Option) *Service {
	s := &Service{
		snapshots:  snapshots,
		engine:     engine,
		calculator: calculator,
		extractor:  reminders.NewExtractor(),
		now:        time.Now,
		logger:     logger.GetGlobalLogger().WithComponent("service"),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// RunChecks reconciles the appointments and treatments of [from, to]
func (s *Service) RunChecks(ctx context.Context, from, to time.Time) (*reconciler.Result, error) {
	if err := checkRange(from, to); err != nil {
		return nil, err
	}

	op := logger.NewOperationLogger("checks", s.logger).WithFields(logger.Fields{
		"from": from.Format(time.RFC3339),
		"to":   to.Format(time.RFC3339),
	})

	op.Step("load appointments")
	appointments, err := s.snapshots.Appointments(ctx, from, to)
	if err != nil {
		op.Error(err, "Checks failed")
		return nil, err
	}
	op.Step("load treatments")
	treatments, err := s.snapshots.Treatments(ctx, from, to)
	if err != nil {
		op.Error(err, "Checks failed")
		return nil, err
	}

	result := s.engine.Run(appointments, treatments)
	op.WithFields(logger.Fields{
		"run_id":       result.RunID,
		"appointments": len(appointments),
		"treatments":   len(treatments),
		"alerts":       len(result.Alerts),
	}).Success("Checks completed")
	return result, nil
}

// CalculateCommissions computes a doctor's commissions for a month of the current year
func (s *Service) CalculateCommissions(ctx context.Context, monthName, doctorID string) (*commissions.Result, error) {
	year := s.now().Year()
	period, err := commissions.ParsePeriod(monthName, year)
	if err != nil {
		return nil, err
	}
	from, to := MonthRange(period.Month, year, s.now().Location())

	op := logger.NewOperationLogger("commissions", s.logger).WithFields(logger.Fields{
		"doctor": doctorID,
		"period": period.String(),
	})

	op.Step("load payments")
	payments, err := s.snapshots.Payments(ctx, from, to)
	if err != nil {
		op.Error(err, "Commissions failed")
		return nil, err
	}
	op.Step("load referrals")
	referrals, err := s.snapshots.Referrals(ctx)
	if err != nil {
		op.Error(err, "Commissions failed")
		return nil, err
	}

	result, err := s.calculator.Calculate(commissions.Request{
		DoctorID:  doctorID,
		Month:     monthName,
		Year:      year,
		Payments:  payments,
		Referrals: referrals,
	})
	if err != nil {
		op.Error(err, "Commissions failed")
		return nil, err
	}
	op.WithFields(logger.Fields{
		"run_id":    result.RunID,
		"lines":     len(payments),
		"rows":      len(result.Rows),
		"unmatched": len(result.Unmatched),
	}).Success("Commissions computed")
	return result, nil
}

// Reminders lists the appointments of the next day still waiting for confirmation
func (s *Service) Reminders(ctx context.Context) ([]models.Reminder, error) {
	from, to := reminders.Window(s.now())

	var result []models.Reminder
	err := logger.TimedOperation("reminders", s.logger, func() error {
		appointments, err := s.snapshots.Appointments(ctx, from, to)
		if err != nil {
			return err
		}
		result = s.extractor.Extract(appointments)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// Revenue sums the collected amounts of [from, to]
func (s *Service) Revenue(ctx context.Context, source RevenueSource, from, to time.Time) (decimal.Decimal, error) {
	if err := checkRange(from, to); err != nil {
		return decimal.Zero, err
	}
	return source.Revenue(ctx, from, to)
}

// MonthRange returns the first instant and the last second of a month
func MonthRange(month time.Month, year int, loc *time.Location) (time.Time, time.Time) {
	from := time.Date(year, month, 1, 0, 0, 0, 0, loc)
	to := from.AddDate(0, 1, 0).Add(-time.Second)
	return from, to
}

func checkRange(from, to time.Time) error {
	if from.IsZero() {
		return errors.ValidationError(errors.CodeMissingField, "from", "", nil)
	}
	if to.IsZero() {
		return errors.ValidationError(errors.CodeMissingField, "to", "", nil)
	}
	if to.Before(from) {
		return errors.ValidationError(errors.CodeOutOfRange, "to", to.Format(time.RFC3339), nil).
			WithSuggestion("the end of the range must not be before its start")
	}
	return nil
}

// ParseDateRange parses two ISO dates into an inclusive range ending at the last
// second of the to day. An empty to means the from day only.
func ParseDateRange(from, to string) (time.Time, time.Time, error) {
	start, err := parseDate("from", from)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	if strings.TrimSpace(to) == "" {
		to = from
	}
	end, err := parseDate("to", to)
	if err != nil {
		return time.Time{}, time.Time{}, err
	}
	end = end.AddDate(0, 0, 1).Add(-time.Second)
	if err := checkRange(start, end); err != nil {
		return time.Time{}, time.Time{}, err
	}
	return start, end, nil
}

func parseDate(field, value string) (time.Time, error) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, errors.ValidationError(errors.CodeMissingField, field, "", nil)
	}
	t, err := time.ParseInLocation(normalize.ISODateLayout, value, time.Local)
	if err != nil {
		return time.Time{}, errors.ValidationError(errors.CodeInvalidDate, field, value, err)
	}
	return t, nil
}
