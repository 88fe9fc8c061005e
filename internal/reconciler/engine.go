// Package reconciler cross-checks the scheduling portal's appointments against the
// practice-management system's treatment records and reports data-entry discrepancies.
//
// A run groups both record sets by day and applies three independent checks to each day:
//  1. Status: every appointment must be closed with an allowed status.
//  2. Existence: every completed visit needs a treatment record for the same patient.
//  3. Doctor: the treatment must be recorded under the doctor the visit was booked with.
//
// Runs are pure in-memory computations. The same input always yields the same alerts.
package reconciler

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"clinic-backoffice/internal/matcher"
	"clinic-backoffice/internal/models"
	"clinic-backoffice/internal/normalize"
	"clinic-backoffice/pkg/logger"

	"github.com/google/uuid"
)

// Engine runs the daily checks
type Engine struct {
	config  *Config
	matcher *matcher.NameMatcher
	logger  logger.Logger
}

// Result contains the outcome of one reconciliation run
type Result struct {
	RunID       string         `json:"run_id"`
	Alerts      []models.Alert `json:"alerts"`
	Summary     *Summary       `json:"summary"`
	ProcessedAt time.Time      `json:"processed_at"`
}

// Summary provides counts about a reconciliation run
type Summary struct {
	Days                int                      `json:"days"`
	FirstDay            *time.Time               `json:"first_day,omitempty"`
	LastDay             *time.Time               `json:"last_day,omitempty"`
	AppointmentsChecked int                      `json:"appointments_checked"`
	TreatmentsChecked   int                      `json:"treatments_checked"`
	BlankPatients       int                      `json:"blank_patients"`
	DroppedAppointments int                      `json:"dropped_appointments"`
	DroppedTreatments   int                      `json:"dropped_treatments"`
	SkippedDoctorChecks int                      `json:"skipped_doctor_checks"`
	ByType              map[models.AlertType]int `json:"by_type"`
	ProcessingDuration  time.Duration            `json:"processing_duration"`
}

// dayGroup holds one day's records from both sources
type dayGroup struct {
	day          time.Time
	appointments []models.Appointment
	treatments   []models.Treatment
}

// NewEngine creates a reconciliation engine
func NewEngine(config *Config) (*Engine, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid reconciliation configuration: %w", err)
	}

	nameMatcher, err := matcher.NewNameMatcher(config.Matching)
	if err != nil {
		return nil, err
	}

	return NewEngineWithMatcher(config, nameMatcher), nil
}

// NewEngineWithMatcher creates an engine around an existing name matcher
func NewEngineWithMatcher(config *Config, nameMatcher *matcher.NameMatcher) *Engine {
	return &Engine{
		config:  config.Clone(),
		matcher: nameMatcher,
		logger:  logger.GetGlobalLogger().WithComponent("reconciliation_engine"),
	}
}

// Run checks one snapshot of appointments and treatments. Records whose date does
// not parse are left out of every check. Days are visited in ascending order and
// each day contributes its status, existence and doctor alerts in that order.
func (e *Engine) Run(appointments []models.Appointment, treatments []models.Treatment) *Result {
	startTime := time.Now()
	runID := uuid.NewString()
	log := e.logger.WithField("run_id", runID)

	summary := &Summary{ByType: make(map[models.AlertType]int)}
	groups := make(map[string]*dayGroup)

	groupFor := func(day time.Time) *dayGroup {
		key := normalize.DayKey(day)
		g, ok := groups[key]
		if !ok {
			g = &dayGroup{day: day}
			groups[key] = g
		}
		return g
	}

	for _, appointment := range appointments {
		if strings.TrimSpace(appointment.PatientName) == "" {
			summary.BlankPatients++
			continue
		}
		day, ok := normalize.ParseDay(appointment.Date, e.config.AppointmentDateLayouts...)
		if !ok {
			summary.DroppedAppointments++
			log.WithFields(logger.Fields{
				"patient": appointment.PatientName,
				"date":    appointment.Date,
			}).Debug("Dropping appointment with unparseable date")
			continue
		}
		g := groupFor(day)
		g.appointments = append(g.appointments, appointment)
		summary.AppointmentsChecked++
	}

	for _, treatment := range treatments {
		day, ok := normalize.ParseDay(treatment.Date, e.config.TreatmentDateLayouts...)
		if !ok {
			summary.DroppedTreatments++
			log.WithFields(logger.Fields{
				"patient": treatment.FullName(),
				"date":    treatment.Date,
			}).Debug("Dropping treatment with unparseable date")
			continue
		}
		g := groupFor(day)
		g.treatments = append(g.treatments, treatment)
		summary.TreatmentsChecked++
	}

	days := make([]*dayGroup, 0, len(groups))
	for _, g := range groups {
		days = append(days, g)
	}
	sort.Slice(days, func(i, j int) bool {
		return days[i].day.Before(days[j].day)
	})

	alerts := make([]models.Alert, 0)
	for _, g := range days {
		dayAlerts := e.checkDay(g, summary)
		alerts = append(alerts, dayAlerts...)
	}

	for _, alert := range alerts {
		summary.ByType[alert.Type]++
	}
	summary.Days = len(days)
	if len(days) > 0 {
		first, last := days[0].day, days[len(days)-1].day
		summary.FirstDay = &first
		summary.LastDay = &last
	}
	summary.ProcessingDuration = time.Since(startTime)

	log.WithFields(logger.Fields{
		"days":                 summary.Days,
		"appointments":         summary.AppointmentsChecked,
		"treatments":           summary.TreatmentsChecked,
		"dropped_appointments": summary.DroppedAppointments,
		"dropped_treatments":   summary.DroppedTreatments,
		"alerts":               len(alerts),
	}).Info("Reconciliation run completed")

	return &Result{
		RunID:       runID,
		Alerts:      alerts,
		Summary:     summary,
		ProcessedAt: startTime,
	}
}

// checkDay runs the three checks for one day; none of them short-circuits another
func (e *Engine) checkDay(g *dayGroup, summary *Summary) []models.Alert {
	var alerts []models.Alert
	alerts = append(alerts, e.checkStatuses(g)...)
	alerts = append(alerts, e.checkTreatments(g)...)
	alerts = append(alerts, e.checkDoctors(g, summary)...)
	return alerts
}

// GetConfiguration returns a copy of the current configuration
func (e *Engine) GetConfiguration() *Config {
	return e.config.Clone()
}
