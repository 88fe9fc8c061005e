// Package reminders selects the upcoming appointments the clinic still has to confirm by phone.
package reminders

import (
	"strings"
	"time"

	"clinic-backoffice/internal/models"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// Confirmation values that need no call
const (
	ConfirmationConfirmed = "Confirmada"
	ConfirmationCancelled = "Cancelada"
)

// Lookahead is how far ahead of now reminders are gathered
const Lookahead = 24 * time.Hour

// Window returns the time range whose appointments should be reminded
func Window(now time.Time) (from, to time.Time) {
	return now, now.Add(Lookahead)
}

// Extractor turns appointments into reminders
type Extractor struct {
	settled map[string]bool
}

// NewExtractor creates an extractor that skips appointments whose confirmation is
// one of settled. With no values the confirmed and cancelled states are skipped.
func NewExtractor(settled ...string) *Extractor {
	if len(settled) == 0 {
		settled = []string{ConfirmationConfirmed, ConfirmationCancelled}
	}
	e := &Extractor{
		settled: make(map[string]bool, len(settled)),
	}
	for _, s := range settled {
		e.settled[strings.TrimSpace(s)] = true
	}
	return e
}

// Extract returns a reminder for every unsettled appointment with a patient name,
// in input order. Names are title-cased and telephones lose their spaces.
func (e *Extractor) Extract(appointments []models.Appointment) []models.Reminder {
	// A Caser keeps state between calls
	title := cases.Title(language.Spanish)
	reminders := make([]models.Reminder, 0)
	for _, appointment := range appointments {
		if e.settled[strings.TrimSpace(appointment.Confirmation)] {
			continue
		}
		name := strings.ToLower(strings.TrimSpace(appointment.PatientName))
		if name == "" {
			continue
		}
		reminders = append(reminders, models.Reminder{
			AppointmentName: title.String(name),
			Telephone:       strings.ReplaceAll(strings.ToLower(strings.TrimSpace(appointment.Telephone)), " ", ""),
		})
	}
	return reminders
}

// Extract uses the default extractor
func Extract(appointments []models.Appointment) []models.Reminder {
	return NewExtractor().Extract(appointments)
}
