package models

import (
	"fmt"
	"strings"
	"time"
)

// Row is a raw tabular record keyed by column header, as handed over by the loaders.
type Row map[string]string

// Get returns the trimmed value of a column, or "" when the column is absent.
func (r Row) Get(column string) string {
	return strings.TrimSpace(r[column])
}

// AppointmentStatus represents the state of an appointment in the scheduling portal
type AppointmentStatus string

const (
	// StatusCompleted marks a visit that actually took place
	StatusCompleted AppointmentStatus = "Visita realizada"
	// StatusNoShow marks a patient that did not turn up
	StatusNoShow AppointmentStatus = "No ha venido"
	// StatusCancelled marks a cancelled appointment
	StatusCancelled AppointmentStatus = "Cancelada"
	// StatusScheduled marks an appointment that was never closed
	StatusScheduled AppointmentStatus = "Programada"
)

// String returns the string representation of AppointmentStatus
func (s AppointmentStatus) String() string {
	return string(s)
}

// Appointment is one row of the scheduling portal export.
// Dates are kept as the raw strings of the source; the engines parse them.
type Appointment struct {
	Date         string            `json:"date"`
	PatientName  string            `json:"patient_name"`
	Specialist   string            `json:"specialist"`
	Status       AppointmentStatus `json:"status"`
	CreatedDate  string            `json:"created_date,omitempty"`
	Services     string            `json:"services,omitempty"`
	Telephone    string            `json:"telephone,omitempty"`
	Confirmation string            `json:"confirmation,omitempty"`
}

// Treatment is one row of the practice-management treatment statistics export
type Treatment struct {
	Date           string `json:"date"`
	FirstName      string `json:"first_name"`
	LastName       string `json:"last_name"`
	SecondLastName string `json:"second_last_name"`
	DoctorID       string `json:"doctor_id"`
	Description    string `json:"description,omitempty"`
	Cost           string `json:"cost,omitempty"`
	Amount         string `json:"amount,omitempty"`
	ReferralSource string `json:"referral_source,omitempty"`
}

// FullName joins first name and both surnames with single spaces.
// The result is not normalized.
func (t Treatment) FullName() string {
	return strings.TrimSpace(fmt.Sprintf("%s %s %s", t.FirstName, t.LastName, t.SecondLastName))
}

// AlertType identifies which check raised an alert
type AlertType string

const (
	AlertInvalidStatus    AlertType = "invalid_status"
	AlertMissingTreatment AlertType = "missing_treatment"
	AlertDoctorMismatch   AlertType = "doctor_mismatch"
)

var alertLabels = map[AlertType]string{
	AlertInvalidStatus:    "Estado invalido",
	AlertMissingTreatment: "Tratamiento inexistente",
	AlertDoctorMismatch:   "Doctor erroneo",
}

// Label returns the label shown to clinic staff
func (t AlertType) Label() string {
	if label, ok := alertLabels[t]; ok {
		return label
	}
	return string(t)
}

// Alert is a data-entry discrepancy found by a reconciliation check
type Alert struct {
	Type        AlertType   `json:"type"`
	Label       string      `json:"label"`
	Message     string      `json:"message"`
	Day         time.Time   `json:"day"`
	Appointment Appointment `json:"data"`
	Suggestions []string    `json:"suggestions,omitempty"`
}

// Reminder is an unconfirmed appointment the clinic should call about
type Reminder struct {
	AppointmentName string `json:"appointment_name"`
	Telephone       string `json:"telephone"`
}
