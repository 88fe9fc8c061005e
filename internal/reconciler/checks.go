package reconciler

import (
	"fmt"
	"strings"

	"clinic-backoffice/internal/models"
	"clinic-backoffice/internal/normalize"
	"clinic-backoffice/pkg/logger"
)

const noSuggestions = "Ninguna"

// checkStatuses flags every appointment left in a status other than the allowed ones
func (e *Engine) checkStatuses(g *dayGroup) []models.Alert {
	var alerts []models.Alert
	for _, appointment := range g.appointments {
		if e.config.isAllowed(appointment.Status) {
			continue
		}
		alerts = append(alerts, e.newAlert(models.AlertInvalidStatus, g, appointment, nil,
			fmt.Sprintf("El paciente %s con fecha %s no tiene estado en %s",
				appointment.PatientName, appointment.Date, e.config.allowedStatusList())))
	}
	return alerts
}

// checkTreatments flags completed visits with no treatment record for the same
// normalized patient name on that day, suggesting the closest recorded names.
func (e *Engine) checkTreatments(g *dayGroup) []models.Alert {
	names := make([]string, 0, len(g.treatments))
	recorded := make(map[string]bool, len(g.treatments))
	for _, treatment := range g.treatments {
		name := normalize.NormalizeName(treatment.FullName())
		names = append(names, name)
		recorded[name] = true
	}

	var alerts []models.Alert
	for _, appointment := range g.appointments {
		if appointment.Status != e.config.CompletedStatus {
			continue
		}

		patient := normalize.NormalizeName(appointment.PatientName)
		if recorded[patient] {
			continue
		}

		suggestions := e.matcher.Suggest(patient, names)
		rendered := noSuggestions
		if len(suggestions) > 0 {
			rendered = strings.Join(suggestions, ", ")
		}

		alerts = append(alerts, e.newAlert(models.AlertMissingTreatment, g, appointment, suggestions,
			fmt.Sprintf("El paciente %s con fecha %s no tiene un tratamiento realizado en %s. Sugerencias: %s",
				appointment.PatientName, appointment.Date, e.config.TreatmentSource, rendered)))
	}
	return alerts
}

// checkDoctors flags completed visits whose best-matching treatment record was
// entered under a different doctor than the one the visit was booked with.
// Treatments recorded by an exempt doctor never raise this alert, and visits booked
// with a specialist missing from the doctor directory are not checked.
func (e *Engine) checkDoctors(g *dayGroup, summary *Summary) []models.Alert {
	// A repeated name keeps its first position but points at its last record.
	byName := make(map[string]models.Treatment, len(g.treatments))
	var names []string
	for _, treatment := range g.treatments {
		name := normalize.NormalizeName(treatment.FullName())
		if _, seen := byName[name]; !seen {
			names = append(names, name)
		}
		byName[name] = treatment
	}

	var alerts []models.Alert
	for _, appointment := range g.appointments {
		if appointment.Status != e.config.CompletedStatus {
			continue
		}

		matched, ok := e.matcher.BestMatch(normalize.NormalizeName(appointment.PatientName), names)
		if !ok {
			continue
		}
		treatment := byName[matched]

		bookedID, known := e.config.Doctors.IDForName(appointment.Specialist)
		if !known {
			summary.SkippedDoctorChecks++
			e.logger.WithFields(logger.Fields{
				"patient":    appointment.PatientName,
				"specialist": appointment.Specialist,
			}).Debug("Specialist not in doctor directory, skipping doctor check")
			continue
		}

		recordedID := strings.TrimSpace(treatment.DoctorID)
		if bookedID == recordedID || e.config.isExempt(recordedID) {
			continue
		}

		recordedName := e.config.Doctors.NameForID(recordedID, e.config.UnknownDoctorName)
		alerts = append(alerts, e.newAlert(models.AlertDoctorMismatch, g, appointment, nil,
			fmt.Sprintf("Doctor no coincide para el paciente %s: %s (%s) vs. %s (%s).",
				appointment.PatientName,
				e.config.AppointmentSource, appointment.Specialist,
				e.config.TreatmentSource, recordedName)))
	}
	return alerts
}

func (e *Engine) newAlert(alertType models.AlertType, g *dayGroup, appointment models.Appointment, suggestions []string, message string) models.Alert {
	return models.Alert{
		Type:        alertType,
		Label:       alertType.Label(),
		Message:     message,
		Day:         g.day,
		Appointment: appointment,
		Suggestions: suggestions,
	}
}
