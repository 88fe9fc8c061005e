package reconciler

import (
	"fmt"
	"sort"
	"strings"

	"clinic-backoffice/internal/matcher"
	"clinic-backoffice/internal/models"
	"clinic-backoffice/internal/normalize"
)

// DoctorDirectory maps practice-management doctor ids to the names used in the scheduling portal
type DoctorDirectory map[string]string

// DefaultDoctors returns the clinic's doctor table
func DefaultDoctors() DoctorDirectory {
	return DoctorDirectory{
		"15": "Anna Pevrukhina",
		"14": "Juan Millet",
		"11": "Alejandro Cordero",
		"2":  "Agusti Ferrando i Estrella",
		"18": "Claudia Degens",
		"22": "Dayana Arizaka Riquelme",
		"21": "Anna Shchilova",
		"10": "Macarena Remohi Martínez-Medina",
		"20": "Melissa Rivera",
		"23": "Carmen Herrero",
		"7":  "María Florencia Cerviche",
	}
}

// IDForName returns the id registered for an exact doctor name.
// If several ids share the name the lowest id, compared as text, wins.
func (d DoctorDirectory) IDForName(name string) (string, bool) {
	name = strings.TrimSpace(name)
	var ids []string
	for id, doctor := range d {
		if doctor == name {
			ids = append(ids, id)
		}
	}
	if len(ids) == 0 {
		return "", false
	}
	sort.Strings(ids)
	return ids[0], true
}

// NameForID returns the doctor's name, or fallback for an unknown id
func (d DoctorDirectory) NameForID(id, fallback string) string {
	if name, ok := d[id]; ok {
		return name
	}
	return fallback
}

// Config holds the reference data and parameters of a reconciliation run
type Config struct {
	// CompletedStatus is the status that requires a matching treatment record
	CompletedStatus models.AppointmentStatus `json:"completed_status" mapstructure:"completed_status"`

	// AllowedStatuses are the statuses an appointment may be closed with
	AllowedStatuses []models.AppointmentStatus `json:"allowed_statuses" mapstructure:"allowed_statuses"`

	Doctors DoctorDirectory `json:"doctors" mapstructure:"doctors"`

	// ExemptDoctorIDs never raise a doctor mismatch; they cover for other doctors
	ExemptDoctorIDs []string `json:"exempt_doctor_ids" mapstructure:"exempt_doctor_ids"`

	AppointmentDateLayouts []string `json:"appointment_date_layouts" mapstructure:"appointment_date_layouts"`
	TreatmentDateLayouts   []string `json:"treatment_date_layouts" mapstructure:"treatment_date_layouts"`

	// Source names used in alert messages
	AppointmentSource string `json:"appointment_source" mapstructure:"appointment_source"`
	TreatmentSource   string `json:"treatment_source" mapstructure:"treatment_source"`
	UnknownDoctorName string `json:"unknown_doctor_name" mapstructure:"unknown_doctor_name"`

	Matching *matcher.MatchingConfig `json:"matching" mapstructure:"matching"`
}

// DefaultConfig returns the configuration of the clinic's daily checks
func DefaultConfig() *Config {
	layouts := normalize.DefaultDateLayouts()
	return &Config{
		CompletedStatus: models.StatusCompleted,
		AllowedStatuses: []models.AppointmentStatus{
			models.StatusCompleted,
			models.StatusNoShow,
			models.StatusCancelled,
		},
		Doctors:                DefaultDoctors(),
		ExemptDoctorIDs:        []string{"18"},
		AppointmentDateLayouts: layouts.Appointments,
		TreatmentDateLayouts:   layouts.Treatments,
		AppointmentSource:      "Doctoralia",
		TreatmentSource:        "Cliniwin",
		UnknownDoctorName:      "Desconocido",
		Matching:               matcher.DefaultMatchingConfig(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if strings.TrimSpace(string(c.CompletedStatus)) == "" {
		return fmt.Errorf("completed status cannot be empty")
	}

	if len(c.AllowedStatuses) == 0 {
		return fmt.Errorf("at least one allowed status is required")
	}

	completedAllowed := false
	for _, status := range c.AllowedStatuses {
		if status == c.CompletedStatus {
			completedAllowed = true
		}
	}
	if !completedAllowed {
		return fmt.Errorf("completed status %q must be one of the allowed statuses", c.CompletedStatus)
	}

	if len(c.AppointmentDateLayouts) == 0 || len(c.TreatmentDateLayouts) == 0 {
		return fmt.Errorf("date layouts are required for both sources")
	}

	if c.Matching == nil {
		return fmt.Errorf("matching configuration is required")
	}
	if err := c.Matching.Validate(); err != nil {
		return fmt.Errorf("invalid matching configuration: %w", err)
	}

	return nil
}

// Clone creates a deep copy of the configuration
func (c *Config) Clone() *Config {
	if c == nil {
		return nil
	}

	clone := *c
	clone.AllowedStatuses = append([]models.AppointmentStatus(nil), c.AllowedStatuses...)
	clone.ExemptDoctorIDs = append([]string(nil), c.ExemptDoctorIDs...)
	clone.AppointmentDateLayouts = append([]string(nil), c.AppointmentDateLayouts...)
	clone.TreatmentDateLayouts = append([]string(nil), c.TreatmentDateLayouts...)
	clone.Doctors = make(DoctorDirectory, len(c.Doctors))
	for id, name := range c.Doctors {
		clone.Doctors[id] = name
	}
	clone.Matching = c.Matching.Clone()
	return &clone
}

func (c *Config) isAllowed(status models.AppointmentStatus) bool {
	for _, allowed := range c.AllowedStatuses {
		if status == allowed {
			return true
		}
	}
	return false
}

func (c *Config) isExempt(doctorID string) bool {
	for _, id := range c.ExemptDoctorIDs {
		if id == doctorID {
			return true
		}
	}
	return false
}

// allowedStatusList renders "A, B, o C"
func (c *Config) allowedStatusList() string {
	names := make([]string, len(c.AllowedStatuses))
	for i, status := range c.AllowedStatuses {
		names[i] = string(status)
	}
	if len(names) == 1 {
		return names[0]
	}
	return strings.Join(names[:len(names)-1], ", ") + ", o " + names[len(names)-1]
}
