package normalize

import (
	"strings"
	"time"
)

// Date layouts of the clinic's sources
const (
	AppointmentDateLayout = "2/1/2006"
	TreatmentDateLayout   = "2/1/06"
	PaymentDateLayout     = "2/1/06"
	StoreDateTimeLayout   = "2006-01-02T15:04:05"
	StoreDateSpaceLayout  = "2006-01-02 15:04:05"
	ISODateLayout         = "2006-01-02"
)

// ParseDay parses value with the first layout that accepts it and truncates the
// result to a UTC day. The boolean is false when no layout matches.
func ParseDay(value string, layouts ...string) (time.Time, bool) {
	value = strings.TrimSpace(value)
	if value == "" {
		return time.Time{}, false
	}

	for _, layout := range layouts {
		t, err := time.Parse(layout, value)
		if err != nil {
			continue
		}
		return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC), true
	}
	return time.Time{}, false
}

// DayKey is the canonical grouping key of a day
func DayKey(day time.Time) string {
	return day.Format(ISODateLayout)
}

// DateLayouts lists the accepted date formats of each source, export format first
type DateLayouts struct {
	Appointments []string `json:"appointments" mapstructure:"appointments"`
	Treatments   []string `json:"treatments" mapstructure:"treatments"`
	Payments     []string `json:"payments" mapstructure:"payments"`
}

// DefaultDateLayouts accepts each export's own format and the store formats
func DefaultDateLayouts() DateLayouts {
	stored := []string{StoreDateTimeLayout, StoreDateSpaceLayout, ISODateLayout}
	return DateLayouts{
		Appointments: append([]string{AppointmentDateLayout}, stored...),
		Treatments:   append([]string{TreatmentDateLayout}, stored...),
		Payments:     append([]string{PaymentDateLayout}, stored...),
	}
}
