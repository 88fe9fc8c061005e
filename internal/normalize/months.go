package normalize

import (
	"strings"
	"time"

	"clinic-backoffice/pkg/errors"
)

var spanishMonths = [12]string{
	"Enero", "Febrero", "Marzo", "Abril", "Mayo", "Junio",
	"Julio", "Agosto", "Septiembre", "Octubre", "Noviembre", "Diciembre",
}

// ParseSpanishMonth maps one of the twelve Spanish month names, in any case, to its month.
func ParseSpanishMonth(name string) (time.Month, error) {
	trimmed := strings.TrimSpace(name)
	for i, month := range spanishMonths {
		if strings.EqualFold(trimmed, month) {
			return time.Month(i + 1), nil
		}
	}
	return 0, errors.ValidationError(errors.CodeInvalidMonth, "month", name, nil)
}

// SpanishMonthName returns the capitalized Spanish name of m, or "" when m is out of range
func SpanishMonthName(m time.Month) string {
	if m < time.January || m > time.December {
		return ""
	}
	return spanishMonths[m-1]
}

// SpanishMonthNames lists the accepted month names in calendar order
func SpanishMonthNames() []string {
	names := make([]string, len(spanishMonths))
	copy(names, spanishMonths[:])
	return names
}
