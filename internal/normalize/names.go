package normalize

import (
	"strings"
	"unicode"
)

// NormalizeName lowercases a person's name and collapses runs of whitespace.
// It is the key used wherever names from different systems are compared.
func NormalizeName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

// SQLColumnName turns an export header into the column name used by the store:
// only letters, digits and underscores survive ("Coste lab." -> "Costelab").
func SQLColumnName(header string) string {
	var b strings.Builder
	for _, r := range header {
		if unicode.IsLetter(r) || unicode.IsDigit(r) || r == '_' {
			b.WriteRune(r)
		}
	}
	return b.String()
}
