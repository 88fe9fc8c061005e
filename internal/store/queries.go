package store

import (
	"fmt"
	"strings"

	"clinic-backoffice/pkg/errors"
)

func checkIdentifier(name string) error {
	if !identifierPattern.MatchString(name) {
		return errors.StorageError(errors.CodeInvalidIdentifier, "build_query", nil).
			WithContext("identifier", name)
	}
	return nil
}

func quote(name string) string {
	return "`" + name + "`"
}

func rangeQuery(table, dateColumn string) (string, error) {
	for _, name := range []string{table, dateColumn} {
		if err := checkIdentifier(name); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("SELECT * FROM %s WHERE %s BETWEEN ? AND ?", quote(table), quote(dateColumn)), nil
}

func selectQuery(table string, columns ...string) (string, error) {
	if err := checkIdentifier(table); err != nil {
		return "", err
	}
	quoted := make([]string, len(columns))
	for i, column := range columns {
		if err := checkIdentifier(column); err != nil {
			return "", err
		}
		quoted[i] = quote(column)
	}
	return fmt.Sprintf("SELECT %s FROM %s", strings.Join(quoted, ", "), quote(table)), nil
}

func paymentsQuery(payments, personal, dateColumn, codeColumn, personalCodeColumn, referralColumn string) (string, error) {
	for _, name := range []string{payments, personal, dateColumn, codeColumn, personalCodeColumn, referralColumn} {
		if err := checkIdentifier(name); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf(
		"SELECT c.*, dp.%s FROM %s c LEFT JOIN %s dp ON c.%s = dp.%s WHERE c.%s BETWEEN ? AND ?",
		quote(referralColumn), quote(payments), quote(personal),
		quote(codeColumn), quote(personalCodeColumn), quote(dateColumn),
	), nil
}

func revenueQuery(table, dateColumn, amountColumn string) (string, error) {
	for _, name := range []string{table, dateColumn, amountColumn} {
		if err := checkIdentifier(name); err != nil {
			return "", err
		}
	}
	return fmt.Sprintf("SELECT SUM(%s) FROM %s WHERE %s BETWEEN ? AND ?",
		quote(amountColumn), quote(table), quote(dateColumn)), nil
}
