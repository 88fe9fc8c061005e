// Package commissions turns billing export lines into doctor commissions.
//
// The billing system usually writes two lines per real transaction, one for the
// produced amount and one for the charged amount, under the same identity key.
// The Merger collapses those lines into transactions and the Calculator applies
// the doctor's commission rules to them.
package commissions

import (
	"strconv"
	"time"

	"clinic-backoffice/internal/models"
	"clinic-backoffice/internal/normalize"
	"clinic-backoffice/pkg/logger"

	"github.com/shopspring/decimal"
)

// Period selects the payment lines of one month. A zero Year matches every year.
type Period struct {
	Month time.Month `json:"month"`
	Year  int        `json:"year,omitempty"`
}

// ParsePeriod builds a period from a Spanish month name
func ParsePeriod(monthName string, year int) (Period, error) {
	month, err := normalize.ParseSpanishMonth(monthName)
	if err != nil {
		return Period{}, err
	}
	return Period{Month: month, Year: year}, nil
}

// Contains reports whether day falls within the period
func (p Period) Contains(day time.Time) bool {
	if day.Month() != p.Month {
		return false
	}
	return p.Year == 0 || day.Year() == p.Year
}

// String returns the Spanish month name, followed by the year when set
func (p Period) String() string {
	name := normalize.SpanishMonthName(p.Month)
	if p.Year == 0 {
		return name
	}
	return name + " " + strconv.Itoa(p.Year)
}

// DefaultPaymentDateLayouts are the date formats of billing lines, as exported and as stored
func DefaultPaymentDateLayouts() []string {
	return normalize.DefaultDateLayouts().Payments
}

// Merger pairs billing lines into transactions
type Merger struct {
	layouts []string
	logger  logger.Logger
}

// NewMerger creates a merger that reads line dates with the given layouts.
// With no layouts the default payment layouts are used.
func NewMerger(layouts ...string) *Merger {
	if len(layouts) == 0 {
		layouts = DefaultPaymentDateLayouts()
	}
	return &Merger{
		layouts: append([]string(nil), layouts...),
		logger:  logger.GetGlobalLogger().WithComponent("payment_merger"),
	}
}

// Merge keeps the lines dated within period, groups them by identity key in
// first-seen order and pairs each group's lines in input order. A group with an
// odd number of lines leaves its last line as a single transaction.
func (m *Merger) Merge(payments []models.RawPayment, period Period) []*models.Transaction {
	groups := make(map[models.PaymentKey][]models.RawPayment)
	var order []models.PaymentKey
	dropped := 0

	for _, payment := range payments {
		day, ok := normalize.ParseDay(payment.Date, m.layouts...)
		if !ok || !period.Contains(day) {
			dropped++
			continue
		}
		key := payment.Key()
		if _, seen := groups[key]; !seen {
			order = append(order, key)
		}
		groups[key] = append(groups[key], payment)
	}

	var transactions []*models.Transaction
	for _, key := range order {
		group := groups[key]
		for len(group) >= 2 {
			transactions = append(transactions, pair(group[0], group[1]))
			group = group[2:]
		}
		if len(group) == 1 {
			transactions = append(transactions, single(group[0]))
		}
	}

	m.logger.WithFields(logger.Fields{
		"period":       period.String(),
		"lines":        len(payments),
		"out_of_range": dropped,
		"transactions": len(transactions),
	}).Debug("Merged payment lines")

	return transactions
}

func pair(first, second models.RawPayment) *models.Transaction {
	merged := first
	merged.Realized = decimal.Max(first.Realized, second.Realized)
	merged.Charged = decimal.Max(first.Charged, second.Charged)

	return &models.Transaction{
		Kind:        models.TransactionPaired,
		RawPayment:  merged,
		GrossAmount: decimal.Max(first.Realized, first.Charged, second.Realized, second.Charged),
		Sources:     []models.RawPayment{first, second},
	}
}

func single(line models.RawPayment) *models.Transaction {
	return &models.Transaction{
		Kind:        models.TransactionSingle,
		RawPayment:  line,
		GrossAmount: decimal.Max(line.Realized, line.Charged),
		Sources:     []models.RawPayment{line},
	}
}
