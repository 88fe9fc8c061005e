package models

import (
	"encoding/json"

	"github.com/shopspring/decimal"
)

// cents renders a full-precision amount rounded to two decimals
func cents(d decimal.Decimal) string {
	return d.StringFixed(2)
}

// MarshalJSON renders the monetary fields with two decimals
func (r CommissionRow) MarshalJSON() ([]byte, error) {
	type row CommissionRow
	return json.Marshal(struct {
		row
		Gross      string `json:"gross"`
		GrossNet   string `json:"gross_net_of_vat"`
		LabCost    string `json:"lab_cost"`
		LabCostNet string `json:"lab_cost_net_of_vat"`
		Percent    string `json:"commission_percent"`
		Commission string `json:"commission"`
	}{
		row:        row(r),
		Gross:      cents(r.Gross),
		GrossNet:   cents(r.GrossNet),
		LabCost:    cents(r.LabCost),
		LabCostNet: cents(r.LabCostNet),
		Percent:    cents(r.Percent),
		Commission: cents(r.Commission),
	})
}

// MarshalJSON renders the totals with two decimals
func (a DoctorAnalytics) MarshalJSON() ([]byte, error) {
	type analytics DoctorAnalytics
	return json.Marshal(struct {
		analytics
		TotalCommission        string `json:"total_commission"`
		TotalForClinic         string `json:"total_for_clinic"`
		ProductivityPerPatient string `json:"productivity_per_patient"`
	}{
		analytics:              analytics(a),
		TotalCommission:        cents(a.TotalCommission),
		TotalForClinic:         cents(a.TotalForClinic),
		ProductivityPerPatient: cents(a.ProductivityPerPatient),
	})
}

// MarshalJSON renders the gross amount with two decimals
func (u UnmatchedRule) MarshalJSON() ([]byte, error) {
	type unmatched UnmatchedRule
	return json.Marshal(struct {
		unmatched
		Gross string `json:"gross"`
	}{
		unmatched: unmatched(u),
		Gross:     cents(u.Gross),
	})
}
