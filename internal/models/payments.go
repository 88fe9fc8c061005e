package models

import (
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

var validate = validator.New()

// RawPayment is one line of the billing export. The billing system usually emits
// two lines per real transaction (produced and charged) under the same key.
type RawPayment struct {
	Date              string          `json:"date"`
	PatientCode       string          `json:"patient_code"`
	Patient           string          `json:"patient"`
	TreatmentCode     string          `json:"treatment_code"`
	ToothCode         string          `json:"tooth_code"`
	Description       string          `json:"description"`
	Realized          decimal.Decimal `json:"realized"`
	Charged           decimal.Decimal `json:"charged"`
	Insurance         decimal.Decimal `json:"insurance"`
	LabCost           decimal.Decimal `json:"lab_cost"`
	FinancingCost     decimal.Decimal `json:"financing_cost"`
	CommissionPercent decimal.Decimal `json:"commission_percent"`
	CommissionFlag    string          `json:"commission_flag,omitempty"`
	ReferralSource    string          `json:"referral_source,omitempty"`
}

// PaymentKey is the identity of a billing transaction
type PaymentKey struct {
	Date          string
	PatientCode   string
	TreatmentCode string
	ToothCode     string
	Description   string
}

// Key returns the grouping identity of the line
func (p RawPayment) Key() PaymentKey {
	return PaymentKey{
		Date:          p.Date,
		PatientCode:   p.PatientCode,
		TreatmentCode: p.TreatmentCode,
		ToothCode:     p.ToothCode,
		Description:   p.Description,
	}
}

// TransactionKind tells whether a transaction came from a pair of lines or a lone line
type TransactionKind string

const (
	TransactionPaired TransactionKind = "paired"
	TransactionSingle TransactionKind = "single"
)

// Transaction is a merged billing transaction.
// For a paired transaction Realized and Charged hold the max of both lines and the
// descriptive fields come from the first line; GrossAmount is the max of all four amounts.
// For a single transaction GrossAmount is max(Realized, Charged).
type Transaction struct {
	Kind TransactionKind `json:"kind"`
	RawPayment
	GrossAmount decimal.Decimal `json:"gross_amount"`
	Sources     []RawPayment    `json:"-"`
}

// TreatmentType classifies a doctor's practice for VAT purposes
type TreatmentType string

const (
	TreatmentDentistry         TreatmentType = "dentistry"
	TreatmentAestheticMedicine TreatmentType = "aesthetic_medicine"
)

// VATIncluded reports whether billed amounts for this treatment type include VAT
func (t TreatmentType) VATIncluded() bool {
	return t == TreatmentAestheticMedicine
}

// CommissionType selects which of a doctor's rules applies to a transaction
type CommissionType string

const (
	CommissionRegular    CommissionType = "regular"
	CommissionReferral   CommissionType = "referido"
	CommissionInvisalign CommissionType = "invisalign"
)

// CommissionRule is one row of the static doctor commission table
type CommissionRule struct {
	DoctorID       string         `json:"id" mapstructure:"id" validate:"required"`
	DoctorName     string         `json:"name" mapstructure:"name"`
	TreatmentType  TreatmentType  `json:"treatment_type" mapstructure:"treatment_type" validate:"required,oneof=dentistry aesthetic_medicine"`
	CommissionType CommissionType `json:"commission_type" mapstructure:"commission_type" validate:"required,oneof=regular referido invisalign"`
	Percent        float64        `json:"commission" mapstructure:"commission" validate:"gte=0,lte=100"`
}

// Validate checks the rule against its struct tags
func (r CommissionRule) Validate() error {
	if err := validate.Struct(r); err != nil {
		return fmt.Errorf("invalid commission rule for doctor %q: %w", r.DoctorID, err)
	}
	return nil
}

// CommissionRow is the commission computed for one transaction
type CommissionRow struct {
	Date           string          `json:"date"`
	PatientCode    string          `json:"patient_code"`
	Patient        string          `json:"patient"`
	Description    string          `json:"description"`
	Gross          decimal.Decimal `json:"gross"`
	GrossNet       decimal.Decimal `json:"gross_net_of_vat"`
	LabCost        decimal.Decimal `json:"lab_cost"`
	LabCostNet     decimal.Decimal `json:"lab_cost_net_of_vat"`
	CommissionType CommissionType  `json:"commission_type"`
	Percent        decimal.Decimal `json:"commission_percent"`
	Commission     decimal.Decimal `json:"commission"`
}

// DoctorAnalytics aggregates a doctor's commission rows for one month
type DoctorAnalytics struct {
	TotalCommission        decimal.Decimal `json:"total_commission"`
	TotalForClinic         decimal.Decimal `json:"total_for_clinic"`
	UniquePatients         int             `json:"unique_patients"`
	ProductivityPerPatient decimal.Decimal `json:"productivity_per_patient"`
}

// UnmatchedRule reports a transaction left out because the doctor has no rule
// for the commission type it was classified as.
type UnmatchedRule struct {
	DoctorID       string          `json:"doctor_id"`
	CommissionType CommissionType  `json:"commission_type"`
	Date           string          `json:"date"`
	PatientCode    string          `json:"patient_code"`
	Description    string          `json:"description"`
	Gross          decimal.Decimal `json:"gross"`
}
