package commissions

import (
	"fmt"
	"sort"
	"strings"

	"clinic-backoffice/internal/models"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New()

// TypeRule assigns a commission type to a doctor's transactions. Empty conditions
// always hold; DescriptionContains is compared case-insensitively and
// ReferralSource exactly.
type TypeRule struct {
	DoctorID            string                `json:"doctor_id" mapstructure:"doctor_id" validate:"required"`
	DescriptionContains string                `json:"description_contains,omitempty" mapstructure:"description_contains"`
	ReferralSource      string                `json:"referral_source,omitempty" mapstructure:"referral_source"`
	CommissionType      models.CommissionType `json:"commission_type" mapstructure:"commission_type" validate:"required,oneof=regular referido invisalign"`
}

// Matches reports whether the rule applies to a transaction of doctorID
func (r TypeRule) Matches(doctorID, description, referral string) bool {
	if r.DoctorID != doctorID {
		return false
	}
	if r.DescriptionContains != "" &&
		!strings.Contains(strings.ToLower(description), strings.ToLower(r.DescriptionContains)) {
		return false
	}
	if r.ReferralSource != "" && r.ReferralSource != referral {
		return false
	}
	return true
}

// DefaultTypeRules returns the clinic's commission type decisions in evaluation order
func DefaultTypeRules() []TypeRule {
	return []TypeRule{
		{DoctorID: "10", DescriptionContains: "invisalign", CommissionType: models.CommissionInvisalign},
		{DoctorID: "15", ReferralSource: "Referido Anna U", CommissionType: models.CommissionReferral},
		{DoctorID: "14", ReferralSource: "Referido Juan", CommissionType: models.CommissionReferral},
	}
}

// DefaultRules returns the clinic's commission table
func DefaultRules() []models.CommissionRule {
	dentistry := func(id, name string, ct models.CommissionType, pct float64) models.CommissionRule {
		return models.CommissionRule{DoctorID: id, DoctorName: name, TreatmentType: models.TreatmentDentistry, CommissionType: ct, Percent: pct}
	}
	aesthetic := func(id, name string, pct float64) models.CommissionRule {
		return models.CommissionRule{DoctorID: id, DoctorName: name, TreatmentType: models.TreatmentAestheticMedicine, CommissionType: models.CommissionRegular, Percent: pct}
	}

	return []models.CommissionRule{
		dentistry("15", "Anna Pevrukhina", models.CommissionRegular, 35),
		dentistry("15", "Anna Pevrukhina", models.CommissionReferral, 50),
		dentistry("14", "Juan Millet", models.CommissionRegular, 35),
		dentistry("14", "Juan Millet", models.CommissionReferral, 50),
		dentistry("10", "Macarena Remohi Martínez-Medina", models.CommissionRegular, 60),
		dentistry("10", "Macarena Remohi Martínez-Medina", models.CommissionInvisalign, 50),
		dentistry("11", "Alejandro Cordero", models.CommissionRegular, 35),
		dentistry("2", "Agusti Ferrando i Estrella", models.CommissionRegular, 35),
		aesthetic("20", "Melissa Rivera", 50),
		aesthetic("23", "Carmen Herrero", 60),
		aesthetic("22", "Dayana Arizaka Riquelme", 50),
	}
}

// RuleBook indexes the commission table and the type decisions
type RuleBook struct {
	rules     map[string]map[models.CommissionType]models.CommissionRule
	typeRules []TypeRule
}

// NewRuleBook validates and indexes the rules. A repeated (doctor, commission type)
// pair keeps its first row.
func NewRuleBook(rules []models.CommissionRule, typeRules []TypeRule) (*RuleBook, error) {
	book := &RuleBook{
		rules:     make(map[string]map[models.CommissionType]models.CommissionRule),
		typeRules: make([]TypeRule, 0, len(typeRules)),
	}

	for _, rule := range rules {
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		byType, ok := book.rules[rule.DoctorID]
		if !ok {
			byType = make(map[models.CommissionType]models.CommissionRule)
			book.rules[rule.DoctorID] = byType
		}
		if _, exists := byType[rule.CommissionType]; !exists {
			byType[rule.CommissionType] = rule
		}
	}

	for i, tr := range typeRules {
		if err := validate.Struct(tr); err != nil {
			return nil, fmt.Errorf("invalid commission type rule %d: %w", i, err)
		}
		book.typeRules = append(book.typeRules, tr)
	}

	return book, nil
}

// HasDoctor reports whether the table has any rule for the doctor
func (b *RuleBook) HasDoctor(doctorID string) bool {
	return len(b.rules[doctorID]) > 0
}

// Doctors returns the ids present in the table, sorted
func (b *RuleBook) Doctors() []string {
	ids := make([]string, 0, len(b.rules))
	for id := range b.rules {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// TypeFor returns the commission type of a transaction: the first matching type
// rule wins and regular is the fallback.
func (b *RuleBook) TypeFor(doctorID, description, referral string) models.CommissionType {
	for _, tr := range b.typeRules {
		if tr.Matches(doctorID, description, referral) {
			return tr.CommissionType
		}
	}
	return models.CommissionRegular
}

// Rule looks up the doctor's rule for a commission type
func (b *RuleBook) Rule(doctorID string, commissionType models.CommissionType) (models.CommissionRule, bool) {
	rule, ok := b.rules[doctorID][commissionType]
	return rule, ok
}
