package models

import (
	"encoding/json"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestRowGet(t *testing.T) {
	row := Row{"Paciente": "  Antón Kolesnik ", "Estado": ""}

	if got := row.Get("Paciente"); got != "Antón Kolesnik" {
		t.Errorf("Get(Paciente) = %q, want %q", got, "Antón Kolesnik")
	}
	if got := row.Get("Missing"); got != "" {
		t.Errorf("Get(Missing) = %q, want empty", got)
	}
}

func TestTreatmentFullName(t *testing.T) {
	tests := []struct {
		name      string
		treatment Treatment
		expected  string
	}{
		{"all parts", Treatment{FirstName: "Vitali", LastName: "Stepanenko", SecondLastName: "Ivanov"}, "Vitali Stepanenko Ivanov"},
		{"no second surname", Treatment{FirstName: "VITALI", LastName: "STEPANENKO"}, "VITALI STEPANENKO"},
		{"empty", Treatment{}, ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.treatment.FullName(); got != tt.expected {
				t.Errorf("FullName() = %q, want %q", got, tt.expected)
			}
		})
	}
}

func TestAlertTypeLabel(t *testing.T) {
	tests := []struct {
		alertType AlertType
		expected  string
	}{
		{AlertInvalidStatus, "Estado invalido"},
		{AlertMissingTreatment, "Tratamiento inexistente"},
		{AlertDoctorMismatch, "Doctor erroneo"},
		{AlertType("other"), "other"},
	}

	for _, tt := range tests {
		if got := tt.alertType.Label(); got != tt.expected {
			t.Errorf("%s.Label() = %q, want %q", tt.alertType, got, tt.expected)
		}
	}
}

func TestRawPaymentKey(t *testing.T) {
	a := RawPayment{Date: "04/09/24", PatientCode: "440", TreatmentCode: "T1", ToothCode: "0", Description: "FERULA", Charged: decimal.NewFromInt(70)}
	b := a
	b.Realized = decimal.NewFromInt(70)
	b.Charged = decimal.Zero

	if a.Key() != b.Key() {
		t.Errorf("lines differing only in amounts should share a key: %+v vs %+v", a.Key(), b.Key())
	}

	b.ToothCode = "11"
	if a.Key() == b.Key() {
		t.Error("lines with different tooth codes should not share a key")
	}
}

func TestTreatmentTypeVATIncluded(t *testing.T) {
	if !TreatmentAestheticMedicine.VATIncluded() {
		t.Error("aesthetic medicine should include VAT")
	}
	if TreatmentDentistry.VATIncluded() {
		t.Error("dentistry should not include VAT")
	}
}

func TestCommissionRuleValidate(t *testing.T) {
	tests := []struct {
		name      string
		rule      CommissionRule
		wantError bool
	}{
		{"valid", CommissionRule{DoctorID: "15", TreatmentType: TreatmentDentistry, CommissionType: CommissionReferral, Percent: 50}, false},
		{"missing doctor", CommissionRule{TreatmentType: TreatmentDentistry, CommissionType: CommissionRegular, Percent: 35}, true},
		{"bad treatment type", CommissionRule{DoctorID: "15", TreatmentType: "surgery", CommissionType: CommissionRegular, Percent: 35}, true},
		{"bad commission type", CommissionRule{DoctorID: "15", TreatmentType: TreatmentDentistry, CommissionType: "bonus", Percent: 35}, true},
		{"percent above 100", CommissionRule{DoctorID: "15", TreatmentType: TreatmentDentistry, CommissionType: CommissionRegular, Percent: 120}, true},
		{"negative percent", CommissionRule{DoctorID: "15", TreatmentType: TreatmentDentistry, CommissionType: CommissionRegular, Percent: -1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.rule.Validate()
			if (err != nil) != tt.wantError {
				t.Errorf("Validate() error = %v, wantError %v", err, tt.wantError)
			}
		})
	}
}

func TestCommissionJSONRoundsToCents(t *testing.T) {
	row := CommissionRow{
		Date:           "04/09/24",
		Gross:          decimal.NewFromInt(100),
		GrossNet:       decimal.RequireFromString("82.6446280991735537"),
		CommissionType: CommissionRegular,
		Percent:        decimal.NewFromInt(60),
		Commission:     decimal.RequireFromString("49.5867768595041322"),
	}
	analytics := DoctorAnalytics{
		TotalCommission:        decimal.RequireFromString("49.5867768595041322"),
		TotalForClinic:         decimal.RequireFromString("50.4132231404958678"),
		UniquePatients:         1,
		ProductivityPerPatient: decimal.RequireFromString("50.4132231404958678"),
	}

	tests := []struct {
		name  string
		value interface{}
		want  []string
	}{
		{"row", row, []string{`"date":"04/09/24"`, `"gross":"100.00"`, `"gross_net_of_vat":"82.64"`, `"lab_cost":"0.00"`, `"commission_type":"regular"`, `"commission":"49.59"`}},
		{"analytics", analytics, []string{`"total_commission":"49.59"`, `"total_for_clinic":"50.41"`, `"unique_patients":1`, `"productivity_per_patient":"50.41"`}},
		{"unmatched", UnmatchedRule{DoctorID: "23", Gross: decimal.RequireFromString("99.995")}, []string{`"doctor_id":"23"`, `"gross":"100.00"`}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data, err := json.Marshal(tt.value)
			if err != nil {
				t.Fatalf("Marshal() error = %v", err)
			}
			for _, want := range tt.want {
				if !strings.Contains(string(data), want) {
					t.Errorf("Marshal() = %s, want it to contain %s", data, want)
				}
			}
			if strings.Count(string(data), `"gross"`) > 1 {
				t.Errorf("Marshal() = %s, gross rendered twice", data)
			}
		})
	}
}
