package config

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"clinic-backoffice/internal/models"
	"clinic-backoffice/pkg/errors"

	"github.com/spf13/viper"
)

func newViper(t *testing.T, yaml string) *viper.Viper {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	if err := v.ReadConfig(strings.NewReader(yaml)); err != nil {
		t.Fatalf("ReadConfig() error = %v", err)
	}
	return v
}

func TestDefaultValidates(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("Default().Validate() error = %v", err)
	}
	if cfg.HasDatabase() {
		t.Error("default settings should not have a database")
	}
}

func TestLoad_Empty(t *testing.T) {
	cfg, err := Load(viper.New())
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	want := Default()
	if !reflect.DeepEqual(cfg.Checks.ExemptDoctorIDs, want.Checks.ExemptDoctorIDs) {
		t.Errorf("ExemptDoctorIDs = %v, want %v", cfg.Checks.ExemptDoctorIDs, want.Checks.ExemptDoctorIDs)
	}
	if len(cfg.Commissions.Rules) != len(want.Commissions.Rules) {
		t.Errorf("len(Rules) = %d, want %d", len(cfg.Commissions.Rules), len(want.Commissions.Rules))
	}
	if cfg.Report.Delimiter != ";" || !cfg.Report.DecimalComma {
		t.Errorf("Report = %+v, want ';' with decimal comma", cfg.Report)
	}
}

func TestLoad_ListsReplaceDefaults(t *testing.T) {
	v := newViper(t, `
checks:
  exempt_doctor_ids: ["7"]
  doctors:
    "15": Anna Pevrukhina
    "7": María Florencia Cerviche
commissions:
  rules:
    - id: "15"
      treatment_type: dentistry
      commission_type: regular
      commission: 40
`)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := []string{"7"}; !reflect.DeepEqual(cfg.Checks.ExemptDoctorIDs, want) {
		t.Errorf("ExemptDoctorIDs = %v, want %v", cfg.Checks.ExemptDoctorIDs, want)
	}
	if len(cfg.Checks.Doctors) != 2 {
		t.Errorf("len(Doctors) = %d, want 2", len(cfg.Checks.Doctors))
	}
	if len(cfg.Commissions.Rules) != 1 {
		t.Fatalf("len(Rules) = %d, want 1", len(cfg.Commissions.Rules))
	}
	rule := cfg.Commissions.Rules[0]
	if rule.DoctorID != "15" || rule.CommissionType != models.CommissionRegular || rule.Percent != 40 {
		t.Errorf("Rules[0] = %+v, want doctor 15 regular 40", rule)
	}
	// untouched sections keep their defaults
	if len(cfg.Commissions.TypeRules) != len(Default().Commissions.TypeRules) {
		t.Errorf("len(TypeRules) = %d, want the defaults", len(cfg.Commissions.TypeRules))
	}
	if cfg.Checks.UnknownDoctorName != "Desconocido" {
		t.Errorf("UnknownDoctorName = %q, want Desconocido", cfg.Checks.UnknownDoctorName)
	}
}

func TestLoad_DateLayoutsPropagate(t *testing.T) {
	v := newViper(t, `
date_layouts:
  appointments: ["2006-01-02"]
  treatments: ["02-01-2006"]
  payments: ["02.01.06"]
`)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if want := []string{"2006-01-02"}; !reflect.DeepEqual(cfg.Checks.AppointmentDateLayouts, want) {
		t.Errorf("AppointmentDateLayouts = %v, want %v", cfg.Checks.AppointmentDateLayouts, want)
	}
	if want := []string{"02-01-2006"}; !reflect.DeepEqual(cfg.Checks.TreatmentDateLayouts, want) {
		t.Errorf("TreatmentDateLayouts = %v, want %v", cfg.Checks.TreatmentDateLayouts, want)
	}
	if want := []string{"02.01.06"}; !reflect.DeepEqual(cfg.Commissions.PaymentDateLayouts, want) {
		t.Errorf("PaymentDateLayouts = %v, want %v", cfg.Commissions.PaymentDateLayouts, want)
	}
}

func TestLoad_ExplicitEngineLayoutsWin(t *testing.T) {
	v := newViper(t, `
date_layouts:
  appointments: ["2006-01-02"]
checks:
  appointment_date_layouts: ["2/1/2006"]
`)

	cfg, err := Load(v)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if want := []string{"2/1/2006"}; !reflect.DeepEqual(cfg.Checks.AppointmentDateLayouts, want) {
		t.Errorf("AppointmentDateLayouts = %v, want %v", cfg.Checks.AppointmentDateLayouts, want)
	}
}

func TestLoad_MatchingPreset(t *testing.T) {
	tests := []struct {
		name           string
		yaml           string
		threshold      float64
		maxSuggestions int
	}{
		{"default", "report:\n  format: console\n", 0.5, 3},
		{"strict", "checks:\n  matching_preset: strict\n", 0.85, 1},
		{"relaxed", "checks:\n  matching_preset: relaxed\n", 0.4, 5},
		{"explicit keys override the preset", "checks:\n  matching_preset: strict\n  matching:\n    max_suggestions: 2\n", 0.85, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := Load(newViper(t, tt.yaml))
			if err != nil {
				t.Fatalf("Load() error = %v", err)
			}
			if cfg.Checks.Matching.Threshold != tt.threshold {
				t.Errorf("Threshold = %v, want %v", cfg.Checks.Matching.Threshold, tt.threshold)
			}
			if cfg.Checks.Matching.MaxSuggestions != tt.maxSuggestions {
				t.Errorf("MaxSuggestions = %d, want %d", cfg.Checks.Matching.MaxSuggestions, tt.maxSuggestions)
			}
		})
	}
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
	}{
		{"multi-character csv delimiter", "csv:\n  delimiter: ';;'\n"},
		{"negative skip", "csv:\n  skip_after_header: -1\n"},
		{"unknown report format", "report:\n  format: xml\n"},
		{"comma delimiter with decimal comma", "report:\n  delimiter: ','\n  decimal_comma: true\n"},
		{"rule percent above 100", `
commissions:
  rules:
    - id: "15"
      treatment_type: dentistry
      commission_type: regular
      commission: 135
`},
		{"rule with unknown commission type", `
commissions:
  rules:
    - id: "15"
      treatment_type: dentistry
      commission_type: bonus
      commission: 35
`},
		{"unknown matching preset", "checks:\n  matching_preset: fuzzy\n"},
		{"bad table name", "store:\n  tables:\n    payments: 'pagos; DROP TABLE x'\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load(newViper(t, tt.yaml))
			if err == nil {
				t.Fatal("Load() expected an error")
			}
			if !errors.IsCode(err, errors.CodeInvalidConfig) {
				t.Errorf("Load() error = %v, want code %s", err, errors.CodeInvalidConfig)
			}
		})
	}
}

func TestSingleRune(t *testing.T) {
	tests := []struct {
		value     string
		expected  rune
		wantError bool
	}{
		{",", ',', false},
		{";", ';', false},
		{"tab", '\t', false},
		{`\t`, '\t', false},
		{"", 0, true},
		{";;", 0, true},
	}

	for _, tt := range tests {
		got, err := singleRune("csv.delimiter", tt.value)
		if (err != nil) != tt.wantError {
			t.Errorf("singleRune(%q) error = %v, wantError %v", tt.value, err, tt.wantError)
			continue
		}
		if got != tt.expected {
			t.Errorf("singleRune(%q) = %q, want %q", tt.value, got, tt.expected)
		}
	}
}

func TestReportConfig_FormatOverride(t *testing.T) {
	cfg := Default()

	report, err := cfg.ReportConfig("JSON")
	if err != nil {
		t.Fatalf("ReportConfig() error = %v", err)
	}
	if report.Format != "json" {
		t.Errorf("Format = %q, want json", report.Format)
	}
	if report.CSVDelimiter != ';' {
		t.Errorf("CSVDelimiter = %q, want ';'", report.CSVDelimiter)
	}

	if _, err := cfg.ReportConfig("pdf"); err == nil {
		t.Error("ReportConfig(pdf) expected an error")
	}
}

func TestLoadDotEnv(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "test.env")
	if err := os.WriteFile(file, []byte("BACKOFFICE_TEST_DOTENV=loaded\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("BACKOFFICE_TEST_DOTENV", "")
	os.Unsetenv("BACKOFFICE_TEST_DOTENV")

	if err := LoadDotEnv(file, filepath.Join(dir, "missing.env")); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("BACKOFFICE_TEST_DOTENV"); got != "loaded" {
		t.Errorf("BACKOFFICE_TEST_DOTENV = %q, want loaded", got)
	}
}

func TestLoadDotEnv_KeepsExistingVariables(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, ".env")
	if err := os.WriteFile(file, []byte("BACKOFFICE_TEST_KEEP=file\n"), 0644); err != nil {
		t.Fatalf("failed to write env file: %v", err)
	}
	t.Setenv("BACKOFFICE_TEST_KEEP", "environment")

	if err := LoadDotEnv(file); err != nil {
		t.Fatalf("LoadDotEnv() error = %v", err)
	}
	if got := os.Getenv("BACKOFFICE_TEST_KEEP"); got != "environment" {
		t.Errorf("BACKOFFICE_TEST_KEEP = %q, want environment", got)
	}
}
