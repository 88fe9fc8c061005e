package reporter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"strings"
	"testing"
	"time"

	"clinic-backoffice/internal/commissions"
	"clinic-backoffice/internal/models"
	"clinic-backoffice/internal/reconciler"
	"clinic-backoffice/pkg/errors"

	"github.com/shopspring/decimal"
)

func TestNewReportGenerator(t *testing.T) {
	tests := []struct {
		name        string
		config      *ReportConfig
		expectError bool
	}{
		{"default config", nil, false},
		{"valid config", DefaultReportConfig(), false},
		{"invalid format", &ReportConfig{Format: "xml"}, true},
		{"negative max alerts", &ReportConfig{Format: FormatConsole, MaxAlerts: -1}, true},
		{"csv without delimiter", &ReportConfig{Format: FormatCSV}, true},
		{"csv comma with decimal comma", &ReportConfig{Format: FormatCSV, CSVDelimiter: ',', DecimalComma: true}, true},
		{"csv comma with decimal point", &ReportConfig{Format: FormatCSV, CSVDelimiter: ','}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			generator, err := NewReportGenerator(tt.config)
			if tt.expectError {
				if err == nil {
					t.Errorf("expected error but got none")
				}
				return
			}
			if err != nil {
				t.Errorf("unexpected error: %v", err)
			}
			if generator == nil {
				t.Errorf("expected generator but got nil")
			}
		})
	}
}

func TestOutputFormatValidation(t *testing.T) {
	tests := []struct {
		format OutputFormat
		valid  bool
	}{
		{FormatConsole, true},
		{FormatJSON, true},
		{FormatCSV, true},
		{"invalid", false},
	}

	for _, tt := range tests {
		if got := tt.format.IsValid(); got != tt.valid {
			t.Errorf("%q.IsValid() = %v, want %v", tt.format, got, tt.valid)
		}
	}
}

func newGenerator(t *testing.T, format OutputFormat) *ReportGenerator {
	t.Helper()
	config := DefaultReportConfig()
	config.Format = format
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}
	return generator
}

func checkResult() *reconciler.Result {
	day := time.Date(2024, time.November, 11, 0, 0, 0, 0, time.UTC)
	appointment := models.Appointment{Date: "11/11/2024", PatientName: "Antón Kolesnik", Specialist: "Dra. Larisa Karimova", Status: models.StatusScheduled}
	return &reconciler.Result{
		RunID: "run-1",
		Alerts: []models.Alert{
			{
				Type:        models.AlertInvalidStatus,
				Label:       models.AlertInvalidStatus.Label(),
				Message:     "El estado de la cita de Antón Kolesnik es Programada",
				Day:         day,
				Appointment: appointment,
			},
			{
				Type:        models.AlertMissingTreatment,
				Label:       models.AlertMissingTreatment.Label(),
				Message:     "No existe tratamiento para Antón Kolesnik",
				Day:         day,
				Appointment: appointment,
				Suggestions: []string{"anton kolesnik", "antonio kolesnik"},
			},
		},
		Summary: &reconciler.Summary{
			Days:                1,
			FirstDay:            &day,
			LastDay:             &day,
			AppointmentsChecked: 1,
			ByType:              map[models.AlertType]int{models.AlertInvalidStatus: 1, models.AlertMissingTreatment: 1},
		},
		ProcessedAt: day,
	}
}

func commissionResult() *commissions.Result {
	d := decimal.RequireFromString
	return &commissions.Result{
		RunID:      "run-2",
		DoctorID:   "23",
		DoctorName: "Dra. Estética",
		Period:     commissions.Period{Month: time.September, Year: 2024},
		Rows: []models.CommissionRow{
			{
				Date: "04/09/24", PatientCode: "440", Patient: "Antón Kolesnik", Description: "BOTOX",
				Gross: d("100"), GrossNet: d("82.6446280991735537"), LabCost: decimal.Zero, LabCostNet: decimal.Zero,
				CommissionType: models.CommissionRegular, Percent: d("60"), Commission: d("49.5867768595041322"),
			},
		},
		Analytics: models.DoctorAnalytics{
			TotalCommission:        d("49.5867768595041322"),
			TotalForClinic:         d("50.4132231404958678"),
			UniquePatients:         1,
			ProductivityPerPatient: d("50.4132231404958678"),
		},
		Unmatched: []models.UnmatchedRule{
			{DoctorID: "23", CommissionType: models.CommissionReferral, Date: "05/09/24", PatientCode: "441", Description: "RELLENO", Gross: d("200")},
		},
		Transactions: 2,
	}
}

func TestGenerateCheckReport_Console(t *testing.T) {
	var buf bytes.Buffer
	if err := newGenerator(t, FormatConsole).GenerateCheckReport(checkResult(), &buf); err != nil {
		t.Fatalf("GenerateCheckReport() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"DAILY CHECKS REPORT",
		"=== SUMMARY ===",
		"Appointments checked:  1",
		"Estado invalido:",
		"=== ALERTS (2) ===",
		"2024-11-11",
		"[Tratamiento inexistente] No existe tratamiento para Antón Kolesnik",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console report missing %q:\n%s", want, out)
		}
	}
	if strings.Count(out, "\n2024-11-11\n") != 1 {
		t.Errorf("alerts of one day should share one heading:\n%s", out)
	}
}

func TestGenerateCheckReport_MaxAlerts(t *testing.T) {
	config := DefaultReportConfig()
	config.MaxAlerts = 1
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateCheckReport(checkResult(), &buf); err != nil {
		t.Fatalf("GenerateCheckReport() error = %v", err)
	}
	if !strings.Contains(buf.String(), "... and 1 more") {
		t.Errorf("expected truncation notice, got:\n%s", buf.String())
	}
}

func TestGenerateCheckReport_NoAlerts(t *testing.T) {
	result := checkResult()
	result.Alerts = nil

	var buf bytes.Buffer
	if err := newGenerator(t, FormatConsole).GenerateCheckReport(result, &buf); err != nil {
		t.Fatalf("GenerateCheckReport() error = %v", err)
	}
	if !strings.Contains(buf.String(), "No alerts found.") {
		t.Errorf("expected empty notice, got:\n%s", buf.String())
	}
}

func TestGenerateCheckReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := newGenerator(t, FormatJSON).GenerateCheckReport(checkResult(), &buf); err != nil {
		t.Fatalf("GenerateCheckReport() error = %v", err)
	}

	var decoded struct {
		RunID  string `json:"run_id"`
		Alerts []struct {
			Type        string   `json:"type"`
			Label       string   `json:"label"`
			Suggestions []string `json:"suggestions"`
			Data        struct {
				PatientName string `json:"patient_name"`
			} `json:"data"`
		} `json:"alerts"`
	}
	if err := json.Unmarshal(buf.Bytes(), &decoded); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if decoded.RunID != "run-1" || len(decoded.Alerts) != 2 {
		t.Fatalf("decoded = %+v", decoded)
	}
	if decoded.Alerts[1].Data.PatientName != "Antón Kolesnik" {
		t.Errorf("data.patient_name = %q, want Antón Kolesnik", decoded.Alerts[1].Data.PatientName)
	}
	if len(decoded.Alerts[1].Suggestions) != 2 {
		t.Errorf("suggestions = %v, want 2 entries", decoded.Alerts[1].Suggestions)
	}
}

func TestGenerateCheckReport_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := newGenerator(t, FormatCSV).GenerateCheckReport(checkResult(), &buf); err != nil {
		t.Fatalf("GenerateCheckReport() error = %v", err)
	}

	reader := csv.NewReader(&buf)
	reader.Comma = ';'
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 3 {
		t.Fatalf("len(records) = %d, want header plus 2 alerts", len(records))
	}
	if records[0][0] != "Day" || records[2][1] != string(models.AlertMissingTreatment) {
		t.Errorf("unexpected records: %v", records)
	}
	if records[2][7] != "anton kolesnik, antonio kolesnik" {
		t.Errorf("suggestions = %q", records[2][7])
	}
}

func TestGenerateCommissionReport_Console(t *testing.T) {
	var buf bytes.Buffer
	if err := newGenerator(t, FormatConsole).GenerateCommissionReport(commissionResult(), &buf); err != nil {
		t.Fatalf("GenerateCommissionReport() error = %v", err)
	}

	out := buf.String()
	for _, want := range []string{
		"Doctor: Dra. Estética (23)",
		"Period: Septiembre 2024",
		"82,64",
		"49,59",
		"Total for clinic:        50,41",
		"Unique patients:         1",
		"=== WITHOUT COMMISSION RULE (1) ===",
		"RELLENO",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("console report missing %q:\n%s", want, out)
		}
	}
}

func TestGenerateCommissionReport_JSON(t *testing.T) {
	var buf bytes.Buffer
	if err := newGenerator(t, FormatJSON).GenerateCommissionReport(commissionResult(), &buf); err != nil {
		t.Fatalf("GenerateCommissionReport() error = %v", err)
	}

	var report struct {
		Rows []struct {
			GrossNet   string `json:"gross_net_of_vat"`
			Commission string `json:"commission"`
		} `json:"rows"`
		Analytics struct {
			TotalForClinic string `json:"total_for_clinic"`
		} `json:"analytics"`
	}
	if err := json.Unmarshal(buf.Bytes(), &report); err != nil {
		t.Fatalf("invalid JSON: %v\n%s", err, buf.String())
	}
	if len(report.Rows) != 1 || report.Rows[0].GrossNet != "82.64" || report.Rows[0].Commission != "49.59" {
		t.Errorf("rows = %+v, want 82.64 and 49.59", report.Rows)
	}
	if report.Analytics.TotalForClinic != "50.41" {
		t.Errorf("TotalForClinic = %q, want 50.41", report.Analytics.TotalForClinic)
	}
}

func TestGenerateCommissionReport_CSV(t *testing.T) {
	var buf bytes.Buffer
	if err := newGenerator(t, FormatCSV).GenerateCommissionReport(commissionResult(), &buf); err != nil {
		t.Fatalf("GenerateCommissionReport() error = %v", err)
	}

	reader := csv.NewReader(&buf)
	reader.Comma = ';'
	reader.FieldsPerRecord = -1
	records, err := reader.ReadAll()
	if err != nil {
		t.Fatalf("invalid CSV: %v", err)
	}
	if len(records) != 6 {
		t.Fatalf("len(records) = %d, want header, 1 row and 4 totals", len(records))
	}
	row := records[1]
	if row[4] != "100,00" || row[5] != "82,64" || row[10] != "49,59" {
		t.Errorf("row = %v", row)
	}
	if records[3][0] != "Total_clinica" || records[3][1] != "50,41" {
		t.Errorf("clinic total = %v", records[3])
	}
}

func TestGenerateCommissionReport_DecimalPoint(t *testing.T) {
	config := &ReportConfig{Format: FormatCSV, CSVDelimiter: ',', CSVHeaders: false}
	generator, err := NewReportGenerator(config)
	if err != nil {
		t.Fatalf("NewReportGenerator() error = %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateCommissionReport(commissionResult(), &buf); err != nil {
		t.Fatalf("GenerateCommissionReport() error = %v", err)
	}
	if !strings.HasPrefix(buf.String(), "04/09/24,440,Antón Kolesnik,BOTOX,100.00,82.64,0.00,0.00,regular,60.00,49.59\n") {
		t.Errorf("unexpected output:\n%s", buf.String())
	}
}

func TestGenerateReminderReport(t *testing.T) {
	reminders := []models.Reminder{{AppointmentName: "María José Ruiz", Telephone: "+34600112233"}}

	var console bytes.Buffer
	if err := newGenerator(t, FormatConsole).GenerateReminderReport(reminders, &console); err != nil {
		t.Fatalf("GenerateReminderReport() error = %v", err)
	}
	if !strings.Contains(console.String(), "1. María José Ruiz  +34600112233") {
		t.Errorf("console = %q", console.String())
	}

	var out bytes.Buffer
	if err := newGenerator(t, FormatJSON).GenerateReminderReport(nil, &out); err != nil {
		t.Fatalf("GenerateReminderReport() error = %v", err)
	}
	if strings.TrimSpace(out.String()) != "[]" {
		t.Errorf("empty JSON = %q, want []", out.String())
	}
}

func TestGenerateReport_NilResults(t *testing.T) {
	generator := newGenerator(t, FormatConsole)
	var buf bytes.Buffer
	if err := generator.GenerateCheckReport(nil, &buf); err == nil {
		t.Error("expected error for nil check result")
	}
	if err := generator.GenerateCommissionReport(nil, &buf); err == nil {
		t.Error("expected error for nil commission result")
	}
}

func TestSafeReportGenerator(t *testing.T) {
	generator, err := NewSafeReportGenerator(nil, nil)
	if err != nil {
		t.Fatalf("NewSafeReportGenerator() error = %v", err)
	}

	var buf bytes.Buffer
	if err := generator.GenerateReportSafely(checkResult(), &buf); err != nil {
		t.Errorf("GenerateReportSafely(check) error = %v", err)
	}
	if err := generator.GenerateReportSafely(commissionResult(), &buf); err != nil {
		t.Errorf("GenerateReportSafely(commission) error = %v", err)
	}

	err = generator.GenerateReportSafely("not a result", &buf)
	if !errors.IsCode(err, errors.CodeInvalidFormat) {
		t.Errorf("GenerateReportSafely(string) error = %v, want %s", err, errors.CodeInvalidFormat)
	}
	err = generator.GenerateReportSafely(nil, &buf)
	if !errors.IsCode(err, errors.CodeMissingField) {
		t.Errorf("GenerateReportSafely(nil) error = %v, want %s", err, errors.CodeMissingField)
	}
}

func TestNewSafeReportGenerator_InvalidConfig(t *testing.T) {
	_, err := NewSafeReportGenerator(&ReportConfig{Format: "pdf"}, nil)
	if !errors.IsCode(err, errors.CodeInvalidConfig) {
		t.Errorf("error = %v, want %s", err, errors.CodeInvalidConfig)
	}
}

// failFirstWrite fails the first write and accepts the rest
type failFirstWrite struct {
	bytes.Buffer
	failed bool
}

func (w *failFirstWrite) Write(p []byte) (int, error) {
	if !w.failed {
		w.failed = true
		return 0, fmt.Errorf("broken pipe")
	}
	return w.Buffer.Write(p)
}

func TestSafeReportGenerator_FallsBackToConsole(t *testing.T) {
	config := DefaultReportConfig()
	config.Format = FormatJSON
	generator, err := NewSafeReportGenerator(config, nil)
	if err != nil {
		t.Fatalf("NewSafeReportGenerator() error = %v", err)
	}

	var out failFirstWrite
	if err := generator.GenerateReportSafely(commissionResult(), &out); err != nil {
		t.Fatalf("GenerateReportSafely() error = %v", err)
	}
	if !strings.Contains(out.String(), "json report failed (broken pipe)") {
		t.Errorf("output should explain the fallback, got:\n%s", out.String())
	}
	if !strings.Contains(out.String(), "Total for clinic:") {
		t.Errorf("output should hold the console report, got:\n%s", out.String())
	}
}
