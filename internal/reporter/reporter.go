// Package reporter renders check results, commission statements and reminder
// lists for clinic staff.
//
// Supported output formats:
//   - Console: human-readable text for terminal display
//   - JSON: structured data for programmatic consumption
//   - CSV: one record per alert, commission row or reminder
//
// Amounts are written with a decimal comma unless the configuration asks for
// a decimal point, matching how the clinic's spreadsheets expect them.
//
// Example usage:
//
//	generator, err := reporter.NewReportGenerator(nil)
//	err = generator.GenerateCheckReport(result, os.Stdout)
package reporter

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"
	"time"

	"clinic-backoffice/internal/commissions"
	"clinic-backoffice/internal/models"
	"clinic-backoffice/internal/normalize"
	"clinic-backoffice/internal/reconciler"

	"github.com/shopspring/decimal"
)

// OutputFormat represents the supported report output formats
type OutputFormat string

const (
	FormatConsole OutputFormat = "console"
	FormatJSON    OutputFormat = "json"
	FormatCSV     OutputFormat = "csv"
)

// IsValid checks if the output format is supported
func (f OutputFormat) IsValid() bool {
	switch f {
	case FormatConsole, FormatJSON, FormatCSV:
		return true
	default:
		return false
	}
}

// ReportConfig holds configuration options for report generation
type ReportConfig struct {
	Format OutputFormat `json:"format" mapstructure:"format"`

	IncludeSummary   bool `json:"include_summary" mapstructure:"include_summary"`
	IncludeUnmatched bool `json:"include_unmatched" mapstructure:"include_unmatched"`
	// MaxAlerts caps the alerts printed to the console; zero prints all
	MaxAlerts int `json:"max_alerts" mapstructure:"max_alerts"`

	DecimalComma bool `json:"decimal_comma" mapstructure:"decimal_comma"`

	CSVDelimiter rune `json:"csv_delimiter" mapstructure:"csv_delimiter"`
	CSVHeaders   bool `json:"csv_headers" mapstructure:"csv_headers"`
}

// DefaultReportConfig returns a default report configuration
func DefaultReportConfig() *ReportConfig {
	return &ReportConfig{
		Format:           FormatConsole,
		IncludeSummary:   true,
		IncludeUnmatched: true,
		MaxAlerts:        0,
		DecimalComma:     true,
		CSVDelimiter:     ';',
		CSVHeaders:       true,
	}
}

// Validate validates the report configuration
func (c *ReportConfig) Validate() error {
	if !c.Format.IsValid() {
		return fmt.Errorf("invalid output format: %s", c.Format)
	}
	if c.MaxAlerts < 0 {
		return fmt.Errorf("max alerts cannot be negative, got %d", c.MaxAlerts)
	}
	if c.Format == FormatCSV && (c.CSVDelimiter == 0 || c.CSVDelimiter == '"' || c.CSVDelimiter == '\n') {
		return fmt.Errorf("invalid CSV delimiter %q", c.CSVDelimiter)
	}
	if c.Format == FormatCSV && c.DecimalComma && c.CSVDelimiter == ',' {
		return fmt.Errorf("a comma delimiter cannot be combined with decimal commas")
	}
	return nil
}

// ReportGenerator generates reports in various formats
type ReportGenerator struct {
	config *ReportConfig
}

// NewReportGenerator creates a new report generator with the specified configuration
func NewReportGenerator(config *ReportConfig) (*ReportGenerator, error) {
	if config == nil {
		config = DefaultReportConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid report configuration: %w", err)
	}
	return &ReportGenerator{config: config}, nil
}

// GenerateCheckReport writes the alerts of a reconciliation run
func (rg *ReportGenerator) GenerateCheckReport(result *reconciler.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("check result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.checkConsole(result, writer)
	case FormatJSON:
		return writeJSON(writer, result)
	case FormatCSV:
		return rg.checkCSV(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// GenerateCommissionReport writes a doctor's commission statement
func (rg *ReportGenerator) GenerateCommissionReport(result *commissions.Result, writer io.Writer) error {
	if result == nil {
		return fmt.Errorf("commission result cannot be nil")
	}

	switch rg.config.Format {
	case FormatConsole:
		return rg.commissionConsole(result, writer)
	case FormatJSON:
		return writeJSON(writer, result)
	case FormatCSV:
		return rg.commissionCSV(result, writer)
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

// GenerateReminderReport writes the list of patients to call
func (rg *ReportGenerator) GenerateReminderReport(reminders []models.Reminder, writer io.Writer) error {
	if reminders == nil {
		reminders = []models.Reminder{}
	}

	switch rg.config.Format {
	case FormatConsole:
		fmt.Fprintf(writer, "PENDING CONFIRMATIONS (%d)\n", len(reminders))
		for i, r := range reminders {
			fmt.Fprintf(writer, "  %d. %s  %s\n", i+1, r.AppointmentName, r.Telephone)
		}
		return nil
	case FormatJSON:
		return writeJSON(writer, reminders)
	case FormatCSV:
		w := rg.csvWriter(writer)
		if rg.config.CSVHeaders {
			if err := w.Write([]string{"Appointment_Name", "Telephone"}); err != nil {
				return fmt.Errorf("failed to write CSV headers: %w", err)
			}
		}
		for _, r := range reminders {
			if err := w.Write([]string{r.AppointmentName, r.Telephone}); err != nil {
				return fmt.Errorf("failed to write reminder record: %w", err)
			}
		}
		w.Flush()
		return w.Error()
	default:
		return fmt.Errorf("unsupported output format: %s", rg.config.Format)
	}
}

func (rg *ReportGenerator) checkConsole(result *reconciler.Result, writer io.Writer) error {
	fmt.Fprintf(writer, "DAILY CHECKS REPORT\n")
	fmt.Fprintf(writer, "Generated: %s\n", result.ProcessedAt.Format(time.RFC3339))
	fmt.Fprintf(writer, "Run: %s\n\n", result.RunID)

	if rg.config.IncludeSummary && result.Summary != nil {
		fmt.Fprintf(writer, "=== SUMMARY ===\n")
		rg.printCheckSummary(result.Summary, writer)
		fmt.Fprintf(writer, "\n")
	}

	if len(result.Alerts) == 0 {
		fmt.Fprintf(writer, "No alerts found.\n")
		return nil
	}

	fmt.Fprintf(writer, "=== ALERTS (%d) ===\n", len(result.Alerts))
	var currentDay time.Time
	for i, alert := range result.Alerts {
		if rg.config.MaxAlerts > 0 && i >= rg.config.MaxAlerts {
			fmt.Fprintf(writer, "  ... and %d more\n", len(result.Alerts)-i)
			break
		}
		if !alert.Day.Equal(currentDay) {
			currentDay = alert.Day
			fmt.Fprintf(writer, "\n%s\n", normalize.DayKey(alert.Day))
		}
		fmt.Fprintf(writer, "  [%s] %s\n", alert.Label, alert.Message)
	}
	return nil
}

func (rg *ReportGenerator) printCheckSummary(summary *reconciler.Summary, writer io.Writer) {
	fmt.Fprintf(writer, "Days:                  %d\n", summary.Days)
	if summary.FirstDay != nil && summary.LastDay != nil {
		fmt.Fprintf(writer, "Range:                 %s .. %s\n", normalize.DayKey(*summary.FirstDay), normalize.DayKey(*summary.LastDay))
	}
	fmt.Fprintf(writer, "Appointments checked:  %d\n", summary.AppointmentsChecked)
	fmt.Fprintf(writer, "Treatments checked:    %d\n", summary.TreatmentsChecked)
	if summary.DroppedAppointments+summary.DroppedTreatments > 0 {
		fmt.Fprintf(writer, "Rows without a date:   %d appointments, %d treatments\n", summary.DroppedAppointments, summary.DroppedTreatments)
	}
	if summary.SkippedDoctorChecks > 0 {
		fmt.Fprintf(writer, "Unknown specialists:   %d\n", summary.SkippedDoctorChecks)
	}

	types := make([]string, 0, len(summary.ByType))
	for alertType := range summary.ByType {
		types = append(types, string(alertType))
	}
	sort.Strings(types)
	for _, alertType := range types {
		label := models.AlertType(alertType).Label()
		fmt.Fprintf(writer, "  %-22s %d\n", label+":", summary.ByType[models.AlertType(alertType)])
	}
}

func (rg *ReportGenerator) checkCSV(result *reconciler.Result, writer io.Writer) error {
	w := rg.csvWriter(writer)
	if rg.config.CSVHeaders {
		headers := []string{"Day", "Type", "Label", "Patient", "Specialist", "Status", "Message", "Suggestions"}
		if err := w.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, alert := range result.Alerts {
		record := []string{
			normalize.DayKey(alert.Day),
			string(alert.Type),
			alert.Label,
			alert.Appointment.PatientName,
			alert.Appointment.Specialist,
			alert.Appointment.Status.String(),
			alert.Message,
			strings.Join(alert.Suggestions, ", "),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write alert record: %w", err)
		}
	}
	w.Flush()
	return w.Error()
}

func (rg *ReportGenerator) commissionConsole(result *commissions.Result, writer io.Writer) error {
	name := result.DoctorName
	if name == "" {
		name = result.DoctorID
	}
	fmt.Fprintf(writer, "COMMISSION STATEMENT\n")
	fmt.Fprintf(writer, "Doctor: %s (%s)\n", name, result.DoctorID)
	fmt.Fprintf(writer, "Period: %s\n", result.Period)
	fmt.Fprintf(writer, "Generated: %s\n\n", result.ProcessedAt.Format(time.RFC3339))

	fmt.Fprintf(writer, "=== ROWS (%d) ===\n", len(result.Rows))
	for _, row := range result.Rows {
		fmt.Fprintf(writer, "  %s  %-8s %-28s %-30s %10s  %s%% -> %s\n",
			row.Date,
			row.PatientCode,
			truncate(row.Patient, 28),
			truncate(row.Description, 30),
			rg.amount(row.GrossNet),
			rg.amount(row.Percent),
			rg.amount(row.Commission))
	}
	fmt.Fprintf(writer, "\n")

	if rg.config.IncludeSummary {
		a := result.Analytics
		fmt.Fprintf(writer, "=== ANALYTICS ===\n")
		fmt.Fprintf(writer, "Total commission:        %s\n", rg.amount(a.TotalCommission))
		fmt.Fprintf(writer, "Total for clinic:        %s\n", rg.amount(a.TotalForClinic))
		fmt.Fprintf(writer, "Unique patients:         %d\n", a.UniquePatients)
		fmt.Fprintf(writer, "Productivity per patient: %s\n", rg.amount(a.ProductivityPerPatient))
		fmt.Fprintf(writer, "Transactions:            %d (%d without amount)\n", result.Transactions, result.SkippedZero)
	}

	if rg.config.IncludeUnmatched && len(result.Unmatched) > 0 {
		fmt.Fprintf(writer, "\n=== WITHOUT COMMISSION RULE (%d) ===\n", len(result.Unmatched))
		for _, u := range result.Unmatched {
			fmt.Fprintf(writer, "  %s  %s  %s  %s (%s)\n", u.Date, u.PatientCode, u.Description, rg.amount(u.Gross), u.CommissionType)
		}
	}
	return nil
}

func (rg *ReportGenerator) commissionCSV(result *commissions.Result, writer io.Writer) error {
	w := rg.csvWriter(writer)
	if rg.config.CSVHeaders {
		headers := []string{
			"Fecha", "Codigo", "Paciente", "Descripcion",
			"Importe", "Importe_sin_IVA", "Coste_lab", "Coste_lab_sin_IVA",
			"Tipo_comision", "Porcentaje", "Comision",
		}
		if err := w.Write(headers); err != nil {
			return fmt.Errorf("failed to write CSV headers: %w", err)
		}
	}

	for _, row := range result.Rows {
		record := []string{
			row.Date,
			row.PatientCode,
			row.Patient,
			row.Description,
			rg.amount(row.Gross),
			rg.amount(row.GrossNet),
			rg.amount(row.LabCost),
			rg.amount(row.LabCostNet),
			string(row.CommissionType),
			rg.amount(row.Percent),
			rg.amount(row.Commission),
		}
		if err := w.Write(record); err != nil {
			return fmt.Errorf("failed to write commission record: %w", err)
		}
	}

	if rg.config.IncludeSummary {
		a := result.Analytics
		totals := [][]string{
			{"Total_comision", rg.amount(a.TotalCommission)},
			{"Total_clinica", rg.amount(a.TotalForClinic)},
			{"Pacientes_unicos", strconv.Itoa(a.UniquePatients)},
			{"Productividad_por_paciente", rg.amount(a.ProductivityPerPatient)},
		}
		for _, total := range totals {
			if err := w.Write(total); err != nil {
				return fmt.Errorf("failed to write analytics record: %w", err)
			}
		}
	}
	w.Flush()
	return w.Error()
}

func (rg *ReportGenerator) csvWriter(writer io.Writer) *csv.Writer {
	w := csv.NewWriter(writer)
	w.Comma = rg.config.CSVDelimiter
	return w
}

func (rg *ReportGenerator) amount(d decimal.Decimal) string {
	if rg.config.DecimalComma {
		return normalize.FormatNumber(d)
	}
	return d.StringFixed(2)
}

func writeJSON(writer io.Writer, v interface{}) error {
	encoder := json.NewEncoder(writer)
	encoder.SetIndent("", "  ")
	return encoder.Encode(v)
}

func truncate(s string, max int) string {
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	return string(runes[:max-1]) + "…"
}

// UpdateConfiguration updates the report generator configuration
func (rg *ReportGenerator) UpdateConfiguration(config *ReportConfig) error {
	if err := config.Validate(); err != nil {
		return fmt.Errorf("invalid report configuration: %w", err)
	}
	rg.config = config
	return nil
}

// GetConfiguration returns the current configuration
func (rg *ReportGenerator) GetConfiguration() *ReportConfig {
	return rg.config
}
