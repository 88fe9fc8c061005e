package reporter

import (
	"fmt"
	"io"

	"clinic-backoffice/internal/commissions"
	"clinic-backoffice/internal/models"
	"clinic-backoffice/internal/reconciler"
	"clinic-backoffice/pkg/errors"
	"clinic-backoffice/pkg/logger"
)

// SafeReportGenerator checks what it is asked to render and falls back to the
// console layout when the configured format fails
type SafeReportGenerator struct {
	*ReportGenerator
	logger logger.Logger
}

// NewSafeReportGenerator creates a report generator for the CLI
func NewSafeReportGenerator(config *ReportConfig, log logger.Logger) (*SafeReportGenerator, error) {
	if log == nil {
		log = logger.GetGlobalLogger()
	}

	generator, err := NewReportGenerator(config)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "report", config, err).
			WithSuggestion("Check the report configuration values")
	}

	return &SafeReportGenerator{
		ReportGenerator: generator,
		logger:          log.WithComponent("reporter"),
	}, nil
}

// GenerateReportSafely renders a check result, a commission result or a reminder list
func (srg *SafeReportGenerator) GenerateReportSafely(result interface{}, writer io.Writer) error {
	switch {
	case result == nil:
		return errors.ValidationError(errors.CodeMissingField, "result", nil, nil)
	case writer == nil:
		return errors.ValidationError(errors.CodeMissingField, "writer", nil, nil)
	}

	switch result.(type) {
	case *reconciler.Result, *commissions.Result, []models.Reminder:
	default:
		return errors.ValidationError(errors.CodeInvalidFormat, "result_type", fmt.Sprintf("%T", result), nil).
			WithSuggestion("Provide a check result, a commission result or a reminder list")
	}

	err := generate(srg.ReportGenerator, result, writer)
	if err == nil || srg.config.Format == FormatConsole {
		return wrapGenerationError(err)
	}

	srg.logger.WithError(err).WithField("format", srg.config.Format).Warn("Report failed, falling back to console")

	fallbackConfig := *srg.config
	fallbackConfig.Format = FormatConsole
	fallback, ferr := NewReportGenerator(&fallbackConfig)
	if ferr != nil {
		return wrapGenerationError(err)
	}

	fmt.Fprintf(writer, "NOTE: %s report failed (%v), showing the console report\n\n", srg.config.Format, err)
	if ferr := generate(fallback, result, writer); ferr != nil {
		return wrapGenerationError(fmt.Errorf("%s report: %v; console report: %w", srg.config.Format, err, ferr))
	}
	return nil
}

func generate(rg *ReportGenerator, result interface{}, writer io.Writer) error {
	switch r := result.(type) {
	case *reconciler.Result:
		return rg.GenerateCheckReport(r, writer)
	case *commissions.Result:
		return rg.GenerateCommissionReport(r, writer)
	case []models.Reminder:
		return rg.GenerateReminderReport(r, writer)
	default:
		return fmt.Errorf("unsupported result type %T", result)
	}
}

func wrapGenerationError(err error) error {
	if err == nil {
		return nil
	}
	if be, ok := errors.AsBackofficeError(err); ok {
		return be
	}
	return errors.InternalError(errors.CodeUnexpectedError, "report_generation", err).
		WithSuggestion("Check the output destination and report format settings")
}
