// Package config assembles the back-office settings from defaults, an optional
// settings file, BACKOFFICE_ environment variables and a .env file.
package config

import (
	"fmt"
	"os"
	"strings"
	"unicode/utf8"

	"clinic-backoffice/internal/api"
	"clinic-backoffice/internal/commissions"
	"clinic-backoffice/internal/matcher"
	"clinic-backoffice/internal/normalize"
	"clinic-backoffice/internal/reconciler"
	"clinic-backoffice/internal/reporter"
	"clinic-backoffice/internal/sources"
	"clinic-backoffice/internal/store"
	"clinic-backoffice/pkg/errors"
	"clinic-backoffice/pkg/logger"

	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment variable read by the CLI
const EnvPrefix = "BACKOFFICE"

var validate = validator.New()

// CSVSettings configures how CSV exports are read
type CSVSettings struct {
	Delimiter       string `json:"delimiter" mapstructure:"delimiter" validate:"required"`
	SkipAfterHeader int    `json:"skip_after_header" mapstructure:"skip_after_header" validate:"gte=0"`
	Sheet           string `json:"sheet" mapstructure:"sheet"`
}

// ReportSettings configures the report written by the CLI
type ReportSettings struct {
	Format       string `json:"format" mapstructure:"format" validate:"oneof=console json csv"`
	Delimiter    string `json:"delimiter" mapstructure:"delimiter" validate:"required"`
	DecimalComma bool   `json:"decimal_comma" mapstructure:"decimal_comma"`
	MaxAlerts    int    `json:"max_alerts" mapstructure:"max_alerts" validate:"gte=0"`
}

// Config holds every setting of the CLI and the API server
type Config struct {
	Log         logger.Config         `json:"log" mapstructure:"log"`
	Checks      *reconciler.Config    `json:"checks" mapstructure:"checks" validate:"required"`
	Commissions *commissions.Config   `json:"commissions" mapstructure:"commissions" validate:"required"`
	Columns     normalize.Columns     `json:"columns" mapstructure:"columns"`
	DateLayouts normalize.DateLayouts `json:"date_layouts" mapstructure:"date_layouts"`
	Sources     sources.Paths         `json:"sources" mapstructure:"sources"`
	CSV         CSVSettings           `json:"csv" mapstructure:"csv"`
	Store       *store.Config         `json:"store" mapstructure:"store" validate:"required"`
	API         *api.Config           `json:"api" mapstructure:"api" validate:"required"`
	Report      ReportSettings        `json:"report" mapstructure:"report"`
}

// Default returns the clinic's production settings
func Default() *Config {
	return &Config{
		Log:         *logger.DefaultConfig(),
		Checks:      reconciler.DefaultConfig(),
		Commissions: commissions.DefaultConfig(),
		Columns:     normalize.DefaultColumns(),
		DateLayouts: normalize.DefaultDateLayouts(),
		CSV:         CSVSettings{Delimiter: ","},
		Store:       store.DefaultConfig(),
		API:         api.DefaultConfig(),
		Report: ReportSettings{
			Format:       string(reporter.FormatConsole),
			Delimiter:    ";",
			DecimalComma: true,
		},
	}
}

// LoadDotEnv loads KEY=VALUE pairs from the given files into the environment
// without overriding variables already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil && !os.IsNotExist(err) {
			return errors.ConfigurationError(errors.CodeInvalidConfig, file, nil, err)
		}
	}
	return nil
}

// Load decodes v over the defaults. Lists and maps given in v replace the
// defaults instead of merging with them. Engine date layouts left unset follow
// the date_layouts section. checks.matching_preset picks the starting point of
// checks.matching; keys given under checks.matching still override it.
func Load(v *viper.Viper) (*Config, error) {
	cfg := Default()
	for key, reset := range replaceable(cfg) {
		if v.IsSet(key) {
			reset()
		}
	}
	if v.IsSet("checks.matching_preset") {
		preset, err := matcher.PresetMatchingConfig(v.GetString("checks.matching_preset"))
		if err != nil {
			return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "checks.matching_preset", v.GetString("checks.matching_preset"), err).
				WithSuggestion("Valid presets: default, strict, relaxed")
		}
		cfg.Checks.Matching = preset
	}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "config", nil, err).
			WithSuggestion("Check the settings file syntax and value types")
	}

	if !v.IsSet("checks.appointment_date_layouts") {
		cfg.Checks.AppointmentDateLayouts = cfg.DateLayouts.Appointments
	}
	if !v.IsSet("checks.treatment_date_layouts") {
		cfg.Checks.TreatmentDateLayouts = cfg.DateLayouts.Treatments
	}
	if !v.IsSet("commissions.payment_date_layouts") {
		cfg.Commissions.PaymentDateLayouts = cfg.DateLayouts.Payments
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// replaceable lists the list and map settings whose defaults are dropped when
// the setting is given, so decoding does not merge into them.
func replaceable(cfg *Config) map[string]func() {
	return map[string]func(){
		"checks.doctors":                   func() { cfg.Checks.Doctors = nil },
		"checks.allowed_statuses":          func() { cfg.Checks.AllowedStatuses = nil },
		"checks.exempt_doctor_ids":         func() { cfg.Checks.ExemptDoctorIDs = nil },
		"checks.appointment_date_layouts":  func() { cfg.Checks.AppointmentDateLayouts = nil },
		"checks.treatment_date_layouts":    func() { cfg.Checks.TreatmentDateLayouts = nil },
		"commissions.rules":                func() { cfg.Commissions.Rules = nil },
		"commissions.type_rules":           func() { cfg.Commissions.TypeRules = nil },
		"commissions.payment_date_layouts": func() { cfg.Commissions.PaymentDateLayouts = nil },
		"date_layouts.appointments":        func() { cfg.DateLayouts.Appointments = nil },
		"date_layouts.treatments":          func() { cfg.DateLayouts.Treatments = nil },
		"date_layouts.payments":            func() { cfg.DateLayouts.Payments = nil },
		"api.allowed_origins":              func() { cfg.API.AllowedOrigins = nil },
	}
}

// Validate checks the struct tags and each component's own rules
func (c *Config) Validate() error {
	if err := validate.Struct(c); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "config", nil, err)
	}

	checks := []struct {
		setting string
		check   func() error
	}{
		{"log", c.Log.Validate},
		{"checks", c.Checks.Validate},
		{"commissions", c.Commissions.Validate},
		{"store", c.Store.Validate},
		{"csv", func() error { _, err := c.ParseConfig(); return err }},
		{"report", func() error { _, err := c.ReportConfig(""); return err }},
	}
	for _, check := range checks {
		if err := check.check(); err != nil {
			return errors.ConfigurationError(errors.CodeInvalidConfig, check.setting, nil, err)
		}
	}

	if _, err := commissions.NewRuleBook(c.Commissions.Rules, c.Commissions.TypeRules); err != nil {
		return errors.ConfigurationError(errors.CodeInvalidConfig, "commissions.rules", nil, err).
			WithSuggestion("Each rule needs an id, a treatment type, a commission type and a percent between 0 and 100")
	}
	return nil
}

// ParseConfig builds the export reader settings
func (c *Config) ParseConfig() (*sources.ParseConfig, error) {
	delimiter, err := singleRune("csv.delimiter", c.CSV.Delimiter)
	if err != nil {
		return nil, err
	}
	parse := sources.DefaultParseConfig()
	parse.Delimiter = delimiter
	parse.SkipAfterHeader = c.CSV.SkipAfterHeader
	if err := parse.Validate(); err != nil {
		return nil, err
	}
	return parse, nil
}

// ReportConfig builds the report settings. A non-empty format overrides the configured one.
func (c *Config) ReportConfig(format string) (*reporter.ReportConfig, error) {
	delimiter, err := singleRune("report.delimiter", c.Report.Delimiter)
	if err != nil {
		return nil, err
	}
	if format == "" {
		format = c.Report.Format
	}

	report := reporter.DefaultReportConfig()
	report.Format = reporter.OutputFormat(strings.ToLower(format))
	report.CSVDelimiter = delimiter
	report.DecimalComma = c.Report.DecimalComma
	report.MaxAlerts = c.Report.MaxAlerts
	if err := report.Validate(); err != nil {
		return nil, err
	}
	return report, nil
}

// HasDatabase reports whether a DSN is configured
func (c *Config) HasDatabase() bool {
	return strings.TrimSpace(c.Store.DSN) != ""
}

func singleRune(setting, value string) (rune, error) {
	if value == `\t` || value == "tab" {
		return '\t', nil
	}
	if utf8.RuneCountInString(value) != 1 {
		return 0, fmt.Errorf("%s must be a single character, got %q", setting, value)
	}
	r, _ := utf8.DecodeRuneInString(value)
	return r, nil
}
