// Package store reads record snapshots from the clinic's MySQL database.
//
// The ETL job loads every export into a table whose column names are the export
// headers stripped to letters, digits and underscores. Queries select a date
// range from those tables and hand the rows over as strings, so the same
// normalization applies to stored rows and to export files.
package store

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"time"

	"clinic-backoffice/internal/models"
	"clinic-backoffice/internal/normalize"
	"clinic-backoffice/pkg/errors"
	"clinic-backoffice/pkg/logger"

	"github.com/shopspring/decimal"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

var identifierPattern = regexp.MustCompile(`^[\p{L}\p{N}_]+$`)

// Tables names the table holding each source
type Tables struct {
	Appointments string `json:"appointments" mapstructure:"appointments"`
	Treatments   string `json:"treatments" mapstructure:"treatments"`
	Payments     string `json:"payments" mapstructure:"payments"`
	PersonalData string `json:"personal_data" mapstructure:"personal_data"`
	Collections  string `json:"collections" mapstructure:"collections"`
}

// Config holds the database settings
type Config struct {
	DSN             string        `json:"dsn" mapstructure:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns" mapstructure:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns" mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime" mapstructure:"conn_max_lifetime"`
	SlowThreshold   time.Duration `json:"slow_threshold" mapstructure:"slow_threshold"`
	Tables          Tables        `json:"tables" mapstructure:"tables"`

	// Collections columns used by the revenue query
	CollectionDateColumn   string `json:"collection_date_column" mapstructure:"collection_date_column"`
	CollectionAmountColumn string `json:"collection_amount_column" mapstructure:"collection_amount_column"`
}

// DefaultConfig returns the table layout written by the ETL job
func DefaultConfig() *Config {
	return &Config{
		MaxOpenConns:    10,
		MaxIdleConns:    5,
		ConnMaxLifetime: 5 * time.Minute,
		SlowThreshold:   time.Second,
		Tables: Tables{
			Appointments: "citas",
			Treatments:   "tratamientos",
			Payments:     "comisiones",
			PersonalData: "datos_personales",
			Collections:  "cobros",
		},
		CollectionDateColumn:   "Fechadecobro",
		CollectionAmountColumn: "Importecobrado",
	}
}

// Validate checks every identifier that ends up in a query
func (c *Config) Validate() error {
	for _, name := range []string{
		c.Tables.Appointments, c.Tables.Treatments, c.Tables.Payments,
		c.Tables.PersonalData, c.Tables.Collections,
		c.CollectionDateColumn, c.CollectionAmountColumn,
	} {
		if err := checkIdentifier(name); err != nil {
			return err
		}
	}
	return nil
}

// Store queries the snapshot tables
type Store struct {
	db      *gorm.DB
	config  *Config
	columns normalize.Columns
	logger  logger.Logger
}

// Open connects to MySQL. columns are the export column layouts; the store
// derives its own column names from them.
func Open(config *Config, columns normalize.Columns) (*Store, error) {
	if config == nil || config.DSN == "" {
		return nil, errors.ConfigurationError(errors.CodeMissingConfig, "store.dsn", nil, nil)
	}

	log := logger.GetGlobalLogger().WithComponent("store")
	db, err := gorm.Open(mysql.Open(config.DSN), &gorm.Config{
		Logger: gormlogger.New(gormWriter{log: log}, gormlogger.Config{
			LogLevel:      gormlogger.Error,
			SlowThreshold: config.SlowThreshold,
		}),
	})
	if err != nil {
		return nil, errors.StorageError(errors.CodeConnectionFailed, "open", err)
	}

	if sqlDB, err := db.DB(); err == nil {
		if config.MaxOpenConns > 0 {
			sqlDB.SetMaxOpenConns(config.MaxOpenConns)
		}
		if config.MaxIdleConns >= 0 {
			sqlDB.SetMaxIdleConns(config.MaxIdleConns)
		}
		if config.ConnMaxLifetime > 0 {
			sqlDB.SetConnMaxLifetime(config.ConnMaxLifetime)
		}
	}

	return New(db, config, columns)
}

// New wraps an existing connection
func New(db *gorm.DB, config *Config, columns normalize.Columns) (*Store, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, err
	}
	return &Store{
		db:      db,
		config:  config,
		columns: columns.Stored(),
		logger:  logger.GetGlobalLogger().WithComponent("store"),
	}, nil
}

// Close releases the connection pool
func (s *Store) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// RowsInRange returns every row of table whose dateColumn lies within [from, to]
func (s *Store) RowsInRange(ctx context.Context, table, dateColumn string, from, to time.Time) ([]models.Row, error) {
	query, err := rangeQuery(table, dateColumn)
	if err != nil {
		return nil, err
	}
	return s.fetch(ctx, "rows_in_range", between(query, from, to))
}

// Appointments returns the scheduling portal rows of the range
func (s *Store) Appointments(ctx context.Context, from, to time.Time) ([]models.Appointment, error) {
	rows, err := s.RowsInRange(ctx, s.config.Tables.Appointments, s.columns.Appointments.Date, from, to)
	if err != nil {
		return nil, err
	}
	return normalize.Appointments(rows, s.columns.Appointments), nil
}

// Treatments returns the treatment records of the range
func (s *Store) Treatments(ctx context.Context, from, to time.Time) ([]models.Treatment, error) {
	rows, err := s.RowsInRange(ctx, s.config.Tables.Treatments, s.columns.Treatments.Date, from, to)
	if err != nil {
		return nil, err
	}
	return normalize.Treatments(rows, s.columns.Treatments), nil
}

// Payments returns the billing lines of the range, each carrying the referral
// source from the patient's personal data
func (s *Store) Payments(ctx context.Context, from, to time.Time) ([]models.RawPayment, error) {
	query, err := paymentsQuery(s.config.Tables.Payments, s.config.Tables.PersonalData,
		s.columns.Payments.Date, s.columns.Payments.PatientCode,
		s.columns.PersonalData.PatientCode, s.columns.PersonalData.Referral)
	if err != nil {
		return nil, err
	}
	rows, err := s.fetch(ctx, "payments", between(query, from, to))
	if err != nil {
		return nil, err
	}

	cols := s.columns.Payments
	cols.Referral = s.columns.PersonalData.Referral
	return normalize.Payments(rows, cols), nil
}

// Referrals returns the patient code to referral source lookup
func (s *Store) Referrals(ctx context.Context) (map[string]string, error) {
	cols := s.columns.PersonalData
	query, err := selectQuery(s.config.Tables.PersonalData, cols.PatientCode, cols.Referral)
	if err != nil {
		return nil, err
	}
	rows, err := s.fetch(ctx, "referrals", func(tx *gorm.DB) *gorm.DB {
		return tx.Raw(query)
	})
	if err != nil {
		return nil, err
	}
	return normalize.ReferralIndex(rows, cols), nil
}

// Revenue sums the amounts collected within [from, to]
func (s *Store) Revenue(ctx context.Context, from, to time.Time) (decimal.Decimal, error) {
	query, err := revenueQuery(s.config.Tables.Collections, s.config.CollectionDateColumn, s.config.CollectionAmountColumn)
	if err != nil {
		return decimal.Zero, err
	}

	var total decimal.NullDecimal
	if err := between(query, from, to)(s.db.WithContext(ctx)).Row().Scan(&total); err != nil {
		s.logger.WithError(err).Error("Revenue query failed")
		return decimal.Zero, errors.StorageError(errors.CodeQueryFailed, "revenue", err)
	}
	if !total.Valid {
		return decimal.Zero, nil
	}
	return total.Decimal, nil
}

// between binds a date range to a query with two placeholders
func between(query string, from, to time.Time) func(tx *gorm.DB) *gorm.DB {
	return func(tx *gorm.DB) *gorm.DB {
		return tx.Raw(query, from, to)
	}
}

func (s *Store) fetch(ctx context.Context, operation string, build func(tx *gorm.DB) *gorm.DB) ([]models.Row, error) {
	var results []map[string]interface{}
	if err := build(s.db.WithContext(ctx)).Scan(&results).Error; err != nil {
		s.logger.WithError(err).WithField("operation", operation).Error("Query failed")
		return nil, errors.StorageError(errors.CodeQueryFailed, operation, err)
	}

	rows := make([]models.Row, 0, len(results))
	for _, result := range results {
		row := make(models.Row, len(result))
		for column, value := range result {
			row[column] = stringify(value)
		}
		rows = append(rows, row)
	}

	s.logger.WithFields(logger.Fields{
		"operation": operation,
		"rows":      len(rows),
	}).Debug("Fetched rows")

	return rows, nil
}

// stringify renders a scanned value the way the exports write it
func stringify(value interface{}) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	case time.Time:
		return v.Format(normalize.StoreDateTimeLayout)
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	default:
		return fmt.Sprint(v)
	}
}

type gormWriter struct {
	log logger.Logger
}

func (w gormWriter) Printf(format string, args ...interface{}) {
	w.log.Warnf(format, args...)
}
