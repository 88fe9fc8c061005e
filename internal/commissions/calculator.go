package commissions

import (
	"fmt"
	"strings"
	"time"

	"clinic-backoffice/internal/models"
	"clinic-backoffice/pkg/errors"
	"clinic-backoffice/pkg/logger"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DefaultVATRate is the VAT percentage included in aesthetic medicine amounts
const DefaultVATRate = 21

var hundred = decimal.NewFromInt(100)

// Config holds the commission tables of the clinic
type Config struct {
	Rules              []models.CommissionRule `json:"rules" mapstructure:"rules"`
	TypeRules          []TypeRule              `json:"type_rules" mapstructure:"type_rules"`
	VATRate            float64                 `json:"vat_rate" mapstructure:"vat_rate"`
	PaymentDateLayouts []string                `json:"payment_date_layouts" mapstructure:"payment_date_layouts"`
}

// DefaultConfig returns the clinic's production commission tables
func DefaultConfig() *Config {
	return &Config{
		Rules:              DefaultRules(),
		TypeRules:          DefaultTypeRules(),
		VATRate:            DefaultVATRate,
		PaymentDateLayouts: DefaultPaymentDateLayouts(),
	}
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if len(c.Rules) == 0 {
		return fmt.Errorf("at least one commission rule is required")
	}
	if c.VATRate < 0 || c.VATRate > 100 {
		return fmt.Errorf("VAT rate must be between 0 and 100: %f", c.VATRate)
	}
	if len(c.PaymentDateLayouts) == 0 {
		return fmt.Errorf("payment date layouts are required")
	}
	return nil
}

// Request asks for one doctor's commissions over one month of billing lines
type Request struct {
	DoctorID string `json:"doctor_id"`
	// Month is a Spanish month name
	Month string `json:"month"`
	// Year restricts the lines to one year; zero keeps every year
	Year     int                 `json:"year,omitempty"`
	Payments []models.RawPayment `json:"-"`
	// Referrals maps patient codes to how the patient found the clinic.
	// When a code is absent the referral carried by the payment line is used.
	Referrals map[string]string `json:"-"`
}

// Result contains one doctor's commission statement
type Result struct {
	RunID        string                 `json:"run_id"`
	DoctorID     string                 `json:"doctor_id"`
	DoctorName   string                 `json:"doctor_name,omitempty"`
	Period       Period                 `json:"period"`
	Rows         []models.CommissionRow `json:"rows"`
	Analytics    models.DoctorAnalytics `json:"analytics"`
	Unmatched    []models.UnmatchedRule `json:"unmatched,omitempty"`
	Transactions int                    `json:"transactions"`
	SkippedZero  int                    `json:"skipped_zero"`
	ProcessedAt  time.Time              `json:"processed_at"`
}

// Calculator computes doctor commissions
type Calculator struct {
	book       *RuleBook
	merger     *Merger
	vatDivisor decimal.Decimal
	logger     logger.Logger
}

// NewCalculator creates a calculator from the commission tables
func NewCalculator(config *Config) (*Calculator, error) {
	if config == nil {
		config = DefaultConfig()
	}
	if err := config.Validate(); err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "commissions", nil, err)
	}

	book, err := NewRuleBook(config.Rules, config.TypeRules)
	if err != nil {
		return nil, errors.ConfigurationError(errors.CodeInvalidConfig, "commissions.rules", nil, err)
	}

	vat := decimal.NewFromFloat(config.VATRate)
	return &Calculator{
		book:       book,
		merger:     NewMerger(config.PaymentDateLayouts...),
		vatDivisor: hundred.Add(vat).Div(hundred),
		logger:     logger.GetGlobalLogger().WithComponent("commission_calculator"),
	}, nil
}

// Rules returns the rule book in use
func (c *Calculator) Rules() *RuleBook {
	return c.book
}

// Calculate merges the request's billing lines for the month and computes the commissions
func (c *Calculator) Calculate(req Request) (*Result, error) {
	period, err := ParsePeriod(req.Month, req.Year)
	if err != nil {
		return nil, err
	}
	if err := c.checkDoctor(req.DoctorID); err != nil {
		return nil, err
	}

	transactions := c.merger.Merge(req.Payments, period)
	return c.CalculateTransactions(req.DoctorID, period, transactions, req.Referrals)
}

// CalculateTransactions computes the commissions of already merged transactions.
// Zero-gross transactions are skipped. Transactions whose commission type has no
// rule for the doctor are left out of the rows and reported in Unmatched.
func (c *Calculator) CalculateTransactions(doctorID string, period Period, transactions []*models.Transaction, referrals map[string]string) (*Result, error) {
	doctorID = strings.TrimSpace(doctorID)
	if err := c.checkDoctor(doctorID); err != nil {
		return nil, err
	}

	runID := uuid.NewString()
	log := c.logger.WithFields(logger.Fields{"run_id": runID, "doctor_id": doctorID})

	result := &Result{
		RunID:        runID,
		DoctorID:     doctorID,
		Period:       period,
		Rows:         make([]models.CommissionRow, 0, len(transactions)),
		Transactions: len(transactions),
		ProcessedAt:  time.Now(),
	}

	totalCommission := decimal.Zero
	totalForClinic := decimal.Zero
	patients := make(map[string]struct{})

	for _, t := range transactions {
		if t.GrossAmount.IsZero() {
			result.SkippedZero++
			log.WithFields(logger.Fields{
				"patient_code": t.PatientCode,
				"description":  t.Description,
			}).Debug("Skipping transaction with zero gross amount")
			continue
		}

		referral, ok := referrals[t.PatientCode]
		if !ok {
			referral = t.ReferralSource
		}
		commissionType := c.book.TypeFor(doctorID, t.Description, referral)

		rule, ok := c.book.Rule(doctorID, commissionType)
		if !ok {
			result.Unmatched = append(result.Unmatched, models.UnmatchedRule{
				DoctorID:       doctorID,
				CommissionType: commissionType,
				Date:           t.Date,
				PatientCode:    t.PatientCode,
				Description:    t.Description,
				Gross:          t.GrossAmount,
			})
			log.WithFields(logger.Fields{
				"commission_type": commissionType,
				"patient_code":    t.PatientCode,
			}).Warn("No commission rule for transaction")
			continue
		}
		if result.DoctorName == "" {
			result.DoctorName = rule.DoctorName
		}

		// Amounts stay at full precision; reports round them to cents.
		grossNet, labNet := t.GrossAmount, t.LabCost
		if rule.TreatmentType.VATIncluded() {
			grossNet = grossNet.Div(c.vatDivisor)
			labNet = labNet.Div(c.vatDivisor)
		}

		percent := decimal.NewFromFloat(rule.Percent)
		commission := grossNet.Sub(labNet).Mul(percent).Div(hundred)

		// The clinic keeps what was charged, VAT included, less lab cost and commission
		totalCommission = totalCommission.Add(commission)
		totalForClinic = totalForClinic.Add(t.GrossAmount.Sub(t.LabCost).Sub(commission))
		patients[t.PatientCode] = struct{}{}

		result.Rows = append(result.Rows, models.CommissionRow{
			Date:           t.Date,
			PatientCode:    t.PatientCode,
			Patient:        t.Patient,
			Description:    t.Description,
			Gross:          t.GrossAmount,
			GrossNet:       grossNet,
			LabCost:        t.LabCost,
			LabCostNet:     labNet,
			CommissionType: commissionType,
			Percent:        percent,
			Commission:     commission,
		})
	}

	result.Analytics = models.DoctorAnalytics{
		TotalCommission:        totalCommission,
		TotalForClinic:         totalForClinic,
		UniquePatients:         len(patients),
		ProductivityPerPatient: decimal.Zero,
	}
	if len(patients) > 0 {
		result.Analytics.ProductivityPerPatient = totalForClinic.Div(decimal.NewFromInt(int64(len(patients))))
	}

	log.WithFields(logger.Fields{
		"period":           period.String(),
		"transactions":     result.Transactions,
		"rows":             len(result.Rows),
		"skipped_zero":     result.SkippedZero,
		"unmatched":        len(result.Unmatched),
		"total_commission": totalCommission.StringFixed(2),
	}).Info("Commission calculation completed")

	return result, nil
}

func (c *Calculator) checkDoctor(doctorID string) error {
	doctorID = strings.TrimSpace(doctorID)
	if doctorID == "" {
		return errors.ValidationError(errors.CodeMissingField, "doctor", doctorID, nil)
	}
	if !c.book.HasDoctor(doctorID) {
		return errors.ValidationError(errors.CodeUnknownDoctor, "doctor", doctorID, nil).
			WithSuggestion(fmt.Sprintf("Use one of the doctors with commission rules: %s", strings.Join(c.book.Doctors(), ", ")))
	}
	return nil
}
