package cmd

import (
	"context"
	"strings"

	"clinic-backoffice/internal/normalize"
	"clinic-backoffice/internal/sources"
	"clinic-backoffice/pkg/errors"

	"github.com/spf13/cobra"
)

var (
	commissionPaths  sources.Paths
	commissionMonth  string
	commissionDoctor string
)

var commissionsCmd = &cobra.Command{
	Use:   "commissions",
	Short: "Compute a doctor's monthly commissions",
	Long: `Commissions merges the billing export's paired lines into transactions, classifies
each one as regular, referral or Invisalign work, and applies the doctor's
commission percentage after lab costs. Aesthetic medicine amounts are taken net
of VAT. The month is one of the current year.

Months: ` + strings.Join(normalize.SpanishMonthNames(), ", ") + `

Examples:
  backoffice commissions --month Septiembre --doctor 15 --payments comisiones.xlsx --personal-data datos.csv
  backoffice commissions --month octubre --doctor 23 -f csv -o octubre_23.csv`,
	PreRunE: validateCommissionFlags,
	RunE:    runCommissions,
}

func init() {
	rootCmd.AddCommand(commissionsCmd)

	commissionsCmd.Flags().StringVar(&commissionMonth, "month", "", "Spanish month name, e.g. Septiembre (required)")
	commissionsCmd.Flags().StringVar(&commissionDoctor, "doctor", "", "doctor id from the practice-management system (required)")
	commissionsCmd.Flags().StringVar(&commissionPaths.Payments, "payments", "", "billing export (csv or xlsx)")
	commissionsCmd.Flags().StringVar(&commissionPaths.PersonalData, "personal-data", "", "patient personal data export with referral sources")
	addOutputFlags(commissionsCmd)

	commissionsCmd.MarkFlagRequired("month")
	commissionsCmd.MarkFlagRequired("doctor")
}

func validateCommissionFlags(cmd *cobra.Command, args []string) error {
	if _, err := normalize.ParseSpanishMonth(commissionMonth); err != nil {
		return err
	}
	if strings.TrimSpace(commissionDoctor) == "" {
		return errors.ValidationError(errors.CodeMissingField, "doctor", "", nil)
	}
	return nil
}

func runCommissions(cmd *cobra.Command, args []string) error {
	b, err := openBackend(commissionPaths, paymentsPath)
	if err != nil {
		return err
	}
	defer b.close()

	ctx := context.Background()
	if err := b.preload(ctx, paymentsPath, personalDataPath); err != nil {
		return err
	}

	svc, err := newService(b.snapshots)
	if err != nil {
		return err
	}

	result, err := svc.CalculateCommissions(ctx, commissionMonth, strings.TrimSpace(commissionDoctor))
	if err != nil {
		return err
	}

	return writeReport(result, cmd.OutOrStdout())
}
