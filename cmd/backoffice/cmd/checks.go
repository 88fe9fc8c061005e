package cmd

import (
	"context"

	"clinic-backoffice/internal/service"
	"clinic-backoffice/internal/sources"

	"github.com/spf13/cobra"
)

var (
	checkPaths sources.Paths
	checkFrom  string
	checkTo    string
)

var checksCmd = &cobra.Command{
	Use:   "checks",
	Short: "Cross-check appointments against recorded treatments",
	Long: `Checks compares the scheduling portal's appointments with the treatments recorded
in the practice-management system, day by day, and reports:

  - appointments closed with a status other than done, no-show or cancelled
  - completed visits without a treatment recorded for the patient that day
  - treatments recorded under a different doctor than the one booked

Examples:
  # One day from export files
  backoffice checks --appointments citas.csv --treatments tratamientos.xlsx --from 2024-11-11

  # A week from the database, as CSV
  BACKOFFICE_STORE_DSN=... backoffice checks --from 2024-11-11 --to 2024-11-17 -f csv -o alerts.csv`,
	RunE: runChecks,
}

func init() {
	rootCmd.AddCommand(checksCmd)

	checksCmd.Flags().StringVar(&checkPaths.Appointments, "appointments", "", "scheduling portal export (csv or xlsx)")
	checksCmd.Flags().StringVar(&checkPaths.Treatments, "treatments", "", "treatment statistics export (csv or xlsx)")
	checksCmd.Flags().StringVar(&checkFrom, "from", "", "first day to check (YYYY-MM-DD, required)")
	checksCmd.Flags().StringVar(&checkTo, "to", "", "last day to check (YYYY-MM-DD, default: --from)")
	addOutputFlags(checksCmd)

	checksCmd.MarkFlagRequired("from")
}

func runChecks(cmd *cobra.Command, args []string) error {
	from, to, err := service.ParseDateRange(checkFrom, checkTo)
	if err != nil {
		return err
	}

	b, err := openBackend(checkPaths, appointmentsPath, treatmentsPath)
	if err != nil {
		return err
	}
	defer b.close()

	ctx := context.Background()
	if err := b.preload(ctx, appointmentsPath, treatmentsPath); err != nil {
		return err
	}

	svc, err := newService(b.snapshots)
	if err != nil {
		return err
	}

	result, err := svc.RunChecks(ctx, from, to)
	if err != nil {
		return err
	}

	return writeReport(result, cmd.OutOrStdout())
}

func addOutputFlags(cmd *cobra.Command) {
	cmd.Flags().StringVarP(&outputFormat, "output-format", "f", "", "output format: console, json, csv (default from settings)")
	cmd.Flags().StringVarP(&outputFile, "output-file", "o", "", "output file path (default: stdout)")
}

func appointmentsPath(p sources.Paths) string { return p.Appointments }
func treatmentsPath(p sources.Paths) string   { return p.Treatments }
func paymentsPath(p sources.Paths) string     { return p.Payments }
func personalDataPath(p sources.Paths) string { return p.PersonalData }
