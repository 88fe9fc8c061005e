package cmd

import (
	"context"

	"clinic-backoffice/internal/sources"

	"github.com/spf13/cobra"
)

var reminderPaths sources.Paths

var remindersCmd = &cobra.Command{
	Use:   "reminders",
	Short: "List tomorrow's appointments still waiting for confirmation",
	Long: `Reminders lists the patients booked within the next 24 hours whose visit is
neither confirmed nor cancelled, with a dialable telephone number.

Examples:
  backoffice reminders --appointments citas.csv
  backoffice reminders -f json`,
	RunE: runReminders,
}

func init() {
	rootCmd.AddCommand(remindersCmd)

	remindersCmd.Flags().StringVar(&reminderPaths.Appointments, "appointments", "", "scheduling portal export (csv or xlsx)")
	addOutputFlags(remindersCmd)
}

func runReminders(cmd *cobra.Command, args []string) error {
	b, err := openBackend(reminderPaths, appointmentsPath)
	if err != nil {
		return err
	}
	defer b.close()

	ctx := context.Background()
	if err := b.preload(ctx, appointmentsPath); err != nil {
		return err
	}

	svc, err := newService(b.snapshots)
	if err != nil {
		return err
	}

	reminders, err := svc.Reminders(ctx)
	if err != nil {
		return err
	}
	return writeReport(reminders, cmd.OutOrStdout())
}
