package cmd

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"clinic-backoffice/internal/api"
	"clinic-backoffice/internal/sources"

	"github.com/spf13/cobra"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the back-office HTTP API",
	Long: `Serve exposes the checks, commissions, reminders and revenue over HTTP:

  GET /checks?from=2024-11-11&to=2024-11-12
  GET /commissions?month=Septiembre&doctor=15
  GET /reminders
  GET /revenue?from=2024-09-01&to=2024-09-30

Records are read from the database when a DSN is configured, otherwise from the
export files named in the settings.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings, :8080)")
}

func runServe(cmd *cobra.Command, args []string) error {
	needed := []func(sources.Paths) string{appointmentsPath, treatmentsPath, paymentsPath}
	if settings.HasDatabase() {
		needed = nil
	}
	b, err := openBackend(sources.Paths{}, needed...)
	if err != nil {
		return err
	}
	defer b.close()

	svc, err := newService(b.snapshots)
	if err != nil {
		return err
	}

	apiConfig := *settings.API
	if serveAddr != "" {
		apiConfig.Addr = serveAddr
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return api.NewServer(svc, b.revenue, &apiConfig).Run(ctx)
}
