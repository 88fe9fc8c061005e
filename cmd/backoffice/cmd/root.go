package cmd

import (
	"fmt"
	"os"
	"strings"

	"clinic-backoffice/cmd/backoffice/config"
	"clinic-backoffice/pkg/logger"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var (
	cfgFile  string
	envFiles []string
	verbose  bool
	version  = "dev"
	commit   = "unknown"
	date     = "unknown"

	settings *config.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "backoffice",
	Short: "Clinic back-office checks, commissions and reminders",
	Long: `Backoffice cross-checks the scheduling portal against the practice-management
system, computes monthly doctor commissions from billing exports and lists the
appointments still waiting for confirmation.

Records come from export files (CSV or XLSX) or, when a database DSN is
configured, from the clinic's MySQL snapshot tables.

Examples:
  backoffice checks --appointments citas.csv --treatments tratamientos.xlsx --from 2024-11-11
  backoffice commissions --month Septiembre --doctor 15 --payments comisiones.xlsx
  backoffice reminders --output-format json
  backoffice serve --addr :8080`,
	Version:           getVersionString(),
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: loadSettings,
}

// Execute runs the CLI and returns the process exit code
func Execute() int {
	if err := rootCmd.Execute(); err != nil {
		return NewCLIErrorHandler(os.Stderr).HandleError(err)
	}
	return 0
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "settings file (yaml, json or toml)")
	rootCmd.PersistentFlags().StringSliceVar(&envFiles, "env-file", nil, "dotenv files to load (default .env)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

// loadSettings reads .env, the settings file and BACKOFFICE_ variables, then
// configures the global logger.
func loadSettings(cmd *cobra.Command, args []string) error {
	if err := config.LoadDotEnv(envFiles...); err != nil {
		return err
	}

	viper.SetEnvPrefix(config.EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	viper.AutomaticEnv()

	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
		if err := viper.ReadInConfig(); err != nil {
			return fmt.Errorf("error reading config file %s: %w", cfgFile, err)
		}
	}

	cfg, err := config.Load(viper.GetViper())
	if err != nil {
		return err
	}
	if viper.GetBool("verbose") {
		cfg.Log.Level = logger.DebugLevel
	}

	log, err := logger.NewLogger(&cfg.Log)
	if err != nil {
		return err
	}
	logger.SetGlobalLogger(log)
	if cfgFile != "" {
		log.WithComponent("cli").WithField("config_file", viper.ConfigFileUsed()).Debug("Loaded settings file")
	}

	settings = cfg
	return nil
}

// SetVersionInfo sets the version information for the CLI
func SetVersionInfo(v, c, d string) {
	version = v
	commit = c
	date = d
	rootCmd.Version = getVersionString()
}

func getVersionString() string {
	if version == "dev" {
		return fmt.Sprintf("%s (commit %s, built %s)", version, commit, date)
	}
	return version
}
