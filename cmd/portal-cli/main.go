package main

import (
	"fmt"
	"os"

	"github.com/healthfirst/portal/internal/availability"
	"github.com/healthfirst/portal/internal/gateway"
	"github.com/healthfirst/portal/internal/session"
	"github.com/healthfirst/portal/pkg/config"
	"github.com/healthfirst/portal/pkg/logger"
	"github.com/healthfirst/portal/pkg/monitoring"
	"github.com/spf13/cobra"
)

const appVersion = "2.0.1"

// app holds what every command needs once flags are parsed
type app struct {
	cfg     *config.Config
	log     *logger.Logger
	metrics *monitoring.MetricsCollector
	session *session.Session
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var (
		configPath string
		logLevel   string
		a          app
	)

	root := &cobra.Command{
		Use:           "portal-cli",
		Short:         "Health First portal client",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.LoadFile(configPath)
			if err != nil {
				return err
			}
			if logLevel != "" {
				cfg.LogLevel = logLevel
			}

			a.cfg = cfg
			a.log = logger.NewWithOutput(cfg.LogLevel, cmd.ErrOrStderr())
			a.metrics = monitoring.NewMetricsCollector("portal-cli")

			storage, err := session.NewStorage(cfg)
			if err != nil {
				return err
			}
			gw := gateway.New(cfg.Gateway, a.log, gateway.WithMetrics(a.metrics))
			a.session = session.New(storage, gw, a.log, availability.WithMetrics(a.metrics))
			return nil
		},
	}

	root.Version = appVersion
	root.SetVersionTemplate("portal-cli v{{.Version}}\n")
	root.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./config.yaml if present)")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "", "Override the configured log level")

	root.AddCommand(
		loginCmd(&a),
		logoutCmd(&a),
		registerProviderCmd(&a),
		registerPatientCmd(&a),
		availabilityCmd(&a),
		applyTemplateCmd(&a),
		templatesCmd(&a),
		statsCmd(&a),
		createAvailabilityCmd(&a),
		statusCmd(&a),
	)
	return root
}
