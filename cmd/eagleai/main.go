// Command eagleai trains the routine recommender and serves predictions from
// the persisted bundle.
package main

import (
	"context"
	"os"
	"os/signal"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/TomasVales/RutinasPersonalizadas/pkg/config"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/logging"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/metrics"
	"github.com/TomasVales/RutinasPersonalizadas/pkg/store"
)

// app is the state shared by every subcommand after flag parsing.
type app struct {
	configPath string
	logLevel   string

	cfg      *config.Config
	registry *prometheus.Registry
	metrics  *metrics.Metrics
}

func (a *app) openStore(ctx context.Context) (*store.Store, error) {
	return store.Open(ctx, a.cfg.Store)
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:           "eagleai",
		Short:         "Personalized workout routine recommender",
		Long:          "eagleai trains a decision tree on the routine dataset, persists it as a model bundle, and recommends routines from that bundle.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(a.configPath)
			if err != nil {
				return err
			}
			if a.logLevel != "" {
				cfg.Logging.Level = a.logLevel
			}
			lc := cfg.LoggerConfig()
			lc.Output = cmd.ErrOrStderr()
			logging.Init(lc)

			a.cfg = cfg
			a.registry = prometheus.NewRegistry()
			a.metrics = metrics.New(a.registry)
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.cfg == nil || a.cfg.Metrics.Textfile == "" {
				return nil
			}
			return metrics.WriteTextfile(a.cfg.Metrics.Textfile, a.registry)
		},
	}
	root.PersistentFlags().StringVar(&a.configPath, "config", "", "path to the YAML config file (default $"+config.PathEnvVar+" or "+config.DefaultPath+")")
	root.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(newTrainCmd(a), newPredictCmd(a), newInspectCmd(a))
	return root
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		logging.Error().Err(err).Msg("command failed")
		stop()
		os.Exit(1)
	}
}
