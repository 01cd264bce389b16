package main

import (
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	"samsonjenkins/internal/config"
	"samsonjenkins/internal/engine/jenkins"
	"samsonjenkins/internal/jenkinsjob"
	"samsonjenkins/internal/jobconfig"
	"samsonjenkins/internal/logger"
	"samsonjenkins/internal/storage"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "samsonjenkins",
		Short: "Trigger Jenkins jobs after Samson deploys",
		Long: `samsonjenkins triggers the Jenkins jobs attached to a Samson stage once a
deploy finishes, records every attempt and reports the live build status.`,
		SilenceUsage: true,
		PersistentPreRun: func(*cobra.Command, []string) {
			logger.Init(config.GetLogLevel())
		},
		PersistentPostRun: func(*cobra.Command, []string) {
			logger.Sync()
		},
	}
	root.PersistentFlags().String("config", "config.yaml", "Path to the configuration file")

	root.AddCommand(newServeCmd(), newStatusCmd())
	return root
}

// app holds the explicitly constructed service graph
type app struct {
	cfg    *config.Config
	store  *storage.Store
	ci     *jenkins.Trigger
	runner *jenkinsjob.Runner
}

func newApp(cmd *cobra.Command) (*app, error) {
	configPath, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	store, err := storage.Open(cfg.Database.Path)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	ci := jenkins.NewTrigger(jenkins.NewClient(cfg.Jenkins))
	configurator := jobconfig.NewConfigurator(ci, cfg.Jenkins.ConfigCacheTTL, cfg.Jenkins.ConfigRaceTTL)
	trigger := jenkinsjob.NewTrigger(ci, configurator,
		time.Duration(cfg.Jenkins.BuildStartTimeout)*time.Second, cfg.Jenkins.EmailDomain)

	return &app{
		cfg:    cfg,
		store:  store,
		ci:     ci,
		runner: jenkinsjob.NewRunner(trigger, store),
	}, nil
}

func (a *app) Close() {
	if err := a.store.Close(); err != nil {
		logger.Error("Failed to close database connection", "error", err)
	}
}
