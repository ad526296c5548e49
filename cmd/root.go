package cmd

import (
	"fmt"
	"os"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/config"
	"github.com/pable/rostersim/internal/logging"
	"github.com/pable/rostersim/internal/sim"
)

var (
	dbPath   string
	seed     int64
	logLevel string

	cfg *config.Config
	log *logrus.Entry
)

var rootCmd = &cobra.Command{
	Use:   "rostersim",
	Short: "5v5 roster match simulator",
	Long: "Simulate best-of-three series between two team rosters, store the results\n" +
		"and compute per-player performance metrics.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", config.DefaultDBPath(), "path to SQLite database (env ROSTERSIM_DB)")
	rootCmd.PersistentFlags().Int64Var(&seed, "seed", 0, "random seed, 0 seeds from the clock (env ROSTERSIM_SEED)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "log level: debug, info, warn, error (env ROSTERSIM_LOG_LEVEL)")

	rootCmd.AddCommand(simulateCmd)
	rootCmd.AddCommand(batchCmd)
	rootCmd.AddCommand(listCmd)
	rootCmd.AddCommand(showCmd)
	rootCmd.AddCommand(roundsCmd)
	rootCmd.AddCommand(playerCmd)
	rootCmd.AddCommand(trendCmd)
	rootCmd.AddCommand(summaryCmd)
	rootCmd.AddCommand(exportCmd)
	rootCmd.AddCommand(sqlCmd)
	rootCmd.AddCommand(dropCmd)
	rootCmd.AddCommand(shellCmd)
	rootCmd.AddCommand(analyzeCmd)
}

// setup loads the environment config and lets explicitly set flags win.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("db") {
		c.DBPath = dbPath
	}
	if flags.Changed("seed") {
		c.Seed = int(seed)
	}
	if flags.Changed("log-level") {
		c.LogLevel = logLevel
	}
	dbPath = c.DBPath
	seed = int64(c.Seed)

	logging.Init(c.LogLevel, c.LogFormat)
	cfg = c
	log = logging.For("cmd")
	log.WithField("db", dbPath).Debug("config loaded")
	return nil
}

// newSimulator builds a simulator from the loaded config and seed.
func newSimulator() (*sim.Simulator, error) {
	rules, err := cfg.Rules()
	if err != nil {
		return nil, err
	}
	return sim.New(sim.NewRand(seed), sim.WithRules(rules), sim.WithLogger(logging.For("sim")))
}
