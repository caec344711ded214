package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/iafisher/isqlite/isqlitelog"
)

var (
	cfgFile string
	logger  *slog.Logger
)

var rootCmd = &cobra.Command{
	Use:   "isqlite",
	Short: "Diff and migrate SQLite schemas declared in Go.",
	Long: `isqlite compares a schema.Schema registered by a host program
against the live schema of a SQLite database file, and applies or prints
the resulting migration.`,
	PersistentPreRun: func(cmd *cobra.Command, args []string) {
		level := slog.LevelInfo
		if viper.GetBool("verbose") {
			level = slog.LevelDebug
		}
		logger = isqlitelog.New(os.Stderr, level)
	},
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default $HOME/.isqlite.yaml)")
	rootCmd.PersistentFlags().Bool("verbose", false, "log each migration operation as it is applied (the SQL it runs is not logged)")
	_ = viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
}

func initConfig() {
	if cfgFile != "" {
		viper.SetConfigFile(cfgFile)
	} else if home, err := os.UserHomeDir(); err == nil {
		viper.AddConfigPath(home)
		viper.SetConfigName(".isqlite")
	}
	viper.SetEnvPrefix("ISQLITE")
	viper.AutomaticEnv()
	_ = viper.ReadInConfig()
}

// Execute runs the root command and returns the process exit code
// this module defines: 0 success, 1 user error, 2 migration aborted,
// 3 integrity failure on post-check.
func Execute() int {
	rootCmd.SilenceUsage = true
	rootCmd.SilenceErrors = true
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "isqlite:", err)
		return exitCodeFor(err)
	}
	return 0
}
