/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/slow5/internal/logging"
	"github.com/ssargent/slow5/pkg/config"
	"github.com/ssargent/slow5/pkg/slow5"
)

type configKey struct{}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "slow5",
	Short: "slow5 - inspect and convert nanopore signal files",
	Long: `slow5 reads and writes SLOW5 (text) and BLOW5 (binary) nanopore raw
signal files. The format of each file follows from its extension.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.ConfigureRuntime()

		cfg, err := loadConfig(cmd)
		if err != nil {
			return err
		}

		// --log-level beats the environment, which beats the config file
		switch {
		case cmd.Flags().Changed("log-level"):
			raw, _ := cmd.Flags().GetString("log-level")
			level, err := slow5.ParseLogLevel(raw)
			if err != nil {
				return err
			}
			slow5.SetLogLevel(level)
		case os.Getenv(logging.EnvLogLevel) == "":
			level, err := cfg.LogLevel()
			if err != nil {
				return err
			}
			slow5.SetLogLevel(level)
		}

		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

// loadConfig reads --config when given, else the default path when it
// exists, else the built-in defaults
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		return config.LoadConfig(path)
	}
	if def := config.GetDefaultConfigPath(); config.ConfigExists(def) {
		return config.LoadConfig(def)
	}
	return config.DefaultConfig(), nil
}

func withConfig(ctx context.Context, cfg *config.Config) context.Context {
	return context.WithValue(ctx, configKey{}, cfg)
}

// configFrom returns the configuration loaded by the root command
func configFrom(cmd *cobra.Command) *config.Config {
	if cfg, ok := cmd.Context().Value(configKey{}).(*config.Config); ok {
		return cfg
	}
	return config.DefaultConfig()
}

// readOptions returns the reader options implied by flags and config
func readOptions(cmd *cobra.Command) []slow5.Option {
	persist := configFrom(cmd).Index.Persist
	if f := cmd.Flags().Lookup("persist-index"); f != nil && f.Changed {
		persist, _ = cmd.Flags().GetBool("persist-index")
	}
	if persist {
		return []slow5.Option{slow5.WithPersistentIndex()}
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.SilenceErrors = true
	rootCmd.PersistentFlags().StringP("config", "c", "", "Config file (default "+config.GetDefaultConfigPath()+" when present)")
	rootCmd.PersistentFlags().String("log-level", "info", "Library verbosity: off, error, warn, info, verbose, debug")
}
