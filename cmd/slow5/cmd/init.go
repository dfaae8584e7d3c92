/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/ssargent/slow5/internal/logging"
	"github.com/ssargent/slow5/pkg/config"
)

// initCmd represents the init command
var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default configuration file",
	Long: `Write a configuration file with the default settings, to --config or to
the default location.

Examples:
  slow5 init
  slow5 init --config ./slow5.yaml --generate-api-key
  slow5 init --api-key my-api-key --force`,
	Args: cobra.NoArgs,
	// the file may not exist yet, so skip loading it
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		logging.ConfigureRuntime()
		return nil
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		path, _ := cmd.Flags().GetString("config")
		if path == "" {
			path = config.GetDefaultConfigPath()
		}
		force, _ := cmd.Flags().GetBool("force")
		apiKey, _ := cmd.Flags().GetString("api-key")
		generate, _ := cmd.Flags().GetBool("generate-api-key")

		if config.ConfigExists(path) && !force {
			cmd.Printf("Config already exists at %s. Use --force to overwrite.\n", path)
			return nil
		}

		cfg := config.DefaultConfig()
		if apiKey == "" && generate {
			var err error
			if apiKey, err = generateAPIKey(); err != nil {
				return fmt.Errorf("generating API key: %w", err)
			}
		}
		cfg.Server.APIKey = apiKey

		if err := config.SaveConfig(cfg, path); err != nil {
			return err
		}
		cmd.Printf("Wrote config to %s\n", path)
		if apiKey != "" {
			cmd.Printf("API key: %s\n", apiKey)
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(initCmd)
	initCmd.Flags().Bool("force", false, "Overwrite an existing config file")
	initCmd.Flags().String("api-key", "", "API key to store as server.api_key")
	initCmd.Flags().Bool("generate-api-key", false, "Generate a random server.api_key")
}

// generateAPIKey generates a secure random API key
func generateAPIKey() (string, error) {
	bytes := make([]byte, 32) // 256 bits
	if _, err := rand.Read(bytes); err != nil {
		return "", err
	}
	return hex.EncodeToString(bytes), nil
}
