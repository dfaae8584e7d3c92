/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/cobra"

	"github.com/ssargent/slow5/pkg/api"
	"github.com/ssargent/slow5/pkg/slow5"
)

const envAPIKey = "SLOW5_API_KEY"

// serveCmd represents the serve command
var serveCmd = &cobra.Command{
	Use:   "serve <file>",
	Short: "Serve a file over a read-only REST API",
	Long: `Start a REST API over one SLOW5 or BLOW5 file.

Routes:
  GET /api/v1/health
  GET /api/v1/header
  GET /api/v1/reads?limit=&after=&where=
  GET /api/v1/reads/{id}?signal=raw|picoamps|none
  GET /metrics

Examples:
  slow5 serve reads.blow5 --port 8080
  slow5 serve reads.blow5 --bind 0.0.0.0 --api-key mysecretkey --persist-index`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		serverConfig := serverConfigFrom(cmd)

		r, err := slow5.Open(args[0], readOptions(cmd)...)
		if err != nil {
			return err
		}
		defer r.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		server := api.NewServer(r, serverConfig, api.NewMetrics(prometheus.DefaultRegisterer))
		cmd.Printf("Serving %s on %s:%d\n", args[0], serverConfig.Bind, serverConfig.Port)
		cmd.Printf("Metrics available at: http://%s:%d/metrics\n", serverConfig.Bind, serverConfig.Port)
		return api.StartServer(ctx, server, nil)
	},
}

// serverConfigFrom merges flags over the server section of the config. The
// API key comes from --api-key, then SLOW5_API_KEY, then server.api_key.
func serverConfigFrom(cmd *cobra.Command) api.ServerConfig {
	cfg := configFrom(cmd)
	sc := api.ServerConfig{Bind: cfg.Server.Bind, Port: cfg.Server.Port}
	if cmd.Flags().Changed("bind") {
		sc.Bind, _ = cmd.Flags().GetString("bind")
	}
	if cmd.Flags().Changed("port") {
		sc.Port, _ = cmd.Flags().GetInt("port")
	}
	sc.APIKey, _ = cmd.Flags().GetString("api-key")
	if sc.APIKey == "" {
		sc.APIKey = os.Getenv(envAPIKey)
	}
	if sc.APIKey == "" {
		sc.APIKey = cfg.Server.APIKey
	}
	return sc
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().String("bind", "127.0.0.1", "Address to listen on (default server.bind from the config)")
	serveCmd.Flags().IntP("port", "p", 8080, "Port to listen on (default server.port from the config)")
	serveCmd.Flags().String("api-key", "", "Require this X-API-Key on /api/v1 (or set SLOW5_API_KEY)")
	serveCmd.Flags().Bool("persist-index", false, "Build or reuse the on-disk read id index")
}
