package main

import (
	"fmt"
	"os"

	"github.com/capstone-ai/dna/internal/cli"
	"github.com/capstone-ai/dna/internal/config"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "dna",
	Short: "DNA is a conversational project assistant",
	Long: `DNA turns free-text requests into chat replies, business tool calls or
clarification questions, and serves them over HTTP, MCP or the terminal.`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().String("config", "", "Path to a YAML configuration file")
	rootCmd.PersistentFlags().String("log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().String("log-format", "text", "Log format: text or json")
	rootCmd.PersistentFlags().String("env", "prod", "Environment name matched by dispatch rules")
}

// flagKeys maps command-line flags onto configuration keys.
var flagKeys = map[string]string{
	"log-level":      "log.level",
	"log-format":     "log.format",
	"env":            "env",
	"port":           "server.port",
	"metrics":        "server.metrics",
	"max-input-size": "server.max_input_size",
	"catalog":        "catalog_file",
	"dispatch":       "dispatch_file",
	"store":          "store.driver",
	"redis":          "store.redis_addr",
	"store-dir":      "store.dir",
}

// loadApp reads configuration layered under the command's flags and wires
// the assistant.
func loadApp(cmd *cobra.Command) (*cli.App, config.Config, error) {
	v := config.New()
	if err := config.BindFlags(v, cmd.Flags(), flagKeys); err != nil {
		return nil, config.Config{}, err
	}
	file, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(v, file)
	if err != nil {
		return nil, config.Config{}, err
	}

	app, err := cli.Build(cfg, nil, cli.NewLogger(cfg.Log))
	if err != nil {
		return nil, config.Config{}, fmt.Errorf("error initializing assistant: %w", err)
	}
	return app, cfg, nil
}
