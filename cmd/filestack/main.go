package main

import (
	"fmt"
	"log/slog"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/tendant/filestack-go/pkg/filestack"
	"github.com/tendant/filestack-go/pkg/filestack/config"
)

var (
	commit = "none"
	date   = "unknown"
)

func main() {
	rootCmd := NewRootCommand()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func NewRootCommand() *cobra.Command {
	var configFile string
	var verbose bool

	rootCmd := &cobra.Command{
		Use:   "filestack",
		Short: "Filestack CLI - build, sign and send Filestack API requests",
		Long: `Filestack Command Line Interface

Builds store, overwrite, delete and transform URLs for the Filestack API,
optionally signs them, and can send the requests directly.

Credentials are read from FILESTACK_API_KEY and FILESTACK_SECRET (a .env file
in the working directory is loaded first) or from --config.`,
		Version:       fmt.Sprintf("%s (commit: %s, built: %s)", filestack.Version(), commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	// Global flags
	rootCmd.PersistentFlags().StringVarP(&configFile, "config", "c", "", "config file (optional)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "verbose output")

	// Add subcommands
	rootCmd.AddCommand(NewURLCommand())
	rootCmd.AddCommand(NewUploadCommand())
	rootCmd.AddCommand(NewOverwriteCommand())
	rootCmd.AddCommand(NewDeleteCommand())
	rootCmd.AddCommand(NewTransformCommand())
	rootCmd.AddCommand(NewPolicyCommand())
	rootCmd.AddCommand(NewVersionCommand())

	return rootCmd
}

// loadConfig reads configuration for a command from .env, the optional config
// file and the environment, in that order.
func loadConfig(cmd *cobra.Command) (*config.Config, error) {
	_ = godotenv.Load()

	var opts []config.Option
	if path, _ := cmd.Flags().GetString("config"); path != "" {
		opts = append(opts, config.WithFile(path))
	}
	opts = append(opts, config.WithEnv())

	cfg, err := config.Load(opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to load configuration: %w", err)
	}
	return cfg, nil
}

func newLogger(cmd *cobra.Command) *slog.Logger {
	level := slog.LevelWarn
	if verbose, _ := cmd.Flags().GetBool("verbose"); verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: level}))
}
