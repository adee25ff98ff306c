// Command roundtable talks to the persona panel from a terminal.
package main

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	backend    string
	addr       string
	model      string
	rosterFile string
	timeout    time.Duration
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "roundtable",
	Short: "Ask a panel of AI personas",
	Long: `roundtable runs conversation turns against a panel of personas.

Available subcommands:
  ask        - Send one message, or start an interactive session
  personas   - List the roster
  serve-echo - Serve the echo generator over gRPC`,
	PersistentPreRun: func(cmd *cobra.Command, _ []string) {
		setupLogging(cmd.ErrOrStderr())
	},
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&backend, "backend", envOr("GENERATOR_BACKEND", "echo"), "Generator backend: echo, grpc or gemini")
	rootCmd.PersistentFlags().StringVar(&addr, "addr", envOr("GENERATOR_ADDR", "localhost:50051"), "gRPC generator address")
	rootCmd.PersistentFlags().StringVar(&model, "model", os.Getenv("GEMINI_MODEL"), "Gemini model")
	rootCmd.PersistentFlags().StringVar(&rosterFile, "roster", os.Getenv("ROSTER_FILE"), "YAML roster file")
	rootCmd.PersistentFlags().DurationVar(&timeout, "timeout", 45*time.Second, "Turn timeout")

	rootCmd.AddCommand(askCmd)
	rootCmd.AddCommand(personasCmd)
	rootCmd.AddCommand(serveEchoCmd)
}

func main() {
	_ = godotenv.Load()
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func setupLogging(w io.Writer) {
	level := slog.LevelWarn
	if verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})))
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}
