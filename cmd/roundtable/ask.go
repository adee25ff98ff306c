package main

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"github.com/ashureev/roundtable/internal/config"
	"github.com/ashureev/roundtable/internal/generator"
	"github.com/ashureev/roundtable/internal/orchestrator"
	"github.com/ashureev/roundtable/internal/persona"
	"github.com/ashureev/roundtable/internal/session"
)

var sessionID string

var askCmd = &cobra.Command{
	Use:   "ask [message]",
	Short: "Send a message to the panel",
	Long: `Send one message and print the panel's replies.

Without a message argument, ask reads one message per line from stdin
until EOF or "/quit", keeping the conversation in a single session.`,
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&sessionID, "session", "s", "cli", "Session id")
}

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}

	roster, tables, err := loadRoster()
	if err != nil {
		return err
	}

	gen, err := generator.FromConfig(ctx, config.GeneratorConfig{
		Backend:      strings.ToLower(backend),
		Addr:         addr,
		GeminiAPIKey: os.Getenv("GEMINI_API_KEY"),
		GeminiModel:  model,
	}, slog.Default())
	if err != nil {
		return fmt.Errorf("generator: %w", err)
	}
	defer generator.Close(gen)

	orch := orchestrator.New(roster.BindGenerator(gen), session.NewStore(session.Options{}), orchestrator.Options{
		TurnTimeout: timeout,
		Tables:      &tables,
	})

	out := cmd.OutOrStdout()
	if len(args) > 0 {
		return askOnce(ctx, orch, out, strings.Join(args, " "))
	}
	return repl(ctx, orch, cmd.InOrStdin(), out)
}

func askOnce(ctx context.Context, orch *orchestrator.Orchestrator, out io.Writer, message string) error {
	res, err := orch.ProcessMessage(ctx, message, sessionID)
	if errors.Is(err, orchestrator.ErrInvalidInput) {
		return err
	}
	if err != nil {
		slog.Debug("Turn ended with error", "error", err)
	}
	renderTurn(out, orch.Roster(), res)
	return nil
}

func repl(ctx context.Context, orch *orchestrator.Orchestrator, in io.Reader, out io.Writer) error {
	scanner := bufio.NewScanner(in)
	for {
		fmt.Fprint(out, promptStyle.Render("you> "))
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}
		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "/quit", "/exit":
			return nil
		}
		if err := askOnce(ctx, orch, out, line); err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}
	}
}

func loadRoster() (*persona.Roster, persona.Tables, error) {
	if rosterFile == "" {
		return persona.DefaultRoster(), persona.DefaultTables(), nil
	}
	return persona.LoadFile(rosterFile)
}
