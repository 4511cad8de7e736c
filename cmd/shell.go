package cmd

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/cricket-graph/internal/config"
	"github.com/pable/cricket-graph/internal/graph"
	"github.com/pable/cricket-graph/internal/mapper"
	"github.com/pable/cricket-graph/internal/report"
	"github.com/pable/cricket-graph/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cHeader   = color.New(color.FgCyan, color.Bold)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the graph. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()
	store, err := openStore(ctx)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer store.Close()

	cGreeting.Println("cricgraph shell")
	cMuted.Printf("store: %s  type 'help' or 'exit'\n", cfg.Store)
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("cricgraph")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		name, rest, _ := strings.Cut(line, " ")
		rest = strings.TrimSpace(rest)

		switch name {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "summary":
			if err := printSummary(cmd, store); err != nil {
				cError.Fprintf(os.Stderr, "error: %v\n", err)
			}
		case "player":
			if rest == "" {
				cError.Fprintln(os.Stderr, "usage: player <name>[, <name>...]")
				continue
			}
			shellPlayer(ctx, store, rest)
		case "sql":
			if rest == "" {
				cError.Fprintln(os.Stderr, "usage: sql <query>")
				continue
			}
			shellSQL(ctx, store, rest)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", name)
		}
	}
	return scanner.Err()
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"summary", "node and relationship counts"},
		{"player <name>[, <name>...]", "batting and bowling figures"},
		{"sql <query>", "raw SQL (sqlite store only)"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-30s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

// shellPlayer takes comma-separated names since player names contain spaces.
func shellPlayer(ctx context.Context, store graph.Store, names string) {
	for _, name := range strings.Split(names, ",") {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		props, ok, err := store.NodeProperties(ctx, mapper.PlayerNode(name))
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
			continue
		}
		if !ok {
			cWarn.Fprintf(os.Stderr, "no player named %q\n", name)
			continue
		}
		report.PrintPlayer(os.Stdout, name, props)
	}
}

func shellSQL(ctx context.Context, store graph.Store, query string) {
	db, ok := store.(*storage.DB)
	if !ok {
		cError.Fprintf(os.Stderr, "sql needs --store %s\n", config.StoreSQLite)
		return
	}
	cols, rows, err := db.QueryRaw(ctx, query)
	if err != nil {
		cError.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	report.PrintQuery(os.Stdout, cols, rows)
}
