package cmd

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/pable/rostersim/internal/storage"
)

var (
	cPrompt   = color.New(color.FgCyan, color.Bold)
	cMuted    = color.New(color.Faint)
	cError    = color.New(color.FgRed, color.Bold)
	cWarn     = color.New(color.FgYellow)
	cCmd      = color.New(color.FgYellow, color.Bold)
	cGreeting = color.New(color.Bold)
)

var shellCmd = &cobra.Command{
	Use:   "shell",
	Short: "Start an interactive REPL session",
	Long:  "Open a persistent session against the database. Type 'help' for available commands.",
	Args:  cobra.NoArgs,
	RunE:  runShell,
}

func runShell(_ *cobra.Command, _ []string) error {
	db, err := storage.Open(dbPath)
	if err != nil {
		return fmt.Errorf("open storage: %w", err)
	}
	defer db.Close()

	cGreeting.Println("rostersim shell")
	cMuted.Println("type 'help' or 'exit'")
	fmt.Println()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		cPrompt.Print("rostersim")
		cMuted.Print("> ")
		if !scanner.Scan() {
			fmt.Println()
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		tokens := strings.Fields(line)
		cmd, args := tokens[0], tokens[1:]

		var err error
		switch cmd {
		case "exit", "quit":
			return nil
		case "help":
			shellHelp()
		case "list":
			err = listMatches(db)
		case "show":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: show <id-prefix> [--player <id>]")
				continue
			}
			err = showMatch(db, args[0], flagValue(args[1:], "--player"))
		case "rounds":
			if len(args) < 2 {
				cError.Fprintln(os.Stderr, "usage: rounds <id-prefix> <map-number> [--clutch] [--side attack|defense] [--events <n>]")
				continue
			}
			n, convErr := strconv.Atoi(args[1])
			if convErr != nil || n < 1 {
				cError.Fprintf(os.Stderr, "invalid map number %q\n", args[1])
				continue
			}
			f := roundFilter{
				clutch:    hasFlag(args[2:], "--clutch"),
				postPlant: hasFlag(args[2:], "--post-plant"),
				side:      flagValue(args[2:], "--side"),
				condition: flagValue(args[2:], "--condition"),
			}
			f.events, _ = strconv.Atoi(flagValue(args[2:], "--events"))
			err = showRounds(db, args[0], n, f)
		case "player":
			if len(args) == 0 {
				cError.Fprintln(os.Stderr, "usage: player <player-id> [<player-id>...]")
				continue
			}
			aggs, loadErr := loadCareers(db, args, os.Stderr)
			if loadErr != nil {
				err = loadErr
				break
			}
			printCareers(os.Stdout, aggs)
		default:
			cWarn.Fprintf(os.Stderr, "unknown command %q, type 'help'\n", cmd)
		}
		if err != nil {
			cError.Fprintf(os.Stderr, "error: %v\n", err)
		}
	}
	return nil
}

func shellHelp() {
	fmt.Println()
	type entry struct{ cmd, desc string }
	rows := []entry{
		{"list", "list all stored matches"},
		{"show <id-prefix>", "show a match's scoreboards"},
		{"show <id-prefix> --player <id>", "same, highlighting one player"},
		{"rounds <id-prefix> <map#>", "round timeline of one map"},
		{"rounds ... --events <n>", "full event log of round n"},
		{"player <player-id> [...]", "career totals for one or more players"},
		{"help", "show this message"},
		{"exit / quit", "close the session"},
	}
	for _, r := range rows {
		fmt.Print("  ")
		cCmd.Printf("%-38s", r.cmd)
		fmt.Println(r.desc)
	}
	fmt.Println()
}

// flagValue returns the token after name, or "".
func flagValue(args []string, name string) string {
	for i := 0; i+1 < len(args); i++ {
		if args[i] == name {
			return args[i+1]
		}
	}
	return ""
}

func hasFlag(args []string, name string) bool {
	for _, a := range args {
		if a == name {
			return true
		}
	}
	return false
}
