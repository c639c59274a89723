package cmd

import (
	"fmt"
	"slices"
	"strings"

	"github.com/Iron-Ham/werewolf/internal/logging"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "View game logs",
	Long: `View and filter the structured game log.

Reads game.log from logging.dir. Use flags to filter and format the output.

Examples:
  # Show the last 50 entries
  werewolf logs

  # Everything seat 3 did on turn 2
  werewolf logs --seat 3 --turn 2 -n 0

  # Warnings and errors from one game as JSON
  werewolf logs --game 1b4e28ba --level warn --json`,
	Args: cobra.NoArgs,
	RunE: runLogs,
}

var (
	logsTail   int
	logsLevel  string
	logsGame   string
	logsSeat   int
	logsPhase  string
	logsTurn   int
	logsGrep   string
	logsAsJSON bool
)

func init() {
	rootCmd.AddCommand(logsCmd)

	logsCmd.Flags().IntVarP(&logsTail, "tail", "n", 50, "Number of entries to show (0 for all)")
	logsCmd.Flags().StringVar(&logsLevel, "level", "", "Filter by minimum level (debug/info/warn/error)")
	logsCmd.Flags().StringVar(&logsGame, "game", "", "Filter by game id")
	logsCmd.Flags().IntVar(&logsSeat, "seat", 0, "Filter by seat")
	logsCmd.Flags().StringVar(&logsPhase, "phase", "", "Filter by phase (night/day)")
	logsCmd.Flags().IntVar(&logsTurn, "turn", 0, "Filter by turn")
	logsCmd.Flags().StringVar(&logsGrep, "grep", "", "Filter by message substring")
	logsCmd.Flags().BoolVar(&logsAsJSON, "json", false, "Print entries as JSON")
}

func runLogs(cmd *cobra.Command, args []string) error {
	entries, err := logging.AggregateLogs(viper.GetString("logging.dir"))
	if err != nil {
		return err
	}

	level := ""
	if logsLevel != "" {
		level = strings.ToUpper(logsLevel)
		if !slices.Contains(logging.ValidLevels(), level) {
			return fmt.Errorf("invalid --level %q: must be one of %s", logsLevel, strings.Join(logging.ValidLevels(), ", "))
		}
	}
	entries = logging.FilterLogs(entries, logging.LogFilter{
		Level:           level,
		GameID:          logsGame,
		Seat:            logsSeat,
		Phase:           logsPhase,
		Turn:            logsTurn,
		MessageContains: logsGrep,
	})
	if logsTail > 0 && len(entries) > logsTail {
		entries = entries[len(entries)-logsTail:]
	}

	w := cmd.OutOrStdout()
	if logsAsJSON {
		return logging.WriteJSON(w, entries)
	}
	if len(entries) == 0 {
		fmt.Fprintln(w, "No matching log entries found.")
		return nil
	}
	return logging.WriteText(w, entries)
}
