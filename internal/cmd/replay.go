package cmd

import (
	"fmt"

	"github.com/Iron-Ham/werewolf/internal/replay"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var replayCmd = &cobra.Command{
	Use:   "replay",
	Short: "Inspect saved games",
}

var replayShowCmd = &cobra.Command{
	Use:   "show [file]",
	Short: "Summarize a replay file",
	Long: `Summarize a replay file: winner, turns, seats and deaths.

Without a file, the most recent replay in replay.dir is shown.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runReplayShow,
}

var replayListCmd = &cobra.Command{
	Use:   "list",
	Short: "List replay files, newest first",
	Args:  cobra.NoArgs,
	RunE:  runReplayList,
}

var (
	replayJSON  bool
	replayFacts bool
)

func init() {
	rootCmd.AddCommand(replayCmd)
	replayCmd.AddCommand(replayShowCmd)
	replayCmd.AddCommand(replayListCmd)

	replayShowCmd.Flags().BoolVar(&replayJSON, "json", false, "Print the summary as JSON")
	replayShowCmd.Flags().BoolVar(&replayFacts, "facts", false, "Also print the public fact ledger")
}

func runReplayShow(cmd *cobra.Command, args []string) error {
	path := ""
	if len(args) == 1 {
		path = args[0]
	} else {
		files, err := replay.List(viper.GetString("replay.dir"))
		if err != nil {
			return err
		}
		if len(files) == 0 {
			return fmt.Errorf("no replays found in %s", viper.GetString("replay.dir"))
		}
		path = files[0]
	}

	rec, err := replay.Load(path)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	summary := replay.Summarize(rec)
	if replayJSON {
		return summary.WriteJSON(w)
	}
	if err := summary.WriteText(w); err != nil {
		return err
	}
	if replayFacts {
		fmt.Fprintln(w, "\nFacts:")
		for _, f := range rec.Facts {
			fmt.Fprintf(w, "  %s\n", f)
		}
	}
	return nil
}

func runReplayList(cmd *cobra.Command, args []string) error {
	files, err := replay.List(viper.GetString("replay.dir"))
	if err != nil {
		return err
	}
	w := cmd.OutOrStdout()
	if len(files) == 0 {
		fmt.Fprintln(w, "No replays found.")
		return nil
	}
	for _, f := range files {
		fmt.Fprintln(w, f)
	}
	return nil
}
