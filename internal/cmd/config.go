package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/Iron-Ham/werewolf/internal/config"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "View or create the werewolf configuration",
	Long: `View or create the werewolf configuration.

Without arguments, displays the effective configuration with api keys
redacted. Use subcommands to create a config file or locate it.`,
	RunE: runConfigShow,
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Show the effective configuration",
	RunE:  runConfigShow,
}

var configInitCmd = &cobra.Command{
	Use:   "init [path]",
	Short: "Create a default config file",
	Long: `Create a default config file with all available options.

The file is written to ~/.config/werewolf/config.yaml unless a path is given.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runConfigInit,
}

var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show the config file path",
	RunE:  runConfigPath,
}

var configInitForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
	configCmd.AddCommand(configPathCmd)

	configInitCmd.Flags().BoolVarP(&configInitForce, "force", "f", false, "Overwrite an existing config file")
}

func runConfigShow(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintf(w, "# Config file: %s\n", used)
	} else {
		fmt.Fprintln(w, "# Config file: (none - using defaults)")
	}

	data, err := yaml.Marshal(cfg.Redacted())
	if err != nil {
		return fmt.Errorf("failed to render config: %w", err)
	}
	_, err = w.Write(data)
	return err
}

// configHeader documents the options that are not obvious from the defaults.
const configHeader = `# Werewolf configuration
#
# game.last_words: first_night | every_night | none
# game.random_seed: set to an integer for a reproducible role deal
# models[].provider: openai | mock
# models[].api_key: a literal key or env:VAR (a .env file is loaded first)
# models[].reasoning: think in a separate turn before answering
# models[].structured: answer actions with a JSON object
# judge_model: optional model that interprets replies the engine cannot parse
#
# Models are assigned to seats round-robin; extra models are ignored.

`

func runConfigInit(cmd *cobra.Command, args []string) error {
	configFile := config.ConfigFile()
	if len(args) == 1 {
		configFile = args[0]
	}

	if _, err := os.Stat(configFile); err == nil && !configInitForce {
		return fmt.Errorf("config file already exists at %s\nUse --force to overwrite it", configFile)
	}

	if err := os.MkdirAll(filepath.Dir(configFile), 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(config.Default())
	if err != nil {
		return fmt.Errorf("failed to render default config: %w", err)
	}
	if err := os.WriteFile(configFile, append([]byte(configHeader), data...), 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Created config file at %s\n", configFile)
	return nil
}

func runConfigPath(cmd *cobra.Command, args []string) error {
	w := cmd.OutOrStdout()
	if used := viper.ConfigFileUsed(); used != "" {
		fmt.Fprintln(w, used)
		return nil
	}
	fmt.Fprintln(w, config.ConfigFile())
	if _, err := os.Stat(config.ConfigFile()); os.IsNotExist(err) {
		fmt.Fprintln(w, "(file does not exist - run 'werewolf config init' to create it)")
	}
	return nil
}
