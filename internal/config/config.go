package config

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config represents the complete werewolf configuration
type Config struct {
	Game       GameConfig    `mapstructure:"game" yaml:"game"`
	Models     []ModelConfig `mapstructure:"models" yaml:"models"`
	JudgeModel *ModelConfig  `mapstructure:"judge_model" yaml:"judge_model,omitempty"`
	Logging    LoggingConfig `mapstructure:"logging" yaml:"logging"`
	Replay     ReplayConfig  `mapstructure:"replay" yaml:"replay"`
}

// RoleCounts is the number of seats dealt each role.
type RoleCounts struct {
	Werewolf int `mapstructure:"werewolf" yaml:"werewolf"`
	Witch    int `mapstructure:"witch" yaml:"witch"`
	Seer     int `mapstructure:"seer" yaml:"seer"`
	Hunter   int `mapstructure:"hunter" yaml:"hunter"`
	Villager int `mapstructure:"villager" yaml:"villager"`
}

// Total returns the number of seats the counts describe.
func (r RoleCounts) Total() int {
	return r.Werewolf + r.Witch + r.Seer + r.Hunter + r.Villager
}

// Good returns the number of seats outside the werewolf faction.
func (r RoleCounts) Good() int {
	return r.Total() - r.Werewolf
}

// GameConfig controls the rules of a single game
type GameConfig struct {
	Roles RoleCounts `mapstructure:"roles" yaml:"roles"`
	// MaxTurns is the number of night+day cycles played before a draw.
	MaxTurns int `mapstructure:"max_turns" yaml:"max_turns"`
	// MaxMemoryTokens is the per-seat context budget, system prompt included.
	MaxMemoryTokens int `mapstructure:"max_memory_tokens" yaml:"max_memory_tokens"`
	// EndgameThreshold is the living-seat count at or below which seats get
	// faction-specific strategy hints during discussion.
	EndgameThreshold int `mapstructure:"endgame_threshold" yaml:"endgame_threshold"`
	// NegotiationRounds caps sequential wolf re-votes after the blind round.
	NegotiationRounds int `mapstructure:"negotiation_rounds" yaml:"negotiation_rounds"`
	// LastWords selects which night deaths get a final statement.
	// Options: "first_night", "every_night", "none"
	LastWords string `mapstructure:"last_words" yaml:"last_words"`
	// RandomSeed fixes the role shuffle. Nil means a fresh shuffle every game.
	RandomSeed *int64 `mapstructure:"random_seed" yaml:"random_seed,omitempty"`
	// Tokenizer is the tiktoken encoding used to measure context.
	Tokenizer string `mapstructure:"tokenizer" yaml:"tokenizer"`
}

// Last words modes
const (
	LastWordsFirstNight = "first_night"
	LastWordsEveryNight = "every_night"
	LastWordsNone       = "none"
)

// Providers
const (
	ProviderOpenAI = "openai"
	ProviderMock   = "mock"
)

// envKeyPrefix marks an api_key value as the name of an environment variable.
const envKeyPrefix = "env:"

// ModelConfig describes one inference endpoint. Models are assigned to
// seats round-robin in list order.
type ModelConfig struct {
	Name     string `mapstructure:"name" yaml:"name"`
	Provider string `mapstructure:"provider" yaml:"provider"`
	// APIKey is either a literal key or "env:VAR".
	APIKey      string  `mapstructure:"api_key" yaml:"api_key,omitempty"`
	BaseURL     string  `mapstructure:"base_url" yaml:"base_url,omitempty"`
	Model       string  `mapstructure:"model" yaml:"model"`
	Temperature float64 `mapstructure:"temperature" yaml:"temperature"`
	// Reasoning enables two-step generation: think first, then answer.
	Reasoning bool `mapstructure:"reasoning" yaml:"reasoning"`
	// Structured requests JSON-object replies for actions.
	Structured     bool `mapstructure:"structured" yaml:"structured"`
	Disabled       bool `mapstructure:"disabled" yaml:"disabled"`
	TimeoutSeconds int  `mapstructure:"timeout_seconds" yaml:"timeout_seconds"`
	MaxRetries     int  `mapstructure:"max_retries" yaml:"max_retries"`
	Stream         bool `mapstructure:"stream" yaml:"stream"`
}

// Timeout returns the per-call timeout as a Duration
func (m ModelConfig) Timeout() time.Duration {
	return time.Duration(m.TimeoutSeconds) * time.Second
}

// LoggingConfig controls debug logging behavior
type LoggingConfig struct {
	// Enabled controls whether the game log is written
	Enabled bool `mapstructure:"enabled" yaml:"enabled"`
	// Level sets the minimum log level (debug, info, warn, error)
	Level string `mapstructure:"level" yaml:"level"`
	// Dir is the directory holding game.log
	Dir string `mapstructure:"dir" yaml:"dir"`
	// MaxSizeMB is the maximum log file size before rotation
	MaxSizeMB int `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	// MaxBackups is the number of rotated files to keep
	MaxBackups int `mapstructure:"max_backups" yaml:"max_backups"`
	// Compress zstd-compresses rotated files
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// ReplayConfig controls the end-of-game replay record
type ReplayConfig struct {
	Enabled bool   `mapstructure:"enabled" yaml:"enabled"`
	Dir     string `mapstructure:"dir" yaml:"dir"`
	// Compress writes replay_*.json.zst instead of plain JSON
	Compress bool `mapstructure:"compress" yaml:"compress"`
}

// Default returns a Config with sensible default values: a six-seat game
// played offline by the mock provider.
func Default() *Config {
	return &Config{
		Game: GameConfig{
			Roles: RoleCounts{
				Werewolf: 2,
				Witch:    1,
				Seer:     1,
				Hunter:   0,
				Villager: 2,
			},
			MaxTurns:          50,
			MaxMemoryTokens:   2000,
			EndgameThreshold:  4,
			NegotiationRounds: 3,
			LastWords:         LastWordsFirstNight,
			Tokenizer:         "cl100k_base",
		},
		Models: []ModelConfig{DefaultModel()},
		Logging: LoggingConfig{
			Enabled:    true,
			Level:      "info",
			Dir:        "logs",
			MaxSizeMB:  10,
			MaxBackups: 3,
		},
		Replay: ReplayConfig{
			Enabled: true,
			Dir:     filepath.Join("logs", "replays"),
		},
	}
}

// DefaultModel returns the model entry used when none are configured.
func DefaultModel() ModelConfig {
	return ModelConfig{
		Name:           "mock",
		Provider:       ProviderMock,
		Model:          "mock",
		Temperature:    0.7,
		TimeoutSeconds: 60,
		MaxRetries:     3,
	}
}

// SetDefaults registers default values with viper
func SetDefaults() {
	defaults := Default()

	// Game defaults
	viper.SetDefault("game.roles.werewolf", defaults.Game.Roles.Werewolf)
	viper.SetDefault("game.roles.witch", defaults.Game.Roles.Witch)
	viper.SetDefault("game.roles.seer", defaults.Game.Roles.Seer)
	viper.SetDefault("game.roles.hunter", defaults.Game.Roles.Hunter)
	viper.SetDefault("game.roles.villager", defaults.Game.Roles.Villager)
	viper.SetDefault("game.max_turns", defaults.Game.MaxTurns)
	viper.SetDefault("game.max_memory_tokens", defaults.Game.MaxMemoryTokens)
	viper.SetDefault("game.endgame_threshold", defaults.Game.EndgameThreshold)
	viper.SetDefault("game.negotiation_rounds", defaults.Game.NegotiationRounds)
	viper.SetDefault("game.last_words", defaults.Game.LastWords)
	viper.SetDefault("game.tokenizer", defaults.Game.Tokenizer)

	// Models: a single mock seat-filler so `werewolf play` works out of the box
	viper.SetDefault("models", []map[string]any{modelMap(DefaultModel())})

	// Logging defaults
	viper.SetDefault("logging.enabled", defaults.Logging.Enabled)
	viper.SetDefault("logging.level", defaults.Logging.Level)
	viper.SetDefault("logging.dir", defaults.Logging.Dir)
	viper.SetDefault("logging.max_size_mb", defaults.Logging.MaxSizeMB)
	viper.SetDefault("logging.max_backups", defaults.Logging.MaxBackups)
	viper.SetDefault("logging.compress", defaults.Logging.Compress)

	// Replay defaults
	viper.SetDefault("replay.enabled", defaults.Replay.Enabled)
	viper.SetDefault("replay.dir", defaults.Replay.Dir)
	viper.SetDefault("replay.compress", defaults.Replay.Compress)
}

func modelMap(m ModelConfig) map[string]any {
	return map[string]any{
		"name":            m.Name,
		"provider":        m.Provider,
		"model":           m.Model,
		"temperature":     m.Temperature,
		"timeout_seconds": m.TimeoutSeconds,
		"max_retries":     m.MaxRetries,
	}
}

// Load reads the configuration from viper into a Config struct, resolves
// env: api keys, fills per-model defaults, and validates it
func Load() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	cfg.Normalize()

	if errs := cfg.Validate(); len(errs) > 0 {
		return nil, ValidationErrors(errs)
	}

	return &cfg, nil
}

// Normalize resolves env: api keys and fills zero-valued per-model settings
// with defaults. It is idempotent.
func (c *Config) Normalize() {
	for i := range c.Models {
		normalizeModel(&c.Models[i])
	}
	if c.JudgeModel != nil {
		normalizeModel(c.JudgeModel)
	}
}

func normalizeModel(m *ModelConfig) {
	m.APIKey = ResolveSecret(m.APIKey)
	if m.Provider == "" {
		m.Provider = ProviderOpenAI
	}
	if m.Name == "" {
		m.Name = m.Model
	}
	if m.TimeoutSeconds == 0 {
		m.TimeoutSeconds = DefaultModel().TimeoutSeconds
	}
}

// ResolveSecret expands an "env:VAR" reference to the variable's value.
// Any other value is returned unchanged.
func ResolveSecret(value string) string {
	if name, ok := strings.CutPrefix(value, envKeyPrefix); ok {
		return os.Getenv(name)
	}
	return value
}

// ActiveModels returns the enabled models that will actually be seated:
// models past the seat count are dropped since round-robin assignment
// would never reach them.
func (c *Config) ActiveModels() []ModelConfig {
	var active []ModelConfig
	for _, m := range c.Models {
		if !m.Disabled {
			active = append(active, m)
		}
	}
	if seats := c.Game.Roles.Total(); seats > 0 && len(active) > seats {
		active = active[:seats]
	}
	return active
}

// ModelForSeat returns the model assigned to a 1-based seat id.
func (c *Config) ModelForSeat(seat int) (ModelConfig, bool) {
	active := c.ActiveModels()
	if len(active) == 0 || seat < 1 {
		return ModelConfig{}, false
	}
	return active[(seat-1)%len(active)], true
}

// Redacted returns a deep copy with every api key replaced by "***".
// Empty keys stay empty.
func (c *Config) Redacted() *Config {
	out := *c
	out.Models = make([]ModelConfig, len(c.Models))
	for i, m := range c.Models {
		out.Models[i] = redactModel(m)
	}
	if c.JudgeModel != nil {
		j := redactModel(*c.JudgeModel)
		out.JudgeModel = &j
	}
	if c.Game.RandomSeed != nil {
		seed := *c.Game.RandomSeed
		out.Game.RandomSeed = &seed
	}
	return &out
}

func redactModel(m ModelConfig) ModelConfig {
	if m.APIKey != "" {
		m.APIKey = "***"
	}
	return m
}

// ConfigDir returns the path to the user's config directory
func ConfigDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, "werewolf")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".werewolf"
	}
	return filepath.Join(home, ".config", "werewolf")
}

// ConfigFile returns the path to the config file
func ConfigFile() string {
	return filepath.Join(ConfigDir(), "config.yaml")
}
