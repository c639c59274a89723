package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
)

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg == nil {
		t.Fatal("Default() returned nil")
	}

	if got := cfg.Game.Roles.Total(); got != 6 {
		t.Errorf("Roles.Total() = %d, want 6", got)
	}
	if got := cfg.Game.Roles.Good(); got != 4 {
		t.Errorf("Roles.Good() = %d, want 4", got)
	}
	if cfg.Game.MaxTurns != 50 {
		t.Errorf("Game.MaxTurns = %d, want 50", cfg.Game.MaxTurns)
	}
	if cfg.Game.MaxMemoryTokens != 2000 {
		t.Errorf("Game.MaxMemoryTokens = %d, want 2000", cfg.Game.MaxMemoryTokens)
	}
	if cfg.Game.EndgameThreshold != 4 {
		t.Errorf("Game.EndgameThreshold = %d, want 4", cfg.Game.EndgameThreshold)
	}
	if cfg.Game.NegotiationRounds != 3 {
		t.Errorf("Game.NegotiationRounds = %d, want 3", cfg.Game.NegotiationRounds)
	}
	if cfg.Game.LastWords != LastWordsFirstNight {
		t.Errorf("Game.LastWords = %q, want %q", cfg.Game.LastWords, LastWordsFirstNight)
	}
	if cfg.Game.RandomSeed != nil {
		t.Error("Game.RandomSeed should be nil by default")
	}
	if len(cfg.Models) != 1 || cfg.Models[0].Provider != ProviderMock {
		t.Errorf("Models = %+v, want a single mock model", cfg.Models)
	}

	if errs := cfg.Validate(); len(errs) != 0 {
		t.Errorf("Default().Validate() = %v, want no errors", errs)
	}
}

func TestModelConfig_Timeout(t *testing.T) {
	m := ModelConfig{TimeoutSeconds: 45}
	if got := m.Timeout(); got != 45*time.Second {
		t.Errorf("Timeout() = %v, want %v", got, 45*time.Second)
	}
}

func TestResolveSecret(t *testing.T) {
	t.Setenv("WEREWOLF_TEST_KEY", "sk-test")

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"literal", "sk-literal", "sk-literal"},
		{"env reference", "env:WEREWOLF_TEST_KEY", "sk-test"},
		{"missing env", "env:WEREWOLF_TEST_MISSING", ""},
		{"empty", "", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveSecret(tt.input); got != tt.want {
				t.Errorf("ResolveSecret(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestActiveModels(t *testing.T) {
	cfg := Default()
	cfg.Game.Roles = RoleCounts{Werewolf: 1, Villager: 2}
	cfg.Models = []ModelConfig{
		{Name: "a"},
		{Name: "b", Disabled: true},
		{Name: "c"},
		{Name: "d"},
		{Name: "e"},
	}

	active := cfg.ActiveModels()
	if len(active) != 3 {
		t.Fatalf("len(ActiveModels()) = %d, want 3", len(active))
	}
	names := active[0].Name + active[1].Name + active[2].Name
	if names != "acd" {
		t.Errorf("ActiveModels() names = %q, want %q", names, "acd")
	}
}

func TestModelForSeat(t *testing.T) {
	cfg := Default()
	cfg.Models = []ModelConfig{{Name: "a"}, {Name: "b"}}

	tests := []struct {
		seat int
		want string
	}{
		{1, "a"},
		{2, "b"},
		{3, "a"},
		{6, "b"},
	}
	for _, tt := range tests {
		m, ok := cfg.ModelForSeat(tt.seat)
		if !ok || m.Name != tt.want {
			t.Errorf("ModelForSeat(%d) = %q, %v, want %q", tt.seat, m.Name, ok, tt.want)
		}
	}

	if _, ok := cfg.ModelForSeat(0); ok {
		t.Error("ModelForSeat(0) should report false")
	}
}

func TestRedacted(t *testing.T) {
	seed := int64(7)
	cfg := Default()
	cfg.Game.RandomSeed = &seed
	cfg.Models = []ModelConfig{{Name: "a", APIKey: "sk-secret"}, {Name: "b"}}
	cfg.JudgeModel = &ModelConfig{Name: "judge", APIKey: "sk-judge"}

	red := cfg.Redacted()

	if red.Models[0].APIKey != "***" {
		t.Errorf("Models[0].APIKey = %q, want ***", red.Models[0].APIKey)
	}
	if red.Models[1].APIKey != "" {
		t.Errorf("Models[1].APIKey = %q, want empty", red.Models[1].APIKey)
	}
	if red.JudgeModel.APIKey != "***" {
		t.Errorf("JudgeModel.APIKey = %q, want ***", red.JudgeModel.APIKey)
	}
	if cfg.Models[0].APIKey != "sk-secret" || cfg.JudgeModel.APIKey != "sk-judge" {
		t.Error("Redacted() must not modify the original config")
	}
	if red.Game.RandomSeed == cfg.Game.RandomSeed || *red.Game.RandomSeed != 7 {
		t.Error("Redacted() should deep-copy the seed")
	}
}

func TestLoad(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)
	t.Setenv("WEREWOLF_TEST_OPENAI", "sk-from-env")

	path := filepath.Join(t.TempDir(), "config.yaml")
	content := `
game:
  roles: {werewolf: 3, witch: 1, seer: 1, hunter: 1, villager: 3}
  max_turns: 12
  random_seed: 42
  last_words: every_night
models:
  - name: gpt
    api_key: env:WEREWOLF_TEST_OPENAI
    model: gpt-4o-mini
    structured: true
  - name: offline
    provider: mock
    model: mock
judge_model:
  provider: mock
  model: judge
`
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	SetDefaults()
	viper.SetConfigFile(path)
	if err := viper.ReadInConfig(); err != nil {
		t.Fatalf("ReadInConfig failed: %v", err)
	}

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Game.Roles.Total() != 9 {
		t.Errorf("Roles.Total() = %d, want 9", cfg.Game.Roles.Total())
	}
	if cfg.Game.MaxTurns != 12 {
		t.Errorf("MaxTurns = %d, want 12", cfg.Game.MaxTurns)
	}
	if cfg.Game.MaxMemoryTokens != 2000 {
		t.Errorf("MaxMemoryTokens = %d, want default 2000", cfg.Game.MaxMemoryTokens)
	}
	if cfg.Game.RandomSeed == nil || *cfg.Game.RandomSeed != 42 {
		t.Errorf("RandomSeed = %v, want 42", cfg.Game.RandomSeed)
	}
	if cfg.Game.LastWords != LastWordsEveryNight {
		t.Errorf("LastWords = %q, want %q", cfg.Game.LastWords, LastWordsEveryNight)
	}
	if len(cfg.Models) != 2 {
		t.Fatalf("len(Models) = %d, want 2", len(cfg.Models))
	}
	gpt := cfg.Models[0]
	if gpt.Provider != ProviderOpenAI {
		t.Errorf("Models[0].Provider = %q, want default %q", gpt.Provider, ProviderOpenAI)
	}
	if gpt.APIKey != "sk-from-env" {
		t.Errorf("Models[0].APIKey = %q, want env-resolved key", gpt.APIKey)
	}
	if !gpt.Structured {
		t.Error("Models[0].Structured should be true")
	}
	if gpt.TimeoutSeconds != 60 {
		t.Errorf("Models[0].TimeoutSeconds = %d, want default 60", gpt.TimeoutSeconds)
	}
	if cfg.JudgeModel == nil || cfg.JudgeModel.Name != "judge" {
		t.Errorf("JudgeModel = %+v, want name defaulted to model", cfg.JudgeModel)
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	viper.Reset()
	t.Cleanup(viper.Reset)

	SetDefaults()
	viper.Set("game.max_turns", 0)
	viper.Set("models", []map[string]any{{"name": "x", "model": "gpt-4o"}})

	_, err := Load()
	if err == nil {
		t.Fatal("Load() should fail")
	}
	verrs, ok := err.(ValidationErrors)
	if !ok {
		t.Fatalf("Load() error type = %T, want ValidationErrors", err)
	}
	fields := map[string]bool{}
	for _, e := range verrs {
		fields[e.Field] = true
	}
	if !fields["game.max_turns"] {
		t.Error("expected game.max_turns error")
	}
	if !fields["models[0].api_key"] {
		t.Error("expected missing api key error")
	}
}

func TestConfigDir(t *testing.T) {
	t.Run("with XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "/custom/config")
		if got := ConfigDir(); got != "/custom/config/werewolf" {
			t.Errorf("ConfigDir() = %q, want %q", got, "/custom/config/werewolf")
		}
		if got := ConfigFile(); got != "/custom/config/werewolf/config.yaml" {
			t.Errorf("ConfigFile() = %q, want %q", got, "/custom/config/werewolf/config.yaml")
		}
	})

	t.Run("without XDG_CONFIG_HOME", func(t *testing.T) {
		t.Setenv("XDG_CONFIG_HOME", "")
		home, _ := os.UserHomeDir()
		want := filepath.Join(home, ".config", "werewolf")
		if got := ConfigDir(); got != want {
			t.Errorf("ConfigDir() = %q, want %q", got, want)
		}
	})
}
