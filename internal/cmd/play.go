package cmd

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/Iron-Ham/werewolf/internal/agent"
	"github.com/Iron-Ham/werewolf/internal/config"
	"github.com/Iron-Ham/werewolf/internal/decision"
	werrors "github.com/Iron-Ham/werewolf/internal/errors"
	"github.com/Iron-Ham/werewolf/internal/event"
	"github.com/Iron-Ham/werewolf/internal/game"
	"github.com/Iron-Ham/werewolf/internal/llm"
	"github.com/Iron-Ham/werewolf/internal/logging"
	"github.com/Iron-Ham/werewolf/internal/memory"
	"github.com/Iron-Ham/werewolf/internal/narrator"
	"github.com/Iron-Ham/werewolf/internal/replay"
	"github.com/Iron-Ham/werewolf/internal/retry"
)

var playCmd = &cobra.Command{
	Use:   "play",
	Short: "Play one game",
	Long: `Play one game of Werewolf with the configured models.

Seats are dealt the configured roles in a shuffled order and assigned models
round-robin. The game runs until one faction wins or the turn cap is reached,
then a replay is written unless disabled.

Examples:
  # Offline game with the built-in mock players
  werewolf play

  # Reproducible deal, at most 10 turns
  werewolf play --seed 42 --rounds 10

  # Hide roles and night actions from the console
  werewolf play --hide-secrets`,
	Args: cobra.NoArgs,
	RunE: runPlay,
}

var (
	playRounds      int
	playSeed        int64
	playQuiet       bool
	playHideSecrets bool
	playNoReplay    bool
)

func init() {
	rootCmd.AddCommand(playCmd)

	playCmd.Flags().IntVar(&playRounds, "rounds", 0, "Maximum number of turns (overrides game.max_turns)")
	playCmd.Flags().Int64Var(&playSeed, "seed", 0, "Random seed for the role deal (overrides game.random_seed)")
	playCmd.Flags().BoolVarP(&playQuiet, "quiet", "q", false, "Do not narrate the game")
	playCmd.Flags().BoolVar(&playHideSecrets, "hide-secrets", false, "Hide roles and night actions while narrating")
	playCmd.Flags().BoolVar(&playNoReplay, "no-replay", false, "Do not write a replay file")
}

func runPlay(cmd *cobra.Command, args []string) error {
	if cmd.Flags().Changed("rounds") {
		viper.Set("game.max_turns", playRounds)
	}
	if cmd.Flags().Changed("seed") {
		viper.Set("game.random_seed", playSeed)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if playNoReplay {
		cfg.Replay.Enabled = false
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var out io.Writer
	if !playQuiet {
		out = cmd.OutOrStdout()
	}
	outcome, err := playGame(ctx, cfg, out, playHideSecrets)
	if err != nil {
		if outcome.ReplayPath != "" {
			fmt.Fprintf(cmd.ErrOrStderr(), "Partial replay saved to %s\n", outcome.ReplayPath)
		}
		return err
	}

	w := cmd.OutOrStdout()
	fmt.Fprintf(w, "\nWinner: %s after %d turns\n", outcome.Result.Winner, outcome.Result.Turns)
	if outcome.ReplayPath != "" {
		fmt.Fprintf(w, "Replay saved to %s\n", outcome.ReplayPath)
	}
	if len(outcome.Degraded) > 0 {
		fmt.Fprintf(w, "Seats with failed inference: %v\n", outcome.Degraded)
	}
	return nil
}

// loadConfig loads the viper config. An explicit --config file must exist
// and parse; the default locations are optional.
func loadConfig() (*config.Config, error) {
	if file := viper.GetString("config"); file != "" {
		if err := viper.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("failed to read config file %s: %w", file, err)
		}
	}
	return config.Load()
}

// playOutcome is what one finished game leaves behind.
type playOutcome struct {
	Result     game.Result
	ReplayPath string
	Degraded   []int
}

// playGame wires the configured models into seats, runs the engine and
// saves the replay. A nil out disables narration.
func playGame(ctx context.Context, cfg *config.Config, out io.Writer, hideSecrets bool) (playOutcome, error) {
	gameID := uuid.NewString()
	started := time.Now()

	base, err := newLogger(cfg.Logging)
	if err != nil {
		return playOutcome{}, err
	}
	defer func() { _ = base.Close() }()
	logger := base.WithGame(gameID)

	bus := event.NewBus(logger)
	if out != nil {
		n := narrator.New(out, narrator.WithSecrets(!hideSecrets))
		n.Attach(bus)
		defer n.Detach(bus)
	}

	tracker := retry.NewTracker()
	s, err := newSeating(cfg, bus, tracker, logger)
	if err != nil {
		return playOutcome{}, err
	}

	engine, err := game.New(cfg.Game, s.factory, game.Options{GameID: gameID, Bus: bus, Logger: logger})
	if err != nil {
		return playOutcome{}, err
	}
	// An interrupted game still leaves a replay of what was played.
	res, runErr := engine.Run(ctx)
	canceled := errors.Is(runErr, werrors.ErrCanceled)
	if runErr != nil && !canceled {
		return playOutcome{}, runErr
	}

	outcome := playOutcome{Result: res, Degraded: tracker.DegradedSeats()}
	if !cfg.Replay.Enabled {
		return outcome, runErr
	}

	rec, err := replay.New(cfg, res, tracker.Summary(), started, time.Now())
	if err != nil {
		return outcome, errors.Join(runErr, err)
	}
	rec.Canceled = canceled
	path, err := replay.Save(cfg.Replay.Dir, rec, cfg.Replay.Compress)
	if err != nil {
		return outcome, errors.Join(runErr, fmt.Errorf("failed to save replay: %w", err))
	}
	logger.Info("replay saved", "path", path, "canceled", canceled)
	outcome.ReplayPath = path
	return outcome, runErr
}

func newLogger(cfg config.LoggingConfig) (*logging.Logger, error) {
	if !cfg.Enabled {
		return logging.NopLogger(), nil
	}
	if err := os.MkdirAll(cfg.Dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	return logging.NewLogger(cfg.Dir, cfg.Level, logging.RotationConfig{
		MaxSizeMB:  cfg.MaxSizeMB,
		MaxBackups: cfg.MaxBackups,
		Compress:   cfg.Compress,
	})
}

// seating builds one agent per seat from the shared inference plumbing.
type seating struct {
	cfg     *config.Config
	bus     *event.Bus
	tracker *retry.Tracker
	logger  *logging.Logger
	counter memory.Counter
	arbiter decision.Arbiter
	seed    uint64
}

func newSeating(cfg *config.Config, bus *event.Bus, tracker *retry.Tracker, logger *logging.Logger) (*seating, error) {
	s := &seating{cfg: cfg, bus: bus, tracker: tracker, logger: logger, seed: rand.Uint64()}
	if cfg.Game.RandomSeed != nil {
		s.seed = uint64(*cfg.Game.RandomSeed)
	}

	counter, err := memory.NewCounter(cfg.Game.Tokenizer)
	if err != nil {
		logger.Warn("tokenizer unavailable, estimating token counts", "tokenizer", cfg.Game.Tokenizer, "error", err.Error())
		counter = memory.EstimateCounter{}
	}
	s.counter = counter

	if cfg.JudgeModel != nil && !cfg.JudgeModel.Disabled {
		p, err := llm.NewProvider(*cfg.JudgeModel, s.seed)
		if err != nil {
			return nil, err
		}
		client := llm.NewClient(p,
			llm.WithTimeout(cfg.JudgeModel.Timeout()),
			llm.WithMaxRetries(cfg.JudgeModel.MaxRetries),
			llm.WithLogger(logger.With("role", "judge")),
		)
		s.arbiter = llm.NewArbiter(client)
	}
	return s, nil
}

// factory satisfies game.Factory.
func (s *seating) factory(seat int, role game.Role, system string) (game.Participant, error) {
	m, ok := s.cfg.ModelForSeat(seat)
	if !ok {
		return nil, fmt.Errorf("no model available for seat %d", seat)
	}
	p, err := llm.NewProvider(m, s.seed+uint64(seat))
	if err != nil {
		return nil, err
	}

	seatLogger := s.logger.WithSeat(seat)
	client := llm.NewClient(p,
		llm.WithSeat(seat),
		llm.WithTimeout(m.Timeout()),
		llm.WithMaxRetries(m.MaxRetries),
		llm.WithTracker(s.tracker),
		llm.WithBus(s.bus),
		llm.WithLogger(seatLogger),
	)

	seatLogger.Info("seat ready", "model", m.Name, "provider", m.Provider, "role", string(role.Type))
	return agent.New(seat, system, client,
		agent.WithBudget(s.cfg.Game.MaxMemoryTokens, s.counter),
		agent.WithReasoning(m.Reasoning),
		agent.WithStructured(m.Structured),
		agent.WithExtractor(decision.NewExtractor(seatLogger, decision.Chain(m.Structured, s.arbiter)...)),
		agent.WithStream(s.bus, m.Stream),
		agent.WithLogger(s.logger),
	), nil
}
