package llm

import (
	"github.com/Iron-Ham/werewolf/internal/config"
	"github.com/Iron-Ham/werewolf/internal/errors"
)

// NewProvider builds the provider a model entry describes. seed only
// affects the mock provider.
func NewProvider(cfg config.ModelConfig, seed uint64) (Provider, error) {
	switch cfg.Provider {
	case config.ProviderMock:
		return NewMockProvider(cfg.Name, seed), nil
	case config.ProviderOpenAI, "":
		return NewOpenAIProvider(cfg), nil
	default:
		return nil, errors.Wrapf(errors.ErrNoProvider, "model %q: unknown provider %q", cfg.Name, cfg.Provider)
	}
}
