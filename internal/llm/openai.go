package llm

import (
	"context"
	"net/http"
	"strings"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/openai/openai-go/shared"

	"github.com/Iron-Ham/werewolf/internal/config"
	"github.com/Iron-Ham/werewolf/internal/errors"
)

// OpenAIProvider talks to any OpenAI-compatible chat completions endpoint.
type OpenAIProvider struct {
	client      openai.Client
	name        string
	model       string
	temperature float64
}

// NewOpenAIProvider creates a provider for one configured model.
// SDK-level retries are disabled; Client owns the retry policy.
func NewOpenAIProvider(cfg config.ModelConfig) *OpenAIProvider {
	opts := []option.RequestOption{
		option.WithAPIKey(strings.TrimSpace(cfg.APIKey)),
		option.WithMaxRetries(0),
	}
	if baseURL := strings.TrimSpace(cfg.BaseURL); baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}

	return &OpenAIProvider{
		client:      openai.NewClient(opts...),
		name:        cfg.Name,
		model:       cfg.Model,
		temperature: cfg.Temperature,
	}
}

// Name returns the configured model name.
func (p *OpenAIProvider) Name() string { return p.name }

// Generate sends the conversation and returns the reply text.
func (p *OpenAIProvider) Generate(ctx context.Context, req Request) (string, error) {
	params := openai.ChatCompletionNewParams{
		Model:       shared.ChatModel(p.model),
		Messages:    toOpenAIMessages(req.Messages),
		Temperature: openai.Float(p.temperature),
	}
	if req.Structured {
		obj := shared.NewResponseFormatJSONObjectParam()
		params.ResponseFormat = openai.ChatCompletionNewParamsResponseFormatUnion{OfJSONObject: &obj}
	}

	if req.Stream != nil {
		return p.generateStream(ctx, params, req.Stream)
	}

	resp, err := p.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return "", classify(err)
	}
	if len(resp.Choices) == 0 {
		return "", errors.ErrEmptyResponse
	}
	return resp.Choices[0].Message.Content, nil
}

func (p *OpenAIProvider) generateStream(ctx context.Context, params openai.ChatCompletionNewParams, onChunk func(string)) (string, error) {
	stream := p.client.Chat.Completions.NewStreaming(ctx, params)
	defer func() { _ = stream.Close() }()

	var sb strings.Builder
	for stream.Next() {
		chunk := stream.Current()
		if len(chunk.Choices) == 0 {
			continue
		}
		if delta := chunk.Choices[0].Delta.Content; delta != "" {
			sb.WriteString(delta)
			onChunk(delta)
		}
	}
	if err := stream.Err(); err != nil {
		return "", classify(err)
	}
	return sb.String(), nil
}

// classify marks client errors other than timeouts and rate limits as
// rejected so they are not retried.
func classify(err error) error {
	var apiErr *openai.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	switch code := apiErr.StatusCode; {
	case code == http.StatusRequestTimeout, code == http.StatusTooManyRequests, code < 400, code >= 500:
		return err
	default:
		return errors.Join(errors.Wrapf(errors.ErrRejected, "status %d", code), err)
	}
}

func toOpenAIMessages(msgs []Message) []openai.ChatCompletionMessageParamUnion {
	out := make([]openai.ChatCompletionMessageParamUnion, 0, len(msgs))
	for _, m := range msgs {
		switch m.Role {
		case RoleSystem:
			out = append(out, openai.SystemMessage(m.Content))
		case RoleAssistant:
			out = append(out, openai.AssistantMessage(m.Content))
		default:
			out = append(out, openai.UserMessage(m.Content))
		}
	}
	return out
}
