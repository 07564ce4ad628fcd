package providers

import (
	"context"
	"fmt"

	"github.com/cloudwego/eino-ext/components/model/gemini"
	openaiModel "github.com/cloudwego/eino-ext/components/model/openai"
	"github.com/cloudwego/eino-ext/components/model/qwen"
	"github.com/cloudwego/eino/components/model"
	"go.uber.org/zap"
	"google.golang.org/genai"

	"newsletter-agent/config"
)

const (
	defaultGeminiModel = "gemini-2.5-flash-lite"
	defaultOpenAIModel = "gpt-4o-mini"
	defaultQwenModel   = "qwen-plus"
	defaultQwenBaseURL = "https://dashscope.aliyuncs.com/compatible-mode/v1"
)

// NewChatModel creates the chat model selected by cfg.Provider.
func NewChatModel(ctx context.Context, cfg config.ModelConfig) (model.ToolCallingChatModel, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("API key is required for provider %q", cfg.Provider)
	}

	switch cfg.Provider {
	case config.ProviderGemini, "":
		client, err := genai.NewClient(ctx, &genai.ClientConfig{
			APIKey:  cfg.APIKey,
			Backend: genai.BackendGeminiAPI,
		})
		if err != nil {
			return nil, fmt.Errorf("failed to create genai client: %w", err)
		}
		return gemini.NewChatModel(ctx, &gemini.Config{
			Client: client,
			Model:  orDefault(cfg.Name, defaultGeminiModel),
		})

	case config.ProviderOpenAI:
		return openaiModel.NewChatModel(ctx, &openaiModel.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   orDefault(cfg.Name, defaultOpenAIModel),
		})

	case config.ProviderQwen:
		return qwen.NewChatModel(ctx, &qwen.ChatModelConfig{
			APIKey:  cfg.APIKey,
			BaseURL: orDefault(cfg.BaseURL, defaultQwenBaseURL),
			Model:   orDefault(cfg.Name, defaultQwenModel),
		})

	default:
		return nil, fmt.Errorf("unknown model provider %q", cfg.Provider)
	}
}

// New creates the configured chat model wrapped with retry on transient
// API failures.
func New(ctx context.Context, cfg *config.Config, logger *zap.Logger) (model.ToolCallingChatModel, error) {
	cm, err := NewChatModel(ctx, cfg.Model)
	if err != nil {
		return nil, err
	}
	return WithRetry(cm, cfg.Retry, logger), nil
}

func orDefault(v, def string) string {
	if v == "" {
		return def
	}
	return v
}
