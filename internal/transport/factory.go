// Package transport builds LLM and embedding clients from configuration.
package transport

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/fincore-labs/finchat/internal/config"
	"github.com/fincore-labs/finchat/internal/domain"
	"github.com/fincore-labs/finchat/internal/transport/gigachat"
	"github.com/fincore-labs/finchat/internal/transport/ollama"
	"github.com/fincore-labs/finchat/internal/transport/openai"
)

// NewEmbedder selects the embedding provider from configuration.
func NewEmbedder(cfg config.EmbeddingConfig, logger *zap.Logger) (domain.Embedder, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewEmbedder(&ollama.EmbedderConfig{
			Host:   cfg.Host,
			Model:  cfg.Model,
			Logger: logger,
		}), nil
	case "openai":
		return openai.NewEmbedder(&openai.EmbedderConfig{
			APIKey:     cfg.APIKey,
			BaseURL:    cfg.BaseURL,
			Model:      cfg.Model,
			Dimensions: cfg.Dimensions,
			Logger:     logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown embedding provider %q", cfg.Provider)
	}
}

// NewChatClient selects the chat backend from configuration.
func NewChatClient(cfg config.LLMConfig, logger *zap.Logger) (domain.ChatClient, error) {
	switch cfg.Provider {
	case "ollama":
		return ollama.NewChatClient(&ollama.ChatConfig{
			Host:   cfg.Host,
			Model:  cfg.Model,
			Logger: logger,
		}), nil
	case "openai":
		return openai.NewChatClient(&openai.ChatConfig{
			APIKey:  cfg.APIKey,
			BaseURL: cfg.BaseURL,
			Model:   cfg.Model,
			Logger:  logger,
		}), nil
	case "gigachat":
		return gigachat.NewChatClient(&gigachat.Config{
			AuthKey:            cfg.GigaChat.AuthKey,
			AuthURL:            cfg.GigaChat.AuthURL,
			Scope:              cfg.GigaChat.Scope,
			BaseURL:            cfg.GigaChat.BaseURL,
			Model:              cfg.Model,
			InsecureSkipVerify: cfg.GigaChat.InsecureSkipVerify,
			Logger:             logger,
		}), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}
