package gigachat

import (
	"crypto/tls"
	"fmt"
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/fincore-labs/finchat/internal/transport/openai"
)

// Config holds the GigaChat chat settings.
type Config struct {
	AuthKey            string
	AuthURL            string
	Scope              string
	BaseURL            string
	Model              string
	InsecureSkipVerify bool
	Logger             *zap.Logger
}

// authTransport injects a fresh Bearer token into every request.
type authTransport struct {
	tokens *TokenManager
	next   http.RoundTripper
}

func (t *authTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	token, err := t.tokens.Token(req.Context())
	if err != nil {
		return nil, fmt.Errorf("gigachat auth: %w", err)
	}

	// Per RoundTripper contract the request must not be mutated.
	clone := req.Clone(req.Context())
	clone.Header.Set("Authorization", "Bearer "+token)
	return t.next.RoundTrip(clone)
}

// NewChatClient creates a GigaChat chat provider. The API speaks the OpenAI
// chat protocol, so the client reuses the OpenAI transport behind a token
// refreshing round tripper.
func NewChatClient(cfg *Config) *openai.ChatClient {
	tokens := NewTokenManager(&TokenManagerConfig{
		AuthKey:            cfg.AuthKey,
		AuthURL:            cfg.AuthURL,
		Scope:              cfg.Scope,
		InsecureSkipVerify: cfg.InsecureSkipVerify,
		Logger:             cfg.Logger,
	})

	inner := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		inner = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}

	httpClient := &http.Client{
		Timeout:   120 * time.Second,
		Transport: &authTransport{tokens: tokens, next: inner},
	}

	return openai.NewChatClient(&openai.ChatConfig{
		// The key is never passed through; authTransport overwrites the header.
		APIKey:     "unused",
		BaseURL:    cfg.BaseURL,
		Model:      cfg.Model,
		HTTPClient: httpClient,
		Logger:     cfg.Logger,
	})
}
