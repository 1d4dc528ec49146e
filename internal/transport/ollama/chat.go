package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/fincore-labs/finchat/internal/domain"
	"github.com/fincore-labs/finchat/internal/prompt"
)

// ChatClient talks to the Ollama /api/chat endpoint. The native API has no
// function calling, so tool selection is done with "format": "json" and a
// low temperature; the reply is parsed as a tool call.
type ChatClient struct {
	host   string
	model  string
	client *http.Client
	logger *zap.Logger
}

// ChatConfig holds the Ollama chat settings.
type ChatConfig struct {
	Host   string
	Model  string
	Logger *zap.Logger
}

// NewChatClient creates an Ollama chat provider.
func NewChatClient(cfg *ChatConfig) *ChatClient {
	return &ChatClient{
		host:   strings.TrimRight(cfg.Host, "/"),
		model:  cfg.Model,
		client: &http.Client{Timeout: defaultTimeout},
		logger: cfg.Logger,
	}
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatRequest struct {
	Model    string         `json:"model"`
	Messages []chatMessage  `json:"messages"`
	Stream   bool           `json:"stream"`
	Format   string         `json:"format,omitempty"`
	Options  map[string]any `json:"options,omitempty"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

func (c *ChatClient) chat(ctx context.Context, messages []domain.Message, format string, temperature float64) (string, error) {
	req := chatRequest{
		Model:    c.model,
		Messages: make([]chatMessage, len(messages)),
		Stream:   false,
		Format:   format,
		Options:  map[string]any{"temperature": temperature},
	}
	for i, m := range messages {
		req.Messages[i] = chatMessage{Role: m.Role, Content: m.Content}
	}

	var resp chatResponse
	if err := doJSON(ctx, c.client, c.host+"/api/chat", req, &resp); err != nil {
		return "", fmt.Errorf("ollama chat: %s: %w", err, domain.ErrLLMProviderError)
	}
	return resp.Message.Content, nil
}

// SelectTool implements domain.ChatClient. The model is forced into JSON
// output; a malformed reply surfaces as domain.ErrToolCallParse, which the
// router treats as recoverable.
func (c *ChatClient) SelectTool(ctx context.Context, messages []domain.Message) (domain.ToolCall, error) {
	raw, err := c.chat(ctx, prompt.SelectTool(messages), "json", 0.1)
	if err != nil {
		return domain.ToolCall{}, err
	}
	return domain.ParseToolCall(raw)
}

// GenerateAnswer implements domain.ChatClient.
func (c *ChatClient) GenerateAnswer(ctx context.Context, messages []domain.Message) (string, error) {
	return c.chat(ctx, prompt.Answer(messages), "", 0.2)
}
