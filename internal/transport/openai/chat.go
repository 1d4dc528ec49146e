package openai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	openai "github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"github.com/fincore-labs/finchat/internal/domain"
	"github.com/fincore-labs/finchat/internal/prompt"
)

// ChatClient is a chat provider using the OpenAI-compatible API. Tool routing
// goes through native function calling; an empty tool_calls list means the
// model answered directly.
type ChatClient struct {
	client *openai.Client
	model  string
	logger *zap.Logger
}

// ChatConfig holds the chat provider settings.
type ChatConfig struct {
	APIKey     string
	BaseURL    string
	Model      string
	HTTPClient *http.Client
	Logger     *zap.Logger
}

// NewChatClient creates an OpenAI-compatible chat provider.
func NewChatClient(cfg *ChatConfig) *ChatClient {
	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	if cfg.HTTPClient != nil {
		clientCfg.HTTPClient = cfg.HTTPClient
	}

	return &ChatClient{
		client: openai.NewClientWithConfig(clientCfg),
		model:  cfg.Model,
		logger: cfg.Logger,
	}
}

// toolDefinitions describes the assistant tools in function-calling form.
func toolDefinitions() []openai.Tool {
	searchParams := json.RawMessage(`{
		"type": "object",
		"properties": {
			"query": {"type": "string", "description": "Поисковый запрос по базе финансовых новостей"},
			"top_k": {"type": "integer", "description": "Сколько документов вернуть"}
		},
		"required": ["query"]
	}`)
	emptyParams := json.RawMessage(`{"type": "object", "properties": {}}`)

	return []openai.Tool{
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        domain.ToolSearchNews,
				Description: "Семантический поиск по базе российских финансовых новостей",
				Parameters:  searchParams,
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        domain.ToolSystemStats,
				Description: "Текущая загрузка CPU и памяти хоста",
				Parameters:  emptyParams,
			},
		},
		{
			Type: openai.ToolTypeFunction,
			Function: &openai.FunctionDefinition{
				Name:        domain.ToolMoscowTime,
				Description: "Текущее время в Москве",
				Parameters:  emptyParams,
			},
		},
	}
}

// SelectTool implements domain.ChatClient. It asks the model to pick a tool
// via function calling and converts the first call into a domain.ToolCall.
// A response with no tool calls yields domain.ToolNone with the model's text
// in Args.Query left empty; the direct answer is returned by GenerateAnswer
// on the next round.
func (c *ChatClient) SelectTool(ctx context.Context, messages []domain.Message) (domain.ToolCall, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(prompt.Answer(messages)),
		Tools:       toolDefinitions(),
		Temperature: 0.1,
	})
	if err != nil {
		return domain.ToolCall{}, chatAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return domain.ToolCall{}, fmt.Errorf("empty completion: %w", domain.ErrLLMProviderError)
	}

	calls := resp.Choices[0].Message.ToolCalls
	if len(calls) == 0 {
		return domain.ToolCall{Tool: domain.ToolNone}, nil
	}

	tc := domain.ToolCall{Tool: calls[0].Function.Name}
	if args := calls[0].Function.Arguments; args != "" {
		if err := json.Unmarshal([]byte(args), &tc.Args); err != nil {
			return domain.ToolCall{}, fmt.Errorf("%w: %s", domain.ErrToolCallParse, err)
		}
	}

	raw, err := json.Marshal(tc)
	if err != nil {
		return domain.ToolCall{}, fmt.Errorf("encode tool call: %w", err)
	}

	// Route through the shared parser so unknown tool names surface as
	// the recoverable parse error.
	return domain.ParseToolCall(string(raw))
}

// GenerateAnswer implements domain.ChatClient.
func (c *ChatClient) GenerateAnswer(ctx context.Context, messages []domain.Message) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, openai.ChatCompletionRequest{
		Model:       c.model,
		Messages:    toOpenAIMessages(prompt.Answer(messages)),
		Temperature: 0.2,
	})
	if err != nil {
		return "", chatAPIError(err)
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("empty completion: %w", domain.ErrLLMProviderError)
	}
	return resp.Choices[0].Message.Content, nil
}

func toOpenAIMessages(messages []domain.Message) []openai.ChatCompletionMessage {
	out := make([]openai.ChatCompletionMessage, len(messages))
	for i, m := range messages {
		out[i] = openai.ChatCompletionMessage{
			Role:    m.Role,
			Content: m.Content,
		}
	}
	return out
}

// chatAPIError wraps API failures with domain.ErrLLMProviderError.
func chatAPIError(err error) error {
	var apiErr *openai.APIError
	if errors.As(err, &apiErr) {
		return fmt.Errorf("chat API error %d: %s: %w",
			apiErr.HTTPStatusCode, apiErr.Message, domain.ErrLLMProviderError)
	}

	var reqErr *openai.RequestError
	if errors.As(err, &reqErr) {
		return fmt.Errorf("chat API error %d: %s: %w",
			reqErr.HTTPStatusCode, string(reqErr.Body), domain.ErrLLMProviderError)
	}

	return fmt.Errorf("chat request failed: %w", domain.ErrLLMProviderError)
}
