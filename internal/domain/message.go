package domain

import "context"

// Message roles, shared across all chat backends.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleTool      = "tool"
)

// Message is a single chat message passed to an LLM backend.
type Message struct {
	Role    string
	Content string
}

// ChatClient is the two-operation LLM contract: classify the user's intent
// into a tool call, and generate a free-text answer. One implementation per
// backend; a factory selects the variant from configuration at startup.
type ChatClient interface {
	// SelectTool asks the backend to pick a tool for the last user message.
	// A backend that answers without requesting a tool returns Tool == ToolNone.
	SelectTool(ctx context.Context, messages []Message) (ToolCall, error)
	// GenerateAnswer produces the final natural-language reply.
	GenerateAnswer(ctx context.Context, messages []Message) (string, error)
}
