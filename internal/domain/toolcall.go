package domain

import (
	"encoding/json"
	"errors"
	"fmt"
)

// Tool names known to the router.
const (
	ToolSearchNews  = "search_financial_news"
	ToolSystemStats = "get_system_stats"
	ToolMoscowTime  = "get_moscow_time"

	// ToolNone signals that the backend produced a direct answer
	// instead of requesting a tool (function-calling backends only).
	ToolNone = ""
)

// ErrToolCallParse signals that a classification response could not be
// decoded into a known tool call. Recoverable: the router falls back to a
// default search instead of surfacing it to the user.
var ErrToolCallParse = errors.New("tool call parse failed")

// ToolArgs are the arguments of a tool call. Only the search tool uses them.
type ToolArgs struct {
	Query string `json:"query,omitempty"`
	TopK  int    `json:"top_k,omitempty"`
}

// ToolCall is one classified user intent: a tool name plus arguments.
type ToolCall struct {
	Tool string   `json:"tool"`
	Args ToolArgs `json:"args"`
}

// DefaultSearchCall is the fallback tool call: search with the verbatim
// user text and the configured default top_k.
func DefaultSearchCall(query string, topK int) ToolCall {
	return ToolCall{
		Tool: ToolSearchNews,
		Args: ToolArgs{Query: query, TopK: topK},
	}
}

// ParseToolCall decodes a backend's JSON classification response of the form
// {"tool": "...", "args": {...}}. Invalid JSON or an unknown tool name
// returns ErrToolCallParse.
func ParseToolCall(raw string) (ToolCall, error) {
	var tc ToolCall
	if err := json.Unmarshal([]byte(raw), &tc); err != nil {
		return ToolCall{}, fmt.Errorf("%w: %s", ErrToolCallParse, err)
	}

	switch tc.Tool {
	case ToolSearchNews:
		return tc, nil
	case ToolSystemStats, ToolMoscowTime:
		tc.Args = ToolArgs{}
		return tc, nil
	default:
		return ToolCall{}, fmt.Errorf("%w: unknown tool %q", ErrToolCallParse, tc.Tool)
	}
}
