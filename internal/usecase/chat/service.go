// Package chat routes one user turn through guard, tool selection, tool
// execution and answer generation.
//
// Provider failures inside a turn are recoverable: the user gets a fixed
// apology and the console loop keeps running. Only startup wiring treats
// errors as fatal.
package chat

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	"github.com/fincore-labs/finchat/internal/domain"
	"github.com/fincore-labs/finchat/internal/guard"
	"github.com/fincore-labs/finchat/internal/metrics"
	"github.com/fincore-labs/finchat/internal/prompt"
	"github.com/fincore-labs/finchat/internal/tools"
)

// ErrorReply is the user-facing apology for any recoverable failure.
const ErrorReply = "Извините, произошла ошибка при обработке вашего запроса."

// retriever is the consumer interface for semantic search.
type retriever interface {
	Search(ctx context.Context, query string, topK int) (domain.SearchResponse, error)
}

// Config holds the router settings.
type Config struct {
	TopK          int
	ContextChars  int
	MaxToolRounds int
}

// Service is the tool router for the console chat.
type Service struct {
	llm       domain.ChatClient
	retriever retriever
	cfg       Config
	logger    *zap.Logger

	// swappable in tests
	systemStats func(ctx context.Context) (tools.SystemStats, error)
	moscowTime  func() (string, error)
}

func New(llm domain.ChatClient, r retriever, cfg Config, logger *zap.Logger) *Service {
	return &Service{
		llm:         llm,
		retriever:   r,
		cfg:         cfg,
		logger:      logger,
		systemStats: tools.GetSystemStats,
		moscowTime:  tools.MoscowTime,
	}
}

// Respond handles one user turn and returns the reply to print. Recoverable
// failures are logged and surfaced as ErrorReply; the returned error is
// reserved for context cancellation.
func (s *Service) Respond(ctx context.Context, query string) (string, error) {
	start := time.Now()
	defer func() {
		metrics.TurnDuration.Observe(time.Since(start).Seconds())
	}()

	if blocked, reason := guard.Check(query); blocked {
		metrics.BlockedRequestsTotal.Inc()
		s.logger.Warn("request blocked by guard")
		return reason, nil
	}

	history := []domain.Message{{Role: domain.RoleUser, Content: query}}
	executed := make(map[domain.ToolCall]bool)

	for round := 0; round < s.cfg.MaxToolRounds; round++ {
		call, err := s.selectTool(ctx, history, round)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			s.logger.Error("tool selection failed", zap.Error(err))
			return ErrorReply, nil
		}

		// ToolNone means the backend wants to answer directly; a repeated
		// call means the backend is looping.
		if call.Tool == domain.ToolNone || executed[call] {
			break
		}
		executed[call] = true

		history, err = s.executeTool(ctx, call, query, history)
		if err != nil {
			if ctx.Err() != nil {
				return "", ctx.Err()
			}
			metrics.ToolCallsTotal.WithLabelValues(call.Tool, "error").Inc()
			s.logger.Error("tool execution failed", zap.String("tool", call.Tool), zap.Error(err))
			return ErrorReply, nil
		}
		metrics.ToolCallsTotal.WithLabelValues(call.Tool, "ok").Inc()
	}

	answer, err := s.llm.GenerateAnswer(ctx, history)
	if err != nil {
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		s.logger.Error("answer generation failed", zap.Error(err))
		return ErrorReply, nil
	}
	return answer, nil
}

// selectTool classifies the next step. A malformed first-round reply falls
// back to a default search over the verbatim query; on later rounds it is
// treated as "done".
func (s *Service) selectTool(ctx context.Context, history []domain.Message, round int) (domain.ToolCall, error) {
	call, err := s.llm.SelectTool(ctx, history)
	if err == nil {
		return call, nil
	}

	if errors.Is(err, domain.ErrToolCallParse) {
		if round > 0 {
			return domain.ToolCall{Tool: domain.ToolNone}, nil
		}
		metrics.ToolCallsTotal.WithLabelValues(domain.ToolSearchNews, "fallback").Inc()
		s.logger.Warn("tool selection unparseable, falling back to search", zap.Error(err))
		return domain.DefaultSearchCall(history[len(history)-1].Content, s.cfg.TopK), nil
	}

	return domain.ToolCall{}, err
}

// executeTool runs the selected tool and appends its result to the history.
func (s *Service) executeTool(ctx context.Context, call domain.ToolCall, query string, history []domain.Message) ([]domain.Message, error) {
	switch call.Tool {
	case domain.ToolSearchNews:
		q := call.Args.Query
		if q == "" {
			q = query
		}
		k := call.Args.TopK
		if k <= 0 {
			k = s.cfg.TopK
		}

		resp, err := s.retriever.Search(ctx, q, k)
		if err != nil {
			return nil, err
		}
		s.logger.Info("search tool executed",
			zap.String("query", q),
			zap.Int("top_k", k),
			zap.Int("results", len(resp.Results)))

		// Grounding rules go in front of the user message once.
		if !hasGroundingRules(history) {
			history = append([]domain.Message{prompt.GroundingRules()}, history...)
		}
		return append(history, prompt.ContextMessage(resp.Results, s.cfg.ContextChars)), nil

	case domain.ToolSystemStats:
		stats, err := s.systemStats(ctx)
		if err != nil {
			return nil, err
		}
		s.logger.Info("system stats tool executed")
		return append(history, prompt.ToolDataMessage(stats.JSON())), nil

	case domain.ToolMoscowTime:
		now, err := s.moscowTime()
		if err != nil {
			return nil, err
		}
		s.logger.Info("moscow time tool executed")
		return append(history, prompt.ToolDataMessage(now)), nil
	}

	// ParseToolCall guarantees a known tool name.
	return history, nil
}

func hasGroundingRules(history []domain.Message) bool {
	rules := prompt.GroundingRules()
	for _, m := range history {
		if m.Role == rules.Role && m.Content == rules.Content {
			return true
		}
	}
	return false
}
