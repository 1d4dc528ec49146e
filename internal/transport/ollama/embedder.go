package ollama

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/fincore-labs/finchat/internal/domain"
	"github.com/fincore-labs/finchat/internal/metrics"
)

// Embedder produces embeddings via the Ollama /api/embed endpoint.
// Vectors are L2-normalized before being returned.
type Embedder struct {
	host   string
	model  string
	client *http.Client
	logger *zap.Logger
}

// EmbedderConfig holds the Ollama embedding settings.
type EmbedderConfig struct {
	Host   string
	Model  string
	Logger *zap.Logger
}

// NewEmbedder creates an Ollama embedding provider.
func NewEmbedder(cfg *EmbedderConfig) *Embedder {
	return &Embedder{
		host:   strings.TrimRight(cfg.Host, "/"),
		model:  cfg.Model,
		client: &http.Client{Timeout: defaultTimeout},
		logger: cfg.Logger,
	}
}

type embedRequest struct {
	Model string   `json:"model"`
	Input []string `json:"input"`
}

type embedResponse struct {
	Embeddings      [][]float32 `json:"embeddings"`
	PromptEvalCount int         `json:"prompt_eval_count"`
}

// Embed implements domain.Embedder.
func (e *Embedder) Embed(ctx context.Context, text string) (domain.EmbeddingResult, error) {
	res, err := e.BatchEmbed(ctx, []string{text})
	if err != nil {
		return domain.EmbeddingResult{}, err
	}
	return domain.EmbeddingResult{
		Embedding:    res.Embeddings[0],
		PromptTokens: res.PromptTokens,
		TotalTokens:  res.TotalTokens,
	}, nil
}

// BatchEmbed implements domain.BatchEmbedder with a single API call.
func (e *Embedder) BatchEmbed(ctx context.Context, texts []string) (domain.BatchEmbeddingResult, error) {
	start := time.Now()

	var resp embedResponse
	err := doJSON(ctx, e.client, e.host+"/api/embed", embedRequest{Model: e.model, Input: texts}, &resp)

	duration := time.Since(start)

	if err != nil {
		metrics.EmbeddingRequestsTotal.WithLabelValues("ollama", e.model, "error").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf("ollama embed: %s: %w", err, domain.ErrEmbeddingProviderError)
	}

	if len(resp.Embeddings) != len(texts) {
		metrics.EmbeddingRequestsTotal.WithLabelValues("ollama", e.model, "error").Inc()
		return domain.BatchEmbeddingResult{}, fmt.Errorf(
			"got %d embeddings for %d inputs: %w", len(resp.Embeddings), len(texts), domain.ErrEmbeddingProviderError)
	}

	metrics.EmbeddingRequestsTotal.WithLabelValues("ollama", e.model, "success").Inc()
	metrics.EmbeddingRequestDuration.WithLabelValues("ollama", e.model).Observe(duration.Seconds())
	if resp.PromptEvalCount > 0 {
		metrics.EmbeddingTokensTotal.WithLabelValues("ollama", e.model, "total").Add(float64(resp.PromptEvalCount))
	}

	embeddings := make([][]float32, len(resp.Embeddings))
	for i, v := range resp.Embeddings {
		embeddings[i] = domain.Normalize(v)
	}

	return domain.BatchEmbeddingResult{
		Embeddings:   embeddings,
		PromptTokens: resp.PromptEvalCount,
		TotalTokens:  resp.PromptEvalCount,
	}, nil
}

// HealthCheck verifies the server is reachable.
func (e *Embedder) HealthCheck(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, e.host+"/api/version", nil)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	resp, err := e.client.Do(req)
	if err != nil {
		return fmt.Errorf("ollama unreachable: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("ollama version check: status %d", resp.StatusCode)
	}
	return nil
}
