// Package gigachat adapts the Sber GigaChat API. The chat surface is
// OpenAI-compatible, but authorization goes through a separate OAuth
// endpoint that trades a long-lived authorization key for a short-lived
// access token.
package gigachat

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// refreshSlack is subtracted from the token lifetime so a token is never
// used right at its expiry boundary.
const refreshSlack = 60 * time.Second

// TokenManager obtains and caches GigaChat access tokens.
// Safe for concurrent use.
type TokenManager struct {
	authKey string
	authURL string
	scope   string
	client  *http.Client
	logger  *zap.Logger

	mu        sync.Mutex
	token     string
	expiresAt time.Time
}

// TokenManagerConfig holds the OAuth settings.
type TokenManagerConfig struct {
	AuthKey            string
	AuthURL            string
	Scope              string
	InsecureSkipVerify bool
	Logger             *zap.Logger
}

// NewTokenManager creates a token manager. InsecureSkipVerify disables TLS
// verification for environments without the Russian Trusted Root CA.
func NewTokenManager(cfg *TokenManagerConfig) *TokenManager {
	transport := http.DefaultTransport
	if cfg.InsecureSkipVerify {
		transport = &http.Transport{
			TLSClientConfig: &tls.Config{InsecureSkipVerify: true}, //nolint:gosec
		}
	}

	return &TokenManager{
		authKey: cfg.AuthKey,
		authURL: cfg.AuthURL,
		scope:   cfg.Scope,
		client:  &http.Client{Timeout: 30 * time.Second, Transport: transport},
		logger:  cfg.Logger,
	}
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	// ExpiresAt is a unix timestamp in milliseconds.
	ExpiresAt int64 `json:"expires_at"`
}

// Token returns a valid access token, refreshing it when the cached one is
// within refreshSlack of expiry.
func (m *TokenManager) Token(ctx context.Context) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.token != "" && time.Now().Before(m.expiresAt.Add(-refreshSlack)) {
		return m.token, nil
	}

	form := url.Values{"scope": {m.scope}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, m.authURL, strings.NewReader(form.Encode()))
	if err != nil {
		return "", fmt.Errorf("build token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("RqUID", uuid.NewString())
	req.Header.Set("Authorization", "Basic "+m.authKey)

	resp, err := m.client.Do(req)
	if err != nil {
		return "", fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return "", fmt.Errorf("token request: status %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decode token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("token response has no access_token")
	}

	m.token = tr.AccessToken
	m.expiresAt = time.UnixMilli(tr.ExpiresAt)
	if m.logger != nil {
		m.logger.Debug("gigachat token refreshed", zap.Time("expires_at", m.expiresAt))
	}
	return m.token, nil
}
