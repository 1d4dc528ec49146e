package config

import (
	"os"
	"testing"
)

func validConfig() Config {
	cfg := Config{}
	cfg.ApplyDefaults()
	return cfg
}

func TestApplyDefaults(t *testing.T) {
	cfg := Config{}
	cfg.ApplyDefaults()

	if cfg.RAG.TopK != 5 {
		t.Errorf("default top_k: got %d, want 5", cfg.RAG.TopK)
	}
	if cfg.RAG.Collection != "financial_news" {
		t.Errorf("default collection: got %q", cfg.RAG.Collection)
	}
	if cfg.RAG.ContextChars != 1200 {
		t.Errorf("default context_chars: got %d, want 1200", cfg.RAG.ContextChars)
	}
	if cfg.LLM.MaxToolRounds != 4 {
		t.Errorf("default max_tool_rounds: got %d, want 4", cfg.LLM.MaxToolRounds)
	}
	if cfg.Index.KeyPrefix != "finchat:" {
		t.Errorf("default key_prefix: got %q", cfg.Index.KeyPrefix)
	}
	if len(cfg.Database.Addrs) == 0 {
		t.Error("default database.addrs must not be empty")
	}
}

func TestValidate_InvalidLLMProvider(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = "mistral"

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected error for unknown llm provider")
	}
}

func TestValidate_GigaChatRequiresAuthKey(t *testing.T) {
	cfg := validConfig()
	cfg.LLM.Provider = "gigachat"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for gigachat without auth_key")
	}

	cfg.LLM.GigaChat.AuthKey = "dGVzdDp0ZXN0"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error with auth_key set: %v", err)
	}
}

func TestValidate_InvalidIndexAlgorithm(t *testing.T) {
	cfg := validConfig()
	cfg.Index.Algorithm = "ivf"

	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown index algorithm")
	}
}

func TestValidate_ValidProviders(t *testing.T) {
	for _, provider := range []string{"ollama", "openai", "gigachat"} {
		t.Run("provider="+provider, func(t *testing.T) {
			cfg := validConfig()
			cfg.LLM.Provider = provider
			cfg.LLM.GigaChat.AuthKey = "dGVzdDp0ZXN0"

			if err := cfg.Validate(); err != nil {
				t.Fatalf("unexpected error for provider %q: %v", provider, err)
			}
		})
	}
}

func TestExpandEnvVars(t *testing.T) {
	os.Setenv("FINCHAT_TEST_VAR", "redis-prod:6379")
	defer os.Unsetenv("FINCHAT_TEST_VAR")

	tests := []struct {
		name string
		in   string
		want string
	}{
		{"set variable", "addr: ${FINCHAT_TEST_VAR}", "addr: redis-prod:6379"},
		{"unset variable", "addr: ${FINCHAT_TEST_MISSING}", "addr: "},
		{"default used", "addr: ${FINCHAT_TEST_MISSING:-localhost:6379}", "addr: localhost:6379"},
		{"default ignored when set", "addr: ${FINCHAT_TEST_VAR:-fallback}", "addr: redis-prod:6379"},
		{"no substitution", "addr: localhost", "addr: localhost"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := string(expandEnvVars([]byte(tt.in)))
			if got != tt.want {
				t.Errorf("expandEnvVars(%q) = %q, want %q", tt.in, got, tt.want)
			}
		})
	}
}
