package prompt

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/fincore-labs/finchat/internal/domain"
)

func TestSelectTool(t *testing.T) {
	history := []domain.Message{{Role: domain.RoleUser, Content: "какие новости о Сбербанке?"}}
	msgs := SelectTool(history)

	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Role != domain.RoleSystem || msgs[0].Content != SystemPolicy {
		t.Errorf("first message must carry the system policy")
	}
	if msgs[1].Content != SelectToolInstruction {
		t.Errorf("second message must carry the tool instruction")
	}
	if msgs[2].Role != domain.RoleUser || msgs[2].Content != "какие новости о Сбербанке?" {
		t.Errorf("unexpected user message: %+v", msgs[2])
	}
}

func TestAnswer(t *testing.T) {
	history := []domain.Message{
		{Role: domain.RoleUser, Content: "сколько времени?"},
		ToolDataMessage("2024-01-15 12:00:00 MSK"),
	}
	msgs := Answer(history)

	if len(msgs) != 3 {
		t.Fatalf("expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].Content != SystemPolicy {
		t.Errorf("generation request must start with the system policy")
	}
	if msgs[2].Content != "ДАННЫЕ ИНСТРУМЕНТА: 2024-01-15 12:00:00 MSK" {
		t.Errorf("unexpected tool data message: %q", msgs[2].Content)
	}
}

func TestContextMessage(t *testing.T) {
	results := []domain.SearchResult{
		{
			Document:   "ЦБ повысил ключевую ставку до 16%",
			Metadata:   map[string]string{"source": "rbc.ru", "date": "2024-01-15"},
			Similarity: 0.92,
		},
		{
			Document:   "Акции Сбербанка выросли на 3%",
			Metadata:   map[string]string{"source": "vedomosti.ru", "date": "2024-01-16"},
			Similarity: 0.85,
		},
	}

	msg := ContextMessage(results, 1200)
	if msg.Role != domain.RoleSystem {
		t.Errorf("context must be a system message")
	}
	if !strings.HasPrefix(msg.Content, "КОНТЕКСТ:\n") {
		t.Errorf("context must start with the context marker: %q", msg.Content)
	}
	for _, want := range []string{"[DOC 1]", "[DOC 2]", "SOURCE: rbc.ru", "DATE: 2024-01-16", "ЦБ повысил"} {
		if !strings.Contains(msg.Content, want) {
			t.Errorf("context missing %q", want)
		}
	}
}

func TestContextMessageTruncatesByRunes(t *testing.T) {
	long := strings.Repeat("я", 50)
	msg := ContextMessage([]domain.SearchResult{{Document: long}}, 10)

	if strings.Contains(msg.Content, strings.Repeat("я", 11)) {
		t.Errorf("document text not truncated")
	}
	if !strings.Contains(msg.Content, strings.Repeat("я", 10)) {
		t.Errorf("truncation cut too much")
	}
	if !utf8.ValidString(msg.Content) {
		t.Errorf("truncation produced invalid UTF-8")
	}
}
