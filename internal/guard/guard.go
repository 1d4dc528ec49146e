// Package guard rejects user turns that probe internal details or attempt
// prompt injection. Matching is case-insensitive substring search; the
// blocklists are deliberately literal so behavior stays predictable.
package guard

import "strings"

// forbiddenMarkers block questions about system internals.
var forbiddenMarkers = []string{
	"system prompt",
	"системный промпт",
	"покажи свой промпт",
	"какие функции доступны",
	"раскрой внутреннее устройство",
	"tool calls",
	"инструменты ллм",
	"source code",
	"исходный код",
	"переменные окружения",
}

// injectionPatterns block instruction-override attempts.
var injectionPatterns = []string{
	"ignore previous",
	"disregard previous",
	"override instructions",
	"пропусти предыдущие",
	"игнорируй предыдущие",
}

const (
	forbiddenReason = "Запрос нарушает политику безопасности (уточнение внутренних деталей запрещено)."
	injectionReason = "Обнаружена попытка prompt-injection."
)

// Check returns true and a user-facing refusal when text hits a blocklist.
func Check(text string) (blocked bool, reason string) {
	low := strings.ToLower(text)

	for _, m := range forbiddenMarkers {
		if strings.Contains(low, m) {
			return true, forbiddenReason
		}
	}
	for _, m := range injectionPatterns {
		if strings.Contains(low, m) {
			return true, injectionReason
		}
	}
	return false, ""
}
