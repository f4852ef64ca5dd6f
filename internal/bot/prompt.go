package bot

import (
	"fmt"

	"github.com/candyxpe/supportbot/internal/domain"
)

var promptTemplates = map[domain.Language]string{
	domain.LangRU: "Ты - ИИ-ассистент техподдержки CandyxPE. Отвечай только на русском, строго по темам CandyxPE. " +
		"Правила:\n%s\n" +
		"Будь вежлив, лаконичен, профессионален. Без кода, только текст. " +
		"Если запрос неясен, ответь: 'Уточните детали или обратитесь к агенту.'",
	domain.LangEN: "You are the CandyxPE support AI assistant. Answer only in English and only about CandyxPE. " +
		"Rules:\n%s\n" +
		"Be polite, brief and professional. No code, text only. " +
		"If the request is unclear, answer: 'Please clarify or contact an agent.'",
}

// SystemPrompt embeds the rules document into the assistant instructions for lang.
func SystemPrompt(rules string, lang domain.Language) string {
	tmpl, ok := promptTemplates[lang]
	if !ok {
		tmpl = promptTemplates[domain.LangRU]
	}
	return fmt.Sprintf(tmpl, rules)
}
