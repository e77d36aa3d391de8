package services

import (
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/logger"
)

// BuildContext renders retrieved matches as context blocks in retrieval order.
func BuildContext(matches []domain.QueryMatch) string {
	var b strings.Builder
	for _, m := range matches {
		fmt.Fprintf(&b, "[Document: %s]\n%s\n\n", m.Metadata.Source, m.Metadata.Text)
	}
	return b.String()
}

// BuildPrompt inserts the context and question into the answer template.
// Other text in the template, including '%', is kept as written.
func BuildPrompt(template, context, question string) string {
	return strings.NewReplacer(
		driven.ContextPlaceholder, context,
		driven.QuestionPlaceholder, question,
	).Replace(template)
}

// loadAnswerTemplate returns the answer template from the store, or the
// built-in default when no store is configured or loading fails.
func loadAnswerTemplate(prompts driven.PromptStore) string {
	if prompts == nil {
		return driven.DefaultAnswerPrompt
	}
	tmpl, err := prompts.Load(driven.PromptAnswer)
	if err != nil {
		logger.Warn("answer prompt unusable, using built-in default: %v", err)
		return driven.DefaultAnswerPrompt
	}
	if !strings.Contains(tmpl, driven.ContextPlaceholder) || !strings.Contains(tmpl, driven.QuestionPlaceholder) {
		logger.Warn("answer prompt lacks %s or %s, using built-in default",
			driven.ContextPlaceholder, driven.QuestionPlaceholder)
		return driven.DefaultAnswerPrompt
	}
	return tmpl
}
