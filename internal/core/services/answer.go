package services

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// codeFences are the markdown wrappers models put around JSON output.
var codeFences = []string{"```json", "```"}

// CleanModelOutput removes code fence markers and surrounding whitespace.
func CleanModelOutput(raw string) string {
	cleaned := raw
	for _, fence := range codeFences {
		cleaned = strings.ReplaceAll(cleaned, fence, "")
	}
	return strings.TrimSpace(cleaned)
}

// ParseAnswer decodes cleaned model output into a StructuredAnswer.
// Inner fields are not validated.
func ParseAnswer(cleaned string) (domain.StructuredAnswer, error) {
	var answer domain.StructuredAnswer
	if err := json.Unmarshal([]byte(cleaned), &answer); err != nil {
		return domain.StructuredAnswer{}, fmt.Errorf("%w: %w", domain.ErrStructuredOutputParse, err)
	}
	if answer.RelevantDocuments == nil {
		answer.RelevantDocuments = []domain.RelevantDocument{}
	}
	return answer, nil
}
