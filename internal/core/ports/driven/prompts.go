package driven

// PromptStore provides access to LLM prompt templates.
// Implementations may load prompts from files or embed them in the binary.
type PromptStore interface {
	// Load returns the prompt template for the given name.
	// If the prompt is not found, implementations should return a sensible default
	// or an error, depending on whether the prompt is required.
	Load(name string) (string, error)

	// Reload clears any cached prompts, forcing fresh loads on next access.
	Reload()
}

// Well-known prompt names.
const (
	// PromptAnswer is the grounding prompt for question answering.
	// The template holds the ContextPlaceholder and QuestionPlaceholder markers.
	PromptAnswer = "answer"
)

// Placeholders substituted into the answer template.
const (
	ContextPlaceholder  = "{{context}}"
	QuestionPlaceholder = "{{question}}"
)

// DefaultAnswerPrompt is the built-in template for PromptAnswer.
//
//nolint:lll // prompt text
const DefaultAnswerPrompt = `You are a highly accurate AI assistant that answers questions ONLY using the provided context.

If the context does not contain the information, say exactly:
"No relevant information found in the provided context."

You must respond in valid JSON only, with this structure:
{
  "answer": "string",
  "relevant_documents": [
    {
      "filename": "string",
      "matched_chunks": ["string", ...]
    }
  ]
}

Use only the facts from the context. Do not make assumptions or add outside knowledge.

Context:
{{context}}

Question:
{{question}}`
