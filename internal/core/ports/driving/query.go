package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// QueryService answers natural-language questions from indexed documents.
type QueryService interface {
	// Ask answers question using the top matching chunks.
	// It always returns a well-shaped answer unless embedding or generation fails.
	Ask(ctx context.Context, question string, opts AskOptions) (*domain.StructuredAnswer, error)
}

// AskOptions overrides per-question behaviour.
type AskOptions struct {
	// TopK overrides the configured number of retrieved chunks when positive.
	TopK int
}
