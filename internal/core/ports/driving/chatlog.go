package driving

import (
	"context"

	"github.com/custodia-labs/docqa/internal/core/domain"
)

// ChatLogService persists the audit trail of answered questions.
type ChatLogService interface {
	// Record stores rec and returns the object name it was written under.
	Record(ctx context.Context, rec domain.ChatRecord) (string, error)

	// List returns the names of stored chat logs.
	List(ctx context.Context) ([]string, error)
}
