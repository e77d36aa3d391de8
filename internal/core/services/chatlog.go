package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure ChatLogService implements the interface.
var _ driving.ChatLogService = (*ChatLogService)(nil)

// ChatLogService writes chat records into object storage.
type ChatLogService struct {
	store driven.ObjectStore
	now   func() time.Time
}

// NewChatLogService creates a chat log service backed by store.
func NewChatLogService(store driven.ObjectStore) *ChatLogService {
	return &ChatLogService{store: store, now: time.Now}
}

// Record stores rec as indented JSON under domain.ChatLogKey.
// A missing timestamp is filled from the clock; a malformed one is rejected.
func (s *ChatLogService) Record(ctx context.Context, rec domain.ChatRecord) (string, error) {
	if rec.Username == "" || strings.ContainsAny(rec.Username, `/\`) {
		return "", fmt.Errorf("%w: invalid username %q", domain.ErrInvalidInput, rec.Username)
	}

	at := s.now()
	if rec.Timestamp != "" {
		parsed, err := domain.ParseChatTimestamp(rec.Timestamp)
		if err != nil {
			return "", fmt.Errorf("%w: timestamp %q: %w", domain.ErrInvalidInput, rec.Timestamp, err)
		}
		at = parsed
	}
	rec.Timestamp = domain.FormatChatTimestamp(at)

	data, err := json.MarshalIndent(rec, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encode chat record: %w", err)
	}

	key := domain.ChatLogKey(rec.Username, at)
	if err := s.store.Store(ctx, key, bytes.NewReader(data)); err != nil {
		return "", fmt.Errorf("store chat log %s: %w", key, err)
	}

	logger.Debug("chat log written to %s", key)
	return key, nil
}

// List returns the stored chat log names.
func (s *ChatLogService) List(ctx context.Context) ([]string, error) {
	names, err := s.store.List(ctx, domain.ChatLogPrefix)
	if err != nil {
		return nil, fmt.Errorf("list chat logs: %w", err)
	}
	return names, nil
}
