package mcp

import (
	"context"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer   *domain.StructuredAnswer
	err      error
	question string
	opts     driving.AskOptions
}

func (m *mockQueryService) Ask(
	_ context.Context,
	question string,
	opts driving.AskOptions,
) (*domain.StructuredAnswer, error) {
	m.question = question
	m.opts = opts
	return m.answer, m.err
}

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report *domain.IngestReport
	err    error
	opts   driving.IngestOptions
}

func (m *mockIngestService) IngestAll(_ context.Context, opts driving.IngestOptions) (*domain.IngestReport, error) {
	m.opts = opts
	return m.report, m.err
}

func (m *mockIngestService) Accepts(name string) bool {
	return strings.HasSuffix(name, ".pdf")
}

func (m *mockIngestService) IngestDocument(_ context.Context, name string) domain.IngestOutcome {
	return domain.IngestOutcome{Document: name, Err: m.err}
}

func (m *mockIngestService) Upload(_ context.Context, _ string) ([]domain.Chunk, error) {
	return nil, m.err
}

func (m *mockIngestService) IndexChunks(_ context.Context, chunks []domain.Chunk) (int, error) {
	return len(chunks), m.err
}

// mockChatLogService is a mock implementation of driving.ChatLogService.
type mockChatLogService struct {
	names    []string
	err      error
	recorded []domain.ChatRecord
}

func (m *mockChatLogService) Record(_ context.Context, rec domain.ChatRecord) (string, error) {
	if m.err != nil {
		return "", m.err
	}
	at, err := domain.ParseChatTimestamp(rec.Timestamp)
	if err != nil {
		return "", err
	}
	m.recorded = append(m.recorded, rec)
	return domain.ChatLogKey(rec.Username, at), nil
}

func (m *mockChatLogService) List(_ context.Context) ([]string, error) {
	return m.names, m.err
}
