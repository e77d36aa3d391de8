package cli

import (
	"context"
	"errors"
	"strings"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// mockIngestService is a mock implementation of driving.IngestService.
type mockIngestService struct {
	report   *domain.IngestReport
	err      error
	outcomes map[string]domain.IngestOutcome
	chunks   []domain.Chunk
	opts     driving.IngestOptions
	indexed  int
}

func (m *mockIngestService) IngestAll(_ context.Context, opts driving.IngestOptions) (*domain.IngestReport, error) {
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	if opts.OnProgress != nil {
		for i, o := range m.report.Outcomes {
			opts.OnProgress(i+1, len(m.report.Outcomes), o)
		}
	}
	return m.report, nil
}

func (m *mockIngestService) Accepts(name string) bool {
	return strings.HasSuffix(name, ".pdf")
}

func (m *mockIngestService) IngestDocument(_ context.Context, name string) domain.IngestOutcome {
	if o, ok := m.outcomes[name]; ok {
		return o
	}
	return domain.IngestOutcome{Document: name, Err: domain.ErrNotFound}
}

func (m *mockIngestService) Upload(_ context.Context, _ string) ([]domain.Chunk, error) {
	return m.chunks, m.err
}

func (m *mockIngestService) IndexChunks(_ context.Context, chunks []domain.Chunk) (int, error) {
	if m.err != nil {
		return 0, m.err
	}
	m.indexed += len(chunks)
	return len(chunks), nil
}

// mockQueryService is a mock implementation of driving.QueryService.
type mockQueryService struct {
	answer *domain.StructuredAnswer
	err    error
	opts   driving.AskOptions
}

func (m *mockQueryService) Ask(_ context.Context, _ string, opts driving.AskOptions) (*domain.StructuredAnswer, error) {
	m.opts = opts
	return m.answer, m.err
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

// mockSettingsService is a mock implementation of driving.SettingsService.
type mockSettingsService struct {
	settings    domain.AppSettings
	validateErr error
	setErr      error
	set         map[string]string
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(settings *domain.AppSettings) error {
	m.settings = *settings
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.setErr != nil {
		return m.setErr
	}
	if m.set == nil {
		m.set = map[string]string{}
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) SetEmbeddingProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.Embedding = domain.EmbeddingSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) SetLLMProvider(provider domain.AIProvider, model, apiKey string) error {
	m.settings.LLM = domain.LLMSettings{Provider: provider, Model: model, APIKey: apiKey}
	return nil
}

func (m *mockSettingsService) Validate() error {
	return m.validateErr
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

func (m *mockSettingsService) ValidateEmbeddingConfig() error {
	return m.validateErr
}

func (m *mockSettingsService) ValidateLLMConfig() error {
	return m.validateErr
}

// mockWatcher emits a fixed list of names and returns.
type mockWatcher struct {
	names []string
}

func (m *mockWatcher) Watch(_ context.Context, fn func(name string)) error {
	for _, n := range m.names {
		fn(n)
	}
	return nil
}

// testReport is the ingestion report returned by the default mock.
func testReport() *domain.IngestReport {
	return &domain.IngestReport{
		RunID: "run-1",
		Outcomes: []domain.IngestOutcome{
			{Document: "a.pdf", Chunks: 3},
			{Document: "b.pdf", Chunks: 2},
		},
		Skipped: []string{"notes.txt"},
	}
}

// setupTestServices installs mock services and returns a function restoring
// the previous ones.
func setupTestServices() func() {
	oldIngest, oldQuery, oldChatLog := ingestService, queryService, chatLogService
	oldSettings, oldWatcher, oldLoader := settingsService, objectWatcher, loader

	answer := domain.StructuredAnswer{
		Answer: "The warranty covers two years of repairs.",
		RelevantDocuments: []domain.RelevantDocument{
			{Filename: "warranty.pdf", MatchedChunks: []string{"Repairs are covered for two years."}},
		},
	}

	ingestService = &mockIngestService{report: testReport()}
	queryService = &mockQueryService{answer: &answer}
	chatLogService = &mockChatLogService{}
	settingsService = &mockSettingsService{settings: domain.DefaultAppSettings()}
	objectWatcher = nil
	loader = Loader{}

	return func() {
		ingestService, queryService, chatLogService = oldIngest, oldQuery, oldChatLog
		settingsService, objectWatcher, loader = oldSettings, oldWatcher, oldLoader
	}
}

var errMock = errors.New("mock failure")
