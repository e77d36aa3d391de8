package services

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driven"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
	"github.com/custodia-labs/docqa/internal/logger"
)

// Ensure QueryService implements the interface.
var _ driving.QueryService = (*QueryService)(nil)

// QueryState is a step of a single Ask call.
type QueryState int

// Query states in the order an Ask call moves through them.
const (
	StateEmbeddingQuery QueryState = iota
	StateRetrieving
	StateNoMatches
	StateBuildingPrompt
	StateGenerating
	StateParsing
	StateDone
)

var queryStateNames = map[QueryState]string{
	StateEmbeddingQuery: "EMBEDDING_QUERY",
	StateRetrieving:     "RETRIEVING",
	StateNoMatches:      "NO_MATCHES",
	StateBuildingPrompt: "BUILDING_PROMPT",
	StateGenerating:     "GENERATING",
	StateParsing:        "PARSING",
	StateDone:           "DONE",
}

func (s QueryState) String() string {
	if name, ok := queryStateNames[s]; ok {
		return name
	}
	return fmt.Sprintf("QueryState(%d)", int(s))
}

// QueryService answers questions from the indexed corpus.
type QueryService struct {
	embedder driven.EmbeddingService
	index    driven.VectorIndex
	llm      driven.LLMService
	prompts  driven.PromptStore
	settings domain.QuerySettings
	onState  func(QueryState)
}

// QueryOption configures a QueryService.
type QueryOption func(*QueryService)

// WithStateObserver registers fn to be called on every state transition.
func WithStateObserver(fn func(QueryState)) QueryOption {
	return func(s *QueryService) {
		s.onState = fn
	}
}

// NewQueryService creates a query service. prompts may be nil, in which
// case the built-in answer template is used.
func NewQueryService(
	embedder driven.EmbeddingService,
	index driven.VectorIndex,
	llm driven.LLMService,
	prompts driven.PromptStore,
	settings domain.QuerySettings,
	opts ...QueryOption,
) *QueryService {
	if settings.TopK <= 0 {
		settings.TopK = domain.DefaultTopK
	}
	if settings.GenerationTimeout <= 0 {
		settings.GenerationTimeout = domain.DefaultGenerationTimeout
	}
	s := &QueryService{
		embedder: embedder,
		index:    index,
		llm:      llm,
		prompts:  prompts,
		settings: settings,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Ask embeds the question, retrieves context and asks the model for a
// structured answer.
func (s *QueryService) Ask(ctx context.Context, question string, opts driving.AskOptions) (*domain.StructuredAnswer, error) {
	question = strings.TrimSpace(question)
	if question == "" {
		return nil, fmt.Errorf("%w: question is empty", domain.ErrInvalidInput)
	}
	if s.embedder == nil || s.index == nil || s.llm == nil {
		return nil, fmt.Errorf("%w: query pipeline", domain.ErrNotConfigured)
	}

	topK := opts.TopK
	if topK <= 0 {
		topK = s.settings.TopK
	}

	logger.Info("query received: %s", question)

	s.enter(StateEmbeddingQuery)
	vector, err := s.embedQuestion(ctx, question)
	if err != nil {
		return nil, err
	}

	s.enter(StateRetrieving)
	matches := queryIndex(ctx, s.index, vector, topK)
	if len(matches) == 0 {
		s.enter(StateNoMatches)
		answer := domain.NoMatchesAnswer()
		s.enter(StateDone)
		return &answer, nil
	}

	s.enter(StateBuildingPrompt)
	prompt := BuildPrompt(loadAnswerTemplate(s.prompts), BuildContext(matches), question)

	s.enter(StateGenerating)
	raw, err := s.generate(ctx, prompt)
	if err != nil {
		return nil, err
	}
	logger.Info("raw model response received")

	s.enter(StateParsing)
	answer := s.parse(raw)

	s.enter(StateDone)
	return &answer, nil
}

func (s *QueryService) embedQuestion(ctx context.Context, question string) ([]float32, error) {
	vectors, err := s.embedder.Embed(ctx, question)
	if err != nil {
		return nil, fmt.Errorf("%w: embed question: %w", domain.ErrEmbedding, err)
	}
	if len(vectors) != 1 || len(vectors[0]) == 0 {
		return nil, fmt.Errorf("%w: expected one vector for the question, got %d",
			domain.ErrEmbedding, len(vectors))
	}
	return vectors[0], nil
}

func (s *QueryService) generate(ctx context.Context, prompt string) (string, error) {
	genCtx, cancel := context.WithTimeout(ctx, s.settings.GenerationTimeout)
	defer cancel()

	start := time.Now()
	raw, err := s.llm.Generate(genCtx, prompt, driven.GenerateOptions{
		MaxTokens:   s.settings.MaxTokens,
		Temperature: s.settings.Temperature,
	})
	if err != nil {
		return "", fmt.Errorf("%w: %w", domain.ErrGeneration, err)
	}
	logger.Debug("generation took %s", time.Since(start).Round(time.Millisecond))
	return raw, nil
}

func (s *QueryService) parse(raw string) domain.StructuredAnswer {
	cleaned := CleanModelOutput(raw)
	answer, err := ParseAnswer(cleaned)
	if err != nil {
		if errors.Is(err, domain.ErrStructuredOutputParse) {
			logger.Warn("model output is not valid JSON, returning raw text: %v", err)
		}
		return domain.TextAnswer(cleaned)
	}
	logger.Info("parsed model response as JSON")
	return answer
}

func (s *QueryService) enter(state QueryState) {
	logger.Debug("query state: %s", state)
	if s.onState != nil {
		s.onState(state)
	}
}
