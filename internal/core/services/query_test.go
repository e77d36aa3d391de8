package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

func seededIndex(t *testing.T) *fakeIndex {
	t.Helper()
	index := newFakeIndex()
	chunks := []domain.Chunk{
		{Text: "apples are red", Source: "fruit.pdf", Ordinal: 0},
		{Text: "bananas are yellow", Source: "fruit.pdf", Ordinal: 1},
	}
	_, err := upsertChunks(context.Background(), index, chunks,
		[][]float32{letterVector(chunks[0].Text), letterVector(chunks[1].Text)})
	require.NoError(t, err)
	return index
}

func TestQueryService_Ask_ParsesStructuredAnswer(t *testing.T) {
	llm := &fakeLLM{response: "```json\n{\"answer\":\"Yellow\",\"relevant_documents\":[{\"filename\":\"fruit.pdf\",\"matched_chunks\":[\"bananas are yellow\"]}]}\n```"}
	svc := NewQueryService(&fakeEmbedder{}, seededIndex(t), llm, nil, domain.QuerySettings{})

	answer, err := svc.Ask(context.Background(), "what colour are bananas", driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, "Yellow", answer.Answer)
	require.Len(t, answer.RelevantDocuments, 1)
	assert.Equal(t, "fruit.pdf", answer.RelevantDocuments[0].Filename)
	assert.True(t, llm.deadline, "generation should run under a timeout")
}

func TestQueryService_Ask_PromptContainsContextBlocks(t *testing.T) {
	llm := &fakeLLM{response: `{"answer":"ok","relevant_documents":[]}`}
	prompts := &fakePrompts{template: "CTX<{{context}}>Q<{{question}}>"}
	svc := NewQueryService(&fakeEmbedder{}, seededIndex(t), llm, prompts, domain.QuerySettings{})

	_, err := svc.Ask(context.Background(), "bananas?", driving.AskOptions{TopK: 1})

	require.NoError(t, err)
	require.Len(t, llm.prompts, 1)
	assert.Equal(t, "CTX<[Document: fruit.pdf]\nbananas are yellow\n\n>Q<bananas?>", llm.prompts[0])
}

func TestQueryService_Ask_NoMatchesSkipsGeneration(t *testing.T) {
	llm := &fakeLLM{response: "should not be used"}
	var states []QueryState
	svc := NewQueryService(&fakeEmbedder{}, newFakeIndex(), llm, nil, domain.QuerySettings{},
		WithStateObserver(func(s QueryState) { states = append(states, s) }))

	answer, err := svc.Ask(context.Background(), "anything", driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.NoMatchesAnswer(), *answer)
	assert.Equal(t, 0, llm.Calls())
	assert.Equal(t, []QueryState{StateEmbeddingQuery, StateRetrieving, StateNoMatches, StateDone}, states)
}

func TestQueryService_Ask_IndexFailureIsNoMatches(t *testing.T) {
	index := seededIndex(t)
	index.queryErr = errors.New("connection refused")
	llm := &fakeLLM{}
	svc := NewQueryService(&fakeEmbedder{}, index, llm, nil, domain.QuerySettings{})

	answer, err := svc.Ask(context.Background(), "bananas", driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.NoMatchesText, answer.Answer)
	assert.Equal(t, 0, llm.Calls())
}

func TestQueryService_Ask_FallsBackToRawText(t *testing.T) {
	llm := &fakeLLM{response: "```\nBananas are yellow.\n```"}
	svc := NewQueryService(&fakeEmbedder{}, seededIndex(t), llm, nil, domain.QuerySettings{})

	answer, err := svc.Ask(context.Background(), "bananas", driving.AskOptions{})

	require.NoError(t, err)
	assert.Equal(t, domain.TextAnswer("Bananas are yellow."), *answer)
}

func TestQueryService_Ask_EmbeddingFailure(t *testing.T) {
	llm := &fakeLLM{}
	svc := NewQueryService(&fakeEmbedder{err: errors.New("quota")}, seededIndex(t), llm, nil, domain.QuerySettings{})

	_, err := svc.Ask(context.Background(), "bananas", driving.AskOptions{})

	assert.ErrorIs(t, err, domain.ErrEmbedding)
	assert.Equal(t, 0, llm.Calls())
}

func TestQueryService_Ask_MalformedEmbedding(t *testing.T) {
	svc := NewQueryService(&fakeEmbedder{short: true}, seededIndex(t), &fakeLLM{}, nil, domain.QuerySettings{})

	_, err := svc.Ask(context.Background(), "bananas", driving.AskOptions{})

	assert.ErrorIs(t, err, domain.ErrEmbedding)
}

func TestQueryService_Ask_GenerationFailure(t *testing.T) {
	var states []QueryState
	llm := &fakeLLM{err: context.DeadlineExceeded}
	svc := NewQueryService(&fakeEmbedder{}, seededIndex(t), llm, nil,
		domain.QuerySettings{GenerationTimeout: time.Second},
		WithStateObserver(func(s QueryState) { states = append(states, s) }))

	_, err := svc.Ask(context.Background(), "bananas", driving.AskOptions{})

	assert.ErrorIs(t, err, domain.ErrGeneration)
	assert.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Equal(t, StateGenerating, states[len(states)-1])
}

func TestQueryService_Ask_EmptyQuestion(t *testing.T) {
	svc := NewQueryService(&fakeEmbedder{}, seededIndex(t), &fakeLLM{}, nil, domain.QuerySettings{})

	_, err := svc.Ask(context.Background(), "   ", driving.AskOptions{})

	assert.ErrorIs(t, err, domain.ErrInvalidInput)
}

func TestQueryService_Ask_NotConfigured(t *testing.T) {
	svc := NewQueryService(nil, nil, nil, nil, domain.QuerySettings{})

	_, err := svc.Ask(context.Background(), "bananas", driving.AskOptions{})

	assert.ErrorIs(t, err, domain.ErrNotConfigured)
}

func TestQueryService_Ask_StateSequence(t *testing.T) {
	var states []QueryState
	llm := &fakeLLM{response: `{"answer":"x","relevant_documents":[]}`}
	svc := NewQueryService(&fakeEmbedder{}, seededIndex(t), llm, nil, domain.QuerySettings{},
		WithStateObserver(func(s QueryState) { states = append(states, s) }))

	_, err := svc.Ask(context.Background(), "bananas", driving.AskOptions{})
	require.NoError(t, err)

	names := make([]string, len(states))
	for i, s := range states {
		names[i] = s.String()
	}
	assert.Equal(t, "EMBEDDING_QUERY,RETRIEVING,BUILDING_PROMPT,GENERATING,PARSING,DONE", strings.Join(names, ","))
}

func TestNewQueryService_Defaults(t *testing.T) {
	svc := NewQueryService(nil, nil, nil, nil, domain.QuerySettings{})

	assert.Equal(t, domain.DefaultTopK, svc.settings.TopK)
	assert.Equal(t, domain.DefaultGenerationTimeout, svc.settings.GenerationTimeout)
}

func TestQueryState_String(t *testing.T) {
	assert.Equal(t, "NO_MATCHES", StateNoMatches.String())
	assert.Equal(t, "QueryState(42)", QueryState(42).String())
}
