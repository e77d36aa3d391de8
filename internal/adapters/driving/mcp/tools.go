package mcp

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/docqa/internal/core/domain"
	"github.com/custodia-labs/docqa/internal/core/ports/driving"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Question string `json:"question" jsonschema:"the question to answer from the indexed documents"`
	TopK     int    `json:"top_k,omitempty" jsonschema:"number of chunks to retrieve (default from settings)"`
	Username string `json:"username,omitempty" jsonschema:"when set, the exchange is written to the chat log under this name"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer            string                    `json:"answer"`
	RelevantDocuments []domain.RelevantDocument `json:"relevant_documents"`
	ChatLog           string                    `json:"chat_log,omitempty"`
}

// IngestInput is the input schema for the ingest tool.
type IngestInput struct {
	Prefix string `json:"prefix,omitempty" jsonschema:"only ingest documents whose name starts with this prefix"`
}

// IngestOutput is the output schema for the ingest tool.
type IngestOutput struct {
	RunID     string          `json:"run_id"`
	Succeeded int             `json:"succeeded"`
	Chunks    int             `json:"chunks"`
	IndexSize int             `json:"index_size" jsonschema:"entries in the vector index after the run, -1 if unknown"`
	Skipped   []string        `json:"skipped,omitempty"`
	Failures  []IngestFailure `json:"failures,omitempty"`
}

// IngestFailure describes one document that could not be ingested.
type IngestFailure struct {
	Document string `json:"document"`
	Error    string `json:"error"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question using the indexed documents as context",
	}, s.handleAsk)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ingest",
			Description: "Index every accepted document in object storage",
		}, s.handleIngest)
	}
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	if input.Question == "" {
		return nil, AskOutput{}, errors.New("question is required")
	}

	answer, err := s.ports.Query.Ask(ctx, input.Question, driving.AskOptions{TopK: input.TopK})
	if err != nil {
		return nil, AskOutput{}, err
	}

	output := AskOutput{
		Answer:            answer.Answer,
		RelevantDocuments: answer.RelevantDocuments,
	}
	if output.RelevantDocuments == nil {
		output.RelevantDocuments = []domain.RelevantDocument{}
	}

	if input.Username != "" && s.ports.ChatLog != nil {
		rec := domain.NewChatRecord(input.Username, input.Question, *answer, time.Now())
		key, err := s.ports.ChatLog.Record(ctx, rec)
		if err != nil {
			return nil, AskOutput{}, fmt.Errorf("recording chat log: %w", err)
		}
		output.ChatLog = key
	}

	return nil, output, nil
}

// handleIngest handles the ingest tool invocation.
func (s *Server) handleIngest(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input IngestInput,
) (*mcp.CallToolResult, IngestOutput, error) {
	report, err := s.ports.Ingest.IngestAll(ctx, driving.IngestOptions{Prefix: input.Prefix})
	if err != nil {
		return nil, IngestOutput{}, err
	}

	output := IngestOutput{
		RunID:     report.RunID,
		Succeeded: len(report.Succeeded()),
		Chunks:    report.TotalChunks(),
		IndexSize: report.IndexSize,
		Skipped:   report.Skipped,
	}
	for _, o := range report.Failed() {
		output.Failures = append(output.Failures, IngestFailure{
			Document: o.Document,
			Error:    o.Err.Error(),
		})
	}

	return nil, output, nil
}
