package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const (
	// uriScheme is the custom URI scheme for docqa resources.
	uriScheme = "docqa://"
)

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	s.server.AddResource(&mcp.Resource{
		URI:         uriScheme + "chatlogs",
		Name:        "chatlogs",
		Description: "Names of recorded question and answer exchanges",
		MIMEType:    "application/json",
	}, s.handleChatLogsResource)
}

// handleChatLogsResource returns the stored chat log names.
func (s *Server) handleChatLogsResource(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	names := []string{}
	if s.ports.ChatLog != nil {
		listed, err := s.ports.ChatLog.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing chat logs: %w", err)
		}
		names = append(names, listed...)
	}

	data, err := json.MarshalIndent(names, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling chat logs: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
