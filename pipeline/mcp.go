package pipeline

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// NewMCPServer exposes the pipeline over the Model Context Protocol so
// agent hosts can submit documents and inspect audit trails as tools.
func NewMCPServer(p *Pipeline, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{
		Name:    p.cfg.Name,
		Version: version,
		Title:   "document ingestion pipeline",
	}, nil)

	addProcessTool(server, p)
	addHistoryTool(server, p)

	return server
}

func addProcessTool(server *mcp.Server, p *Pipeline) {
	type args struct {
		Path string `json:"path,omitempty" jsonschema:"Path to a document file (.json, .pdf, .eml, .txt, .html)"`
		Text string `json:"text,omitempty" jsonschema:"Raw document text, used when no path is given"`
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "process_document",
		Description: "Classify a document, route it to an extractor, and return the extraction summary",
	}, func(ctx context.Context, req *mcp.CallToolRequest, a args) (*mcp.CallToolResult, any, error) {
		var doc *Document
		switch {
		case a.Path != "":
			doc = FromFile(a.Path)
		case a.Text != "":
			doc = FromString(a.Text)
		default:
			return nil, nil, fmt.Errorf("either path or text is required")
		}

		summary, err := p.Process(ctx, doc)
		if err != nil {
			return nil, nil, err
		}

		data, err := json.MarshalIndent(summary, "", "  ")
		if err != nil {
			return nil, nil, fmt.Errorf("encode summary: %w", err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(data)},
			},
		}, nil, nil
	})
}

func addHistoryTool(server *mcp.Server, p *Pipeline) {
	type args struct {
		ConversationID string `json:"conversation_id" jsonschema:"Conversation whose audit trail to return"`
	}

	mcp.AddTool(server, &mcp.Tool{
		Name:        "conversation_history",
		Description: "Return the ordered audit events recorded for one conversation",
	}, func(ctx context.Context, req *mcp.CallToolRequest, a args) (*mcp.CallToolResult, any, error) {
		if a.ConversationID == "" {
			return nil, nil, fmt.Errorf("conversation_id is required")
		}

		events := p.log.History(a.ConversationID)
		if len(events) == 0 {
			return nil, nil, fmt.Errorf("no events recorded for conversation %q", a.ConversationID)
		}

		data, err := json.MarshalIndent(events, "", "  ")
		if err != nil {
			return nil, nil, fmt.Errorf("encode history: %w", err)
		}
		return &mcp.CallToolResult{
			Content: []mcp.Content{
				&mcp.TextContent{Text: string(data)},
			},
		}, nil, nil
	})
}
