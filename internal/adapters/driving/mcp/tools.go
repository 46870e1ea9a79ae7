package mcp

import (
	"context"
	"errors"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query      string         `json:"query" jsonschema:"the question to answer from the indexed documents"`
	TopK       int            `json:"top_k,omitempty" jsonschema:"number of passages to retrieve, 1 to 10 (default 5)"`
	Filter     map[string]any `json:"filter,omitempty" jsonschema:"payload fields that hits must equal, e.g. {\"file_type\": \"pdf\"}"`
	Collection string         `json:"collection,omitempty" jsonschema:"collection to query instead of the default"`
	Mode       string         `json:"mode,omitempty" jsonschema:"answer mode: extractive or generative"`
}

// AskOutput is the output schema for the ask tool.
type AskOutput struct {
	Answer  string          `json:"answer"`
	Sources []domain.Source `json:"sources"`
}

// SearchInput is the input schema for the search tool.
type SearchInput struct {
	Query      string         `json:"query" jsonschema:"the search query"`
	TopK       int            `json:"top_k,omitempty" jsonschema:"maximum number of hits, 1 to 10 (default 5)"`
	Filter     map[string]any `json:"filter,omitempty" jsonschema:"payload fields that hits must equal"`
	Collection string         `json:"collection,omitempty" jsonschema:"collection to query instead of the default"`
}

// SearchOutput is the output schema for the search tool.
type SearchOutput struct {
	Hits  []HitOutput `json:"hits"`
	Count int         `json:"count"`
}

// HitOutput is one ranked passage.
type HitOutput struct {
	ID       string         `json:"id"`
	Rank     int            `json:"rank"`
	Score    float64        `json:"score"`
	Text     string         `json:"text"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

// ImportInput is the input schema for the import_records tool.
type ImportInput struct {
	Collection string             `json:"collection,omitempty" jsonschema:"target collection (default collection when empty)"`
	Records    []domain.CMSRecord `json:"records" jsonschema:"records with a body and optional id, title, url and file_type"`
}

// ImportOutput is the output schema for the import_records tool.
type ImportOutput struct {
	Indexed int `json:"indexed"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "ask",
		Description: "Answer a question from the indexed documents and cite the sources",
	}, s.handleAsk)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search",
		Description: "Return the passages most similar to a query, best first",
	}, s.handleSearch)

	if s.ports.Ingest != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "import_records",
			Description: "Index structured records so they can be asked about",
		}, s.handleImport)
	}
}

func topKOrDefault(k int) int {
	if k == 0 {
		return domain.DefaultTopK
	}
	return k
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AskOutput, error) {
	answer, err := s.ports.Chat.AskWithMode(ctx, domain.Query{
		Text:       input.Query,
		TopK:       topKOrDefault(input.TopK),
		Filter:     input.Filter,
		Collection: input.Collection,
	}, input.Mode)
	if err != nil {
		return nil, AskOutput{}, err
	}

	sources := answer.Sources
	if sources == nil {
		sources = []domain.Source{}
	}
	return nil, AskOutput{Answer: answer.Text, Sources: sources}, nil
}

// handleSearch handles the search tool invocation.
func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	hits, err := s.ports.Chat.Search(ctx, domain.Query{
		Text:       input.Query,
		TopK:       topKOrDefault(input.TopK),
		Filter:     input.Filter,
		Collection: input.Collection,
	})
	if err != nil {
		return nil, SearchOutput{}, err
	}

	output := SearchOutput{
		Hits:  make([]HitOutput, len(hits)),
		Count: len(hits),
	}
	for i, h := range hits {
		output.Hits[i] = HitOutput{
			ID:       h.ID,
			Rank:     h.Rank,
			Score:    h.Score,
			Text:     h.Text,
			Metadata: h.Metadata,
		}
	}
	return nil, output, nil
}

// handleImport handles the import_records tool invocation.
func (s *Server) handleImport(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ImportInput,
) (*mcp.CallToolResult, ImportOutput, error) {
	if len(input.Records) == 0 {
		return nil, ImportOutput{}, errors.New("no records to import")
	}

	n, err := s.ports.Ingest.ImportCMS(ctx, domain.CMSImport{
		Collection: input.Collection,
		Records:    input.Records,
	})
	if err != nil {
		return nil, ImportOutput{}, err
	}
	return nil, ImportOutput{Indexed: n}, nil
}
