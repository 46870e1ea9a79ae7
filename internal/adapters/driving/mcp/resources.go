package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/ragline/internal/core/domain"
)

// collectionInfoURI names the resource describing the default collection.
const collectionInfoURI = "collection://info"

// collectionInfo is the JSON body of collection://info.
type collectionInfo struct {
	Name           string `json:"name"`
	Dimension      int    `json:"dimension"`
	Metric         string `json:"metric"`
	Count          int    `json:"count"`
	EmbeddingModel string `json:"embedding_model,omitempty"`
}

// registerResources registers all resource handlers with the MCP server.
func (s *Server) registerResources() {
	if s.ports.Collection == nil {
		return
	}
	s.server.AddResource(&mcp.Resource{
		URI:         collectionInfoURI,
		Name:        "collection-info",
		Description: "Name, dimension and passage count of the default collection",
		MIMEType:    "application/json",
	}, s.handleCollectionInfo)
}

// handleCollectionInfo reports the default collection. A collection that
// does not exist yet is reported with a zero count.
func (s *Server) handleCollectionInfo(
	ctx context.Context,
	req *mcp.ReadResourceRequest,
) (*mcp.ReadResourceResult, error) {
	health, err := s.ports.Collection.Health(ctx)
	if err != nil {
		return nil, fmt.Errorf("checking collection: %w", err)
	}

	info := collectionInfo{Name: health.Collection, EmbeddingModel: health.EmbeddingModel}
	stats, err := s.ports.Collection.Stats(ctx)
	switch {
	case errors.Is(err, domain.ErrCollectionNotFound):
	case err != nil:
		return nil, fmt.Errorf("reading collection stats: %w", err)
	default:
		info.Name = stats.Name
		info.Dimension = stats.Dimension
		info.Metric = stats.Metric
		info.Count = stats.Count
	}

	data, err := json.MarshalIndent(info, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshalling collection info: %w", err)
	}

	return &mcp.ReadResourceResult{
		Contents: []*mcp.ResourceContents{{
			URI:      req.Params.URI,
			MIMEType: "application/json",
			Text:     string(data),
		}},
	}, nil
}
