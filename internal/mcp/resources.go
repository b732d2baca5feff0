package mcpserver

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

const (
	catalogURI      = "pagebuilder://catalog"
	sourceURIPrefix = "pagebuilder://source/"
	sectionsSuffix  = "/sections"
)

func (s *Server) registerResources() {
	// ── pagebuilder://catalog ──────────────────────────
	s.mcp.AddResource(mcp.NewResource(
		catalogURI,
		"Section Types",
		mcp.WithMIMEType("application/json"),
	), s.handleCatalogResource)

	// ── pagebuilder://source/{source}/sections ─────────
	s.mcp.AddResourceTemplate(
		mcp.NewResourceTemplate(
			sourceURIPrefix+"{source}"+sectionsSuffix,
			"Sections of a Source",
		),
		s.handleSourceSectionsResource,
	)
}

func (s *Server) handleCatalogResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	catalog := s.editor.Catalog()
	var summaries []sectionTypeSummary
	for _, t := range catalog.Types() {
		if def, ok := catalog.Section(t); ok {
			summaries = append(summaries, summarizeDefinition(def))
		}
	}
	return jsonResource(catalogURI, summaries)
}

func (s *Server) handleSourceSectionsResource(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := req.Params.URI
	source := sourceFromURI(uri)
	if source == "" {
		return nil, fmt.Errorf("could not extract source from URI: %s", uri)
	}

	refs, contents, err := s.editor.Sections(source)
	if err != nil {
		return nil, err
	}
	return jsonResource(uri, summarizeSections(refs, contents))
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshal resource: %w", err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// sourceFromURI extracts the source from "pagebuilder://source/{source}/sections".
func sourceFromURI(uri string) string {
	middle, ok := strings.CutPrefix(uri, sourceURIPrefix)
	if !ok {
		return ""
	}
	middle, ok = strings.CutSuffix(middle, sectionsSuffix)
	if !ok || strings.Contains(middle, "/") {
		return ""
	}
	return middle
}
