// SPDX-License-Identifier: Apache-2.0

// Package tool exposes document keying, citation resolution, reference
// extraction and lineage building as MCP tools.
package tool

import (
	"log/slog"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/mediastandards/lineage/internal/alias"
	"github.com/mediastandards/lineage/internal/citation"
	"github.com/mediastandards/lineage/internal/keying"
	"github.com/mediastandards/lineage/internal/lineage"
)

// Toolset holds the configuration shared by the tool handlers. Handlers
// only read it, so one Toolset serves concurrent calls.
type Toolset struct {
	norm            *alias.Normalizer
	keyer           *keying.Keyer
	resolver        *citation.Resolver
	logger          *slog.Logger
	maxFlagExamples int
}

// Option configures a Toolset.
type Option func(*Toolset)

// WithLogger sets the logger handed to lineage builds.
func WithLogger(l *slog.Logger) Option {
	return func(t *Toolset) {
		if l != nil {
			t.logger = l
		}
	}
}

// WithMaxFlagExamples bounds the flag examples kept per flag type.
func WithMaxFlagExamples(n int) Option {
	return func(t *Toolset) {
		if n > 0 {
			t.maxFlagExamples = n
		}
	}
}

// NewToolset creates a Toolset normalizing with norm and resolving
// citations with resolver.
func NewToolset(norm *alias.Normalizer, resolver *citation.Resolver, opts ...Option) *Toolset {
	t := &Toolset{
		norm:            norm,
		keyer:           keying.NewKeyer(norm),
		resolver:        resolver,
		logger:          slog.Default().With(slog.String("component", "tool")),
		maxFlagExamples: lineage.DefaultMaxFlagExamples,
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Register adds every tool to server.
func (t *Toolset) Register(server *mcp.Server) {
	mcp.AddTool(server, MetadataKeyDocumentID, t.KeyDocumentID)
	mcp.AddTool(server, MetadataResolveCitation, t.ResolveCitation)
	mcp.AddTool(server, MetadataExtractReferences, t.ExtractReferences)
	mcp.AddTool(server, MetadataBuildLineages, t.BuildLineages)
}

// NewServer creates an MCP server with every tool registered.
func NewServer(t *Toolset, version string) *mcp.Server {
	server := mcp.NewServer(&mcp.Implementation{Name: "lineage", Version: version}, nil)
	t.Register(server)
	return server
}
