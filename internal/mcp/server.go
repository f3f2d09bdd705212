// Package mcp provides an MCP (Model Context Protocol) server exposing
// neuron checkpoint data and the common-term heuristic to agents.
package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	sdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/anon96881/PythiaEvolution/internal/config"
	"github.com/anon96881/PythiaEvolution/internal/logging"
	"github.com/anon96881/PythiaEvolution/internal/ratelimit"
	"github.com/anon96881/PythiaEvolution/internal/store"
)

// Server wraps the MCP SDK server and the dataset cache it serves from.
type Server struct {
	server  *sdk.Server
	cache   *store.Cache
	app     *config.Config
	limiter *ratelimit.Limiter
	logger  *slog.Logger
}

// Config holds server configuration.
type Config struct {
	Name    string // Server name (e.g., "pythiaevo")
	Version string // Server version
	App     *config.Config

	// Source overrides the source opened from App.Data.
	Source store.Source

	// RateLimits overrides ratelimit.DefaultRules, keyed by tool name.
	RateLimits map[string]ratelimit.Rule

	Logger *slog.Logger
}

// NewServer creates a new MCP server with the neuron tools registered.
func NewServer(cfg *Config) (*Server, error) {
	app := cfg.App
	if app == nil {
		app = config.Default()
	}
	if len(app.Models) == 0 {
		return nil, fmt.Errorf("no model variants configured")
	}

	src := cfg.Source
	if src == nil {
		var err error
		src, err = store.Open(app.Data, cfg.Logger)
		if err != nil {
			return nil, fmt.Errorf("failed to open data source: %w", err)
		}
	}

	mcpServer := sdk.NewServer(&sdk.Implementation{
		Name:    cfg.Name,
		Version: cfg.Version,
	}, &sdk.ServerOptions{})

	rules := cfg.RateLimits
	if rules == nil {
		rules = ratelimit.DefaultRules()
	}

	s := &Server{
		server:  mcpServer,
		cache:   store.NewCache(src),
		app:     app,
		limiter: ratelimit.New(rules),
		logger:  logging.Component(cfg.Logger, "mcp"),
	}

	s.registerTools()
	s.registerResources()

	return s, nil
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	err := s.server.Run(ctx, &sdk.StdioTransport{})
	s.cache.Close()
	return err
}

// Close releases the data source.
func (s *Server) Close() error {
	return s.cache.Close()
}

// auditTool logs one tool invocation.
func (s *Server) auditTool(tool string, start time.Time, err error, params ...any) {
	attrs := append([]any{"tool", tool, "duration", time.Since(start)}, params...)
	if err != nil {
		s.logger.Warn("tool call failed", append(attrs, "error", err)...)
		return
	}
	s.logger.Debug("tool call", attrs...)
}
