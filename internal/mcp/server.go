// Package mcp exposes the guard tool surface over the Model Context
// Protocol on stdio.
package mcp

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/bridgewarden/bridgewarden/internal/approval"
	"github.com/bridgewarden/bridgewarden/internal/audit"
	"github.com/bridgewarden/bridgewarden/internal/config"
	"github.com/bridgewarden/bridgewarden/internal/netfetch"
	"github.com/bridgewarden/bridgewarden/internal/quarantine"
	"github.com/bridgewarden/bridgewarden/internal/repofetch"
	"github.com/bridgewarden/bridgewarden/internal/tools"
)

// Config holds MCP server configuration.
type Config struct {
	ConfigPath string
	BaseDir    string
	DataDir    string
}

// Server wraps the MCP SDK server around the guard tool handler.
type Server struct {
	mcpServer *mcpsdk.Server
	handler   *tools.Handler
	auditLog  *audit.Logger
	index     *quarantine.Index
	reloader  *config.Reloader
	logger    *zap.Logger
}

// New loads config, opens the stores under the data directory, and
// registers the guard tools. Network backends are wired only when the
// policy enables them.
func New(cfg Config) (*Server, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, fmt.Errorf("failed to create logger: %w", err)
	}

	conf, err := config.Load(cfg.ConfigPath)
	if err != nil {
		return nil, err
	}

	dataDir := cfg.DataDir
	if dataDir == "" {
		dataDir, err = conf.ResolveDataDir()
		if err != nil {
			return nil, err
		}
	}
	for _, sub := range []string{"approvals", "quarantine", "logs", "repos"} {
		if err := os.MkdirAll(filepath.Join(dataDir, sub), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create data directory: %w", err)
		}
	}

	approvals, err := approval.NewStore(filepath.Join(dataDir, "approvals"))
	if err != nil {
		return nil, err
	}
	index, err := quarantine.OpenIndex(filepath.Join(dataDir, "quarantine.db"))
	if err != nil {
		return nil, err
	}
	store, err := quarantine.NewStore(filepath.Join(dataDir, "quarantine"))
	if err != nil {
		index.Close()
		return nil, err
	}
	store = store.WithIndex(index)

	auditLog, err := audit.Open(filepath.Join(dataDir, "logs", "audit.jsonl"))
	if err != nil {
		index.Close()
		return nil, err
	}

	baseDir := cfg.BaseDir
	if baseDir == "" {
		baseDir, err = os.Getwd()
		if err != nil {
			return nil, err
		}
	}

	handler := &tools.Handler{
		BaseDir:    baseDir,
		Config:     conf,
		Approvals:  approvals,
		Quarantine: store,
		Audit:      auditLog,
	}

	if conf.Network.Enabled {
		timeout := time.Duration(conf.Network.TimeoutSeconds * float64(time.Second))
		client := netfetch.NewClient(timeout)
		fetcher := &netfetch.TextFetcher{Client: client}
		handler.WebFetcher = fetcher.Fetch

		repoFetcher := &repofetch.Fetcher{
			HTTPGet:      client.Get,
			StorageDir:   filepath.Join(dataDir, "repos"),
			Profile:      conf.Profile,
			Quarantine:   store,
			Audit:        auditLog,
			MaxRepoBytes: conf.Network.RepoMaxBytes,
			MaxFileBytes: conf.Network.RepoMaxFileBytes,
			MaxFiles:     conf.Network.RepoMaxFiles,
			Logger:       logger,
		}
		handler.RepoFetcher = repoFetcher.Fetch
	}

	s := &Server{
		handler:  handler,
		auditLog: auditLog,
		index:    index,
		logger:   logger,
	}

	// Hot-reload applies profile and policy changes without a restart.
	// Fetcher wiring is fixed at startup; toggling network.enabled still
	// gates every operation through the handler's checks.
	if cfg.ConfigPath != "" {
		reloader, err := config.NewReloader(cfg.ConfigPath, func(next *config.Config) {
			handler.SetConfig(next)
			logger.Info("config reloaded",
				zap.String("profile", next.Profile),
				zap.Bool("network", next.Network.Enabled))
		})
		if err != nil {
			logger.Warn("config watch unavailable", zap.Error(err))
		} else {
			s.reloader = reloader
		}
	}

	s.mcpServer = mcpsdk.NewServer(
		&mcpsdk.Implementation{
			Name:    "bridgewarden",
			Version: config.PolicyVersion,
		},
		nil,
	)

	s.registerTools()
	logger.Info("guard server ready",
		zap.String("profile", conf.Profile),
		zap.Bool("network", conf.Network.Enabled),
		zap.String("data_dir", dataDir))
	return s, nil
}

// Run starts the MCP server on stdio transport. Blocks until ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	if s.reloader != nil {
		go s.reloader.Run(ctx)
	}
	return s.mcpServer.Run(ctx, &mcpsdk.StdioTransport{})
}

// Close releases the audit log, the quarantine index, and the logger.
func (s *Server) Close() error {
	s.logger.Sync()
	if err := s.auditLog.Close(); err != nil {
		s.index.Close()
		return err
	}
	return s.index.Close()
}

// registerTools adds all guard tools to the MCP server.
func (s *Server) registerTools() {
	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bw_read_file",
		Description: "Read a local file through the content guard. Returns sanitized text or a block with reasons.",
	}, s.handleReadFile)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bw_web_fetch",
		Description: "Fetch a web page through the content guard. New domains require approval; blocked fetches return the reason.",
	}, s.handleWebFetch)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bw_fetch_repo",
		Description: "Fetch a GitHub repository archive and scan every file through the content guard.",
	}, s.handleFetchRepo)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bw_quarantine_get",
		Description: "Inspect a quarantined item: redacted excerpt, sanitized text, and metadata.",
	}, s.handleQuarantineGet)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bw_request_source_approval",
		Description: "Request approval for a new web domain or repo URL.",
	}, s.handleRequestApproval)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bw_get_source_approval",
		Description: "Fetch a single source approval record by id.",
	}, s.handleGetApproval)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bw_list_source_approvals",
		Description: "List source approvals, optionally filtered by status and kind.",
	}, s.handleListApprovals)

	mcpsdk.AddTool(s.mcpServer, &mcpsdk.Tool{
		Name:        "bw_decide_source_approval",
		Description: "Approve or deny a pending source approval request.",
	}, s.handleDecideApproval)
}
