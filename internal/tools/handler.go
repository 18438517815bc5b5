// Package tools implements the guard tool surface. Every operation
// applies its policy gates and returns a guard result or report; a
// failed gate yields a BLOCK with risk 1.0 and a single policy reason.
package tools

import (
	"context"
	"strings"
	"sync"

	"github.com/bridgewarden/bridgewarden/internal/approval"
	"github.com/bridgewarden/bridgewarden/internal/audit"
	"github.com/bridgewarden/bridgewarden/internal/config"
	"github.com/bridgewarden/bridgewarden/internal/model"
	"github.com/bridgewarden/bridgewarden/internal/quarantine"
	"github.com/bridgewarden/bridgewarden/internal/repofetch"
)

// WebFetchFunc fetches decoded text from a URL within a byte limit.
type WebFetchFunc func(ctx context.Context, url string, maxBytes int64) (string, error)

// RepoFetchFunc downloads and scans a repository.
type RepoFetchFunc func(ctx context.Context, req repofetch.Request) (*model.RepoReport, error)

// ResolveFunc resolves a hostname to IP strings for the SSRF gate.
type ResolveFunc func(host string) []string

// Handler owns the stores and backends the tool operations borrow.
// Nil backends fail closed: no fetcher means NETWORK_DISABLED, no
// approval store means NEW_SOURCE_REQUIRES_APPROVAL.
type Handler struct {
	BaseDir     string
	Config      *config.Config
	Approvals   *approval.Store
	Quarantine  *quarantine.Store
	Audit       *audit.Logger
	WebFetcher  WebFetchFunc
	RepoFetcher RepoFetchFunc
	Resolver    ResolveFunc

	mu sync.RWMutex // guards Config against hot-reload swaps
}

// conf returns the current config snapshot.
func (h *Handler) conf() *config.Config {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.Config
}

// SetConfig swaps the active config. Used by the hot-reload path;
// in-flight operations keep the snapshot they started with.
func (h *Handler) SetConfig(c *config.Config) {
	h.mu.Lock()
	h.Config = c
	h.mu.Unlock()
}

// blockedResult is the fixed shape for a policy-gate BLOCK: risk 1.0,
// one reason, no content hash.
func blockedResult(reason model.ReasonCode, source model.Source, approvalID string) *model.GuardResult {
	return &model.GuardResult{
		Decision:      model.Block,
		RiskScore:     1.0,
		Reasons:       []model.ReasonCode{reason},
		Source:        source,
		ContentHash:   "",
		SanitizedText: "",
		Redactions:    []model.Redaction{},
		CacheHit:      false,
		PolicyVersion: config.PolicyVersion,
		ApprovalID:    approvalID,
	}
}

// profileName resolves the effective policy profile.
func (h *Handler) profileName(override string) string {
	if override != "" {
		return override
	}
	if conf := h.conf(); conf != nil {
		return conf.Profile
	}
	return config.DefaultProfile
}

func (h *Handler) networkEnabled() bool {
	conf := h.conf()
	return conf != nil && conf.Network.Enabled
}

func (h *Handler) approvalRequired() bool {
	conf := h.conf()
	if conf == nil {
		return true
	}
	return conf.Approvals.RequireApproval
}

// domainAllowed checks the approval allowlist for web domains.
func (h *Handler) domainAllowed(domain string) bool {
	conf := h.conf()
	if conf == nil {
		return false
	}
	normalized := normalizeHost(domain)
	for _, item := range conf.Approvals.AllowedWebDomains {
		if normalizeHost(item) == normalized {
			return true
		}
	}
	return false
}

// repoAllowed checks the approval allowlist for repo URLs.
func (h *Handler) repoAllowed(url string) bool {
	conf := h.conf()
	if conf == nil {
		return false
	}
	for _, item := range conf.Approvals.AllowedRepoURLs {
		if item == url {
			return true
		}
	}
	return false
}

// hostAllowed checks the network allowlist for web or repo traffic.
// An empty allowlist admits nothing.
func (h *Handler) hostAllowed(host, kind string) bool {
	conf := h.conf()
	if conf == nil {
		return false
	}
	var allowlist []string
	if kind == "web" {
		allowlist = conf.Network.AllowedWebHosts
	} else {
		allowlist = conf.Network.AllowedRepoHosts
	}
	if len(allowlist) == 0 {
		return false
	}
	normalized := normalizeHost(host)
	for _, item := range allowlist {
		if normalizeHost(item) == normalized {
			return true
		}
	}
	return false
}

// normalizeHost lowercases a hostname and strips the trailing dot.
func normalizeHost(host string) string {
	return strings.TrimRight(strings.ToLower(strings.TrimSpace(host)), ".")
}
