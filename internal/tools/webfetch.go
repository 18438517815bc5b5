package tools

import (
	"context"
	"net/url"

	"github.com/bridgewarden/bridgewarden/internal/approval"
	"github.com/bridgewarden/bridgewarden/internal/model"
	"github.com/bridgewarden/bridgewarden/internal/pipeline"
)

// WebFetchArgs are the inputs for the web-fetch operation. MaxBytes
// is a pointer so an explicit zero is distinguishable from unset.
type WebFetchArgs struct {
	URL      string `json:"url"`
	Mode     string `json:"mode,omitempty"`
	MaxBytes *int64 `json:"max_bytes,omitempty"`
}

// WebFetch fetches web content through the policy gates and guards it.
// Gate order: scheme, network enabled, host allowlist, SSRF, approval,
// backend presence, mode, max_bytes.
func (h *Handler) WebFetch(ctx context.Context, args WebFetchArgs) (*model.GuardResult, error) {
	originalURL := args.URL
	resolvedURL := normalizeRawFileURL(originalURL)

	parsed, err := url.Parse(resolvedURL)
	if err != nil {
		parsed = &url.URL{}
	}
	domain := normalizeHost(parsed.Hostname())
	source := model.Source{Kind: model.SourceWeb, URL: originalURL, Domain: domain}
	if resolvedURL != originalURL {
		source.ResolvedURL = resolvedURL
	}

	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return blockedResult(model.ReasonUnsupportedURLScheme, source, ""), nil
	}
	if !h.networkEnabled() {
		return blockedResult(model.ReasonNetworkDisabled, source, ""), nil
	}
	if !h.hostAllowed(domain, "web") {
		return blockedResult(model.ReasonNetworkHostBlocked, source, ""), nil
	}

	conf := h.conf()
	allowLocalhost := conf != nil && conf.Network.AllowLocalhost
	if h.ssrfRisk(parsed.Hostname(), allowLocalhost) {
		return blockedResult(model.ReasonSSRFBlocked, source, ""), nil
	}

	approvalsRequired := h.approvalRequired()
	if h.domainAllowed(domain) {
		approvalsRequired = false
	}
	if approvalsRequired {
		if h.Approvals == nil {
			return blockedResult(model.ReasonNewSourceNeedsApproval, source, ""), nil
		}
		approved, err := h.Approvals.IsApproved(approval.KindWebDomain, domain)
		if err != nil {
			return nil, err
		}
		if !approved {
			rec, err := h.Approvals.Request(approval.Request{Kind: approval.KindWebDomain, Target: domain})
			if err != nil {
				return nil, err
			}
			return blockedResult(model.ReasonNewSourceNeedsApproval, source, rec.ApprovalID), nil
		}
	}

	if h.WebFetcher == nil {
		return blockedResult(model.ReasonNetworkDisabled, source, ""), nil
	}

	mode := args.Mode
	if mode == "" {
		mode = "readable_text"
	}
	if mode != "readable_text" && mode != "raw_text" {
		return blockedResult(model.ReasonInvalidMode, source, ""), nil
	}

	// An explicit non-positive limit is invalid; absent means the
	// config default.
	var limit int64
	if args.MaxBytes != nil {
		if *args.MaxBytes <= 0 {
			return blockedResult(model.ReasonInvalidMaxBytes, source, ""), nil
		}
		limit = *args.MaxBytes
	}
	webMax := int64(1024 * 1024)
	if conf != nil {
		webMax = conf.Network.WebMaxBytes
	}
	if limit == 0 || limit > webMax {
		limit = webMax
	}

	text, err := h.WebFetcher(ctx, resolvedURL, limit)
	if err != nil {
		return blockedResult(model.ReasonNetworkError, source, ""), nil
	}

	return pipeline.Guard(ctx, text, source, pipeline.Options{
		Profile:    h.profileName(""),
		Quarantine: h.Quarantine,
		Audit:      h.Audit,
	})
}
