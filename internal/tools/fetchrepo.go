package tools

import (
	"context"
	"net/url"

	"github.com/bridgewarden/bridgewarden/internal/approval"
	"github.com/bridgewarden/bridgewarden/internal/model"
	"github.com/bridgewarden/bridgewarden/internal/repofetch"
)

// FetchRepoArgs are the inputs for the repo-fetch operation.
type FetchRepoArgs struct {
	URL          string   `json:"url"`
	Ref          string   `json:"ref,omitempty"`
	IncludePaths []string `json:"include_paths,omitempty"`
	ExcludePaths []string `json:"exclude_paths,omitempty"`
}

// FetchRepo fetches and scans a repository through the policy gates.
// For github.com repos the codeload archive host must be allowlisted
// too. Fetch failures map to a blocked report, not an error.
func (h *Handler) FetchRepo(ctx context.Context, args FetchRepoArgs) (*model.RepoReport, error) {
	source := model.Source{Kind: model.SourceRepo, URL: args.URL}

	parsed, err := url.Parse(args.URL)
	if err != nil {
		parsed = &url.URL{}
	}
	host := normalizeHost(parsed.Hostname())

	if !h.networkEnabled() {
		return model.BlockedRepoReport(source, model.ReasonNetworkDisabled, ""), nil
	}
	if !h.hostAllowed(host, "repo") {
		return model.BlockedRepoReport(source, model.ReasonNetworkHostBlocked, ""), nil
	}
	if archiveHost := repoArchiveHost(host); archiveHost != "" && !h.hostAllowed(archiveHost, "repo") {
		return model.BlockedRepoReport(source, model.ReasonNetworkHostBlocked, ""), nil
	}

	approvalsRequired := h.approvalRequired()
	if h.repoAllowed(args.URL) {
		approvalsRequired = false
	}
	if approvalsRequired {
		if h.Approvals == nil {
			return model.BlockedRepoReport(source, model.ReasonNewSourceNeedsApproval, ""), nil
		}
		approved, err := h.Approvals.IsApproved(approval.KindRepoURL, args.URL)
		if err != nil {
			return nil, err
		}
		if !approved {
			rec, err := h.Approvals.Request(approval.Request{Kind: approval.KindRepoURL, Target: args.URL})
			if err != nil {
				return nil, err
			}
			return model.BlockedRepoReport(source, model.ReasonNewSourceNeedsApproval, rec.ApprovalID), nil
		}
	}

	if h.RepoFetcher == nil {
		return model.BlockedRepoReport(source, model.ReasonNetworkDisabled, ""), nil
	}

	report, err := h.RepoFetcher(ctx, repofetch.Request{
		URL:          args.URL,
		Ref:          args.Ref,
		IncludePaths: args.IncludePaths,
		ExcludePaths: args.ExcludePaths,
	})
	if err != nil {
		return model.BlockedRepoReport(source, model.ReasonRepoFetchFailed, ""), nil
	}
	return report, nil
}

// repoArchiveHost returns the host the archive actually downloads
// from, when it differs from the repo host.
func repoArchiveHost(host string) string {
	if host == "github.com" {
		return "codeload.github.com"
	}
	return ""
}
