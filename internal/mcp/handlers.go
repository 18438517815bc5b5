package mcp

import (
	"context"

	mcpsdk "github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/bridgewarden/bridgewarden/internal/approval"
	"github.com/bridgewarden/bridgewarden/internal/model"
	"github.com/bridgewarden/bridgewarden/internal/tools"
)

// --- Input/Output types ---

// ReadFileInput defines parameters for the bw_read_file tool.
type ReadFileInput struct {
	Path   string `json:"path" jsonschema:"file path relative to the working directory"`
	RepoID string `json:"repo_id,omitempty" jsonschema:"fetched repo id, reserved"`
	Mode   string `json:"mode,omitempty" jsonschema:"read mode, only safe is supported"`
}

// WebFetchInput defines parameters for the bw_web_fetch tool.
type WebFetchInput struct {
	URL      string `json:"url" jsonschema:"page URL to fetch"`
	Mode     string `json:"mode,omitempty" jsonschema:"readable_text or raw_text"`
	MaxBytes *int64 `json:"max_bytes,omitempty" jsonschema:"response size cap in bytes"`
}

// FetchRepoInput defines parameters for the bw_fetch_repo tool.
type FetchRepoInput struct {
	URL          string   `json:"url" jsonschema:"GitHub repository URL"`
	Ref          string   `json:"ref,omitempty" jsonschema:"branch, tag, or commit, defaults to HEAD"`
	IncludePaths []string `json:"include_paths,omitempty" jsonschema:"path prefixes to scan"`
	ExcludePaths []string `json:"exclude_paths,omitempty" jsonschema:"path prefixes to skip"`
}

// QuarantineGetInput defines parameters for the bw_quarantine_get tool.
type QuarantineGetInput struct {
	QuarantineID string `json:"quarantine_id" jsonschema:"quarantine item id"`
	ExcerptLimit int    `json:"excerpt_limit,omitempty" jsonschema:"excerpt length in characters"`
}

// RequestApprovalInput defines parameters for bw_request_source_approval.
type RequestApprovalInput struct {
	Kind        string `json:"kind" jsonschema:"web_domain or repo_url"`
	Target      string `json:"target" jsonschema:"domain or repo URL being requested"`
	Rationale   string `json:"rationale,omitempty" jsonschema:"why the source is needed"`
	RequestedBy string `json:"requested_by,omitempty" jsonschema:"requesting identity"`
}

// GetApprovalInput defines parameters for bw_get_source_approval.
type GetApprovalInput struct {
	ApprovalID string `json:"approval_id" jsonschema:"approval record id"`
}

// ListApprovalsInput defines parameters for bw_list_source_approvals.
type ListApprovalsInput struct {
	Status string `json:"status,omitempty" jsonschema:"filter by PENDING, APPROVED, or DENIED"`
	Kind   string `json:"kind,omitempty" jsonschema:"filter by web_domain or repo_url"`
	Limit  int    `json:"limit,omitempty" jsonschema:"maximum records to return"`
}

// ListApprovalsOutput wraps the approval records.
type ListApprovalsOutput struct {
	Approvals []approval.Record `json:"approvals"`
}

// DecideApprovalInput defines parameters for bw_decide_source_approval.
type DecideApprovalInput struct {
	ApprovalID string `json:"approval_id" jsonschema:"approval record id"`
	Decision   string `json:"decision" jsonschema:"APPROVED or DENIED"`
	Notes      string `json:"notes,omitempty" jsonschema:"reviewer notes"`
	DecidedBy  string `json:"decided_by,omitempty" jsonschema:"deciding identity"`
}

// --- Handlers ---

// guardCallResult flags blocked guard outcomes as tool errors so the
// caller treats the sanitized payload as a refusal, not content.
func guardCallResult(result *model.GuardResult) *mcpsdk.CallToolResult {
	if result.Decision == model.Block {
		return &mcpsdk.CallToolResult{IsError: true}
	}
	return nil
}

func (s *Server) handleReadFile(ctx context.Context, req *mcpsdk.CallToolRequest, input ReadFileInput) (*mcpsdk.CallToolResult, model.GuardResult, error) {
	result, err := s.handler.ReadFile(ctx, tools.ReadFileArgs{
		Path:   input.Path,
		RepoID: input.RepoID,
		Mode:   input.Mode,
	})
	if err != nil {
		return nil, model.GuardResult{}, err
	}
	return guardCallResult(result), *result, nil
}

func (s *Server) handleWebFetch(ctx context.Context, req *mcpsdk.CallToolRequest, input WebFetchInput) (*mcpsdk.CallToolResult, model.GuardResult, error) {
	result, err := s.handler.WebFetch(ctx, tools.WebFetchArgs{
		URL:      input.URL,
		Mode:     input.Mode,
		MaxBytes: input.MaxBytes,
	})
	if err != nil {
		return nil, model.GuardResult{}, err
	}
	return guardCallResult(result), *result, nil
}

func (s *Server) handleFetchRepo(ctx context.Context, req *mcpsdk.CallToolRequest, input FetchRepoInput) (*mcpsdk.CallToolResult, model.RepoReport, error) {
	report, err := s.handler.FetchRepo(ctx, tools.FetchRepoArgs{
		URL:          input.URL,
		Ref:          input.Ref,
		IncludePaths: input.IncludePaths,
		ExcludePaths: input.ExcludePaths,
	})
	if err != nil {
		return nil, model.RepoReport{}, err
	}
	if len(report.Reasons) > 0 {
		return &mcpsdk.CallToolResult{IsError: true}, *report, nil
	}
	return nil, *report, nil
}

func (s *Server) handleQuarantineGet(ctx context.Context, req *mcpsdk.CallToolRequest, input QuarantineGetInput) (*mcpsdk.CallToolResult, tools.QuarantineView, error) {
	view, err := s.handler.QuarantineGet(tools.QuarantineGetArgs{
		QuarantineID: input.QuarantineID,
		ExcerptLimit: input.ExcerptLimit,
	})
	if err != nil {
		return nil, tools.QuarantineView{}, err
	}
	return nil, *view, nil
}

func (s *Server) handleRequestApproval(ctx context.Context, req *mcpsdk.CallToolRequest, input RequestApprovalInput) (*mcpsdk.CallToolResult, approval.Record, error) {
	rec, err := s.handler.RequestSourceApproval(approval.Request{
		Kind:        input.Kind,
		Target:      input.Target,
		Rationale:   input.Rationale,
		RequestedBy: input.RequestedBy,
	})
	if err != nil {
		return nil, approval.Record{}, err
	}
	return nil, *rec, nil
}

func (s *Server) handleGetApproval(ctx context.Context, req *mcpsdk.CallToolRequest, input GetApprovalInput) (*mcpsdk.CallToolResult, approval.Record, error) {
	rec, err := s.handler.GetSourceApproval(input.ApprovalID)
	if err != nil {
		return nil, approval.Record{}, err
	}
	return nil, *rec, nil
}

func (s *Server) handleListApprovals(ctx context.Context, req *mcpsdk.CallToolRequest, input ListApprovalsInput) (*mcpsdk.CallToolResult, ListApprovalsOutput, error) {
	records, err := s.handler.ListSourceApprovals(input.Status, input.Kind, input.Limit)
	if err != nil {
		return nil, ListApprovalsOutput{}, err
	}
	return nil, ListApprovalsOutput{Approvals: records}, nil
}

func (s *Server) handleDecideApproval(ctx context.Context, req *mcpsdk.CallToolRequest, input DecideApprovalInput) (*mcpsdk.CallToolResult, approval.Record, error) {
	rec, err := s.handler.DecideSourceApproval(input.ApprovalID, input.Decision, input.Notes, input.DecidedBy)
	if err != nil {
		return nil, approval.Record{}, err
	}
	return nil, *rec, nil
}
