package tools

import (
	"fmt"

	"github.com/bridgewarden/bridgewarden/internal/approval"
	"github.com/bridgewarden/bridgewarden/internal/model"
	"github.com/bridgewarden/bridgewarden/internal/quarantine"
)

// QuarantineGetArgs are the inputs for the quarantine review
// operation.
type QuarantineGetArgs struct {
	QuarantineID string `json:"quarantine_id"`
	ExcerptLimit int    `json:"excerpt_limit,omitempty"`
}

// QuarantineView is the review shape returned to the caller.
type QuarantineView struct {
	OriginalExcerpt string             `json:"original_excerpt"`
	SanitizedText   string             `json:"sanitized_text"`
	Metadata        quarantine.Record  `json:"metadata"`
	Reasons         []model.ReasonCode `json:"reasons"`
	RiskScore       float64            `json:"risk_score"`
}

// QuarantineGet fetches a sanitized quarantine view for review.
func (h *Handler) QuarantineGet(args QuarantineGetArgs) (*QuarantineView, error) {
	if h.Quarantine == nil {
		return nil, fmt.Errorf("quarantine store not configured")
	}
	view, err := h.Quarantine.GetView(args.QuarantineID, args.ExcerptLimit)
	if err != nil {
		return nil, err
	}
	return &QuarantineView{
		OriginalExcerpt: view.OriginalExcerpt,
		SanitizedText:   view.SanitizedText,
		Metadata:        view.Metadata,
		Reasons:         view.Metadata.Reasons,
		RiskScore:       view.Metadata.RiskScore,
	}, nil
}

// RequestSourceApproval creates a new pending source approval.
func (h *Handler) RequestSourceApproval(req approval.Request) (*approval.Record, error) {
	if h.Approvals == nil {
		return nil, fmt.Errorf("approval store not configured")
	}
	return h.Approvals.Request(req)
}

// GetSourceApproval fetches a single approval record.
func (h *Handler) GetSourceApproval(approvalID string) (*approval.Record, error) {
	if h.Approvals == nil {
		return nil, fmt.Errorf("approval store not configured")
	}
	return h.Approvals.Get(approvalID)
}

// ListSourceApprovals lists approvals with optional filters.
func (h *Handler) ListSourceApprovals(status, kind string, limit int) ([]approval.Record, error) {
	if h.Approvals == nil {
		return nil, fmt.Errorf("approval store not configured")
	}
	return h.Approvals.List(status, kind, limit)
}

// DecideSourceApproval approves or denies a pending request.
func (h *Handler) DecideSourceApproval(approvalID, decision, notes, decidedBy string) (*approval.Record, error) {
	if h.Approvals == nil {
		return nil, fmt.Errorf("approval store not configured")
	}
	return h.Approvals.Decide(approvalID, decision, notes, decidedBy)
}
