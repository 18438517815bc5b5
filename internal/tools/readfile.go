package tools

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/bridgewarden/bridgewarden/internal/model"
	"github.com/bridgewarden/bridgewarden/internal/pipeline"
)

// ReadFileArgs are the inputs for the read-file operation.
type ReadFileArgs struct {
	Path   string `json:"path"`
	RepoID string `json:"repo_id,omitempty"`
	Mode   string `json:"mode,omitempty"`
}

// ReadFile reads a local file and runs it through the guard pipeline.
// Gate order: repo_id, traversal, mode, existence.
func (h *Handler) ReadFile(ctx context.Context, args ReadFileArgs) (*model.GuardResult, error) {
	if args.RepoID != "" {
		return blockedResult(model.ReasonRepoIDUnsupported,
			model.Source{Kind: model.SourceRepo, RepoID: args.RepoID}, ""), nil
	}

	source := model.Source{Kind: model.SourceFile, Path: args.Path}
	base := h.BaseDir
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, err
		}
		base = wd
	}

	resolved, ok := safePath(base, args.Path)
	if !ok {
		return blockedResult(model.ReasonPathTraversal, source, ""), nil
	}

	mode := args.Mode
	if mode == "" {
		mode = "safe"
	}
	if mode == "raw" {
		return blockedResult(model.ReasonRawModeNotAllowed, source, ""), nil
	}
	if mode != "safe" {
		return blockedResult(model.ReasonInvalidMode, source, ""), nil
	}

	info, err := os.Stat(resolved)
	if err != nil || info.IsDir() {
		return blockedResult(model.ReasonFileNotFound, source, ""), nil
	}

	content, err := os.ReadFile(resolved)
	if err != nil {
		return blockedResult(model.ReasonFileNotFound, source, ""), nil
	}

	return pipeline.Guard(ctx, string(content),
		model.Source{Kind: model.SourceFile, Path: resolved},
		pipeline.Options{
			Profile:    h.profileName(""),
			Quarantine: h.Quarantine,
			Audit:      h.Audit,
		})
}

// safePath resolves a path under base and refuses traversal outside
// it. Absolute inputs are refused, and symlinks are resolved before
// the containment check so a link inside base cannot point out of it.
func safePath(base, p string) (string, bool) {
	if filepath.IsAbs(p) {
		return "", false
	}
	baseAbs, err := filepath.Abs(base)
	if err != nil {
		return "", false
	}
	baseReal, err := filepath.EvalSymlinks(baseAbs)
	if err != nil {
		return "", false
	}

	candidate := filepath.Join(baseAbs, p)
	resolved, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		// Unresolvable is usually a missing file; containment is
		// checked lexically and the existence gate reports it.
		if !contained(baseAbs, candidate) {
			return "", false
		}
		return candidate, true
	}
	if !contained(baseReal, resolved) {
		return "", false
	}
	return resolved, true
}

func contained(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	return err == nil && rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
