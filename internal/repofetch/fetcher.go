// Package repofetch downloads a repository archive, stores its files,
// and scans every file through the guard pipeline.
package repofetch

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"go.uber.org/zap"

	"github.com/bridgewarden/bridgewarden/internal/audit"
	"github.com/bridgewarden/bridgewarden/internal/model"
	"github.com/bridgewarden/bridgewarden/internal/pipeline"
	"github.com/bridgewarden/bridgewarden/internal/quarantine"
)

// RepoError wraps repository fetch and validation failures.
type RepoError struct {
	Msg string
	Err error
}

func (e *RepoError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *RepoError) Unwrap() error { return e.Err }

// HTTPGet fetches up to maxBytes from a URL.
type HTTPGet func(ctx context.Context, rawURL string, maxBytes int64) ([]byte, error)

// Fetcher downloads a repo tarball and scans its files. The HTTP
// dependency is injected so tests run without a network.
type Fetcher struct {
	HTTPGet      HTTPGet
	StorageDir   string
	Profile      string
	Quarantine   *quarantine.Store
	Audit        *audit.Logger
	MaxRepoBytes int64
	MaxFileBytes int64
	MaxFiles     int
	Logger       *zap.Logger
}

// Request selects what to fetch and which paths to scan.
type Request struct {
	URL          string
	Ref          string
	IncludePaths []string
	ExcludePaths []string
}

// RepoID builds a deterministic repo id from its URL.
func RepoID(rawURL string) string {
	sum := sha256.Sum256([]byte(rawURL))
	return "r_" + hex.EncodeToString(sum[:])[:16]
}

// Fetch downloads the archive for the requested ref, extracts its
// regular files under the storage dir, and returns per-file findings
// in archive member order.
func (f *Fetcher) Fetch(ctx context.Context, req Request) (*model.RepoReport, error) {
	logger := f.Logger
	if logger == nil {
		logger = zap.NewNop()
	}

	repoID := RepoID(req.URL)
	revision := sanitizeRef(req.Ref)
	archiveURL, err := githubArchiveURL(req.URL, revision)
	if err != nil {
		return nil, err
	}

	logger.Info("fetching repo archive",
		zap.String("repo_id", repoID),
		zap.String("revision", revision),
		zap.String("url", req.URL))

	payload, err := f.HTTPGet(ctx, archiveURL, f.MaxRepoBytes)
	if err != nil {
		return nil, &RepoError{Msg: "archive download failed", Err: err}
	}

	repoRoot := filepath.Join(f.StorageDir, repoID, revision)
	if err := os.MkdirAll(repoRoot, 0o755); err != nil {
		return nil, &RepoError{Msg: "cannot create repo storage", Err: err}
	}

	gz, err := gzip.NewReader(bytes.NewReader(payload))
	if err != nil {
		return nil, &RepoError{Msg: "invalid gzip archive", Err: err}
	}
	defer gz.Close()
	archive := tar.NewReader(gz)

	report := &model.RepoReport{
		RepoID:        repoID,
		NewRevision:   revision,
		ChangedFiles:  []model.ChangedFile{},
		Findings:      []model.RepoFinding{},
		QuarantineIDs: []string{},
	}

	rootPrefix := ""
	fileCount := 0
	var extracted int64
	for {
		header, err := archive.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, &RepoError{Msg: "invalid tar archive", Err: err}
		}
		if header.Typeflag != tar.TypeReg {
			continue
		}
		// The prefix comes from the first regular file, not from
		// directory or link entries.
		if rootPrefix == "" {
			rootPrefix = topLevelDir(header.Name)
		}
		if fileCount >= f.MaxFiles {
			break
		}
		fileCount++

		relPath := relativePath(header.Name, rootPrefix)
		if relPath == "" {
			continue
		}
		if !pathAllowed(relPath, req.IncludePaths, req.ExcludePaths) {
			continue
		}

		content, contentHash, memberSize, truncated, err := readMember(archive, f.MaxFileBytes)
		if err != nil {
			return nil, &RepoError{Msg: "cannot read archive member", Err: err}
		}

		// The download cap bounds the compressed payload; this bounds
		// what decompression can expand it to.
		extracted += memberSize
		if extracted > f.MaxRepoBytes {
			return nil, &RepoError{Msg: "extracted content exceeds repo size limit"}
		}

		destination, err := safeJoin(repoRoot, relPath)
		if err != nil {
			return nil, err
		}
		if err := os.MkdirAll(filepath.Dir(destination), 0o755); err != nil {
			return nil, &RepoError{Msg: "cannot create file directory", Err: err}
		}
		if err := os.WriteFile(destination, content, 0o644); err != nil {
			return nil, &RepoError{Msg: "cannot write repo file", Err: err}
		}

		if truncated {
			report.Findings = append(report.Findings, model.RepoFinding{
				Path:        relPath,
				Decision:    model.Block,
				RiskScore:   1.0,
				Reasons:     []model.ReasonCode{model.ReasonFileTooLarge},
				ContentHash: contentHash,
			})
			report.Summary.Blocked++
		} else {
			result, err := pipeline.Guard(ctx, string(content),
				model.Source{Kind: model.SourceRepo, URL: req.URL, Path: relPath},
				pipeline.Options{Profile: f.Profile, Quarantine: f.Quarantine, Audit: f.Audit})
			if err != nil {
				return nil, err
			}
			report.Findings = append(report.Findings, model.RepoFinding{
				Path:        relPath,
				Decision:    result.Decision,
				RiskScore:   result.RiskScore,
				Reasons:     result.Reasons,
				ContentHash: result.ContentHash,
			})
			switch result.Decision {
			case model.Allow:
				report.Summary.Allowed++
			case model.Warn:
				report.Summary.Warned++
			default:
				report.Summary.Blocked++
				if result.QuarantineID != "" {
					report.QuarantineIDs = append(report.QuarantineIDs, result.QuarantineID)
				}
			}
		}

		report.ChangedFiles = append(report.ChangedFiles, model.ChangedFile{Path: relPath, Status: "added"})
	}

	report.Summary.Total = len(report.Findings)
	logger.Info("repo scan complete",
		zap.String("repo_id", repoID),
		zap.Int("files", report.Summary.Total),
		zap.Int("blocked", report.Summary.Blocked))
	return report, nil
}

// githubArchiveURL maps a github.com repo URL to its codeload tarball.
func githubArchiveURL(rawURL, ref string) (string, error) {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return "", &RepoError{Msg: "invalid repo url", Err: err}
	}
	if parsed.Scheme != "http" && parsed.Scheme != "https" {
		return "", &RepoError{Msg: "unsupported repo scheme"}
	}
	if parsed.Host != "github.com" {
		return "", &RepoError{Msg: "unsupported repo host"}
	}
	var parts []string
	for _, part := range strings.Split(strings.Trim(parsed.Path, "/"), "/") {
		if part != "" {
			parts = append(parts, part)
		}
	}
	if len(parts) < 2 {
		return "", &RepoError{Msg: "invalid GitHub repo URL"}
	}
	owner := parts[0]
	repo := strings.TrimSuffix(parts[1], ".git")
	return fmt.Sprintf("https://codeload.github.com/%s/%s/tar.gz/%s", owner, repo, ref), nil
}

var refUnsafe = regexp.MustCompile(`[^A-Za-z0-9._-]`)

// sanitizeRef makes a ref name filesystem-safe. Empty or degenerate
// refs resolve to HEAD.
func sanitizeRef(ref string) string {
	if ref == "" {
		ref = "HEAD"
	}
	sanitized := refUnsafe.ReplaceAllString(ref, "_")
	sanitized = strings.Trim(sanitized, "._-")
	if sanitized == "" || sanitized == "." || sanitized == ".." {
		return "HEAD"
	}
	if len(sanitized) > 100 {
		sanitized = sanitized[:100]
	}
	return sanitized
}

// topLevelDir returns the first path element of a tar member name.
func topLevelDir(name string) string {
	clean := strings.Trim(path.Clean(name), "/")
	if clean == "" || clean == "." {
		return ""
	}
	if i := strings.Index(clean, "/"); i >= 0 {
		return clean[:i]
	}
	return clean
}

// relativePath strips the archive root prefix from a member name.
func relativePath(name, rootPrefix string) string {
	clean := strings.Trim(path.Clean(name), "/")
	if clean == "" || clean == "." {
		return ""
	}
	if rootPrefix != "" {
		if clean == rootPrefix {
			return ""
		}
		clean = strings.TrimPrefix(clean, rootPrefix+"/")
	}
	return clean
}

// pathAllowed applies include then exclude prefix filters.
func pathAllowed(p string, include, exclude []string) bool {
	if len(include) > 0 {
		ok := false
		for _, prefix := range include {
			if matchesPrefix(p, prefix) {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	for _, prefix := range exclude {
		if matchesPrefix(p, prefix) {
			return false
		}
	}
	return true
}

func matchesPrefix(p, prefix string) bool {
	return p == prefix || strings.HasPrefix(p, strings.TrimSuffix(prefix, "/")+"/")
}

// readMember reads one tar member, hashing the full content while
// keeping at most maxBytes of it. Also reports the full member size.
func readMember(r io.Reader, maxBytes int64) ([]byte, string, int64, bool, error) {
	hasher := sha256.New()
	var buf bytes.Buffer
	var size int64
	truncated := false
	chunk := make([]byte, 8192)
	for {
		n, err := r.Read(chunk)
		if n > 0 {
			hasher.Write(chunk[:n])
			size += int64(n)
			if int64(buf.Len()) < maxBytes {
				remaining := maxBytes - int64(buf.Len())
				if int64(n) > remaining {
					buf.Write(chunk[:remaining])
					truncated = true
				} else {
					buf.Write(chunk[:n])
				}
			} else {
				truncated = true
			}
		}
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, "", 0, false, err
		}
	}
	return buf.Bytes(), hex.EncodeToString(hasher.Sum(nil)), size, truncated, nil
}

// safeJoin joins paths while preventing traversal outside the root.
func safeJoin(root, relPath string) (string, error) {
	candidate := filepath.Join(root, filepath.FromSlash(relPath))
	rel, err := filepath.Rel(root, candidate)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", &RepoError{Msg: "path escapes repo root"}
	}
	return candidate, nil
}
