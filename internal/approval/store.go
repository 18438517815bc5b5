// Package approval stores human decisions about new content sources.
// Web domains and repo URLs need an APPROVED record before the guard
// will fetch them.
package approval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Status values for an approval record.
const (
	StatusPending  = "PENDING"
	StatusApproved = "APPROVED"
	StatusDenied   = "DENIED"
)

// Kind values name what the target identifies.
const (
	KindWebDomain = "web_domain"
	KindRepoURL   = "repo_url"
)

// validID matches the approval id shape: a_ followed by a uuid hex.
var validID = regexp.MustCompile(`^a_[0-9a-f]{32}$`)

// Request is the payload for a new source approval.
type Request struct {
	Kind        string `json:"kind"`
	Target      string `json:"target"`
	Rationale   string `json:"rationale,omitempty"`
	RequestedBy string `json:"requested_by,omitempty"`
}

// Record is the stored state of one approval request.
type Record struct {
	ApprovalID string `json:"approval_id"`
	Kind       string `json:"kind"`
	Target     string `json:"target"`
	Status     string `json:"status"`
	CreatedAt  string `json:"created_at"`
	DecidedAt  string `json:"decided_at,omitempty"`
	DecidedBy  string `json:"decided_by,omitempty"`
	Notes      string `json:"notes,omitempty"`
}

// Store manages approval files on disk. The id factory and clock are
// injectable for tests.
type Store struct {
	dir       string
	idFactory func() string
	clock     func() string
	mu        sync.Mutex
}

// Option configures a Store.
type Option func(*Store)

// WithIDFactory overrides approval id generation.
func WithIDFactory(f func() string) Option {
	return func(s *Store) { s.idFactory = f }
}

// WithClock overrides timestamp generation.
func WithClock(f func() string) Option {
	return func(s *Store) { s.clock = f }
}

// NewStore creates a Store backed by the given directory.
func NewStore(dir string, opts ...Option) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create approval directory: %w", err)
	}
	s := &Store{
		dir:       dir,
		idFactory: func() string { return "a_" + strings.ReplaceAll(uuid.NewString(), "-", "") },
		clock:     func() string { return time.Now().UTC().Format("2006-01-02T15:04:05.000Z") },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Request creates a new pending approval and returns its record.
func (s *Store) Request(req Request) (*Record, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec := Record{
		ApprovalID: s.idFactory(),
		Kind:       req.Kind,
		Target:     req.Target,
		Status:     StatusPending,
		CreatedAt:  s.clock(),
	}
	if err := s.writeAtomic(rec); err != nil {
		return nil, err
	}
	return &rec, nil
}

// Get fetches a single approval record by id.
func (s *Store) Get(approvalID string) (*Record, error) {
	if !validID.MatchString(approvalID) {
		return nil, fmt.Errorf("invalid approval id %q", approvalID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.read(approvalID)
}

// List returns approvals sorted by id, optionally filtered by status
// and kind, up to limit records. A non-positive limit means 100.
func (s *Store) List(status, kind string, limit int) ([]Record, error) {
	if limit <= 0 {
		limit = 100
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, err := os.ReadDir(s.dir)
	if err != nil {
		return nil, fmt.Errorf("cannot list approvals: %w", err)
	}

	names := make([]string, 0, len(entries))
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".json") {
			continue
		}
		names = append(names, e.Name())
	}
	sort.Strings(names)

	records := make([]Record, 0)
	for _, name := range names {
		rec, err := s.read(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		if status != "" && rec.Status != status {
			continue
		}
		if kind != "" && rec.Kind != kind {
			continue
		}
		records = append(records, *rec)
		if len(records) >= limit {
			break
		}
	}
	return records, nil
}

// Decide moves a pending approval to APPROVED or DENIED. Deciding a
// non-pending record is a no-op that returns the current state.
func (s *Store) Decide(approvalID, decision, notes, decidedBy string) (*Record, error) {
	if decision != StatusApproved && decision != StatusDenied {
		return nil, fmt.Errorf("invalid decision %q", decision)
	}
	if !validID.MatchString(approvalID) {
		return nil, fmt.Errorf("invalid approval id %q", approvalID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.read(approvalID)
	if err != nil {
		return nil, err
	}
	if rec.Status != StatusPending {
		return rec, nil
	}

	rec.Status = decision
	rec.DecidedAt = s.clock()
	rec.DecidedBy = decidedBy
	rec.Notes = notes
	if err := s.writeAtomic(*rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// IsApproved reports whether the target has an APPROVED record of the
// given kind.
func (s *Store) IsApproved(kind, target string) (bool, error) {
	records, err := s.List(StatusApproved, kind, 1000)
	if err != nil {
		return false, err
	}
	for _, rec := range records {
		if rec.Target == target {
			return true, nil
		}
	}
	return false, nil
}

func (s *Store) read(approvalID string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(s.dir, approvalID+".json"))
	if err != nil {
		return nil, fmt.Errorf("approval %q not found: %w", approvalID, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt approval record %q: %w", approvalID, err)
	}
	return &rec, nil
}

func (s *Store) writeAtomic(rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cannot encode approval record: %w", err)
	}
	path := filepath.Join(s.dir, rec.ApprovalID+".json")
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cannot write approval record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cannot commit approval record: %w", err)
	}
	return nil
}
