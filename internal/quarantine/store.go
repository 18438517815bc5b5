// Package quarantine stores blocked content on disk for later review.
// Each record keeps the raw original, the redacted sanitized text, and
// a JSON metadata record keyed by a content-hash-derived id.
package quarantine

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sync"
	"time"

	"github.com/bridgewarden/bridgewarden/internal/model"
	"github.com/bridgewarden/bridgewarden/internal/redact"
)

const (
	recordFilename    = "record.json"
	originalFilename  = "original.txt"
	sanitizedFilename = "sanitized.txt"
)

// DefaultExcerptLimit bounds the redacted original excerpt in views.
const DefaultExcerptLimit = 200

// validID matches the quarantine id shape: q_ followed by a hex hash.
var validID = regexp.MustCompile(`^q_[0-9a-f]{64}$`)

// BuildID creates a stable quarantine id from a hex content hash.
func BuildID(contentHash string) string {
	return "q_" + contentHash
}

// Record is the persisted metadata for one quarantined item.
type Record struct {
	ContentHash   string             `json:"content_hash"`
	CreatedAt     string             `json:"created_at"`
	Source        model.Source       `json:"source"`
	Decision      model.Decision     `json:"decision"`
	RiskScore     float64            `json:"risk_score"`
	Reasons       []model.ReasonCode `json:"reasons"`
	Redactions    []model.Redaction  `json:"redactions"`
	PolicyVersion string             `json:"policy_version"`
}

// View is the safe inspection shape: the original appears only as a
// redacted, truncated excerpt.
type View struct {
	QuarantineID    string `json:"quarantine_id"`
	OriginalExcerpt string `json:"original_excerpt"`
	SanitizedText   string `json:"sanitized_text"`
	Metadata        Record `json:"metadata"`
}

// Store is a file-backed quarantine store. An optional Index mirrors
// record metadata for querying.
type Store struct {
	root  string
	index *Index
	mu    sync.Mutex
}

// NewStore creates a Store rooted at the given directory.
func NewStore(root string) (*Store, error) {
	if err := os.MkdirAll(root, 0o755); err != nil {
		return nil, fmt.Errorf("cannot create quarantine directory: %w", err)
	}
	return &Store{root: root}, nil
}

// WithIndex attaches a metadata index. Put mirrors each new record
// into it.
func (s *Store) WithIndex(index *Index) *Store {
	s.index = index
	return s
}

// Put persists a quarantine record and returns its id. Writing the
// record file is the commit point; a second Put for the same hash is a
// no-op.
func (s *Store) Put(contentHash, originalText, sanitizedText string, rec Record) (string, error) {
	quarantineID := BuildID(contentHash)

	s.mu.Lock()
	defer s.mu.Unlock()

	dir := filepath.Join(s.root, quarantineID)
	recordPath := filepath.Join(dir, recordFilename)
	if _, err := os.Stat(recordPath); err == nil {
		return quarantineID, nil
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("cannot create quarantine record directory: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, originalFilename), []byte(originalText), 0o644); err != nil {
		return "", fmt.Errorf("cannot write original text: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, sanitizedFilename), []byte(sanitizedText), 0o644); err != nil {
		return "", fmt.Errorf("cannot write sanitized text: %w", err)
	}

	rec.ContentHash = contentHash
	if rec.CreatedAt == "" {
		rec.CreatedAt = time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	}
	if err := s.writeAtomic(recordPath, rec); err != nil {
		return "", err
	}

	if s.index != nil {
		if err := s.index.Insert(quarantineID, rec); err != nil {
			return "", fmt.Errorf("cannot index quarantine record: %w", err)
		}
	}
	return quarantineID, nil
}

// GetRecord loads a stored quarantine record.
func (s *Store) GetRecord(quarantineID string) (*Record, error) {
	if !validID.MatchString(quarantineID) {
		return nil, fmt.Errorf("invalid quarantine id %q", quarantineID)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	return s.readRecord(quarantineID)
}

// GetView returns a safe view of a quarantined record. The original
// text is redacted and truncated to excerptLimit runes.
func (s *Store) GetView(quarantineID string, excerptLimit int) (*View, error) {
	if !validID.MatchString(quarantineID) {
		return nil, fmt.Errorf("invalid quarantine id %q", quarantineID)
	}
	if excerptLimit <= 0 {
		excerptLimit = DefaultExcerptLimit
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	rec, err := s.readRecord(quarantineID)
	if err != nil {
		return nil, err
	}
	dir := filepath.Join(s.root, quarantineID)
	sanitized, err := os.ReadFile(filepath.Join(dir, sanitizedFilename))
	if err != nil {
		return nil, fmt.Errorf("cannot read sanitized text: %w", err)
	}
	original, err := os.ReadFile(filepath.Join(dir, originalFilename))
	if err != nil {
		return nil, fmt.Errorf("cannot read original text: %w", err)
	}
	redacted, _ := redact.Redact(string(original))
	return &View{
		QuarantineID:    quarantineID,
		OriginalExcerpt: excerpt(redacted, excerptLimit),
		SanitizedText:   string(sanitized),
		Metadata:        *rec,
	}, nil
}

func (s *Store) readRecord(quarantineID string) (*Record, error) {
	data, err := os.ReadFile(filepath.Join(s.root, quarantineID, recordFilename))
	if err != nil {
		return nil, fmt.Errorf("quarantine record %q not found: %w", quarantineID, err)
	}
	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("corrupt quarantine record %q: %w", quarantineID, err)
	}
	return &rec, nil
}

func (s *Store) writeAtomic(path string, rec Record) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("cannot encode quarantine record: %w", err)
	}
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("cannot write quarantine record: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return fmt.Errorf("cannot commit quarantine record: %w", err)
	}
	return nil
}

// excerpt truncates to limit runes with a trailing ellipsis.
func excerpt(text string, limit int) string {
	runes := []rune(text)
	if len(runes) <= limit {
		return text
	}
	return string(runes[:limit]) + "..."
}
