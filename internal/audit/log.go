// Package audit writes one JSONL event per guard decision. Events
// carry metadata only; original or sanitized content never reaches the
// log.
package audit

import (
	"bufio"
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
	"unicode/utf16"

	"github.com/bridgewarden/bridgewarden/internal/model"
)

// Event is the audit record for one guard decision. Fields marshal in
// declaration order, kept alphabetical so logs diff cleanly.
type Event struct {
	ApprovalID    string             `json:"approval_id"`
	CacheHit      bool               `json:"cache_hit"`
	ContentHash   string             `json:"content_hash"`
	Decision      model.Decision     `json:"decision"`
	PolicyVersion string             `json:"policy_version"`
	QuarantineID  string             `json:"quarantine_id"`
	Reasons       []model.ReasonCode `json:"reasons"`
	Redactions    []model.Redaction  `json:"redactions"`
	RiskScore     float64            `json:"risk_score"`
	Source        model.Source       `json:"source"`
	Timestamp     string             `json:"timestamp"`
}

// BuildEvent creates an audit event from a guard result. An empty
// timestamp means now.
func BuildEvent(result *model.GuardResult, timestamp string) Event {
	if timestamp == "" {
		timestamp = time.Now().UTC().Format("2006-01-02T15:04:05.000Z")
	}
	return Event{
		ApprovalID:    result.ApprovalID,
		CacheHit:      result.CacheHit,
		ContentHash:   result.ContentHash,
		Decision:      result.Decision,
		PolicyVersion: result.PolicyVersion,
		QuarantineID:  result.QuarantineID,
		Reasons:       result.Reasons,
		Redactions:    result.Redactions,
		RiskScore:     result.RiskScore,
		Source:        result.Source,
		Timestamp:     timestamp,
	}
}

// Logger is an append-only JSONL audit log writer.
type Logger struct {
	path string
	file *os.File
	mu   sync.Mutex
}

// Open opens (or creates) an audit log file for appending.
func Open(path string) (*Logger, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
		return nil, fmt.Errorf("audit: create directory: %w", err)
	}
	file, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o600)
	if err != nil {
		return nil, fmt.Errorf("audit: open file: %w", err)
	}
	return &Logger{path: path, file: file}, nil
}

// Record appends a guard result to the log.
func (l *Logger) Record(result *model.GuardResult) error {
	return l.RecordAt(result, "")
}

// RecordAt appends a guard result with an explicit timestamp.
func (l *Logger) RecordAt(result *model.GuardResult, timestamp string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	line, err := json.Marshal(BuildEvent(result, timestamp))
	if err != nil {
		return fmt.Errorf("audit: marshal event: %w", err)
	}
	line = asciiEscape(line)
	if _, err := l.file.Write(append(line, '\n')); err != nil {
		return fmt.Errorf("audit: write event: %w", err)
	}
	if err := l.file.Sync(); err != nil {
		return fmt.Errorf("audit: sync: %w", err)
	}
	return nil
}

// asciiEscape rewrites non-ASCII runes in a marshaled JSON line as
// \uXXXX escapes so the log stays plain ASCII regardless of source
// paths or URLs. Runes beyond the basic plane become surrogate pairs,
// which JSON decoders reassemble.
func asciiEscape(line []byte) []byte {
	ascii := true
	for _, b := range line {
		if b >= 0x80 {
			ascii = false
			break
		}
	}
	if ascii {
		return line
	}
	var buf bytes.Buffer
	buf.Grow(len(line) + 16)
	for _, r := range string(line) {
		switch {
		case r < 0x80:
			buf.WriteByte(byte(r))
		case r > 0xFFFF:
			hi, lo := utf16.EncodeRune(r)
			fmt.Fprintf(&buf, `\u%04x\u%04x`, hi, lo)
		default:
			fmt.Fprintf(&buf, `\u%04x`, r)
		}
	}
	return buf.Bytes()
}

// Close flushes and closes the underlying file.
func (l *Logger) Close() error {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.file.Close()
}

// Scan reads every event in a JSONL audit log. A missing file yields
// an empty slice.
func Scan(path string) ([]Event, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return []Event{}, nil
		}
		return nil, fmt.Errorf("audit: open log: %w", err)
	}
	defer f.Close()

	events := []Event{}
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		var ev Event
		if err := json.Unmarshal(line, &ev); err != nil {
			return nil, fmt.Errorf("audit: corrupt log line: %w", err)
		}
		events = append(events, ev)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("audit: scan log: %w", err)
	}
	return events, nil
}
