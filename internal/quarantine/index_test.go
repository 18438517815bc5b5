package quarantine

import (
	"path/filepath"
	"strings"
	"testing"

	"github.com/bridgewarden/bridgewarden/internal/model"
)

func openTestIndex(t *testing.T) *Index {
	t.Helper()
	idx, err := OpenIndex(filepath.Join(t.TempDir(), "index.db"))
	if err != nil {
		t.Fatalf("OpenIndex: %v", err)
	}
	t.Cleanup(func() { idx.Close() })
	return idx
}

func TestIndexInsertAndList(t *testing.T) {
	idx := openTestIndex(t)

	rec := testRecord()
	rec.ContentHash = hashOf("one")
	rec.CreatedAt = "2026-01-01T00:00:00.000Z"
	if err := idx.Insert(BuildID(rec.ContentHash), rec); err != nil {
		t.Fatalf("Insert: %v", err)
	}

	entries, err := idx.List("", 10)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	e := entries[0]
	if e.QuarantineID != BuildID(rec.ContentHash) {
		t.Fatalf("id = %q", e.QuarantineID)
	}
	if e.SourceKind != "local" {
		t.Fatalf("source kind = %q", e.SourceKind)
	}
	if !strings.Contains(e.Reasons, "PROCESS_SABOTAGE") {
		t.Fatalf("reasons = %q", e.Reasons)
	}
}

func TestIndexListFiltersAndOrders(t *testing.T) {
	idx := openTestIndex(t)

	recs := []struct {
		text string
		kind model.SourceKind
		at   string
	}{
		{"a", model.SourceWeb, "2026-01-01T00:00:00.000Z"},
		{"b", model.SourceFile, "2026-01-02T00:00:00.000Z"},
		{"c", model.SourceWeb, "2026-01-03T00:00:00.000Z"},
	}
	for _, r := range recs {
		rec := testRecord()
		rec.ContentHash = hashOf(r.text)
		rec.CreatedAt = r.at
		rec.Source = model.Source{Kind: r.kind}
		if err := idx.Insert(BuildID(rec.ContentHash), rec); err != nil {
			t.Fatal(err)
		}
	}

	web, err := idx.List("web", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(web) != 2 {
		t.Fatalf("web entries = %d", len(web))
	}
	// Newest first.
	if web[0].CreatedAt != "2026-01-03T00:00:00.000Z" {
		t.Fatalf("order wrong: %v", web)
	}

	limited, err := idx.List("", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d", len(limited))
	}
}

func TestIndexInsertReplaces(t *testing.T) {
	idx := openTestIndex(t)

	rec := testRecord()
	rec.ContentHash = hashOf("dup")
	rec.CreatedAt = "2026-01-01T00:00:00.000Z"
	id := BuildID(rec.ContentHash)
	if err := idx.Insert(id, rec); err != nil {
		t.Fatal(err)
	}
	if err := idx.Insert(id, rec); err != nil {
		t.Fatal(err)
	}

	n, err := idx.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("count = %d", n)
	}
}

func TestStoreWithIndexMirrorsPut(t *testing.T) {
	dir := t.TempDir()
	idx := openTestIndex(t)
	store, err := NewStore(filepath.Join(dir, "quarantine"))
	if err != nil {
		t.Fatal(err)
	}
	store = store.WithIndex(idx)

	hash := hashOf("mirrored")
	if _, err := store.Put(hash, "mirrored", "", testRecord()); err != nil {
		t.Fatal(err)
	}

	n, err := idx.Count()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("index count = %d", n)
	}
}
