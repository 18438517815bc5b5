package approval

import (
	"fmt"
	"regexp"
	"testing"
)

func newTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	store, err := NewStore(t.TempDir(), opts...)
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return store
}

// sequentialIDs returns an id factory producing a_000...0, a_000...1, etc.
func sequentialIDs() func() string {
	n := 0
	return func() string {
		id := fmt.Sprintf("a_%032x", n)
		n++
		return id
	}
}

func fixedClock(ts string) func() string {
	return func() string { return ts }
}

func TestRequestCreatesPending(t *testing.T) {
	store := newTestStore(t, WithClock(fixedClock("2026-01-01T00:00:00.000Z")))

	rec, err := store.Request(Request{Kind: KindWebDomain, Target: "docs.example.com"})
	if err != nil {
		t.Fatalf("Request: %v", err)
	}
	if !regexp.MustCompile(`^a_[0-9a-f]{32}$`).MatchString(rec.ApprovalID) {
		t.Fatalf("approval id = %q", rec.ApprovalID)
	}
	if rec.Status != StatusPending {
		t.Fatalf("status = %q", rec.Status)
	}
	if rec.CreatedAt != "2026-01-01T00:00:00.000Z" {
		t.Fatalf("created_at = %q", rec.CreatedAt)
	}

	got, err := store.Get(rec.ApprovalID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Target != "docs.example.com" || got.Kind != KindWebDomain {
		t.Fatalf("record = %+v", got)
	}
}

func TestGetRejectsBadID(t *testing.T) {
	store := newTestStore(t)
	for _, id := range []string{"", "a_short", "../escape", "a_XYZ"} {
		if _, err := store.Get(id); err == nil {
			t.Fatalf("id %q accepted", id)
		}
	}
}

func TestDecideApprove(t *testing.T) {
	store := newTestStore(t, WithClock(fixedClock("2026-01-01T00:00:00.000Z")))
	rec, err := store.Request(Request{Kind: KindWebDomain, Target: "docs.example.com"})
	if err != nil {
		t.Fatal(err)
	}

	decided, err := store.Decide(rec.ApprovalID, StatusApproved, "looks fine", "alex")
	if err != nil {
		t.Fatalf("Decide: %v", err)
	}
	if decided.Status != StatusApproved {
		t.Fatalf("status = %q", decided.Status)
	}
	if decided.DecidedAt == "" || decided.DecidedBy != "alex" || decided.Notes != "looks fine" {
		t.Fatalf("record = %+v", decided)
	}
}

func TestDecideNonPendingIsNoOp(t *testing.T) {
	store := newTestStore(t)
	rec, err := store.Request(Request{Kind: KindRepoURL, Target: "https://github.com/acme/tool"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Decide(rec.ApprovalID, StatusDenied, "", ""); err != nil {
		t.Fatal(err)
	}

	// A later approve must not flip the denied record.
	after, err := store.Decide(rec.ApprovalID, StatusApproved, "", "")
	if err != nil {
		t.Fatal(err)
	}
	if after.Status != StatusDenied {
		t.Fatalf("status flipped: %q", after.Status)
	}
}

func TestDecideRejectsInvalidDecision(t *testing.T) {
	store := newTestStore(t)
	rec, err := store.Request(Request{Kind: KindWebDomain, Target: "x.example"})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := store.Decide(rec.ApprovalID, "MAYBE", "", ""); err == nil {
		t.Fatal("invalid decision accepted")
	}
}

func TestListFiltersAndLimit(t *testing.T) {
	store := newTestStore(t, WithIDFactory(sequentialIDs()))

	targets := []struct {
		kind   string
		target string
	}{
		{KindWebDomain, "a.example"},
		{KindWebDomain, "b.example"},
		{KindRepoURL, "https://github.com/acme/tool"},
	}
	var ids []string
	for _, tgt := range targets {
		rec, err := store.Request(Request{Kind: tgt.kind, Target: tgt.target})
		if err != nil {
			t.Fatal(err)
		}
		ids = append(ids, rec.ApprovalID)
	}
	if _, err := store.Decide(ids[0], StatusApproved, "", ""); err != nil {
		t.Fatal(err)
	}

	pending, err := store.List(StatusPending, "", 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(pending) != 2 {
		t.Fatalf("pending = %d", len(pending))
	}

	webOnly, err := store.List("", KindWebDomain, 0)
	if err != nil {
		t.Fatal(err)
	}
	if len(webOnly) != 2 {
		t.Fatalf("web records = %d", len(webOnly))
	}

	limited, err := store.List("", "", 1)
	if err != nil {
		t.Fatal(err)
	}
	if len(limited) != 1 {
		t.Fatalf("limit ignored: %d", len(limited))
	}
	// Filename order: the first sequential id sorts first.
	if limited[0].ApprovalID != ids[0] {
		t.Fatalf("order wrong: %q", limited[0].ApprovalID)
	}
}

func TestIsApproved(t *testing.T) {
	store := newTestStore(t)
	rec, err := store.Request(Request{Kind: KindWebDomain, Target: "docs.example.com"})
	if err != nil {
		t.Fatal(err)
	}

	ok, err := store.IsApproved(KindWebDomain, "docs.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("pending target reported approved")
	}

	if _, err := store.Decide(rec.ApprovalID, StatusApproved, "", ""); err != nil {
		t.Fatal(err)
	}
	ok, err = store.IsApproved(KindWebDomain, "docs.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if !ok {
		t.Fatal("approved target not reported")
	}

	// Kind must match too.
	ok, err = store.IsApproved(KindRepoURL, "docs.example.com")
	if err != nil {
		t.Fatal(err)
	}
	if ok {
		t.Fatal("kind mismatch reported approved")
	}
}
