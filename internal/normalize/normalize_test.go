package normalize

import "testing"

func TestNormalizePlainTextUnchanged(t *testing.T) {
	got := Normalize("hello world")
	if got.Text != "hello world" {
		t.Fatalf("expected unchanged text, got %q", got.Text)
	}
	if got.UnicodeSuspicious {
		t.Fatal("plain text must not be flagged suspicious")
	}
}

func TestNormalizeUnifiesNewlines(t *testing.T) {
	got := Normalize("a\r\nb\rc\nd")
	if got.Text != "a\nb\nc\nd" {
		t.Fatalf("newlines not unified: %q", got.Text)
	}
	if got.UnicodeSuspicious {
		t.Fatal("newline folding must not set the suspicious flag")
	}
}

func TestNormalizeStripsBidiAndZeroWidth(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"rtl override", "safe\u202Eevil", "safeevil"},
		{"isolate pair", "a\u2066b\u2069c", "abc"},
		{"zero width space", "pass\u200Bword", "password"},
		{"zero width joiner", "a\u200Db", "ab"},
		{"word joiner", "a\u2060b", "ab"},
		{"mid-text bom", "\uFEFFhead", "head"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Normalize(tt.input)
			if got.Text != tt.want {
				t.Fatalf("got %q, want %q", got.Text, tt.want)
			}
			if !got.UnicodeSuspicious {
				t.Fatal("expected suspicious flag after stripping")
			}
		})
	}
}

func TestNormalizeAppliesNFKC(t *testing.T) {
	// Fullwidth letters compatibility-fold to ASCII.
	got := Normalize("ｉｇｎｏｒｅ")
	if got.Text != "ignore" {
		t.Fatalf("NFKC fold failed: %q", got.Text)
	}
}

func TestNormalizeEmptyInput(t *testing.T) {
	got := Normalize("")
	if got.Text != "" || got.UnicodeSuspicious {
		t.Fatalf("unexpected result for empty input: %+v", got)
	}
}

func TestNormalizeIdempotent(t *testing.T) {
	inputs := []string{
		"hello",
		"a\r\nb\u202E\u200Bc",
		"ａｂｃ mixed \u2066text\u2069",
	}
	for _, in := range inputs {
		once := Normalize(in)
		twice := Normalize(once.Text)
		if twice.Text != once.Text {
			t.Fatalf("not idempotent for %q: %q != %q", in, twice.Text, once.Text)
		}
		if twice.UnicodeSuspicious {
			t.Fatalf("second pass flagged %q suspicious", once.Text)
		}
	}
}
