package tools

import "testing"

func TestNormalizeRawFileURL(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{
			"github blob",
			"https://github.com/acme/repo/blob/main/docs/guide.md",
			"https://raw.githubusercontent.com/acme/repo/main/docs/guide.md",
		},
		{
			"github raw page",
			"https://github.com/acme/repo/raw/v1.0/README.md",
			"https://raw.githubusercontent.com/acme/repo/v1.0/README.md",
		},
		{
			"github repo root untouched",
			"https://github.com/acme/repo",
			"https://github.com/acme/repo",
		},
		{
			"gitlab blob",
			"https://gitlab.com/group/project/-/blob/main/src/main.go",
			"https://gitlab.com/group/project/-/raw/main/src/main.go",
		},
		{
			"self-hosted gitlab blob",
			"https://git.internal.example/team/tool/-/blob/dev/cmd/run.sh",
			"https://git.internal.example/team/tool/-/raw/dev/cmd/run.sh",
		},
		{
			"bitbucket src",
			"https://bitbucket.org/acme/repo/src/main/setup.py",
			"https://bitbucket.org/acme/repo/raw/main/setup.py",
		},
		{
			"plain page untouched",
			"https://docs.example.com/guide.html",
			"https://docs.example.com/guide.html",
		},
		{
			"gitlab blob query dropped",
			"https://gitlab.com/group/project/-/blob/main/a.md?plain=1",
			"https://gitlab.com/group/project/-/raw/main/a.md",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := normalizeRawFileURL(tt.input); got != tt.want {
				t.Fatalf("normalizeRawFileURL(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}
