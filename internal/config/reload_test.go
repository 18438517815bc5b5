package config

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestReloaderAppliesChanges(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("profile: balanced\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	applied := make(chan *Config, 1)
	r, err := NewReloader(path, func(cfg *Config) {
		select {
		case applied <- cfg:
		default:
		}
	})
	if err != nil {
		t.Fatalf("NewReloader: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		defer close(done)
		r.Run(ctx)
	}()

	if err := os.WriteFile(path, []byte("profile: strict\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case cfg := <-applied:
		if cfg.Profile != "strict" {
			t.Fatalf("reloaded profile = %q", cfg.Profile)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("reload callback never fired")
	}

	cancel()
	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("Run did not stop on cancel")
	}
}

func TestNewReloaderMissingFile(t *testing.T) {
	_, err := NewReloader(filepath.Join(t.TempDir(), "absent.yaml"), func(*Config) {})
	if err == nil {
		t.Fatal("expected error for missing file")
	}
}
