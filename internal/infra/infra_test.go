package infra

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestGuardConvertsPanic(t *testing.T) {
	t.Parallel()

	err := Guard("update", func() error {
		panic("boom")
	})
	if err == nil || !strings.Contains(err.Error(), `job "update" panicked: boom`) {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestGuardPassesThroughErrors(t *testing.T) {
	t.Parallel()

	want := errors.New("plain")
	if err := Guard("update", func() error { return want }); !errors.Is(err, want) {
		t.Fatalf("unexpected error: %v", err)
	}
	if err := Guard("update", func() error { return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestWatchFileFiresOnModification(t *testing.T) {
	t.Parallel()

	path := filepath.Join(t.TempDir(), "bin")
	if err := os.WriteFile(path, []byte("v1"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ch := watchFile(ctx, path, 10*time.Millisecond)
	future := time.Now().Add(time.Hour)
	if err := os.Chtimes(path, future, future); err != nil {
		t.Fatalf("chtimes: %v", err)
	}

	select {
	case <-ch:
	case <-time.After(2 * time.Second):
		t.Fatalf("watcher did not fire")
	}
}
