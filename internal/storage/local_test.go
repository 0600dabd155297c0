package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
)

func TestNewOutputDir(t *testing.T) {
	t.Run("creates directory if not exists", func(t *testing.T) {
		dir := filepath.Join(t.TempDir(), "nested", "out")

		out, err := NewOutputDir(dir)
		if err != nil {
			t.Fatalf("NewOutputDir() error = %v", err)
		}
		if out.Dir() != dir {
			t.Errorf("Dir() = %v, want %v", out.Dir(), dir)
		}

		info, err := os.Stat(dir)
		if err != nil {
			t.Fatalf("directory not created: %v", err)
		}
		if !info.IsDir() {
			t.Error("expected directory, got file")
		}
	})

	t.Run("uses default directory when empty", func(t *testing.T) {
		out, err := NewOutputDir("")
		if err != nil {
			t.Fatalf("NewOutputDir() error = %v", err)
		}
		expected := filepath.Join(os.TempDir(), "gridcomposer", "output")
		if out.Dir() != expected {
			t.Errorf("Dir() = %v, want %v", out.Dir(), expected)
		}
	})
}

func TestOutputDir_NewPath(t *testing.T) {
	out, err := NewOutputDir(t.TempDir())
	if err != nil {
		t.Fatalf("NewOutputDir() error = %v", err)
	}

	a := out.NewPath(".jpg")
	b := out.NewPath(".jpg")
	if a == b {
		t.Fatalf("expected unique paths, got %s twice", a)
	}
	if filepath.Dir(a) != out.Dir() {
		t.Errorf("path %s not inside %s", a, out.Dir())
	}
	name := filepath.Base(a)
	if !strings.HasPrefix(name, "composite-") || !strings.HasSuffix(name, ".jpg") {
		t.Errorf("unexpected name %s", name)
	}
	if _, err := os.Stat(a); !os.IsNotExist(err) {
		t.Error("NewPath must not create the file")
	}
}

func TestScratch_ScopeLifecycle(t *testing.T) {
	scratch, err := NewScratch(t.TempDir())
	if err != nil {
		t.Fatalf("NewScratch() error = %v", err)
	}
	ctx := context.Background()

	scope, err := scratch.NewScope(ctx)
	if err != nil {
		t.Fatalf("NewScope() error = %v", err)
	}
	if filepath.Dir(scope.Dir()) != scratch.Root() {
		t.Errorf("scope %s not under root %s", scope.Dir(), scratch.Root())
	}

	p1 := scope.NewPath("scaled-video-0", ".mp4")
	p2 := scope.NewPath("converted-1", ".jpg")
	if !strings.HasPrefix(filepath.Base(p1), "scaled-video-0-") {
		t.Errorf("unexpected name %s", p1)
	}
	for _, p := range []string{p1, p2} {
		if err := os.WriteFile(p, []byte("x"), 0600); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	// Reserved but never written.
	_ = scope.NewPath("image-video-2", ".mp4")

	if got := len(scope.Paths()); got != 3 {
		t.Fatalf("expected 3 tracked paths, got %d", got)
	}

	if errs := scope.Cleanup(); len(errs) != 0 {
		t.Fatalf("Cleanup() errors = %v", errs)
	}
	if _, err := os.Stat(scope.Dir()); !os.IsNotExist(err) {
		t.Error("scope directory still exists")
	}
	if len(scope.Paths()) != 0 {
		t.Error("ledger not cleared")
	}
}

func TestScratch_ScopesAreIsolated(t *testing.T) {
	scratch, err := NewScratch(t.TempDir())
	if err != nil {
		t.Fatalf("NewScratch() error = %v", err)
	}

	const n = 8
	scopes := make([]*Scope, n)
	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			s, err := scratch.NewScope(context.Background())
			if err != nil {
				t.Errorf("NewScope() error = %v", err)
				return
			}
			_ = os.WriteFile(s.NewPath("clip", ".mp4"), []byte("x"), 0600)
			scopes[i] = s
		}(i)
	}
	wg.Wait()

	seen := map[string]bool{}
	for _, s := range scopes {
		if s == nil {
			t.Fatal("scope not created")
		}
		if seen[s.Dir()] {
			t.Fatalf("duplicate scope dir %s", s.Dir())
		}
		seen[s.Dir()] = true
	}

	if errs := scopes[0].Cleanup(); len(errs) != 0 {
		t.Fatalf("Cleanup() errors = %v", errs)
	}
	// Cleaning one scope leaves the others untouched.
	for _, s := range scopes[1:] {
		if _, err := os.Stat(s.Paths()[0]); err != nil {
			t.Errorf("sibling artifact removed: %v", err)
		}
	}
}

func TestScratch_NewScope_Cancelled(t *testing.T) {
	scratch, err := NewScratch(t.TempDir())
	if err != nil {
		t.Fatalf("NewScratch() error = %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err = scratch.NewScope(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("expected context.Canceled, got %v", err)
	}
}

func TestScope_TrackExternalFile(t *testing.T) {
	scratch, err := NewScratch(t.TempDir())
	if err != nil {
		t.Fatalf("NewScratch() error = %v", err)
	}
	scope, err := scratch.NewScope(context.Background())
	if err != nil {
		t.Fatalf("NewScope() error = %v", err)
	}

	outside := filepath.Join(t.TempDir(), "partial.mp4")
	if err := os.WriteFile(outside, []byte("x"), 0600); err != nil {
		t.Fatalf("write: %v", err)
	}
	scope.Track(outside)

	if errs := scope.Cleanup(); len(errs) != 0 {
		t.Fatalf("Cleanup() errors = %v", errs)
	}
	if _, err := os.Stat(outside); !os.IsNotExist(err) {
		t.Error("tracked file not removed")
	}
}
