package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
)

// Token returns a new globally unique name token.
func Token() string {
	return uuid.NewString()
}

// OutputDir names finished composites inside a fixed directory.
type OutputDir struct {
	dir string
}

// NewOutputDir creates the directory if needed.
// If dir is empty, a "gridcomposer/output" directory under os.TempDir() is used.
func NewOutputDir(dir string) (*OutputDir, error) {
	if dir == "" {
		dir = filepath.Join(os.TempDir(), "gridcomposer", "output")
	}
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create output directory: %w", err)
	}
	return &OutputDir{dir: dir}, nil
}

// Dir returns the output directory path.
func (o *OutputDir) Dir() string {
	return o.dir
}

// NewPath returns an unused path of the form composite-<token><ext>.
// No file is created.
func (o *OutputDir) NewPath(ext string) string {
	return filepath.Join(o.dir, "composite-"+Token()+ext)
}

// Scratch is the root directory under which each request gets its own
// private scope.
type Scratch struct {
	root string
}

// NewScratch creates the scratch root if needed.
// If root is empty, a "gridcomposer/scratch" directory under os.TempDir() is used.
func NewScratch(root string) (*Scratch, error) {
	if root == "" {
		root = filepath.Join(os.TempDir(), "gridcomposer", "scratch")
	}
	if err := os.MkdirAll(root, 0750); err != nil {
		return nil, fmt.Errorf("create scratch directory: %w", err)
	}
	return &Scratch{root: root}, nil
}

// Root returns the scratch root directory.
func (s *Scratch) Root() string {
	return s.root
}

// NewScope creates a private subdirectory for one request.
func (s *Scratch) NewScope(ctx context.Context) (*Scope, error) {
	select {
	case <-ctx.Done():
		return nil, fmt.Errorf("context cancelled: %w", ctx.Err())
	default:
	}

	dir, err := os.MkdirTemp(s.root, "req-"+Token()+"-")
	if err != nil {
		return nil, fmt.Errorf("create request scope: %w", err)
	}
	return &Scope{dir: dir}, nil
}

// Scope is the temp-file ledger of a single request. Every path it hands
// out or is told about is removed by Cleanup, together with the scope
// directory itself.
type Scope struct {
	mu    sync.Mutex
	dir   string
	paths []string
}

// Dir returns the scope directory.
func (s *Scope) Dir() string {
	return s.dir
}

// NewPath reserves and records a unique path named <prefix>-<token><ext>.
func (s *Scope) NewPath(prefix, ext string) string {
	p := filepath.Join(s.dir, prefix+"-"+Token()+ext)
	s.Track(p)
	return p
}

// Track records an externally created artifact for cleanup.
func (s *Scope) Track(path string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.paths = append(s.paths, path)
}

// Paths returns a copy of the recorded paths in creation order.
func (s *Scope) Paths() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, len(s.paths))
	copy(out, s.paths)
	return out
}

// Cleanup removes every recorded artifact and then the scope directory.
// It continues past individual failures and returns one error per path
// that could not be removed. Files that were never created are not errors.
func (s *Scope) Cleanup() []error {
	s.mu.Lock()
	paths := s.paths
	s.paths = nil
	s.mu.Unlock()

	var errs []error
	for _, p := range paths {
		if err := os.Remove(p); err != nil && !os.IsNotExist(err) {
			errs = append(errs, fmt.Errorf("remove temp file %s: %w", p, err))
		}
	}
	if err := os.RemoveAll(s.dir); err != nil {
		errs = append(errs, fmt.Errorf("remove scope %s: %w", s.dir, err))
	}
	return errs
}
