// Package filesystem provides a document source backed by a local
// directory tree.
package filesystem

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/vintner-labs/vinsearch/internal/core/domain"
	"github.com/vintner-labs/vinsearch/internal/core/ports/driven"
)

// Ensure Source implements the interfaces.
var (
	_ driven.DocumentSource = (*Source)(nil)
	_ driven.SourceWatcher  = (*Source)(nil)
)

// defaultExtensions are the file extensions treated as documents.
var defaultExtensions = map[string]bool{
	".md":   true,
	".txt":  true,
	".text": true,
}

// Source serves documents from a directory tree. Document paths are
// slash-separated and relative to the root, so the manifest stays
// stable when the corpus moves between machines.
type Source struct {
	root       string
	extensions map[string]bool
}

// Option configures the source.
type Option func(*Source)

// WithExtensions replaces the document file extensions (with leading dot).
func WithExtensions(exts []string) Option {
	return func(s *Source) {
		if len(exts) == 0 {
			return
		}
		s.extensions = make(map[string]bool, len(exts))
		for _, ext := range exts {
			if !strings.HasPrefix(ext, ".") {
				ext = "." + ext
			}
			s.extensions[strings.ToLower(ext)] = true
		}
	}
}

// NewSource creates a filesystem source rooted at dir.
func NewSource(dir string, opts ...Option) (*Source, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, fmt.Errorf("resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("%w: source directory %s", domain.ErrNotFound, dir)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", domain.ErrInvalidInput, dir)
	}

	s := &Source{root: abs, extensions: defaultExtensions}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Root returns the absolute source root.
func (s *Source) Root() string {
	return s.root
}

// Documents walks the tree and lists every document file, sorted by
// path. Hidden directories and files are skipped.
func (s *Source) Documents(ctx context.Context) ([]driven.SourceDocument, error) {
	var docs []driven.SourceDocument

	err := filepath.WalkDir(s.root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctx.Err() != nil {
			return ctx.Err()
		}

		name := d.Name()
		if d.IsDir() {
			if path != s.root && strings.HasPrefix(name, ".") {
				return filepath.SkipDir
			}
			return nil
		}
		if strings.HasPrefix(name, ".") || !s.isDocument(name) {
			return nil
		}

		info, err := d.Info()
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(s.root, path)
		if err != nil {
			return err
		}

		docs = append(docs, driven.SourceDocument{
			Path:       filepath.ToSlash(rel),
			SizeBytes:  info.Size(),
			ModifiedAt: info.ModTime(),
		})
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk %s: %w", s.root, err)
	}

	sort.Slice(docs, func(i, j int) bool { return docs[i].Path < docs[j].Path })
	return docs, nil
}

// Open returns a content stream for a document path.
func (s *Source) Open(_ context.Context, path string) (io.ReadCloser, error) {
	full := filepath.Join(s.root, filepath.FromSlash(path))

	// Reject paths that escape the root.
	if rel, err := filepath.Rel(s.root, full); err != nil || strings.HasPrefix(rel, "..") {
		return nil, fmt.Errorf("%w: path %s escapes source root", domain.ErrInvalidInput, path)
	}

	f, err := os.Open(full)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", domain.ErrNotFound, path)
		}
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	return f, nil
}

// isDocument reports whether a file name has a document extension.
func (s *Source) isDocument(name string) bool {
	return s.extensions[strings.ToLower(filepath.Ext(name))]
}
