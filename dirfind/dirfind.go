// Package dirfind resolves file scheme locations against the local
// filesystem. A location such as file:/srv/app/resources/com/acme names a
// directory; the finder walks it once, eagerly, and then serves the
// collected resource names as a cursor. Open and Remove touch the disk
// lazily, so a resource deleted between discovery and Open surfaces as an
// error at Open time rather than silently vanishing.
package dirfind

import (
	"context"
	"fmt"
	"io"
	"io/fs"
	"net/url"
	"os"
	"path/filepath"

	securejoin "github.com/cyphar/filepath-securejoin"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
)

// Factory creates directory finders for the file scheme.
type Factory struct{}

// NewFactory returns a factory handling file locations.
func NewFactory() *Factory { return &Factory{} }

// Schemes reports the scheme tokens this factory serves.
func (*Factory) Schemes() []string { return []string{"file"} }

// Create walks the directory named by loc and returns a finder over the
// regular files beneath it. The directory must exist; a missing root is a
// discovery failure, not an empty result.
func (*Factory) Create(ctx context.Context, loc *url.URL) (core.Finder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	root := loc.Path
	if root == "" {
		root = loc.Opaque
	}
	if root == "" {
		return nil, fmt.Errorf("dirfind: location %q has no path", loc)
	}
	root = filepath.FromSlash(root)

	info, err := os.Stat(root)
	if err != nil {
		return nil, fmt.Errorf("dirfind: stat %q: %w", root, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("dirfind: %q is not a directory", root)
	}

	names, err := listDir(root)
	if err != nil {
		return nil, err
	}
	return &Finder{root: root, names: names}, nil
}

// listDir collects the root-relative slash paths of every regular file
// under root, in lexical walk order.
func listDir(root string) ([]string, error) {
	var names []string
	err := filepath.WalkDir(root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			return err
		}
		names = append(names, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("dirfind: walk %q: %w", root, err)
	}
	return names, nil
}

// Finder iterates the regular files discovered under a directory root.
// It is not safe for concurrent use.
type Finder struct {
	root    string
	names   []string
	pos     int
	current string
	valid   bool
}

// HasNext reports whether another resource remains.
func (f *Finder) HasNext() bool { return f.pos < len(f.names) }

// Next advances to the next resource and returns its name.
func (f *Finder) Next() (string, error) {
	if !f.HasNext() {
		f.valid = false
		return "", core.ErrExhausted
	}
	f.current = f.names[f.pos]
	f.pos++
	f.valid = true
	return f.current, nil
}

// Open returns the content of the current resource.
func (f *Finder) Open() (io.ReadCloser, error) {
	if !f.valid {
		return nil, core.ErrStaleCursor
	}
	p, err := securejoin.SecureJoin(f.root, filepath.FromSlash(f.current))
	if err != nil {
		return nil, fmt.Errorf("dirfind: open %q: %w", f.current, err)
	}
	rc, err := os.Open(p)
	if err != nil {
		return nil, fmt.Errorf("dirfind: open %q: %w", f.current, err)
	}
	return rc, nil
}

// Remove deletes the current resource from the directory.
func (f *Finder) Remove() error {
	if !f.valid {
		return core.ErrStaleCursor
	}
	p, err := securejoin.SecureJoin(f.root, filepath.FromSlash(f.current))
	if err != nil {
		return fmt.Errorf("dirfind: remove %q: %w", f.current, err)
	}
	if err := os.Remove(p); err != nil {
		return fmt.Errorf("dirfind: remove %q: %w", f.current, err)
	}
	return nil
}

// Reset rewinds the finder, walking the directory again so that files
// added or removed since creation are reflected.
func (f *Finder) Reset() error {
	names, err := listDir(f.root)
	if err != nil {
		return err
	}
	f.names = names
	f.pos = 0
	f.valid = false
	return nil
}
