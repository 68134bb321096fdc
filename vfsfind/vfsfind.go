// Package vfsfind resolves vfs scheme locations against billy filesystems
// registered under mount names. A location such as vfs://fixtures/com/acme
// selects the filesystem mounted as "fixtures" and iterates the regular
// files beneath /com/acme. Mounts are typically in-memory filesystems in
// tests or chroots of larger trees; the scanner wires them in through its
// mounts option.
package vfsfind

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"os"
	"path"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/util"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
)

// Factory creates finders over named billy filesystem mounts.
type Factory struct {
	mounts map[string]billy.Filesystem
}

// NewFactory returns a factory serving the given mounts. Mount names are
// matched case-insensitively against the location host. The map is copied;
// later changes by the caller are not seen.
func NewFactory(mounts map[string]billy.Filesystem) *Factory {
	m := make(map[string]billy.Filesystem, len(mounts))
	for name, fsys := range mounts {
		m[strings.ToLower(name)] = fsys
	}
	return &Factory{mounts: m}
}

// Schemes reports the scheme tokens this factory serves.
func (*Factory) Schemes() []string { return []string{"vfs"} }

// Create walks the mounted filesystem named by the location host and
// returns a finder over the regular files beneath the location path. An
// unknown mount name is a discovery failure; a mount without content under
// the path yields an empty finder.
func (f *Factory) Create(ctx context.Context, loc *url.URL) (core.Finder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	mountName := strings.ToLower(loc.Host)
	if mountName == "" {
		return nil, fmt.Errorf("vfsfind: location %q has no mount name", loc)
	}
	mount, ok := f.mounts[mountName]
	if !ok {
		return nil, fmt.Errorf("vfsfind: no filesystem mounted at %q", loc.Host)
	}

	root := path.Clean("/" + loc.Path)
	names, err := listMount(mount, root)
	if err != nil {
		return nil, err
	}
	return &Finder{mount: mount, root: root, names: names}, nil
}

// listMount collects the root-relative slash paths of every regular file
// under root, sorted. A root that does not exist yields no names.
func listMount(mount billy.Filesystem, root string) ([]string, error) {
	if _, err := mount.Stat(root); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("vfsfind: stat %q: %w", root, err)
	}

	var names []string
	err := util.Walk(mount, root, func(p string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if !info.Mode().IsRegular() {
			return nil
		}
		rel := strings.TrimPrefix(strings.TrimPrefix(p, root), "/")
		if rel == "" {
			return nil
		}
		names = append(names, rel)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("vfsfind: walk %q: %w", root, err)
	}
	sort.Strings(names)
	return names, nil
}

// Finder iterates the regular files discovered under a mount root.
// It is not safe for concurrent use.
type Finder struct {
	mount   billy.Filesystem
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
	rc, err := f.mount.Open(path.Join(f.root, f.current))
	if err != nil {
		return nil, fmt.Errorf("vfsfind: open %q: %w", f.current, err)
	}
	return rc, nil
}

// Remove deletes the current resource from the mount.
func (f *Finder) Remove() error {
	if !f.valid {
		return core.ErrStaleCursor
	}
	if err := f.mount.Remove(path.Join(f.root, f.current)); err != nil {
		return fmt.Errorf("vfsfind: remove %q: %w", f.current, err)
	}
	return nil
}

// Reset rewinds the finder, walking the mount again so that files added or
// removed since creation are reflected.
func (f *Finder) Reset() error {
	names, err := listMount(f.mount, f.root)
	if err != nil {
		return err
	}
	f.names = names
	f.pos = 0
	f.valid = false
	return nil
}
