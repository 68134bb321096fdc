// Package gitfind resolves git scheme locations against local
// repositories. A location names a repository directory, optionally with
// an inner root after "!/" and a revision in the ref query parameter:
//
//	git:/srv/repos/content!/docs/guides?ref=v1.2.0
//
// Resolution reads the tree of the named revision (HEAD when no ref is
// given) without touching the worktree, so finders see committed content
// only and stay coherent while the repository advances. Trees are
// immutable; Remove is not supported.
package gitfind

import (
	"context"
	"fmt"
	"io"
	"net/url"
	"path"
	"path/filepath"
	"strings"

	gogit "github.com/go-git/go-git/v5"
	"github.com/go-git/go-git/v5/plumbing"
	"github.com/go-git/go-git/v5/plumbing/object"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
	"github.com/input-output-hk/catalyst-forge-libs/resscan/internal/archive"
)

// Factory creates finders over committed git trees.
type Factory struct{}

// NewFactory returns a factory handling git locations.
func NewFactory() *Factory { return &Factory{} }

// Schemes reports the scheme tokens this factory serves.
func (*Factory) Schemes() []string { return []string{"git"} }

// Create opens the repository named by loc, resolves the requested
// revision to a commit tree, and returns a finder over the blobs beneath
// the inner root. The repository and revision must resolve; an inner root
// with no blobs yields an empty finder.
func (*Factory) Create(ctx context.Context, loc *url.URL) (core.Finder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := loc.Path
	if p == "" {
		p = loc.Opaque
	}
	repoPath, inner := archive.SplitPath(p)
	if repoPath == "" {
		return nil, fmt.Errorf("gitfind: location %q has no repository path", loc)
	}

	repo, err := gogit.PlainOpen(filepath.FromSlash(repoPath))
	if err != nil {
		return nil, fmt.Errorf("gitfind: open repository %q: %w", repoPath, err)
	}

	tree, err := resolveTree(repo, loc.Query().Get("ref"))
	if err != nil {
		return nil, err
	}

	var names []string
	err = tree.Files().ForEach(func(f *object.File) error {
		name := f.Name
		if inner != "" {
			rel, ok := strings.CutPrefix(name, inner+"/")
			if !ok {
				return nil
			}
			name = rel
		}
		names = append(names, name)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("gitfind: walk tree: %w", err)
	}

	return &Finder{tree: tree, inner: inner, names: names}, nil
}

// resolveTree maps a revision expression to its commit tree. An empty
// revision means HEAD. Annotated tags are peeled to their target commit.
func resolveTree(repo *gogit.Repository, rev string) (*object.Tree, error) {
	var hash plumbing.Hash
	if rev == "" {
		head, err := repo.Head()
		if err != nil {
			return nil, fmt.Errorf("gitfind: resolve HEAD: %w", err)
		}
		hash = head.Hash()
	} else {
		h, err := repo.ResolveRevision(plumbing.Revision(rev))
		if err != nil {
			return nil, fmt.Errorf("gitfind: resolve revision %q: %w", rev, err)
		}
		hash = *h
	}

	commit, err := repo.CommitObject(hash)
	if err != nil {
		if tag, tagErr := repo.TagObject(hash); tagErr == nil {
			commit, err = tag.Commit()
		}
		if err != nil {
			return nil, fmt.Errorf("gitfind: load commit %s: %w", hash, err)
		}
	}

	tree, err := commit.Tree()
	if err != nil {
		return nil, fmt.Errorf("gitfind: load tree for %s: %w", hash, err)
	}
	return tree, nil
}

// Finder iterates the blobs of one committed tree.
// It is not safe for concurrent use.
type Finder struct {
	tree    *object.Tree
	inner   string
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

// Open returns the content of the current blob.
func (f *Finder) Open() (io.ReadCloser, error) {
	if !f.valid {
		return nil, core.ErrStaleCursor
	}
	file, err := f.tree.File(path.Join(f.inner, f.current))
	if err != nil {
		return nil, fmt.Errorf("gitfind: open %q: %w", f.current, err)
	}
	rc, err := file.Reader()
	if err != nil {
		return nil, fmt.Errorf("gitfind: open %q: %w", f.current, err)
	}
	return rc, nil
}

// Remove is not supported: committed trees are read-only.
func (f *Finder) Remove() error {
	if !f.valid {
		return core.ErrStaleCursor
	}
	return core.ErrRemoveUnsupported
}

// Reset rewinds the cursor. The tree is pinned at creation, so the same
// names replay in the same order.
func (f *Finder) Reset() error {
	f.pos = 0
	f.valid = false
	return nil
}
