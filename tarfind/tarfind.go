// Package tarfind resolves tar and tgz scheme locations. A location names
// a tarball on the local filesystem, optionally with an inner root after a
// "!/" separator. Gzip compression is sniffed from the stream header
// rather than the scheme, so tar:/srv/layers/base.tar.gz works as well as
// tgz:/srv/layers/base.tgz. Entries are read once at creation and served
// from memory.
package tarfind

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
	"github.com/input-output-hk/catalyst-forge-libs/resscan/internal/archive"
)

// Factory creates in-memory finders over tar archives.
type Factory struct{}

// NewFactory returns a factory handling tar and tgz locations.
func NewFactory() *Factory { return &Factory{} }

// Schemes reports the scheme tokens this factory serves.
func (*Factory) Schemes() []string { return []string{"tar", "tgz"} }

// Create loads the tarball named by loc and returns a finder over the
// entries beneath its inner root. The tarball must exist; an inner root
// with no entries yields an empty finder.
func (*Factory) Create(ctx context.Context, loc *url.URL) (core.Finder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := loc.Path
	if p == "" {
		p = loc.Opaque
	}
	archivePath, inner := archive.SplitPath(p)
	if archivePath == "" {
		return nil, fmt.Errorf("tarfind: location %q has no archive path", loc)
	}
	contents, err := archive.LoadTarFile(filepath.FromSlash(archivePath), inner)
	if err != nil {
		return nil, fmt.Errorf("tarfind: %w", err)
	}
	return archive.NewFinder(contents), nil
}
