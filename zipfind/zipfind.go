// Package zipfind resolves zip and jar scheme locations. A location names
// an archive on the local filesystem, optionally with an inner root after
// a "!/" separator: zip:/srv/app/bundle.zip!/com/acme yields the entries
// of bundle.zip beneath com/acme. The archive is read once at creation
// and served from memory, so finders stay valid if the file is replaced
// mid-iteration.
package zipfind

import (
	"context"
	"fmt"
	"net/url"
	"path/filepath"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
	"github.com/input-output-hk/catalyst-forge-libs/resscan/internal/archive"
)

// Factory creates in-memory finders over zip archives.
type Factory struct{}

// NewFactory returns a factory handling zip and jar locations.
func NewFactory() *Factory { return &Factory{} }

// Schemes reports the scheme tokens this factory serves.
func (*Factory) Schemes() []string { return []string{"zip", "jar"} }

// Create loads the archive named by loc and returns a finder over the
// entries beneath its inner root. The archive file must exist; an inner
// root with no entries yields an empty finder.
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
		return nil, fmt.Errorf("zipfind: location %q has no archive path", loc)
	}
	contents, err := archive.LoadZip(filepath.FromSlash(archivePath), inner)
	if err != nil {
		return nil, fmt.Errorf("zipfind: %w", err)
	}
	return archive.NewFinder(contents), nil
}
