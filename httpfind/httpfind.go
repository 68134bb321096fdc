// Package httpfind resolves http and https scheme locations naming remote
// archive bundles. A location carries the bundle URL and an inner root
// after "!/":
//
//	https://cdn.example.com/bundles/app-1.4.zip!/com/acme
//
// The bundle downloads once into a local cache keyed by URL; later finders
// for the same bundle read the cached copy. Zip, jar, tar, and tgz bundles
// are recognized by extension. Remote content is read-only; Remove is not
// supported.
package httpfind

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
	"github.com/input-output-hk/catalyst-forge-libs/resscan/internal/archive"
)

// cacheSubdir is the directory under the user cache root that holds
// downloaded bundles.
const cacheSubdir = "forge-resscan"

// Factory creates finders over remote archive bundles.
type Factory struct {
	client   *http.Client
	cacheDir string
}

// NewFactory returns a factory handling http and https locations.
func NewFactory(opts ...Option) *Factory {
	var o options
	for _, opt := range opts {
		opt(&o)
	}
	if o.client == nil {
		o.client = http.DefaultClient
	}
	if o.cacheDir == "" {
		o.cacheDir = filepath.Join(xdg.CacheHome, cacheSubdir)
	}
	return &Factory{client: o.client, cacheDir: o.cacheDir}
}

// Schemes reports the scheme tokens this factory serves.
func (*Factory) Schemes() []string { return []string{"http", "https"} }

// Create downloads the bundle named by loc unless already cached and
// returns a finder over the entries beneath its inner root. A failed
// download or an unrecognized bundle format is a discovery failure; an
// inner root with no entries yields an empty finder.
func (f *Factory) Create(ctx context.Context, loc *url.URL) (core.Finder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	remotePath, inner := archive.SplitPath(loc.Path)
	remote := *loc
	remote.Path = remotePath
	remote.RawPath = ""
	remote.Fragment = ""
	remote.RawFragment = ""

	ext := strings.ToLower(path.Ext(remotePath))
	switch ext {
	case ".zip", ".jar", ".tar", ".tgz", ".gz":
	default:
		return nil, fmt.Errorf("httpfind: %q has no recognized archive extension", remotePath)
	}

	sum := sha256.Sum256([]byte(remote.String()))
	cachePath := filepath.Join(f.cacheDir, hex.EncodeToString(sum[:])+ext)

	if _, err := os.Stat(cachePath); errors.Is(err, os.ErrNotExist) {
		if err := f.fetch(ctx, &remote, cachePath); err != nil {
			return nil, err
		}
	} else if err != nil {
		return nil, fmt.Errorf("httpfind: probe cache: %w", err)
	}

	contents, err := loadCached(cachePath, ext, inner)
	if err != nil {
		return nil, fmt.Errorf("httpfind: %w", err)
	}
	return archive.NewFinder(contents), nil
}

// fetch downloads the bundle into the cache. The download lands in a
// temporary file and renames into place, so concurrent fetches of the
// same bundle never expose a partial archive.
func (f *Factory) fetch(ctx context.Context, remote *url.URL, cachePath string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, remote.String(), nil)
	if err != nil {
		return fmt.Errorf("httpfind: build request for %s: %w", remote, err)
	}
	resp, err := f.client.Do(req)
	if err != nil {
		return fmt.Errorf("httpfind: fetch %s: %w", remote, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("httpfind: fetch %s: unexpected status %s", remote, resp.Status)
	}

	if err := os.MkdirAll(filepath.Dir(cachePath), 0o755); err != nil {
		return fmt.Errorf("httpfind: create cache dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(cachePath), "download-*")
	if err != nil {
		return fmt.Errorf("httpfind: create cache file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return fmt.Errorf("httpfind: download %s: %w", remote, err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("httpfind: write cache file: %w", err)
	}
	if err := os.Rename(tmp.Name(), cachePath); err != nil {
		return fmt.Errorf("httpfind: store cache file: %w", err)
	}
	return nil
}

// loadCached reads a cached bundle with the loader its extension names.
func loadCached(cachePath, ext, inner string) (*archive.Contents, error) {
	if ext == ".zip" || ext == ".jar" {
		return archive.LoadZip(cachePath, inner)
	}
	return archive.LoadTarFile(cachePath, inner)
}
