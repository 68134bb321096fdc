package resscan

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
	"github.com/input-output-hk/catalyst-forge-libs/resscan/internal/archive"
)

// searchProvider is the default location provider. It mirrors the classpath
// style of lookup: each search path root is probed for the namespace path,
// and a scheme-qualified location is emitted per hit.
//
// Local roots (directories and zip/jar/tar/tgz archives) are probed for
// existence; a root that does not exist, or that does not contain the
// namespace, is skipped silently. Roots with any other scheme are passed
// through with the namespace appended to their path, leaving existence
// checks to the finder that is eventually constructed for them.
type searchProvider struct{}

// Locations implements core.LocationProvider.
func (searchProvider) Locations(ctx context.Context, namespace string, search core.SearchPath) ([]string, error) {
	var locs []string
	for _, root := range search {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		hits, err := probeRoot(root, namespace)
		if err != nil {
			return nil, err
		}
		locs = append(locs, hits...)
	}
	return locs, nil
}

// probeRoot resolves one search path root against a namespace.
func probeRoot(root, namespace string) ([]string, error) {
	u, err := url.Parse(root)
	if err != nil || u.Scheme == "" {
		return probeLocalRoot("", root, "", namespace)
	}

	scheme := strings.ToLower(u.Scheme)
	switch scheme {
	case "file":
		return probeLocalRoot("", rootPath(u), "", namespace)
	case "zip", "jar", "tar", "tgz":
		base, inner := archive.SplitPath(rootPath(u))
		return probeLocalRoot(scheme, base, inner, namespace)
	default:
		return []string{appendNamespace(u, namespace)}, nil
	}
}

// probeLocalRoot probes a local directory or archive root. An empty scheme
// means the kind is derived from the path's extension.
func probeLocalRoot(scheme, base, inner, namespace string) ([]string, error) {
	abs, err := filepath.Abs(base)
	if err != nil {
		return nil, fmt.Errorf("resolve root %q: %w", base, err)
	}

	if scheme == "" {
		scheme = schemeForExt(abs)
	}

	switch scheme {
	case "zip", "jar":
		return probeArchive(scheme, abs, inner, namespace, archive.ZipContains)
	case "tar", "tgz":
		return probeArchive(scheme, abs, inner, namespace, archive.TarContains)
	default:
		return probeDir(abs, namespace)
	}
}

// probeDir emits a file: location when the namespace directory exists under
// the root.
func probeDir(root, namespace string) ([]string, error) {
	target := filepath.Join(root, filepath.FromSlash(namespace))
	info, err := os.Stat(target)
	if errors.Is(err, os.ErrNotExist) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("probe %q: %w", target, err)
	}
	if !info.IsDir() {
		return nil, nil
	}
	loc := url.URL{Scheme: "file", Path: path.Join(filepath.ToSlash(root), namespace)}
	return []string{loc.String()}, nil
}

// probeArchive emits an archive location when the archive has entries under
// the namespace. A missing archive file is a silent skip.
func probeArchive(scheme, base, inner, namespace string, contains func(string, string) (bool, error)) ([]string, error) {
	prefix := path.Join(inner, namespace)
	ok, err := contains(base, prefix)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, nil
	}
	loc := url.URL{Scheme: scheme, Path: filepath.ToSlash(base) + "!/" + prefix}
	return []string{loc.String()}, nil
}

// appendNamespace suffixes the namespace onto a pass-through root's path,
// keeping authority, query, and fragment intact. A root that carried an
// escaped path form gets the same suffix on it, so String() serves the
// root's original bytes instead of re-escaping the mutated path.
func appendNamespace(u *url.URL, namespace string) string {
	c := *u
	if c.Opaque != "" {
		c.Opaque = strings.TrimSuffix(c.Opaque, "/") + "/" + namespace
	} else if c.Path == "" {
		c.Path = "/" + namespace
	} else {
		c.Path = strings.TrimSuffix(c.Path, "/") + "/" + namespace
		if c.RawPath != "" {
			c.RawPath = strings.TrimSuffix(c.RawPath, "/") + "/" + namespace
		}
	}
	return c.String()
}

// rootPath extracts the path portion of a root identifier, tolerating the
// opaque form "scheme:relative/path".
func rootPath(u *url.URL) string {
	if u.Opaque != "" {
		return u.Opaque
	}
	return u.Path
}

// schemeForExt classifies a local path by archive extension; anything else
// is treated as a directory root.
func schemeForExt(p string) string {
	lower := strings.ToLower(p)
	switch {
	case strings.HasSuffix(lower, ".zip"):
		return "zip"
	case strings.HasSuffix(lower, ".jar"):
		return "jar"
	case strings.HasSuffix(lower, ".tgz"), strings.HasSuffix(lower, ".tar.gz"):
		return "tgz"
	case strings.HasSuffix(lower, ".tar"):
		return "tar"
	default:
		return "file"
	}
}
