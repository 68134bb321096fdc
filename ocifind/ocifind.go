// Package ocifind resolves oci scheme locations against OCI image layouts
// on the local filesystem. A location names a layout directory, optionally
// with an inner root after "!/" and an image reference in the ref query
// parameter:
//
//	oci:/srv/images/content!/usr/share/acme?ref=v2.1.0
//
// The referenced manifest's layers are applied in order with whiteout
// handling, so the finder sees the flattened filesystem the image would
// present when run. Layouts are content addressed; every blob is verified
// against its digest as it loads. Image content is read-only; Remove is
// not supported.
package ocifind

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"slices"
	"strings"

	"github.com/opencontainers/go-digest"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
	"github.com/input-output-hk/catalyst-forge-libs/resscan/internal/archive"
)

const (
	// whiteoutPrefix marks a layer entry that deletes a file from the
	// layers below it.
	whiteoutPrefix = ".wh."

	// opaqueWhiteout marks a layer entry that hides everything the layers
	// below it placed in its directory.
	opaqueWhiteout = ".wh..wh..opq"

	// maxIndexDepth bounds nested image index resolution.
	maxIndexDepth = 3
)

// Factory creates finders over OCI image layouts.
type Factory struct{}

// NewFactory returns a factory handling oci locations.
func NewFactory() *Factory { return &Factory{} }

// Schemes reports the scheme tokens this factory serves.
func (*Factory) Schemes() []string { return []string{"oci"} }

// Create resolves the referenced manifest in the layout named by loc,
// applies its layers, and returns a finder over the entries beneath the
// inner root. The layout and reference must resolve; an inner root with no
// entries yields an empty finder.
func (*Factory) Create(ctx context.Context, loc *url.URL) (core.Finder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	p := loc.Path
	if p == "" {
		p = loc.Opaque
	}
	layoutPath, inner := archive.SplitPath(p)
	if layoutPath == "" {
		return nil, fmt.Errorf("ocifind: location %q has no layout path", loc)
	}
	layoutPath = filepath.FromSlash(layoutPath)

	if _, err := os.Stat(filepath.Join(layoutPath, ocispec.ImageLayoutFile)); err != nil {
		return nil, fmt.Errorf("ocifind: %q is not an OCI layout: %w", layoutPath, err)
	}

	desc, err := resolveManifest(layoutPath, loc.Query().Get("ref"))
	if err != nil {
		return nil, err
	}

	manifestData, err := readBlob(layoutPath, desc.Digest)
	if err != nil {
		return nil, err
	}
	var manifest ocispec.Manifest
	if err := json.Unmarshal(manifestData, &manifest); err != nil {
		return nil, fmt.Errorf("ocifind: decode manifest %s: %w", desc.Digest, err)
	}

	merged := archive.NewContents()
	for _, layer := range manifest.Layers {
		data, err := readBlob(layoutPath, layer.Digest)
		if err != nil {
			return nil, err
		}
		compressed := strings.HasSuffix(layer.MediaType, "+gzip")
		contents, err := archive.LoadTar(bytes.NewReader(data), compressed, inner)
		if err != nil {
			return nil, fmt.Errorf("ocifind: read layer %s: %w", layer.Digest, err)
		}
		applyLayer(merged, contents)
	}
	return archive.NewFinder(merged), nil
}

// resolveManifest maps an image reference to its manifest descriptor. An
// empty reference selects the layout's first manifest. Nested image
// indexes resolve to their first platform manifest.
func resolveManifest(layoutPath, ref string) (ocispec.Descriptor, error) {
	indexData, err := os.ReadFile(filepath.Join(layoutPath, "index.json"))
	if err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("ocifind: read index: %w", err)
	}
	var index ocispec.Index
	if err := json.Unmarshal(indexData, &index); err != nil {
		return ocispec.Descriptor{}, fmt.Errorf("ocifind: decode index: %w", err)
	}

	desc, err := pickDescriptor(index, ref)
	if err != nil {
		return ocispec.Descriptor{}, err
	}

	for range maxIndexDepth {
		if desc.MediaType != ocispec.MediaTypeImageIndex {
			return desc, nil
		}
		data, err := readBlob(layoutPath, desc.Digest)
		if err != nil {
			return ocispec.Descriptor{}, err
		}
		var nested ocispec.Index
		if err := json.Unmarshal(data, &nested); err != nil {
			return ocispec.Descriptor{}, fmt.Errorf("ocifind: decode index %s: %w", desc.Digest, err)
		}
		if len(nested.Manifests) == 0 {
			return ocispec.Descriptor{}, fmt.Errorf("ocifind: index %s has no manifests", desc.Digest)
		}
		desc = nested.Manifests[0]
	}
	return ocispec.Descriptor{}, fmt.Errorf("ocifind: image index nested deeper than %d levels", maxIndexDepth)
}

// pickDescriptor selects a manifest from the layout index, by ref
// annotation when one is given.
func pickDescriptor(index ocispec.Index, ref string) (ocispec.Descriptor, error) {
	if ref == "" {
		if len(index.Manifests) == 0 {
			return ocispec.Descriptor{}, fmt.Errorf("ocifind: layout has no manifests")
		}
		return index.Manifests[0], nil
	}
	for _, m := range index.Manifests {
		if m.Annotations[ocispec.AnnotationRefName] == ref {
			return m, nil
		}
	}
	return ocispec.Descriptor{}, fmt.Errorf("ocifind: ref %q not found in layout", ref)
}

// readBlob loads a blob from the layout's content store and verifies it
// against the digest that named it.
func readBlob(layoutPath string, d digest.Digest) ([]byte, error) {
	if err := d.Validate(); err != nil {
		return nil, fmt.Errorf("ocifind: invalid digest %q: %w", d, err)
	}
	data, err := os.ReadFile(filepath.Join(layoutPath, "blobs", d.Algorithm().String(), d.Encoded()))
	if err != nil {
		return nil, fmt.Errorf("ocifind: read blob %s: %w", d, err)
	}
	if computed := digest.FromBytes(data); computed != d {
		return nil, fmt.Errorf("ocifind: blob %s content digests to %s", d, computed)
	}
	return data, nil
}

// applyLayer folds one layer into the merged view. Whiteouts apply before
// the layer's own content, so a layer can repopulate a directory it hides.
func applyLayer(merged, layer *archive.Contents) {
	for _, name := range layer.Names {
		base := path.Base(name)
		if !strings.HasPrefix(base, whiteoutPrefix) {
			continue
		}
		if base == opaqueWhiteout {
			prefix := path.Dir(name) + "/"
			if path.Dir(name) == "." {
				prefix = ""
			}
			for _, existing := range slices.Clone(merged.Names) {
				if strings.HasPrefix(existing, prefix) {
					merged.Delete(existing)
				}
			}
			continue
		}
		merged.Delete(path.Join(path.Dir(name), strings.TrimPrefix(base, whiteoutPrefix)))
	}

	for _, name := range layer.Names {
		if strings.HasPrefix(path.Base(name), whiteoutPrefix) {
			continue
		}
		merged.Put(name, layer.Blobs[name])
	}
}
