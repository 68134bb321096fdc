package ocifind

import (
	"archive/tar"
	"bytes"
	"compress/gzip"
	"context"
	"encoding/json"
	"io"
	"maps"
	"net/url"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"github.com/opencontainers/go-digest"
	specs "github.com/opencontainers/image-spec/specs-go"
	ocispec "github.com/opencontainers/image-spec/specs-go/v1"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
)

func tarLayer(t *testing.T, compress bool, entries map[string]string) []byte {
	t.Helper()
	var buf bytes.Buffer
	var w io.Writer = &buf
	var gz *gzip.Writer
	if compress {
		gz = gzip.NewWriter(&buf)
		w = gz
	}
	tw := tar.NewWriter(w)
	for _, name := range slices.Sorted(maps.Keys(entries)) {
		content := entries[name]
		require.NoError(t, tw.WriteHeader(&tar.Header{
			Name: name,
			Mode: 0o644,
			Size: int64(len(content)),
		}))
		_, err := tw.Write([]byte(content))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	if gz != nil {
		require.NoError(t, gz.Close())
	}
	return buf.Bytes()
}

func newLayout(t *testing.T) string {
	t.Helper()
	layout := t.TempDir()
	require.NoError(t, os.WriteFile(
		filepath.Join(layout, ocispec.ImageLayoutFile),
		[]byte(`{"imageLayoutVersion":"1.0.0"}`),
		0o644,
	))
	return layout
}

func writeBlob(t *testing.T, layout string, data []byte) digest.Digest {
	t.Helper()
	d := digest.FromBytes(data)
	dir := filepath.Join(layout, "blobs", d.Algorithm().String())
	require.NoError(t, os.MkdirAll(dir, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, d.Encoded()), data, 0o644))
	return d
}

// writeImage stores the layers, config, and manifest of one image and
// returns the manifest descriptor, annotated with ref when given.
func writeImage(t *testing.T, layout, ref string, layers ...[]byte) ocispec.Descriptor {
	t.Helper()
	var layerDescs []ocispec.Descriptor
	for _, layer := range layers {
		mediaType := ocispec.MediaTypeImageLayer
		if len(layer) >= 2 && layer[0] == 0x1f && layer[1] == 0x8b {
			mediaType = ocispec.MediaTypeImageLayerGzip
		}
		layerDescs = append(layerDescs, ocispec.Descriptor{
			MediaType: mediaType,
			Digest:    writeBlob(t, layout, layer),
			Size:      int64(len(layer)),
		})
	}

	configData := []byte("{}")
	manifest := ocispec.Manifest{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: ocispec.MediaTypeImageManifest,
		Config: ocispec.Descriptor{
			MediaType: ocispec.MediaTypeImageConfig,
			Digest:    writeBlob(t, layout, configData),
			Size:      int64(len(configData)),
		},
		Layers: layerDescs,
	}
	manifestData, err := json.Marshal(manifest)
	require.NoError(t, err)

	desc := ocispec.Descriptor{
		MediaType: ocispec.MediaTypeImageManifest,
		Digest:    writeBlob(t, layout, manifestData),
		Size:      int64(len(manifestData)),
	}
	if ref != "" {
		desc.Annotations = map[string]string{ocispec.AnnotationRefName: ref}
	}
	return desc
}

func writeIndex(t *testing.T, layout string, manifests ...ocispec.Descriptor) {
	t.Helper()
	index := ocispec.Index{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: ocispec.MediaTypeImageIndex,
		Manifests: manifests,
	}
	data, err := json.Marshal(index)
	require.NoError(t, err)
	require.NoError(t, os.WriteFile(filepath.Join(layout, "index.json"), data, 0o644))
}

func create(t *testing.T, rawLoc string) core.Finder {
	t.Helper()
	loc, err := url.Parse(rawLoc)
	require.NoError(t, err)
	f, err := NewFactory().Create(context.Background(), loc)
	require.NoError(t, err)
	return f
}

func drain(t *testing.T, f core.Finder) []string {
	t.Helper()
	var names []string
	for f.HasNext() {
		name, err := f.Next()
		require.NoError(t, err)
		names = append(names, name)
	}
	return names
}

func readCurrent(t *testing.T, f core.Finder) string {
	t.Helper()
	rc, err := f.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	return string(data)
}

func TestFactorySchemes(t *testing.T) {
	assert.Equal(t, []string{"oci"}, NewFactory().Schemes())
}

func TestCreateInnerRoot(t *testing.T) {
	layout := newLayout(t)
	writeIndex(t, layout, writeImage(t, layout, "", tarLayer(t, true, map[string]string{
		"usr/share/acme/one.txt": "1",
		"etc/other.conf":         "x",
	})))

	f := create(t, "oci:"+filepath.ToSlash(layout)+"!/usr/share/acme")
	name, err := f.Next()
	require.NoError(t, err)
	assert.Equal(t, "one.txt", name)
	assert.Equal(t, "1", readCurrent(t, f))
	assert.False(t, f.HasNext())
}

func TestLayersStackWithWhiteouts(t *testing.T) {
	layout := newLayout(t)
	base := tarLayer(t, false, map[string]string{
		"data/a.txt": "old",
		"data/b.txt": "b",
		"cfg/x.txt":  "x",
	})
	top := tarLayer(t, true, map[string]string{
		"data/a.txt":        "new",
		"data/.wh.b.txt":    "",
		"cfg/.wh..wh..opq":  "",
		"cfg/fresh.txt":     "fresh",
		"data/sub/deep.txt": "deep",
	})
	writeIndex(t, layout, writeImage(t, layout, "", base, top))

	f := create(t, "oci:"+filepath.ToSlash(layout))
	assert.ElementsMatch(t,
		[]string{"data/a.txt", "cfg/fresh.txt", "data/sub/deep.txt"},
		drain(t, f))

	require.NoError(t, f.Reset())
	for f.HasNext() {
		name, err := f.Next()
		require.NoError(t, err)
		if name == "data/a.txt" {
			assert.Equal(t, "new", readCurrent(t, f))
		}
	}
}

func TestCreateByRef(t *testing.T) {
	layout := newLayout(t)
	v1 := writeImage(t, layout, "v1", tarLayer(t, true, map[string]string{"data.txt": "one"}))
	v2 := writeImage(t, layout, "v2", tarLayer(t, true, map[string]string{"data.txt": "two"}))
	writeIndex(t, layout, v1, v2)

	f := create(t, "oci:"+filepath.ToSlash(layout)+"?ref=v2")
	_, err := f.Next()
	require.NoError(t, err)
	assert.Equal(t, "two", readCurrent(t, f))
}

func TestCreateUnknownRef(t *testing.T) {
	layout := newLayout(t)
	writeIndex(t, layout, writeImage(t, layout, "v1", tarLayer(t, true, map[string]string{"data.txt": "one"})))

	loc, err := url.Parse("oci:" + filepath.ToSlash(layout) + "?ref=v9")
	require.NoError(t, err)
	_, err = NewFactory().Create(context.Background(), loc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), `ref "v9" not found`)
}

func TestCreateNestedIndex(t *testing.T) {
	layout := newLayout(t)
	manifest := writeImage(t, layout, "", tarLayer(t, true, map[string]string{"data.txt": "nested"}))

	nested := ocispec.Index{
		Versioned: specs.Versioned{SchemaVersion: 2},
		MediaType: ocispec.MediaTypeImageIndex,
		Manifests: []ocispec.Descriptor{manifest},
	}
	nestedData, err := json.Marshal(nested)
	require.NoError(t, err)
	writeIndex(t, layout, ocispec.Descriptor{
		MediaType: ocispec.MediaTypeImageIndex,
		Digest:    writeBlob(t, layout, nestedData),
		Size:      int64(len(nestedData)),
	})

	f := create(t, "oci:"+filepath.ToSlash(layout))
	_, err = f.Next()
	require.NoError(t, err)
	assert.Equal(t, "nested", readCurrent(t, f))
}

func TestCreateMissingLayout(t *testing.T) {
	loc, err := url.Parse("oci:" + filepath.ToSlash(filepath.Join(t.TempDir(), "absent")))
	require.NoError(t, err)

	_, err = NewFactory().Create(context.Background(), loc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "not an OCI layout")
}

func TestCreateCorruptBlob(t *testing.T) {
	layout := newLayout(t)
	layer := tarLayer(t, false, map[string]string{"data.txt": "payload"})
	writeIndex(t, layout, writeImage(t, layout, "", layer))

	d := digest.FromBytes(layer)
	require.NoError(t, os.WriteFile(
		filepath.Join(layout, "blobs", d.Algorithm().String(), d.Encoded()),
		[]byte("tampered"),
		0o644,
	))

	loc, err := url.Parse("oci:" + filepath.ToSlash(layout))
	require.NoError(t, err)
	_, err = NewFactory().Create(context.Background(), loc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "digests to")
}

func TestRemoveUnsupported(t *testing.T) {
	layout := newLayout(t)
	writeIndex(t, layout, writeImage(t, layout, "", tarLayer(t, true, map[string]string{"data.txt": "x"})))

	f := create(t, "oci:"+filepath.ToSlash(layout))
	_, err := f.Next()
	require.NoError(t, err)
	assert.ErrorIs(t, f.Remove(), core.ErrRemoveUnsupported)
}
