// Package archive loads archive contents into memory for the archive-backed
// finder implementations. Entries are read once at load time; iteration and
// opens afterwards touch only memory, so a finder never holds an archive
// handle across cursor calls.
package archive

import (
	"archive/tar"
	"archive/zip"
	"bufio"
	"compress/gzip"
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"
)

// gzipMagic is the two-byte header that opens every gzip stream.
var gzipMagic = []byte{0x1f, 0x8b}

// Contents holds the regular-file entries of one archive, keyed by
// slash-separated path relative to the requested root. Names preserves the
// archive's encounter order.
type Contents struct {
	Names []string
	Blobs map[string][]byte
}

// SplitPath splits a location path of the form "/srv/bundle.zip!/com/acme"
// into the archive path and the inner root. Without a "!/" separator the
// whole value is the archive path and the inner root is empty.
func SplitPath(p string) (archivePath, inner string) {
	if base, rest, ok := strings.Cut(p, "!/"); ok {
		return base, strings.Trim(rest, "/")
	}
	return p, ""
}

// LoadZip reads the regular-file entries of the zip archive at archivePath
// that live under the inner root. An empty root loads the whole archive.
func LoadZip(archivePath, root string) (*Contents, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open zip %q: %w", archivePath, err)
	}
	defer r.Close()

	c := NewContents()
	for _, f := range r.File {
		if f.FileInfo().IsDir() {
			continue
		}
		rel, ok := relativeTo(f.Name, root)
		if !ok {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			return nil, fmt.Errorf("open zip entry %q: %w", f.Name, err)
		}
		data, err := io.ReadAll(rc)
		rc.Close()
		if err != nil {
			return nil, fmt.Errorf("read zip entry %q: %w", f.Name, err)
		}
		c.Put(rel, data)
	}
	return c, nil
}

// LoadTarFile reads the regular-file entries of the tar archive at
// archivePath that live under the inner root. Gzip compression is detected
// from the stream header, so plain .tar and .tgz files load the same way.
func LoadTarFile(archivePath, root string) (*Contents, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return nil, fmt.Errorf("open tar %q: %w", archivePath, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(2)
	if err != nil {
		return nil, fmt.Errorf("read tar %q: %w", archivePath, err)
	}
	compressed := head[0] == gzipMagic[0] && head[1] == gzipMagic[1]
	c, err := LoadTar(br, compressed, root)
	if err != nil {
		return nil, fmt.Errorf("read tar %q: %w", archivePath, err)
	}
	return c, nil
}

// LoadTar reads the regular-file entries of a tar stream that live under the
// inner root, optionally decompressing gzip first.
func LoadTar(r io.Reader, compressed bool, root string) (*Contents, error) {
	if compressed {
		gz, err := gzip.NewReader(r)
		if err != nil {
			return nil, fmt.Errorf("open gzip stream: %w", err)
		}
		defer gz.Close()
		r = gz
	}

	c := NewContents()
	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("read tar stream: %w", err)
		}
		if hdr.Typeflag != tar.TypeReg {
			continue
		}
		rel, ok := relativeTo(hdr.Name, root)
		if !ok {
			continue
		}
		data, err := io.ReadAll(tr)
		if err != nil {
			return nil, fmt.Errorf("read tar entry %q: %w", hdr.Name, err)
		}
		c.Put(rel, data)
	}
	return c, nil
}

// ZipContains reports whether the zip archive has any entry under prefix.
// A missing archive file reports false without an error.
func ZipContains(archivePath, prefix string) (bool, error) {
	r, err := zip.OpenReader(archivePath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open zip %q: %w", archivePath, err)
	}
	defer r.Close()

	for _, f := range r.File {
		if _, ok := relativeTo(f.Name, prefix); ok {
			return true, nil
		}
	}
	return false, nil
}

// TarContains reports whether the tar archive has any entry under prefix.
// A missing archive file reports false without an error.
func TarContains(archivePath, prefix string) (bool, error) {
	f, err := os.Open(archivePath)
	if errors.Is(err, os.ErrNotExist) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("open tar %q: %w", archivePath, err)
	}
	defer f.Close()

	br := bufio.NewReader(f)
	head, err := br.Peek(2)
	if err != nil {
		return false, fmt.Errorf("read tar %q: %w", archivePath, err)
	}

	var r io.Reader = br
	if head[0] == gzipMagic[0] && head[1] == gzipMagic[1] {
		gz, err := gzip.NewReader(br)
		if err != nil {
			return false, fmt.Errorf("read tar %q: %w", archivePath, err)
		}
		defer gz.Close()
		r = gz
	}

	tr := tar.NewReader(r)
	for {
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return false, nil
		}
		if err != nil {
			return false, fmt.Errorf("read tar %q: %w", archivePath, err)
		}
		if _, ok := relativeTo(hdr.Name, prefix); ok {
			return true, nil
		}
	}
}

// NewContents returns empty contents ready to receive entries.
func NewContents() *Contents {
	return &Contents{Blobs: make(map[string][]byte)}
}

// Put stores an entry, appending its name on first sight and overwriting
// the blob in place on repeats.
func (c *Contents) Put(name string, data []byte) {
	if _, seen := c.Blobs[name]; !seen {
		c.Names = append(c.Names, name)
	}
	c.Blobs[name] = data
}

// Delete drops an entry from the contents, preserving the order of the rest.
func (c *Contents) Delete(name string) {
	if _, ok := c.Blobs[name]; !ok {
		return
	}
	delete(c.Blobs, name)
	for i, n := range c.Names {
		if n == name {
			c.Names = append(c.Names[:i], c.Names[i+1:]...)
			break
		}
	}
}

// Merge folds other into c: new names append in order, existing names are
// overwritten in place.
func (c *Contents) Merge(other *Contents) {
	for _, name := range other.Names {
		c.Put(name, other.Blobs[name])
	}
}

// relativeTo cleans an archive entry name and returns it relative to root.
// It reports false for entries outside root, for the root itself, and for
// entries whose cleaned form escapes upward.
func relativeTo(name, root string) (string, bool) {
	name = path.Clean(strings.TrimPrefix(name, "./"))
	if name == "." || name == "/" || strings.HasPrefix(name, "../") {
		return "", false
	}
	name = strings.TrimPrefix(name, "/")
	if root == "" {
		return name, true
	}
	rel, ok := strings.CutPrefix(name, root+"/")
	if !ok || rel == "" {
		return "", false
	}
	return rel, true
}
