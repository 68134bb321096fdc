package archive

import (
	"bytes"
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
)

// Finder is a read-only cursor over loaded archive contents. It satisfies
// the discovery Finder contract; the archive-backed scheme factories return
// it directly.
type Finder struct {
	contents *Contents
	pos      int
	current  string
	valid    bool
}

// NewFinder wraps loaded contents in a cursor positioned at the start.
func NewFinder(contents *Contents) *Finder {
	return &Finder{contents: contents}
}

// HasNext reports whether at least one entry remains.
func (f *Finder) HasNext() bool {
	return f.pos < len(f.contents.Names)
}

// Next returns the next entry name in archive encounter order.
func (f *Finder) Next() (string, error) {
	if !f.HasNext() {
		f.valid = false
		return "", core.ErrExhausted
	}
	f.current = f.contents.Names[f.pos]
	f.pos++
	f.valid = true
	return f.current, nil
}

// Open returns a reader over the bytes of the current entry.
func (f *Finder) Open() (io.ReadCloser, error) {
	if !f.valid {
		return nil, core.ErrStaleCursor
	}
	return io.NopCloser(bytes.NewReader(f.contents.Blobs[f.current])), nil
}

// Remove is not supported: archive contents are read-only.
func (f *Finder) Remove() error {
	if !f.valid {
		return core.ErrStaleCursor
	}
	return core.ErrRemoveUnsupported
}

// Reset rewinds the cursor to the first entry.
func (f *Finder) Reset() error {
	f.pos = 0
	f.valid = false
	return nil
}
