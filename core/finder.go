// Package core defines the interfaces and error taxonomy shared by the
// resource discovery scanner and its scheme finder implementations.
//
// A Finder is a lazy cursor over the resource names reachable under one
// physical location (a directory, an archive, a virtual mount, a remote
// store). A SchemeFactory constructs Finders for the location schemes it
// declares. A LocationProvider maps a logical namespace path to the raw
// location strings that expose it.
//
// Implementations of these interfaces live in the finder subpackages
// (dirfind, zipfind, tarfind, vfsfind, gitfind, s3find, ocifind, httpfind);
// the parent package wires them together into a single flattened cursor.
package core

import (
	"context"
	"io"
	"net/url"
)

// Finder is a stateful cursor over resource names rooted at one canonical
// location identifier. Names are slash-separated paths relative to the
// finder's root and are yielded in an order that is deterministic for
// unchanged underlying content.
//
// A Finder is scoped to one discovery pass and is not safe for concurrent
// use by multiple goroutines.
type Finder interface {
	// HasNext reports whether at least one resource name remains.
	HasNext() bool

	// Next returns the next resource name. It fails with ErrExhausted when
	// the sequence is drained.
	Next() (string, error)

	// Open returns a reader for the resource most recently returned by Next.
	// It fails with ErrStaleCursor if no such resource is current.
	// The caller owns the returned reader and must close it.
	Open() (io.ReadCloser, error)

	// Remove deletes the resource most recently returned by Next from the
	// underlying store. Read-only finders fail with ErrRemoveUnsupported;
	// calls without a current resource fail with ErrStaleCursor.
	Remove() error

	// Reset rewinds the cursor to the start of its sequence.
	Reset() error
}

// SchemeFactory constructs Finders for the location schemes it supports.
type SchemeFactory interface {
	// Schemes returns the scheme tokens this factory handles. Tokens are
	// matched case-insensitively.
	Schemes() []string

	// Create builds a Finder rooted at the given canonical location
	// identifier. The context bounds any I/O needed to enumerate the
	// location's contents.
	Create(ctx context.Context, loc *url.URL) (Finder, error)
}

// SearchPath is the ordered list of root locations the default
// LocationProvider consults when resolving a namespace. Entries are raw
// location strings: plain directory paths, archive paths, or
// scheme-qualified roots such as "s3://bucket/base".
type SearchPath []string

// LocationProvider maps a slash-separated namespace path to the raw location
// strings that expose it. Implementations signal lookup I/O failures through
// the returned error; a namespace with no matching locations returns an
// empty slice and a nil error.
//
// Implementations must be safe for concurrent use: a provider installed
// process-wide may be consulted by several scanners at once.
type LocationProvider interface {
	Locations(ctx context.Context, namespace string, search SearchPath) ([]string, error)
}
