package resscan

import (
	"errors"
	"net/url"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
	"github.com/input-output-hk/catalyst-forge-libs/resscan/internal/urlenc"
)

// errMissingScheme signals a location string without a scheme prefix.
var errMissingScheme = errors.New("missing scheme")

// namespaceDelimiters are the characters that separate packed namespace
// names inside one input string.
const namespaceDelimiters = " ,;\t\n\r"

// NormalizeLocation converts a raw location string into a canonical
// identifier. It first attempts a strict parse; when that fails, or when
// the parsed query carries invalid escapes, it rebuilds the string by
// percent-encoding the path and query components (preserving escapes that
// are already valid) and parses the result. The fragment is carried through
// the rebuild unescaped. A second failure, or a result without a scheme,
// yields a LocationError.
//
// Custom LocationProvider implementations can use this to pre-validate the
// strings they emit.
func NormalizeLocation(raw string) (*url.URL, error) {
	u, err := url.Parse(raw)
	if err == nil {
		// url.Parse validates escapes in the path but not the query; a
		// malformed query would survive here only for Query() to drop its
		// pairs later.
		_, err = url.ParseQuery(u.RawQuery)
	}
	if err == nil {
		if u.Scheme == "" {
			return nil, core.NewLocationError(raw, errMissingScheme)
		}
		return u, nil
	}

	rebuilt, rerr := urlenc.Rebuild(raw)
	if rerr != nil {
		return nil, core.NewLocationError(raw, rerr)
	}
	u, err = url.Parse(rebuilt)
	if err != nil {
		return nil, core.NewLocationError(raw, err)
	}
	if u.Scheme == "" {
		return nil, core.NewLocationError(raw, errMissingScheme)
	}
	return u, nil
}

// splitNamespaces flattens the input strings into individual namespace
// names, splitting each on the common delimiter set and dropping empties.
func splitNamespaces(names []string) []string {
	var out []string
	for _, name := range names {
		fields := strings.FieldsFunc(name, func(r rune) bool {
			return strings.ContainsRune(namespaceDelimiters, r)
		})
		out = append(out, fields...)
	}
	return out
}

// namespacePath converts a dot-delimited namespace name into the
// slash-separated path used for location lookups. Names that already use
// slashes pass through unchanged.
func namespacePath(name string) string {
	return strings.ReplaceAll(name, ".", "/")
}
