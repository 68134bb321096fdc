// Package urlenc repairs raw location strings whose path or query carry
// bytes that defeat strict URI parsing.
//
// Repair is contextual: bytes illegal in a component are percent-encoded,
// while already-valid %XX escape triplets pass through untouched, so a
// half-encoded input is never double-encoded. The fragment component is
// reattached verbatim without any escaping.
package urlenc

import (
	"fmt"
	"strings"
)

// Rebuild reassembles raw into a parseable URI string. The scheme and
// authority are kept as written, the path and query are contextually
// percent-encoded, and the fragment is appended unescaped. It fails when no
// valid scheme prefix can be extracted.
func Rebuild(raw string) (string, error) {
	scheme, rest, ok := strings.Cut(raw, ":")
	if !ok || !validScheme(scheme) {
		return "", fmt.Errorf("missing scheme in %q", raw)
	}

	fragment := ""
	hasFragment := false
	if i := strings.IndexByte(rest, '#'); i >= 0 {
		rest, fragment, hasFragment = rest[:i], rest[i+1:], true
	}

	query := ""
	hasQuery := false
	if i := strings.IndexByte(rest, '?'); i >= 0 {
		rest, query, hasQuery = rest[:i], rest[i+1:], true
	}

	authority := ""
	hasAuthority := false
	if strings.HasPrefix(rest, "//") {
		hasAuthority = true
		rest = rest[2:]
		if i := strings.IndexByte(rest, '/'); i >= 0 {
			authority, rest = rest[:i], rest[i:]
		} else {
			authority, rest = rest, ""
		}
	}

	var b strings.Builder
	b.WriteString(scheme)
	b.WriteByte(':')
	if hasAuthority {
		b.WriteString("//")
		b.WriteString(authority)
	}
	b.WriteString(EncodePath(rest))
	if hasQuery {
		b.WriteByte('?')
		b.WriteString(EncodeQuery(query))
	}
	if hasFragment {
		b.WriteByte('#')
		b.WriteString(fragment)
	}
	return b.String(), nil
}

// EncodePath contextually percent-encodes a URI path component.
func EncodePath(s string) string {
	return encode(s, isPathByte)
}

// EncodeQuery contextually percent-encodes a URI query component.
func EncodeQuery(s string) string {
	return encode(s, isQueryByte)
}

func encode(s string, allowed func(byte) bool) string {
	var b strings.Builder
	b.Grow(len(s))
	for i := 0; i < len(s); i++ {
		c := s[i]
		if c == '%' && i+2 < len(s) && isHex(s[i+1]) && isHex(s[i+2]) {
			b.WriteString(s[i : i+3])
			i += 2
			continue
		}
		if allowed(c) {
			b.WriteByte(c)
			continue
		}
		fmt.Fprintf(&b, "%%%02X", c)
	}
	return b.String()
}

func validScheme(s string) bool {
	if s == "" || !isAlpha(s[0]) {
		return false
	}
	for i := 1; i < len(s); i++ {
		c := s[i]
		if !isAlpha(c) && !isDigit(c) && c != '+' && c != '-' && c != '.' {
			return false
		}
	}
	return true
}

func isAlpha(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z')
}

func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

func isHex(c byte) bool {
	return isDigit(c) || (c >= 'a' && c <= 'f') || (c >= 'A' && c <= 'F')
}

func isUnreserved(c byte) bool {
	return isAlpha(c) || isDigit(c) || c == '-' || c == '.' || c == '_' || c == '~'
}

func isSubDelim(c byte) bool {
	switch c {
	case '!', '$', '&', '\'', '(', ')', '*', '+', ',', ';', '=':
		return true
	}
	return false
}

func isPathByte(c byte) bool {
	return isUnreserved(c) || isSubDelim(c) || c == ':' || c == '@' || c == '/'
}

func isQueryByte(c byte) bool {
	return isPathByte(c) || c == '?'
}
