package resscan

import (
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
)

// schemeRegistry maps lowercase scheme tokens to the factory that handles
// them. It is append/overwrite-only and scoped to one Scanner instance.
type schemeRegistry map[string]core.SchemeFactory

// register inserts every scheme the factory declares, overwriting prior
// entries. It returns the schemes that displaced an existing registration so
// the caller can surface the overwrite.
func (r schemeRegistry) register(f core.SchemeFactory) []string {
	var displaced []string
	for _, scheme := range f.Schemes() {
		key := strings.ToLower(scheme)
		if _, ok := r[key]; ok {
			displaced = append(displaced, key)
		}
		r[key] = f
	}
	return displaced
}

// lookup resolves a scheme token case-insensitively.
func (r schemeRegistry) lookup(scheme string) (core.SchemeFactory, bool) {
	f, ok := r[strings.ToLower(scheme)]
	return f, ok
}
