package resscan

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
	"github.com/input-output-hk/catalyst-forge-libs/resscan/dirfind"
	"github.com/input-output-hk/catalyst-forge-libs/resscan/tarfind"
	"github.com/input-output-hk/catalyst-forge-libs/resscan/vfsfind"
	"github.com/input-output-hk/catalyst-forge-libs/resscan/zipfind"
)

// Scanner discovers the resources reachable under a set of logical
// namespaces and exposes them as one flattened cursor. On construction it
// performs a full discovery pass: each namespace is resolved to physical
// locations by the location provider, each location is normalized and
// dispatched by scheme to a finder factory, and the resulting finders are
// stacked in resolution order.
//
// Thread Safety: a Scanner must be driven by a single consumer at a time.
// Concurrent cursor calls on the same instance are undefined; callers that
// need parallel scans construct one Scanner per consumer. The process-wide
// provider accessed through Provider/SetProvider is safe for concurrent use.
type Scanner struct {
	// namespaces are the normalized slash-separated namespace paths, fixed
	// at construction.
	namespaces []string

	// search is the root list handed to the provider on every pass.
	search core.SearchPath

	// provider resolves namespaces to raw locations (immutable after
	// construction; replacing the process-wide provider does not retarget
	// an existing scanner).
	provider core.LocationProvider

	// registry maps lowercase schemes to finder factories for the lifetime
	// of this instance.
	registry schemeRegistry

	// logger is used for structured logging of discovery passes (optional).
	logger *slog.Logger

	// stack is the cursor produced by the most recent pass.
	stack *finderStack
}

// New constructs a Scanner and runs the initial discovery pass. Namespace
// strings are dot-delimited and may pack several names separated by spaces,
// commas, semicolons, or newlines. The context bounds provider lookups and
// finder construction for this pass; it is not retained.
//
// A pass failure returns only the error: no partial cursor escapes.
//
// Example usage:
//
//	scanner, err := resscan.New(ctx, []string{"com.acme.api"},
//	    resscan.WithSearchPath("/srv/app/resources", "/srv/app/bundle.jar"),
//	    resscan.WithLogger(slog.Default()),
//	)
func New(ctx context.Context, namespaces []string, opts ...Option) (*Scanner, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	o := defaultOptions()
	applyOptions(o, opts)

	provider := o.provider
	if provider == nil {
		provider = Provider()
	}

	names := splitNamespaces(namespaces)
	paths := make([]string, 0, len(names))
	for _, name := range names {
		paths = append(paths, namespacePath(name))
	}

	s := &Scanner{
		namespaces: paths,
		search:     o.search,
		provider:   provider,
		registry:   make(schemeRegistry),
		logger:     o.logger,
		stack:      &finderStack{},
	}

	factories := append(builtinFactories(o), o.factories...)
	for _, factory := range factories {
		for _, scheme := range s.registry.register(factory) {
			if s.logger != nil {
				s.logger.DebugContext(ctx, "scheme registration displaced prior factory",
					slog.String("scheme", scheme))
			}
		}
	}

	if err := s.scan(ctx); err != nil {
		return nil, err
	}
	return s, nil
}

// builtinFactories assembles the always-registered scheme factories.
func builtinFactories(o *scannerOptions) []core.SchemeFactory {
	return []core.SchemeFactory{
		dirfind.NewFactory(),
		zipfind.NewFactory(),
		tarfind.NewFactory(),
		vfsfind.NewFactory(o.mounts),
	}
}

// scan runs one full discovery pass and swaps in the resulting stack. On
// failure the scanner is left with an empty cursor, never a partial one.
func (s *Scanner) scan(ctx context.Context) error {
	s.stack = &finderStack{}

	working := &finderStack{}
	finders := 0
	for _, namespace := range s.namespaces {
		locations, err := s.provider.Locations(ctx, namespace, s.search)
		if err != nil {
			return core.NewDiscoveryError(namespace, err)
		}
		if s.logger != nil {
			s.logger.DebugContext(ctx, "resolved namespace locations",
				slog.String("namespace", namespace),
				slog.Int("locations", len(locations)))
		}

		for _, raw := range locations {
			loc, err := NormalizeLocation(raw)
			if err != nil {
				return err
			}

			scheme := strings.ToLower(loc.Scheme)
			factory, ok := s.registry.lookup(scheme)
			if !ok {
				return core.NewSchemeError(scheme, loc.String())
			}

			finder, err := factory.Create(ctx, loc)
			if err != nil {
				return core.NewDiscoveryError(namespace,
					fmt.Errorf("create finder for %q: %w", loc.String(), err))
			}
			working.push(finder)
			finders++
		}
	}

	s.stack = working
	if s.logger != nil {
		s.logger.InfoContext(ctx, "discovery pass complete",
			slog.Int("namespaces", len(s.namespaces)),
			slog.Int("finders", finders))
	}
	return nil
}

// HasNext reports whether the cursor has at least one unconsumed resource,
// skipping past exhausted finders as needed.
func (s *Scanner) HasNext() bool {
	return s.stack.HasNext()
}

// Next returns the next resource name across all discovered locations in
// resolution order. It fails with core.ErrExhausted once every finder is
// drained.
func (s *Scanner) Next() (string, error) {
	return s.stack.Next()
}

// Open returns a reader for the resource named by the most recent Next
// call. The caller owns the reader and must close it.
func (s *Scanner) Open() (io.ReadCloser, error) {
	return s.stack.Open()
}

// Remove deletes the resource named by the most recent Next call from its
// underlying store, when that store supports deletion.
func (s *Scanner) Remove() error {
	return s.stack.Remove()
}

// Reset discards the current cursor and repeats the full discovery pass
// with the namespaces, provider, and registry fixed at construction.
// Callers use it to re-enumerate after the underlying stores change, or to
// retry after fixing the condition behind a failed pass.
func (s *Scanner) Reset(ctx context.Context) error {
	if ctx == nil {
		return fmt.Errorf("context cannot be nil")
	}
	return s.scan(ctx)
}

// Namespaces returns a copy of the normalized namespace paths this scanner
// resolves.
func (s *Scanner) Namespaces() []string {
	out := make([]string, len(s.namespaces))
	copy(out, s.namespaces)
	return out
}
