// Package resscan provides functional options for configuring the Scanner.
package resscan

import (
	"log/slog"

	"github.com/go-git/go-billy/v5"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
)

// scannerOptions holds configuration options for the Scanner.
type scannerOptions struct {
	logger    *slog.Logger
	provider  core.LocationProvider
	search    core.SearchPath
	factories []core.SchemeFactory
	mounts    map[string]billy.Filesystem
}

// Option is a functional option for configuring the Scanner.
type Option func(*scannerOptions)

// WithLogger configures the scanner with a structured logger for discovery
// diagnostics. If logger is nil, logging is disabled.
func WithLogger(logger *slog.Logger) Option {
	return func(opts *scannerOptions) {
		opts.logger = logger
	}
}

// WithProvider overrides the process-wide location provider for this scanner
// instance only. The singleton managed by Provider/SetProvider stays
// untouched.
func WithProvider(provider core.LocationProvider) Option {
	return func(opts *scannerOptions) {
		opts.provider = provider
	}
}

// WithSearchPath sets the ordered root locations the default provider
// consults. Roots may be directory paths, local archive paths, or
// scheme-qualified locations.
func WithSearchPath(roots ...string) Option {
	return func(opts *scannerOptions) {
		opts.search = core.SearchPath(roots)
	}
}

// WithFactories registers additional scheme finder factories beyond the
// built-ins. Factories registered later win scheme conflicts, so a custom
// factory can take over a built-in scheme.
func WithFactories(factories ...core.SchemeFactory) Option {
	return func(opts *scannerOptions) {
		opts.factories = append(opts.factories, factories...)
	}
}

// WithMounts supplies the named virtual filesystems served by the built-in
// vfs scheme. Locations of the form "vfs://name/path" resolve against the
// mount registered under that name.
func WithMounts(mounts map[string]billy.Filesystem) Option {
	return func(opts *scannerOptions) {
		opts.mounts = mounts
	}
}

// defaultOptions returns the default configuration options.
func defaultOptions() *scannerOptions {
	return &scannerOptions{
		logger:   nil, // No default logger
		provider: nil, // Resolved to the process-wide provider at construction
		search:   nil, // Empty search path
	}
}

// applyOptions applies the given options to the scanner options.
func applyOptions(opts *scannerOptions, options []Option) {
	for _, option := range options {
		option(opts)
	}
}
