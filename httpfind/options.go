package httpfind

import "net/http"

// options holds the configurable behavior of a Factory.
type options struct {
	// client issues the archive downloads. Nil means http.DefaultClient.
	client *http.Client

	// cacheDir stores downloaded archives. Empty means the user cache
	// directory.
	cacheDir string
}

// Option configures a Factory.
type Option func(*options)

// WithHTTPClient supplies the HTTP client used for downloads. Use it to
// set timeouts, proxies, or TLS configuration.
func WithHTTPClient(client *http.Client) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithCacheDir overrides the directory downloaded archives are cached in.
func WithCacheDir(dir string) Option {
	return func(o *options) {
		o.cacheDir = dir
	}
}
