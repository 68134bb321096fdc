package s3find

import "time"

// options holds the configurable behavior of a Factory.
type options struct {
	// client overrides the AWS SDK client. Nil means build one from the
	// default credential chain.
	client S3API

	// requestTimeout bounds each S3 request a finder makes after
	// discovery. Zero means no timeout.
	requestTimeout time.Duration
}

// Option configures a Factory.
type Option func(*options)

// WithClient supplies a pre-built S3 client. Use it for tests and for
// pointing the factory at LocalStack or another S3-compatible endpoint.
func WithClient(client S3API) Option {
	return func(o *options) {
		o.client = client
	}
}

// WithRequestTimeout bounds each Open and Remove request a finder makes.
// Discovery itself is bounded by the context passed to Create.
func WithRequestTimeout(d time.Duration) Option {
	return func(o *options) {
		o.requestTimeout = d
	}
}
