// Package s3find resolves s3 scheme locations against Amazon S3 buckets.
// A location names a bucket and key prefix, s3://bundles/com/acme, and the
// finder iterates the object keys beneath the prefix in S3 listing order.
// Keys are collected once at creation; Open and Remove issue individual
// requests afterwards, so object content streams from the bucket instead
// of loading into memory.
package s3find

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
)

// noSuchBucket is the API error code S3 returns for a missing bucket.
const noSuchBucket = "NoSuchBucket"

// maxPageSize is the largest key count S3 returns per list page.
const maxPageSize = 1000

// S3API is the slice of the S3 client surface the finder needs.
// It allows mocking in tests and swapping in S3-compatible endpoints.
type S3API interface {
	// ListObjectsV2 lists objects in an S3 bucket
	ListObjectsV2(
		ctx context.Context,
		params *s3.ListObjectsV2Input,
		optFns ...func(*s3.Options),
	) (*s3.ListObjectsV2Output, error)

	// GetObject retrieves an object from S3
	GetObject(
		ctx context.Context,
		params *s3.GetObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.GetObjectOutput, error)

	// DeleteObject deletes an object from S3
	DeleteObject(
		ctx context.Context,
		params *s3.DeleteObjectInput,
		optFns ...func(*s3.Options),
	) (*s3.DeleteObjectOutput, error)
}

// Verify that the AWS S3 client implements our interface
var _ S3API = (*s3.Client)(nil)

// Factory creates finders over S3 key prefixes.
type Factory struct {
	client         S3API
	requestTimeout time.Duration
}

// NewFactory returns a factory handling s3 locations. Without WithClient
// it builds a client from the default AWS credential chain.
func NewFactory(ctx context.Context, opts ...Option) (*Factory, error) {
	if ctx == nil {
		return nil, fmt.Errorf("context cannot be nil")
	}

	var o options
	for _, opt := range opts {
		opt(&o)
	}

	if o.client == nil {
		cfg, err := config.LoadDefaultConfig(ctx)
		if err != nil {
			return nil, fmt.Errorf("s3find: load AWS config: %w", err)
		}
		o.client = s3.NewFromConfig(cfg)
	}

	return &Factory{client: o.client, requestTimeout: o.requestTimeout}, nil
}

// Schemes reports the scheme tokens this factory serves.
func (*Factory) Schemes() []string { return []string{"s3"} }

// Create lists the keys beneath the location prefix and returns a finder
// over them. The bucket must exist; a prefix with no keys yields an empty
// finder.
func (f *Factory) Create(ctx context.Context, loc *url.URL) (core.Finder, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	bucket := loc.Host
	if bucket == "" {
		return nil, fmt.Errorf("s3find: location %q has no bucket", loc)
	}
	keyPrefix := strings.Trim(loc.Path, "/")
	if keyPrefix != "" {
		keyPrefix += "/"
	}

	names, err := f.listKeys(ctx, bucket, keyPrefix)
	if err != nil {
		return nil, err
	}
	return &Finder{
		client:         f.client,
		bucket:         bucket,
		keyPrefix:      keyPrefix,
		requestTimeout: f.requestTimeout,
		names:          names,
	}, nil
}

// listKeys pages through ListObjectsV2 and collects prefix-relative key
// names. Keys ending in "/" are folder markers, not resources.
func (f *Factory) listKeys(ctx context.Context, bucket, keyPrefix string) ([]string, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:  aws.String(bucket),
		MaxKeys: aws.Int32(maxPageSize),
	}
	if keyPrefix != "" {
		input.Prefix = aws.String(keyPrefix)
	}

	var names []string
	for {
		output, err := f.client.ListObjectsV2(ctx, input)
		if err != nil {
			var apiErr smithy.APIError
			if errors.As(err, &apiErr) && apiErr.ErrorCode() == noSuchBucket {
				return nil, fmt.Errorf("s3find: bucket %q does not exist: %w", bucket, err)
			}
			return nil, fmt.Errorf("s3find: list s3://%s/%s: %w", bucket, keyPrefix, err)
		}

		for _, obj := range output.Contents {
			key := aws.ToString(obj.Key)
			if strings.HasSuffix(key, "/") {
				continue
			}
			name := strings.TrimPrefix(key, keyPrefix)
			if name == "" {
				continue
			}
			names = append(names, name)
		}

		if !aws.ToBool(output.IsTruncated) {
			break
		}
		input.ContinuationToken = output.NextContinuationToken
	}
	return names, nil
}

// Finder iterates the objects beneath one S3 key prefix.
// It is not safe for concurrent use.
type Finder struct {
	client         S3API
	bucket         string
	keyPrefix      string
	requestTimeout time.Duration
	names          []string
	pos            int
	current        string
	valid          bool
}

// HasNext reports whether another resource remains.
func (f *Finder) HasNext() bool { return f.pos < len(f.names) }

// Next advances to the next resource and returns its name.
func (f *Finder) Next() (string, error) {
	if !f.HasNext() {
		f.valid = false
		return "", core.ErrExhausted
	}
	f.current = f.names[f.pos]
	f.pos++
	f.valid = true
	return f.current, nil
}

// requestContext returns the context for a post-discovery S3 request. The
// cancel func is a no-op when no timeout is configured.
func (f *Finder) requestContext() (context.Context, context.CancelFunc) {
	if f.requestTimeout > 0 {
		return context.WithTimeout(context.Background(), f.requestTimeout)
	}
	return context.Background(), func() {}
}

// Open streams the content of the current object.
func (f *Finder) Open() (io.ReadCloser, error) {
	if !f.valid {
		return nil, core.ErrStaleCursor
	}
	ctx, cancel := f.requestContext()
	output, err := f.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.keyPrefix + f.current),
	})
	if err != nil {
		cancel()
		return nil, fmt.Errorf("s3find: open %q: %w", f.current, err)
	}
	return &timedBody{ReadCloser: output.Body, cancel: cancel}, nil
}

// timedBody keeps the request context alive until the caller closes the
// object stream.
type timedBody struct {
	io.ReadCloser
	cancel context.CancelFunc
}

// Close closes the object stream and releases the request context.
func (b *timedBody) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

// Remove deletes the current object from the bucket.
func (f *Finder) Remove() error {
	if !f.valid {
		return core.ErrStaleCursor
	}
	ctx, cancel := f.requestContext()
	defer cancel()
	_, err := f.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(f.bucket),
		Key:    aws.String(f.keyPrefix + f.current),
	})
	if err != nil {
		return fmt.Errorf("s3find: remove %q: %w", f.current, err)
	}
	return nil
}

// Reset rewinds the cursor over the listing taken at creation. A new
// discovery pass re-lists the bucket.
func (f *Finder) Reset() error {
	f.pos = 0
	f.valid = false
	return nil
}
