package s3find

import (
	"context"
	"io"
	"sort"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/findertest"
)

func TestConformance(t *testing.T) {
	findertest.Run(t, func(t *testing.T) findertest.Fixture {
		store := map[string]string{
			"com/acme/alpha.txt": "a",
			"com/acme/beta.txt":  "b",
		}
		mock := &mockS3{
			listFn: func(_ context.Context, params *s3.ListObjectsV2Input, _ ...func(*s3.Options)) (*s3.ListObjectsV2Output, error) {
				prefix := aws.ToString(params.Prefix)
				var keys []string
				for key := range store {
					if strings.HasPrefix(key, prefix) {
						keys = append(keys, key)
					}
				}
				sort.Strings(keys)
				return &s3.ListObjectsV2Output{
					Contents:    objects(keys...),
					IsTruncated: aws.Bool(false),
				}, nil
			},
			getFn: func(_ context.Context, params *s3.GetObjectInput, _ ...func(*s3.Options)) (*s3.GetObjectOutput, error) {
				content, ok := store[aws.ToString(params.Key)]
				if !ok {
					return nil, &smithy.GenericAPIError{Code: "NoSuchKey", Message: "missing key"}
				}
				return &s3.GetObjectOutput{Body: io.NopCloser(strings.NewReader(content))}, nil
			},
			delFn: func(_ context.Context, params *s3.DeleteObjectInput, _ ...func(*s3.Options)) (*s3.DeleteObjectOutput, error) {
				delete(store, aws.ToString(params.Key))
				return &s3.DeleteObjectOutput{}, nil
			},
		}

		factory, err := NewFactory(context.Background(), WithClient(mock))
		require.NoError(t, err)
		return findertest.Fixture{
			Factory:  factory,
			Location: "s3://bundles/com/acme",
			Want: map[string]string{
				"alpha.txt": "a",
				"beta.txt":  "b",
			},
		}
	})
}
