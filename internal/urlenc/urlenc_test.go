package urlenc

import (
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRebuild(t *testing.T) {
	tests := []struct {
		name    string
		raw     string
		want    string
		wantErr bool
	}{
		{
			name: "space in path",
			raw:  "file:/a dir/pkg",
			want: "file:/a%20dir/pkg",
		},
		{
			name: "invalid escape in path",
			raw:  "file:/cache%zz/pkg",
			want: "file:/cache%25zz/pkg",
		},
		{
			name: "valid escapes pass through",
			raw:  "file:/a%20dir/b c",
			want: "file:/a%20dir/b%20c",
		},
		{
			name: "trailing percent",
			raw:  "file:/dir%",
			want: "file:/dir%25",
		},
		{
			name: "query encoded separately",
			raw:  "git:/repo!/src?ref=feature branch",
			want: "git:/repo!/src?ref=feature%20branch",
		},
		{
			name: "fragment left verbatim",
			raw:  "zip:/bundle%.zip!/pkg#a b",
			want: "zip:/bundle%25.zip!/pkg#a b",
		},
		{
			name: "authority untouched",
			raw:  "s3://my bucket/base pkg",
			want: "s3://my bucket/base%20pkg",
		},
		{
			name:    "missing scheme",
			raw:     "/plain/path",
			wantErr: true,
		},
		{
			name:    "scheme starts with digit",
			raw:     "1http://host/p",
			wantErr: true,
		},
		{
			name:    "empty scheme",
			raw:     "://host/p",
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Rebuild(tt.raw)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRebuildReparses(t *testing.T) {
	raws := []string{
		"file:/a dir/pkg",
		"file:/cache%zz/pkg",
		"tgz:/srv/bundle .tgz!/com/acme",
		"https://host/path%/bundle.tgz?v=1 2",
	}
	for _, raw := range raws {
		rebuilt, err := Rebuild(raw)
		require.NoError(t, err, raw)
		_, err = url.Parse(rebuilt)
		assert.NoError(t, err, "rebuilt form %q must parse", rebuilt)
	}
}

func TestEncodePath(t *testing.T) {
	assert.Equal(t, "/a:b@c/d!e", EncodePath("/a:b@c/d!e"))
	assert.Equal(t, "%5Bbracket%5D", EncodePath("[bracket]"))
	assert.Equal(t, "%00", EncodePath("\x00"))
}

func TestEncodeQuery(t *testing.T) {
	assert.Equal(t, "a=1&b=2?c", EncodeQuery("a=1&b=2?c"))
	assert.Equal(t, "a=%201", EncodeQuery("a=%201"))
	assert.Equal(t, "a=%25", EncodeQuery("a=%"))
}
