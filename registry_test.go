package resscan

import (
	"context"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
)

// fakeFactory builds fakeFinder cursors for the schemes it declares.
type fakeFactory struct {
	schemes []string
	create  func(ctx context.Context, loc *url.URL) (core.Finder, error)
	created []string
}

func (f *fakeFactory) Schemes() []string { return f.schemes }

func (f *fakeFactory) Create(ctx context.Context, loc *url.URL) (core.Finder, error) {
	f.created = append(f.created, loc.String())
	if f.create != nil {
		return f.create(ctx, loc)
	}
	return newFakeFinder(), nil
}

func TestRegistryRegisterAndLookup(t *testing.T) {
	factory := &fakeFactory{schemes: []string{"mem", "shared"}}

	r := schemeRegistry{}
	displaced := r.register(factory)
	assert.Empty(t, displaced)

	got, ok := r.lookup("mem")
	require.True(t, ok)
	assert.Same(t, factory, got)

	_, ok = r.lookup("gopher")
	assert.False(t, ok)
}

func TestRegistryLookupCaseInsensitive(t *testing.T) {
	factory := &fakeFactory{schemes: []string{"Mem"}}

	r := schemeRegistry{}
	r.register(factory)

	for _, scheme := range []string{"mem", "MEM", "Mem"} {
		got, ok := r.lookup(scheme)
		require.True(t, ok, "lookup %q", scheme)
		assert.Same(t, factory, got)
	}
}

func TestRegistryLastRegisteredWins(t *testing.T) {
	first := &fakeFactory{schemes: []string{"mem", "other"}}
	second := &fakeFactory{schemes: []string{"mem"}}

	r := schemeRegistry{}
	require.Empty(t, r.register(first))

	displaced := r.register(second)
	assert.Equal(t, []string{"mem"}, displaced)

	got, ok := r.lookup("mem")
	require.True(t, ok)
	assert.Same(t, second, got)

	got, ok = r.lookup("other")
	require.True(t, ok)
	assert.Same(t, first, got)
}
