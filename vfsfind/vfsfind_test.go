package vfsfind

import (
	"context"
	"io"
	"net/url"
	"os"
	"testing"

	"github.com/go-git/go-billy/v5"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/go-git/go-billy/v5/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
)

func newMount(t *testing.T, files map[string]string) billy.Filesystem {
	t.Helper()
	m := memfs.New()
	for name, content := range files {
		require.NoError(t, util.WriteFile(m, name, []byte(content), 0o644))
	}
	return m
}

func create(t *testing.T, factory *Factory, rawLoc string) core.Finder {
	t.Helper()
	loc, err := url.Parse(rawLoc)
	require.NoError(t, err)
	f, err := factory.Create(context.Background(), loc)
	require.NoError(t, err)
	return f
}

func drain(t *testing.T, f core.Finder) []string {
	t.Helper()
	var names []string
	for f.HasNext() {
		name, err := f.Next()
		require.NoError(t, err)
		names = append(names, name)
	}
	return names
}

func TestFactorySchemes(t *testing.T) {
	assert.Equal(t, []string{"vfs"}, NewFactory(nil).Schemes())
}

func TestCreateUnknownMount(t *testing.T) {
	factory := NewFactory(map[string]billy.Filesystem{"known": memfs.New()})
	loc, err := url.Parse("vfs://other/com/acme")
	require.NoError(t, err)

	_, err = factory.Create(context.Background(), loc)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no filesystem mounted")
}

func TestCreateMountNameCaseInsensitive(t *testing.T) {
	factory := NewFactory(map[string]billy.Filesystem{
		"Fixtures": newMount(t, map[string]string{"/com/acme/one.txt": "1"}),
	})

	f := create(t, factory, "vfs://fixtures/com/acme")
	assert.Equal(t, []string{"one.txt"}, drain(t, f))
}

func TestFinderYieldsSortedNames(t *testing.T) {
	factory := NewFactory(map[string]billy.Filesystem{
		"fixtures": newMount(t, map[string]string{
			"/com/acme/zeta.txt":       "z",
			"/com/acme/alpha.txt":      "a",
			"/com/acme/sub/mid.txt":    "m",
			"/com/other/unrelated.txt": "u",
		}),
	})

	f := create(t, factory, "vfs://fixtures/com/acme")
	assert.Equal(t, []string{"alpha.txt", "sub/mid.txt", "zeta.txt"}, drain(t, f))
}

func TestMissingSubpathYieldsEmptyFinder(t *testing.T) {
	factory := NewFactory(map[string]billy.Filesystem{
		"fixtures": newMount(t, map[string]string{"/com/acme/one.txt": "1"}),
	})

	f := create(t, factory, "vfs://fixtures/org/absent")
	assert.False(t, f.HasNext())
	_, err := f.Next()
	assert.ErrorIs(t, err, core.ErrExhausted)
}

func TestOpenReadsContent(t *testing.T) {
	factory := NewFactory(map[string]billy.Filesystem{
		"fixtures": newMount(t, map[string]string{"/com/acme/one.txt": "payload"}),
	})

	f := create(t, factory, "vfs://fixtures/com/acme")
	_, err := f.Open()
	assert.ErrorIs(t, err, core.ErrStaleCursor)

	name, err := f.Next()
	require.NoError(t, err)
	require.Equal(t, "one.txt", name)

	rc, err := f.Open()
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "payload", string(data))
}

func TestRemove(t *testing.T) {
	mount := newMount(t, map[string]string{
		"/com/acme/keep.txt": "k",
		"/com/acme/kill.txt": "d",
	})
	factory := NewFactory(map[string]billy.Filesystem{"fixtures": mount})

	f := create(t, factory, "vfs://fixtures/com/acme")
	_, err := f.Next()
	require.NoError(t, err)
	name, err := f.Next()
	require.NoError(t, err)
	require.Equal(t, "kill.txt", name)

	require.NoError(t, f.Remove())
	_, err = mount.Stat("/com/acme/kill.txt")
	assert.ErrorIs(t, err, os.ErrNotExist)

	require.NoError(t, f.Reset())
	assert.Equal(t, []string{"keep.txt"}, drain(t, f))
}
