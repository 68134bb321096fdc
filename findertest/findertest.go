// Package findertest provides a conformance test suite for validating
// finder implementations against the core.Finder cursor contract.
//
// Scheme finder packages import it and feed it a fixture builder. The
// suite drives the finder through the full cursor lifecycle: ordered
// iteration, idempotent exhaustion, stale-cursor gating, reset replay,
// and removal (or its refusal on read-only backends).
//
// Example usage:
//
//	func TestConformance(t *testing.T) {
//	    findertest.Run(t, func(t *testing.T) findertest.Fixture {
//	        root := writeFixtureTree(t)
//	        return findertest.Fixture{
//	            Factory:  dirfind.NewFactory(),
//	            Location: "file:" + root,
//	            Want:     map[string]string{"a.txt": "alpha"},
//	        }
//	    })
//	}
package findertest

import (
	"context"
	"errors"
	"io"
	"net/url"
	"slices"
	"testing"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
)

// Fixture describes one finder arrangement under test. The factory and
// location must resolve to a finder yielding exactly the Want entries,
// and Want must name at least one resource.
type Fixture struct {
	// Factory creates the finder under test.
	Factory core.SchemeFactory

	// Location is the canonical location string handed to the factory.
	Location string

	// Want maps every expected resource name to its content.
	Want map[string]string

	// ReadOnly marks backends whose Remove reports
	// core.ErrRemoveUnsupported instead of deleting.
	ReadOnly bool
}

// Run executes the conformance tests. newFixture is called once per
// subtest and must return a fresh backing store each time, so tests
// cannot observe one another's mutations.
func Run(t *testing.T, newFixture func(t *testing.T) Fixture) {
	t.Run("YieldsExpected", func(t *testing.T) {
		testYieldsExpected(t, newFixture(t))
	})
	t.Run("Deterministic", func(t *testing.T) {
		testDeterministic(t, newFixture(t))
	})
	t.Run("ExhaustionIdempotent", func(t *testing.T) {
		testExhaustionIdempotent(t, newFixture(t))
	})
	t.Run("OpenBeforeNext", func(t *testing.T) {
		testOpenBeforeNext(t, newFixture(t))
	})
	t.Run("OpenAfterExhaustion", func(t *testing.T) {
		testOpenAfterExhaustion(t, newFixture(t))
	})
	t.Run("Reset", func(t *testing.T) {
		testReset(t, newFixture(t))
	})
	t.Run("Remove", func(t *testing.T) {
		testRemove(t, newFixture(t))
	})
}

// createFinder resolves the fixture location through its factory.
func createFinder(t *testing.T, fx Fixture) core.Finder {
	t.Helper()
	loc, err := url.Parse(fx.Location)
	if err != nil {
		t.Fatalf("Parse(%q): %v", fx.Location, err)
	}
	f, err := fx.Factory.Create(context.Background(), loc)
	if err != nil {
		t.Fatalf("Create(%q): %v", fx.Location, err)
	}
	return f
}

// names drains the finder and returns the yielded resource names in order.
func names(t *testing.T, f core.Finder) []string {
	t.Helper()
	var out []string
	for f.HasNext() {
		name, err := f.Next()
		if err != nil {
			t.Fatalf("Next(): %v", err)
		}
		out = append(out, name)
	}
	return out
}

// collect drains the finder, opening each resource, and returns name to
// content.
func collect(t *testing.T, f core.Finder) map[string]string {
	t.Helper()
	got := make(map[string]string)
	for f.HasNext() {
		name, err := f.Next()
		if err != nil {
			t.Fatalf("Next(): %v", err)
		}
		rc, err := f.Open()
		if err != nil {
			t.Fatalf("Open(%q): %v", name, err)
		}
		data, err := io.ReadAll(rc)
		if closeErr := rc.Close(); closeErr != nil {
			t.Errorf("Close(%q): %v", name, closeErr)
		}
		if err != nil {
			t.Fatalf("read %q: %v", name, err)
		}
		got[name] = string(data)
	}
	return got
}

func testYieldsExpected(t *testing.T, fx Fixture) {
	got := collect(t, createFinder(t, fx))
	if len(got) != len(fx.Want) {
		t.Errorf("yielded %d resources, want %d (got %v)", len(got), len(fx.Want), got)
	}
	for name, want := range fx.Want {
		content, ok := got[name]
		if !ok {
			t.Errorf("resource %q missing from iteration", name)
			continue
		}
		if content != want {
			t.Errorf("resource %q content = %q, want %q", name, content, want)
		}
	}
}

func testDeterministic(t *testing.T, fx Fixture) {
	first := names(t, createFinder(t, fx))
	second := names(t, createFinder(t, fx))
	if !slices.Equal(first, second) {
		t.Errorf("two finders over the same store disagree: %v vs %v", first, second)
	}
}

func testExhaustionIdempotent(t *testing.T, fx Fixture) {
	f := createFinder(t, fx)
	names(t, f)

	for i := 0; i < 3; i++ {
		if _, err := f.Next(); !errors.Is(err, core.ErrExhausted) {
			t.Errorf("Next() after exhaustion, attempt %d: got %v, want ErrExhausted", i+1, err)
		}
		if f.HasNext() {
			t.Errorf("HasNext() after exhaustion, attempt %d: got true", i+1)
		}
	}
}

func testOpenBeforeNext(t *testing.T, fx Fixture) {
	f := createFinder(t, fx)
	if _, err := f.Open(); !errors.Is(err, core.ErrStaleCursor) {
		t.Errorf("Open() before first Next(): got %v, want ErrStaleCursor", err)
	}
	if err := f.Remove(); !errors.Is(err, core.ErrStaleCursor) {
		t.Errorf("Remove() before first Next(): got %v, want ErrStaleCursor", err)
	}
}

func testOpenAfterExhaustion(t *testing.T, fx Fixture) {
	f := createFinder(t, fx)
	names(t, f)
	if _, err := f.Next(); !errors.Is(err, core.ErrExhausted) {
		t.Fatalf("Next() after exhaustion: got %v, want ErrExhausted", err)
	}
	if _, err := f.Open(); !errors.Is(err, core.ErrStaleCursor) {
		t.Errorf("Open() after failed Next(): got %v, want ErrStaleCursor", err)
	}
}

func testReset(t *testing.T, fx Fixture) {
	f := createFinder(t, fx)
	first := names(t, f)

	if err := f.Reset(); err != nil {
		t.Fatalf("Reset(): %v", err)
	}
	if _, err := f.Open(); !errors.Is(err, core.ErrStaleCursor) {
		t.Errorf("Open() after Reset(): got %v, want ErrStaleCursor", err)
	}
	second := names(t, f)
	if !slices.Equal(first, second) {
		t.Errorf("iteration after Reset() disagrees: %v vs %v", first, second)
	}
}

func testRemove(t *testing.T, fx Fixture) {
	f := createFinder(t, fx)
	name, err := f.Next()
	if err != nil {
		t.Fatalf("Next(): %v", err)
	}

	if fx.ReadOnly {
		if err := f.Remove(); !errors.Is(err, core.ErrRemoveUnsupported) {
			t.Errorf("Remove() on read-only backend: got %v, want ErrRemoveUnsupported", err)
		}
		return
	}

	if err := f.Remove(); err != nil {
		t.Fatalf("Remove(%q): %v", name, err)
	}
	after := names(t, createFinder(t, fx))
	if slices.Contains(after, name) {
		t.Errorf("resource %q still discovered after Remove()", name)
	}
}
