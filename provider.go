package resscan

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
)

// The location provider is process-wide state: every scanner that is not
// given a per-instance provider consults the same one. First access
// constructs the default lazily with the double-checked pattern so repeated
// reads stay lock-free.
var (
	providerMu     sync.Mutex
	activeProvider atomic.Pointer[providerRef]
	providerSealed bool

	// newDefaultProvider constructs the default provider on first access.
	// Tests swap it to count constructions.
	newDefaultProvider = func() core.LocationProvider { return &searchProvider{} }
)

// providerRef boxes the interface value so it can sit behind an atomic
// pointer regardless of the concrete provider type.
type providerRef struct {
	provider core.LocationProvider
}

// Provider returns the process-wide location provider, constructing the
// default on first access. Safe for concurrent use; the default constructor
// runs at most once.
func Provider() core.LocationProvider {
	if ref := activeProvider.Load(); ref != nil {
		return ref.provider
	}

	providerMu.Lock()
	defer providerMu.Unlock()
	if ref := activeProvider.Load(); ref != nil {
		return ref.provider
	}
	p := newDefaultProvider()
	activeProvider.Store(&providerRef{provider: p})
	return p
}

// SetProvider replaces the process-wide location provider. The new provider
// takes effect for scans started afterwards; passes already in flight keep
// the provider they started with. It fails with core.ErrPermission once the
// host has sealed the provider.
func SetProvider(p core.LocationProvider) error {
	if p == nil {
		return errors.New("provider cannot be nil")
	}

	providerMu.Lock()
	defer providerMu.Unlock()
	if providerSealed {
		return fmt.Errorf("set location provider: %w", core.ErrPermission)
	}
	activeProvider.Store(&providerRef{provider: p})
	return nil
}

// SealProvider locks the current provider in place: every subsequent
// SetProvider call fails with core.ErrPermission. Sealing is one-way and is
// intended for hosts that finish configuring discovery during startup and
// want to forbid later replacement.
func SealProvider() {
	providerMu.Lock()
	defer providerMu.Unlock()
	providerSealed = true
}
