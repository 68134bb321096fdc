package resscan

import (
	"io"

	"github.com/input-output-hk/catalyst-forge-libs/resscan/core"
)

// finderStack composes an ordered collection of finders into one cursor.
// Resources are yielded in push order: all of the first finder, then all of
// the second, and so on. The active index only moves forward; a finder once
// passed is never revisited.
//
// The zero value is a valid, empty stack.
type finderStack struct {
	finders []core.Finder
	active  int

	// producer is the index of the finder that returned the most recent
	// name; valid is cleared when no such name exists or the active index
	// has moved past it.
	producer int
	valid    bool
}

// push appends a finder without activating it.
func (s *finderStack) push(f core.Finder) {
	s.finders = append(s.finders, f)
}

// HasNext reports whether any finder from the active one onward still has
// unconsumed resources, skipping past exhausted finders as it checks.
func (s *finderStack) HasNext() bool {
	for s.active < len(s.finders) {
		if s.finders[s.active].HasNext() {
			return true
		}
		s.active++
	}
	return false
}

// Next advances past exhausted finders and returns the next resource name.
func (s *finderStack) Next() (string, error) {
	if !s.HasNext() {
		s.valid = false
		return "", core.ErrExhausted
	}
	name, err := s.finders[s.active].Next()
	if err != nil {
		s.valid = false
		return "", err
	}
	s.producer = s.active
	s.valid = true
	return name, nil
}

// Open opens the resource named by the most recent Next from the finder that
// produced it.
func (s *finderStack) Open() (io.ReadCloser, error) {
	f, err := s.producerFinder()
	if err != nil {
		return nil, err
	}
	return f.Open()
}

// Remove delegates deletion of the current resource to the finder that
// produced it.
func (s *finderStack) Remove() error {
	f, err := s.producerFinder()
	if err != nil {
		return err
	}
	return f.Remove()
}

// producerFinder returns the finder that produced the most recent name, or
// ErrStaleCursor when there is none or the active index has moved past it.
func (s *finderStack) producerFinder() (core.Finder, error) {
	if !s.valid || s.producer != s.active {
		return nil, core.ErrStaleCursor
	}
	return s.finders[s.producer], nil
}
