// Package store keeps the configuration document in two copies: the copy that is
// known to match the host (last confirmed) and the copy that is being edited (working).
package store

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"

	"github.com/sacnlogger/configsync/document"
)

var (
	// ErrInvalidUniverseID is returned if a universe is out of range.
	ErrInvalidUniverseID = errors.New("invalid universe id")

	// ErrNotLoaded is returned if a mutation is requested before a document has been loaded.
	ErrNotLoaded = errors.New("no document loaded")
)

// Store is a store for the configuration document.
type Store interface {
	// Load sets the last confirmed and the working copy to the given document.
	// Unsaved changes of the working copy are discarded.
	Load(d document.Document)

	// AddUniverse adds a universe to the working copy. Adding an existing
	// universe doesn't change the working copy.
	AddUniverse(universe int) error

	// RemoveUniverse removes a universe from the working copy. Removing a
	// universe that is not in the working copy is not an error.
	RemoveUniverse(universe int) error

	// SetPriorityFlag sets the priority flag of the working copy.
	SetPriorityFlag(value bool) error

	// TogglePriorityFlag inverts the priority flag of the working copy and returns the new value.
	TogglePriorityFlag() (bool, error)

	// Revert replaces the working copy by the last confirmed copy. It's a no-op
	// if no document has been loaded yet.
	Revert()

	// Commit makes the given document, usually a snapshot of the working copy that
	// has been persisted, the last confirmed copy. The working copy is not touched.
	Commit(d document.Document)

	// Working returns a copy of the working copy. The second return value is false
	// if no document has been loaded yet.
	Working() (document.Document, bool)

	// LastConfirmed returns a copy of the last confirmed copy. The second return value
	// is false if no document has been loaded yet.
	LastConfirmed() (document.Document, bool)

	// NextSuggestedUniverse returns the universe after the highest universe in
	// the working copy. The second return value is false if there's no suggestion.
	NextSuggestedUniverse() (int, bool)

	// IsLoaded returns whether a document has been loaded.
	IsLoaded() bool

	// IsDirty returns whether the working copy differs from the last confirmed copy.
	IsDirty() bool
}

type store struct {
	lastConfirmed *document.Document
	working       *document.Document

	lock sync.RWMutex
}

// New returns an empty store.
func New() Store {
	return &store{}
}

func (s *store) Load(d document.Document) {
	confirmed := d.Clone()
	working := d.Clone()

	s.lock.Lock()
	defer s.lock.Unlock()

	s.lastConfirmed = &confirmed
	s.working = &working
}

func (s *store) AddUniverse(universe int) error {
	if !document.IsValidUniverse(universe) {
		return fmt.Errorf("%w: %d is not in [%d, %d]", ErrInvalidUniverseID, universe, document.UniverseMin, document.UniverseMax)
	}

	s.lock.Lock()
	defer s.lock.Unlock()

	if s.working == nil {
		return ErrNotLoaded
	}

	s.working.Universes = append(s.working.Universes, uint16(universe))
	s.working.Normalize()

	return nil
}

func (s *store) RemoveUniverse(universe int) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.working == nil {
		return ErrNotLoaded
	}

	if universe < 0 || universe > math.MaxUint16 {
		return nil
	}

	s.working.Universes = slices.DeleteFunc(s.working.Universes, func(u uint16) bool {
		return u == uint16(universe)
	})

	return nil
}

func (s *store) SetPriorityFlag(value bool) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.working == nil {
		return ErrNotLoaded
	}

	s.working.UsePap = value

	return nil
}

func (s *store) TogglePriorityFlag() (bool, error) {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.working == nil {
		return false, ErrNotLoaded
	}

	s.working.UsePap = !s.working.UsePap

	return s.working.UsePap, nil
}

func (s *store) Revert() {
	s.lock.Lock()
	defer s.lock.Unlock()

	if s.lastConfirmed == nil {
		return
	}

	working := s.lastConfirmed.Clone()
	s.working = &working
}

func (s *store) Commit(d document.Document) {
	confirmed := d.Clone()

	s.lock.Lock()
	defer s.lock.Unlock()

	s.lastConfirmed = &confirmed

	if s.working == nil {
		working := d.Clone()
		s.working = &working
	}
}

func (s *store) Working() (document.Document, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.working == nil {
		return document.Document{}, false
	}

	return s.working.Clone(), true
}

func (s *store) LastConfirmed() (document.Document, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.lastConfirmed == nil {
		return document.Document{}, false
	}

	return s.lastConfirmed.Clone(), true
}

func (s *store) NextSuggestedUniverse() (int, bool) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.working == nil || len(s.working.Universes) == 0 {
		return 0, false
	}

	return int(slices.Max(s.working.Universes)) + 1, true
}

func (s *store) IsLoaded() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	return s.working != nil
}

func (s *store) IsDirty() bool {
	s.lock.RLock()
	defer s.lock.RUnlock()

	if s.working == nil || s.lastConfirmed == nil {
		return false
	}

	return !s.working.Equal(*s.lastConfirmed)
}
