// Package document provides the configuration document that is exchanged with the
// sACN logger host: the set of monitored universes and the per-address-priority flag.
package document

import (
	"errors"
	"fmt"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/go-playground/validator/v10"
)

const (
	UniverseMin = 1
	UniverseMax = 63999
)

// ErrInvalidDocument is returned if a document violates the document invariants.
var ErrInvalidDocument = errors.New("invalid document")

// Document is the configuration of the host.
type Document struct {
	// Universes is the set of universes to monitor. It has no duplicates and every
	// entry is in [UniverseMin, UniverseMax]. It is kept in ascending order.
	Universes []uint16 `json:"universes" validate:"unique,dive,min=1,max=63999"`

	// UsePap enables the per-address-priority handling.
	UsePap bool `json:"usePap"`
}

var (
	validate     *validator.Validate
	validateOnce sync.Once
)

func documentValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New()
	})

	return validate
}

// IsValidUniverse returns whether the given universe is in the range of valid universes.
func IsValidUniverse(universe int) bool {
	return universe >= UniverseMin && universe <= UniverseMax
}

// Validate checks the document invariants. The returned error wraps ErrInvalidDocument.
func (d Document) Validate() error {
	err := documentValidator().Struct(d)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %s", ErrInvalidDocument, err.Error())
	}

	details := []string{}
	for _, e := range verrs {
		details = append(details, fmt.Sprintf("%s failed on '%s'", e.Namespace(), e.Tag()))
	}

	return fmt.Errorf("%w: %s", ErrInvalidDocument, strings.Join(details, ", "))
}

// Clone returns a deep copy of the document.
func (d Document) Clone() Document {
	return Document{
		Universes: slices.Clone(d.Universes),
		UsePap:    d.UsePap,
	}
}

// Equal returns whether both documents have the same universes in the same order
// and the same flag. A nil and an empty universe list are equal.
func (d Document) Equal(x Document) bool {
	if d.UsePap != x.UsePap {
		return false
	}

	return slices.Equal(d.Universes, x.Universes)
}

// Normalize sorts the universes in ascending order and removes duplicates.
func (d *Document) Normalize() {
	slices.Sort(d.Universes)
	d.Universes = slices.Compact(d.Universes)
}

// HasUniverse returns whether the universe is part of the document.
func (d Document) HasUniverse(universe int) bool {
	if !IsValidUniverse(universe) {
		return false
	}

	return slices.Contains(d.Universes, uint16(universe))
}

func (d Document) String() string {
	universes := make([]string, 0, len(d.Universes))
	for _, u := range d.Universes {
		universes = append(universes, strconv.FormatUint(uint64(u), 10))
	}

	return fmt.Sprintf("universes=[%s] usePap=%t", strings.Join(universes, ","), d.UsePap)
}
