package storage

import (
	"fmt"
	"maps"
	"regexp"
	"slices"

	"github.com/pixil98/go-errors"
	"github.com/pixil98/go-kitties/internal/kitties"
)

var identifierPattern = regexp.MustCompile(`^[a-zA-Z0-9-]*$`)

type ValidatingSpec interface {
	Validate() error
}

type Identifier string

func (id Identifier) String() string {
	return string(id)
}

// Asset is the versioned envelope every persisted document is wrapped in.
type Asset[T ValidatingSpec] struct {
	Version    uint       `json:"version"`
	Identifier Identifier `json:"id"`
	Spec       T          `json:"spec"`
}

func (a *Asset[T]) Id() Identifier {
	return a.Identifier
}

func (a *Asset[T]) Validate() error {
	el := errors.NewErrorList()

	if a.Version == 0 {
		el.Add(fmt.Errorf("version must be set"))
	}

	if a.Identifier == "" {
		el.Add(fmt.Errorf("id must be set"))
	}

	if !identifierPattern.MatchString(a.Identifier.String()) {
		el.Add(fmt.Errorf("id must be alphanumeric"))
	}

	el.Add(a.Spec.Validate())

	return el.Err()
}

// LedgerState is a full copy of the registry: the count, every kitty's DNA
// and every owner.
type LedgerState struct {
	Count   *kitties.KittyIndex                      `json:"count,omitempty"`
	Kitties map[kitties.KittyIndex]kitties.DNA       `json:"kitties"`
	Owners  map[kitties.KittyIndex]kitties.AccountID `json:"owners"`
}

// Validate checks that owners and kitties pair up and that every id was
// allocated by the count.
func (l *LedgerState) Validate() error {
	if l == nil {
		return fmt.Errorf("spec must be set")
	}

	el := errors.NewErrorList()

	if l.Count == nil && len(l.Kitties) > 0 {
		el.Add(fmt.Errorf("count must be set when kitties exist"))
	}

	for _, id := range slices.Sorted(maps.Keys(l.Kitties)) {
		if id == 0 {
			el.Add(fmt.Errorf("kitty id 0 is not allowed"))
		}
		if l.Count != nil && id > *l.Count {
			el.Add(fmt.Errorf("kitty %d is beyond count %d", id, *l.Count))
		}
		if _, ok := l.Owners[id]; !ok {
			el.Add(fmt.Errorf("kitty %d has no owner", id))
		}
	}

	for _, id := range slices.Sorted(maps.Keys(l.Owners)) {
		if _, ok := l.Kitties[id]; !ok {
			el.Add(fmt.Errorf("owner recorded for missing kitty %d", id))
		}
	}

	return el.Err()
}
