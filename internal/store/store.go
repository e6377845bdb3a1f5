// Package store declares the persistence interface for jams. Implementations
// live in subpackages; this package must not import database drivers.
package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/jamscout/jamscout/internal/jam"
)

// ErrNotFound signals that the requested jam does not exist.
var ErrNotFound = errors.New("jam not found")

// StorageError wraps a database failure with the operation that hit it.
type StorageError struct {
	// Op names the failed store operation, e.g. "upsert jam".
	Op string
	// Err is the underlying driver error.
	Err error
}

func (e *StorageError) Error() string {
	if e.Err == nil {
		return "store " + e.Op
	}
	return "store " + e.Op + ": " + e.Err.Error()
}

func (e *StorageError) Unwrap() error { return e.Err }

// Temporal restricts query results by where a jam's end lies relative to
// the time of the query.
type Temporal int

const (
	// TemporalCurrent keeps jams that have not ended yet.
	TemporalCurrent Temporal = iota
	// TemporalPast keeps jams that have already ended.
	TemporalPast
	// TemporalAny applies no end-time restriction.
	TemporalAny
)

// Filter selects jams for QueryJams. Exactly one of Category, OwnerID,
// JamID, or All must be set; Temporal narrows the selection further and
// defaults to TemporalCurrent.
type Filter struct {
	Category *jam.Category
	OwnerID  string
	JamID    string
	All      bool
	Temporal Temporal
}

// ByCategory selects current jams with the given category.
func ByCategory(c jam.Category) Filter { return Filter{Category: &c} }

// ByOwner selects current jams hosted by the given owner ID.
func ByOwner(id string) Filter { return Filter{OwnerID: id} }

// ByID selects the current jam with the given ID.
func ByID(id string) Filter { return Filter{JamID: id} }

// All selects every current jam.
func All() Filter { return Filter{All: true} }

// Validate reports whether the filter names exactly one selector and a
// known temporal mode.
func (f Filter) Validate() error {
	n := 0
	if f.Category != nil {
		n++
	}
	if f.OwnerID != "" {
		n++
	}
	if f.JamID != "" {
		n++
	}
	if f.All {
		n++
	}
	if n != 1 {
		return fmt.Errorf("filter requires exactly one of category, owner, id, or all, got %d", n)
	}
	switch f.Temporal {
	case TemporalCurrent, TemporalPast, TemporalAny:
		return nil
	default:
		return fmt.Errorf("unknown temporal mode %d", int(f.Temporal))
	}
}

// Store persists jams and their owners.
type Store interface {
	// Init creates the schema if it does not exist yet.
	Init(ctx context.Context) error
	// UpsertJam writes a jam and replaces its owner associations in one
	// transaction. Re-upserting the same jam is idempotent.
	UpsertJam(ctx context.Context, j *jam.Jam) error
	// LoadJam returns one jam with its owners, or ErrNotFound.
	LoadJam(ctx context.Context, id string) (*jam.Jam, error)
	// DeleteJam removes a jam and its owner associations, or returns
	// ErrNotFound when no such jam exists.
	DeleteJam(ctx context.Context, id string) error
	// QueryJams returns the IDs of jams matching f, ordered by end time
	// then ID.
	QueryJams(ctx context.Context, f Filter) ([]string, error)
	// KnownIDs returns the set of every stored jam ID.
	KnownIDs(ctx context.Context) (map[string]struct{}, error)
	// Close releases the underlying connections.
	Close()
}
