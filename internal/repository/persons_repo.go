package repository

import (
	"context"
	"errors"

	"familytree/internal/domain"
)

var (
	// ErrNotFound no row matched the identifier.
	ErrNotFound = errors.New("person not found")
	// ErrConflict the row changed (or vanished) since it was read; the caller
	// decides via Exists whether this is a real conflict or a delete race.
	ErrConflict = errors.New("person was modified concurrently")
)

// PersonsRepository data access for the persons table.
// Children are always derived by query, never stored.
type PersonsRepository interface {
	// ListAll returns every person in insertion order with father/mother
	// resolved. No pagination; the register is expected to stay small.
	ListAll(ctx context.Context) ([]domain.Person, error)

	// GetByID returns the person with father/mother resolved, or ErrNotFound.
	GetByID(ctx context.Context, id int64) (*domain.Person, error)

	// FindChildren returns every person whose father_id or mother_id is id.
	FindChildren(ctx context.Context, id int64) ([]domain.Person, error)

	// Insert persists a new person and returns the assigned identifier.
	// A father/mother id referencing a nonexistent person fails at the store.
	Insert(ctx context.Context, p *domain.Person) (int64, error)

	// Update replaces all mutable fields of the row matching p.ID, guarded by
	// p.RowVersion. Returns ErrConflict when no row with that id+version
	// exists anymore.
	Update(ctx context.Context, p *domain.Person) error

	// Delete removes the row; ErrNotFound when it is already gone.
	Delete(ctx context.Context, id int64) error

	// Exists reports whether a row with the identifier is present.
	Exists(ctx context.Context, id int64) (bool, error)
}
