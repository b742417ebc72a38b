// Package persistence provides a generic repository over GORM and a SQLite
// database whose opening and closing are lifecycle commands.
package persistence

import (
	"context"
	"errors"
	"fmt"
)

// ErrEntityNotFound matches every *EntityNotFoundError.
var ErrEntityNotFound = errors.New("persistence: entity not found")

// ErrNotOpen is returned when a repository is used before its database is open.
var ErrNotOpen = errors.New("persistence: database not open")

// Repository is the CRUD contract of an entity type T keyed by PK.
type Repository[T any, PK any] interface {
	// Find returns the entity with the given primary key or an
	// *EntityNotFoundError.
	Find(ctx context.Context, pk PK) (*T, error)

	// FindAll returns every entity.
	FindAll(ctx context.Context) ([]T, error)

	// Create inserts entity. Generated keys are written back into it.
	Create(ctx context.Context, entity *T) error

	// Update inserts or updates entity.
	Update(ctx context.Context, entity *T) error

	// Delete removes entity, identified by its primary key.
	Delete(ctx context.Context, entity *T) error
}

// EntityNotFoundError reports a primary key without entity.
type EntityNotFoundError struct {
	Entity string
	Key    string
}

func (e *EntityNotFoundError) Error() string {
	return fmt.Sprintf("%s entity with the identifier %s not found", e.Entity, e.Key)
}

// Is reports whether target is ErrEntityNotFound.
func (e *EntityNotFoundError) Is(target error) bool {
	return target == ErrEntityNotFound
}
