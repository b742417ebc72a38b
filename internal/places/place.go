// Package places is the sample places API: a repository of named coordinates
// served over HTTP.
package places

import (
	"context"
	"errors"
	"sort"
	"sync"

	"github.com/bft-labs/stagehand/pkg/persistence"
)

// Place is a named coordinate. Two places with the same name are the same place.
type Place struct {
	Name      string  `json:"name" gorm:"primaryKey"`
	Longitude float64 `json:"longitude"`
	Latitude  float64 `json:"latitude"`
}

// ErrInvalidPlace is returned when a place fails validation.
var ErrInvalidPlace = errors.New("places: invalid place")

// Validate checks the name and coordinate ranges.
func (p Place) Validate() error {
	switch {
	case p.Name == "":
		return errors.Join(ErrInvalidPlace, errors.New("name is required"))
	case p.Longitude < -180 || p.Longitude > 180:
		return errors.Join(ErrInvalidPlace, errors.New("longitude must be within [-180, 180]"))
	case p.Latitude < -90 || p.Latitude > 90:
		return errors.Join(ErrInvalidPlace, errors.New("latitude must be within [-90, 90]"))
	}
	return nil
}

// Repository stores places.
type Repository interface {
	// Save inserts or updates the place with the same name.
	Save(ctx context.Context, p Place) (Place, error)

	// Find returns the place named name or a persistence.ErrEntityNotFound error.
	Find(ctx context.Context, name string) (Place, error)

	// All returns every place ordered by name.
	All(ctx context.Context) ([]Place, error)
}

// MemoryRepository keeps places in memory.
type MemoryRepository struct {
	mu     sync.RWMutex
	places map[string]Place
}

// NewMemoryRepository returns an empty repository.
func NewMemoryRepository() *MemoryRepository {
	return &MemoryRepository{places: make(map[string]Place)}
}

func (r *MemoryRepository) Save(_ context.Context, p Place) (Place, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.places[p.Name] = p
	return p, nil
}

func (r *MemoryRepository) Find(_ context.Context, name string) (Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	p, ok := r.places[name]
	if !ok {
		return Place{}, &persistence.EntityNotFoundError{Entity: "Place", Key: name}
	}
	return p, nil
}

func (r *MemoryRepository) All(context.Context) ([]Place, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	all := make([]Place, 0, len(r.places))
	for _, p := range r.places {
		all = append(all, p)
	}
	sortByName(all)
	return all, nil
}

// StoreRepository persists places through a generic persistence repository.
type StoreRepository struct {
	store persistence.Repository[Place, string]
}

// NewStoreRepository returns a repository backed by store.
func NewStoreRepository(store persistence.Repository[Place, string]) *StoreRepository {
	return &StoreRepository{store: store}
}

func (r *StoreRepository) Save(ctx context.Context, p Place) (Place, error) {
	if err := r.store.Update(ctx, &p); err != nil {
		return Place{}, err
	}
	return p, nil
}

func (r *StoreRepository) Find(ctx context.Context, name string) (Place, error) {
	p, err := r.store.Find(ctx, name)
	if err != nil {
		return Place{}, err
	}
	return *p, nil
}

func (r *StoreRepository) All(ctx context.Context) ([]Place, error) {
	all, err := r.store.FindAll(ctx)
	if err != nil {
		return nil, err
	}
	sortByName(all)
	return all, nil
}

func sortByName(ps []Place) {
	sort.Slice(ps, func(i, j int) bool { return ps[i].Name < ps[j].Name })
}
