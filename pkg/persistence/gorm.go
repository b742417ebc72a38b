package persistence

import (
	"context"
	"errors"
	"fmt"
	"reflect"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/schema"
)

// GormRepository implements Repository with GORM. T must be a GORM model with
// a primary key.
type GormRepository[T any, PK any] struct {
	database *Database
}

var _ Repository[struct{ ID uint }, uint] = (*GormRepository[struct{ ID uint }, uint])(nil)

// NewGormRepository returns a repository over database. The database may be
// opened later; calls made before that return ErrNotOpen.
func NewGormRepository[T any, PK any](database *Database) *GormRepository[T, PK] {
	return &GormRepository[T, PK]{database: database}
}

// Find implements Repository.
func (r *GormRepository[T, PK]) Find(ctx context.Context, pk PK) (*T, error) {
	db, sch, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	var entity T
	err = db.Where(clause.Eq{
		Column: clause.Column{Table: clause.CurrentTable, Name: sch.PrioritizedPrimaryField.DBName},
		Value:  pk,
	}).First(&entity).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, &EntityNotFoundError{Entity: sch.Name, Key: fmt.Sprint(pk)}
	}
	if err != nil {
		return nil, fmt.Errorf("find %s: %w", sch.Name, err)
	}
	return &entity, nil
}

// FindAll implements Repository.
func (r *GormRepository[T, PK]) FindAll(ctx context.Context) ([]T, error) {
	db, sch, err := r.session(ctx)
	if err != nil {
		return nil, err
	}

	var entities []T
	if err := db.Find(&entities).Error; err != nil {
		return nil, fmt.Errorf("find all %s: %w", sch.Name, err)
	}
	return entities, nil
}

// Create implements Repository.
func (r *GormRepository[T, PK]) Create(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.New("persistence: nil entity")
	}
	db, sch, err := r.session(ctx)
	if err != nil {
		return err
	}
	if err := db.Create(entity).Error; err != nil {
		return fmt.Errorf("create %s: %w", sch.Name, err)
	}
	return nil
}

// Update implements Repository. A missing entity is created.
func (r *GormRepository[T, PK]) Update(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.New("persistence: nil entity")
	}
	db, sch, err := r.session(ctx)
	if err != nil {
		return err
	}
	if err := db.Save(entity).Error; err != nil {
		return fmt.Errorf("update %s: %w", sch.Name, err)
	}
	return nil
}

// Delete implements Repository. Deleting a missing entity returns an
// *EntityNotFoundError.
func (r *GormRepository[T, PK]) Delete(ctx context.Context, entity *T) error {
	if entity == nil {
		return errors.New("persistence: nil entity")
	}
	db, sch, err := r.session(ctx)
	if err != nil {
		return err
	}

	res := db.Delete(entity)
	if res.Error != nil {
		return fmt.Errorf("delete %s: %w", sch.Name, res.Error)
	}
	if res.RowsAffected == 0 {
		key, _ := sch.PrioritizedPrimaryField.ValueOf(ctx, reflect.ValueOf(entity).Elem())
		return &EntityNotFoundError{Entity: sch.Name, Key: fmt.Sprint(key)}
	}
	return nil
}

// session returns a context-bound DB and the parsed schema of T.
func (r *GormRepository[T, PK]) session(ctx context.Context) (*gorm.DB, *schema.Schema, error) {
	db, err := r.database.DB()
	if err != nil {
		return nil, nil, err
	}

	stmt := &gorm.Statement{DB: db}
	if err := stmt.Parse(new(T)); err != nil {
		return nil, nil, fmt.Errorf("parse model: %w", err)
	}
	if stmt.Schema.PrioritizedPrimaryField == nil {
		return nil, nil, fmt.Errorf("persistence: model %s has no primary key", stmt.Schema.Name)
	}
	return db.WithContext(ctx), stmt.Schema, nil
}
