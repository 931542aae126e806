package repository

import (
	"context"
	"errors"

	"gorm.io/gorm"

	pkgerrors "github.com/narwhalmedia/decisionengine/pkg/errors"
)

// Condition renders a WHERE clause and its arguments.
type Condition interface {
	ToSQL() (string, []interface{})
}

// FindOptions narrows a Find call.
type FindOptions struct {
	Order string
	Limit int
}

// Create creates a new entity in the database.
func Create[T any](ctx context.Context, db *gorm.DB, entity *T) error {
	if err := db.WithContext(ctx).Create(entity).Error; err != nil {
		if pkgerrors.IsDuplicateError(err) {
			return pkgerrors.Conflict("entity already exists")
		}
		return err
	}
	return nil
}

// Update saves every field of an existing entity.
func Update[T any](ctx context.Context, db *gorm.DB, entity *T) error {
	return db.WithContext(ctx).Save(entity).Error
}

// FindOne finds the first entity matching cond.
func FindOne[T any](ctx context.Context, db *gorm.DB, cond Condition, order string) (*T, error) {
	var entity T
	query := where(db.WithContext(ctx), cond)
	if order != "" {
		query = query.Order(order)
	}
	if err := query.First(&entity).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.NotFound("entity not found")
		}
		return nil, err
	}
	return &entity, nil
}

// Find returns every entity matching cond. A nil cond matches everything.
func Find[T any](ctx context.Context, db *gorm.DB, cond Condition, opts FindOptions) ([]*T, error) {
	var entities []*T
	query := where(db.WithContext(ctx), cond)
	if opts.Order != "" {
		query = query.Order(opts.Order)
	}
	if opts.Limit > 0 {
		query = query.Limit(opts.Limit)
	}
	if err := query.Find(&entities).Error; err != nil {
		return nil, err
	}
	return entities, nil
}

// DeleteWhere removes every entity matching cond and reports how many went.
func DeleteWhere[T any](ctx context.Context, db *gorm.DB, cond Condition) (int64, error) {
	if cond == nil {
		return 0, pkgerrors.BadRequest("refusing to delete without a condition")
	}
	var entity T
	sql, args := cond.ToSQL()
	result := db.WithContext(ctx).Where(sql, args...).Delete(&entity)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

func where(db *gorm.DB, cond Condition) *gorm.DB {
	if cond == nil {
		return db
	}
	sql, args := cond.ToSQL()
	if sql == "" {
		return db
	}
	return db.Where(sql, args...)
}
