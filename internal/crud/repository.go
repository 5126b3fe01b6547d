// Package crud implements the admin list screens: fetch every row of a
// table, filter locally, and write through the remote table with a full
// refetch after each change.
package crud

import (
	"context"
	"errors"
	"fmt"

	"github.com/Zachkp/portfolio/internal/remote"
)

var (
	// ErrNotConfirmed is returned by Delete until the caller confirms.
	ErrNotConfirmed = errors.New("delete not confirmed")
	// ErrValidation marks input rejected before any remote call.
	ErrValidation = errors.New("validation failed")
)

// ConfirmPrompt is shown before a destructive delete.
const ConfirmPrompt = "Are you sure? You won't be able to revert this!"

// Invalid wraps a user-facing message as a validation error.
func Invalid(format string, args ...any) error {
	return fmt.Errorf("%w: %s", ErrValidation, fmt.Sprintf(format, args...))
}

// Repository is the per-entity data access contract.
type Repository[T any] interface {
	List(ctx context.Context) ([]T, error)
	Create(ctx context.Context, item T) (T, error)
	Update(ctx context.Context, id int64, item T) (T, error)
	Delete(ctx context.Context, id int64) error
}

// TableRepository maps T onto one remote table through its json tags.
type TableRepository[T any] struct {
	table    remote.Table
	name     string
	order    []remote.Order
	readOnly []string
}

// NewTableRepository lists rows in the given order. The id and created_at
// columns are never written.
func NewTableRepository[T any](table remote.Table, name string, order ...remote.Order) *TableRepository[T] {
	return &TableRepository[T]{
		table:    table,
		name:     name,
		order:    order,
		readOnly: []string{"id", "created_at"},
	}
}

func (r *TableRepository[T]) Name() string { return r.name }

func (r *TableRepository[T]) List(ctx context.Context) ([]T, error) {
	rows, err := r.table.Select(ctx, r.name, remote.Query{Order: r.order})
	if err != nil {
		return nil, err
	}
	return remote.DecodeAll[T](rows)
}

// Get fetches one row by id.
func (r *TableRepository[T]) Get(ctx context.Context, id int64) (T, error) {
	var zero T
	rows, err := r.table.Select(ctx, r.name, remote.Query{
		Filters: []remote.Filter{remote.Where("id", remote.Eq, id)},
		Limit:   1,
	})
	if err != nil {
		return zero, err
	}
	if len(rows) == 0 {
		return zero, fmt.Errorf("%s %d: %w", r.name, id, remote.ErrNotFound)
	}
	var v T
	if err := remote.Decode(rows[0], &v); err != nil {
		return zero, err
	}
	return v, nil
}

func (r *TableRepository[T]) Create(ctx context.Context, item T) (T, error) {
	var zero T
	row, err := remote.Encode(item)
	if err != nil {
		return zero, err
	}
	created, err := r.table.Insert(ctx, r.name, row.Without(r.readOnly...))
	if err != nil {
		return zero, err
	}
	var v T
	if err := remote.Decode(created, &v); err != nil {
		return zero, err
	}
	return v, nil
}

func (r *TableRepository[T]) Update(ctx context.Context, id int64, item T) (T, error) {
	var zero T
	row, err := remote.Encode(item)
	if err != nil {
		return zero, err
	}
	updated, err := r.table.Update(ctx, r.name, id, row.Without(r.readOnly...))
	if err != nil {
		return zero, err
	}
	var v T
	if err := remote.Decode(updated, &v); err != nil {
		return zero, err
	}
	return v, nil
}

func (r *TableRepository[T]) Delete(ctx context.Context, id int64) error {
	return r.table.Delete(ctx, r.name, id)
}
