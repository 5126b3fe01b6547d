// Package remote describes the row-oriented table API the site reads and
// writes through. Adapters live in sibling packages.
package remote

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotConfigured is returned by writes when no backend is configured.
	ErrNotConfigured = errors.New("remote backend not configured")
	// ErrNotFound is returned when an id-addressed row does not exist.
	ErrNotFound = errors.New("row not found")
	// ErrValidation marks rejected input, either ours or a constraint on the remote side.
	ErrValidation = errors.New("invalid input")
)

// Row is a single record keyed by column name.
type Row map[string]any

// Table is the contract every backend adapter implements.
type Table interface {
	Select(ctx context.Context, table string, q Query) ([]Row, error)
	Count(ctx context.Context, table string, filters ...Filter) (int64, error)
	Insert(ctx context.Context, table string, row Row) (Row, error)
	Update(ctx context.Context, table string, id int64, patch Row) (Row, error)
	Delete(ctx context.Context, table string, id int64) error
	// DeleteWhere removes every row matching filters and reports how many
	// went. At least one filter is required.
	DeleteWhere(ctx context.Context, table string, filters ...Filter) (int64, error)
}

// Error carries the message reported by the remote service.
type Error struct {
	Op      string
	Table   string
	Status  int
	Code    string
	Message string
	Err     error
}

func (e *Error) Error() string {
	msg := e.Message
	if msg == "" && e.Err != nil {
		msg = e.Err.Error()
	}
	if e.Code != "" {
		return fmt.Sprintf("%s %s: %s (%s)", e.Op, e.Table, msg, e.Code)
	}
	return fmt.Sprintf("%s %s: %s", e.Op, e.Table, msg)
}

func (e *Error) Unwrap() error { return e.Err }
