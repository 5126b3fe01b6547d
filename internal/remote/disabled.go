package remote

import (
	"context"

	"go.uber.org/zap"
)

// Disabled stands in when no backend is configured. Reads succeed empty and
// writes fail with ErrNotConfigured; every call logs a warning.
type Disabled struct {
	log *zap.Logger
}

func NewDisabled(log *zap.Logger) *Disabled {
	if log == nil {
		log = zap.NewNop()
	}
	return &Disabled{log: log}
}

func (d *Disabled) warn(op, table string) {
	d.log.Warn("remote backend not configured, skipping call",
		zap.String("op", op), zap.String("table", table))
}

func (d *Disabled) Select(_ context.Context, table string, _ Query) ([]Row, error) {
	d.warn("select", table)
	return []Row{}, nil
}

func (d *Disabled) Count(_ context.Context, table string, _ ...Filter) (int64, error) {
	d.warn("count", table)
	return 0, nil
}

func (d *Disabled) Insert(_ context.Context, table string, _ Row) (Row, error) {
	d.warn("insert", table)
	return nil, ErrNotConfigured
}

func (d *Disabled) Update(_ context.Context, table string, _ int64, _ Row) (Row, error) {
	d.warn("update", table)
	return nil, ErrNotConfigured
}

func (d *Disabled) Delete(_ context.Context, table string, _ int64) error {
	d.warn("delete", table)
	return ErrNotConfigured
}

func (d *Disabled) DeleteWhere(_ context.Context, table string, _ ...Filter) (int64, error) {
	d.warn("delete", table)
	return 0, ErrNotConfigured
}
