// Package testutil holds in-memory fakes shared by package tests.
package testutil

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/Zachkp/portfolio/internal/remote"
)

// FakeTable is an in-memory remote.Table. Inserted rows get sequential ids
// and, when missing, a created_at one second after the previous row.
type FakeTable struct {
	mu     sync.Mutex
	tables map[string][]remote.Row
	nextID map[string]int64
	clock  time.Time

	// Defaults are merged into inserted rows for missing columns.
	Defaults map[string]remote.Row
	// Errors makes the named operation ("select", "count", "insert",
	// "update", "delete") fail.
	Errors map[string]error
	// Calls counts operations by name.
	Calls map[string]int
}

func NewFakeTable() *FakeTable {
	return &FakeTable{
		tables:   map[string][]remote.Row{},
		nextID:   map[string]int64{},
		clock:    time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC),
		Defaults: map[string]remote.Row{},
		Errors:   map[string]error{},
		Calls:    map[string]int{},
	}
}

// Seed inserts rows directly, bypassing error injection.
func (f *FakeTable) Seed(table string, rows ...remote.Row) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, r := range rows {
		f.insertLocked(table, r)
	}
}

// Rows returns a copy of the stored rows of table.
func (f *FakeTable) Rows(table string) []remote.Row {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]remote.Row, len(f.tables[table]))
	for i, r := range f.tables[table] {
		out[i] = clone(r)
	}
	return out
}

func (f *FakeTable) enter(op string) error {
	f.Calls[op]++
	return f.Errors[op]
}

func (f *FakeTable) Select(_ context.Context, table string, q remote.Query) ([]remote.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("select"); err != nil {
		return nil, err
	}

	var out []remote.Row
	for _, r := range f.tables[table] {
		if matches(r, q.Filters) {
			out = append(out, clone(r))
		}
	}

	if len(q.Order) > 0 {
		sort.SliceStable(out, func(i, j int) bool {
			for _, o := range q.Order {
				c := compare(out[i][o.Column], out[j][o.Column])
				if c == 0 {
					continue
				}
				if o.Ascending {
					return c < 0
				}
				return c > 0
			}
			return false
		})
	}
	if q.Limit > 0 && len(out) > q.Limit {
		out = out[:q.Limit]
	}
	if len(q.Columns) > 0 {
		for i, r := range out {
			picked := remote.Row{}
			for _, c := range q.Columns {
				picked[c] = r[c]
			}
			out[i] = picked
		}
	}
	if out == nil {
		out = []remote.Row{}
	}
	return out, nil
}

func (f *FakeTable) Count(_ context.Context, table string, filters ...remote.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("count"); err != nil {
		return 0, err
	}
	var n int64
	for _, r := range f.tables[table] {
		if matches(r, filters) {
			n++
		}
	}
	return n, nil
}

func (f *FakeTable) Insert(_ context.Context, table string, row remote.Row) (remote.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("insert"); err != nil {
		return nil, err
	}
	return clone(f.insertLocked(table, row)), nil
}

func (f *FakeTable) insertLocked(table string, row remote.Row) remote.Row {
	r := clone(row)
	for k, v := range f.Defaults[table] {
		if _, ok := r[k]; !ok {
			r[k] = v
		}
	}
	if id, ok := toFloat(r["id"]); ok {
		if int64(id) > f.nextID[table] {
			f.nextID[table] = int64(id)
		}
		r["id"] = int64(id)
	} else {
		f.nextID[table]++
		r["id"] = f.nextID[table]
	}
	if _, ok := r["created_at"]; !ok {
		f.clock = f.clock.Add(time.Second)
		r["created_at"] = f.clock
	}
	f.tables[table] = append(f.tables[table], r)
	return r
}

func (f *FakeTable) Update(_ context.Context, table string, id int64, patch remote.Row) (remote.Row, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("update"); err != nil {
		return nil, err
	}
	for _, r := range f.tables[table] {
		if r["id"] == id {
			for k, v := range patch.Without("id") {
				r[k] = v
			}
			return clone(r), nil
		}
	}
	return nil, fmt.Errorf("update %s %d: %w", table, id, remote.ErrNotFound)
}

func (f *FakeTable) Delete(_ context.Context, table string, id int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("delete"); err != nil {
		return err
	}
	rows := f.tables[table]
	for i, r := range rows {
		if r["id"] == id {
			f.tables[table] = append(rows[:i:i], rows[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete %s %d: %w", table, id, remote.ErrNotFound)
}

func (f *FakeTable) DeleteWhere(_ context.Context, table string, filters ...remote.Filter) (int64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if err := f.enter("delete"); err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, fmt.Errorf("%w: refusing to delete without filters", remote.ErrValidation)
	}
	var kept []remote.Row
	var n int64
	for _, r := range f.tables[table] {
		if matches(r, filters) {
			n++
			continue
		}
		kept = append(kept, r)
	}
	f.tables[table] = kept
	return n, nil
}

func clone(r remote.Row) remote.Row {
	out := make(remote.Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

func matches(r remote.Row, filters []remote.Filter) bool {
	for _, f := range filters {
		c := compare(r[f.Column], f.Value)
		ok := false
		switch f.Op {
		case remote.Eq:
			ok = c == 0
		case remote.Neq:
			ok = c != 0
		case remote.Gt:
			ok = c > 0
		case remote.Gte:
			ok = c >= 0
		case remote.Lt:
			ok = c < 0
		case remote.Lte:
			ok = c <= 0
		}
		if !ok {
			return false
		}
	}
	return true
}

func toFloat(v any) (float64, bool) {
	switch x := v.(type) {
	case int:
		return float64(x), true
	case int64:
		return float64(x), true
	case float64:
		return x, true
	case json.Number:
		f, err := x.Float64()
		return f, err == nil
	}
	return 0, false
}

func compare(a, b any) int {
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	if ba, ok := a.(bool); ok {
		if bb, ok := b.(bool); ok {
			switch {
			case ba == bb:
				return 0
			case !ba:
				return -1
			}
			return 1
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}
