// Package sqltable implements remote.Table directly on a SQL database:
// Postgres through lib/pq for self-hosting, SQLite through modernc for
// local development.
package sqltable

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"modernc.org/sqlite"

	"github.com/Zachkp/portfolio/internal/remote"
)

type Dialect string

const (
	Postgres Dialect = "postgres"
	SQLite   Dialect = "sqlite"
)

// Result code for SQLITE_CONSTRAINT; extended codes keep it in the low byte.
const sqliteConstraint = 19

type Store struct {
	db      *sqlx.DB
	dialect Dialect
	bind    int
}

// Open connects and pings the database.
func Open(ctx context.Context, dialect Dialect, dsn string) (*Store, error) {
	var driverName string
	switch dialect {
	case Postgres:
		driverName = "postgres"
	case SQLite:
		driverName = "sqlite"
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect)
	}

	db, err := sqlx.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", dialect, err)
	}

	if dialect == SQLite {
		// One connection serialises writers and avoids SQLITE_BUSY.
		db.SetMaxOpenConns(1)
	} else {
		db.SetMaxOpenConns(25)
		db.SetMaxIdleConns(5)
		db.SetConnMaxLifetime(5 * time.Minute)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("ping %s: %w", dialect, err)
	}

	return New(db, dialect), nil
}

// New wraps an existing connection pool.
func New(db *sqlx.DB, dialect Dialect) *Store {
	bind := sqlx.QUESTION
	if dialect == Postgres {
		bind = sqlx.DOLLAR
	}
	return &Store{db: db, dialect: dialect, bind: bind}
}

func (s *Store) DB() *sqlx.DB { return s.db }

func (s *Store) Close() error { return s.db.Close() }

func quote(ident string) string {
	return `"` + ident + `"`
}

func (s *Store) rebind(q string) string {
	return sqlx.Rebind(s.bind, q)
}

func (s *Store) where(filters []remote.Filter) (string, []any, error) {
	if len(filters) == 0 {
		return "", nil, nil
	}
	parts := make([]string, 0, len(filters))
	args := make([]any, 0, len(filters))
	for _, f := range filters {
		op, err := f.Op.SQL()
		if err != nil {
			return "", nil, err
		}
		v, err := encodeValue(f.Value)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, quote(f.Column)+" "+op+" ?")
		args = append(args, v)
	}
	return " WHERE " + strings.Join(parts, " AND "), args, nil
}

func (s *Store) Select(ctx context.Context, table string, q remote.Query) ([]remote.Row, error) {
	if err := remote.CheckIdents(table); err != nil {
		return nil, err
	}
	if err := q.Validate(); err != nil {
		return nil, err
	}

	cols := "*"
	if len(q.Columns) > 0 {
		quoted := make([]string, len(q.Columns))
		for i, c := range q.Columns {
			quoted[i] = quote(c)
		}
		cols = strings.Join(quoted, ", ")
	}

	var b strings.Builder
	fmt.Fprintf(&b, "SELECT %s FROM %s", cols, quote(table))

	where, args, err := s.where(q.Filters)
	if err != nil {
		return nil, err
	}
	b.WriteString(where)

	if len(q.Order) > 0 {
		parts := make([]string, len(q.Order))
		for i, o := range q.Order {
			dir := "DESC"
			if o.Ascending {
				dir = "ASC"
			}
			parts[i] = quote(o.Column) + " " + dir
		}
		b.WriteString(" ORDER BY " + strings.Join(parts, ", "))
	}
	if q.Limit > 0 {
		b.WriteString(" LIMIT " + strconv.Itoa(q.Limit))
	}

	rows, err := s.db.QueryxContext(ctx, s.rebind(b.String()), args...)
	if err != nil {
		return nil, s.wrap("select", table, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, s.wrap("select", table, err)
	}
	return out, nil
}

func (s *Store) Count(ctx context.Context, table string, filters ...remote.Filter) (int64, error) {
	if err := remote.CheckIdents(table); err != nil {
		return 0, err
	}
	if err := remote.ValidateFilters(filters); err != nil {
		return 0, err
	}

	where, args, err := s.where(filters)
	if err != nil {
		return 0, err
	}

	var n int64
	query := "SELECT COUNT(*) FROM " + quote(table) + where
	if err := s.db.QueryRowxContext(ctx, s.rebind(query), args...).Scan(&n); err != nil {
		return 0, s.wrap("count", table, err)
	}
	return n, nil
}

func (s *Store) Insert(ctx context.Context, table string, row remote.Row) (remote.Row, error) {
	if err := remote.CheckIdents(table); err != nil {
		return nil, err
	}

	cols := sortedKeys(row)
	if err := remote.CheckIdents(cols...); err != nil {
		return nil, err
	}

	var query string
	args := make([]any, 0, len(cols))
	if len(cols) == 0 {
		query = "INSERT INTO " + quote(table) + " DEFAULT VALUES RETURNING *"
	} else {
		quoted := make([]string, len(cols))
		marks := make([]string, len(cols))
		for i, c := range cols {
			v, err := encodeValue(row[c])
			if err != nil {
				return nil, err
			}
			quoted[i] = quote(c)
			marks[i] = "?"
			args = append(args, v)
		}
		query = fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s) RETURNING *",
			quote(table), strings.Join(quoted, ", "), strings.Join(marks, ", "))
	}

	return s.returningOne(ctx, "insert", table, query, args)
}

func (s *Store) Update(ctx context.Context, table string, id int64, patch remote.Row) (remote.Row, error) {
	if err := remote.CheckIdents(table); err != nil {
		return nil, err
	}

	patch = patch.Without("id")
	cols := sortedKeys(patch)
	if len(cols) == 0 {
		return nil, fmt.Errorf("%w: empty update", remote.ErrValidation)
	}
	if err := remote.CheckIdents(cols...); err != nil {
		return nil, err
	}

	sets := make([]string, len(cols))
	args := make([]any, 0, len(cols)+1)
	for i, c := range cols {
		v, err := encodeValue(patch[c])
		if err != nil {
			return nil, err
		}
		sets[i] = quote(c) + " = ?"
		args = append(args, v)
	}
	args = append(args, id)

	query := fmt.Sprintf(`UPDATE %s SET %s WHERE "id" = ? RETURNING *`, quote(table), strings.Join(sets, ", "))
	return s.returningOne(ctx, "update", table, query, args)
}

func (s *Store) Delete(ctx context.Context, table string, id int64) error {
	if err := remote.CheckIdents(table); err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, s.rebind(`DELETE FROM `+quote(table)+` WHERE "id" = ?`), id)
	if err != nil {
		return s.wrap("delete", table, err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return fmt.Errorf("delete %s %d: %w", table, id, remote.ErrNotFound)
	}
	return nil
}

func (s *Store) DeleteWhere(ctx context.Context, table string, filters ...remote.Filter) (int64, error) {
	if err := remote.CheckIdents(table); err != nil {
		return 0, err
	}
	if len(filters) == 0 {
		return 0, fmt.Errorf("%w: refusing to delete without filters", remote.ErrValidation)
	}
	if err := remote.ValidateFilters(filters); err != nil {
		return 0, err
	}

	where, args, err := s.where(filters)
	if err != nil {
		return 0, err
	}
	res, err := s.db.ExecContext(ctx, s.rebind("DELETE FROM "+quote(table)+where), args...)
	if err != nil {
		return 0, s.wrap("delete", table, err)
	}
	n, _ := res.RowsAffected()
	return n, nil
}

func (s *Store) returningOne(ctx context.Context, op, table, query string, args []any) (remote.Row, error) {
	rows, err := s.db.QueryxContext(ctx, s.rebind(query), args...)
	if err != nil {
		return nil, s.wrap(op, table, err)
	}
	defer rows.Close()

	out, err := scanRows(rows)
	if err != nil {
		return nil, s.wrap(op, table, err)
	}
	if len(out) == 0 {
		return nil, fmt.Errorf("%s %s: %w", op, table, remote.ErrNotFound)
	}
	return out[0], nil
}

func scanRows(rows *sqlx.Rows) ([]remote.Row, error) {
	types, err := rows.ColumnTypes()
	if err != nil {
		return nil, err
	}

	out := []remote.Row{}
	for rows.Next() {
		m := map[string]any{}
		if err := rows.MapScan(m); err != nil {
			return nil, err
		}
		for _, ct := range types {
			m[ct.Name()] = normalize(ct.DatabaseTypeName(), m[ct.Name()])
		}
		out = append(out, remote.Row(m))
	}
	return out, rows.Err()
}

// normalize maps driver values onto what the hosted API would return:
// JSON columns as raw JSON, booleans as bool, text as string.
func normalize(typeName string, v any) any {
	switch strings.ToUpper(typeName) {
	case "JSON", "JSONB":
		var raw []byte
		switch x := v.(type) {
		case []byte:
			raw = x
		case string:
			raw = []byte(x)
		}
		if len(raw) > 0 && json.Valid(raw) {
			return json.RawMessage(append([]byte(nil), raw...))
		}
		if raw != nil {
			return nil
		}
	case "BOOL", "BOOLEAN":
		if x, ok := v.(int64); ok {
			return x != 0
		}
	}
	if b, ok := v.([]byte); ok {
		return string(b)
	}
	return v
}

// encodeValue prepares a row value as a driver argument. Lists and objects
// are stored as JSON text.
func encodeValue(v any) (any, error) {
	switch x := v.(type) {
	case nil, string, bool, int, int32, int64, float64, time.Time, []byte:
		return x, nil
	case json.Number:
		if i, err := x.Int64(); err == nil {
			return i, nil
		}
		return x.Float64()
	case json.RawMessage:
		return string(x), nil
	default:
		b, err := json.Marshal(x)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", remote.ErrValidation, err)
		}
		return string(b), nil
	}
}

func sortedKeys(row remote.Row) []string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (s *Store) wrap(op, table string, err error) error {
	if errors.Is(err, sql.ErrNoRows) {
		return fmt.Errorf("%s %s: %w", op, table, remote.ErrNotFound)
	}

	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		e := &remote.Error{Op: op, Table: table, Code: string(pqErr.Code), Message: pqErr.Message, Err: err}
		switch pqErr.Code.Class() {
		case "22", "23": // data exception, integrity constraint
			e.Err = fmt.Errorf("%w: %w", remote.ErrValidation, err)
		}
		return e
	}

	var liteErr *sqlite.Error
	if errors.As(err, &liteErr) && liteErr.Code()&0xff == sqliteConstraint {
		return &remote.Error{
			Op: op, Table: table,
			Code:    strconv.Itoa(liteErr.Code()),
			Message: liteErr.Error(),
			Err:     fmt.Errorf("%w: %w", remote.ErrValidation, err),
		}
	}

	return &remote.Error{Op: op, Table: table, Err: err}
}
