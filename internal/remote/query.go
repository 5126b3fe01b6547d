package remote

import (
	"fmt"
	"regexp"
)

type Op string

const (
	Eq  Op = "eq"
	Neq Op = "neq"
	Gt  Op = "gt"
	Gte Op = "gte"
	Lt  Op = "lt"
	Lte Op = "lte"
)

// SQL returns the comparison operator for op.
func (o Op) SQL() (string, error) {
	switch o {
	case Eq:
		return "=", nil
	case Neq:
		return "<>", nil
	case Gt:
		return ">", nil
	case Gte:
		return ">=", nil
	case Lt:
		return "<", nil
	case Lte:
		return "<=", nil
	}
	return "", fmt.Errorf("%w: unknown operator %q", ErrValidation, string(o))
}

type Filter struct {
	Column string
	Op     Op
	Value  any
}

type Order struct {
	Column    string
	Ascending bool
}

// Query selects rows. Empty Columns means every column; Limit <= 0 means no limit.
type Query struct {
	Columns []string
	Filters []Filter
	Order   []Order
	Limit   int
}

func Where(column string, op Op, value any) Filter {
	return Filter{Column: column, Op: op, Value: value}
}

func Asc(column string) Order { return Order{Column: column, Ascending: true} }
func Desc(column string) Order { return Order{Column: column} }

var identPattern = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// ValidIdent reports whether name is safe to use as a table or column name.
func ValidIdent(name string) bool {
	return identPattern.MatchString(name)
}

// CheckIdents returns ErrValidation for the first unsafe identifier.
func CheckIdents(names ...string) error {
	for _, n := range names {
		if !ValidIdent(n) {
			return fmt.Errorf("%w: bad identifier %q", ErrValidation, n)
		}
	}
	return nil
}

// Validate checks every identifier and operator in the query.
func (q Query) Validate() error {
	if err := CheckIdents(q.Columns...); err != nil {
		return err
	}
	if err := ValidateFilters(q.Filters); err != nil {
		return err
	}
	for _, o := range q.Order {
		if err := CheckIdents(o.Column); err != nil {
			return err
		}
	}
	return nil
}

func ValidateFilters(filters []Filter) error {
	for _, f := range filters {
		if err := CheckIdents(f.Column); err != nil {
			return err
		}
		if _, err := f.Op.SQL(); err != nil {
			return err
		}
	}
	return nil
}
