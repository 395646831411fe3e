// Package query renders lists of (column, operator, value) predicates into
// parameterized WHERE clauses. Columns must be registered up front so user
// input never reaches the SQL text.
package query

import (
	"fmt"
	"reflect"
	"strings"

	"gorm.io/gorm"
)

type Operator string

const (
	Eq        Operator = "="
	NotEq     Operator = "!="
	Lt        Operator = "<"
	Lte       Operator = "<="
	Gt        Operator = ">"
	Gte       Operator = ">="
	Like      Operator = "LIKE"
	In        Operator = "IN"
	IsNull    Operator = "IS NULL"
	IsNotNull Operator = "IS NOT NULL"
)

func (o Operator) valid() bool {
	switch o {
	case Eq, NotEq, Lt, Lte, Gt, Gte, Like, In, IsNull, IsNotNull:
		return true
	}
	return false
}

type Predicate struct {
	Column string
	Op     Operator
	Value  any
	// Alternatives are OR-ed with Column under the same operator and value.
	Alternatives []string
}

// Filter is an AND-ed predicate list over an allow-listed set of columns.
// WhereAny adds OR groups.
type Filter struct {
	columns    map[string]struct{}
	predicates []Predicate
	err        error
}

func NewFilter(columns ...string) *Filter {
	allowed := make(map[string]struct{}, len(columns))
	for _, c := range columns {
		allowed[c] = struct{}{}
	}
	return &Filter{columns: allowed}
}

// Where appends a predicate. The first invalid column or operator is kept
// and reported by Err, Render and Apply.
func (f *Filter) Where(column string, op Operator, value any) *Filter {
	if f.err != nil {
		return f
	}
	if _, ok := f.columns[column]; !ok {
		f.err = fmt.Errorf("query: column %q is not filterable", column)
		return f
	}
	if !op.valid() {
		f.err = fmt.Errorf("query: unsupported operator %q", op)
		return f
	}
	f.predicates = append(f.predicates, Predicate{Column: column, Op: op, Value: value})
	return f
}

// WhereAny appends one predicate group matching when any of columns
// satisfies op against value.
func (f *Filter) WhereAny(columns []string, op Operator, value any) *Filter {
	if f.err != nil {
		return f
	}
	if len(columns) == 0 {
		f.err = fmt.Errorf("query: WhereAny needs at least one column")
		return f
	}
	for _, column := range columns {
		if _, ok := f.columns[column]; !ok {
			f.err = fmt.Errorf("query: column %q is not filterable", column)
			return f
		}
	}
	if !op.valid() {
		f.err = fmt.Errorf("query: unsupported operator %q", op)
		return f
	}
	f.predicates = append(f.predicates, Predicate{
		Column:       columns[0],
		Op:           op,
		Value:        value,
		Alternatives: append([]string(nil), columns[1:]...),
	})
	return f
}

// WhereIf appends the predicate only when cond holds, the usual shape for
// optional query-string filters.
func (f *Filter) WhereIf(cond bool, column string, op Operator, value any) *Filter {
	if !cond {
		return f
	}
	return f.Where(column, op, value)
}

func (f *Filter) WhereAnyIf(cond bool, columns []string, op Operator, value any) *Filter {
	if !cond {
		return f
	}
	return f.WhereAny(columns, op, value)
}

func (f *Filter) Err() error { return f.err }

func (f *Filter) Predicates() []Predicate {
	out := make([]Predicate, len(f.predicates))
	copy(out, f.predicates)
	return out
}

// Render returns the clause with `?` placeholders and its arguments. An
// empty filter renders as "1 = 1".
func (f *Filter) Render() (string, []any, error) {
	if f.err != nil {
		return "", nil, f.err
	}
	if len(f.predicates) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(f.predicates))
	var args []any
	for _, p := range f.predicates {
		if len(p.Alternatives) == 0 {
			part, partArgs := renderOne(p.Column, p.Op, p.Value)
			parts = append(parts, part)
			args = append(args, partArgs...)
			continue
		}
		group := make([]string, 0, len(p.Alternatives)+1)
		for _, column := range append([]string{p.Column}, p.Alternatives...) {
			part, partArgs := renderOne(column, p.Op, p.Value)
			group = append(group, part)
			args = append(args, partArgs...)
		}
		parts = append(parts, "("+strings.Join(group, " OR ")+")")
	}
	return strings.Join(parts, " AND "), args, nil
}

func renderOne(column string, op Operator, value any) (string, []any) {
	switch op {
	case IsNull, IsNotNull:
		return fmt.Sprintf("%s %s", column, op), nil
	case In:
		values := flatten(value)
		if len(values) == 0 {
			return "1 = 0", nil
		}
		marks := strings.TrimSuffix(strings.Repeat("?, ", len(values)), ", ")
		return fmt.Sprintf("%s IN (%s)", column, marks), values
	case Like:
		return fmt.Sprintf("%s LIKE ? ESCAPE '%c'", column, likeEscape), []any{value}
	default:
		return fmt.Sprintf("%s %s ?", column, op), []any{value}
	}
}

// Apply adds the rendered clause to a gorm query.
func (f *Filter) Apply(db *gorm.DB) (*gorm.DB, error) {
	clause, args, err := f.Render()
	if err != nil {
		return nil, err
	}
	if len(f.predicates) == 0 {
		return db, nil
	}
	return db.Where(clause, args...), nil
}

func flatten(value any) []any {
	rv := reflect.ValueOf(value)
	if rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array {
		return []any{value}
	}
	out := make([]any, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		out[i] = rv.Index(i).Interface()
	}
	return out
}

// likeEscape marks a literal wildcard in LIKE patterns.
const likeEscape = '!'

var likeEscaper = strings.NewReplacer("!", "!!", "%", "!%", "_", "!_")

// Contains wraps a search term for a LIKE predicate. Wildcards in term match
// literally.
func Contains(term string) string {
	return "%" + likeEscaper.Replace(strings.TrimSpace(term)) + "%"
}
