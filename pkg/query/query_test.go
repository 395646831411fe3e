package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRender(t *testing.T) {
	tests := []struct {
		name     string
		build    func(*Filter) *Filter
		wantSQL  string
		wantArgs []any
	}{
		{
			name:    "empty filter",
			build:   func(f *Filter) *Filter { return f },
			wantSQL: "1 = 1",
		},
		{
			name: "comparison and like",
			build: func(f *Filter) *Filter {
				return f.Where("category", Eq, "tools").Where("name", Like, Contains(" drill "))
			},
			wantSQL:  "category = ? AND name LIKE ? ESCAPE '!'",
			wantArgs: []any{"tools", "%drill%"},
		},
		{
			name: "any column groups with or",
			build: func(f *Filter) *Filter {
				return f.Where("category", Eq, "tools").WhereAny([]string{"name", "sku"}, Like, Contains("dr"))
			},
			wantSQL:  "category = ? AND (name LIKE ? ESCAPE '!' OR sku LIKE ? ESCAPE '!')",
			wantArgs: []any{"tools", "%dr%", "%dr%"},
		},
		{
			name: "single column any is a plain predicate",
			build: func(f *Filter) *Filter {
				return f.WhereAny([]string{"status"}, In, []string{"PENDING"})
			},
			wantSQL:  "status IN (?)",
			wantArgs: []any{"PENDING"},
		},
		{
			name: "in expands placeholders",
			build: func(f *Filter) *Filter {
				return f.Where("status", In, []string{"PENDING", "APPROVED"})
			},
			wantSQL:  "status IN (?, ?)",
			wantArgs: []any{"PENDING", "APPROVED"},
		},
		{
			name: "empty in matches nothing",
			build: func(f *Filter) *Filter {
				return f.Where("status", In, []string{})
			},
			wantSQL: "1 = 0",
		},
		{
			name: "null checks take no argument",
			build: func(f *Filter) *Filter {
				return f.Where("deleted_at", IsNull, nil).Where("created_at", Gte, "2024-01-01")
			},
			wantSQL:  "deleted_at IS NULL AND created_at >= ?",
			wantArgs: []any{"2024-01-01"},
		},
		{
			name: "where if skips false conditions",
			build: func(f *Filter) *Filter {
				return f.WhereIf(false, "category", Eq, "x").WhereIf(true, "status", NotEq, "REJECTED")
			},
			wantSQL:  "status != ?",
			wantArgs: []any{"REJECTED"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := tt.build(NewFilter("category", "name", "status", "deleted_at", "created_at"))
			sql, args, err := f.Render()
			require.NoError(t, err)
			assert.Equal(t, tt.wantSQL, sql)
			assert.Equal(t, tt.wantArgs, args)
		})
	}
}

func TestRejectsUnknownColumn(t *testing.T) {
	f := NewFilter("name").Where("name; DROP TABLE product", Eq, 1).Where("name", Eq, "x")

	require.Error(t, f.Err())
	_, _, err := f.Render()
	assert.Error(t, err)
	assert.Empty(t, f.Predicates())
}

func TestRejectsUnknownOperator(t *testing.T) {
	f := NewFilter("name").Where("name", Operator("~~"), "x")
	assert.Error(t, f.Err())

	f = NewFilter("name").WhereAny([]string{"name"}, Operator("~~"), "x")
	assert.Error(t, f.Err())
}

func TestWhereAnyRejectsUnknownColumn(t *testing.T) {
	f := NewFilter("name").WhereAny([]string{"name", "password_hash"}, Eq, "x")
	require.Error(t, f.Err())
	assert.Empty(t, f.Predicates())

	f = NewFilter("name").WhereAny(nil, Eq, "x")
	assert.Error(t, f.Err())
}

func TestContainsEscapesWildcards(t *testing.T) {
	tests := map[string]string{
		" drill ": "%drill%",
		"50%":     "%50!%%",
		"a_b":     "%a!_b%",
		"wow!":    "%wow!!%",
		"":        "%%",
	}
	for in, want := range tests {
		assert.Equal(t, want, Contains(in), in)
	}
}

func TestPage(t *testing.T) {
	p := NewPage(0, 0)
	assert.Equal(t, 1, p.Number)
	assert.Equal(t, DefaultPageSize, p.Limit())
	assert.Equal(t, 0, p.Offset())

	p = NewPage(3, 500)
	assert.Equal(t, MaxPageSize, p.Limit())
	assert.Equal(t, 200, p.Offset())
}
