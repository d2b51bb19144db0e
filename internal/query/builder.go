package query

import (
	"fmt"
	"strconv"
	"strings"
)

// SelectBuilder assembles one parameterized SELECT statement. It owns the
// positional parameter sequence: every fragment that needs a bound value asks
// the builder for its placeholder via Bind, so filter, sort-join and cursor
// fragments can be generated independently without coordinating $n indexes
// by hand.
type SelectBuilder struct {
	columns []string
	from    string
	joins   []string
	wheres  []string
	orders  []string
	limit   int
	params  []interface{}
}

func NewSelect(from string) *SelectBuilder {
	return &SelectBuilder{from: from}
}

func (b *SelectBuilder) Select(exprs ...string) *SelectBuilder {
	b.columns = append(b.columns, exprs...)
	return b
}

func (b *SelectBuilder) Join(clause string) *SelectBuilder {
	b.joins = append(b.joins, clause)
	return b
}

// Where adds a fragment that will be AND-ed with the other fragments. The
// fragment must reference parameters obtained from Bind only.
func (b *SelectBuilder) Where(fragment string) *SelectBuilder {
	if fragment != "" {
		b.wheres = append(b.wheres, fragment)
	}
	return b
}

func (b *SelectBuilder) OrderBy(expr string) *SelectBuilder {
	b.orders = append(b.orders, expr)
	return b
}

func (b *SelectBuilder) Limit(n int) *SelectBuilder {
	b.limit = n
	return b
}

// Bind registers a parameter value and returns its placeholder, e.g. "$3".
func (b *SelectBuilder) Bind(value interface{}) string {
	b.params = append(b.params, value)
	return "$" + strconv.Itoa(len(b.params))
}

// BindAll registers several values and returns their placeholders joined
// with ", ", ready for an IN / NOT IN list.
func (b *SelectBuilder) BindAll(values ...interface{}) string {
	placeholders := make([]string, 0, len(values))
	for _, v := range values {
		placeholders = append(placeholders, b.Bind(v))
	}
	return strings.Join(placeholders, ", ")
}

func (b *SelectBuilder) SQL() string {
	var sb strings.Builder
	sb.WriteString("SELECT ")
	sb.WriteString(strings.Join(b.columns, ", "))
	sb.WriteString(" FROM ")
	sb.WriteString(b.from)
	for _, join := range b.joins {
		sb.WriteString(" ")
		sb.WriteString(join)
	}
	if len(b.wheres) > 0 {
		sb.WriteString(" WHERE ")
		sb.WriteString(strings.Join(b.wheres, " AND "))
	}
	if len(b.orders) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(b.orders, ", "))
	}
	if b.limit > 0 {
		sb.WriteString(fmt.Sprintf(" LIMIT %d", b.limit))
	}
	return sb.String()
}

func (b *SelectBuilder) Params() []interface{} {
	return b.params
}
