// Package scope turns a logical listing request into parameterized SQL.
//
// A Builder accumulates (fragment, args) pairs once and renders every sibling
// statement (rows, count, grouped count) from that same list, so the predicates
// and the parameter order of those statements cannot drift apart. User input
// only ever travels as bind arguments.
package scope

import "strings"

type Statement struct {
	SQL  string
	Args []any
}

type cond struct {
	sql  string
	args []any
}

type Builder struct {
	from  string
	conds []cond
}

// New starts from the unconditional base predicate over from (e.g. "contacts c").
func New(from string) *Builder { return &Builder{from: from} }

// Where ANDs a fragment; each ? in fragment must have a matching arg.
func (b *Builder) Where(fragment string, args ...any) *Builder {
	b.conds = append(b.conds, cond{sql: fragment, args: args})
	return b
}

func (b *Builder) where() (string, []any) {
	var sb strings.Builder
	sb.WriteString(" WHERE 1=1")
	var args []any
	for _, c := range b.conds {
		sb.WriteString(" AND (")
		sb.WriteString(c.sql)
		sb.WriteString(")")
		args = append(args, c.args...)
	}
	return sb.String(), args
}

type SelectSpec struct {
	Columns string
	Join    string
	OrderBy []string
	Limit   int
	Offset  int
}

// Select renders the row-fetch statement; LIMIT/OFFSET args come after the predicate args.
func (b *Builder) Select(spec SelectSpec) Statement {
	where, args := b.where()
	var sb strings.Builder
	sb.WriteString("SELECT ")
	if spec.Columns == "" {
		sb.WriteString("*")
	} else {
		sb.WriteString(spec.Columns)
	}
	sb.WriteString(" FROM ")
	sb.WriteString(b.from)
	if spec.Join != "" {
		sb.WriteString(" ")
		sb.WriteString(spec.Join)
	}
	sb.WriteString(where)
	if len(spec.OrderBy) > 0 {
		sb.WriteString(" ORDER BY ")
		sb.WriteString(strings.Join(spec.OrderBy, ", "))
	}
	if spec.Limit > 0 {
		sb.WriteString(" LIMIT ? OFFSET ?")
		args = append(args, spec.Limit, spec.Offset)
	}
	return Statement{SQL: sb.String(), Args: args}
}

// Count renders SELECT COUNT(*) over the identical predicate list.
func (b *Builder) Count() Statement {
	where, args := b.where()
	return Statement{SQL: "SELECT COUNT(*) FROM " + b.from + where, Args: args}
}

// GroupCount renders per-value counts of col over the identical predicate list.
func (b *Builder) GroupCount(col string) Statement {
	where, args := b.where()
	return Statement{
		SQL:  "SELECT " + col + " AS value, COUNT(*) AS total FROM " + b.from + where + " GROUP BY " + col,
		Args: args,
	}
}

var likeEscaper = strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)

// ContainsPattern 大小写不敏感的子串匹配模式（配合 LOWER(col) LIKE ?）
func ContainsPattern(term string) string {
	return "%" + likeEscaper.Replace(strings.ToLower(term)) + "%"
}
