package store

import (
	"fmt"
	"strings"
)

// Op is a comparison operator in a filter condition.
type Op string

const (
	OpEq  Op = "="
	OpGte Op = ">="
	OpLte Op = "<="
)

// Expr is a filter expression tree. The same expression value is used for
// counting and for row retrieval, so the two can never drift apart.
type Expr interface {
	appendSQL(b *strings.Builder, args *[]any)
}

// Cond is a single field comparison. Fields prefixed with "key." address
// a path inside the message key JSON column.
type Cond struct {
	Field string
	Op    Op
	Value any
}

func (c Cond) appendSQL(b *strings.Builder, args *[]any) {
	if path, ok := strings.CutPrefix(c.Field, "key."); ok {
		fmt.Fprintf(b, "json_extract(key, '$.%s') %s ?", path, c.Op)
	} else {
		fmt.Fprintf(b, "%s %s ?", c.Field, c.Op)
	}
	*args = append(*args, c.Value)
}

// And combines expressions conjunctively. An empty And renders as a tautology.
type And []Expr

func (a And) appendSQL(b *strings.Builder, args *[]any) {
	if len(a) == 0 {
		b.WriteString("1=1")
		return
	}
	b.WriteString("(")
	for i, e := range a {
		if i > 0 {
			b.WriteString(" AND ")
		}
		e.appendSQL(b, args)
	}
	b.WriteString(")")
}

// Or combines expressions disjunctively. An empty Or renders as a tautology.
type Or []Expr

func (o Or) appendSQL(b *strings.Builder, args *[]any) {
	if len(o) == 0 {
		b.WriteString("1=1")
		return
	}
	b.WriteString("(")
	for i, e := range o {
		if i > 0 {
			b.WriteString(" OR ")
		}
		e.appendSQL(b, args)
	}
	b.WriteString(")")
}

// SQL renders an expression to a WHERE fragment and its arguments.
func SQL(e Expr) (string, []any) {
	var b strings.Builder
	var args []any
	e.appendSQL(&b, &args)
	return b.String(), args
}
