// Package forest implements the fault-tolerant shift/reduce parser that
// turns a PostgreSQL token stream into a forest of partial syntax nodes.
//
// Unlike a conventional parser, the forest never rejects input: it always
// produces a best-effort set of nodes covering the document, so hover and
// completion stay useful over SQL the user hasn't finished typing yet.
package forest

import "github.com/vippsas/piqued/sqlparser/sqldocument"

// Node is the common interface implemented by every ForestKind variant. It
// mirrors how the query planner's expression tree represents a mixed-variant
// AST: one interface, one type switch per consumer, no visitor machinery.
type Node interface {
	// Span returns the half-open token-index range [Start, End) this node
	// covers.
	Span() (start, end int)
	// Children returns this node's ordered children, or nil for a leaf.
	Children() []Node
}

type span struct {
	start, end int
}

func (s span) Span() (int, int) { return s.start, s.end }

func (s *span) setEnd(end int) { s.end = end }

// Token wraps a single raw token that the engine shifted onto the stack
// without (yet) reducing it to anything more specific.
type Token struct {
	span
	Type sqldocument.TokenType
	Text string
}

func (t *Token) Children() []Node { return nil }

func newToken(u sqldocument.Unparsed, idx int) *Token {
	return &Token{span: span{idx, idx + 1}, Type: u.Type, Text: u.RawValue}
}

// ExprKind distinguishes the variants of Expression.
type ExprKind int

const (
	ExprIdentifier ExprKind = iota
	ExprStringLit
	ExprNumberLit
	ExprNullLit
	ExprWildcard
	ExprScopedWildcard
	ExprBinop
	ExprUnop
)

// Expression is the ForestKind::Expression tagged union. Which fields are
// meaningful depends on Kind:
//   - ExprIdentifier, ExprStringLit, ExprNumberLit, ExprScopedWildcard: Text
//   - ExprBinop: Op, Left, Right
//   - ExprUnop: Op, Right (the operand)
type Expression struct {
	span
	Kind  ExprKind
	Text  string
	Op    *Operator
	Left  Node
	Right Node
}

func (e *Expression) Children() []Node {
	switch e.Kind {
	case ExprBinop:
		return []Node{e.Left, e.Op, e.Right}
	case ExprUnop:
		return []Node{e.Op, e.Right}
	case ExprScopedWildcard:
		return []Node{e.Left}
	default:
		return nil
	}
}

// OperatorKind distinguishes a binary from a unary operator occurrence.
type OperatorKind int

const (
	OperatorBinop OperatorKind = iota
	OperatorUnop
)

// Operator is the ForestKind::Operator node: an operator token tagged with
// the precedence it was classified at.
type Operator struct {
	span
	Kind       OperatorKind
	Token      string
	Precedence int
}

func (o *Operator) Children() []Node { return nil }

// ColumnExpression is ForestKind::ColumnExpression: an expression optionally
// given a column alias, either implicit (`expr ident`) or explicit
// (`expr AS ident`).
type ColumnExpression struct {
	span
	Expr     Node
	Alias    string
	HasAlias bool
}

func (c *ColumnExpression) Children() []Node {
	if c.Expr == nil {
		return nil
	}
	return []Node{c.Expr}
}

// ExpressionList is ForestKind::ExpressionList: a comma-separated run of
// ColumnExpression nodes, in source order.
type ExpressionList struct {
	span
	Items []Node
}

func (l *ExpressionList) Children() []Node { return l.Items }

// TableLike is ForestKind::TableLike: a bare table name appearing after
// FROM, a join keyword, or a list comma.
type TableLike struct {
	span
	Name string
}

func (t *TableLike) Children() []Node { return nil }

// FromExpression is ForestKind::FromExpression: a table reference optionally
// aliased, implicit or explicit.
type FromExpression struct {
	span
	Table    Node
	Alias    string
	HasAlias bool
}

func (f *FromExpression) Children() []Node {
	if f.Table == nil {
		return nil
	}
	return []Node{f.Table}
}

// FromExpressionList is ForestKind::FromExpressionList.
type FromExpressionList struct {
	span
	Items []Node
}

func (l *FromExpressionList) Children() []Node { return l.Items }

// JoinKindType distinguishes the four recognized join forms.
type JoinKindType int

const (
	JoinInner JoinKindType = iota
	JoinOuter
	JoinLeft
	JoinRight
)

// JoinKind is ForestKind::JoinKind: the reduced form of a JOIN keyword or
// keyword pair (INNER JOIN, LEFT JOIN, ...).
type JoinKind struct {
	span
	Kind JoinKindType
}

func (j *JoinKind) Children() []Node { return nil }

// JoinStmt is ForestKind::JoinStmt.
type JoinStmt struct {
	span
	Kind      JoinKindType
	From      Node
	Condition Node // nil when no ON clause was parsed yet
}

func (j *JoinStmt) Children() []Node {
	if j.Condition == nil {
		return []Node{j.From}
	}
	return []Node{j.From, j.Condition}
}

// SelectStmt is ForestKind::SelectStmt.
type SelectStmt struct {
	span
	Columns Node // *ExpressionList
}

func (s *SelectStmt) Children() []Node { return []Node{s.Columns} }

// FromStmt is ForestKind::FromStmt.
type FromStmt struct {
	span
	Tables Node // *FromExpressionList
}

func (f *FromStmt) Children() []Node { return []Node{f.Tables} }

// SelectQuery is ForestKind::SelectQuery, the top-level assembly of a
// SELECT statement's clauses seen so far.
type SelectQuery struct {
	span
	Columns Node // *ExpressionList, never nil once a SelectStmt was folded in
	From    Node // *FromExpressionList, nil until a FROM clause is seen
	Joins   []Node
}

func (q *SelectQuery) Children() []Node {
	children := []Node{q.Columns}
	if q.From != nil {
		children = append(children, q.From)
	}
	children = append(children, q.Joins...)
	return children
}
