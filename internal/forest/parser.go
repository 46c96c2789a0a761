package forest

import (
	"strings"

	"github.com/vippsas/piqued/sqlparser/pgsql"
	"github.com/vippsas/piqued/sqlparser/sqldocument"
)

// Parse runs the fault-tolerant shift/reduce engine over tokens (which must
// include whitespace and comment tokens; Parse absorbs them) and returns the
// resulting forest: the parser's stack at the point it reached DONE. More
// than one top-level node means the input didn't reduce to a single
// statement, which is normal for incomplete or multi-clause-less SQL.
func Parse(tokens []sqldocument.Unparsed) []Node {
	p := &parser{tokens: tokens}
	p.run()
	return p.stack
}

type parser struct {
	tokens  []sqldocument.Unparsed
	pos     int
	stack   []Node
	cleaned bool
}

// spanExtender is implemented by every concrete node type via the embedded
// span; used by whitespace absorption and the cleanup pass to grow a node's
// end without rebuilding it.
type spanExtender interface {
	setEnd(int)
}

func (p *parser) run() {
	// A generous bound on iterations guards against a reducer bug turning
	// this into an infinite loop; real input terminates in O(n) well under
	// this.
	maxSteps := (len(p.tokens) + 1) * 64
	for step := 0; step < maxSteps; step++ {
		la := p.lookahead()
		if p.tryReduce(la) {
			continue
		}
		if la.Type == sqldocument.EOFToken {
			if !p.cleanupPass() {
				return
			}
			continue
		}
		p.shift()
	}
}

// eofSentinel is synthesized once the token index runs past the end of input.
var eofSentinel = sqldocument.Unparsed{Type: sqldocument.EOFToken}

func (p *parser) lookahead() sqldocument.Unparsed {
	if p.pos >= len(p.tokens) {
		return eofSentinel
	}
	return p.tokens[p.pos]
}

func (p *parser) top() Node {
	if len(p.stack) == 0 {
		return nil
	}
	return p.stack[len(p.stack)-1]
}

func (p *parser) nth(fromTop int) Node {
	idx := len(p.stack) - 1 - fromTop
	if idx < 0 {
		return nil
	}
	return p.stack[idx]
}

func (p *parser) pop(n int) {
	p.stack = p.stack[:len(p.stack)-n]
}

func (p *parser) push(n Node) {
	p.stack = append(p.stack, n)
}

// shift pushes the lookahead token as a bare Token node and advances pos.
// Used both by the dedicated operator-shift step and the final catch-all.
func (p *parser) shift() {
	u := p.lookahead()
	p.push(newToken(u, p.pos))
	p.pos++
}

// tryReduce attempts each rule in priority order and returns true as soon
// as one of them makes progress (including a shift performed by the
// operator-shift rule).
func (p *parser) tryReduce(la sqldocument.Unparsed) bool {
	return p.ruleLiteral() ||
		p.ruleOperator(la) ||
		p.ruleWildcard() ||
		p.ruleShiftOperator(la) ||
		p.ruleAbsorbTrivia(la) ||
		p.ruleJoinKind() ||
		p.ruleSelectClause(la) ||
		p.ruleFromClause(la) ||
		p.ruleJoinClause(la) ||
		p.ruleSelectQuery() ||
		p.ruleLists(la) ||
		p.ruleIdentifier()
	// Keyword shift (rule 13) needs no special handling: an unclaimed
	// reserved-word token just sits on the stack as a Token until a later
	// reduction (or the cleanup pass) claims it.
}

// ---- Rule 1: literal -> Expression --------------------------------------

func (p *parser) ruleLiteral() bool {
	tok, ok := p.top().(*Token)
	if !ok {
		return false
	}
	var kind ExprKind
	switch tok.Type {
	case pgsql.StringLiteralToken, pgsql.DollarQuotedStringToken, pgsql.BitStringLiteralToken, pgsql.HexStringLiteralToken:
		kind = ExprStringLit
	case sqldocument.NumberToken:
		kind = ExprNumberLit
	case sqldocument.ReservedWordToken:
		if strings.ToLower(tok.Text) == "null" {
			kind = ExprNullLit
		} else {
			return false
		}
	default:
		return false
	}
	start, end := tok.Span()
	p.pop(1)
	p.push(&Expression{span: span{start, end}, Kind: kind, Text: tok.Text})
	return true
}

// ruleIdentifier is rule 12, tried as a literal fallback: a bare
// unclassified identifier becomes Expression::Identifier once nothing else
// (TableLike, alias forms) has claimed it.
func (p *parser) ruleIdentifier() bool {
	tok, ok := p.top().(*Token)
	if !ok {
		return false
	}
	if tok.Type != sqldocument.UnquotedIdentifierToken && tok.Type != sqldocument.QuotedIdentifierToken {
		return false
	}
	start, end := tok.Span()
	p.pop(1)
	p.push(&Expression{span: span{start, end}, Kind: ExprIdentifier, Text: tok.Text})
	return true
}

// ---- Rule 2: operator adoption ------------------------------------------

var operatorKeywords = map[string]bool{
	"like": true, "ilike": true, "between": true, "in": true, "similar": true,
	"and": true, "or": true, "not": true, "is": true,
}

// operatorLexeme reports the lowercase lexeme to use for precedence lookup
// and whether (tt, text, reserved) denotes an operator-capable token.
func operatorLexeme(tt sqldocument.TokenType, text, reserved string) (string, bool) {
	switch tt {
	case sqldocument.OperatorToken, sqldocument.DotToken:
		return strings.ToLower(text), true
	case sqldocument.ReservedWordToken:
		if word := strings.ToLower(reserved); operatorKeywords[word] {
			return word, true
		}
	}
	return "", false
}

func isExpr(n Node) bool {
	_, ok := n.(*Expression)
	return ok
}

func (p *parser) ruleOperator(la sqldocument.Unparsed) bool {
	// Reduce: Expression Binop Expression (depth 3).
	if top, ok := p.top().(*Expression); ok {
		if op, ok := p.nth(1).(*Operator); ok && op.Kind == OperatorBinop {
			if left, ok := p.nth(2).(*Expression); ok {
				laLex, laOK := operatorLexeme(la.Type, la.RawValue, la.RawValue)
				laPrec := noPrecedence
				if laOK {
					laPrec = precedenceOf(strings.ToLower(laLex))
				}
				if op.Precedence <= laPrec {
					_, end := top.Span()
					start, _ := left.Span()
					p.pop(3)
					if op.Token == "." && top.Kind == ExprWildcard {
						p.push(&Expression{span: span{start, end}, Kind: ExprScopedWildcard, Text: left.Text + ".*", Left: left})
					} else {
						p.push(&Expression{span: span{start, end}, Kind: ExprBinop, Left: left, Op: op, Right: top})
					}
					return true
				}
			}
		}
		// Reduce: Unop Expression (depth 2).
		if op, ok := p.nth(1).(*Operator); ok && op.Kind == OperatorUnop {
			laLex, laOK := operatorLexeme(la.Type, la.RawValue, la.RawValue)
			laPrec := noPrecedence
			if laOK {
				laPrec = precedenceOf(strings.ToLower(laLex))
			}
			if op.Precedence <= laPrec {
				start, _ := op.Span()
				_, end := top.Span()
				p.pop(2)
				p.push(&Expression{span: span{start, end}, Kind: ExprUnop, Op: op, Right: top})
				return true
			}
		}
	}

	// Classify: a bare operator-capable Token becomes an Operator node.
	tok, ok := p.top().(*Token)
	if !ok {
		return false
	}
	lexeme, ok := operatorLexeme(tok.Type, tok.Text, tok.Text)
	if !ok {
		return false
	}
	lexeme = strings.ToLower(lexeme)
	below := p.nth(1)
	start, end := tok.Span()
	if below != nil && isExpr(below) {
		p.pop(1)
		p.push(&Operator{span: span{start, end}, Kind: OperatorBinop, Token: lexeme, Precedence: precedenceOf(lexeme)})
		return true
	}
	if lexeme == "*" {
		// Not preceded by an Expression: leave it to ruleWildcard rather
		// than classifying it as a meaningless unary '*'.
		return false
	}
	prec := noPrecedence
	if unaryCapable(lexeme) {
		prec = unaryPrecedence
	} else {
		prec = precedenceOf(lexeme)
	}
	p.pop(1)
	p.push(&Operator{span: span{start, end}, Kind: OperatorUnop, Token: lexeme, Precedence: prec})
	return true
}

// ---- Rule 3: wildcard -----------------------------------------------------

func (p *parser) ruleWildcard() bool {
	tok, ok := p.top().(*Token)
	if !ok || tok.Type != sqldocument.OperatorToken || tok.Text != "*" {
		return false
	}
	below := p.nth(1)
	if below != nil && isExpr(below) {
		return false // stays a token; rule 2 will classify it as Binop(*)
	}
	start, end := tok.Span()
	p.pop(1)
	p.push(&Expression{span: span{start, end}, Kind: ExprWildcard, Text: "*"})
	return true
}

// ---- Rule 4: shift operator on lookahead ---------------------------------

func (p *parser) ruleShiftOperator(la sqldocument.Unparsed) bool {
	if _, ok := operatorLexeme(la.Type, la.RawValue, la.RawValue); !ok {
		return false
	}
	p.shift()
	return true
}

// ---- Rule 5: whitespace/trivia absorption --------------------------------

func (p *parser) ruleAbsorbTrivia(la sqldocument.Unparsed) bool {
	switch la.Type {
	case sqldocument.WhitespaceToken, sqldocument.SemicolonToken,
		sqldocument.MultilineCommentToken, sqldocument.SinglelineCommentToken:
	default:
		return false
	}
	if top := p.top(); top != nil {
		if ext, ok := top.(spanExtender); ok {
			ext.setEnd(p.pos + 1)
		}
	}
	p.pos++
	return true
}

// ---- Rule 6: JoinKind -----------------------------------------------------

func reservedWord(n Node) (string, bool) {
	tok, ok := n.(*Token)
	if !ok || tok.Type != sqldocument.ReservedWordToken {
		return "", false
	}
	return strings.ToLower(tok.Text), true
}

func (p *parser) ruleJoinKind() bool {
	word, ok := reservedWord(p.top())
	if !ok || word != "join" {
		return false
	}
	joinTok := p.top().(*Token)
	start, end := joinTok.Span()
	kind := JoinInner
	if prevWord, ok := reservedWord(p.nth(1)); ok {
		switch prevWord {
		case "inner":
			kind = JoinInner
		case "outer":
			kind = JoinOuter
		case "left":
			kind = JoinLeft
		case "right":
			kind = JoinRight
		default:
			ok = false
		}
		if ok {
			start, _ = p.nth(1).Span()
			p.pop(2)
			p.push(&JoinKind{span: span{start, end}, Kind: kind})
			return true
		}
	}
	p.pop(1)
	p.push(&JoinKind{span: span{start, end}, Kind: kind})
	return true
}

// ---- Boundary / alias-capability helpers ---------------------------------

var boundaryWords = map[string]bool{
	"from": true, "where": true, "group": true, "having": true, "order": true,
	"limit": true, "offset": true, "union": true, "except": true,
	"intersect": true, "fetch": true, "for": true, "inner": true, "outer": true,
	"left": true, "right": true, "join": true,
}

func isBoundary(u sqldocument.Unparsed) bool {
	switch u.Type {
	case sqldocument.EOFToken, sqldocument.SemicolonToken, sqldocument.RightParenToken:
		return true
	case sqldocument.ReservedWordToken:
		return boundaryWords[strings.ToLower(u.RawValue)]
	}
	return false
}

func isAliasCapable(u sqldocument.Unparsed) bool {
	switch u.Type {
	case sqldocument.UnquotedIdentifierToken, sqldocument.QuotedIdentifierToken:
		return true
	case sqldocument.ReservedWordToken:
		return strings.ToLower(u.RawValue) == "as"
	}
	return false
}

// ---- Rule 7: select-clause reductions ------------------------------------

func wrapColumnExpression(n Node) Node {
	if ce, ok := n.(*ColumnExpression); ok {
		return ce
	}
	start, end := n.Span()
	return &ColumnExpression{span: span{start, end}, Expr: n}
}

func (p *parser) ruleSelectClause(la sqldocument.Unparsed) bool {
	// Expression AS IDENT -> ColumnExpression (explicit alias).
	if tok, ok := p.top().(*Token); ok && isIdentTok(tok) {
		if asWord, ok := reservedWord(p.nth(1)); ok && asWord == "as" {
			if expr, ok := p.nth(2).(*Expression); ok {
				start, _ := expr.Span()
				_, end := tok.Span()
				p.pop(3)
				p.push(&ColumnExpression{span: span{start, end}, Expr: expr, Alias: tok.Text, HasAlias: true})
				return true
			}
		}
		// Expression IDENT -> ColumnExpression (implicit alias).
		if expr, ok := p.nth(1).(*Expression); ok {
			start, _ := expr.Span()
			_, end := tok.Span()
			p.pop(2)
			p.push(&ColumnExpression{span: span{start, end}, Expr: expr, Alias: tok.Text, HasAlias: true})
			return true
		}
	}

	// SelectStmt assembly: 'SELECT' ExpressionList, lookahead in BOUNDARY.
	top := p.top()
	switch top.(type) {
	case *Expression, *ColumnExpression, *ExpressionList:
		if word, ok := reservedWord(p.nth(1)); ok && word == "select" && isBoundary(la) {
			list := asExpressionList(top)
			selectStart, _ := p.nth(1).Span()
			_, end := list.Span()
			p.pop(2)
			p.push(&SelectStmt{span: span{selectStart, end}, Columns: list})
			return true
		}
	}
	// 'SELECT' with nothing in its column list yet, lookahead in BOUNDARY:
	// an empty ExpressionList, so the clause still assembles into a query.
	if word, ok := reservedWord(top); ok && word == "select" && isBoundary(la) {
		start, end := top.Span()
		p.pop(1)
		p.push(&SelectStmt{span: span{start, end}, Columns: &ExpressionList{span: span{end, end}}})
		return true
	}
	return false
}

func isIdentTok(tok *Token) bool {
	return tok.Type == sqldocument.UnquotedIdentifierToken || tok.Type == sqldocument.QuotedIdentifierToken
}

func asExpressionList(n Node) Node {
	if l, ok := n.(*ExpressionList); ok {
		return l
	}
	start, end := n.Span()
	return &ExpressionList{span: span{start, end}, Items: []Node{wrapColumnExpression(n)}}
}

func asFromExpressionList(n Node) Node {
	if l, ok := n.(*FromExpressionList); ok {
		return l
	}
	start, end := n.Span()
	return &FromExpressionList{span: span{start, end}, Items: []Node{wrapFromExpression(n)}}
}

func wrapFromExpression(n Node) Node {
	if fe, ok := n.(*FromExpression); ok {
		return fe
	}
	start, end := n.Span()
	return &FromExpression{span: span{start, end}, Table: n}
}

// ---- Rule 8: from-clause reductions --------------------------------------

func (p *parser) ruleFromClause(la sqldocument.Unparsed) bool {
	// TableLike <- IDENT, only right after FROM/JOIN/comma context.
	if tok, ok := p.top().(*Token); ok && isIdentTok(tok) {
		below := p.nth(1)
		inFromContext := false
		if below == nil {
			inFromContext = false
		} else if word, ok := reservedWord(below); ok && word == "from" {
			inFromContext = true
		} else if _, ok := below.(*JoinKind); ok {
			inFromContext = true
		} else if t, ok := below.(*Token); ok && t.Type == sqldocument.CommaToken {
			switch p.nth(2).(type) {
			case *TableLike, *FromExpression, *FromExpressionList:
				inFromContext = true
			}
		}
		if inFromContext {
			start, end := tok.Span()
			p.pop(1)
			p.push(&TableLike{span: span{start, end}, Name: tok.Text})
			return true
		}

		// FromExpression AS IDENT (explicit alias).
		if asWord, ok := reservedWord(below); ok && asWord == "as" {
			if table, ok := p.nth(2).(*TableLike); ok {
				start, _ := table.Span()
				_, end := tok.Span()
				p.pop(3)
				p.push(&FromExpression{span: span{start, end}, Table: table, Alias: tok.Text, HasAlias: true})
				return true
			}
		}
		// FromExpression IDENT (implicit alias).
		if table, ok := below.(*TableLike); ok {
			start, _ := table.Span()
			_, end := tok.Span()
			p.pop(2)
			p.push(&FromExpression{span: span{start, end}, Table: table, Alias: tok.Text, HasAlias: true})
			return true
		}
	}

	// FromStmt assembly: 'FROM' FromExpressionList, lookahead in BOUNDARY.
	top := p.top()
	switch top.(type) {
	case *TableLike, *FromExpression, *FromExpressionList:
		if word, ok := reservedWord(p.nth(1)); ok && word == "from" && isBoundary(la) {
			list := asFromExpressionList(top)
			fromStart, _ := p.nth(1).Span()
			_, end := list.Span()
			p.pop(2)
			p.push(&FromStmt{span: span{fromStart, end}, Tables: list})
			return true
		}
	}
	return false
}

// ---- Rule 9: join-clause reductions --------------------------------------

func (p *parser) ruleJoinClause(la sqldocument.Unparsed) bool {
	top := p.top()
	switch top.(type) {
	case *TableLike, *FromExpression, *FromExpressionList:
		if jk, ok := p.nth(1).(*JoinKind); ok {
			if isBoundary(la) || isOnWord(la) {
				list := asFromExpressionList(top)
				start, _ := jk.Span()
				_, end := list.Span()
				p.pop(2)
				p.push(&JoinStmt{span: span{start, end}, Kind: jk.Kind, From: list})
				return true
			}
		}
	}
	// JoinStmt + 'ON' + Expression -> JoinStmt with condition.
	if expr, ok := top.(*Expression); ok {
		if onWord, ok := reservedWord(p.nth(1)); ok && onWord == "on" {
			if js, ok := p.nth(2).(*JoinStmt); ok && js.Condition == nil {
				start, _ := js.Span()
				_, end := expr.Span()
				p.pop(3)
				p.push(&JoinStmt{span: span{start, end}, Kind: js.Kind, From: js.From, Condition: expr})
				return true
			}
		}
	}
	return false
}

func isOnWord(u sqldocument.Unparsed) bool {
	return u.Type == sqldocument.ReservedWordToken && strings.ToLower(u.RawValue) == "on"
}

// ---- Rule 10: SelectQuery assembly ---------------------------------------

func (p *parser) ruleSelectQuery() bool {
	top := p.top()
	if stmt, ok := top.(*SelectStmt); ok {
		p.pop(1)
		start, end := stmt.Span()
		p.push(&SelectQuery{span: span{start, end}, Columns: stmt.Columns})
		return true
	}
	if fromStmt, ok := top.(*FromStmt); ok {
		if sq, ok := p.nth(1).(*SelectQuery); ok && sq.From == nil {
			start, _ := sq.Span()
			_, end := fromStmt.Span()
			p.pop(2)
			p.push(&SelectQuery{span: span{start, end}, Columns: sq.Columns, From: fromStmt.Tables, Joins: sq.Joins})
			return true
		}
	}
	if joinStmt, ok := top.(*JoinStmt); ok {
		if sq, ok := p.nth(1).(*SelectQuery); ok {
			start, _ := sq.Span()
			_, end := joinStmt.Span()
			p.pop(2)
			joins := append(append([]Node{}, sq.Joins...), joinStmt)
			p.push(&SelectQuery{span: span{start, end}, Columns: sq.Columns, From: sq.From, Joins: joins})
			return true
		}
	}
	return false
}

// ---- Rule 11: list reductions (lowest priority) --------------------------

func (p *parser) ruleLists(la sqldocument.Unparsed) bool {
	if isAliasCapable(la) {
		return false // inhibited: let alias rules claim the identifier first
	}

	// Trailing-comma cleanup: 'Comma' ExpressionList/FromExpressionList,
	// lookahead boundary -> drop the comma.
	if tok, ok := p.top().(*Token); ok && tok.Type == sqldocument.CommaToken && isBoundary(la) {
		if list, ok := p.nth(1).(*ExpressionList); ok {
			_, end := tok.Span()
			p.pop(1)
			list.setEnd(end)
			return true
		}
		if list, ok := p.nth(1).(*FromExpressionList); ok {
			_, end := tok.Span()
			p.pop(1)
			list.setEnd(end)
			return true
		}
		if item, ok := columnListItem(p.nth(1)); ok {
			start, _ := item.Span()
			_, end := tok.Span()
			p.pop(2)
			p.push(&ExpressionList{span: span{start, end}, Items: []Node{item}})
			return true
		}
	}

	// ExpressionList ',' ColumnExpression
	if item, ok := columnListItem(p.top()); ok {
		if comma, ok := p.nth(1).(*Token); ok && comma.Type == sqldocument.CommaToken {
			if list, ok := p.nth(2).(*ExpressionList); ok {
				_, end := item.Span()
				p.pop(3)
				list.Items = append(list.Items, item)
				list.setEnd(end)
				p.push(list)
				return true
			}
			if firstItem, ok := columnListItem(p.nth(2)); ok {
				start, _ := firstItem.Span()
				_, end := item.Span()
				p.pop(3)
				p.push(&ExpressionList{span: span{start, end}, Items: []Node{firstItem, item}})
				return true
			}
		}
	}

	// FromExpressionList ',' FromExpression
	if item, ok := fromListItem(p.top()); ok {
		if comma, ok := p.nth(1).(*Token); ok && comma.Type == sqldocument.CommaToken {
			if list, ok := p.nth(2).(*FromExpressionList); ok {
				_, end := item.Span()
				p.pop(3)
				list.Items = append(list.Items, item)
				list.setEnd(end)
				p.push(list)
				return true
			}
			if firstItem, ok := fromListItem(p.nth(2)); ok {
				start, _ := firstItem.Span()
				_, end := item.Span()
				p.pop(3)
				p.push(&FromExpressionList{span: span{start, end}, Items: []Node{firstItem, item}})
				return true
			}
		}
	}

	return false
}

func columnListItem(n Node) (Node, bool) {
	switch n.(type) {
	case *Expression, *ColumnExpression:
		return wrapColumnExpression(n), true
	}
	return nil, false
}

func fromListItem(n Node) (Node, bool) {
	switch n.(type) {
	case *TableLike, *FromExpression:
		return wrapFromExpression(n), true
	}
	return nil, false
}

// ---- Cleanup pass ----------------------------------------------------------

// cleanupPass implements the single EOF cleanup step: residual bare tokens
// are absorbed into the nearest preceding non-token node, stopping at a
// semicolon. Returns false once cleanup has already run (signaling the
// engine reached DONE).
func (p *parser) cleanupPass() bool {
	if p.cleaned {
		return false
	}
	p.cleaned = true
	for len(p.stack) >= 2 {
		top, topIsTok := p.stack[len(p.stack)-1].(*Token)
		if !topIsTok || top.Type == sqldocument.SemicolonToken {
			break
		}
		j := len(p.stack) - 2
		for j >= 0 {
			if _, isTok := p.stack[j].(*Token); !isTok {
				break
			}
			j--
		}
		if j < 0 {
			break
		}
		ext, ok := p.stack[j].(spanExtender)
		if !ok {
			break
		}
		_, end := top.Span()
		ext.setEnd(end)
		p.stack = p.stack[:j+1]
	}
	return true
}
