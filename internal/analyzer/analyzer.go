// Package analyzer is the analyzer façade (C9): it orchestrates the
// tokenizer, splitter, directive parser, prepare rewriter, forest parser,
// cursor locator, schema cache, and prober per file to answer diagnostics,
// hover, completion, and typing-generation requests.
package analyzer

import (
	"context"
	"fmt"

	"github.com/vippsas/piqued/internal/dbadapter"
	"github.com/vippsas/piqued/internal/directive"
	"github.com/vippsas/piqued/internal/forest"
	"github.com/vippsas/piqued/internal/locator"
	"github.com/vippsas/piqued/internal/prober"
	"github.com/vippsas/piqued/internal/rewrite"
	"github.com/vippsas/piqued/internal/schema"
	"github.com/vippsas/piqued/internal/splitter"
	"github.com/vippsas/piqued/sqlparser/pgsql"
	"github.com/vippsas/piqued/sqlparser/sqldocument"
)

// Severity mirrors the LSP DiagnosticSeverity enum (1=Error..4=Hint); see
// go.lsp.dev/protocol.DiagnosticSeverity, which cmd/piqued-lsp converts
// this into directly.
type Severity int

const (
	SeverityError Severity = iota + 1
	SeverityWarning
	SeverityInformation
	SeverityHint
)

// Diagnostic is one problem found in a document.
type Diagnostic struct {
	Range    splitter.Range
	Severity Severity
	Message  string
}

// Hover is the result of a hover request.
type Hover struct {
	Contents string
	Range    splitter.Range
}

// CompletionKind distinguishes what a CompletionItem names.
type CompletionKind int

const (
	CompletionTable CompletionKind = iota
	CompletionColumn
	CompletionAlias
)

// CompletionItem is one completion candidate.
type CompletionItem struct {
	Label  string
	Kind   CompletionKind
	Detail string
}

// QueryTyping pairs a statement's resolved name (see resolveName) with its
// server-probed typing, ready for a code generator to consume.
type QueryTyping struct {
	Name    string
	Result  prober.QueryTypingResult
	Params  []string
}

// document is the per-file analysis state: parsed once, reused across
// diagnostics/hover/completion calls until the next PatchFile.
type document struct {
	uri        string
	text       string
	tokens     []sqldocument.Unparsed
	statements []splitter.Statement
	forest     []forest.Node
}

// Workspace holds open documents, the database client, the schema cache,
// and the configured schema name for one project root. Mutated by PatchFile; read by every analyzer
// method.
type Workspace struct {
	db        dbadapter.DbClient
	schema    *schema.Cache
	schemaTTL string // configured schema name, for ReloadConfig
	documents map[string]*document
}

// NewWorkspace creates a workspace bound to db and cache.
func NewWorkspace(db dbadapter.DbClient, cache *schema.Cache, schemaName string) *Workspace {
	return &Workspace{db: db, schema: cache, schemaTTL: schemaName, documents: map[string]*document{}}
}

// ReloadConfig rebuilds the schema cache; called after the user edits
// piqued.toml or the catalog itself changed.
func (w *Workspace) ReloadConfig(ctx context.Context, schemaName string) error {
	cache, err := schema.Load(ctx, w.db, schemaName)
	if err != nil {
		return err
	}
	w.schema = cache
	w.schemaTTL = schemaName
	return nil
}

// PatchFile replaces uri's text and reparses it. A later PatchFile
// observed before a diagnostic run supersedes the earlier text; callers
// are responsible for discarding diagnostic results computed against
// superseded text.
func (w *Workspace) PatchFile(uri, text string) {
	w.documents[uri] = parseDocument(uri, text)
}

func parseDocument(uri, text string) *document {
	s := pgsql.NewScanner(sqldocument.FileRef(uri), text)
	var tokens []sqldocument.Unparsed
	for {
		tt := s.NextToken()
		tokens = append(tokens, sqldocument.CreateUnparsed(s))
		if tt == sqldocument.EOFToken {
			break
		}
	}
	return &document{
		uri:        uri,
		text:       text,
		tokens:     tokens,
		statements: splitter.Split(tokens),
		forest:     forest.Parse(tokens),
	}
}

// GetDiagnostics probes every statement in uri and reports per-statement
// failures. Probing failure is local: other statements still run.
func (w *Workspace) GetDiagnostics(ctx context.Context, uri string) []Diagnostic {
	doc, ok := w.documents[uri]
	if !ok {
		return nil
	}

	var diags []Diagnostic
	for i, stmt := range doc.statements {
		dirs := directive.Parse(stmt.Preamble, i)
		templates := map[string]string{}
		for _, t := range dirs.Templates {
			templates[t.Name] = t.Example
		}
		rw := rewrite.Rewrite(stmt.Tokens, templates)

		_, probeErr := prober.Probe(ctx, w.db, w.schema, rw.ProbeText, rw.ArgTypeNames)
		if probeErr == nil {
			continue
		}

		diags = append(diags, diagnosticFor(stmt, probeErr))

		// A connection failure short-circuits every remaining statement in
		// this run with one diagnostic each.
		if probeErr.Kind == prober.ErrConnectionError {
			for _, rest := range doc.statements[i+1:] {
				diags = append(diags, Diagnostic{
					Range:    rest.Range,
					Severity: SeverityError,
					Message:  probeErr.Error(),
				})
			}
			break
		}
	}
	return diags
}

func diagnosticFor(stmt splitter.Statement, probeErr *prober.ProbeError) Diagnostic {
	r := stmt.Range
	if probeErr.Kind == prober.ErrParseErrorAt {
		// A two-character span starting at the statement's first
		// non-whitespace position.
		start := r.Start
		for _, tok := range stmt.Tokens {
			if tok.Type != sqldocument.WhitespaceToken {
				start = splitter.Position{Line: tok.Start.Line - 1, Character: tok.Start.Col - 1}
				break
			}
		}
		r = splitter.Range{
			Start: start,
			End:   splitter.Position{Line: start.Line, Character: start.Character + 2},
		}
	}
	return Diagnostic{Range: r, Severity: SeverityError, Message: probeErr.Error()}
}

// Hover resolves pos in uri. When the located stack holds a table node
// whose name is in the cached schema, it reports that table and its column
// count; column nodes are not resolved against the schema. Anywhere else
// inside a statement it reports the statement's resolved query name; the
// statement is not probed.
func (w *Workspace) Hover(ctx context.Context, uri string, pos splitter.Position) (Hover, bool) {
	doc, ok := w.documents[uri]
	if !ok {
		return Hover{}, false
	}

	loc := locator.Locate(doc.tokens, doc.forest, pos)
	for _, n := range loc.Stack {
		if table, ok := n.(*forest.TableLike); ok {
			if cols, ok := w.schema.Tables[table.Name]; ok {
				start, end := n.Span()
				return Hover{
					Contents: fmt.Sprintf("table %s (%d columns)", table.Name, len(cols)),
					Range:    tokenSpanRange(doc.tokens, start, end),
				}, true
			}
		}
	}

	stmt := statementAt(doc.statements, pos)
	if stmt == nil {
		return Hover{}, false
	}
	dirs := directive.Parse(stmt.Preamble, stmt.Index)
	templates := map[string]string{}
	for _, t := range dirs.Templates {
		templates[t.Name] = t.Example
	}
	rw := rewrite.Rewrite(stmt.Tokens, templates)
	return Hover{Contents: fmt.Sprintf("query %s", resolveName(dirs, rw, stmt.Index)), Range: stmt.Range}, true
}

// resolveName picks a statement's display/binding name: an explicit
// "-- @name" directive wins; absent that, a captured "PREPARE name AS ..."
// name is the default (spec.md §4.4, §8 scenario 3); absent both, the
// positional "query_<index>" fallback.
func resolveName(dirs directive.Directives, rw rewrite.Result, index int) string {
	if dirs.HasName {
		return dirs.Name
	}
	if rw.HasPreparedName {
		return rw.PreparedName
	}
	return fmt.Sprintf("query_%d", index)
}

// Complete emits table names, or in-scope aliases and their columns,
// depending on the lateral context at pos.
func (w *Workspace) Complete(uri string, pos splitter.Position) []CompletionItem {
	doc, ok := w.documents[uri]
	if !ok {
		return nil
	}
	loc := locator.Locate(doc.tokens, doc.forest, pos)

	switch loc.Context {
	case locator.ContextTableExpression:
		items := make([]CompletionItem, 0, len(w.schema.Tables))
		for name := range w.schema.Tables {
			items = append(items, CompletionItem{Label: name, Kind: CompletionTable})
		}
		return items
	case locator.ContextColumnExpression:
		return w.columnCompletions(loc)
	default:
		return nil
	}
}

func (w *Workspace) columnCompletions(loc locator.Result) []CompletionItem {
	aliases := scopedTables(loc.Stack)
	var items []CompletionItem
	for alias, table := range aliases {
		items = append(items, CompletionItem{Label: alias, Kind: CompletionAlias, Detail: table})
	}
	scoped := len(aliases) > 1
	for alias, table := range aliases {
		cols, ok := w.schema.Tables[table]
		if !ok {
			continue
		}
		for _, col := range cols {
			label := col.Name
			if scoped {
				label = alias + "." + col.Name
			}
			items = append(items, CompletionItem{Label: label, Kind: CompletionColumn, Detail: col.TypeName})
		}
	}
	return items
}

// scopedTables collects alias -> table name for every FromExpression
// reachable from the located stack's enclosing SelectQuery.
func scopedTables(stack []forest.Node) map[string]string {
	result := map[string]string{}
	for _, n := range stack {
		sq, ok := n.(*forest.SelectQuery)
		if !ok {
			continue
		}
		collectFrom(sq.From, result)
		for _, j := range sq.Joins {
			if js, ok := j.(*forest.JoinStmt); ok {
				collectFrom(js.From, result)
			}
		}
	}
	return result
}

func collectFrom(n forest.Node, out map[string]string) {
	list, ok := n.(*forest.FromExpressionList)
	if !ok {
		if fe, ok := n.(*forest.FromExpression); ok {
			addFromExpression(fe, out)
		}
		return
	}
	for _, item := range list.Items {
		if fe, ok := item.(*forest.FromExpression); ok {
			addFromExpression(fe, out)
		}
	}
}

func addFromExpression(fe *forest.FromExpression, out map[string]string) {
	table, ok := fe.Table.(*forest.TableLike)
	if !ok {
		return
	}
	alias := table.Name
	if fe.HasAlias {
		alias = fe.Alias
	}
	out[alias] = table.Name
}

func statementAt(statements []splitter.Statement, pos splitter.Position) *splitter.Statement {
	for i := range statements {
		r := statements[i].Range
		if posLE(r.Start, pos) && posLE(pos, r.End) {
			return &statements[i]
		}
	}
	return nil
}

func posLE(a, b splitter.Position) bool {
	if a.Line != b.Line {
		return a.Line < b.Line
	}
	return a.Character <= b.Character
}

// tokenSpanRange converts a [start,end) token-index span to a source
// Range using the document's token positions.
func tokenSpanRange(tokens []sqldocument.Unparsed, start, end int) splitter.Range {
	if start >= len(tokens) {
		return splitter.Range{}
	}
	last := end - 1
	if last >= len(tokens) {
		last = len(tokens) - 1
	}
	return splitter.Range{
		Start: splitter.Position{Line: tokens[start].Start.Line - 1, Character: tokens[start].Start.Col - 1},
		End:   splitter.Position{Line: tokens[last].Stop.Line - 1, Character: tokens[last].Stop.Col - 1},
	}
}

// GenTypings runs the probe over every statement in uri and returns a
// QueryTyping per statement that probed successfully; used by the CLI's
// code-generation consumer.
func (w *Workspace) GenTypings(ctx context.Context, uri string) ([]QueryTyping, []Diagnostic) {
	doc, ok := w.documents[uri]
	if !ok {
		return nil, nil
	}

	var typings []QueryTyping
	var diags []Diagnostic
	for i, stmt := range doc.statements {
		dirs := directive.Parse(stmt.Preamble, i)
		templates := map[string]string{}
		for _, t := range dirs.Templates {
			templates[t.Name] = t.Example
		}
		rw := rewrite.Rewrite(stmt.Tokens, templates)

		result, probeErr := prober.Probe(ctx, w.db, w.schema, rw.ProbeText, rw.ArgTypeNames)
		if probeErr != nil {
			diags = append(diags, diagnosticFor(stmt, probeErr))
			continue
		}
		typings = append(typings, QueryTyping{Name: resolveName(dirs, rw, i), Result: result, Params: dirs.Params})
	}
	return typings, diags
}
