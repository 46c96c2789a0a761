package main

import (
	"context"
	"encoding/json"

	"github.com/sirupsen/logrus"
	"go.lsp.dev/jsonrpc2"
	"go.lsp.dev/protocol"

	"github.com/vippsas/piqued/internal/analyzer"
	"github.com/vippsas/piqued/internal/dbadapter"
	"github.com/vippsas/piqued/internal/schema"
	"github.com/vippsas/piqued/internal/splitter"
)

// server is the JSON-RPC method dispatcher. Every handler method is a
// thin translation into/out of the C9 Workspace; no analysis logic lives
// here.
type server struct {
	ws   *analyzer.Workspace
	log  logrus.FieldLogger
	conn jsonrpc2.Conn
}

func newServer(db dbadapter.DbClient, cache *schema.Cache, schemaName string, log logrus.FieldLogger) *server {
	return &server{ws: analyzer.NewWorkspace(db, cache, schemaName), log: log}
}

// handle is the jsonrpc2.Handler: it decodes req.Params into the matching
// protocol type, calls the corresponding Workspace method, and replies.
func (s *server) handle(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	switch req.Method() {
	case "initialize":
		return s.initialize(ctx, reply, req)
	case "initialized":
		return reply(ctx, nil, nil)
	case "textDocument/didOpen":
		return s.didOpen(ctx, reply, req)
	case "textDocument/didChange":
		return s.didChange(ctx, reply, req)
	case "textDocument/hover":
		return s.hover(ctx, reply, req)
	case "textDocument/completion":
		return s.completion(ctx, reply, req)
	case "shutdown":
		return reply(ctx, nil, nil)
	case "exit":
		return reply(ctx, nil, nil)
	default:
		return reply(ctx, nil, jsonrpc2.NewError(jsonrpc2.MethodNotFound, "unhandled method: "+req.Method()))
	}
}

func (s *server) initialize(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.InitializeParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}

	result := &protocol.InitializeResult{
		Capabilities: protocol.ServerCapabilities{
			TextDocumentSync: protocol.TextDocumentSyncKindFull,
			HoverProvider:    true,
			CompletionProvider: &protocol.CompletionOptions{
				TriggerCharacters: []string{".", ":"},
			},
		},
	}
	return reply(ctx, result, nil)
}

func (s *server) didOpen(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidOpenTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	uri := string(params.TextDocument.URI)
	s.ws.PatchFile(uri, params.TextDocument.Text)
	s.publishDiagnostics(ctx, uri)
	return reply(ctx, nil, nil)
}

func (s *server) didChange(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.DidChangeTextDocumentParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	uri := string(params.TextDocument.URI)
	// textDocumentSync=Full: the last content change carries the whole
	// document.
	if n := len(params.ContentChanges); n > 0 {
		s.ws.PatchFile(uri, params.ContentChanges[n-1].Text)
	}
	s.publishDiagnostics(ctx, uri)
	return reply(ctx, nil, nil)
}

func (s *server) publishDiagnostics(ctx context.Context, uri string) {
	diags := s.ws.GetDiagnostics(ctx, uri)
	out := make([]protocol.Diagnostic, 0, len(diags))
	for _, d := range diags {
		out = append(out, protocol.Diagnostic{
			Range:    toProtocolRange(d.Range),
			Severity: protocol.DiagnosticSeverity(d.Severity),
			Message:  d.Message,
		})
	}
	s.log.WithField("uri", uri).WithField("count", len(out)).Debug("diagnostics published")
	if s.conn == nil {
		return
	}
	params := protocol.PublishDiagnosticsParams{URI: protocol.DocumentURI(uri), Diagnostics: out}
	if err := s.conn.Notify(ctx, "textDocument/publishDiagnostics", &params); err != nil {
		s.log.WithError(err).Warn("failed to publish diagnostics")
	}
}

func (s *server) hover(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.HoverParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	uri := string(params.TextDocument.URI)
	pos := fromProtocolPosition(params.Position)

	hover, ok := s.ws.Hover(ctx, uri, pos)
	if !ok {
		return reply(ctx, nil, nil)
	}
	result := &protocol.Hover{
		Contents: protocol.MarkupContent{Kind: protocol.PlainText, Value: hover.Contents},
		Range:    toProtocolRange(hover.Range),
	}
	return reply(ctx, result, nil)
}

func (s *server) completion(ctx context.Context, reply jsonrpc2.Replier, req jsonrpc2.Request) error {
	var params protocol.CompletionParams
	if err := json.Unmarshal(req.Params(), &params); err != nil {
		return reply(ctx, nil, err)
	}
	uri := string(params.TextDocument.URI)
	pos := fromProtocolPosition(params.Position)

	items := s.ws.Complete(uri, pos)
	out := make([]protocol.CompletionItem, 0, len(items))
	for _, it := range items {
		out = append(out, protocol.CompletionItem{
			Label:  it.Label,
			Kind:   completionItemKind(it.Kind),
			Detail: it.Detail,
		})
	}
	return reply(ctx, out, nil)
}

func completionItemKind(k analyzer.CompletionKind) protocol.CompletionItemKind {
	switch k {
	case analyzer.CompletionTable:
		return protocol.CompletionItemKindClass
	case analyzer.CompletionColumn:
		return protocol.CompletionItemKindField
	default:
		return protocol.CompletionItemKindVariable
	}
}

func toProtocolRange(r splitter.Range) protocol.Range {
	return protocol.Range{
		Start: protocol.Position{Line: uint32(r.Start.Line), Character: uint32(r.Start.Character)},
		End:   protocol.Position{Line: uint32(r.End.Line), Character: uint32(r.End.Character)},
	}
}

func fromProtocolPosition(p protocol.Position) splitter.Position {
	return splitter.Position{Line: int(p.Line), Character: int(p.Character)}
}
