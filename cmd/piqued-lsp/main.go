// Command piqued-lsp is the language-server binary (A4): pure JSON-RPC/
// stdio transport glue over go.lsp.dev/jsonrpc2 and go.lsp.dev/protocol,
// delegating every request to the analyzer façade (C9). Business logic
// does not belong here; see spec.md §1's framing of the LSP wire
// protocol as an external collaborator of the core.
package main

import (
	"context"
	"os"

	"github.com/sirupsen/logrus"
	"go.lsp.dev/jsonrpc2"

	"github.com/vippsas/piqued/internal/config"
	"github.com/vippsas/piqued/internal/dbadapter"
	"github.com/vippsas/piqued/internal/schema"
)

func main() {
	log := logrus.StandardLogger()
	ctx := context.Background()

	cfg, err := config.Load("")
	if err != nil {
		log.WithError(err).Fatal("loading piqued.toml")
	}

	db, err := dbadapter.Connect(ctx, cfg.Postgres.URI)
	if err != nil {
		// Per spec.md §7, config/IO errors are fatal to the CLI but an LSP
		// session should stay up and just leave the workspace unloaded;
		// here we still fail fast since no client has started a session
		// yet to report diagnostics against.
		log.WithError(err).Fatal("connecting to postgres")
	}
	defer db.Close()

	cache, err := schema.Load(ctx, db, cfg.Postgres.Schema)
	if err != nil {
		log.WithError(err).Fatal("loading schema cache")
	}

	srv := newServer(db, cache, cfg.Postgres.Schema, log)

	stream := jsonrpc2.NewStream(stdrwc{})
	conn := jsonrpc2.NewConn(stream)
	srv.conn = conn
	conn.Go(ctx, srv.handle)

	log.Info("piqued-lsp listening on stdio")
	<-conn.Done()
	if err := conn.Err(); err != nil {
		log.WithError(err).Warn("connection closed with error")
	}
}

// stdrwc adapts stdin/stdout to io.ReadWriteCloser for jsonrpc2.NewStream.
type stdrwc struct{}

func (stdrwc) Read(p []byte) (int, error)  { return os.Stdin.Read(p) }
func (stdrwc) Write(p []byte) (int, error) { return os.Stdout.Write(p) }
func (stdrwc) Close() error {
	if err := os.Stdin.Close(); err != nil {
		return err
	}
	return os.Stdout.Close()
}
