package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/alecthomas/repr"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/vippsas/piqued/internal/analyzer"
	"github.com/vippsas/piqued/internal/config"
	"github.com/vippsas/piqued/internal/dbadapter"
	"github.com/vippsas/piqued/internal/schema"
	"github.com/vippsas/piqued/internal/watcher"
)

// recognizedExt mirrors spec §6's recognized query source extensions.
var recognizedExt = map[string]bool{
	".sql": true, ".psql": true, ".pgsql": true, ".pg": true,
}

func runGenerate(cmd *cobra.Command, args []string) error {
	log := newLogger()
	ctx := context.Background()

	var cfg *config.Config
	var err error
	if configPath != "" {
		cfg, err = config.LoadFile(configPath)
	} else {
		cfg, err = config.Load("")
	}
	if err != nil {
		return fmt.Errorf("loading piqued.toml: %w", err)
	}
	log.WithField("root", cfg.Workspace.Root).Debug("resolved workspace")

	db, err := dbadapter.Connect(ctx, cfg.Postgres.URI)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	defer db.Close()

	cache, err := schema.Load(ctx, db, cfg.Postgres.Schema)
	if err != nil {
		return fmt.Errorf("loading schema cache: %w", err)
	}

	ws := analyzer.NewWorkspace(db, cache, cfg.Postgres.Schema)

	failed, err := generateOnce(ctx, ws, cfg.Workspace.Root, log)
	if err != nil {
		return err
	}

	if !watch {
		if failed {
			return fmt.Errorf("one or more queries failed diagnostics")
		}
		return nil
	}

	w, err := watcher.New(cfg.Workspace.Root, func(path string) {
		log.WithField("file", path).Info("recognized file changed, recompiling")
		if _, err := generateOnce(ctx, ws, cfg.Workspace.Root, log); err != nil {
			log.WithError(err).Warn("recompile failed")
		}
	}, log)
	if err != nil {
		return fmt.Errorf("starting watcher: %w", err)
	}
	defer w.Close()
	log.WithField("root", cfg.Workspace.Root).Info("watching for changes")
	w.Run()
	return nil
}

// generateOnce patches every recognized file under root into ws and runs
// diagnostics/typings for each. It returns true if any diagnostic had
// severity Error.
func generateOnce(ctx context.Context, ws *analyzer.Workspace, root string, log logrus.FieldLogger) (bool, error) {
	var failed bool

	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !recognizedExt[filepath.Ext(path)] {
			return nil
		}

		text, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		ws.PatchFile(path, string(text))

		typings, diags := ws.GenTypings(ctx, path)
		for _, d := range diags {
			if d.Severity == analyzer.SeverityError {
				failed = true
			}
			fmt.Printf("%s:%d:%d: %s\n", path, d.Range.Start.Line+1, d.Range.Start.Character+1, d.Message)
		}
		if !noEmit {
			for _, t := range typings {
				fmt.Printf("%s: %s(%v) -> %v %v\n", path, t.Name, t.Result.ArgTypeNames, t.Result.ColumnNames, t.Result.ColumnTypes)
				if verbose {
					repr.Println(t)
				}
			}
		}
		return nil
	})
	if err != nil {
		return failed, err
	}
	return failed, nil
}
