package cmd

import (
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	rootCmd = &cobra.Command{
		Use:          "piqued",
		Short:        "piqued",
		SilenceUsage: true,
		Long:         `Typed-bindings toolchain for PostgreSQL queries held in .sql-family source files.`,
		RunE:         runGenerate,
	}

	configPath string
	watch      bool
	noEmit     bool
	verbose    bool
)

// Execute executes the root command.
func Execute() error {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "path to piqued.toml (default: ascend from cwd)")
	rootCmd.PersistentFlags().BoolVar(&watch, "watch", false, "recompile on change to any recognized extension under workspace.root")
	rootCmd.PersistentFlags().BoolVar(&noEmit, "no-emit", false, "run diagnostics only; skip printing typings")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable debug-level logging")
	return rootCmd.Execute()
}

func newLogger() logrus.FieldLogger {
	l := logrus.StandardLogger()
	if verbose {
		l.SetLevel(logrus.DebugLevel)
	}
	return l
}
