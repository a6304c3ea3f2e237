// Command sguq builds sparse grids, learns surrogate models and reports
// their ANOVA sensitivity rankings.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/katalvlaran/sparsegrid"
	"github.com/katalvlaran/sparsegrid/internal/ctxlog"
	"github.com/spf13/cobra"
)

func main() {
	// Use a minimal logger until the flags are parsed.
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	})))

	if err := run(os.Stdout, os.Args[1:]); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// run executes the command tree with args, writing results to outW.
func run(outW io.Writer, args []string) error {
	root := newRootCmd()
	root.SetOut(outW)
	root.SetArgs(args)

	return root.ExecuteContext(context.Background())
}

func newRootCmd() *cobra.Command {
	var logLevel, logFormat string
	rootCmd := &cobra.Command{
		Use:           "sguq",
		Short:         "Sparse-grid surrogates and ANOVA sensitivity analysis",
		Version:       sparsegrid.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			logger := ctxlog.New(logLevel, logFormat, cmd.ErrOrStderr())
			cmd.SetContext(ctxlog.WithLogger(cmd.Context(), logger))
			return nil
		},
	}
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "info", "Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().StringVar(&logFormat, "log-format", "text", "Log format: text or json")

	rootCmd.AddCommand(newGridCmd(), newLearnCmd(), newANOVACmd(), newModelsCmd())

	return rootCmd
}
