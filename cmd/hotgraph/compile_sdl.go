package main

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	provider "github.com/hanpama/hotgraph/internal/provider"
	schema "github.com/hanpama/hotgraph/internal/schema"
)

func newCompileSDLCmd() *cobra.Command {
	var dir, out string
	cmd := &cobra.Command{
		Use:   "compile-sdl",
		Short: "Merge provider manifests into a single schema",
		Long: `Load every manifest of a providers directory, build the merged schema
exactly as serve would, and print it as SDL. Exits non-zero when the
providers do not merge into a valid schema.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return compileSDL(cmd.Context(), dir, out, cmd.OutOrStdout())
		},
	}
	cmd.Flags().StringVar(&dir, "dir", "providers", "providers directory")
	cmd.Flags().StringVarP(&out, "out", "o", "", "write compiled SDL to file (default: stdout)")
	return cmd
}

func compileSDL(ctx context.Context, dir, out string, stdout io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	statics, err := provider.LoadDir(dir)
	if err != nil {
		return fmt.Errorf("load providers: %w", err)
	}
	providers := make([]provider.FieldProvider, len(statics))
	for i, s := range statics {
		providers[i] = s
	}
	bundle, err := schema.NewBuilder(zerolog.Nop()).Build(ctx, providers)
	if err != nil {
		return fmt.Errorf("build schema: %w", err)
	}
	sdl := schema.Render(bundle.Schema)
	if out == "" {
		_, err := io.WriteString(stdout, sdl)
		return err
	}
	return os.WriteFile(out, []byte(sdl), 0644)
}
