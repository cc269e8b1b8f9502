package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
)

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(args []string, stdout, stderr io.Writer) error {
	root := newRootCmd()
	root.SetArgs(args)
	root.SetOut(stdout)
	root.SetErr(stderr)
	return root.Execute()
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "hotgraph",
		Short: "Hot-reloadable GraphQL endpoint",
		Long: `hotgraph serves a GraphQL endpoint whose schema is merged from field
providers that can be bound and unbound at runtime.

Commands:
  hotgraph serve        # Run the HTTP endpoint, watching a providers directory
  hotgraph compile-sdl  # Merge & validate provider manifests into one schema`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newCompileSDLCmd())
	return root
}
