package schema

import (
	"sort"

	executor "github.com/hanpama/hotgraph/internal/executor"
	provider "github.com/hanpama/hotgraph/internal/provider"
)

const (
	errorCodesField = "errorCodes"
	errorCodesKey   = "Query." + errorCodesField
)

// rootSDL declares the root types every bundle has. Providers extend them.
func rootSDL(withMutation bool) string {
	sdl := `type Query {
  "Error codes the fields of this endpoint may report."
  errorCodes: [String!]!
}
`
	if withMutation {
		sdl += "type Mutation\n"
	}
	return sdl
}

// collectErrorCodes returns the sorted union of the providers' codes.
func collectErrorCodes(ps []provider.FieldProvider) []string {
	seen := map[string]struct{}{}
	codes := []string{}
	for _, p := range ps {
		for _, c := range p.ErrorCodes() {
			if c == "" {
				continue
			}
			if _, ok := seen[c]; ok {
				continue
			}
			seen[c] = struct{}{}
			codes = append(codes, c)
		}
	}
	sort.Strings(codes)
	return codes
}

func errorCodesResolver(codes []string) executor.FieldFunc {
	out := make([]any, len(codes))
	for i, c := range codes {
		out[i] = c
	}
	return provider.Value(out)
}
