package schema

import (
	"context"
	"fmt"
	"strings"
	"sync/atomic"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	executor "github.com/hanpama/hotgraph/internal/executor"
	language "github.com/hanpama/hotgraph/internal/language"
	provider "github.com/hanpama/hotgraph/internal/provider"
)

// Builder materializes Bundles from a provider collection. It holds no
// state besides the generation counter, so one Builder may serve
// concurrent builds.
type Builder struct {
	logger     zerolog.Logger
	generation atomic.Uint64
}

// NewBuilder returns a Builder logging to logger.
func NewBuilder(logger zerolog.Logger) *Builder {
	return &Builder{logger: logger.With().Str("component", "schema-builder").Logger()}
}

// Build merges the providers' SDL on top of the root types, validates the
// result and collects the providers' resolvers. Building an empty
// collection yields a bundle serving only the errorCodes query.
func (b *Builder) Build(ctx context.Context, providers []provider.FieldProvider) (*Bundle, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	withMutation := false
	sources := make([]*language.Source, 0, len(providers)+1)
	for _, p := range providers {
		if p == nil {
			continue
		}
		name := "provider:" + p.FieldType()
		doc, err := language.ParseSchema(name, p.SDL())
		if err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		for _, ext := range doc.Extensions {
			if ext.Name == "Mutation" {
				withMutation = true
			}
		}
		sources = append(sources, &language.Source{Name: name, Input: p.SDL()})
	}
	sources = append([]*language.Source{{Name: "builtin", Input: rootSDL(withMutation)}}, sources...)

	sch, err := language.LoadSchema(sources...)
	if err != nil {
		return nil, fmt.Errorf("load schema: %w", err)
	}

	codes := collectErrorCodes(nonNil(providers))
	resolvers := map[string]executor.FieldFunc{errorCodesKey: errorCodesResolver(codes)}
	owners := map[string]string{errorCodesKey: "builtin"}
	for _, p := range nonNil(providers) {
		for key, fn := range p.Resolvers() {
			if owner, dup := owners[key]; dup {
				return nil, fmt.Errorf("duplicate resolver %s: provided by %s and %s", key, owner, p.FieldType())
			}
			if err := checkResolverKey(sch, key); err != nil {
				return nil, fmt.Errorf("provider %s: %w", p.FieldType(), err)
			}
			owners[key] = p.FieldType()
			resolvers[key] = fn
		}
	}

	bundle := &Bundle{
		ID:         uuid.NewString(),
		Generation: b.generation.Add(1),
		Schema:     sch,
		FieldTypes: provider.SortedTypes(nonNil(providers)),
		ErrorCodes: codes,
		resolvers:  resolvers,
	}
	bundle.QueryFields = rootFields(sch.Query)
	bundle.MutationFields = rootFields(sch.Mutation)

	b.logger.Debug().
		Str("bundle", bundle.ID).
		Uint64("generation", bundle.Generation).
		Strs("queries", bundle.QueryFields).
		Strs("mutations", bundle.MutationFields).
		Msg("schema built")
	return bundle, nil
}

func checkResolverKey(sch *language.Schema, key string) error {
	typ, field, ok := strings.Cut(key, ".")
	if !ok {
		return fmt.Errorf("invalid resolver key %q", key)
	}
	def := sch.Types[typ]
	if def == nil || def.Kind != language.Object {
		return fmt.Errorf("resolver %s: unknown object type %s", key, typ)
	}
	if def.Fields.ForName(field) == nil {
		return fmt.Errorf("resolver %s: %s has no field %s", key, typ, field)
	}
	return nil
}

func rootFields(def *language.Definition) []string {
	if def == nil {
		return nil
	}
	out := make([]string, 0, len(def.Fields))
	for _, f := range def.Fields {
		if strings.HasPrefix(f.Name, "__") {
			continue
		}
		out = append(out, f.Name)
	}
	return out
}

func nonNil(ps []provider.FieldProvider) []provider.FieldProvider {
	out := make([]provider.FieldProvider, 0, len(ps))
	for _, p := range ps {
		if p != nil {
			out = append(out, p)
		}
	}
	return out
}
