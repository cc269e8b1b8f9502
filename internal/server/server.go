// Package server serves GraphQL over HTTP against the currently active
// schema bundle.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/elnormous/contenttype"
	"github.com/rs/zerolog"

	eventbus "github.com/hanpama/hotgraph/internal/eventbus"
	events "github.com/hanpama/hotgraph/internal/events"
	executor "github.com/hanpama/hotgraph/internal/executor"
	fielderr "github.com/hanpama/hotgraph/internal/fielderr"
	introspection "github.com/hanpama/hotgraph/internal/introspection"
	language "github.com/hanpama/hotgraph/internal/language"
	reqid "github.com/hanpama/hotgraph/internal/reqid"
	schema "github.com/hanpama/hotgraph/internal/schema"
)

// BundleSource yields the bundle requests run against.
type BundleSource interface {
	Current() *schema.Bundle
}

// Handler is an http.Handler that serves a GraphQL endpoint.
// Each admitted operation runs against the bundle current at dispatch.
type Handler struct {
	source BundleSource
	opt    Options
	logger zerolog.Logger

	bound atomic.Pointer[boundExecutor]
}

type boundExecutor struct {
	bundle *schema.Bundle
	exec   *executor.Executor
}

type Options struct {
	// Timeout sets a default timeout if the incoming request context has none.
	// 0 means no default timeout.
	Timeout time.Duration

	// Pretty enables indented JSON responses (useful for dev).
	Pretty bool

	// MaxRequestBytes is the largest accepted Content-Length.
	MaxRequestBytes int64

	// MaxBatchSize is the largest accepted number of operations in a batch.
	MaxBatchSize int

	// MaxDepth and MaxComplexity limit each operation. 0 disables a limit.
	MaxDepth      int
	MaxComplexity int

	// Introspection enables __schema and __type.
	Introspection bool

	// CORS configuration. If AllowedOrigins is empty, CORS is disabled.
	CORS CORSOptions

	Logger zerolog.Logger
}

type Option func(*Options)

func WithTimeout(d time.Duration) Option   { return func(o *Options) { o.Timeout = d } }
func WithPretty() Option                   { return func(o *Options) { o.Pretty = true } }
func WithMaxRequestBytes(n int64) Option   { return func(o *Options) { o.MaxRequestBytes = n } }
func WithMaxBatchSize(n int) Option        { return func(o *Options) { o.MaxBatchSize = n } }
func WithMaxDepth(n int) Option            { return func(o *Options) { o.MaxDepth = n } }
func WithMaxComplexity(n int) Option       { return func(o *Options) { o.MaxComplexity = n } }
func WithIntrospection(enable bool) Option { return func(o *Options) { o.Introspection = enable } }
func WithLogger(l zerolog.Logger) Option   { return func(o *Options) { o.Logger = l } }
func WithCORS(origins ...string) Option {
	return func(o *Options) { o.CORS.AllowedOrigins = origins }
}

// CORSOptions holds simple CORS settings.
type CORSOptions struct {
	AllowedOrigins []string
}

// New creates a GraphQL HTTP handler serving the bundles of source.
func New(source BundleSource, opts ...Option) (*Handler, error) {
	if source == nil {
		return nil, errors.New("server: nil bundle source")
	}
	op := Options{
		Timeout:         10 * time.Second,
		MaxRequestBytes: DefaultMaxRequestBytes,
		MaxBatchSize:    DefaultMaxBatchSize,
		MaxDepth:        executor.DefaultMaxDepth,
		MaxComplexity:   executor.DefaultMaxComplexity,
		Introspection:   true,
		Logger:          zerolog.Nop(),
	}
	for _, f := range opts {
		f(&op)
	}
	return &Handler{source: source, opt: op, logger: op.Logger.With().Str("component", "server").Logger()}, nil
}

var jsonMediaType = contenttype.NewMediaType("application/json")

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	if _, ok := ctx.Deadline(); !ok && h.opt.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, h.opt.Timeout)
		defer cancel()
	}

	if _, ok := reqid.FromContext(ctx); !ok {
		ctx, _ = reqid.NewContext(ctx)
	}
	finish := events.HTTPFinish{Request: r, Status: http.StatusOK}
	start := time.Now()
	eventbus.Publish(ctx, events.HTTPStart{Request: r})
	defer func() {
		finish.Duration = time.Since(start)
		eventbus.Publish(ctx, finish)
	}()

	if len(h.opt.CORS.AllowedOrigins) > 0 {
		setCORSHeaders(w, r, h.opt.CORS)
	}

	if r.Method == http.MethodOptions {
		finish.Status = http.StatusNoContent
		w.WriteHeader(finish.Status)
		return
	}
	if r.Method != http.MethodPost {
		finish.Status = http.StatusMethodNotAllowed
		w.Header().Set("Allow", "POST, OPTIONS")
		writeText(w, finish.Status, "Method not allowed.")
		return
	}

	ops, batch, aerr := h.admit(r)
	if aerr != nil {
		finish.Status = aerr.Status
		eventbus.Publish(ctx, events.AdmissionRejected{Kind: aerr.Kind.String(), Status: aerr.Status})
		h.logger.Debug().Str("kind", aerr.Kind.String()).Int("status", aerr.Status).Msg("request rejected")
		writeText(w, aerr.Status, aerr.Message)
		return
	}
	finish.Batch = batch
	finish.Operations = len(ops)

	bound := h.executorFor(h.source.Current())
	if bound == nil {
		h.logger.Error().Msg("no active schema bundle")
		finish.Status = http.StatusInternalServerError
		w.WriteHeader(finish.Status)
		return
	}

	results, err := h.dispatch(ctx, bound, ops)
	if err != nil {
		h.logger.Error().Err(err).Msg("dispatch failed")
		finish.Status = http.StatusInternalServerError
		w.WriteHeader(finish.Status)
		return
	}

	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(AssembleResponse(results, batch))
}

// admit runs the admission checks and decodes every operation.
func (h *Handler) admit(r *http.Request) ([]GraphQLRequest, bool, *AdmissionError) {
	var aerr *AdmissionError

	length, err := CheckContentLength(r.Header.Get("Content-Length"), h.opt.MaxRequestBytes)
	if errors.As(err, &aerr) {
		return nil, false, aerr
	}

	if r.Header.Get("Content-Type") != "" {
		ctype, cerr := contenttype.GetMediaType(r)
		if cerr != nil || !ctype.Matches(jsonMediaType) {
			return nil, false, &AdmissionError{Kind: UnsupportedMediaType, Status: http.StatusUnsupportedMediaType, Message: "Content-Type must be application/json."}
		}
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, length))
	if err != nil {
		return nil, false, malformed("failed to read body")
	}
	defer r.Body.Close()

	env, err := ParseEnvelope(body)
	if errors.As(err, &aerr) {
		return nil, false, aerr
	}
	raws, err := SplitOperations(env, h.opt.MaxBatchSize)
	if errors.As(err, &aerr) {
		return nil, false, aerr
	}
	reqs, err := DecodeOperations(raws)
	if errors.As(err, &aerr) {
		return nil, false, aerr
	}
	return reqs, env.Batch, nil
}

// executorFor returns an executor bound to b, reusing the cached one while
// b stays current.
func (h *Handler) executorFor(b *schema.Bundle) *boundExecutor {
	if b == nil {
		return nil
	}
	if cur := h.bound.Load(); cur != nil && cur.bundle == b {
		return cur
	}
	var rt executor.Runtime = b
	if h.opt.Introspection {
		rt = introspection.Wrap(b, b.Schema)
	}
	exec := executor.NewExecutor(rt, b.Schema,
		executor.WithMaxDepth(h.opt.MaxDepth),
		executor.WithMaxComplexity(h.opt.MaxComplexity),
		executor.WithErrorHandler(fielderr.NewTranslator()),
	)
	bound := &boundExecutor{bundle: b, exec: exec}
	h.bound.Store(bound)
	return bound
}

// dispatch runs ops in order. A panic or an unmarshalable result fails the
// whole request.
func (h *Handler) dispatch(ctx context.Context, bound *boundExecutor, ops []GraphQLRequest) (results []json.RawMessage, err error) {
	defer func() {
		if rec := recover(); rec != nil {
			results = nil
			err = fmt.Errorf("panic while executing operation: %v", rec)
		}
	}()
	results = make([]json.RawMessage, len(ops))
	for i, op := range ops {
		res := h.executeOne(ctx, bound, op)
		raw, merr := h.marshal(res)
		if merr != nil {
			return nil, fmt.Errorf("marshal operation %d: %w", i, merr)
		}
		results[i] = raw
	}
	return results, nil
}

func (h *Handler) executeOne(ctx context.Context, bound *boundExecutor, req GraphQLRequest) *executor.ExecutionResult {
	if req.Query == "" {
		return &executor.ExecutionResult{Errors: []executor.GraphQLError{{Message: "missing 'query'", Kind: executor.KindSyntax}}}
	}

	doc, err := language.ParseQuery(req.Query)
	if err != nil {
		return &executor.ExecutionResult{Errors: []executor.GraphQLError{executor.ErrorFromParse(err)}}
	}
	if errs := language.Validate(bound.bundle.Schema, doc); len(errs) > 0 {
		return &executor.ExecutionResult{Errors: executor.ErrorsFromList(errs, executor.KindValidation)}
	}

	opType := ""
	if opDef := doc.Operations.ForName(req.OperationName); opDef != nil {
		opType = string(opDef.Operation)
	}

	start := time.Now()
	eventbus.Publish(ctx, events.GraphQLStart{
		BundleID:      bound.bundle.ID,
		Query:         req.Query,
		OperationName: req.OperationName,
		OperationType: opType,
	})
	result := bound.exec.ExecuteRequest(ctx, doc, req.OperationName, req.Variables, nil)
	errs := make([]error, len(result.Errors))
	internal := 0
	for i := range result.Errors {
		errs[i] = result.Errors[i]
		if !fielderr.IsClientError(result.Errors[i]) {
			internal++
		}
	}
	eventbus.Publish(ctx, events.GraphQLFinish{
		BundleID:       bound.bundle.ID,
		Query:          req.Query,
		OperationName:  req.OperationName,
		OperationType:  opType,
		Errors:         errs,
		InternalErrors: internal,
		Duration:       time.Since(start),
	})

	result.Errors = fielderr.Process(h.logger, result.Errors)
	return result
}

func (h *Handler) marshal(v any) (json.RawMessage, error) {
	if h.opt.Pretty {
		return json.MarshalIndent(v, "", "  ")
	}
	return json.Marshal(v)
}

func writeText(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(status)
	_, _ = io.WriteString(w, msg)
}

func setCORSHeaders(w http.ResponseWriter, r *http.Request, opts CORSOptions) {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return
	}
	allowed := false
	wildcard := false
	for _, o := range opts.AllowedOrigins {
		if o == "*" {
			wildcard = true
		}
		if o == "*" || o == origin {
			allowed = true
		}
	}
	if !allowed {
		return
	}
	if wildcard {
		w.Header().Set("Access-Control-Allow-Origin", "*")
	} else {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Add("Vary", "Origin")
	}
	if r.Method == http.MethodOptions {
		if hdr := r.Header.Get("Access-Control-Request-Headers"); hdr != "" {
			w.Header().Set("Access-Control-Allow-Headers", hdr)
		}
		w.Header().Set("Access-Control-Allow-Methods", "POST,OPTIONS")
	}
}
