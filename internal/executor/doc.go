// Package executor implements a depth-first GraphQL executor over documents
// validated by gqlparser, with explicit runtime hooks for field resolution,
// abstract-type resolution and leaf serialization.
//
// # Preparation
//
// Callers parse the request with language.ParseQuery and validate it with
// language.Validate before calling ExecuteRequest. Validation annotates every
// field with its definition, which the executor relies on. ExecuteRequest
// then:
//  1. Selects the operation by name, or the only operation when unnamed.
//  2. Measures the operation against Options.MaxDepth and
//     Options.MaxComplexity. Violations stop execution with validation errors.
//  3. Coerces variables against the operation's variable definitions.
//
// # Execution
//
// Fields are collected per selection set in document order (honoring @skip,
// @include and fragment type conditions) and resolved one by one through
// Runtime.ResolveField. The response path of the field being resolved is
// available to resolvers through PathFromContext.
//
// Values are completed according to the GraphQL specification: lists item by
// item, leaves through Runtime.SerializeLeafValue, objects recursively and
// abstract types after Runtime.ResolveType. A null in a Non-Null position
// propagates to the nearest nullable ancestor; a null root yields null data.
//
// # Errors
//
// Resolver errors are passed to Options.ErrorHandler together with the
// field's path. The handler decides how many errors to report and where they
// are addressed; DefaultErrorHandler reports one internal error at the path.
// Every GraphQLError carries a Kind so the transport can separate client
// errors from internal faults.
package executor
