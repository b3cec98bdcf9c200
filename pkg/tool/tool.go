// Copyright 2025 Kadir Pekel
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package tool defines the uniform contract every gateway capability
// (structured predictor, retrieval, external search, translation,
// generation, weather) is exposed through: a single
// invoke(map) -> Result{Ok|Err} call with a declared input/output schema.
//
// Tools are immutable after registration for the life of the process. Any
// per-tool input shaping (typed extraction, range validation) lives in a
// small extractor registered alongside the tool — see functiontool — never
// inside the tool body itself.
package tool

import (
	"context"
	"regexp"

	"github.com/agriquery/gateway/pkg/gwerr"
)

// Category classifies a tool for routing and catalog display.
type Category string

const (
	CategoryPrediction     Category = "prediction"
	CategoryRetrieval      Category = "retrieval"
	CategoryGeneration     Category = "generation"
	CategoryExternalSearch Category = "external-search"
	CategoryTranslation    Category = "translation"
	CategoryUtility        Category = "utility"
)

// Result is the tagged-variant return of every tool invocation: either Ok
// with a payload, or an Err describing why it failed. Exactly one of
// Payload/Err is meaningful at a time — check IsErr first.
type Result struct {
	Payload map[string]any
	Err     *gwerr.Error
}

// Ok builds a successful Result.
func Ok(payload map[string]any) Result {
	return Result{Payload: payload}
}

// Err builds a failed Result from a domain error.
func Err(err *gwerr.Error) Result {
	return Result{Err: err}
}

// IsErr reports whether the Result represents a failure.
func (r Result) IsErr() bool {
	return r.Err != nil
}

// Handler is the uniform invocation contract: take a map of already-
// JSON-decoded arguments, return a Result. Handlers never panic on bad
// input — malformed or out-of-range arguments become an Err with
// gwerr.KindInvalidInput.
type Handler func(ctx context.Context, args map[string]any) Result

// Tool is an entry in the Registry: identity, routing metadata, declared
// schemas, and the handler that executes it. Tools are immutable after
// registration.
type Tool struct {
	// Name is the unique, stable identity used for registration and lookup.
	Name string

	// Description is a one-line summary shown to the router/LM.
	Description string

	// Category groups the tool for routing and catalog display.
	Category Category

	// InputSchema and OutputSchema are JSON-schema-shaped maps describing
	// the tool's arguments and result payload.
	InputSchema  map[string]any
	OutputSchema map[string]any

	// Keywords are matched against a query by the router's keyword scorer,
	// as whole words.
	Keywords []string

	// Patterns are regular expressions matched against the lowercased
	// query by the router's pattern scorer.
	Patterns []*regexp.Regexp

	// Units are structural hints (e.g. "mm", "°C", "%") whose presence in
	// the query, attached to a numeric token, favors this tool.
	Units []string

	// TerminalOnSuccess reports whether a successful invocation of this
	// tool is a self-sufficient answer (true for prediction/retrieval-
	// with-synthesis) or must still be followed by generation (false for
	// raw retrieval).
	TerminalOnSuccess bool

	// Priority breaks ties between tools with equal router scores; higher
	// wins.
	Priority int

	// Handler executes the tool.
	Handler Handler
}

// Invoke runs the tool's handler. It exists as a named method (rather than
// callers reaching into t.Handler directly) so future cross-cutting
// concerns — metrics, tracing — have a single call site to wrap.
func (t *Tool) Invoke(ctx context.Context, args map[string]any) Result {
	return t.Handler(ctx, args)
}
