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

// Package functiontool builds a tool.Tool from a typed Go function, giving
// every concrete tool adapter (predictors, retrieval, translation,
// generation, weather) compile-time-checked arguments and a generated
// schema instead of hand-written map plumbing.
package functiontool

import (
	"context"
	"fmt"
	"regexp"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/tool"
)

// Config describes the catalog metadata for a function tool — everything
// the Registry and Router need beyond the schema/handler.
type Config struct {
	Name        string
	Description string
	Category    tool.Category
	Keywords    []string
	Patterns    []*regexp.Regexp
	Units       []string
	Priority    int

	// TerminalOnSuccess reports whether a successful result from this tool
	// ends the agent's tool loop; the answer is still synthesized from it.
	TerminalOnSuccess bool
}

// New builds a tool.Tool from cfg and a typed handler function. Args must
// be a struct with json/jsonschema tags; the schema and any declared
// numeric ranges are derived from it once, at registration time.
//
// The returned Tool's Handler decodes the incoming map into Args via
// mapstructure (rejecting type mismatches), checks declared ranges
// (rejecting out-of-range values outright, never clamping), then calls fn.
// A *gwerr.Error returned by fn is passed through; any other error is
// wrapped as gwerr.KindInternal.
func New[Args any](cfg Config, fn func(context.Context, Args) (map[string]any, error)) (*tool.Tool, error) {
	if cfg.Name == "" {
		return nil, fmt.Errorf("tool name is required")
	}
	if cfg.Description == "" {
		return nil, fmt.Errorf("tool description is required")
	}

	schema, err := generateSchema[Args]()
	if err != nil {
		return nil, fmt.Errorf("failed to generate schema for %s: %w", cfg.Name, err)
	}
	ranges := extractRanges[Args]()

	handler := func(ctx context.Context, args map[string]any) tool.Result {
		var typed Args
		if err := mapToStruct(args, &typed); err != nil {
			if gerr, ok := gwerr.As(err); ok {
				return tool.Err(gerr)
			}
			return tool.Err(gwerr.Wrap(gwerr.KindInvalidInput, err, "invalid arguments"))
		}

		if err := checkRanges(ranges, &typed); err != nil {
			gerr, _ := gwerr.As(err)
			return tool.Err(gerr)
		}

		payload, err := fn(ctx, typed)
		if err != nil {
			if gerr, ok := gwerr.As(err); ok {
				return tool.Err(gerr)
			}
			return tool.Err(gwerr.Wrap(gwerr.KindInternal, err, "tool execution failed"))
		}
		return tool.Ok(payload)
	}

	return &tool.Tool{
		Name:              cfg.Name,
		Description:       cfg.Description,
		Category:          cfg.Category,
		InputSchema:       schema,
		Keywords:          cfg.Keywords,
		Patterns:          cfg.Patterns,
		Units:             cfg.Units,
		TerminalOnSuccess: cfg.TerminalOnSuccess,
		Priority:          cfg.Priority,
		Handler:           handler,
	}, nil
}
