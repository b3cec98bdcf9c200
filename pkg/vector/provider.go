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

// Package vector implements the retrieval tool's search(query, top_k)
// contract over an embedded vector store. Construction of the underlying
// vector store and the embedding model that feeds it are out of scope for
// this gateway; only the query-time contract matters here.
package vector

import "context"

// Result is one hit from a similarity search.
type Result struct {
	ID       string
	Score    float32
	Content  string
	Metadata map[string]any
}

// Provider is the minimal contract the retrieval tool needs: text in,
// scored documents out.
type Provider interface {
	// Upsert indexes text under id in collection, embedding it internally.
	Upsert(ctx context.Context, collection, id, text string, metadata map[string]any) error

	// Search returns the topK closest documents to queryText in collection.
	Search(ctx context.Context, collection, queryText string, topK int) ([]Result, error)

	// SearchWithFilter is Search additionally constrained to documents
	// whose metadata matches filter exactly.
	SearchWithFilter(ctx context.Context, collection, queryText string, topK int, filter map[string]any) ([]Result, error)

	// Delete removes a single document by id.
	Delete(ctx context.Context, collection, id string) error

	// DeleteByFilter removes every document matching filter.
	DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error

	// CreateCollection ensures collection exists.
	CreateCollection(ctx context.Context, collection string) error

	// DeleteCollection removes collection and all its documents.
	DeleteCollection(ctx context.Context, collection string) error

	// Name identifies the provider implementation.
	Name() string

	// Close releases any resources (and persists, for backends that do).
	Close() error
}

// NilProvider is a Provider that returns no results for any query, used
// when retrieval is configured off.
type NilProvider struct{}

func (NilProvider) Upsert(context.Context, string, string, string, map[string]any) error { return nil }
func (NilProvider) Search(context.Context, string, string, int) ([]Result, error)        { return nil, nil }
func (NilProvider) SearchWithFilter(context.Context, string, string, int, map[string]any) ([]Result, error) {
	return nil, nil
}
func (NilProvider) Delete(context.Context, string, string) error             { return nil }
func (NilProvider) DeleteByFilter(context.Context, string, map[string]any) error { return nil }
func (NilProvider) CreateCollection(context.Context, string) error           { return nil }
func (NilProvider) DeleteCollection(context.Context, string) error           { return nil }
func (NilProvider) Name() string                                             { return "nil" }
func (NilProvider) Close() error                                             { return nil }

var _ Provider = NilProvider{}
