// SPDX-License-Identifier: AGPL-3.0
// Copyright 2025 Kadir Pekel
//
// Licensed under the GNU Affero General Public License v3.0 (AGPL-3.0) (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     https://www.gnu.org/licenses/agpl-3.0.en.html
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package vector

import (
	"context"
	"fmt"
	"hash/fnv"
	"log/slog"
	"math"
	"os"
	"strings"
	"sync"

	"github.com/philippgille/chromem-go"
)

// embeddingDimension is the size of the placeholder embedding vectors.
// Construction of a real embedding model is explicitly out of scope; this
// deterministic hashed bag-of-words embedding only needs to be stable and
// to put similar text near each other well enough to exercise the
// search(query, top_k) contract end to end.
const embeddingDimension = 256

// hashEmbed deterministically embeds text into a fixed-size vector by
// hashing each lowercased token into a dimension and accumulating a signed
// weight, then L2-normalizing. Two texts sharing vocabulary end up with
// higher cosine similarity; it is not a semantic embedding.
func hashEmbed(text string) []float32 {
	vec := make([]float32, embeddingDimension)
	for _, tok := range strings.Fields(strings.ToLower(text)) {
		h := fnv.New32a()
		h.Write([]byte(tok))
		sum := h.Sum32()
		idx := sum % embeddingDimension
		sign := float32(1)
		if (sum>>31)&1 == 1 {
			sign = -1
		}
		vec[idx] += sign
	}

	var norm float64
	for _, v := range vec {
		norm += float64(v) * float64(v)
	}
	norm = math.Sqrt(norm)
	if norm == 0 {
		return vec
	}
	for i := range vec {
		vec[i] = float32(float64(vec[i]) / norm)
	}
	return vec
}

// ChromemProvider implements Provider using chromem-go for embedded,
// pure-Go vector storage with optional file persistence.
type ChromemProvider struct {
	db          *chromem.DB
	persistPath string
	compress    bool

	mu          sync.RWMutex
	collections map[string]*chromem.Collection
}

// NewChromemProvider creates a chromem-backed vector provider.
func NewChromemProvider(cfg ProviderConfig) (*ChromemProvider, error) {
	var db *chromem.DB

	if cfg.PersistPath != "" {
		if err := os.MkdirAll(cfg.PersistPath, 0755); err != nil {
			return nil, fmt.Errorf("failed to create persist directory: %w", err)
		}

		dbPath := cfg.PersistPath + "/vectors.gob"
		if cfg.Compress {
			dbPath += ".gz"
		}

		if _, statErr := os.Stat(dbPath); statErr == nil {
			loaded, err := chromem.NewPersistentDB(dbPath, cfg.Compress)
			if err != nil {
				slog.Warn("failed to load existing vector database, starting fresh", "path", dbPath, "error", err)
				db = chromem.NewDB()
			} else {
				db = loaded
			}
		} else {
			db = chromem.NewDB()
		}
	} else {
		db = chromem.NewDB()
	}

	return &ChromemProvider{
		db:          db,
		persistPath: cfg.PersistPath,
		compress:    cfg.Compress,
		collections: make(map[string]*chromem.Collection),
	}, nil
}

func (p *ChromemProvider) embeddingFunc(_ context.Context, text string) ([]float32, error) {
	return hashEmbed(text), nil
}

func (p *ChromemProvider) getCollection(name string) (*chromem.Collection, error) {
	p.mu.RLock()
	if col, ok := p.collections[name]; ok {
		p.mu.RUnlock()
		return col, nil
	}
	p.mu.RUnlock()

	p.mu.Lock()
	defer p.mu.Unlock()
	if col, ok := p.collections[name]; ok {
		return col, nil
	}

	col, err := p.db.GetOrCreateCollection(name, nil, p.embeddingFunc)
	if err != nil {
		return nil, fmt.Errorf("failed to get/create collection %q: %w", name, err)
	}
	p.collections[name] = col
	return col, nil
}

// Upsert indexes text under id, embedding it with the placeholder hashed
// embedding function.
func (p *ChromemProvider) Upsert(ctx context.Context, collection, id, text string, metadata map[string]any) error {
	col, err := p.getCollection(collection)
	if err != nil {
		return err
	}

	strMetadata := make(map[string]string, len(metadata))
	for k, v := range metadata {
		strMetadata[k] = fmt.Sprint(v)
	}

	if err := col.AddDocument(ctx, chromem.Document{ID: id, Content: text, Metadata: strMetadata}); err != nil {
		return fmt.Errorf("failed to upsert document: %w", err)
	}

	if err := p.persist(); err != nil {
		slog.Warn("failed to persist after upsert", "error", err)
	}
	return nil
}

// Search returns the topK closest documents to queryText.
func (p *ChromemProvider) Search(ctx context.Context, collection, queryText string, topK int) ([]Result, error) {
	return p.SearchWithFilter(ctx, collection, queryText, topK, nil)
}

// SearchWithFilter combines similarity search with exact metadata filtering.
func (p *ChromemProvider) SearchWithFilter(ctx context.Context, collection, queryText string, topK int, filter map[string]any) ([]Result, error) {
	col, err := p.getCollection(collection)
	if err != nil {
		return nil, err
	}

	n := col.Count()
	if n == 0 {
		return nil, nil
	}
	if topK > n {
		topK = n
	}

	var whereFilter map[string]string
	if len(filter) > 0 {
		whereFilter = make(map[string]string, len(filter))
		for k, v := range filter {
			whereFilter[k] = fmt.Sprint(v)
		}
	}

	results, err := col.Query(ctx, queryText, topK, whereFilter, nil)
	if err != nil {
		return nil, fmt.Errorf("search failed: %w", err)
	}

	out := make([]Result, 0, len(results))
	for _, r := range results {
		metadata := make(map[string]any, len(r.Metadata))
		for k, v := range r.Metadata {
			metadata[k] = v
		}
		out = append(out, Result{ID: r.ID, Score: r.Similarity, Content: r.Content, Metadata: metadata})
	}
	return out, nil
}

// Delete removes a document by id.
func (p *ChromemProvider) Delete(ctx context.Context, collection, id string) error {
	col, err := p.getCollection(collection)
	if err != nil {
		return err
	}
	if err := col.Delete(ctx, nil, nil, id); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	if err := p.persist(); err != nil {
		slog.Warn("failed to persist after delete", "error", err)
	}
	return nil
}

// DeleteByFilter removes every document matching filter.
func (p *ChromemProvider) DeleteByFilter(ctx context.Context, collection string, filter map[string]any) error {
	col, err := p.getCollection(collection)
	if err != nil {
		return err
	}

	whereFilter := make(map[string]string, len(filter))
	for k, v := range filter {
		whereFilter[k] = fmt.Sprint(v)
	}

	if err := col.Delete(ctx, whereFilter, nil); err != nil {
		return fmt.Errorf("failed to delete by filter: %w", err)
	}
	if err := p.persist(); err != nil {
		slog.Warn("failed to persist after filtered delete", "error", err)
	}
	return nil
}

// CreateCollection ensures collection exists; chromem-go creates
// collections implicitly, so this just forces that creation.
func (p *ChromemProvider) CreateCollection(ctx context.Context, collection string) error {
	_, err := p.getCollection(collection)
	return err
}

// DeleteCollection removes a collection and all its documents.
func (p *ChromemProvider) DeleteCollection(ctx context.Context, collection string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if err := p.db.DeleteCollection(collection); err != nil {
		return fmt.Errorf("failed to delete collection: %w", err)
	}
	delete(p.collections, collection)

	if err := p.persist(); err != nil {
		slog.Warn("failed to persist after collection delete", "error", err)
	}
	return nil
}

// Name identifies this provider implementation.
func (p *ChromemProvider) Name() string { return "chromem" }

// Close persists the database, if persistence is configured.
func (p *ChromemProvider) Close() error {
	return p.persist()
}

func (p *ChromemProvider) persist() error {
	if p.persistPath == "" {
		return nil
	}
	dbPath := p.persistPath + "/vectors.gob"
	if p.compress {
		dbPath += ".gz"
	}
	//nolint:staticcheck // Export is the only persistence entry point chromem-go exposes.
	if err := p.db.Export(dbPath, p.compress, ""); err != nil {
		return fmt.Errorf("failed to persist database: %w", err)
	}
	return nil
}

var _ Provider = (*ChromemProvider)(nil)
