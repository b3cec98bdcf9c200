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

package vector

import "fmt"

// ProviderConfig configures the embedded vector store.
type ProviderConfig struct {
	// PersistPath for file persistence (optional). If empty, vectors are
	// stored in memory only.
	PersistPath string `yaml:"persist_path,omitempty"`

	// Compress enables gzip compression for persistence.
	Compress bool `yaml:"compress,omitempty"`
}

// NewProvider builds the retrieval tool's vector Provider. cfg == nil
// yields a NilProvider (retrieval effectively disabled).
func NewProvider(cfg *ProviderConfig) (Provider, error) {
	if cfg == nil {
		return NilProvider{}, nil
	}
	p, err := NewChromemProvider(*cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create vector provider: %w", err)
	}
	return p, nil
}
