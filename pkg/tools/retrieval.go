// Package tools adapts the gateway's backend subservices (vector search,
// external search, translation, generation, weather) to the uniform
// tool.Tool contract, each built with functiontool.New.
package tools

import (
	"context"
	"regexp"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/tool/functiontool"
	"github.com/agriquery/gateway/pkg/vector"
)

const defaultCollection = "agriquery"

// RetrievalArgs is the declared input for the retrieval tool: a free-text
// query and a bounded result count, per spec §4.1.
type RetrievalArgs struct {
	Query string `json:"query" jsonschema:"required,description=Free-text search query"`
	TopK  int    `json:"top_k,omitempty" jsonschema:"minimum=1,maximum=20,description=Number of documents to return (default 5)"`
}

// NewRetrievalTool builds the retrieval tool over provider, per spec
// §4.1/§4.2: raw retrieval is not terminal on its own — a retrieval
// observation must still be followed by generation, so the agent always
// synthesizes an answer from the returned documents.
func NewRetrievalTool(provider vector.Provider) (*tool.Tool, error) {
	return functiontool.New(functiontool.Config{
		Name:        "retrieve_documents",
		Description: "Searches the indexed agricultural knowledge base for documents relevant to a query.",
		Category:    tool.CategoryRetrieval,
		Keywords:    []string{"what", "explain", "definition", "information", "about"},
		Patterns:    []*regexp.Regexp{regexp.MustCompile(`\bwhat\s+is\b`), regexp.MustCompile(`\bexplain\b`)},
		Priority:    40,

		TerminalOnSuccess: false,
	}, func(ctx context.Context, args RetrievalArgs) (map[string]any, error) {
		topK := args.TopK
		if topK == 0 {
			topK = 5
		}

		results, err := provider.Search(ctx, defaultCollection, args.Query, topK)
		if err != nil {
			return nil, gwerr.Wrap(gwerr.KindBackendUnavailable, err, "vector search failed")
		}

		docs := make([]map[string]any, len(results))
		for i, r := range results {
			docs[i] = map[string]any{
				"id":       r.ID,
				"content":  r.Content,
				"metadata": r.Metadata,
				"score":    r.Score,
			}
		}

		return map[string]any{
			"documents":      docs,
			"needs_followup": true,
		}, nil
	})
}
