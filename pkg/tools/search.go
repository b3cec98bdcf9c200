package tools

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"regexp"
	"strings"

	"github.com/agriquery/gateway/pkg/gwerr"
	"github.com/agriquery/gateway/pkg/httpclient"
	"github.com/agriquery/gateway/pkg/tool"
	"github.com/agriquery/gateway/pkg/tool/functiontool"
)

// SearchArgs is the declared input for the external-search tool, per spec
// §4.1.
type SearchArgs struct {
	Query           string   `json:"query" jsonschema:"required,description=Search query"`
	Depth           string   `json:"depth,omitempty" jsonschema:"enum=basic|advanced,description=Search depth (default basic)"`
	MaxResults      int      `json:"max_results,omitempty" jsonschema:"minimum=1,maximum=10,description=Maximum results to return (default 5)"`
	IncludeDomains  []string `json:"include_domains,omitempty" jsonschema:"description=Restrict results to these domains"`
}

// externalSearchRequest/Response mirror the upstream external-search
// backend's wire shape.
type externalSearchRequest struct {
	Query          string   `json:"query"`
	Depth          string   `json:"depth"`
	MaxResults     int      `json:"max_results"`
	IncludeDomains []string `json:"include_domains,omitempty"`
}

type externalSearchResult struct {
	Title         string  `json:"title"`
	URL           string  `json:"url"`
	Content       string  `json:"content"`
	Score         float64 `json:"score"`
	PublishedDate string  `json:"published_date,omitempty"`
}

type externalSearchResponse struct {
	Results []externalSearchResult `json:"results"`
	Answer  string                 `json:"answer,omitempty"`
}

// NewExternalSearchTool builds the external-search tool, which proxies a
// single upstream request to endpoint.
func NewExternalSearchTool(endpoint string) (*tool.Tool, error) {
	client := httpclient.New(httpclient.WithMaxRetries(2))

	return functiontool.New(functiontool.Config{
		Name:        "external_search",
		Description: "Searches the public web for current information not present in the knowledge base.",
		Category:    tool.CategoryExternalSearch,
		Keywords:    []string{"search", "latest", "news", "current", "look up", "find"},
		Patterns:    []*regexp.Regexp{regexp.MustCompile(`\blook\s*up\b`), regexp.MustCompile(`\bsearch\s+for\b`)},
		Priority:    30,

		TerminalOnSuccess: false,
	}, func(ctx context.Context, args SearchArgs) (map[string]any, error) {
		if endpoint == "" {
			return nil, gwerr.New(gwerr.KindBackendUnavailable, "external search endpoint not configured")
		}

		depth := args.Depth
		if depth == "" {
			depth = "basic"
		}
		maxResults := args.MaxResults
		if maxResults == 0 {
			maxResults = 5
		}

		body, err := json.Marshal(externalSearchRequest{
			Query:          args.Query,
			Depth:          depth,
			MaxResults:     maxResults,
			IncludeDomains: args.IncludeDomains,
		})
		if err != nil {
			return nil, gwerr.Wrap(gwerr.KindInternal, err, "failed to encode search request")
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(string(body)))
		if err != nil {
			return nil, gwerr.Wrap(gwerr.KindInternal, err, "failed to build search request")
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := client.Do(req)
		if err != nil {
			return nil, gwerr.Wrap(gwerr.KindBackendUnavailable, err, "external search unavailable")
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			return nil, gwerr.Newf(gwerr.KindBackendUnavailable, "external search returned status %d", resp.StatusCode)
		}

		var parsed externalSearchResponse
		if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
			return nil, gwerr.Wrap(gwerr.KindBackendRejected, err, "failed to parse search response")
		}

		results := make([]map[string]any, len(parsed.Results))
		for i, r := range parsed.Results {
			entry := map[string]any{
				"title":   r.Title,
				"url":     r.URL,
				"content": r.Content,
				"score":   r.Score,
			}
			if r.PublishedDate != "" {
				entry["published_date"] = r.PublishedDate
			}
			results[i] = entry
		}

		payload := map[string]any{
			"results":        results,
			"needs_followup": true,
		}
		if parsed.Answer != "" {
			payload["answer"] = parsed.Answer
			payload["content"] = parsed.Answer
		} else {
			payload["content"] = fmt.Sprintf("%d web results found for %q.", len(results), args.Query)
		}
		return payload, nil
	})
}
