// Package router implements the Query Router: pure, in-process scoring
// of every registered tool against a query, with no I/O.
package router

import (
	"regexp"
	"sort"
	"strings"

	"github.com/agriquery/gateway/pkg/tool"
)

// confidenceFloor is the minimum score a tool must reach to be chosen
// directly; below it, the Router falls back to the generation tool
// with confidence 0.0.
const confidenceFloor = 0.15

// patternWeight is the per-match contribution of a pattern hit, capped
// per tool at patternCap matches.
const (
	patternWeight = 0.3
	patternCap    = 2
)

// structuralWeight rewards a tool whose declared units appear next to a
// numeric token in the query.
const structuralWeight = 0.3

// Decision is the Router's output for one query.
type Decision struct {
	ChosenTool   *tool.Tool
	Confidence   float64
	Alternatives []Scored
	Rationale    string
}

// Scored pairs a tool with its normalized score.
type Scored struct {
	Tool  *tool.Tool
	Score float64
}

var numericWithUnit = regexp.MustCompile(`[-+]?\d+(\.\d+)?\s*(mm|cm|°c|°f|c|f|%|kg|ha|kg/ha|mm/day)`)

// Route scores every tool in tools against query and returns a
// Decision. If an attachment is present, the image-based predictor
// (named by imagePredictor) is forced regardless of text, per the
// structural-hint rule for attached images.
func Route(query string, tools []*tool.Tool, imagePredictor string, hasAttachment bool) Decision {
	if hasAttachment && imagePredictor != "" {
		for _, t := range tools {
			if t.Name == imagePredictor {
				return Decision{
					ChosenTool: t,
					Confidence: 1.0,
					Rationale:  "image attachment present, forcing image-based predictor",
				}
			}
		}
	}

	lowered := strings.ToLower(query)
	words := tokenize(lowered)
	wordSet := make(map[string]struct{}, len(words))
	for _, w := range words {
		wordSet[w] = struct{}{}
	}

	scored := make([]Scored, 0, len(tools))
	for _, t := range tools {
		scored = append(scored, Scored{Tool: t, Score: score(t, lowered, wordSet)})
	}

	sort.SliceStable(scored, func(i, j int) bool {
		if scored[i].Score != scored[j].Score {
			return scored[i].Score > scored[j].Score
		}
		return scored[i].Tool.Priority > scored[j].Tool.Priority
	})

	if len(scored) == 0 || scored[0].Score < confidenceFloor {
		return Decision{
			ChosenTool: generationTool(tools),
			Confidence: 0.0,
			Rationale:  "no tool scored above the confidence floor; falling back to generation",
		}
	}

	alts := scored[1:]
	if len(alts) > 2 {
		alts = alts[:2]
	}

	return Decision{
		ChosenTool:   scored[0].Tool,
		Confidence:   scored[0].Score,
		Alternatives: alts,
		Rationale:    "top-scoring tool by pattern/keyword/structural match",
	}
}

func generationTool(tools []*tool.Tool) *tool.Tool {
	for _, t := range tools {
		if t.Category == tool.CategoryGeneration {
			return t
		}
	}
	if len(tools) > 0 {
		return tools[0]
	}
	return nil
}

// score sums the three scoring components and normalizes to [0,1].
func score(t *tool.Tool, loweredQuery string, wordSet map[string]struct{}) float64 {
	s := patternScore(t, loweredQuery) + keywordScore(t, wordSet) + structuralScore(t, loweredQuery)
	const maxPossible = patternWeight*patternCap + 1.0 + structuralWeight
	normalized := s / maxPossible
	if normalized > 1 {
		normalized = 1
	}
	return normalized
}

func patternScore(t *tool.Tool, loweredQuery string) float64 {
	matches := 0
	for _, p := range t.Patterns {
		if p.MatchString(loweredQuery) {
			matches++
			if matches >= patternCap {
				break
			}
		}
	}
	return float64(matches) * patternWeight
}

func keywordScore(t *tool.Tool, wordSet map[string]struct{}) float64 {
	if len(t.Keywords) == 0 {
		return 0
	}
	hits := 0
	for _, kw := range t.Keywords {
		if _, ok := wordSet[strings.ToLower(kw)]; ok {
			hits++
		}
	}
	return float64(hits) / float64(len(t.Keywords))
}

func structuralScore(t *tool.Tool, loweredQuery string) float64 {
	if len(t.Units) == 0 {
		return 0
	}
	if !numericWithUnit.MatchString(loweredQuery) {
		return 0
	}
	for _, unit := range t.Units {
		if strings.Contains(loweredQuery, strings.ToLower(unit)) {
			return structuralWeight
		}
	}
	return 0
}

func tokenize(s string) []string {
	return strings.FieldsFunc(s, func(r rune) bool {
		if r >= 'a' && r <= 'z' {
			return false
		}
		if r >= '0' && r <= '9' {
			return false
		}
		return r != '.' && r != '-'
	})
}
