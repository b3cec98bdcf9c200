// Package predictors adapts the six structured prediction backends (yield,
// pest-from-image, soil-moisture, crop-by-nutrients, crop-by-climate,
// soil-fertility) to the uniform tool.Tool contract via functiontool.New.
//
// None of these backends has a trained model available to this gateway;
// each prediction is a deterministic, documented placeholder formula over
// the declared inputs, in the same spirit as pkg/vector's hashEmbed stands
// in for a real embedding model. The placeholder is built so that swapping
// in a real model later only touches the function passed to
// functiontool.New, never the tool's declared schema, ranges, or
// vocabulary.
package predictors

import (
	"hash/fnv"
	"sort"
)

// Alternative is one ranked candidate alongside a prediction tool's primary
// output.
type Alternative struct {
	Label      string  `json:"label"`
	Value      float64 `json:"value,omitempty"`
	Confidence float64 `json:"confidence"`
}

// roundTo rounds v to the given number of decimal places (half up for
// non-negative v).
func roundTo(v float64, places int) float64 {
	mul := 1.0
	for i := 0; i < places; i++ {
		mul *= 10
	}
	return float64(int(v*mul+0.5)) / mul
}

// clamp01 bounds v to [0, 1].
func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// stableHash derives a deterministic, uniformly distributed score in
// [0, 1] from seed, used wherever a prediction needs to pick among a fixed
// vocabulary in the absence of a real model.
func stableHash(seed string) float64 {
	h := fnv.New32a()
	_, _ = h.Write([]byte(seed))
	return float64(h.Sum32()) / float64(^uint32(0))
}

// rankVocabulary scores every entry in vocabulary against seed (varying the
// hash input per entry so scores are independent), and returns them sorted
// by descending score as ranked Alternatives. The first entry is the
// primary prediction's label.
func rankVocabulary(seed string, vocabulary []string) []Alternative {
	scored := make([]Alternative, len(vocabulary))
	for i, label := range vocabulary {
		scored[i] = Alternative{Label: label, Confidence: stableHash(seed + "#" + label)}
	}
	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Confidence > scored[j].Confidence
	})
	normalizeConfidences(scored)
	return scored
}

// normalizeConfidences rescales a descending-sorted slice so confidences
// sum to 1 and the ranking order is preserved.
func normalizeConfidences(alts []Alternative) {
	var total float64
	for _, a := range alts {
		total += a.Confidence
	}
	if total == 0 {
		return
	}
	for i := range alts {
		alts[i].Confidence = roundTo(alts[i].Confidence/total, 4)
	}
}

// topN returns the first n alternatives, or all of them if fewer than n.
func topN(alts []Alternative, n int) []Alternative {
	if n <= 0 || n > len(alts) {
		return alts
	}
	return alts[:n]
}
