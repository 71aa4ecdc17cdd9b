package deps

import (
	"strings"

	"github.com/adrg/strutil"
	"github.com/adrg/strutil/metrics"
)

// FuzzyThreshold is the minimum similarity for accepting a fuzzy match,
// on a 0-1 scale.
const FuzzyThreshold = 0.6

// BestMatch returns the candidate most similar to query, if its similarity
// reaches the threshold. Comparison is case-insensitive. Pure function,
// no shared state.
func BestMatch(query string, candidates []string, threshold float64) (string, bool) {
	metric := metrics.NewSorensenDice()
	q := strings.ToLower(query)

	best := ""
	bestScore := 0.0
	for _, c := range candidates {
		score := strutil.Similarity(q, strings.ToLower(c), metric)
		if score > bestScore {
			best = c
			bestScore = score
		}
	}

	if bestScore >= threshold {
		return best, true
	}
	return "", false
}
