package search

import (
	"sort"

	"github.com/askweb/askweb/internal/domain"
)

// Merge combines two result sets, deduplicating by URL. When the same URL
// appears in both sets the higher-score entry survives. The output is sorted
// by descending score (stable for ties).
func Merge(a, b []domain.SearchResult) []domain.SearchResult {
	best := make(map[string]domain.SearchResult, len(a)+len(b))
	order := make([]string, 0, len(a)+len(b))

	for _, r := range append(append([]domain.SearchResult{}, a...), b...) {
		existing, seen := best[r.URL]
		if !seen {
			best[r.URL] = r
			order = append(order, r.URL)
			continue
		}
		if r.Score > existing.Score {
			best[r.URL] = r
		}
	}

	merged := make([]domain.SearchResult, 0, len(order))
	for _, url := range order {
		merged = append(merged, best[url])
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].Score > merged[j].Score
	})
	return merged
}
