package fuzzy

import (
	"nutrition-resolver/internal/pkg/common"
)

// FilterRecords scores query against every record name and returns those at
// or above threshold, best first, capped at max. Used both to search the
// offline datasets and to keep noisy upstream matches out of remote results.
func FilterRecords(query string, records []common.FoodRecord, threshold float64, max int) []common.FoodRecord {
	if len(records) == 0 {
		return nil
	}
	names := make([]string, len(records))
	for i, rec := range records {
		names[i] = rec.Name
	}

	matches := RankNames(query, names, threshold)
	if max > 0 && len(matches) > max {
		matches = matches[:max]
	}

	out := make([]common.FoodRecord, 0, len(matches))
	for _, m := range matches {
		out = append(out, records[m.Index])
	}
	return out
}
