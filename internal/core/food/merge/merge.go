// Package merge groups near-identical records across sources, picks a
// representative per cluster by source priority, and gap-fills its missing
// nutrient fields from the other cluster members.
package merge

import (
	"sort"
	"strings"

	"nutrition-resolver/internal/core/food/text"
	"nutrition-resolver/internal/pkg/common"
)

// DefaultPriority is the fixed source order used when none is configured:
// government reference data first, curated local data second, branded goods
// third.
var DefaultPriority = []string{common.SourceFDC, common.SourceLocal, common.SourceOFF}

// Engine merges candidate records from all sources into one ranked set.
type Engine struct {
	rank                map[string]int
	similarityThreshold float64
	maxResults          int
}

// NewEngine creates a merge engine. priority lists sources best-first;
// unknown sources sort last. similarityThreshold is the token-overlap share
// of the smaller set above which two names describe the same entity.
func NewEngine(priority []string, similarityThreshold float64, maxResults int) *Engine {
	if len(priority) == 0 {
		priority = DefaultPriority
	}
	if similarityThreshold <= 0 {
		similarityThreshold = 0.7
	}
	if maxResults <= 0 {
		maxResults = 20
	}
	rank := make(map[string]int, len(priority))
	for i, src := range priority {
		rank[src] = i
	}
	return &Engine{
		rank:                rank,
		similarityThreshold: similarityThreshold,
		maxResults:          maxResults,
	}
}

type candidate struct {
	rec    common.FoodRecord
	name   string
	tokens map[string]bool
}

// Merge pools all source results in priority-then-discovery order, clusters
// same-entity records, gap-fills each cluster representative, and drops
// anything unrelated to the query.
func (e *Engine) Merge(query string, pools ...[]common.FoodRecord) []common.FoodRecord {
	var cands []candidate
	for _, pool := range pools {
		for _, rec := range pool {
			name := text.CleanName(rec.Name)
			cands = append(cands, candidate{
				rec:    rec,
				name:   name,
				tokens: text.TokenSet(text.SignificantTokens(name)),
			})
		}
	}
	if len(cands) == 0 {
		return nil
	}

	// Priority order decides which record's identity represents a cluster;
	// the stable sort keeps discovery order within a source.
	sort.SliceStable(cands, func(i, j int) bool {
		return e.sourceRank(cands[i].rec.Source) < e.sourceRank(cands[j].rec.Source)
	})

	var clusters [][]candidate
	for _, c := range cands {
		placed := false
		for i := range clusters {
			if e.sameEntity(c, clusters[i][0]) {
				clusters[i] = append(clusters[i], c)
				placed = true
				break
			}
		}
		if !placed {
			clusters = append(clusters, []candidate{c})
		}
	}

	queryTokens := text.TokenSet(text.SignificantTokens(query))
	nq := text.NormalizeQuery(query)

	var merged []common.FoodRecord
	for _, cluster := range clusters {
		rec := fillGaps(cluster)
		if !e.relevant(rec, queryTokens, nq) {
			continue
		}
		merged = append(merged, rec)
		if len(merged) >= e.maxResults {
			break
		}
	}
	return merged
}

func (e *Engine) sourceRank(source string) int {
	if r, ok := e.rank[source]; ok {
		return r
	}
	return len(e.rank)
}

// sameEntity reports whether two candidates describe the same food: equal
// normalized names, or token overlap covering at least the configured share
// of the smaller token set.
func (e *Engine) sameEntity(a, b candidate) bool {
	if a.name != "" && a.name == b.name {
		return true
	}
	if len(a.tokens) == 0 || len(b.tokens) == 0 {
		return false
	}
	overlap := 0
	for t := range a.tokens {
		if b.tokens[t] {
			overlap++
		}
	}
	smaller := len(a.tokens)
	if len(b.tokens) < smaller {
		smaller = len(b.tokens)
	}
	return float64(overlap) >= e.similarityThreshold*float64(smaller)
}

// relevant guards against the merge step resurrecting an off-topic cluster:
// the record must share a significant token with the query, or contain it as
// a substring (protects fuzzy floor matches on single-token queries).
func (e *Engine) relevant(rec common.FoodRecord, queryTokens map[string]bool, nq string) bool {
	if len(queryTokens) == 0 {
		return true
	}
	name := text.CleanName(rec.Name)
	for _, t := range text.SignificantTokens(name) {
		if queryTokens[t] {
			return true
		}
	}
	return nq != "" && (strings.Contains(name, nq) || strings.Contains(nq, name))
}

// fillGaps builds the merged record for a cluster: the best-priority member's
// identity, with each missing or zero nutrient field back-filled from the
// next-best member holding a non-zero value. Field by field, never whole
// record replacement.
func fillGaps(cluster []candidate) common.FoodRecord {
	rec := cluster[0].rec

	for _, other := range cluster[1:] {
		o := other.rec
		if rec.Calories == 0 {
			rec.Calories = o.Calories
		}
		if rec.Protein == 0 {
			rec.Protein = o.Protein
		}
		if rec.Carbs == 0 {
			rec.Carbs = o.Carbs
		}
		if rec.Fats == 0 {
			rec.Fats = o.Fats
		}
		if rec.Brand == "" {
			rec.Brand = o.Brand
		}
		if rec.ImageURL == "" {
			rec.ImageURL = o.ImageURL
		}
		rec.FatDetail = fillFatDetail(rec.FatDetail, o.FatDetail)
		rec.Micronutrients = fillMicronutrients(rec.Micronutrients, o.Micronutrients)
	}
	return rec
}

func fillFatDetail(dst, src *common.FatBreakdown) *common.FatBreakdown {
	if src == nil {
		return dst
	}
	if dst == nil {
		cp := *src
		return &cp
	}
	cp := *dst
	if cp.Saturated == 0 {
		cp.Saturated = src.Saturated
	}
	if cp.Mono == 0 {
		cp.Mono = src.Mono
	}
	if cp.Poly == 0 {
		cp.Poly = src.Poly
	}
	if cp.Trans == 0 {
		cp.Trans = src.Trans
	}
	return &cp
}

// fillMicronutrients adds the source's micronutrients absent by name from the
// destination list.
func fillMicronutrients(dst, src []common.Micronutrient) []common.Micronutrient {
	if len(src) == 0 {
		return dst
	}
	have := make(map[string]bool, len(dst))
	for _, m := range dst {
		have[strings.ToLower(m.Name)] = true
	}
	out := append([]common.Micronutrient(nil), dst...)
	for _, m := range src {
		if !have[strings.ToLower(m.Name)] {
			out = append(out, m)
			have[strings.ToLower(m.Name)] = true
		}
	}
	return out
}
