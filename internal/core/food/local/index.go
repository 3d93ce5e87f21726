// Package local implements exact and substring matching against the curated
// dataset through an inverted token index. The index is built once, lazily,
// and never mutated afterwards, so it is safe to share across calls.
package local

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"
	"sync"

	"nutrition-resolver/internal/core/food/fuzzy"
	"nutrition-resolver/internal/core/food/text"
	"nutrition-resolver/internal/pkg/common"

	"go.uber.org/zap"
)

//go:embed curated_foods.json
var defaultDataset []byte

// Matcher searches the curated dataset.
type Matcher struct {
	path           string
	fuzzyThreshold float64
	maxResults     int

	once    sync.Once
	records []common.FoodRecord
	// normalized name and brand per record, precomputed at build time
	names  []string
	brands []string
	index  map[string][]int
}

// NewMatcher creates a matcher. path optionally overrides the embedded
// curated dataset; loading is deferred until the first search.
func NewMatcher(path string, fuzzyThreshold float64, maxResults int) *Matcher {
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = fuzzy.DefaultThreshold
	}
	if maxResults <= 0 {
		maxResults = 20
	}
	return &Matcher{
		path:           path,
		fuzzyThreshold: fuzzyThreshold,
		maxResults:     maxResults,
	}
}

// build loads the curated dataset and constructs the inverted index. A
// missing or corrupt override file degrades to the embedded dataset; a
// corrupt embedded dataset degrades to an empty matcher.
func (m *Matcher) build() {
	raw := defaultDataset
	if m.path != "" {
		if data, err := os.ReadFile(m.path); err == nil {
			raw = data
		} else {
			common.LogWarn("curated dataset not readable, using embedded default",
				zap.String("path", m.path),
				zap.Error(err),
			)
		}
	}

	var records []common.FoodRecord
	if err := json.Unmarshal(raw, &records); err != nil {
		common.LogSourceDegraded(common.SourceLocal, "malformed curated dataset", err)
		m.index = map[string][]int{}
		return
	}

	m.records = make([]common.FoodRecord, 0, len(records))
	m.index = make(map[string][]int)
	for i, rec := range records {
		if rec.ID == "" {
			rec.ID = fmt.Sprintf("local_%d", i+1)
		}
		rec.Source = common.SourceLocal
		idx := len(m.records)
		m.records = append(m.records, rec)
		m.names = append(m.names, text.NormalizeQuery(rec.Name))
		m.brands = append(m.brands, text.NormalizeQuery(rec.Brand))

		seen := map[string]bool{}
		for _, tok := range text.SignificantTokens(rec.Name + " " + rec.Brand) {
			if seen[tok] {
				continue
			}
			seen[tok] = true
			m.index[tok] = append(m.index[tok], idx)
		}
	}

	common.LogInfo("curated dataset indexed",
		zap.Int("records", len(m.records)),
		zap.Int("tokens", len(m.index)),
	)
}

// Records returns every curated record. Used by the engine's final fuzzy
// sweep. The returned slice is shared and must not be mutated.
func (m *Matcher) Records() []common.FoodRecord {
	m.once.Do(m.build)
	return m.records
}

// Search matches query against the curated dataset. Candidates are gathered
// from the token index, filtered by substring containment of every query
// token against the normalized name or brand, and capped. When substring
// filtering leaves nothing, the whole dataset is rescored fuzzily.
func (m *Matcher) Search(query string) common.SearchResult {
	m.once.Do(m.build)

	nq := text.NormalizeQuery(query)
	tokens := text.SignificantTokens(nq)
	if len(tokens) == 0 {
		// Noise query ("de", "y"): nothing searchable.
		return common.SearchResult{MatchType: common.MatchExact}
	}

	// Union of postings per token, preserving dataset order.
	candidateSet := map[int]bool{}
	var candidates []int
	for _, tok := range tokens {
		for _, idx := range m.index[tok] {
			if !candidateSet[idx] {
				candidateSet[idx] = true
				candidates = append(candidates, idx)
			}
		}
	}

	var results []common.FoodRecord
	exact := false
	for _, idx := range candidates {
		if !m.containsAllTokens(idx, tokens) {
			continue
		}
		if m.names[idx] == nq || strings.Contains(m.names[idx], nq) || strings.Contains(nq, m.names[idx]) {
			exact = true
		}
		results = append(results, m.records[idx])
		if len(results) >= m.maxResults {
			break
		}
	}

	if len(results) > 0 {
		matchType := common.MatchPartial
		if exact {
			matchType = common.MatchExact
		}
		return common.SearchResult{Results: results, MatchType: matchType}
	}

	// Near-miss fallback: score the entire curated dataset.
	for _, match := range fuzzy.RankNames(query, m.names, m.fuzzyThreshold) {
		results = append(results, m.records[match.Index])
		if len(results) >= m.maxResults {
			break
		}
	}
	return common.SearchResult{Results: results, MatchType: common.MatchFuzzy}
}

// containsAllTokens reports whether every query token appears as a substring
// of the record's normalized name or brand.
func (m *Matcher) containsAllTokens(idx int, tokens []string) bool {
	haystack := m.names[idx] + " " + m.brands[idx]
	for _, tok := range tokens {
		if !strings.Contains(haystack, tok) {
			return false
		}
	}
	return true
}
