// Package fuzzy scores the similarity of a query against candidate food names
// using a coverage-weighted Jaccard over significant-token sets.
package fuzzy

import (
	"sort"
	"strings"

	"nutrition-resolver/internal/core/food/text"
)

const (
	// DefaultThreshold is the acceptance threshold for a fuzzy match.
	DefaultThreshold = 0.55

	// SubstringFloor is the minimum score when one normalized string contains
	// the other. Protects single-token queries like "pollo" against exact
	// substring false negatives.
	SubstringFloor = 0.85
)

// Score returns a similarity in [0,1] between query and candidateName. Both
// are cleaned (diacritics, parentheticals and cooking-state words stripped)
// and compared as significant-token sets:
//
//	score = 0.5*Jaccard + 0.5*(overlap/|querySet|)
//
// The coverage term rewards candidates containing every query token even when
// the candidate carries extra tokens.
func Score(query, candidateName string) float64 {
	nq := text.CleanName(query)
	nc := text.CleanName(candidateName)
	if nq == "" || nc == "" {
		return 0
	}

	score := 0.0
	qTokens := text.SignificantTokens(nq)
	cTokens := text.SignificantTokens(nc)
	if len(qTokens) > 0 && len(cTokens) > 0 {
		qSet := text.TokenSet(qTokens)
		cSet := text.TokenSet(cTokens)

		overlap := 0
		for t := range qSet {
			if cSet[t] {
				overlap++
			}
		}
		union := len(qSet) + len(cSet) - overlap

		jaccard := float64(overlap) / float64(union)
		coverage := float64(overlap) / float64(len(qSet))
		score = 0.5*jaccard + 0.5*coverage
	}

	if strings.Contains(nc, nq) || strings.Contains(nq, nc) {
		if score < SubstringFloor {
			score = SubstringFloor
		}
	}

	if score > 1 {
		score = 1
	}
	return score
}

// Match is a scored candidate position.
type Match struct {
	Index int
	Score float64
}

// RankNames scores query against every name and returns the candidates at or
// above threshold, best first. Ties keep input order.
func RankNames(query string, names []string, threshold float64) []Match {
	var matches []Match
	for i, name := range names {
		if s := Score(query, name); s >= threshold {
			matches = append(matches, Match{Index: i, Score: s})
		}
	}
	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Score > matches[j].Score
	})
	return matches
}
