// Package synonym canonicalizes colloquial food names to dataset-recognized
// names. The alias table is data, not logic: an embedded default ships with
// the binary and a JSON file can replace it without code changes.
package synonym

import (
	_ "embed"
	"encoding/json"
	"os"

	"nutrition-resolver/internal/core/food/text"
	"nutrition-resolver/internal/pkg/common"

	"go.uber.org/zap"
)

//go:embed synonyms.json
var defaultTable []byte

// tableEntry is one row of the alias table. Rows are ordered; the first row
// matching a term wins.
type tableEntry struct {
	Canonical string   `json:"canonical"`
	Aliases   []string `json:"aliases"`
}

type row struct {
	canonical string
	folded    map[string]bool
}

// Resolver resolves colloquial terms to canonical food names.
type Resolver struct {
	rows []row
}

// NewResolver builds a resolver from the table at path, or from the embedded
// default table when path is empty or unreadable. A corrupt table degrades to
// pass-through resolution.
func NewResolver(path string) *Resolver {
	raw := defaultTable
	if path != "" {
		if data, err := os.ReadFile(path); err == nil {
			raw = data
		} else {
			common.LogWarn("synonym table not readable, using embedded default",
				zap.String("path", path),
				zap.Error(err),
			)
		}
	}

	var entries []tableEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		common.LogSourceDegraded("synonyms", "malformed table", err)
		return &Resolver{}
	}

	r := &Resolver{rows: make([]row, 0, len(entries))}
	for _, e := range entries {
		folded := map[string]bool{text.Fold(e.Canonical): true}
		for _, a := range e.Aliases {
			folded[text.Fold(a)] = true
		}
		r.rows = append(r.rows, row{canonical: e.Canonical, folded: folded})
	}
	return r
}

// ResolveToCanonical returns the canonical name for term. Comparison is
// case- and diacritic-insensitive exact match against the canonical name or
// any alias; unmatched terms pass through unchanged.
func (r *Resolver) ResolveToCanonical(term string) string {
	folded := text.Fold(term)
	if folded == "" {
		return term
	}
	for _, row := range r.rows {
		if row.folded[folded] {
			return row.canonical
		}
	}
	return term
}
