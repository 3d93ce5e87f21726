// Package food wires the parser, matchers, dataset loaders, remote clients,
// merge engine and result cache into the search pipeline. Search and
// ParseMealDescription always return well-formed results, never errors:
// degraded sources are logged and skipped.
package food

import (
	"context"
	"path/filepath"

	"nutrition-resolver/internal/core/food/cache"
	"nutrition-resolver/internal/core/food/dataset"
	"nutrition-resolver/internal/core/food/fuzzy"
	"nutrition-resolver/internal/core/food/local"
	"nutrition-resolver/internal/core/food/merge"
	"nutrition-resolver/internal/core/food/parser"
	"nutrition-resolver/internal/core/food/remote"
	"nutrition-resolver/internal/core/food/synonym"
	"nutrition-resolver/internal/core/food/text"
	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Service is the nutrition resolution engine.
type Service struct {
	cfg      *config.Config
	synonyms *synonym.Resolver
	parser   *parser.Parser
	matcher  *local.Matcher
	provider *dataset.Provider
	remotes  *remote.Clients
	engine   *merge.Engine
	cache    *cache.Manager
}

// SearchOptions carries per-call context from the caller.
type SearchOptions struct {
	// APIKey overrides the configured FoodData Central key for this call.
	APIKey string
	// DisableRemote forces offline resolution, e.g. when the host knows the
	// network is down.
	DisableRemote bool
}

// NewService builds the engine. cacheManager may be nil (cache disabled).
func NewService(cfg *config.Config, cacheManager *cache.Manager) *Service {
	synonyms := synonym.NewResolver(datasetPath(cfg.Dataset, cfg.Dataset.SynonymFile))
	provider := dataset.NewProvider(cfg.Dataset)

	return &Service{
		cfg:      cfg,
		synonyms: synonyms,
		parser:   parser.New(synonyms),
		matcher: local.NewMatcher(
			datasetPath(cfg.Dataset, cfg.Dataset.CuratedFile),
			cfg.Match.FuzzyThreshold,
			cfg.Match.MaxResults,
		),
		provider: provider,
		remotes:  remote.NewClients(cfg.Remote, provider, cfg.Match.FuzzyThreshold, cfg.Match.MaxResults),
		engine:   merge.NewEngine(cfg.Match.SourcePriority, cfg.Match.SimilarityThreshold, cfg.Match.MaxResults),
		cache:    cacheManager,
	}
}

// Provider exposes the offline dataset provider, mainly for lifecycle resets.
func (s *Service) Provider() *dataset.Provider {
	return s.provider
}

// ParseMealDescription splits a free-text meal description into items.
func (s *Service) ParseMealDescription(description string) common.ParsedMeal {
	return s.parser.Parse(description)
}

// Search resolves a query into a ranked, merged answer set.
//
// Pipeline: normalize -> significant-token gate -> cache -> local matcher ->
// offline datasets when thin -> remote APIs when still thin -> merge ->
// last-resort fuzzy sweep -> cache write.
func (s *Service) Search(ctx context.Context, query string, opts SearchOptions) common.SearchResult {
	canonical := s.synonyms.ResolveToCanonical(query)
	key := text.NormalizeQuery(canonical)

	// Noise queries ("de", "y") resolve to nothing searchable: empty result,
	// no cache write, no network.
	if len(text.SignificantTokens(key)) == 0 {
		return common.SearchResult{MatchType: common.MatchExact}
	}

	if s.cache != nil {
		if entry, ok := s.cache.Get(key); ok {
			return common.SearchResult{Results: entry.Results, MatchType: entry.MatchType}
		}
	}

	localRes := s.matcher.Search(canonical)
	results := localRes.Results
	matchType := localRes.MatchType

	var remoteFDC, remoteOFF remote.Result
	if len(results) < s.cfg.Match.MinResults {
		offlineFDC := fuzzy.FilterRecords(canonical, s.provider.FDC(), s.cfg.Match.FuzzyThreshold, s.cfg.Match.MaxResults)
		offlineOFF := fuzzy.FilterRecords(canonical, s.provider.OFF(), s.cfg.Match.FuzzyThreshold, s.cfg.Match.MaxResults)
		results = s.engine.Merge(canonical, localRes.Results, offlineFDC, offlineOFF)

		if len(results) < s.cfg.Match.MinResults && s.remoteAvailable(opts) {
			remoteFDC, remoteOFF = s.fetchRemote(ctx, canonical, opts.APIKey)
			results = s.engine.Merge(canonical, localRes.Results, offlineFDC, offlineOFF, remoteFDC.Matches, remoteOFF.Matches)
		}

		if len(localRes.Results) == 0 && len(results) > 0 {
			matchType = common.MatchPartial
		}
	}

	// Last resort: one best-scoring record from everything gathered so far,
	// raw remote fetches included, accepted at a lower bar than the normal
	// fuzzy threshold.
	if len(results) == 0 {
		if best, ok := s.fuzzySweep(canonical, remoteFDC.Fetched, remoteOFF.Fetched); ok {
			results = []common.FoodRecord{best}
			matchType = common.MatchFuzzy
		}
	}

	out := common.SearchResult{Results: results, MatchType: matchType}
	if s.cache != nil {
		s.cache.Put(ctx, key, cache.Entry{Results: out.Results, MatchType: out.MatchType})
	}

	common.LogDebug("search resolved",
		zap.String("query", query),
		zap.String("match_type", string(out.MatchType)),
		zap.Int("results", len(out.Results)),
	)
	return out
}

func (s *Service) remoteAvailable(opts SearchOptions) bool {
	return s.cfg.Remote.Enabled && !opts.DisableRemote
}

// fetchRemote runs both remote clients concurrently. Each is independently
// timeout-bounded, so one slow provider cannot stall the other; each degrades
// to its offline counterpart internally.
func (s *Service) fetchRemote(ctx context.Context, query, apiKey string) (remote.Result, remote.Result) {
	var remoteFDC, remoteOFF remote.Result

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		remoteFDC = s.remotes.SearchFDC(gctx, query, apiKey)
		return nil
	})
	g.Go(func() error {
		remoteOFF = s.remotes.SearchOFF(gctx, query)
		return nil
	})
	_ = g.Wait()

	return remoteFDC, remoteOFF
}

// fuzzySweep scores the query against every record gathered from the curated
// and offline datasets plus any extra pools, typically the unfiltered remote
// fetches, and returns the single best candidate when it clears the sweep
// threshold.
func (s *Service) fuzzySweep(query string, extra ...[]common.FoodRecord) (common.FoodRecord, bool) {
	var best common.FoodRecord
	bestScore := 0.0

	pools := [][]common.FoodRecord{
		s.matcher.Records(),
		s.provider.FDC(),
		s.provider.OFF(),
	}
	pools = append(pools, extra...)

	for _, pool := range pools {
		for _, rec := range pool {
			if score := fuzzy.Score(query, rec.Name); score > bestScore {
				best = rec
				bestScore = score
			}
		}
	}

	if bestScore > s.cfg.Match.SweepThreshold {
		return best, true
	}
	return common.FoodRecord{}, false
}

// datasetPath resolves an optional override file within the dataset
// directory. Empty means "use the embedded default".
func datasetPath(cfg config.DatasetConfig, file string) string {
	if file == "" {
		return ""
	}
	return filepath.Join(cfg.Dir, file)
}
