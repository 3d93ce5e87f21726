// Package remote implements the two remote nutrition API clients. Every call
// is timeout-bounded and falls back to the corresponding offline dataset; a
// remote failure is never surfaced to the caller.
package remote

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"nutrition-resolver/internal/core/food/dataset"
	"nutrition-resolver/internal/core/food/fuzzy"
	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Result is one remote provider's answer. Matches cleared the fuzzy
// acceptance threshold; Fetched is every adapted record the provider
// returned, kept so the caller's last-resort sweep can rescore near misses
// at its lower bar. Offline fallbacks leave Fetched empty since the caller
// already sees those pools through the dataset provider.
type Result struct {
	Matches []common.FoodRecord
	Fetched []common.FoodRecord
}

// Clients bundles the Open Food Facts and FoodData Central search clients
// with their shared offline fallbacks.
type Clients struct {
	cfg            config.RemoteConfig
	provider       *dataset.Provider
	off            *resty.Client
	fdc            *resty.Client
	fuzzyThreshold float64
	maxResults     int
}

// NewClients creates the remote clients over the given offline provider.
func NewClients(cfg config.RemoteConfig, provider *dataset.Provider, fuzzyThreshold float64, maxResults int) *Clients {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 4 * time.Second
	}
	if cfg.PageSize <= 0 {
		cfg.PageSize = 25
	}
	if fuzzyThreshold <= 0 {
		fuzzyThreshold = fuzzy.DefaultThreshold
	}
	if maxResults <= 0 {
		maxResults = 20
	}

	off := resty.New().
		SetBaseURL(cfg.OFFBaseURL).
		SetHeader("User-Agent", "nutrition-resolver/1.0")

	fdc := resty.New().
		SetBaseURL(cfg.FDCBaseURL)

	return &Clients{
		cfg:            cfg,
		provider:       provider,
		off:            off,
		fdc:            fdc,
		fuzzyThreshold: fuzzyThreshold,
		maxResults:     maxResults,
	}
}

// SearchOFF queries the Open Food Facts search endpoint. On timeout, non-2xx
// or parse failure it falls back to the bundled branded-goods dataset.
func (c *Clients) SearchOFF(ctx context.Context, query string) Result {
	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.off.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"search_terms":  query,
			"search_simple": "1",
			"action":        "process",
			"json":          "1",
			"page_size":     itoa(c.cfg.PageSize),
		}).
		Get("/cgi/search.pl")

	if err != nil {
		common.LogSourceDegraded(common.SourceOFF, "remote request failed", err)
		return c.offlineOFF(query)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		common.LogSourceDegraded(common.SourceOFF, "remote status "+resp.Status(), nil)
		return c.offlineOFF(query)
	}

	records := dataset.ParseOFFProducts(resp.Body())
	if records == nil {
		common.LogSourceDegraded(common.SourceOFF, "remote payload malformed", nil)
		return c.offlineOFF(query)
	}

	// A noisy upstream match must not silently enter the result set.
	filtered := fuzzy.FilterRecords(query, records, c.fuzzyThreshold, c.maxResults)
	common.LogDebug("remote search completed",
		zap.String("source", common.SourceOFF),
		zap.Int("fetched", len(records)),
		zap.Int("accepted", len(filtered)),
	)
	return Result{Matches: filtered, Fetched: records}
}

// fdcSearchResponse is the FoodData Central search API response envelope.
type fdcSearchResponse struct {
	Foods []dataset.FDCSearchFood `json:"foods"`
}

// SearchFDC queries the FoodData Central search endpoint. apiKey overrides
// the configured key for this call; with no key at all the network is skipped
// entirely and the bundled foundation-foods dataset answers.
func (c *Clients) SearchFDC(ctx context.Context, query, apiKey string) Result {
	key := apiKey
	if key == "" {
		key = c.cfg.FDCAPIKey
	}
	if key == "" {
		common.LogDebug("fdc api key absent, using offline dataset")
		return c.offlineFDC(query)
	}

	ctx, cancel := context.WithTimeout(ctx, c.cfg.Timeout)
	defer cancel()

	resp, err := c.fdc.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_key":  key,
			"query":    query,
			"pageSize": itoa(c.cfg.PageSize),
		}).
		Get("/fdc/v1/foods/search")

	if err != nil {
		common.LogSourceDegraded(common.SourceFDC, "remote request failed", err)
		return c.offlineFDC(query)
	}
	if resp.StatusCode() < 200 || resp.StatusCode() >= 300 {
		common.LogSourceDegraded(common.SourceFDC, "remote status "+resp.Status(), nil)
		return c.offlineFDC(query)
	}

	var payload fdcSearchResponse
	if err := json.Unmarshal(resp.Body(), &payload); err != nil {
		common.LogSourceDegraded(common.SourceFDC, "remote payload malformed", err)
		return c.offlineFDC(query)
	}

	records := make([]common.FoodRecord, 0, len(payload.Foods))
	for _, f := range payload.Foods {
		if rec, ok := dataset.AdaptFDCSearchFood(f); ok {
			records = append(records, rec)
		}
	}

	filtered := fuzzy.FilterRecords(query, records, c.fuzzyThreshold, c.maxResults)
	common.LogDebug("remote search completed",
		zap.String("source", common.SourceFDC),
		zap.Int("fetched", len(records)),
		zap.Int("accepted", len(filtered)),
	)
	return Result{Matches: filtered, Fetched: records}
}

func (c *Clients) offlineOFF(query string) Result {
	return Result{Matches: fuzzy.FilterRecords(query, c.provider.OFF(), c.fuzzyThreshold, c.maxResults)}
}

func (c *Clients) offlineFDC(query string) Result {
	return Result{Matches: fuzzy.FilterRecords(query, c.provider.FDC(), c.fuzzyThreshold, c.maxResults)}
}

func itoa(n int) string {
	return strconv.Itoa(n)
}
