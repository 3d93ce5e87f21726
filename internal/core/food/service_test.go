package food

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"nutrition-resolver/internal/core/food/cache"
	"nutrition-resolver/internal/infrastructure/config"
	"nutrition-resolver/internal/pkg/common"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testConfig() *config.Config {
	return &config.Config{
		Remote: config.RemoteConfig{
			Enabled:  false,
			Timeout:  time.Second,
			PageSize: 5,
		},
		Match: config.MatchConfig{
			FuzzyThreshold:      0.55,
			SweepThreshold:      0.3,
			SimilarityThreshold: 0.7,
			MaxResults:          20,
			MinResults:          5,
		},
		Cache: config.CacheConfig{
			Enabled:    true,
			Backend:    "memory",
			MaxEntries: 150,
			TTL:        24 * time.Hour,
			Namespace:  "foodsearch",
		},
	}
}

func newTestService(cfg *config.Config) (*Service, *cache.Manager) {
	var manager *cache.Manager
	if cfg.Cache.Enabled {
		manager = cache.NewManager(cfg.Cache, cache.NewMemoryStore())
	}
	return NewService(cfg, manager), manager
}

func TestSearchLocalExact(t *testing.T) {
	svc, _ := newTestService(testConfig())

	res := svc.Search(context.Background(), "arroz", SearchOptions{})
	require.NotEmpty(t, res.Results)
	assert.Equal(t, common.MatchExact, res.MatchType)
	for _, rec := range res.Results {
		assert.Equal(t, common.SourceLocal, rec.Source)
	}
}

func TestSearchSynonymResolution(t *testing.T) {
	svc, _ := newTestService(testConfig())

	// "banana" canonicalizes to "plátano" before matching.
	res := svc.Search(context.Background(), "banana", SearchOptions{})
	require.NotEmpty(t, res.Results)
	assert.Equal(t, "Plátano", res.Results[0].Name)
}

func TestSearchNoiseQuery(t *testing.T) {
	svc, manager := newTestService(testConfig())

	res := svc.Search(context.Background(), "de la y", SearchOptions{})
	assert.Empty(t, res.Results)
	assert.Equal(t, common.MatchExact, res.MatchType)

	// Noise queries never reach the cache.
	_, ok := manager.Get("de la y")
	assert.False(t, ok)
}

func TestSearchCacheRoundTrip(t *testing.T) {
	svc, manager := newTestService(testConfig())
	ctx := context.Background()

	first := svc.Search(ctx, "arroz", SearchOptions{})
	require.NotEmpty(t, first.Results)

	entry, ok := manager.Get("arroz")
	require.True(t, ok)
	assert.Equal(t, first.MatchType, entry.MatchType)
	assert.Len(t, entry.Results, len(first.Results))

	second := svc.Search(ctx, "Arroz", SearchOptions{})
	assert.Equal(t, first.MatchType, second.MatchType)
	assert.Len(t, second.Results, len(first.Results))
}

func TestSearchFuzzySweep(t *testing.T) {
	svc, _ := newTestService(testConfig())

	// Scores against curated names fall between the sweep threshold and the
	// fuzzy threshold, so only the last-resort sweep can answer.
	res := svc.Search(context.Background(), "arroz camarones", SearchOptions{})
	require.Len(t, res.Results, 1)
	assert.Equal(t, common.MatchFuzzy, res.MatchType)
}

func TestSearchSweepRecoversRemoteNearMiss(t *testing.T) {
	// One remote record scoring between the sweep threshold and the fuzzy
	// threshold: rejected by the per-source filter, but still the best answer
	// the last-resort sweep can give.
	offSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products": [{"code": "77", "product_name": "Tostadas de camaron mango", "nutriments": {"energy-kcal_100g": 210}}]}`))
	}))
	defer offSrv.Close()

	cfg := testConfig()
	cfg.Remote = config.RemoteConfig{
		Enabled:    true,
		Timeout:    time.Second,
		OFFBaseURL: offSrv.URL,
		PageSize:   5,
	}
	svc, _ := newTestService(cfg)

	res := svc.Search(context.Background(), "ceviche de camaron", SearchOptions{})
	require.Len(t, res.Results, 1)
	assert.Equal(t, common.MatchFuzzy, res.MatchType)
	assert.Equal(t, "off_77", res.Results[0].ID)
}

func TestSearchNothingFound(t *testing.T) {
	svc, _ := newTestService(testConfig())

	res := svc.Search(context.Background(), "sushi de anguila kabayaki", SearchOptions{})
	assert.Empty(t, res.Results)
}

func TestSearchRemoteFanOut(t *testing.T) {
	offSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"products": [{"code": "10", "product_name": "Granola con miel", "brands": "Quaker", "nutriments": {"energy-kcal_100g": 450, "proteins_100g": 10}}]}`))
	}))
	defer offSrv.Close()

	fdcSrv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"foods": [{"fdcId": 20, "description": "Granola", "foodNutrients": [
			{"nutrientName": "Energy", "unitName": "kcal", "value": 471},
			{"nutrientName": "Carbohydrate, by difference", "unitName": "g", "value": 64.5}
		]}]}`))
	}))
	defer fdcSrv.Close()

	cfg := testConfig()
	cfg.Remote = config.RemoteConfig{
		Enabled:    true,
		Timeout:    time.Second,
		OFFBaseURL: offSrv.URL,
		FDCBaseURL: fdcSrv.URL,
		FDCAPIKey:  "test-key",
		PageSize:   5,
	}
	svc, _ := newTestService(cfg)

	res := svc.Search(context.Background(), "granola", SearchOptions{})
	require.NotEmpty(t, res.Results)
	assert.Equal(t, common.MatchPartial, res.MatchType)

	// FDC outranks OFF, so the merged cluster carries the FDC identity with
	// OFF's fields filled into the gaps.
	rec := res.Results[0]
	assert.Equal(t, "fdc_20", rec.ID)
	assert.Equal(t, 471.0, rec.Calories)
	assert.Equal(t, "Quaker", rec.Brand)
	assert.Equal(t, 10.0, rec.Protein)
}

func TestSearchDisableRemote(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	cfg := testConfig()
	cfg.Remote = config.RemoteConfig{
		Enabled:    true,
		Timeout:    time.Second,
		OFFBaseURL: srv.URL,
		FDCBaseURL: srv.URL,
		FDCAPIKey:  "test-key",
		PageSize:   5,
	}
	svc, _ := newTestService(cfg)

	svc.Search(context.Background(), "granola", SearchOptions{DisableRemote: true})
	assert.Zero(t, hits.Load())
}

func TestSearchWithoutCache(t *testing.T) {
	cfg := testConfig()
	cfg.Cache.Enabled = false
	svc, manager := newTestService(cfg)
	require.Nil(t, manager)

	res := svc.Search(context.Background(), "arroz", SearchOptions{})
	assert.NotEmpty(t, res.Results)
}

func TestParseMealDescription(t *testing.T) {
	svc, _ := newTestService(testConfig())

	meal := svc.ParseMealDescription("2 huevos con frijoles")
	require.Len(t, meal.Items, 2)
	assert.Equal(t, "huevo", meal.Items[0].Tag)
	assert.Equal(t, 2.0, meal.Items[0].Quantity)
	assert.Equal(t, "frijoles", meal.Items[1].Tag)
}
