package remote

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"nutrition-resolver/internal/core/food/dataset"
	"nutrition-resolver/internal/infrastructure/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func emptyProvider() *dataset.Provider {
	return dataset.NewProvider(config.DatasetConfig{})
}

func newTestClients(cfg config.RemoteConfig) *Clients {
	return NewClients(cfg, emptyProvider(), 0.55, 20)
}

func TestSearchOFF(t *testing.T) {
	t.Run("successful search is fuzzy filtered", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/cgi/search.pl", r.URL.Path)
			assert.Equal(t, "arroz", r.URL.Query().Get("search_terms"))
			assert.Equal(t, "1", r.URL.Query().Get("json"))
			w.Write([]byte(`{"products": [
				{"code": "1", "product_name": "Arroz blanco", "nutriments": {"energy-kcal_100g": 360}},
				{"code": "2", "product_name": "Chocolate amargo", "nutriments": {"energy-kcal_100g": 540}}
			]}`))
		}))
		defer srv.Close()

		c := newTestClients(config.RemoteConfig{OFFBaseURL: srv.URL})
		res := c.SearchOFF(context.Background(), "arroz")
		require.Len(t, res.Matches, 1)
		assert.Equal(t, "off_1", res.Matches[0].ID)
		assert.Equal(t, "Arroz blanco", res.Matches[0].Name)
		// The full fetch stays available even when the filter rejects records.
		assert.Len(t, res.Fetched, 2)
	})

	t.Run("server error falls back to offline dataset", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusInternalServerError)
		}))
		defer srv.Close()

		c := newTestClients(config.RemoteConfig{OFFBaseURL: srv.URL})
		assert.Empty(t, c.SearchOFF(context.Background(), "arroz").Matches)
	})

	t.Run("malformed payload falls back to offline dataset", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.Write([]byte("not json at all"))
		}))
		defer srv.Close()

		c := newTestClients(config.RemoteConfig{OFFBaseURL: srv.URL})
		assert.Empty(t, c.SearchOFF(context.Background(), "arroz").Matches)
	})

	t.Run("timeout falls back to offline dataset", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			time.Sleep(200 * time.Millisecond)
		}))
		defer srv.Close()

		c := newTestClients(config.RemoteConfig{OFFBaseURL: srv.URL, Timeout: 20 * time.Millisecond})
		start := time.Now()
		assert.Empty(t, c.SearchOFF(context.Background(), "arroz").Matches)
		assert.Less(t, time.Since(start), 150*time.Millisecond)
	})
}

func TestSearchFDC(t *testing.T) {
	t.Run("successful search", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "/fdc/v1/foods/search", r.URL.Path)
			assert.Equal(t, "test-key", r.URL.Query().Get("api_key"))
			assert.Equal(t, "pollo", r.URL.Query().Get("query"))
			w.Write([]byte(`{"foods": [
				{"fdcId": 1, "description": "Pechuga de pollo", "foodNutrients": [
					{"nutrientName": "Energy", "unitName": "kcal", "value": 165},
					{"nutrientName": "Protein", "unitName": "g", "value": 31}
				]}
			]}`))
		}))
		defer srv.Close()

		c := newTestClients(config.RemoteConfig{FDCBaseURL: srv.URL, FDCAPIKey: "test-key"})
		res := c.SearchFDC(context.Background(), "pollo", "")
		require.Len(t, res.Matches, 1)
		assert.Equal(t, "fdc_1", res.Matches[0].ID)
		assert.Equal(t, 165.0, res.Matches[0].Calories)
		assert.Len(t, res.Fetched, 1)
	})

	t.Run("per-call key overrides configured key", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			assert.Equal(t, "caller-key", r.URL.Query().Get("api_key"))
			w.Write([]byte(`{"foods": []}`))
		}))
		defer srv.Close()

		c := newTestClients(config.RemoteConfig{FDCBaseURL: srv.URL, FDCAPIKey: "config-key"})
		c.SearchFDC(context.Background(), "pollo", "caller-key")
	})

	t.Run("no key skips the network entirely", func(t *testing.T) {
		var hits atomic.Int32
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			hits.Add(1)
		}))
		defer srv.Close()

		c := newTestClients(config.RemoteConfig{FDCBaseURL: srv.URL})
		assert.Empty(t, c.SearchFDC(context.Background(), "pollo", "").Matches)
		assert.Zero(t, hits.Load())
	})

	t.Run("server error falls back to offline dataset", func(t *testing.T) {
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
		}))
		defer srv.Close()

		c := newTestClients(config.RemoteConfig{FDCBaseURL: srv.URL, FDCAPIKey: "bad-key"})
		assert.Empty(t, c.SearchFDC(context.Background(), "pollo", "").Matches)
	})
}
