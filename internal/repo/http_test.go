package repo

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/retailstack/sales-advisor/internal/cache"
	"github.com/retailstack/sales-advisor/internal/utils"
)

type memoryCache struct {
	mu    sync.Mutex
	items map[string][]byte
	sets  int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{items: make(map[string][]byte)}
}

func (m *memoryCache) Get(ctx context.Context, key string) ([]byte, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	payload, ok := m.items[key]
	if !ok {
		return nil, cache.ErrCacheMiss
	}
	return payload, nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	m.sets++
	return nil
}

func (m *memoryCache) Del(ctx context.Context, key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}

func (m *memoryCache) Close() error { return nil }

func newDataServer(t *testing.T) (*httptest.Server, *int) {
	t.Helper()
	profileHits := 0
	mux := http.NewServeMux()
	mux.HandleFunc("/api/v1/data/sales", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"store_id":1,"date":"2015-07-31","sales":5263,"customers":555,"open":1,"promo":1,"state_holiday":"0","school_holiday":1},
			{"store_id":1,"date":"2015-07-30","sales":5020,"customers":546,"open":1,"promo":0,"state_holiday":"","school_holiday":0}
		]`))
	})
	mux.HandleFunc("/api/v1/data/stores", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`[
			{"store_id":1,"store_type":"c","assortment":"a","competition_distance":1270,"competition_open_since_year":2008,"competition_open_since_month":9,"promo2":0}
		]`))
	})
	mux.HandleFunc("/api/v1/data/stores/1", func(w http.ResponseWriter, r *http.Request) {
		profileHits++
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"store_id":1,"store_type":"c","assortment":"a","competition_distance":1270,"competition_open_since_year":2008,"competition_open_since_month":9,"promo2":0}`))
	})
	mux.HandleFunc("/api/v1/data/stores/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	server := httptest.NewServer(mux)
	t.Cleanup(server.Close)
	return server, &profileHits
}

func newTestClient(t *testing.T, baseURL string, provider cache.Provider) *SalesDataClient {
	t.Helper()
	return NewSalesDataClient(baseURL, "/api/v1/data/sales", "/api/v1/data/stores", 2*time.Second, provider, time.Minute, nil)
}

func TestHTTPFetchObservations(t *testing.T) {
	server, _ := newDataServer(t)
	client := newTestClient(t, server.URL, nil)

	observations, err := client.FetchObservations(context.Background())
	if err != nil {
		t.Fatalf("fetch observations: %v", err)
	}
	if len(observations) != 2 {
		t.Fatalf("expected 2 observations, got %d", len(observations))
	}
	if observations[0].Sales != 5263 || !observations[0].Open {
		t.Fatalf("unexpected observation: %+v", observations[0])
	}
	// An empty state-holiday code normalizes to the none code.
	if observations[1].StateHoliday != "0" {
		t.Fatalf("expected normalized state holiday, got %q", observations[1].StateHoliday)
	}
}

func TestHTTPFetchStoreProfiles(t *testing.T) {
	server, _ := newDataServer(t)
	client := newTestClient(t, server.URL, nil)

	profiles, err := client.FetchStoreProfiles(context.Background())
	if err != nil {
		t.Fatalf("fetch profiles: %v", err)
	}
	if len(profiles) != 1 {
		t.Fatalf("expected 1 profile, got %d", len(profiles))
	}
	if !profiles[0].HasCompetitionOpen || profiles[0].CompetitionOpenYear != 2008 {
		t.Fatalf("unexpected profile: %+v", profiles[0])
	}
}

func TestHTTPStoreProfileCaching(t *testing.T) {
	server, hits := newDataServer(t)
	provider := newMemoryCache()
	client := newTestClient(t, server.URL, provider)

	for i := 0; i < 3; i++ {
		profile, err := client.StoreProfile(context.Background(), 1)
		if err != nil {
			t.Fatalf("store profile: %v", err)
		}
		if profile.StoreType != "c" || !profile.HasCompetitionDistance {
			t.Fatalf("unexpected profile: %+v", profile)
		}
	}

	if *hits != 1 {
		t.Fatalf("expected a single upstream hit, got %d", *hits)
	}
	if provider.sets != 1 {
		t.Fatalf("expected one cache write, got %d", provider.sets)
	}
}

func TestHTTPStoreProfileNotFound(t *testing.T) {
	server, _ := newDataServer(t)
	client := newTestClient(t, server.URL, nil)

	_, err := client.StoreProfile(context.Background(), 42)
	if !errors.Is(err, utils.ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestHTTPMissingBaseURL(t *testing.T) {
	client := newTestClient(t, "", nil)
	if _, err := client.FetchObservations(context.Background()); err == nil {
		t.Fatalf("expected error without base URL")
	}
}
