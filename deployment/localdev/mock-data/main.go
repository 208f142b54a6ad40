// Command mock-data serves a tiny in-memory sales-data API for local
// development, matching the endpoints the advisor's HTTP source expects.
package main

import (
	"encoding/json"
	"log"
	"net/http"
	"strconv"
	"strings"
)

type observation struct {
	StoreID       int     `json:"store_id"`
	Date          string  `json:"date"`
	Sales         float64 `json:"sales"`
	Customers     int     `json:"customers"`
	Open          int     `json:"open"`
	Promo         int     `json:"promo"`
	StateHoliday  string  `json:"state_holiday"`
	SchoolHoliday int     `json:"school_holiday"`
}

type storeProfile struct {
	StoreID              int      `json:"store_id"`
	StoreType            string   `json:"store_type"`
	Assortment           string   `json:"assortment"`
	CompetitionDistance  *float64 `json:"competition_distance"`
	CompetitionOpenYear  *int     `json:"competition_open_since_year"`
	CompetitionOpenMonth *int     `json:"competition_open_since_month"`
	Promo2               int      `json:"promo2"`
	Promo2SinceYear      *int     `json:"promo2_since_year"`
	Promo2SinceWeek      *int     `json:"promo2_since_week"`
	PromoInterval        string   `json:"promo_interval"`
}

func ptrF(v float64) *float64 { return &v }
func ptrI(v int) *int         { return &v }

var stores = []storeProfile{
	{
		StoreID:              1,
		StoreType:            "c",
		Assortment:           "a",
		CompetitionDistance:  ptrF(1270),
		CompetitionOpenYear:  ptrI(2008),
		CompetitionOpenMonth: ptrI(9),
	},
	{
		StoreID:              2,
		StoreType:            "a",
		Assortment:           "a",
		CompetitionDistance:  ptrF(570),
		CompetitionOpenYear:  ptrI(2007),
		CompetitionOpenMonth: ptrI(11),
		Promo2:               1,
		Promo2SinceYear:      ptrI(2010),
		Promo2SinceWeek:      ptrI(13),
		PromoInterval:        "Jan,Apr,Jul,Oct",
	},
	{
		StoreID:    3,
		StoreType:  "d",
		Assortment: "c",
	},
}

func observations() []observation {
	days := []string{
		"2015-07-27", "2015-07-28", "2015-07-29", "2015-07-30",
		"2015-07-31", "2015-08-01", "2015-08-03", "2015-08-04",
		"2015-08-05", "2015-08-06",
	}
	out := make([]observation, 0, len(stores)*len(days))
	for _, store := range stores {
		base := 4000 + float64(store.StoreID)*800
		for i, day := range days {
			promo := 0
			if i%2 == 0 {
				promo = 1
			}
			out = append(out, observation{
				StoreID:      store.StoreID,
				Date:         day,
				Sales:        base + float64(i)*150,
				Customers:    400 + i*20,
				Open:         1,
				Promo:        promo,
				StateHoliday: "0",
			})
		}
		// One closed day per store, dropped by corpus validation downstream.
		out = append(out, observation{StoreID: store.StoreID, Date: "2015-08-02", StateHoliday: "0"})
	}
	return out
}

func main() {
	mux := http.NewServeMux()
	mux.HandleFunc("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte("ok"))
	})

	mux.HandleFunc("/api/v1/data/sales", func(w http.ResponseWriter, r *http.Request) {
		if !enforceGet(w, r) {
			return
		}
		writeJSON(w, observations())
	})

	mux.HandleFunc("/api/v1/data/stores", func(w http.ResponseWriter, r *http.Request) {
		if !enforceGet(w, r) {
			return
		}
		writeJSON(w, stores)
	})

	mux.HandleFunc("/api/v1/data/stores/", func(w http.ResponseWriter, r *http.Request) {
		if !enforceGet(w, r) {
			return
		}
		raw := strings.TrimPrefix(r.URL.Path, "/api/v1/data/stores/")
		id, err := strconv.Atoi(raw)
		if err != nil {
			http.Error(w, "invalid store id", http.StatusBadRequest)
			return
		}
		for _, store := range stores {
			if store.StoreID == id {
				writeJSON(w, store)
				return
			}
		}
		http.Error(w, "store not found", http.StatusNotFound)
	})

	addr := ":9100"
	log.Printf("mock sales-data listening on %s", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		log.Fatalf("mock sales-data exited: %v", err)
	}
}

func enforceGet(w http.ResponseWriter, r *http.Request) bool {
	if r.Method != http.MethodGet {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, payload any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf("encode response: %v", err)
	}
}
