package repo

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/retailstack/sales-advisor/internal/utils"
)

const salesCSV = `Store,DayOfWeek,Date,Sales,Customers,Open,Promo,StateHoliday,SchoolHoliday
1,5,2015-07-31,5263,555,1,1,0,1
1,4,2015-07-30,5020,546,1,1,0,1
2,5,2015-07-31,6064,625,1,1,0,1
2,2,2015-06-02,0,0,0,0,a,0
`

const storesCSV = `Store,StoreType,Assortment,CompetitionDistance,CompetitionOpenSinceMonth,CompetitionOpenSinceYear,Promo2,Promo2SinceWeek,Promo2SinceYear,PromoInterval
1,c,a,1270,9,2008,0,,,
2,a,a,570,11,2007,1,13,2010,"Jan,Apr,Jul,Oct"
3,a,c,,,,0,,,
`

func writeCorpusFiles(t *testing.T) *CSVSource {
	t.Helper()
	dir := t.TempDir()
	salesPath := filepath.Join(dir, "train.csv")
	storesPath := filepath.Join(dir, "store.csv")
	if err := os.WriteFile(salesPath, []byte(salesCSV), 0o644); err != nil {
		t.Fatalf("write sales: %v", err)
	}
	if err := os.WriteFile(storesPath, []byte(storesCSV), 0o644); err != nil {
		t.Fatalf("write stores: %v", err)
	}
	return NewCSVSource(salesPath, storesPath)
}

func TestCSVFetchObservations(t *testing.T) {
	source := writeCorpusFiles(t)
	observations, err := source.FetchObservations(context.Background())
	if err != nil {
		t.Fatalf("fetch observations: %v", err)
	}
	if len(observations) != 4 {
		t.Fatalf("expected 4 observations, got %d", len(observations))
	}

	first := observations[0]
	if first.StoreID != 1 || first.Sales != 5263 || !first.Open || !first.Promo {
		t.Fatalf("unexpected first observation: %+v", first)
	}
	if first.DayOfWeek != 5 { // 2015-07-31 is a Friday
		t.Fatalf("expected derived day-of-week 5, got %d", first.DayOfWeek)
	}

	closed := observations[3]
	if closed.Open || closed.StateHoliday != "a" {
		t.Fatalf("unexpected closed-day observation: %+v", closed)
	}
}

func TestCSVFetchStoreProfiles(t *testing.T) {
	source := writeCorpusFiles(t)
	profiles, err := source.FetchStoreProfiles(context.Background())
	if err != nil {
		t.Fatalf("fetch profiles: %v", err)
	}
	if len(profiles) != 3 {
		t.Fatalf("expected 3 profiles, got %d", len(profiles))
	}
}

func TestCSVStoreProfileLookup(t *testing.T) {
	source := writeCorpusFiles(t)

	profile, err := source.StoreProfile(context.Background(), 2)
	if err != nil {
		t.Fatalf("store profile: %v", err)
	}
	if profile.StoreType != "a" || !profile.Promo2 || !profile.HasPromo2Since {
		t.Fatalf("unexpected profile: %+v", profile)
	}
	if profile.Promo2SinceYear != 2010 || profile.Promo2SinceWeek != 13 {
		t.Fatalf("unexpected promo2 anchors: %+v", profile)
	}
	if profile.PromoInterval != "Jan,Apr,Jul,Oct" {
		t.Fatalf("unexpected promo interval: %q", profile.PromoInterval)
	}

	// Store 1 has promo2 disabled with blank anchors.
	profile, err = source.StoreProfile(context.Background(), 1)
	if err != nil {
		t.Fatalf("store profile: %v", err)
	}
	if profile.Promo2 || profile.HasPromo2Since {
		t.Fatalf("expected promo2 never started: %+v", profile)
	}

	// Store 3 has every optional field blank.
	profile, err = source.StoreProfile(context.Background(), 3)
	if err != nil {
		t.Fatalf("store profile: %v", err)
	}
	if profile.HasCompetitionDistance || profile.HasCompetitionOpen {
		t.Fatalf("expected unknown competition data: %+v", profile)
	}

	if _, err := source.StoreProfile(context.Background(), 99); !errors.Is(err, utils.ErrStoreNotFound) {
		t.Fatalf("expected ErrStoreNotFound, got %v", err)
	}
}

func TestCSVMissingFile(t *testing.T) {
	source := NewCSVSource(filepath.Join(t.TempDir(), "absent.csv"), filepath.Join(t.TempDir(), "absent.csv"))
	if _, err := source.FetchObservations(context.Background()); err == nil {
		t.Fatalf("expected error for missing sales file")
	}
	if _, err := source.StoreProfile(context.Background(), 1); err == nil {
		t.Fatalf("expected error for missing stores file")
	}
}

func TestCSVMissingColumn(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "train.csv")
	if err := os.WriteFile(path, []byte("Store,Date\n1,2015-07-31\n"), 0o644); err != nil {
		t.Fatalf("write csv: %v", err)
	}
	source := NewCSVSource(path, path)
	if _, err := source.FetchObservations(context.Background()); err == nil {
		t.Fatalf("expected error for missing Sales column")
	}
}
