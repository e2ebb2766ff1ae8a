package tcgdex

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/pkmgraad/pipeline/internal/httpfetch"
	"github.com/pkmgraad/pipeline/internal/ratelimit"
)

func newTestAdapter(t *testing.T, mux *http.ServeMux) (*Adapter, func()) {
	t.Helper()
	srv := httptest.NewServer(mux)
	fetcher := httpfetch.New(httpfetch.Config{MaxRetries: 1, JSONBase: time.Millisecond})
	limiter := ratelimit.NewLimiter(1000, time.Millisecond)
	throttle := ratelimit.NewThrottle(1000, time.Millisecond)
	return New(fetcher, srv.URL, limiter, throttle), srv.Close
}

func TestAdapter_BuildMergesBothLanguages(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/en/sets", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"sv1","name":"Scarlet & Violet"}]}`))
	})
	mux.HandleFunc("/en/sets/sv1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":"sv1","name":"Scarlet & Violet","cards":[{"id":"sv1-1","name":"Sprigatito","localId":"1","rarity":"Common","dexId":[906]}]}}`))
	})
	mux.HandleFunc("/ja/sets", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"sv1","name":"Scarlet & Violet JP"}]}`))
	})
	mux.HandleFunc("/ja/sets/sv1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":"sv1","name":"Scarlet & Violet JP","cards":[{"id":"sv1-1-ja","name":"ニャオハ","localId":"1"}]}}`))
	})

	a, closeSrv := newTestAdapter(t, mux)
	defer closeSrv()

	result, err := a.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	rec, ok := result.Records["sv1|1"]
	if !ok {
		t.Fatalf("expected merged record for sv1|1, got %v", result.Records)
	}
	if rec.NameEN != "Sprigatito" {
		t.Errorf("expected NameEN Sprigatito, got %q", rec.NameEN)
	}
	if rec.NameJA == "" {
		t.Errorf("expected NameJA populated")
	}
	if rec.SetName != "Scarlet & Violet" {
		t.Errorf("expected SetName from the first-seen (en) set detail, got %q", rec.SetName)
	}
	if rec.DexID == nil || *rec.DexID != 906 {
		t.Errorf("expected DexID 906, got %v", rec.DexID)
	}
	if !result.JapaneseExclusiveSets["sv1"] {
		t.Errorf("expected sv1 marked Japanese-exclusive (observed under ja walk)")
	}
}

func TestAdapter_SkipsExcludedSubSeries(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/en/sets", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"pk-a1","name":"Pocket A1"},{"id":"sv1","name":"Scarlet & Violet"}]}`))
	})
	mux.HandleFunc("/en/sets/sv1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":"sv1","cards":[{"id":"sv1-1","name":"Sprigatito","localId":"1"}]}}`))
	})
	mux.HandleFunc("/en/sets/pk-a1", func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("excluded sub-series pk-a1 should never be fetched")
	})
	mux.HandleFunc("/ja/sets", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[]}`))
	})

	a, closeSrv := newTestAdapter(t, mux)
	defer closeSrv()

	result, err := a.Build()
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	if len(result.Records) != 1 {
		t.Errorf("expected exactly 1 record, got %d", len(result.Records))
	}
}

func TestAdapter_BuildLangRestrictsToOneLanguage(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/en/sets", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":[{"id":"sv1","name":"Scarlet & Violet"}]}`))
	})
	mux.HandleFunc("/en/sets/sv1", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"data":{"id":"sv1","cards":[{"id":"sv1-1","name":"Sprigatito","localId":"1"}]}}`))
	})
	mux.HandleFunc("/ja/sets", func(w http.ResponseWriter, r *http.Request) {
		t.Fatalf("BuildLang(en) should never touch the ja endpoint")
	})

	a, closeSrv := newTestAdapter(t, mux)
	defer closeSrv()

	result, err := a.BuildLang("en")
	if err != nil {
		t.Fatalf("BuildLang: %v", err)
	}
	if len(result.Records) != 1 {
		t.Errorf("expected exactly 1 record, got %d", len(result.Records))
	}
}
