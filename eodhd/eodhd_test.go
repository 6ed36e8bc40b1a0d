package eodhd

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/etnz/montecarlo/date"
)

func TestTicker(t *testing.T) {
	if got := Ticker("VTI"); got != "VTI.US" {
		t.Errorf("Ticker(VTI) = %q, want VTI.US", got)
	}
	if got := Ticker("NVD.F"); got != "NVD.F" {
		t.Errorf("Ticker(NVD.F) = %q, want NVD.F", got)
	}
}

func TestMonthlyPrices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/api/eod/MCD.US" {
			http.NotFound(w, r)
			return
		}
		if r.URL.Query().Get("api_token") != DemoKey {
			t.Errorf("api_token = %q, want %q", r.URL.Query().Get("api_token"), DemoKey)
		}
		if r.URL.Query().Get("from") != "2024-01-01" {
			t.Errorf("from = %q, want 2024-01-01", r.URL.Query().Get("from"))
		}
		io.WriteString(w, `[
			{"date":"2024-01-30","open":290.1,"close":291.0,"adjusted_close":287.12,"volume":10},
			{"date":"2024-01-31","open":291.0,"close":292.5,"adjusted_close":288.6,"volume":10},
			{"date":"2024-02-29","open":292.0,"close":294.0,"adjusted_close":290.07,"volume":10}
		]`)
	}))
	defer srv.Close()

	c := &Client{BaseURL: srv.URL}
	h, err := c.MonthlyPrices(context.Background(), "MCD", date.New(2024, 1, 1), date.Date{})
	if err != nil {
		t.Fatalf("MonthlyPrices() unexpected error = %v", err)
	}
	if h.Len() != 2 {
		t.Fatalf("MonthlyPrices() got %d months, want 2", h.Len())
	}
	if v, ok := h.Get(date.New(2024, 1, 31)); !ok || v != 288.6 {
		t.Errorf("January = %v, %v want 288.6", v, ok)
	}

	if _, err := c.MonthlyPrices(context.Background(), "NOPE", date.Date{}, date.Date{}); err == nil {
		t.Error("MonthlyPrices() expected an error for an unknown ticker")
	}
}

func TestMonthlyPrices_Live(t *testing.T) {
	// This is an integration test that hits the live EODHD server with the demo key.
	if testing.Short() {
		t.Skip("skipping integration test in short mode.")
	}
	c := new(Client)
	h, err := c.MonthlyPrices(context.Background(), "MCD", date.Today().AddMonths(-6), date.Today())
	if err != nil {
		t.Fatalf("MonthlyPrices() unexpected error = %v", err)
	}
	if h.Len() == 0 {
		t.Error("MonthlyPrices() no prices returned")
	}
}
