package cli

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/KenThuan129/startup-simulation-game/internal/sim"
)

func TestClientSendsTokenAndDecodes(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer tok" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid token"}`))
			return
		}
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/v1/companies/c1":
			_, _ = w.Write([]byte(`{"id":"c1","name":"Acme","day":4}`))
		case "/v1/companies/c1/anomalies":
			if r.URL.Query().Get("limit") != "2" {
				t.Errorf("got limit %q want 2", r.URL.Query().Get("limit"))
			}
			_, _ = w.Write([]byte(`{"anomalies":[{"company_id":"c1","anomaly_id":"a","day":3}]}`))
		default:
			w.WriteHeader(http.StatusNotFound)
			_, _ = w.Write([]byte(`{"error":"not found"}`))
		}
	}))
	defer ts.Close()

	c := NewClient(ts.URL+"/", "tok")
	company, err := c.Company(context.Background(), "c1")
	if err != nil {
		t.Fatalf("company: %v", err)
	}
	if company.ID != "c1" || company.Day != 4 {
		t.Fatalf("unexpected company %+v", company)
	}

	entries, err := c.Anomalies(context.Background(), "c1", 2)
	if err != nil {
		t.Fatalf("anomalies: %v", err)
	}
	if len(entries) != 1 || entries[0].AnomalyID != "a" {
		t.Fatalf("unexpected anomalies %+v", entries)
	}

	_, err = c.Loans(context.Background(), "missing")
	var apiErr *APIError
	if !errors.As(err, &apiErr) || apiErr.Status != http.StatusNotFound || apiErr.Message != "not found" {
		t.Fatalf("got %v want 404 not found", err)
	}

	c.Token = "bad"
	if _, err := c.Simulate(context.Background(), sim.SimulationConfig{Seed: 1}); !errors.As(err, &apiErr) || apiErr.Status != http.StatusUnauthorized {
		t.Fatalf("got %v want 401", err)
	}
}

func TestSessionRoundTrip(t *testing.T) {
	t.Setenv("SIMCTL_HOME", t.TempDir())

	if _, err := LoadSession(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("got %v want ErrNoSession", err)
	}
	if err := SaveSession(Session{BaseURL: "http://localhost:8080/", AdminToken: " secret "}); err != nil {
		t.Fatalf("save: %v", err)
	}
	got, err := LoadSession()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got.BaseURL != "http://localhost:8080" || got.AdminToken != "secret" || got.SavedAt.IsZero() {
		t.Fatalf("got %+v", got)
	}
	if err := ClearSession(); err != nil {
		t.Fatalf("clear: %v", err)
	}
	if err := ClearSession(); err != nil {
		t.Fatalf("second clear: %v", err)
	}
	if _, err := LoadSession(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("got %v want ErrNoSession after clear", err)
	}
}

func TestSaveSessionValidates(t *testing.T) {
	t.Setenv("SIMCTL_HOME", t.TempDir())

	cases := []struct {
		name    string
		session Session
		noToken bool
	}{
		{"empty token", Session{BaseURL: "http://localhost:8080"}, true},
		{"no scheme", Session{BaseURL: "localhost:8080", AdminToken: "x"}, false},
		{"ftp scheme", Session{BaseURL: "ftp://example.com", AdminToken: "x"}, false},
		{"no host", Session{BaseURL: "http://", AdminToken: "x"}, false},
	}
	for _, tc := range cases {
		err := SaveSession(tc.session)
		if err == nil {
			t.Fatalf("%s: expected error", tc.name)
		}
		if got := errors.Is(err, ErrNoSession); got != tc.noToken {
			t.Fatalf("%s: errors.Is(ErrNoSession) got %v want %v", tc.name, got, tc.noToken)
		}
	}
	if _, err := LoadSession(); !errors.Is(err, ErrNoSession) {
		t.Fatalf("rejected sessions must not be written, got %v", err)
	}
}
