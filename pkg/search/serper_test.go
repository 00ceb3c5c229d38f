package search

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSearchParsesOrganicHits(t *testing.T) {
	var gotKey string
	var gotBody map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotKey = r.Header.Get("X-API-KEY")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("failed to decode request body: %v", err)
		}
		_, _ = w.Write([]byte(`{
			"organic": [
				{"title": "First", "link": "https://a.example/1", "snippet": "one"},
				{"title": "Second", "link": "https://b.example/2", "snippet": "two"}
			]
		}`))
	}))
	defer srv.Close()

	client := NewClient(Params{APIKey: "test-key", BaseURL: srv.URL})

	hits, err := client.Search(context.Background(), "quantum computing", 5)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}

	if gotKey != "test-key" {
		t.Errorf("expected api key header, got %q", gotKey)
	}
	if gotBody["q"] != "quantum computing" {
		t.Errorf("expected query in body, got %v", gotBody["q"])
	}
	if gotBody["num"] != float64(5) {
		t.Errorf("expected num 5 in body, got %v", gotBody["num"])
	}

	if len(hits) != 2 {
		t.Fatalf("expected 2 hits, got %d", len(hits))
	}
	if hits[0].Link != "https://a.example/1" {
		t.Errorf("unexpected first link: %s", hits[0].Link)
	}
	if hits[1].Title != "Second" {
		t.Errorf("unexpected second title: %s", hits[1].Title)
	}
}

func TestSearchNonOKStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))
	defer srv.Close()

	client := NewClient(Params{APIKey: "test-key", BaseURL: srv.URL})

	if _, err := client.Search(context.Background(), "anything", 3); err == nil {
		t.Fatal("expected error for non-200 response")
	}
}

func TestSearchMissingAPIKey(t *testing.T) {
	client := NewClient(Params{})

	if _, err := client.Search(context.Background(), "anything", 3); err == nil {
		t.Fatal("expected error when api key is missing")
	}
}

func TestSearchEmptyOrganic(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"organic": []}`))
	}))
	defer srv.Close()

	client := NewClient(Params{APIKey: "test-key", BaseURL: srv.URL})

	hits, err := client.Search(context.Background(), "obscure", 3)
	if err != nil {
		t.Fatalf("search failed: %v", err)
	}
	if len(hits) != 0 {
		t.Fatalf("expected no hits, got %d", len(hits))
	}
}
