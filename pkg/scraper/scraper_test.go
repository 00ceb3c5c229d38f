package scraper

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestScrape_PreservesInputOrder(t *testing.T) {
	s := New(Params{
		Render: func(ctx context.Context, url string) (string, string, string, error) {
			return "title " + url, "", "body of " + url, nil
		},
	})

	urls := []string{"https://a.example", "https://b.example", "https://c.example"}
	results := s.Scrape(context.Background(), urls)

	if len(results) != len(urls) {
		t.Fatalf("expected %d results, got %d", len(urls), len(results))
	}
	for i, r := range results {
		if r.URL != urls[i] {
			t.Fatalf("result %d out of order: got %s want %s", i, r.URL, urls[i])
		}
		if r.Title == "" || r.Content == "" {
			t.Fatalf("result %d missing title/content: %+v", i, r)
		}
		if r.Error != "" {
			t.Fatalf("unexpected error for %s: %s", r.URL, r.Error)
		}
	}
}

func TestScrape_UnreachableHostDoesNotAbortBatch(t *testing.T) {
	s := New(Params{
		Render: func(ctx context.Context, url string) (string, string, string, error) {
			if strings.Contains(url, "down.example") {
				return "", "", "", errors.New("net::ERR_NAME_NOT_RESOLVED")
			}
			return "ok", "", "fine", nil
		},
	})

	urls := []string{"https://up.example", "https://down.example", "https://alsoup.example"}
	results := s.Scrape(context.Background(), urls)

	if results[1].Error == "" {
		t.Fatal("expected error set for unreachable host")
	}
	if results[1].Content != "" {
		t.Fatalf("expected empty content for failed page, got %q", results[1].Content)
	}
	for _, i := range []int{0, 2} {
		if results[i].Error != "" {
			t.Fatalf("sibling scrape %d aborted: %s", i, results[i].Error)
		}
		if results[i].Content != "fine" {
			t.Fatalf("sibling scrape %d lost content: %+v", i, results[i])
		}
	}
}

func TestScrape_ConcurrencyCapped(t *testing.T) {
	var inFlight, maxInFlight int64

	s := New(Params{
		Concurrency: 2,
		Render: func(ctx context.Context, url string) (string, string, string, error) {
			current := atomic.AddInt64(&inFlight, 1)
			for {
				observed := atomic.LoadInt64(&maxInFlight)
				if current <= observed || atomic.CompareAndSwapInt64(&maxInFlight, observed, current) {
					break
				}
			}
			time.Sleep(20 * time.Millisecond)
			atomic.AddInt64(&inFlight, -1)
			return "t", "", "c", nil
		},
	})

	urls := make([]string, 8)
	for i := range urls {
		urls[i] = fmt.Sprintf("https://page%d.example", i)
	}
	s.Scrape(context.Background(), urls)

	if got := atomic.LoadInt64(&maxInFlight); got > 2 {
		t.Fatalf("concurrency cap violated: %d pages in flight", got)
	}
}

func TestScrape_PerPageTimeout(t *testing.T) {
	s := New(Params{
		PageTimeout: 30 * time.Millisecond,
		Render: func(ctx context.Context, url string) (string, string, string, error) {
			select {
			case <-ctx.Done():
				return "", "", "", ctx.Err()
			case <-time.After(5 * time.Second):
				return "slow", "", "too late", nil
			}
		},
	})

	done := make(chan []Result, 1)
	go func() {
		done <- s.Scrape(context.Background(), []string{"https://slow.example"})
	}()

	select {
	case results := <-done:
		if results[0].Error == "" {
			t.Fatal("expected timeout error")
		}
	case <-time.After(2 * time.Second):
		t.Fatal("scrape did not respect per-page timeout")
	}
}

func TestScrape_RepeatedInvocationsIndependent(t *testing.T) {
	var calls int64
	s := New(Params{
		Render: func(ctx context.Context, url string) (string, string, string, error) {
			atomic.AddInt64(&calls, 1)
			return "t", "", "c", nil
		},
	})

	urls := []string{"https://a.example", "https://b.example"}

	var wg sync.WaitGroup
	for range 3 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results := s.Scrape(context.Background(), urls)
			if len(results) != 2 {
				t.Errorf("expected 2 results, got %d", len(results))
			}
		}()
	}
	wg.Wait()

	if atomic.LoadInt64(&calls) != 6 {
		t.Fatalf("expected 6 renders, got %d", calls)
	}
}

func TestScrape_SetupRunsOncePerBatch(t *testing.T) {
	type batchKey struct{}

	var setups int64
	s := New(Params{
		Setup: func(ctx context.Context) (context.Context, context.CancelFunc) {
			atomic.AddInt64(&setups, 1)
			return context.WithCancel(context.WithValue(ctx, batchKey{}, "shared"))
		},
		Render: func(ctx context.Context, url string) (string, string, string, error) {
			if v, _ := ctx.Value(batchKey{}).(string); v != "shared" {
				return "", "", "", errors.New("render context not derived from batch setup")
			}
			return "t", "", "c", nil
		},
	})

	urls := []string{"https://a.example", "https://b.example", "https://c.example"}
	results := s.Scrape(context.Background(), urls)

	if got := atomic.LoadInt64(&setups); got != 1 {
		t.Fatalf("expected one setup per batch, got %d", got)
	}
	for _, r := range results {
		if r.Error != "" {
			t.Fatalf("render for %s missed batch context: %s", r.URL, r.Error)
		}
	}

	s.Scrape(context.Background(), urls)
	if got := atomic.LoadInt64(&setups); got != 2 {
		t.Fatalf("expected second batch to run setup again, got %d", got)
	}
}

func TestScrape_FallsBackToVisibleText(t *testing.T) {
	s := New(Params{
		Render: func(ctx context.Context, url string) (string, string, string, error) {
			// HTML readability cannot salvage, but the body text is there.
			return "t", "<html><body><script>x</script></body></html>", "  visible text  ", nil
		},
	})

	results := s.Scrape(context.Background(), []string{"https://thin.example"})
	if results[0].Content != "visible text" {
		t.Fatalf("expected fallback to visible text, got %q", results[0].Content)
	}
}
