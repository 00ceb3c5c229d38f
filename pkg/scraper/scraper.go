// Package scraper fetches and cleans a bounded set of URLs in parallel.
// Pages render in headless Chrome with static sub-resources blocked;
// cleaned text comes from readability with a plain-text fallback.
package scraper

import (
	"context"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"
)

const (
	// DefaultConcurrency caps simultaneous page renders.
	DefaultConcurrency = 5
	// DefaultPageTimeout is the hard per-page budget measured from
	// navigation start.
	DefaultPageTimeout = 20 * time.Second
)

// Result is the outcome for one URL. Error set means the content is
// unusable, but the entry still occupies its slot in the batch; per-page
// failures never cross the scraper boundary as errors.
type Result struct {
	URL     string `json:"url"`
	Title   string `json:"title"`
	Content string `json:"content"`
	Error   string `json:"error,omitempty"`
}

// RenderFunc renders one page and returns its title, raw HTML and
// visible body text. The default implementation drives headless Chrome;
// tests substitute their own.
type RenderFunc func(ctx context.Context, url string) (title, html, text string, err error)

// SetupFunc prepares shared state for one Scrape batch and returns the
// context every page render derives from. The default Chrome setup
// launches the browser here, once per batch, so process startup never
// counts against a page's timeout.
type SetupFunc func(ctx context.Context) (context.Context, context.CancelFunc)

// Scraper renders URLs under a fixed concurrency cap. The semaphore is
// the only state shared between invocations.
type Scraper struct {
	timeout time.Duration
	render  RenderFunc
	setup   SetupFunc
	sem     *semaphore.Weighted
}

// Params configures a Scraper. Zero values fall back to the defaults.
type Params struct {
	Concurrency int64
	PageTimeout time.Duration
	Render      RenderFunc
	Setup       SetupFunc
}

// New creates a Scraper.
func New(params Params) *Scraper {
	concurrency := params.Concurrency
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	timeout := params.PageTimeout
	if timeout <= 0 {
		timeout = DefaultPageTimeout
	}
	render := params.Render
	setup := params.Setup
	if render == nil {
		render = renderChrome
		if setup == nil {
			setup = newBrowserAllocator
		}
	}
	if setup == nil {
		setup = func(ctx context.Context) (context.Context, context.CancelFunc) {
			return context.WithCancel(ctx)
		}
	}
	return &Scraper{
		timeout: timeout,
		render:  render,
		setup:   setup,
		sem:     semaphore.NewWeighted(concurrency),
	}
}

// Scrape fetches every URL and returns one Result per input, in input
// order. The whole batch completes even when individual pages time out
// or fail to navigate.
func (s *Scraper) Scrape(ctx context.Context, urls []string) []Result {
	results := make([]Result, len(urls))

	batchCtx, cancel := s.setup(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for i, url := range urls {
		wg.Add(1)
		go func(idx int, pageURL string) {
			defer wg.Done()

			if err := s.sem.Acquire(batchCtx, 1); err != nil {
				results[idx] = Result{URL: pageURL, Error: err.Error()}
				return
			}
			defer s.sem.Release(1)

			results[idx] = s.scrapeOne(batchCtx, pageURL)
		}(i, url)
	}
	wg.Wait()

	return results
}

func (s *Scraper) scrapeOne(ctx context.Context, pageURL string) Result {
	pageCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	title, html, text, err := s.render(pageCtx, pageURL)
	if err != nil {
		return Result{URL: pageURL, Title: "Error", Error: err.Error()}
	}

	content := cleanHTML(html, pageURL)
	if content == "" {
		content = strings.TrimSpace(text)
	}

	return Result{URL: pageURL, Title: title, Content: content}
}
