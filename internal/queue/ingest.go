package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"

	"github.com/topiclens/backend/internal/db"
	"github.com/topiclens/backend/internal/util"
	"github.com/topiclens/backend/pkg/graph"
	"github.com/topiclens/backend/pkg/logger"
	"github.com/topiclens/backend/pkg/scraper"
	"github.com/topiclens/backend/pkg/search"
	pgxstore "github.com/topiclens/backend/pkg/store/pgx"
)

// searchBuffer is how many extra hits we request over num_results so
// blocklist filtering still leaves enough URLs.
const searchBuffer = 3

// snippetMaxChars caps how much cleaned text is embedded per page.
const snippetMaxChars = 8000

// blockedDomains are dropped from search results before scraping.
var blockedDomains = []string{"wikipedia.org"}

// IngestMsg is the queue message for one ingestion job.
type IngestMsg struct {
	JobID      string `json:"job_id"`
	Query      string `json:"query"`
	NumResults int    `json:"num_results"`
}

// IngestSummary is the result JSON stored on a completed job.
type IngestSummary struct {
	Query        string `json:"query"`
	ScrapedCount int    `json:"scraped_count"`
	GraphNodes   int64  `json:"graph_nodes"`
	Message      string `json:"message"`
}

// JobTracker is the slice of the job store the pipeline needs.
type JobTracker interface {
	SetStatus(ctx context.Context, publicID, status, progress string) error
	Complete(ctx context.Context, publicID string, result []byte) error
	Fail(ctx context.Context, publicID, reason string) error
}

// Searcher finds candidate URLs for a query.
type Searcher interface {
	Search(ctx context.Context, query string, numResults int) ([]search.Hit, error)
}

// PageScraper renders and cleans a batch of URLs.
type PageScraper interface {
	Scrape(ctx context.Context, urls []string) []scraper.Result
}

// FragmentExtractor turns cleaned text into a graph fragment.
type FragmentExtractor interface {
	Extract(ctx context.Context, sourceURL, text string) (graph.Fragment, error)
}

// GraphWriter commits fragments to the graph store.
type GraphWriter interface {
	Upsert(ctx context.Context, fragment graph.Fragment) error
	NodeCount(ctx context.Context) (int64, error)
}

// SnippetWriter stores embedded snippets for chat retrieval.
type SnippetWriter interface {
	Upsert(ctx context.Context, snippet pgxstore.Snippet, embedding []float32) error
}

// Embedder produces the snippet embedding.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, input string) ([]float32, error)
}

// Pipeline runs one ingestion job end to end: search, scrape, extract,
// commit. Job state is persisted at every transition so the status
// endpoint can answer at any time.
type Pipeline struct {
	Jobs      JobTracker
	Search    Searcher
	Scraper   PageScraper
	Extractor FragmentExtractor
	Graph     GraphWriter
	Snippets  SnippetWriter
	Embedder  Embedder
}

// ProcessIngestMessage decodes and runs one queued job. The returned
// error signals an infrastructure failure worth a redelivery; domain
// failures mark the job failed and ack the message.
func (p *Pipeline) ProcessIngestMessage(ctx context.Context, msg string) error {
	var data IngestMsg
	if err := json.Unmarshal([]byte(msg), &data); err != nil {
		logger.Error("[Ingest] Dropping malformed message", "err", err)
		return nil
	}
	if data.JobID == "" {
		logger.Error("[Ingest] Dropping message without job id")
		return nil
	}

	if err := p.run(ctx, data); err != nil {
		logger.Error("[Ingest] Job failed", "job_id", data.JobID, "err", err)
		if failErr := p.Jobs.Fail(ctx, data.JobID, err.Error()); failErr != nil {
			return fmt.Errorf("failed to mark job %s failed: %w", data.JobID, failErr)
		}
	}
	return nil
}

func (p *Pipeline) run(ctx context.Context, msg IngestMsg) error {
	jobID := msg.JobID

	// searching
	if err := p.Jobs.SetStatus(ctx, jobID, db.JobStatusSearching, "searching the web"); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	hits, err := p.Search.Search(ctx, msg.Query, msg.NumResults+searchBuffer)
	if err != nil {
		return fmt.Errorf("search failed: %s", err)
	}

	urls := filterURLs(hits, msg.NumResults)
	if len(urls) == 0 {
		return fmt.Errorf("no valid URLs")
	}

	// scraping
	progress := fmt.Sprintf("scraping %d pages", len(urls))
	if err := p.Jobs.SetStatus(ctx, jobID, db.JobStatusScraping, progress); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	results := p.Scraper.Scrape(ctx, urls)

	// extracting
	if err := p.Jobs.SetStatus(ctx, jobID, db.JobStatusExtracting, fmt.Sprintf("processing 0/%d", len(results))); err != nil {
		return fmt.Errorf("failed to update job status: %w", err)
	}

	scraped := 0
	for i, result := range results {
		if result.Error != "" {
			logger.Warn("[Ingest] Skipping failed scrape", "job_id", jobID, "url", result.URL, "err", result.Error)
		} else {
			scraped++
			if err := p.processResult(ctx, result); err != nil {
				logger.Warn("[Ingest] Skipping page", "job_id", jobID, "url", result.URL, "err", err)
			}
		}

		progress := fmt.Sprintf("processing %d/%d (%s)", i+1, len(results), result.URL)
		if err := p.Jobs.SetStatus(ctx, jobID, db.JobStatusExtracting, progress); err != nil {
			return fmt.Errorf("failed to update job status: %w", err)
		}
	}

	summary := IngestSummary{
		Query:        msg.Query,
		ScrapedCount: scraped,
		Message:      fmt.Sprintf("ingested %d of %d pages", scraped, len(results)),
	}
	if count, err := p.Graph.NodeCount(ctx); err != nil {
		logger.Warn("[Ingest] Failed to count graph nodes", "job_id", jobID, "err", err)
	} else {
		summary.GraphNodes = count
	}
	raw, err := json.Marshal(summary)
	if err != nil {
		return fmt.Errorf("failed to encode summary: %s", err)
	}
	if err := p.Jobs.Complete(ctx, jobID, raw); err != nil {
		return fmt.Errorf("failed to complete job: %w", err)
	}

	logger.Info("[Ingest] Job completed", "job_id", jobID, "scraped", scraped, "total", len(results))
	return nil
}

func (p *Pipeline) processResult(ctx context.Context, result scraper.Result) error {
	fragment, err := p.Extractor.Extract(ctx, result.URL, result.Content)
	if err != nil {
		return err
	}

	if err := p.Graph.Upsert(ctx, fragment); err != nil {
		return fmt.Errorf("failed to commit fragment: %w", err)
	}

	content := util.TruncateUTF8(result.Content, snippetMaxChars)
	if strings.TrimSpace(content) == "" {
		return nil
	}

	embedding, err := p.Embedder.GenerateEmbedding(ctx, content)
	if err != nil {
		return fmt.Errorf("failed to embed snippet: %w", err)
	}

	return p.Snippets.Upsert(ctx, pgxstore.Snippet{
		URL:     result.URL,
		Title:   result.Title,
		Content: content,
	}, embedding)
}

// filterURLs drops blocklisted domains and truncates to numResults,
// preserving search order.
func filterURLs(hits []search.Hit, numResults int) []string {
	urls := make([]string, 0, numResults)
	for _, hit := range hits {
		if hit.Link == "" || isBlocked(hit.Link) {
			continue
		}
		urls = append(urls, hit.Link)
		if len(urls) == numResults {
			break
		}
	}
	return urls
}

func isBlocked(rawURL string) bool {
	parsed, err := url.Parse(rawURL)
	if err != nil {
		return true
	}
	host := strings.ToLower(parsed.Hostname())
	for _, domain := range blockedDomains {
		if host == domain || strings.HasSuffix(host, "."+domain) {
			return true
		}
	}
	return false
}
