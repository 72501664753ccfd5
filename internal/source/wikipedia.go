package source

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/url"
	"sync"

	"golang.org/x/sync/errgroup"

	"wikifeed/internal/feederr"
	"wikifeed/internal/models"
	"wikifeed/internal/transport"
)

// Wikipedia fetches random article summaries from the Wikipedia REST
// API and category members from the MediaWiki query API. The source is
// pagination-free: every batch is an independent draw.
type Wikipedia struct {
	fetcher transport.Fetcher
	baseURL string // sprintf template taking the language code
}

// NewWikipedia creates a Wikipedia source over the given transport.
// baseURL overrides the API host template for tests; empty means the
// public API.
func NewWikipedia(fetcher transport.Fetcher, baseURL string) *Wikipedia {
	if baseURL == "" {
		baseURL = "https://%s.wikipedia.org"
	}
	return &Wikipedia{fetcher: fetcher, baseURL: baseURL}
}

type summaryResponse struct {
	PageID  int64  `json:"pageid"`
	Title   string `json:"title"`
	Extract string `json:"extract"`
	Lang    string `json:"lang"`
	Thumb   struct {
		Source string `json:"source"`
	} `json:"thumbnail"`
	ContentURLs struct {
		Desktop struct {
			Page string `json:"page"`
		} `json:"desktop"`
	} `json:"content_urls"`
}

type queryResponse struct {
	Query struct {
		Pages map[string]struct {
			PageID  int64  `json:"pageid"`
			Title   string `json:"title"`
			Extract string `json:"extract"`
			FullURL string `json:"fullurl"`
			Thumb   struct {
				Source string `json:"source"`
			} `json:"thumbnail"`
		} `json:"pages"`
	} `json:"query"`
}

// FetchBatch returns up to count items. With no topics every item is
// an independent random draw; with topics the count is spread across
// them and drawn from the matching categories, then the merged batch
// is shuffled and truncated.
func (w *Wikipedia) FetchBatch(ctx context.Context, topics []string, count int, language string) ([]models.ContentItem, error) {
	if count <= 0 {
		return nil, nil
	}
	if len(topics) > 0 {
		return w.FetchByCategory(ctx, topics, count, language)
	}

	items := make([]models.ContentItem, count)
	errs := make([]error, count)
	var mu sync.Mutex
	ok := make([]bool, count)

	g, gctx := errgroup.WithContext(ctx)
	for i := 0; i < count; i++ {
		i := i
		g.Go(func() error {
			item, err := w.fetchRandomSummary(gctx, language)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				errs[i] = err
				return nil
			}
			items[i] = item
			ok[i] = true
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, feederr.Classify(err)
	}

	var result []models.ContentItem
	var firstErr error
	for i := range items {
		if ok[i] {
			result = append(result, items[i])
		} else if firstErr == nil {
			firstErr = errs[i]
		}
	}
	if len(result) == 0 && firstErr != nil {
		return nil, feederr.Classify(firstErr)
	}
	if firstErr != nil {
		log.Printf("Partial random batch: %d/%d summaries fetched, first failure: %v", len(result), count, firstErr)
	}

	return dedupeByID(result), nil
}

func (w *Wikipedia) fetchRandomSummary(ctx context.Context, language string) (models.ContentItem, error) {
	endpoint := fmt.Sprintf(w.baseURL, language) + "/api/rest_v1/page/random/summary"

	body, status, err := w.fetcher.FetchBytes(ctx, endpoint)
	if err != nil {
		return models.ContentItem{}, feederr.Classify(err)
	}
	if status < 200 || status >= 300 {
		return models.ContentItem{}, feederr.New(feederr.FromStatus(status), fmt.Sprintf("random summary returned status %d", status))
	}

	var summary summaryResponse
	if err := json.Unmarshal(body, &summary); err != nil {
		return models.ContentItem{}, feederr.Wrap(feederr.KindDecoding, "malformed summary payload", err)
	}
	if summary.PageID == 0 || summary.Title == "" {
		return models.ContentItem{}, feederr.New(feederr.KindDecoding, "summary payload missing page identity")
	}

	return models.ContentItem{
		ID:        summary.PageID,
		Title:     summary.Title,
		Extract:   summary.Extract,
		AssetURL:  summary.Thumb.Source,
		SourceURL: summary.ContentURLs.Desktop.Page,
		Language:  language,
	}, nil
}

// FetchByCategory fans out one sub-fetch per category, flattens the
// results, shuffles and truncates to count. A failing category is
// skipped as long as at least one succeeds.
func (w *Wikipedia) FetchByCategory(ctx context.Context, categories []string, count int, language string) ([]models.ContentItem, error) {
	if count <= 0 || len(categories) == 0 {
		return nil, nil
	}

	perCategory := count/len(categories) + 1

	batches := make([][]models.ContentItem, len(categories))
	errs := make([]error, len(categories))
	var mu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for i, category := range categories {
		i, category := i, category
		g.Go(func() error {
			items, err := w.fetchCategoryMembers(gctx, category, perCategory, language)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				log.Printf("Category fetch failed for '%s': %v", category, err)
				errs[i] = err
				return nil
			}
			batches[i] = items
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, feederr.Classify(err)
	}

	var merged []models.ContentItem
	var firstErr error
	for i := range batches {
		merged = append(merged, batches[i]...)
		if errs[i] != nil && firstErr == nil {
			firstErr = errs[i]
		}
	}
	if len(merged) == 0 && firstErr != nil {
		return nil, feederr.Classify(firstErr)
	}

	return shuffleTruncate(dedupeByID(merged), count), nil
}

func (w *Wikipedia) fetchCategoryMembers(ctx context.Context, category string, limit int, language string) ([]models.ContentItem, error) {
	params := url.Values{}
	params.Set("action", "query")
	params.Set("format", "json")
	params.Set("generator", "categorymembers")
	params.Set("gcmtitle", "Category:"+category)
	params.Set("gcmtype", "page")
	params.Set("gcmlimit", fmt.Sprintf("%d", limit))
	params.Set("prop", "extracts|pageimages|info")
	params.Set("exintro", "1")
	params.Set("explaintext", "1")
	params.Set("piprop", "thumbnail")
	params.Set("pithumbsize", "800")
	params.Set("inprop", "url")

	endpoint := fmt.Sprintf(w.baseURL, language) + "/w/api.php?" + params.Encode()

	body, status, err := w.fetcher.FetchBytes(ctx, endpoint)
	if err != nil {
		return nil, feederr.Classify(err)
	}
	if status < 200 || status >= 300 {
		return nil, feederr.New(feederr.FromStatus(status), fmt.Sprintf("category query returned status %d", status))
	}

	var query queryResponse
	if err := json.Unmarshal(body, &query); err != nil {
		return nil, feederr.Wrap(feederr.KindDecoding, "malformed category payload", err)
	}

	var items []models.ContentItem
	for _, page := range query.Query.Pages {
		// A malformed page entry skips just that item, not the batch
		if page.PageID == 0 || page.Title == "" {
			continue
		}
		items = append(items, models.ContentItem{
			ID:        page.PageID,
			Title:     page.Title,
			Extract:   page.Extract,
			AssetURL:  page.Thumb.Source,
			SourceURL: page.FullURL,
			Language:  language,
		})
	}

	return items, nil
}
