package source

import (
	"context"
	"fmt"
	"hash/fnv"
	"strings"

	"github.com/mmcdole/gofeed"

	"wikifeed/internal/feederr"
	"wikifeed/internal/models"
)

// FeaturedFeed draws items from the per-language featured-content
// syndication feed instead of random draws. It backs deployments where
// editorially curated content is preferred over the random API.
type FeaturedFeed struct {
	parser  *gofeed.Parser
	feedURL string // sprintf template taking the language code
}

// NewFeaturedFeed creates a featured-content source. feedURL overrides
// the feed template for tests; empty means the public featured feed.
func NewFeaturedFeed(feedURL string) *FeaturedFeed {
	if feedURL == "" {
		feedURL = "https://%s.wikipedia.org/w/api.php?action=featuredfeed&feed=featured&feedformat=atom"
	}
	return &FeaturedFeed{
		parser:  gofeed.NewParser(),
		feedURL: feedURL,
	}
}

// FetchBatch parses the featured feed once and returns up to count
// items in shuffled order
func (f *FeaturedFeed) FetchBatch(ctx context.Context, topics []string, count int, language string) ([]models.ContentItem, error) {
	items, err := f.fetchFeed(ctx, language)
	if err != nil {
		return nil, err
	}
	if len(topics) > 0 {
		items = filterByTerms(items, topics)
	}
	return shuffleTruncate(items, count), nil
}

// FetchByCategory treats categories as full-text filter terms, since
// syndicated entries carry no category taxonomy
func (f *FeaturedFeed) FetchByCategory(ctx context.Context, categories []string, count int, language string) ([]models.ContentItem, error) {
	items, err := f.fetchFeed(ctx, language)
	if err != nil {
		return nil, err
	}
	return shuffleTruncate(filterByTerms(items, categories), count), nil
}

func (f *FeaturedFeed) fetchFeed(ctx context.Context, language string) ([]models.ContentItem, error) {
	feed, err := f.parser.ParseURLWithContext(fmt.Sprintf(f.feedURL, language), ctx)
	if err != nil {
		if err == gofeed.ErrFeedTypeNotDetected {
			return nil, feederr.Wrap(feederr.KindDecoding, "unrecognized feed payload", err)
		}
		return nil, feederr.Classify(err)
	}

	var items []models.ContentItem
	for _, entry := range feed.Items {
		if entry.Link == "" || entry.Title == "" {
			continue
		}

		assetURL := ""
		if entry.Image != nil {
			assetURL = entry.Image.URL
		}

		items = append(items, models.ContentItem{
			ID:        linkID(entry.Link),
			Title:     entry.Title,
			Extract:   entry.Description,
			AssetURL:  assetURL,
			SourceURL: entry.Link,
			Language:  language,
		})
	}

	return dedupeByID(items), nil
}

// linkID derives the stable integer identity from the canonical link.
// Syndicated entries have no numeric page id on the wire.
func linkID(link string) int64 {
	h := fnv.New64a()
	h.Write([]byte(link))
	return int64(h.Sum64() & 0x7fffffffffffffff)
}

// filterByTerms keeps items whose text matches any term (OR logic)
func filterByTerms(items []models.ContentItem, terms []string) []models.ContentItem {
	if len(terms) == 0 {
		return items
	}

	var filtered []models.ContentItem
	for _, item := range items {
		text := strings.ToLower(item.Title + " " + item.Extract)
		for _, term := range terms {
			if strings.Contains(text, strings.ToLower(term)) {
				filtered = append(filtered, item)
				break
			}
		}
	}
	return filtered
}
