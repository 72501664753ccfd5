package source

import (
	"context"
	"math/rand"

	"wikifeed/internal/models"
)

// Source returns a batch of content items for a topic/category
// selection. Implementations perform exactly one network attempt per
// sub-request and never retry internally; the retry executor is
// layered on top by the orchestrator.
type Source interface {
	FetchBatch(ctx context.Context, topics []string, count int, language string) ([]models.ContentItem, error)
	FetchByCategory(ctx context.Context, categories []string, count int, language string) ([]models.ContentItem, error)
}

// shuffleTruncate randomizes item order and bounds the result to
// count. Ordering is caller-driven, not relevance-scored.
func shuffleTruncate(items []models.ContentItem, count int) []models.ContentItem {
	rand.Shuffle(len(items), func(i, j int) {
		items[i], items[j] = items[j], items[i]
	})
	if count > 0 && count < len(items) {
		items = items[:count]
	}
	return items
}

// dedupeByID drops later duplicates within a single batch, keeping
// first occurrence order
func dedupeByID(items []models.ContentItem) []models.ContentItem {
	seen := make(map[int64]bool, len(items))
	result := items[:0]
	for _, item := range items {
		if seen[item.ID] {
			continue
		}
		seen[item.ID] = true
		result = append(result, item)
	}
	return result
}
