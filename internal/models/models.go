package models

// ContentItem represents a single article delivered into the feed.
// Identity is ID: two items with the same ID are the same item, and a
// later fetch may overwrite an earlier one in cache but must never
// appear twice in the visible feed.
type ContentItem struct {
	ID        int64  `json:"id"`
	Title     string `json:"title"`
	Extract   string `json:"extract"`
	AssetURL  string `json:"asset_url,omitempty"`
	SourceURL string `json:"source_url"`
	Language  string `json:"language"`
}

// FeedSnapshot is the read-only view of the feed handed to the
// presentation layer
type FeedSnapshot struct {
	Items        []ContentItem `json:"items"`
	IsLoading    bool          `json:"is_loading"`
	HasError     bool          `json:"has_error"`
	ErrorMessage string        `json:"error_message,omitempty"`
	BufferLen    int           `json:"buffer_len"`
}

// FeedInfo represents metadata about the active feed context
type FeedInfo struct {
	Language     string   `json:"language"`
	Topics       []string `json:"topics"`
	VisibleCount int      `json:"visible_count"`
	BufferLen    int      `json:"buffer_len"`
	SeenCount    int      `json:"seen_count"`
	ItemCacheLen int      `json:"item_cache_len"`
	AssetCost    int64    `json:"asset_cost"`
}
