package feed

import (
	"context"
	"fmt"
	"log"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"wikifeed/internal/assetcache"
	"wikifeed/internal/events"
	"wikifeed/internal/feederr"
	"wikifeed/internal/itemcache"
	"wikifeed/internal/models"
	"wikifeed/internal/retry"
	"wikifeed/internal/seen"
	"wikifeed/internal/source"
)

// Options bound the orchestrator's batch sizes and pacing.
// Zero values fall back to the defaults.
type Options struct {
	PageSize        int           // items promoted from buffer per request
	VisibleBatch    int           // fetch size for the foreground path
	RefillBatch     int           // fetch size for the background refill
	BufferThreshold int           // refill triggers below this buffer level
	AssetInterval   time.Duration // pacing between opportunistic asset fetches
	MaxAttempts     int           // retry ceiling per logical fetch
}

func (o *Options) applyDefaults() {
	if o.PageSize <= 0 {
		o.PageSize = 5
	}
	if o.VisibleBatch <= 0 {
		o.VisibleBatch = 10
	}
	if o.RefillBatch <= 0 {
		o.RefillBatch = 15
	}
	if o.BufferThreshold <= 0 {
		o.BufferThreshold = 20
	}
	if o.AssetInterval <= 0 {
		o.AssetInterval = 100 * time.Millisecond
	}
	if o.MaxAttempts <= 0 {
		o.MaxAttempts = retry.DefaultMaxAttempts
	}
}

// SeenFactory builds the seen set for a feed configuration. The
// orchestrator rescopes the set whenever language or topics change.
type SeenFactory func(language string, topics []string) *seen.Set

// Feed owns the visible item sequence and the hidden look-ahead
// buffer, composing the content source, retry executor, item cache and
// asset loader so the visible feed can always be extended without a
// user-visible stall and no item identity ever appears twice.
//
// At most one foreground request and one background refill are in
// flight at a time, enforced by the two busy flags. Shared state is
// mutated only inside the mutex and never across a network call;
// every task re-checks its generation token after each suspension, so
// a Reset observed mid-flight makes the late result discard itself.
type Feed struct {
	opts    Options
	src     source.Source
	retrier *retry.Executor
	items   *itemcache.Manager
	assets  *assetcache.Loader
	newSeen SeenFactory

	mu           sync.Mutex
	language     string
	topics       []string
	seenSet      *seen.Set
	visible      []models.ContentItem
	buffer       []models.ContentItem
	loading      bool
	refilling    bool
	hasError     bool
	errorMessage string
	generation   uint64
	genCtx       context.Context
	genCancel    context.CancelFunc
	fgCancel     context.CancelFunc

	assetLimiter *rate.Limiter
	wg           sync.WaitGroup
	running      bool
	stopEvents   context.CancelFunc
}

// New creates a feed orchestrator for the given configuration. All
// collaborators are injected; nothing here is process-global.
func New(src source.Source, retrier *retry.Executor, items *itemcache.Manager, assets *assetcache.Loader, newSeen SeenFactory, language string, topics []string, opts Options) *Feed {
	opts.applyDefaults()

	genCtx, genCancel := context.WithCancel(context.Background())
	return &Feed{
		opts:         opts,
		src:          src,
		retrier:      retrier,
		items:        items,
		assets:       assets,
		newSeen:      newSeen,
		language:     language,
		topics:       append([]string(nil), topics...),
		seenSet:      newSeen(language, topics),
		genCtx:       genCtx,
		genCancel:    genCancel,
		assetLimiter: rate.NewLimiter(rate.Every(opts.AssetInterval), 1),
	}
}

// Start subscribes the feed to configuration-change and
// memory-pressure signals
func (f *Feed) Start(bus *events.Bus) {
	f.mu.Lock()
	if f.running {
		f.mu.Unlock()
		return
	}
	f.running = true
	ctx, cancel := context.WithCancel(context.Background())
	f.stopEvents = cancel
	f.mu.Unlock()

	configCh := bus.SubscribeConfig()
	pressureCh := bus.SubscribeMemoryPressure()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for {
			select {
			case change := <-configCh:
				if _, err := f.ApplyConfig(ctx, change.Language, change.Topics); err != nil {
					log.Printf("Refresh after config change failed: %v", err)
				}
			case <-pressureCh:
				f.HandleMemoryPressure()
			case <-ctx.Done():
				return
			}
		}
	}()
}

// RequestMore extends the visible feed. Buffer drain is attempted
// before any network fetch; a request arriving while a foreground
// request is already in flight is dropped. Returns the number of items
// appended, and the classified error when the network path failed.
func (f *Feed) RequestMore(ctx context.Context, isInitial bool) (int, error) {
	f.mu.Lock()
	if f.loading {
		f.mu.Unlock()
		return 0, nil
	}
	f.loading = true
	f.hasError = false
	f.errorMessage = ""
	gen := f.generation

	// Buffer-first: promote unseen buffered items without touching the
	// network
	if !isInitial && len(f.buffer) > 0 {
		promoted := f.drainBufferLocked()
		needRefill := len(f.buffer) < f.opts.BufferThreshold
		f.loading = false
		f.mu.Unlock()

		if needRefill {
			f.triggerRefill()
		}
		return promoted, nil
	}

	language := f.language
	topics := append([]string(nil), f.topics...)
	fetchCtx, cancel := context.WithCancel(ctx)
	f.fgCancel = cancel
	f.mu.Unlock()
	defer cancel()

	opID := opIdentity("fetch_batch", language, topics)
	batch, err := retry.Do(fetchCtx, f.retrier, opID, f.opts.MaxAttempts, func(c context.Context) ([]models.ContentItem, error) {
		return f.src.FetchBatch(c, topics, f.opts.VisibleBatch, language)
	})

	f.mu.Lock()
	if f.generation != gen {
		// Superseded by a reset while suspended; discard the late result
		f.mu.Unlock()
		return 0, nil
	}
	f.loading = false

	if err != nil {
		classified := feederr.Classify(err)
		if classified.Kind == feederr.KindCancelled {
			f.mu.Unlock()
			return 0, nil
		}
		f.hasError = true
		f.errorMessage = userMessage(classified.Kind)
		f.mu.Unlock()
		log.Printf("Foreground fetch failed: %v", classified)
		return 0, classified
	}

	fresh := f.admitLocked(batch)
	f.visible = append(f.visible, fresh...)
	needRefill := len(f.buffer) < f.opts.BufferThreshold
	f.mu.Unlock()

	if len(fresh) == 0 && len(batch) > 0 {
		// Not an error: the whole batch was already seen
		log.Printf("Fetch returned %d items but none were new", len(batch))
	}

	f.warmAssets(gen, fresh)
	if needRefill {
		f.triggerRefill()
	}

	return len(fresh), nil
}

// drainBufferLocked promotes up to PageSize unseen items from the
// buffer into the visible sequence, discarding buffered items that
// became seen since they were fetched. Caller holds the mutex.
func (f *Feed) drainBufferLocked() int {
	var promoted int
	var rest []models.ContentItem

	for _, item := range f.buffer {
		if promoted >= f.opts.PageSize {
			rest = append(rest, item)
			continue
		}
		if f.seenSet.Contains(item.ID) {
			continue
		}
		f.visible = append(f.visible, item)
		f.seenSet.Add(item.ID)
		promoted++
	}
	f.buffer = rest

	return promoted
}

// admitLocked filters a fetched batch down to unseen items, marks them
// seen and stores them in the item cache. Duplicates inside the batch
// itself are dropped too. Caller holds the mutex.
func (f *Feed) admitLocked(batch []models.ContentItem) []models.ContentItem {
	var fresh []models.ContentItem
	for _, item := range batch {
		if f.seenSet.Contains(item.ID) {
			continue
		}
		f.seenSet.Add(item.ID)
		f.items.Put(item)
		fresh = append(fresh, item)
	}
	return fresh
}

// triggerRefill launches a background refill unless one is already in
// flight
func (f *Feed) triggerRefill() {
	f.mu.Lock()
	if f.refilling {
		f.mu.Unlock()
		return
	}
	f.refilling = true
	gen := f.generation
	ctx := f.genCtx
	language := f.language
	topics := append([]string(nil), f.topics...)
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		f.refill(ctx, gen, language, topics)
	}()
}

// refill fetches a look-ahead batch and appends the unseen survivors
// to the buffer. Buffered items are not marked seen until promoted.
// Failures here are logged only: the buffer is an optimization, never
// a user-facing guarantee.
func (f *Feed) refill(ctx context.Context, gen uint64, language string, topics []string) {
	opID := opIdentity("refill", language, topics)
	batch, err := retry.Do(ctx, f.retrier, opID, f.opts.MaxAttempts, func(c context.Context) ([]models.ContentItem, error) {
		return f.src.FetchBatch(c, topics, f.opts.RefillBatch, language)
	})

	f.mu.Lock()
	if f.generation != gen {
		f.mu.Unlock()
		return
	}
	f.refilling = false

	if err != nil {
		f.mu.Unlock()
		if feederr.KindOf(err) != feederr.KindCancelled {
			log.Printf("Buffer refill failed: %v", feederr.Classify(err))
		}
		return
	}

	buffered := make(map[int64]bool, len(f.buffer))
	for _, item := range f.buffer {
		buffered[item.ID] = true
	}

	var fresh []models.ContentItem
	for _, item := range batch {
		if f.seenSet.Contains(item.ID) || buffered[item.ID] {
			continue
		}
		buffered[item.ID] = true
		f.items.Put(item)
		f.buffer = append(f.buffer, item)
		fresh = append(fresh, item)
	}
	f.mu.Unlock()

	log.Printf("Buffer refilled with %d items (%d fetched)", len(fresh), len(batch))
	f.warmAssets(gen, fresh)
}

// warmAssets opportunistically populates the asset cache for a batch,
// sequentially and paced by the limiter so the upstream image host is
// never hammered. Runs in the background; a reset stops it through the
// generation context.
func (f *Feed) warmAssets(gen uint64, items []models.ContentItem) {
	if len(items) == 0 {
		return
	}

	f.mu.Lock()
	if f.generation != gen {
		f.mu.Unlock()
		return
	}
	ctx := f.genCtx
	f.mu.Unlock()

	f.wg.Add(1)
	go func() {
		defer f.wg.Done()
		for _, item := range items {
			if item.AssetURL == "" {
				continue
			}
			if err := f.assetLimiter.Wait(ctx); err != nil {
				return
			}
			f.assets.FetchAndCache(ctx, item.AssetURL, item.AssetURL)
		}
	}()
}

// Reset atomically clears the visible sequence, the buffer, the seen
// set and both busy flags, cancelling in-flight work first. In-flight
// tasks observe the cancellation through their generation token before
// mutating shared state. Safe to call repeatedly.
func (f *Feed) Reset() {
	f.mu.Lock()
	f.generation++
	f.genCancel()
	if f.fgCancel != nil {
		f.fgCancel()
		f.fgCancel = nil
	}
	f.genCtx, f.genCancel = context.WithCancel(context.Background())
	f.visible = nil
	f.buffer = nil
	f.loading = false
	f.refilling = false
	f.hasError = false
	f.errorMessage = ""
	seenSet := f.seenSet
	f.mu.Unlock()

	seenSet.Clear()
}

// Refresh resets the feed and immediately issues an initial request
func (f *Feed) Refresh(ctx context.Context) (int, error) {
	f.Reset()
	return f.RequestMore(ctx, true)
}

// ApplyConfig switches the feed to a new language/topic selection:
// full reset, rescoped seen set, immediate refresh
func (f *Feed) ApplyConfig(ctx context.Context, language string, topics []string) (int, error) {
	f.Reset()

	f.mu.Lock()
	f.language = language
	f.topics = append([]string(nil), topics...)
	f.seenSet = f.newSeen(language, topics)
	seenSet := f.seenSet
	f.mu.Unlock()

	// A config change clears delivery history for the new scope too
	seenSet.Clear()

	return f.RequestMore(ctx, true)
}

// Snapshot returns the read-only view handed to the presentation layer
func (f *Feed) Snapshot() models.FeedSnapshot {
	f.mu.Lock()
	defer f.mu.Unlock()

	items := make([]models.ContentItem, len(f.visible))
	copy(items, f.visible)

	return models.FeedSnapshot{
		Items:        items,
		IsLoading:    f.loading,
		HasError:     f.hasError,
		ErrorMessage: f.errorMessage,
		BufferLen:    len(f.buffer),
	}
}

// Info returns feed metadata for the status endpoint
func (f *Feed) Info() models.FeedInfo {
	f.mu.Lock()
	defer f.mu.Unlock()

	return models.FeedInfo{
		Language:     f.language,
		Topics:       append([]string(nil), f.topics...),
		VisibleCount: len(f.visible),
		BufferLen:    len(f.buffer),
		SeenCount:    f.seenSet.Len(),
		ItemCacheLen: f.items.Len(),
		AssetCost:    f.assets.Cache().Cost(),
	}
}

// CachedItem looks an item up in the metadata cache directly,
// bypassing the orchestrator's own state
func (f *Feed) CachedItem(id int64) (models.ContentItem, bool) {
	return f.items.Get(id)
}

// HandleMemoryPressure flushes the asset cache entirely and halves the
// item cache population, oldest first
func (f *Feed) HandleMemoryPressure() {
	log.Printf("Memory pressure: flushing asset cache, halving item cache (%d entries)", f.items.Len())
	f.assets.Cache().Flush()
	f.items.HalveOldest()
}

// Stop cancels event handling and background work and waits for both
// to finish
func (f *Feed) Stop() {
	f.mu.Lock()
	f.genCancel()
	if f.fgCancel != nil {
		f.fgCancel()
		f.fgCancel = nil
	}
	if f.stopEvents != nil {
		f.stopEvents()
		f.stopEvents = nil
	}
	f.running = false
	f.mu.Unlock()

	f.wg.Wait()
}

func opIdentity(kind, language string, topics []string) string {
	if len(topics) == 0 {
		return fmt.Sprintf("%s:%s:random", kind, language)
	}
	return fmt.Sprintf("%s:%s:%s", kind, language, strings.Join(topics, ","))
}

func userMessage(kind feederr.Kind) string {
	switch kind {
	case feederr.KindTransport, feederr.KindTimeout:
		return "No internet connection. Check your network and try again."
	case feederr.KindRateLimited:
		return "The content service is busy. Please try again in a moment."
	default:
		return "Couldn't load new articles. Please try again."
	}
}
