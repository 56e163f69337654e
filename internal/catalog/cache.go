// Package catalog resolves workshop package file names to human-readable
// titles and descriptions from the remote catalog service, keeping results
// in a persisted cache with a fixed retention window.
package catalog

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/l4d2tools/addonctl/internal/store"
	"golang.org/x/sync/errgroup"
)

const (
	serviceName = "catalog"

	// CacheTTL is how long a fetched record stays fresh.
	CacheTTL = 7 * 24 * time.Hour
	// BatchSize is the maximum number of ids sent in one remote call.
	BatchSize = 100
	// DefaultWorkers bounds the number of concurrent remote calls per lookup.
	DefaultWorkers = 4
)

// Store is the persisted side of the cache.
type Store interface {
	GetCatalogEntries(ids []string) (map[string]*store.CatalogEntry, error)
	ListCatalogEntries() ([]*store.CatalogEntry, error)
	UpsertCatalogEntries(entries []*store.CatalogEntry) error
	DeleteCatalogEntries(ids []string) error
	DeleteCatalogEntriesBefore(cutoff time.Time) (int64, error)
	ClearCatalog() error
}

// Options configures a Cache.
type Options struct {
	Store   Store
	Fetcher Fetcher
	Log     *slog.Logger
	// Workers bounds concurrent remote calls. Defaults to DefaultWorkers.
	Workers int
	// Now overrides the clock, for tests.
	Now func() time.Time
}

// Stats summarises the persisted cache.
type Stats struct {
	Total int
	Valid int
}

// call tracks one in-flight fetch of a single id.
type call struct {
	done  chan struct{}
	entry *store.CatalogEntry
}

// Cache resolves workshop ids through the persisted store and the remote
// fetcher. At most one remote lookup is in flight per id; callers asking
// for an id that is already being fetched wait for that result.
type Cache struct {
	store   Store
	fetcher Fetcher
	log     *slog.Logger
	workers int
	now     func() time.Time

	mu       sync.Mutex
	inflight map[string]*call
}

// New creates a Cache.
func New(opts Options) *Cache {
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = DefaultWorkers
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}

	return &Cache{
		store:    opts.Store,
		fetcher:  opts.Fetcher,
		log:      log.With(slog.String("service", serviceName)),
		workers:  workers,
		now:      now,
		inflight: make(map[string]*call),
	}
}

// GetTitlesBatch resolves the workshop ids found in filenames. Fresh cached
// records are returned as they are; everything else is fetched in chunks of
// BatchSize. A chunk whose remote call fails resolves each of its ids to a
// placeholder titled with the id itself, so this never fails as a whole.
func (c *Cache) GetTitlesBatch(ctx context.Context, filenames []string) map[string]*store.CatalogEntry {
	return c.resolve(ctx, ExtractIDs(filenames))
}

// GetInfo resolves the record for a single package file name.
func (c *Cache) GetInfo(ctx context.Context, filename string) (*store.CatalogEntry, bool) {
	id, ok := ExtractID(filename)
	if !ok {
		return nil, false
	}
	e, ok := c.resolve(ctx, []string{id})[id]
	return e, ok
}

// GetInfoByID resolves the record for a workshop id.
func (c *Cache) GetInfoByID(ctx context.Context, id string) (*store.CatalogEntry, bool) {
	e, ok := c.resolve(ctx, []string{id})[id]
	return e, ok
}

// GetTitle returns the display title for a package file name: the catalog
// title, else the workshop id, else the file name itself.
func (c *Cache) GetTitle(ctx context.Context, filename string) string {
	id, ok := ExtractID(filename)
	if !ok {
		return filename
	}
	if e, ok := c.resolve(ctx, []string{id})[id]; ok && e.Title != "" {
		return e.Title
	}
	return id
}

// Refresh drops the cached records for filenames and fetches them again.
func (c *Cache) Refresh(ctx context.Context, filenames []string) map[string]*store.CatalogEntry {
	ids := ExtractIDs(filenames)
	if err := c.store.DeleteCatalogEntries(ids); err != nil {
		c.log.Warn("Cannot drop cached records", slog.Any("error", err))
	}
	return c.resolve(ctx, ids)
}

// CleanupExpired evicts every record older than CacheTTL and returns how
// many were removed.
func (c *Cache) CleanupExpired() (int64, error) {
	n, err := c.store.DeleteCatalogEntriesBefore(c.now().Add(-CacheTTL))
	if err != nil {
		c.log.Error("Cannot evict expired records", slog.Any("error", err))
		return 0, err
	}
	if n > 0 {
		c.log.Info("Evicted expired records", slog.Int64("count", n))
	}
	return n, nil
}

// Stats counts cached records and how many of them are still fresh.
func (c *Cache) Stats() (Stats, error) {
	entries, err := c.store.ListCatalogEntries()
	if err != nil {
		return Stats{}, err
	}

	now := c.now()
	stats := Stats{Total: len(entries)}
	for _, e := range entries {
		if c.fresh(e, now) {
			stats.Valid++
		}
	}
	return stats, nil
}

// Clear removes every cached record.
func (c *Cache) Clear() error {
	return c.store.ClearCatalog()
}

func (c *Cache) fresh(e *store.CatalogEntry, now time.Time) bool {
	return now.Sub(e.LastUpdated) < CacheTTL
}

func (c *Cache) resolve(ctx context.Context, ids []string) map[string]*store.CatalogEntry {
	results := make(map[string]*store.CatalogEntry, len(ids))
	if len(ids) == 0 {
		return results
	}

	cached, err := c.store.GetCatalogEntries(ids)
	if err != nil {
		c.log.Warn("Cannot read catalog cache", slog.Any("error", err))
		cached = nil
	}

	now := c.now()
	var stale []string
	for _, id := range ids {
		if e, ok := cached[id]; ok && c.fresh(e, now) {
			results[id] = e
			continue
		}
		stale = append(stale, id)
	}

	if len(stale) == 0 {
		return results
	}

	mine, waiting := c.claim(stale)
	c.fetch(ctx, mine, results)

	for id, cl := range waiting {
		select {
		case <-cl.done:
			if cl.entry != nil {
				results[id] = cl.entry
			}
		case <-ctx.Done():
			return results
		}
	}

	return results
}

// claim registers ids that nobody is fetching yet as in flight for the
// caller and returns the calls of ids that are already being fetched.
func (c *Cache) claim(ids []string) ([]string, map[string]*call) {
	c.mu.Lock()
	defer c.mu.Unlock()

	var mine []string
	waiting := make(map[string]*call)
	for _, id := range ids {
		if cl, ok := c.inflight[id]; ok {
			waiting[id] = cl
			continue
		}
		c.inflight[id] = &call{done: make(chan struct{})}
		mine = append(mine, id)
	}
	return mine, waiting
}

func (c *Cache) release(ids []string, entries map[string]*store.CatalogEntry) {
	c.mu.Lock()
	defer c.mu.Unlock()

	for _, id := range ids {
		cl, ok := c.inflight[id]
		if !ok {
			continue
		}
		cl.entry = entries[id]
		delete(c.inflight, id)
		close(cl.done)
	}
}

func (c *Cache) fetch(ctx context.Context, ids []string, results map[string]*store.CatalogEntry) {
	var mu sync.Mutex
	var g errgroup.Group
	g.SetLimit(c.workers)

	for _, chunk := range chunkIDs(ids, BatchSize) {
		chunk := chunk
		g.Go(func() error {
			var entries map[string]*store.CatalogEntry
			defer func() { c.release(chunk, entries) }()

			entries = c.fetchChunk(ctx, chunk)

			mu.Lock()
			for id, e := range entries {
				results[id] = e
			}
			mu.Unlock()
			return nil
		})
	}

	g.Wait() //nolint:errcheck
}

func (c *Cache) fetchChunk(ctx context.Context, ids []string) map[string]*store.CatalogEntry {
	entries := make(map[string]*store.CatalogEntry, len(ids))

	details, err := c.fetcher.FetchDetails(ctx, ids)
	if err != nil {
		c.log.Warn("Cannot fetch catalog details, using placeholders",
			slog.Int("ids", len(ids)), slog.Any("error", err))
		now := c.now()
		for _, id := range ids {
			entries[id] = &store.CatalogEntry{WorkshopID: id, Title: id, LastUpdated: now}
		}
		return entries
	}

	now := c.now()
	fetched := make([]*store.CatalogEntry, 0, len(details))
	for _, d := range details {
		title := d.Title
		if title == "" {
			title = d.PublishedFileID
		}
		e := &store.CatalogEntry{
			WorkshopID:  d.PublishedFileID,
			Title:       title,
			Description: d.Description,
			LastUpdated: now,
		}
		entries[e.WorkshopID] = e
		fetched = append(fetched, e)
	}

	if err := c.store.UpsertCatalogEntries(fetched); err != nil {
		c.log.Warn("Cannot persist catalog records", slog.Any("error", err))
	}

	c.log.Debug("Fetched catalog details", slog.Int("requested", len(ids)), slog.Int("resolved", len(fetched)))
	return entries
}

func chunkIDs(ids []string, size int) [][]string {
	var chunks [][]string
	for start := 0; start < len(ids); start += size {
		end := start + size
		if end > len(ids) {
			end = len(ids)
		}
		chunks = append(chunks, ids[start:end])
	}
	return chunks
}
