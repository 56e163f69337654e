package catalog

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sort"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/l4d2tools/addonctl/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errUpstream = errors.New("upstream unavailable")

// fakeFetcher records calls and answers with a detail per requested id.
type fakeFetcher struct {
	mu     sync.Mutex
	calls  [][]string
	fail   func(ids []string) bool
	gate   chan struct{}
	active int32
	peak   int32
}

func (f *fakeFetcher) FetchDetails(ctx context.Context, ids []string) ([]FileDetail, error) {
	n := atomic.AddInt32(&f.active, 1)
	defer atomic.AddInt32(&f.active, -1)
	for {
		p := atomic.LoadInt32(&f.peak)
		if n <= p || atomic.CompareAndSwapInt32(&f.peak, p, n) {
			break
		}
	}

	f.mu.Lock()
	f.calls = append(f.calls, append([]string(nil), ids...))
	f.mu.Unlock()

	if f.gate != nil {
		<-f.gate
	}
	if f.fail != nil && f.fail(ids) {
		return nil, errUpstream
	}

	details := make([]FileDetail, 0, len(ids))
	for _, id := range ids {
		details = append(details, FileDetail{
			PublishedFileID: id,
			Result:          resultOK,
			Title:           "Title " + id,
			Description:     "Description " + id,
		})
	}
	return details, nil
}

func (f *fakeFetcher) callSizes() []int {
	f.mu.Lock()
	defer f.mu.Unlock()
	sizes := make([]int, len(f.calls))
	for i, c := range f.calls {
		sizes[i] = len(c)
	}
	sort.Sort(sort.Reverse(sort.IntSlice(sizes)))
	return sizes
}

func (f *fakeFetcher) requested() map[string]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	counts := make(map[string]int)
	for _, c := range f.calls {
		for _, id := range c {
			counts[id]++
		}
	}
	return counts
}

type testClock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *testClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *testClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

func newTestCache(t *testing.T, f *fakeFetcher) (*Cache, *store.Store, *testClock) {
	t.Helper()
	st, err := store.Open(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	clock := &testClock{now: time.Date(2026, 10, 18, 9, 0, 0, 0, time.UTC)}
	c := New(Options{
		Store:   st,
		Fetcher: f,
		Log:     slog.New(slog.NewTextHandler(io.Discard, nil)),
		Now:     clock.Now,
	})
	return c, st, clock
}

func filenames(n int) []string {
	out := make([]string, n)
	for i := range out {
		out[i] = fmt.Sprintf("workshop_%d.vpk", 1000+i)
	}
	return out
}

func TestGetTitlesBatch_FetchesAndCaches(t *testing.T) {
	f := &fakeFetcher{}
	c, st, clock := newTestCache(t, f)

	got := c.GetTitlesBatch(context.Background(), []string{"workshop_111.vpk", "222.vpk", "readme.txt", "addon_111.vpk"})

	require.Len(t, got, 2)
	assert.Equal(t, "Title 111", got["111"].Title)
	assert.Equal(t, "Description 222", got["222"].Description)
	assert.Equal(t, clock.Now(), got["111"].LastUpdated)
	assert.Equal(t, []int{2}, f.callSizes())

	persisted, err := st.GetCatalogEntries([]string{"111", "222"})
	require.NoError(t, err)
	assert.Len(t, persisted, 2)

	// Served from cache the second time.
	got = c.GetTitlesBatch(context.Background(), []string{"workshop_111.vpk"})
	assert.Equal(t, "Title 111", got["111"].Title)
	assert.Len(t, f.callSizes(), 1)
}

func TestGetTitlesBatch_NoIDs(t *testing.T) {
	f := &fakeFetcher{}
	c, _, _ := newTestCache(t, f)

	got := c.GetTitlesBatch(context.Background(), []string{"readme.txt", "map.bsp"})

	assert.Empty(t, got)
	assert.Empty(t, f.callSizes())
}

func TestGetTitlesBatch_Chunking(t *testing.T) {
	f := &fakeFetcher{}
	c, _, _ := newTestCache(t, f)

	got := c.GetTitlesBatch(context.Background(), filenames(250))

	assert.Len(t, got, 250)
	assert.Equal(t, []int{100, 100, 50}, f.callSizes())
	assert.LessOrEqual(t, atomic.LoadInt32(&f.peak), int32(DefaultWorkers))
}

func TestGetTitlesBatch_ChunkFailureFallsBack(t *testing.T) {
	f := &fakeFetcher{fail: func(ids []string) bool { return ids[0] == "1100" }}
	c, st, _ := newTestCache(t, f)

	got := c.GetTitlesBatch(context.Background(), filenames(250))

	require.Len(t, got, 250)
	for i := 0; i < 250; i++ {
		id := fmt.Sprintf("%d", 1000+i)
		if i >= 100 && i < 200 {
			assert.Equal(t, id, got[id].Title, "failed chunk resolves to its id")
			assert.Empty(t, got[id].Description)
		} else {
			assert.Equal(t, "Title "+id, got[id].Title)
		}
	}

	all, err := st.ListCatalogEntries()
	require.NoError(t, err)
	assert.Len(t, all, 150, "placeholders are not persisted")
}

func TestGetTitlesBatch_ExpiredRefetched(t *testing.T) {
	f := &fakeFetcher{}
	c, _, clock := newTestCache(t, f)

	c.GetTitlesBatch(context.Background(), []string{"workshop_111.vpk"})
	clock.Advance(CacheTTL - time.Minute)
	c.GetTitlesBatch(context.Background(), []string{"workshop_111.vpk"})
	assert.Len(t, f.callSizes(), 1)

	clock.Advance(2 * time.Minute)
	got := c.GetTitlesBatch(context.Background(), []string{"workshop_111.vpk"})
	assert.Len(t, f.callSizes(), 2)
	assert.Equal(t, clock.Now(), got["111"].LastUpdated)
}

func TestGetTitlesBatch_DeduplicatesInFlight(t *testing.T) {
	f := &fakeFetcher{gate: make(chan struct{})}
	c, _, _ := newTestCache(t, f)

	names := filenames(10)
	var wg sync.WaitGroup
	results := make([]map[string]*store.CatalogEntry, 5)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			results[i] = c.GetTitlesBatch(context.Background(), names[i:])
		}(i)
	}

	// Let every caller register before the first fetch returns.
	require.Eventually(t, func() bool {
		c.mu.Lock()
		defer c.mu.Unlock()
		return len(c.inflight) == 10
	}, time.Second, time.Millisecond)
	time.Sleep(20 * time.Millisecond)
	close(f.gate)
	wg.Wait()

	for id, n := range f.requested() {
		assert.Equal(t, 1, n, "id %s fetched more than once", id)
	}
	for i, r := range results {
		assert.Len(t, r, 10-i)
	}
}

func TestGetTitle(t *testing.T) {
	f := &fakeFetcher{}
	c, _, _ := newTestCache(t, f)
	ctx := context.Background()

	assert.Equal(t, "Title 42", c.GetTitle(ctx, "workshop_42.vpk"))
	assert.Equal(t, "notes.txt", c.GetTitle(ctx, "notes.txt"))

	f.fail = func([]string) bool { return true }
	assert.Equal(t, "43", c.GetTitle(ctx, "43.vpk"))

	e, ok := c.GetInfo(ctx, "workshop_42.vpk")
	require.True(t, ok)
	assert.Equal(t, "Description 42", e.Description)

	_, ok = c.GetInfo(ctx, "notes.txt")
	assert.False(t, ok)

	e, ok = c.GetInfoByID(ctx, "42")
	require.True(t, ok)
	assert.Equal(t, "Title 42", e.Title)
}

func TestRefresh(t *testing.T) {
	f := &fakeFetcher{}
	c, _, _ := newTestCache(t, f)
	ctx := context.Background()

	c.GetTitlesBatch(ctx, []string{"workshop_1.vpk", "workshop_2.vpk"})
	c.Refresh(ctx, []string{"workshop_1.vpk"})

	assert.Equal(t, map[string]int{"1": 2, "2": 1}, f.requested())
}

func TestCleanupExpiredAndStats(t *testing.T) {
	f := &fakeFetcher{}
	c, _, clock := newTestCache(t, f)
	ctx := context.Background()

	c.GetTitlesBatch(ctx, []string{"workshop_1.vpk"})
	clock.Advance(5 * 24 * time.Hour)
	c.GetTitlesBatch(ctx, []string{"workshop_2.vpk"})
	clock.Advance(3 * 24 * time.Hour)

	stats, err := c.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 2, Valid: 1}, stats)

	n, err := c.CleanupExpired()
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	stats, err = c.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{Total: 1, Valid: 1}, stats)

	require.NoError(t, c.Clear())
	stats, err = c.Stats()
	require.NoError(t, err)
	assert.Equal(t, Stats{}, stats)
}

func TestExtractID(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"workshop_111.vpk", "111", true},
		{"addon_2233.vpk", "2233", true},
		{"123456789.vpk", "123456789", true},
		{"my_mod_77.vpk", "77", true},
		{"workshop_abc.vpk", "", false},
		{"abc123.vpk", "", false},
		{"111.jpg", "", false},
		{"111.vpk.bak", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, ok := ExtractID(tt.in)
			assert.Equal(t, tt.wantOK, ok)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Equal(t, []string{"1", "2"}, ExtractIDs([]string{"workshop_1.vpk", "x.txt", "addon_1.vpk", "2.vpk"}))
}
