package addons

import (
	"errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"testing"

	"github.com/l4d2tools/addonctl/internal/store"
	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

const testRoot = "/games/l4d2"

var testWorkshop = filepath.Join(testRoot, "left4dead2", "addons", "workshop")

// memStore is an in-memory StateStore.
type memStore struct {
	mu      sync.Mutex
	values  map[string]string
	failSet error
}

func newMemStore() *memStore {
	return &memStore{values: make(map[string]string)}
}

func (s *memStore) GetSetting(key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.values[key]
	if !ok {
		return "", store.ErrNotFound
	}
	return v, nil
}

func (s *memStore) SetSetting(key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failSet != nil {
		return s.failSet
	}
	s.values[key] = value
	return nil
}

func (s *memStore) DeleteSetting(key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}

// failingFs fails writes to any path containing failOn.
type failingFs struct {
	afero.Fs
	failOn string
}

var errInjected = errors.New("injected failure")

func (f *failingFs) OpenFile(name string, flag int, perm os.FileMode) (afero.File, error) {
	if flag&(os.O_WRONLY|os.O_RDWR) != 0 && strings.Contains(name, f.failOn) {
		return nil, errInjected
	}
	return f.Fs.OpenFile(name, flag, perm)
}

func (f *failingFs) Create(name string) (afero.File, error) {
	if strings.Contains(name, f.failOn) {
		return nil, errInjected
	}
	return f.Fs.Create(name)
}

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func writeWorkshop(t *testing.T, fs afero.Fs, names ...string) {
	t.Helper()
	require.NoError(t, fs.MkdirAll(testWorkshop, 0755))
	for _, name := range names {
		require.NoError(t, afero.WriteFile(fs, filepath.Join(testWorkshop, name), []byte("data:"+name), 0644))
	}
}

func newTestManager(t *testing.T, fs afero.Fs, st *memStore, prune bool) *Manager {
	t.Helper()
	st.values[store.KeyGamePath] = testRoot
	m := NewManager(Options{FS: fs, Store: st, Log: discardLogger(), PruneOrphans: prune})
	require.NoError(t, m.Load())
	return m
}

// snapshotFs lists every file under root with its contents.
func snapshotFs(t *testing.T, fs afero.Fs, root string) []string {
	t.Helper()
	var out []string
	err := afero.Walk(fs, root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			out = append(out, path+"/")
			return nil
		}
		data, err := afero.ReadFile(fs, path)
		if err != nil {
			return err
		}
		out = append(out, path+"="+string(data))
		return nil
	})
	require.NoError(t, err)
	sort.Strings(out)
	return out
}

func names(entries []Entry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Name
	}
	return out
}
