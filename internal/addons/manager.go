package addons

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"path/filepath"
	"strconv"
	"sync"

	"github.com/l4d2tools/addonctl/internal/gameinfo"
	"github.com/l4d2tools/addonctl/internal/store"
	"github.com/spf13/afero"
)

const (
	serviceName = "addons"

	// DefaultGameSubdir is the game content directory below the game root.
	DefaultGameSubdir = "left4dead2"
)

// StateStore is the persisted key-value store the Manager keeps its state in.
type StateStore interface {
	GetSetting(key string) (string, error)
	SetSetting(key, value string) error
	DeleteSetting(key string) error
}

// Options configures a Manager.
type Options struct {
	FS    afero.Fs
	Store StateStore
	Log   *slog.Logger
	// GameSubdir is the content directory below the game root. Defaults to
	// DefaultGameSubdir.
	GameSubdir string
	// PruneOrphans removes the staging directory of an enabled addon whose
	// package disappeared from the workshop directory during Refresh.
	PruneOrphans bool
}

// Manager is the activation order store. It is the only writer of the
// persisted order, the staging directories and gameinfo.txt, and it runs
// one operation at a time.
type Manager struct {
	mu sync.Mutex

	fs           afero.Fs
	store        StateStore
	log          *slog.Logger
	gameSubdir   string
	pruneOrphans bool

	gameRoot string
	running  bool
	order    []Entry
	previews map[string]string
	sizes    map[string]int64
}

// NewManager creates a Manager. Call Load before using it.
func NewManager(opts Options) *Manager {
	subdir := opts.GameSubdir
	if subdir == "" {
		subdir = DefaultGameSubdir
	}
	log := opts.Log
	if log == nil {
		log = slog.Default()
	}

	return &Manager{
		fs:           opts.FS,
		store:        opts.Store,
		log:          log.With(slog.String("service", serviceName)),
		gameSubdir:   subdir,
		pruneOrphans: opts.PruneOrphans,
		previews:     make(map[string]string),
		sizes:        make(map[string]int64),
	}
}

// Load restores the game root, running flag and activation order from the
// store. Unparsable order data is discarded and replaced by an empty order.
func (m *Manager) Load() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	root, err := m.getSetting(store.KeyGamePath)
	if err != nil {
		return err
	}
	m.gameRoot = root

	running, err := m.getSetting(store.KeyGameRunning)
	if err != nil {
		return err
	}
	m.running = false
	if running != "" {
		if m.running, err = strconv.ParseBool(running); err != nil {
			m.log.Warn("Ignoring unparsable running flag", slog.String("value", running))
		}
	}

	raw, err := m.getSetting(store.KeyAddonOrder)
	if err != nil {
		return err
	}

	m.order = nil
	if raw == "" {
		return nil
	}

	var order []Entry
	if err := json.Unmarshal([]byte(raw), &order); err != nil {
		m.log.Warn("Discarding corrupt addon order", slog.Any("error", err))
		if err := m.store.DeleteSetting(store.KeyAddonOrder); err != nil {
			return fmt.Errorf("failed to reset addon order: %w", err)
		}
		return nil
	}

	m.order = order
	if normalizeIDs(m.order) {
		m.log.Info("Assigned missing addon ids", slog.Int("addons", len(m.order)))
		return m.flush()
	}

	return nil
}

// GameRoot returns the configured game root, or "" if none is set.
func (m *Manager) GameRoot() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.gameRoot
}

// SetGameRoot persists a new game root. The activation order is kept and
// reconciled against the new location on the next Refresh.
func (m *Manager) SetGameRoot(root string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.SetSetting(store.KeyGamePath, root); err != nil {
		return fmt.Errorf("failed to save game path: %w", err)
	}
	m.gameRoot = root
	return nil
}

// ClearGameRoot forgets the game root and the activation order.
func (m *Manager) ClearGameRoot() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.store.DeleteSetting(store.KeyGamePath); err != nil {
		return fmt.Errorf("failed to clear game path: %w", err)
	}
	if err := m.store.DeleteSetting(store.KeyAddonOrder); err != nil {
		return fmt.Errorf("failed to clear addon order: %w", err)
	}

	m.gameRoot = ""
	m.order = nil
	m.previews = make(map[string]string)
	m.sizes = make(map[string]int64)
	return nil
}

// SourceDir returns the workshop directory packages are discovered in.
func (m *Manager) SourceDir() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sourceDir()
}

// Entries returns a copy of the current activation order.
func (m *Manager) Entries() []Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return cloneEntries(m.order)
}

// Previews returns package name to preview image path pairs from the last Refresh.
func (m *Manager) Previews() map[string]string {
	m.mu.Lock()
	defer m.mu.Unlock()

	out := make(map[string]string, len(m.previews))
	for k, v := range m.previews {
		out[k] = v
	}
	return out
}

// Size returns the package size recorded by the last Refresh.
func (m *Manager) Size(name string) int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sizes[name]
}

// Running reports the game running flag.
func (m *Manager) Running() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.running
}

// Refresh discovers the workshop packages and reconciles them with the
// activation order. Enabled addons whose staged package is missing are
// marked disabled. When PruneOrphans is set, enabled addons whose package
// vanished have their staging directory removed. The order is flushed and
// gameinfo.txt regenerated afterwards.
//
// A DiscoveryError leaves the previous state untouched. Mirror, flush and
// config failures are joined into the returned error while the refreshed
// order is kept.
func (m *Manager) Refresh() ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gameRoot == "" {
		return nil, ErrNoGamePath
	}

	d, err := Discover(m.fs, m.sourceDir())
	if err != nil {
		m.log.Error("Cannot discover addons", slog.String("dir", m.sourceDir()), slog.Any("error", err))
		return cloneEntries(m.order), err
	}

	_, dropped := Reconcile(m.order, d.Names)
	mirror := m.mirror()

	var errs []error
	if m.pruneOrphans {
		for _, e := range dropped {
			if !e.Enabled {
				continue
			}
			if err := mirror.Unstage(e); err != nil {
				m.log.Error("Cannot remove orphaned addon", slog.String("addon", e.Name), slog.Any("error", err))
				errs = append(errs, err)
				continue
			}
			m.log.Info("Removed orphaned addon", slog.String("addon", e.Name), slog.String("addon_id", e.AddonID))
		}
	}

	// New entries must not take over a directory that is still on disk.
	next, _ := Reconcile(m.order, d.Names, m.occupiedIDs(mirror, dropped)...)

	for i := range next {
		if !next[i].Enabled || mirror.IsStaged(next[i]) {
			continue
		}

		m.log.Warn("Enabled addon is not staged, disabling", slog.String("addon", next[i].Name), slog.String("addon_id", next[i].AddonID))
		next[i].Enabled = false
		if mirror.StagingExists(next[i]) {
			if err := mirror.Unstage(next[i]); err != nil {
				m.log.Error("Cannot remove half-staged addon", slog.String("addon", next[i].Name), slog.Any("error", err))
				errs = append(errs, err)
			}
		}
	}

	m.order = next
	m.previews = d.Previews
	m.sizes = d.Sizes

	if err := m.flush(); err != nil {
		errs = append(errs, err)
	}
	if err := m.regenerate(); err != nil {
		errs = append(errs, err)
	}

	return cloneEntries(m.order), errors.Join(errs...)
}

// Toggle flips the enabled flag of the named addon, staging or unstaging
// its package. If the filesystem work fails the flag is left as it was.
// Once the flag has changed, flush and config failures are still reported
// but do not undo the change.
func (m *Manager) Toggle(name string) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.toggle(name)
}

// SetEnabled enables or disables the named addon. It does nothing when the
// addon is already in the requested state.
func (m *Manager) SetEnabled(name string, enabled bool) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := indexOf(m.order, name)
	if idx == -1 {
		return cloneEntries(m.order), fmt.Errorf("%s: %w", name, ErrNotFound)
	}
	if m.order[idx].Enabled == enabled {
		return cloneEntries(m.order), nil
	}

	return m.toggle(name)
}

func (m *Manager) toggle(name string) ([]Entry, error) {
	if m.gameRoot == "" {
		return nil, ErrNoGamePath
	}

	idx := indexOf(m.order, name)
	if idx == -1 {
		return cloneEntries(m.order), fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	e := m.order[idx]
	mirror := m.mirror()

	var err error
	if e.Enabled {
		err = mirror.Unstage(e)
	} else {
		err = mirror.Stage(e)
	}
	if err != nil {
		m.log.Error("Cannot toggle addon", slog.String("addon", name), slog.Any("error", err))
		return cloneEntries(m.order), err
	}

	m.order[idx].Enabled = !e.Enabled
	m.log.Info("Toggled addon", slog.String("addon", name),
		slog.String("addon_id", e.AddonID), slog.Bool("enabled", m.order[idx].Enabled))

	return cloneEntries(m.order), m.persist()
}

// Move swaps the named addon with its neighbour in the given direction and
// renumbers every entry so that Order equals its position. Moving past
// either end leaves the order as it is, but it is still renumbered.
func (m *Manager) Move(name string, dir Direction) ([]Entry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := indexOf(m.order, name)
	if idx == -1 {
		return cloneEntries(m.order), fmt.Errorf("%s: %w", name, ErrNotFound)
	}

	switch dir {
	case Up:
		if idx > 0 {
			m.order[idx], m.order[idx-1] = m.order[idx-1], m.order[idx]
		}
	case Down:
		if idx < len(m.order)-1 {
			m.order[idx], m.order[idx+1] = m.order[idx+1], m.order[idx]
		}
	default:
		return cloneEntries(m.order), fmt.Errorf("invalid direction %q", dir)
	}

	for i := range m.order {
		m.order[i].Order = i
	}

	return cloneEntries(m.order), m.persist()
}

// SetRunning records whether the game is running and regenerates
// gameinfo.txt accordingly. The activation order is not touched.
func (m *Manager) SetRunning(running bool) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.running = running
	if err := m.store.SetSetting(store.KeyGameRunning, strconv.FormatBool(running)); err != nil {
		return fmt.Errorf("failed to save running flag: %w", err)
	}

	return m.regenerate()
}

// RecreateActive rebuilds the staging directory of every enabled addon.
// Failures are logged and collected; the remaining addons are still processed.
func (m *Manager) RecreateActive() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.gameRoot == "" {
		return ErrNoGamePath
	}

	mirror := m.mirror()
	var errs []error
	for _, e := range m.order {
		if !e.Enabled {
			continue
		}
		if err := mirror.Restage(e); err != nil {
			m.log.Error("Cannot recreate addon", slog.String("addon", e.Name), slog.Any("error", err))
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

// Regenerate rewrites gameinfo.txt from the current state.
func (m *Manager) Regenerate() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.regenerate()
}

// Flush writes the activation order to the store.
func (m *Manager) Flush() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.flush()
}

func (m *Manager) persist() error {
	var errs []error
	if err := m.flush(); err != nil {
		errs = append(errs, err)
	}
	if err := m.regenerate(); err != nil {
		errs = append(errs, err)
	}
	return errors.Join(errs...)
}

func (m *Manager) flush() error {
	order := m.order
	if order == nil {
		order = []Entry{}
	}

	data, err := json.Marshal(order)
	if err != nil {
		return fmt.Errorf("failed to marshal addon order: %w", err)
	}

	if err := m.store.SetSetting(store.KeyAddonOrder, string(data)); err != nil {
		m.log.Error("Cannot save addon order", slog.Any("error", err))
		return fmt.Errorf("failed to save addon order: %w", err)
	}

	return nil
}

func (m *Manager) regenerate() error {
	if m.gameRoot == "" {
		return nil
	}

	path := gameinfo.Path(m.gameRoot, m.gameSubdir)
	ids := EnabledIDs(m.order)
	if err := gameinfo.Write(m.fs, path, gameinfo.Render(ids, m.running)); err != nil {
		m.log.Error("Cannot update gameinfo.txt", slog.String("path", path), slog.Any("error", err))
		return err
	}

	m.log.Debug("gameinfo.txt updated", slog.Bool("running", m.running), slog.Int("selected", len(ids)))
	return nil
}

// occupiedIDs returns the ids whose staging directory exists. If the game
// root cannot be listed it falls back to the dropped entries' directories.
func (m *Manager) occupiedIDs(mirror *Mirror, dropped []Entry) []string {
	ids, err := mirror.StagedIDs()
	if err == nil {
		return ids
	}

	m.log.Warn("Cannot list staging directories", slog.Any("error", err))
	ids = nil
	for _, e := range dropped {
		if mirror.StagingExists(e) {
			ids = append(ids, e.AddonID)
		}
	}
	return ids
}

func (m *Manager) sourceDir() string {
	if m.gameRoot == "" {
		return ""
	}
	return filepath.Join(m.gameRoot, m.gameSubdir, "addons", "workshop")
}

func (m *Manager) mirror() *Mirror {
	return NewMirror(m.fs, m.sourceDir(), m.gameRoot, m.log)
}

func (m *Manager) getSetting(key string) (string, error) {
	value, err := m.store.GetSetting(key)
	if errors.Is(err, store.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("failed to read %s: %w", key, err)
	}
	return value, nil
}
