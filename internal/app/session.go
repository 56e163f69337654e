package app

import (
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/l4d2tools/addonctl/internal/addons"
	"github.com/l4d2tools/addonctl/internal/catalog"
	"github.com/l4d2tools/addonctl/internal/config"
	"github.com/l4d2tools/addonctl/internal/store"
)

// catalogTimeout bounds a single remote catalog request.
const catalogTimeout = 30 * time.Second

// session bundles the services one command invocation works with.
type session struct {
	cfg     *config.Config
	log     *slog.Logger
	store   *store.Store
	manager *addons.Manager
	cache   *catalog.Cache
}

// openSession loads the config, opens the database and restores the
// activation order. Callers must Close the session.
func openSession(cmd *cobra.Command) (*session, error) {
	dir, err := getConfigDir()
	if err != nil {
		return nil, err
	}

	cfg, err := config.Load(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, err := newLogger(cmd.ErrOrStderr(), cfg.LogLevel)
	if err != nil {
		return nil, err
	}

	path := dbPath
	if path == "" {
		if path, err = cfg.ResolveDBPath(dir); err != nil {
			return nil, err
		}
	}

	st, err := store.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	manager := addons.NewManager(addons.Options{
		FS:           afero.NewOsFs(),
		Store:        st,
		Log:          logger,
		GameSubdir:   cfg.GameSubdir,
		PruneOrphans: cfg.PruneOrphans,
	})
	if err := manager.Load(); err != nil {
		st.Close()
		return nil, fmt.Errorf("failed to load addon state: %w", err)
	}

	cache := catalog.New(catalog.Options{
		Store:   st,
		Fetcher: catalog.NewClient(cfg.CatalogURL, &http.Client{Timeout: catalogTimeout}),
		Log:     logger,
		Workers: cfg.FetchWorkers,
	})

	return &session{
		cfg:     cfg,
		log:     logger,
		store:   st,
		manager: manager,
		cache:   cache,
	}, nil
}

// Close releases the database.
func (s *session) Close() error {
	return s.store.Close()
}

// newLogger returns a slog logger backed by a charmbracelet handler.
func newLogger(w io.Writer, level string) (*slog.Logger, error) {
	lvl, err := log.ParseLevel(strings.ToLower(level))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	handler := log.NewWithOptions(w, log.Options{
		Prefix:          "addonctl",
		Level:           lvl,
		ReportTimestamp: true,
		TimeFormat:      time.Kitchen,
	})
	return slog.New(handler), nil
}

// getConfigDir returns the config directory, using the flag value or default
func getConfigDir() (string, error) {
	if configDir != "" {
		return configDir, nil
	}

	dir, err := config.Dir()
	if err != nil {
		return "", fmt.Errorf("failed to get config directory: %w", err)
	}
	return dir, nil
}
