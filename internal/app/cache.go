package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/l4d2tools/addonctl/internal/catalog"
	"github.com/l4d2tools/addonctl/internal/output"
)

var (
	cacheCmd = &cobra.Command{
		Use:   "cache",
		Short: "Inspect and maintain the workshop title cache",
		Long: `Inspect and maintain the local cache of workshop titles and descriptions.

Records stay fresh for a week after they were fetched. Stale records are
refetched on demand; 'cache cleanup' removes them from the database.`,
		Example: `  # Show how many records are cached
  addonctl cache stats

  # List cached records
  addonctl cache list

  # Remove stale records
  addonctl cache cleanup

  # Remove everything
  addonctl cache clear`,
	}

	cacheStatsCmd = &cobra.Command{
		Use:   "stats",
		Short: "Show cached and fresh record counts",
		Args:  cobra.NoArgs,
		RunE:  runCacheStats,
	}

	cacheListCmd = &cobra.Command{
		Use:   "list",
		Short: "List cached records",
		Args:  cobra.NoArgs,
		RunE:  runCacheList,
	}

	cacheCleanupCmd = &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stale records",
		Args:  cobra.NoArgs,
		RunE:  runCacheCleanup,
	}

	cacheClearCmd = &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached records",
		Args:  cobra.NoArgs,
		RunE:  runCacheClear,
	}
)

func init() {
	cacheCmd.AddCommand(cacheStatsCmd)
	cacheCmd.AddCommand(cacheListCmd)
	cacheCmd.AddCommand(cacheCleanupCmd)
	cacheCmd.AddCommand(cacheClearCmd)

	// Register with root command
	RootCmd.AddCommand(cacheCmd)
}

func runCacheStats(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	stats, err := s.cache.Stats()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderCacheStats(stats.Total, stats.Valid))
	return nil
}

func runCacheList(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := s.store.ListCatalogEntries()
	if err != nil {
		return fmt.Errorf("failed to read cache: %w", err)
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderCatalogTable(entries, time.Now(), catalog.CacheTTL))
	return nil
}

func runCacheCleanup(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	n, err := s.cache.CleanupExpired()
	if err != nil {
		return fmt.Errorf("failed to clean up cache: %w", err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Removed %d stale record(s)\n", n)
	return nil
}

func runCacheClear(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	if err := s.cache.Clear(); err != nil {
		return fmt.Errorf("failed to clear cache: %w", err)
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Cache cleared.")
	return nil
}
