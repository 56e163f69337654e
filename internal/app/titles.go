package app

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/l4d2tools/addonctl/internal/catalog"
	"github.com/l4d2tools/addonctl/internal/output"
	"github.com/l4d2tools/addonctl/internal/store"
)

var (
	titlesRefresh bool

	titlesCmd = &cobra.Command{
		Use:   "titles",
		Short: "Show workshop titles for all known addons",
		Long: `Look up the workshop title and description of every known addon.

Records are cached for a week. With --refresh the cached records of the
known addons are dropped and fetched again. Addons whose lookup fails are
shown with their workshop id as title and are retried on the next run.`,
		Example: `  # Show cached or freshly fetched titles
  addonctl titles

  # Force a new lookup
  addonctl titles --refresh`,
		Args: cobra.NoArgs,
		RunE: runTitles,
	}
)

func init() {
	titlesCmd.Flags().BoolVar(&titlesRefresh, "refresh", false, "drop cached records and fetch them again")

	// Register with root command
	RootCmd.AddCommand(titlesCmd)
}

func runTitles(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	entries := s.manager.Entries()
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	spinner := output.NewSpinner("Fetching addon titles")
	spinner.Start()
	var records map[string]*store.CatalogEntry
	if titlesRefresh {
		records = s.cache.Refresh(commandContext(cmd), names)
	} else {
		records = s.cache.GetTitlesBatch(commandContext(cmd), names)
	}
	spinner.Stop()

	// Keep activation order.
	ordered := make([]*store.CatalogEntry, 0, len(records))
	for _, id := range catalog.ExtractIDs(names) {
		rec, ok := records[id]
		if !ok {
			rec = &store.CatalogEntry{WorkshopID: id, Title: id}
		}
		ordered = append(ordered, rec)
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderCatalogTable(ordered, time.Now(), catalog.CacheTTL))
	return nil
}
