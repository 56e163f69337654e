package app

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/l4d2tools/addonctl/internal/addons"
	"github.com/l4d2tools/addonctl/internal/catalog"
	"github.com/l4d2tools/addonctl/internal/output"
	"github.com/l4d2tools/addonctl/internal/store"
)

var (
	listNoTitles bool
	listEnabled  bool

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List workshop addons in activation order",
		Long: `Scan the workshop directory and list every addon in activation order.

The scan picks up new downloads and drops packages that were removed. Enabled
addons whose copy is incomplete are switched off. The table shows each
addon's position, state, addon id, size and workshop title. Titles marked
with * have a preview image next to the package.`,
		Example: `  # List all addons with titles
  addonctl list

  # Only enabled addons, without contacting the workshop
  addonctl list --enabled --no-titles`,
		Args: cobra.NoArgs,
		RunE: runList,
	}
)

func init() {
	listCmd.Flags().BoolVar(&listNoTitles, "no-titles", false, "skip workshop title lookup")
	listCmd.Flags().BoolVar(&listEnabled, "enabled", false, "only show enabled addons")

	// Register with root command
	RootCmd.AddCommand(listCmd)
}

func runList(cmd *cobra.Command, args []string) error {
	s, err := openSession(cmd)
	if err != nil {
		return err
	}
	defer s.Close()

	entries, err := refreshFor(cmd, s)
	if err != nil {
		return err
	}

	var titles map[string]*store.CatalogEntry
	if !listNoTitles && len(entries) > 0 {
		titles = lookupTitles(commandContext(cmd), s, entries)
	}

	fmt.Fprint(cmd.OutOrStdout(), output.RenderAddonTable(buildRows(s, entries, titles, listEnabled)))
	return nil
}

// lookupTitles resolves catalog records for entries behind a spinner.
func lookupTitles(ctx context.Context, s *session, entries []addons.Entry) map[string]*store.CatalogEntry {
	names := make([]string, len(entries))
	for i, e := range entries {
		names[i] = e.Name
	}

	spinner := output.NewSpinner("Fetching addon titles")
	spinner.Start()
	defer spinner.Stop()

	return s.cache.GetTitlesBatch(ctx, names)
}

func buildRows(s *session, entries []addons.Entry, titles map[string]*store.CatalogEntry, enabledOnly bool) []output.AddonRow {
	previews := s.manager.Previews()

	rows := make([]output.AddonRow, 0, len(entries))
	for i, e := range entries {
		if enabledOnly && !e.Enabled {
			continue
		}

		title := e.Name
		if id, ok := catalog.ExtractID(e.Name); ok {
			title = id
			if rec := titles[id]; rec != nil && rec.Title != "" {
				title = rec.Title
			}
		}

		_, hasPreview := previews[e.Name]
		rows = append(rows, output.AddonRow{
			Position:   i + 1,
			Entry:      e,
			Title:      title,
			Size:       s.manager.Size(e.Name),
			HasPreview: hasPreview,
		})
	}
	return rows
}
