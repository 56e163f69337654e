// Package output provides terminal output utilities for addonctl.
//
// Table rendering covers the addon activation list, the status summary and
// the catalog cache. ANSI colors are only emitted on a terminal and when
// NO_COLOR is unset.
package output

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/mattn/go-isatty"

	"github.com/l4d2tools/addonctl/internal/addons"
	"github.com/l4d2tools/addonctl/internal/store"
)

// ANSI color codes for addon state display
const (
	colorReset  = "\033[0m"
	colorGreen  = "\033[32m"
	colorYellow = "\033[33m"
	colorRed    = "\033[31m"
	colorGray   = "\033[90m"
)

// IsColorEnabled returns true if ANSI color codes should be emitted.
// It checks that os.Stdout is a TTY and that the NO_COLOR env var is not set.
func IsColorEnabled() bool {
	if os.Getenv("NO_COLOR") != "" {
		return false
	}
	return isatty.IsTerminal(os.Stdout.Fd())
}

// AddonRow is one line of the addon table.
type AddonRow struct {
	// Position is the 1-based place in the activation order.
	Position   int
	Entry      addons.Entry
	Title      string
	Size       int64
	HasPreview bool
}

// RenderAddonTable renders addons in activation order. The first column is
// the position, which commands accept in place of a file name.
func RenderAddonTable(rows []AddonRow) string {
	if len(rows) == 0 {
		return "No addons found.\n"
	}

	color := IsColorEnabled()
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-4s %-8s %-9s %-9s %-32s %s\n",
		"#", "Status", "Addon ID", "Size", "Title", "File"))
	sb.WriteString(strings.Repeat("─", 90))
	sb.WriteString("\n")

	for _, row := range rows {
		status := "off"
		statusColor := colorGray
		if row.Entry.Enabled {
			status = "ON"
			statusColor = colorGreen
		}

		statusCell := fmt.Sprintf("%-8s", status)
		if color {
			statusCell = statusColor + statusCell + colorReset
		}

		title := row.Title
		if row.HasPreview {
			title = "* " + title
		}

		sb.WriteString(fmt.Sprintf("%-4d %s %-9s %-9s %-32s %s\n",
			row.Position,
			statusCell,
			row.Entry.AddonID,
			formatSize(row.Size),
			truncate(title, 32),
			row.Entry.Name))
	}

	return sb.String()
}

// RenderStatus renders the game path, running flag and enabled count.
func RenderStatus(gameRoot string, running bool, enabled, total int) string {
	var sb strings.Builder

	path := gameRoot
	if path == "" {
		path = "(not set, run 'addonctl path set <dir>')"
	}

	state := "not running"
	stateColor := colorRed
	if running {
		state = "running"
		stateColor = colorGreen
	}
	if IsColorEnabled() {
		state = stateColor + state + colorReset
	}

	sb.WriteString(fmt.Sprintf("Game path:       %s\n", path))
	sb.WriteString(fmt.Sprintf("Game status:     %s\n", state))
	sb.WriteString(fmt.Sprintf("Selected addons: %d of %d\n", enabled, total))

	if running {
		sb.WriteString("\nAddon search paths are left out of gameinfo.txt while the game is running.\n")
	}

	return sb.String()
}

// RenderCatalogTable renders catalog records with their age. Records older
// than ttl are marked stale, records without a fetch time unresolved.
func RenderCatalogTable(entries []*store.CatalogEntry, now time.Time, ttl time.Duration) string {
	if len(entries) == 0 {
		return "Catalog cache is empty.\n"
	}

	color := IsColorEnabled()
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("%-12s %-16s %-40s %s\n", "Workshop ID", "Fetched", "Title", "Description"))
	sb.WriteString(strings.Repeat("─", 100))
	sb.WriteString("\n")

	for _, e := range entries {
		fetched := humanize.RelTime(e.LastUpdated, now, "ago", "from now")
		switch {
		case e.LastUpdated.IsZero():
			fetched = "unresolved"
		case now.Sub(e.LastUpdated) >= ttl:
			fetched = "stale"
			if color {
				fetched = colorYellow + fmt.Sprintf("%-16s", fetched) + colorReset
			}
		}

		sb.WriteString(fmt.Sprintf("%-12s %-16s %-40s %s\n",
			e.WorkshopID,
			fetched,
			truncate(e.Title, 40),
			truncate(firstLine(e.Description), 40)))
	}

	return sb.String()
}

// RenderCacheStats renders the catalog cache summary.
func RenderCacheStats(total, valid int) string {
	return fmt.Sprintf("Cached records: %d\nFresh:          %d\nStale:          %d\n",
		total, valid, total-valid)
}

// formatSize converts bytes to human-readable size.
func formatSize(bytes int64) string {
	if bytes <= 0 {
		return "-"
	}
	return humanize.Bytes(uint64(bytes))
}

// truncate shortens s to max runes, ending with "..." when cut.
func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	if max <= 3 {
		return string(r[:max])
	}
	return string(r[:max-3]) + "..."
}

func firstLine(s string) string {
	if i := strings.IndexAny(s, "\r\n"); i >= 0 {
		return s[:i]
	}
	return s
}
