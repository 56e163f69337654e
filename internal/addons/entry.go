// Package addons owns the activation state of downloaded workshop packages:
// discovering them, reconciling them against the persisted activation order,
// mirroring enabled packages into staging directories the game scans, and
// keeping gameinfo.txt in step with the enabled set.
package addons

import (
	"fmt"
	"sort"
	"strconv"
	"strings"
)

const (
	// PackageExt is the extension of addon package files.
	PackageExt = ".vpk"
	// PreviewExt is the extension of the preview image shipped beside a package.
	PreviewExt = ".jpg"
	// StagedFileName is the file name the loader expects inside a staging directory.
	StagedFileName = "pak01_dir.vpk"

	idPrefix = "addon"
)

// Entry is one discovered package and its activation state.
type Entry struct {
	Name    string `json:"name"`
	Order   int    `json:"order"`
	Enabled bool   `json:"enabled"`
	AddonID string `json:"addonId"`
}

// Direction is the way Move shifts an entry.
type Direction string

const (
	Up   Direction = "up"
	Down Direction = "down"
)

// ParseDirection converts user input into a Direction.
func ParseDirection(s string) (Direction, error) {
	switch Direction(strings.ToLower(s)) {
	case Up:
		return Up, nil
	case Down:
		return Down, nil
	default:
		return "", fmt.Errorf("invalid direction %q (must be up or down)", s)
	}
}

// NextAddonID returns the lowest-numbered addon<N> id not used by entries
// and not listed in reserved. The scan is linear in the number of entries,
// which is fine for the few hundred addons a game install realistically holds.
func NextAddonID(entries []Entry, reserved ...string) string {
	used := make(map[string]struct{}, len(entries)+len(reserved))
	for _, e := range entries {
		used[e.AddonID] = struct{}{}
	}
	for _, id := range reserved {
		used[id] = struct{}{}
	}

	for n := 1; ; n++ {
		id := idPrefix + strconv.Itoa(n)
		if _, ok := used[id]; !ok {
			return id
		}
	}
}

// IsAddonID reports whether s has the addon<N> form.
func IsAddonID(s string) bool {
	digits, ok := strings.CutPrefix(s, idPrefix)
	if !ok {
		return false
	}
	n, err := strconv.Atoi(digits)
	return err == nil && n > 0 && strconv.Itoa(n) == digits
}

// EnabledIDs returns the addon ids of enabled entries sorted by Order.
// Entries with equal Order keep their slice position.
func EnabledIDs(entries []Entry) []string {
	enabled := make([]Entry, 0, len(entries))
	for _, e := range entries {
		if e.Enabled {
			enabled = append(enabled, e)
		}
	}

	sort.SliceStable(enabled, func(i, j int) bool {
		return enabled[i].Order < enabled[j].Order
	})

	ids := make([]string, len(enabled))
	for i, e := range enabled {
		ids[i] = e.AddonID
	}
	return ids
}

// EnabledCount returns how many entries are enabled.
func EnabledCount(entries []Entry) int {
	n := 0
	for _, e := range entries {
		if e.Enabled {
			n++
		}
	}
	return n
}

func indexOf(entries []Entry, name string) int {
	for i, e := range entries {
		if e.Name == name {
			return i
		}
	}
	return -1
}

func cloneEntries(entries []Entry) []Entry {
	out := make([]Entry, len(entries))
	copy(out, entries)
	return out
}
