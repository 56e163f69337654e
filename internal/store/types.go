package store

import "time"

// Setting keys used by addonctl.
const (
	KeyGamePath    = "game_path"
	KeyAddonOrder  = "addon_order"
	KeyGameRunning = "game_running"
)

// CatalogEntry is a cached remote catalog record for one workshop item.
type CatalogEntry struct {
	WorkshopID  string
	Title       string
	Description string
	LastUpdated time.Time
}
