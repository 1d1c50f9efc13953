package db

import (
	"time"
)

// WatchlistItem is an item the user tracks. Tracked items are always fetched,
// and a flip scan raises an alert when one clears MinROI.
type WatchlistItem struct {
	ItemID       string  `json:"item_id"`
	AddedAt      string  `json:"added_at"`
	MinROI       float64 `json:"min_roi"` // percent
	AlertEnabled bool    `json:"alert_enabled"`
	LastAlertAt  string  `json:"last_alert_at,omitempty"`
}

// GetWatchlist returns all watchlist items, newest first.
func (d *DB) GetWatchlist() []WatchlistItem {
	rows, err := d.sql.Query(`
		SELECT item_id, added_at, min_roi, alert_enabled, last_alert_at
		  FROM watchlist
		 ORDER BY added_at DESC, item_id
	`)
	if err != nil {
		return []WatchlistItem{}
	}
	defer rows.Close()

	var items []WatchlistItem
	for rows.Next() {
		var item WatchlistItem
		if err := rows.Scan(&item.ItemID, &item.AddedAt, &item.MinROI, &item.AlertEnabled, &item.LastAlertAt); err != nil {
			continue
		}
		items = append(items, item)
	}
	if items == nil {
		return []WatchlistItem{}
	}
	return items
}

// WatchlistIDs returns the tracked item IDs.
func (d *DB) WatchlistIDs() []string {
	items := d.GetWatchlist()
	ids := make([]string, len(items))
	for i, it := range items {
		ids[i] = it.ItemID
	}
	return ids
}

// HasWatchlistItem checks if an item is already in the watchlist.
func (d *DB) HasWatchlistItem(itemID string) bool {
	var count int
	d.sql.QueryRow("SELECT COUNT(*) FROM watchlist WHERE item_id = ?", itemID).Scan(&count)
	return count > 0
}

// AddWatchlistItem inserts a watchlist item. Returns true if inserted, false if duplicate.
// A positive MinROI enables alerts.
func (d *DB) AddWatchlistItem(item WatchlistItem) bool {
	if item.AddedAt == "" {
		item.AddedAt = time.Now().UTC().Format(time.RFC3339)
	}
	if item.MinROI < 0 {
		item.MinROI = 0
	}
	if item.MinROI > 0 {
		item.AlertEnabled = true
	}
	res, err := d.sql.Exec(
		`INSERT OR IGNORE INTO watchlist (item_id, added_at, min_roi, alert_enabled)
		 VALUES (?, ?, ?, ?)`,
		item.ItemID, item.AddedAt, item.MinROI, item.AlertEnabled,
	)
	if err != nil {
		return false
	}
	n, _ := res.RowsAffected()
	return n > 0
}

// DeleteWatchlistItem removes a watchlist item.
func (d *DB) DeleteWatchlistItem(itemID string) {
	d.sql.Exec("DELETE FROM watchlist WHERE item_id = ?", itemID)
}

// UpdateWatchlistItem updates the alert settings of a watchlist item.
func (d *DB) UpdateWatchlistItem(itemID string, minROI float64, alertEnabled bool) {
	if minROI < 0 {
		minROI = 0
	}
	d.sql.Exec("UPDATE watchlist SET min_roi = ?, alert_enabled = ? WHERE item_id = ?", minROI, alertEnabled, itemID)
}

// MarkAlerted records that an alert fired for itemID.
func (d *DB) MarkAlerted(itemID string, at time.Time) {
	d.sql.Exec("UPDATE watchlist SET last_alert_at = ? WHERE item_id = ?", at.UTC().Format(time.RFC3339), itemID)
}
