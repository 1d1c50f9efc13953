package db

import (
	"encoding/json"
	"time"
)

// ScanRecord represents a scan history entry.
type ScanRecord struct {
	ID          int64           `json:"id"`
	Timestamp   string          `json:"timestamp"`
	Kind        string          `json:"kind"` // "flips" or "craft"
	City        string          `json:"city"`
	Count       int             `json:"count"`
	TopProfit   float64         `json:"top_profit"`
	TotalProfit float64         `json:"total_profit"`
	DurationMs  int64           `json:"duration_ms"`
	Params      json.RawMessage `json:"params"`
}

// InsertHistory inserts a scan history record and returns its ID, or 0 on failure.
func (d *DB) InsertHistory(kind, city string, count int, topProfit, totalProfit float64, durationMs int64, params interface{}) int64 {
	paramsJSON, err := json.Marshal(params)
	if err != nil || params == nil {
		paramsJSON = []byte("{}")
	}
	result, err := d.sql.Exec(
		"INSERT INTO scan_history (timestamp, kind, city, count, top_profit, total_profit, duration_ms, params_json) VALUES (?, ?, ?, ?, ?, ?, ?, ?)",
		time.Now().UTC().Format(time.RFC3339), kind, city, count, topProfit, totalProfit, durationMs, string(paramsJSON),
	)
	if err != nil {
		return 0
	}
	id, _ := result.LastInsertId()
	return id
}

// GetHistory returns the last N scan history records (newest first).
func (d *DB) GetHistory(limit int) []ScanRecord {
	if limit <= 0 {
		limit = 50
	}
	rows, err := d.sql.Query(
		`SELECT id, timestamp, kind, city, count, top_profit, total_profit, duration_ms, params_json
		 FROM scan_history ORDER BY id DESC LIMIT ?`,
		limit,
	)
	if err != nil {
		return []ScanRecord{}
	}
	defer rows.Close()

	var records []ScanRecord
	for rows.Next() {
		var r ScanRecord
		var paramsStr string
		if err := rows.Scan(&r.ID, &r.Timestamp, &r.Kind, &r.City, &r.Count, &r.TopProfit, &r.TotalProfit, &r.DurationMs, &paramsStr); err != nil {
			continue
		}
		r.Params = json.RawMessage(paramsStr)
		records = append(records, r)
	}
	if records == nil {
		return []ScanRecord{}
	}
	return records
}

// GetHistoryByID returns a single scan history record.
func (d *DB) GetHistoryByID(id int64) *ScanRecord {
	row := d.sql.QueryRow(
		`SELECT id, timestamp, kind, city, count, top_profit, total_profit, duration_ms, params_json
		 FROM scan_history WHERE id = ?`,
		id,
	)
	var r ScanRecord
	var paramsStr string
	if err := row.Scan(&r.ID, &r.Timestamp, &r.Kind, &r.City, &r.Count, &r.TopProfit, &r.TotalProfit, &r.DurationMs, &paramsStr); err != nil {
		return nil
	}
	r.Params = json.RawMessage(paramsStr)
	return &r
}

// DeleteHistory deletes a scan history record and its stored results.
func (d *DB) DeleteHistory(id int64) error {
	tx, err := d.sql.Begin()
	if err != nil {
		return err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM flip_results WHERE scan_id = ?", id); err != nil {
		return err
	}
	if _, err := tx.Exec("DELETE FROM scan_history WHERE id = ?", id); err != nil {
		return err
	}
	return tx.Commit()
}

// ClearHistory deletes scan history records older than the given number of days.
func (d *DB) ClearHistory(olderThanDays int) (int64, error) {
	cutoff := time.Now().UTC().AddDate(0, 0, -olderThanDays).Format(time.RFC3339)

	tx, err := d.sql.Begin()
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()
	if _, err := tx.Exec("DELETE FROM flip_results WHERE scan_id IN (SELECT id FROM scan_history WHERE timestamp < ?)", cutoff); err != nil {
		return 0, err
	}
	result, err := tx.Exec("DELETE FROM scan_history WHERE timestamp < ?", cutoff)
	if err != nil {
		return 0, err
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	count, _ := result.RowsAffected()
	return count, nil
}
