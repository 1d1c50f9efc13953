package db

import (
	"log"

	"albion-flipper/internal/engine"
)

// InsertFlipResults bulk-inserts flip opportunities linked to a scan history record.
func (d *DB) InsertFlipResults(scanID int64, results []engine.FlipOpportunity) {
	if scanID == 0 || len(results) == 0 {
		return
	}

	tx, err := d.sql.Begin()
	if err != nil {
		log.Printf("[DB] InsertFlipResults begin tx: %v", err)
		return
	}

	stmt, err := tx.Prepare(`INSERT INTO flip_results (
		scan_id, item_id, quality, source_city, dest_city, strategy,
		buy_price, sell_price, roi_percent, risk_level,
		suggested_quantity, liquidity, data_age_seconds
	) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?)`)
	if err != nil {
		tx.Rollback()
		log.Printf("[DB] InsertFlipResults prepare: %v", err)
		return
	}
	defer stmt.Close()

	for _, r := range results {
		if _, err := stmt.Exec(
			scanID, r.ItemID, int(r.Quality), string(r.SourceCity), string(r.DestCity), string(r.Strategy),
			r.BuyPriceAfterFee, r.SellPriceAfterFee, r.ROIPercent, int(r.RiskLevel),
			r.SuggestedQuantity, r.Liquidity, r.DataAgeSeconds,
		); err != nil {
			log.Printf("[DB] InsertFlipResults exec %s: %v", r.ItemID, err)
		}
	}

	if err := tx.Commit(); err != nil {
		log.Printf("[DB] InsertFlipResults commit: %v", err)
	}
}

// GetFlipResults retrieves the stored opportunities of a scan in insertion order.
func (d *DB) GetFlipResults(scanID int64) []engine.FlipOpportunity {
	rows, err := d.sql.Query(`
		SELECT item_id, quality, source_city, dest_city, strategy,
			buy_price, sell_price, roi_percent, risk_level,
			suggested_quantity, liquidity, data_age_seconds
		FROM flip_results WHERE scan_id = ? ORDER BY id
	`, scanID)
	if err != nil {
		return nil
	}
	defer rows.Close()

	var results []engine.FlipOpportunity
	for rows.Next() {
		var (
			r                  engine.FlipOpportunity
			quality, risk      int
			src, dst, strategy string
		)
		if err := rows.Scan(
			&r.ItemID, &quality, &src, &dst, &strategy,
			&r.BuyPriceAfterFee, &r.SellPriceAfterFee, &r.ROIPercent, &risk,
			&r.SuggestedQuantity, &r.Liquidity, &r.DataAgeSeconds,
		); err != nil {
			continue
		}
		r.Quality = engine.Quality(quality)
		r.SourceCity = engine.City(src)
		r.DestCity = engine.City(dst)
		r.Strategy = engine.FlipStrategy(strategy)
		r.RiskLevel = engine.RiskLevel(risk)
		results = append(results, r)
	}
	return results
}
