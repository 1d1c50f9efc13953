package db

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"albion-flipper/internal/engine"
)

// InsertObservations stores observations, ignoring exact duplicates of
// (item, city, quality, observed_at). Returns the number of new rows.
func (d *DB) InsertObservations(ctx context.Context, obs []engine.PriceObservation) (int, error) {
	if len(obs) == 0 {
		return 0, nil
	}
	tx, err := d.sql.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `INSERT OR IGNORE INTO prices (
		item_id, city, quality, observed_at, sell_price_min, buy_price_max, source_tag
	) VALUES (?,?,?,?,?,?,?)`)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	inserted := 0
	for _, o := range obs {
		res, err := stmt.ExecContext(ctx,
			o.ItemID, string(o.City), int(o.Quality), o.ObservedAt.Unix(),
			o.SellPriceMin, o.BuyPriceMax, o.SourceTag,
		)
		if err != nil {
			return 0, fmt.Errorf("insert %s/%s: %w", o.ItemID, o.City, err)
		}
		if n, _ := res.RowsAffected(); n > 0 {
			inserted++
		}
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return inserted, nil
}

// GetLatest implements engine.PriceRepository.
func (d *DB) GetLatest(ctx context.Context, itemID string, city engine.City, quality engine.Quality) (engine.PriceObservation, bool, error) {
	row := d.sql.QueryRowContext(ctx, `
		SELECT item_id, city, quality, observed_at, sell_price_min, buy_price_max, source_tag
		FROM prices WHERE item_id = ? AND city = ? AND quality = ?
		ORDER BY observed_at DESC LIMIT 1`,
		itemID, string(city), int(quality),
	)
	o, err := scanObservation(row)
	if errors.Is(err, sql.ErrNoRows) {
		return engine.PriceObservation{}, false, nil
	}
	if err != nil {
		return engine.PriceObservation{}, false, err
	}
	return o, true, nil
}

// History implements engine.HistoryRepository. Observations are oldest first.
func (d *DB) History(ctx context.Context, itemID string, city engine.City, quality engine.Quality, since time.Time) ([]engine.PriceObservation, error) {
	rows, err := d.sql.QueryContext(ctx, `
		SELECT item_id, city, quality, observed_at, sell_price_min, buy_price_max, source_tag
		FROM prices WHERE item_id = ? AND city = ? AND quality = ? AND observed_at >= ?
		ORDER BY observed_at`,
		itemID, string(city), int(quality), since.Unix(),
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []engine.PriceObservation
	for rows.Next() {
		o, err := scanObservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, o)
	}
	return out, rows.Err()
}

// KnownItems returns every item with at least one stored observation, sorted.
func (d *DB) KnownItems(ctx context.Context) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, "SELECT DISTINCT item_id FROM prices ORDER BY item_id")
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var items []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		items = append(items, id)
	}
	return items, rows.Err()
}

// CleanupOldPrices deletes observations older than maxAge.
func (d *DB) CleanupOldPrices(maxAge time.Duration) (int64, error) {
	cutoff := time.Now().Add(-maxAge).Unix()
	res, err := d.sql.Exec("DELETE FROM prices WHERE observed_at < ?", cutoff)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

type scanner interface {
	Scan(dest ...interface{}) error
}

func scanObservation(s scanner) (engine.PriceObservation, error) {
	var (
		o        engine.PriceObservation
		city     string
		quality  int
		observed int64
	)
	if err := s.Scan(&o.ItemID, &city, &quality, &observed, &o.SellPriceMin, &o.BuyPriceMax, &o.SourceTag); err != nil {
		return engine.PriceObservation{}, err
	}
	o.City = engine.City(city)
	o.Quality = engine.Quality(quality)
	o.ObservedAt = time.Unix(observed, 0).UTC()
	return o, nil
}
