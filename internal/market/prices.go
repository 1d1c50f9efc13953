package market

import (
	"time"

	"albion-flipper/internal/engine"
)

// aodpTimeLayout is the timestamp format of AODP price dates (UTC, no zone).
const aodpTimeLayout = "2006-01-02T15:04:05"

// priceRecord is one element of the /stats/prices response.
type priceRecord struct {
	ItemID           string `json:"item_id"`
	City             string `json:"city"`
	Quality          int    `json:"quality"`
	SellPriceMin     int64  `json:"sell_price_min"`
	SellPriceMinDate string `json:"sell_price_min_date"`
	SellPriceMax     int64  `json:"sell_price_max"`
	BuyPriceMin      int64  `json:"buy_price_min"`
	BuyPriceMax      int64  `json:"buy_price_max"`
	BuyPriceMaxDate  string `json:"buy_price_max_date"`
}

// normalize turns raw records into observations. Records with both prices
// zero or without any usable date are dropped.
func normalize(records []priceRecord, tag string) []engine.PriceObservation {
	out := make([]engine.PriceObservation, 0, len(records))
	for _, r := range records {
		if r.ItemID == "" || r.City == "" {
			continue
		}
		if r.SellPriceMin <= 0 && r.BuyPriceMax <= 0 {
			continue
		}
		observed := latest(parseDate(r.SellPriceMinDate), parseDate(r.BuyPriceMaxDate))
		if observed.IsZero() {
			continue
		}
		q := r.Quality
		if q <= 0 {
			q = 1
		}
		out = append(out, engine.PriceObservation{
			ItemID:       r.ItemID,
			City:         engine.City(r.City),
			Quality:      engine.Quality(q),
			SellPriceMin: float64(r.SellPriceMin),
			BuyPriceMax:  float64(r.BuyPriceMax),
			ObservedAt:   observed,
			SourceTag:    tag,
		})
	}
	return out
}

// parseDate returns the zero time for empty, unparseable or year-1 dates.
func parseDate(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	t, err := time.ParseInLocation(aodpTimeLayout, s, time.UTC)
	if err != nil {
		t, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}
		}
	}
	if t.Year() <= 1 {
		return time.Time{}
	}
	return t.UTC()
}

func latest(a, b time.Time) time.Time {
	if b.After(a) {
		return b
	}
	return a
}
