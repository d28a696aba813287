package dataset

import (
	"fmt"

	"github.com/timmy/semindex/internal/domain"
)

// Phones is the mobile phone price dataset.
type Phones struct{}

func (Phones) Name() string           { return "phones" }
func (Phones) NormalizeColumns() bool { return true }
func (Phones) FillMissing() bool      { return false }

func (Phones) Sentence(rec domain.Record) string {
	clean := func(col string) string {
		return CleanValue(rec.Get(col))
	}
	raw := func(col string) string {
		return RawValue(rec.Get(col))
	}
	return fmt.Sprintf(
		"The %s %s has %sGB storage, %sGB RAM, %s inch screen, %s MP camera(s), %s mAh battery, and costs $%s.",
		raw("brand"),
		raw("model"),
		clean("storage"),
		clean("ram"),
		clean("screen_size_inches"),
		clean("camera_mp"),
		clean("battery_capacity_mah"),
		clean(priceColumn(rec)),
	)
}

// RecordID is brand_model_row. Duplicate brand/model pairs stay distinct
// through the row index.
func (Phones) RecordID(rec domain.Record) string {
	return fmt.Sprintf("%s_%s_%d", RawValue(rec.Get("brand")), RawValue(rec.Get("model")), rec.RowIndex)
}

// priceColumn picks the price key. "Price ($)" normalizes to "price_$", while
// headers without the currency sign normalize to "price_" or "price".
func priceColumn(rec domain.Record) string {
	for _, col := range []string{"price_", "price_$", "price"} {
		if _, ok := rec.Get(col); ok {
			return col
		}
	}
	return "price_"
}
