package dataset

import (
	"fmt"

	"github.com/timmy/semindex/internal/domain"
)

// Movies is the TMDB movie metadata dataset.
type Movies struct{}

func (Movies) Name() string           { return "movies" }
func (Movies) NormalizeColumns() bool { return false }
func (Movies) FillMissing() bool      { return true }

func (Movies) Sentence(rec domain.Record) string {
	raw := func(col string) string {
		return RawValue(rec.Get(col))
	}
	return fmt.Sprintf(
		"Movie titled '%s' is a %s film with a rating of %s and popularity score %s. Overview: %s",
		raw("original_title"),
		FormatGenres(raw("genres")),
		raw("vote_average"),
		raw("popularity"),
		raw("overview"),
	)
}

// RecordID is the dataset's native id column.
func (Movies) RecordID(rec domain.Record) string {
	return RawValue(rec.Get("id"))
}
