package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/timmy/semindex/internal/domain"
)

var phoneColumns = []string{
	"brand", "model", "storage", "ram", "screen_size_inches",
	"camera_mp", "battery_capacity_mah", "price_$",
}

func TestPhones_Sentence(t *testing.T) {
	rec := domain.NewRecord(0, phoneColumns, []string{
		"Samsung", "Galaxy S21", "128GB", "8 GB", "6.2", "12MP + 64MP + 12MP", "4000mAh", "$799",
	})

	got := Phones{}.Sentence(rec)
	assert.Equal(t,
		"The Samsung Galaxy S21 has 128GB storage, 8GB RAM, 6.2 inch screen, 12 + 64 + 12 MP camera(s), 4000 mAh battery, and costs $799.",
		got)
}

func TestPhones_SentenceFieldOrder(t *testing.T) {
	values := []string{"Brandx", "Modely", "111", "222", "3.33", "444", "5555", "6666"}
	rec := domain.NewRecord(0, phoneColumns, values)
	got := Phones{}.Sentence(rec)

	last := -1
	for _, v := range values {
		assert.Equal(t, 1, strings.Count(got, v), "value %q should appear once", v)
		idx := strings.Index(got, v)
		assert.Greater(t, idx, last, "value %q out of template order", v)
		last = idx
	}
}

func TestPhones_SentenceMissingFields(t *testing.T) {
	// ram column absent, trailing cells cut off
	rec := domain.NewRecord(0, []string{"brand", "model", "storage"}, []string{"Nokia", "3310"})

	var got string
	require.NotPanics(t, func() { got = Phones{}.Sentence(rec) })
	assert.Equal(t,
		"The Nokia 3310 has GB storage, GB RAM,  inch screen,  MP camera(s),  mAh battery, and costs $.",
		got)
}

func TestPhones_RecordID(t *testing.T) {
	rec := domain.NewRecord(3, phoneColumns, []string{"Apple", "iPhone 13", "128GB"})
	assert.Equal(t, "Apple_iPhone 13_3", Phones{}.RecordID(rec))
}

func TestMovies_Sentence(t *testing.T) {
	cols := []string{"id", "genres", "original_title", "overview", "popularity", "vote_average"}
	rec := domain.NewRecord(0, cols, []string{
		"19995",
		`[{"id": 28, "name": "Action"}, {"id": 12, "name": "Adventure"}]`,
		"Avatar",
		"In the 22nd century, a paraplegic Marine is dispatched to the moon Pandora.",
		"150.437577",
		"7.2",
	})

	got := Movies{}.Sentence(rec)
	assert.Equal(t,
		"Movie titled 'Avatar' is a Action, Adventure film with a rating of 7.2 and popularity score 150.437577. "+
			"Overview: In the 22nd century, a paraplegic Marine is dispatched to the moon Pandora.",
		got)
	assert.Equal(t, "19995", Movies{}.RecordID(rec))
}

func TestMovies_SentenceUnparseableGenres(t *testing.T) {
	cols := []string{"id", "genres", "original_title"}
	rec := domain.NewRecord(0, cols, []string{"1", "Drama/Comedy", "Odd"})

	got := Movies{}.Sentence(rec)
	assert.Contains(t, got, "is a Drama/Comedy film")
	assert.Contains(t, got, "Overview: ")
}

func TestLookup(t *testing.T) {
	d, err := Lookup("phones")
	require.NoError(t, err)
	assert.Equal(t, "phones", d.Name())

	_, err = Lookup("cars")
	assert.ErrorIs(t, err, ErrUnknownDataset)

	assert.Equal(t, []string{"movies", "phones"}, Names())
}

func TestSentences_PreservesOrder(t *testing.T) {
	cols := []string{"id", "original_title"}
	records := []domain.Record{
		domain.NewRecord(0, cols, []string{"1", "First"}),
		domain.NewRecord(1, cols, []string{"2", "Second"}),
	}
	got := Sentences(Movies{}, records)
	require.Len(t, got, 2)
	assert.Contains(t, got[0], "'First'")
	assert.Contains(t, got[1], "'Second'")
}
