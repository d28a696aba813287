package dataset

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseGenres(t *testing.T) {
	t.Run("single quoted", func(t *testing.T) {
		names, ok := ParseGenres("[{'name': 'Action'}]")
		require.True(t, ok)
		assert.Equal(t, []string{"Action"}, names)
	})

	t.Run("double quoted with ids", func(t *testing.T) {
		names, ok := ParseGenres(`[{"id": 28, "name": "Action"}, {"id": 12, "name": "Adventure"}]`)
		require.True(t, ok)
		assert.Equal(t, []string{"Action", "Adventure"}, names)
	})

	t.Run("apostrophe inside double quotes", func(t *testing.T) {
		names, ok := ParseGenres(`[{'id': 1, 'name': "Children's"}]`)
		require.True(t, ok)
		assert.Equal(t, []string{"Children's"}, names)
	})

	t.Run("empty list", func(t *testing.T) {
		names, ok := ParseGenres("[]")
		require.True(t, ok)
		assert.Empty(t, names)
	})

	for _, raw := range []string{"", "not json", "{'name': 'Action'}", "42", "[{'name': 'Action'"} {
		_, ok := ParseGenres(raw)
		assert.False(t, ok, "input %q", raw)
	}
}

func TestFormatGenres(t *testing.T) {
	assert.Equal(t, "Action", FormatGenres("[{'name': 'Action'}]"))
	assert.Equal(t, "Drama, Romance", FormatGenres(`[{"name": "Drama"}, {"name": "Romance"}]`))
	assert.Equal(t, "Science Fiction", FormatGenres(`[{'id': 878, 'name': 'Science Fiction'}]`))

	for _, raw := range []string{"not json", "", "[{'name': 'Action'"} {
		assert.NotPanics(t, func() {
			assert.Equal(t, raw, FormatGenres(raw))
		})
	}
}
