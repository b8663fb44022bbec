package editor

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"storymap/internal/models"
)

func TestEditorDirtyCheck(t *testing.T) {
	e, err := New([]models.Place{{Title: "A", Coords: models.NewCoords(1, 2)}})
	require.NoError(t, err)
	assert.False(t, e.Dirty())

	idx := e.Add(models.Place{Title: "B"})
	assert.Equal(t, 1, idx)
	assert.Equal(t, 1, e.Selected())
	assert.True(t, e.Dirty())

	require.NoError(t, e.Remove(1))
	assert.False(t, e.Dirty(), "back to the snapshot")

	require.NoError(t, e.Update(0, models.Place{Title: "A2", Coords: models.NewCoords(1, 2)}))
	assert.True(t, e.Dirty())
	require.NoError(t, e.MarkSaved())
	assert.False(t, e.Dirty())
}

func TestEditorReplaceWithSameContentIsClean(t *testing.T) {
	items := []models.Place{{Title: "A"}, {Title: "B"}}
	e, err := New(items)
	require.NoError(t, err)

	e.Replace([]models.Place{{Title: "A"}, {Title: "B"}})
	assert.False(t, e.Dirty())

	e.Replace(nil)
	assert.True(t, e.Dirty())
	assert.Equal(t, 0, e.Len())
}

func TestEditorSelectAndRemove(t *testing.T) {
	e, err := New([]string{"a", "b", "c"})
	require.NoError(t, err)
	assert.Equal(t, -1, e.Selected())

	got, err := e.Select(2)
	require.NoError(t, err)
	assert.Equal(t, "c", got)

	require.NoError(t, e.Remove(2))
	assert.Equal(t, 1, e.Selected())
	assert.Equal(t, []string{"a", "b"}, e.Items())

	_, err = e.Select(5)
	assert.ErrorIs(t, err, ErrOutOfRange)
	assert.ErrorIs(t, e.Remove(-1), ErrOutOfRange)
}
