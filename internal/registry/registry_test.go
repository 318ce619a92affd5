package registry

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aurapanel/aurapanel/internal/model"
)

func barRecord(id string) model.WindowRecord {
	return model.WindowRecord{
		ID:        id,
		Label:     model.WindowLabel(id),
		Role:      model.RoleInlineWindow,
		Rectangle: model.Rect{Width: 100, Height: 40},
		Status:    model.StatusPending,
	}
}

func TestInsert_DuplicateID(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Insert(barRecord("bar")))

	err := r.Insert(barRecord("bar"))
	assert.ErrorIs(t, err, ErrDuplicateID)
	assert.Equal(t, 1, r.Count())
}

func TestLookup(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Insert(barRecord("bar")))

	rec, ok := r.LookupByID("bar")
	require.True(t, ok)
	assert.Equal(t, "inline-window-bar", rec.Label)

	rec, ok = r.LookupByLabel("inline-window-bar")
	require.True(t, ok)
	assert.Equal(t, "bar", rec.ID)

	_, ok = r.LookupByID("gone")
	assert.False(t, ok)
	_, ok = r.LookupByLabel("inline-window-gone")
	assert.False(t, ok)
}

func TestUpdateRectangleAndStatus(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Insert(barRecord("bar")))

	require.NoError(t, r.UpdateRectangle("bar", model.Rect{X: 5, Y: 6, Width: 7, Height: 8}))
	require.NoError(t, r.SetStatus("bar", model.StatusVisible))

	rec, _ := r.LookupByID("bar")
	assert.Equal(t, model.Rect{X: 5, Y: 6, Width: 7, Height: 8}, rec.Rectangle)
	assert.Equal(t, model.StatusVisible, rec.Status)

	assert.ErrorIs(t, r.UpdateRectangle("gone", model.Rect{}), ErrNotFound)
	assert.ErrorIs(t, r.SetStatus("gone", model.StatusHidden), ErrNotFound)
}

func TestRemove_IdempotentAndFreesID(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Insert(barRecord("bar")))

	r.Remove("bar")
	r.Remove("bar") // no-op

	assert.Equal(t, 0, r.Count())
	_, ok := r.LookupByLabel("inline-window-bar")
	assert.False(t, ok)

	// The id is free for reuse after removal.
	assert.NoError(t, r.Insert(barRecord("bar")))
}

// Registry size equals opens minus closes for distinct ids.
func TestCount_TracksOpensMinusCloses(t *testing.T) {
	r := New(nil)
	for i := range 10 {
		require.NoError(t, r.Insert(barRecord(fmt.Sprintf("w%d", i))))
	}
	for i := range 4 {
		r.Remove(fmt.Sprintf("w%d", i))
	}
	assert.Equal(t, 6, r.Count())
}

func TestLookupReturnsCopy(t *testing.T) {
	r := New(nil)
	require.NoError(t, r.Insert(barRecord("bar")))

	rec, _ := r.LookupByID("bar")
	rec.Status = model.StatusClosed

	again, _ := r.LookupByID("bar")
	assert.Equal(t, model.StatusPending, again.Status)
}
