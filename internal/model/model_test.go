package model

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDocument_UnmarshalJSON(t *testing.T) {
	t.Run("mongo style id", func(t *testing.T) {
		var d Document
		err := json.Unmarshal([]byte(`{"_id":"abc","title":"Power bill","category":"bills","filePath":"uploads/a.pdf","createdAt":"2024-03-05T10:00:00Z"}`), &d)
		require.NoError(t, err)
		assert.Equal(t, "abc", d.ID)
		assert.Equal(t, "Power bill", d.Title)
		assert.Equal(t, CategoryBills, d.Category)
		assert.Equal(t, "uploads/a.pdf", d.FilePath)
		assert.True(t, d.CreatedAt.Equal(time.Date(2024, 3, 5, 10, 0, 0, 0, time.UTC)))
	})

	t.Run("plain id", func(t *testing.T) {
		var d Document
		require.NoError(t, json.Unmarshal([]byte(`{"id":"xyz"}`), &d))
		assert.Equal(t, "xyz", d.ID)
	})

	t.Run("underscore id wins", func(t *testing.T) {
		var d Document
		require.NoError(t, json.Unmarshal([]byte(`{"_id":"a","id":"b"}`), &d))
		assert.Equal(t, "a", d.ID)
	})
}

func TestParseCategory(t *testing.T) {
	c, err := ParseCategory(" Photos ")
	require.NoError(t, err)
	assert.Equal(t, CategoryPhotos, c)

	_, err = ParseCategory("receipts")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestCategories(t *testing.T) {
	got := Categories()
	assert.Len(t, got, 6)
	assert.Equal(t, CategoryBills, got[0])
	assert.Equal(t, CategoryOthers, got[5])

	// Callers cannot mutate the shared set.
	got[0] = "oops"
	assert.Equal(t, CategoryBills, Categories()[0])
}

func TestCategory_Heading(t *testing.T) {
	assert.Equal(t, "Warranties", CategoryWarranties.Heading())
	assert.Equal(t, "", Category("").Heading())
}
