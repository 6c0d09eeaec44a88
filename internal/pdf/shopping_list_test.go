package pdf

import (
	"bytes"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/types"
)

func pageCount(doc []byte) int {
	return bytes.Count(doc, []byte("/Type /Page\n"))
}

func TestRenderShoppingList(t *testing.T) {
	r := NewShoppingListRenderer(Options{Title: "Shopping list", Footer: "Foodgram"})

	doc, err := r.Render([]types.ShoppingItem{
		{Name: "flour", MeasurementUnit: "g", TotalAmount: 300},
		{Name: "egg", MeasurementUnit: "pcs", TotalAmount: 1},
	})
	require.NoError(t, err)

	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
	assert.Contains(t, string(doc), "%%EOF")
	assert.Equal(t, 1, pageCount(doc))
}

func TestRenderEmptyShoppingList(t *testing.T) {
	doc, err := NewShoppingListRenderer(Options{}).Render(nil)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(doc, []byte("%PDF-")))
	assert.Equal(t, 1, pageCount(doc))
}

func TestRenderPaginatesLongLists(t *testing.T) {
	items := make([]types.ShoppingItem, 0, 80)
	for i := 0; i < 80; i++ {
		items = append(items, types.ShoppingItem{Name: fmt.Sprintf("item %02d", i), MeasurementUnit: "g", TotalAmount: int64(i + 1)})
	}

	doc, err := NewShoppingListRenderer(Options{Footer: "Foodgram"}).Render(items)
	require.NoError(t, err)
	assert.GreaterOrEqual(t, pageCount(doc), 3)
}

func TestRenderMissingFontFails(t *testing.T) {
	_, err := NewShoppingListRenderer(Options{FontPath: "/nonexistent/font.ttf"}).Render(nil)
	assert.Error(t, err)
}
