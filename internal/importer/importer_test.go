package importer_test

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pageza/foodgram/backend/internal/importer"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
)

func TestImportIngredientsIsIdempotent(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	imp := importer.New(db)
	ctx := context.Background()

	fixture := `[
		{"name": "flour", "measurement_unit": "g"},
		{"name": "flour", "measurement_unit": "kg"},
		{"name": "milk", "measurement_unit": "ml"}
	]`

	inserted, err := imp.Ingredients(ctx, strings.NewReader(fixture))
	require.NoError(t, err)
	assert.Equal(t, int64(3), inserted)

	inserted, err = imp.Ingredients(ctx, strings.NewReader(fixture))
	require.NoError(t, err)
	assert.Equal(t, int64(0), inserted)

	var count int64
	require.NoError(t, db.Model(&models.Ingredient{}).Count(&count).Error)
	assert.Equal(t, int64(3), count)
}

func TestImportTags(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	imp := importer.New(db)

	inserted, err := imp.Tags(context.Background(), strings.NewReader(
		`[{"name": "Breakfast", "slug": "breakfast"}, {"name": "Lunch", "slug": "lunch"}]`,
	))
	require.NoError(t, err)
	assert.Equal(t, int64(2), inserted)

	var tag models.Tag
	require.NoError(t, db.Where("slug = ?", "lunch").First(&tag).Error)
	assert.Equal(t, "Lunch", tag.Name)
}

func TestImportRejectsBadInput(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	imp := importer.New(db)
	ctx := context.Background()

	tests := []struct {
		name    string
		run     func() (int64, error)
		wantErr string
	}{
		{
			name:    "malformed json",
			run:     func() (int64, error) { return imp.Ingredients(ctx, strings.NewReader(`{"name":`)) },
			wantErr: "decode",
		},
		{
			name: "unknown field",
			run: func() (int64, error) {
				return imp.Tags(ctx, strings.NewReader(`[{"name":"a","slug":"a","color":"#fff"}]`))
			},
			wantErr: "decode",
		},
		{
			name:    "missing unit",
			run:     func() (int64, error) { return imp.Ingredients(ctx, strings.NewReader(`[{"name":"salt"}]`)) },
			wantErr: "ingredient #0",
		},
		{
			name:    "bad slug",
			run:     func() (int64, error) { return imp.Tags(ctx, strings.NewReader(`[{"name":"a","slug":"has space"}]`)) },
			wantErr: "tag #0",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := tt.run()
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}

	var count int64
	require.NoError(t, db.Model(&models.Ingredient{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestImportEmptyArray(t *testing.T) {
	db := testhelpers.SetupTestDatabase(t)
	inserted, err := importer.New(db).Tags(context.Background(), strings.NewReader(`[]`))
	require.NoError(t, err)
	assert.Zero(t, inserted)
}
