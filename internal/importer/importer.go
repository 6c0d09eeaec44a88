// Package importer loads catalog fixtures (ingredients and tags) from JSON.
package importer

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"regexp"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog/log"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/pageza/foodgram/backend/internal/models"
)

const batchSize = 500

var slugPattern = regexp.MustCompile(`^[-a-zA-Z0-9_]+$`)

var validate = func() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	if err := v.RegisterValidation("slug", func(fl validator.FieldLevel) bool {
		return slugPattern.MatchString(fl.Field().String())
	}); err != nil {
		panic(err)
	}
	return v
}()

type ingredientRecord struct {
	Name            string `json:"name" validate:"required,max=128"`
	MeasurementUnit string `json:"measurement_unit" validate:"required,max=64"`
}

type tagRecord struct {
	Name string `json:"name" validate:"required,max=32"`
	Slug string `json:"slug" validate:"required,max=32,slug"`
}

// Importer writes catalog rows, skipping ones that already exist.
type Importer struct {
	db *gorm.DB
}

func New(db *gorm.DB) *Importer {
	return &Importer{db: db}
}

// Ingredients reads a JSON array of {"name","measurement_unit"} and returns
// the number of rows inserted.
func (i *Importer) Ingredients(ctx context.Context, r io.Reader) (int64, error) {
	var records []ingredientRecord
	if err := decode(r, &records); err != nil {
		return 0, err
	}
	rows := make([]models.Ingredient, 0, len(records))
	for n, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return 0, fmt.Errorf("ingredient #%d: %w", n, err)
		}
		rows = append(rows, models.Ingredient{Name: rec.Name, MeasurementUnit: rec.MeasurementUnit})
	}
	return i.insert(ctx, "ingredients", &rows, len(rows))
}

// Tags reads a JSON array of {"name","slug"} and returns the number of rows inserted.
func (i *Importer) Tags(ctx context.Context, r io.Reader) (int64, error) {
	var records []tagRecord
	if err := decode(r, &records); err != nil {
		return 0, err
	}
	rows := make([]models.Tag, 0, len(records))
	for n, rec := range records {
		if err := validate.Struct(rec); err != nil {
			return 0, fmt.Errorf("tag #%d: %w", n, err)
		}
		rows = append(rows, models.Tag{Name: rec.Name, Slug: rec.Slug})
	}
	return i.insert(ctx, "tags", &rows, len(rows))
}

func (i *Importer) insert(ctx context.Context, table string, rows interface{}, count int) (int64, error) {
	if count == 0 {
		return 0, nil
	}
	result := i.db.WithContext(ctx).
		Clauses(clause.OnConflict{DoNothing: true}).
		CreateInBatches(rows, batchSize)
	if result.Error != nil {
		return 0, fmt.Errorf("failed to import %s: %w", table, result.Error)
	}
	log.Info().
		Str("table", table).
		Int("read", count).
		Int64("inserted", result.RowsAffected).
		Msg("import finished")
	return result.RowsAffected, nil
}

func decode(r io.Reader, dst interface{}) error {
	dec := json.NewDecoder(r)
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("failed to decode fixture: %w", err)
	}
	return nil
}
