package main

import (
	"context"
	"flag"
	"os"

	"github.com/rs/zerolog/log"

	"github.com/pageza/foodgram/backend/config"
	"github.com/pageza/foodgram/backend/internal/database"
	"github.com/pageza/foodgram/backend/internal/importer"
	"github.com/pageza/foodgram/backend/internal/logging"
)

func main() {
	ingredientsPath := flag.String("ingredients", "", "Path to an ingredients JSON file")
	tagsPath := flag.String("tags", "", "Path to a tags JSON file")
	flag.Parse()

	cfg, err := config.LoadConfig()
	if err != nil {
		logging.Init(logging.Config{})
		log.Fatal().Err(err).Msg("failed to load configuration")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: cfg.Log.Format})

	if *ingredientsPath == "" && *tagsPath == "" {
		log.Fatal().Msg("nothing to import: pass -ingredients and/or -tags")
	}

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	if cfg.Database.AutoMigrate {
		if err := database.AutoMigrate(db); err != nil {
			log.Fatal().Err(err).Msg("failed to migrate database")
		}
	}

	imp := importer.New(db)
	ctx := context.Background()

	if *ingredientsPath != "" {
		run(*ingredientsPath, func(f *os.File) (int64, error) { return imp.Ingredients(ctx, f) })
	}
	if *tagsPath != "" {
		run(*tagsPath, func(f *os.File) (int64, error) { return imp.Tags(ctx, f) })
	}
}

func run(path string, load func(*os.File) (int64, error)) {
	f, err := os.Open(path)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("failed to open fixture")
	}
	defer f.Close()

	inserted, err := load(f)
	if err != nil {
		log.Fatal().Err(err).Str("file", path).Msg("import failed")
	}
	log.Info().Str("file", path).Int64("inserted", inserted).Msg("fixture loaded")
}
