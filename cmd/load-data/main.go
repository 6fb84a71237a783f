package main

import (
	"context"
	"flag"
	"os"
	"time"

	"foodgram/internal/fixtures"
	"foodgram/internal/ingredient"
	"foodgram/internal/logging"
	"foodgram/internal/tag"
	"foodgram/internal/validation"
	"foodgram/pkg/database"
	"foodgram/pkg/utils"
)

func main() {
	var (
		ingredientsIn = flag.String("ingredients", "", "ingredients file (.json array of {name, measurement_unit} or .csv)")
		tagsIn        = flag.String("tags", "", "tags file (.json array of {name, slug} or .csv)")
		dbPath        = flag.String("db", "", "database path (overrides config)")
	)
	flag.Parse()

	cfg, err := utils.Load()
	if err != nil {
		logging.Fatal().Err(err).Msg("load config")
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: "console"})
	if *dbPath != "" {
		cfg.Database.Path = *dbPath
	}
	if *ingredientsIn == "" && *tagsIn == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := database.OpenAndMigrate(database.Config{Path: cfg.Database.Path})
	if err != nil {
		logging.Fatal().Err(err).Msg("open database")
	}
	defer db.Close()

	loader := &fixtures.Loader{
		Ingredients: ingredient.NewCatalog(ingredient.NewRepo(db), nil),
		Tags:        tag.NewRepo(db),
		Validator:   validation.New(),
	}

	if *ingredientsIn != "" {
		recs, err := readFile(*ingredientsIn, []string{"name", "measurement_unit"})
		if err != nil {
			logging.Fatal().Err(err).Str("file", *ingredientsIn).Msg("read ingredients")
		}
		rep, err := loader.LoadIngredients(ctx, recs)
		report("ingredients", *ingredientsIn, rep, err)
	}

	if *tagsIn != "" {
		recs, err := readFile(*tagsIn, []string{"name", "slug"})
		if err != nil {
			logging.Fatal().Err(err).Str("file", *tagsIn).Msg("read tags")
		}
		rep, err := loader.LoadTags(ctx, recs)
		report("tags", *tagsIn, rep, err)
	}
}

func readFile(path string, cols []string) ([]map[string]string, error) {
	format, err := fixtures.FormatOf(path)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	return fixtures.ReadRecords(f, format, cols)
}

func report(kind, path string, rep fixtures.Report, err error) {
	for _, s := range rep.Skipped {
		logging.Warn().Str("kind", kind).Msg("skipped " + s)
	}
	if err != nil {
		logging.Fatal().Err(err).Str("kind", kind).Str("file", path).Msg("load failed")
	}
	logging.Info().Str("kind", kind).Str("file", path).
		Int("created", rep.Created).Int("existed", rep.Existed).Int("skipped", len(rep.Skipped)).
		Msg("loaded")
}
