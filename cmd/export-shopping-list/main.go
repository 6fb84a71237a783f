package main

import (
	"bytes"
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"foodgram/internal/apperr"
	"foodgram/internal/auth"
	"foodgram/internal/logging"
	"foodgram/internal/shoppinglist"
	"foodgram/pkg/database"
	"foodgram/pkg/utils"
)

func main() {
	var (
		user   = flag.String("user", "", "user id, username or email whose shopping cart to export")
		format = flag.String("format", "txt", "output format: txt, csv or pdf")
		out    = flag.String("out", "", "output path (default stdout)")
		dbPath = flag.String("db", "", "database path (overrides config)")
	)
	flag.Parse()
	if *user == "" {
		flag.Usage()
		os.Exit(2)
	}

	if err := run(*user, *format, *out, *dbPath); err != nil {
		logging.Fatal().Err(err).Str("user", *user).Msg("export shopping list")
	}
}

func run(login, format, out, dbPath string) error {
	cfg, err := utils.Load()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	logging.Init(logging.Config{Level: cfg.Log.Level, Format: "console"})
	if dbPath != "" {
		cfg.Database.Path = dbPath
	}

	f, err := shoppinglist.ParseFormat(format)
	if err != nil {
		return fmt.Errorf("invalid -format: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	db, err := database.Open(database.Config{Path: cfg.Database.Path})
	if err != nil {
		return fmt.Errorf("open database: %w", err)
	}
	defer db.Close()

	u, err := resolveUser(ctx, auth.NewRepo(db), login)
	if err != nil {
		return err
	}

	items, err := shoppinglist.NewAggregator(db).Aggregate(ctx, u.ID)
	if err != nil {
		return fmt.Errorf("aggregate shopping list: %w", err)
	}

	var buf bytes.Buffer
	if err := shoppinglist.Render(&buf, f, items); err != nil {
		return fmt.Errorf("render shopping list: %w", err)
	}

	if out == "" {
		_, err = os.Stdout.Write(buf.Bytes())
		return err
	}
	if err := os.MkdirAll(filepath.Dir(out), 0o755); err != nil {
		return fmt.Errorf("create output dir: %w", err)
	}
	if err := os.WriteFile(out, buf.Bytes(), 0o644); err != nil {
		return fmt.Errorf("write output: %w", err)
	}
	logging.Info().Str("user", u.Username).Int("items", len(items)).Str("out", out).Msg("exported shopping list")
	return nil
}

func resolveUser(ctx context.Context, repo *auth.Repo, login string) (*auth.User, error) {
	u, err := repo.GetByLogin(ctx, login)
	if err != nil {
		return nil, fmt.Errorf("lookup user: %w", err)
	}
	if u == nil {
		return nil, apperr.NotFoundf("user %q not found", login)
	}
	return u, nil
}
