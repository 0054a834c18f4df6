package main

import (
	"context"
	"flag"
	"os"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/joho/godotenv"

	"github.com/noah-isme/toko-pricing/internal/db"
	"github.com/noah-isme/toko-pricing/internal/discount"
	"github.com/noah-isme/toko-pricing/internal/obs"
	"github.com/noah-isme/toko-pricing/internal/tax"
)

func main() {
	_ = godotenv.Load()

	taxPath := flag.String("taxes", os.Getenv("TAX_TABLE_PATH"), "YAML tax table to load")
	codesPath := flag.String("codes", os.Getenv("DISCOUNT_CODES_PATH"), "YAML discount codes to load")
	flag.Parse()

	logger := obs.NewLogger("console", "info")

	dbURL := os.Getenv("DATABASE_URL")
	if dbURL == "" {
		logger.Fatal().Msg("DATABASE_URL is not set")
	}
	if err := db.Migrate(dbURL); err != nil {
		logger.Fatal().Err(err).Msg("run migrations")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Minute)
	defer cancel()

	pool, err := pgxpool.New(ctx, dbURL)
	if err != nil {
		logger.Fatal().Err(err).Msg("connect database")
	}
	defer pool.Close()

	if *taxPath != "" {
		entries, err := tax.LoadYAML(*taxPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *taxPath).Msg("read tax table")
		}
		if err := (tax.PGSource{Pool: pool}).Upsert(ctx, entries); err != nil {
			logger.Fatal().Err(err).Msg("seed tax rates")
		}
		logger.Info().Int("count", len(entries)).Msg("tax rates seeded")
	}

	if *codesPath != "" {
		codes, err := discount.LoadYAML(*codesPath)
		if err != nil {
			logger.Fatal().Err(err).Str("path", *codesPath).Msg("read discount codes")
		}
		if err := (discount.PGStore{Pool: pool}).Upsert(ctx, codes); err != nil {
			logger.Fatal().Err(err).Msg("seed discount codes")
		}
		logger.Info().Int("count", len(codes)).Msg("discount codes seeded")
	}

	logger.Info().Msg("seeding completed")
}
