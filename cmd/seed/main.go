package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/jackc/pgx/v5/pgxpool"
	"go.uber.org/zap"

	"github.com/hackgods/branch-appointment-booking/internal/booking"
	"github.com/hackgods/branch-appointment-booking/internal/branch"
	"github.com/hackgods/branch-appointment-booking/internal/config"
	"github.com/hackgods/branch-appointment-booking/internal/db"
	"github.com/hackgods/branch-appointment-booking/internal/logging"
)

func main() {
	postalCodes := flag.String("postal-codes", "64105,64106,64108,64111,64112", "comma separated postal codes to cover")
	extra := flag.Int("extra-branches", 3, "generated branches per postal code on top of the built-in ones")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "config load error: %v\n", err)
		os.Exit(1)
	}
	log, err := logging.New(cfg.Env, cfg.LogLevel)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger init error: %v\n", err)
		os.Exit(1)
	}
	defer func() { _ = log.Sync() }()

	if cfg.PostgresDSN == "" {
		log.Fatal("POSTGRES_DSN is required")
	}

	log.Info("seed starting")

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	pool, err := db.ConnectPostgres(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal("connect postgres", zap.Error(err))
	}
	defer pool.Close()

	if err := db.Migrate(context.Background(), pool); err != nil {
		log.Fatal("migrate schema", zap.Error(err))
	}

	faker := gofakeit.New(0)
	for _, code := range strings.Split(*postalCodes, ",") {
		code = strings.TrimSpace(code)
		if !booking.ValidPostalCode(code) {
			log.Warn("skipping invalid postal code", zap.String("postal_code", code))
			continue
		}
		if err := seedPostalCode(context.Background(), pool, faker, code, *extra); err != nil {
			log.Fatal("seed postal code", zap.String("postal_code", code), zap.Error(err))
		}
		log.Info("postal code seeded", zap.String("postal_code", code))
	}

	log.Info("seed complete")
}

// seedPostalCode covers code with the built-in branches, nearest first,
// followed by extra generated branches.
func seedPostalCode(ctx context.Context, pool *pgxpool.Pool, faker *gofakeit.Faker, code string, extra int) error {
	tx, err := pool.Begin(ctx)
	if err != nil {
		return err
	}
	defer tx.Rollback(ctx)

	dir := branch.NewPgDirectory(tx)

	rank := 0
	for _, b := range branch.DefaultBranches {
		if err := dir.UpsertBranch(ctx, b, code, rank); err != nil {
			return err
		}
		rank++
	}

	for i := 0; i < extra; i++ {
		b := booking.Branch{
			ID:         fmt.Sprintf("%s-%02d", code, i+1),
			Name:       faker.Company() + " Branch",
			Address:    faker.Street(),
			City:       faker.City(),
			Region:     "MO",
			PostalCode: code,
			Phone:      booking.FormatPhone(faker.Phone()),
			Distance:   fmt.Sprintf("%.1f miles", faker.Float64Range(4, 15)),
			Hours:      booking.DefaultBranchHours,
		}
		if err := dir.UpsertBranch(ctx, b, code, rank); err != nil {
			return err
		}
		rank++
	}

	return tx.Commit(ctx)
}
