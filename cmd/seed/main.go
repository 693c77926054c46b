/*
main.go - Demo data seeder

PURPOSE:
  Loads the demo dataset (catalog, two farms, several seasons of crop
  cycles) for one producer and prints a development token for that
  producer, so the API can be exercised right away.

COMMAND-LINE FLAGS:
  -db        SQLite database path (DB_PATH, default ./data/agro.db)
  -producer  Producer ID that owns the seeded farms (default 1)
  -seasons   Comma-separated season labels (default: the demo seasons)
  -token     Print a PRODUTOR token for the producer (default true)

NOTE:
  Existing crop cycles of the producer are deleted first.

EXAMPLES:
  ./seed -db="./data/agro.db" -producer=7
  ./seed -seasons="23/23,23/24"
*/
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/warp/agro-engine/agro"
	"github.com/warp/agro-engine/api"
	"github.com/warp/agro-engine/config"
	"github.com/warp/agro-engine/logger"
	"github.com/warp/agro-engine/store/sqlite"
)

func main() {
	cfg := config.Load()

	dbPath := flag.String("db", cfg.DBPath, "SQLite database path")
	producerID := flag.Int64("producer", 1, "producer ID owning the demo farms")
	seasons := flag.String("seasons", strings.Join(agro.DemoSeasons, ","), "comma-separated season labels")
	printToken := flag.Bool("token", true, "print a development token")
	flag.Parse()

	log, err := logger.New(cfg.LogMode)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	store, err := sqlite.New(*dbPath)
	if err != nil {
		log.Fatal("failed to initialize database", "db", *dbPath, "error", err)
	}
	defer store.Close()

	seeder := agro.NewSeeder(store, store, store)
	result, err := seeder.Seed(context.Background(), agro.ProducerID(*producerID), config.SplitList(*seasons))
	if err != nil {
		log.Fatal("seeding failed", "error", err)
	}

	log.Info("demo data loaded",
		"producer_id", *producerID,
		"farms", len(result.Farms),
		"cycles", len(result.Cycles),
		"summer_cycles", result.Summer,
		"winter_cycles", result.Winter,
		"cultivars_added", result.CatalogAdded,
	)

	if *printToken {
		token, err := api.NewAuthenticator(cfg.JWTSecret, 30*24*time.Hour).Issue(agro.ProducerID(*producerID), api.RoleProducer)
		if err != nil {
			log.Fatal("failed to issue token", "error", err)
		}
		fmt.Println(token)
	}
}
