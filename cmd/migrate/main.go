package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/samirrijal/isstrack/internal/adapters/postgres"
	"github.com/samirrijal/isstrack/internal/pkg/config"
	"github.com/samirrijal/isstrack/migrations"
)

func main() {
	if len(os.Args) < 2 {
		log.Fatal("usage: migrate <up|down|purge>")
	}

	cfg, err := config.Load("isstrack-migrate")
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	ctx := context.Background()
	db, err := postgres.New(ctx, cfg.Database.DSN(), 2)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()

	ms, err := postgres.LoadMigrations(migrations.FS)
	if err != nil {
		log.Fatalf("load migrations: %v", err)
	}

	switch os.Args[1] {
	case "up":
		applied, err := db.MigrateUp(ctx, ms)
		for _, v := range applied {
			fmt.Printf("OK  %s\n", v)
		}
		if err != nil {
			log.Fatalf("migrate up: %v", err)
		}
		log.Printf("%d migration(s) applied", len(applied))
	case "down":
		v, err := db.MigrateDown(ctx, ms)
		if err != nil {
			log.Fatalf("migrate down: %v", err)
		}
		if v == "" {
			log.Println("nothing to revert")
			return
		}
		fmt.Printf("REVERTED  %s\n", v)
	case "purge":
		n, err := postgres.NewBlobStore(db).PurgeExpired(ctx)
		if err != nil {
			log.Fatalf("purge: %v", err)
		}
		log.Printf("purged %d expired blob(s)", n)
	default:
		log.Fatalf("unknown command: %s", os.Args[1])
	}
}
