// Command migrate applies or rolls back the order schema migrations.
//
// Usage:
//
//	migrate [-db URL] up
//	migrate [-db URL] [-steps N] down
//
// The database URL falls back to DATABASE_URL when -db is not given.
package main

import (
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/orderbridge/reconciler/internal/database"
)

func main() {
	dbURL := flag.String("db", os.Getenv("DATABASE_URL"), "database URL (defaults to DATABASE_URL)")
	steps := flag.Int("steps", 1, "migrations to roll back with the down command")
	flag.Parse()

	if *dbURL == "" {
		log.Fatal("no database URL: pass -db or set DATABASE_URL")
	}

	switch cmd := flag.Arg(0); cmd {
	case "up", "":
		if err := database.Migrate(*dbURL); err != nil {
			log.Fatalf("applying migrations: %v", err)
		}
		fmt.Println("schema is up to date")
	case "down":
		for i := 0; i < *steps; i++ {
			if err := database.MigrateDown(*dbURL); err != nil {
				log.Fatalf("rolling back migration %d of %d: %v", i+1, *steps, err)
			}
		}
		fmt.Printf("rolled back %d migration(s)\n", *steps)
	default:
		log.Fatalf("unknown command %q: want up or down", cmd)
	}
}
