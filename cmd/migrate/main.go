package main

import (
	"fmt"
	"log"
	"os"

	"github.com/nexusgw/gateway/internal/store"
)

func main() {
	dsn := os.Getenv("NEXUS_POSTGRES_DSN")
	if dsn == "" {
		log.Fatal("NEXUS_POSTGRES_DSN environment variable is required")
	}

	fmt.Println("running payments-table migrations")
	if err := store.RunMigrations(dsn); err != nil {
		log.Fatalf("migration failed: %v", err)
	}
	fmt.Println("migrations applied successfully")
}
