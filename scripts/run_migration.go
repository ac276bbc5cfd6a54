package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/joho/godotenv"
	"github.com/ridwanfathin/tour-quote-service/internal/database"
)

func main() {
	list := flag.Bool("list", false, "only list the embedded migrations")
	timeout := flag.Duration("timeout", time.Minute, "overall timeout")
	flag.Parse()

	if *list {
		names, err := database.Migrations()
		if err != nil {
			log.Fatalf("Unable to list migrations: %v", err)
		}
		for _, name := range names {
			fmt.Println(name)
		}
		return
	}

	// Load .env file
	if err := godotenv.Load(); err != nil {
		log.Printf("No .env file loaded: %v", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := database.NewPostgresDB(ctx, os.Getenv("POSTGRES_DB_URL"))
	if err != nil {
		log.Fatalf("Unable to connect to database: %v", err)
	}
	defer db.Close()

	applied, err := db.Migrate(ctx)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	if len(applied) == 0 {
		fmt.Println("Schema is up to date")
		return
	}
	fmt.Printf("Applied %d migration(s)\n", len(applied))
}
