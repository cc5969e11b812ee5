package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/appser/appser-store/internal/listing"
	"github.com/appser/appser-store/pkg/database"
	"github.com/appser/appser-store/pkg/logger"
	"github.com/appser/appser-store/pkg/models"
	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

type seedFile struct {
	Apps []models.App `yaml:"apps"`
}

func main() {
	fmt.Println("=== Appser Store Database Seeder ===")

	godotenv.Load()

	file := flag.String("file", "scripts/apps.yaml", "YAML file with the listings to seed")
	flag.Parse()

	dbPath := os.Getenv("DB_PATH")
	if dbPath == "" {
		dbPath = "./data/appser.db"
	}

	logger.Init(logger.WARN, false, os.Stderr)
	if err := database.InitDatabase(dbPath); err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	data, err := os.ReadFile(*file)
	if err != nil {
		log.Fatalf("Failed to read %s: %v", *file, err)
	}
	var seed seedFile
	if err := yaml.Unmarshal(data, &seed); err != nil {
		log.Fatalf("Failed to parse %s: %v", *file, err)
	}

	repo := listing.NewDBRepository(database.DB)
	ctx := context.Background()
	inserted := 0
	for i := range seed.Apps {
		app := &seed.Apps[i]
		if app.Rating.TotalCount == 0 && app.Rating.Distribution.Total() > 0 {
			app.Rating = listing.RatingFromHistogram(app.Rating.Distribution)
		}
		if err := repo.UpsertApp(ctx, app); err != nil {
			log.Printf("Skipping %s: %v", app.ID, err)
			continue
		}
		inserted++
		fmt.Printf("  ✓ %s (%s)\n", app.Name, app.ID)
	}

	log.Printf("Seeded %d of %d app(s) into %s", inserted, len(seed.Apps), dbPath)
}
