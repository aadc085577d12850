package main

import (
	"context"
	"encoding/json"
	"flag"
	"log"
	"os"
	"path/filepath"
	"strings"

	"agentdash/adapters/db"
	"agentdash/domain/core"
	"agentdash/domain/lookup"
	"agentdash/internal/config"
	"agentdash/ports"

	"github.com/joho/godotenv"
)

func main() {
	importDir := flag.String("import", "", "Directory of batch JSON exports to load into the history store")
	flag.Parse()

	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found, using system environment variables")
	}

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}
	if cfg.Database.Driver == config.DriverNone {
		log.Fatal("Usage: DATABASE_DRIVER=postgres|sqlite DATABASE_URL=... migrate [-import dir]")
	}

	ctx := context.Background()

	// Open runs the schema migrations
	database, err := db.Open(ctx, cfg.Database)
	if err != nil {
		log.Fatalf("Migration failed: %v", err)
	}
	defer database.Close()
	log.Printf("Batch history schema is up to date (%s)", cfg.Database.Driver)

	if *importDir == "" {
		return
	}

	files, err := findBatchFiles(*importDir)
	if err != nil {
		log.Fatalf("Failed to find batch files: %v", err)
	}
	log.Printf("Found %d batch files to import", len(files))

	imported, skipped := importBatches(ctx, db.NewBatchRepository(database), files)
	log.Printf("Import complete: %d imported, %d skipped", imported, skipped)
}

func importBatches(ctx context.Context, repo ports.BatchRepository, files []string) (imported, skipped int) {
	for _, file := range files {
		batch, err := loadBatchFromFile(file)
		if err != nil {
			log.Printf("Failed to load batch from %s: %v", file, err)
			skipped++
			continue
		}

		if err := repo.Save(ctx, batch); err != nil {
			log.Printf("Failed to save batch %s: %v", batch.ID, err)
			skipped++
			continue
		}

		imported++
		log.Printf("Imported batch %s (%d rows) from %s", batch.ID, len(batch.Rows), filepath.Base(file))
	}
	return imported, skipped
}

func findBatchFiles(dir string) ([]string, error) {
	var files []string

	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}

		if !info.IsDir() && strings.HasSuffix(path, ".json") {
			files = append(files, path)
		}

		return nil
	})

	return files, err
}

func loadBatchFromFile(filePath string) (*lookup.Batch, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		return nil, err
	}

	var batch lookup.Batch
	if err := json.Unmarshal(data, &batch); err != nil {
		return nil, err
	}
	if batch.ID == "" {
		// deterministic so re-running an import replaces instead of duplicating
		batch.ID = core.BatchID("import-" + core.NewHash(data).Short())
	}
	if batch.StartedAt.IsZero() {
		info, err := os.Stat(filePath)
		if err == nil {
			batch.StartedAt = info.ModTime()
			batch.CompletedAt = info.ModTime()
		}
	}

	return &batch, nil
}
