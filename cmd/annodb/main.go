// Command annodb imports a MOT-style annotation text file into a SQLite
// annotation database, the format the viewer prefers when present next to
// the text file (for example gt/gt.txt -> gt/gt.db).
package main

import (
	"flag"
	"fmt"
	"log"
	"os"
	"path/filepath"

	"github.com/Eudaldz/aicitychallenge-viewer/internal/annotation"
)

func main() {
	inPath := flag.String("in", "gt/gt.txt", "Annotation text file to import")
	dbPath := flag.String("db", "gt/gt.db", "Database path to write")
	flag.Parse()

	fmt.Printf("Importing annotations from %s into %s\n", *inPath, *dbPath)

	store, err := annotation.Load(*inPath)
	if err != nil {
		log.Fatalf("Failed to load annotations: %v", err)
	}
	if store.Len() == 0 {
		fmt.Println("No annotations found to import")
		return
	}

	if err := os.MkdirAll(filepath.Dir(*dbPath), 0755); err != nil {
		log.Fatalf("Failed to create database directory: %v", err)
	}

	db, err := annotation.OpenDB(*dbPath)
	if err != nil {
		log.Fatalf("Failed to open database: %v", err)
	}
	defer db.Close()

	if err := db.InsertBatch(store.Records()); err != nil {
		log.Fatalf("Failed to insert annotations: %v", err)
	}

	fmt.Printf("✅ Imported %d annotation(s)\n", store.Len())
	if skipped := store.Skipped(); skipped > 0 {
		fmt.Printf("⚠️  Skipped %d malformed line(s)\n", skipped)
	}

	total, err := db.Count()
	if err == nil {
		fmt.Printf("📊 Database now holds %d annotation(s)\n", total)
	}
}
