package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"photo-gallery/internal/config"
	"photo-gallery/internal/database"
	"photo-gallery/internal/scanner"
)

// scanphotos runs a single library scan and exits. Intended for cron jobs
// and for populating the database before first server start.
func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigChan
		fmt.Fprintln(os.Stderr, "\nInterrupted, shutting down...")
		cancel()
	}()

	db, err := database.New(ctx, cfg.DatabasePath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Error: Failed to initialize database: %v\n", err)
		os.Exit(1)
	}
	defer func() {
		if err := db.Close(); err != nil {
			fmt.Fprintf(os.Stderr, "Warning: failed to close database: %v\n", err)
		}
	}()

	scn := scanner.New(db, cfg.GalleryDir, cfg.ScanInterval)

	start := time.Now()
	if err := scn.Scan(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: Scan failed: %v\n", err)
		os.Exit(1)
	}

	stats := db.GetStats()
	fmt.Printf("Scan complete in %v: %d albums, %d photos.\n",
		time.Since(start).Round(time.Millisecond), stats.Albums, stats.Photos)
}
