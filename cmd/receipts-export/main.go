// receipts-export renders the stored receipt collection to json, csv or
// xlsx without going through the HTTP server.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"receipts/internal/backend"
	"receipts/internal/config"
	"receipts/internal/export"
	"receipts/internal/repository"
)

func main() {
	var (
		backendName = flag.String("backend", "file", "data backend: memory, file or sqlite")
		dataDir     = flag.String("dir", "./data", "data directory for the file backend")
		dbPath      = flag.String("db", "./data/receipts.db", "database path for the sqlite backend")
		format      = flag.String("format", "json", "output format: json, csv or xlsx")
		out         = flag.String("out", "", "output file (default stdout)")
	)
	flag.Parse()

	if err := run(*backendName, *dataDir, *dbPath, *format, *out); err != nil {
		fmt.Fprintln(os.Stderr, "receipts-export:", err)
		os.Exit(1)
	}
}

func run(backendName, dataDir, dbPath, format, out string) error {
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn})))

	cfg := &config.Config{
		Port:         "8081",
		DataBackend:  backendName,
		DataDir:      dataDir,
		SQLiteDBPath: dbPath,
		LogLevel:     "warn",
	}
	if err := cfg.Validate(); err != nil {
		return err
	}

	store, err := backend.Open(cfg)
	if err != nil {
		return err
	}
	defer store.Close()

	repo := repository.New(store)
	repo.Load(context.Background())
	receipts := repo.List()

	var data []byte
	switch format {
	case "json":
		data, err = export.JSON(receipts)
	case "csv":
		data = export.CSV(receipts)
	case "xlsx":
		data, err = export.XLSX(receipts)
	default:
		return fmt.Errorf("unsupported format: %s", format)
	}
	if err != nil {
		return fmt.Errorf("render %s: %w", format, err)
	}

	if out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(out, data, 0644); err != nil {
		return fmt.Errorf("write %s: %w", out, err)
	}
	fmt.Fprintf(os.Stderr, "wrote %d receipts to %s (%s, %s)\n", len(receipts), out, format, time.Now().Format("2006-01-02 15:04:05"))
	return nil
}
