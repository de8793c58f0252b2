// Package main provides qkv-seed, a tool that fills a database with test rows
// from many goroutines at once.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"time"

	flag "github.com/spf13/pflag"
	"golang.org/x/sync/errgroup"

	"github.com/calvinalkan/quickkv/pkg/quickdb"
	"github.com/calvinalkan/quickkv/pkg/quickdb/jsonfile"
	"github.com/calvinalkan/quickkv/pkg/quickdb/sqlite"
)

func main() {
	counts := flag.IntSlice("count", []int{100, 1000}, "Rows to seed, one database per count")
	driver := flag.String("driver", "json", "Backend: json or sqlite")
	baseDir := flag.String("dir", filepath.Join(os.TempDir(), "qkv-seed"), "Directory for the seeded databases")
	workers := flag.Int("workers", runtime.NumCPU(), "Concurrent writers")
	flag.Parse()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	for _, count := range *counts {
		path := filepath.Join(*baseDir, fmt.Sprintf("%d.%s", count, *driver))
		start := time.Now()

		err := seed(ctx, *driver, path, count, *workers)
		if err != nil {
			fmt.Fprintf(os.Stderr, "error seeding %d: %v\n", count, err)
			os.Exit(1)
		}

		fmt.Printf("Seeded %d rows in %s -> %s\n", count, time.Since(start), path)
	}
}

func seed(ctx context.Context, driver, path string, count, workers int) (err error) {
	// Start from an empty database.
	_ = os.Remove(path)

	var d interface {
		quickdb.Driver
		Close() error
	}

	switch driver {
	case "json":
		d, err = jsonfile.Open(ctx, jsonfile.Options{Path: path, Compact: true})
	case "sqlite":
		d, err = sqlite.Open(ctx, path, sqlite.Options{})
	default:
		return fmt.Errorf("unknown driver %q", driver)
	}

	if err != nil {
		return err
	}

	defer func() {
		closeErr := d.Close()
		if err == nil {
			err = closeErr
		}
	}()

	db, err := quickdb.New(ctx, d)
	if err != nil {
		return err
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))

	for i := 1; i <= count; i++ {
		g.Go(func() error {
			_, err := db.Set(gctx, fmt.Sprintf("r%06d", i), row(i))

			return err
		})
	}

	return g.Wait()
}

func row(i int) map[string]any {
	// Vary shape for a realistic mix of values.
	statuses := []string{"open", "closed", "in_progress"}

	r := map[string]any{
		"status":   statuses[i%len(statuses)],
		"priority": (i % 4) + 1,
		"tags":     []any{"seed", fmt.Sprintf("batch-%d", i/100)},
	}

	if i%5 == 0 {
		r["closed"] = "2026-01-04T13:00:00Z"
	}

	return r
}
