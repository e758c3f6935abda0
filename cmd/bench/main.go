package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"sync"
	"sync/atomic"
	"time"

	"github.com/fabianshop/storefront"
	"github.com/fabianshop/storefront/pkg/core"
)

const secret = "bench"

func main() {
	writers := flag.Int("writers", 8, "Number of concurrent editors")
	perWriter := flag.Int("products", 25, "Products added by each editor")
	withGit := flag.Bool("git", false, "Commit every change to git")
	keep := flag.Bool("keep", false, "Keep the benchmark catalog after running")
	flag.Parse()

	// 1. Setup Namespace
	benchDir, err := os.MkdirTemp("", "storefront_bench_")
	if err != nil {
		panic(err)
	}
	defer func() {
		if !*keep {
			os.RemoveAll(benchDir)
		} else {
			fmt.Printf("Keeping bench dir: %s\n", benchDir)
		}
	}()

	// 2. Initialize Service
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelWarn}))
	service, err := storefront.New(benchDir,
		storefront.WithLogger(logger),
		storefront.WithAutoInit(true),
		storefront.WithVersioning(*withGit),
		storefront.WithSecret(secret),
	)
	if err != nil {
		panic(err)
	}

	// 3. Contend: every editor retries on conflict until its product lands.
	ctx := context.Background()
	var retries atomic.Int64
	var wg sync.WaitGroup
	start := time.Now()

	for w := 0; w < *writers; w++ {
		wg.Add(1)
		go func(w int) {
			defer wg.Done()
			for i := 0; i < *perWriter; i++ {
				d := draft(strconv.Itoa(w*(*perWriter) + i + 1))
				for {
					_, err := service.Create(ctx, secret, d)
					if err == nil {
						break
					}
					if !errors.Is(err, core.ErrConflict) {
						panic(err)
					}
					retries.Add(1)
				}
			}
		}(w)
	}
	wg.Wait()
	duration := time.Since(start)

	c, err := service.Catalog(ctx)
	if err != nil {
		panic(err)
	}
	state := service.State().(core.ServiceState)

	fmt.Printf("--------------------------------------------------\n")
	fmt.Printf("Benchmark Result (%d editors x %d products, git=%v):\n", *writers, *perWriter, *withGit)
	fmt.Printf("  Duration:  %v\n", duration)
	fmt.Printf("  Products:  %d\n", len(c.Products))
	fmt.Printf("  Commits:   %d\n", state.Commits)
	fmt.Printf("  Conflicts: %d (retries %d)\n", state.Conflicts, retries.Load())
	fmt.Printf("--------------------------------------------------\n")
}

func draft(id string) core.Draft {
	return core.DraftFrom(core.Product{
		ID:          id,
		Name:        "Prodotto " + id,
		Price:       "10.00",
		Description: "Prodotto generato per il benchmark",
		Categories:  []core.Category{core.CategoryRegalo},
		Images:      []string{"https://example.com/" + id + ".webp"},
	})
}
