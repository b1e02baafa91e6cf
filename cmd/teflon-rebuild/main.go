package main

import (
	"context"
	"flag"
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/moldtrack_backend/config"
	"bitbucket.org/mmdatafocus/moldtrack_backend/models"
	"bitbucket.org/mmdatafocus/moldtrack_backend/workflow"
)

// teflon-rebuild reconciles the coating log against the mold master and
// prints the bucket sizes plus any molds excluded for unresolvable legacy
// status values. Read-only; useful for checking data quality after imports.
//
// Example:
//   go run ./cmd/teflon-rebuild --show-excluded
func main() {
	var (
		showExcluded = flag.Bool("show-excluded", false, "list excluded mold ids")
	)
	flag.Parse()

	// Connect using env config (same as server).
	config.ConnectDatabaseWithRetry()

	logger := config.GetLogger()
	store := models.NewGormDatastore(config.GetDB())
	engine := workflow.NewTeflonEngine(store, logger)

	if err := engine.Load(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
		os.Exit(1)
	}

	counts := engine.BucketCounts()
	total := 0
	for _, status := range models.AllTeflonStatuses {
		fmt.Printf("%-12s %6d\n", status, counts[status])
		total += counts[status]
	}
	excluded := engine.ExcludedMolds()
	fmt.Printf("%-12s %6d\n", "total", total)
	fmt.Printf("%-12s %6d\n", "excluded", len(excluded))

	if *showExcluded {
		for _, moldId := range excluded {
			fmt.Println(moldId)
		}
	}
}
