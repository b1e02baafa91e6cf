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

// teflon-export writes the reconciled coating status view to a local xlsx,
// for sharing outside the tool.
//
// Example:
//   go run ./cmd/teflon-export --filter=active --out=teflon_status.xlsx
func main() {
	var (
		filter  = flag.String("filter", "all", "status filter (all|active|<status>)")
		search  = flag.String("search", "", "free-text search")
		sortKey = flag.String("sort_key", "mold_id", "sort key")
		sortDir = flag.String("sort_dir", "asc", "asc|desc")
		out     = flag.String("out", "teflon_status.xlsx", "output file")
	)
	flag.Parse()

	config.ConnectDatabaseWithRetry()

	store := models.NewGormDatastore(config.GetDB())
	engine := workflow.NewTeflonEngine(store, config.GetLogger())

	if err := engine.Load(context.Background()); err != nil {
		fmt.Fprintf(os.Stderr, "load failed: %v\n", err)
		os.Exit(1)
	}

	rows := engine.Query(workflow.TeflonQueryParams{
		Filter:  *filter,
		Search:  *search,
		SortKey: *sortKey,
		SortDir: *sortDir,
	})
	f, err := workflow.BuildTeflonStatusWorkbook(rows)
	if err != nil {
		fmt.Fprintf(os.Stderr, "build workbook failed: %v\n", err)
		os.Exit(1)
	}
	if err := f.SaveAs(*out); err != nil {
		fmt.Fprintf(os.Stderr, "save failed: %v\n", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d rows to %s\n", len(rows), *out)
}
