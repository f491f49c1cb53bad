// Package results implements read commands over the optional results
// database.
package results

import (
	"fmt"
	"strings"

	"github.com/urfave/cli/v2"

	"github.com/pagesift/pagesift/pkg/store"
)

func RecentAction(c *cli.Context) error {
	dbPath := c.String("db")
	if dbPath == "" {
		return cli.Exit("--db is required\nUsage: pagesift results --db FILE [--limit N]", 2)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("database: %v", err), 2)
	}
	defer db.Close()

	rows, err := db.RecentResults(c.Int("limit"))
	if err != nil {
		return cli.Exit(fmt.Sprintf("query: %v", err), 1)
	}
	if len(rows) == 0 {
		fmt.Println("No results stored")
		return nil
	}

	fmt.Printf("%-6s %-20s %-12s %-6s %-8s %-8s %s\n",
		"ID", "Created", "Method", "Lang", "Words", "Chunks", "URL")
	fmt.Println(strings.Repeat("-", 100))
	for _, r := range rows {
		fmt.Printf("%-6d %-20s %-12s %-6s %-8d %-8d %s\n",
			r.ID,
			r.CreatedAt.Format("2006-01-02 15:04:05"),
			r.Method,
			r.Language,
			r.WordCount,
			r.ChunkCount,
			r.URL,
		)
	}
	fmt.Printf("\nTotal: %d results\n", len(rows))
	return nil
}

func RobotsAction(c *cli.Context) error {
	dbPath := c.String("db")
	if dbPath == "" {
		return cli.Exit("--db is required\nUsage: pagesift robots --db FILE", 2)
	}
	db, err := store.Open(dbPath)
	if err != nil {
		return cli.Exit(fmt.Sprintf("database: %v", err), 2)
	}
	defer db.Close()

	decisions, err := db.RobotsDecisions()
	if err != nil {
		return cli.Exit(fmt.Sprintf("query: %v", err), 1)
	}
	if len(decisions) == 0 {
		fmt.Println("No robots decisions stored")
		return nil
	}

	fmt.Printf("%-8s %-20s %-20s %s\n", "Allowed", "Fetched", "Expires", "Origin")
	fmt.Println(strings.Repeat("-", 90))
	for _, d := range decisions {
		fmt.Printf("%-8t %-20s %-20s %s\n",
			d.Allowed,
			d.FetchedAt.Format("2006-01-02 15:04:05"),
			d.ExpiresAt.Format("2006-01-02 15:04:05"),
			d.Origin,
		)
	}
	return nil
}
