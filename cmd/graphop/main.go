// Command graphop serves the built-in graphop operations over HTTP.
package main

import (
	"fmt"
	"os"

	"github.com/syssam/graphop/internal/cli"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"
)

func main() {
	if err := cli.NewRootCommand().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "graphop:", err)
		os.Exit(1)
	}
}
