// Command recordcache-cli loads a recordcache schema document and record
// store and lets you validate, inspect, and query it from a terminal.
package main

import (
	"fmt"
	"os"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"

	"github.com/satishbabariya/recordcache/cmd/recordcache-cli/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
