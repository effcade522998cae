// Command leapaccel is the CLI for the LeapAccel query-acceleration layer.
package main

import (
	"os"

	"github.com/leapstack-labs/leapaccel/internal/cli"

	// Register backend engine adapters.
	_ "github.com/leapstack-labs/leapaccel/pkg/adapters/duckdb"
	_ "github.com/leapstack-labs/leapaccel/pkg/adapters/postgres"
)

func main() {
	os.Exit(cli.Execute())
}
