// migrate applies the embedded schema for the substrate named by DATABASE_URL.
package main

import (
	"flag"
	"fmt"
	"os"

	"crpstore/internal/platform/config"
	"crpstore/internal/platform/database/migrate"
)

func main() {
	direction := flag.String("direction", "up", "Migration direction: up or down")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}

	sub, err := cfg.Substrate()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	if sub != config.SubstrateSQLite && sub != config.SubstratePostgres {
		fmt.Fprintf(os.Stderr, "%s has no schema to migrate\n", sub)
		return
	}

	if err := migrate.Run(cfg.DatabaseURL, migrate.Direction(*direction)); err != nil {
		fmt.Fprintln(os.Stderr, "migrate:", err)
		os.Exit(1)
	}
	if v, dirty, err := migrate.Version(cfg.DatabaseURL); err == nil {
		fmt.Printf("schema at version %d (dirty=%t)\n", v, dirty)
	}
}
