package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"log"

	"github.com/banshee-data/pc2draco/internal/storage/sqlite"
)

func printMigrateHelp(w io.Writer) {
	fmt.Fprint(w, `Usage: pc2draco migrate -db <file> <action>

Actions:
  up        apply all pending migrations
  down      roll back the most recent migration
  version   print the current schema version
`)
}

func runMigrateCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("migrate", flag.ContinueOnError)
	dbPath := fs.String("db", "pc2draco.db", "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		printMigrateHelp(out)
		return errors.New("migrate: expected exactly one action")
	}

	db, err := sqlite.OpenUnmigrated(*dbPath)
	if err != nil {
		return fmt.Errorf("failed to connect to database: %w", err)
	}
	defer db.Close()

	switch action := fs.Arg(0); action {
	case "up":
		log.Printf("Running migrations on %s...", *dbPath)
		if err := db.MigrateUp(); err != nil {
			return err
		}
		log.Printf("✓ All migrations applied successfully")

	case "down":
		log.Printf("Rolling back one migration on %s...", *dbPath)
		if err := db.MigrateDown(); err != nil {
			return err
		}
		log.Printf("✓ Rolled back one migration")

	case "version":
		v, dirty, err := db.MigrateVersion()
		if err != nil {
			return err
		}
		if dirty {
			fmt.Fprintf(out, "%d (dirty)\n", v)
		} else {
			fmt.Fprintf(out, "%d\n", v)
		}

	default:
		printMigrateHelp(out)
		return fmt.Errorf("migrate: unknown action %q", action)
	}
	return nil
}
