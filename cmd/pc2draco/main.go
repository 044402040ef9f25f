// Command pc2draco converts PCD point clouds into attribute-major clouds
// ready for a geometry encoder, and manages the attribute override store.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/banshee-data/pc2draco/internal/version"
)

func usage() {
	fmt.Fprintf(os.Stderr, `Usage: pc2draco <command> [flags] [args]

Commands:
  convert   convert one or more PCD files
  params    get/set/list attribute override parameters (sqlite)
  migrate   manage the sqlite schema (up, down, version)
  version   print version information
`)
}

func main() {
	log.SetFlags(log.LstdFlags | log.Lmicroseconds)
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	var err error
	switch cmd, args := os.Args[1], os.Args[2:]; cmd {
	case "convert":
		err = runConvertCommand(ctx, args, os.Stdout)
	case "params":
		err = runParamsCommand(args, os.Stdout)
	case "migrate":
		err = runMigrateCommand(args, os.Stdout)
	case "version", "-version", "--version":
		fmt.Println(version.String())
	case "help", "-h", "--help":
		usage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n\n", cmd)
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalf("pc2draco: %v", err)
	}
}
