package main

import (
	"errors"
	"flag"
	"fmt"
	"io"
	"strconv"
	"text/tabwriter"

	"github.com/banshee-data/pc2draco/internal/pointcloud"
	"github.com/banshee-data/pc2draco/internal/storage/sqlite"
)

func printParamsHelp(w io.Writer) {
	fmt.Fprint(w, `Usage: pc2draco params -db <file> <action> [args]

Actions:
  set <key> <value>              store a string value
  set-bool <key> <true|false>    store a bool value
  map <namespace> <field> <TYPE> [rgba]
                                 set the attribute type override for a field
  get <key>                      print a stored value
  list [prefix]                  list stored values
  delete <key>                   remove a value
`)
}

func runParamsCommand(args []string, out io.Writer) error {
	fs := flag.NewFlagSet("params", flag.ContinueOnError)
	dbPath := fs.String("db", "pc2draco.db", "SQLite database path")
	if err := fs.Parse(args); err != nil {
		return err
	}
	args = fs.Args()
	if len(args) < 1 {
		printParamsHelp(out)
		return errors.New("params: missing action")
	}

	db, err := sqlite.Open(*dbPath)
	if err != nil {
		return err
	}
	defer db.Close()
	store := sqlite.NewParamStore(db.DB)

	switch action := args[0]; action {
	case "set":
		if len(args) != 3 {
			return errors.New("usage: pc2draco params set <key> <value>")
		}
		return store.SetString(args[1], args[2])

	case "set-bool":
		if len(args) != 3 {
			return errors.New("usage: pc2draco params set-bool <key> <true|false>")
		}
		v, err := strconv.ParseBool(args[2])
		if err != nil {
			return fmt.Errorf("invalid bool %q: %w", args[2], err)
		}
		return store.SetBool(args[1], v)

	case "map":
		if len(args) != 4 && len(args) != 5 {
			return errors.New("usage: pc2draco params map <namespace> <field> <TYPE> [rgba]")
		}
		ns, field := args[1], args[2]
		if err := store.SetString(pointcloud.AttributeTypeKey(ns, field), args[3]); err != nil {
			return err
		}
		if len(args) == 5 {
			if args[4] != "rgba" {
				return fmt.Errorf("unknown map option %q", args[4])
			}
			return store.SetBool(pointcloud.RGBATweakKey(ns, field), true)
		}
		return nil

	case "get":
		if len(args) != 2 {
			return errors.New("usage: pc2draco params get <key>")
		}
		p, ok, err := store.Get(args[1])
		if err != nil {
			return err
		}
		if !ok {
			return fmt.Errorf("%s: not set", args[1])
		}
		fmt.Fprintln(out, p.Value)
		return nil

	case "list":
		prefix := ""
		if len(args) > 1 {
			prefix = args[1]
		}
		params, err := store.List(prefix)
		if err != nil {
			return err
		}
		tw := tabwriter.NewWriter(out, 0, 4, 2, ' ', 0)
		fmt.Fprintln(tw, "KEY\tKIND\tVALUE")
		for _, p := range params {
			fmt.Fprintf(tw, "%s\t%s\t%s\n", p.Key, p.Kind, p.Value)
		}
		return tw.Flush()

	case "delete":
		if len(args) != 2 {
			return errors.New("usage: pc2draco params delete <key>")
		}
		return store.Delete(args[1])

	default:
		printParamsHelp(out)
		return fmt.Errorf("params: unknown action %q", action)
	}
}
