package cli

import (
	"context"
	"fmt"

	flag "github.com/spf13/pflag"
)

// GetCmd returns the get command.
func GetCmd(s *session) *Command {
	flags := flag.NewFlagSet("get", flag.ContinueOnError)
	raw := flags.BoolP("raw", "r", false, "Print strings without quotes")
	pretty := flags.BoolP("pretty", "p", false, "Indent objects and arrays")

	return &Command{
		Flags: flags,
		Usage: "get <key> [flags]",
		Short: "Print the value at key",
		Long: `Print the value stored at key as JSON.

Dotted keys address members inside a row: "user.address.city" reads the
member city of the member address of row user. A missing key prints
nothing and exits with code 1.`,
		Args: 1,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			db, err := s.DB(ctx)
			if err != nil {
				return err
			}

			v, ok, err := db.Get(ctx, args[0])
			if err != nil {
				return err
			}

			if !ok {
				return fmt.Errorf("%s: not found", args[0])
			}

			out, err := formatValue(v, *raw, *pretty)
			if err != nil {
				return err
			}

			o.Println(out)

			return nil
		},
	}
}

// HasCmd returns the has command.
func HasCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("has", flag.ContinueOnError),
		Usage: "has <key>",
		Short: "Print whether key holds a non-null value",
		Long:  "Print true if key holds a value other than null, false otherwise. Always exits 0 unless the key is malformed.",
		Args:  1,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			db, err := s.DB(ctx)
			if err != nil {
				return err
			}

			ok, err := db.Has(ctx, args[0])
			if err != nil {
				return err
			}

			o.Println(ok)

			return nil
		},
	}
}

// AllCmd returns the all command.
func AllCmd(s *session) *Command {
	flags := flag.NewFlagSet("all", flag.ContinueOnError)
	asYAML := flags.Bool("yaml", false, "Print rows as a YAML mapping from id to value")

	return &Command{
		Flags: flags,
		Usage: "all [--yaml]",
		Short: "Print every row of the table",
		Long:  "Print every row of the table in insertion order, one `id<TAB>json` line per row.",
		Args:  0,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			db, err := s.DB(ctx)
			if err != nil {
				return err
			}

			rows, err := db.All(ctx)
			if err != nil {
				return err
			}

			if *asYAML {
				data, err := rowsYAML(rows)
				if err != nil {
					return err
				}

				o.Printf("%s", data)

				return nil
			}

			for _, r := range rows {
				o.Printf("%s\t%s\n", r.ID, r.Value.String())
			}

			return nil
		},
	}
}
