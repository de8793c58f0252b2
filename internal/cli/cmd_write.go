package cli

import (
	"context"
	"strconv"

	flag "github.com/spf13/pflag"

	"github.com/calvinalkan/quickkv/pkg/quickdb"
	"github.com/calvinalkan/quickkv/pkg/value"
)

// SetCmd returns the set command.
func SetCmd(s *session) *Command {
	return &Command{
		Flags: valueFlags("set"),
		Usage: "set <key> <value>",
		Short: "Store a value",
		Long: `Store value at key and print the resulting row.

value is parsed as JSON; anything that is not valid JSON is stored as a
string. Setting a dotted key creates the row and any missing objects on the
way. A level that holds something other than an object is replaced, unless
strict_paths is configured.`,
		Args: 2,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			db, err := s.DB(ctx)
			if err != nil {
				return err
			}

			row, err := db.Set(ctx, args[0], parseArg(args[1]))
			if err != nil {
				return err
			}

			o.Println(row.String())

			return nil
		},
	}
}

// DeleteCmd returns the delete command.
func DeleteCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("delete", flag.ContinueOnError),
		Usage: "delete <key>",
		Short: "Remove a row or a member of a row",
		Long:  "Remove key and print whether anything was removed.",
		Args:  1,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			db, err := s.DB(ctx)
			if err != nil {
				return err
			}

			removed, err := db.Delete(ctx, args[0])
			if err != nil {
				return err
			}

			o.Println(removed)

			return nil
		},
	}
}

// DeleteAllCmd returns the delete-all command.
func DeleteAllCmd(s *session) *Command {
	return &Command{
		Flags: flag.NewFlagSet("delete-all", flag.ContinueOnError),
		Usage: "delete-all",
		Short: "Remove every row of the table",
		Long:  "Remove every row of the table and print how many were removed. The table itself remains.",
		Args:  0,
		Exec: func(ctx context.Context, o *IO, _ []string) error {
			db, err := s.DB(ctx)
			if err != nil {
				return err
			}

			n, err := db.DeleteAll(ctx)
			if err != nil {
				return err
			}

			o.Println(n)

			return nil
		},
	}
}

// AddCmd returns the add command.
func AddCmd(s *session) *Command {
	return arithmeticCmd(s, "add", "Add a number to the value at key", (*quickdb.DB).Add)
}

// SubCmd returns the sub command.
func SubCmd(s *session) *Command {
	return arithmeticCmd(s, "sub", "Subtract a number from the value at key", (*quickdb.DB).Sub)
}

func arithmeticCmd(
	s *session,
	name, short string,
	apply func(db *quickdb.DB, ctx context.Context, k string, n float64) (float64, error),
) *Command {
	return &Command{
		Flags: valueFlags(name),
		Usage: name + " <key> <number>",
		Short: short,
		Long: short + ` and print the result.

A missing or null value counts as 0 and a numeric string is converted. Any
other stored value is an error and is left unchanged.`,
		Args: 2,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			n, err := parseNumber(args[1])
			if err != nil {
				return err
			}

			db, err := s.DB(ctx)
			if err != nil {
				return err
			}

			result, err := apply(db, ctx, args[0], n)
			if err != nil {
				return err
			}

			o.Println(strconv.FormatFloat(result, 'f', -1, 64))

			return nil
		},
	}
}

// PushCmd returns the push command.
func PushCmd(s *session) *Command {
	return &Command{
		Flags: valueFlags("push"),
		Usage: "push <key> <value>...",
		Short: "Append values to the array at key",
		Long: `Append each value to the array at key and print the array.

A missing or null value counts as an empty array. A value that is itself a
JSON array is spread, so "push k [1,2]" appends two elements.`,
		Args: -2,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			db, err := s.DB(ctx)
			if err != nil {
				return err
			}

			vals := make([]any, 0, len(args)-1)
			for _, a := range args[1:] {
				vals = append(vals, parseArg(a))
			}

			arr, err := db.Push(ctx, args[0], vals...)
			if err != nil {
				return err
			}

			o.Println(arr.String())

			return nil
		},
	}
}

// PullCmd returns the pull command.
func PullCmd(s *session) *Command {
	return &Command{
		Flags: valueFlags("pull"),
		Usage: "pull <key> <value>...",
		Short: "Remove values from the array at key",
		Long: `Remove every element equal to one of the values from the array at key
and print the remaining array.`,
		Args: -2,
		Exec: func(ctx context.Context, o *IO, args []string) error {
			db, err := s.DB(ctx)
			if err != nil {
				return err
			}

			drop := make([]value.Value, 0, len(args)-1)
			for _, a := range args[1:] {
				drop = append(drop, parseArg(a))
			}

			target := drop[0]
			if len(drop) > 1 {
				target = value.Array(drop...)
			}

			arr, err := db.Pull(ctx, args[0], target)
			if err != nil {
				return err
			}

			o.Println(arr.String())

			return nil
		},
	}
}

// valueFlags returns a flag set that stops at the first positional argument,
// so values such as -1 are not taken for flags.
func valueFlags(name string) *flag.FlagSet {
	flags := flag.NewFlagSet(name, flag.ContinueOnError)
	flags.SetInterspersed(false)

	return flags
}
