package cli

import (
	"context"

	flag "github.com/spf13/pflag"
)

// PrintConfigCmd returns the print-config command.
func PrintConfigCmd(cfg *Config) *Command {
	return &Command{
		Flags: flag.NewFlagSet("print-config", flag.ContinueOnError),
		Usage: "print-config",
		Short: "Show resolved configuration",
		Long:  "Display the effective configuration and which files it was loaded from.",
		Exec: func(_ context.Context, o *IO, _ []string) error {
			execPrintConfig(o, cfg)

			return nil
		},
	}
}

func execPrintConfig(o *IO, cfg *Config) {
	for _, line := range FormatConfig(*cfg) {
		o.Println(line)
	}

	o.Println("")
	o.Println("# sources")

	if cfg.Sources.Global == "" && cfg.Sources.Project == "" {
		o.Println("(defaults only)")

		return
	}

	if cfg.Sources.Global != "" {
		o.Println("global_config=" + cfg.Sources.Global)
	}

	if cfg.Sources.Project != "" {
		o.Println("project_config=" + cfg.Sources.Project)
	}
}
