// submodule cmd contains command definitions
package main

import "github.com/urfave/cli/v3"

func configFlag() cli.Flag {
	return &cli.StringFlag{
		Name:    "config",
		Aliases: []string{"c"},
		Usage:   "Path to configuration file",
		Value:   "config.toml",
	}
}

// setupCommand initializes the database and config file
func setupCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "setup",
		Usage: "Initialize database and run migrations",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "force",
				Usage: "Run migrations even if the config file already exists",
			},
		},
		Action: r.Setup,
	}
}

// runCommand starts the coordinator daemon
func runCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "run",
		Usage:  "Run the sync coordinator daemon",
		Flags:  []cli.Flag{configFlag()},
		Action: r.Run,
	}
}

// intervalCommand reads or reconfigures the periodic sync interval
func intervalCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "interval",
		Usage: "Periodic sync interval operations",
		Commands: []*cli.Command{
			{
				Name:   "get",
				Usage:  "Print the configured sync interval in milliseconds",
				Flags:  []cli.Flag{configFlag()},
				Action: r.IntervalGet,
			},
			{
				Name:      "set",
				Usage:     "Set the sync interval in milliseconds (below 60000 disables periodic syncing)",
				ArgsUsage: "<milliseconds>",
				Flags:     []cli.Flag{configFlag()},
				Action:    r.IntervalSet,
			},
		},
	}
}

// sessionsCommand lists sessions known to the running daemon
func sessionsCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:  "sessions",
		Usage: "List detected sessions and schedule state",
		Flags: []cli.Flag{
			configFlag(),
			&cli.BoolFlag{
				Name:  "json",
				Usage: "Output raw JSON",
			},
			&cli.BoolFlag{
				Name:  "pretty",
				Usage: "Pretty-print output",
			},
		},
		Action: r.Sessions,
	}
}

// tuiCommand launches the status dashboard
func tuiCommand(r *Runner) *cli.Command {
	return &cli.Command{
		Name:   "tui",
		Usage:  "Interactive status dashboard",
		Flags:  []cli.Flag{configFlag()},
		Action: r.TUI,
	}
}
