package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/google/subcommands"
)

var configPath = flag.String("config", "config/config.dev.yaml", "Path to configuration file")

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	commander.Register(commander.HelpCommand(), "")
	commander.Register(commander.FlagsCommand(), "")

	for _, c := range commands {
		commander.Register(c, "ledger")
	}
	commander.ImportantFlag("config")

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
