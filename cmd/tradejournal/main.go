package main

import (
	"context"
	"flag"
	"os"
	"path"

	"tradejournal/internal/cli"

	"github.com/google/subcommands"
)

func main() {
	commander := subcommands.NewCommander(flag.CommandLine, path.Base(os.Args[0]))
	env := cli.NewEnv(os.Stdout, os.Stderr)
	env.SetFlags(flag.CommandLine)
	cli.Register(commander, env)

	flag.Parse()
	status := commander.Execute(context.Background())
	_ = env.Close()
	os.Exit(int(status))
}
