// Command psw manages a dividend portfolio: API server, imports, market data
// and reports.
package main

import (
	"context"
	"flag"
	"os"
	"path"

	"github.com/etnz/psw/cmd"
	"github.com/google/subcommands"
)

func main() {
	name := path.Base(os.Args[0])
	// Handles the shell completion requests and exits when it is one.
	cmd.Completion().Complete(name)

	commander := subcommands.NewCommander(flag.CommandLine, name)
	cmd.Register(commander)

	flag.Parse()
	os.Exit(int(commander.Execute(context.Background())))
}
