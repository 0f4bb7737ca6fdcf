package cmd

import (
	"flag"

	"github.com/google/subcommands"
	"github.com/posener/complete/v2"
	"github.com/posener/complete/v2/predict"
)

// group is a set of commands listed together in the help.
type group struct {
	name     string
	commands []subcommands.Command
}

var groups = []group{
	{"server", []subcommands.Command{&serveCmd{}, &migrateCmd{}, &useraddCmd{}}},
	{"portfolio", []subcommands.Command{&importDividendsCmd{}, &recomputeCmd{}}},
	{"reports", []subcommands.Command{&holdingsCmd{}, &allocationCmd{}, &dividendsCmd{}, &estimateCmd{}, &reconcileCmd{}}},
	{"market data", []subcommands.Command{&fetchFXCmd{}, &fetchBorsdataCmd{}}},
	{"help", []subcommands.Command{&topicCmd{}, &assistCmd{}}},
}

// Commands lists every psw subcommand.
var Commands = func() []subcommands.Command {
	var all []subcommands.Command
	for _, g := range groups {
		all = append(all, g.commands...)
	}
	return all
}()

// Register the subcommands.
// A main package will call Register() to allow subcommands, and Execute() on the user-selected one.
func Register(c *subcommands.Commander) {
	for _, g := range groups {
		for _, cmd := range g.commands {
			c.Register(cmd, g.name)
		}
	}
	c.Register(c.HelpCommand(), "help")
	c.Register(c.FlagsCommand(), "help")
	c.Register(c.CommandsCommand(), "help")
}

// predictors complete the flag values that have a known domain.
var predictors = map[string]complete.Predictor{
	"format": predict.Set{"sv", "en", "de"},
	"broker": predict.Set{"avanza", "nordnet", "seb", "handelsbanken", "generic"},
	"env":    predict.Files("*"),
	"cache":  predict.Dirs("*"),
}

// Completion describes the command line for shell completion. Flags are
// read from each command's SetFlags.
func Completion() *complete.Command {
	root := &complete.Command{
		Sub:   map[string]*complete.Command{},
		Flags: map[string]complete.Predictor{"env": predictors["env"]},
	}
	for _, c := range Commands {
		fs := flag.NewFlagSet(c.Name(), flag.ContinueOnError)
		c.SetFlags(fs)
		sub := &complete.Command{Flags: map[string]complete.Predictor{}, Args: predict.Nothing}
		fs.VisitAll(func(f *flag.Flag) {
			if p, ok := predictors[f.Name]; ok {
				sub.Flags[f.Name] = p
				return
			}
			sub.Flags[f.Name] = predict.Something
		})
		switch c.Name() {
		case "import-dividends":
			sub.Args = predict.Files("*.csv")
		case "topic":
			sub.Args = topicPredictor{}
		case "assist":
			sub.Args = predict.Something
		}
		root.Sub[c.Name()] = sub
	}
	return root
}
