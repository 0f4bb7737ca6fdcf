package cmd

import (
	"context"
	"flag"
	"strings"

	"github.com/etnz/psw/docs"
	"github.com/google/subcommands"
)

type topicCmd struct {
	list bool
}

func (*topicCmd) Name() string     { return "topic" }
func (*topicCmd) Synopsis() string { return "show the rulebook" }
func (*topicCmd) Usage() string {
	return `topic [-list] [<topic>...]

Show the rulebook topics. Without a topic, show the readme; "*" shows
every topic.
`
}

func (c *topicCmd) SetFlags(f *flag.FlagSet) {
	f.BoolVar(&c.list, "list", false, "List the topics and their summary")
}

func (c *topicCmd) Execute(_ context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	if c.list {
		index, err := docs.Index()
		if err != nil {
			failf("cannot read the rulebook index: %v", err)
			return subcommands.ExitFailure
		}
		var b strings.Builder
		b.WriteString("# Topics\n\n")
		for _, t := range index {
			b.WriteString("* **" + t.Name + "**: " + t.Summary + "\n")
		}
		printMarkdown(b.String())
		return subcommands.ExitSuccess
	}

	topics := f.Args()
	if len(topics) == 0 {
		topics = []string{docs.Readme}
	}
	doc, err := docs.GetTopics(topics...)
	if err != nil {
		failf("reading doc: %v", err)
		return subcommands.ExitFailure
	}
	printMarkdown(doc)
	return subcommands.ExitSuccess
}

// topicPredictor completes the topic names.
type topicPredictor struct{}

func (topicPredictor) Predict(prefix string) []string {
	index, err := docs.Index()
	if err != nil {
		return nil
	}
	var names []string
	for _, t := range index {
		if strings.HasPrefix(t.Name, prefix) {
			names = append(names, t.Name)
		}
	}
	return names
}
