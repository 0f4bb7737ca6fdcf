package cmd

import (
	"context"
	"flag"
	"os"
	"strings"

	"github.com/etnz/psw/agent"
	"github.com/google/subcommands"
	"google.golang.org/genai"
)

// assistCmd is the subcommand for the AI assistant.
type assistCmd struct {
	format string
}

func (*assistCmd) Name() string { return "assist" }
func (*assistCmd) Synopsis() string {
	return "start an interactive session with the AI assistant"
}
func (*assistCmd) Usage() string {
	return `assist [-format sv|en|de] [<question>]

Start an interactive session with the AI assistant. The question, if any, is
asked first. GEMINI_API_KEY must be set.
`
}

func (c *assistCmd) SetFlags(f *flag.FlagSet) { formatFlag(f, &c.format) }

func (c *assistCmd) Execute(ctx context.Context, f *flag.FlagSet, _ ...interface{}) subcommands.ExitStatus {
	e, ok := open()
	if !ok {
		return subcommands.ExitFailure
	}
	defer e.Close()

	if e.cfg.GeminiAPIKey == "" {
		failf("GEMINI_API_KEY is not set")
		return subcommands.ExitFailure
	}
	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  e.cfg.GeminiAPIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		failf("initializing Gemini's client: %v", err)
		return subcommands.ExitFailure
	}

	trader := agent.NewTrader()
	accountant := agent.NewAccountant(e.store, c.format)
	trader.Log, accountant.Log = e.log, e.log
	a := agent.New(os.Stdout, os.Stdin, trader, accountant)
	a.Facilitator.Log = e.log
	a.Markdown = renderMarkdown

	var prompts []string
	if f.NArg() > 0 {
		prompts = append(prompts, strings.Join(f.Args(), " "))
	}
	if err := a.Run(ctx, client, prompts...); err != nil {
		failf("agent failed: %v", err)
		return subcommands.ExitFailure
	}
	return subcommands.ExitSuccess
}
