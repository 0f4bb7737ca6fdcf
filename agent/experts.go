package agent

import (
	"context"
	"fmt"

	"github.com/etnz/psw"
	"github.com/etnz/psw/docs"
	"github.com/etnz/psw/renderer"
	"github.com/etnz/psw/store"
	"google.golang.org/genai"
)

// Model is the Gemini model of every expert.
const Model = "gemini-2.5-pro"

func instruction(s string) *genai.Content {
	return &genai.Content{Parts: []*genai.Part{{Text: s}}}
}

func newFacilitator(experts ...*Expert) *Expert {
	return &Expert{
		Name:      "Facilitator",
		ModelName: Model,
		Config: &genai.GenerateContentConfig{
			Tools:             []*genai.Tool{{FunctionDeclarations: NewDeclaration(experts)}},
			SystemInstruction: instruction(facilitatorInstruction),
		},
		Library: NewLibrary(experts),
	}
}

const facilitatorInstruction = `
As a facilitator you are in charge of the conversation and of solving the user's request.

Learn about the skills of the experts you can ask questions to from the Tools.
They are dedicated to you and keep the context of your previous questions.

The user manages a dividend portfolio of several hundred companies. They come
primarily for news about their companies, their dividend income and the way
the portfolio is spread.

Devise a plan of questions to ask each expert and come up with the best
response to the user's request. Ask the Accountant first when the user refers
to companies by ticker or name.`

// NewTrader returns the expert grounded on Google Search.
func NewTrader() *Expert {
	return &Expert{
		Name: "Trader",
		Description: `This is an expert trader, aware of financial products and institutions,
and of the latest news about companies and markets. Ask the Trader whenever you
need recent or grounding information.`,
		ModelName: Model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
			SystemInstruction: instruction(`
You are an expert in trading. You can search anything related to financial
institutions, companies, markets and dividends. Leverage Google Search to ground
your assertions. Relate the latest news to the user's request.`),
		},
	}
}

// Books is what the Accountant reads from the portfolio.
type Books interface {
	ActiveHoldings(ctx context.Context) ([]store.Holding, error)
	Allocation(ctx context.Context) (psw.Allocation, error)
	SummarizeDividends(ctx context.Context, f store.DividendFilter) (store.DividendSummary, error)
	EstimateDividends(ctx context.Context) (psw.Estimate, error)
	Unsupported(ctx context.Context) (psw.Reconciliation, error)
}

// NewAccountant returns the expert reading the portfolio from books.
// Reports are rendered with the format preference.
func NewAccountant(books Books, format string) *Expert {
	lib := accountantTools(books, renderer.Options{Format: format})
	return &Expert{
		Name: "Accountant",
		Description: `This is the Accountant. They read the user's portfolio: holdings,
allocation, dividends received and the dividend estimate of the year.`,
		ModelName: Model,
		Config: &genai.GenerateContentConfig{
			Tools: []*genai.Tool{{FunctionDeclarations: NewDeclaration(lib)}},
			SystemInstruction: instruction(`
You are the accountant of the user's dividend portfolio. Use the Tools to
extract the relevant figures. You are part of a team of experts, yours is
everything about the user's portfolio. Pardon the approximate language of the
other experts and figure out what they meant.

Amounts are in SEK unless stated otherwise.`),
		},
		Library: NewLibrary(lib),
	}
}

func noArgs(name, description string) *genai.FunctionDeclaration {
	return &genai.FunctionDeclaration{
		Name:        name,
		Description: description,
		Response:    &genai.Schema{Type: genai.TypeString, Description: "A markdown report."},
	}
}

func accountantTools(books Books, opts renderer.Options) []Function {
	return []Function{
		&Func{
			Decl: noArgs("Holdings", "Holdings lists the companies held with their shares, cost and current value in SEK."),
			Func: func(ctx context.Context, _ map[string]any) (string, error) {
				h, err := books.ActiveHoldings(ctx)
				if err != nil {
					return "", err
				}
				return renderer.RenderHoldings(h, opts), nil
			},
		},
		&Func{
			Decl: noArgs("Allocation", "Allocation splits the portfolio value by country, region, sector, currency and position size."),
			Func: func(ctx context.Context, _ map[string]any) (string, error) {
				a, err := books.Allocation(ctx)
				if err != nil {
					return "", err
				}
				return renderer.RenderAllocation(a, opts), nil
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Dividends",
				Description: "Dividends sums the dividends received, optionally for one year or one company.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"year":    {Type: genai.TypeInteger, Description: "Payment year, all years when omitted."},
						"company": {Type: genai.TypeString, Description: "Company name or ISIN, all companies when omitted."},
					},
				},
				Response: &genai.Schema{Type: genai.TypeString, Description: "A markdown report."},
			},
			Func: func(ctx context.Context, args map[string]any) (string, error) {
				f, err := dividendFilter(args)
				if err != nil {
					return "", err
				}
				s, err := books.SummarizeDividends(ctx, f)
				if err != nil {
					return "", err
				}
				return renderer.RenderDividendSummary(s, opts), nil
			},
		},
		&Func{
			Decl: noArgs("Estimate", "Estimate forecasts the dividend income of the current year, month by month."),
			Func: func(ctx context.Context, _ map[string]any) (string, error) {
				e, err := books.EstimateDividends(ctx)
				if err != nil {
					return "", err
				}
				return renderer.RenderEstimate(e, opts), nil
			},
		},
		&Func{
			Decl: noArgs("Coverage", "Coverage lists the held companies no market data source covers."),
			Func: func(ctx context.Context, _ map[string]any) (string, error) {
				r, err := books.Unsupported(ctx)
				if err != nil {
					return "", err
				}
				return renderer.RenderReconciliation(r, opts), nil
			},
		},
		&Func{
			Decl: &genai.FunctionDeclaration{
				Name:        "Rulebook",
				Description: "Rulebook returns the rules the portfolio is managed by.",
				Parameters: &genai.Schema{
					Type: genai.TypeObject,
					Properties: map[string]*genai.Schema{
						"topic": {Type: genai.TypeString, Description: "Topic name, every topic when omitted."},
					},
				},
				Response: &genai.Schema{Type: genai.TypeString, Description: "The markdown topic."},
			},
			Func: func(ctx context.Context, args map[string]any) (string, error) {
				topic, _ := args["topic"].(string)
				if topic == "" {
					topic = "*"
				}
				return docs.GetTopic(topic)
			},
		},
	}
}

// dividendFilter reads the optional year and company arguments. JSON
// numbers arrive as float64.
func dividendFilter(args map[string]any) (store.DividendFilter, error) {
	var f store.DividendFilter
	switch y := args["year"].(type) {
	case nil:
	case float64:
		f.Year = int(y)
	case int:
		f.Year = y
	default:
		return f, fmt.Errorf("argument 'year' is not a number but %T", y)
	}
	if c, ok := args["company"].(string); ok {
		f.Company = c
	}
	return f, nil
}
