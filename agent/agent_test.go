package agent

import (
	"bytes"
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/etnz/psw"
	"github.com/etnz/psw/store"
	"github.com/google/go-cmp/cmp"
	"github.com/shopspring/decimal"
	"google.golang.org/genai"
)

// script is a chat replaying canned responses and recording what it was sent.
type script struct {
	responses []*genai.Content
	sent      [][]*genai.Part
}

func (s *script) Send(_ context.Context, parts ...*genai.Part) (*genai.GenerateContentResponse, error) {
	s.sent = append(s.sent, parts)
	if len(s.responses) == 0 {
		return nil, errors.New("script exhausted")
	}
	c := s.responses[0]
	s.responses = s.responses[1:]
	return &genai.GenerateContentResponse{Candidates: []*genai.Candidate{{Content: c}}}, nil
}

func reply(text string) *genai.Content {
	return &genai.Content{Role: "model", Parts: []*genai.Part{{Text: text}}}
}

func call(name string, args map[string]any) *genai.Content {
	return &genai.Content{Role: "model", Parts: []*genai.Part{{FunctionCall: &genai.FunctionCall{ID: "1", Name: name, Args: args}}}}
}

type books struct {
	filter store.DividendFilter
}

func (b *books) ActiveHoldings(context.Context) ([]store.Holding, error) {
	return []store.Holding{{CompanyName: "Volvo B", ISIN: "SE0000115446", SharesHeld: decimal.NewFromInt(100),
		TotalCostSEK: decimal.NewFromInt(20000), CurrentValueSEK: decimal.NewFromInt(25000)}}, nil
}

func (b *books) Allocation(context.Context) (psw.Allocation, error) {
	return psw.Allocate([]psw.Position{{ISIN: "SE0000115446", Sector: "Industrials", Value: psw.SEK(25000)}}), nil
}

func (b *books) SummarizeDividends(_ context.Context, f store.DividendFilter) (store.DividendSummary, error) {
	b.filter = f
	return store.DividendSummary{Payments: 1, Companies: 1, Currencies: 1, Total: psw.SEK(1800),
		Average: psw.SEK(1800), Min: psw.SEK(1800), Max: psw.SEK(1800), TaxSEK: psw.SEK(0)}, nil
}

func (b *books) EstimateDividends(context.Context) (psw.Estimate, error) {
	return psw.Estimate{}, errors.New("no rates")
}

func (b *books) Unsupported(context.Context) (psw.Reconciliation, error) {
	return psw.Reconciliation{}, nil
}

func TestAccountantTools(t *testing.T) {
	b := &books{}
	acc := NewAccountant(b, "en")

	resp := acc.Library(context.Background(), &genai.FunctionCall{ID: "a", Name: "Holdings"})
	out, _ := resp.Response["output"].(string)
	if !strings.Contains(out, "| Volvo B | SE0000115446 | 100.00 | 20,000.00 SEK | 25,000.00 SEK |") {
		t.Errorf("Holdings output:\n%s", out)
	}
	if resp.ID != "a" || resp.Name != "Holdings" {
		t.Errorf("response ID/Name = %q/%q", resp.ID, resp.Name)
	}

	resp = acc.Library(context.Background(), &genai.FunctionCall{Name: "Dividends", Args: map[string]any{"year": 2024.0, "company": "Volvo"}})
	if _, ok := resp.Response["output"]; !ok {
		t.Fatalf("Dividends failed: %v", resp.Response)
	}
	if diff := cmp.Diff(store.DividendFilter{Year: 2024, Company: "Volvo"}, b.filter); diff != "" {
		t.Errorf("filter mismatch (-want +got):\n%s", diff)
	}

	resp = acc.Library(context.Background(), &genai.FunctionCall{Name: "Dividends", Args: map[string]any{"year": "last"}})
	if _, ok := resp.Response["error"]; !ok {
		t.Error("Dividends accepted a string year")
	}

	resp = acc.Library(context.Background(), &genai.FunctionCall{Name: "Estimate"})
	if got := resp.Response["error"]; got != "no rates" {
		t.Errorf("Estimate error = %v, want no rates", got)
	}

	resp = acc.Library(context.Background(), &genai.FunctionCall{Name: "Rulebook", Args: map[string]any{"topic": "trading-rules"}})
	if out, _ := resp.Response["output"].(string); !strings.HasPrefix(out, "# Trading rules") {
		t.Errorf("Rulebook output = %q", out)
	}

	resp = acc.Library(context.Background(), &genai.FunctionCall{Name: "Teleport"})
	if _, ok := resp.Response["error"]; !ok {
		t.Error("unknown function did not fail")
	}
}

func TestExpertAnswersFunctionCalls(t *testing.T) {
	chat := &script{responses: []*genai.Content{
		call("Allocation", nil),
		reply("Your portfolio is all industrials."),
	}}
	acc := NewAccountant(&books{}, "en")
	acc.chat = chat

	got, err := acc.Ask(context.Background(), &genai.Part{Text: "How is my portfolio spread?"})
	if err != nil {
		t.Fatal(err)
	}
	if text(got) != "Your portfolio is all industrials." {
		t.Errorf("answer = %q", text(got))
	}
	if len(chat.sent) != 2 {
		t.Fatalf("sent %d messages, want 2", len(chat.sent))
	}
	fr := chat.sent[1][0].FunctionResponse
	if fr == nil || fr.Name != "Allocation" {
		t.Fatalf("second message is not the Allocation response: %+v", chat.sent[1][0])
	}
	if out, _ := fr.Response["output"].(string); !strings.Contains(out, "| Industrials | 1 |") {
		t.Errorf("Allocation output:\n%s", out)
	}
}

func TestExpertWithoutLibrary(t *testing.T) {
	trader := NewTrader()
	trader.chat = &script{responses: []*genai.Content{call("Holdings", nil)}}
	if _, err := trader.Ask(context.Background(), &genai.Part{Text: "news?"}); err == nil {
		t.Error("a function call without library did not fail")
	}

	var notStarted Expert
	if _, err := notStarted.Ask(context.Background()); err == nil {
		t.Error("asking an expert not started did not fail")
	}
}

func TestRun(t *testing.T) {
	trader := NewTrader()
	trader.chat = &script{responses: []*genai.Content{reply("Volvo raised its dividend.")}}
	facilitator := &script{responses: []*genai.Content{
		call("Trader", map[string]any{"question": "Any news about Volvo?"}),
		reply("Volvo raised its dividend."),
	}}

	var out bytes.Buffer
	a := New(&out, strings.NewReader("bye\n"), trader)
	a.Facilitator.chat = facilitator
	a.Markdown = func(s string) (string, error) { return "**" + s + "**", nil }

	if err := a.Run(context.Background(), nil, "What about Volvo?"); err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(out.String(), "**Volvo raised its dividend.**") {
		t.Errorf("output:\n%s", out.String())
	}
	if n := len(facilitator.sent); n != 2 {
		t.Errorf("facilitator got %d messages, want 2", n)
	}
}
