package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/ragulg06/RAP-HeadLine-HQ/internal/llm"
)

func TestHeuristicCompany(t *testing.T) {
	h := NewHeuristic(nil)
	ctx := context.Background()

	cases := []struct {
		input string
		want  string
	}{
		{"what's the latest on Tesla", "Tesla"},
		{"any news about AAPL today", "Apple"},
		{"show me msft headlines", "Microsoft"},
		{"Acme Widget Corp announced layoffs", "Acme Widget Corp"},
		{"how is Zenith stock doing", "Zenith"},
		{"Northwind shares dropped 5%", "Northwind"},
		{"what happened in the markets today", ""},
		{"", ""},
		{"Tesla's earnings call", "Tesla"},
		{"tell me about Globex Inc.", "Globex Inc"},
	}
	for _, tc := range cases {
		if got := h.Company(ctx, tc.input); got != tc.want {
			t.Errorf("Company(%q) = %q, want %q", tc.input, got, tc.want)
		}
	}
}

func TestHeuristicExtraAliases(t *testing.T) {
	h := NewHeuristic(map[string]string{"RAP": "RAP Industries"})
	if got := h.Company(context.Background(), "any rap news?"); got != "RAP Industries" {
		t.Errorf("extra alias ignored, got %q", got)
	}
}

func TestAliasBeatsSuffixRule(t *testing.T) {
	h := NewHeuristic(nil)
	if got := h.Company(context.Background(), "compare Tesla with Acme Corp"); got != "Tesla" {
		t.Errorf("alias should take priority, got %q", got)
	}
}

// fakeChatter scripts one model answer for the LLM extractor.
type fakeChatter struct {
	reply string
	err   error
	calls int
}

func (f *fakeChatter) Chat(_ context.Context, _ []llm.Message, _ *llm.ChatOptions) (*llm.Response, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &llm.Response{Content: f.reply}, nil
}

func TestLLMSkipsModelWhenRulesMatch(t *testing.T) {
	fc := &fakeChatter{reply: "Wrong Answer"}
	ex := NewLLM(fc, NewHeuristic(nil))

	got := ex.Company(context.Background(), "latest on Tesla")
	if got != "Tesla" {
		t.Fatalf("got %q, want Tesla", got)
	}
	if fc.calls != 0 {
		t.Errorf("model called %d times for input the rules handled", fc.calls)
	}
}

func TestLLMResolvesAmbiguousInput(t *testing.T) {
	fc := &fakeChatter{reply: "  Cerebras\n"}
	ex := NewLLM(fc, NewHeuristic(nil))

	got := ex.Company(context.Background(), "news on the wafer chip startup everyone talks about")
	if got != "Cerebras" {
		t.Fatalf("got %q, want Cerebras", got)
	}
	if fc.calls != 1 {
		t.Errorf("model calls = %d, want 1", fc.calls)
	}
}

func TestLLMModelFailureDegradesToEmpty(t *testing.T) {
	ex := NewLLM(&fakeChatter{err: errors.New("provider down")}, NewHeuristic(nil))
	if got := ex.Company(context.Background(), "anything interesting happening"); got != "" {
		t.Fatalf("got %q, want empty on model failure", got)
	}
}

func TestCleanModelAnswer(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"NONE", ""},
		{"none.", ""},
		{`"Tesla"`, "Tesla"},
		{"Acme Widget Corp", "Acme Widget Corp"},
		{"The company discussed is most likely one of several firms", ""},
		{"Tesla:\na car maker", ""},
		{"", ""},
	}
	for _, tc := range cases {
		if got := cleanModelAnswer(tc.in); got != tc.want {
			t.Errorf("cleanModelAnswer(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
