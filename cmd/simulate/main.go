// Offline simulation of the shopping workflow: runs the engine against
// in-memory stores, a scripted decision model and stub collaborators, and
// prints the event stream a connected client would see. Useful for eyeballing
// routing and event ordering without Redis, NATS or an LLM.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"os"

	"github.com/fatih/color"

	"ai-shopflow-be/internal/repository/memory"
	"ai-shopflow-be/pkg/flow"
	"ai-shopflow-be/pkg/llm"
	"ai-shopflow-be/pkg/store"
)

type scriptedDecider struct {
	replies []string
	calls   int
}

func (d *scriptedDecider) Decide(ctx context.Context, prompt string, out interface{}, opts ...llm.Option) error {
	if d.calls >= len(d.replies) {
		return fmt.Errorf("script exhausted after %d calls", d.calls)
	}
	reply := d.replies[d.calls]
	d.calls++
	return json.Unmarshal([]byte(reply), out)
}

func (d *scriptedDecider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return "", fmt.Errorf("generate not scripted")
}

func (d *scriptedDecider) Stream(ctx context.Context, prompt string, opts ...llm.Option) (<-chan string, error) {
	return nil, fmt.Errorf("streaming not scripted")
}

type stubMedia struct{}

func (stubMedia) Transcribe(ctx context.Context, ref store.MediaReference) (*store.TranscriptionResult, error) {
	return &store.TranscriptionResult{Transcript: "a budget gaming laptop please", Confidence: 0.93}, nil
}

func (stubMedia) ExtractImageAttributes(ctx context.Context, ref store.MediaReference) (*store.ImageAttributes, error) {
	return &store.ImageAttributes{Labels: []string{"laptop", "black"}}, nil
}

type stubCatalog struct{}

func (stubCatalog) Search(ctx context.Context, spec *store.RequirementSpec) (*store.SearchResults, error) {
	rating := func(v float64) *float64 { return &v }
	return &store.SearchResults{
		Products: []store.ProductResult{
			{ProductID: "p1", Marketplace: store.MarketplaceAmazon, Title: "UltraBook 14", Price: 899, Currency: "USD", Rating: rating(4.6), Availability: "in_stock", DeepLink: "https://example.com/p1"},
			{ProductID: "p2", Marketplace: store.MarketplaceWalmart, Title: "ProBook 15", Price: 1299, Currency: "USD", Rating: rating(4.8), Availability: "in_stock", DeepLink: "https://example.com/p2"},
			{ProductID: "p3", Marketplace: store.MarketplaceAmazon, Title: "BudgetBook 13", Price: 649, Currency: "USD", Rating: rating(4.1), Availability: "in_stock", DeepLink: "https://example.com/p3"},
		},
		TotalCount: 3,
	}, nil
}

type consoleEmitter struct{}

func (consoleEmitter) Emit(ctx context.Context, event flow.Event) error {
	switch event.Type {
	case flow.EventProgress:
		color.Cyan("  [progress] %s: %s", event.Node, event.Message)
	case flow.EventThinking:
		color.Yellow("  [thinking] %s", event.Message)
	case flow.EventClarification:
		color.Magenta("  [clarification] %s %v", event.Question, event.Suggestions)
	case flow.EventResults:
		color.Green("  [results] %d products - %s", len(event.Products), event.Message)
		for i, product := range event.Products {
			color.Green("    %d. %s ($%.2f) - %s", i+1, product.Title, product.Price, product.WhyRanked)
		}
	case flow.EventError:
		color.Red("  [error] %s (recoverable=%v)", event.Message, event.Recoverable)
	case flow.EventDone:
		color.Green("  [done]")
	}
	return nil
}

func main() {
	color.Cyan("🚀 Shopping workflow simulation\n")

	engine := flow.NewEngine(flow.Deps{
		Sessions:    memory.NewSessionRepository(store.SessionTTL),
		Checkpoints: memory.NewCheckpointRepository(store.SessionTTL),
		Decider: &scriptedDecider{replies: []string{
			// Turn 1: vague request pauses on a clarification.
			`{"product_type":"laptop"}`,
			`{"needs_clarification":true,"reason":"no budget or use case","confidence":0.85}`,
			`{"question":"What's your budget?","suggestions":["Under $700","$700-$1000","Over $1000"]}`,
			// Turn 2: the answer completes the run.
			`{"product_type":"laptop","price":{"max":1000,"currency":"USD"}}`,
			`{"needs_clarification":false,"reason":"budget given","confidence":0.92}`,
		}},
		Media:   stubMedia{},
		Catalog: stubCatalog{},
		Emitter: consoleEmitter{},
		Logger:  log.New(os.Stderr, "", log.LstdFlags),
	})

	ctx := context.Background()
	sessionID := "sim-session"

	color.White("USER: I need a laptop")
	state, err := engine.Run(ctx, store.TurnInput{
		SessionID: sessionID,
		UserID:    "sim-user",
		Message:   "I need a laptop",
	})
	if err != nil {
		color.Red("run failed: %v", err)
		os.Exit(1)
	}
	if !state.Paused {
		color.Red("expected the first turn to pause on a clarification")
		os.Exit(1)
	}

	color.White("\nUSER: under $1000")
	state, err = engine.Run(ctx, store.TurnInput{
		SessionID: sessionID,
		UserID:    "sim-user",
		Message:   "under $1000",
		IsAnswer:  true,
	})
	if err != nil {
		color.Red("run failed: %v", err)
		os.Exit(1)
	}

	color.Cyan("\nNode trace: %v", state.NodeTrace)
	color.Cyan("Final stage: %s", state.Stage)
}
