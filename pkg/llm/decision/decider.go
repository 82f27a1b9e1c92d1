package decision

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"

	"ai-shopflow-be/pkg/llm"
)

// ErrDecisionUnavailable is returned when the model could not be reached or
// kept producing output that does not match the expected schema. Judgment
// nodes translate this into their fail-open defaults.
var ErrDecisionUnavailable = errors.New("decision unavailable")

// Decider wraps an LLM provider with schema-constrained invocation: the
// caller supplies a prompt that demands a JSON object and a destination
// struct; malformed output triggers one corrective re-prompt before the
// call is declared unavailable. Parse errors never leak to callers.
type Decider struct {
	provider llm.LLMProvider
	logger   *log.Logger
}

func NewDecider(provider llm.LLMProvider, logger *log.Logger) *Decider {
	return &Decider{
		provider: provider,
		logger:   logger,
	}
}

// Decide runs the prompt at temperature 0 and unmarshals the JSON object in
// the reply into out.
func (d *Decider) Decide(ctx context.Context, prompt string, out interface{}, opts ...llm.Option) error {
	opts = append([]llm.Option{llm.WithTemperature(0.0)}, opts...)

	raw, err := d.provider.Generate(ctx, prompt, opts...)
	if err != nil {
		d.logger.Printf("[DECISION] generate failed: %v", err)
		return fmt.Errorf("%w: %v", ErrDecisionUnavailable, err)
	}

	if err := unmarshalJSONBlock(raw, out); err == nil {
		return nil
	}

	// One corrective re-prompt: feed the bad output back and demand bare JSON.
	d.logger.Printf("[DECISION] malformed output, re-prompting: %s", truncate(raw, 120))
	correction := prompt +
		"\n\nYour previous reply was not valid JSON:\n" + truncate(raw, 500) +
		"\n\nReply again with ONLY the JSON object, no prose, no code fences."

	raw, err = d.provider.Generate(ctx, correction, opts...)
	if err != nil {
		d.logger.Printf("[DECISION] corrective generate failed: %v", err)
		return fmt.Errorf("%w: %v", ErrDecisionUnavailable, err)
	}
	if err := unmarshalJSONBlock(raw, out); err != nil {
		d.logger.Printf("[DECISION] still malformed after re-prompt: %v", err)
		return fmt.Errorf("%w: unparseable model output", ErrDecisionUnavailable)
	}
	return nil
}

// Generate passes through to the provider for free-form generation nodes.
func (d *Decider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return d.provider.Generate(ctx, prompt, opts...)
}

// Stream passes through the provider's token stream.
func (d *Decider) Stream(ctx context.Context, prompt string, opts ...llm.Option) (<-chan string, error) {
	return d.provider.Stream(ctx, prompt, opts...)
}

// ParseJSONBlock extracts the outermost JSON object from raw model output and
// unmarshals it into out. Exported for callers that accumulate streamed tokens
// and parse the result themselves.
func ParseJSONBlock(raw string, out interface{}) error {
	return unmarshalJSONBlock(raw, out)
}

// unmarshalJSONBlock tolerates models that wrap the object in code fences or
// surrounding prose: it unmarshals the outermost {...} block.
func unmarshalJSONBlock(raw string, out interface{}) error {
	cleaned := strings.TrimSpace(raw)
	cleaned = strings.TrimPrefix(cleaned, "```json")
	cleaned = strings.TrimPrefix(cleaned, "```")
	cleaned = strings.TrimSuffix(cleaned, "```")
	cleaned = strings.TrimSpace(cleaned)

	start := strings.Index(cleaned, "{")
	end := strings.LastIndex(cleaned, "}")
	if start == -1 || end == -1 || end < start {
		return fmt.Errorf("no JSON object found in output")
	}
	return json.Unmarshal([]byte(cleaned[start:end+1]), out)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
