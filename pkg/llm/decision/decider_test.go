package decision

import (
	"context"
	"errors"
	"io"
	"log"
	"testing"

	"ai-shopflow-be/pkg/llm"
)

// scriptedProvider replays canned replies (or errors) in order.
type scriptedProvider struct {
	replies []string
	errs    []error
	calls   int
}

func newScriptedProvider(replies []string, errs []error) *scriptedProvider {
	return &scriptedProvider{replies: replies, errs: errs}
}

func (p *scriptedProvider) next() (string, error) {
	i := p.calls
	p.calls++
	if i < len(p.errs) && p.errs[i] != nil {
		return "", p.errs[i]
	}
	if i < len(p.replies) {
		return p.replies[i], nil
	}
	return "", errors.New("script exhausted")
}

func (p *scriptedProvider) Chat(ctx context.Context, history []llm.Message, opts ...llm.Option) (string, error) {
	return p.next()
}

func (p *scriptedProvider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return p.next()
}

func (p *scriptedProvider) Stream(ctx context.Context, prompt string, opts ...llm.Option) (<-chan string, error) {
	out, err := p.next()
	if err != nil {
		return nil, err
	}
	ch := make(chan string, 1)
	ch <- out
	close(ch)
	return ch, nil
}

type decisionResult struct {
	NeedStt    bool `json:"need_stt"`
	NeedVision bool `json:"need_vision"`
}

func testLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

func TestDecideParsesPlainJSON(t *testing.T) {
	p := newScriptedProvider([]string{`{"need_stt": true, "need_vision": false}`}, nil)
	d := NewDecider(p, testLogger())

	var out decisionResult
	if err := d.Decide(context.Background(), "judge", &out); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if !out.NeedStt || out.NeedVision {
		t.Errorf("got %+v, want need_stt=true need_vision=false", out)
	}
	if p.calls != 1 {
		t.Errorf("calls = %d, want 1", p.calls)
	}
}

func TestDecideStripsCodeFences(t *testing.T) {
	raw := "Here you go:\n```json\n{\"need_stt\": false, \"need_vision\": true}\n```"
	p := newScriptedProvider([]string{raw}, nil)
	d := NewDecider(p, testLogger())

	var out decisionResult
	if err := d.Decide(context.Background(), "judge", &out); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if out.NeedStt || !out.NeedVision {
		t.Errorf("got %+v, want need_stt=false need_vision=true", out)
	}
}

func TestDecideRepromptsOnceOnMalformedOutput(t *testing.T) {
	p := newScriptedProvider([]string{
		"I think you need transcription.",
		`{"need_stt": true, "need_vision": true}`,
	}, nil)
	d := NewDecider(p, testLogger())

	var out decisionResult
	if err := d.Decide(context.Background(), "judge", &out); err != nil {
		t.Fatalf("Decide() error = %v", err)
	}
	if p.calls != 2 {
		t.Errorf("calls = %d, want 2 (one corrective re-prompt)", p.calls)
	}
	if !out.NeedStt || !out.NeedVision {
		t.Errorf("got %+v after re-prompt", out)
	}
}

func TestDecideUnavailableAfterTwoMalformedReplies(t *testing.T) {
	p := newScriptedProvider([]string{"nope", "still nope"}, nil)
	d := NewDecider(p, testLogger())

	var out decisionResult
	err := d.Decide(context.Background(), "judge", &out)
	if !errors.Is(err, ErrDecisionUnavailable) {
		t.Fatalf("Decide() error = %v, want ErrDecisionUnavailable", err)
	}
}

func TestDecideUnavailableOnProviderError(t *testing.T) {
	p := newScriptedProvider(nil, []error{errors.New("connection refused")})
	d := NewDecider(p, testLogger())

	var out decisionResult
	err := d.Decide(context.Background(), "judge", &out)
	if !errors.Is(err, ErrDecisionUnavailable) {
		t.Fatalf("Decide() error = %v, want ErrDecisionUnavailable", err)
	}
}
