package service

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-shopflow-be/internal/entity"
	"ai-shopflow-be/internal/repository/memory"
	"ai-shopflow-be/internal/websocket"
	"ai-shopflow-be/pkg/flow"
	"ai-shopflow-be/pkg/llm"
	"ai-shopflow-be/pkg/store"
)

// cycleDecider replays a fixed reply sequence over and over, so every turn
// of a text-only run consumes the same spec-then-verdict pair.
type cycleDecider struct {
	mu      sync.Mutex
	replies []string
	calls   int
}

func (d *cycleDecider) Decide(ctx context.Context, prompt string, out interface{}, opts ...llm.Option) error {
	d.mu.Lock()
	reply := d.replies[d.calls%len(d.replies)]
	d.calls++
	d.mu.Unlock()
	return json.Unmarshal([]byte(reply), out)
}

func (d *cycleDecider) Generate(ctx context.Context, prompt string, opts ...llm.Option) (string, error) {
	return "", fmt.Errorf("generate not scripted")
}

func (d *cycleDecider) Stream(ctx context.Context, prompt string, opts ...llm.Option) (<-chan string, error) {
	return nil, fmt.Errorf("streaming not scripted")
}

// trackingCatalog records search ordering and the peak number of concurrent
// searches. An optional gate blocks every search until released.
type trackingCatalog struct {
	mu       sync.Mutex
	messages []string

	inFlight atomic.Int32
	peak     atomic.Int32

	entered chan struct{}
	gate    chan struct{}
}

func (c *trackingCatalog) Search(ctx context.Context, spec *store.RequirementSpec) (*store.SearchResults, error) {
	current := c.inFlight.Add(1)
	defer c.inFlight.Add(-1)
	for {
		peak := c.peak.Load()
		if current <= peak || c.peak.CompareAndSwap(peak, current) {
			break
		}
	}

	if c.entered != nil {
		c.entered <- struct{}{}
	}
	if c.gate != nil {
		<-c.gate
	} else {
		time.Sleep(10 * time.Millisecond)
	}

	c.mu.Lock()
	c.messages = append(c.messages, spec.ProductType)
	c.mu.Unlock()

	return &store.SearchResults{
		Products: []store.ProductResult{{
			ProductID:    "p-1",
			Marketplace:  store.MarketplaceAmazon,
			Title:        "Budget Laptop",
			Price:        899,
			Currency:     "USD",
			Availability: "in_stock",
			DeepLink:     "https://example.com/p-1",
		}},
		TotalCount: 1,
	}, nil
}

type nullMedia struct{}

func (nullMedia) Transcribe(ctx context.Context, ref store.MediaReference) (*store.TranscriptionResult, error) {
	return &store.TranscriptionResult{Transcript: "stub"}, nil
}

func (nullMedia) ExtractImageAttributes(ctx context.Context, ref store.MediaReference) (*store.ImageAttributes, error) {
	return &store.ImageAttributes{}, nil
}

// captureEmitter collects emitted events for assertions.
type captureEmitter struct {
	mu     sync.Mutex
	events []flow.Event
}

func (e *captureEmitter) Emit(ctx context.Context, event flow.Event) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.events = append(e.events, event)
	return nil
}

func (e *captureEmitter) countByType(eventType flow.EventType) int {
	e.mu.Lock()
	defer e.mu.Unlock()
	count := 0
	for _, event := range e.events {
		if event.Type == eventType {
			count++
		}
	}
	return count
}

type nopLogger struct{}

func (nopLogger) Debug(module, message string, details map[string]interface{}) {}
func (nopLogger) Info(module, message string, details map[string]interface{})  {}
func (nopLogger) Warn(module, message string, details map[string]interface{})  {}
func (nopLogger) Error(module, message string, details map[string]interface{}) {}
func (nopLogger) Sync() error                                                  { return nil }

// memoryArchives is an in-memory stand-in for the gorm-backed archive repo.
type memoryArchives struct {
	mu       sync.Mutex
	archives []*entity.SessionArchive
}

func (a *memoryArchives) Create(ctx context.Context, archive *entity.SessionArchive) error {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.archives = append(a.archives, archive)
	return nil
}

func (a *memoryArchives) FindBySessionID(ctx context.Context, sessionID string) (*entity.SessionArchive, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	for _, archive := range a.archives {
		if archive.SessionId == sessionID {
			return archive, nil
		}
	}
	return nil, nil
}

func (a *memoryArchives) FindRecentByUserID(ctx context.Context, userID string, limit int) ([]*entity.SessionArchive, error) {
	a.mu.Lock()
	defer a.mu.Unlock()
	var matched []*entity.SessionArchive
	for _, archive := range a.archives {
		if archive.UserId == userID {
			matched = append(matched, archive)
		}
	}
	return matched, nil
}

func newTestOrchestrator(t *testing.T, catalog flow.CatalogPort) (*OrchestratorService, flow.SessionStore, *captureEmitter, *memoryArchives) {
	t.Helper()

	sessions := memory.NewSessionRepository(store.SessionTTL)
	emitter := &captureEmitter{}
	archives := &memoryArchives{}

	engine := flow.NewEngine(flow.Deps{
		Sessions:    sessions,
		Checkpoints: memory.NewCheckpointRepository(store.SessionTTL),
		Decider: &cycleDecider{replies: []string{
			`{"product_type":"laptop","price":{"max":1000,"currency":"USD"}}`,
			`{"needs_clarification":false,"reason":"budget given","confidence":0.9}`,
		}},
		Media:   nullMedia{},
		Catalog: catalog,
		Emitter: emitter,
		Logger:  log.New(testWriter{t}, "", 0),
	})

	svc := NewOrchestratorService(engine, sessions, archives, nil, emitter, nopLogger{})
	t.Cleanup(svc.Shutdown)
	return svc, sessions, emitter, archives
}

type testWriter struct{ t *testing.T }

func (w testWriter) Write(p []byte) (int, error) {
	w.t.Log(string(p))
	return len(p), nil
}

func messageTurn(sessionID, text string) websocket.ClientTurn {
	return websocket.ClientTurn{
		SessionID: sessionID,
		UserID:    "user-1",
		Frame:     &websocket.ClientMessage{Type: websocket.ClientKindMessage, Message: text},
	}
}

func waitFor(t *testing.T, timeout time.Duration, condition func() bool) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		if condition() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatal("condition not reached before timeout")
}

func TestSubmitRunsTurnsSeriallyPerSession(t *testing.T) {
	catalog := &trackingCatalog{}
	svc, sessions, emitter, _ := newTestOrchestrator(t, catalog)

	for i := 0; i < 3; i++ {
		svc.Submit(messageTurn("session-serial", "need a laptop under $1000"))
	}

	waitFor(t, 5*time.Second, func() bool {
		return emitter.countByType(flow.EventDone) == 3
	})

	assert.Equal(t, int32(1), catalog.peak.Load(), "turns on one session must never overlap")
	assert.Len(t, catalog.messages, 3)

	session, err := sessions.Get(context.Background(), "session-serial")
	require.NoError(t, err)
	assert.Equal(t, store.StageCompleted, session.Stage)
}

func TestSubmitRunsSessionsConcurrently(t *testing.T) {
	catalog := &trackingCatalog{
		entered: make(chan struct{}, 2),
		gate:    make(chan struct{}),
	}
	svc, _, emitter, _ := newTestOrchestrator(t, catalog)

	svc.Submit(messageTurn("session-a", "gaming laptop"))
	svc.Submit(messageTurn("session-b", "office laptop"))

	// Both workers must reach the catalog before either is released.
	for i := 0; i < 2; i++ {
		select {
		case <-catalog.entered:
		case <-time.After(5 * time.Second):
			t.Fatal("second session blocked behind the first")
		}
	}
	close(catalog.gate)

	waitFor(t, 5*time.Second, func() bool {
		return emitter.countByType(flow.EventDone) == 2
	})
	assert.Equal(t, int32(2), catalog.peak.Load())
}

func TestSubmitRejectsTurnsBeyondQueueCapacity(t *testing.T) {
	catalog := &trackingCatalog{
		entered: make(chan struct{}, turnQueueSize+1),
		gate:    make(chan struct{}),
	}
	svc, _, emitter, _ := newTestOrchestrator(t, catalog)

	// First turn occupies the worker inside the catalog call.
	svc.Submit(messageTurn("session-full", "laptop"))
	select {
	case <-catalog.entered:
	case <-time.After(5 * time.Second):
		t.Fatal("worker never started the first turn")
	}

	// Fill the queue, then overflow it by one.
	for i := 0; i < turnQueueSize; i++ {
		svc.Submit(messageTurn("session-full", "laptop"))
	}
	svc.Submit(messageTurn("session-full", "one too many"))

	assert.Equal(t, 1, emitter.countByType(flow.EventError), "overflow turn should be rejected")

	close(catalog.gate)
	waitFor(t, 10*time.Second, func() bool {
		return emitter.countByType(flow.EventDone) == turnQueueSize+1
	})
}

func TestSubmitSurvivesWorkerIdleTeardown(t *testing.T) {
	svc, _, emitter, _ := newTestOrchestrator(t, &trackingCatalog{})
	svc.idleTimeout = 2 * time.Millisecond

	// Space the turns around the idle window so many of them hit the exact
	// moment the worker is tearing down its queue. Every turn must still run.
	const turns = 20
	for i := 0; i < turns; i++ {
		svc.Submit(messageTurn("session-idle", "laptop"))
		time.Sleep(3 * time.Millisecond)
	}

	waitFor(t, 10*time.Second, func() bool {
		return emitter.countByType(flow.EventDone) == turns
	})
	assert.Equal(t, 0, emitter.countByType(flow.EventError))
}

func TestCancelArchivesNonTerminalSession(t *testing.T) {
	svc, sessions, _, archives := newTestOrchestrator(t, &trackingCatalog{})
	ctx := context.Background()

	_, err := sessions.Create(ctx, "session-cancel", "user-1")
	require.NoError(t, err)

	svc.Cancel(ctx, "session-cancel")

	session, err := sessions.Get(ctx, "session-cancel")
	require.NoError(t, err)
	assert.Equal(t, store.StageCancelled, session.Stage)

	archived, err := archives.FindBySessionID(ctx, "session-cancel")
	require.NoError(t, err)
	require.NotNil(t, archived)
	assert.Equal(t, store.StageCancelled, archived.Stage)
}

func TestCancelIgnoresTerminalAndUnknownSessions(t *testing.T) {
	svc, sessions, _, archives := newTestOrchestrator(t, &trackingCatalog{})
	ctx := context.Background()

	svc.Cancel(ctx, "never-seen")

	session, err := sessions.Create(ctx, "session-done", "user-1")
	require.NoError(t, err)
	session.Stage = store.StageCompleted
	require.NoError(t, sessions.Update(ctx, session))

	svc.Cancel(ctx, "session-done")

	session, err = sessions.Get(ctx, "session-done")
	require.NoError(t, err)
	assert.Equal(t, store.StageCompleted, session.Stage, "terminal sessions keep their stage")
	assert.Empty(t, archives.archives)
}
