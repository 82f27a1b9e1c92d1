package service

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"ai-shopflow-be/internal/entity"
	"ai-shopflow-be/internal/pkg/logger"
	"ai-shopflow-be/internal/repository/contract"
	"ai-shopflow-be/internal/websocket"
	"ai-shopflow-be/pkg/events"
	"ai-shopflow-be/pkg/flow"
	"ai-shopflow-be/pkg/nats"
	"ai-shopflow-be/pkg/store"
)

// turnQueueSize bounds how many turns one session may have waiting. Beyond
// it new turns are rejected with an error event instead of queueing unbounded.
const turnQueueSize = 16

// workerIdleTimeout tears down a session's worker goroutine after inactivity.
const workerIdleTimeout = 5 * time.Minute

type IOrchestratorService interface {
	websocket.TurnHandler
	Shutdown()
}

// OrchestratorService drives workflow runs. It enforces the single-writer
// rule: every session has at most one worker goroutine, and that worker
// executes runs strictly in arrival order. Two back-to-back messages on one
// session can never interleave node execution.
type OrchestratorService struct {
	engine   *flow.Engine
	sessions flow.SessionStore
	archives contract.SessionArchiveRepository // nil when no database is configured
	natsPub  *nats.Publisher                   // nil when NATS is unreachable
	emitter  flow.Emitter
	logger   logger.ILogger

	mu     sync.Mutex
	queues map[string]chan store.TurnInput
	closed bool

	// idleTimeout is workerIdleTimeout unless a test shortens it.
	idleTimeout time.Duration
}

var _ IOrchestratorService = &OrchestratorService{}

func NewOrchestratorService(
	engine *flow.Engine,
	sessions flow.SessionStore,
	archives contract.SessionArchiveRepository,
	natsPub *nats.Publisher,
	emitter flow.Emitter,
	log logger.ILogger,
) *OrchestratorService {
	return &OrchestratorService{
		engine:   engine,
		sessions: sessions,
		archives: archives,
		natsPub:  natsPub,
		emitter:  emitter,
		logger:   log,
		queues:   make(map[string]chan store.TurnInput),

		idleTimeout: workerIdleTimeout,
	}
}

// Submit enqueues one turn for its session's worker. Never blocks on
// workflow execution.
func (s *OrchestratorService) Submit(turn websocket.ClientTurn) {
	input := turn.Frame.ToTurnInput(turn.SessionID, turn.UserID)

	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	queue, ok := s.queues[turn.SessionID]
	if !ok {
		queue = make(chan store.TurnInput, turnQueueSize)
		s.queues[turn.SessionID] = queue
		go s.worker(turn.SessionID, queue)
	}

	// Enqueue while still holding the lock. The worker's idle teardown
	// checks len(queue) under the same lock, so a turn can never land in a
	// queue that is about to be abandoned.
	select {
	case queue <- input:
		s.mu.Unlock()
	default:
		s.mu.Unlock()
		s.logger.Warn("Orchestrator", "Turn queue full, rejecting turn", map[string]interface{}{
			"session_id": turn.SessionID,
		})
		s.emitEvent(flow.ErrorEvent(turn.SessionID, flow.ErrCodeQueueFull, flow.SeverityWarning,
			"Too many pending messages. Please wait for the current one to finish.", true))
	}
}

// Cancel handles an explicit client disconnect: a non-terminal session moves
// to the cancelled stage and is archived. In-flight runs are not interrupted
// mid-node; they finish, pause or fail on their own.
func (s *OrchestratorService) Cancel(ctx context.Context, sessionID string) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		if err != store.ErrSessionNotFound {
			s.logger.Warn("Orchestrator", "Cancel lookup failed", map[string]interface{}{
				"session_id": sessionID, "error": err.Error(),
			})
		}
		return
	}
	if session.Stage.Terminal() {
		return
	}

	session.Stage = store.StageCancelled
	if err := s.sessions.Update(ctx, session); err != nil {
		s.logger.Error("Orchestrator", "Persisting cancelled stage failed", map[string]interface{}{
			"session_id": sessionID, "error": err.Error(),
		})
		return
	}
	s.archive(ctx, session, nil)
	s.logger.Info("Orchestrator", "Session cancelled by client", map[string]interface{}{
		"session_id": sessionID,
	})
}

// Shutdown stops accepting turns and closes the session queues.
func (s *OrchestratorService) Shutdown() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for sessionID, queue := range s.queues {
		close(queue)
		delete(s.queues, sessionID)
	}
}

// worker drains one session's queue serially. It exits when the queue closes
// or after sitting idle long enough; the next turn recreates it.
func (s *OrchestratorService) worker(sessionID string, queue chan store.TurnInput) {
	idle := time.NewTimer(s.idleTimeout)
	defer idle.Stop()

	for {
		select {
		case input, ok := <-queue:
			if !ok {
				return
			}
			s.runTurn(input)
			if !idle.Stop() {
				select {
				case <-idle.C:
				default:
				}
			}
			idle.Reset(s.idleTimeout)

		case <-idle.C:
			s.mu.Lock()
			// A turn may have raced in between the timeout and the lock.
			if len(queue) == 0 && s.queues[sessionID] == queue {
				delete(s.queues, sessionID)
				s.mu.Unlock()
				return
			}
			s.mu.Unlock()
			idle.Reset(s.idleTimeout)
		}
	}
}

func (s *OrchestratorService) runTurn(input store.TurnInput) {
	ctx := context.Background()

	state, runErr := s.engine.Run(ctx, input)
	if state == nil {
		return
	}

	switch {
	case state.Paused:
		s.publishLifecycle(ctx, events.NewSessionClarifying(input.SessionID, input.UserID, state.ClarificationCount))

	case state.Stage == store.StageCompleted:
		s.archiveCurrent(ctx, input.SessionID, state.NodeTrace)
		s.publishLifecycle(ctx, events.NewSessionCompleted(input.SessionID, input.UserID, len(state.RankedResults)))

	case state.Stage == store.StageFailed:
		s.archiveCurrent(ctx, input.SessionID, state.NodeTrace)
		reason := state.Error
		if reason == "" && runErr != nil {
			reason = runErr.Error()
		}
		s.publishLifecycle(ctx, events.NewSessionFailed(input.SessionID, input.UserID, reason))
	}
}

func (s *OrchestratorService) archiveCurrent(ctx context.Context, sessionID string, nodeTrace []string) {
	session, err := s.sessions.Get(ctx, sessionID)
	if err != nil {
		s.logger.Warn("Orchestrator", "Archive skipped, session unreadable", map[string]interface{}{
			"session_id": sessionID, "error": err.Error(),
		})
		return
	}
	s.archive(ctx, session, nodeTrace)
}

func (s *OrchestratorService) archive(ctx context.Context, session *store.Session, nodeTrace []string) {
	if s.archives == nil {
		return
	}

	archive := &entity.SessionArchive{
		Id:                 uuid.New(),
		SessionId:          session.ID,
		UserId:             session.UserID,
		Stage:              session.Stage,
		RequirementSpec:    session.RequirementSpec,
		FinalResponse:      session.FinalResponse,
		LastError:          session.LastError,
		ClarificationCount: session.ClarificationCount,
		NodeTrace:          nodeTrace,
		SessionCreatedAt:   session.CreatedAt,
		ArchivedAt:         time.Now().UTC(),
	}
	if session.SearchResults != nil {
		archive.RankedResults = session.SearchResults.Products
	}

	if err := s.archives.Create(ctx, archive); err != nil {
		s.logger.Error("Orchestrator", "Archiving terminal session failed", map[string]interface{}{
			"session_id": session.ID, "error": err.Error(),
		})
	}
}

// publishLifecycle is nil-tolerant: lifecycle events are best effort and a
// NATS outage never affects the user-facing flow.
func (s *OrchestratorService) publishLifecycle(ctx context.Context, event events.Event) {
	if s.natsPub == nil {
		return
	}
	if err := s.natsPub.Publish(ctx, event); err != nil {
		s.logger.Warn("Orchestrator", "Lifecycle publish failed", map[string]interface{}{
			"event_type": event.EventType(), "error": err.Error(),
		})
	}
}

func (s *OrchestratorService) emitEvent(event flow.Event) {
	if s.emitter == nil {
		return
	}
	if err := s.emitter.Emit(context.Background(), event); err != nil {
		s.logger.Warn("Orchestrator", "Event emit failed", map[string]interface{}{
			"session_id": event.SessionID, "error": err.Error(),
		})
	}
}
