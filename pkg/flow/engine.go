package flow

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/google/uuid"

	"ai-shopflow-be/pkg/collaborator"
	"ai-shopflow-be/pkg/llm/decision"
	"ai-shopflow-be/pkg/store"
)

// Workflow node names. These appear in checkpoints and node traces, so they
// are part of the persisted format and must stay stable.
const (
	NodeParseInput         = "parse_input"
	NodeNeedMediaOps       = "need_media_ops"
	NodeTranscribeAudio    = "transcribe_audio"
	NodeExtractImageAttrs  = "extract_image_attrs"
	NodeBuildRequirement   = "build_requirement"
	NodeNeedClarify        = "need_clarify"
	NodeAskClarifyingQ     = "ask_clarifying_q"
	NodeSearchMarketplaces = "search_marketplaces"
	NodeRankAndCompose     = "rank_and_compose"
	NodeDone               = "done"
)

// DefaultMaxClarifications bounds how many follow-up questions a session may
// ask before the engine searches with whatever it has.
const DefaultMaxClarifications = 2

var nodeLabels = map[string]string{
	NodeParseInput:         "Reading your message",
	NodeNeedMediaOps:       "Checking attachments",
	NodeTranscribeAudio:    "Transcribing audio",
	NodeExtractImageAttrs:  "Analyzing image",
	NodeBuildRequirement:   "Understanding your requirements",
	NodeNeedClarify:        "Checking if anything is unclear",
	NodeAskClarifyingQ:     "Preparing a follow-up question",
	NodeSearchMarketplaces: "Searching marketplaces",
	NodeRankAndCompose:     "Ranking results",
	NodeDone:               "Wrapping up",
}

func nodeLabel(node string) string {
	if label, ok := nodeLabels[node]; ok {
		return label
	}
	return node
}

// Deps collects everything the engine calls out to. All fields except Emitter
// are required.
type Deps struct {
	Sessions    SessionStore
	Checkpoints CheckpointStore
	Decider     DecisionPort
	Media       MediaPort
	Catalog     CatalogPort
	Emitter     Emitter
	Logger      *log.Logger

	// MaxClarifications overrides DefaultMaxClarifications when positive.
	MaxClarifications int
}

// Engine executes the conversational shopping workflow: a fixed ten-node
// graph driven by one inbound turn at a time. Each Run ends by completing,
// pausing on a clarification, or failing; a checkpoint after every node lets
// an interrupted run resume at its next node.
//
// The engine is stateless between runs and safe for concurrent use across
// different sessions. Callers must serialize runs within one session; the
// engine assumes it is the only writer of a session while a run is active.
type Engine struct {
	sessions          SessionStore
	checkpoints       CheckpointStore
	decider           DecisionPort
	media             MediaPort
	catalog           CatalogPort
	emitter           Emitter
	logger            *log.Logger
	maxClarifications int
}

func NewEngine(deps Deps) *Engine {
	maxClarifications := deps.MaxClarifications
	if maxClarifications <= 0 {
		maxClarifications = DefaultMaxClarifications
	}
	logger := deps.Logger
	if logger == nil {
		logger = log.Default()
	}
	return &Engine{
		sessions:          deps.Sessions,
		checkpoints:       deps.Checkpoints,
		decider:           deps.Decider,
		media:             deps.Media,
		catalog:           deps.Catalog,
		emitter:           deps.Emitter,
		logger:            logger,
		maxClarifications: maxClarifications,
	}
}

// run is the per-execution context: one session, one mutable state, one pass
// through the graph.
type run struct {
	engine  *Engine
	session *store.Session
	state   *store.WorkflowState
}

// Run executes one workflow run for the inbound turn. It returns the final
// state of the run; the returned error is the fatal cause when the run failed.
// Non-fatal node errors (optional media enrichment, judgment defaults) are
// absorbed per node and never surface here.
func (e *Engine) Run(ctx context.Context, input store.TurnInput) (*store.WorkflowState, error) {
	session, err := e.loadOrCreateSession(ctx, input)
	if err != nil {
		e.emit(ctx, ErrorEvent(input.SessionID, errorCode(err), SeverityError,
			"Your session could not be loaded. Please reconnect.", false))
		return nil, err
	}

	r := &run{engine: e, session: session}
	node, err := r.prepare(ctx, input)
	if err != nil {
		e.emit(ctx, ErrorEvent(input.SessionID, errorCode(err), SeverityError,
			"Your session could not be resumed. Please try again.", true))
		return nil, err
	}

	for node != "" {
		e.emit(ctx, ProgressEvent(r.state.SessionID, node, nodeLabel(node)))

		next, err := r.step(ctx, node)
		if err != nil {
			r.fail(ctx, node, err)
			return r.state, err
		}
		r.state.UpdatedAt = time.Now().UTC()

		if next != "" {
			if err := r.checkpoint(ctx, next); err != nil {
				r.fail(ctx, node, err)
				return r.state, err
			}
		}
		node = next
	}
	return r.state, nil
}

func (e *Engine) loadOrCreateSession(ctx context.Context, input store.TurnInput) (*store.Session, error) {
	session, err := e.sessions.Get(ctx, input.SessionID)
	if err == nil {
		return session, nil
	}
	if err != store.ErrSessionNotFound {
		return nil, fmt.Errorf("load session %s: %w", input.SessionID, err)
	}
	session, err = e.sessions.Create(ctx, input.SessionID, input.UserID)
	if err != nil {
		return nil, fmt.Errorf("create session %s: %w", input.SessionID, err)
	}
	return session, nil
}

// prepare decides where this run starts. A checkpoint with a pending next
// node means a previous run died mid-flight and is resumed as-is. A session
// paused on a clarification re-enters at requirement building with the new
// answer merged in. Everything else is a fresh turn from the top.
func (r *run) prepare(ctx context.Context, input store.TurnInput) (string, error) {
	checkpoint, err := r.engine.checkpoints.Latest(ctx, r.session.ID)
	if err != nil {
		r.engine.logger.Printf("[FLOW] session=%s checkpoint lookup failed, starting fresh: %v", r.session.ID, err)
		checkpoint = nil
	}
	if checkpoint != nil && checkpoint.Next != "" {
		state := checkpoint.State
		r.state = &state
		r.engine.logger.Printf("[FLOW] session=%s resuming interrupted run at node=%s", r.session.ID, checkpoint.Next)
		return checkpoint.Next, nil
	}

	now := time.Now().UTC()
	r.state = &store.WorkflowState{
		SessionID:          r.session.ID,
		UserID:             r.session.UserID,
		Stage:              r.session.Stage,
		Message:            strings.TrimSpace(input.Message),
		MediaRefs:          input.Media,
		RequirementSpec:    r.session.RequirementSpec,
		RequirementHistory: r.session.RequirementHistory,
		ClarificationCount: r.session.ClarificationCount,
		Transcript:         r.session.Transcript,
		ImageAttributes:    r.session.ImageAttributes,
		StartedAt:          now,
		UpdatedAt:          now,
	}
	if r.session.Stage == store.StageClarifying {
		return NodeBuildRequirement, nil
	}
	return NodeParseInput, nil
}

func (r *run) step(ctx context.Context, node string) (string, error) {
	switch node {
	case NodeParseInput:
		return r.parseInput(ctx)
	case NodeNeedMediaOps:
		return r.needMediaOps(ctx)
	case NodeTranscribeAudio, NodeExtractImageAttrs:
		return r.runMediaOps(ctx)
	case NodeBuildRequirement:
		return r.buildRequirement(ctx)
	case NodeNeedClarify:
		return r.needClarify(ctx)
	case NodeAskClarifyingQ:
		return r.askClarifyingQ(ctx)
	case NodeSearchMarketplaces:
		return r.searchMarketplaces(ctx)
	case NodeRankAndCompose:
		return r.rankAndCompose(ctx)
	case NodeDone:
		return r.finish(ctx)
	default:
		return "", fmt.Errorf("unknown workflow node %q", node)
	}
}

func (r *run) trace(node string) {
	r.state.NodeTrace = append(r.state.NodeTrace, node)
}

// syncSession copies the run's view of the conversation back onto the durable
// session record and persists it.
func (r *run) syncSession(ctx context.Context, stage store.Stage) error {
	r.state.Stage = stage
	r.session.Stage = stage
	r.session.LastMessage = r.state.Message
	r.session.Transcript = r.state.Transcript
	r.session.ImageAttributes = r.state.ImageAttributes
	r.session.RequirementSpec = r.state.RequirementSpec
	r.session.RequirementHistory = r.state.RequirementHistory
	r.session.ClarificationCount = r.state.ClarificationCount
	if err := r.engine.sessions.Update(ctx, r.session); err != nil {
		return fmt.Errorf("persist session %s: %w", r.session.ID, err)
	}
	return nil
}

func (r *run) checkpoint(ctx context.Context, next string) error {
	cp := &store.Checkpoint{
		SessionID:    r.session.ID,
		CheckpointID: uuid.NewString(),
		Next:         next,
		State:        *r.state,
		CreatedAt:    time.Now().UTC(),
	}
	if err := r.engine.checkpoints.Save(ctx, cp); err != nil {
		return fmt.Errorf("save checkpoint for session %s: %w", r.session.ID, err)
	}
	return nil
}

// fail transitions the session to the failed stage, persists the cause and
// emits a single error event. The connection stays open; the user can retry
// with a new message, which starts a fresh run.
func (r *run) fail(ctx context.Context, node string, cause error) {
	r.engine.logger.Printf("[FLOW] session=%s node=%s run failed: %v", r.session.ID, node, cause)

	r.state.Error = cause.Error()
	r.state.Stage = store.StageFailed
	r.session.Stage = store.StageFailed
	r.session.LastError = cause.Error()
	if err := r.engine.sessions.Update(ctx, r.session); err != nil {
		r.engine.logger.Printf("[FLOW] session=%s persisting failed stage: %v", r.session.ID, err)
	}
	if err := r.engine.checkpoints.Clear(ctx, r.session.ID); err != nil {
		r.engine.logger.Printf("[FLOW] session=%s clearing checkpoints: %v", r.session.ID, err)
	}
	r.engine.emit(ctx, ErrorEvent(r.session.ID, errorCode(cause), SeverityError,
		"I hit a problem while working on your request. Please try again.", true))
}

// errorCode maps a fatal cause to the error code surfaced on the wire.
func errorCode(err error) string {
	switch {
	case errors.Is(err, collaborator.ErrUnavailable):
		return ErrCodeCollaboratorUnavailable
	case errors.Is(err, store.ErrStoreUnavailable):
		return ErrCodeStoreUnavailable
	case errors.Is(err, store.ErrSessionNotFound):
		return ErrCodeSessionNotFound
	case errors.Is(err, decision.ErrDecisionUnavailable):
		return ErrCodeDecisionUnavailable
	default:
		return ErrCodeInternal
	}
}

func (e *Engine) emit(ctx context.Context, event Event) {
	if e.emitter == nil {
		return
	}
	if err := e.emitter.Emit(ctx, event); err != nil {
		e.logger.Printf("[FLOW] session=%s emitting %s event: %v", event.SessionID, event.Type, err)
	}
}
