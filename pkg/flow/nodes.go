package flow

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"ai-shopflow-be/pkg/llm"
	"ai-shopflow-be/pkg/llm/decision"
	"ai-shopflow-be/pkg/store"
)

type needMediaOpsResult struct {
	NeedStt    bool `json:"need_stt"`
	NeedVision bool `json:"need_vision"`
}

type needClarifyResult struct {
	NeedsClarification bool    `json:"needs_clarification"`
	Reason             string  `json:"reason"`
	Confidence         float64 `json:"confidence"`
}

type clarifyQuestion struct {
	Question    string   `json:"question"`
	Suggestions []string `json:"suggestions"`
}

func (r *run) parseInput(ctx context.Context) (string, error) {
	r.trace(NodeParseInput)

	r.state.Message = strings.TrimSpace(r.state.Message)
	if r.state.Message == "" && len(r.state.MediaRefs) == 0 {
		return "", errors.New("empty turn: no message and no media")
	}
	if err := r.syncSession(ctx, store.StageInitial); err != nil {
		return "", err
	}
	return NodeNeedMediaOps, nil
}

func (r *run) needMediaOps(ctx context.Context) (string, error) {
	r.trace(NodeNeedMediaOps)

	// No attachments means nothing to transcribe or analyze.
	if len(r.state.MediaRefs) == 0 {
		r.state.NeedStt = false
		r.state.NeedVision = false
		return NodeBuildRequirement, nil
	}

	r.engine.emit(ctx, ThinkingEvent(r.state.SessionID, NodeNeedMediaOps, "Looking at your attachments"))

	var out needMediaOpsResult
	if err := r.engine.decider.Decide(ctx, needMediaOpsPrompt(r.state), &out); err != nil {
		// Fail open toward skipping optional enrichment, never toward
		// blocking the turn.
		r.engine.logger.Printf("[FLOW] session=%s node=%s judgment unavailable, skipping media ops: %v",
			r.session.ID, NodeNeedMediaOps, err)
		out = needMediaOpsResult{}
	}

	r.state.NeedStt = out.NeedStt && r.firstMediaRef(store.MediaTypeAudio) != nil
	r.state.NeedVision = out.NeedVision && r.firstMediaRef(store.MediaTypeImage) != nil

	switch {
	case r.state.NeedStt:
		return NodeTranscribeAudio, nil
	case r.state.NeedVision:
		return NodeExtractImageAttrs, nil
	default:
		return NodeBuildRequirement, nil
	}
}

// runMediaOps executes the transcription and image extraction steps, in
// parallel when both are needed. Collaborator failures here are non-fatal:
// the turn proceeds with whatever enrichment succeeded.
func (r *run) runMediaOps(ctx context.Context) (string, error) {
	if err := r.syncSession(ctx, store.StageMediaProcessing); err != nil {
		return "", err
	}

	var wg sync.WaitGroup
	var transcription *store.TranscriptionResult
	var attributes *store.ImageAttributes
	var sttErr, visionErr error

	if r.state.NeedStt {
		r.trace(NodeTranscribeAudio)
		ref := *r.firstMediaRef(store.MediaTypeAudio)
		wg.Add(1)
		go func() {
			defer wg.Done()
			transcription, sttErr = r.engine.media.Transcribe(ctx, ref)
		}()
	}
	if r.state.NeedVision {
		r.trace(NodeExtractImageAttrs)
		ref := *r.firstMediaRef(store.MediaTypeImage)
		wg.Add(1)
		go func() {
			defer wg.Done()
			attributes, visionErr = r.engine.media.ExtractImageAttributes(ctx, ref)
		}()
	}
	wg.Wait()

	if sttErr != nil {
		r.engine.logger.Printf("[FLOW] session=%s node=%s transcription failed, proceeding without transcript: %v",
			r.session.ID, NodeTranscribeAudio, sttErr)
	} else if transcription != nil {
		r.state.Transcript = transcription.Transcript
	}
	if visionErr != nil {
		r.engine.logger.Printf("[FLOW] session=%s node=%s image extraction failed, proceeding without attributes: %v",
			r.session.ID, NodeExtractImageAttrs, visionErr)
	} else if attributes != nil {
		r.state.ImageAttributes = attributes
	}

	return NodeBuildRequirement, nil
}

func (r *run) firstMediaRef(mediaType store.MediaType) *store.MediaReference {
	for i := range r.state.MediaRefs {
		if r.state.MediaRefs[i].MediaType == mediaType {
			return &r.state.MediaRefs[i]
		}
	}
	return nil
}

func (r *run) buildRequirement(ctx context.Context) (string, error) {
	r.trace(NodeBuildRequirement)
	r.engine.emit(ctx, ThinkingEvent(r.state.SessionID, NodeBuildRequirement, "Understanding what you need"))

	var spec store.RequirementSpec
	err := r.engine.decider.Decide(ctx, buildRequirementPrompt(r.state), &spec)
	if err == nil {
		err = spec.Validate()
	}
	if err != nil {
		// With a prior requirement the turn can still proceed on stale
		// intent; without one there is nothing to search for.
		if r.state.RequirementSpec == nil {
			return "", fmt.Errorf("requirement extraction failed: %w", err)
		}
		r.engine.logger.Printf("[FLOW] session=%s node=%s extraction failed, keeping prior requirement: %v",
			r.session.ID, NodeBuildRequirement, err)
	} else {
		if len(spec.Marketplaces) == 0 {
			spec.Marketplaces = store.DefaultMarketplaces()
		}
		r.state.RequirementSpec = &spec
		r.state.RequirementHistory = append(r.state.RequirementHistory, spec)
	}

	if err := r.syncSession(ctx, store.StageRequirementBuilding); err != nil {
		return "", err
	}
	return NodeNeedClarify, nil
}

func (r *run) needClarify(ctx context.Context) (string, error) {
	r.trace(NodeNeedClarify)

	// Loop-termination guarantee: past the ceiling the engine searches with
	// whatever it has, regardless of the model's opinion.
	if r.state.ClarificationCount >= r.engine.maxClarifications {
		r.engine.logger.Printf("[FLOW] session=%s clarification ceiling reached (%d), forcing search",
			r.session.ID, r.state.ClarificationCount)
		r.state.NeedsClarification = false
		r.state.ClarificationReason = ""
		return NodeSearchMarketplaces, nil
	}

	r.engine.emit(ctx, ThinkingEvent(r.state.SessionID, NodeNeedClarify, "Checking if I have enough to search"))

	var out needClarifyResult
	if err := r.engine.decider.Decide(ctx, needClarifyPrompt(r.state.RequirementSpec), &out); err != nil {
		r.engine.logger.Printf("[FLOW] session=%s node=%s judgment unavailable, proceeding to search: %v",
			r.session.ID, NodeNeedClarify, err)
		out = needClarifyResult{}
	}

	r.state.NeedsClarification = out.NeedsClarification
	r.state.ClarificationReason = out.Reason

	if r.state.NeedsClarification {
		return NodeAskClarifyingQ, nil
	}
	return NodeSearchMarketplaces, nil
}

// askClarifyingQ is the pause point: it emits one follow-up question and ends
// the run without reaching the search step. The next inbound turn on this
// session re-enters at requirement building with the answer merged in.
func (r *run) askClarifyingQ(ctx context.Context) (string, error) {
	r.trace(NodeAskClarifyingQ)

	prompt := askClarifyPrompt(r.state)
	var out clarifyQuestion

	// Stream the generation so the client sees tokens as they arrive, then
	// parse the accumulated output for the structured question.
	stream, err := r.engine.decider.Stream(ctx, prompt, llm.WithTemperature(0.7))
	if err == nil {
		var buf strings.Builder
		for token := range stream {
			buf.WriteString(token)
			r.engine.emit(ctx, TokenEvent(r.state.SessionID, token))
		}
		if parseErr := decision.ParseJSONBlock(buf.String(), &out); parseErr != nil {
			out = clarifyQuestion{}
		}
	}
	if out.Question == "" {
		if err := r.engine.decider.Decide(ctx, prompt, &out); err != nil || out.Question == "" {
			r.engine.logger.Printf("[FLOW] session=%s node=%s generation unavailable, using generic question",
				r.session.ID, NodeAskClarifyingQ)
			out = clarifyQuestion{
				Question:    "Could you tell me a bit more about what you're looking for? A budget or preferred brand would help.",
				Suggestions: nil,
			}
		}
	}

	count, err := r.engine.sessions.IncrementClarificationCount(ctx, r.session.ID)
	if err != nil {
		return "", fmt.Errorf("increment clarification count: %w", err)
	}
	r.state.ClarificationCount = count
	r.state.ClarifyingQuestion = out.Question
	r.state.ClarifySuggestions = out.Suggestions
	r.state.Paused = true

	if err := r.syncSession(ctx, store.StageClarifying); err != nil {
		return "", err
	}
	// The run ends here; the checkpoint records that nothing is pending.
	if err := r.checkpoint(ctx, ""); err != nil {
		return "", err
	}

	r.engine.emit(ctx, ClarificationEvent(r.state.SessionID, out.Question, out.Suggestions))
	return "", nil
}

func (r *run) searchMarketplaces(ctx context.Context) (string, error) {
	r.trace(NodeSearchMarketplaces)

	if r.state.RequirementSpec == nil {
		return "", errors.New("no requirement spec to search with")
	}
	if err := r.syncSession(ctx, store.StageSearching); err != nil {
		return "", err
	}

	results, err := r.engine.catalog.Search(ctx, r.state.RequirementSpec)
	if err != nil {
		// No meaningful answer exists without results; this is the one
		// collaborator failure that is fatal for the run.
		return "", fmt.Errorf("marketplace search failed: %w", err)
	}
	r.state.RawResults = results
	return NodeRankAndCompose, nil
}

func (r *run) rankAndCompose(ctx context.Context) (string, error) {
	r.trace(NodeRankAndCompose)

	if err := r.syncSession(ctx, store.StageRanking); err != nil {
		return "", err
	}

	r.state.RankedResults = rankProducts(r.state.RequirementSpec, r.state.RawResults)
	totalCount := 0
	if r.state.RawResults != nil {
		totalCount = r.state.RawResults.TotalCount
	}
	r.state.FinalResponse = composeSummary(r.state.RequirementSpec, r.state.RankedResults, totalCount)
	return NodeDone, nil
}

func (r *run) finish(ctx context.Context) (string, error) {
	r.trace(NodeDone)

	totalCount := 0
	if r.state.RawResults != nil {
		totalCount = r.state.RawResults.TotalCount
	}
	r.session.SearchResults = &store.SearchResults{
		Products:   r.state.RankedResults,
		TotalCount: totalCount,
	}
	r.session.FinalResponse = r.state.FinalResponse
	if err := r.syncSession(ctx, store.StageCompleted); err != nil {
		return "", err
	}
	if err := r.engine.checkpoints.Clear(ctx, r.session.ID); err != nil {
		r.engine.logger.Printf("[FLOW] session=%s clearing checkpoints after completion: %v", r.session.ID, err)
	}

	r.engine.emit(ctx, ResultsEvent(r.state.SessionID, r.state.RankedResults, totalCount, r.state.RequirementSpec, r.state.FinalResponse))
	r.engine.emit(ctx, DoneEvent(r.state.SessionID))
	return "", nil
}
