package flow

import (
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"ai-shopflow-be/pkg/collaborator"
	"ai-shopflow-be/pkg/llm/decision"
	"ai-shopflow-be/pkg/store"
)

func TestErrorEventWireShape(t *testing.T) {
	event := ErrorEvent("sess-1", ErrCodeCollaboratorUnavailable, SeverityError, "search failed", true)

	raw, err := json.Marshal(event)
	require.NoError(t, err)

	var decoded map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &decoded))

	assert.Equal(t, "error", decoded["type"])
	assert.Equal(t, "sess-1", decoded["session_id"])
	assert.Equal(t, "collaborator_unavailable", decoded["code"])
	assert.Equal(t, "error", decoded["severity"])
	assert.Equal(t, true, decoded["recoverable"])
	assert.Contains(t, decoded, "timestamp")
}

func TestErrorCodeClassification(t *testing.T) {
	assert.Equal(t, ErrCodeCollaboratorUnavailable,
		errorCode(fmt.Errorf("marketplace search failed: %w", collaborator.ErrUnavailable)))
	assert.Equal(t, ErrCodeStoreUnavailable,
		errorCode(fmt.Errorf("persist session: %w", store.ErrStoreUnavailable)))
	assert.Equal(t, ErrCodeSessionNotFound, errorCode(store.ErrSessionNotFound))
	assert.Equal(t, ErrCodeDecisionUnavailable,
		errorCode(fmt.Errorf("requirement extraction failed: %w", decision.ErrDecisionUnavailable)))
	assert.Equal(t, ErrCodeInternal, errorCode(errors.New("unknown workflow node")))
}
