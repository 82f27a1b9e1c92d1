package flow

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ai-shopflow-be/pkg/store"
)

func TestBuildRequirementPromptIsDeterministic(t *testing.T) {
	state := &store.WorkflowState{
		Message:    "gaming laptop under $1500",
		Transcript: "I mostly play strategy games",
		RequirementSpec: &store.RequirementSpec{
			ProductType: "laptop",
			Price:       &store.PriceFilter{Max: floatPtr(1500), Currency: "USD"},
		},
	}

	first := buildRequirementPrompt(state)
	second := buildRequirementPrompt(state)

	assert.Equal(t, first, second, "same inputs must produce the same prompt")
	assert.Contains(t, first, "gaming laptop under $1500")
	assert.Contains(t, first, "strategy games")
	assert.Contains(t, first, `"product_type"`)
}

func TestBuildRequirementPromptIncludesPriorSpecOnlyWhenPresent(t *testing.T) {
	fresh := buildRequirementPrompt(&store.WorkflowState{Message: "a phone"})
	assert.NotContains(t, fresh, "Prior requirement")

	withPrior := buildRequirementPrompt(&store.WorkflowState{
		Message:         "under $300",
		RequirementSpec: &store.RequirementSpec{ProductType: "phone"},
	})
	assert.Contains(t, withPrior, "Prior requirement")
	assert.Contains(t, withPrior, `"phone"`)
}

func TestNeedMediaOpsPromptListsAttachments(t *testing.T) {
	none := needMediaOpsPrompt(&store.WorkflowState{Message: "laptop"})
	assert.Contains(t, none, "Attached media: none")

	withAudio := needMediaOpsPrompt(&store.WorkflowState{
		Message: "like this",
		MediaRefs: []store.MediaReference{
			{MediaType: store.MediaTypeAudio, Key: "uploads/a.ogg", ContentType: "audio/ogg"},
		},
	})
	assert.Contains(t, withAudio, "type=audio")
	assert.Contains(t, withAudio, "uploads/a.ogg")
}

func TestAskClarifyPromptCarriesReason(t *testing.T) {
	prompt := askClarifyPrompt(&store.WorkflowState{
		Message:             "phone",
		RequirementSpec:     &store.RequirementSpec{ProductType: "phone"},
		ClarificationReason: "no budget or use case",
	})
	assert.Contains(t, prompt, "no budget or use case")
	assert.Contains(t, prompt, `"question"`)
}
