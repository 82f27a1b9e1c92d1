package flow

import (
	"encoding/json"
	"fmt"
	"strings"

	"ai-shopflow-be/pkg/store"
)

func needMediaOpsPrompt(state *store.WorkflowState) string {
	var b strings.Builder
	b.WriteString("You route media processing for a shopping assistant.\n")
	b.WriteString("Decide whether the attached media needs audio transcription and/or image attribute extraction to understand the request.\n\n")
	fmt.Fprintf(&b, "User message: %q\n", state.Message)
	if len(state.MediaRefs) == 0 {
		b.WriteString("Attached media: none\n")
	} else {
		b.WriteString("Attached media:\n")
		for _, ref := range state.MediaRefs {
			fmt.Fprintf(&b, "- type=%s key=%s content_type=%s\n", ref.MediaType, ref.Key, ref.ContentType)
		}
	}
	b.WriteString("\nReply with ONLY a JSON object:\n")
	b.WriteString(`{"need_stt": <bool>, "need_vision": <bool>}`)
	return b.String()
}

func buildRequirementPrompt(state *store.WorkflowState) string {
	var b strings.Builder
	b.WriteString("You extract structured shopping requirements for a product search.\n")
	b.WriteString("Merge everything known about the user's intent into one requirement object. ")
	b.WriteString("Keep fields from the prior requirement unless the new message changes them.\n\n")
	fmt.Fprintf(&b, "User message: %q\n", state.Message)
	if state.Transcript != "" {
		fmt.Fprintf(&b, "Audio transcript: %q\n", state.Transcript)
	}
	if state.ImageAttributes != nil {
		attrs, _ := json.Marshal(state.ImageAttributes)
		fmt.Fprintf(&b, "Image attributes: %s\n", attrs)
	}
	if state.RequirementSpec != nil {
		prior, _ := json.Marshal(state.RequirementSpec)
		fmt.Fprintf(&b, "Prior requirement: %s\n", prior)
	}
	b.WriteString("\nReply with ONLY a JSON object matching this schema:\n")
	b.WriteString(`{"product_type": "<string, required>", "attributes": {"<name>": "<value>"}, "price": {"min": <number|null>, "max": <number|null>, "currency": "USD"}, "brand_preferences": ["<string>"], "rating_min": <number|null>, "condition": "new|used|refurbished|", "marketplaces": ["amazon","walmart","ebay","kroger"]}`)
	b.WriteString("\nOmit fields the user never constrained. Prices are plain numbers.")
	return b.String()
}

func needClarifyPrompt(spec *store.RequirementSpec) string {
	raw, _ := json.Marshal(spec)
	var b strings.Builder
	b.WriteString("You judge whether a shopping requirement is specific enough to search marketplaces with.\n")
	b.WriteString("A requirement is searchable when the product type plus at least one narrowing constraint (budget, brand, attribute, condition or rating) would produce a useful shortlist.\n\n")
	fmt.Fprintf(&b, "Requirement: %s\n", raw)
	b.WriteString("\nReply with ONLY a JSON object:\n")
	b.WriteString(`{"needs_clarification": <bool>, "reason": "<short string>", "confidence": <0.0-1.0>}`)
	return b.String()
}

func askClarifyPrompt(state *store.WorkflowState) string {
	raw, _ := json.Marshal(state.RequirementSpec)
	var b strings.Builder
	b.WriteString("You are a shopping assistant asking ONE short clarifying question.\n")
	fmt.Fprintf(&b, "The user said: %q\n", state.Message)
	fmt.Fprintf(&b, "Current requirement: %s\n", raw)
	if state.ClarificationReason != "" {
		fmt.Fprintf(&b, "What is unclear: %s\n", state.ClarificationReason)
	}
	b.WriteString("\nAsk the single most useful follow-up question, with up to four short suggested answers.\n")
	b.WriteString("Reply with ONLY a JSON object:\n")
	b.WriteString(`{"question": "<string>", "suggestions": ["<string>"]}`)
	return b.String()
}
