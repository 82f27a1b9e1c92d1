package collaborator

import (
	"context"
	"log"

	"ai-shopflow-be/pkg/store"
)

// MediaClient talks to the media-processing collaborator (speech-to-text and
// image attribute extraction).
type MediaClient struct {
	client *Client
}

func NewMediaClient(baseURL string, logger *log.Logger) *MediaClient {
	return &MediaClient{
		client: NewClient(baseURL, "media-service", logger),
	}
}

type transcribeRequest struct {
	Key string `json:"key"`
}

func (m *MediaClient) Transcribe(ctx context.Context, ref store.MediaReference) (*store.TranscriptionResult, error) {
	var out store.TranscriptionResult
	if err := m.client.PostJSON(ctx, "/transcribe", transcribeRequest{Key: ref.Key}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

type extractRequest struct {
	Key string `json:"key"`
}

func (m *MediaClient) ExtractImageAttributes(ctx context.Context, ref store.MediaReference) (*store.ImageAttributes, error) {
	var out store.ImageAttributes
	if err := m.client.PostJSON(ctx, "/extract-attributes", extractRequest{Key: ref.Key}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (m *MediaClient) HealthCheck(ctx context.Context) bool {
	return m.client.HealthCheck(ctx)
}
