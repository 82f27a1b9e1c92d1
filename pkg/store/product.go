package store

// MediaType categorizes an uploaded media reference.
type MediaType string

const (
	MediaTypeAudio MediaType = "audio"
	MediaTypeImage MediaType = "image"
)

// MediaReference points at a media object uploaded out of band.
type MediaReference struct {
	MediaType   MediaType `json:"media_type"`
	Key         string    `json:"key"`
	ContentType string    `json:"content_type,omitempty"`
	SizeBytes   int64     `json:"size_bytes,omitempty"`
}

// TranscriptionResult is what the media collaborator returns for audio.
type TranscriptionResult struct {
	Transcript string  `json:"transcript"`
	Confidence float64 `json:"confidence"`
	Language   string  `json:"language,omitempty"`
}

// ImageAttributes is what the media collaborator extracts from an image.
type ImageAttributes struct {
	Labels  []string `json:"labels,omitempty"`
	Text    []string `json:"text,omitempty"`
	Objects []string `json:"objects,omitempty"`
	Colors  []string `json:"colors,omitempty"`
}

// ProductResult is one ranked item surfaced to the user.
type ProductResult struct {
	ProductID    string            `json:"product_id"`
	Marketplace  Marketplace       `json:"marketplace"`
	Title        string            `json:"title"`
	Price        float64           `json:"price"`
	Currency     string            `json:"currency"`
	Rating       *float64          `json:"rating,omitempty"`
	ReviewCount  *int              `json:"review_count,omitempty"`
	Condition    Condition         `json:"condition,omitempty"`
	Availability string            `json:"availability"`
	ImageURL     string            `json:"image_url,omitempty"`
	DeepLink     string            `json:"deep_link"`
	Attributes   map[string]string `json:"attributes,omitempty"`
	WhyRanked    string            `json:"why_ranked,omitempty"`
}

// SearchResults aggregates raw results from the catalog collaborator.
type SearchResults struct {
	Products   []ProductResult `json:"products"`
	TotalCount int             `json:"total_count"`
}
