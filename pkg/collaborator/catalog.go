package collaborator

import (
	"context"
	"log"

	"ai-shopflow-be/pkg/store"
)

// CatalogClient talks to the product-search collaborator.
type CatalogClient struct {
	client *Client
}

func NewCatalogClient(baseURL string, logger *log.Logger) *CatalogClient {
	return &CatalogClient{
		client: NewClient(baseURL, "catalog-service", logger),
	}
}

type searchRequest struct {
	RequirementSpec *store.RequirementSpec `json:"requirement_spec"`
}

func (c *CatalogClient) Search(ctx context.Context, spec *store.RequirementSpec) (*store.SearchResults, error) {
	var out store.SearchResults
	if err := c.client.PostJSON(ctx, "/search", searchRequest{RequirementSpec: spec}, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *CatalogClient) HealthCheck(ctx context.Context) bool {
	return c.client.HealthCheck(ctx)
}
