package shoppingsdk

import (
	"context"
	"net/http"
	"net/url"
)

// RecipeMetadata asks the server to scrape recipeURL and returns what it
// found.
func (c *APIClient) RecipeMetadata(ctx context.Context, recipeURL string) (*RecipeMetadata, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}

	body, target, err := c.doAuthRequest(ctx, http.MethodGet, url.Values{"url": {recipeURL}}, nil, "metadata")
	if err != nil {
		return nil, err
	}

	var meta RecipeMetadata
	if err := c.decodeJSON(target, body, &meta); err != nil {
		return nil, err
	}
	return &meta, nil
}
