package shoppingsdk

import (
	"context"
	"net/http"
)

// AddItem appends item to the list.
func (c *APIClient) AddItem(ctx context.Context, listID string, item ListItemCreatePayload) error {
	if err := c.requireLogin(); err != nil {
		return err
	}

	_, _, err := c.doAuthRequest(ctx, http.MethodPost, nil, item, "lists", listID, "items")
	return err
}

// UpdateItem replaces the item identified by item.ID.
func (c *APIClient) UpdateItem(ctx context.Context, listID string, item ListItemUpdatePayload) error {
	if err := c.requireLogin(); err != nil {
		return err
	}

	_, _, err := c.doAuthRequest(ctx, http.MethodPut, nil, item, "lists", listID, "items", item.ID)
	return err
}

func (c *APIClient) RemoveItem(ctx context.Context, listID, itemID string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}

	_, _, err := c.doAuthRequest(ctx, http.MethodDelete, nil, nil, "lists", listID, "items", itemID)
	return err
}
