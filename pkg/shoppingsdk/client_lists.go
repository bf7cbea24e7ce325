package shoppingsdk

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
)

var errMissingID = errors.New("missing id")

// Lists returns the current user's lists. Lists the server sends in a shape
// this client cannot read are skipped.
func (c *APIClient) Lists(ctx context.Context) ([]List, error) {
	if c.tokens == nil {
		return nil, ErrNotAuthorized
	}
	userID := c.tokens.CurrentUserID()
	if userID == "" {
		return nil, ErrNotAuthorized
	}

	body, target, err := c.doAuthRequest(ctx, http.MethodGet, url.Values{"userId": {userID}}, nil, "lists")
	if err != nil {
		return nil, err
	}

	var elems []json.RawMessage
	if err := c.decodeJSON(target, body, &elems); err != nil {
		return nil, err
	}

	lists := make([]List, 0, len(elems))
	for i, elem := range elems {
		var l List
		if err := json.Unmarshal(elem, &l); err != nil {
			c.logger().Debug("skipping unreadable list", "index", i, "error", err)
			continue
		}
		lists = append(lists, l)
	}
	return lists, nil
}

// List fetches a single list with its items.
func (c *APIClient) List(ctx context.Context, listID string) (*List, error) {
	if err := c.requireLogin(); err != nil {
		return nil, err
	}

	body, target, err := c.doAuthRequest(ctx, http.MethodGet, nil, nil, "lists", listID)
	if err != nil {
		return nil, err
	}

	var l List
	if err := c.decodeJSON(target, body, &l); err != nil {
		return nil, err
	}
	return &l, nil
}

// CreateList creates a list and returns the id the server assigned. An empty
// payload name defaults to the ref's type.
func (c *APIClient) CreateList(ctx context.Context, payload ListCreatePayload) (string, error) {
	if err := c.requireLogin(); err != nil {
		return "", err
	}
	if payload.Name == "" {
		payload.Name = payload.Ref.Type().String()
	}

	body, target, err := c.doAuthRequest(ctx, http.MethodPost, nil, payload, "lists")
	if err != nil {
		return "", err
	}

	var result struct {
		ID string `json:"id"`
	}
	if err := c.decodeJSON(target, body, &result); err != nil {
		return "", err
	}
	if result.ID == "" {
		return "", &DecodeError{URL: target, Err: errMissingID}
	}
	return result.ID, nil
}

func (c *APIClient) DeleteList(ctx context.Context, listID string) error {
	if err := c.requireLogin(); err != nil {
		return err
	}

	_, _, err := c.doAuthRequest(ctx, http.MethodDelete, nil, nil, "lists", listID)
	return err
}
