package shoppingsdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"

	"github.com/aussiebroadwan/shoppinghelp/pkg/slogx"
)

// endpoint resolves path segments against the base URL. Each segment is
// escaped, so ids cannot introduce extra path components.
func (c *APIClient) endpoint(query url.Values, segments ...string) (string, error) {
	base, err := url.Parse(c.BaseURL)
	if err != nil || base.Host == "" || (base.Scheme != "http" && base.Scheme != "https") {
		return "", fmt.Errorf("%w: invalid base url %q", ErrUnknown, c.BaseURL)
	}
	if !strings.HasSuffix(base.Path, "/") {
		base.Path += "/"
	}

	escaped := make([]string, len(segments))
	for i, s := range segments {
		escaped[i] = url.PathEscape(s)
	}

	ref, err := url.Parse(strings.Join(escaped, "/"))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrUnknown, err)
	}

	u := base.ResolveReference(ref)
	if len(query) > 0 {
		u.RawQuery = query.Encode()
	}
	return u.String(), nil
}

// doAuthRequest sends an authenticated request and returns the body of a 2xx
// response. Non-2xx responses become *HTTPError.
func (c *APIClient) doAuthRequest(
	ctx context.Context,
	method string,
	query url.Values,
	payload any,
	segments ...string,
) ([]byte, string, error) {
	token, err := c.tokens.ValidAccessToken(ctx)
	if err != nil {
		return nil, "", err
	}

	target, err := c.endpoint(query, segments...)
	if err != nil {
		return nil, "", err
	}

	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, target, fmt.Errorf("failed to encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, target, body)
	if err != nil {
		return nil, target, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return nil, target, fmt.Errorf("failed to send request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, target, fmt.Errorf("failed to read response body: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, target, &HTTPError{
			Method:     method,
			URL:        target,
			StatusCode: resp.StatusCode,
			Body:       respBody,
		}
	}

	return respBody, target, nil
}

// decodeJSON decodes body into target, reporting shape problems as
// *DecodeError.
func (c *APIClient) decodeJSON(target string, body []byte, v any) error {
	if err := json.Unmarshal(body, v); err != nil {
		c.logger().Error("cannot parse response", "url", target, "error", err)
		return &DecodeError{URL: target, Err: err}
	}
	return nil
}

func (c *APIClient) logger() *slog.Logger {
	if c.Logger == nil {
		return slogx.Discard()
	}
	return c.Logger
}
