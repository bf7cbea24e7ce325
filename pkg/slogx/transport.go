package slogx

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"
)

// RequestIDHeader carries the per request trace id to the server.
const RequestIDHeader = "X-Request-ID"

// maxLoggedBody caps how much of a body is rendered into a debug record.
const maxLoggedBody = 4 << 10

const redacted = "[REDACTED]"

// sensitiveFields are form, query and top level JSON keys whose values never
// reach a log record.
var sensitiveFields = map[string]struct{}{
	"access_token":  {},
	"refresh_token": {},
	"id_token":      {},
	"code":          {},
	"code_verifier": {},
	"client_secret": {},
	"password":      {},
}

// TracingTransport logs each outbound request and its outcome. At debug
// level it also renders the request as a curl command and logs the response
// body. Credentials are redacted before anything is logged.
type TracingTransport struct {
	Base   http.RoundTripper
	Logger *slog.Logger
}

// NewTracingTransport wraps base, or http.DefaultTransport when base is nil.
func NewTracingTransport(base http.RoundTripper, logger *slog.Logger) *TracingTransport {
	if base == nil {
		base = http.DefaultTransport
	}
	return &TracingTransport{Base: base, Logger: logger}
}

// WrapClient returns a shallow copy of c whose transport is traced.
func WrapClient(c *http.Client, logger *slog.Logger) *http.Client {
	if c == nil {
		c = &http.Client{}
	}
	wrapped := *c
	wrapped.Transport = NewTracingTransport(c.Transport, logger)
	return &wrapped
}

func (t *TracingTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	start := time.Now()
	ctx := req.Context()

	// RoundTrippers must not modify the caller's request
	req = req.Clone(ctx)

	reqID := req.Header.Get(RequestIDHeader)
	if reqID == "" {
		reqID = ulid.Make().String()
		req.Header.Set(RequestIDHeader, reqID)
	}

	logger := FromContext(ctx, t.Logger).With(
		"req_id", reqID,
		"method", req.Method,
		"url", RedactURL(req.URL),
	)
	debug := logger.Enabled(ctx, slog.LevelDebug)

	if debug {
		body, err := peekRequestBody(req)
		if err != nil {
			return nil, err
		}
		logger.Debug("http_request", "curl", CurlString(req, body))
	}

	resp, err := t.Base.RoundTrip(req)
	duration := time.Since(start).Milliseconds()
	if err != nil {
		logger.Warn("http_request_failed", "error", err, "duration_ms", duration)
		return nil, err
	}

	logger.Info("http_response",
		"status", resp.StatusCode,
		"duration_ms", duration,
	)

	if debug && resp.Body != nil {
		body, readErr := io.ReadAll(resp.Body)
		_ = resp.Body.Close()
		resp.Body = io.NopCloser(bytes.NewReader(body))
		if readErr != nil {
			return nil, fmt.Errorf("failed to read response body: %w", readErr)
		}
		logger.Debug("http_response_body",
			"content_type", resp.Header.Get("Content-Type"),
			"body", RedactBody(resp.Header.Get("Content-Type"), body),
		)
	}

	return resp, nil
}

// peekRequestBody reads the request body for logging and leaves an
// equivalent body in place.
func peekRequestBody(req *http.Request) ([]byte, error) {
	if req.Body == nil || req.Body == http.NoBody {
		return nil, nil
	}
	if req.GetBody != nil {
		rc, err := req.GetBody()
		if err != nil {
			return nil, fmt.Errorf("failed to copy request body: %w", err)
		}
		defer rc.Close()
		return io.ReadAll(rc)
	}

	body, err := io.ReadAll(req.Body)
	_ = req.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read request body: %w", err)
	}
	req.Body = io.NopCloser(bytes.NewReader(body))
	return body, nil
}

// CurlString renders req as a curl command line with credentials redacted.
func CurlString(req *http.Request, body []byte) string {
	var b strings.Builder
	b.WriteString("curl -X ")
	b.WriteString(req.Method)
	b.WriteString(" ")
	b.WriteString(shellQuote(RedactURL(req.URL)))

	keys := make([]string, 0, len(req.Header))
	for k := range req.Header {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		for _, v := range req.Header[k] {
			b.WriteString(" -H ")
			b.WriteString(shellQuote(k + ": " + redactHeader(k, v)))
		}
	}

	if len(body) > 0 {
		b.WriteString(" -d ")
		b.WriteString(shellQuote(RedactBody(req.Header.Get("Content-Type"), body)))
	}
	return b.String()
}

// RedactURL renders u with sensitive query values replaced.
func RedactURL(u *url.URL) string {
	if u == nil {
		return ""
	}
	if u.RawQuery == "" {
		return u.String()
	}

	c := *u
	c.RawQuery = redactValues(u.Query()).Encode()
	return c.String()
}

// RedactBody returns body as a string with sensitive values replaced. Form
// and JSON object bodies are understood; anything else is passed through,
// truncated.
func RedactBody(contentType string, body []byte) string {
	switch {
	case strings.HasPrefix(contentType, "application/x-www-form-urlencoded"):
		values, err := url.ParseQuery(string(body))
		if err == nil {
			return redactValues(values).Encode()
		}
	case strings.Contains(contentType, "json"):
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(body, &obj); err == nil {
			for k := range obj {
				if _, ok := sensitiveFields[k]; ok {
					obj[k] = json.RawMessage(`"` + redacted + `"`)
				}
			}
			if out, err := json.Marshal(obj); err == nil {
				return truncate(string(out))
			}
		}
	}
	return truncate(string(body))
}

func redactValues(values url.Values) url.Values {
	out := make(url.Values, len(values))
	for k, vs := range values {
		if _, ok := sensitiveFields[k]; ok {
			out[k] = []string{redacted}
			continue
		}
		out[k] = vs
	}
	return out
}

func redactHeader(key, value string) string {
	switch http.CanonicalHeaderKey(key) {
	case "Authorization", "Proxy-Authorization":
		if scheme, _, ok := strings.Cut(value, " "); ok {
			return scheme + " " + redacted
		}
		return redacted
	case "Cookie", "Set-Cookie":
		return redacted
	}
	return value
}

func truncate(s string) string {
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "...(truncated)"
}

func shellQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", `'\''`) + "'"
}
