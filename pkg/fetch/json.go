package fetch

import (
	"bytes"
	"context"
	"net/http"

	"github.com/myastroboard/astroboard/pkg/errors"
)

// FetchJSON performs a single attempt and decodes the body.
// Non-2xx statuses become an *errors.Error carrying the status code, the
// status text, the endpoint and the server's error message when it sent one.
func (c *Client) FetchJSON(ctx context.Context, path string, req Request) (*Payload, error) {
	return c.FetchJSONWithRetry(ctx, path, req, SingleAttempt)
}

// FetchJSONWithRetry composes FetchWithRetry with JSON decoding.
// A final non-2xx response is an error. A 2xx pending or error payload is
// returned as-is for the caller to inspect.
func (c *Client) FetchJSONWithRetry(ctx context.Context, path string, req Request, policy RetryPolicy) (*Payload, error) {
	resp, err := c.FetchWithRetry(ctx, path, req, policy)
	if err != nil {
		return nil, err
	}
	return decodeResponse(resp)
}

// PostJSON sends data as a JSON body with POST in a single attempt.
func (c *Client) PostJSON(ctx context.Context, path string, data any) (*Payload, error) {
	return c.sendJSON(ctx, http.MethodPost, path, data)
}

// PutJSON sends data as a JSON body with PUT in a single attempt.
func (c *Client) PutJSON(ctx context.Context, path string, data any) (*Payload, error) {
	return c.sendJSON(ctx, http.MethodPut, path, data)
}

// Delete issues a DELETE in a single attempt.
func (c *Client) Delete(ctx context.Context, path string) (*Payload, error) {
	return c.FetchJSON(ctx, path, Request{Method: http.MethodDelete})
}

func (c *Client) sendJSON(ctx context.Context, method, path string, data any) (*Payload, error) {
	req, err := JSONRequest(method, data)
	if err != nil {
		return nil, err
	}
	req.Header = http.Header{"Content-Type": {"application/json"}}
	return c.FetchJSON(ctx, path, req)
}

// emptyPayload stands in for 2xx responses without a body (204 No Content).
var emptyPayload = []byte("null")

func decodeResponse(resp *Response) (*Payload, error) {
	if !resp.OK() {
		return nil, errors.FromStatus(resp.StatusCode, resp.Status, resp.Endpoint, serverDetail(resp.Body))
	}
	body := resp.Body
	if len(bytes.TrimSpace(body)) == 0 {
		body = emptyPayload
	}
	p, err := parsePayload(body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeDecode, err, "invalid JSON from %s", resp.Endpoint).WithEndpoint(resp.Endpoint)
	}
	return p, nil
}

// serverDetail extracts the "error" (or "message") text of an error body.
func serverDetail(body []byte) string {
	p, err := parsePayload(body)
	if err != nil {
		return ""
	}
	if s := p.ErrorText(); s != "" {
		return s
	}
	return p.Message()
}
