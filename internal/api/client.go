// Package api implements the low-level HTTP client for the remote Mural
// REST API. All durable state lives behind that API; this client performs a
// single attempt per call and surfaces failures through the Error type.
package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/mural-blog/mural/internal/shared"
)

// Client wraps interactions with the Mural API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	onError    func(status int)
}

// OnError registers a hook invoked with the HTTP status of every failed
// call. Status zero marks a transport failure.
func (c *Client) OnError(fn func(status int)) {
	c.onError = fn
}

func (c *Client) report(status int) {
	if c.onError != nil {
		c.onError(status)
	}
}

// New constructs a Client for the given base URL.
func New(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// Error is the structured failure payload returned by the API:
// {"errors": {"default": "...", "body": {"field": "message"}}}.
// Transport failures and unmapped statuses collapse into a generic default.
type Error struct {
	Status  int
	Default string
	Body    map[string]string
	cause   error
}

func (e *Error) Error() string {
	if e.Default != "" {
		return fmt.Sprintf("api: %s (status %d)", e.Default, e.Status)
	}
	return fmt.Sprintf("api: request failed with status %d", e.Status)
}

// Unwrap exposes the transport-level cause, if any.
func (e *Error) Unwrap() error {
	return e.cause
}

// IsNotFound reports whether the error is an HTTP 404.
func (e *Error) IsNotFound() bool {
	return e != nil && e.Status == http.StatusNotFound
}

// FieldErrors returns per-field validation messages, possibly empty.
func (e *Error) FieldErrors() map[string]string {
	if e == nil || e.Body == nil {
		return map[string]string{}
	}
	return e.Body
}

type errorEnvelope struct {
	Errors struct {
		Default string            `json:"default"`
		Body    map[string]string `json:"body"`
	} `json:"errors"`
}

// Get performs a GET request and decodes the JSON response into out. The
// response headers are returned so callers can read X-Total-Count.
func (c *Client) Get(ctx context.Context, path, token string, query url.Values, out any) (http.Header, error) {
	target := c.baseURL + path
	if len(query) > 0 {
		target += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, transportError(err)
	}
	return c.do(req, token, out)
}

// PostJSON performs a POST request with a JSON body.
func (c *Client) PostJSON(ctx context.Context, path, token string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPost, path, token, body, out)
}

// PutJSON performs a PUT request with a JSON body.
func (c *Client) PutJSON(ctx context.Context, path, token string, body, out any) error {
	return c.sendJSON(ctx, http.MethodPut, path, token, body, out)
}

// Delete performs a DELETE request; the API answers 204 on success.
func (c *Client) Delete(ctx context.Context, path, token string) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodDelete, c.baseURL+path, nil)
	if err != nil {
		return transportError(err)
	}
	_, err = c.do(req, token, nil)
	return err
}

// FormFile is a file part of a multipart submission.
type FormFile struct {
	Field       string
	Name        string
	ContentType string
	Data        []byte
}

// SendForm performs a multipart/form-data request, used by endpoints that
// accept photo uploads alongside regular fields.
func (c *Client) SendForm(ctx context.Context, method, path, token string, fields map[string]string, files []FormFile, out any) error {
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, value := range fields {
		if err := writer.WriteField(field, value); err != nil {
			return transportError(err)
		}
	}
	for _, file := range files {
		part, err := writer.CreateFormFile(file.Field, file.Name)
		if err != nil {
			return transportError(err)
		}
		if _, err := io.Copy(part, bytes.NewReader(file.Data)); err != nil {
			return transportError(err)
		}
	}
	if err := writer.Close(); err != nil {
		return transportError(err)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return transportError(err)
	}
	req.Header.Set("Content-Type", writer.FormDataContentType())
	_, err = c.do(req, token, out)
	return err
}

func (c *Client) sendJSON(ctx context.Context, method, path, token string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return transportError(err)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return transportError(err)
	}
	req.Header.Set("Content-Type", "application/json")
	_, err = c.do(req, token, out)
	return err
}

func (c *Client) do(req *http.Request, token string, out any) (http.Header, error) {
	req.Header.Set("Accept", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.report(0)
		return nil, transportError(err)
	}
	defer func() {
		_ = resp.Body.Close()
	}()

	if resp.StatusCode >= 400 {
		c.report(resp.StatusCode)
		return resp.Header, decodeError(resp)
	}

	if out != nil && resp.StatusCode != http.StatusNoContent {
		if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
			return resp.Header, transportError(err)
		}
	}
	return resp.Header, nil
}

func decodeError(resp *http.Response) *Error {
	apiErr := &Error{Status: resp.StatusCode, Default: shared.GenericErrorMessage}
	var envelope errorEnvelope
	if err := json.NewDecoder(resp.Body).Decode(&envelope); err == nil {
		if envelope.Errors.Default != "" {
			apiErr.Default = envelope.Errors.Default
		}
		apiErr.Body = envelope.Errors.Body
	}
	return apiErr
}

func transportError(err error) *Error {
	return &Error{Default: shared.GenericErrorMessage, cause: err}
}
