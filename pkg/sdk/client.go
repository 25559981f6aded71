// Package sdk provides the client-side library for the FormX HTTP API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/formx360/formx/pkg/schema"
)

const maxAttempts = 3

// Client is a remote client for a FormX server. It implements FormX.
type Client struct {
	baseURL string
	token   string
	http    *http.Client
}

var _ FormX = (*Client)(nil)

// Option configures a Client.
type Option func(*Client)

// WithToken sends the bearer token with every request.
func WithToken(token string) Option {
	return func(c *Client) { c.token = token }
}

// WithHTTPClient replaces the default HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) { c.http = hc }
}

// Connect creates a client for the server at baseURL, e.g. http://localhost:5000.
func Connect(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("invalid server address: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return nil, fmt.Errorf("invalid server address %q: scheme must be http or https", baseURL)
	}
	c := &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 30 * time.Second},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// do sends one request and decodes a 2xx body into out. GET requests are retried on
// transport errors and 5xx answers with exponential backoff.
func (c *Client) do(ctx context.Context, method, path string, body, out any) error {
	var payload []byte
	if body != nil {
		var err error
		if payload, err = json.Marshal(body); err != nil {
			return err
		}
	}

	attempts := 1
	if method == http.MethodGet {
		attempts = maxAttempts
	}

	var lastErr error
	for i := 0; i < attempts; i++ {
		if i > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(time.Duration(i*200) * time.Millisecond):
			}
		}

		retry, err := c.once(ctx, method, path, payload, out)
		if err == nil || !retry {
			return err
		}
		lastErr = err
	}
	return fmt.Errorf("failed after %d attempts. last error: %w", attempts, lastErr)
}

func (c *Client) once(ctx context.Context, method, path string, payload []byte, out any) (retry bool, err error) {
	var reader io.Reader
	if payload != nil {
		reader = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return false, err
	}
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return ctx.Err() == nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return true, err
	}

	if resp.StatusCode >= 300 {
		var body struct {
			Error  string   `json:"error"`
			Errors []string `json:"errors"`
		}
		_ = json.Unmarshal(data, &body)
		if body.Error == "" {
			body.Error = http.StatusText(resp.StatusCode)
		}
		apiErr := &APIError{Status: resp.StatusCode, Message: body.Error, Errors: body.Errors}
		return resp.StatusCode >= 500, apiErr
	}

	if out == nil {
		return false, nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return false, fmt.Errorf("decode response: %w", err)
	}
	return false, nil
}

func escape(id string) string { return url.PathEscape(id) }

// --- Directory ---

func (c *Client) CreateCompany(ctx context.Context, name string) (schema.Company, error) {
	var out struct {
		Company schema.Company `json:"company"`
	}
	err := c.do(ctx, http.MethodPost, "/companies", map[string]string{"name": name}, &out)
	return out.Company, err
}

func (c *Client) GetCompany(ctx context.Context, id string) (schema.Company, error) {
	var out schema.Company
	err := c.do(ctx, http.MethodGet, "/companies/"+escape(id), nil, &out)
	return out, err
}

func (c *Client) CreateUser(ctx context.Context, name, email string) (schema.User, error) {
	var out struct {
		User schema.User `json:"user"`
	}
	err := c.do(ctx, http.MethodPost, "/users", map[string]string{"name": name, "email": email}, &out)
	return out.User, err
}

func (c *Client) GetUser(ctx context.Context, id string) (schema.User, error) {
	var out schema.User
	err := c.do(ctx, http.MethodGet, "/users/"+escape(id), nil, &out)
	return out, err
}

// --- Forms ---

func (c *Client) CreateForm(ctx context.Context, companyID, title, description string) (schema.Form, error) {
	var out struct {
		Form schema.Form `json:"form"`
	}
	body := map[string]string{"title": title, "description": description}
	err := c.do(ctx, http.MethodPost, "/companies/"+escape(companyID)+"/forms", body, &out)
	return out.Form, err
}

func (c *Client) ListForms(ctx context.Context, companyID string) ([]schema.Form, error) {
	var out []schema.Form
	err := c.do(ctx, http.MethodGet, "/companies/"+escape(companyID)+"/forms", nil, &out)
	return out, err
}

func (c *Client) GetForm(ctx context.Context, id string) (schema.Form, error) {
	var out struct {
		Form schema.Form `json:"form"`
	}
	err := c.do(ctx, http.MethodGet, "/forms/"+escape(id), nil, &out)
	return out.Form, err
}

func (c *Client) UpdateForm(ctx context.Context, id string, update FormUpdate) (schema.Form, error) {
	if update.Fields == nil {
		update.Fields = []schema.Field{}
	}
	var out struct {
		Form schema.Form `json:"form"`
	}
	err := c.do(ctx, http.MethodPut, "/forms/"+escape(id), update, &out)
	return out.Form, err
}

func (c *Client) DeleteForm(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/forms/"+escape(id), nil, nil)
}

// --- Responses ---

// Submit sends a response set. A rejection is an *APIError whose Errors lists every violation.
func (c *Client) Submit(ctx context.Context, formID, userID string, answers []schema.FieldValue) (schema.Response, error) {
	if answers == nil {
		answers = []schema.FieldValue{}
	}
	body := map[string]any{"form_id": formID, "responses": answers}
	if userID != "" {
		body["user_id"] = userID
	}
	var out struct {
		Response schema.Response `json:"response"`
	}
	err := c.do(ctx, http.MethodPost, "/responses", body, &out)
	return out.Response, err
}

func (c *Client) ListFormResponses(ctx context.Context, formID string) ([]FormResponse, error) {
	var out []FormResponse
	err := c.do(ctx, http.MethodGet, "/responses/form/"+escape(formID), nil, &out)
	return out, err
}

func (c *Client) ListUserResponses(ctx context.Context, userID string) ([]UserResponse, error) {
	var out []UserResponse
	err := c.do(ctx, http.MethodGet, "/responses/user/"+escape(userID), nil, &out)
	return out, err
}

// Ping checks that the server answers its health route.
func (c *Client) Ping(ctx context.Context) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/", nil)
	if err != nil {
		return err
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New("unexpected health status " + resp.Status)
	}
	return nil
}
