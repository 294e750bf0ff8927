// Package api is the typed HTTP client for the registration server.
// Retry and backoff for transient failures live here; callers only
// observe success or a terminal error.
package api

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"time"
)

// Sentinel errors for common HTTP error classes.
var (
	ErrUnauthorized = errors.New("unauthorized")
	ErrForbidden    = errors.New("forbidden")
	ErrNotFound     = errors.New("not found")
	ErrRateLimited  = errors.New("rate limited")
)

const (
	maxRetries       = 3
	defaultRetryWait = time.Second
)

// Client is an HTTP client for the registration server.
type Client struct {
	BaseURL string
	Token   string
	HTTP    *http.Client

	// retryWait overrides the base backoff in tests.
	retryWait time.Duration
}

// New creates a new API client.
func New(baseURL, token string) *Client {
	return &Client{
		BaseURL:   baseURL,
		Token:     token,
		HTTP:      &http.Client{Timeout: 30 * time.Second},
		retryWait: defaultRetryWait,
	}
}

// SetToken sets the bearer token after login.
func (c *Client) SetToken(token string) {
	c.Token = token
}

// HealthCheck hits the /health endpoint to verify server reachability.
func (c *Client) HealthCheck() (*HealthResponse, error) {
	var resp HealthResponse
	if err := c.do("GET", "/health", nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Login authenticates with email and password and returns the token
// and user data. No bearer token required.
func (c *Client) Login(email, password string) (*LoginResponse, error) {
	body := map[string]string{"email": email, "password": password}
	var resp LoginResponse
	if err := c.do("POST", "/api/auth/login", body, &resp); err != nil {
		return nil, err
	}
	if resp.BearerToken() == "" {
		return nil, fmt.Errorf("no token in login response")
	}
	return &resp, nil
}

// Disciplines pulls the whole discipline collection.
func (c *Client) Disciplines() ([]ReferenceItem, error) {
	return c.reference("/api/reference/disciplines")
}

// Nominations pulls the whole nomination collection.
func (c *Client) Nominations() ([]ReferenceItem, error) {
	return c.reference("/api/reference/nominations")
}

// Ages pulls the whole age collection.
func (c *Client) Ages() ([]ReferenceItem, error) {
	return c.reference("/api/reference/ages")
}

// Categories pulls the whole category collection.
func (c *Client) Categories() ([]ReferenceItem, error) {
	return c.reference("/api/reference/categories")
}

func (c *Client) reference(path string) ([]ReferenceItem, error) {
	var items []ReferenceItem
	if err := c.do("GET", path, nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

// Events pulls the event collection. The server may deliver a bare list
// or an {"events": [...]} envelope; both are accepted.
func (c *Client) Events() ([]EventDTO, error) {
	raw, err := c.doRaw("GET", "/api/reference/events", nil)
	if err != nil {
		return nil, err
	}
	return decodeEvents(raw)
}

// Registrations pulls one page of registrations for an event.
func (c *Client) Registrations(eventID int64, page, limit int) (*RegistrationPage, error) {
	params := url.Values{}
	params.Set("eventId", strconv.FormatInt(eventID, 10))
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	var resp RegistrationPage
	if err := c.do("GET", "/api/registrations?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// AccountingEntries pulls one page of ledger entries for an event.
func (c *Client) AccountingEntries(eventID int64, page, limit int) (*AccountingPage, error) {
	params := url.Values{}
	params.Set("eventId", strconv.FormatInt(eventID, 10))
	params.Set("page", strconv.Itoa(page))
	params.Set("limit", strconv.Itoa(limit))

	var resp AccountingPage
	if err := c.do("GET", "/api/accounting?"+params.Encode(), nil, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// CreateRegistration submits a locally-created registration and returns
// the server's view of it (including the assigned id).
func (c *Client) CreateRegistration(body map[string]any) (*RegistrationDTO, error) {
	var resp RegistrationDTO
	if err := c.do("POST", "/api/registrations", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// UpdateRegistration submits local changes to an existing registration.
func (c *Client) UpdateRegistration(serverID int64, body map[string]any) error {
	return c.do("PATCH", fmt.Sprintf("/api/registrations/%d", serverID), body, nil)
}

// CreateAccountingEntry submits a locally-created ledger entry.
func (c *Client) CreateAccountingEntry(body map[string]any) (*AccountingEntryDTO, error) {
	var resp AccountingEntryDTO
	if err := c.do("POST", "/api/accounting", body, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

// --- HTTP helpers ---

// apiError is the standard error body from the server.
type apiError struct {
	Code    string `json:"code,omitempty"`
	Message string `json:"message,omitempty"`
	Err     string `json:"error,omitempty"`
}

func (e *apiError) Error() string {
	switch {
	case e.Message != "" && e.Code != "":
		return fmt.Sprintf("%s: %s", e.Code, e.Message)
	case e.Message != "":
		return e.Message
	case e.Err != "":
		return e.Err
	default:
		return e.Code
	}
}

// do executes a request and unmarshals the JSON response into result.
func (c *Client) do(method, path string, body, result any) error {
	respBody, err := c.doRaw(method, path, body)
	if err != nil {
		return err
	}
	if result != nil && len(respBody) > 0 {
		if err := json.Unmarshal(respBody, result); err != nil {
			return fmt.Errorf("unmarshal response: %w", err)
		}
	}
	return nil
}

// doRaw executes a request with bounded retry on 429 and transient 5xx
// responses and returns the raw response body.
func (c *Client) doRaw(method, path string, body any) ([]byte, error) {
	var bodyData []byte
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal request: %w", err)
		}
		bodyData = data
	}

	wait := c.retryWait
	if wait <= 0 {
		wait = defaultRetryWait
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		if attempt > 0 {
			time.Sleep(wait)
			wait *= 2
		}

		respBody, retryAfter, err := c.doOnce(method, path, bodyData)
		if err == nil {
			return respBody, nil
		}
		lastErr = err

		if !errors.Is(err, errRetryable) {
			return nil, err
		}
		if retryAfter > 0 {
			wait = retryAfter
		}
	}
	return nil, lastErr
}

// errRetryable marks transient transport errors eligible for retry.
var errRetryable = errors.New("retryable")

func (c *Client) doOnce(method, path string, bodyData []byte) ([]byte, time.Duration, error) {
	var bodyReader io.Reader
	if bodyData != nil {
		bodyReader = bytes.NewReader(bodyData)
	}

	req, err := http.NewRequest(method, c.BaseURL+path, bodyReader)
	if err != nil {
		return nil, 0, fmt.Errorf("create request: %w", err)
	}
	if bodyData != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.Token != "" {
		req.Header.Set("Authorization", "Bearer "+c.Token)
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: http request: %v", errRetryable, err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, 0, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusTooManyRequests {
		retryAfter := parseRetryAfter(resp.Header.Get("Retry-After"))
		return nil, retryAfter, fmt.Errorf("%w: %w", errRetryable, ErrRateLimited)
	}
	if resp.StatusCode == http.StatusBadGateway ||
		resp.StatusCode == http.StatusServiceUnavailable ||
		resp.StatusCode == http.StatusGatewayTimeout {
		return nil, 0, fmt.Errorf("%w: HTTP %d", errRetryable, resp.StatusCode)
	}

	if resp.StatusCode >= 400 {
		var apiErr apiError
		if json.Unmarshal(respBody, &apiErr) == nil && apiErr.Error() != "" {
			switch resp.StatusCode {
			case http.StatusUnauthorized:
				return nil, 0, fmt.Errorf("%w: %s", ErrUnauthorized, apiErr.Error())
			case http.StatusForbidden:
				return nil, 0, fmt.Errorf("%w: %s", ErrForbidden, apiErr.Error())
			case http.StatusNotFound:
				return nil, 0, fmt.Errorf("%w: %s", ErrNotFound, apiErr.Error())
			default:
				return nil, 0, &apiErr
			}
		}
		switch resp.StatusCode {
		case http.StatusUnauthorized:
			return nil, 0, ErrUnauthorized
		case http.StatusForbidden:
			return nil, 0, ErrForbidden
		case http.StatusNotFound:
			return nil, 0, ErrNotFound
		}
		return nil, 0, fmt.Errorf("HTTP %d: %s", resp.StatusCode, string(respBody))
	}

	return respBody, 0, nil
}

// parseRetryAfter interprets a Retry-After header value in seconds.
func parseRetryAfter(v string) time.Duration {
	if v == "" {
		return 0
	}
	secs, err := strconv.Atoi(v)
	if err != nil || secs <= 0 {
		return 0
	}
	return time.Duration(secs) * time.Second
}
