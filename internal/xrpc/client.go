package xrpc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog/log"
)

const DefaultService = "https://bsky.social"

// Authenticator supplies bearer credentials and performs the coordinated
// session refresh. Implemented by the session manager.
type Authenticator interface {
	AccessToken() string
	Refresh(ctx context.Context) error
}

// Request describes one XRPC call. Transient, constructed per call.
type Request struct {
	Method      string
	NSID        string
	Params      url.Values
	Body        any
	RawBody     []byte
	ContentType string
	// NoAuth sends the call without credentials and disables 401 recovery.
	NoAuth bool
	// Bearer overrides the session's access token (used for refresh calls,
	// which authenticate with the refresh token). Overridden calls are never
	// retried.
	Bearer string
	// Proxy routes the call to a delegated sub-service via the atproto-proxy
	// header without changing the base endpoint.
	Proxy string
}

// Client dispatches XRPC calls against a single service endpoint, injecting
// bearer credentials and recovering exactly one 401 per call via refresh.
type Client struct {
	mu      sync.RWMutex
	service string
	auth    Authenticator
	http    *http.Client
}

func NewClient(service string) *Client {
	if service == "" {
		service = DefaultService
	}
	return &Client{
		service: service,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// SetAuth wires the session manager in after construction; the manager needs
// the client for its own calls, so the dependency is set late.
func (c *Client) SetAuth(auth Authenticator) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.auth = auth
}

// SetService changes the base endpoint. Only meaningful at login time.
func (c *Client) SetService(service string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.service = strings.TrimRight(service, "/")
}

func (c *Client) Service() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.service
}

// Do sends the request and decodes the JSON response into out (which may be
// nil). An empty response body resolves to an empty result, not a parse
// error. For authenticated calls a single 401 triggers one refresh and one
// resend; a second 401 is surfaced as-is.
func (c *Client) Do(ctx context.Context, req Request, out any) error {
	c.mu.RLock()
	auth := c.auth
	c.mu.RUnlock()

	body, contentType, err := encodeBody(req)
	if err != nil {
		return err
	}

	token := req.Bearer
	authed := false
	if token == "" && !req.NoAuth && auth != nil {
		token = auth.AccessToken()
		authed = token != ""
	}

	resp, err := c.send(ctx, req, body, contentType, token)
	if err != nil {
		return err
	}

	if resp.StatusCode == http.StatusUnauthorized && authed {
		drain(resp)
		log.Debug().Str("nsid", req.NSID).Msg("access token rejected, refreshing session")
		if err := auth.Refresh(ctx); err != nil {
			return err
		}
		resp, err = c.send(ctx, req, body, contentType, auth.AccessToken())
		if err != nil {
			return err
		}
	}

	return decodeResponse(resp, req.NSID, out)
}

func (c *Client) send(ctx context.Context, req Request, body []byte, contentType, token string) (*http.Response, error) {
	u := c.Service() + "/xrpc/" + req.NSID
	if req.Method == http.MethodGet && len(req.Params) > 0 {
		u += "?" + req.Params.Encode()
	}

	var reader io.Reader
	if req.Method == http.MethodPost && body != nil {
		reader = bytes.NewReader(body)
	}

	httpReq, err := http.NewRequestWithContext(ctx, req.Method, u, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	if token != "" {
		httpReq.Header.Set("Authorization", "Bearer "+token)
	}
	if req.Proxy != "" {
		httpReq.Header.Set("atproto-proxy", req.Proxy)
	}
	if contentType != "" {
		httpReq.Header.Set("Content-Type", contentType)
	}

	resp, err := c.http.Do(httpReq)
	if err != nil {
		return nil, &NetworkError{Err: err}
	}
	return resp, nil
}

func encodeBody(req Request) ([]byte, string, error) {
	if req.RawBody != nil {
		contentType := req.ContentType
		if contentType == "" {
			contentType = "application/octet-stream"
		}
		return req.RawBody, contentType, nil
	}
	if req.Body != nil {
		data, err := json.Marshal(req.Body)
		if err != nil {
			return nil, "", fmt.Errorf("encode body: %w", err)
		}
		return data, "application/json", nil
	}
	return nil, "", nil
}

func decodeResponse(resp *http.Response, nsid string, out any) error {
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return &NetworkError{Err: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		var body struct {
			Error   string `json:"error"`
			Message string `json:"message"`
		}
		_ = json.Unmarshal(data, &body)
		if body.Error == "" {
			body.Error = "UnknownError"
		}
		if body.Message == "" {
			body.Message = resp.Status
		}
		log.Debug().
			Str("nsid", nsid).
			Int("status", resp.StatusCode).
			Str("error", body.Error).
			Msg("xrpc call failed")
		return &ProtocolError{
			StatusCode: resp.StatusCode,
			Code:       body.Error,
			Message:    body.Message,
		}
	}

	if out == nil || len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, out); err != nil {
		return fmt.Errorf("decode %s response: %w", nsid, err)
	}
	return nil
}

func drain(resp *http.Response) {
	io.Copy(io.Discard, resp.Body)
	resp.Body.Close()
}
