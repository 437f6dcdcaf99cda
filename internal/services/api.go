// Raw access to the ytmusicapi proxy, for diagnostics
package services

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
)

// ProxyClient makes raw HTTP requests to the proxy, forwarding the same auth headers as [YouTubeService].
type ProxyClient struct {
	baseURL     string
	authHeaders string
	httpClient  *http.Client
}

// NewProxyClient creates a raw client for the proxy at baseURL.
func NewProxyClient(baseURL string, client *http.Client) *ProxyClient {
	if baseURL == "" {
		baseURL = defaultYTBaseURL
	}
	if client == nil {
		client = http.DefaultClient
	}

	return &ProxyClient{
		baseURL:    baseURL,
		httpClient: client,
	}
}

// WithAuth forwards the base64 encoded headers JSON on every request.
func (p *ProxyClient) WithAuth(encoded string) *ProxyClient {
	p.authHeaders = encoded
	return p
}

// APIResponse represents a raw API response with status and body.
type APIResponse struct {
	StatusCode int
	Headers    http.Header
	Body       []byte
	IsJSON     bool
	JSONData   any
}

// OK reports whether the proxy answered with a 2xx status.
func (r *APIResponse) OK() bool {
	return r.StatusCode >= 200 && r.StatusCode < 300
}

// Get performs a GET request to the specified path and returns the raw response.
func (p *ProxyClient) Get(ctx context.Context, path string) (*APIResponse, error) {
	return p.do(ctx, http.MethodGet, path, nil)
}

// Post performs a POST request with the given JSON data and returns the raw response.
func (p *ProxyClient) Post(ctx context.Context, path string, data []byte) (*APIResponse, error) {
	return p.do(ctx, http.MethodPost, path, data)
}

// Health calls GET /health and returns the decoded body.
func (p *ProxyClient) Health(ctx context.Context) (any, error) {
	resp, err := p.Get(ctx, "/health")
	if err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, fmt.Errorf("proxy health check returned status %d", resp.StatusCode)
	}
	return resp.JSONData, nil
}

func (p *ProxyClient) do(ctx context.Context, method, path string, data []byte) (*APIResponse, error) {
	var body io.Reader
	if data != nil {
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, p.baseURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}

	if data != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if p.authHeaders != "" {
		req.Header.Set("X-Auth-Headers", p.authHeaders)
	}

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read response: %w", err)
	}

	apiResp := &APIResponse{
		StatusCode: resp.StatusCode,
		Headers:    resp.Header,
		Body:       b,
	}

	var jsonData any
	if err := json.Unmarshal(b, &jsonData); err == nil {
		apiResp.IsJSON = true
		apiResp.JSONData = jsonData
	}

	return apiResp, nil
}
