package connection

import (
	"context"
	"crypto/tls"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"time"

	dto "github.com/prometheus/client_model/go"
	"github.com/prometheus/common/expfmt"

	"github.com/yndnr/monitored-app/internal/infra/buildinfo"
)

// DefaultTimeout bounds a single request made by the CLI.
const DefaultTimeout = 30 * time.Second

// HTTPClient provides HTTP communication with the server.
type HTTPClient struct {
	baseURL string
	client  *http.Client
}

// ClientOption configures an HTTPClient.
type ClientOption func(*http.Client)

// WithTLSConfig sets the TLS configuration used for https servers.
func WithTLSConfig(cfg *tls.Config) ClientOption {
	return func(c *http.Client) {
		t := http.DefaultTransport.(*http.Transport).Clone()
		t.TLSClientConfig = cfg
		c.Transport = t
	}
}

// NewHTTPClient creates a client for server, which may omit the scheme.
func NewHTTPClient(server string, timeout time.Duration, opts ...ClientOption) *HTTPClient {
	baseURL := strings.TrimRight(server, "/")
	if !strings.HasPrefix(baseURL, "http://") && !strings.HasPrefix(baseURL, "https://") {
		baseURL = "http://" + baseURL
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	client := &http.Client{Timeout: timeout}
	for _, opt := range opts {
		opt(client)
	}

	return &HTTPClient{
		baseURL: baseURL,
		client:  client,
	}
}

// Get performs a GET request.
func (c *HTTPClient) Get(ctx context.Context, path string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("User-Agent", "monitored-cli/"+buildinfo.Version)
	return c.client.Do(req)
}

// BaseURL returns the base URL of the client.
func (c *HTTPClient) BaseURL() string {
	return c.baseURL
}

// Metrics fetches /metrics and returns the families sorted by name.
func (c *HTTPClient) Metrics(ctx context.Context) ([]*dto.MetricFamily, error) {
	resp, err := c.Get(ctx, "/metrics")
	if err != nil {
		return nil, fmt.Errorf("fetch metrics: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("fetch metrics: status %d", resp.StatusCode)
	}
	return ParseMetrics(resp.Body)
}

// ParseMetrics decodes a text exposition.
func ParseMetrics(r io.Reader) ([]*dto.MetricFamily, error) {
	dec := expfmt.NewDecoder(r, expfmt.NewFormat(expfmt.TypeTextPlain))

	var families []*dto.MetricFamily
	for {
		mf := &dto.MetricFamily{}
		if err := dec.Decode(mf); err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return nil, fmt.Errorf("parse metrics: %w", err)
		}
		families = append(families, mf)
	}

	sort.Slice(families, func(i, j int) bool {
		return families[i].GetName() < families[j].GetName()
	})
	return families, nil
}

// ParseResponse parses a JSON response body into the target struct.
func ParseResponse(resp *http.Response, target any) error {
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		var errResp struct {
			Code    string `json:"code"`
			Message string `json:"message"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&errResp); err == nil && errResp.Message != "" {
			return fmt.Errorf("[%s] %s", errResp.Code, errResp.Message)
		}
		return fmt.Errorf("request failed with status %d", resp.StatusCode)
	}

	if target != nil {
		if err := json.NewDecoder(resp.Body).Decode(target); err != nil {
			return fmt.Errorf("parse response: %w", err)
		}
	}

	return nil
}
