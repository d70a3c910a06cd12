// Package render provides a client for the external image-synthesis service
// that turns a star catalog into a pixel image.
package render

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/starfield-lab/astrobench/internal/model"
)

// Client defines the image-synthesis operations.
type Client interface {
	// Render synthesizes a pixel image from a scene catalog. The same
	// request must always yield the same image, so cached and fresh scenes
	// stay comparable.
	Render(ctx context.Context, req RenderRequest) (*RenderResponse, error)
}

// RenderRequest describes one scene to synthesize.
type RenderRequest struct {
	Scene      string            `json:"scene"`
	Seed       uint64            `json:"seed"`
	ImageSize  int               `json:"image_size"`
	NoiseSigma float64           `json:"noise_sigma"`
	PSFFWHM    float64           `json:"psf_fwhm"`
	Catalog    model.SourceTable `json:"catalog"`
}

// RenderResponse is the parsed synthesis-service response.
type RenderResponse struct {
	ImageID string `json:"image_id"`
	Pixels  []byte `json:"pixels"`
}

// Option configures the render client.
type Option func(*httpClient)

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(hc *http.Client) Option {
	return func(c *httpClient) {
		c.http = hc
	}
}

// WithRateLimit throttles requests to rps per second.
func WithRateLimit(rps float64) Option {
	return func(c *httpClient) {
		c.limiter = rate.NewLimiter(rate.Limit(rps), 1)
	}
}

type httpClient struct {
	baseURL string
	http    *http.Client
	limiter *rate.Limiter
}

// NewClient creates a new synthesis-service client.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 120 * time.Second,
			Transport: &http.Transport{
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

func (c *httpClient) Render(ctx context.Context, renderReq RenderRequest) (*RenderResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "render: rate limit wait")
		}
	}

	payload, err := json.Marshal(renderReq)
	if err != nil {
		return nil, eris.Wrap(err, "render: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/render", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "render: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "render: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "render: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("render: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed RenderResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "render: decode response")
	}
	if parsed.ImageID == "" {
		return nil, eris.New("render: response missing image id")
	}

	return &parsed, nil
}
