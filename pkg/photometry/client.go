// Package photometry provides a client for the external detection and
// PSF-fitting pipeline evaluated by the benchmark.
package photometry

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

// Client defines the detection-pipeline operations.
type Client interface {
	// Detect runs source detection and centroid fitting over an image with
	// the given pipeline parameters, returning candidate sources.
	Detect(ctx context.Context, req DetectRequest) (*DetectResponse, error)
}

// DetectRequest carries one image and one parameter configuration.
type DetectRequest struct {
	ImageID string             `json:"image_id"`
	Pixels  []byte             `json:"pixels,omitempty"`
	Params  map[string]float64 `json:"params"`
}

// DetectResponse is the parsed pipeline response.
type DetectResponse struct {
	Sources   []DetectedSource `json:"sources"`
	Converged bool             `json:"converged"`
}

// DetectedSource is one fitted source as reported by the pipeline.
type DetectedSource struct {
	X    float64 `json:"x"`
	Y    float64 `json:"y"`
	Flux float64 `json:"flux"`
	Flag string  `json:"flag,omitempty"`
	Size float64 `json:"size,omitempty"`
}

// Table converts the response to the engine's source table form, preserving
// the pipeline's reporting order.
func (r *DetectResponse) Table() model.SourceTable {
	table := make(model.SourceTable, 0, len(r.Sources))
	for _, s := range r.Sources {
		table = append(table, model.Source{X: s.X, Y: s.Y, Flux: s.Flux, Flag: s.Flag, Size: s.Size})
	}
	return table
}

// Option configures the photometry client.
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

// NewClient creates a new detection-pipeline client.
func NewClient(baseURL string, opts ...Option) Client {
	c := &httpClient{
		baseURL: baseURL,
		http: &http.Client{
			Timeout: 300 * time.Second,
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

func (c *httpClient) Detect(ctx context.Context, detectReq DetectRequest) (*DetectResponse, error) {
	if c.limiter != nil {
		if err := c.limiter.Wait(ctx); err != nil {
			return nil, eris.Wrap(err, "photometry: rate limit wait")
		}
	}

	payload, err := json.Marshal(detectReq)
	if err != nil {
		return nil, eris.Wrap(err, "photometry: marshal request")
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/v1/detect", bytes.NewReader(payload))
	if err != nil {
		return nil, eris.Wrap(err, "photometry: create request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, eris.Wrap(err, "photometry: request failed")
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, eris.Wrap(err, "photometry: read response body")
	}
	if resp.StatusCode != http.StatusOK {
		return nil, eris.Errorf("photometry: unexpected status %d: %s", resp.StatusCode, string(body))
	}

	var parsed DetectResponse
	if err := json.Unmarshal(body, &parsed); err != nil {
		return nil, eris.Wrap(err, "photometry: decode response")
	}
	if !parsed.Converged {
		return nil, eris.New("photometry: fit did not converge")
	}

	return &parsed, nil
}
