package render

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/starfield-lab/astrobench/internal/model"
)

func TestRender_Success(t *testing.T) {
	var gotPath string
	var gotReq RenderRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		require.NoError(t, json.NewDecoder(r.Body).Decode(&gotReq))
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"image_id":"img-001","pixels":"cGl4ZWxz"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	resp, err := c.Render(context.Background(), RenderRequest{
		Scene:     "grid_9",
		Seed:      42,
		ImageSize: 256,
		Catalog:   model.SourceTable{{X: 10, Y: 20, Flux: 1000}},
	})
	require.NoError(t, err)

	assert.Equal(t, "/v1/render", gotPath)
	assert.Equal(t, "grid_9", gotReq.Scene)
	assert.Equal(t, uint64(42), gotReq.Seed)
	assert.Len(t, gotReq.Catalog, 1)
	assert.Equal(t, "img-001", resp.ImageID)
	assert.Equal(t, []byte("pixels"), resp.Pixels)
}

func TestRender_MissingImageID(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"pixels":"cGl4ZWxz"}`)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Render(context.Background(), RenderRequest{Scene: "grid_9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing image id")
}

func TestRender_ServerError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "synthesis backend unavailable", http.StatusBadGateway)
	}))
	defer srv.Close()

	c := NewClient(srv.URL)
	_, err := c.Render(context.Background(), RenderRequest{Scene: "grid_9"})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unexpected status 502")
}

func TestRender_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = io.WriteString(w, `{"image_id":"img-001"}`)
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewClient(srv.URL)
	_, err := c.Render(ctx, RenderRequest{Scene: "grid_9"})
	require.Error(t, err)
}
