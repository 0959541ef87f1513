package photo

import (
	"context"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPickCoverEmptyResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/search/photos", r.URL.Path)
		assert.Equal(t, "beach holiday", r.URL.Query().Get("query"))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total":0,"results":[]}`))
	}))
	defer srv.Close()

	client := newClientForTest(srv.URL, slog.Default())
	cover, err := client.PickCover(context.Background(), "beach holiday")
	require.NoError(t, err)
	assert.Nil(t, cover)
}

func TestPickCoverReturnsURLFromResultSet(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"total":3,"results":[
			{"urls":{"regular":"https://images.example/a.jpg"}},
			{"urls":{"regular":"https://images.example/b.jpg"}},
			{"urls":{"regular":"https://images.example/c.jpg"}}
		]}`))
	}))
	defer srv.Close()

	client := newClientForTest(srv.URL, slog.Default())

	// The pick is random; every draw must still come from the result set.
	want := map[string]bool{
		"https://images.example/a.jpg": true,
		"https://images.example/b.jpg": true,
		"https://images.example/c.jpg": true,
	}
	for i := 0; i < 20; i++ {
		cover, err := client.PickCover(context.Background(), "tokyo")
		require.NoError(t, err)
		require.NotNil(t, cover)
		assert.True(t, want[*cover], "picked URL %q not in result set", *cover)
	}
}

func TestPickCoverUpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
	}))
	defer srv.Close()

	client := newClientForTest(srv.URL, slog.Default())
	cover, err := client.PickCover(context.Background(), "paris")
	assert.Error(t, err)
	assert.Nil(t, cover)
}
