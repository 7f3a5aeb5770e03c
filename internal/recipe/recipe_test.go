package recipe

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sakif/grocery-tracker/internal/apperror"
)

func TestFindByIngredients_RelaysSuccess(t *testing.T) {
	var gotPath, gotIngredients, gotKey string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotIngredients = r.URL.Query().Get("ingredients")
		gotKey = r.URL.Query().Get("apiKey")
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`[{"id":641803,"title":"Easy Egg Fried Rice"}]`))
	}))
	defer server.Close()

	c := NewClient("test-key", WithBaseURL(server.URL+"/"))

	resp, err := c.FindByIngredients(context.Background(), "eggs,rice & peas")
	require.NoError(t, err)

	assert.Equal(t, "/recipes/findByIngredients", gotPath)
	assert.Equal(t, "eggs,rice & peas", gotIngredients, "query must be escaped and decoded intact")
	assert.Equal(t, "test-key", gotKey)

	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "application/json", resp.ContentType)
	assert.JSONEq(t, `[{"id":641803,"title":"Easy Egg Fried Rice"}]`, string(resp.Body))
}

func TestFindByIngredients_RelaysUpstreamErrorVerbatim(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusPaymentRequired)
		w.Write([]byte(`{"status":"failure","code":402,"message":"daily points limit reached"}`))
	}))
	defer server.Close()

	c := NewClient("", WithBaseURL(server.URL))

	resp, err := c.FindByIngredients(context.Background(), "eggs")
	require.NoError(t, err, "an upstream HTTP error is a response, not a transport failure")
	assert.Equal(t, http.StatusPaymentRequired, resp.StatusCode)
	assert.Contains(t, string(resp.Body), "daily points limit")
}

func TestFindByIngredients_DefaultContentType(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header()["Content-Type"] = nil
		w.WriteHeader(http.StatusNoContent)
	}))
	defer server.Close()

	resp, err := NewClient("k", WithBaseURL(server.URL)).FindByIngredients(context.Background(), "x")
	require.NoError(t, err)
	assert.Equal(t, "application/json", resp.ContentType)
}

func TestFindByIngredients_TransportFailure(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := server.URL
	server.Close() // nothing listening any more

	c := NewClient("secret-key", WithBaseURL(url))

	_, err := c.FindByIngredients(context.Background(), "eggs")
	require.Error(t, err)
	assert.ErrorIs(t, err, apperror.ErrUpstream)
	assert.NotContains(t, err.Error(), "secret-key")
}

func TestFindByIngredients_Timeout(t *testing.T) {
	release := make(chan struct{})
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer server.Close()
	defer close(release)

	c := NewClient("k", WithBaseURL(server.URL), WithTimeout(20*time.Millisecond))

	_, err := c.FindByIngredients(context.Background(), "eggs")
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}

func TestWithHTTPClient(t *testing.T) {
	hc := &http.Client{}
	c := NewClient("k", WithHTTPClient(hc))
	assert.Same(t, hc, c.httpClient)
}

func TestWithTimeout_LeavesSharedClientAlone(t *testing.T) {
	shared := &http.Client{Timeout: time.Minute}
	c := NewClient("k", WithHTTPClient(shared), WithTimeout(3*time.Second))

	assert.Equal(t, time.Minute, shared.Timeout)
	assert.NotSame(t, shared, c.httpClient)
	assert.Equal(t, 3*time.Second, c.httpClient.Timeout)
}

func TestFindByIngredients_OversizedBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write(bytes.Repeat([]byte("a"), maxBodyBytes+1))
	}))
	defer server.Close()

	_, err := NewClient("k", WithBaseURL(server.URL)).FindByIngredients(context.Background(), "eggs")
	assert.ErrorIs(t, err, apperror.ErrUpstream)
}

func TestFindByIngredients_BodyAtLimit(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(bytes.Repeat([]byte("a"), maxBodyBytes))
	}))
	defer server.Close()

	resp, err := NewClient("k", WithBaseURL(server.URL)).FindByIngredients(context.Background(), "eggs")
	require.NoError(t, err)
	assert.Len(t, resp.Body, maxBodyBytes)
}
