package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"transitview.dev/metrics/fetch"
	"transitview.dev/metrics/testutil"
)

func TestHTTPGet(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if r.URL.Path == "/missing" {
			w.WriteHeader(http.StatusNotFound)
			w.Write([]byte(`{"errors": [{"message": "no such object"}]}`))
			return
		}
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	body, err := fetch.HTTPGet(context.Background(), server.URL+"/ok", fetch.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, "payload", string(body))

	// Non-2xx surfaces as a StatusError carrying the body.
	_, err = fetch.HTTPGet(context.Background(), server.URL+"/missing", fetch.GetOptions{})
	require.Error(t, err)
	var statusErr *fetch.StatusError
	require.ErrorAs(t, err, &statusErr)
	assert.Equal(t, http.StatusNotFound, statusErr.StatusCode)
	assert.Contains(t, string(statusErr.Body), "no such object")

	assert.Equal(t, 2, hits)
}

func TestHTTPGetMaxSize(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(make([]byte, 1000))
	}))
	defer server.Close()

	body, err := fetch.HTTPGet(context.Background(), server.URL, fetch.GetOptions{MaxSize: 100})
	require.NoError(t, err)
	assert.Len(t, body, 100)
}

func TestMemoryFetcherCaches(t *testing.T) {
	hits := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.Write([]byte("payload"))
	}))
	defer server.Close()

	now := time.Now()
	f := fetch.NewMemoryFetcher()
	f.TimeNow = func() time.Time { return now }

	options := fetch.GetOptions{Cache: true, CacheTTL: time.Minute}

	_, err := f.Get(context.Background(), server.URL, options)
	require.NoError(t, err)
	_, err = f.Get(context.Background(), server.URL, options)
	require.NoError(t, err)
	assert.Equal(t, 1, hits)

	// Expired entries are refetched.
	now = now.Add(2 * time.Minute)
	_, err = f.Get(context.Background(), server.URL, options)
	require.NoError(t, err)
	assert.Equal(t, 2, hits)

	// Uncached gets always hit the server.
	_, err = f.Get(context.Background(), server.URL, fetch.GetOptions{})
	require.NoError(t, err)
	assert.Equal(t, 3, hits)
}

func TestMaybeGunzip(t *testing.T) {
	payload := []byte(`{"arrivals": []}`)

	decoded, err := fetch.MaybeGunzip(testutil.Gzip(t, payload))
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)

	// Plain payloads pass through untouched.
	decoded, err = fetch.MaybeGunzip(payload)
	require.NoError(t, err)
	assert.Equal(t, payload, decoded)

	// Truncated gzip data errors rather than returning garbage.
	_, err = fetch.MaybeGunzip([]byte{0x1f, 0x8b})
	assert.Error(t, err)
}
