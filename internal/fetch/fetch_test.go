package fetch_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonesrussell/scamintel/internal/domain"
	"github.com/jonesrussell/scamintel/internal/fetch"
)

func TestFetch_Success(t *testing.T) {
	var gotUA, gotAccept string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotUA = r.Header.Get("User-Agent")
		gotAccept = r.Header.Get("Accept")
		_, _ = w.Write([]byte("<html><body>hello</body></html>"))
	}))
	defer srv.Close()

	c := fetch.NewClient(5*time.Second, 1<<20)

	res, err := c.Fetch(context.Background(), srv.URL, "test-agent/1.0")
	require.NoError(t, err)

	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.Equal(t, "<html><body>hello</body></html>", string(res.Body))
	assert.Equal(t, "test-agent/1.0", gotUA)
	assert.Contains(t, gotAccept, "text/html")
}

func TestFetch_HTTPErrorStatuses(t *testing.T) {
	tests := []struct {
		status        int
		wantRetryable bool
	}{
		{http.StatusNotFound, false},
		{http.StatusForbidden, false},
		{http.StatusGone, false},
		{http.StatusTooManyRequests, true},
		{http.StatusInternalServerError, true},
		{http.StatusServiceUnavailable, true},
	}

	for _, tt := range tests {
		t.Run(http.StatusText(tt.status), func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(tt.status)
			}))
			defer srv.Close()

			c := fetch.NewClient(5*time.Second, 1<<20)

			res, err := c.Fetch(context.Background(), srv.URL, "")
			assert.Nil(t, res)
			assert.ErrorIs(t, err, domain.ErrFetch)

			fe, ok := fetch.AsError(err)
			require.True(t, ok)
			assert.Equal(t, tt.status, fe.StatusCode)
			assert.Equal(t, tt.wantRetryable, fe.Retryable())
		})
	}
}

func TestFetch_TransportFailureIsRetryable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	srv.Close() // refuse connections

	c := fetch.NewClient(time.Second, 1<<20)

	_, err := c.Fetch(context.Background(), srv.URL, "")
	require.Error(t, err)
	assert.ErrorIs(t, err, domain.ErrFetch)

	fe, ok := fetch.AsError(err)
	require.True(t, ok)
	assert.Zero(t, fe.StatusCode)
	assert.True(t, fe.Retryable())
}

func TestFetch_BodyCapped(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(strings.Repeat("x", 4096)))
	}))
	defer srv.Close()

	c := fetch.NewClient(5*time.Second, 1024)

	res, err := c.Fetch(context.Background(), srv.URL, "")
	require.NoError(t, err)

	assert.Len(t, res.Body, 1024)
}

func TestFetch_ContextCancelled(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		<-r.Context().Done()
	}))
	defer srv.Close()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := fetch.NewClient(5*time.Second, 1<<20)

	_, err := c.Fetch(ctx, srv.URL, "")
	assert.ErrorIs(t, err, domain.ErrFetch)
}

func TestFetch_InvalidURL(t *testing.T) {
	c := fetch.NewClient(time.Second, 1<<20)

	_, err := c.Fetch(context.Background(), "http://bad url with spaces", "")
	assert.ErrorIs(t, err, domain.ErrFetch)
}
