package gateway

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strconv"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const secondaryLimitBody = `{"message":"You have exceeded a secondary rate limit","documentation_url":"https://docs.github.com/rest/overview/rate-limits-for-the-rest-api#secondary-rate-limits"}`

func TestNewGitHubGateway_SecondaryRateLimitIsNotRetried(t *testing.T) {
	var calls atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		w.Header().Set("X-RateLimit-Reset", strconv.FormatInt(time.Now().Add(-time.Minute).Unix(), 10))
		w.WriteHeader(http.StatusForbidden)
		fmt.Fprint(w, secondaryLimitBody)
	}))
	defer server.Close()

	gateway, err := NewGitHubGateway(Options{Token: "test-token", BaseURL: server.URL, Timeout: 5 * time.Second},
		slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, err)

	repo, err := gateway.FetchRepository(context.Background(), "volcengine", "verl")

	require.Error(t, err)
	assert.Nil(t, repo)
	assert.Equal(t, KindRateLimited, KindOf(err))
	assert.Equal(t, int32(1), calls.Load(), "a rate limited request is sent exactly once")
}

func TestSecondaryLimitTransport(t *testing.T) {
	testCases := []struct {
		name         string
		status       int
		remaining    string
		body         string
		expectMarked bool
	}{
		{name: "secondary limit on 403", status: http.StatusForbidden, body: secondaryLimitBody, expectMarked: true},
		{name: "secondary limit on 429", status: http.StatusTooManyRequests, body: secondaryLimitBody, expectMarked: true},
		{name: "plain forbidden", status: http.StatusForbidden, body: `{"message":"Resource not accessible by integration"}`},
		{name: "primary limit", status: http.StatusForbidden, remaining: "0", body: secondaryLimitBody},
		{name: "success", status: http.StatusOK, body: secondaryLimitBody},
		{name: "non-json body", status: http.StatusForbidden, body: `<html>forbidden</html>`},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				if tc.remaining != "" {
					w.Header().Set("X-RateLimit-Remaining", tc.remaining)
				}
				w.WriteHeader(tc.status)
				fmt.Fprint(w, tc.body)
			}))
			defer server.Close()

			client := &http.Client{Transport: &secondaryLimitTransport{base: http.DefaultTransport}}
			resp, err := client.Get(server.URL)
			require.NoError(t, err)
			defer resp.Body.Close()

			assert.Equal(t, tc.expectMarked, isSecondaryLimited(resp))
			assert.Equal(t, tc.status, resp.StatusCode)
			body, err := io.ReadAll(resp.Body)
			require.NoError(t, err)
			assert.Equal(t, tc.body, string(body), "the body stays readable")
		})
	}
}

func TestGitHubGateway_LogsRemainingQuota(t *testing.T) {
	gateway, server := setupTestGateway(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("X-RateLimit-Remaining", "4321")
		fmt.Fprint(w, `{"login":"alice"}`)
	}))
	defer server.Close()
	var logs bytes.Buffer
	gateway.logger = slog.New(slog.NewTextHandler(&logs, nil))

	_, err := gateway.FetchUser(context.Background(), "alice")

	require.NoError(t, err)
	assert.Contains(t, logs.String(), "level=INFO")
	assert.Contains(t, logs.String(), "remaining=4321")
}
