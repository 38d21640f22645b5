package gateway

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"

	"github.com/gofri/go-github-ratelimit/github_ratelimit"
)

// secondaryLimitHeader marks responses recognised as a secondary rate limit.
const secondaryLimitHeader = "X-Stats-Sync-Secondary-Limit"

// secondaryLimitTransport flags secondary rate limit responses and passes them
// through unchanged. It never retries or waits.
type secondaryLimitTransport struct {
	base http.RoundTripper
}

func (t *secondaryLimitTransport) RoundTrip(req *http.Request) (*http.Response, error) {
	resp, err := t.base.RoundTrip(req)
	if err != nil {
		return resp, err
	}
	if resp.StatusCode != http.StatusForbidden && resp.StatusCode != http.StatusTooManyRequests {
		return resp, nil
	}
	// A zero remaining count is the primary limit.
	if resp.Header.Get(github_ratelimit.HeaderXRateLimitRemaining) == "0" {
		return resp, nil
	}

	raw, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("failed to read rate limit response: %w", err)
	}
	resp.Body = io.NopCloser(bytes.NewReader(raw))

	var body github_ratelimit.SecondaryRateLimitBody
	if json.Unmarshal(raw, &body) == nil && body.IsSecondaryRateLimit() {
		resp.Header.Set(secondaryLimitHeader, "true")
	}
	return resp, nil
}

func isSecondaryLimited(resp *http.Response) bool {
	return resp != nil && resp.Header.Get(secondaryLimitHeader) != ""
}
