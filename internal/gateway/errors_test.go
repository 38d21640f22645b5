package gateway

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestAPIError_Error(t *testing.T) {
	withStatus := &APIError{Kind: KindNotFound, Op: "get repository a/b", Status: 404, Err: errors.New("Not Found")}
	assert.Equal(t, "get repository a/b: not found (status 404): Not Found", withStatus.Error())

	noStatus := &APIError{Kind: KindNetwork, Op: "fetch user a", Err: errors.New("dial tcp")}
	assert.Equal(t, "fetch user a: network error: dial tcp", noStatus.Error())
}

func TestKindOf(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("failed to fetch repositories: %w", &APIError{Kind: KindRateLimited, Err: cause})

	assert.Equal(t, KindRateLimited, KindOf(wrapped))
	assert.ErrorIs(t, wrapped, cause)
	assert.Equal(t, KindUnexpected, KindOf(errors.New("plain")))
}
