package providers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/sgr-genai/orchestrator/llm"
	"github.com/stretchr/testify/assert"
)

func TestMapHTTPError_ClassifiesStatusCodes(t *testing.T) {
	cases := []struct {
		status      int
		wantCode    llm.ErrorCode
		wantRetry   bool
	}{
		{http.StatusNotFound, llm.ErrModelNotFound, false},
		{http.StatusUnauthorized, llm.ErrUnauthorized, false},
		{http.StatusTooManyRequests, llm.ErrRateLimited, true},
		{http.StatusInternalServerError, llm.ErrUpstreamUnavailable, true},
		{http.StatusServiceUnavailable, llm.ErrUpstreamUnavailable, true},
		{http.StatusRequestTimeout, llm.ErrUpstreamTimeout, true},
		{http.StatusTeapot, llm.ErrUpstreamError, false},
	}

	for _, tc := range cases {
		err := MapHTTPError(tc.status, "boom", "testprovider")
		assert.Equal(t, tc.wantCode, err.Code, "status %d", tc.status)
		assert.Equal(t, tc.wantRetry, err.Retryable, "status %d", tc.status)
		assert.Equal(t, "testprovider", err.Provider)
	}
}

func TestReadErrorMessage_PrefersJSONErrorField(t *testing.T) {
	body := strings.NewReader(`{"error": {"message": "invalid request"}}`)
	assert.Equal(t, "invalid request", ReadErrorMessage(body))
}

func TestReadErrorMessage_FallsBackToRawBody(t *testing.T) {
	body := strings.NewReader("plain text failure")
	assert.Equal(t, "plain text failure", ReadErrorMessage(body))
}
