package httpclient

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultStrategy_ClassifiesStatusCodes(t *testing.T) {
	assert.Equal(t, SmartRetry, DefaultStrategy(http.StatusTooManyRequests))
	assert.Equal(t, SmartRetry, DefaultStrategy(http.StatusServiceUnavailable))
	assert.Equal(t, ConservativeRetry, DefaultStrategy(http.StatusInternalServerError))
	assert.Equal(t, ConservativeRetry, DefaultStrategy(http.StatusBadGateway))
	assert.Equal(t, NoRetry, DefaultStrategy(http.StatusNotFound))
	assert.Equal(t, NoRetry, DefaultStrategy(http.StatusOK))
}

func TestClient_Do_ReturnsImmediatelyOnSuccess(t *testing.T) {
	var hits int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	c := New(WithMaxRetries(3), WithBaseDelay(time.Millisecond))
	req, err := http.NewRequest(http.MethodGet, upstream.URL, nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 1, hits)
}

func TestClient_Do_DoesNotRetryNonRetryableStatus(t *testing.T) {
	var hits int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusBadRequest)
	}))
	defer upstream.Close()

	c := New(WithMaxRetries(3), WithBaseDelay(time.Millisecond))
	req, err := http.NewRequest(http.MethodGet, upstream.URL, nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, 1, hits)
}

func TestClient_Do_RetriesConservativelyThenExhausts(t *testing.T) {
	var hits int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer upstream.Close()

	c := New(WithMaxRetries(2), WithBaseDelay(time.Millisecond), WithMaxDelay(10*time.Millisecond))
	req, err := http.NewRequest(http.MethodGet, upstream.URL, nil)
	require.NoError(t, err)

	_, err = c.Do(req)
	require.Error(t, err)
	var retryErr *RetryableError
	require.ErrorAs(t, err, &retryErr)
	assert.True(t, retryErr.IsRetryable())
	assert.GreaterOrEqual(t, hits, 2)
}

func TestClient_Do_RetriesOnRetryAfterHeader(t *testing.T) {
	var hits int
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits++
		if hits == 1 {
			w.Header().Set("Retry-After", "0")
			w.WriteHeader(http.StatusTooManyRequests)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	c := New(
		WithMaxRetries(2),
		WithBaseDelay(time.Millisecond),
		WithHeaderParser(func(h http.Header) RateLimitInfo {
			return RateLimitInfo{}
		}),
	)
	req, err := http.NewRequest(http.MethodGet, upstream.URL, nil)
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, 2, hits)
}

func TestClient_Do_ReplaysRequestBodyAcrossRetries(t *testing.T) {
	var bodies []string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf := make([]byte, 64)
		n, _ := r.Body.Read(buf)
		bodies = append(bodies, string(buf[:n]))
		if len(bodies) == 1 {
			w.WriteHeader(http.StatusInternalServerError)
			return
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	c := New(WithMaxRetries(2), WithBaseDelay(time.Millisecond))
	req, err := http.NewRequest(http.MethodPost, upstream.URL, strings.NewReader("payload"))
	require.NoError(t, err)

	resp, err := c.Do(req)
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	require.Len(t, bodies, 2)
	assert.Equal(t, "payload", bodies[0])
	assert.Equal(t, "payload", bodies[1])
}

func TestConfigureTLS_LoadsCustomCACertificate(t *testing.T) {
	transport, err := ConfigureTLS(&TLSConfig{InsecureSkipVerify: true})
	require.NoError(t, err)
	assert.True(t, transport.TLSClientConfig.InsecureSkipVerify)
}

func TestConfigureTLS_RejectsUnreadableCAFile(t *testing.T) {
	_, err := ConfigureTLS(&TLSConfig{CACertificate: "/nonexistent/ca.pem"})
	assert.Error(t, err)
}

func TestConfigureTLS_NilConfigReturnsDefaultTransport(t *testing.T) {
	transport, err := ConfigureTLS(nil)
	require.NoError(t, err)
	assert.NotNil(t, transport.TLSClientConfig)
	assert.False(t, transport.TLSClientConfig.InsecureSkipVerify)
}

func TestWithTLSConfig_AppliesTransportToNewClient(t *testing.T) {
	c := New(WithTLSConfig(&TLSConfig{InsecureSkipVerify: true}))
	req, err := http.NewRequest(http.MethodGet, "https://example.invalid", nil)
	require.NoError(t, err)
	_ = req
	assert.NotNil(t, c)
}

func TestRetryableError_ErrorMessageIncludesRetryAfter(t *testing.T) {
	err := &RetryableError{StatusCode: 503, Message: "unavailable", RetryAfter: 2 * time.Second}
	assert.Contains(t, err.Error(), "503")
	assert.Contains(t, err.Error(), "retry after")
}

func TestRetryableError_UnwrapReturnsWrappedError(t *testing.T) {
	wrapped := assert.AnError
	err := &RetryableError{Err: wrapped}
	assert.Equal(t, wrapped, err.Unwrap())
}
