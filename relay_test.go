package authgate

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRelayClient(t *testing.T) {
	ctx := context.Background()

	t.Run("Forwards Payload With Signed Assertion", func(t *testing.T) {
		var (
			gotBody      []byte
			gotRequestID string
			gotAuth      string
		)
		downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			gotBody, _ = io.ReadAll(r.Body)
			gotRequestID = r.Header.Get("X-Request-ID")
			gotAuth = r.Header.Get("Authorization")
			w.WriteHeader(http.StatusAccepted)
			_, _ = w.Write([]byte(`{"received":true}`))
		}))
		defer downstream.Close()

		relay, err := NewRelayClient(downstream.URL, testSigningKey, 5*time.Second)
		require.NoError(t, err)

		result, err := relay.Forward(ctx, "user123", []byte(`{"event":"ping"}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusAccepted, result.StatusCode)
		assert.JSONEq(t, `{"received":true}`, string(result.Body))
		assert.Equal(t, result.RequestID, gotRequestID)
		assert.JSONEq(t, `{"event":"ping"}`, string(gotBody))

		token, ok := bearerToken(gotAuth)
		require.True(t, ok)
		claims, err := VerifyRelayAssertion(token, testSigningKey)
		require.NoError(t, err)
		assert.Equal(t, "user123", claims["sub"])
		assert.Equal(t, result.RequestID, claims["jti"])
	})

	t.Run("Mirrors Downstream Errors", func(t *testing.T) {
		downstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			http.Error(w, "boom", http.StatusInternalServerError)
		}))
		defer downstream.Close()

		relay, err := NewRelayClient(downstream.URL, testSigningKey, 5*time.Second)
		require.NoError(t, err)

		result, err := relay.Forward(ctx, "user123", []byte(`{}`))
		require.NoError(t, err)
		assert.Equal(t, http.StatusInternalServerError, result.StatusCode)
	})

	t.Run("Unreachable Downstream Is An Error", func(t *testing.T) {
		relay, err := NewRelayClient("http://127.0.0.1:1/hook", testSigningKey, time.Second)
		require.NoError(t, err)

		_, err = relay.Forward(ctx, "user123", []byte(`{}`))
		require.Error(t, err)
	})

	t.Run("Construction Validation", func(t *testing.T) {
		_, err := NewRelayClient("", testSigningKey, time.Second)
		require.Error(t, err)

		_, err = NewRelayClient("http://example.com", "short", time.Second)
		require.Error(t, err)
	})
}

func TestVerifyRelayAssertion(t *testing.T) {
	relay, err := NewRelayClient("http://example.com/hook", testSigningKey, time.Second)
	require.NoError(t, err)

	t.Run("Wrong Key Rejected", func(t *testing.T) {
		assertion, err := relay.signAssertion("user123", "req-1")
		require.NoError(t, err)

		_, err = VerifyRelayAssertion(assertion, "another-signing-key-1234567890ab")
		require.Error(t, err)
	})

	t.Run("Garbage Rejected", func(t *testing.T) {
		_, err := VerifyRelayAssertion("not-a-jwt", testSigningKey)
		require.Error(t, err)
	})
}
