package authgate

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// RelayClient forwards authorized payloads to the hidden downstream webhook.
// Clients of the gateway never learn the target address; they see only the
// relay's status code. Each forwarded call carries a short-lived HMAC-signed
// assertion so the downstream can verify the call originated here.
type RelayClient struct {
	httpClient *http.Client
	targetURL  string
	signingKey []byte
}

// relayAssertionTTL bounds how long a captured relay assertion can be
// replayed against the downstream.
const relayAssertionTTL = 2 * time.Minute

// NewRelayClient creates a relay client for the given downstream webhook
// URL. signingKey must be at least 32 bytes.
func NewRelayClient(targetURL string, signingKey string, timeout time.Duration) (*RelayClient, error) {
	if targetURL == "" {
		return nil, fmt.Errorf("target URL cannot be empty")
	}
	if len(signingKey) < 32 {
		return nil, fmt.Errorf("signing key must be at least 32 bytes")
	}
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	return &RelayClient{
		httpClient: &http.Client{Timeout: timeout},
		targetURL:  targetURL,
		signingKey: []byte(signingKey),
	}, nil
}

// RelayResult is the downstream's answer to a forwarded payload.
type RelayResult struct {
	StatusCode int
	Body       []byte
	RequestID  string
}

// Forward posts the payload to the downstream webhook on behalf of the
// given subject. The request carries a fresh X-Request-ID and a signed
// gateway assertion; client-supplied headers are never propagated.
func (r *RelayClient) Forward(ctx context.Context, subjectID string, payload []byte) (*RelayResult, error) {
	requestID := uuid.NewString()

	assertion, err := r.signAssertion(subjectID, requestID)
	if err != nil {
		return nil, fmt.Errorf("failed to sign relay assertion: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.targetURL, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to build relay request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	req.Header.Set("Authorization", "Bearer "+assertion)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("relay request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return nil, fmt.Errorf("failed to read relay response: %w", err)
	}

	return &RelayResult{
		StatusCode: resp.StatusCode,
		Body:       body,
		RequestID:  requestID,
	}, nil
}

// signAssertion mints the short-lived gateway-identity token attached to a
// forwarded call.
func (r *RelayClient) signAssertion(subjectID, requestID string) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iss": "authgate",
		"sub": subjectID,
		"jti": requestID,
		"iat": now.Unix(),
		"exp": now.Add(relayAssertionTTL).Unix(),
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(r.signingKey)
}

// VerifyRelayAssertion validates an assertion produced by signAssertion and
// returns its claims. Downstream services embedding this package can use it
// to authenticate calls from the gateway.
func VerifyRelayAssertion(tokenString string, signingKey string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if token.Method.Alg() != jwt.SigningMethodHS256.Alg() {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(signingKey), nil
	})
	if err != nil {
		return nil, fmt.Errorf("invalid relay assertion: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid relay assertion claims")
	}
	if iss, _ := claims["iss"].(string); iss != "authgate" {
		return nil, fmt.Errorf("invalid relay assertion issuer")
	}
	return claims, nil
}
