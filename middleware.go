package authgate

import (
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// contextKeySession is the gin context key under which BearerAuth stores
// the authenticated session.
const contextKeySession = "authgate.session"

// CORS returns a middleware that allows cross-origin requests from the
// listed origins and short-circuits preflight requests.
func CORS(allowedOrigins []string) gin.HandlerFunc {
	originsSet := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		originsSet[o] = struct{}{}
	}

	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")
		if _, ok := originsSet[origin]; ok {
			c.Header("Access-Control-Allow-Origin", origin)
			c.Header("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
			c.Header("Access-Control-Allow-Headers", "Authorization, Content-Type, X-API-Key")
			c.Header("Access-Control-Max-Age", "86400")
		}

		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// APIKeyAuth returns a middleware that admits requests only when the
// X-API-Key header matches one of the configured keys. Comparison is
// constant-time per key.
func APIKeyAuth(apiKeys []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		presented := c.GetHeader("X-API-Key")
		if presented == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing API key"})
			return
		}

		for _, key := range apiKeys {
			if len(key) == len(presented) &&
				subtle.ConstantTimeCompare([]byte(key), []byte(presented)) == 1 {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid API key"})
	}
}

// BearerAuth returns a middleware that extracts the bearer token, runs it
// through the authentication gate, and stores the live session in the
// request context. Unknown, revoked, and expired tokens are rejected with
// 401 and the gate's outcome as the reason.
func BearerAuth(manager SessionManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c.GetHeader("Authorization"))
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}

		result, err := manager.Check(c.Request.Context(), token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "token check failed"})
			return
		}
		if result.Status != StatusValid {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "reason": string(result.Status)})
			return
		}

		c.Set(contextKeySession, result.Session)
		c.Next()
	}
}

// sessionFrom returns the session stored by BearerAuth.
func sessionFrom(c *gin.Context) (*Session, bool) {
	v, ok := c.Get(contextKeySession)
	if !ok {
		return nil, false
	}
	session, ok := v.(*Session)
	return session, ok
}

// bearerToken extracts the credential from an Authorization header value.
func bearerToken(header string) (string, bool) {
	const prefix = "Bearer "
	if len(header) <= len(prefix) || !strings.EqualFold(header[:len(prefix)], prefix) {
		return "", false
	}
	token := strings.TrimSpace(header[len(prefix):])
	return token, token != ""
}
