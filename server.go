package authgate

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// Server is the gateway's HTTP surface. It wires the session manager and
// the relay client behind gin routes; all token semantics live in the
// manager, the server only translates outcomes to status codes.
type Server struct {
	router  *gin.Engine
	config  Config
	manager SessionManager
	relay   *RelayClient
	logger  *slog.Logger
}

// NewServer creates a gateway server over the given manager and relay
// client.
func NewServer(config Config, manager SessionManager, relay *RelayClient, logger *slog.Logger) (*Server, error) {
	if manager == nil {
		return nil, fmt.Errorf("session manager cannot be nil")
	}
	if relay == nil {
		return nil, fmt.Errorf("relay client cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.Logger())
	router.Use(CORS(config.AllowedOrigins))
	if config.RateLimit > 0 {
		router.Use(RateLimit(NewRateLimiter(config.RateLimit, config.RateWindow)))
	}

	s := &Server{
		router:  router,
		config:  config,
		manager: manager,
		relay:   relay,
		logger:  logger,
	}
	s.setupRoutes()

	return s, nil
}

// Run starts the HTTP server on the configured listen address.
func (s *Server) Run() error {
	return s.router.Run(s.config.ListenAddr)
}

// Handler exposes the router for tests and embedding.
func (s *Server) Handler() http.Handler {
	return s.router
}

// setupRoutes configures the API routing.
func (s *Server) setupRoutes() {
	s.router.GET("/healthz", s.handleHealth)

	auth := s.router.Group("/auth")
	{
		// Issuance is gated by API key, not by an existing session.
		auth.POST("/token", APIKeyAuth(s.config.APIKeys), s.handleIssue)

		bearer := auth.Group("", BearerAuth(s.manager))
		{
			bearer.POST("/refresh", s.handleRefresh)
			bearer.POST("/revoke", s.handleRevoke)
			bearer.GET("/session", s.handleSession)
		}
	}

	s.router.POST("/relay", BearerAuth(s.manager), s.handleRelay)
}

// issueRequest is the body of POST /auth/token.
type issueRequest struct {
	SubjectID string `json:"subject_id"`
	DeviceTag string `json:"device_tag"`
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// handleIssue creates a new session for the subject named in the request
// body. The API-key check has already passed.
func (s *Server) handleIssue(c *gin.Context) {
	var req issueRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	resp, err := s.manager.Issue(c.Request.Context(), req.SubjectID, req.DeviceTag)
	if errors.Is(err, ErrEmptySubject) {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	if err != nil {
		s.logger.Error("session issuance failed", "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to issue token"})
		return
	}

	c.JSON(http.StatusCreated, resp)
}

// handleRefresh revokes the presented token and returns its replacement.
func (s *Server) handleRefresh(c *gin.Context) {
	token, _ := bearerToken(c.GetHeader("Authorization"))

	resp, err := s.manager.Refresh(c.Request.Context(), token)
	if err != nil {
		s.denyOrFail(c, err, "failed to refresh token")
		return
	}

	c.JSON(http.StatusOK, resp)
}

// handleRevoke terminates the presented token's session.
func (s *Server) handleRevoke(c *gin.Context) {
	token, _ := bearerToken(c.GetHeader("Authorization"))

	if err := s.manager.Revoke(c.Request.Context(), token); err != nil {
		s.denyOrFail(c, err, "failed to revoke token")
		return
	}

	c.Status(http.StatusNoContent)
}

// handleSession returns the authenticated session's record.
func (s *Server) handleSession(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}
	c.JSON(http.StatusOK, session)
}

// handleRelay forwards the request payload to the hidden downstream webhook
// and mirrors its status code back to the client.
func (s *Server) handleRelay(c *gin.Context) {
	session, ok := sessionFrom(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "no session"})
		return
	}

	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil || len(payload) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "missing payload"})
		return
	}

	result, err := s.relay.Forward(c.Request.Context(), session.SubjectID, payload)
	if err != nil {
		s.logger.Error("relay failed", "subject_id", session.SubjectID, "error", err)
		c.JSON(http.StatusBadGateway, gin.H{"error": "downstream unavailable"})
		return
	}

	c.Header("X-Request-ID", result.RequestID)
	c.Data(result.StatusCode, "application/json", result.Body)
}

// denyOrFail maps lifecycle errors to a 401 denial and anything else to a
// 500.
func (s *Server) denyOrFail(c *gin.Context, err error, message string) {
	switch {
	case errors.Is(err, ErrSessionRevoked):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "reason": string(StatusRevoked)})
	case errors.Is(err, ErrSessionExpired):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "reason": string(StatusExpired)})
	case errors.Is(err, ErrSessionNotFound):
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token", "reason": string(StatusUnknown)})
	default:
		s.logger.Error(message, "error", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": message})
	}
}
