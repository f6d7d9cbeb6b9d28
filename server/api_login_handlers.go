package server

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/go-session/session/v3"

	"github.com/contractdesk/contractdesk/store"
)

// HandleLogin verifies credentials, starts a browser session for the admin
// UI, and returns a bearer token for API clients.
func (s *Server) HandleLogin(c *gin.Context) {
	var payload struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "invalid JSON payload"})
		return
	}
	if strings.TrimSpace(payload.Username) == "" || payload.Password == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid_request", "error_description": "username and password are required"})
		return
	}

	user, err := s.Users.Authenticate(c.Request.Context(), payload.Username, payload.Password)
	if errors.Is(err, store.ErrInvalidCredentials) {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid_credentials"})
		return
	}
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}

	if st, err := session.Start(c.Request.Context(), c.Writer, c.Request); err == nil {
		st.Set(ctxUserID, user.ID)
		_ = st.Save()
	}

	token, err := s.issueToken(user)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "server_error"})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"access_token": token,
		"token_type":   "Bearer",
		"expires_in":   int(s.tokenTTL.Seconds()),
		"user_id":      user.ID,
	})
}
