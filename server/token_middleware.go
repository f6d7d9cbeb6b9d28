package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/go-session/session/v3"

	"github.com/contractdesk/contractdesk/models"
)

// Context key under which the authenticated user id is stored.
const ctxUserID = "user_id"

// issueToken signs a short-lived HS256 access token for the user.
func (s *Server) issueToken(u *models.User) (string, error) {
	if len(s.jwtSecret) == 0 {
		return "", ErrJWTSecretNotSet
	}
	now := time.Now()
	claims := jwt.MapClaims{
		"sub": u.ID,
		"usr": u.Username,
		"iat": now.Unix(),
		"exp": now.Add(s.tokenTTL).Unix(),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(s.jwtSecret)
}

// TokenMiddleware authenticates the request and sets user_id in the gin
// context. Bearer JWTs are preferred; a browser session from the admin UI
// login is accepted as fallback.
func (s *Server) TokenMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if userID := s.userFromBearer(c); userID != "" {
			c.Set(ctxUserID, userID)
			c.Next()
			return
		}
		if userID := s.userFromSession(c); userID != "" {
			c.Set(ctxUserID, userID)
			c.Next()
			return
		}
		c.JSON(http.StatusUnauthorized, gin.H{
			"error":             "unauthorized",
			"error_description": "missing or invalid credentials",
		})
		c.Abort()
	}
}

func (s *Server) userFromBearer(c *gin.Context) string {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.Split(authHeader, " ")
	if len(parts) != 2 || parts[0] != "Bearer" {
		return ""
	}
	token, err := jwt.Parse(parts[1], func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, jwt.ErrTokenSignatureInvalid
		}
		return s.jwtSecret, nil
	})
	if err != nil || !token.Valid {
		return ""
	}
	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return ""
	}
	sub, _ := claims["sub"].(string)
	return sub
}

func (s *Server) userFromSession(c *gin.Context) string {
	st, err := session.Start(c.Request.Context(), c.Writer, c.Request)
	if err != nil {
		return ""
	}
	v, ok := st.Get(ctxUserID)
	if !ok {
		return ""
	}
	id, _ := v.(string)
	return id
}
