package utils

import (
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const sessionKey = "session"

// Session is the caller identity resolved once per request by the JWT middleware.
type Session struct {
	UserID    uuid.UUID
	Email     string
	AuthToken string
}

func SetSession(c *gin.Context, s Session) {
	c.Set(sessionKey, s)
	c.Set("user_id", s.UserID.String())
}

// SessionFrom returns ErrUnauthenticated when no middleware populated the context.
func SessionFrom(c *gin.Context) (Session, error) {
	v, ok := c.Get(sessionKey)
	if !ok {
		return Session{}, ErrUnauthenticated
	}
	s, ok := v.(Session)
	if !ok || s.UserID == uuid.Nil {
		return Session{}, ErrUnauthenticated
	}
	return s, nil
}
