package pasetotoken

import (
	"time"

	"github.com/google/uuid"
)

type TokenType string

const TokenTypeAccess TokenType = "access"

// Claims is the verified token payload. It satisfies reqctx.AuthClaims.
type Claims struct {
	Type TokenType

	UserID    uuid.UUID
	SessionID *uuid.UUID

	Issuer   string
	Audience string

	IssuedAt  time.Time
	ExpiresAt time.Time
	TokenID   string // jti
	Subject   string

	now func() time.Time
}

func (c *Claims) GetUserID() uuid.UUID     { return c.UserID }
func (c *Claims) GetSessionID() *uuid.UUID { return c.SessionID }
func (c *Claims) GetTokenType() string     { return string(c.Type) }

func (c *Claims) IsExpired() bool {
	now := time.Now
	if c.now != nil {
		now = c.now
	}
	return now().After(c.ExpiresAt)
}
