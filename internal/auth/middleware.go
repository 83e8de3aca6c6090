package auth

import (
	"strings"

	"github.com/gin-gonic/gin"
)

// ContextKey represents a key for storing values in context
type ContextKey string

const (
	// SessionContextKey is the key for storing the renewed session in context
	SessionContextKey ContextKey = "session"
	// AccountContextKey is the key for storing the loaded account in context
	AccountContextKey ContextKey = "account"
)

// RefreshTokenHeader lets non-browser clients present the refresh token
const RefreshTokenHeader = "X-Refresh-Token"

// Middleware runs silent renewal and role checks in front of protected handlers
type Middleware struct {
	service *Service
	cookies CookieConfig
}

// NewMiddleware creates a new authentication middleware
func NewMiddleware(service *Service, cookies CookieConfig) *Middleware {
	return &Middleware{
		service: service,
		cookies: cookies,
	}
}

// RequireSession authenticates the request, rotating the session cookies when
// the access token has expired.
func (m *Middleware) RequireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		access, refresh := extractTokens(c)

		session, err := m.service.Renew(c.Request.Context(), access, refresh)
		if err != nil {
			respondError(c, m.service.logger, err)
			c.Abort()
			return
		}

		if session.Renewed() {
			m.cookies.setSession(c, session.Tokens)
		}

		c.Set(string(SessionContextKey), session)
		c.Next()
	}
}

// Authorise checks the role of the session's account. With permission set
// only the listed roles pass, otherwise the listed roles are refused.
func (m *Middleware) Authorise(permission bool, roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		session := GetSessionFromContext(c)
		if session == nil {
			respondError(c, m.service.logger, unauthenticated())
			c.Abort()
			return
		}

		account, err := m.service.GetAccount(c.Request.Context(), session.AccountID)
		if err != nil {
			respondError(c, m.service.logger, err)
			c.Abort()
			return
		}

		if hasRole(roles, account.Role) != permission {
			respondError(c, m.service.logger, unauthorised())
			c.Abort()
			return
		}

		c.Set(string(AccountContextKey), account)
		c.Next()
	}
}

func hasRole(roles []string, role string) bool {
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// extractTokens reads the session pair from cookies, falling back to the
// Authorization and X-Refresh-Token headers
func extractTokens(c *gin.Context) (access, refresh string) {
	access, _ = c.Cookie(AccessTokenCookie)
	refresh, _ = c.Cookie(RefreshTokenCookie)

	if access == "" {
		parts := strings.SplitN(c.GetHeader("Authorization"), " ", 2)
		if len(parts) == 2 && strings.ToLower(parts[0]) == "bearer" {
			access = parts[1]
		}
	}
	if refresh == "" {
		refresh = c.GetHeader(RefreshTokenHeader)
	}
	return access, refresh
}

// GetSessionFromContext retrieves the session set by RequireSession
func GetSessionFromContext(c *gin.Context) *Session {
	value, exists := c.Get(string(SessionContextKey))
	if !exists {
		return nil
	}

	session, ok := value.(*Session)
	if !ok {
		return nil
	}

	return session
}

// GetAccountFromContext retrieves the account loaded by Authorise
func GetAccountFromContext(c *gin.Context) *Account {
	value, exists := c.Get(string(AccountContextKey))
	if !exists {
		return nil
	}

	account, ok := value.(*Account)
	if !ok {
		return nil
	}

	return account
}
