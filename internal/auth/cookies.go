package auth

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
)

// Cookie names carrying the session pair
const (
	AccessTokenCookie  = "accessToken"
	RefreshTokenCookie = "refreshToken"
)

// CookieConfig controls the attributes of session cookies
type CookieConfig struct {
	Secure   bool
	SameSite http.SameSite
	Domain   string
}

// NewCookieConfig returns production or development cookie attributes
func NewCookieConfig(production bool) CookieConfig {
	if production {
		return CookieConfig{Secure: true, SameSite: http.SameSiteNoneMode}
	}
	return CookieConfig{Secure: false, SameSite: http.SameSiteStrictMode}
}

func (cc CookieConfig) setSession(c *gin.Context, pair *TokenPair) {
	c.SetSameSite(cc.SameSite)
	c.SetCookie(AccessTokenCookie, pair.AccessToken, seconds(pair.AccessExpiresIn), "/", cc.Domain, cc.Secure, true)
	c.SetSameSite(cc.SameSite)
	c.SetCookie(RefreshTokenCookie, pair.RefreshToken, seconds(pair.RefreshExpiresIn), "/", cc.Domain, cc.Secure, true)
}

func (cc CookieConfig) clearSession(c *gin.Context) {
	c.SetSameSite(cc.SameSite)
	c.SetCookie(AccessTokenCookie, "", -1, "/", cc.Domain, cc.Secure, true)
	c.SetSameSite(cc.SameSite)
	c.SetCookie(RefreshTokenCookie, "", -1, "/", cc.Domain, cc.Secure, true)
}

func seconds(d time.Duration) int {
	return int(d / time.Second)
}
