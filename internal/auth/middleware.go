package auth

import (
	"strings"

	"github.com/gin-gonic/gin"

	"foodgram/internal/apperr"
	"foodgram/internal/httpx"
	"foodgram/internal/logging"
)

const CtxClaimsKey = "auth_claims"

// AuthMiddleware rejects requests without a valid bearer token. When repo is
// set, tokens issued before the last logout or password change are refused.
func AuthMiddleware(tokens TokenService, repo *Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimsFromRequest(c, tokens, repo)
		if err != nil {
			httpx.AbortError(c, err)
			return
		}
		if claims == nil {
			httpx.AbortError(c, apperr.Unauthorized("missing bearer token"))
			return
		}
		setClaims(c, claims)
		c.Next()
	}
}

// OptionalAuth attaches claims when a valid token is present and lets
// anonymous requests through. Read endpoints use it to compute per-viewer
// fields.
func OptionalAuth(tokens TokenService, repo *Repo) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := claimsFromRequest(c, tokens, repo)
		if err != nil {
			httpx.AbortError(c, err)
			return
		}
		if claims != nil {
			setClaims(c, claims)
		}
		c.Next()
	}
}

func claimsFromRequest(c *gin.Context, tokens TokenService, repo *Repo) (*Claims, error) {
	h := c.GetHeader("Authorization")
	if h == "" {
		return nil, nil
	}
	if !strings.HasPrefix(strings.ToLower(h), "bearer ") {
		return nil, apperr.Unauthorized("missing bearer token")
	}

	raw := strings.TrimSpace(h[len("Bearer "):])
	claims, err := tokens.Parse(raw)
	if err != nil {
		return nil, apperr.Unauthorized("invalid token")
	}
	if repo != nil {
		currentVersion, err := repo.GetTokenVersion(c.Request.Context(), claims.UserID)
		if err != nil || currentVersion != claims.TokenVersion {
			return nil, apperr.Unauthorized("invalid token")
		}
	}
	return claims, nil
}

func setClaims(c *gin.Context, claims *Claims) {
	c.Set(CtxClaimsKey, claims)
	l := logging.Ctx(c.Request.Context()).With().Str("user_id", claims.UserID).Logger()
	c.Request = c.Request.WithContext(logging.WithContext(c.Request.Context(), l))
}

func MustGetClaims(c *gin.Context) *Claims {
	v, ok := c.Get(CtxClaimsKey)
	if !ok {
		return nil
	}
	claims, _ := v.(*Claims)
	return claims
}

// ViewerID returns the authenticated user id, or "" for anonymous requests.
func ViewerID(c *gin.Context) string {
	if claims := MustGetClaims(c); claims != nil {
		return claims.UserID
	}
	return ""
}
