package ginserver

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	gin "github.com/gin-gonic/gin"
)

const principalContextKey = "carmarket.principal"

// AdminRole marks principals allowed to override server-side pricing
// and suspend listings.
const AdminRole = "admin"

// Principal is the resolved identity of a request. Identity management
// itself lives outside this service; the resolver turns an opaque bearer
// token into a principal.
type Principal struct {
	ID    string
	Name  string
	Roles []string
}

func (p Principal) HasRole(role string) bool {
	role = strings.ToLower(strings.TrimSpace(role))
	if role == "" {
		return false
	}
	for _, r := range p.Roles {
		if strings.ToLower(r) == role {
			return true
		}
	}
	return false
}

func (p Principal) IsAdmin() bool {
	return p.HasRole(AdminRole)
}

var ErrUnknownToken = errors.New("ginserver: unknown token")

type IdentityResolver interface {
	Resolve(ctx context.Context, token string) (Principal, error)
}

// StaticIdentityResolver serves dev and test setups from a fixed
// token-to-principal table.
type StaticIdentityResolver struct {
	Principals map[string]Principal
}

func (r StaticIdentityResolver) Resolve(ctx context.Context, token string) (Principal, error) {
	p, ok := r.Principals[token]
	if !ok {
		return Principal{}, ErrUnknownToken
	}
	return p, nil
}

type AuthMiddleware struct {
	Resolver IdentityResolver
	Logger   *slog.Logger
}

// Handle resolves the bearer token when present. Requests without a
// valid token continue unauthenticated; per-route guards decide whether
// that is acceptable.
func (m AuthMiddleware) Handle(c *gin.Context) {
	token := extractBearerToken(c.GetHeader("Authorization"))
	if token == "" || m.Resolver == nil {
		c.Next()
		return
	}
	p, err := m.Resolver.Resolve(c.Request.Context(), token)
	if err != nil {
		if !errors.Is(err, ErrUnknownToken) && m.Logger != nil {
			m.Logger.Debug("token resolution failed", "error", err)
		}
		c.Next()
		return
	}
	setPrincipal(c, p)
	c.Next()
}

func setPrincipal(c *gin.Context, p Principal) {
	c.Set(principalContextKey, p)
}

func currentPrincipal(c *gin.Context) (Principal, bool) {
	val, exists := c.Get(principalContextKey)
	if !exists {
		return Principal{}, false
	}
	p, ok := val.(Principal)
	return p, ok
}

func requireUser(c *gin.Context) (Principal, bool) {
	p, ok := currentPrincipal(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "auth required"})
		return Principal{}, false
	}
	return p, true
}

func extractBearerToken(header string) string {
	if header == "" {
		return ""
	}
	if !strings.HasPrefix(strings.ToLower(header), "bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}
