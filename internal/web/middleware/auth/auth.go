package auth

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog/log"

	"github.com/bloniea/blog-api/internal/auth"
	"github.com/bloniea/blog-api/internal/token"
	"github.com/bloniea/blog-api/internal/web/handler"
)

const (
	// bearerPrefix is the required Authorization scheme.
	bearerPrefix = "Bearer "

	// principalKey is the fiber.Locals key the verified claims live under.
	principalKey = "principal"
)

// Gate checks inbound requests against the role/permission model. A Gate is
// shared by all routes; every per-request value stays on the request context.
type Gate struct {
	codec    *token.Codec
	resolver *auth.Resolver
	timeout  time.Duration
}

// NewGate creates a Gate. The timeout bounds the store reads of a single
// resolution so a stalled database cannot hang the request forever.
func NewGate(codec *token.Codec, resolver *auth.Resolver, timeout time.Duration) *Gate {
	return &Gate{codec: codec, resolver: resolver, timeout: timeout}
}

// Protect returns middleware guarding the routes of one resource. The
// resource name is declared at route registration, the HTTP method is taken
// per request; together they form the permission key.
func (g *Gate) Protect(resource string) fiber.Handler {
	return func(c *fiber.Ctx) error {
		// content type is set before any decision is made
		c.Set(fiber.HeaderContentType, fiber.MIMEApplicationJSONCharsetUTF8)

		// only mutating methods are permission checked
		switch c.Method() {
		case fiber.MethodPost, fiber.MethodPatch, fiber.MethodPut, fiber.MethodDelete:
		default:
			return c.Next()
		}

		header := c.Get(fiber.HeaderAuthorization)
		if header == "" || !strings.HasPrefix(header, bearerPrefix) {
			return handler.Error(c, fiber.StatusUnauthorized,
				"The header is missing Authorization or has an incorrect format.")
		}

		claims, err := g.codec.VerifyAccess(strings.TrimPrefix(header, bearerPrefix))
		if err != nil {
			log.Debug().Err(err).Str("resource", resource).Msg("token rejected")

			return handler.Error(c, fiber.StatusUnauthorized, "Token expired or invalid.")
		}

		ctx, cancel := context.WithTimeout(c.UserContext(), g.timeout)
		defer cancel()

		key := auth.PermissionKey(resource, c.Method())

		decision, err := g.resolver.Authorize(ctx, claims.RoleID, key)
		if err != nil {
			// infrastructure fault, not an authorization decision
			log.Error().Err(err).
				Uint("role_id", claims.RoleID).
				Str("permission", key).
				Msg("permission resolution failed")

			if errors.Is(err, context.DeadlineExceeded) {
				return handler.Error(c, fiber.StatusInternalServerError, " Store timeout.")
			}

			return handler.Error(c, fiber.StatusInternalServerError, " Store failure.")
		}

		if decision == auth.Deny {
			log.Warn().
				Uint("role_id", claims.RoleID).
				Uint64("user_id", claims.UserID).
				Str("permission", key).
				Msg("permission denied")

			return handler.Error(c, fiber.StatusUnauthorized, "No permission.")
		}

		c.Locals(principalKey, claims)

		return c.Next()
	}
}

// Principal returns the verified claims of the current request, or nil when
// the request passed the gate without a token (read requests).
func Principal(c *fiber.Ctx) *token.Claims {
	claims, _ := c.Locals(principalKey).(*token.Claims)
	return claims
}
