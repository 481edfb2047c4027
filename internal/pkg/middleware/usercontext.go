package middleware

import (
	"strings"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SaaSKit/internal/pkg/security"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/session"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/usercontext"
)

type UserContextConfig struct {
	JWTSecret string
	Denylist  security.Denylist
}

// NewUserContextMiddleware sets up the complete user context for every
// request. A valid bearer token wins over the session cookie.
func NewUserContextMiddleware(cfg UserContextConfig) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if claims := bearerClaims(c, cfg); claims != nil {
			usercontext.Set(c, usercontext.UserContext{
				UserID:      claims.UserID(),
				Username:    claims.Name,
				Email:       claims.Email,
				IsLoggedIn:  true,
				IsAdmin:     claims.Admin,
				IsAnonymous: claims.Anonymous,
			})
			c.Locals(usercontext.KeyAccessClaims, claims)
			return c.Next()
		}

		usercontext.Set(c, sessionUser(c))
		return c.Next()
	}
}

func bearerClaims(c *fiber.Ctx, cfg UserContextConfig) *security.AccessClaims {
	auth := strings.TrimSpace(c.Get(fiber.HeaderAuthorization))
	if len(auth) < 7 || !strings.EqualFold(auth[:7], "bearer ") {
		return nil
	}
	claims, err := security.ParseAccessToken(strings.TrimSpace(auth[7:]), cfg.JWTSecret)
	if err != nil {
		return nil
	}
	if err := security.CheckNotRevoked(c.UserContext(), cfg.Denylist, claims); err != nil {
		if err != security.ErrTokenRevoked {
			log.Warnf("token denylist lookup failed: %v", err)
		}
		return nil
	}
	return claims
}

// sessionUser reads the login session; without a session store only
// bearer tokens authenticate.
func sessionUser(c *fiber.Ctx) usercontext.UserContext {
	store := session.GetSessionStore()
	if store == nil {
		return usercontext.UserContext{}
	}
	sess, err := store.Get(c)
	if err != nil {
		return usercontext.UserContext{}
	}
	userID, ok := sess.Get(session.KeyUserID).(uint)
	if !ok || userID == 0 {
		return usercontext.UserContext{}
	}

	username, _ := sess.Get(session.KeyUsername).(string)
	email, _ := sess.Get(session.KeyEmail).(string)
	isAdmin, _ := sess.Get(session.KeyIsAdmin).(bool)
	isAnonymous, _ := sess.Get(session.KeyIsAnonymous).(bool)
	return usercontext.UserContext{
		UserID:      userID,
		Username:    username,
		Email:       email,
		IsLoggedIn:  true,
		IsAdmin:     isAdmin,
		IsAnonymous: isAnonymous,
	}
}
