package session

import (
	"fmt"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/session"

	"github.com/ManuelReschke/SaaSKit/internal/pkg/cache"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/env"
)

// Keys stored in the server-side session.
const (
	KeyUserID      = "user_id"
	KeyUsername    = "username"
	KeyEmail       = "email"
	KeyIsAdmin     = "is_admin"
	KeyIsAnonymous = "is_anonymous"
)

var sessionStore *session.Store

func NewSessionStore() *session.Store {
	sessionStore = session.New(session.Config{
		Storage:        cache.NewStorage(cache.DBSessions),
		CookieHTTPOnly: true,
		CookieSecure:   !env.IsDev(),
		CookieSameSite: fiber.CookieSameSiteLaxMode,
		Expiration:     time.Hour * 24,
		KeyLookup:      "cookie:session_id",
	})
	return sessionStore
}

// SetStore replaces the package store, used with in-memory stores in tests.
func SetStore(store *session.Store) {
	sessionStore = store
}

func GetSessionStore() *session.Store {
	return sessionStore
}

// Login stores the authenticated identity in the caller's session.
func Login(c *fiber.Ctx, userID uint, username, email string, isAdmin, isAnonymous bool) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}
	// Fresh id on privilege change.
	if err := sess.Regenerate(); err != nil {
		return fmt.Errorf("failed to regenerate session: %v", err)
	}
	sess.Set(KeyUserID, userID)
	sess.Set(KeyUsername, username)
	sess.Set(KeyEmail, email)
	sess.Set(KeyIsAdmin, isAdmin)
	sess.Set(KeyIsAnonymous, isAnonymous)
	return sess.Save()
}

// Logout destroys the caller's session.
func Logout(c *fiber.Ctx) error {
	if sessionStore == nil {
		return nil
	}
	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}
	return sess.Destroy()
}

// SetSessionValue stores a key-value pair in the user's individual session
func SetSessionValue(c *fiber.Ctx, key string, value string) error {
	if sessionStore == nil {
		return fmt.Errorf("session store not initialized")
	}

	sess, err := sessionStore.Get(c)
	if err != nil {
		return fmt.Errorf("failed to get session: %v", err)
	}

	sess.Set(key, value)
	return sess.Save()
}
