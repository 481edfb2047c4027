package controllers

import (
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/ManuelReschke/SaaSKit/app/models"
	"github.com/ManuelReschke/SaaSKit/app/repository"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/security"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/session"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/usercontext"
)

const invalidCredentialsMessage = "Invalid email or password"

// TokenConfig controls bearer tokens issued at login.
type TokenConfig struct {
	Secret   string
	TTL      time.Duration
	Denylist security.Denylist
}

type AuthController struct {
	users  repository.UserRepository
	tokens TokenConfig
}

func NewAuthController(users repository.UserRepository, tokens TokenConfig) *AuthController {
	if tokens.TTL <= 0 {
		tokens.TTL = security.DefaultAccessTokenTTL
	}
	return &AuthController{users: users, tokens: tokens}
}

type registerRequest struct {
	Name     string `json:"name" validate:"required,max=150"`
	Email    string `json:"email" validate:"required,email,max=200"`
	Password string `json:"password" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleRegister creates a password account and signs it in.
func (ac *AuthController) HandleRegister(c *fiber.Ctx) error {
	var req registerRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	if _, err := ac.users.GetByEmail(normalizeEmail(req.Email)); err == nil {
		return jsonError(c, fiber.StatusConflict, "conflict", "Email already registered")
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return writeError(c, err)
	}

	user, err := models.CreateUser(req.Name, req.Email, req.Password)
	if err != nil {
		return writeError(c, err)
	}
	if err := ac.users.Create(user); err != nil {
		return writeError(c, err)
	}
	log.Infof("auth: registered user %d", user.ID)
	return ac.signIn(c, user, fiber.StatusCreated)
}

// HandleLogin verifies email and password.
func (ac *AuthController) HandleLogin(c *fiber.Ctx) error {
	var req loginRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}

	// notice: do not tell the caller which part of the credentials was wrong
	user, err := ac.users.GetByEmail(normalizeEmail(req.Email))
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return jsonError(c, fiber.StatusUnauthorized, "unauthorized", invalidCredentialsMessage)
		}
		return writeError(c, err)
	}
	if user.IsAnonymous || !user.CheckPassword(req.Password) {
		return jsonError(c, fiber.StatusUnauthorized, "unauthorized", invalidCredentialsMessage)
	}
	if !user.IsActive() {
		return jsonError(c, fiber.StatusForbidden, "forbidden", "User inactive")
	}

	user.TouchLogin()
	if err := ac.users.Update(user); err != nil {
		log.Warnf("auth: failed to record login for user %d: %v", user.ID, err)
	}
	return ac.signIn(c, user, fiber.StatusOK)
}

// HandleAnonymous creates a guest account and signs it in.
func (ac *AuthController) HandleAnonymous(c *fiber.Ctx) error {
	user := models.CreateAnonymousUser(uuid.NewString())
	if err := ac.users.Create(user); err != nil {
		return writeError(c, err)
	}
	return ac.signIn(c, user, fiber.StatusCreated)
}

// HandleLogout ends the session and revokes the presented bearer token.
func (ac *AuthController) HandleLogout(c *fiber.Ctx) error {
	if claims, ok := c.Locals(usercontext.KeyAccessClaims).(*security.AccessClaims); ok && ac.tokens.Denylist != nil {
		if err := ac.tokens.Denylist.Revoke(c.UserContext(), claims.ID, claims.ExpiresAt.Time); err != nil {
			log.Warnf("auth: failed to revoke token %s: %v", claims.ID, err)
		}
	}
	if err := session.Logout(c); err != nil {
		log.Warnf("auth: failed to destroy session: %v", err)
	}
	usercontext.Set(c, usercontext.UserContext{})
	return c.JSON(fiber.Map{"success": true})
}

func (ac *AuthController) signIn(c *fiber.Ctx, user *models.User, status int) error {
	if err := session.Login(c, user.ID, user.Name, user.Email, user.IsAdmin(), user.IsAnonymous); err != nil {
		return writeError(c, err)
	}
	token, expiresAt, err := security.IssueAccessToken(user.ID, user.Name, user.Email, user.IsAdmin(), user.IsAnonymous, ac.tokens.TTL, ac.tokens.Secret)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(status).JSON(fiber.Map{
		"user":         user,
		"access_token": token,
		"token_type":   "Bearer",
		"expires_at":   expiresAt.UTC().Format(time.RFC3339),
	})
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
