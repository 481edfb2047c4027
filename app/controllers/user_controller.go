package controllers

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"
	"gorm.io/gorm"

	"github.com/ManuelReschke/SaaSKit/app/models"
	"github.com/ManuelReschke/SaaSKit/app/repository"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/session"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/usercontext"
)

type UserController struct {
	users repository.UserRepository
}

func NewUserController(users repository.UserRepository) *UserController {
	return &UserController{users: users}
}

type updateNameRequest struct {
	Name string `json:"name" validate:"max=150"`
}

type updatePasswordRequest struct {
	CurrentPassword string `json:"currentPassword"`
	NewPassword     string `json:"newPassword"`
}

// HandleMe returns the signed-in user, or null.
func (uc *UserController) HandleMe(c *fiber.Ctx) error {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return c.JSON(nil)
	}
	user, err := uc.users.GetByID(userCtx.UserID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return c.JSON(nil)
		}
		return writeError(c, err)
	}
	return c.JSON(user)
}

func (uc *UserController) HandleUpdateName(c *fiber.Ctx) error {
	var req updateNameRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	user, err := uc.currentUser(c)
	if err != nil {
		return writeError(c, err)
	}
	name, err := models.NormalizeDisplayName(req.Name)
	if err != nil {
		return writeError(c, err)
	}

	user.Name = name
	if err := uc.users.Update(user); err != nil {
		return writeError(c, err)
	}
	// Bearer callers have no login session to refresh.
	if c.Locals(usercontext.KeyAccessClaims) == nil {
		if err := session.SetSessionValue(c, session.KeyUsername, name); err != nil {
			log.Warnf("user: failed to update session name for user %d: %v", user.ID, err)
		}
	}
	return c.JSON(fiber.Map{"success": true})
}

func (uc *UserController) HandleUpdatePassword(c *fiber.Ctx) error {
	var req updatePasswordRequest
	if ok, err := parseBody(c, &req); !ok {
		return err
	}
	user, err := uc.currentUser(c)
	if err != nil {
		return writeError(c, err)
	}
	if err := user.ChangePassword(req.CurrentPassword, req.NewPassword); err != nil {
		return writeError(c, err)
	}
	if err := uc.users.Update(user); err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"success": true})
}

func (uc *UserController) currentUser(c *fiber.Ctx) (*models.User, error) {
	userCtx := usercontext.GetUserContext(c)
	if !userCtx.IsLoggedIn {
		return nil, billing.ErrUnauthenticated
	}
	user, err := uc.users.GetByID(userCtx.UserID)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, billing.ErrUnauthenticated
	}
	return user, err
}
