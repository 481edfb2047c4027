package models

import (
	"errors"
	"strings"
	"time"
	"unicode"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const (
	ROLE_USER       = "user"
	ROLE_ADMIN      = "admin"
	STATUS_ACTIVE   = "active"
	STATUS_DISABLED = "disabled"
)

var (
	ErrPasswordTooShort     = errors.New("Password must be at least 8 characters long")
	ErrPasswordNoDigit      = errors.New("Password must contain at least one digit")
	ErrPasswordNoLowercase  = errors.New("Password must contain at least one lowercase letter")
	ErrPasswordNoUppercase  = errors.New("Password must contain at least one uppercase letter")
	ErrNameEmpty            = errors.New("Name cannot be empty")
	ErrCurrentPasswordWrong = errors.New("Current password is incorrect")
)

const minPasswordLength = 8

var validate = validator.New()

type User struct {
	ID          uint           `gorm:"primaryKey" json:"id"`
	Name        string         `gorm:"type:varchar(150)" json:"name" validate:"required,max=150"`
	Email       string         `gorm:"uniqueIndex;type:varchar(200)" json:"email" validate:"required,email,max=200"`
	Password    string         `gorm:"type:text" json:"-"`
	Role        string         `gorm:"type:varchar(50);default:'user'" json:"role" validate:"oneof=user admin"`
	Status      string         `gorm:"type:varchar(50);default:'active'" json:"status" validate:"oneof=active disabled"`
	IsAnonymous bool           `gorm:"default:false" json:"is_anonymous"`
	LastLoginAt *time.Time     `gorm:"type:timestamp;default:null" json:"last_login_at"`
	CreatedAt   time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt   gorm.DeletedAt `gorm:"index" json:"-"`
}

func (u *User) Validate() error {
	return validate.Struct(u)
}

// CreateUser builds an active user with a hashed password. The password must
// satisfy ValidatePasswordStrength.
func CreateUser(name string, email string, password string) (*User, error) {
	if err := ValidatePasswordStrength(password); err != nil {
		return nil, err
	}
	pw, err := HashPassword(password)
	if err != nil {
		return nil, err
	}

	u := &User{
		Name:     strings.TrimSpace(name),
		Email:    strings.ToLower(strings.TrimSpace(email)),
		Password: pw,
		Role:     ROLE_USER,
		Status:   STATUS_ACTIVE,
	}

	if err := u.Validate(); err != nil {
		return nil, err
	}

	return u, nil
}

// CreateAnonymousUser builds a guest account without credentials.
func CreateAnonymousUser(id string) *User {
	return &User{
		Name:        "Guest",
		Email:       "anon-" + id + "@anonymous.invalid",
		Role:        ROLE_USER,
		Status:      STATUS_ACTIVE,
		IsAnonymous: true,
	}
}

func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)

	return string(bytes), err
}

// CheckPasswordHash compares the given password with the stored hash.
func CheckPasswordHash(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))

	return err == nil
}

// ValidatePasswordStrength checks the rules in order and returns the first
// one that fails.
func ValidatePasswordStrength(password string) error {
	if utf8.RuneCountInString(password) < minPasswordLength {
		return ErrPasswordTooShort
	}
	var hasDigit, hasLower, hasUpper bool
	for _, r := range password {
		switch {
		case r >= '0' && r <= '9':
			hasDigit = true
		case r >= 'a' && r <= 'z':
			hasLower = true
		case r >= 'A' && r <= 'Z':
			hasUpper = true
		}
	}
	if !hasDigit {
		return ErrPasswordNoDigit
	}
	if !hasLower {
		return ErrPasswordNoLowercase
	}
	if !hasUpper {
		return ErrPasswordNoUppercase
	}
	return nil
}

// NormalizeDisplayName trims surrounding whitespace and rejects blank names.
func NormalizeDisplayName(name string) (string, error) {
	trimmed := strings.TrimFunc(name, unicode.IsSpace)
	if trimmed == "" {
		return "", ErrNameEmpty
	}
	return trimmed, nil
}

// IsActive reports whether the user status is active
func (u *User) IsActive() bool {
	return u.Status == STATUS_ACTIVE
}

// IsAdmin reports whether the user has the admin role
func (u *User) IsAdmin() bool {
	return u.Role == ROLE_ADMIN
}

// CheckPassword verifies if the provided password matches the user's stored password
func (u *User) CheckPassword(password string) bool {
	if u.Password == "" {
		return false
	}
	return CheckPasswordHash(password, u.Password)
}

// SetPassword hashes and sets a new password for the user
func (u *User) SetPassword(password string) error {
	hashedPassword, err := HashPassword(password)
	if err != nil {
		return err
	}
	u.Password = hashedPassword
	return nil
}

// ChangePassword verifies the current password and replaces it with a new
// one that passes the strength rules. The user is left untouched on error.
func (u *User) ChangePassword(current, next string) error {
	if !u.CheckPassword(current) {
		return ErrCurrentPasswordWrong
	}
	if err := ValidatePasswordStrength(next); err != nil {
		return err
	}
	return u.SetPassword(next)
}

// TouchLogin records the current time as last login
func (u *User) TouchLogin() {
	now := time.Now()
	u.LastLoginAt = &now
}
