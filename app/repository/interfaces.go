package repository

import (
	"gorm.io/gorm"

	"github.com/ManuelReschke/SaaSKit/app/models"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing"
)

// UserRepository defines the interface for user-related database operations
type UserRepository interface {
	Create(user *models.User) error
	GetByID(id uint) (*models.User, error)
	GetByEmail(email string) (*models.User, error)
	Update(user *models.User) error
}

// ProductRepository defines the interface for the persisted product table
type ProductRepository interface {
	Count() (int64, error)
	CreateBatch(products []models.Product) error
	List() ([]models.Product, error)
}

// Repositories holds all repository instances
type Repositories struct {
	User    UserRepository
	Product ProductRepository
	Billing billing.Repository
}

// NewRepositories creates a new instance of all repositories
func NewRepositories(db *gorm.DB) *Repositories {
	return &Repositories{
		User:    NewUserRepository(db),
		Product: NewProductRepository(db),
		Billing: billing.NewRepository(db),
	}
}
