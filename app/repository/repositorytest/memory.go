// Package repositorytest provides in-memory repositories for handler tests.
package repositorytest

import (
	"strings"
	"sync"

	"gorm.io/gorm"

	"github.com/ManuelReschke/SaaSKit/app/models"
	"github.com/ManuelReschke/SaaSKit/app/repository"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/billing/billingtest"
)

type UserRepository struct {
	mu     sync.Mutex
	nextID uint
	rows   map[uint]models.User
}

var _ repository.UserRepository = (*UserRepository)(nil)

func NewUserRepository() *UserRepository {
	return &UserRepository{rows: map[uint]models.User{}}
}

func (r *UserRepository) Create(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, row := range r.rows {
		if row.Email == user.Email {
			return gorm.ErrDuplicatedKey
		}
	}
	r.nextID++
	user.ID = r.nextID
	r.rows[user.ID] = *user
	return nil
}

func (r *UserRepository) GetByID(id uint) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	row, ok := r.rows[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &row, nil
}

func (r *UserRepository) GetByEmail(email string) (*models.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	email = strings.ToLower(strings.TrimSpace(email))
	for _, row := range r.rows {
		if row.Email == email {
			found := row
			return &found, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (r *UserRepository) Update(user *models.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.rows[user.ID]; !ok {
		return gorm.ErrRecordNotFound
	}
	r.rows[user.ID] = *user
	return nil
}

type ProductRepository struct {
	mu   sync.Mutex
	rows []models.Product
}

var _ repository.ProductRepository = (*ProductRepository)(nil)

func (r *ProductRepository) Count() (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return int64(len(r.rows)), nil
}

func (r *ProductRepository) CreateBatch(products []models.Product) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for i := range products {
		products[i].ID = uint(len(r.rows) + 1)
		r.rows = append(r.rows, products[i])
	}
	return nil
}

func (r *ProductRepository) List() ([]models.Product, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]models.Product{}, r.rows...), nil
}

// Repositories bundles in-memory implementations of every repository.
type Repositories struct {
	*repository.Repositories
	Users    *UserRepository
	Products *ProductRepository
	Billing  *billingtest.MemoryRepository
}

func NewRepositories() *Repositories {
	users := NewUserRepository()
	products := &ProductRepository{}
	billingRepo := billingtest.NewMemoryRepository()
	return &Repositories{
		Repositories: &repository.Repositories{User: users, Product: products, Billing: billingRepo},
		Users:        users,
		Products:     products,
		Billing:      billingRepo,
	}
}
