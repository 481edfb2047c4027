package repository

import (
	"gorm.io/gorm"

	"github.com/ManuelReschke/SaaSKit/app/models"
)

type productRepository struct {
	db *gorm.DB
}

func NewProductRepository(db *gorm.DB) ProductRepository {
	return &productRepository{db: db}
}

func (r *productRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Product{}).Count(&count).Error
	return count, err
}

// CreateBatch inserts all products in one transaction
func (r *productRepository) CreateBatch(products []models.Product) error {
	if len(products) == 0 {
		return nil
	}
	return r.db.Transaction(func(tx *gorm.DB) error {
		return tx.Create(&products).Error
	})
}

func (r *productRepository) List() ([]models.Product, error) {
	products := []models.Product{}
	err := r.db.Order("type ASC").Order("price ASC").Find(&products).Error
	return products, err
}
