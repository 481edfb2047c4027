package controllers

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/log"

	"github.com/ManuelReschke/SaaSKit/app/models"
	"github.com/ManuelReschke/SaaSKit/app/repository"
	"github.com/ManuelReschke/SaaSKit/internal/pkg/catalog"
)

type ProductController struct {
	catalog  *catalog.Catalog
	products repository.ProductRepository
}

func NewProductController(c *catalog.Catalog, products repository.ProductRepository) *ProductController {
	return &ProductController{catalog: c, products: products}
}

type productResponse struct {
	catalog.Product
	DisplayPrice string `json:"display_price"`
}

func toProductResponse(p catalog.Product) productResponse {
	return productResponse{Product: p, DisplayPrice: p.DisplayPrice()}
}

// HandleList returns all products, optionally filtered by ?type=.
func (pc *ProductController) HandleList(c *fiber.Ctx) error {
	var products []catalog.Product
	switch c.Query("type") {
	case "":
		products = pc.catalog.All()
	case models.ProductTypeSubscription:
		products = pc.catalog.SubscriptionPlans()
	case models.ProductTypeOneTime:
		products = pc.catalog.OneTimeProducts()
	default:
		return jsonError(c, fiber.StatusBadRequest, "bad_request", "type must be subscription or one_time")
	}

	out := make([]productResponse, 0, len(products))
	for _, p := range products {
		out = append(out, toProductResponse(p))
	}
	return c.JSON(out)
}

func (pc *ProductController) HandleGet(c *fiber.Ctx) error {
	p, ok := pc.catalog.ByID(c.Params("id"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Product not found")
	}
	return c.JSON(toProductResponse(p))
}

func (pc *ProductController) HandleGetByPrice(c *fiber.Ctx) error {
	p, ok := pc.catalog.ByPriceID(c.Params("priceId"))
	if !ok {
		return jsonError(c, fiber.StatusNotFound, "not_found", "Product not found")
	}
	return c.JSON(toProductResponse(p))
}

// HandleSeed copies the catalog into the products table once.
func (pc *ProductController) HandleSeed(c *fiber.Ctx) error {
	count, err := pc.products.Count()
	if err != nil {
		return writeError(c, err)
	}
	if count > 0 {
		return c.JSON(fiber.Map{"message": "Products already initialized"})
	}

	all := pc.catalog.All()
	rows := make([]models.Product, 0, len(all))
	for _, p := range all {
		rows = append(rows, p.Model())
	}
	if err := pc.products.CreateBatch(rows); err != nil {
		return writeError(c, err)
	}
	log.Infof("products: seeded %d %s products", len(rows), pc.catalog.Mode())
	return c.Status(fiber.StatusCreated).JSON(fiber.Map{"message": "Sample products initialized successfully", "count": len(rows)})
}
