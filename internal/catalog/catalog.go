// Package catalog maps category names to product listings.
package catalog

import (
	"context"
	"errors"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

const PageSize = 8

const (
	DefaultName  = "No Name"
	DefaultImage = "/placeholder.png"
	DefaultBrand = "N/A"
)

var (
	ErrCategoryNotFound = errors.New("category not found")
	ErrProductNotFound  = errors.New("product not found")
	ErrMissingCategory  = errors.New("category is required")
)

// reserved names share the document store with categories but are not
// product listings.
var reserved = map[string]struct{}{
	"users":     {},
	"orders":    {},
	"fs.chunks": {},
	"fs.files":  {},
}

func IsReserved(name string) bool {
	_, ok := reserved[name]
	return ok
}

type Catalog interface {
	Categories(ctx context.Context) ([]string, error)
	Products(ctx context.Context, category string, page int) (Page, error)
	Product(ctx context.Context, category, productID string) (cart.Product, error)
}

type Page struct {
	Products   []cart.Product `json:"products"`
	Page       int            `json:"page"`
	TotalPages int            `json:"totalPages"`
	Total      int            `json:"total"`
}

// Record is a product as stored, before defaults are applied. Img is the
// older image field some documents still carry.
type Record struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Image       string
	Img         string
	Brand       string
	Description string
}

// Normalize fills display defaults and tags the product with its category.
func Normalize(category string, r Record) cart.Product {
	p := cart.Product{
		ID:          r.ID,
		Name:        strings.TrimSpace(r.Name),
		Price:       r.Price,
		Image:       r.Image,
		Category:    category,
		Brand:       r.Brand,
		Description: r.Description,
	}
	if p.Name == "" {
		p.Name = DefaultName
	}
	if p.Image == "" {
		p.Image = r.Img
	}
	if p.Image == "" {
		p.Image = DefaultImage
	}
	if p.Brand == "" {
		p.Brand = DefaultBrand
	}
	if p.Price.IsNegative() {
		p.Price = decimal.Zero
	}
	return p
}

// NormalizePage clamps page to >= 1 and returns the offset of its first item.
func NormalizePage(page int) (int, int) {
	if page < 1 {
		page = 1
	}
	return page, (page - 1) * PageSize
}

func totalPages(total int) int {
	if total == 0 {
		return 0
	}
	return (total + PageSize - 1) / PageSize
}
