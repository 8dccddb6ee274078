package catalog

import (
	"context"
	"fmt"
	"os"
	"sort"
	"sync"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"

	"github.com/andreasstove999/ecommerce-system/storefront-go/internal/cart"
)

type Memory struct {
	mu         sync.RWMutex
	categories map[string][]cart.Product
}

func NewMemory() *Memory {
	return &Memory{categories: make(map[string][]cart.Product)}
}

// Put replaces the listing of category. Reserved names are rejected.
func (m *Memory) Put(category string, records []Record) error {
	if category == "" {
		return ErrMissingCategory
	}
	if IsReserved(category) {
		return fmt.Errorf("%q is reserved", category)
	}
	products := make([]cart.Product, 0, len(records))
	for _, r := range records {
		products = append(products, Normalize(category, r))
	}
	m.mu.Lock()
	m.categories[category] = products
	m.mu.Unlock()
	return nil
}

func (m *Memory) Categories(ctx context.Context) ([]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	names := make([]string, 0, len(m.categories))
	for name := range m.categories {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

func (m *Memory) Products(ctx context.Context, category string, page int) (Page, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products, ok := m.categories[category]
	if !ok {
		return Page{}, fmt.Errorf("%w: %q", ErrCategoryNotFound, category)
	}

	page, offset := NormalizePage(page)
	out := Page{Products: []cart.Product{}, Page: page, Total: len(products), TotalPages: totalPages(len(products))}
	if offset < len(products) {
		end := offset + PageSize
		if end > len(products) {
			end = len(products)
		}
		out.Products = append(out.Products, products[offset:end]...)
	}
	return out, nil
}

func (m *Memory) Product(ctx context.Context, category, productID string) (cart.Product, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	products, ok := m.categories[category]
	if !ok {
		return cart.Product{}, fmt.Errorf("%w: %q", ErrCategoryNotFound, category)
	}
	for _, p := range products {
		if p.ID == productID {
			return p, nil
		}
	}
	return cart.Product{}, fmt.Errorf("%w: %q", ErrProductNotFound, productID)
}

// Seed is the YAML layout read by LoadSeed and the seed command.
type Seed struct {
	Categories map[string][]SeedProduct `yaml:"categories"`
}

type SeedProduct struct {
	ID          string `yaml:"id"`
	Name        string `yaml:"name"`
	Price       string `yaml:"price"`
	Image       string `yaml:"image"`
	Img         string `yaml:"img"`
	Brand       string `yaml:"brand"`
	Description string `yaml:"description"`
}

func (sp SeedProduct) Record() (Record, error) {
	price := decimal.Zero
	if sp.Price != "" {
		p, err := decimal.NewFromString(sp.Price)
		if err != nil {
			return Record{}, fmt.Errorf("price of %s: %w", sp.ID, err)
		}
		price = p
	}
	return Record{
		ID:          sp.ID,
		Name:        sp.Name,
		Price:       price,
		Image:       sp.Image,
		Img:         sp.Img,
		Brand:       sp.Brand,
		Description: sp.Description,
	}, nil
}

func ParseSeed(data []byte) (Seed, error) {
	var s Seed
	if err := yaml.Unmarshal(data, &s); err != nil {
		return Seed{}, fmt.Errorf("parse seed: %w", err)
	}
	return s, nil
}

func ReadSeedFile(path string) (Seed, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Seed{}, fmt.Errorf("read seed: %w", err)
	}
	return ParseSeed(data)
}

// Records converts every seeded category to stored records.
func (s Seed) Records() (map[string][]Record, error) {
	out := make(map[string][]Record, len(s.Categories))
	for category, items := range s.Categories {
		records := make([]Record, 0, len(items))
		for _, it := range items {
			r, err := it.Record()
			if err != nil {
				return nil, fmt.Errorf("category %s: %w", category, err)
			}
			records = append(records, r)
		}
		out[category] = records
	}
	return out, nil
}

// Load puts every category of s into m.
func (m *Memory) Load(s Seed) error {
	byCategory, err := s.Records()
	if err != nil {
		return err
	}
	for category, records := range byCategory {
		if err := m.Put(category, records); err != nil {
			return err
		}
	}
	return nil
}
