package cart

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// wireItem is the mirror record. Products stored by the old storefront used
// "_id" instead of "productId", so both are accepted on decode.
type wireItem struct {
	ProductID    string      `json:"productId"`
	LegacyID     string      `json:"_id,omitempty"`
	Name         string      `json:"name"`
	Price        json.Number `json:"price"`
	Image        string      `json:"image"`
	Category     string      `json:"category"`
	Brand        string      `json:"brand"`
	Description  string      `json:"description,omitempty"`
	Quantity     int         `json:"quantity"`
	SelectedSize Size        `json:"selectedSize"`
}

func (w wireItem) product() (Product, error) {
	id := w.ProductID
	if id == "" {
		id = w.LegacyID
	}
	price := decimal.Zero
	if w.Price != "" {
		p, err := decimal.NewFromString(string(w.Price))
		if err != nil {
			return Product{}, fmt.Errorf("price of %s: %w", id, err)
		}
		price = p
	}
	return Product{
		ID:          id,
		Name:        w.Name,
		Price:       price,
		Image:       w.Image,
		Category:    w.Category,
		Brand:       w.Brand,
		Description: w.Description,
	}, nil
}

func wireFromProduct(p Product) wireItem {
	return wireItem{
		ProductID:   p.ID,
		Name:        p.Name,
		Price:       json.Number(p.Price.String()),
		Image:       p.Image,
		Category:    p.Category,
		Brand:       p.Brand,
		Description: p.Description,
	}
}

type wireProduct struct {
	ProductID   string      `json:"productId"`
	LegacyID    string      `json:"_id,omitempty"`
	Name        string      `json:"name"`
	Price       json.Number `json:"price"`
	Image       string      `json:"image"`
	Category    string      `json:"category"`
	Brand       string      `json:"brand"`
	Description string      `json:"description,omitempty"`
}

func (p Product) MarshalJSON() ([]byte, error) {
	w := wireFromProduct(p)
	return json.Marshal(wireProduct{
		ProductID:   w.ProductID,
		Name:        w.Name,
		Price:       w.Price,
		Image:       w.Image,
		Category:    w.Category,
		Brand:       w.Brand,
		Description: w.Description,
	})
}

func (p *Product) UnmarshalJSON(data []byte) error {
	var w wireProduct
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	out, err := wireItem{
		ProductID:   w.ProductID,
		LegacyID:    w.LegacyID,
		Name:        w.Name,
		Price:       w.Price,
		Image:       w.Image,
		Category:    w.Category,
		Brand:       w.Brand,
		Description: w.Description,
	}.product()
	if err != nil {
		return err
	}
	*p = out
	return nil
}

func (it LineItem) MarshalJSON() ([]byte, error) {
	w := wireFromProduct(it.Product)
	w.Quantity = it.Quantity
	w.SelectedSize = it.SelectedSize
	return json.Marshal(w)
}

func (it *LineItem) UnmarshalJSON(data []byte) error {
	var w wireItem
	if err := json.Unmarshal(data, &w); err != nil {
		return err
	}
	p, err := w.product()
	if err != nil {
		return err
	}
	*it = LineItem{Product: p, Quantity: w.Quantity, SelectedSize: w.SelectedSize}
	return nil
}

// Encode serializes items in order as a JSON array.
func Encode(items []LineItem) (string, error) {
	if items == nil {
		items = []LineItem{}
	}
	b, err := json.Marshal(items)
	if err != nil {
		return "", fmt.Errorf("encode line items: %w", err)
	}
	return string(b), nil
}

// Decode parses a mirror value. Records that would break the cart
// invariants (no id, quantity < 1, unknown size) are dropped and records
// sharing a key are merged, so the result is always a valid cart.
func Decode(text string) ([]LineItem, error) {
	text = strings.TrimSpace(text)
	if text == "" || text == "null" {
		return []LineItem{}, nil
	}

	var raw []LineItem
	if err := json.Unmarshal([]byte(text), &raw); err != nil {
		return nil, fmt.Errorf("decode line items: %w", err)
	}

	items := make([]LineItem, 0, len(raw))
	for _, it := range raw {
		if it.ID == "" || it.Quantity < 1 || !it.SelectedSize.Valid() {
			continue
		}
		if i := indexOf(items, it.Key()); i >= 0 {
			items[i].Quantity += it.Quantity
			continue
		}
		items = append(items, it)
	}
	return items, nil
}
