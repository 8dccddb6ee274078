package cart

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Size is the garment size picked on the product page. The zero value means
// the flow does not ask for a size.
type Size string

const (
	SizeNone Size = ""
	SizeS    Size = "S"
	SizeM    Size = "M"
	SizeL    Size = "L"
	SizeXL   Size = "XL"
	SizeXXL  Size = "XXL"
	SizeXXXL Size = "XXXL"
)

var sizes = []Size{SizeS, SizeM, SizeL, SizeXL, SizeXXL, SizeXXXL}

// Sizes lists the selectable sizes in display order.
func Sizes() []Size {
	out := make([]Size, len(sizes))
	copy(out, sizes)
	return out
}

// Valid reports whether s is SizeNone or one of the enumerated sizes.
func (s Size) Valid() bool {
	if s == SizeNone {
		return true
	}
	for _, v := range sizes {
		if s == v {
			return true
		}
	}
	return false
}

// ParseSize normalizes user input ("m", " xl ") to a Size.
func ParseSize(v string) (Size, error) {
	s := Size(strings.ToUpper(strings.TrimSpace(v)))
	if !s.Valid() {
		return SizeNone, fmt.Errorf("%w: %q", ErrInvalidSize, v)
	}
	return s, nil
}

// Product is a catalog entry as the cart sees it. It is never mutated here.
type Product struct {
	ID          string
	Name        string
	Price       decimal.Decimal
	Image       string
	Category    string
	Brand       string
	Description string
}

// Key identifies a line item inside a cart.
type Key struct {
	ProductID string
	Size      Size
}

func (k Key) String() string {
	if k.Size == SizeNone {
		return k.ProductID
	}
	return k.ProductID + "/" + string(k.Size)
}

// LineItem is a product with the purchase specific attributes.
type LineItem struct {
	Product
	Quantity     int
	SelectedSize Size
}

func (it LineItem) Key() Key {
	return Key{ProductID: it.ID, Size: it.SelectedSize}
}

// Subtotal is price × quantity.
func (it LineItem) Subtotal() decimal.Decimal {
	return it.Price.Mul(decimal.NewFromInt(int64(it.Quantity)))
}

// Total sums the subtotals of items.
func Total(items []LineItem) decimal.Decimal {
	total := decimal.Zero
	for _, it := range items {
		total = total.Add(it.Subtotal())
	}
	return total
}

// Count sums the quantities of items.
func Count(items []LineItem) int {
	n := 0
	for _, it := range items {
		n += it.Quantity
	}
	return n
}

func cloneItems(items []LineItem) []LineItem {
	if len(items) == 0 {
		return []LineItem{}
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}

func indexOf(items []LineItem, k Key) int {
	for i := range items {
		if items[i].Key() == k {
			return i
		}
	}
	return -1
}
