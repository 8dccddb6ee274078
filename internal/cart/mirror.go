package cart

import "context"

// Mirror keys. The staging key keeps the name the old storefront used in
// browser storage so existing mirrors hydrate unchanged.
const (
	KeyCart           = "cart"
	KeySingleProducts = "singleProducts"
)

// Mirror is the persisted key-value copy of a session's cart. A missing key
// is reported as ok == false with a nil error.
type Mirror interface {
	Read(ctx context.Context, key string) (value string, ok bool, err error)
	Write(ctx context.Context, key, value string) error
}
