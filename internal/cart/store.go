package cart

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"
)

// Source selects what a checkout consumes.
type Source string

const (
	SourceCart   Source = "cart"
	SourceBuyNow Source = "buy-now"
)

func ParseSource(v string) (Source, error) {
	switch Source(v) {
	case SourceCart, SourceBuyNow:
		return Source(v), nil
	case "":
		return SourceCart, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownSource, v)
}

// area is a bit set of the lists a mutation touched.
type area uint8

const (
	areaCart area = 1 << iota
	areaSingle
)

type mutation func(s *Store) area

// Snapshot is the frozen content handed to a checkout callback.
type Snapshot struct {
	Source Source
	Items  []LineItem
	Total  decimal.Decimal
}

type Option func(*Store)

func WithLogger(l *zap.Logger) Option {
	return func(s *Store) { s.logger = l }
}

// WithHydrateTimeout bounds the initial mirror reads.
func WithHydrateTimeout(d time.Duration) Option {
	return func(s *Store) { s.hydrateTimeout = d }
}

// WithWriteTimeout bounds each mirror write.
func WithWriteTimeout(d time.Duration) Option {
	return func(s *Store) { s.writeTimeout = d }
}

// Store owns the cart and the buy-now staging area of one session.
//
// It starts hydrating from the mirror on construction. Mutations issued
// before hydration finishes are validated, queued and replayed in order once
// the mirror has been read; after that every mutation is applied and written
// through to the mirror before the call returns.
type Store struct {
	mirror         Mirror
	logger         *zap.Logger
	hydrateTimeout time.Duration
	writeTimeout   time.Duration

	mu       sync.Mutex
	items    []LineItem
	single   []LineItem
	hydrated bool
	pending  []mutation
	ready    chan struct{}
}

func NewStore(m Mirror, opts ...Option) *Store {
	s := &Store{
		mirror:         m,
		logger:         zap.NewNop(),
		hydrateTimeout: 5 * time.Second,
		writeTimeout:   5 * time.Second,
		items:          []LineItem{},
		single:         []LineItem{},
		ready:          make(chan struct{}),
	}
	for _, opt := range opts {
		opt(s)
	}
	go s.hydrate()
	return s
}

// Ready is closed once hydration has completed.
func (s *Store) Ready() <-chan struct{} {
	return s.ready
}

func (s *Store) WaitReady(ctx context.Context) error {
	select {
	case <-s.ready:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (s *Store) hydrate() {
	ctx, cancel := context.WithTimeout(context.Background(), s.hydrateTimeout)
	defer cancel()

	items := s.load(ctx, KeyCart)
	single := s.load(ctx, KeySingleProducts)

	s.mu.Lock()
	s.items = items
	s.single = single

	var dirty area
	for _, m := range s.pending {
		dirty |= m(s)
	}
	replayed := len(s.pending)
	s.pending = nil
	s.hydrated = true
	s.persist(ctx, dirty)
	s.mu.Unlock()

	close(s.ready)
	s.logger.Debug("cart hydrated",
		zap.Int("items", len(items)),
		zap.Int("single_products", len(single)),
		zap.Int("replayed", replayed))
}

func (s *Store) load(ctx context.Context, key string) []LineItem {
	raw, ok, err := s.mirror.Read(ctx, key)
	if err != nil {
		s.logger.Warn("mirror read failed, starting empty", zap.String("key", key), zap.Error(err))
		return []LineItem{}
	}
	if !ok {
		return []LineItem{}
	}
	items, err := Decode(raw)
	if err != nil {
		s.logger.Warn("mirror value corrupt, starting empty", zap.String("key", key), zap.Error(err))
		return []LineItem{}
	}
	return items
}

// persist writes the touched lists. The write outlives a cancelled caller
// context but not writeTimeout. Failures are logged and dropped; the
// in-memory state stays authoritative. Must be called with mu held.
func (s *Store) persist(ctx context.Context, dirty area) {
	if dirty == 0 {
		return
	}
	ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.writeTimeout)
	defer cancel()

	if dirty&areaCart != 0 {
		s.write(ctx, KeyCart, s.items)
	}
	if dirty&areaSingle != 0 {
		s.write(ctx, KeySingleProducts, s.single)
	}
}

func (s *Store) write(ctx context.Context, key string, items []LineItem) {
	raw, err := Encode(items)
	if err != nil {
		s.logger.Warn("mirror encode failed", zap.String("key", key), zap.Error(err))
		return
	}
	if err := s.mirror.Write(ctx, key, raw); err != nil {
		s.logger.Warn("mirror write failed", zap.String("key", key), zap.Error(err))
	}
}

func (s *Store) apply(ctx context.Context, m mutation) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.hydrated {
		s.pending = append(s.pending, m)
		return
	}
	s.persist(ctx, m(s))
}

func validateProduct(p Product, quantity int, size Size) error {
	if p.ID == "" {
		return ErrMissingProduct
	}
	if quantity <= 0 {
		return fmt.Errorf("%w: got %d", ErrInvalidQuantity, quantity)
	}
	if p.Price.IsNegative() {
		return fmt.Errorf("%w: got %s", ErrInvalidPrice, p.Price)
	}
	if !size.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSize, size)
	}
	return nil
}

func validateKey(productID string, size Size) error {
	if productID == "" {
		return ErrMissingProduct
	}
	if !size.Valid() {
		return fmt.Errorf("%w: %q", ErrInvalidSize, size)
	}
	return nil
}

// AddToCart merges quantity into the (product, size) line or appends a new one.
func (s *Store) AddToCart(ctx context.Context, p Product, quantity int, size Size) error {
	if err := validateProduct(p, quantity, size); err != nil {
		return err
	}
	s.apply(ctx, func(s *Store) area {
		k := Key{ProductID: p.ID, Size: size}
		if i := indexOf(s.items, k); i >= 0 {
			s.items[i].Quantity += quantity
		} else {
			s.items = append(s.items, LineItem{Product: p, Quantity: quantity, SelectedSize: size})
		}
		return areaCart
	})
	return nil
}

// RemoveFromCart drops every size variant of the product.
func (s *Store) RemoveFromCart(ctx context.Context, productID string) error {
	if productID == "" {
		return ErrMissingProduct
	}
	s.apply(ctx, func(s *Store) area {
		s.items = filterItems(s.items, func(it LineItem) bool { return it.ID != productID })
		return areaCart
	})
	return nil
}

// RemoveVariant drops exactly the (product, size) line.
func (s *Store) RemoveVariant(ctx context.Context, productID string, size Size) error {
	if err := validateKey(productID, size); err != nil {
		return err
	}
	k := Key{ProductID: productID, Size: size}
	s.apply(ctx, func(s *Store) area {
		s.items = filterItems(s.items, func(it LineItem) bool { return it.Key() != k })
		return areaCart
	})
	return nil
}

// IncreaseQuantity adds one to an existing line. It never creates a line.
func (s *Store) IncreaseQuantity(ctx context.Context, productID string, size Size) error {
	if err := validateKey(productID, size); err != nil {
		return err
	}
	k := Key{ProductID: productID, Size: size}
	s.apply(ctx, func(s *Store) area {
		if i := indexOf(s.items, k); i >= 0 {
			s.items[i].Quantity++
		}
		return areaCart
	})
	return nil
}

// DecreaseQuantity subtracts one and removes the line when it reaches zero.
func (s *Store) DecreaseQuantity(ctx context.Context, productID string, size Size) error {
	if err := validateKey(productID, size); err != nil {
		return err
	}
	k := Key{ProductID: productID, Size: size}
	s.apply(ctx, func(s *Store) area {
		i := indexOf(s.items, k)
		if i < 0 {
			return areaCart
		}
		s.items[i].Quantity--
		if s.items[i].Quantity <= 0 {
			s.items = append(s.items[:i], s.items[i+1:]...)
		}
		return areaCart
	})
	return nil
}

func (s *Store) ClearCart(ctx context.Context) {
	s.apply(ctx, func(s *Store) area {
		s.items = []LineItem{}
		return areaCart
	})
}

// AddSingleProduct stages a product for direct purchase. A (product, size)
// pair that is already staged is left as is.
func (s *Store) AddSingleProduct(ctx context.Context, p Product, quantity int, size Size) error {
	if err := validateProduct(p, quantity, size); err != nil {
		return err
	}
	s.apply(ctx, func(s *Store) area {
		k := Key{ProductID: p.ID, Size: size}
		if indexOf(s.single, k) < 0 {
			s.single = append(s.single, LineItem{Product: p, Quantity: quantity, SelectedSize: size})
		}
		return areaSingle
	})
	return nil
}

func (s *Store) ClearSingleProducts(ctx context.Context) {
	s.apply(ctx, func(s *Store) area {
		s.single = []LineItem{}
		return areaSingle
	})
}

// Items returns a copy of the cart lines. Before hydration completes it
// reports the empty initial cart; call WaitReady first for the hydrated view.
func (s *Store) Items() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.items)
}

func (s *Store) SingleProducts() []LineItem {
	s.mu.Lock()
	defer s.mu.Unlock()
	return cloneItems(s.single)
}

func (s *Store) Total() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.items)
}

func (s *Store) SingleProductsTotal() decimal.Decimal {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Total(s.single)
}

func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Count(s.items)
}

// Checkout snapshots the chosen source and runs fn with the store locked, so
// no mutation can land between the snapshot and fn's result. The consumed
// list is cleared only when fn returns nil.
func (s *Store) Checkout(ctx context.Context, src Source, fn func(ctx context.Context, snap Snapshot) error) error {
	if err := s.WaitReady(ctx); err != nil {
		return fmt.Errorf("wait for cart: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		items    []LineItem
		consumed area
	)
	switch src {
	case SourceCart:
		items, consumed = s.items, areaCart
	case SourceBuyNow:
		items, consumed = s.single, areaSingle
	default:
		return fmt.Errorf("%w: %q", ErrUnknownSource, src)
	}
	if len(items) == 0 {
		return ErrEmptyCheckout
	}

	snap := Snapshot{Source: src, Items: cloneItems(items), Total: Total(items)}
	if err := fn(ctx, snap); err != nil {
		return err
	}

	if consumed == areaCart {
		s.items = []LineItem{}
	} else {
		s.single = []LineItem{}
	}
	s.persist(ctx, consumed)
	return nil
}

func filterItems(items []LineItem, keep func(LineItem) bool) []LineItem {
	out := make([]LineItem, 0, len(items))
	for _, it := range items {
		if keep(it) {
			out = append(out, it)
		}
	}
	return out
}
