// Package cart is the single source of truth for a shopping cart. Every read
// and write goes through a Store, which enforces the stock invariant: after
// any successful mutation, no line item's quantity exceeds the available
// stock snapshot taken when the product was last added.
package cart

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/blackgym/storefront/internal/currency"
	"github.com/blackgym/storefront/internal/errors"
	"github.com/blackgym/storefront/internal/metrics"
	"github.com/blackgym/storefront/internal/models"
	"github.com/blackgym/storefront/internal/notify"
)

type Store struct {
	mu  sync.Mutex
	key string

	items     []models.CartItem
	total     float64
	itemCount int
	isOpen    bool
	hydrated  bool

	persister Persister
	notifier  notify.Notifier
	logger    *slog.Logger
}

// NewStore builds a store and hydrates it from the persister. A load failure
// or corrupted blob starts the cart empty rather than failing construction;
// hydration is considered complete either way. Totals are always recomputed
// from the restored items, never trusted from storage.
func NewStore(ctx context.Context, key string, persister Persister, notifier notify.Notifier, logger *slog.Logger) *Store {
	if logger == nil {
		logger = slog.Default()
	}

	s := &Store{
		key:       key,
		persister: persister,
		notifier:  notifier,
		logger:    logger.With(slog.String("cart_key", key)),
	}

	s.hydrate(ctx)

	return s
}

func (s *Store) hydrate(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.persister != nil {
		persisted, err := s.persister.Load(ctx, s.key)

		switch {
		case err != nil:
			s.logger.Warn("discarding unreadable persisted cart", slog.String("error", err.Error()))
		case persisted != nil:
			s.items = persisted.Items
		}
	}

	s.recompute()

	s.isOpen = false
	s.hydrated = true
}

// recompute derives total and itemCount fresh from the item list. Callers
// must hold the mutex.
func (s *Store) recompute() {
	s.total = calculateTotal(s.items)
	s.itemCount = calculateItemCount(s.items)
}

func calculateTotal(items []models.CartItem) float64 {
	var total float64

	for _, item := range items {
		total += item.LineTotal()
	}

	return total
}

func calculateItemCount(items []models.CartItem) int {
	var count int

	for _, item := range items {
		count += item.Quantity
	}

	return count
}

func (s *Store) indexOf(productID int64) int {
	for i, item := range s.items {
		if item.ProductID == productID {
			return i
		}
	}

	return -1
}

// persist writes the committed state. Persistence failures never roll back a
// committed mutation; they are logged and the in-memory state stands.
func (s *Store) persist(ctx context.Context) {
	if s.persister == nil {
		return
	}

	blob := PersistedCart{Items: s.items, Total: s.total, ItemCount: s.itemCount}

	if err := s.persister.Save(ctx, s.key, blob); err != nil {
		s.logger.Warn("failed to persist cart", slog.String("error", err.Error()))
	}
}

// AddItem creates or grows a line item for the product. The requested
// quantity defaults to 1. The mutation is rejected without any state change
// when it would exceed the product's current stock; on success the line's
// stock snapshot is refreshed to the product's current value.
func (s *Store) AddItem(ctx context.Context, producto models.Producto, quantity int) error {
	if quantity < 1 {
		quantity = 1
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if producto.Stock < quantity {
		metrics.CartMutation("add", "rejected")
		s.warn(fmt.Sprintf("Only %d units of %s are available", producto.Stock, producto.Nombre))

		return errors.StockViolationError(fmt.Sprintf("only %d units available", producto.Stock))
	}

	if idx := s.indexOf(producto.ID); idx >= 0 {
		newQuantity := s.items[idx].Quantity + quantity
		if newQuantity > producto.Stock {
			metrics.CartMutation("add", "rejected")
			s.warn(fmt.Sprintf("You cannot add more than %d units of %s", producto.Stock, producto.Nombre))

			return errors.StockViolationError(fmt.Sprintf("cannot add more than %d units", producto.Stock))
		}

		s.items[idx].Quantity = newQuantity
		s.items[idx].AvailableStock = producto.Stock
		s.recompute()
		s.persist(ctx)

		metrics.CartMutation("add", "ok")
		s.success(fmt.Sprintf("%s updated in cart", producto.Nombre))

		return nil
	}

	s.items = append(s.items, models.CartItem{
		ProductID:      producto.ID,
		Name:           producto.Nombre,
		UnitPrice:      producto.Precio,
		AvailableStock: producto.Stock,
		ImageURL:       producto.ImagenURL,
		Quantity:       quantity,
	})
	s.recompute()
	s.persist(ctx)

	metrics.CartMutation("add", "ok")
	s.success(fmt.Sprintf("%s added to cart", producto.Nombre))

	return nil
}

// RemoveItem drops the line unconditionally. Removing an absent product is a
// silent no-op: no error, no notification, no persistence write.
func (s *Store) RemoveItem(ctx context.Context, productID int64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return
	}

	name := s.items[idx].Name
	s.items = append(s.items[:idx], s.items[idx+1:]...)
	s.recompute()
	s.persist(ctx)

	metrics.CartMutation("remove", "ok")
	s.success(fmt.Sprintf("%s removed from cart", name))
}

// UpdateQuantity sets a line's quantity. Zero or negative is equivalent to
// removal; a quantity above the line's stock snapshot is rejected with no
// state change.
func (s *Store) UpdateQuantity(ctx context.Context, productID int64, quantity int) error {
	if quantity <= 0 {
		s.RemoveItem(ctx, productID)

		return nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	idx := s.indexOf(productID)
	if idx < 0 {
		return nil
	}

	if quantity > s.items[idx].AvailableStock {
		metrics.CartMutation("update", "rejected")
		s.warn(fmt.Sprintf("Only %d units of %s are available", s.items[idx].AvailableStock, s.items[idx].Name))

		return errors.StockViolationError(fmt.Sprintf("only %d units available", s.items[idx].AvailableStock))
	}

	s.items[idx].Quantity = quantity
	s.recompute()
	s.persist(ctx)

	metrics.CartMutation("update", "ok")

	return nil
}

// Clear empties the cart.
func (s *Store) Clear(ctx context.Context) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.items = nil
	s.recompute()
	s.persist(ctx)

	metrics.CartMutation("clear", "ok")
	s.success("Cart emptied")
}

// ToggleOpen, Open and Close mutate only the ephemeral UI flag; they never
// touch persisted state.
func (s *Store) ToggleOpen() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isOpen = !s.isOpen
}

func (s *Store) Open() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isOpen = true
}

func (s *Store) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.isOpen = false
}

func (s *Store) GetItemQuantity(productID int64) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if idx := s.indexOf(productID); idx >= 0 {
		return s.items[idx].Quantity
	}

	return 0
}

func (s *Store) IsInCart(productID int64) bool {
	return s.GetItemQuantity(productID) > 0
}

func (s *Store) IsEmpty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.items) == 0
}

func (s *Store) Total() float64 {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.total
}

func (s *Store) ItemCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.itemCount
}

func (s *Store) FormattedTotal() string {
	return currency.FormatGTQ(s.Total())
}

// HasHydrated reports whether the persisted state finished loading. UI logic
// that depends on a reliable snapshot, like the checkout empty-cart guard,
// must wait for it.
func (s *Store) HasHydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.hydrated
}

// Snapshot returns a defensive copy of the current cart state.
func (s *Store) Snapshot() models.CartSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	items := make([]models.CartItem, len(s.items))
	copy(items, s.items)

	return models.CartSnapshot{
		Items:     items,
		Total:     s.total,
		ItemCount: s.itemCount,
		IsOpen:    s.isOpen,
	}
}

func (s *Store) success(message string) {
	if s.notifier != nil {
		s.notifier.Success(message)
	}
}

func (s *Store) warn(message string) {
	if s.notifier != nil {
		s.notifier.Warning(message)
	}
}
