package cart

import (
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/spaghettifunk/atelier/engine/catalog"
	"github.com/spaghettifunk/atelier/engine/core"
	"github.com/spaghettifunk/atelier/engine/store"
)

const (
	taxRate               = 0.10
	flatShippingCost      = 10.0
	freeShippingThreshold = 100.0
)

// LineItem is one cart entry. Items with the same garment, color value, and
// size merge into a single line.
type LineItem struct {
	ID        string           `json:"id"`
	GarmentID string           `json:"garment_id"`
	Name      string           `json:"name"`
	Brand     string           `json:"brand,omitempty"`
	Category  catalog.Category `json:"category"`
	Price     float64          `json:"price"`
	Color     catalog.Swatch   `json:"color"`
	Size      string           `json:"size,omitempty"`
	Quantity  int              `json:"quantity"`
	AvatarRef string           `json:"avatar_ref,omitempty"`
	AddedAt   time.Time        `json:"added_at"`
}

// Totals is the priced summary of the cart. Shipping is a flat rate, waived
// above the free-shipping threshold.
type Totals struct {
	Subtotal float64
	Tax      float64
	Shipping float64
	Total    float64
	Items    int
}

/**
 * @brief Cart holds the shopper's selected garments, persisted as JSON in
 * the durable store so the contents survive restarts.
 */
type Cart struct {
	mu    sync.Mutex
	store store.Store
	items []LineItem
}

// New creates a Cart hydrated from the store. Corrupted persisted contents
// are logged and discarded; the cart starts empty rather than failing.
func New(s store.Store) *Cart {
	c := &Cart{store: s}
	raw, ok, err := s.Get(store.KeyCart)
	if err != nil {
		core.LogError("cart: failed to hydrate: %s", err.Error())
		return c
	}
	if !ok {
		return c
	}
	if err := json.Unmarshal([]byte(raw), &c.items); err != nil {
		core.LogWarn("cart: discarding corrupted persisted contents: %s", err.Error())
		c.items = nil
	}
	return c
}

// Add puts a garment in the cart, tagged with the avatar reference it was
// tried on against. An existing line with the same garment, color, and size
// has its quantity bumped instead.
func (c *Cart) Add(g catalog.GarmentDescriptor, color catalog.Swatch, size, avatarRef string) (LineItem, error) {
	c.mu.Lock()
	for i := range c.items {
		it := &c.items[i]
		if it.GarmentID == g.ID && it.Color.Value == color.Value && it.Size == size {
			it.Quantity++
			line := *it
			err := c.persistLocked()
			c.mu.Unlock()
			c.changed()
			return line, err
		}
	}

	line := LineItem{
		ID:        uuid.NewString(),
		GarmentID: g.ID,
		Name:      g.Name,
		Brand:     g.Brand,
		Category:  g.Category,
		Price:     g.Price,
		Color:     color,
		Size:      size,
		Quantity:  1,
		AvatarRef: avatarRef,
		AddedAt:   time.Now().UTC(),
	}
	c.items = append(c.items, line)
	err := c.persistLocked()
	c.mu.Unlock()
	c.changed()
	return line, err
}

// UpdateQuantity sets a line's quantity. Zero or negative removes the line.
func (c *Cart) UpdateQuantity(id string, quantity int) error {
	c.mu.Lock()
	idx := c.indexLocked(id)
	if idx < 0 {
		c.mu.Unlock()
		return fmt.Errorf("cart: no line item %s", id)
	}
	if quantity <= 0 {
		c.items = append(c.items[:idx], c.items[idx+1:]...)
	} else {
		c.items[idx].Quantity = quantity
	}
	err := c.persistLocked()
	c.mu.Unlock()
	c.changed()
	return err
}

// Remove deletes a line item.
func (c *Cart) Remove(id string) error {
	return c.UpdateQuantity(id, 0)
}

// Clear empties the cart.
func (c *Cart) Clear() error {
	c.mu.Lock()
	c.items = nil
	err := c.persistLocked()
	c.mu.Unlock()
	c.changed()
	return err
}

// Items returns a copy of the cart lines in insertion order.
func (c *Cart) Items() []LineItem {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]LineItem, len(c.items))
	copy(out, c.items)
	return out
}

// Len returns the number of distinct lines.
func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.items)
}

// Totals prices the cart.
func (c *Cart) Totals() Totals {
	c.mu.Lock()
	defer c.mu.Unlock()

	var t Totals
	for _, it := range c.items {
		t.Subtotal += it.Price * float64(it.Quantity)
		t.Items += it.Quantity
	}
	t.Tax = t.Subtotal * taxRate
	if t.Subtotal > 0 && t.Subtotal <= freeShippingThreshold {
		t.Shipping = flatShippingCost
	}
	t.Total = t.Subtotal + t.Tax + t.Shipping
	return t
}

func (c *Cart) indexLocked(id string) int {
	for i, it := range c.items {
		if it.ID == id {
			return i
		}
	}
	return -1
}

func (c *Cart) persistLocked() error {
	data, err := json.Marshal(c.items)
	if err != nil {
		return err
	}
	if err := c.store.Put(store.KeyCart, string(data)); err != nil {
		core.LogError("cart: persist failed: %s", err.Error())
		return err
	}
	return nil
}

func (c *Cart) changed() {
	core.EventFire(core.EventContext{Type: core.EVENT_CODE_CART_CHANGED})
}
