package storefront

import (
	"errors"
	"fmt"
	"sync"

	"github.com/andrey-berenda/storefront/internal/pkg/models"
)

var (
	ErrOutOfStock  = errors.New("product is out of stock")
	ErrNotInCart   = errors.New("product is not in the cart")
	ErrEmptyCart   = errors.New("cart is empty")
	ErrBelowMOQ    = errors.New("quantity is below the minimum order quantity")
	ErrBadQuantity = errors.New("quantity must be positive")
)

// Cart is safe for concurrent use: a confirmed payment clears it from the
// poll goroutine.
type Cart struct {
	mu    sync.Mutex
	lines []models.CartLine
	moq   map[string]int
}

func (c *Cart) index(productID string) int {
	for i, l := range c.lines {
		if l.ProductID == productID {
			return i
		}
	}
	return -1
}

// Add puts qty units of p in the cart, raising the line to the product MOQ.
func (c *Cart) Add(p models.Product, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !p.InStock {
		return fmt.Errorf("%s: %w", p.ID, ErrOutOfStock)
	}
	if qty < 1 {
		return ErrBadQuantity
	}
	if c.moq == nil {
		c.moq = map[string]int{}
	}
	c.moq[p.ID] = p.MinQuantity()

	if i := c.index(p.ID); i >= 0 {
		c.lines[i].Quantity += qty
		return nil
	}
	if qty < p.MinQuantity() {
		qty = p.MinQuantity()
	}
	c.lines = append(c.lines, models.CartLine{
		ProductID: p.ID,
		Name:      p.Name,
		Quantity:  qty,
		UnitPrice: p.Price,
	})
	return nil
}

func (c *Cart) SetQuantity(productID string, qty int) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(productID)
	if i < 0 {
		return ErrNotInCart
	}
	if floor := c.moq[productID]; qty < floor {
		return fmt.Errorf("%s: %d < %d: %w", productID, qty, floor, ErrBelowMOQ)
	}
	if qty < 1 {
		return ErrBadQuantity
	}
	c.lines[i].Quantity = qty
	return nil
}

func (c *Cart) Remove(productID string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	i := c.index(productID)
	if i < 0 {
		return ErrNotInCart
	}
	c.lines = append(c.lines[:i], c.lines[i+1:]...)
	delete(c.moq, productID)
	return nil
}

func (c *Cart) Total() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	total := 0
	for _, l := range c.lines {
		total += l.Quantity * l.UnitPrice
	}
	return total
}

func (c *Cart) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.lines)
}

// Snapshot returns a copy of the lines safe to hand to a payment request.
func (c *Cart) Snapshot() []models.CartLine {
	c.mu.Lock()
	defer c.mu.Unlock()
	return append([]models.CartLine(nil), c.lines...)
}

func (c *Cart) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.lines = nil
	c.moq = nil
}
