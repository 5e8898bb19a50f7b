package storefront

import (
	"sort"
	"strings"

	"github.com/andrey-berenda/storefront/internal/pkg/models"
)

type Catalog struct {
	products []models.Product
	byID     map[string]models.Product
}

func NewCatalog(products []models.Product) *Catalog {
	c := &Catalog{
		products: products,
		byID:     make(map[string]models.Product, len(products)),
	}
	for _, p := range products {
		c.byID[p.ID] = p
	}
	return c
}

func (c *Catalog) Get(id string) (models.Product, bool) {
	p, ok := c.byID[id]
	return p, ok
}

// Filter keeps catalogue order. An empty query or category matches everything.
func (c *Catalog) Filter(query, category string) []models.Product {
	query = strings.ToLower(strings.TrimSpace(query))
	var result []models.Product
	for _, p := range c.products {
		if category != "" && !strings.EqualFold(p.Category, category) {
			continue
		}
		if query != "" && !strings.Contains(strings.ToLower(p.Name), query) {
			continue
		}
		result = append(result, p)
	}
	return result
}

func (c *Catalog) Categories() []string {
	seen := map[string]struct{}{}
	var result []string
	for _, p := range c.products {
		if p.Category == "" {
			continue
		}
		if _, ok := seen[p.Category]; ok {
			continue
		}
		seen[p.Category] = struct{}{}
		result = append(result, p.Category)
	}
	sort.Strings(result)
	return result
}
