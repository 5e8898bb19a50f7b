package models

type Product struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Category string `json:"category"`
	Price    int    `json:"price"`
	MOQ      int    `json:"moq"`
	InStock  bool   `json:"in_stock"`
}

// MinQuantity is the floor enforced on the quantity of a cart line.
func (p Product) MinQuantity() int {
	if p.MOQ < 1 {
		return 1
	}
	return p.MOQ
}
