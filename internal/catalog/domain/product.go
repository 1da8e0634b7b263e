package domain

import "time"

type Money struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

type Product struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    string    `json:"category,omitempty"`
	Price       Money     `json:"price"`
	Stock       int32     `json:"stock"`
	Images      []string  `json:"images,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// PrimaryImage is the image shown in carts and lists.
func (p Product) PrimaryImage() string {
	if len(p.Images) == 0 {
		return ""
	}
	return p.Images[0]
}

func (p Product) InStock() bool {
	return p.Stock > 0
}

// Category groups products. Products refer to a category by name, matched
// without regard to case.
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
}
