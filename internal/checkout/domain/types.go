package domain

import "time"

type Money struct {
	Currency string `json:"currency"`
	Amount   int64  `json:"amount"`
}

type QuoteLine struct {
	ProductID string `json:"product_id"`
	Name      string `json:"name"`
	ImageRef  string `json:"image_ref,omitempty"`
	Quantity  int64  `json:"quantity"`
	UnitPrice Money  `json:"unit_price"`
	LineTotal Money  `json:"line_total"`
}

type Breakdown struct {
	Currency        string `json:"currency"`
	ItemsPrice      int64  `json:"items_price"`
	ShippingCharges int64  `json:"shipping_charges"`
	Tax             int64  `json:"tax"`
	TotalAmount     int64  `json:"total_amount"`
}

type Quote struct {
	SessionID     string      `json:"session_id"`
	Lines         []QuoteLine `json:"lines"`
	TotalQuantity int64       `json:"total_quantity"`
	Breakdown     Breakdown   `json:"breakdown"`
}

type ShippingInfo struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
	PinCode string `json:"pin_code"`
}

// Shortage is a cart line the catalog can no longer fill.
type Shortage struct {
	ProductID string `json:"product_id"`
	Requested int64  `json:"requested"`
	Available int64  `json:"available"`
}

// PriceChange is a cart line whose catalog price moved after it was added.
type PriceChange struct {
	ProductID string `json:"product_id"`
	Quoted    Money  `json:"quoted"`
	Current   Money  `json:"current"`
}

type PlacedOrder struct {
	OrderID     string    `json:"order_id"`
	Status      string    `json:"status"`
	TotalAmount int64     `json:"total_amount"`
	Currency    string    `json:"currency"`
	CreatedAt   time.Time `json:"created_at"`
}
