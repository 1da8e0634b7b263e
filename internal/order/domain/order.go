package domain

import (
	"strings"
	"time"
)

// Orders move forward one step at a time and never go back.
const (
	StatusPending   = "PENDING"
	StatusPreparing = "PREPARING"
	StatusShipped   = "SHIPPED"
	StatusDelivered = "DELIVERED"
)

var nextStatus = map[string]string{
	StatusPending:   StatusPreparing,
	StatusPreparing: StatusShipped,
	StatusShipped:   StatusDelivered,
}

// NextStatus returns the status an order moves to when processed. Delivered
// orders have none.
func NextStatus(status string) (string, bool) {
	next, ok := nextStatus[status]
	return next, ok
}

func ValidStatus(status string) bool {
	_, ok := nextStatus[status]
	return ok || status == StatusDelivered
}

type PaymentMethod string

const (
	PaymentCOD    PaymentMethod = "COD"
	PaymentOnline PaymentMethod = "ONLINE"
)

// ParsePaymentMethod accepts either method case-insensitively.
func ParsePaymentMethod(s string) (PaymentMethod, bool) {
	switch PaymentMethod(strings.ToUpper(strings.TrimSpace(s))) {
	case PaymentCOD:
		return PaymentCOD, true
	case PaymentOnline:
		return PaymentOnline, true
	}
	return "", false
}

type ShippingInfo struct {
	Address string `json:"address"`
	City    string `json:"city"`
	Country string `json:"country"`
	PinCode string `json:"pin_code"`
}

func (s ShippingInfo) Complete() bool {
	return strings.TrimSpace(s.Address) != "" &&
		strings.TrimSpace(s.City) != "" &&
		strings.TrimSpace(s.Country) != "" &&
		strings.TrimSpace(s.PinCode) != ""
}

type Order struct {
	ID              string        `json:"id"`
	UserID          string        `json:"user_id"`
	Status          string        `json:"status"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	Shipping        ShippingInfo  `json:"shipping"`
	Currency        string        `json:"currency"`
	ItemsPrice      int64         `json:"items_price"`
	TaxPrice        int64         `json:"tax_price"`
	ShippingCharges int64         `json:"shipping_charges"`
	TotalAmount     int64         `json:"total_amount"`
	OrderItems      []OrderItem   `json:"items"`
	CreatedAt       time.Time     `json:"created_at"`
	UpdatedAt       time.Time     `json:"updated_at"`
}

type OrderItem struct {
	ID              string `json:"id"`
	OrderID         string `json:"order_id"`
	ProductID       string `json:"product_id"`
	Name            string `json:"name"`
	ImageRef        string `json:"image_ref,omitempty"`
	UnitAmount      int64  `json:"unit_amount"`
	Quantity        int32  `json:"quantity"`
	LineTotalAmount int64  `json:"line_total_amount"`
}

type CreateOrderRequest struct {
	UserID          string
	Currency        string
	PaymentMethod   PaymentMethod
	Shipping        ShippingInfo
	TaxPrice        int64
	ShippingCharges int64
	// TotalAmount is the total the caller showed the buyer; zero skips the check.
	TotalAmount int64
	Items       []OrderItemRequest
}

type OrderItemRequest struct {
	ProductID  string
	Name       string
	ImageRef   string
	UnitAmount int64
	Quantity   int32
}
