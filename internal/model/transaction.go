package model

import (
	"time"

	"zervos/internal/pricing"
)

// Transaction is a completed POS sale.
type Transaction struct {
	ID            string               `json:"id"`
	WorkspaceID   string               `json:"workspace_id"`
	RegisterID    string               `json:"register_id,omitempty"`
	CustomerID    string               `json:"customer_id,omitempty"`
	CustomerName  string               `json:"customer_name"`
	CustomerPhone string               `json:"customer_phone"`
	StaffName     string               `json:"staff_name"`
	PaymentMethod string               `json:"payment_method"`
	Items         []pricing.Item       `json:"items"`
	DiscountType  pricing.DiscountType `json:"discount_type,omitempty"`
	DiscountValue string               `json:"discount_value,omitempty"`
	pricing.Quote
	PointsEarned int64     `json:"points_earned"`
	Tier         string    `json:"tier"`
	CreatedAt    time.Time `json:"created_at"`
}
