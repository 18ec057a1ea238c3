// Package pos keeps point-of-sale register sessions and performs checkout.
package pos

import (
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"zervos/internal/model"
	"zervos/internal/pricing"
)

var (
	ErrTabNotFound  = errors.New("tab not found")
	ErrItemNotFound = errors.New("cart item not found")
	ErrEmptyCart    = errors.New("cart is empty")
)

// Tab is one customer's cart at a register.
type Tab struct {
	ID            string               `json:"id"`
	Name          string               `json:"name"`
	Items         []pricing.Item       `json:"items"`
	CustomerName  string               `json:"customer_name,omitempty"`
	CustomerPhone string               `json:"customer_phone,omitempty"`
	CustomerEmail string               `json:"customer_email,omitempty"`
	StaffName     string               `json:"staff_name,omitempty"`
	DiscountType  pricing.DiscountType `json:"discount_type,omitempty"`
	DiscountValue string               `json:"discount_value,omitempty"`
	PaymentMethod string               `json:"payment_method,omitempty"`
	CreatedAt     time.Time            `json:"created_at"`
}

// Register holds the open tabs of one POS terminal. Exactly one tab is active.
type Register struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Tabs        []Tab     `json:"tabs"`
	ActiveID    string    `json:"active_id"`
	Opened      int       `json:"opened"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// NewRegister returns a register with a single empty tab.
func NewRegister(workspaceID, id string) *Register {
	r := &Register{ID: id, WorkspaceID: workspaceID}
	r.NewTab()
	return r
}

// NewTab opens an empty tab and makes it active.
func (r *Register) NewTab() *Tab {
	r.Opened++
	r.Tabs = append(r.Tabs, Tab{
		ID:        uuid.NewString(),
		Name:      fmt.Sprintf("Tab %d", r.Opened),
		Items:     []pricing.Item{},
		CreatedAt: time.Now().UTC(),
	})
	t := &r.Tabs[len(r.Tabs)-1]
	r.ActiveID = t.ID
	return t
}

func (r *Register) index(id string) int {
	for i := range r.Tabs {
		if r.Tabs[i].ID == id {
			return i
		}
	}
	return -1
}

// Active returns the active tab, repairing a dangling active ID.
func (r *Register) Active() *Tab {
	if len(r.Tabs) == 0 {
		return r.NewTab()
	}
	i := r.index(r.ActiveID)
	if i < 0 {
		i = 0
		r.ActiveID = r.Tabs[0].ID
	}
	return &r.Tabs[i]
}

// Switch makes tab id active.
func (r *Register) Switch(id string) error {
	if r.index(id) < 0 {
		return ErrTabNotFound
	}
	r.ActiveID = id
	return nil
}

// Close removes a tab. Closing the active tab promotes the next tab, or the
// previous one when it was last. Closing the only tab leaves a fresh one.
func (r *Register) Close(id string) error {
	i := r.index(id)
	if i < 0 {
		return ErrTabNotFound
	}
	wasActive := r.ActiveID == id
	r.Tabs = append(r.Tabs[:i], r.Tabs[i+1:]...)

	if len(r.Tabs) == 0 {
		r.NewTab()
		return nil
	}
	if wasActive {
		if i >= len(r.Tabs) {
			i = len(r.Tabs) - 1
		}
		r.ActiveID = r.Tabs[i].ID
	}
	return nil
}

// AddItem adds to the active cart, merging lines with the same item and assignee.
func (r *Register) AddItem(item pricing.Item) error {
	if item.ID == "" {
		return model.Invalid("item id is required")
	}
	if item.Price < 0 {
		return model.Invalid("item price cannot be negative")
	}
	if item.Quantity < 1 {
		item.Quantity = 1
	}

	t := r.Active()
	for i := range t.Items {
		if t.Items[i].ID == item.ID && t.Items[i].AssignedPerson == item.AssignedPerson {
			t.Items[i].Quantity += item.Quantity
			return nil
		}
	}
	t.Items = append(t.Items, item)
	return nil
}

// SetQuantity changes a line quantity; zero or less removes the line.
func (r *Register) SetQuantity(itemID, assignee string, qty int) error {
	if qty <= 0 {
		return r.Remove(itemID, assignee)
	}
	t := r.Active()
	for i := range t.Items {
		if t.Items[i].ID == itemID && t.Items[i].AssignedPerson == assignee {
			t.Items[i].Quantity = qty
			return nil
		}
	}
	return ErrItemNotFound
}

// Remove drops a cart line.
func (r *Register) Remove(itemID, assignee string) error {
	t := r.Active()
	for i := range t.Items {
		if t.Items[i].ID == itemID && t.Items[i].AssignedPerson == assignee {
			t.Items = append(t.Items[:i], t.Items[i+1:]...)
			return nil
		}
	}
	return ErrItemNotFound
}

// Clear empties the active cart.
func (r *Register) Clear() {
	r.Active().Items = []pricing.Item{}
}

func (r *Register) SetCustomer(name, phone, email string) {
	t := r.Active()
	t.CustomerName, t.CustomerPhone, t.CustomerEmail = name, phone, email
}

func (r *Register) SetDiscount(kind pricing.DiscountType, value string) error {
	switch kind {
	case pricing.DiscountNone, pricing.DiscountPercentage, pricing.DiscountFixed:
	default:
		return model.Invalid("unknown discount type %q", kind)
	}
	t := r.Active()
	t.DiscountType, t.DiscountValue = kind, value
	return nil
}

func (r *Register) SetStaff(name string) {
	r.Active().StaffName = name
}

func (r *Register) SetPaymentMethod(method string) {
	r.Active().PaymentMethod = method
}

// reset clears everything on the active tab but keeps its identity and staff.
func (r *Register) reset() {
	t := r.Active()
	*t = Tab{
		ID:        t.ID,
		Name:      t.Name,
		Items:     []pricing.Item{},
		StaffName: t.StaffName,
		CreatedAt: time.Now().UTC(),
	}
}
