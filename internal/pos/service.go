package pos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"zervos/internal/db"
	"zervos/internal/events"
	"zervos/internal/metrics"
	"zervos/internal/model"
	"zervos/internal/pricing"
)

// SaleRepository is the persistence Checkout needs.
type SaleRepository interface {
	GetCustomerByPhone(ctx context.Context, workspaceID, phone string) (*model.Customer, error)
	RecordSale(ctx context.Context, t *model.Transaction, c *model.Customer) error
}

// CartUpdate replaces the editable state of the active tab.
type CartUpdate struct {
	Items         []pricing.Item       `json:"items"`
	CustomerName  string               `json:"customer_name"`
	CustomerPhone string               `json:"customer_phone"`
	CustomerEmail string               `json:"customer_email"`
	StaffName     string               `json:"staff_name"`
	DiscountType  pricing.DiscountType `json:"discount_type"`
	DiscountValue string               `json:"discount_value"`
	PaymentMethod string               `json:"payment_method"`
}

// Service coordinates register sessions and checkout.
type Service struct {
	store  Store
	repo   SaleRepository
	calc   pricing.Calculator
	tiers  []pricing.Tier
	bus    *events.Bus
	logger *zerolog.Logger
	now    func() time.Time

	// serializes read-modify-write of a register
	mu sync.Mutex
}

func NewService(store Store, repo SaleRepository, calc pricing.Calculator, tiers []pricing.Tier, bus *events.Bus, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if len(tiers) == 0 {
		tiers = pricing.DefaultTiers
	}
	l := logger.With().Str("component", "pos").Logger()
	return &Service{
		store:  store,
		repo:   repo,
		calc:   calc,
		tiers:  tiers,
		bus:    bus,
		logger: &l,
		now:    time.Now,
	}
}

// Quote prices items without touching any register.
func (s *Service) Quote(items []pricing.Item, kind pricing.DiscountType, value string) pricing.Quote {
	return s.calc.Quote(items, kind, value)
}

// Register returns the current register state.
func (s *Service) Register(ctx context.Context, workspaceID, registerID string) (*Register, error) {
	return s.store.Load(ctx, workspaceID, registerID)
}

func (s *Service) update(ctx context.Context, workspaceID, registerID string, fn func(r *Register) error) (*Register, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.store.Load(ctx, workspaceID, registerID)
	if err != nil {
		return nil, err
	}
	if err := fn(r); err != nil {
		return nil, err
	}
	r.UpdatedAt = s.now().UTC()
	if err := s.store.Save(ctx, r); err != nil {
		return nil, err
	}
	return r, nil
}

func (s *Service) NewTab(ctx context.Context, workspaceID, registerID string) (*Register, error) {
	return s.update(ctx, workspaceID, registerID, func(r *Register) error {
		r.NewTab()
		return nil
	})
}

func (s *Service) ActivateTab(ctx context.Context, workspaceID, registerID, tabID string) (*Register, error) {
	return s.update(ctx, workspaceID, registerID, func(r *Register) error {
		return r.Switch(tabID)
	})
}

func (s *Service) CloseTab(ctx context.Context, workspaceID, registerID, tabID string) (*Register, error) {
	return s.update(ctx, workspaceID, registerID, func(r *Register) error {
		return r.Close(tabID)
	})
}

// UpdateCart replaces the active tab's cart, customer, staff and discount.
func (s *Service) UpdateCart(ctx context.Context, workspaceID, registerID string, u CartUpdate) (*Register, error) {
	return s.update(ctx, workspaceID, registerID, func(r *Register) error {
		r.Clear()
		for _, it := range u.Items {
			if err := r.AddItem(it); err != nil {
				return err
			}
		}
		if err := r.SetDiscount(u.DiscountType, u.DiscountValue); err != nil {
			return err
		}
		r.SetCustomer(strings.TrimSpace(u.CustomerName), strings.TrimSpace(u.CustomerPhone), strings.TrimSpace(u.CustomerEmail))
		r.SetStaff(strings.TrimSpace(u.StaffName))
		r.SetPaymentMethod(u.PaymentMethod)
		return nil
	})
}

// Checkout settles the active tab: it records the sale, credits the customer
// and clears the tab.
func (s *Service) Checkout(ctx context.Context, workspaceID, registerID string) (*model.Transaction, error) {
	var sale *model.Transaction
	_, err := s.update(ctx, workspaceID, registerID, func(r *Register) error {
		t := r.Active()
		if err := validateTab(t); err != nil {
			return err
		}

		now := s.now().UTC()
		customer, err := s.repo.GetCustomerByPhone(ctx, workspaceID, t.CustomerPhone)
		if errors.Is(err, db.ErrNotFound) {
			customer = &model.Customer{WorkspaceID: workspaceID, Phone: t.CustomerPhone}
		} else if err != nil {
			return fmt.Errorf("lookup customer: %w", err)
		}

		quote := s.calc.Quote(t.Items, t.DiscountType, t.DiscountValue)
		// Points accrue at the tier earned by spend before this sale.
		tier := pricing.TierFor(customer.TotalSpent, s.tiers)
		points := pricing.PointsEarned(quote.Total, tier)

		customer.Name = t.CustomerName
		if t.CustomerEmail != "" {
			customer.Email = t.CustomerEmail
		}
		customer.TotalSpent += quote.Total
		customer.LoyaltyPoints += points
		customer.Visits++
		customer.LastVisit = &now
		customer.Tier = pricing.TierFor(customer.TotalSpent, s.tiers).Name

		payment := t.PaymentMethod
		if payment == "" {
			payment = "cash"
		}
		sale = &model.Transaction{
			WorkspaceID:   workspaceID,
			RegisterID:    registerID,
			CustomerName:  t.CustomerName,
			CustomerPhone: t.CustomerPhone,
			StaffName:     t.StaffName,
			PaymentMethod: payment,
			Items:         append([]pricing.Item(nil), t.Items...),
			DiscountType:  t.DiscountType,
			DiscountValue: t.DiscountValue,
			Quote:         quote,
			PointsEarned:  points,
			Tier:          tier.Name,
			CreatedAt:     now,
		}
		if err := s.repo.RecordSale(ctx, sale, customer); err != nil {
			return fmt.Errorf("record sale: %w", err)
		}

		r.reset()
		return nil
	})
	if err != nil {
		metrics.ObserveCheckout("failed", 0)
		return nil, err
	}

	metrics.ObserveCheckout("success", sale.Total)
	s.logger.Info().
		Str("workspace", workspaceID).
		Str("transaction", sale.ID).
		Int64("total", sale.Total).
		Msg("checkout completed")

	if s.bus != nil {
		if hasKind(sale.Items, "product") {
			s.bus.Notify(events.ProductsUpdated, workspaceID)
		}
		s.bus.Notify(events.BookingsUpdated, workspaceID)
	}
	return sale, nil
}

func validateTab(t *Tab) error {
	if len(t.Items) == 0 {
		return ErrEmptyCart
	}
	if strings.TrimSpace(t.CustomerName) == "" {
		return model.Invalid("customer name is required")
	}
	if strings.TrimSpace(t.CustomerPhone) == "" {
		return model.Invalid("customer phone is required")
	}
	if strings.TrimSpace(t.StaffName) == "" {
		return model.Invalid("staff name is required")
	}
	return nil
}

func hasKind(items []pricing.Item, kind string) bool {
	for _, it := range items {
		if it.Kind == kind {
			return true
		}
	}
	return false
}
