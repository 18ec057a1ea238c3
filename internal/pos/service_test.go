package pos

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"zervos/internal/db"
	"zervos/internal/events"
	"zervos/internal/model"
	"zervos/internal/pricing"
)

type mockRepo struct {
	mock.Mock
}

func (m *mockRepo) GetCustomerByPhone(ctx context.Context, ws, phone string) (*model.Customer, error) {
	args := m.Called(ctx, ws, phone)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*model.Customer), args.Error(1)
}

func (m *mockRepo) RecordSale(ctx context.Context, t *model.Transaction, c *model.Customer) error {
	return m.Called(ctx, t, c).Error(0)
}

func newTestService(repo SaleRepository, bus *events.Bus) *Service {
	s := NewService(NewMemoryStore(), repo, pricing.NewCalculator(18), nil, bus, nil)
	s.now = func() time.Time { return time.Date(2026, 1, 13, 12, 0, 0, 0, time.UTC) }
	return s
}

func fillCart(t *testing.T, s *Service) {
	t.Helper()
	_, err := s.UpdateCart(context.Background(), "ws1", "front", CartUpdate{
		Items: []pricing.Item{
			{ID: "cut", Name: "Haircut", Kind: "service", Price: 50000, Quantity: 1},
			{ID: "oil", Name: "Hair oil", Kind: "product", Price: 25000, Quantity: 2},
		},
		CustomerName:  "Meera",
		CustomerPhone: "555",
		StaffName:     "Asha",
		DiscountType:  pricing.DiscountPercentage,
		DiscountValue: "10",
	})
	require.NoError(t, err)
}

func TestCheckout(t *testing.T) {
	repo := new(mockRepo)
	bus := events.NewBus(nil)
	var topics []string
	bus.SubscribeAll(func(e events.Event) error {
		topics = append(topics, e.Type)
		return nil
	})
	s := newTestService(repo, bus)
	fillCart(t, s)

	existing := &model.Customer{ID: "c1", WorkspaceID: "ws1", Name: "Meera", Phone: "555", TotalSpent: 999900, Visits: 3}
	repo.On("GetCustomerByPhone", mock.Anything, "ws1", "555").Return(existing, nil)
	repo.On("RecordSale", mock.Anything, mock.AnythingOfType("*model.Transaction"), mock.AnythingOfType("*model.Customer")).Return(nil)

	sale, err := s.Checkout(context.Background(), "ws1", "front")
	require.NoError(t, err)

	// 100000 subtotal, 10% off, 18% tax.
	assert.Equal(t, int64(100000), sale.Subtotal)
	assert.Equal(t, int64(10000), sale.Discount)
	assert.Equal(t, int64(16200), sale.Tax)
	assert.Equal(t, int64(106200), sale.Total)
	// Spend before the sale (9999 rupees) is still bronze: 1 point per rupee.
	assert.Equal(t, "bronze", sale.Tier)
	assert.Equal(t, int64(1062), sale.PointsEarned)
	assert.Equal(t, "cash", sale.PaymentMethod)

	assert.Equal(t, 4, existing.Visits)
	assert.Equal(t, int64(999900+106200), existing.TotalSpent)
	assert.Equal(t, "silver", existing.Tier)
	assert.Equal(t, int64(1062), existing.LoyaltyPoints)

	r, err := s.Register(context.Background(), "ws1", "front")
	require.NoError(t, err)
	assert.Empty(t, r.Active().Items)
	assert.Empty(t, r.Active().CustomerName)
	assert.Equal(t, "Asha", r.Active().StaffName)

	assert.Equal(t, []string{events.ProductsUpdated, events.BookingsUpdated}, topics)
	repo.AssertExpectations(t)
}

func TestCheckoutNewCustomer(t *testing.T) {
	repo := new(mockRepo)
	s := newTestService(repo, nil)
	fillCart(t, s)

	repo.On("GetCustomerByPhone", mock.Anything, "ws1", "555").Return(nil, db.ErrNotFound)
	repo.On("RecordSale", mock.Anything, mock.Anything, mock.MatchedBy(func(c *model.Customer) bool {
		return c.Phone == "555" && c.Name == "Meera" && c.Visits == 1
	})).Return(nil)

	_, err := s.Checkout(context.Background(), "ws1", "front")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestCheckoutValidation(t *testing.T) {
	tests := []struct {
		name   string
		update CartUpdate
		want   error
	}{
		{"empty cart", CartUpdate{CustomerName: "M", CustomerPhone: "1", StaffName: "A"}, ErrEmptyCart},
		{"no customer name", CartUpdate{Items: []pricing.Item{{ID: "a", Price: 1}}, CustomerPhone: "1", StaffName: "A"}, model.ErrValidation},
		{"no phone", CartUpdate{Items: []pricing.Item{{ID: "a", Price: 1}}, CustomerName: "M", StaffName: "A"}, model.ErrValidation},
		{"no staff", CartUpdate{Items: []pricing.Item{{ID: "a", Price: 1}}, CustomerName: "M", CustomerPhone: "1"}, model.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			repo := new(mockRepo)
			s := newTestService(repo, nil)
			_, err := s.UpdateCart(context.Background(), "ws1", "front", tt.update)
			require.NoError(t, err)

			_, err = s.Checkout(context.Background(), "ws1", "front")
			assert.ErrorIs(t, err, tt.want)
			repo.AssertNotCalled(t, "RecordSale", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCheckoutRecordFailureKeepsCart(t *testing.T) {
	repo := new(mockRepo)
	s := newTestService(repo, nil)
	fillCart(t, s)

	repo.On("GetCustomerByPhone", mock.Anything, "ws1", "555").Return(nil, db.ErrNotFound)
	repo.On("RecordSale", mock.Anything, mock.Anything, mock.Anything).Return(errors.New("disk full"))

	_, err := s.Checkout(context.Background(), "ws1", "front")
	require.Error(t, err)

	r, err := s.Register(context.Background(), "ws1", "front")
	require.NoError(t, err)
	assert.Len(t, r.Active().Items, 2)
}

func TestQuote(t *testing.T) {
	s := newTestService(new(mockRepo), nil)
	q := s.Quote([]pricing.Item{{ID: "a", Price: 1000, Quantity: 3}}, pricing.DiscountFixed, "5")
	assert.Equal(t, int64(3000), q.Subtotal)
	assert.Equal(t, int64(500), q.Discount)
	assert.Equal(t, int64(450), q.Tax)
	assert.Equal(t, int64(2950), q.Total)
}
