package model

import (
	"strings"
	"time"

	"zervos/internal/schedule"
)

// Service is a bookable offering.
type Service struct {
	ID               string                  `json:"id"`
	WorkspaceID      string                  `json:"workspace_id"`
	Name             string                  `json:"name"`
	Description      string                  `json:"description,omitempty"`
	Category         string                  `json:"category,omitempty"`
	Price            int64                   `json:"price"` // minor units
	DurationMinutes  int                     `json:"duration_minutes"`
	Active           bool                    `json:"active"`
	Availability     schedule.WeeklySchedule `json:"availability,omitempty"`
	Breaks           schedule.BreakMap       `json:"breaks,omitempty"`
	AssignedMemberID string                  `json:"assigned_member_id,omitempty"`
	CreatedAt        time.Time               `json:"created_at"`
	UpdatedAt        time.Time               `json:"updated_at"`
}

// Product is a retail item sold at the register.
type Product struct {
	ID          string    `json:"id"`
	WorkspaceID string    `json:"workspace_id"`
	Name        string    `json:"name"`
	SKU         string    `json:"sku,omitempty"`
	Category    string    `json:"category,omitempty"`
	Price       int64     `json:"price"`
	Stock       int       `json:"stock"`
	Active      bool      `json:"active"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// TeamMember is a service provider with an optional personal schedule.
type TeamMember struct {
	ID          string                  `json:"id"`
	WorkspaceID string                  `json:"workspace_id"`
	Name        string                  `json:"name"`
	Email       string                  `json:"email,omitempty"`
	Phone       string                  `json:"phone,omitempty"`
	Role        string                  `json:"role,omitempty"`
	Schedule    schedule.WeeklySchedule `json:"schedule,omitempty"`
	Active      bool                    `json:"active"`
	CreatedAt   time.Time               `json:"created_at"`
	UpdatedAt   time.Time               `json:"updated_at"`
}

// Customer accumulates spend and loyalty points across visits.
type Customer struct {
	ID            string     `json:"id"`
	WorkspaceID   string     `json:"workspace_id"`
	Name          string     `json:"name"`
	Phone         string     `json:"phone"`
	Email         string     `json:"email,omitempty"`
	TotalSpent    int64      `json:"total_spent"`
	LoyaltyPoints int64      `json:"loyalty_points"`
	Visits        int        `json:"visits"`
	Tier          string     `json:"tier"`
	LastVisit     *time.Time `json:"last_visit,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// Validate checks a service definition.
func (s *Service) Validate() error {
	s.Name = strings.TrimSpace(s.Name)
	if s.Name == "" {
		return Invalid("service name is required")
	}
	if s.Price < 0 {
		return Invalid("price cannot be negative")
	}
	if s.DurationMinutes < 0 {
		return Invalid("duration cannot be negative")
	}
	if err := schedule.ValidateWeek(s.Availability, "availability"); err != nil {
		return Invalid("%v", err)
	}
	if err := schedule.ValidateBreaks(s.Breaks, "breaks"); err != nil {
		return Invalid("%v", err)
	}
	return nil
}

// Validate checks a product definition.
func (p *Product) Validate() error {
	p.Name = strings.TrimSpace(p.Name)
	if p.Name == "" {
		return Invalid("product name is required")
	}
	if p.Price < 0 {
		return Invalid("price cannot be negative")
	}
	if p.Stock < 0 {
		return Invalid("stock cannot be negative")
	}
	return nil
}

// Validate checks a team member.
func (m *TeamMember) Validate() error {
	m.Name = strings.TrimSpace(m.Name)
	if m.Name == "" {
		return Invalid("member name is required")
	}
	if err := schedule.ValidateWeek(m.Schedule, "schedule"); err != nil {
		return Invalid("%v", err)
	}
	return nil
}
