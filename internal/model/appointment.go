package model

import "time"

// AppointmentStatus is the lifecycle state of an appointment.
type AppointmentStatus string

const (
	AppointmentScheduled AppointmentStatus = "scheduled"
	AppointmentCompleted AppointmentStatus = "completed"
	AppointmentCancelled AppointmentStatus = "cancelled"
)

// Appointment is a booked service slot.
type Appointment struct {
	ID            string            `json:"id"`
	WorkspaceID   string            `json:"workspace_id"`
	ServiceID     string            `json:"service_id"`
	ServiceName   string            `json:"service_name"`
	MemberID      string            `json:"member_id,omitempty"`
	SlotID        string            `json:"slot_id,omitempty"`
	CustomerName  string            `json:"customer_name"`
	CustomerPhone string            `json:"customer_phone"`
	CustomerEmail string            `json:"customer_email,omitempty"`
	Notes         string            `json:"notes,omitempty"`
	Price         int64             `json:"price"`
	StartTime     time.Time         `json:"start_time"`
	EndTime       time.Time         `json:"end_time"`
	Status        AppointmentStatus `json:"status"`
	Source        string            `json:"source"`
	CreatedAt     time.Time         `json:"created_at"`
	UpdatedAt     time.Time         `json:"updated_at"`
}

// Duration returns the appointment length.
func (a *Appointment) Duration() time.Duration {
	return a.EndTime.Sub(a.StartTime)
}

// OverlapsWith reports whether both appointments share time. Intervals are half-open.
func (a *Appointment) OverlapsWith(other *Appointment) bool {
	return a.StartTime.Before(other.EndTime) && other.StartTime.Before(a.EndTime)
}

// IsActive reports whether the appointment still holds its slot.
func (a *Appointment) IsActive() bool {
	return a.Status != AppointmentCancelled
}
