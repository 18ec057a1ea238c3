package booking

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
	"zervos/internal/schedule"
	"zervos/internal/slots"
	"zervos/internal/timefmt"
)

// Store is the persistence the booking service needs.
type Store interface {
	Repository
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	GetAppointment(ctx context.Context, workspaceID, id string) (*model.Appointment, error)
	UpdateAppointmentStatus(ctx context.Context, workspaceID, id string, status model.AppointmentStatus) error
	ReserveCapacity(ctx context.Context, workspaceID, slotID string) error
	ReleaseCapacity(ctx context.Context, workspaceID, slotID string) error
}

// Request is a customer's booking request.
type Request struct {
	WorkspaceID   string `json:"-"`
	ServiceID     string `json:"service_id"`
	MemberID      string `json:"member_id,omitempty"`
	Date          string `json:"date"`              // "2026-01-15"
	Time          string `json:"time,omitempty"`    // "10:30 AM" or "10:30"
	SlotID        string `json:"slot_id,omitempty"` // capacity slot, when slot management is on
	CustomerName  string `json:"customer_name"`
	CustomerPhone string `json:"customer_phone"`
	CustomerEmail string `json:"customer_email,omitempty"`
	Notes         string `json:"notes,omitempty"`
	Source        string `json:"source,omitempty"`
}

// Service books and cancels appointments.
type Service struct {
	store     Store
	engine    *Engine
	bus       *events.Bus
	forwarder Forwarder
	logger    *zerolog.Logger
	now       func() time.Time

	// serializes the check-then-insert of a booking
	mu sync.Mutex
	// tracks in-flight forwards so shutdown can wait for them
	wg sync.WaitGroup
}

func NewService(store Store, engine *Engine, bus *events.Bus, forwarder Forwarder, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "booking").Logger()
	return &Service{
		store:     store,
		engine:    engine,
		bus:       bus,
		forwarder: forwarder,
		logger:    &l,
		now:       time.Now,
	}
}

func (r *Request) validate() error {
	r.CustomerName = strings.TrimSpace(r.CustomerName)
	r.CustomerPhone = strings.TrimSpace(r.CustomerPhone)
	if r.ServiceID == "" {
		return model.Invalid("service_id is required")
	}
	if r.Date == "" {
		return model.Invalid("date is required")
	}
	if r.CustomerName == "" {
		return model.Invalid("customer name is required")
	}
	if r.CustomerPhone == "" {
		return model.Invalid("customer phone is required")
	}
	return nil
}

// Book re-checks the requested slot and stores the appointment.
func (s *Service) Book(ctx context.Context, req Request) (*model.Appointment, error) {
	a, err := s.book(ctx, req)
	if err != nil {
		metrics.IncBookingCreated(outcome(err))
		return nil, err
	}
	metrics.IncBookingCreated("success")

	s.logger.Info().
		Str("workspace", a.WorkspaceID).
		Str("appointment", a.ID).
		Time("start", a.StartTime).
		Msg("appointment booked")

	if s.bus != nil {
		if a.SlotID != "" {
			s.bus.Notify(events.TimeslotsUpdated, a.WorkspaceID)
		}
		s.bus.Notify(events.AppointmentsUpdated, a.WorkspaceID)
		s.bus.Notify(events.BookingsUpdated, a.WorkspaceID)
	}
	s.forward(a)
	return a, nil
}

func (s *Service) book(ctx context.Context, req Request) (*model.Appointment, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	bc, err := s.engine.Resolve(ctx, req.WorkspaceID, req.ServiceID, req.MemberID)
	if err != nil {
		return nil, err
	}
	day, err := s.engine.parseDate(req.Date, bc.Location)
	if err != nil {
		return nil, err
	}
	now := s.now().In(bc.Location)

	if ok, reason := schedule.DateGate(bc.Layers, day, now); !ok {
		return nil, fmt.Errorf("%w: %s", ErrSlotUnavailable, reason)
	}

	var start time.Time
	if bc.Settings.SlotManagement {
		start, err = s.reserve(ctx, bc, req, day)
		if err != nil {
			return nil, err
		}
	} else {
		minute, ok := timefmt.ParseClock(req.Time)
		if !ok {
			return nil, model.Invalid("invalid time %q", req.Time)
		}
		if ok, reason := schedule.SlotGate(bc.Layers, day, req.Time, bc.Duration, now); !ok {
			return nil, fmt.Errorf("%w: %s", ErrSlotUnavailable, reason)
		}
		if !bc.offers(schedule.WeekdayName(day), minute) {
			return nil, fmt.Errorf("%w: %s is not an offered start time", ErrSlotUnavailable, timefmt.To12Hour(minute))
		}
		busy, err := s.engine.busy(ctx, bc, day)
		if err != nil {
			return nil, err
		}
		for _, b := range busy {
			if timefmt.Overlaps(minute, minute+bc.Duration, b[0], b[1]) {
				return nil, fmt.Errorf("%w: member already booked", ErrSlotUnavailable)
			}
		}
		start = at(day, minute)
	}

	a := &model.Appointment{
		WorkspaceID:   req.WorkspaceID,
		ServiceID:     bc.Service.ID,
		ServiceName:   bc.Service.Name,
		SlotID:        req.SlotID,
		CustomerName:  req.CustomerName,
		CustomerPhone: req.CustomerPhone,
		CustomerEmail: strings.TrimSpace(req.CustomerEmail),
		Notes:         req.Notes,
		Price:         bc.Service.Price,
		StartTime:     start,
		EndTime:       start.Add(time.Duration(bc.Duration) * time.Minute),
		Status:        model.AppointmentScheduled,
		Source:        req.Source,
	}
	if !bc.Settings.SlotManagement {
		a.SlotID = ""
	}
	if bc.Member != nil {
		a.MemberID = bc.Member.ID
	}
	if a.Source == "" {
		a.Source = "online"
	}

	if err := s.store.CreateAppointment(ctx, a); err != nil {
		if a.SlotID != "" {
			if rerr := s.store.ReleaseCapacity(ctx, a.WorkspaceID, a.SlotID); rerr != nil {
				s.logger.Error().Err(rerr).Str("slot", a.SlotID).Msg("release capacity after failed booking")
			}
		}
		return nil, err
	}
	return a, nil
}

// reserve takes one place in the requested capacity slot and returns its start.
func (s *Service) reserve(ctx context.Context, bc *Context, req Request, day time.Time) (time.Time, error) {
	if req.SlotID == "" {
		return time.Time{}, model.Invalid("slot_id is required")
	}
	defs, err := s.store.ListCapacitySlots(ctx, req.WorkspaceID, req.Date)
	if err != nil {
		return time.Time{}, fmt.Errorf("load capacity slots: %w", err)
	}
	var def *slots.CapacitySlot
	for i := range defs {
		if defs[i].ID == req.SlotID && defs[i].Active {
			def = &defs[i]
			break
		}
	}
	if def == nil {
		return time.Time{}, fmt.Errorf("slot %s: %w", req.SlotID, db.ErrNotFound)
	}
	minute, ok := timefmt.ToMinutes(def.StartTime)
	if !ok {
		return time.Time{}, fmt.Errorf("%w: %s", ErrSlotUnavailable, schedule.ReasonInvalidTime)
	}
	if err := s.store.ReserveCapacity(ctx, req.WorkspaceID, req.SlotID); err != nil {
		return time.Time{}, err
	}
	return at(day, minute), nil
}

// Cancel marks an appointment cancelled and frees its capacity slot.
// Cancelling twice is a no-op.
func (s *Service) Cancel(ctx context.Context, workspaceID, id string) (*model.Appointment, error) {
	a, err := s.store.GetAppointment(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	if !a.IsActive() {
		return a, nil
	}

	if err := s.store.UpdateAppointmentStatus(ctx, workspaceID, id, model.AppointmentCancelled); err != nil {
		return nil, err
	}
	a.Status = model.AppointmentCancelled

	if a.SlotID != "" {
		if err := s.store.ReleaseCapacity(ctx, workspaceID, a.SlotID); err != nil {
			s.logger.Error().Err(err).Str("slot", a.SlotID).Msg("release capacity")
		}
	}
	metrics.IncBookingCancelled()

	if s.bus != nil {
		if a.SlotID != "" {
			s.bus.Notify(events.TimeslotsUpdated, workspaceID)
		}
		s.bus.Notify(events.AppointmentsUpdated, workspaceID)
		s.bus.Notify(events.BookingsUpdated, workspaceID)
	}
	return a, nil
}

// List returns appointments starting in [from, to].
func (s *Service) List(ctx context.Context, workspaceID, from, to string) ([]model.Appointment, error) {
	settings, err := s.store.SettingsOrDefault(ctx, workspaceID)
	if err != nil {
		return nil, err
	}
	loc := settings.Location()
	start, err := s.engine.parseDate(from, loc)
	if err != nil {
		return nil, err
	}
	end, err := s.engine.parseDate(to, loc)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, model.Invalid("to must not be before from")
	}
	return s.store.ListAppointments(ctx, workspaceID, start, end.AddDate(0, 0, 1))
}

// forward sends the appointment to the webhook without blocking the caller.
// Failures are logged and otherwise ignored.
func (s *Service) forward(a *model.Appointment) {
	if s.forwarder == nil {
		return
	}
	cp := *a
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := s.forwarder.Forward(ctx, &cp); err != nil {
			s.logger.Warn().Err(err).Str("appointment", cp.ID).Msg("appointment forward failed")
		}
	}()
}

// Wait blocks until in-flight forwards finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// at returns the wall-clock minute of day in day's location.
func at(day time.Time, minute int) time.Time {
	return time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, day.Location())
}

func outcome(err error) string {
	switch {
	case errors.Is(err, model.ErrValidation):
		return "invalid"
	case errors.Is(err, ErrSlotUnavailable):
		return "unavailable"
	case errors.Is(err, db.ErrCapacityFull):
		return "full"
	case errors.Is(err, db.ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}
