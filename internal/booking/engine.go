// Package booking answers availability queries and books appointments.
package booking

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"

	"zervos/internal/cache"
	"zervos/internal/metrics"
	"zervos/internal/model"
	"zervos/internal/schedule"
	"zervos/internal/slots"
	"zervos/internal/timefmt"
)

// ErrSlotUnavailable is returned when a requested time fails the schedule checks.
var ErrSlotUnavailable = errors.New("slot unavailable")

// Repository is the read side the engine needs.
type Repository interface {
	SettingsOrDefault(ctx context.Context, workspaceID string) (*model.Settings, error)
	GetService(ctx context.Context, workspaceID, id string) (*model.Service, error)
	GetMember(ctx context.Context, workspaceID, id string) (*model.TeamMember, error)
	ListCapacitySlots(ctx context.Context, workspaceID, date string) ([]slots.CapacitySlot, error)
	ListAppointments(ctx context.Context, workspaceID string, from, to time.Time) ([]model.Appointment, error)
}

// DateAvailability is the Date Gate verdict for one calendar date.
type DateAvailability struct {
	Date      string          `json:"date"`
	Weekday   string          `json:"weekday"`
	Available bool            `json:"available"`
	Reason    schedule.Reason `json:"reason,omitempty"`
}

// DaySlots lists the bookable start times of one date.
type DaySlots struct {
	Date            string           `json:"date"`
	Available       bool             `json:"available"`
	Reason          schedule.Reason  `json:"reason,omitempty"`
	Source          schedule.Source  `json:"source,omitempty"`
	DurationMinutes int              `json:"duration_minutes"`
	Duration        string           `json:"duration"`
	Capacity        bool             `json:"capacity"`
	Slots           []slots.TimeSlot `json:"slots"`
}

// Context is everything resolved for one service/member pair.
type Context struct {
	Settings *model.Settings
	Service  *model.Service
	Member   *model.TeamMember
	Layers   schedule.Layers
	Location *time.Location
	Duration int
}

// Engine computes availability from stored schedules.
type Engine struct {
	repo               Repository
	cache              *cache.AvailabilityCache
	defaultSlotMinutes int
	maxRangeDays       int
	logger             *zerolog.Logger
	now                func() time.Time
}

func NewEngine(repo Repository, c *cache.AvailabilityCache, defaultSlotMinutes, maxRangeDays int, logger *zerolog.Logger) *Engine {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	if defaultSlotMinutes <= 0 {
		defaultSlotMinutes = slots.DefaultInterval
	}
	if maxRangeDays <= 0 {
		maxRangeDays = 90
	}
	l := logger.With().Str("component", "availability").Logger()
	return &Engine{
		repo:               repo,
		cache:              c,
		defaultSlotMinutes: defaultSlotMinutes,
		maxRangeDays:       maxRangeDays,
		logger:             &l,
		now:                time.Now,
	}
}

// Resolve loads the schedule layers for a service and optional member. When
// memberID is empty the service's assigned member is used.
func (e *Engine) Resolve(ctx context.Context, workspaceID, serviceID, memberID string) (*Context, error) {
	settings, err := e.repo.SettingsOrDefault(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	svc, err := e.repo.GetService(ctx, workspaceID, serviceID)
	if err != nil {
		return nil, fmt.Errorf("load service %s: %w", serviceID, err)
	}
	if !svc.Active {
		return nil, model.Invalid("service %s is not bookable", serviceID)
	}

	bc := &Context{
		Settings: settings,
		Service:  svc,
		Location: settings.Location(),
		Layers: schedule.Layers{
			Service:            svc.Availability,
			Organization:       settings.BusinessHours,
			ServiceBreaks:      svc.Breaks,
			OrganizationBreaks: settings.Breaks,
			SpecialHours:       settings.SpecialHours,
			Unavailable:        settings.Unavailable,
			BookingWindowDays:  settings.BookingWindowDays,
			MinNoticeHours:     settings.MinNoticeHours,
		},
	}

	if memberID == "" {
		memberID = svc.AssignedMemberID
	}
	if memberID != "" {
		m, err := e.repo.GetMember(ctx, workspaceID, memberID)
		if err != nil {
			return nil, fmt.Errorf("load member %s: %w", memberID, err)
		}
		if !m.Active {
			return nil, model.Invalid("team member %s is not active", memberID)
		}
		bc.Member = m
		bc.Layers.Staff = m.Schedule
	}

	bc.Duration = svc.DurationMinutes
	if bc.Duration <= 0 {
		bc.Duration = settings.SlotMinutes
	}
	if bc.Duration <= 0 {
		bc.Duration = e.defaultSlotMinutes
	}
	return bc, nil
}

func (e *Engine) parseDate(s string, loc *time.Location) (time.Time, error) {
	d, err := time.ParseInLocation(schedule.DateLayout, s, loc)
	if err != nil {
		return time.Time{}, model.Invalid("invalid date %q, expected YYYY-MM-DD", s)
	}
	return d, nil
}

// Dates returns the Date Gate verdict for every date in [from, to].
func (e *Engine) Dates(ctx context.Context, workspaceID, serviceID, memberID, from, to string) ([]DateAvailability, error) {
	metrics.IncAvailabilityQuery("dates")

	bc, err := e.Resolve(ctx, workspaceID, serviceID, memberID)
	if err != nil {
		return nil, err
	}
	start, err := e.parseDate(from, bc.Location)
	if err != nil {
		return nil, err
	}
	end, err := e.parseDate(to, bc.Location)
	if err != nil {
		return nil, err
	}
	if end.Before(start) {
		return nil, model.Invalid("to must not be before from")
	}
	if days := calendarDays(start, end); days > e.maxRangeDays {
		return nil, model.Invalid("range of %d days exceeds the %d day limit", days, e.maxRangeDays)
	}

	now := e.now().In(bc.Location)
	memberKey := ""
	if bc.Member != nil {
		memberKey = bc.Member.ID
	}
	key := fmt.Sprintf("%s|%s|%s|%s|%s", serviceID, memberKey, from, to, now.Format(schedule.DateLayout))
	var out []DateAvailability
	if e.cache.Get(ctx, workspaceID, "dates", key, &out) {
		return out, nil
	}

	for d := start; !d.After(end); d = d.AddDate(0, 0, 1) {
		ok, reason := schedule.DateGate(bc.Layers, d, now)
		out = append(out, DateAvailability{
			Date:      d.Format(schedule.DateLayout),
			Weekday:   schedule.WeekdayName(d),
			Available: ok,
			Reason:    reason,
		})
	}

	e.cache.Set(ctx, workspaceID, "dates", key, out)
	return out, nil
}

// Slots lists bookable start times on date. With slot management enabled the
// configured capacity slots are returned instead of generated ones.
func (e *Engine) Slots(ctx context.Context, workspaceID, serviceID, memberID, date string) (*DaySlots, error) {
	metrics.IncAvailabilityQuery("slots")

	bc, err := e.Resolve(ctx, workspaceID, serviceID, memberID)
	if err != nil {
		return nil, err
	}
	day, err := e.parseDate(date, bc.Location)
	if err != nil {
		return nil, err
	}

	now := e.now().In(bc.Location)
	memberKey := ""
	if bc.Member != nil {
		memberKey = bc.Member.ID
	}
	key := fmt.Sprintf("%s|%s|%s|%s", serviceID, memberKey, date, now.Format("2006-01-02T15:04"))
	var cached DaySlots
	if e.cache.Get(ctx, workspaceID, "slots", key, &cached) {
		return &cached, nil
	}

	out, err := e.computeSlots(ctx, bc, day, now)
	if err != nil {
		return nil, err
	}
	e.cache.Set(ctx, workspaceID, "slots", key, out)
	return out, nil
}

func (e *Engine) computeSlots(ctx context.Context, bc *Context, day, now time.Time) (*DaySlots, error) {
	out := &DaySlots{
		Date:            day.Format(schedule.DateLayout),
		DurationMinutes: bc.Duration,
		Duration:        slots.FormatDuration(bc.Duration),
		Slots:           []slots.TimeSlot{},
	}

	ok, reason := schedule.DateGate(bc.Layers, day, now)
	if !ok {
		out.Reason = reason
		return out, nil
	}

	if bc.Settings.SlotManagement {
		defs, err := e.repo.ListCapacitySlots(ctx, bc.Settings.WorkspaceID, out.Date)
		if err != nil {
			return nil, fmt.Errorf("load capacity slots: %w", err)
		}
		out.Capacity = true
		out.Slots = slots.FromCapacity(defs, out.Date)
		if out.Slots == nil {
			out.Slots = []slots.TimeSlot{}
		}
		out.Available = len(slots.AvailableOnly(out.Slots)) > 0
		return out, nil
	}

	weekday := schedule.WeekdayName(day)
	res := schedule.Resolve(bc.Layers, weekday)
	out.Source = res.Source
	if !res.Enabled {
		out.Reason = dayOffReason(res.Source)
		return out, nil
	}

	busy, err := e.busy(ctx, bc, day)
	if err != nil {
		return nil, err
	}

	for slot := range slots.Generate(res.Start, res.End, bc.Duration, schedule.BreaksFor(bc.Layers, weekday)) {
		if ok, _ := schedule.SlotGate(bc.Layers, day, slot.Time, bc.Duration, now); !ok {
			continue
		}
		start := slot.Minute()
		for _, a := range busy {
			if timefmt.Overlaps(start, start+bc.Duration, a[0], a[1]) {
				slot.Available = false
				break
			}
		}
		out.Slots = append(out.Slots, slot)
	}

	out.Available = len(slots.AvailableOnly(out.Slots)) > 0
	if len(out.Slots) == 0 {
		out.Reason = schedule.ReasonOutsideHours
	}
	return out, nil
}

// offers reports whether minute is one of the start times the generator
// produces for weekday, so the whole service fits before closing and clear of breaks.
func (bc *Context) offers(weekday string, minute int) bool {
	res := schedule.Resolve(bc.Layers, weekday)
	if !res.Enabled {
		return false
	}
	for slot := range slots.Generate(res.Start, res.End, bc.Duration, schedule.BreaksFor(bc.Layers, weekday)) {
		if slot.Minute() == minute {
			return true
		}
		if slot.Minute() > minute {
			return false
		}
	}
	return false
}

// busy returns the minute ranges already held by the member's active
// appointments on day. Without a member nothing is blocked.
func (e *Engine) busy(ctx context.Context, bc *Context, day time.Time) ([][2]int, error) {
	if bc.Member == nil {
		return nil, nil
	}
	appts, err := e.repo.ListAppointments(ctx, bc.Settings.WorkspaceID, day, day.AddDate(0, 0, 1))
	if err != nil {
		return nil, fmt.Errorf("load appointments: %w", err)
	}
	var out [][2]int
	for _, a := range appts {
		if !a.IsActive() || a.MemberID != bc.Member.ID {
			continue
		}
		start := a.StartTime.In(bc.Location)
		m := start.Hour()*60 + start.Minute()
		out = append(out, [2]int{m, m + int(a.Duration().Minutes())})
	}
	return out, nil
}

// calendarDays counts the dates in [start, end]. Wall-clock fields are used
// so a short or long DST day still counts once.
func calendarDays(start, end time.Time) int {
	s := time.Date(start.Year(), start.Month(), start.Day(), 0, 0, 0, 0, time.UTC)
	e := time.Date(end.Year(), end.Month(), end.Day(), 0, 0, 0, 0, time.UTC)
	return int(e.Sub(s)/(24*time.Hour)) + 1
}

func dayOffReason(src schedule.Source) schedule.Reason {
	switch src {
	case schedule.SourceStaff:
		return schedule.ReasonStaffDayOff
	case schedule.SourceService:
		return schedule.ReasonServiceDayOff
	default:
		return schedule.ReasonOrgDayOff
	}
}
