package legacy

import (
	"strings"
	"time"
	"unicode"

	"zervos/internal/model"
	"zervos/internal/pricing"
	"zervos/internal/schedule"
	"zervos/internal/slots"
	"zervos/internal/timefmt"
)

// weekly reads a weekday-keyed schedule. Day entries use enabled, isOpen or
// isEnabled for the flag and start/startTime/open and end/endTime/close for
// the window.
func weekly(r record) schedule.WeeklySchedule {
	if r == nil {
		return nil
	}
	out := schedule.WeeklySchedule{}
	for _, day := range schedule.Weekdays {
		d := r.object(day)
		if d == nil {
			d = r.object(strings.ToLower(day))
		}
		if d == nil {
			continue
		}
		out[day] = schedule.DaySchedule{
			Enabled: d.flag(true, "enabled", "isOpen", "isEnabled", "isAvailable"),
			Start:   d.str("start", "startTime", "open", "openTime"),
			End:     d.str("end", "endTime", "close", "closeTime"),
		}
	}
	if len(out) == 0 {
		return nil
	}
	return out
}

func breaks(v any) schedule.BreakMap {
	m, ok := v.(map[string]any)
	if !ok {
		return nil
	}
	return schedule.NormalizeBreaks(m)
}

// adaptSettings merges legacy business hours into s. The value is either a
// plain weekly map or an object holding hours, breaks, special hours and
// unavailable ranges.
func adaptSettings(s *model.Settings, r record) {
	hours := r.object("hours")
	if hours == nil {
		hours = r.object("businessHours")
	}
	if hours == nil {
		hours = r
	}
	if w := weekly(hours); w != nil {
		s.BusinessHours = w
	}
	if b := breaks(r["breaks"]); b != nil {
		s.Breaks = b
	}
	for _, sh := range r.list("specialHours", "special_hours") {
		entry := schedule.SpecialHours{
			Date:      sh.str("date"),
			StartTime: sh.str("startTime", "start"),
			EndTime:   sh.str("endTime", "end"),
		}
		if entry.Date != "" {
			s.SpecialHours = append(s.SpecialHours, entry)
		}
	}
	for _, u := range r.list("unavailableDates", "unavailability", "unavailable") {
		entry := schedule.UnavailabilityRange{
			StartDate: u.str("startDate", "start", "date"),
			EndDate:   u.str("endDate", "end"),
		}
		if entry.StartDate != "" {
			s.Unavailable = append(s.Unavailable, entry)
		}
	}
	if v, ok := r.num("bookingWindow", "bookingWindowDays", "advanceBookingDays"); ok {
		s.BookingWindowDays = int(v)
	}
	if v, ok := r.num("minNotice", "minNoticeHours", "minimumNotice"); ok {
		s.MinNoticeHours = int(v)
	}
	if v, ok := r.num("slotDuration", "slotMinutes", "interval"); ok && v > 0 {
		s.SlotMinutes = int(v)
	}
	if tz := r.str("timezone", "timeZone"); tz != "" {
		s.Timezone = tz
	}
	s.SlotManagement = r.flag(s.SlotManagement, "slotManagement", "enableSlotManagement", "useTimeSlots")
}

func adaptService(ws string, r record) (*model.Service, bool) {
	name := r.str("name", "title")
	if name == "" {
		return nil, false
	}
	return &model.Service{
		ID:               r.str("id", "_id"),
		WorkspaceID:      ws,
		Name:             name,
		Description:      r.str("description"),
		Category:         r.str("category"),
		Price:            r.minor("price", "amount"),
		DurationMinutes:  r.integer("duration", "durationMinutes", "duration_minutes"),
		Active:           r.flag(true, "isActive", "isEnabled", "active", "enabled"),
		Availability:     weekly(firstObject(r, "availability", "schedule", "customAvailability")),
		Breaks:           breaks(r["breaks"]),
		AssignedMemberID: r.str("assignedMemberId", "assignedTo", "staffId", "memberId"),
	}, true
}

func adaptProduct(ws string, r record) (*model.Product, bool) {
	name := r.str("name", "title")
	if name == "" {
		return nil, false
	}
	return &model.Product{
		ID:          r.str("id", "_id"),
		WorkspaceID: ws,
		Name:        name,
		SKU:         r.str("sku", "code", "barcode"),
		Category:    r.str("category"),
		Price:       r.minor("price", "sellingPrice"),
		Stock:       r.integer("stock", "quantity", "inventory"),
		Active:      r.flag(true, "isActive", "isEnabled", "active", "enabled"),
	}, true
}

func adaptMember(ws string, r record) (*model.TeamMember, bool) {
	name := r.str("name", "fullName")
	if name == "" {
		first, last := r.str("firstName"), r.str("lastName")
		name = strings.TrimSpace(first + " " + last)
	}
	if name == "" {
		return nil, false
	}
	return &model.TeamMember{
		ID:          r.str("id", "_id"),
		WorkspaceID: ws,
		Name:        name,
		Email:       r.str("email"),
		Phone:       r.str("phone", "mobile"),
		Role:        r.str("role", "designation"),
		Schedule:    weekly(firstObject(r, "schedule", "availability", "workingHours")),
		Active:      r.flag(true, "isActive", "isEnabled", "active", "status"),
	}, true
}

func adaptCustomer(ws string, r record) (*model.Customer, bool) {
	phone := r.str("phone", "mobile", "phoneNumber")
	if phone == "" {
		return nil, false
	}
	c := &model.Customer{
		ID:            r.str("id", "_id"),
		WorkspaceID:   ws,
		Name:          r.str("name", "fullName"),
		Phone:         phone,
		Email:         r.str("email"),
		TotalSpent:    r.minor("totalSpent", "totalSpend", "lifetimeValue"),
		LoyaltyPoints: int64(r.integer("loyaltyPoints", "points")),
		Visits:        r.integer("visits", "totalVisits", "visitCount"),
		Tier:          strings.ToLower(r.str("tier", "loyaltyTier")),
	}
	if t, ok := r.timestamp("lastVisit", "lastVisitDate"); ok {
		c.LastVisit = &t
	}
	return c, true
}

func adaptItem(r record) pricing.Item {
	qty := r.integer("quantity", "qty")
	if qty < 1 {
		qty = 1
	}
	return pricing.Item{
		ID:             r.str("id", "itemId", "serviceId", "productId"),
		Name:           r.str("name", "title"),
		Kind:           strings.ToLower(r.str("type", "kind", "itemType")),
		Price:          r.minor("price"),
		Quantity:       qty,
		AssignedPerson: r.str("assignedPerson", "staff", "assignedTo"),
	}
}

// adaptTransaction keeps the stored totals; missing totals are recomputed.
func adaptTransaction(ws string, r record, calc pricing.Calculator) (*model.Transaction, bool) {
	rawItems := r.list("items", "cart", "cartItems")
	if len(rawItems) == 0 {
		return nil, false
	}
	items := make([]pricing.Item, 0, len(rawItems))
	for _, it := range rawItems {
		items = append(items, adaptItem(it))
	}

	kind := pricing.DiscountType(strings.ToLower(r.str("discountType")))
	value := r.str("discountValue")
	q := calc.Quote(items, kind, value)
	if _, ok := r.num("total", "totalAmount"); ok {
		q.Subtotal = r.minor("subtotal")
		q.Discount = r.minor("discountAmount", "discount")
		q.AfterDiscount = q.Subtotal - q.Discount
		q.Tax = r.minor("tax", "taxAmount")
		q.Total = r.minor("total", "totalAmount")
	}

	t := &model.Transaction{
		ID:            r.str("id", "_id", "transactionId"),
		WorkspaceID:   ws,
		CustomerName:  r.str("customerName"),
		CustomerPhone: r.str("customerPhone"),
		StaffName:     r.str("staffName", "staff", "cashier"),
		PaymentMethod: r.str("paymentMethod", "payment"),
		Items:         items,
		DiscountType:  kind,
		DiscountValue: value,
		Quote:         q,
		PointsEarned:  int64(r.integer("pointsEarned", "loyaltyPoints")),
		Tier:          strings.ToLower(r.str("tier", "customerTier")),
	}
	if c := r.object("customer"); c != nil {
		if t.CustomerName == "" {
			t.CustomerName = c.str("name")
		}
		if t.CustomerPhone == "" {
			t.CustomerPhone = c.str("phone")
		}
	}
	if ts, ok := r.timestamp("createdAt", "date", "timestamp"); ok {
		t.CreatedAt = ts
	}
	return t, true
}

// adaptAppointment combines a date and a 12 or 24 hour clock in loc.
func adaptAppointment(ws string, r record, loc *time.Location) (*model.Appointment, bool) {
	if owner := r.str("workspaceId", "workspace"); owner != "" && owner != ws {
		return nil, false
	}
	date := r.str("date", "appointmentDate")
	day, err := time.ParseInLocation(schedule.DateLayout, date, loc)
	if err != nil {
		return nil, false
	}
	minute, ok := timefmt.ParseClock(r.str("time", "startTime", "slot"))
	if !ok {
		return nil, false
	}
	start := time.Date(day.Year(), day.Month(), day.Day(), minute/60, minute%60, 0, 0, loc)
	duration := r.integer("duration", "durationMinutes")
	if duration <= 0 {
		duration = slots.DefaultInterval
	}

	status := model.AppointmentStatus(strings.ToLower(r.str("status")))
	switch status {
	case model.AppointmentScheduled, model.AppointmentCompleted, model.AppointmentCancelled:
	case "canceled":
		status = model.AppointmentCancelled
	default:
		status = model.AppointmentScheduled
	}

	return &model.Appointment{
		ID:            r.str("id", "_id", "bookingId"),
		WorkspaceID:   ws,
		ServiceID:     r.str("serviceId", "callId"),
		ServiceName:   r.str("serviceName", "service"),
		MemberID:      r.str("memberId", "staffId", "teamMemberId"),
		SlotID:        r.str("slotId", "timeSlotId"),
		CustomerName:  r.str("customerName", "name"),
		CustomerPhone: r.str("customerPhone", "phone"),
		CustomerEmail: r.str("customerEmail", "email"),
		Notes:         r.str("notes"),
		Price:         r.minor("price", "amount"),
		StartTime:     start,
		EndTime:       start.Add(time.Duration(duration) * time.Minute),
		Status:        status,
		Source:        "import",
	}, true
}

func adaptTimeSlot(ws string, r record) (*slots.CapacitySlot, bool) {
	date, start := r.str("date"), r.str("startTime", "start")
	if date == "" || start == "" {
		return nil, false
	}
	maxBookings := r.integer("maxBookings", "capacity")
	if maxBookings <= 0 {
		maxBookings = 1
	}
	return &slots.CapacitySlot{
		ID:              r.str("id", "_id"),
		WorkspaceID:     ws,
		Date:            date,
		StartTime:       start,
		EndTime:         r.str("endTime", "end"),
		MaxBookings:     maxBookings,
		CurrentBookings: r.integer("currentBookings", "booked"),
		Active:          r.flag(true, "isActive", "isEnabled", "active"),
	}, true
}

func adaptWorkflow(ws string, r record) (*model.Workflow, bool) {
	name := r.str("name", "title")
	if name == "" {
		return nil, false
	}
	w := &model.Workflow{
		ID:          r.str("id", "_id"),
		WorkspaceID: ws,
		Name:        name,
		Description: r.str("description"),
		Trigger:     r.str("trigger", "triggerType", "event"),
		Active:      r.flag(true, "isActive", "enabled", "active"),
	}
	if tr := r.object("trigger"); tr != nil {
		w.Trigger = tr.str("type", "event")
	}
	w.Trigger = snake(w.Trigger)
	for _, a := range r.list("actions", "steps") {
		w.Actions = append(w.Actions, model.WorkflowAction{
			Type:         strings.ToLower(a.str("type", "channel")),
			Subject:      a.str("subject"),
			Template:     a.str("template", "message", "body", "content"),
			DelayMinutes: a.integer("delay", "delayMinutes"),
		})
	}
	return w, true
}

func firstObject(r record, keys ...string) record {
	for _, k := range keys {
		if o := r.object(k); o != nil {
			return o
		}
	}
	return nil
}

// snake converts "appointmentBooked" and "appointment-booked" to
// "appointment_booked".
func snake(s string) string {
	var b strings.Builder
	for i, r := range s {
		switch {
		case r == '-' || r == ' ':
			b.WriteByte('_')
		case unicode.IsUpper(r):
			if i > 0 {
				b.WriteByte('_')
			}
			b.WriteRune(unicode.ToLower(r))
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}
