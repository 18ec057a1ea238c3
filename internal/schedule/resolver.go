package schedule

// Source names the layer a Resolution came from.
type Source string

const (
	SourceStaff        Source = "staff"
	SourceService      Source = "service"
	SourceOrganization Source = "organization"
	SourceDefault      Source = "default"
)

// Default working window used when no layer defines the weekday.
const (
	DefaultStart = "09:00"
	DefaultEnd   = "17:00"
)

// Resolution is the effective schedule for one weekday.
type Resolution struct {
	Enabled bool   `json:"enabled"`
	Start   string `json:"start"`
	End     string `json:"end"`
	Source  Source `json:"source"`
}

// Resolve picks the first layer that defines weekday, in the order
// staff, service, organization. A defining layer masks the ones below it
// even when it disables the day.
func Resolve(l Layers, weekday string) Resolution {
	if d, ok := l.Staff.Day(weekday); ok {
		return Resolution{Enabled: d.Enabled, Start: d.Start, End: d.End, Source: SourceStaff}
	}
	if d, ok := l.Service.Day(weekday); ok {
		return Resolution{Enabled: d.Enabled, Start: d.Start, End: d.End, Source: SourceService}
	}
	if d, ok := l.Organization.Day(weekday); ok {
		return Resolution{Enabled: d.Enabled, Start: d.Start, End: d.End, Source: SourceOrganization}
	}
	return Resolution{Enabled: true, Start: DefaultStart, End: DefaultEnd, Source: SourceDefault}
}

// BreaksFor returns the break windows that apply on weekday. Service breaks
// replace organization breaks for the whole day when any are defined.
func BreaksFor(l Layers, weekday string) []BreakWindow {
	if b := l.ServiceBreaks[weekday]; len(b) > 0 {
		return b
	}
	return l.OrganizationBreaks[weekday]
}
