package config

import (
	"fmt"
	"os"
	"slices"
	"time"

	"gopkg.in/yaml.v3"

	"zervos/internal/model"
	"zervos/internal/schedule"
)

// WorkspaceConfig seeds the booking settings of one workspace.
type WorkspaceConfig struct {
	ID                string                         `yaml:"id"`
	Name              string                         `yaml:"name"`
	Timezone          string                         `yaml:"timezone"`
	BusinessHours     schedule.WeeklySchedule        `yaml:"business_hours,omitempty"`
	Breaks            schedule.BreakMap              `yaml:"breaks,omitempty"`
	SpecialHours      []schedule.SpecialHours        `yaml:"special_hours,omitempty"`
	Unavailable       []schedule.UnavailabilityRange `yaml:"unavailable,omitempty"`
	BookingWindowDays int                            `yaml:"booking_window_days"`
	MinNoticeHours    int                            `yaml:"min_notice_hours"`
	SlotMinutes       int                            `yaml:"slot_minutes"`
	SlotManagement    bool                           `yaml:"slot_management"`
}

// HolidayConfig closes every workspace on one date.
type HolidayConfig struct {
	Date string `yaml:"date"` // "2026-01-26"
	Name string `yaml:"name"`
}

// DefaultsConfig is applied to workspaces that leave a field empty.
type DefaultsConfig struct {
	BusinessHours schedule.WeeklySchedule `yaml:"business_hours"`
	Breaks        schedule.BreakMap       `yaml:"breaks"`
	SlotMinutes   int                     `yaml:"slot_minutes"`
	DaysOff       []string                `yaml:"days_off"` // weekday names
}

// WorkspacesConfig is the root of workspaces.yaml.
type WorkspacesConfig struct {
	Workspaces []WorkspaceConfig `yaml:"workspaces"`
	Defaults   DefaultsConfig    `yaml:"defaults"`
	Holidays   []HolidayConfig   `yaml:"holidays"`
}

// LoadWorkspacesConfig loads and validates the workspace seed file.
func LoadWorkspacesConfig(path string) (*WorkspacesConfig, error) {
	if path == "" {
		path = "configs/workspaces.yaml"
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read workspaces config: %w", err)
	}
	return ParseWorkspacesConfig(data)
}

// ParseWorkspacesConfig decodes, validates and fills defaults for a workspaces.yaml body.
func ParseWorkspacesConfig(data []byte) (*WorkspacesConfig, error) {
	var cfg WorkspacesConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse workspaces config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validate workspaces config: %w", err)
	}

	cfg.applyDefaults()

	return &cfg, nil
}

// Validate checks the configuration for errors.
func (c *WorkspacesConfig) Validate() error {
	if len(c.Workspaces) == 0 {
		return fmt.Errorf("no workspaces defined")
	}

	ids := make(map[string]bool)
	for i, ws := range c.Workspaces {
		if ws.ID == "" {
			return fmt.Errorf("workspace[%d]: id is required", i)
		}
		if ids[ws.ID] {
			return fmt.Errorf("workspace[%d]: duplicate id '%s'", i, ws.ID)
		}
		ids[ws.ID] = true

		if ws.Timezone != "" {
			if _, err := time.LoadLocation(ws.Timezone); err != nil {
				return fmt.Errorf("workspace[%d]: unknown timezone '%s'", i, ws.Timezone)
			}
		}
		if ws.BookingWindowDays < 0 || ws.MinNoticeHours < 0 || ws.SlotMinutes < 0 {
			return fmt.Errorf("workspace[%d]: booking_window_days, min_notice_hours and slot_minutes cannot be negative", i)
		}

		prefix := fmt.Sprintf("workspace[%d]", i)
		if err := schedule.ValidateWeek(ws.BusinessHours, prefix+".business_hours"); err != nil {
			return err
		}
		if err := schedule.ValidateBreaks(ws.Breaks, prefix+".breaks"); err != nil {
			return err
		}
		if err := schedule.ValidateSpecialHours(ws.SpecialHours, prefix+".special_hours"); err != nil {
			return err
		}
		if err := schedule.ValidateUnavailable(ws.Unavailable, prefix+".unavailable"); err != nil {
			return err
		}
	}

	if err := schedule.ValidateWeek(c.Defaults.BusinessHours, "defaults.business_hours"); err != nil {
		return err
	}
	if err := schedule.ValidateBreaks(c.Defaults.Breaks, "defaults.breaks"); err != nil {
		return err
	}

	for i, d := range c.Defaults.DaysOff {
		if !slices.Contains(schedule.Weekdays, d) {
			return fmt.Errorf("defaults.days_off[%d]: invalid weekday '%s'", i, d)
		}
	}

	for i, h := range c.Holidays {
		if h.Date == "" {
			return fmt.Errorf("holiday[%d]: date is required", i)
		}
		if err := schedule.ValidateDate(h.Date, fmt.Sprintf("holiday[%d]", i)); err != nil {
			return err
		}
	}

	return nil
}

// applyDefaults fills workspace gaps from the defaults section and closes
// configured holidays and days off.
func (c *WorkspacesConfig) applyDefaults() {
	for i := range c.Workspaces {
		ws := &c.Workspaces[i]

		if ws.BusinessHours == nil && c.Defaults.BusinessHours != nil {
			ws.BusinessHours = make(schedule.WeeklySchedule, len(c.Defaults.BusinessHours))
			for day, d := range c.Defaults.BusinessHours {
				ws.BusinessHours[day] = d
			}
		}
		if len(c.Defaults.DaysOff) > 0 {
			if ws.BusinessHours == nil {
				ws.BusinessHours = schedule.WeeklySchedule{}
			}
			for _, day := range c.Defaults.DaysOff {
				d := ws.BusinessHours[day]
				d.Enabled = false
				ws.BusinessHours[day] = d
			}
		}

		if ws.Breaks == nil && c.Defaults.Breaks != nil {
			ws.Breaks = c.Defaults.Breaks
		}
		ws.Breaks = schedule.NormalizeBreaks(ws.Breaks)

		if ws.SlotMinutes == 0 {
			ws.SlotMinutes = c.Defaults.SlotMinutes
		}
		if ws.Timezone == "" {
			ws.Timezone = "UTC"
		}

		for _, h := range c.Holidays {
			ws.Unavailable = append(ws.Unavailable, schedule.UnavailabilityRange{StartDate: h.Date, EndDate: h.Date})
		}
	}
}

// Settings converts the workspace seed into stored settings.
func (w *WorkspaceConfig) Settings() *model.Settings {
	s := model.DefaultSettings(w.ID)
	s.Name = w.Name
	s.Timezone = w.Timezone
	s.BusinessHours = w.BusinessHours
	s.Breaks = schedule.NormalizeBreaks(w.Breaks)
	s.SpecialHours = w.SpecialHours
	s.Unavailable = w.Unavailable
	s.BookingWindowDays = w.BookingWindowDays
	s.MinNoticeHours = w.MinNoticeHours
	if w.SlotMinutes > 0 {
		s.SlotMinutes = w.SlotMinutes
	}
	s.SlotManagement = w.SlotManagement
	return s
}

// GetWorkspace returns workspace config by ID.
func (c *WorkspacesConfig) GetWorkspace(id string) *WorkspaceConfig {
	for i := range c.Workspaces {
		if c.Workspaces[i].ID == id {
			return &c.Workspaces[i]
		}
	}
	return nil
}

// String returns a summary of the configuration.
func (c *WorkspacesConfig) String() string {
	return fmt.Sprintf("WorkspacesConfig: %d workspaces, %d holidays", len(c.Workspaces), len(c.Holidays))
}
