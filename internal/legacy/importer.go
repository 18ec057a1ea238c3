// Package legacy imports browser local-storage dumps written by the old
// single-page client into the repositories.
package legacy

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"zervos/internal/events"
	"zervos/internal/metrics"
	"zervos/internal/model"
	"zervos/internal/pricing"
	"zervos/internal/slots"
	"zervos/internal/workflow"
)

// Store receives imported records.
type Store interface {
	SettingsOrDefault(ctx context.Context, workspaceID string) (*model.Settings, error)
	SaveSettings(ctx context.Context, s *model.Settings) error
	SaveService(ctx context.Context, s *model.Service) error
	SaveProduct(ctx context.Context, p *model.Product) error
	SaveMember(ctx context.Context, m *model.TeamMember) error
	SaveCustomer(ctx context.Context, c *model.Customer) error
	SaveWorkflow(ctx context.Context, w *model.Workflow) error
	SaveCapacitySlot(ctx context.Context, c *slots.CapacitySlot) error
	CreateAppointment(ctx context.Context, a *model.Appointment) error
	CreateTransaction(ctx context.Context, t *model.Transaction) error
}

// Dump is a local-storage snapshot. Values are usually JSON documents
// encoded as strings, as the browser stores them.
type Dump map[string]json.RawMessage

// ParseDump decodes a dump from r.
func ParseDump(r io.Reader) (Dump, error) {
	var d Dump
	if err := json.NewDecoder(r).Decode(&d); err != nil {
		return nil, model.Invalid("dump is not a JSON object: %v", err)
	}
	return d, nil
}

// value unwraps a string-encoded document.
func (d Dump) value(key string) ([]byte, error) {
	raw := d[key]
	trimmed := strings.TrimSpace(string(raw))
	if strings.HasPrefix(trimmed, `"`) {
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, err
		}
		return []byte(s), nil
	}
	return raw, nil
}

// find returns the canonical key when present. Otherwise it scans for the
// prefix and prefers keys mentioning the workspace.
func (d Dump) find(canonical, prefix, workspaceID string) (string, bool) {
	if _, ok := d[canonical]; ok {
		return canonical, true
	}
	var candidates []string
	for k := range d {
		if strings.HasPrefix(k, prefix) {
			candidates = append(candidates, k)
		}
	}
	if len(candidates) == 0 {
		return "", false
	}
	sort.Strings(candidates)
	for _, k := range candidates {
		if strings.HasSuffix(k, workspaceID) {
			return k, true
		}
	}
	return candidates[0], true
}

// Result summarizes one import.
type Result struct {
	WorkspaceID string         `json:"workspace_id"`
	Imported    map[string]int `json:"imported"`
	Skipped     map[string]int `json:"skipped"`
	Warnings    []string       `json:"warnings,omitempty"`
}

func (r *Result) warn(format string, args ...any) {
	r.Warnings = append(r.Warnings, fmt.Sprintf(format, args...))
}

// Importer writes a dump into a workspace.
type Importer struct {
	store  Store
	calc   pricing.Calculator
	bus    *events.Bus
	logger *zerolog.Logger
}

// NewImporter creates an importer. calc recomputes totals for transactions
// stored without them.
func NewImporter(store Store, calc pricing.Calculator, bus *events.Bus, logger *zerolog.Logger) *Importer {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "legacy_import").Logger()
	return &Importer{store: store, calc: calc, bus: bus, logger: &l}
}

// entity describes where one record type lives in the dump and how to store it.
type entity struct {
	name      string
	canonical string
	prefix    string
	topic     string
	save      func(ctx context.Context, ws string, r record) (bool, error)
}

// key returns the canonical dump key for a workspace.
func (e entity) key(workspaceID string) string {
	if strings.Contains(e.canonical, "%s") {
		return fmt.Sprintf(e.canonical, workspaceID)
	}
	return e.canonical
}

func (im *Importer) entities(settings *model.Settings) []entity {
	return []entity{
		{
			name: "services", canonical: "zervos_services_%s", prefix: "zervos_services", topic: events.ServicesUpdated,
			save: func(ctx context.Context, ws string, r record) (bool, error) {
				s, ok := adaptService(ws, r)
				if !ok {
					return false, nil
				}
				return true, im.store.SaveService(ctx, s)
			},
		},
		{
			name: "team_members", canonical: "zervos_team_members::%s", prefix: "zervos_team_members", topic: events.TeamMembersUpdated,
			save: func(ctx context.Context, ws string, r record) (bool, error) {
				m, ok := adaptMember(ws, r)
				if !ok {
					return false, nil
				}
				return true, im.store.SaveMember(ctx, m)
			},
		},
		{
			name: "products", canonical: "zervos_products_%s", prefix: "zervos_products", topic: events.ProductsUpdated,
			save: func(ctx context.Context, ws string, r record) (bool, error) {
				p, ok := adaptProduct(ws, r)
				if !ok {
					return false, nil
				}
				return true, im.store.SaveProduct(ctx, p)
			},
		},
		{
			name: "customers", canonical: "customers_%s", prefix: "customers_",
			save: func(ctx context.Context, ws string, r record) (bool, error) {
				c, ok := adaptCustomer(ws, r)
				if !ok {
					return false, nil
				}
				return true, im.store.SaveCustomer(ctx, c)
			},
		},
		{
			name: "workflows", canonical: "zervos_workflows_%s", prefix: "zervos_workflows", topic: events.WorkflowsUpdated,
			save: func(ctx context.Context, ws string, r record) (bool, error) {
				w, ok := adaptWorkflow(ws, r)
				if !ok {
					return false, nil
				}
				if err := workflow.Validate(w); err != nil {
					return false, err
				}
				return true, im.store.SaveWorkflow(ctx, w)
			},
		},
		{
			name: "time_slots", canonical: "zervos_timeslots", prefix: "zervos_timeslots", topic: events.TimeslotsUpdated,
			save: func(ctx context.Context, ws string, r record) (bool, error) {
				c, ok := adaptTimeSlot(ws, r)
				if !ok {
					return false, nil
				}
				return true, im.store.SaveCapacitySlot(ctx, c)
			},
		},
		{
			name: "appointments", canonical: "zervos_appointments", prefix: "zervos_appointments", topic: events.AppointmentsUpdated,
			save: func(ctx context.Context, ws string, r record) (bool, error) {
				a, ok := adaptAppointment(ws, r, settings.Location())
				if !ok {
					return false, nil
				}
				return true, im.store.CreateAppointment(ctx, a)
			},
		},
		{
			name: "transactions", canonical: "pos_transactions", prefix: "pos_transactions", topic: events.BookingsUpdated,
			save: func(ctx context.Context, ws string, r record) (bool, error) {
				t, ok := adaptTransaction(ws, r, im.calc)
				if !ok {
					return false, nil
				}
				return true, im.store.CreateTransaction(ctx, t)
			},
		},
	}
}

// Import stores every recognized key of d into workspaceID. Corrupt values
// and records that fail to store are reported in the result and skipped.
func (im *Importer) Import(ctx context.Context, workspaceID string, d Dump) (*Result, error) {
	if workspaceID == "" {
		return nil, model.Invalid("workspace id is required")
	}
	res := &Result{WorkspaceID: workspaceID, Imported: map[string]int{}, Skipped: map[string]int{}}

	settings, err := im.store.SettingsOrDefault(ctx, workspaceID)
	if err != nil {
		return nil, fmt.Errorf("load settings: %w", err)
	}
	if err := im.importSettings(ctx, settings, d, res); err != nil {
		return nil, err
	}

	for _, e := range im.entities(settings) {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		key, ok := d.find(e.key(workspaceID), e.prefix, workspaceID)
		if !ok {
			continue
		}
		list, err := d.list(key)
		if err != nil {
			im.logger.Warn().Err(err).Str("key", key).Msg("Skipping corrupt legacy value")
			res.warn("%s: corrupt value skipped", key)
			continue
		}

		for i, r := range list {
			stored, err := e.save(ctx, workspaceID, r)
			switch {
			case err != nil:
				im.logger.Warn().Err(err).Str("key", key).Int("index", i).Msg("Skipping legacy record")
				res.warn("%s[%d]: %v", key, i, err)
				res.Skipped[e.name]++
			case !stored:
				res.Skipped[e.name]++
			default:
				res.Imported[e.name]++
			}
		}

		if n := res.Imported[e.name]; n > 0 {
			metrics.AddImported(e.name, n)
			if e.topic != "" {
				im.bus.Notify(e.topic, workspaceID)
			}
		}
	}

	im.logger.Info().
		Str("workspace_id", workspaceID).
		Interface("imported", res.Imported).
		Int("warnings", len(res.Warnings)).
		Msg("Legacy import finished")
	return res, nil
}

func (im *Importer) importSettings(ctx context.Context, s *model.Settings, d Dump, res *Result) error {
	key, ok := d.find("zervos_business_hours", "zervos_business_hours", s.WorkspaceID)
	if !ok {
		return nil
	}
	raw, err := d.value(key)
	var r record
	if err == nil {
		err = json.Unmarshal(raw, &r)
	}
	if err != nil || r == nil {
		im.logger.Warn().Err(err).Str("key", key).Msg("Skipping corrupt legacy value")
		res.warn("%s: corrupt value skipped", key)
		return nil
	}
	// Some clients keyed hours by workspace.
	if nested := r.object(s.WorkspaceID); nested != nil {
		r = nested
	}
	adaptSettings(s, r)
	if err := s.Validate(); err != nil {
		res.warn("%s: %v", key, err)
		res.Skipped["settings"]++
		return nil
	}
	if err := im.store.SaveSettings(ctx, s); err != nil {
		return fmt.Errorf("save settings: %w", err)
	}
	res.Imported["settings"] = 1
	metrics.AddImported("settings", 1)
	im.bus.Notify(events.SettingsUpdated, s.WorkspaceID)
	return nil
}

// list decodes a value holding records. Arrays are used as is; objects are
// searched for a list field and otherwise treated as a single record.
func (d Dump) list(key string) ([]record, error) {
	raw, err := d.value(key)
	if err != nil {
		return nil, err
	}
	var v any
	if err := json.Unmarshal(raw, &v); err != nil {
		return nil, err
	}
	switch t := v.(type) {
	case []any:
		return records(t), nil
	case map[string]any:
		r := record(t)
		if l := r.list("items", "data", "records"); l != nil {
			return l, nil
		}
		return []record{r}, nil
	case nil:
		return nil, nil
	default:
		return nil, fmt.Errorf("unexpected %T", v)
	}
}
