// Package workflow stores automation definitions and renders their templates.
// Nothing here sends messages.
package workflow

import (
	"context"
	"regexp"
	"slices"
	"sort"
	"strings"

	"github.com/rs/zerolog"

	"zervos/internal/events"
	"zervos/internal/model"
)

// Triggers a workflow may listen for.
var Triggers = []string{
	"appointment_booked",
	"appointment_cancelled",
	"appointment_reminder",
	"appointment_completed",
	"checkout_completed",
	"customer_created",
	"customer_birthday",
	"no_show",
}

// ActionTypes a workflow step may use.
var ActionTypes = []string{"sms", "email", "whatsapp", "webhook"}

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_.]+)\s*\}\}`)

type Repository interface {
	ListWorkflows(ctx context.Context, workspaceID string) ([]model.Workflow, error)
	GetWorkflow(ctx context.Context, workspaceID, id string) (*model.Workflow, error)
	SaveWorkflow(ctx context.Context, w *model.Workflow) error
	DeleteWorkflow(ctx context.Context, workspaceID, id string) error
}

// RenderedAction is an action with its template filled in.
type RenderedAction struct {
	Type         string   `json:"type"`
	Subject      string   `json:"subject,omitempty"`
	Body         string   `json:"body"`
	DelayMinutes int      `json:"delay_minutes,omitempty"`
	Missing      []string `json:"missing,omitempty"`
}

type Service struct {
	repo   Repository
	bus    *events.Bus
	logger *zerolog.Logger
}

func NewService(repo Repository, bus *events.Bus, logger *zerolog.Logger) *Service {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "workflow").Logger()
	return &Service{repo: repo, bus: bus, logger: &l}
}

// Validate checks a workflow definition.
func Validate(w *model.Workflow) error {
	w.Name = strings.TrimSpace(w.Name)
	if w.Name == "" {
		return model.Invalid("workflow name is required")
	}
	if !slices.Contains(Triggers, w.Trigger) {
		return model.Invalid("unknown trigger %q", w.Trigger)
	}
	if len(w.Actions) == 0 {
		return model.Invalid("at least one action is required")
	}
	for i, a := range w.Actions {
		if !slices.Contains(ActionTypes, a.Type) {
			return model.Invalid("action %d: unknown type %q", i, a.Type)
		}
		if strings.TrimSpace(a.Template) == "" {
			return model.Invalid("action %d: template is required", i)
		}
		if a.DelayMinutes < 0 {
			return model.Invalid("action %d: delay cannot be negative", i)
		}
	}
	return nil
}

func (s *Service) List(ctx context.Context, workspaceID string) ([]model.Workflow, error) {
	return s.repo.ListWorkflows(ctx, workspaceID)
}

func (s *Service) Get(ctx context.Context, workspaceID, id string) (*model.Workflow, error) {
	return s.repo.GetWorkflow(ctx, workspaceID, id)
}

func (s *Service) Create(ctx context.Context, workspaceID string, w *model.Workflow) error {
	w.ID = ""
	w.WorkspaceID = workspaceID
	if err := Validate(w); err != nil {
		return err
	}
	if err := s.repo.SaveWorkflow(ctx, w); err != nil {
		return err
	}
	s.notify(workspaceID)
	return nil
}

// Update replaces an existing workflow definition.
func (s *Service) Update(ctx context.Context, workspaceID, id string, w *model.Workflow) error {
	existing, err := s.repo.GetWorkflow(ctx, workspaceID, id)
	if err != nil {
		return err
	}
	w.ID = existing.ID
	w.WorkspaceID = workspaceID
	w.CreatedAt = existing.CreatedAt
	if err := Validate(w); err != nil {
		return err
	}
	if err := s.repo.SaveWorkflow(ctx, w); err != nil {
		return err
	}
	s.notify(workspaceID)
	return nil
}

// SetActive enables or disables a workflow.
func (s *Service) SetActive(ctx context.Context, workspaceID, id string, active bool) (*model.Workflow, error) {
	w, err := s.repo.GetWorkflow(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	w.Active = active
	if err := s.repo.SaveWorkflow(ctx, w); err != nil {
		return nil, err
	}
	s.notify(workspaceID)
	return w, nil
}

func (s *Service) Delete(ctx context.Context, workspaceID, id string) error {
	if err := s.repo.DeleteWorkflow(ctx, workspaceID, id); err != nil {
		return err
	}
	s.notify(workspaceID)
	return nil
}

// Preview renders every action of a workflow against sample values.
func (s *Service) Preview(ctx context.Context, workspaceID, id string, vars map[string]string) ([]RenderedAction, error) {
	w, err := s.repo.GetWorkflow(ctx, workspaceID, id)
	if err != nil {
		return nil, err
	}
	out := make([]RenderedAction, 0, len(w.Actions))
	for _, a := range w.Actions {
		body, missing := Render(a.Template, vars)
		subject, subjectMissing := Render(a.Subject, vars)
		out = append(out, RenderedAction{
			Type:         a.Type,
			Subject:      subject,
			Body:         body,
			DelayMinutes: a.DelayMinutes,
			Missing:      mergeMissing(missing, subjectMissing),
		})
	}
	return out, nil
}

// Render substitutes {{name}} placeholders. Unknown names are left in place
// and reported.
func Render(tmpl string, vars map[string]string) (string, []string) {
	var missing []string
	out := placeholder.ReplaceAllStringFunc(tmpl, func(m string) string {
		name := placeholder.FindStringSubmatch(m)[1]
		if v, ok := vars[name]; ok {
			return v
		}
		missing = append(missing, name)
		return m
	})
	return out, missing
}

func mergeMissing(a, b []string) []string {
	seen := make(map[string]struct{}, len(a)+len(b))
	for _, n := range append(a, b...) {
		seen[n] = struct{}{}
	}
	if len(seen) == 0 {
		return nil
	}
	out := make([]string, 0, len(seen))
	for n := range seen {
		out = append(out, n)
	}
	sort.Strings(out)
	return out
}

func (s *Service) notify(workspaceID string) {
	if s.bus != nil {
		s.bus.Notify(events.WorkflowsUpdated, workspaceID)
	}
	s.logger.Debug().Str("workspace", workspaceID).Msg("workflows changed")
}

// Variables lists the placeholder names a template uses.
func Variables(tmpl string) []string {
	var out []string
	for _, m := range placeholder.FindAllStringSubmatch(tmpl, -1) {
		if !slices.Contains(out, m[1]) {
			out = append(out, m[1])
		}
	}
	return out
}
