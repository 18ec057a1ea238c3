// Package api exposes booking, catalog and POS operations over HTTP/JSON.
package api

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"zervos/internal/booking"
	"zervos/internal/events"
	"zervos/internal/legacy"
	"zervos/internal/model"
	"zervos/internal/pos"
	"zervos/internal/slots"
	"zervos/internal/workflow"
)

// Store is the persistence the handlers use directly.
type Store interface {
	SettingsOrDefault(ctx context.Context, workspaceID string) (*model.Settings, error)
	SaveSettings(ctx context.Context, s *model.Settings) error

	GetService(ctx context.Context, workspaceID, id string) (*model.Service, error)
	ListServices(ctx context.Context, workspaceID string) ([]model.Service, error)
	SaveService(ctx context.Context, s *model.Service) error
	DeleteService(ctx context.Context, workspaceID, id string) error

	GetProduct(ctx context.Context, workspaceID, id string) (*model.Product, error)
	ListProducts(ctx context.Context, workspaceID string) ([]model.Product, error)
	SaveProduct(ctx context.Context, p *model.Product) error
	DeleteProduct(ctx context.Context, workspaceID, id string) error

	GetMember(ctx context.Context, workspaceID, id string) (*model.TeamMember, error)
	ListMembers(ctx context.Context, workspaceID string) ([]model.TeamMember, error)
	SaveMember(ctx context.Context, m *model.TeamMember) error
	DeleteMember(ctx context.Context, workspaceID, id string) error

	ListCapacitySlots(ctx context.Context, workspaceID, date string) ([]slots.CapacitySlot, error)
	SaveCapacitySlot(ctx context.Context, c *slots.CapacitySlot) error

	ListCustomers(ctx context.Context, workspaceID string) ([]model.Customer, error)
	ListTransactions(ctx context.Context, workspaceID string, from, to time.Time) ([]model.Transaction, error)
}

// ReadyCheck is a named dependency check for /readyz.
type ReadyCheck struct {
	Name  string
	Check func(context.Context) error
}

// Deps are the services behind the handlers.
type Deps struct {
	Store     Store
	Engine    *booking.Engine
	Bookings  *booking.Service
	POS       *pos.Service
	Workflows *workflow.Service
	Importer  *legacy.Importer
	Bus       *events.Bus
	Checks    []ReadyCheck
}

// Options tune the HTTP surface.
type Options struct {
	BodyLimitBytes     int64
	RateLimitPerMinute int
	RateLimitBurst     int
	TrustForwardedFor  bool
}

type Server struct {
	Deps
	limiter *clientLimiter
	opts    Options
	logger  *zerolog.Logger
}

func NewServer(deps Deps, opts Options, logger *zerolog.Logger) *Server {
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}
	l := logger.With().Str("component", "api").Logger()
	return &Server{
		Deps:    deps,
		limiter: newClientLimiter(opts.RateLimitPerMinute, opts.RateLimitBurst, opts.TrustForwardedFor),
		opts:    opts,
		logger:  &l,
	}
}

// Handler returns the routed handler wrapped in the middleware chain.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	s.routes(mux)
	return Chain(mux, withRequestID, withAccessLog(s.logger), withBodyLimit(s.opts.BodyLimitBytes))
}

func (s *Server) routes(mux *http.ServeMux) {
	const ws = "/api/workspaces/{ws}"

	mux.HandleFunc("GET /healthz", s.handleHealth)
	mux.HandleFunc("GET /readyz", s.handleReady)

	// public booking surface
	mux.Handle("GET "+ws+"/availability/dates", s.limiter.wrap(http.HandlerFunc(s.handleDates)))
	mux.Handle("GET "+ws+"/availability/slots", s.limiter.wrap(http.HandlerFunc(s.handleSlots)))
	mux.Handle("POST "+ws+"/appointments", s.limiter.wrap(http.HandlerFunc(s.handleBook)))

	mux.HandleFunc("GET "+ws+"/appointments", s.handleListAppointments)
	mux.HandleFunc("DELETE "+ws+"/appointments/{id}", s.handleCancel)

	mux.HandleFunc("GET "+ws+"/settings", s.handleGetSettings)
	mux.HandleFunc("PUT "+ws+"/settings", s.handlePutSettings)

	mux.HandleFunc("GET "+ws+"/services", s.handleListServices)
	mux.HandleFunc("POST "+ws+"/services", s.handleCreateService)
	mux.HandleFunc("GET "+ws+"/services/{id}", s.handleGetService)
	mux.HandleFunc("PUT "+ws+"/services/{id}", s.handleUpdateService)
	mux.HandleFunc("DELETE "+ws+"/services/{id}", s.handleDeleteService)

	mux.HandleFunc("GET "+ws+"/products", s.handleListProducts)
	mux.HandleFunc("POST "+ws+"/products", s.handleCreateProduct)
	mux.HandleFunc("GET "+ws+"/products/{id}", s.handleGetProduct)
	mux.HandleFunc("PUT "+ws+"/products/{id}", s.handleUpdateProduct)
	mux.HandleFunc("DELETE "+ws+"/products/{id}", s.handleDeleteProduct)

	mux.HandleFunc("GET "+ws+"/members", s.handleListMembers)
	mux.HandleFunc("POST "+ws+"/members", s.handleCreateMember)
	mux.HandleFunc("GET "+ws+"/members/{id}", s.handleGetMember)
	mux.HandleFunc("PUT "+ws+"/members/{id}", s.handleUpdateMember)
	mux.HandleFunc("DELETE "+ws+"/members/{id}", s.handleDeleteMember)

	mux.HandleFunc("GET "+ws+"/timeslots", s.handleListTimeSlots)
	mux.HandleFunc("POST "+ws+"/timeslots", s.handleSaveTimeSlot)

	mux.HandleFunc("GET "+ws+"/customers", s.handleListCustomers)

	mux.HandleFunc("POST "+ws+"/pos/quote", s.handleQuote)
	mux.HandleFunc("GET "+ws+"/pos/registers/{rid}", s.handleGetRegister)
	mux.HandleFunc("POST "+ws+"/pos/registers/{rid}/tabs", s.handleNewTab)
	mux.HandleFunc("POST "+ws+"/pos/registers/{rid}/tabs/{tid}/activate", s.handleActivateTab)
	mux.HandleFunc("DELETE "+ws+"/pos/registers/{rid}/tabs/{tid}", s.handleCloseTab)
	mux.HandleFunc("PUT "+ws+"/pos/registers/{rid}/cart", s.handleUpdateCart)
	mux.HandleFunc("POST "+ws+"/pos/registers/{rid}/checkout", s.handleCheckout)

	mux.HandleFunc("GET "+ws+"/transactions", s.handleListTransactions)
	mux.HandleFunc("GET "+ws+"/transactions/export", s.handleExportTransactions)

	mux.HandleFunc("GET "+ws+"/workflows", s.handleListWorkflows)
	mux.HandleFunc("POST "+ws+"/workflows", s.handleCreateWorkflow)
	mux.HandleFunc("GET "+ws+"/workflows/{id}", s.handleGetWorkflow)
	mux.HandleFunc("PUT "+ws+"/workflows/{id}", s.handleUpdateWorkflow)
	mux.HandleFunc("PUT "+ws+"/workflows/{id}/active", s.handleSetWorkflowActive)
	mux.HandleFunc("DELETE "+ws+"/workflows/{id}", s.handleDeleteWorkflow)
	mux.HandleFunc("POST "+ws+"/workflows/{id}/preview", s.handlePreviewWorkflow)

	mux.HandleFunc("POST "+ws+"/import", s.handleImport)
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	var failures []string
	for _, check := range s.Checks {
		if check.Check == nil {
			continue
		}
		ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
		err := check.Check(ctx)
		cancel()
		if err != nil {
			name := check.Name
			if name == "" {
				name = "dependency"
			}
			failures = append(failures, name+": "+err.Error())
		}
	}
	if len(failures) > 0 {
		writeError(w, http.StatusServiceUnavailable, strings.Join(failures, "; "))
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) notify(topic, workspaceID string) {
	if s.Bus != nil {
		s.Bus.Notify(topic, workspaceID)
	}
}
