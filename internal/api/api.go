package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/nachoandmikey/clawtrol/internal/actions"
	"github.com/nachoandmikey/clawtrol/internal/comms"
	"github.com/nachoandmikey/clawtrol/internal/config"
	"github.com/nachoandmikey/clawtrol/internal/costs"
	"github.com/nachoandmikey/clawtrol/internal/cronjobs"
	"github.com/nachoandmikey/clawtrol/internal/runs"
	"github.com/nachoandmikey/clawtrol/internal/stream"
	"github.com/nachoandmikey/clawtrol/internal/subagents"
	"github.com/nachoandmikey/clawtrol/internal/tasks"
	"github.com/nachoandmikey/clawtrol/internal/webhook"
)

// Server represents the API server
type Server struct {
	cfg      *config.Config
	tasks    *tasks.Store
	agents   *subagents.Service
	comms    *comms.Queue
	runs     *runs.Archiver
	costs    *costs.Ledger
	cron     *cronjobs.Store
	actions  *actions.Runner
	feed     *stream.Feed
	notifier *webhook.Notifier
	router   chi.Router
}

// NewServer wires every store against the config's data root.
func NewServer(cfg *config.Config) *Server {
	s := &Server{
		cfg:      cfg,
		tasks:    tasks.NewStore(cfg.TasksFile()),
		agents:   subagents.NewService(cfg),
		comms:    comms.NewQueue(cfg.CommsDir()),
		runs:     runs.NewArchiver(cfg.RunsFile(), cfg.HistoryFile()),
		costs:    costs.NewLedger(cfg.CostsFile()),
		cron:     cronjobs.NewStore(cfg.CronFile(), cfg.OpenClaw.Bin),
		actions:  actions.NewRunner(cfg.Home, cfg.OpenClaw.Bin),
		feed:     stream.NewFeed(),
		notifier: webhook.NewNotifier(cfg.Webhooks.Discord, cfg.Webhooks.Slack),
		router:   chi.NewRouter(),
	}
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	r := s.router

	// Global middleware
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(CORS)

	r.Get("/api/health", s.HealthCheck)

	// Kanban board
	r.Get("/api/tasks", s.GetTasks)
	r.Post("/api/tasks", s.TaskAction)
	r.Get("/api/tasks/sync-prs", s.SyncPRs)

	// Sub-agents
	r.Get("/api/subclawds", s.ListAgents)
	r.Post("/api/subclawds", s.AgentAction)
	r.Post("/api/subclawds/dispatch", s.PrepareDispatch)
	r.Get("/api/subclawds/history", s.GetHistory)
	r.Post("/api/subclawds/history", s.ArchiveRuns)
	r.Get("/api/subclawds/costs", s.GetCosts)
	r.Post("/api/subclawds/costs", s.RecordCost)
	r.Get("/api/subclawds/comms", s.ListComms)
	r.Post("/api/subclawds/comms", s.CommsAction)
	r.Get("/api/subclawds/wake", s.WakeCheck)
	r.Post("/api/subclawds/wake", s.WakeAgent)

	// Cron jobs
	r.Get("/api/cron", s.GetCronJobs)
	r.Post("/api/cron", s.CronAction)

	// Maintenance
	r.Post("/api/actions", s.RunAction)

	// Dashboard event feed
	r.Get("/api/events", s.StreamEvents)
}

// Router returns the chi router for use with http.Server
func (s *Server) Router() http.Handler {
	return s.router
}

// CORS allows the dashboard UI to call the API from any origin; there is no
// auth to protect.
func CORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
