// Package web exposes the call center over HTTP.
//
// Calls started through the API run as background jobs. Their events are
// replayed and streamed over SSE per job, and broadcast to every client of
// the /ws/events hub.
package web

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/call"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/export"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/hub"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/jobs"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/transcript"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/tts"
)

// Store is the transcript store as seen by the server.
type Store interface {
	call.Recorder
	Recent(ctx context.Context, limit int) ([]transcript.Turn, error)
	Stats(ctx context.Context) (transcript.Stats, error)
	Mode() transcript.Mode
}

// Exporter publishes transcripts to Google Docs.
type Exporter interface {
	GetStatus() export.Status
	AuthURL() string
	HandleCallback(ctx context.Context, state, code string) error
	ExportCall(ctx context.Context, title string, turns []transcript.Turn) (string, error)
}

var (
	ErrNoCompleter = errors.New("web: completer is required")
	ErrNoStore     = errors.New("web: store is required")
)

// Config holds server configuration.
type Config struct {
	Port      string
	Completer call.Completer
	Store     Store

	// Sink speaks calls started through the API. It is shared by every
	// job and closed by the owner. Defaults to a silent sink.
	Sink tts.Sink

	// Exporter is nil when Google export is not configured.
	Exporter Exporter

	// CallOptions apply to every call started through the API.
	CallOptions []call.Option

	JobRetention time.Duration

	// StaticDir, if set, is served at /.
	StaticDir string

	// Debug enables request logging.
	Debug bool

	Logger *slog.Logger
}

// Server is the HTTP control surface.
type Server struct {
	app    *fiber.App
	cfg    Config
	logger *slog.Logger

	jobs   *jobs.Registry
	events *hub.Hub

	// Parent of every job context.
	base   context.Context
	cancel context.CancelFunc
}

// NewServer creates the server and registers its routes.
func NewServer(cfg Config) (*Server, error) {
	if cfg.Completer == nil {
		return nil, ErrNoCompleter
	}
	if cfg.Store == nil {
		return nil, ErrNoStore
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.Sink == nil {
		cfg.Sink = silentSink()
	}
	if cfg.JobRetention <= 0 {
		cfg.JobRetention = jobs.DefaultRetention
	}

	s := &Server{
		cfg:    cfg,
		logger: cfg.Logger.With("component", "web.server"),
		events: hub.New("events", cfg.Logger),
	}
	s.base, s.cancel = context.WithCancel(context.Background())
	s.jobs = jobs.New(
		jobs.WithRetention(cfg.JobRetention),
		jobs.WithListener(s.events.Publish),
		jobs.WithLogger(cfg.Logger),
	)

	app := fiber.New(fiber.Config{
		AppName:               "callcenter",
		DisableStartupMessage: true,
	})

	app.Use(recover.New())
	app.Use(cors.New(cors.Config{
		AllowOrigins: "*",
		AllowMethods: "GET,POST,OPTIONS",
		AllowHeaders: "Content-Type,Authorization",
	}))
	if cfg.Debug {
		app.Use(logger.New())
	}

	if cfg.StaticDir != "" {
		app.Static("/", cfg.StaticDir)
	}

	api := app.Group("/api")
	api.Get("/health", s.handleHealth)
	api.Post("/run_llamada", s.handleRunCall)
	api.Get("/run_llamada/stream/:id", s.handleStream)
	api.Get("/run_llamada/status/:id", s.handleJobStatus)
	api.Post("/run_llamada/:id/cancel", s.handleCancel)
	api.Post("/run_llamada/:id/export", s.handleExport)
	api.Get("/conversaciones", s.handleConversations)
	api.Get("/stats", s.handleStats)
	api.Post("/chat", s.handleChat)
	api.Post("/generate_question", s.handleGenerateQuestion)
	api.Post("/simulate_call", s.handleSimulateCall)

	google := api.Group("/google")
	google.Get("/status", s.handleGoogleStatus)
	google.Get("/auth", s.handleGoogleAuth)
	google.Get("/callback", s.handleGoogleCallback)

	app.Use("/ws", hub.Upgrade)
	app.Get("/ws/events", s.events.Handler())

	s.app = app
	return s, nil
}

// App returns the underlying fiber app.
func (s *Server) App() *fiber.App {
	return s.app
}

// Jobs returns the job registry.
func (s *Server) Jobs() *jobs.Registry {
	return s.jobs
}

// Hub returns the event hub.
func (s *Server) Hub() *hub.Hub {
	return s.events
}

// Start runs the hub and the job reaper, then serves until the listener
// fails or Shutdown is called.
func (s *Server) Start(ctx context.Context) error {
	go s.events.Run(ctx)
	go s.jobs.RunReaper(ctx, time.Minute)

	s.logger.Info("listening", "port", s.cfg.Port)
	return s.app.Listen(":" + s.cfg.Port)
}

// Shutdown cancels running calls and stops the server.
func (s *Server) Shutdown(ctx context.Context) error {
	s.jobs.CancelAll()
	s.cancel()
	return s.app.ShutdownWithContext(ctx)
}

var (
	_ Store    = (*transcript.Store)(nil)
	_ Exporter = (*export.DocsClient)(nil)
)
