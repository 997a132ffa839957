// callcenter: HTTP control surface for simulated calls
// Starts calls as jobs, streams their events and serves the transcript history
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ArmandoCS23/Hackaton-CallCenter/internal/app"
	"github.com/ArmandoCS23/Hackaton-CallCenter/internal/config"
	"github.com/ArmandoCS23/Hackaton-CallCenter/internal/log"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/call"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/web"
)

var (
	port      = flag.String("port", "", "HTTP server port (overrides API_PORT)")
	staticDir = flag.String("static", "", "Directory served at /")
	speak     = flag.Bool("speak", false, "Play calls through the configured TTS engine")
	debug     = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	cfg, err := config.Load(context.Background())
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		return 1
	}
	if *port != "" {
		cfg.Port = *port
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	logger := log.New(os.Stdout, cfg.LogLevel)
	slog.SetDefault(logger)

	opts := []app.Option{app.WithLogger(logger)}
	if !*speak {
		opts = append(opts, app.WithSilentSink())
	}
	a, err := app.New(cfg, opts...)
	if err != nil {
		if errors.Is(err, config.ErrNoAPIKey) {
			fmt.Fprintln(os.Stderr, "❌ Falta GROQ_API_KEY: configúrala en el entorno o en .env")
		} else {
			fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		}
		return 1
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	if err := a.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Initialization failed: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Shutdown(); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()

	srvCfg := web.Config{
		Port:      cfg.Port,
		Completer: a.Completer,
		Store:     a.Store,
		Sink:      a.Sink,
		CallOptions: []call.Option{
			call.WithMaxTurns(cfg.MaxTurns),
		},
		StaticDir: *staticDir,
		Debug:     *debug,
		Logger:    logger,
	}
	if a.Exporter != nil {
		srvCfg.Exporter = a.Exporter
	}
	srv, err := web.NewServer(srvCfg)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}

	fmt.Println()
	fmt.Println("☎️  Call Center")
	fmt.Printf("   API:       http://localhost:%s/api/health\n", cfg.Port)
	fmt.Printf("   Events:    ws://localhost:%s/ws/events\n", cfg.Port)
	fmt.Printf("   Store:     %s\n", a.Store.Mode())
	if srvCfg.Exporter != nil {
		fmt.Printf("   Google:    http://localhost:%s/api/google/auth\n", cfg.Port)
	}
	fmt.Println()

	errc := make(chan error, 1)
	go func() { errc <- srv.Start(ctx) }()

	select {
	case err := <-errc:
		if err != nil {
			logger.Error("server error", "error", err)
			return 1
		}
		return 0
	case <-ctx.Done():
	}

	logger.Info("shutting down")
	shutdownCtx, stop := context.WithTimeout(context.Background(), 5*time.Second)
	defer stop()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("shutdown error", "error", err)
	}
	fmt.Println("✅ Goodbye!")
	return 0
}
