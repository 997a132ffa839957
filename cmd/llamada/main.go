// llamada: plays one simulated call between Profesora García and Carlos
package main

import (
	"context"
	"encoding/json"
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
)

const historySize = 5

var (
	auto   = flag.Bool("auto", false, "Start without waiting for Enter")
	turns  = flag.Int("turns", 0, "Teacher/student pairs before closing (overrides MAX_TURNS)")
	events = flag.Bool("events", false, "Print every call event as an EVENT: <json> line")
	noPace = flag.Bool("no-pace", false, "Do not wait between console lines")
	debug  = flag.Bool("debug", false, "Enable debug logging")
)

func main() {
	os.Exit(run())
}

func run() int {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	cfg, err := config.Load(ctx)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		return 1
	}
	if *debug {
		cfg.LogLevel = "debug"
	}
	if *turns > 0 {
		cfg.MaxTurns = *turns
	}
	logger := log.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	a, err := app.New(cfg, app.WithLogger(logger), app.WithPacing(!*noPace))
	if err != nil {
		if errors.Is(err, config.ErrNoAPIKey) {
			fmt.Fprintln(os.Stderr, "❌ Falta GROQ_API_KEY: configúrala en el entorno o en .env")
		} else {
			fmt.Fprintf(os.Stderr, "❌ Configuration error: %v\n", err)
		}
		return 1
	}
	if err := a.Init(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "❌ Initialization failed: %v\n", err)
		return 1
	}
	defer func() {
		if err := a.Shutdown(); err != nil {
			logger.Warn("shutdown", "error", err)
		}
	}()

	fmt.Println("📞 Llamada: Profesora García ↔ Carlos")
	fmt.Println("=====================================")
	printSummary(ctx, a)

	if !*auto {
		fmt.Print("\nPresiona Enter para iniciar la llamada...")
		if err := waitForEnter(ctx, os.Stdin); err != nil {
			if ctx.Err() != nil {
				fmt.Println("\n👋 Llamada cancelada")
				return 0
			}
			fmt.Fprintf(os.Stderr, "❌ %v\n", err)
			return 1
		}
	}

	opts := []call.Option{
		call.WithMaxTurns(cfg.MaxTurns),
		call.WithTurnPause(500 * time.Millisecond),
		call.WithLogger(logger),
		call.WithObserver(observer(*events)),
	}
	ctrl, err := call.New(a.Completer, a.Sink, a.Store, opts...)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}

	fmt.Println()
	session := ctrl.Run(ctx)
	fmt.Println()

	switch session.Reason {
	case call.ReasonFarewell:
		fmt.Println("✅ Llamada terminada: despedida")
	case call.ReasonTurnLimit:
		fmt.Println("✅ Llamada terminada: límite de turnos")
	case call.ReasonInterrupted:
		fmt.Println("👋 Llamada interrumpida")
	case call.ReasonAborted:
		fmt.Printf("❌ Llamada abortada: %v\n", session.Err)
	}
	fmt.Printf("   %d mensajes, %d turnos, almacenamiento: %s\n\n", session.NextIndex, session.TurnCount, a.Store.Mode())

	printSummary(context.WithoutCancel(ctx), a)

	if session.Reason == call.ReasonAborted {
		return 1
	}
	return 0
}

func printSummary(ctx context.Context, a *app.App) {
	if err := a.PrintHistory(ctx, os.Stdout, historySize); err != nil {
		fmt.Printf("⚠️  Historial no disponible: %v\n", err)
	}
	if err := a.PrintStats(ctx, os.Stdout); err != nil {
		fmt.Printf("⚠️  Estadísticas no disponibles: %v\n", err)
	}
}

// observer prints retries, and every event as JSON when verbose is set.
func observer(verbose bool) call.Observer {
	return func(e call.Event) {
		if verbose {
			if data, err := json.Marshal(e); err == nil {
				fmt.Printf("EVENT: %s\n", data)
			}
			return
		}
		if e.Type == call.EventRetry {
			fmt.Printf("   ⚠️  %s no respondió, reintentando... (%s)\n", e.Speaker, e.Error)
		}
	}
}
