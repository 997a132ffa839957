// profesora: a student talks to Profesora García, who answers school questions
// Typed lines stand in for speech; an empty line counts as not understood.
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

	"github.com/google/uuid"

	"github.com/ArmandoCS23/Hackaton-CallCenter/internal/app"
	"github.com/ArmandoCS23/Hackaton-CallCenter/internal/config"
	"github.com/ArmandoCS23/Hackaton-CallCenter/internal/log"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/classroom"
)

var (
	timeout = flag.Duration("timeout", classroom.DefaultListenTimeout, "How long to wait for each line")
	mute    = flag.Bool("mute", false, "Start with the voice off")
	debug   = flag.Bool("debug", false, "Enable debug logging")
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
	logger := log.New(os.Stderr, cfg.LogLevel)
	slog.SetDefault(logger)

	// The teacher prints her own lines; the console engine would repeat them.
	if cfg.TTSEngine == "console" {
		cfg.TTSEngine = "none"
	}

	a, err := app.New(cfg, app.WithLogger(logger))
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

	fmt.Println("🏫 Profesora García - línea de ayuda escolar")
	fmt.Println("   Escribe tu pregunta. /mute y /unmute controlan la voz; Ctrl+D cuelga.")
	fmt.Println()

	teacher := classroom.NewTeacher(a.Completer,
		classroom.WithSink(a.Sink),
		classroom.WithRecorder(a.Store, uuid.NewString()),
		classroom.WithCommands(true),
		classroom.WithLogger(logger),
	)
	if *mute {
		teacher.Mute(true)
	}

	rec := classroom.NewLineRecognizer(os.Stdin, *timeout, os.Stdout, "Tú: ")
	if err := teacher.Run(ctx, rec); err != nil {
		fmt.Fprintf(os.Stderr, "❌ %v\n", err)
		return 1
	}
	return 0
}
