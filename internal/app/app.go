// Package app wires configuration into the components shared by the call
// center binaries.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"

	"github.com/ArmandoCS23/Hackaton-CallCenter/internal/config"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/export"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/inference"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/transcript"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/tts"
)

// App holds the initialized components.
type App struct {
	Config config.App

	Provider  inference.Provider
	Completer *inference.Completer
	Store     *transcript.Store
	Sink      tts.Sink

	// Exporter is nil unless Google OAuth is configured.
	Exporter *export.DocsClient

	out    io.Writer
	pace   bool
	silent bool
	logger *slog.Logger
}

// Option configures an App.
type Option func(*App)

// WithOutput sets where console speech and progress are printed.
func WithOutput(w io.Writer) Option {
	return func(a *App) { a.out = w }
}

// WithPacing makes the console engine wait as long as speaking would take.
func WithPacing(enabled bool) Option {
	return func(a *App) { a.pace = enabled }
}

// WithSilentSink replaces the configured engine with a sink that says
// nothing. Used by the web server, whose calls are followed over SSE.
func WithSilentSink() Option {
	return func(a *App) { a.silent = true }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(a *App) {
		if l != nil {
			a.logger = l
		}
	}
}

// New validates cfg. A missing API key is reported as config.ErrNoAPIKey.
func New(cfg config.App, opts ...Option) (*App, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	a := &App{
		Config: cfg,
		out:    os.Stdout,
		logger: slog.Default(),
	}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// Init builds the completion client, the transcript store, the speech sink
// and, when configured, the Google exporter. Only the completion client can
// fail; the store falls back to memory on its own.
func (a *App) Init(ctx context.Context) error {
	if a.Provider == nil {
		p, err := inference.NewClient(
			inference.WithAPIKey(a.Config.APIKey),
			inference.WithBaseURL(a.Config.BaseURL),
			inference.WithLogger(a.logger),
		)
		if err != nil {
			return fmt.Errorf("inference client: %w", err)
		}
		a.Provider = p
	}

	c, err := inference.NewCompleter(a.Provider,
		inference.WithModelOverride(a.Config.ModelOverride),
		inference.WithLogger(a.logger),
	)
	if err != nil {
		return fmt.Errorf("completer: %w", err)
	}
	a.Completer = c
	a.logger.Info("completion ready", "candidates", c.Candidates())

	driver, dsn := a.Config.DatabaseDriver, a.Config.DatabaseURL
	if m := a.Config.MySQL; driver == "mysql" && m.Configured() {
		dsn = transcript.MySQLDSN(m.Host, m.Port, m.User, m.Password, m.Database)
	}
	a.Store = transcript.Open(ctx, driver, dsn,
		transcript.WithDumpPath(a.Config.DumpPath),
		transcript.WithLogger(a.logger),
	)
	a.logger.Info("transcript store ready", "driver", driver, "mode", a.Store.Mode())

	engine := a.Config.TTSEngine
	if a.silent {
		engine = "none"
	}
	sink, err := tts.NewSink(tts.SinkConfig{
		Engine:        engine,
		OpenAIKey:     a.Config.OpenAIKey,
		ElevenLabsKey: a.Config.ElevenLabsKey,
		Voices:        tts.DefaultVoices(engine).With(a.Config.TeacherVoice, a.Config.StudentVoice),
		Pace:          a.pace,
		Out:           a.out,
		Logger:        a.logger,
	})
	if err != nil {
		a.logger.Warn("speech engine unavailable, printing instead", "engine", engine, "error", err)
		sink = tts.NewPacedSink(a.out, nil, a.pace)
	}
	a.Sink = sink

	if a.Config.GoogleConfigured() {
		ex, err := export.NewDocsClient(export.Config{
			ClientID:     a.Config.GoogleClientID,
			ClientSecret: a.Config.GoogleClientSecret,
			RedirectURL:  a.Config.GoogleRedirectURL,
			Logger:       a.logger,
		})
		if err != nil {
			a.logger.Warn("google export disabled", "error", err)
		} else {
			a.Exporter = ex
		}
	}
	return nil
}

// Shutdown closes the sink, the store and the completion client. In memory
// mode closing the store writes the dump file.
func (a *App) Shutdown() error {
	var errs []error
	if a.Sink != nil {
		errs = append(errs, a.Sink.Close())
	}
	if a.Store != nil {
		errs = append(errs, a.Store.Close())
	}
	if a.Provider != nil {
		errs = append(errs, a.Provider.Close())
	}
	return errors.Join(errs...)
}

// PrintHistory writes the most recent turns, newest first.
func (a *App) PrintHistory(ctx context.Context, w io.Writer, limit int) error {
	turns, err := a.Store.Recent(ctx, limit)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "📜 Últimos %d mensajes:\n", limit)
	if len(turns) == 0 {
		fmt.Fprintln(w, "   (sin mensajes)")
		return nil
	}
	for _, t := range turns {
		fmt.Fprintf(w, "   [%s] %s: %s\n", t.Timestamp.Format("2006-01-02 15:04:05"), t.Speaker, t.Message)
	}
	return nil
}

// PrintStats writes the aggregate store statistics.
func (a *App) PrintStats(ctx context.Context, w io.Writer) error {
	stats, err := a.Store.Stats(ctx)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "📊 Estadísticas (%s):\n", a.Store.Mode())
	fmt.Fprintf(w, "   Total de mensajes: %d\n", stats.TotalMessages)

	speakers := make([]string, 0, len(stats.MessagesPerSpeaker))
	for s := range stats.MessagesPerSpeaker {
		speakers = append(speakers, string(s))
	}
	sort.Strings(speakers)
	for _, s := range speakers {
		fmt.Fprintf(w, "   %s: %d\n", s, stats.MessagesPerSpeaker[persona.Speaker(s)])
	}
	fmt.Fprintf(w, "   Duración total: %.1f s\n", stats.TotalDurationSeconds)
	return nil
}
