// Package export publishes finished call transcripts to Google Docs.
package export

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/docs/v1"
	"google.golang.org/api/option"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/transcript"
)

// Sentinel errors for the export package.
var (
	ErrNoCredentials    = errors.New("export: GOOGLE_CLIENT_ID and GOOGLE_CLIENT_SECRET are required")
	ErrNotAuthenticated = errors.New("export: not authenticated, connect to Google first")
	ErrBadState         = errors.New("export: oauth state mismatch")
	ErrEmptyTranscript  = errors.New("export: transcript has no turns")
)

// Config configures a DocsClient.
type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string // e.g. "http://localhost:5001/api/google/callback"
	TokenPath    string // default ~/.callcenter/google_token.json

	// Endpoint overrides the Docs API base URL.
	Endpoint string

	Logger *slog.Logger
}

// DocsClient handles the OAuth2 flow and creates transcript documents.
type DocsClient struct {
	config    *oauth2.Config
	tokenPath string
	endpoint  string
	logger    *slog.Logger

	mu      sync.RWMutex
	token   *oauth2.Token
	service *docs.Service
	state   string
}

// NewDocsClient creates a client and loads a previously saved token.
func NewDocsClient(cfg Config) (*DocsClient, error) {
	if cfg.ClientID == "" || cfg.ClientSecret == "" {
		return nil, ErrNoCredentials
	}
	if cfg.RedirectURL == "" {
		cfg.RedirectURL = "http://localhost:5001/api/google/callback"
	}
	if cfg.TokenPath == "" {
		home, _ := os.UserHomeDir()
		cfg.TokenPath = filepath.Join(home, ".callcenter", "google_token.json")
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	g := &DocsClient{
		config: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Scopes: []string{
				"https://www.googleapis.com/auth/documents",
				"https://www.googleapis.com/auth/drive.file",
			},
			Endpoint: google.Endpoint,
		},
		tokenPath: cfg.TokenPath,
		endpoint:  cfg.Endpoint,
		logger:    cfg.Logger.With("component", "export.docs"),
	}

	if err := g.loadToken(); err == nil {
		if err := g.initService(context.Background()); err != nil {
			g.token = nil
		}
	}
	return g, nil
}

// IsAuthenticated reports whether a usable token is present.
func (g *DocsClient) IsAuthenticated() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.token != nil && g.token.Valid() && g.service != nil
}

// AuthURL returns the consent URL. Each call issues a fresh state value.
func (g *DocsClient) AuthURL() string {
	state := uuid.NewString()
	g.mu.Lock()
	g.state = state
	g.mu.Unlock()
	return g.config.AuthCodeURL(state, oauth2.AccessTypeOffline, oauth2.ApprovalForce)
}

// HandleCallback exchanges the authorization code for a token.
func (g *DocsClient) HandleCallback(ctx context.Context, state, code string) error {
	g.mu.RLock()
	want := g.state
	g.mu.RUnlock()
	if want == "" || state != want {
		return ErrBadState
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	token, err := g.config.Exchange(ctx, code)
	if err != nil {
		return fmt.Errorf("exchange code for token: %w", err)
	}
	g.setToken(token)

	if err := g.saveToken(); err != nil {
		g.logger.Warn("failed to save token", "error", err)
	}
	if err := g.initService(context.Background()); err != nil {
		return fmt.Errorf("initialize docs service: %w", err)
	}
	return nil
}

func (g *DocsClient) setToken(token *oauth2.Token) {
	g.mu.Lock()
	g.token = token
	g.mu.Unlock()
}

// Disconnect forgets the token and removes it from disk.
func (g *DocsClient) Disconnect() error {
	g.mu.Lock()
	defer g.mu.Unlock()

	g.token = nil
	g.service = nil
	if err := os.Remove(g.tokenPath); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove token file: %w", err)
	}
	return nil
}

// ExportCall creates a document holding the transcript and returns its ID.
func (g *DocsClient) ExportCall(ctx context.Context, title string, turns []transcript.Turn) (string, error) {
	if len(turns) == 0 {
		return "", ErrEmptyTranscript
	}

	g.mu.RLock()
	service := g.service
	g.mu.RUnlock()
	if service == nil {
		return "", ErrNotAuthenticated
	}

	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	created, err := service.Documents.Create(&docs.Document{Title: title}).Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("create document: %w", err)
	}

	_, err = service.Documents.BatchUpdate(created.DocumentId, &docs.BatchUpdateDocumentRequest{
		Requests: []*docs.Request{{
			InsertText: &docs.InsertTextRequest{
				Location: &docs.Location{Index: 1},
				Text:     Format(title, turns),
			},
		}},
	}).Context(ctx).Do()
	if err != nil {
		return created.DocumentId, fmt.Errorf("created doc but failed to add content: %w", err)
	}

	g.logger.Info("transcript exported", "doc_id", created.DocumentId, "turns", len(turns))
	return created.DocumentId, nil
}

// DocURL returns the URL to view a document.
func DocURL(docID string) string {
	return fmt.Sprintf("https://docs.google.com/document/d/%s/edit", docID)
}

// Format renders a transcript as plain document text.
func Format(title string, turns []transcript.Turn) string {
	var sb strings.Builder
	sb.WriteString(title)
	sb.WriteString("\n\n")

	var total float64
	for _, t := range turns {
		fmt.Fprintf(&sb, "[%s] Turno %d · %s\n%s\n\n", t.Timestamp.Format("15:04:05"), t.Index, t.Speaker, t.Message)
		total += t.Duration
	}

	sb.WriteString("---\n")
	fmt.Fprintf(&sb, "Mensajes: %d\n", len(turns))
	fmt.Fprintf(&sb, "Duración total: %.1f s\n", total)
	return sb.String()
}

// Status is the connection state shown by the HTTP surface.
type Status struct {
	Connected bool   `json:"connected"`
	AuthURL   string `json:"auth_url,omitempty"`
}

// GetStatus returns the current connection status.
func (g *DocsClient) GetStatus() Status {
	s := Status{Connected: g.IsAuthenticated()}
	if !s.Connected {
		s.AuthURL = g.AuthURL()
	}
	return s
}

func (g *DocsClient) initService(ctx context.Context) error {
	g.mu.Lock()
	defer g.mu.Unlock()

	if g.token == nil {
		return errors.New("no token available")
	}

	opts := []option.ClientOption{option.WithHTTPClient(g.config.Client(ctx, g.token))}
	if g.endpoint != "" {
		opts = append(opts, option.WithEndpoint(g.endpoint))
	}
	service, err := docs.NewService(ctx, opts...)
	if err != nil {
		return fmt.Errorf("create docs service: %w", err)
	}
	g.service = service
	return nil
}

func (g *DocsClient) loadToken() error {
	data, err := os.ReadFile(g.tokenPath)
	if err != nil {
		return err
	}
	var token oauth2.Token
	if err := json.Unmarshal(data, &token); err != nil {
		return err
	}
	g.setToken(&token)
	return nil
}

func (g *DocsClient) saveToken() error {
	g.mu.RLock()
	token := g.token
	g.mu.RUnlock()
	if token == nil {
		return errors.New("no token to save")
	}

	if err := os.MkdirAll(filepath.Dir(g.tokenPath), 0700); err != nil {
		return err
	}
	data, err := json.MarshalIndent(token, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(g.tokenPath, data, 0600)
}
