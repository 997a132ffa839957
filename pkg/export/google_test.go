package export

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"golang.org/x/oauth2"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/transcript"
)

func newTestClient(t *testing.T, endpoint string) *DocsClient {
	t.Helper()
	client, err := NewDocsClient(Config{
		ClientID:     "test-client-id",
		ClientSecret: "test-client-secret",
		TokenPath:    filepath.Join(t.TempDir(), "token.json"),
		Endpoint:     endpoint,
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return client
}

func sampleTurns() []transcript.Turn {
	ts := time.Date(2024, 3, 1, 10, 0, 0, 0, time.UTC)
	return []transcript.Turn{
		{Speaker: persona.Student, Index: 0, Message: "Hola profe", Duration: 1.5, Timestamp: ts},
		{Speaker: persona.Teacher, Index: 1, Message: "Hola Carlos", Duration: 2, Timestamp: ts.Add(3 * time.Second)},
	}
}

func TestNewDocsClientMissingCredentials(t *testing.T) {
	_, err := NewDocsClient(Config{})
	if !errors.Is(err, ErrNoCredentials) {
		t.Errorf("Expected ErrNoCredentials, got %v", err)
	}
}

func TestStatusWithoutToken(t *testing.T) {
	client := newTestClient(t, "")
	if client.IsAuthenticated() {
		t.Error("Expected not authenticated without token")
	}

	status := client.GetStatus()
	if status.Connected {
		t.Error("Expected not connected")
	}
	u, err := url.Parse(status.AuthURL)
	if err != nil {
		t.Fatal(err)
	}
	if u.Query().Get("state") == "" || u.Query().Get("client_id") != "test-client-id" {
		t.Errorf("Unexpected auth URL %s", status.AuthURL)
	}
}

func TestCallbackRejectsBadState(t *testing.T) {
	client := newTestClient(t, "")
	client.AuthURL()

	err := client.HandleCallback(context.Background(), "forged", "code")
	if !errors.Is(err, ErrBadState) {
		t.Errorf("Expected ErrBadState, got %v", err)
	}
}

func TestExportRequiresAuthAndTurns(t *testing.T) {
	client := newTestClient(t, "")
	if _, err := client.ExportCall(context.Background(), "x", nil); !errors.Is(err, ErrEmptyTranscript) {
		t.Errorf("Expected ErrEmptyTranscript, got %v", err)
	}
	if _, err := client.ExportCall(context.Background(), "x", sampleTurns()); !errors.Is(err, ErrNotAuthenticated) {
		t.Errorf("Expected ErrNotAuthenticated, got %v", err)
	}
}

func TestFormat(t *testing.T) {
	text := Format("Llamada", sampleTurns())

	for _, want := range []string{
		"Llamada\n\n",
		"[10:00:00] Turno 0 · Carlos\nHola profe",
		"[10:00:03] Turno 1 · Profesora García\nHola Carlos",
		"Mensajes: 2",
		"Duración total: 3.5 s",
	} {
		if !strings.Contains(text, want) {
			t.Errorf("Formatted text missing %q:\n%s", want, text)
		}
	}
}

func TestExportCall(t *testing.T) {
	var inserted string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("Authorization = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		switch {
		case r.URL.Path == "/v1/documents":
			json.NewEncoder(w).Encode(map[string]string{"documentId": "doc-1", "title": "Llamada"})
		case r.URL.Path == "/v1/documents/doc-1:batchUpdate":
			var body struct {
				Requests []struct {
					InsertText struct {
						Text string `json:"text"`
					} `json:"insertText"`
				} `json:"requests"`
			}
			json.NewDecoder(r.Body).Decode(&body)
			if len(body.Requests) == 1 {
				inserted = body.Requests[0].InsertText.Text
			}
			json.NewEncoder(w).Encode(map[string]string{"documentId": "doc-1"})
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	client := newTestClient(t, srv.URL+"/")
	client.setToken(&oauth2.Token{AccessToken: "test-token", TokenType: "Bearer"})
	if err := client.initService(context.Background()); err != nil {
		t.Fatal(err)
	}
	if !client.IsAuthenticated() {
		t.Fatal("Expected authenticated client")
	}

	id, err := client.ExportCall(context.Background(), "Llamada", sampleTurns())
	if err != nil {
		t.Fatalf("ExportCall: %v", err)
	}
	if id != "doc-1" {
		t.Errorf("Doc ID = %q", id)
	}
	if !strings.Contains(inserted, "Hola Carlos") {
		t.Errorf("Inserted text missing transcript: %q", inserted)
	}
	if DocURL(id) != "https://docs.google.com/document/d/doc-1/edit" {
		t.Errorf("Unexpected doc URL %s", DocURL(id))
	}
}

func TestTokenRoundTrip(t *testing.T) {
	client := newTestClient(t, "")
	client.setToken(&oauth2.Token{AccessToken: "abc", TokenType: "Bearer"})
	if err := client.saveToken(); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(client.tokenPath)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("Token file mode = %v", info.Mode().Perm())
	}

	reloaded, err := NewDocsClient(Config{ClientID: "a", ClientSecret: "b", TokenPath: client.tokenPath})
	if err != nil {
		t.Fatal(err)
	}
	if !reloaded.IsAuthenticated() {
		t.Error("Saved token should be loaded")
	}

	if err := reloaded.Disconnect(); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(client.tokenPath); !os.IsNotExist(err) {
		t.Error("Disconnect should remove the token file")
	}
}
