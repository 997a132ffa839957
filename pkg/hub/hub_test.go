package hub

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gorilla/websocket"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/call"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
)

func TestNewHub(t *testing.T) {
	h := New("events", nil)
	if h.ClientCount() != 0 {
		t.Error("ClientCount should be 0 initially")
	}
	if h.IsRunning() {
		t.Error("Hub should not be running before Run")
	}
}

func TestNewEventMessage(t *testing.T) {
	msg, err := NewEventMessage("job-1", call.Event{Type: call.EventTurn, Speaker: persona.Student, Text: "Hola"})
	if err != nil {
		t.Fatal(err)
	}

	var env Envelope
	if err := json.Unmarshal(msg.Data, &env); err != nil {
		t.Fatal(err)
	}
	if env.JobID != "job-1" || env.Event.Text != "Hola" || env.Event.Speaker != persona.Student {
		t.Errorf("Unexpected envelope %+v", env)
	}
}

func TestRunStopsWithContext(t *testing.T) {
	h := New("events", nil)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(done)
	}()

	time.Sleep(20 * time.Millisecond)
	if !h.IsRunning() {
		t.Error("Hub should be running")
	}
	cancel()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Run did not return after cancel")
	}
	if h.IsRunning() {
		t.Error("Hub should have stopped")
	}
}

func TestBroadcastToWebSocket(t *testing.T) {
	h := New("events", nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use("/ws", Upgrade)
	app.Get("/ws/events", h.Handler())

	go app.Listen(":18090")
	defer app.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18090/ws/events", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.ClientCount() != 1 {
		t.Fatalf("ClientCount = %d, want 1", h.ClientCount())
	}

	h.Publish("job-7", call.Event{Type: call.EventTurn, Speaker: persona.Teacher, Text: "Hola Carlos", Index: 1})

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if env.JobID != "job-7" || env.Event.Index != 1 || env.Event.Text != "Hola Carlos" {
		t.Errorf("Unexpected envelope %+v", env)
	}

	ws.Close()
	deadline = time.Now().Add(time.Second)
	for h.ClientCount() != 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	if h.ClientCount() != 0 {
		t.Errorf("ClientCount = %d, want 0 after disconnect", h.ClientCount())
	}
}

func TestUpgradeRejectsPlainHTTP(t *testing.T) {
	app := fiber.New()
	app.Use("/ws", Upgrade)
	app.Get("/ws/events", func(c *fiber.Ctx) error { return c.SendString("unreachable") })

	req := httptest.NewRequest(http.MethodGet, "/ws/events", nil)
	resp, err := app.Test(req)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != fiber.StatusUpgradeRequired {
		t.Errorf("Status = %d, want 426", resp.StatusCode)
	}
}

func TestClientWants(t *testing.T) {
	all := &Client{}
	one := &Client{job: "job-1"}

	tests := []struct {
		name   string
		client *Client
		msg    Message
		want   bool
	}{
		{"unfiltered sees any job", all, Message{JobID: "job-2"}, true},
		{"filtered sees its job", one, Message{JobID: "job-1"}, true},
		{"filtered skips other jobs", one, Message{JobID: "job-2"}, false},
		{"filtered sees untagged frames", one, Message{}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.client.Wants(tt.msg); got != tt.want {
				t.Errorf("Wants() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestJobFilteredWebSocket(t *testing.T) {
	h := New("events", nil)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go h.Run(ctx)

	app := fiber.New(fiber.Config{DisableStartupMessage: true})
	app.Use("/ws", Upgrade)
	app.Get("/ws/events", h.Handler())

	go app.Listen(":18091")
	defer app.Shutdown()
	time.Sleep(100 * time.Millisecond)

	ws, _, err := websocket.DefaultDialer.Dial("ws://localhost:18091/ws/events?job=job-1", nil)
	if err != nil {
		t.Fatalf("WebSocket dial error: %v", err)
	}
	defer ws.Close()

	deadline := time.Now().Add(time.Second)
	for h.ClientCount() != 1 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}

	h.Publish("job-2", call.Event{Type: call.EventTurn, Speaker: persona.Student, Text: "Otra llamada"})
	h.Publish("job-1", call.Event{Type: call.EventTurn, Speaker: persona.Teacher, Text: "Hola Carlos"})

	ws.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, data, err := ws.ReadMessage()
	if err != nil {
		t.Fatalf("Read error: %v", err)
	}
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		t.Fatal(err)
	}
	if env.JobID != "job-1" || env.Event.Text != "Hola Carlos" {
		t.Errorf("Got %+v, want only job-1 events", env)
	}
}
