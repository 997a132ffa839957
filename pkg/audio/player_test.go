package audio

import (
	"context"
	"errors"
	"os/exec"
	"testing"
	"time"
)

func requireShell(t *testing.T) {
	t.Helper()
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
}

func TestPlayBlocksUntilDone(t *testing.T) {
	requireShell(t)

	p := NewPlayerWith(&Command{Name: "sh", Args: []string{"-c", "sleep 0.2", "sh"}}, nil)

	var started, ended bool
	p.OnPlaybackStart = func() { started = true }
	p.OnPlaybackEnd = func() { ended = true }

	start := time.Now()
	if err := p.Play(context.Background(), []byte("clip")); err != nil {
		t.Fatalf("Play failed: %v", err)
	}
	if time.Since(start) < 150*time.Millisecond {
		t.Error("Play returned before the player exited")
	}
	if !started || !ended {
		t.Error("Expected playback callbacks")
	}
	if p.IsPlaying() {
		t.Error("Player should be idle after Play returns")
	}
}

func TestStopInterruptsPlayback(t *testing.T) {
	requireShell(t)

	p := NewPlayerWith(&Command{Name: "sh", Args: []string{"-c", "sleep 5", "sh"}}, nil)

	done := make(chan error, 1)
	go func() { done <- p.Play(context.Background(), []byte("clip")) }()

	deadline := time.Now().Add(2 * time.Second)
	for !p.IsPlaying() && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	p.Stop()

	select {
	case err := <-done:
		if !errors.Is(err, ErrStopped) {
			t.Errorf("Expected ErrStopped, got %v", err)
		}
	case <-time.After(3 * time.Second):
		t.Fatal("Stop did not interrupt playback")
	}
}

func TestPlayEmptyClip(t *testing.T) {
	p := NewPlayerWith(nil, nil)
	if err := p.Play(context.Background(), nil); err != nil {
		t.Errorf("Empty clip should be a no-op, got %v", err)
	}
	if p.Backend() != "silent" {
		t.Errorf("Expected silent backend, got %s", p.Backend())
	}
}

func TestSilentPlayerRejectsGarbage(t *testing.T) {
	p := NewPlayerWith(nil, nil)
	if err := p.Play(context.Background(), []byte("not an mp3")); err == nil {
		t.Error("Expected decode error for non-MP3 data")
	}
}

func TestMP3DurationInvalid(t *testing.T) {
	if _, err := MP3Duration([]byte{0x00, 0x01, 0x02}); err == nil {
		t.Error("Expected error for invalid MP3")
	}
}
