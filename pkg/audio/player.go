// Package audio plays synthesized speech on the local machine.
package audio

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/exec"
	"sync"
	"time"

	"github.com/hajimehoshi/go-mp3"
)

// ErrStopped is returned by Play when Stop interrupted playback.
var ErrStopped = errors.New("audio: playback stopped")

// Command is an external MP3 player invocation. The file path is appended
// to Args.
type Command struct {
	Name string
	Args []string
}

// DefaultCommands are tried in order; the first one found on PATH is used.
var DefaultCommands = []Command{
	{Name: "ffplay", Args: []string{"-nodisp", "-autoexit", "-loglevel", "quiet"}},
	{Name: "mpg123", Args: []string{"-q"}},
	{Name: "afplay"},
}

// Player plays MP3 clips one at a time and blocks until each finishes.
type Player struct {
	cmd    *Command // nil: no player binary, wait out the clip instead
	logger *slog.Logger

	// Callbacks
	OnPlaybackStart func()
	OnPlaybackEnd   func()

	mu      sync.Mutex
	cancel  context.CancelFunc
	playing bool
}

// NewPlayer finds a player binary on PATH.
// Without one, Play sleeps for the decoded clip length so callers keep
// the same pacing.
func NewPlayer(logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	p := &Player{logger: logger.With("component", "audio.player")}
	for _, c := range DefaultCommands {
		if _, err := exec.LookPath(c.Name); err == nil {
			c := c
			p.cmd = &c
			break
		}
	}
	if p.cmd == nil {
		p.logger.Warn("no audio player found on PATH, playback will be silent")
	}
	return p
}

// NewPlayerWith uses cmd for playback. A nil cmd gives a silent player.
func NewPlayerWith(cmd *Command, logger *slog.Logger) *Player {
	if logger == nil {
		logger = slog.Default()
	}
	return &Player{cmd: cmd, logger: logger.With("component", "audio.player")}
}

// Backend returns the player binary name, or "silent".
func (p *Player) Backend() string {
	if p.cmd == nil {
		return "silent"
	}
	return p.cmd.Name
}

// Play plays an MP3 clip and returns when it has finished.
func (p *Player) Play(ctx context.Context, clip []byte) error {
	if len(clip) == 0 {
		return nil
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	p.mu.Lock()
	if p.playing {
		p.mu.Unlock()
		return fmt.Errorf("audio: already playing")
	}
	p.playing = true
	p.cancel = cancel
	p.mu.Unlock()

	if p.OnPlaybackStart != nil {
		p.OnPlaybackStart()
	}

	err := p.play(ctx, clip)

	p.mu.Lock()
	p.playing = false
	p.cancel = nil
	p.mu.Unlock()

	if p.OnPlaybackEnd != nil {
		p.OnPlaybackEnd()
	}
	return err
}

func (p *Player) play(ctx context.Context, clip []byte) error {
	if p.cmd == nil {
		d, err := MP3Duration(clip)
		if err != nil {
			return err
		}
		t := time.NewTimer(d)
		defer t.Stop()
		select {
		case <-t.C:
			return nil
		case <-ctx.Done():
			return ErrStopped
		}
	}

	f, err := os.CreateTemp("", "callcenter-*.mp3")
	if err != nil {
		return fmt.Errorf("audio: temp file: %w", err)
	}
	defer os.Remove(f.Name())

	if _, err := f.Write(clip); err != nil {
		f.Close()
		return fmt.Errorf("audio: write clip: %w", err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("audio: write clip: %w", err)
	}

	args := append(append([]string(nil), p.cmd.Args...), f.Name())
	cmd := exec.CommandContext(ctx, p.cmd.Name, args...)

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ErrStopped
		}
		return fmt.Errorf("audio: %s: %w", p.cmd.Name, err)
	}
	return nil
}

// Stop interrupts the clip being played, if any.
func (p *Player) Stop() {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.cancel != nil {
		p.cancel()
	}
}

// IsPlaying returns whether a clip is currently playing.
func (p *Player) IsPlaying() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.playing
}

// MP3Duration decodes clip and returns its playback length.
func MP3Duration(clip []byte) (time.Duration, error) {
	dec, err := mp3.NewDecoder(bytes.NewReader(clip))
	if err != nil {
		return 0, fmt.Errorf("audio: decode mp3: %w", err)
	}

	n := dec.Length()
	if n < 0 {
		// Length unknown; count decoded bytes instead.
		n, err = io.Copy(io.Discard, dec)
		if err != nil {
			return 0, fmt.Errorf("audio: decode mp3: %w", err)
		}
	}

	// go-mp3 always yields 16-bit stereo: 4 bytes per frame.
	frames := n / 4
	rate := dec.SampleRate()
	if rate <= 0 {
		return 0, fmt.Errorf("audio: bad sample rate %d", rate)
	}
	return time.Duration(frames) * time.Second / time.Duration(rate), nil
}
