package main

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"
)

func TestWaitForEnter(t *testing.T) {
	if err := waitForEnter(context.Background(), strings.NewReader("\n")); err != nil {
		t.Errorf("Enter: %v", err)
	}
	if err := waitForEnter(context.Background(), strings.NewReader("")); err != nil {
		t.Errorf("closed stdin should start the call, got %v", err)
	}
}

func TestWaitForEnterCancelled(t *testing.T) {
	pr, pw := io.Pipe()
	defer pw.Close()

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(20 * time.Millisecond)
		cancel()
	}()

	done := make(chan error, 1)
	go func() { done <- waitForEnter(ctx, pr) }()

	select {
	case err := <-done:
		if !errors.Is(err, context.Canceled) {
			t.Errorf("err = %v, want context.Canceled", err)
		}
	case <-time.After(time.Second):
		t.Fatal("waitForEnter ignored cancellation while blocked on input")
	}
}
