package main

import (
	"bufio"
	"context"
	"io"
)

// waitForEnter blocks until a line is read from r or ctx is done. A read
// still pending when ctx wins is abandoned.
func waitForEnter(ctx context.Context, r io.Reader) error {
	done := make(chan error, 1)
	go func() {
		_, err := bufio.NewReader(r).ReadString('\n')
		done <- err
	}()

	select {
	case err := <-done:
		if err == io.EOF {
			return nil
		}
		return err
	case <-ctx.Done():
		return ctx.Err()
	}
}
