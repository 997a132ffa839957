package classroom

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"
)

// Recognizer turns the student's speech into text.
// Listen returns io.EOF when the student hangs up.
type Recognizer interface {
	Listen(ctx context.Context) (string, error)
}

// RecognitionKind classifies a RecognitionError.
type RecognitionKind string

const (
	KindTimeout        RecognitionKind = "timeout"
	KindUnintelligible RecognitionKind = "unintelligible"
	KindService        RecognitionKind = "service"
)

// RecognitionError is a recoverable listening failure. The session answers
// it with a reprompt and keeps listening.
type RecognitionError struct {
	Kind RecognitionKind
	Err  error
}

func (e *RecognitionError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("classroom: recognition %s: %v", e.Kind, e.Err)
	}
	return "classroom: recognition " + string(e.Kind)
}

func (e *RecognitionError) Unwrap() error {
	return e.Err
}

// DefaultListenTimeout is how long LineRecognizer waits for a line.
const DefaultListenTimeout = 5 * time.Minute

// LineRecognizer reads typed lines. It stands in for a microphone in text
// mode and in tests.
type LineRecognizer struct {
	timeout time.Duration
	prompt  string
	out     io.Writer
	lines   chan string

	// err is set before lines is closed.
	err error
}

// NewLineRecognizer starts reading r. A zero timeout uses
// DefaultListenTimeout. When out is non-nil, prompt is written before each
// Listen.
func NewLineRecognizer(r io.Reader, timeout time.Duration, out io.Writer, prompt string) *LineRecognizer {
	if timeout <= 0 {
		timeout = DefaultListenTimeout
	}
	l := &LineRecognizer{
		timeout: timeout,
		prompt:  prompt,
		out:     out,
		lines:   make(chan string),
	}
	go l.read(r)
	return l
}

func (l *LineRecognizer) read(r io.Reader) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		l.lines <- scanner.Text()
	}
	err := scanner.Err()
	if err == nil {
		err = io.EOF
	}
	l.err = err
	close(l.lines)
}

// Listen implements Recognizer.
func (l *LineRecognizer) Listen(ctx context.Context) (string, error) {
	if l.out != nil && l.prompt != "" {
		fmt.Fprint(l.out, l.prompt)
	}

	t := time.NewTimer(l.timeout)
	defer t.Stop()

	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-t.C:
		return "", &RecognitionError{Kind: KindTimeout}
	case text, ok := <-l.lines:
		if !ok {
			if errors.Is(l.err, io.EOF) {
				return "", io.EOF
			}
			return "", fmt.Errorf("classroom: read input: %w", l.err)
		}
		text = strings.TrimSpace(text)
		if text == "" {
			return "", &RecognitionError{Kind: KindUnintelligible}
		}
		return text, nil
	}
}

var _ Recognizer = (*LineRecognizer)(nil)
