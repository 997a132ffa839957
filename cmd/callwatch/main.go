// callwatch: tails the call center event hub and prints calls as they happen
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/call"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/hub"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/jobs"
)

var (
	addr  = flag.String("addr", "localhost:5001", "Call center host:port")
	jobID = flag.String("job", "", "Only show events of this job")
	raw   = flag.Bool("raw", false, "Print events as JSON")
)

func main() {
	flag.Parse()

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	u := url.URL{Scheme: "ws", Host: *addr, Path: "/ws/events"}
	if *jobID != "" {
		u.RawQuery = url.Values{"job": {*jobID}}.Encode()
	}
	dialer := websocket.Dialer{HandshakeTimeout: 10 * time.Second}
	conn, _, err := dialer.DialContext(ctx, u.String(), nil)
	if err != nil {
		fmt.Fprintf(os.Stderr, "❌ Could not connect to %s: %v\n", u.String(), err)
		os.Exit(1)
	}
	defer conn.Close()

	fmt.Printf("👀 Watching %s (Ctrl+C to exit)\n\n", u.String())

	go func() {
		<-ctx.Done()
		conn.WriteControl(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""),
			time.Now().Add(time.Second))
		conn.Close()
	}()

	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if ctx.Err() == nil {
				fmt.Fprintf(os.Stderr, "❌ Connection lost: %v\n", err)
				os.Exit(1)
			}
			return
		}

		var env hub.Envelope
		if err := json.Unmarshal(data, &env); err != nil {
			continue
		}
		if *raw {
			fmt.Println(string(data))
			continue
		}
		if line := format(env); line != "" {
			fmt.Println(line)
		}
	}
}

func format(env hub.Envelope) string {
	e := env.Event
	short := env.JobID
	if len(short) > 8 {
		short = short[:8]
	}
	stamp := e.Time.Local().Format("15:04:05")

	switch e.Type {
	case call.EventTurn:
		return fmt.Sprintf("[%s %s] #%d %s: %s", stamp, short, e.Index, e.Speaker, e.Text)
	case call.EventRetry:
		return fmt.Sprintf("[%s %s] ⚠️  %s failed, retrying: %s", stamp, short, e.Speaker, e.Error)
	case jobs.EventJobDone:
		if e.Error != "" {
			return fmt.Sprintf("[%s %s] ❌ %s (%s): %s\n", stamp, short, e.Status, e.Reason, e.Error)
		}
		return fmt.Sprintf("[%s %s] ✅ %s (%s)\n", stamp, short, e.Status, e.Reason)
	default:
		return ""
	}
}
