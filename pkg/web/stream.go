package web

import (
	"bufio"
	"encoding/json"
	"fmt"

	"github.com/gofiber/fiber/v2"
	"github.com/valyala/fasthttp"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/call"
)

// handleStream replays a job's events and follows it live as SSE frames.
// The stream ends after the job_done event.
func (s *Server) handleStream(c *fiber.Ctx) error {
	id := c.Params("id")
	replay, live, detach, err := s.jobs.Subscribe(id)
	if err != nil {
		if notFound(err) {
			return fail(c, fiber.StatusNotFound, "stream not found")
		}
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}

	c.Set(fiber.HeaderContentType, "text/event-stream")
	c.Set(fiber.HeaderCacheControl, "no-cache")
	c.Set(fiber.HeaderConnection, "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	logger := s.logger.With("job_id", id)
	c.Context().SetBodyStreamWriter(fasthttp.StreamWriter(func(w *bufio.Writer) {
		defer detach()

		for _, e := range replay {
			if err := writeEvent(w, e); err != nil {
				logger.Debug("stream client gone", "error", err)
				return
			}
		}
		for e := range live {
			if err := writeEvent(w, e); err != nil {
				logger.Debug("stream client gone", "error", err)
				return
			}
		}
	}))
	return nil
}

// writeEvent writes one "data: <json>" frame and flushes it.
func writeEvent(w *bufio.Writer, e call.Event) error {
	data, err := json.Marshal(e)
	if err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "data: %s\n\n", data); err != nil {
		return err
	}
	return w.Flush()
}
