package web

import (
	"context"
	"errors"
	"io"
	"strings"

	"github.com/gofiber/fiber/v2"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/call"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/classroom"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/inference"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/jobs"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/transcript"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/tts"
)

const (
	defaultHistoryLimit = 50
	maxHistoryLimit     = 500
)

func silentSink() tts.Sink {
	return tts.NewPacedSink(io.Discard, nil, false)
}

func fail(c *fiber.Ctx, status int, msg string) error {
	return c.Status(status).JSON(fiber.Map{
		"ok":    false,
		"error": msg,
	})
}

// handleHealth reports store mode and job counts
func (s *Server) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"ok":         true,
		"store_mode": s.cfg.Store.Mode(),
		"jobs":       s.jobs.Counts(),
		"clients":    s.events.ClientCount(),
	})
}

// handleRunCall starts a full call in the background
func (s *Server) handleRunCall(c *fiber.Ctx) error {
	id := s.jobs.Start(s.base, s.runCall)
	return c.JSON(fiber.Map{
		"ok":     true,
		"job_id": id,
	})
}

func (s *Server) runCall(ctx context.Context, emit call.Observer) *call.Session {
	opts := append([]call.Option{}, s.cfg.CallOptions...)
	opts = append(opts, call.WithObserver(emit), call.WithLogger(s.cfg.Logger))

	ctrl, err := call.New(s.cfg.Completer, s.cfg.Sink, s.cfg.Store, opts...)
	if err != nil {
		return &call.Session{Status: call.StatusError, Reason: call.ReasonAborted, Err: err}
	}
	return ctrl.Run(ctx)
}

// handleJobStatus returns a job snapshot
func (s *Server) handleJobStatus(c *fiber.Ctx) error {
	snap, err := s.jobs.Get(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "job not found")
	}
	return c.JSON(fiber.Map{
		"ok":  true,
		"job": snap,
	})
}

// handleCancel interrupts a running call
func (s *Server) handleCancel(c *fiber.Ctx) error {
	if !s.jobs.Cancel(c.Params("id")) {
		return fail(c, fiber.StatusNotFound, "job not running")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// handleConversations returns the most recent turns, newest first
func (s *Server) handleConversations(c *fiber.Ctx) error {
	limit := c.QueryInt("limit", defaultHistoryLimit)
	if limit <= 0 || limit > maxHistoryLimit {
		limit = defaultHistoryLimit
	}

	turns, err := s.cfg.Store.Recent(c.UserContext(), limit)
	if err != nil {
		s.logger.Warn("recent turns failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "could not read conversations")
	}
	if turns == nil {
		turns = []transcript.Turn{}
	}
	return c.JSON(fiber.Map{"conversaciones": turns})
}

type statsResponse struct {
	transcript.Stats
	Mode transcript.Mode `json:"mode"`
}

// handleStats returns aggregate transcript statistics
func (s *Server) handleStats(c *fiber.Ctx) error {
	stats, err := s.cfg.Store.Stats(c.UserContext())
	if err != nil {
		s.logger.Warn("stats failed", "error", err)
		return fail(c, fiber.StatusInternalServerError, "could not read stats")
	}
	return c.JSON(statsResponse{Stats: stats, Mode: s.cfg.Store.Mode()})
}

// ChatRequest is the body of POST /api/chat.
type ChatRequest struct {
	Text string `json:"text"`
	Role string `json:"role"` // who is speaking: "student" (default) or "teacher"
}

// handleChat answers one line. A student line is answered by the
// teacher through the classroom gate; a teacher line by Carlos.
func (s *Server) handleChat(c *fiber.Ctx) error {
	var req ChatRequest
	if err := c.BodyParser(&req); err != nil {
		return fail(c, fiber.StatusBadRequest, "invalid body")
	}
	text := strings.TrimSpace(req.Text)
	if text == "" {
		return fail(c, fiber.StatusBadRequest, "text is required")
	}

	ctx := c.UserContext()
	if req.Role == "" || req.Role == "student" {
		teacher := classroom.NewTeacher(s.cfg.Completer,
			classroom.WithOutput(io.Discard),
			classroom.WithLogger(s.cfg.Logger),
		)
		reply, err := teacher.Respond(ctx, text)
		if err != nil {
			s.logger.Warn("chat completion failed", "role", "student", "error", err)
			return c.JSON(fiber.Map{"reply": persona.ClassroomAPIError})
		}
		return c.JSON(fiber.Map{"reply": reply.Text, "end": reply.End})
	}

	student := persona.Carlos()
	history := []inference.Message{inference.NewUserMessage(text)}
	reply, err := s.cfg.Completer.Complete(ctx, student.Prompt, history, student.Temperature, student.MaxRetries)
	if err != nil {
		s.logger.Warn("chat completion failed", "role", req.Role, "error", err)
		return c.JSON(fiber.Map{"reply": persona.ClassroomAPIError})
	}
	return c.JSON(fiber.Map{"reply": reply})
}

// handleGenerateQuestion returns a random opening question
func (s *Server) handleGenerateQuestion(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"question": persona.Pick(persona.Questions)})
}

// handleSimulateCall runs a short silent call and returns its turns
func (s *Server) handleSimulateCall(c *fiber.Ctx) error {
	opts := append([]call.Option{}, s.cfg.CallOptions...)
	opts = append(opts,
		call.WithMaxTurns(1),
		call.WithOpeningQuestion(true),
		call.WithTurnPause(0),
		call.WithLogger(s.cfg.Logger),
	)

	ctrl, err := call.New(s.cfg.Completer, silentSink(), s.cfg.Store, opts...)
	if err != nil {
		return fail(c, fiber.StatusInternalServerError, err.Error())
	}
	session := ctrl.Run(c.UserContext())

	turns := session.Turns
	if turns == nil {
		turns = []transcript.Turn{}
	}
	if session.Status != call.StatusDone {
		return c.Status(fiber.StatusBadGateway).JSON(fiber.Map{
			"ok":      false,
			"error":   errString(session.Err),
			"call_id": session.ID,
			"turns":   turns,
		})
	}
	return c.JSON(fiber.Map{
		"ok":      true,
		"call_id": session.ID,
		"reason":  session.Reason,
		"turns":   turns,
	})
}

func errString(err error) string {
	if err == nil {
		return "call did not finish"
	}
	return err.Error()
}

func notFound(err error) bool {
	return errors.Is(err, jobs.ErrNotFound)
}
