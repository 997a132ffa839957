package web

import (
	"errors"
	"fmt"

	"github.com/gofiber/fiber/v2"

	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/export"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/jobs"
	"github.com/ArmandoCS23/Hackaton-CallCenter/pkg/persona"
)

const exportTitleLayout = "2006-01-02 15:04"

func notConfigured(c *fiber.Ctx) error {
	return fail(c, fiber.StatusServiceUnavailable, "google export not configured")
}

// handleGoogleStatus reports whether a Google account is connected
func (s *Server) handleGoogleStatus(c *fiber.Ctx) error {
	if s.cfg.Exporter == nil {
		return c.JSON(fiber.Map{"configured": false, "connected": false})
	}
	st := s.cfg.Exporter.GetStatus()
	return c.JSON(fiber.Map{
		"configured": true,
		"connected":  st.Connected,
		"auth_url":   st.AuthURL,
	})
}

// handleGoogleAuth redirects to the consent screen
func (s *Server) handleGoogleAuth(c *fiber.Ctx) error {
	ex := s.cfg.Exporter
	if ex == nil {
		return notConfigured(c)
	}
	return c.Redirect(ex.AuthURL(), fiber.StatusTemporaryRedirect)
}

// handleGoogleCallback completes the OAuth flow
func (s *Server) handleGoogleCallback(c *fiber.Ctx) error {
	ex := s.cfg.Exporter
	if ex == nil {
		return notConfigured(c)
	}
	if msg := c.Query("error"); msg != "" {
		return fail(c, fiber.StatusBadRequest, "google: "+msg)
	}

	code := c.Query("code")
	if code == "" {
		return fail(c, fiber.StatusBadRequest, "missing code")
	}
	if err := ex.HandleCallback(c.UserContext(), c.Query("state"), code); err != nil {
		s.logger.Warn("google callback failed", "error", err)
		if errors.Is(err, export.ErrBadState) {
			return fail(c, fiber.StatusBadRequest, "invalid state")
		}
		return fail(c, fiber.StatusBadGateway, "could not complete google login")
	}
	return c.SendString("Google conectado. Puedes cerrar esta ventana.")
}

// handleExport writes a finished call's transcript to a new Google Doc
func (s *Server) handleExport(c *fiber.Ctx) error {
	ex := s.cfg.Exporter
	if ex == nil {
		return notConfigured(c)
	}

	snap, err := s.jobs.Get(c.Params("id"))
	if err != nil {
		return fail(c, fiber.StatusNotFound, "job not found")
	}
	if snap.Status == jobs.StatusRunning {
		return fail(c, fiber.StatusConflict, "call still running")
	}

	title := fmt.Sprintf("Llamada %s - %s", persona.Teacher, snap.CreatedAt.Format(exportTitleLayout))
	docID, err := ex.ExportCall(c.UserContext(), title, snap.Turns)
	switch {
	case errors.Is(err, export.ErrNotAuthenticated):
		return fail(c, fiber.StatusUnauthorized, "connect google first")
	case errors.Is(err, export.ErrEmptyTranscript):
		return fail(c, fiber.StatusBadRequest, "call has no turns")
	case err != nil:
		s.logger.Warn("export failed", "job_id", snap.ID, "error", err)
		return fail(c, fiber.StatusBadGateway, "export failed")
	}

	s.logger.Info("call exported", "job_id", snap.ID, "doc_id", docID)
	return c.JSON(fiber.Map{
		"ok":     true,
		"doc_id": docID,
		"url":    export.DocURL(docID),
	})
}
