package handlers

import (
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/ketowell/ketowell-backend/internal/consent"
	"github.com/ketowell/ketowell-backend/internal/dto"
)

// ConsentHandler exposes the consent store so the site can read and update
// tracking preferences.
type ConsentHandler struct {
	store consent.Store
}

func NewConsentHandler(store consent.Store) *ConsentHandler {
	return &ConsentHandler{store: store}
}

// Get handles GET /api/consent.
func (h *ConsentHandler) Get(c *fiber.Ctx) error {
	return c.JSON(h.store.Load())
}

type updateConsentRequest struct {
	Analytics bool `json:"analytics"`
	Marketing bool `json:"marketing"`
}

// Update handles POST /api/consent. The record is overwritten wholesale.
func (h *ConsentHandler) Update(c *fiber.Ctx) error {
	var req updateConsentRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	err := h.store.Save(consent.Preferences{
		Necessary: true,
		Analytics: req.Analytics,
		Marketing: req.Marketing,
	})
	if err != nil {
		slog.Error("consent save failed", "action", "save_consent", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not save preferences",
		})
	}
	return c.JSON(h.store.Load())
}

// Reset handles DELETE /api/consent.
func (h *ConsentHandler) Reset(c *fiber.Ctx) error {
	if err := h.store.Reset(); err != nil {
		slog.Error("consent reset failed", "action", "reset_consent", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not reset preferences",
		})
	}
	return c.JSON(h.store.Load())
}
