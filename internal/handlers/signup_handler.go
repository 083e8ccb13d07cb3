package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/ketowell/ketowell-backend/internal/dto"
	"github.com/ketowell/ketowell-backend/internal/services"
)

// SignupHandler serves the newsletter and waitlist mutations.
type SignupHandler struct {
	newsletter *services.NewsletterService
	waitlist   *services.WaitlistService
}

func NewSignupHandler(newsletter *services.NewsletterService, waitlist *services.WaitlistService) *SignupHandler {
	return &SignupHandler{newsletter: newsletter, waitlist: waitlist}
}

// SubscribeNewsletter handles POST /api/newsletter/subscribe.
func (h *SignupHandler) SubscribeNewsletter(c *fiber.Ctx) error {
	var req dto.NewsletterSubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	message, err := h.newsletter.Subscribe(req.Email, req.Source)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEmail) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Please enter a valid email address",
			})
		}
		slog.Error("newsletter subscription failed", "action", "newsletter_subscribe", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not subscribe right now. Please try again.",
		})
	}

	return c.JSON(dto.NewsletterSubscribeResponse{Success: true, Message: message})
}

// SubscribeWaitlist handles POST /api/waitlist/subscribe.
func (h *SignupHandler) SubscribeWaitlist(c *fiber.Ctx) error {
	var req dto.WaitlistSubscribeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	message, err := h.waitlist.Join(c.Context(), req.Email)
	if err != nil {
		if errors.Is(err, services.ErrInvalidEmail) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: "Please enter a valid email address",
			})
		}
		slog.Error("waitlist signup failed", "action", "waitlist_subscribe", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not join the waitlist right now. Please try again.",
		})
	}

	return c.JSON(dto.WaitlistSubscribeResponse{Success: true, Message: message})
}

// ConfirmWaitlist handles POST /api/waitlist/confirm.
func (h *SignupHandler) ConfirmWaitlist(c *fiber.Ctx) error {
	var req dto.WaitlistConfirmRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	already, err := h.waitlist.Confirm(req.Token)
	if err != nil {
		if errors.Is(err, services.ErrTokenInvalid) {
			return c.Status(fiber.StatusBadRequest).JSON(dto.WaitlistConfirmResponse{
				Success: false, Message: "This confirmation link is invalid or has expired",
			})
		}
		slog.Error("waitlist confirmation failed", "action", "waitlist_confirm", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not confirm right now. Please try again.",
		})
	}

	if already {
		return c.JSON(dto.WaitlistConfirmResponse{
			Success: true, AlreadyConfirmed: true, Message: "Your email was already confirmed.",
		})
	}
	return c.JSON(dto.WaitlistConfirmResponse{
		Success: true, Message: "You're on the waitlist! We'll be in touch soon.",
	})
}
