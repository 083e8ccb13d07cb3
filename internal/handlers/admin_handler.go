package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ketowell/ketowell-backend/internal/dto"
	"github.com/ketowell/ketowell-backend/internal/services"
)

// AdminHandler backs the support tooling: campaign codes and email retries.
type AdminHandler struct {
	referrals *services.ReferralService
	purchases *services.PurchaseService
}

func NewAdminHandler(referrals *services.ReferralService, purchases *services.PurchaseService) *AdminHandler {
	return &AdminHandler{referrals: referrals, purchases: purchases}
}

// CreateReferralCode handles POST /api/admin/referral/codes.
func (h *AdminHandler) CreateReferralCode(c *fiber.Ctx) error {
	var req dto.CreateReferralCodeRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	rc, err := h.referrals.Create(req.Code, req.OwnerEmail, req.DiscountType, req.DiscountValue, req.UsageLimit, req.ExpiresAt)
	if err != nil {
		if errors.Is(err, services.ErrCodeExists) {
			return c.Status(fiber.StatusConflict).JSON(dto.ErrorResponse{
				Error: true, Message: "A code with this name already exists",
			})
		}
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: err.Error(),
		})
	}

	return c.Status(fiber.StatusCreated).JSON(rc)
}

// ListFailedEmails handles GET /api/admin/emails/failed.
func (h *AdminHandler) ListFailedEmails(c *fiber.Ctx) error {
	purchases, err := h.purchases.FailedEmails()
	if err != nil {
		slog.Error("failed email listing failed", "action", "list_failed_emails", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not list failed emails",
		})
	}
	return c.JSON(fiber.Map{"purchases": purchases})
}

// ResendEmail handles POST /api/admin/emails/resend/:purchaseId.
func (h *AdminHandler) ResendEmail(c *fiber.Ctx) error {
	purchaseID, err := uuid.Parse(c.Params("purchaseId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid purchase id",
		})
	}

	if err := h.purchases.ResendEmail(c.Context(), purchaseID); err != nil {
		if errors.Is(err, services.ErrPurchaseMissing) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "Purchase not found",
			})
		}
		slog.Error("email resend failed", "action", "resend_email", "purchase_id", purchaseID, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Email provider rejected the send. Try again later.",
		})
	}

	return c.JSON(fiber.Map{"success": true})
}
