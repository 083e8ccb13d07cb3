package handlers

import (
	"errors"
	"log/slog"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ketowell/ketowell-backend/internal/dto"
	"github.com/ketowell/ketowell-backend/internal/payments"
	"github.com/ketowell/ketowell-backend/internal/services"
)

// BookHandler serves the checkout, verification, and download endpoints for
// the KetoWell guide.
type BookHandler struct {
	checkout  *services.CheckoutService
	purchases *services.PurchaseService
	downloads *services.DownloadService
}

func NewBookHandler(checkout *services.CheckoutService, purchases *services.PurchaseService, downloads *services.DownloadService) *BookHandler {
	return &BookHandler{checkout: checkout, purchases: purchases, downloads: downloads}
}

// CreateCheckoutSession handles POST /api/book/create-checkout-session.
func (h *BookHandler) CreateCheckoutSession(c *fiber.Ctx) error {
	var req dto.CreateCheckoutSessionRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}

	url, err := h.checkout.CreateSession(c.Context(), req.UserEmail, req.UserName, req.ReferralCode)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrInvalidEmail),
			errors.Is(err, services.ErrCodeNotFound),
			errors.Is(err, services.ErrCodeExpired),
			errors.Is(err, services.ErrCodeExhausted),
			errors.Is(err, payments.ErrInvalidRequest):
			return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
				Error: true, Message: err.Error(),
			})
		}
		slog.Error("checkout session creation failed", "action", "create_checkout_session", "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Payment service is temporarily unavailable. Please try again.",
		})
	}

	return c.JSON(dto.CreateCheckoutSessionResponse{URL: url})
}

// VerifyPurchase handles GET /api/book/verify-purchase/:sessionId. Unknown,
// pending, and failed sessions all report success=false; only transport
// failures produce an error status.
func (h *BookHandler) VerifyPurchase(c *fiber.Ctx) error {
	sessionID := c.Params("sessionId")
	if sessionID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Session id is required",
		})
	}

	purchase, err := h.purchases.Verify(c.Context(), sessionID)
	if err != nil {
		if errors.Is(err, services.ErrPaymentPending) || errors.Is(err, payments.ErrSessionNotFound) {
			return c.JSON(dto.VerifyPurchaseResponse{Success: false})
		}
		slog.Error("purchase verification failed", "action", "verify_purchase", "session_id", sessionID, "error", err)
		return c.Status(fiber.StatusBadGateway).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not verify the purchase right now. Please try again.",
		})
	}

	return c.JSON(dto.VerifyPurchaseResponse{
		Success:       true,
		CustomerEmail: purchase.CustomerEmail,
		CustomerName:  purchase.CustomerName,
	})
}

// Download handles GET /api/book/download. It accepts either the signed
// token from the confirmation email or the explicit email+paymentIntentId
// pair.
func (h *BookHandler) Download(c *fiber.Ctx) error {
	email := c.Query("email")
	paymentIntentID := c.Query("paymentIntentId")

	if token := c.Query("token"); token != "" {
		var err error
		email, paymentIntentID, err = h.downloads.ParseToken(token)
		if err != nil {
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "This download link is invalid or has expired",
			})
		}
	}

	if email == "" || paymentIntentID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Email and payment id are required",
		})
	}

	url, remaining, err := h.downloads.IssueLink(email, paymentIntentID)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrPurchaseMissing):
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "No purchase found for this email and payment",
			})
		case errors.Is(err, services.ErrDownloadLimit):
			return c.Status(fiber.StatusForbidden).JSON(dto.ErrorResponse{
				Error: true, Message: "Download limit exceeded. Contact support if you need help.",
			})
		}
		slog.Error("download issuance failed", "action", "issue_download", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Something went wrong. Please try again.",
		})
	}

	return c.JSON(dto.DownloadResponse{
		Success:            true,
		DownloadURL:        url,
		DownloadsRemaining: remaining,
	})
}

// CheckPurchase handles GET /api/book/check-purchase. Always 200: absence and
// lookup failure both resolve to hasPurchased=false.
func (h *BookHandler) CheckPurchase(c *fiber.Ctx) error {
	email := c.Query("email")
	if email == "" {
		return c.JSON(dto.CheckPurchaseResponse{HasPurchased: false})
	}

	has, date := h.purchases.CheckPurchase(email)
	resp := dto.CheckPurchaseResponse{HasPurchased: has}
	if has {
		resp.PurchaseDate = date.UTC().Format(time.RFC3339)
	}
	return c.JSON(resp)
}
