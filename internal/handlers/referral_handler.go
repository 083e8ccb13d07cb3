package handlers

import (
	"errors"
	"log/slog"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/ketowell/ketowell-backend/internal/dto"
	"github.com/ketowell/ketowell-backend/internal/models"
	"github.com/ketowell/ketowell-backend/internal/services"
)

type ReferralHandler struct {
	referrals *services.ReferralService
}

func NewReferralHandler(referrals *services.ReferralService) *ReferralHandler {
	return &ReferralHandler{referrals: referrals}
}

// Validate handles POST /api/referral/validate. Denials are part of the
// contract, not transport errors: they come back 200 with valid=false.
func (h *ReferralHandler) Validate(c *fiber.Ctx) error {
	var req dto.ValidateReferralRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid request body",
		})
	}
	if services.NormalizeCode(req.Code) == "" {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Please enter a referral code",
		})
	}

	rc, err := h.referrals.Validate(req.Code)
	if err != nil {
		switch {
		case errors.Is(err, services.ErrCodeNotFound):
			return c.JSON(dto.ValidateReferralResponse{Valid: false, Message: "This referral code doesn't exist"})
		case errors.Is(err, services.ErrCodeExpired):
			return c.JSON(dto.ValidateReferralResponse{Valid: false, Message: "This referral code has expired"})
		case errors.Is(err, services.ErrCodeExhausted):
			return c.JSON(dto.ValidateReferralResponse{Valid: false, Message: "This referral code has reached its usage limit"})
		}
		slog.Error("referral validation failed", "action", "validate_referral", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not validate the code right now. Please try again.",
		})
	}

	return c.JSON(dto.ValidateReferralResponse{
		Valid:         true,
		DiscountType:  rc.DiscountType,
		DiscountValue: rc.DiscountValue,
		Message:       "Referral code applied!",
	})
}

// StatsByPurchase handles GET /api/referral/code/:purchaseId.
func (h *ReferralHandler) StatsByPurchase(c *fiber.Ctx) error {
	purchaseID, err := uuid.Parse(c.Params("purchaseId"))
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(dto.ErrorResponse{
			Error: true, Message: "Invalid purchase id",
		})
	}

	rc, err := h.referrals.StatsByPurchase(purchaseID)
	if err != nil {
		if errors.Is(err, services.ErrCodeNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(dto.ErrorResponse{
				Error: true, Message: "No referral code for this purchase",
			})
		}
		slog.Error("referral stats lookup failed", "action", "referral_stats", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not load referral stats",
		})
	}

	return c.JSON(statsResponse(rc))
}

// StatsByEmail handles GET /api/referral/stats/:email. A missing code is a
// normal answer, not an error.
func (h *ReferralHandler) StatsByEmail(c *fiber.Ctx) error {
	email := c.Params("email")

	rc, err := h.referrals.StatsByEmail(email)
	if err != nil {
		if errors.Is(err, services.ErrCodeNotFound) {
			return c.JSON(dto.ReferralStatsResponse{HasReferralCode: false})
		}
		slog.Error("referral stats lookup failed", "action", "referral_stats", "error", err)
		return c.Status(fiber.StatusInternalServerError).JSON(dto.ErrorResponse{
			Error: true, Message: "Could not load referral stats",
		})
	}

	return c.JSON(statsResponse(rc))
}

func statsResponse(rc *models.ReferralCode) dto.ReferralStatsResponse {
	resp := dto.ReferralStatsResponse{
		HasReferralCode: true,
		Code:            rc.Code,
		DiscountType:    rc.DiscountType,
		DiscountValue:   rc.DiscountValue,
		UsageCount:      rc.UsageCount,
		UsageLimit:      rc.UsageLimit,
		ExpiresAt:       rc.ExpiresAt,
	}
	for _, ref := range rc.Referrals {
		entry := dto.ReferralEntry{
			ReferredEmail: ref.ReferredEmail,
			CreatedAt:     ref.CreatedAt,
		}
		if ref.RewardCode != nil {
			entry.RewardCode = *ref.RewardCode
		}
		resp.Referrals = append(resp.Referrals, entry)
	}
	return resp
}
