package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"

	"github.com/publihazclick/publihazclick-sub000/internal/middleware"
	"github.com/publihazclick/publihazclick-sub000/internal/model"
	"github.com/publihazclick/publihazclick-sub000/internal/repository"
	"github.com/publihazclick/publihazclick-sub000/internal/service"
)

// ClaimHandler exposes the credit RPC directly. Clients that drive their own
// view flow call this instead of the view session endpoints; the same dedup
// and plausibility checks apply.
type ClaimHandler struct {
	rewards *service.RewardService
}

func NewClaimHandler(rewards *service.RewardService) *ClaimHandler {
	return &ClaimHandler{rewards: rewards}
}

// Record handles POST /api/claims — wire-compatible with the legacy
// record_ptc_click procedure: {userId, taskId, ...} → {success, error?}.
func (h *ClaimHandler) Record(c fiber.Ctx) error {
	var req model.ClaimRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	viewerID, errMsg := middleware.ValidateViewerID(req.UserID)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(model.ClaimResponse{Success: false, Error: errMsg})
	}

	adID, errMsg := middleware.ValidateAdID(req.TaskID)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(model.ClaimResponse{Success: false, Error: errMsg})
	}

	fingerprint, errMsg := middleware.ValidateFingerprint(req.SessionFingerprint)
	if errMsg != "" {
		return c.Status(fiber.StatusBadRequest).JSON(model.ClaimResponse{Success: false, Error: errMsg})
	}

	// Prefer the observed address over the self-reported one.
	clientIP := c.IP()
	if clientIP == "" {
		clientIP = req.IPAddress
	}
	userAgent := middleware.ValidateUserAgent(req.UserAgent)
	if userAgent == "" {
		userAgent = middleware.ValidateUserAgent(c.Get("User-Agent"))
	}

	reward, err := h.rewards.Credit(c.Context(), service.CreditRequest{
		ViewerID:    viewerID,
		AdID:        adID,
		ClientIP:    clientIP,
		UserAgent:   userAgent,
		Fingerprint: fingerprint,
		DurationMs:  req.ClickDurationMs,
	})
	switch {
	case err == nil:
		Metrics.ClaimsTotal.WithLabelValues("rpc").Inc()
		return c.JSON(model.ClaimResponse{Success: true, Reward: reward})
	case errors.Is(err, repository.ErrAlreadyViewed):
		return c.Status(fiber.StatusConflict).JSON(model.ClaimResponse{Success: false, Error: "Ad already credited today"})
	case errors.Is(err, service.ErrAdNotFound):
		return c.Status(fiber.StatusNotFound).JSON(model.ClaimResponse{Success: false, Error: "Ad not found"})
	case errors.Is(err, service.ErrAdNotActive):
		return c.Status(fiber.StatusConflict).JSON(model.ClaimResponse{Success: false, Error: "Ad is not currently active"})
	case errors.Is(err, service.ErrDurationTooLow):
		return c.Status(fiber.StatusUnprocessableEntity).JSON(model.ClaimResponse{Success: false, Error: "Reported watch duration is below the required watch time"})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(model.ClaimResponse{Success: false, Error: "Failed to record claim"})
	}
}
