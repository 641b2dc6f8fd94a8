package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/publihazclick/publihazclick-sub000/internal/middleware"
	"github.com/publihazclick/publihazclick-sub000/internal/model"
	"github.com/publihazclick/publihazclick-sub000/internal/repository"
	"github.com/publihazclick/publihazclick-sub000/internal/service"
)

type ViewHandler struct {
	views *service.ViewService
	ads   *repository.AdRepo
}

func NewViewHandler(views *service.ViewService, ads *repository.AdRepo) *ViewHandler {
	return &ViewHandler{views: views, ads: ads}
}

// Open handles POST /api/views
func (h *ViewHandler) Open(c fiber.Ctx) error {
	var req model.OpenViewRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	viewerID, errMsg := middleware.ValidateViewerID(req.ViewerID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.ViewerID = viewerID

	adID, errMsg := middleware.ValidateAdID(req.AdID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.AdID = adID

	fingerprint, errMsg := middleware.ValidateFingerprint(req.Fingerprint)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}
	req.Fingerprint = fingerprint
	req.UserAgent = middleware.ValidateUserAgent(c.Get("User-Agent"))

	ad, err := h.ads.FindByID(c.Context(), req.AdID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Ad not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to lookup ad")
	}
	if ad.Status != model.AdStatusActive {
		return middleware.ErrorResponse(c, fiber.StatusConflict, "AD_NOT_ACTIVE", "Ad is not currently active")
	}

	resp, err := h.views.Open(c.Context(), req, ad, c.IP())
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to open view session")
	}

	Metrics.ViewsOpened.WithLabelValues(string(ad.Type)).Inc()
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// Get handles GET /api/views/:viewId
func (h *ViewHandler) Get(c fiber.Ctx) error {
	resp, err := h.views.Get(c.Params("viewId"))
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "View session not found")
	}
	return c.JSON(resp)
}

// Answer handles POST /api/views/:viewId/answer
func (h *ViewHandler) Answer(c fiber.Ctx) error {
	var req model.AnswerRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	resp, err := h.views.Answer(c.Context(), c.Params("viewId"), req.Answer)
	switch {
	case err == nil:
		if resp.State == model.ViewCompleted {
			Metrics.ClaimsTotal.WithLabelValues("view").Inc()
		}
		return c.JSON(resp)
	case errors.Is(err, service.ErrViewNotFound):
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "View session not found")
	case errors.Is(err, service.ErrNotInChallenge):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "NOT_IN_CHALLENGE", "The countdown has not finished yet")
	case errors.Is(err, service.ErrWrongAnswer):
		Metrics.ChallengeFailures.Inc()
		// The regenerated challenge rides along so the client can retry.
		return c.Status(fiber.StatusUnprocessableEntity).JSON(fiber.Map{
			"error": fiber.Map{
				"code":    "WRONG_ANSWER",
				"message": "Incorrect answer. Try the new challenge.",
			},
			"view": resp,
		})
	case errors.Is(err, service.ErrChallengeLocked):
		Metrics.ChallengeFailures.Inc()
		return middleware.ErrorResponse(c, fiber.StatusForbidden, "CHALLENGE_LOCKED", "Too many wrong answers. The view session was closed.")
	case errors.Is(err, service.ErrAlreadyCredited):
		return middleware.ErrorResponse(c, fiber.StatusConflict, "ALREADY_CREDITED", "This ad was already credited today")
	default:
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to process answer")
	}
}

// Close handles DELETE /api/views/:viewId
func (h *ViewHandler) Close(c fiber.Ctx) error {
	if err := h.views.Close(c.Params("viewId")); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "View session not found")
	}
	return c.JSON(fiber.Map{"success": true})
}
