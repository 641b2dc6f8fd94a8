package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/publihazclick/publihazclick-sub000/internal/middleware"
	"github.com/publihazclick/publihazclick-sub000/internal/model"
	"github.com/publihazclick/publihazclick-sub000/internal/service"
	"github.com/publihazclick/publihazclick-sub000/pkg/hash"
)

// SessionHandler manages viewer tracking sessions.
type SessionHandler struct {
	tracker    *service.TrackerService
	ipSalt     string
	adminToken string
}

func NewSessionHandler(tracker *service.TrackerService, ipSalt, adminToken string) *SessionHandler {
	return &SessionHandler{tracker: tracker, ipSalt: ipSalt, adminToken: adminToken}
}

// Initialize handles POST /api/sessions.
func (h *SessionHandler) Initialize(c fiber.Ctx) error {
	var req model.SessionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	viewerID, errMsg := middleware.ValidateViewerID(req.ViewerID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_VIEWER_ID", errMsg)
	}
	fingerprint, errMsg := middleware.ValidateFingerprint(req.Fingerprint)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FINGERPRINT", errMsg)
	}

	var fingerprintHash string
	if fingerprint != "" {
		fingerprintHash = hash.HashFingerprint(fingerprint, h.ipSalt)
	}

	resp, err := h.tracker.Initialize(c.Context(), viewerID, c.IP(), fingerprintHash)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to initialize session")
	}
	return c.Status(fiber.StatusCreated).JSON(resp)
}

// RefreshIP handles POST /api/sessions/refresh-ip — re-keys the session from
// the currently observed address without touching view history.
func (h *SessionHandler) RefreshIP(c fiber.Ctx) error {
	var req model.SessionRequest
	if err := c.Bind().JSON(&req); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}

	viewerID, errMsg := middleware.ValidateViewerID(req.ViewerID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_VIEWER_ID", errMsg)
	}

	if err := h.tracker.RefreshIP(c.Context(), viewerID, c.IP()); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "No session for this viewer")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to refresh session")
	}
	return c.JSON(fiber.Map{"ok": true})
}

// ViewsToday handles GET /api/sessions/:viewerId/views — the ad IDs the
// viewer has already been credited for on the current reference-zone day.
func (h *SessionHandler) ViewsToday(c fiber.Ctx) error {
	viewerID, errMsg := middleware.ValidateViewerID(c.Params("viewerId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_VIEWER_ID", errMsg)
	}

	viewed, err := h.tracker.ViewedToday(c.Context(), viewerID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to load view history")
	}

	adIDs := make([]string, 0, len(viewed))
	for adID := range viewed {
		adIDs = append(adIDs, adID)
	}
	return c.JSON(fiber.Map{"viewerId": viewerID, "adIds": adIDs, "count": len(adIDs)})
}

// ClearHistory handles DELETE /api/sessions/:viewerId/views. Clearing view
// history re-opens same-day claims, so it requires the admin token.
func (h *SessionHandler) ClearHistory(c fiber.Ctx) error {
	if h.adminToken == "" || c.Get("X-Admin-Token") != h.adminToken {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid admin token")
	}

	viewerID, errMsg := middleware.ValidateViewerID(c.Params("viewerId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_VIEWER_ID", errMsg)
	}

	if err := h.tracker.ClearHistory(c.Context(), viewerID); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to clear view history")
	}
	return c.JSON(fiber.Map{"ok": true})
}
