package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/publihazclick/publihazclick-sub000/internal/middleware"
	"github.com/publihazclick/publihazclick-sub000/internal/service"
)

type ViewerHandler struct {
	svc *service.ViewerService
}

func NewViewerHandler(svc *service.ViewerService) *ViewerHandler {
	return &ViewerHandler{svc: svc}
}

// GetByViewerID handles GET /api/viewers/:viewerId
func (h *ViewerHandler) GetByViewerID(c fiber.Ctx) error {
	viewerID, errMsg := middleware.ValidateViewerID(c.Params("viewerId"))
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	resp, err := h.svc.Lookup(c.Context(), viewerID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Viewer not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to lookup viewer")
	}

	return c.JSON(resp)
}
