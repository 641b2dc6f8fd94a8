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

type AdHandler struct {
	catalog *service.CatalogService
	ads     *repository.AdRepo
}

func NewAdHandler(catalog *service.CatalogService, ads *repository.AdRepo) *AdHandler {
	return &AdHandler{catalog: catalog, ads: ads}
}

// GetCatalog handles GET /api/catalog/:surface?viewerId=X
func (h *AdHandler) GetCatalog(c fiber.Ctx) error {
	surface := c.Params("surface")
	if !model.ValidSurface(surface) {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_SURFACE",
			"Surface must be one of: landing, user, advertiser")
	}

	viewerID := fiber.Query[string](c, "viewerId")
	if viewerID != "" {
		var errMsg string
		viewerID, errMsg = middleware.ValidateViewerID(viewerID)
		if errMsg != "" {
			return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
		}
	}

	resp, err := h.catalog.Surface(c.Context(), surface, viewerID)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to build catalog")
	}

	return c.JSON(resp)
}

// GetAd handles GET /api/ads?adId=X
func (h *AdHandler) GetAd(c fiber.Ctx) error {
	adID := fiber.Query[string](c, "adId")
	adID, errMsg := middleware.ValidateAdID(adID)
	if errMsg != "" {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", errMsg)
	}

	ad, err := h.ads.FindByID(c.Context(), adID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Ad not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to lookup ad")
	}

	return c.JSON(ad)
}
