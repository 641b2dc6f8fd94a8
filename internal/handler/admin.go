package handler

import (
	"errors"

	"github.com/gofiber/fiber/v3"
	"github.com/jackc/pgx/v5"

	"github.com/publihazclick/publihazclick-sub000/internal/middleware"
	"github.com/publihazclick/publihazclick-sub000/internal/model"
	"github.com/publihazclick/publihazclick-sub000/internal/repository"
	"github.com/publihazclick/publihazclick-sub000/internal/service"
	"github.com/publihazclick/publihazclick-sub000/pkg/refday"
)

const pendingClaimsPageSize = 100

// AdminHandler exposes the fraud-review surface: listing unresolved claims
// and overriding the automatic trust decision. All routes require the admin
// token.
type AdminHandler struct {
	claims     *repository.ClaimRepo
	cache      *service.CacheService
	adminToken string
}

func NewAdminHandler(claims *repository.ClaimRepo, cache *service.CacheService, adminToken string) *AdminHandler {
	return &AdminHandler{claims: claims, cache: cache, adminToken: adminToken}
}

func (h *AdminHandler) authorized(c fiber.Ctx) bool {
	return h.adminToken != "" && c.Get("X-Admin-Token") == h.adminToken
}

// ListPending handles GET /api/admin/claims — unresolved claims, oldest first.
func (h *AdminHandler) ListPending(c fiber.Ctx) error {
	if !h.authorized(c) {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid admin token")
	}

	claims, err := h.claims.ListPending(c.Context(), pendingClaimsPageSize)
	if err != nil {
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to list pending claims")
	}
	if claims == nil {
		claims = []model.RewardClaim{}
	}
	return c.JSON(fiber.Map{"claims": claims, "count": len(claims)})
}

// Resolve handles POST /api/admin/claims/:claimId/resolve — a manual override
// of the worker's trust decision. Body: {"status": "confirmed"|"rejected"}.
func (h *AdminHandler) Resolve(c fiber.Ctx) error {
	if !h.authorized(c) {
		return middleware.ErrorResponse(c, fiber.StatusUnauthorized, "UNAUTHORIZED", "Missing or invalid admin token")
	}

	claimID := c.Params("claimId")
	if claimID == "" || len(claimID) > 64 {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "Invalid claim ID")
	}

	var body struct {
		Status model.ClaimStatus `json:"status"`
	}
	if err := c.Bind().JSON(&body); err != nil {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_BODY", "Invalid request body")
	}
	if body.Status != model.ClaimConfirmed && body.Status != model.ClaimRejected {
		return middleware.ErrorResponse(c, fiber.StatusBadRequest, "INVALID_FIELD", "status must be confirmed or rejected")
	}

	claim, err := h.claims.Get(c.Context(), claimID)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return middleware.ErrorResponse(c, fiber.StatusNotFound, "NOT_FOUND", "Claim not found")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to fetch claim")
	}

	if err := h.claims.Resolve(c.Context(), claimID, body.Status); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			// Already resolved by the worker between Get and Resolve.
			return middleware.ErrorResponse(c, fiber.StatusConflict, "ALREADY_RESOLVED", "Claim is no longer pending")
		}
		return middleware.ErrorResponse(c, fiber.StatusInternalServerError, "INTERNAL_ERROR", "Failed to resolve claim")
	}

	if h.cache != nil {
		_ = h.cache.InvalidateViewer(c.Context(), claim.ViewerID, refday.Today())
	}

	return c.JSON(fiber.Map{"ok": true, "claimId": claimID, "status": body.Status})
}
