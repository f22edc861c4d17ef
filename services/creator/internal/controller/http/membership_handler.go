package http

import (
	"fanclub/pkg/apperr"
	"fanclub/pkg/catalog"
	"fanclub/pkg/middleware"
	"fanclub/pkg/respond"
	"fanclub/services/creator/internal/usecase"

	"github.com/gin-gonic/gin"
)

type MembershipHandler struct {
	membershipUseCase usecase.MembershipUseCase
}

func NewMembershipHandler(membershipUseCase usecase.MembershipUseCase) *MembershipHandler {
	return &MembershipHandler{membershipUseCase: membershipUseCase}
}

// ListTiers godoc
// @Summary      Creator tiers
// @Tags         tiers
// @Produce      json
// @Param        id   path  string  true  "Creator ID"
// @Success      200  {object}  respond.Envelope{data=[]domain.MembershipTier}
// @Router       /creators/{id}/tiers [get]
func (h *MembershipHandler) ListTiers(c *gin.Context) {
	tiers, err := h.membershipUseCase.ListTiers(c.Request.Context(), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, tiers)
}

// CreateTier godoc
// @Summary      Create tier
// @Tags         tiers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        request body catalog.TierDraft true "Tier"
// @Success      201  {object}  respond.Envelope{data=domain.MembershipTier}
// @Failure      400  {object}  respond.Envelope
// @Failure      409  {object}  respond.Envelope
// @Router       /tiers [post]
func (h *MembershipHandler) CreateTier(c *gin.Context) {
	var draft catalog.TierDraft
	if err := c.ShouldBindJSON(&draft); err != nil {
		respond.Error(c, apperr.Validation("%s", err.Error()))
		return
	}
	tier, err := h.membershipUseCase.CreateTier(c.Request.Context(), middleware.UserID(c), draft)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, tier)
}

// UpdateTier godoc
// @Summary      Update tier
// @Tags         tiers
// @Accept       json
// @Produce      json
// @Security     BearerAuth
// @Param        id      path  string             true  "Tier ID"
// @Param        request body  catalog.TierPatch  true  "Changed fields"
// @Success      200  {object}  respond.Envelope{data=domain.MembershipTier}
// @Failure      403  {object}  respond.Envelope
// @Failure      409  {object}  respond.Envelope
// @Router       /tiers/{id} [patch]
func (h *MembershipHandler) UpdateTier(c *gin.Context) {
	var patch catalog.TierPatch
	if err := c.ShouldBindJSON(&patch); err != nil {
		respond.Error(c, apperr.Validation("%s", err.Error()))
		return
	}
	tier, err := h.membershipUseCase.UpdateTier(c.Request.Context(), middleware.UserID(c), c.Param("id"), patch)
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, tier)
}

// DeleteTier godoc
// @Summary      Delete tier
// @Description  Existing subscribers keep the level they subscribed at.
// @Tags         tiers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Tier ID"
// @Success      200  {object}  respond.Envelope
// @Failure      403  {object}  respond.Envelope
// @Router       /tiers/{id} [delete]
func (h *MembershipHandler) DeleteTier(c *gin.Context) {
	if err := h.membershipUseCase.DeleteTier(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Message(c, "Tier deleted")
}

// Subscribe godoc
// @Summary      Join tier
// @Tags         tiers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Tier ID"
// @Success      201  {object}  respond.Envelope{data=domain.TierRef}
// @Failure      409  {object}  respond.Envelope
// @Router       /tiers/{id}/subscribe [post]
func (h *MembershipHandler) Subscribe(c *gin.Context) {
	ref, err := h.membershipUseCase.Subscribe(c.Request.Context(), middleware.UserID(c), c.Param("id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.Created(c, ref)
}

// Unsubscribe godoc
// @Summary      Leave tier
// @Tags         tiers
// @Produce      json
// @Security     BearerAuth
// @Param        id   path  string  true  "Tier ID"
// @Success      200  {object}  respond.Envelope
// @Failure      404  {object}  respond.Envelope
// @Router       /tiers/{id}/subscribe [delete]
func (h *MembershipHandler) Unsubscribe(c *gin.Context) {
	if err := h.membershipUseCase.Unsubscribe(c.Request.Context(), middleware.UserID(c), c.Param("id")); err != nil {
		respond.Error(c, err)
		return
	}
	respond.Message(c, "Unsubscribed")
}

// Entitlements godoc
// @Summary      Viewer entitlement snapshot
// @Tags         tiers
// @Produce      json
// @Security     BearerAuth
// @Param        creator_id  query  string  false  "Limit tiers to this creator"
// @Success      200  {object}  respond.Envelope{data=domain.ViewerEntitlement}
// @Router       /me/entitlements [get]
func (h *MembershipHandler) Entitlements(c *gin.Context) {
	ent, err := h.membershipUseCase.Entitlements(c.Request.Context(), middleware.UserID(c), c.Query("creator_id"))
	if err != nil {
		respond.Error(c, err)
		return
	}
	respond.OK(c, ent)
}
