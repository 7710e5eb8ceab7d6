package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/services"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// AdminHandler handles admin-only verification, settlement and corrections
type AdminHandler struct {
	verificationService services.VerificationService
	settlementService   services.SettlementService
	competitionService  services.CompetitionService
	scoringService      services.ScoringService
}

// NewAdminHandler creates a new AdminHandler
func NewAdminHandler(
	verificationService services.VerificationService,
	settlementService services.SettlementService,
	competitionService services.CompetitionService,
	scoringService services.ScoringService,
) *AdminHandler {
	return &AdminHandler{
		verificationService: verificationService,
		settlementService:   settlementService,
		competitionService:  competitionService,
		scoringService:      scoringService,
	}
}

// ReviewProofRequest marks a single proof step verified or rejected
type ReviewProofRequest struct {
	Step     int  `json:"step" binding:"required"`
	Verified bool `json:"verified"`
}

// ReviewProof handles POST /admin/selections/:id/review
func (h *AdminHandler) ReviewProof(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	var request ReviewProofRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	selection, err := h.verificationService.ReviewProof(c.Request.Context(), id, request.Step, request.Verified)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, selection)
}

// Disqualify handles POST /admin/selections/:id/disqualify
func (h *AdminHandler) Disqualify(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	selection, err := h.verificationService.Disqualify(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, selection)
}

// Requalify handles POST /admin/selections/:id/requalify
func (h *AdminHandler) Requalify(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	selection, err := h.verificationService.Requalify(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, selection)
}

// WinnerOverrideRequest names the users settlement must pay
type WinnerOverrideRequest struct {
	UserIDs []string `json:"userIds" binding:"required"`
}

// SetWinnerOverride handles POST /admin/competitions/:id/winners
func (h *AdminHandler) SetWinnerOverride(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	var request WinnerOverrideRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	userIDs := make([]primitive.ObjectID, 0, len(request.UserIDs))
	for _, raw := range request.UserIDs {
		userID, err := primitive.ObjectIDFromHex(raw)
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid user ID format"})
			return
		}
		userIDs = append(userIDs, userID)
	}

	if err := h.competitionService.SetWinnerOverride(c.Request.Context(), id, userIDs); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Winner override recorded"})
}

// Deactivate handles POST /admin/competitions/:id/deactivate
func (h *AdminHandler) Deactivate(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	if err := h.settlementService.Deactivate(c.Request.Context(), id); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Competition settled"})
}

// ApplyScoreRequest is an admin-entered fixture result correction
type ApplyScoreRequest struct {
	FixtureID string `json:"fixtureId" binding:"required"`
	HomeScore int    `json:"homeScore"`
	AwayScore int    `json:"awayScore"`
	IsLive    bool   `json:"isLive"`
	IsFT      bool   `json:"isFT"`
	Override  bool   `json:"override"`
}

// ApplyScore handles POST /admin/scores. With override set it rewrites results
// already marked full-time.
func (h *AdminHandler) ApplyScore(c *gin.Context) {
	var request ApplyScoreRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	event := models.FixtureResultEvent{
		FixtureID: request.FixtureID,
		Score:     models.FixtureScore{Home: request.HomeScore, Away: request.AwayScore},
		IsLive:    request.IsLive,
		IsFT:      request.IsFT,
	}
	if err := h.scoringService.ApplyFixtureResult(c.Request.Context(), event, request.Override); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Score applied"})
}
