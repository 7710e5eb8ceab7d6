package handlers

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/predictarena/arena-backend/internal/middleware"
	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/services"
	"github.com/predictarena/arena-backend/internal/utils"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// CompetitionHandler handles competition-related HTTP requests
type CompetitionHandler struct {
	competitionService  services.CompetitionService
	entryService        services.EntryService
	verificationService services.VerificationService
}

// NewCompetitionHandler creates a new CompetitionHandler
func NewCompetitionHandler(
	competitionService services.CompetitionService,
	entryService services.EntryService,
	verificationService services.VerificationService,
) *CompetitionHandler {
	return &CompetitionHandler{
		competitionService:  competitionService,
		entryService:        entryService,
		verificationService: verificationService,
	}
}

// CreateCompetitionRequest is the admin create payload
type CreateCompetitionRequest struct {
	Name             string                    `json:"name" binding:"required"`
	Type             models.CompetitionType    `json:"type" binding:"required"`
	EntryFee         int64                     `json:"entryFee"`
	HostContribution int64                     `json:"hostContribution"`
	ParticipantCap   int                       `json:"participantCap" binding:"required"`
	MinParticipants  int                       `json:"minParticipants"`
	MinTeams         int                       `json:"minTeams"`
	MaxTeams         int                       `json:"maxTeams"`
	Rules            []models.VerificationRule `json:"rules"`
	AllowTiedWinners bool                      `json:"allowTiedWinners"`
	IsPublic         bool                      `json:"isPublic"`
	StartDate        time.Time                 `json:"startDate" binding:"required"`
	EndDate          time.Time                 `json:"endDate" binding:"required"`
}

// CreateCompetition handles POST /admin/competitions
func (h *CompetitionHandler) CreateCompetition(c *gin.Context) {
	var request CreateCompetitionRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, _ := middleware.UserIDFromContext(c)

	competition, err := h.competitionService.Create(c.Request.Context(), services.CreateCompetitionInput{
		Name:             request.Name,
		Type:             request.Type,
		EntryFee:         request.EntryFee,
		HostContribution: request.HostContribution,
		ParticipantCap:   request.ParticipantCap,
		MinParticipants:  request.MinParticipants,
		MinTeams:         request.MinTeams,
		MaxTeams:         request.MaxTeams,
		Rules:            request.Rules,
		AllowTiedWinners: request.AllowTiedWinners,
		IsPublic:         request.IsPublic,
		StartDate:        request.StartDate,
		EndDate:          request.EndDate,
		CreatedBy:        userID,
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, competition)
}

// GetCompetitions handles GET /competitions
func (h *CompetitionHandler) GetCompetitions(c *gin.Context) {
	page, limit := utils.ParsePagination(c)
	activeOnly := c.DefaultQuery("active", "true") == "true"

	competitions, err := h.competitionService.List(c.Request.Context(), activeOnly, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, competitions)
}

// GetCompetitionByID handles GET /competitions/:id
func (h *CompetitionHandler) GetCompetitionByID(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	competition, err := h.competitionService.GetByID(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, competition)
}

// GetParticipants handles GET /competitions/:id/participants
func (h *CompetitionHandler) GetParticipants(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	selections, err := h.competitionService.Participants(c.Request.Context(), id)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, selections)
}

// JoinRequest is the join payload
type JoinRequest struct {
	Selections []services.TeamPick `json:"selections" binding:"required"`
}

// Join handles POST /competitions/:id/join
func (h *CompetitionHandler) Join(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	var request JoinRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	selection, err := h.entryService.Join(c.Request.Context(), id, userID, request.Selections)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{"teamSelection": selection})
}

// SubmitProofsRequest maps rule steps to uploaded proof URLs
type SubmitProofsRequest struct {
	Proofs map[int]string `json:"proofs" binding:"required"`
}

// SubmitProofs handles POST /selections/:id/proofs
func (h *CompetitionHandler) SubmitProofs(c *gin.Context) {
	id, err := primitive.ObjectIDFromHex(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid ID format"})
		return
	}
	var request SubmitProofsRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}

	selection, err := h.verificationService.SubmitProofs(c.Request.Context(), id, userID, request.Proofs)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, selection)
}
