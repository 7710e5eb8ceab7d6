package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/services"
	"github.com/predictarena/arena-backend/internal/utils"
)

// RankHandler serves the global leaderboards
type RankHandler struct {
	rankService services.RankService
}

// NewRankHandler creates a new RankHandler
func NewRankHandler(rankService services.RankService) *RankHandler {
	return &RankHandler{rankService: rankService}
}

// GetRankings handles GET /ranks?type=&scope=&country=&page=&limit=
func (h *RankHandler) GetRankings(c *gin.Context) {
	gameType := models.CompetitionType(c.Query("type"))
	if gameType != "" && !models.ValidCompetitionType(gameType) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid competition type"})
		return
	}

	scope := models.RankScope(c.DefaultQuery("scope", string(models.RankScopeWorld)))
	if scope != models.RankScopeWorld && scope != models.RankScopeCountry {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid rank scope"})
		return
	}
	country := c.Query("country")
	if scope == models.RankScopeCountry && country == "" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Country is required for country scope"})
		return
	}

	page, limit := utils.ParsePagination(c)
	ranks, err := h.rankService.GetRankings(c.Request.Context(), scope, gameType, country, page, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ranks)
}
