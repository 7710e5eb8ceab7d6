package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predictarena/arena-backend/internal/models"
)

// respondError maps engine errors onto HTTP statuses. The sentinel messages are
// returned verbatim; clients display join rejections as-is.
func respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, models.ErrInvalidTeamCount),
		errors.Is(err, models.ErrMissingStarTeam),
		errors.Is(err, models.ErrDuplicateJoin):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrInsufficientBalance):
		c.JSON(http.StatusPaymentRequired, gin.H{"error": err.Error()})
	case errors.Is(err, models.ErrCapacityExceeded),
		errors.Is(err, models.ErrStarFixtureTaken),
		errors.Is(err, models.ErrCompetitionNotActive),
		errors.Is(err, models.ErrFixtureResultFinal),
		errors.Is(err, models.ErrNotAllProofsVerified):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	case models.IsNotFound(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	default:
		var validation *models.ValidationError
		if errors.As(err, &validation) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusInternalServerError, gin.H{"error": err.Error()})
	}
}
