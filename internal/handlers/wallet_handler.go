package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/predictarena/arena-backend/internal/middleware"
	"github.com/predictarena/arena-backend/internal/models"
	"github.com/predictarena/arena-backend/internal/services"
)

// WalletHandler handles wallet HTTP requests
type WalletHandler struct {
	walletService services.WalletService
}

// NewWalletHandler creates a new WalletHandler
func NewWalletHandler(walletService services.WalletService) *WalletHandler {
	return &WalletHandler{walletService: walletService}
}

// GetWallet handles GET /wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	wallet, err := h.walletService.GetByUserID(c.Request.Context(), userID)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// DepositRequest is the deposit payload, amount in coins
type DepositRequest struct {
	Amount int64 `json:"amount" binding:"required"`
}

// Deposit handles POST /wallet/deposit
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	var request DepositRequest
	if err := c.ShouldBindJSON(&request); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	wallet, err := h.walletService.Deposit(c.Request.Context(), userID, request.Amount)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, wallet)
}

// UpdatePayoutDetails handles PUT /wallet/payout-details
func (h *WalletHandler) UpdatePayoutDetails(c *gin.Context) {
	userID, ok := middleware.UserIDFromContext(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "Authentication required"})
		return
	}
	var details models.PayoutDetails
	if err := c.ShouldBindJSON(&details); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := h.walletService.UpdatePayoutDetails(c.Request.Context(), userID, details); err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Payout details updated"})
}
