package routes

import (
	"github.com/gin-gonic/gin"
	"github.com/predictarena/arena-backend/internal/config"
	"github.com/predictarena/arena-backend/internal/handlers"
	"github.com/predictarena/arena-backend/internal/middleware"
)

// HandlerDependencies carries the initialized handlers into the router
type HandlerDependencies struct {
	AuthHandler        *handlers.AuthHandler
	CompetitionHandler *handlers.CompetitionHandler
	AdminHandler       *handlers.AdminHandler
	RankHandler        *handlers.RankHandler
	WalletHandler      *handlers.WalletHandler
}

// SetupRouter sets up the router
func SetupRouter(cfg *config.Config, deps HandlerDependencies) *gin.Engine {
	// Create router
	router := gin.New()
	router.Use(gin.Recovery())

	// Add middleware
	router.Use(middleware.CORSMiddleware(cfg))
	router.Use(middleware.RequestIDMiddleware())
	router.Use(middleware.LoggerMiddleware())

	// Public routes
	public := router.Group("/api/v1")
	{
		// Health check
		public.GET("/health", func(c *gin.Context) {
			c.JSON(200, gin.H{
				"status": "ok",
			})
		})

		// Auth routes
		auth := public.Group("/auth")
		{
			auth.POST("/login", deps.AuthHandler.Login)
		}
	}

	// Protected routes
	protected := router.Group("/api/v1")
	protected.Use(middleware.JWTAuthMiddleware(cfg))
	{
		// Competition routes
		competitions := protected.Group("/competitions")
		{
			competitions.GET("", deps.CompetitionHandler.GetCompetitions)
			competitions.GET("/:id", deps.CompetitionHandler.GetCompetitionByID)
			competitions.GET("/:id/participants", deps.CompetitionHandler.GetParticipants)
			competitions.POST("/:id/join", deps.CompetitionHandler.Join)
		}

		// Team selection routes
		selections := protected.Group("/selections")
		{
			selections.POST("/:id/proofs", deps.CompetitionHandler.SubmitProofs)
		}

		// Leaderboard routes
		protected.GET("/ranks", deps.RankHandler.GetRankings)

		// Wallet routes
		wallet := protected.Group("/wallet")
		{
			wallet.GET("", deps.WalletHandler.GetWallet)
			wallet.POST("/deposit", deps.WalletHandler.Deposit)
			wallet.PUT("/payout-details", deps.WalletHandler.UpdatePayoutDetails)
		}
	}

	// Admin routes
	admin := router.Group("/api/v1/admin")
	admin.Use(middleware.JWTAuthMiddleware(cfg))
	admin.Use(middleware.AdminOnlyMiddleware())
	{
		admin.POST("/competitions", deps.CompetitionHandler.CreateCompetition)
		admin.POST("/competitions/:id/winners", deps.AdminHandler.SetWinnerOverride)
		admin.POST("/competitions/:id/deactivate", deps.AdminHandler.Deactivate)

		admin.POST("/selections/:id/review", deps.AdminHandler.ReviewProof)
		admin.POST("/selections/:id/disqualify", deps.AdminHandler.Disqualify)
		admin.POST("/selections/:id/requalify", deps.AdminHandler.Requalify)

		admin.POST("/scores", deps.AdminHandler.ApplyScore)
	}

	return router
}
