package handler

import (
	"chamapay/internal/config"
	"chamapay/internal/infrastructure/mpesa"

	"github.com/gin-gonic/gin"
	"github.com/go-redis/redis/v8"
	"gorm.io/gorm"
)

// SetupRouter wires middleware and all routes.
func SetupRouter(db *gorm.DB, rdb *redis.Client, cfg *config.Config, mpesaClient *mpesa.Client) *gin.Engine {
	gin.SetMode(gin.ReleaseMode)

	r := gin.New()

	r.Use(RecoveryMiddleware())
	r.Use(LoggerMiddleware())
	r.Use(CORSMiddleware())

	h := NewHandler(db, rdb, cfg, mpesaClient)

	api := r.Group("/api")

	// No session: register, login, and the Daraja callback (authenticated
	// by checkout id correlation, not by a user session).
	api.POST("/auth/register", h.Register)
	api.POST("/auth/login", h.Login)
	api.POST("/mpesa/callback", h.MpesaCallback)

	authed := api.Group("")
	authed.Use(AuthMiddleware(h.authService.JWT()))
	{
		authed.POST("/auth/logout", h.Logout)
		authed.GET("/auth/me", h.Me)

		authed.POST("/mpesa/stkpush", h.InitiateSTKPush)

		chamas := authed.Group("/chamas")
		{
			chamas.POST("", h.CreateChama)
			chamas.GET("", h.ListMyChamas)
			chamas.GET("/:id", h.GetChama)

			// members
			chamas.GET("/:id/members", h.ListMembers)
			chamas.POST("/:id/members", h.InviteMember)
			chamas.PUT("/:id/members/:userId", h.UpdateMemberRole)
			chamas.DELETE("/:id/members/:userId", h.RemoveMember)

			// contributions
			chamas.GET("/:id/contributions", h.ListContributions)
			chamas.POST("/:id/contributions", h.RecordManualContribution)

			// manual income/expense ledger
			chamas.GET("/:id/transactions", h.ListTransactions)
			chamas.POST("/:id/transactions", h.CreateTransaction)
			chamas.PUT("/:id/transactions/:txId", h.UpdateTransaction)
			chamas.DELETE("/:id/transactions/:txId", h.DeleteTransaction)

			// loans
			chamas.GET("/:id/loans", h.ListLoans)
			chamas.POST("/:id/loans", h.RequestLoan)
			chamas.GET("/:id/loans/:loanId", h.GetLoan)
			chamas.PUT("/:id/loans/:loanId", h.DecideLoan)
			chamas.POST("/:id/loans/:loanId/guarantee", h.RespondGuarantee)
			chamas.POST("/:id/loans/:loanId/repay", h.RepayLoan)

			// payouts
			chamas.POST("/:id/distribute", h.DistributeEqualShares)
			chamas.GET("/:id/rotation", h.GetRotation)
			chamas.PUT("/:id/rotation", h.SetRotationOrder)
			chamas.POST("/:id/rotation/shuffle", h.ShuffleRotation)
			chamas.POST("/:id/rotation/payout", h.ExecuteRotationPayout)
			chamas.GET("/:id/goals", h.ListGoals)
			chamas.POST("/:id/goals", h.CreateGoal)
			chamas.PUT("/:id/goals/:goalId", h.UpdateGoal)
			chamas.POST("/:id/goals/complete", h.CompleteActiveGoal)
			chamas.GET("/:id/cycles", h.ListCycles)

			// collaboration
			chamas.GET("/:id/announcements", h.ListAnnouncements)
			chamas.POST("/:id/announcements", h.CreateAnnouncement)
			chamas.DELETE("/:id/announcements/:annId", h.DeleteAnnouncement)
			chamas.GET("/:id/polls", h.ListPolls)
			chamas.POST("/:id/polls", h.CreatePoll)
			chamas.GET("/:id/polls/:pollId", h.GetPoll)
			chamas.POST("/:id/polls/:pollId/vote", h.Vote)
			chamas.POST("/:id/polls/:pollId/close", h.ClosePoll)
			chamas.DELETE("/:id/polls/:pollId", h.DeletePoll)
			chamas.GET("/:id/posts", h.ListPosts)
			chamas.POST("/:id/posts", h.CreatePost)
			chamas.DELETE("/:id/posts/:postId", h.DeletePost)
			chamas.GET("/:id/messages", h.ListMessages)
			chamas.POST("/:id/messages", h.SendMessage)
		}

		admin := authed.Group("/admin")
		admin.Use(AdminMiddleware())
		{
			admin.GET("/dashboard", h.AdminDashboard)
			admin.GET("/chamas", h.AdminListChamas)
			admin.PUT("/chamas/:id", h.AdminChangeChamaStatus)
			admin.DELETE("/chamas/:id", h.AdminDeleteChama)
			admin.GET("/users", h.AdminListUsers)
			admin.PUT("/users/:id", h.AdminSetUserStatus)
			admin.GET("/audit-logs", h.AdminAuditLogs)
		}
	}

	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}
