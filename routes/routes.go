package routes

import (
	"document-approval-api/controllers"
	"document-approval-api/middleware"
	"document-approval-api/models"

	"github.com/gin-gonic/gin"
)

func SetupRoutes(router *gin.Engine) {
	// API v1 group
	v1 := router.Group("/api/v1")
	{
		// Public routes
		public := v1.Group("")
		{
			// Authentication
			public.POST("/login", controllers.Login)
			public.POST("/forgot-password", controllers.ForgotPassword)
			public.POST("/reset-password", controllers.ResetPassword)

			// Health check
			public.GET("/health", func(c *gin.Context) {
				c.JSON(200, gin.H{
					"status":  "ok",
					"message": "Document Approval API is running",
				})
			})
		}

		// Protected routes (require authentication)
		protected := v1.Group("")
		protected.Use(middleware.AuthMiddleware())
		{
			// User profile
			protected.GET("/profile", controllers.GetProfile)
			protected.PUT("/change-password", controllers.ChangePassword)

			// Documents
			documents := protected.Group("/documents")
			{
				documents.GET("", controllers.GetMyDocuments)
				documents.GET("/:id", controllers.GetDocument)
				documents.GET("/:id/download", controllers.DownloadDocument)

				// Teachers and head teachers submit documents
				documents.POST("",
					middleware.RequireRole(models.RoleTeacher, models.RoleHeadTeacher),
					controllers.UploadDocument)
			}

			// Approvals
			approvals := protected.Group("/approvals")
			{
				approvals.GET("/pending", controllers.GetPendingApprovals)
				approvals.GET("/history/:documentId", controllers.GetApprovalHistory)

				// Only approver roles decide
				decide := approvals.Group("")
				decide.Use(middleware.RequireRole(models.RoleHeadTeacher, models.RolePrincipal))
				{
					decide.POST("/:id/approve", controllers.ApproveDocument)
					decide.POST("/:id/reject", controllers.RejectDocument)
					decide.POST("/:id/request-revision", controllers.RequestRevision)
				}
			}

			// Notifications
			notifications := protected.Group("/notifications")
			{
				notifications.GET("", controllers.GetMyNotifications)
				notifications.GET("/unread-count", controllers.GetUnreadCount)
				notifications.PUT("/:id/read", controllers.MarkNotificationRead)
				notifications.PUT("/read-all", controllers.MarkAllNotificationsRead)
				notifications.DELETE("/read", controllers.DeleteReadNotifications)
			}

			// Dashboard
			protected.GET("/dashboard/stats", controllers.GetDashboardStats)
		}
	}
}
