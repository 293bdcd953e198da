package routes

import (
	"ourskilllab/internal/handlers"
	"ourskilllab/internal/middleware"

	"github.com/gin-gonic/gin"
)

// Handlers groups everything the API routes dispatch to.
type Handlers struct {
	Auth         *handlers.AuthHandler
	Course       *handlers.CourseHandler
	Discount     *handlers.DiscountHandler
	Enrollment   *handlers.EnrollmentHandler
	Subscription *handlers.SubscriptionHandler
	Webhook      *handlers.WebhookHandler
}

// Limits are the rate limiters applied per route group. Nil entries are
// skipped.
type Limits struct {
	API *middleware.RateLimiter
	OTP *middleware.RateLimiter
}

// SetupRoutes registers the /api/v1 tree.
func SetupRoutes(r *gin.RouterGroup, h *Handlers, auth middleware.Authenticator, limits Limits) {
	if limits.API != nil {
		r.Use(limits.API.Handler())
	}

	SetupAuthRoutes(r, h.Auth, auth, limits.OTP)
	SetupCatalogRoutes(r, h)
	SetupUserRoutes(r, h, auth)
	SetupAdminRoutes(r, h, auth)

	r.POST("/webhooks/:provider", h.Webhook.HandleWebhook)
}

func SetupAuthRoutes(r *gin.RouterGroup, authHandler *handlers.AuthHandler, auth middleware.Authenticator, otpLimit *middleware.RateLimiter) {
	group := r.Group("/auth")
	{
		group.POST("/register", authHandler.Register)

		otp := group.Group("/otp")
		if otpLimit != nil {
			otp.Use(otpLimit.Handler())
		}
		{
			otp.POST("/mobile", authHandler.RequestMobileOTP)
			otp.POST("/email", authHandler.RequestEmailOTP)
			otp.POST("/mobile/verify", authHandler.VerifyMobileOTP)
			otp.POST("/email/verify", authHandler.VerifyEmailOTP)
		}

		session := group.Group("")
		session.Use(middleware.AuthRequired(auth))
		{
			session.GET("/me", authHandler.Me)
			session.POST("/logout", authHandler.Logout)
		}
	}
}

// SetupCatalogRoutes registers the public browsing endpoints.
func SetupCatalogRoutes(r *gin.RouterGroup, h *Handlers) {
	r.GET("/courses", h.Course.ListCourses)
	r.GET("/courses/:id", h.Course.GetCourse)
	r.GET("/discounts/validate", h.Discount.ValidateDiscount)
	r.GET("/subscriptions/plans", h.Subscription.ListPlans)
}

func SetupUserRoutes(r *gin.RouterGroup, h *Handlers, auth middleware.Authenticator) {
	authed := r.Group("")
	authed.Use(middleware.AuthRequired(auth))
	{
		authed.GET("/me/courses", h.Enrollment.ListMyCourses)
		authed.GET("/me/payments", h.Enrollment.GetPaymentHistory)

		authed.POST("/enrollments/payment-intent", h.Enrollment.CreatePaymentIntent)
		authed.POST("/enrollments/confirm", h.Enrollment.ConfirmEnrollment)
		authed.POST("/enrollments/free", h.Enrollment.EnrollFree)
		authed.GET("/receipts/:id", h.Enrollment.GetReceipt)

		authed.GET("/subscriptions/current", h.Subscription.GetCurrentSubscription)
		authed.POST("/subscriptions", h.Subscription.CreateSubscription)
		authed.POST("/subscriptions/cancel", h.Subscription.CancelSubscription)
	}
}

func SetupAdminRoutes(r *gin.RouterGroup, h *Handlers, auth middleware.Authenticator) {
	admin := r.Group("/admin")
	admin.Use(middleware.AuthRequired(auth), middleware.AdminRequired())
	{
		admin.POST("/courses", h.Course.CreateCourse)
		admin.GET("/courses", h.Course.AdminListCourses)
		admin.POST("/courses/image", h.Course.UploadCourseImage)

		admin.GET("/enrollments", h.Enrollment.EnrollmentReport)

		admin.POST("/discounts", h.Discount.CreateDiscount)
		admin.GET("/discounts", h.Discount.ListDiscounts)
		admin.PATCH("/discounts/:id/toggle", h.Discount.ToggleDiscount)

		admin.POST("/plans", h.Subscription.CreatePlan)
		admin.GET("/plans", h.Subscription.ListAllPlans)
	}
}
