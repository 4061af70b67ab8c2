package main

import (
	"context"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"novelstore-backend/internal/shared/middleware"
	"novelstore-backend/internal/shared/response"
	"novelstore-backend/pkg/container"
)

func SetupRouter(c *container.Container) *gin.Engine {
	router := gin.New()

	// Global middlewares
	router.Use(
		middleware.Recovery(),
		middleware.RequestID(),
		middleware.Logger(),
	)

	v1 := router.Group("/api/v1")
	{
		v1.GET("/health", healthCheckHandler(c))

		setupPromotionRoutes(v1, c)
		setupAdminPromotionRoutes(v1, c)
	}

	return router
}

// ========================================
// PROMOTION ROUTES (PUBLIC)
// ========================================
func setupPromotionRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.PromotionPublicHandler

	coupons := v1.Group("/coupons")
	{
		coupons.POST("/:code/validate", h.ValidateCoupon)
		coupons.POST("/:code/apply", h.ApplyCoupon)
	}

	v1.GET("/offers/active", h.GetActiveOffer)
	v1.POST("/volume-discount/evaluate", h.EvaluateVolumeDiscount)
}

// ========================================
// PROMOTION ROUTES (ADMIN)
// ========================================
func setupAdminPromotionRoutes(v1 *gin.RouterGroup, c *container.Container) {
	h := c.PromotionAdminHandler

	admin := v1.Group("/admin")
	admin.Use(middleware.AuthMiddleware(c.JWTManager), middleware.AdminMiddleware())
	{
		coupons := admin.Group("/coupons")
		{
			coupons.POST("", h.CreateCoupon)
			coupons.GET("", h.ListCoupons)
			coupons.GET("/:id", h.GetCoupon)
			coupons.PUT("/:id", h.UpdateCoupon)
			coupons.PATCH("/:id/status", h.UpdateCouponStatus)
			coupons.DELETE("/:id", h.DeleteCoupon)
			coupons.GET("/:id/redemptions", h.GetRedemptionHistory)
		}

		offers := admin.Group("/offers")
		{
			offers.POST("", h.CreateOffer)
			offers.GET("", h.ListOffers)
			offers.GET("/:id", h.GetOffer)
			offers.PUT("/:id", h.UpdateOffer)
			offers.PATCH("/:id/status", h.UpdateOfferStatus)
			offers.DELETE("/:id", h.DeleteOffer)
		}

		tiers := admin.Group("/volume-discounts")
		{
			tiers.POST("", h.CreateVolumeDiscount)
			tiers.GET("", h.ListVolumeDiscounts)
			tiers.GET("/:id", h.GetVolumeDiscount)
			tiers.PUT("/:id", h.UpdateVolumeDiscount)
			tiers.PATCH("/:id/status", h.UpdateVolumeDiscountStatus)
			tiers.DELETE("/:id", h.DeleteVolumeDiscount)
		}

		admin.POST("/reports/coupons", h.ExportCouponReport)
	}
}

func healthCheckHandler(appCtx *container.Container) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()

		services := appCtx.HealthCheck(ctx)

		status := "ok"
		for _, s := range services {
			if s == "down" {
				status = "degraded"
			}
		}

		response.Success(c, http.StatusOK, gin.H{
			"status":    status,
			"timestamp": time.Now().Format(time.RFC3339),
			"version":   appCtx.Config.App.Version,
			"services":  services,
		})
	}
}
