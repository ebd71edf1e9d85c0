// Package api assembles the gin engine: middleware chain and routes.
package api

import (
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"hilop/internal/api/controllers"
	"hilop/internal/backend"
	"hilop/pkg/metrics"
	"hilop/pkg/middleware"
)

type Controllers struct {
	Consultation *controllers.ConsultationController
	BMI          *controllers.BMIController
	Proxy        *controllers.ProxyController
	Health       *controllers.HealthController
}

type RouterConfig struct {
	Session     middleware.SessionOptions
	CORSOrigins []string
	RateLimiter *middleware.RateLimiter
	Logger      *zap.Logger
}

func NewRouter(cfg RouterConfig, ctrl Controllers) *gin.Engine {
	r := gin.New()
	r.Use(middleware.TraceIDMiddleware())
	r.Use(middleware.RequestLogger(cfg.Logger))
	r.Use(middleware.Recovery())
	r.Use(metrics.GinMiddleware())
	r.Use(middleware.CORSMiddleware(cfg.CORSOrigins))

	optional := []gin.HandlerFunc{middleware.SessionMiddleware(cfg.Session, false)}
	required := []gin.HandlerFunc{middleware.SessionMiddleware(cfg.Session, true)}
	if cfg.RateLimiter != nil {
		optional = append(optional, cfg.RateLimiter.Handler())
		required = append(required, cfg.RateLimiter.Handler())
	}

	RegisterRoutes(r, ctrl, optional, required)
	return r
}

// Backend paths the proxies forward to.
const (
	backendSendOTP       = "/auth/send-otp"
	backendVerifyOTP     = "/auth/verify-otp"
	backendFirebaseLogin = "/auth/firebase-login"
	backendMe            = "/auth/me"
	backendProducts      = "/products"
	backendCart          = "/cart"
	backendCartItems     = "/cart/items"
	backendCheckout      = "/checkout"
	backendCoupons       = "/coupons/validate"
	backendOrders        = "/orders"
	backendPrescriptions = "/prescriptions"
	backendCoins         = "/coins"
)

func RegisterRoutes(r *gin.Engine, ctrl Controllers, optional, required []gin.HandlerFunc) {
	r.GET("/healthz", ctrl.Health.Healthz)
	r.GET("/metrics", gin.WrapH(metrics.Handler()))

	public := r.Group("", optional...)
	public.POST("/bmi", ctrl.BMI.Calculate)
	public.GET("/consultation/tests", ctrl.Consultation.ListTests)

	consultationGroup := r.Group("/consultation", required...)
	consultationGroup.GET("/history", ctrl.Consultation.History)
	consultationGroup.POST("/flows", ctrl.Consultation.CreateFlow)
	consultationGroup.GET("/flows/:id", ctrl.Consultation.GetFlow)
	consultationGroup.DELETE("/flows/:id", ctrl.Consultation.CloseFlow)
	consultationGroup.POST("/flows/:id/test", ctrl.Consultation.SelectTest)
	consultationGroup.POST("/flows/:id/answer", ctrl.Consultation.Answer)
	consultationGroup.POST("/flows/:id/back", ctrl.Consultation.Back)

	p := ctrl.Proxy

	apiPublic := r.Group("/api", optional...)
	apiPublic.POST("/auth/send-otp", p.Forward("send_otp", controllers.Static(backendSendOTP)))
	apiPublic.POST("/auth/verify-otp", p.Login("verify_otp", controllers.Static(backendVerifyOTP)))
	apiPublic.POST("/auth/firebase-login", p.Login("firebase_login", controllers.Static(backendFirebaseLogin)))
	apiPublic.POST("/auth/logout", p.Logout)
	apiPublic.GET("/products", p.Forward("list_products", controllers.Static(backendProducts)))
	apiPublic.GET("/products/:id", p.Forward("get_product", controllers.WithParam(backendProducts, "id")))
	apiPublic.GET("/tests", p.Forward("list_tests", controllers.Static(backend.PathTests)))
	apiPublic.GET("/tests/:id", p.Forward("get_test", controllers.WithParam(backend.PathTests, "id")))

	apiAuth := r.Group("/api", required...)
	apiAuth.GET("/auth/me", p.Forward("me", controllers.Static(backendMe)))

	apiAuth.GET("/cart", p.Forward("get_cart", controllers.Static(backendCart)))
	apiAuth.POST("/cart/add", p.Forward("add_to_cart", controllers.Static(backend.PathCartAdd)))
	apiAuth.PUT("/cart/items/:id", p.Forward("update_cart_item", controllers.WithParam(backendCartItems, "id")))
	apiAuth.DELETE("/cart/items/:id", p.Forward("remove_cart_item", controllers.WithParam(backendCartItems, "id")))
	apiAuth.POST("/checkout", p.Forward("checkout", controllers.Static(backendCheckout)))
	apiAuth.POST("/coupons/validate", p.Forward("validate_coupon", controllers.Static(backendCoupons)))

	apiAuth.GET("/orders", p.Forward("list_orders", controllers.Static(backendOrders)))
	apiAuth.GET("/orders/:id", p.Forward("get_order", controllers.WithParam(backendOrders, "id")))
	apiAuth.GET("/prescriptions", p.Forward("list_prescriptions", controllers.Static(backendPrescriptions)))
	apiAuth.GET("/coins", p.Forward("coins", controllers.Static(backendCoins)))

	apiAuth.POST("/consultation/start", p.Forward("start_test", controllers.Static(backend.PathConsultationStart)))
	apiAuth.POST("/consultation/answer", p.Forward("submit_answer", controllers.Static(backend.PathConsultationAnswer)))
	apiAuth.PUT("/consultation/complete/:id", p.Forward("complete_test", controllers.WithParam(backend.PathConsultationComplete, "id")))
}
