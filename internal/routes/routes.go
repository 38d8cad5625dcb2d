package routes

import (
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"velora_back_end/internal/handlers"
	"velora_back_end/internal/handlers/admin"
	"velora_back_end/internal/handlers/payment"
	"velora_back_end/internal/handlers/product"
	"velora_back_end/internal/handlers/user"
	"velora_back_end/internal/middleware"
)

func RegisterRoutes(r *gin.Engine) {
	allowedOrigins := []string{"http://localhost:3000"}
	if origins := os.Getenv("CORS_ORIGINS"); origins != "" {
		allowedOrigins = strings.Split(origins, ",")
	}

	r.Use(cors.New(cors.Config{
		AllowOrigins:     allowedOrigins,
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	api := r.Group("/api")
	api.Use(middleware.APIRateLimit())

	// --- Public ---
	api.POST("/auth/register", middleware.RegisterRateLimit(), handlers.Register)
	api.POST("/auth/login", middleware.LoginRateLimit(), handlers.Login)
	api.GET("/auth/logout", handlers.OAuthLogout)
	api.GET("/auth/:provider", handlers.OAuthBegin)
	api.GET("/auth/:provider/callback", handlers.OAuthCallback)

	api.GET("/products", product.GetProducts)
	api.GET("/products/search", middleware.SearchRateLimit(), product.SearchProducts)
	api.GET("/products/:id", product.GetProduct)
	api.GET("/products/:id/images/signed", product.GetSignedImageURL)
	api.GET("/categories", product.GetCategories)

	api.POST("/contact", handlers.SubmitContactMessage)

	// Stripe authentifie par signature, pas par JWT
	api.POST("/payment/webhook", payment.StripeWebhook)

	// --- Authentifié ---
	auth := api.Group("")
	auth.Use(middleware.AuthRequired())
	{
		auth.GET("/auth/me", handlers.Me)
		auth.PUT("/auth/me", handlers.UpdateMe)

		auth.GET("/cart", user.GetCart)
		auth.POST("/cart/add", middleware.CartRateLimit(), user.AddToCart)
		auth.PUT("/cart/:productId", user.UpdateCartItem)
		auth.DELETE("/cart/:productId", user.RemoveFromCart)
		auth.DELETE("/cart", user.ClearCart)

		auth.GET("/addresses", user.GetAddresses)
		auth.POST("/addresses", user.CreateAddress)
		auth.PUT("/addresses/:id", user.UpdateAddress)
		auth.DELETE("/addresses/:id", user.DeleteAddress)

		auth.POST("/orders", middleware.CheckoutRateLimit(), user.CreateOrder)
		auth.GET("/orders", user.GetMyOrders)
		auth.GET("/orders/:ref", user.GetOrderByRef)
		auth.POST("/orders/:ref/cancel", user.CancelOrder)
		auth.GET("/orders/:ref/qrcode", user.OrderQRCode)
		auth.GET("/orders/:ref/invoice", user.DownloadInvoice)
		auth.GET("/orders/:ref/track/ws", user.TrackOrderWS)

		auth.POST("/checkout", payment.CreatePaymentIntent)
		auth.POST("/payment/intent", payment.CreatePaymentIntent)
	}

	// --- Admin ---
	adm := api.Group("/admin")
	adm.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		adm.POST("/products", product.CreateProduct)
		adm.PUT("/products/:id", product.UpdateProduct)
		adm.DELETE("/products/:id", product.DeleteProduct)
		adm.POST("/products/:id/images", product.UploadProductImage)
		adm.PUT("/products/:id/stock", product.AdjustStock)

		adm.GET("/inventory/movements", product.GetStockMovements)
		adm.GET("/inventory/alerts", product.GetStockAlerts)

		adm.POST("/categories", product.CreateCategory)
		adm.PUT("/categories/:id", product.UpdateCategory)
		adm.DELETE("/categories/:id", product.DeleteCategory)

		adm.GET("/orders", admin.ListOrders)
		adm.GET("/orders/stats", admin.OrderStats)
		adm.GET("/orders/:ref", admin.GetOrder)
		adm.PUT("/orders/:ref/status", admin.UpdateOrderStatus)
		adm.PUT("/orders/:ref/notes", admin.SetOrderNotes)
		adm.POST("/orders/:ref/refund", admin.RefundOrder)

		adm.GET("/contact-messages", handlers.ListContactMessages)
	}
}
