package routes

import (
	"cmcafe_back_end/internal/handlers"
	"cmcafe_back_end/internal/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

func RegisterRoutes(r *gin.Engine, h *handlers.Handlers) {
	r.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"http://localhost:3000"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Stripe-Signature"},
		AllowCredentials: true,
	}))

	api := r.Group("/api")

	// Auth
	auth := api.Group("/auth")
	{
		auth.POST("/register", h.Register)
		auth.POST("/login", h.Login)
		auth.GET("/:provider", h.BeginAuth)
		auth.GET("/:provider/callback", h.CallbackAuth)
	}

	// Carte — public
	menu := api.Group("/menu")
	{
		menu.GET("/categories", h.ListCategories)
		menu.GET("/products", h.ListProducts)
		menu.GET("/product/:id", h.GetProduct)
		menu.GET("/search", h.SearchProducts)
	}

	// Offres — public
	api.GET("/offers", h.ListOffers)

	// Webhook prestataire — signé, jamais authentifié par JWT
	api.POST("/checkout/webhook", h.CheckoutWebhook)

	// Tout le reste exige un JWT valide
	authed := api.Group("")
	authed.Use(middleware.AuthRequired())
	{
		authed.GET("/cart", h.GetCart)
		authed.POST("/cart", h.AddToCart)
		authed.PUT("/cart/:lineId", h.UpdateCartLine)
		authed.DELETE("/cart/clear", h.ClearCart)
		authed.DELETE("/cart/:lineId", h.RemoveCartLine)
		authed.GET("/cart/ws", h.CartWebSocket)

		authed.POST("/checkout/intent", h.CreateCheckoutIntent)
		authed.POST("/checkout/verify", h.VerifyCheckout)

		authed.GET("/orders", h.ListOrders)
		authed.GET("/orders/:id", h.GetOrder)
		authed.GET("/orders/:id/tracking", h.GetOrderTracking)
		authed.POST("/orders/:id/cancel", h.CancelOrder)

		authed.POST("/promos/validate", h.ValidatePromo)

		authed.GET("/wishlist", h.GetWishlist)
		authed.POST("/wishlist", h.AddToWishlist)
		authed.DELETE("/wishlist/:itemId", h.RemoveFromWishlist)

		authed.GET("/membership", h.GetMembership)
	}

	// Administration
	admin := api.Group("/admin")
	admin.Use(middleware.AuthRequired(), middleware.RequireAdmin)
	{
		admin.POST("/products", h.CreateProduct)
		admin.PUT("/products/:id", h.UpdateProduct)
		admin.POST("/products/:id/image", h.UploadProductImage)
		admin.POST("/categories", h.CreateCategory)

		admin.GET("/promos", h.ListPromos)
		admin.POST("/promos", h.CreatePromo)
		admin.PUT("/promos/:id", h.UpdatePromo)
		admin.DELETE("/promos/:id", h.DeletePromo)

		admin.PUT("/orders/:id/status", h.AdvanceOrderStatus)
	}
}
