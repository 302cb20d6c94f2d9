package routes

import (
	"github.com/gin-gonic/gin"

	"kammalabel/internal/handlers"
	"kammalabel/internal/middleware"
	"kammalabel/internal/services"
)

func SetupRoutes(
	r *gin.Engine,
	tokens *services.TokenService,
	sessionSecret string,
	authHandler *handlers.AuthHandler,
	profileHandler *handlers.ProfileHandler,
	catalogHandler *handlers.CatalogHandler,
	cartHandler *handlers.CartHandler,
	orderHandler *handlers.OrderHandler,
) *gin.Engine {

	// ---- public
	auth := r.Group("/auth")
	{
		auth.POST("/login", authHandler.LoginStart)
		auth.POST("/login/verify", authHandler.LoginVerify)
		auth.POST("/register", authHandler.RegisterStart)
		auth.POST("/forgot-password", authHandler.ForgotStart)
		auth.POST("/forgot-password/resend", authHandler.ForgotResend)
		auth.POST("/forgot-password/change", authHandler.ForgotChangePassword)
	}

	catalog := r.Group("/catalog")
	{
		catalog.GET("/categories", catalogHandler.ListCategories)
		catalog.GET("/categories/:id", catalogHandler.GetCategory)
		catalog.GET("/categories/:id/filters", catalogHandler.CategoryFilters)
		catalog.GET("/categories/:id/products", catalogHandler.CategoryProducts)
		catalog.GET("/products", catalogHandler.ListProducts)
		catalog.GET("/products/:id", catalogHandler.GetProduct)
		catalog.GET("/search", catalogHandler.Search)
	}

	// корзина доступна и гостю: токен опционален, cookie выдаётся всем
	cart := r.Group("/cart",
		middleware.OptionalAuth(tokens),
		middleware.GuestSession(sessionSecret),
	)
	{
		cart.GET("", cartHandler.GetCart)
		cart.DELETE("", cartHandler.Clear)
		cart.POST("/items", cartHandler.AddItem)
		cart.PUT("/items/:id", cartHandler.UpdateItem)
		cart.DELETE("/items/:id", cartHandler.RemoveItem)
	}

	// ---- регистрация: временный токен обязателен, полный тоже подходит
	registration := r.Group("/auth/register", middleware.AuthMiddleware(tokens))
	{
		registration.POST("/send-code", authHandler.RegisterSendCode)
		registration.POST("/check-code", authHandler.RegisterCheckCode)
		registration.POST("/set-password", authHandler.RegisterSetPassword)
	}

	// ---- protected: только полный токен
	protected := r.Group("/", middleware.AuthMiddleware(tokens), middleware.RequireFullToken())

	protected.POST("/auth/logout", authHandler.Logout)

	profile := protected.Group("/profile")
	{
		profile.GET("", profileHandler.Me)
		profile.PUT("", profileHandler.Update)
		profile.GET("/dashboard", profileHandler.Dashboard)
		profile.POST("/change-password", profileHandler.ChangePassword)
		profile.POST("/change-email", profileHandler.ChangeEmailStart)
		profile.POST("/change-phone", profileHandler.ChangePhoneStart)
		profile.POST("/change-confirm", profileHandler.ChangeDataConfirm)
		profile.GET("/addresses", profileHandler.ListAddresses)
		profile.POST("/addresses", profileHandler.CreateAddress)
		profile.PUT("/addresses/:id", profileHandler.UpdateAddress)
		profile.DELETE("/addresses/:id", profileHandler.DeleteAddress)
	}

	orders := protected.Group("/orders")
	{
		orders.POST("", orderHandler.Checkout)
		orders.GET("", orderHandler.List)
		orders.GET("/:id", orderHandler.Get)
		orders.POST("/:id/cancel", orderHandler.Cancel)
		orders.POST("/:id/pay", orderHandler.Pay)
		orders.GET("/:id/payment", orderHandler.PaymentStatus)
		orders.GET("/:id/receipt", orderHandler.Receipt)
	}

	return r
}
