package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/mobilemart/mobilemart-golang/internal/handlers"
	"github.com/mobilemart/mobilemart-golang/internal/middleware"
	"github.com/mobilemart/mobilemart-golang/internal/models"
)

// CORSMiddleware allows browser frontends to talk to the API.
func CORSMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT, DELETE, PATCH")

		// Reply to the browser's preflight request directly.
		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}

		c.Next()
	}
}

func SetupRouter(h *handlers.Handlers) *gin.Engine {
	router := gin.Default()

	router.Use(CORSMiddleware())

	// --- Health Checks (Public) ---
	router.GET("/", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Mobile E-Commerce API is running",
			"version": "1.0.0",
		})
	})
	router.GET("/healthCheck", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{
			"success": true,
			"message": "Server is healthy",
		})
	})

	api := router.Group("/api")
	{
		// --- Auth Routes ---
		authGroup := api.Group("/auth")
		{
			authGroup.POST("/register", h.Register)
			authGroup.POST("/login", h.Login)

			authGroup.GET("/profile", middleware.Authenticate(h.DB), h.GetProfile)
			authGroup.POST("/address", middleware.Authenticate(h.DB), h.AddAddress)
			authGroup.GET("/addresses", middleware.Authenticate(h.DB), h.GetAddresses)
			authGroup.DELETE("/address/:id", middleware.Authenticate(h.DB), h.DeleteAddress)
		}

		// --- Customer Catalog Routes ---
		mobiles := api.Group("/mobiles")
		mobiles.Use(middleware.Authenticate(h.DB, models.RoleCustomer))
		{
			mobiles.GET("", h.GetMobiles)
			mobiles.GET("/:id", h.GetMobile)
			mobiles.GET("/filters/brands", h.GetBrands)
		}

		// --- Cart Routes (Login Required) ---
		cart := api.Group("/cart")
		cart.Use(middleware.Authenticate(h.DB))
		{
			cart.GET("", h.GetCart)
			cart.POST("/add", h.AddToCart)
			cart.PUT("/update", h.UpdateCartItem)
			cart.DELETE("/remove/:mobileId", h.RemoveCartItem)
			cart.DELETE("/clear", h.ClearCart)
		}

		// --- Order Routes (Login Required) ---
		orders := api.Group("/orders")
		orders.Use(middleware.Authenticate(h.DB))
		{
			orders.POST("/place", h.PlaceOrder)
			orders.GET("/my-orders", h.GetMyOrders)
			orders.GET("/:id", h.GetOrder)
		}

		// --- Admin Routes ---
		admin := api.Group("/admin")
		admin.Use(middleware.Authenticate(h.DB, models.RoleAdmin))
		{
			adminMobiles := admin.Group("/mobiles")
			{
				adminMobiles.GET("", h.AdminGetMobiles)
				adminMobiles.POST("/add", h.CreateMobile)
				adminMobiles.PUT("/update/:id", h.UpdateMobile)
				adminMobiles.DELETE("/delete/:id", h.DeleteMobile)
				adminMobiles.GET("/:id", h.AdminGetMobile)
				adminMobiles.PATCH("/stock/:id", h.UpdateStock)
				adminMobiles.PATCH("/availability/:id", h.UpdateAvailability)
			}

			adminOrders := admin.Group("/orders")
			{
				adminOrders.GET("", h.AdminGetOrders)
				adminOrders.GET("/stats/overview", h.GetOrderStats)
				adminOrders.GET("/:id", h.AdminGetOrder)
				adminOrders.PUT("/:id", h.UpdateOrderStatus)
				adminOrders.DELETE("/:id", h.DeleteOrder)
				adminOrders.PATCH("/accept/:id", h.AcceptOrder)
				adminOrders.PATCH("/deliver/:id", h.DeliverOrder)
				adminOrders.PATCH("/cancel/:id", h.CancelOrder)
			}

			adminUsers := admin.Group("/users")
			{
				adminUsers.GET("", h.AdminGetUsers)
				adminUsers.GET("/stats/overview", h.GetUserStats)
				adminUsers.GET("/:id", h.AdminGetUser)
				adminUsers.PUT("/update/:id", h.AdminUpdateUser)
				adminUsers.DELETE("/delete/:id", h.AdminDeleteUser)
			}
		}
	}

	return router
}
