package routes

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/01moynul/artisansloom-golang/internal/auth"
	"github.com/01moynul/artisansloom-golang/internal/handlers"
	"github.com/01moynul/artisansloom-golang/internal/middleware"
	"github.com/01moynul/artisansloom-golang/internal/models"
)

// Options are the cross-cutting pieces SetupRouter wires in.
type Options struct {
	Tokens        *auth.TokenManager
	RateLimiter   *middleware.RateLimiter // nil disables rate limiting
	AllowedOrigin string
	Log           *zap.Logger
}

// CORSMiddleware tells the browser that the web client at origin may call us.
func CORSMiddleware(origin string) gin.HandlerFunc {
	return func(c *gin.Context) {
		// 1. Allow only the configured frontend
		c.Writer.Header().Set("Access-Control-Allow-Origin", origin)

		// 2. Allow standard security credentials
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")

		// 3. Allow the headers callable clients send
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, Authorization, accept, origin, Cache-Control, X-Requested-With, X-Firebase-AppCheck")

		// 4. Callable operations are POST only
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET")

		// 5. Answer the preflight
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// SetupRouter builds the gin engine with every callable operation under /v1.
func SetupRouter(h *handlers.Handlers, opts Options) *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery())
	if opts.Log != nil {
		router.Use(middleware.RequestLogger(opts.Log))
	}

	// --- APPLY THE CORS GUARD ---
	router.Use(CORSMiddleware(opts.AllowedOrigin))

	// limited returns the chain for a route: rate limiter (if any) then handler.
	limited := func(chain ...gin.HandlerFunc) []gin.HandlerFunc {
		if opts.RateLimiter == nil {
			return chain
		}
		return append([]gin.HandlerFunc{opts.RateLimiter.Middleware()}, chain...)
	}

	v1 := router.Group("/v1")
	{
		// --- Ping Route (Public) ---
		v1.GET("/ping", func(c *gin.Context) {
			c.JSON(http.StatusOK, gin.H{"message": "pong!"})
		})

		// --- Public Catalog & Auction Routes ---
		public := v1.Group("/")
		public.Use(middleware.OptionalAuth(opts.Tokens))
		{
			public.POST("/getProduct", limited(h.GetProduct)...)
			public.POST("/listProducts", limited(h.ListProducts)...)
			public.POST("/getAuctionPiece", limited(h.GetAuctionPiece)...)
			public.POST("/listAuctions", limited(h.ListAuctions)...)
		}

		// --- Signed-in Routes (any role) ---
		signedIn := v1.Group("/")
		signedIn.Use(middleware.AuthMiddleware(opts.Tokens))
		{
			signedIn.POST("/updateCart", limited(h.UpdateCart)...)
			signedIn.POST("/getCart", limited(h.GetCart)...)
			signedIn.POST("/createOrder", limited(h.CreateOrder)...)
			signedIn.POST("/placeBid", limited(h.PlaceBid)...)
			signedIn.POST("/getMyOrders", limited(h.GetMyOrders)...)
			signedIn.POST("/getOrder", limited(h.GetOrder)...)
		}

		// --- Artisan Routes (admins too) ---
		artisan := v1.Group("/")
		artisan.Use(middleware.AuthMiddleware(opts.Tokens))
		artisan.Use(middleware.RequireRole(models.RoleArtisan, models.RoleAdmin))
		{
			artisan.POST("/createProduct", limited(h.CreateProduct)...)
			artisan.POST("/updateProduct", limited(h.UpdateProduct)...)
			artisan.POST("/getArtisanOrders", limited(h.GetArtisanOrders)...)
			artisan.POST("/updateOrderStatus", limited(h.UpdateOrderStatus)...)
			artisan.POST("/submitAuctionPiece", limited(h.SubmitAuctionPiece)...)
			artisan.POST("/generateListingCopy", limited(h.GenerateListingCopy)...)
		}

		// --- Admin-Only Routes ---
		admin := v1.Group("/")
		admin.Use(middleware.AuthMiddleware(opts.Tokens))
		admin.Use(middleware.RequireRole(models.RoleAdmin))
		{
			admin.POST("/appraiseAuctionPiece", limited(h.AppraiseAuctionPiece)...)
			admin.POST("/closeAuction", limited(h.CloseAuction)...)
		}
	}

	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": gin.H{"status": "NOT_FOUND", "message": "unknown operation"}})
	})

	return router
}
