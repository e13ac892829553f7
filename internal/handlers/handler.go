package handlers

import (
	"net/http"
	"time"

	"storefront/internal/logger"
	"storefront/internal/metrics"
	"storefront/internal/service"

	"github.com/gin-gonic/gin"

	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

// Handler wires HTTP layer to services and logging.
type Handler struct {
	services *service.Service
	log      *logger.Logger
	metrics  *metrics.Metrics
	limiter  *RateLimiter
	opts     Options
}

// Options tunes cookies, rate limiting and metrics. The zero value is usable.
type Options struct {
	SecureCookie   bool
	SessionTTL     time.Duration
	RateLimitRPS   float64
	RateLimitBurst int
	Metrics        *metrics.Metrics
}

const (
	defaultRateLimitRPS   = 5
	defaultRateLimitBurst = 10
)

// NewHandler constructs a new HTTP handler with dependencies.
func NewHandler(services *service.Service, log *logger.Logger, opts Options) *Handler {
	if opts.SessionTTL <= 0 {
		opts.SessionTTL = 24 * time.Hour
	}
	if opts.RateLimitRPS <= 0 {
		opts.RateLimitRPS = defaultRateLimitRPS
	}
	if opts.RateLimitBurst <= 0 {
		opts.RateLimitBurst = defaultRateLimitBurst
	}
	m := opts.Metrics
	if m == nil {
		m = metrics.New()
	}
	return &Handler{
		services: services,
		log:      log,
		metrics:  m,
		limiter:  NewRateLimiter(opts.RateLimitRPS, opts.RateLimitBurst),
		opts:     opts,
	}
}

// Limiter exposes the login/signup limiter so main can run its cleanup loop.
func (h *Handler) Limiter() *RateLimiter { return h.limiter }

// InitRoutes builds and returns the Gin router with all routes registered.
func (h *Handler) InitRoutes() *gin.Engine {
	router := gin.New()
	router.Use(gin.Recovery(), h.requestLogger, h.metrics.Middleware())
	router.SetHTMLTemplate(mustParseTemplates())

	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	router.GET("/health", h.health)
	router.GET("/metrics", gin.WrapH(h.metrics.Handler()))

	// Server-rendered pages (cookie session)
	h.registerPageRoutes(router)

	// JSON auth endpoints
	h.registerAuthRoutes(router)

	// Versioned API endpoints (bearer token)
	h.registerAPIRoutes(router)

	// Catalog stream for logged-in browsers
	router.GET("/ws", h.loadSession, h.requireSession, h.wsConnect)

	return router
}

func (h *Handler) registerPageRoutes(r *gin.Engine) {
	pages := r.Group("", h.loadSession)
	{
		pages.GET("/", h.homePage)
		pages.GET("/home", h.homePage)
		pages.GET("/signup", h.signupPage)
		pages.POST("/signup", h.limitForm("signup.html", "Sign up"), h.signupSubmit)
		pages.GET("/login", h.loginPage)
		pages.POST("/login", h.limitForm("login.html", "Login"), h.loginSubmit)
	}

	private := pages.Group("", h.requireSession)
	{
		private.GET("/change_password", h.changePasswordPage)
		private.POST("/change_password", h.changePasswordSubmit)
		private.GET("/add_product", h.addProductPage)
		private.POST("/add_product", h.addProductSubmit)
		private.GET("/products", h.productsPage)
		private.GET("/products_owned", h.productsOwnedPage)
		private.POST("/buy/:product_id", h.buyProduct)
		private.POST("/own/:product_id", h.returnProduct)
		private.GET("/logout", h.logout)
	}
}

func (h *Handler) registerAuthRoutes(r *gin.Engine) {
	auth := r.Group("/auth", h.limiter.Middleware())
	{
		auth.POST("/sign-up", h.signUp)
		auth.POST("/sign-in", h.signIn)
	}
}

func (h *Handler) registerAPIRoutes(r *gin.Engine) {
	api := r.Group("/api/v1", h.userIdMiddleware)
	{
		products := api.Group("/products")
		{
			products.GET("", h.listProducts)
			products.POST("", h.createProduct)
			products.POST("/:id/buy", h.buyProductAPI)
			products.POST("/:id/return", h.returnProductAPI)
		}
		api.GET("/summary", h.getSummary)
		api.GET("/activity", h.getActivity)
	}
}

// @Summary      Health check
// @Tags         system
// @Produce      json
// @Success      200  {object}  map[string]string
// @Router       /health [get]
func (h *Handler) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// Centralized error logging and response.
func (h *Handler) logAndJSONError(c *gin.Context, httpCode int, userMsg, logKey string, err error, kv ...interface{}) {
	if h.log != nil && err != nil {
		fields := append([]interface{}{"err", err}, kv...)
		h.log.Errorw(logKey, fields...)
	}
	c.JSON(httpCode, gin.H{"error": userMsg})
}
