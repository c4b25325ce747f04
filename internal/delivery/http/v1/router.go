package v1

import (
	"net/http"
	"time"

	"cirqle-backend/config"
	"cirqle-backend/internal/delivery/http/middleware"
	"cirqle-backend/internal/delivery/http/response"
	"cirqle-backend/internal/domain"
	"cirqle-backend/internal/usecase"
	"cirqle-backend/pkg/auth"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

type RouterDeps struct {
	SessionUC   domain.SessionUsecase
	HealthUC    usecase.HealthUsecase
	Issuer      *auth.TokenIssuer
	RateLimiter *middleware.RateLimiter
	Config      *config.Config
}

func NewRouter(deps RouterDeps) *gin.Engine {
	cfg := deps.Config
	release := cfg.GinMode == gin.ReleaseMode
	window := time.Duration(cfg.RateLimitWindowSeconds) * time.Second

	r := gin.New()

	// Global Middlewares
	r.Use(middleware.CORSMiddleware(cfg.FrontendURL, release)) // CORS must be first!
	r.Use(gin.Recovery())
	r.Use(gin.Logger())
	r.Use(middleware.RequestID())
	r.Use(middleware.SecurityHeadersMiddleware(release))
	r.Use(middleware.ErrorHandler())
	r.Use(deps.RateLimiter.Middleware(middleware.GlobalRateLimitConfig(cfg.RateLimitGlobalThreshold, window)))

	v1 := r.Group("/v1")

	// Health Check
	v1.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "System operational", deps.HealthUC.Check(c.Request.Context()))
	})

	// Interest catalog for the interests screen
	v1.GET("/interests", func(c *gin.Context) {
		response.Success(c, http.StatusOK, "Interest catalog", domain.InterestCatalog())
	})

	// Swagger
	v1.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))

	// Session routes
	public := v1.Group("")
	public.Use(middleware.CSRFMiddleware(release))

	protected := public.Group("")
	protected.Use(middleware.SessionAuth(deps.Issuer))
	{
		startLimit := deps.RateLimiter.Middleware(middleware.SessionStartRateLimitConfig(cfg.RateLimitAuthThreshold, window))
		NewSessionHandler(public, protected, startLimit, deps.SessionUC, deps.Issuer, release)
		NewAppHandler(protected, deps.SessionUC)
	}

	return r
}
