package http

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"

	handlers "github.com/wekeepgrowing/semo-enrollment/internal/adapter/handler/http"
	"github.com/wekeepgrowing/semo-enrollment/internal/config"
	"github.com/wekeepgrowing/semo-enrollment/internal/middleware/auth"
	"github.com/wekeepgrowing/semo-enrollment/pkg/logger"
)

// Handlers are the route targets mounted by the server
type Handlers struct {
	Webhook  *handlers.WebhookHandler
	Checkout *handlers.CheckoutHandler
	Access   *handlers.AccessHandler
	Purchase *handlers.PurchaseHandler
	Metrics  http.Handler
}

type Server struct {
	config *config.Config
	logger *zap.Logger
	echo   *echo.Echo
}

func NewServer(cfg *config.Config, log *zap.Logger, h Handlers) *Server {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.Validator = handlers.NewRequestValidator()
	e.Server.ReadTimeout = cfg.Server.HTTP.ReadTimeout
	e.Server.WriteTimeout = cfg.Server.HTTP.WriteTimeout
	logger.WithEchoLogger(e, log)

	// Middleware
	e.Use(middleware.Recover())
	e.Use(logger.NewEchoRequestLogger(log))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins: []string{cfg.Service.ClientURL},
		AllowMethods: []string{http.MethodGet, http.MethodPost},
		AllowHeaders: []string{echo.HeaderAuthorization, echo.HeaderContentType},
	}))

	s := &Server{
		config: cfg,
		logger: log,
		echo:   e,
	}
	s.setupRoutes(h)
	return s
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.echo
}

func (s *Server) Start() error {
	addr := fmt.Sprintf("%s:%d", s.config.Server.HTTP.Host, s.config.Server.HTTP.Port)
	s.logger.Info("Starting HTTP server", zap.String("address", addr))

	if err := s.echo.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.echo.Shutdown(ctx)
}

func (s *Server) setupRoutes(h Handlers) {
	s.echo.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]string{
			"status":  "healthy",
			"service": s.config.Service.Name,
		})
	})
	if h.Metrics != nil {
		s.echo.GET("/metrics", echo.WrapHandler(h.Metrics))
	}

	// Webhook route (outside API versioning); authenticated by signature
	s.echo.POST("/webhook", h.Webhook.HandleWebhook)

	jwtConfig := auth.JWTConfig{
		Secret: s.config.JWT.Secret,
		Issuer: s.config.JWT.Issuer,
		Logger: s.logger,
	}
	v1 := s.echo.Group("/api/v1", auth.JWTMiddleware(jwtConfig))
	v1.POST("/checkout", h.Checkout.CreateCheckoutSession)
	v1.GET("/courses/:courseId/access", h.Access.CheckAccess)
	v1.GET("/purchases", h.Purchase.ListPurchases)
}
