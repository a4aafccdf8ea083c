package http

import (
	"context"
	"net/http"
	"time"

	"github.com/iplan/cellact/internal/config"
	"github.com/iplan/cellact/internal/http/middleware"
	"github.com/iplan/cellact/internal/parser"
	"github.com/iplan/cellact/internal/repository"
	"github.com/labstack/echo/v4"
	echoMid "github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
)

// Deps are the collaborators behind the routes. Sender is nil when the send
// endpoint is disabled.
type Deps struct {
	Push    *parser.PushParser
	Inbound inboundService
	Sender  smsSender
	Reports repository.CHNotificationsRepository
	Redis   redis.Cmdable
}

type Server struct{ e *echo.Echo }

func NewServer(cfg config.Config, d Deps) *Server {
	e := echo.New()
	e.HideBanner = true
	e.Logger.SetLevel(log.INFO)
	e.Use(echoMid.Recover(), echoMid.Logger())

	e.GET("/metrics", echo.WrapHandler(promhttp.Handler()))

	// health
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })

	// middlewares
	authMW := middleware.TokenMiddleware(cfg.Webhook.Token)
	rlMW := middleware.RateLimitMiddleware(middleware.RateLimitConfig{
		Redis:          d.Redis,
		RPS:            cfg.Webhook.RateLimit.RPS,
		KeyPrefix:      "rl:cellact:",
		Window:         time.Second,
		RetryAfterHint: true,
	})

	// gateway pushes; some deployments push with GET
	push := e.Group("/push", authMW, rlMW)
	for _, m := range []string{http.MethodGet, http.MethodPost} {
		push.Add(m, "/notification", pushNotificationHandler(d.Push, d.Inbound))
		push.Add(m, "/reply", pushReplyHandler(d.Push, d.Inbound))
	}

	v1 := e.Group("/v1", authMW, rlMW)
	if d.Sender != nil {
		v1.POST("/sms/send", sendSMSHandler(d.Sender))
	}
	if d.Reports != nil {
		v1.GET("/reports/notifications", listNotificationsHandler(d.Reports, cfg.Plan()))
	}

	return &Server{e: e}
}

func (s *Server) Handler() http.Handler { return s.e }

func (s *Server) Start(addr string) error {
	s.e.Logger.Infof("http: listening on %s", addr)
	return s.e.Start(addr)
}

func (s *Server) Shutdown(ctx context.Context) error { return s.e.Shutdown(ctx) }
