package httptransport

import (
	"fmt"
	"log/slog"

	"github.com/ErlanBelekov/charon/internal/transport/http/handler"
	"github.com/ErlanBelekov/charon/internal/transport/http/middleware"
	"github.com/gin-gonic/gin"

	sloggin "github.com/samber/slog-gin"
)

type RouterOptions struct {
	// Secure enables HSTS.
	Secure bool
	// TrustedProxies lists the proxy IPs or CIDRs whose X-Forwarded-For is
	// believed. Empty means the socket peer is the client.
	TrustedProxies []string
}

func NewRouter(logger *slog.Logger, authHandler *handler.AuthHandler, sessions middleware.SessionResolver, opts RouterOptions) (*gin.Engine, error) {
	r := gin.New()
	if err := r.SetTrustedProxies(opts.TrustedProxies); err != nil {
		return nil, fmt.Errorf("trusted proxies: %w", err)
	}

	r.Use(gin.Recovery())
	r.Use(middleware.RequestID())
	r.Use(middleware.Security(opts.Secure))
	r.Use(sloggin.New(logger))
	r.Use(middleware.Metrics())
	r.Use(middleware.Session(sessions, logger))

	r.POST("/signin", authHandler.Signin)
	r.POST("/signup", authHandler.Signup)
	r.POST("/signout", authHandler.Signout)
	r.POST("/forgot", authHandler.Forgot)
	r.POST("/reset", authHandler.Reset)
	r.POST("/reset/:token", authHandler.Reset)

	r.GET("/me", middleware.RequireSession(), authHandler.Me)

	return r, nil
}
