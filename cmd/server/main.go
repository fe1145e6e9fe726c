package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/ErlanBelekov/charon/config"
	"github.com/ErlanBelekov/charon/internal/clock"
	"github.com/ErlanBelekov/charon/internal/credential"
	"github.com/ErlanBelekov/charon/internal/email"
	"github.com/ErlanBelekov/charon/internal/health"
	"github.com/ErlanBelekov/charon/internal/infrastructure/memory"
	"github.com/ErlanBelekov/charon/internal/infrastructure/postgres"
	redisstore "github.com/ErlanBelekov/charon/internal/infrastructure/redis"
	ctxlog "github.com/ErlanBelekov/charon/internal/log"
	"github.com/ErlanBelekov/charon/internal/metrics"
	"github.com/ErlanBelekov/charon/internal/repository"
	"github.com/ErlanBelekov/charon/internal/session"
	httptransport "github.com/ErlanBelekov/charon/internal/transport/http"
	"github.com/ErlanBelekov/charon/internal/transport/http/handler"
	"github.com/ErlanBelekov/charon/internal/usecase"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config error: %v", err)
	}
	if err := cfg.ValidateServer(); err != nil {
		log.Fatalf("config error: %v", err)
	}

	logger := ctxlog.New(os.Stdout, cfg.Env, cfg.SlogLevel())

	if cfg.Env != "local" {
		gin.SetMode(gin.ReleaseMode)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)

	var deps []health.Dependency

	// Users
	var userRepo repository.UserRepository
	if cfg.DatabaseURL == "" {
		logger.Warn("DATABASE_URL not set, users are kept in memory")
		userRepo = memory.NewUserRepository()
	} else {
		if cfg.AutoMigrate {
			if err := postgres.Migrate(ctx, cfg.DatabaseURL); err != nil {
				stop()
				log.Fatalf("migrate: %v", err)
			}
		}
		pool, err := postgres.NewPool(ctx, cfg.DatabaseURL, postgres.PoolOptions{MaxConns: cfg.DBMaxConns})
		if err != nil {
			stop()
			log.Fatalf("db: %v", err)
		}
		defer pool.Close()
		userRepo = postgres.NewUserRepository(pool)
		deps = append(deps, health.Dependency{Name: "postgres", Pinger: pool})
	}

	// Sessions
	redisClient, err := redisstore.NewClient(ctx, cfg.RedisURL)
	if err != nil {
		stop()
		log.Fatalf("redis: %v", err)
	}
	defer redisClient.Close()
	sessionStore := redisstore.NewSessionStore(redisClient)
	deps = append(deps, health.Dependency{Name: "redis", Pinger: sessionStore})
	sessions := session.NewManager(sessionStore, []byte(cfg.SessionSecret), cfg.SessionTTL, clock.System{})

	// Credentials
	hasher, err := credential.NewHasher(cfg.PasswordHash, cfg.BcryptCost)
	if err != nil {
		stop()
		log.Fatalf("hasher: %v", err)
	}

	mailer, err := email.NewSender(email.Options{
		Transport:    cfg.MailTransport,
		ResendAPIKey: cfg.ResendAPIKey,
		SMTP: email.SMTPConfig{
			Host:   cfg.SMTPHost,
			Port:   cfg.SMTPPort,
			User:   cfg.SMTPUser,
			Pass:   cfg.SMTPPass,
			UseTLS: cfg.SMTPTLS,
		},
	}, logger)
	if err != nil {
		stop()
		log.Fatalf("mail: %v", err)
	}

	authUsecase := usecase.NewAuthUsecase(userRepo, hasher, mailer, clock.System{}, usecase.AuthConfig{
		ServerURL:       cfg.ServerURL,
		MailFrom:        cfg.MailFrom,
		MailSubject:     cfg.MailSubject,
		ResetTokenHours: cfg.ResetTokenTTLHours,
	}, logger)
	flow := usecase.NewFlow(authUsecase, logger)

	authHandler := handler.NewAuthHandler(handler.Flows{
		Signin:  flow.Signin(usecase.Options{SuccessRedirect: cfg.SigninSuccessRedirect, FailureRedirect: cfg.SigninFailureRedirect}),
		Signup:  flow.Signup(usecase.Options{SuccessRedirect: cfg.SignupSuccessRedirect, FailureRedirect: cfg.SignupFailureRedirect}),
		Signout: flow.Signout(usecase.Options{SuccessRedirect: cfg.SignoutRedirect}),
		Forgot:  flow.Forgot(usecase.Options{SuccessRedirect: cfg.ForgotSuccessRedirect, FailureRedirect: cfg.ForgotFailureRedirect}),
		Reset:   flow.Reset(usecase.Options{SuccessRedirect: cfg.ResetSuccessRedirect, FailureRedirect: cfg.ResetFailureRedirect}),
	}, authUsecase, sessions, handler.CookieOptions{
		Secure: cfg.SecureCookies(),
		Flash:  cfg.FlashEnabled,
	}, logger)

	metrics.Register()
	checker := health.NewChecker(deps, logger, prometheus.DefaultRegisterer)

	router, err := httptransport.NewRouter(logger, authHandler, sessions, httptransport.RouterOptions{
		Secure:         cfg.SecureCookies(),
		TrustedProxies: cfg.TrustedProxies,
	})
	if err != nil {
		stop()
		log.Fatalf("router: %v", err)
	}

	srv := http.Server{
		Addr:              ":" + cfg.Port,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	metricsSrv := metrics.NewServer(":"+cfg.MetricsPort, checker)

	go func() {
		logger.Info("server started", "port", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("server: %v", err)
		}
	}()

	go func() {
		logger.Info("metrics server started", "port", cfg.MetricsPort)
		if err := metricsSrv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("metrics server", "error", err)
		}
	}()

	<-ctx.Done()
	stop()
	logger.Info("shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("server shutdown", "error", err)
	}
	if err := metricsSrv.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown", "error", err)
	}
}
