package di

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"time"

	"github.com/google/wire"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/hrd-community/hrd-backend/internal/app"
	"github.com/hrd-community/hrd-backend/internal/config"
	"github.com/hrd-community/hrd-backend/internal/database"
	"github.com/hrd-community/hrd-backend/internal/health"
	"github.com/hrd-community/hrd-backend/internal/http/handler"
	"github.com/hrd-community/hrd-backend/internal/http/middleware"
	"github.com/hrd-community/hrd-backend/internal/http/router"
	"github.com/hrd-community/hrd-backend/internal/notify"
	"github.com/hrd-community/hrd-backend/internal/observability"
	"github.com/hrd-community/hrd-backend/internal/repository"
	"github.com/hrd-community/hrd-backend/internal/security"
	"github.com/hrd-community/hrd-backend/internal/service"
)

var ConfigSet = wire.NewSet(config.Load)

var ObservabilitySet = wire.NewSet(
	provideObservabilityRuntime,
	provideAppLogger,
)

var RuntimeInfraSet = wire.NewSet(
	provideRuntimeDB,
	provideRedisClient,
	provideReadinessProbeRunner,
)

var RepositorySet = wire.NewSet(
	repository.NewUserRepository,
	repository.NewMembershipRepository,
	repository.NewPostRepository,
	repository.NewContactMessageRepository,
)

var SecuritySet = wire.NewSet(
	provideJWTManager,
	provideCookieManager,
	provideTokenCodec,
)

var NotifySet = wire.NewSet(
	provideSMSSender,
	provideEmailSender,
)

var ServiceSet = wire.NewSet(
	service.NewUserService,
	service.NewPostService,
	service.NewContactService,
	service.NewOTPService,
	service.NewMembershipService,
	service.NewAuthService,
)

var HTTPSet = wire.NewSet(
	handler.NewAuthHandler,
	handler.NewOTPHandler,
	handler.NewMembershipHandler,
	handler.NewUserHandler,
	handler.NewPostHandler,
	handler.NewContactHandler,
	handler.NewAdminHandler,
	provideGlobalRateLimiter,
	provideAuthRateLimiter,
	provideRouterDependencies,
	router.NewRouter,
	provideHTTPServer,
)

var AppSet = wire.NewSet(app.New)

type MigrationRunner struct {
	cfg *config.Config
	db  *gorm.DB
}

func NewMigrationRunner(cfg *config.Config, db *gorm.DB) *MigrationRunner {
	return &MigrationRunner{cfg: cfg, db: db}
}

func (m *MigrationRunner) Run() error {
	if err := database.Migrate(m.db); err != nil {
		return err
	}
	report, err := database.Seed(m.db, m.cfg.BootstrapAdminEmail)
	if err != nil {
		return err
	}
	fmt.Printf("migration complete (promoted_admin=%v)\n", report.PromotedAdmin)
	return nil
}

func provideObservabilityRuntime(cfg *config.Config) (*observability.Runtime, error) {
	bootstrapLogger := observability.NewBootstrapLogger(cfg)
	return observability.InitRuntime(context.Background(), cfg, bootstrapLogger)
}

func provideAppLogger(cfg *config.Config, runtime *observability.Runtime) *slog.Logger {
	return observability.InitLogger(cfg, runtime.LoggerProvider)
}

func provideOpenDB(cfg *config.Config) (*gorm.DB, error) {
	return database.Open(cfg)
}

func provideRuntimeDB(cfg *config.Config) (*gorm.DB, error) {
	db, err := database.Open(cfg)
	if err != nil {
		return nil, err
	}
	if err := database.Migrate(db); err != nil {
		return nil, err
	}
	if _, err := database.Seed(db, cfg.BootstrapAdminEmail); err != nil {
		return nil, err
	}
	return db, nil
}

func provideRedisClient(cfg *config.Config, logger *slog.Logger) redis.UniversalClient {
	if !cfg.RateLimitRedisEnabled {
		return nil
	}
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	observability.InstrumentRedisClient(client, logger)
	return client
}

func provideJWTManager(cfg *config.Config) *security.JWTManager {
	return security.NewJWTManager(cfg.AuthSecret, cfg.JWTIssuer, cfg.JWTAudience, cfg.SessionTTL)
}

func provideCookieManager(cfg *config.Config) *security.CookieManager {
	return security.NewCookieManager(cfg.CookieDomain, cfg.CookieSecure, cfg.CookieSameSite)
}

func provideTokenCodec(cfg *config.Config) *security.TokenCodec {
	return security.NewTokenCodec(cfg.AuthSecret)
}

func provideSMSSender(cfg *config.Config, logger *slog.Logger) notify.SMSSender {
	if !cfg.SMSConfigured() {
		return nil
	}
	return notify.NewTwilioClient(cfg.TwilioAccountSID, cfg.TwilioAuthToken, cfg.TwilioFromNumber, logger)
}

func provideEmailSender(cfg *config.Config, logger *slog.Logger) notify.EmailSender {
	senders := make([]notify.EmailSender, 0, 2)
	if cfg.EmailSMTPConfigured() {
		senders = append(senders, notify.NewSMTPSender(cfg.EmailHost, cfg.EmailPort, cfg.EmailUser, cfg.EmailPassword, cfg.EmailFrom))
	}
	if cfg.EmailResendConfigured() {
		senders = append(senders, notify.NewResendSender(cfg.ResendAPIKey, cfg.EmailFrom))
	}
	if len(senders) == 0 {
		return nil
	}
	return notify.NewChainSender(logger, senders...)
}

func provideGlobalRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.GlobalRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":api")
		return router.GlobalRateLimiterFunc(middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.APIRateLimitPerMin,
			time.Minute,
			middleware.FailOpen,
			"api",
		).Middleware())
	}
	return router.GlobalRateLimiterFunc(middleware.NewRateLimiter(cfg.APIRateLimitPerMin, time.Minute, "api").Middleware())
}

func provideAuthRateLimiter(cfg *config.Config, redisClient redis.UniversalClient) router.AuthRateLimiterFunc {
	if cfg.RateLimitRedisEnabled && redisClient != nil {
		redisLimiter := middleware.NewRedisFixedWindowLimiter(redisClient, cfg.RateLimitRedisPrefix+":auth")
		return router.AuthRateLimiterFunc(middleware.NewDistributedRateLimiter(
			redisLimiter,
			cfg.AuthRateLimitPerMin,
			time.Minute,
			middleware.FailClosed,
			"auth",
		).Middleware())
	}
	return router.AuthRateLimiterFunc(middleware.NewRateLimiter(cfg.AuthRateLimitPerMin, time.Minute, "auth").Middleware())
}

func provideRouterDependencies(
	authHandler *handler.AuthHandler,
	otpHandler *handler.OTPHandler,
	membershipHandler *handler.MembershipHandler,
	userHandler *handler.UserHandler,
	postHandler *handler.PostHandler,
	contactHandler *handler.ContactHandler,
	adminHandler *handler.AdminHandler,
	jwt *security.JWTManager,
	globalRateLimiter router.GlobalRateLimiterFunc,
	authRateLimiter router.AuthRateLimiterFunc,
	readiness *health.ProbeRunner,
	cfg *config.Config,
) router.Dependencies {
	return router.Dependencies{
		AuthHandler:       authHandler,
		OTPHandler:        otpHandler,
		MembershipHandler: membershipHandler,
		UserHandler:       userHandler,
		PostHandler:       postHandler,
		ContactHandler:    contactHandler,
		AdminHandler:      adminHandler,
		JWTManager:        jwt,
		CORSOrigins:       cfg.CORSAllowedOrigins,
		AuthRateLimitRPM:  cfg.AuthRateLimitPerMin,
		APIRateLimitRPM:   cfg.APIRateLimitPerMin,
		GlobalRateLimiter: globalRateLimiter,
		AuthRateLimiter:   authRateLimiter,
		Readiness:         readiness,
		EnableOTelHTTP:    cfg.OTELMetricsEnabled || cfg.OTELTracingEnabled,
	}
}

func provideHTTPServer(cfg *config.Config, h http.Handler) *http.Server {
	return &http.Server{
		Addr:              ":" + cfg.HTTPPort,
		Handler:           h,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
		ReadHeaderTimeout: 5 * time.Second,
	}
}

func provideReadinessProbeRunner(cfg *config.Config, db *gorm.DB, redisClient redis.UniversalClient) *health.ProbeRunner {
	checkers := make([]health.Checker, 0, 2)
	if c := health.NewDBChecker(db); c != nil {
		checkers = append(checkers, c)
	}
	if cfg.RateLimitRedisEnabled {
		if c := health.NewRedisChecker(redisClient); c != nil {
			checkers = append(checkers, c)
		}
	}
	return health.NewProbeRunner(cfg.ReadinessProbeTimeout, cfg.ServerStartGracePeriod, checkers...)
}
