package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/goliatone/go-edu"
	"github.com/goliatone/go-edu/activitysink"
	"github.com/goliatone/go-edu/config"
	"github.com/goliatone/go-edu/limiter"
	"github.com/goliatone/go-edu/logging"
	"github.com/goliatone/go-edu/mailer"
	"github.com/goliatone/go-edu/persistence"
	"github.com/goliatone/go-print"
	"github.com/goliatone/go-router"
	"github.com/redis/go-redis/v9"
	"github.com/uptrace/bun"
)

type App struct {
	config  *config.Config
	logs    *logging.Provider
	bunDB   *bun.DB
	repo    edu.RepositoryManager
	auth    edu.Authenticator
	mailer  edu.Mailer
	limiter edu.AttemptLimiter
	sink    edu.ActivitySink
	srv     router.Server[*fiber.App]
	closers []func()
}

func (a *App) GetLogger(name string) edu.Logger {
	return a.logs.GetLogger(name)
}

func (a *App) onShutdown(fn func()) {
	a.closers = append(a.closers, fn)
}

func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
}

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}

	app := &App{
		config: cfg,
		logs: logging.NewProvider(logging.Config{
			Level:  cfg.LogLevel,
			Format: cfg.LogFormat,
		}),
	}

	fmt.Println("============")
	fmt.Println(print.MaybePrettyJSON(cfg.Redacted()))
	fmt.Println("============")

	ctx := context.Background()
	logger := app.GetLogger("app")

	for _, step := range []func(context.Context, *App) error{
		WithPersistence,
		WithMailer,
		WithAttemptLimiter,
		WithActivitySink,
		WithHTTPServer,
	} {
		if err := step(ctx, app); err != nil {
			logger.Error("startup failed: %v", err)
			app.Close()
			os.Exit(1)
		}
	}

	go func() {
		logger.Info("listening on %s", cfg.Addr())
		if err := app.srv.Serve(cfg.Addr()); err != nil {
			logger.Error("server stopped: %v", err)
		}
	}()

	sig := WaitExitSignal()
	logger.Info("received %s, shutting down", sig)

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	if err := app.srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("shutdown: %v", err)
	}
	cancel()
	app.Close()
}

func WithPersistence(ctx context.Context, app *App) error {
	db, err := persistence.Open(app.config.DatabaseDriver, app.config.DatabaseDSN)
	if err != nil {
		return err
	}
	app.onShutdown(func() { _ = db.Close() })

	if err := db.PingContext(ctx); err != nil {
		return fmt.Errorf("database unreachable: %w", err)
	}

	if app.config.DatabaseAutoMigrate {
		if err := persistence.Migrate(ctx, db); err != nil {
			return err
		}
	}

	app.bunDB = db
	app.repo = edu.NewRepositoryManager(db)
	app.repo.MustValidate()
	return nil
}

func WithMailer(_ context.Context, app *App) error {
	cfg := app.config
	if !cfg.MailEnabled() {
		app.GetLogger("app").Warn("MAIL_USERNAME/MAIL_PASSWORD not set, OTP mails are logged instead of sent")
		app.mailer = mailer.NewLog(app.GetLogger("mailer"))
		return nil
	}

	m, err := mailer.NewSMTP(mailer.SMTPConfig{
		Host:     cfg.MailHost,
		Port:     cfg.MailPort,
		Username: cfg.MailUsername,
		Password: cfg.MailPassword,
		From:     cfg.MailFrom,
	})
	if err != nil {
		return err
	}
	app.mailer = m
	return nil
}

func WithAttemptLimiter(ctx context.Context, app *App) error {
	cfg := app.config
	if cfg.RedisAddr == "" {
		return nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	app.onShutdown(func() { _ = client.Close() })

	if err := client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis unreachable: %w", err)
	}

	app.limiter = limiter.NewRedis(client, cfg.OTPMaxAttempts, cfg.OTPAttemptWindow)
	return nil
}

func WithActivitySink(_ context.Context, app *App) error {
	cfg := app.config
	logger := app.GetLogger("activity")

	if cfg.NSQDAddr == "" {
		app.sink = edu.ActivitySinkFunc(func(_ context.Context, event edu.ActivityEvent) error {
			logger.Debug("activity %s user=%s", event.EventType, event.UserID)
			return nil
		})
		return nil
	}

	sink, err := activitysink.Dial(cfg.NSQDAddr, cfg.NSQTopic)
	if err != nil {
		return err
	}
	app.onShutdown(sink.Stop)
	app.sink = sink
	return nil
}

func WithHTTPServer(_ context.Context, app *App) error {
	cfg := app.config

	otp := edu.NewOTPEngine(edu.WithOTPPeriod(time.Duration(cfg.GetOTPPeriod()) * time.Second))
	tokens := edu.NewTokenServiceFromConfig(cfg, edu.WithTokenLogger(app.GetLogger("tokens")))

	provider := edu.NewUserProvider(app.repo.Users()).
		WithLoggerProvider(app.logs)

	app.auth = edu.NewAuthenticator(provider, tokens).
		WithLogger(app.GetLogger("auth")).
		WithActivitySink(app.sink)

	stateMachine := edu.NewUserStateMachine(app.repo.Users(),
		edu.WithStateMachineActivitySink(app.sink),
		edu.WithStateMachineLogger(app.GetLogger("lifecycle")),
	)

	register := edu.NewRegisterUserHandler(app.repo, otp, cfg.GetOTPSecret(), app.mailer,
		edu.WithRegisterActivitySink(app.sink),
		edu.WithRegisterLogger(app.GetLogger("register")),
		edu.WithRegisterHashidIDs(cfg.UseHashid),
	)

	verifyOpts := []edu.VerifyOTPOption{
		edu.WithVerifyOTPStateMachine(stateMachine),
		edu.WithVerifyOTPActivitySink(app.sink),
		edu.WithVerifyOTPLogger(app.GetLogger("verify")),
	}
	if app.limiter != nil {
		verifyOpts = append(verifyOpts, edu.WithVerifyOTPLimiter(app.limiter))
	}
	verify := edu.NewVerifyOTPHandler(app.repo, otp, cfg.GetOTPSecret(), verifyOpts...)

	resendOpts := []edu.ResendOTPOption{
		edu.WithResendOTPActivitySink(app.sink),
		edu.WithResendOTPLogger(app.GetLogger("resend")),
	}
	if app.limiter != nil {
		resendOpts = append(resendOpts, edu.WithResendOTPLimiter(app.limiter))
	}
	resend := edu.NewResendOTPHandler(app.repo, otp, cfg.GetOTPSecret(), app.mailer, resendOpts...)

	courseOpts := []edu.CourseCommandOption{
		edu.WithCourseActivitySink(app.sink),
		edu.WithCourseLogger(app.GetLogger("courses")),
	}

	httpLogger := app.GetLogger("http")
	errHandler := edu.NewErrorHandler(httpLogger)
	app.srv = edu.NewHTTPServer()

	protected := edu.NewJWTMiddleware(cfg, app.auth.TokenValidator())

	users := edu.NewUserController(register, verify, app.auth,
		edu.WithUserControllerLogger(app.GetLogger("users")),
		edu.WithUserControllerErrorHandler(errHandler),
		edu.WithUserControllerResendOTP(resend),
	)
	courses := edu.NewCourseController(app.repo,
		edu.NewCreateCourseHandler(app.repo, courseOpts...),
		edu.NewUpdateCourseHandler(app.repo, courseOpts...),
		edu.WithCourseControllerLogger(app.GetLogger("courses")),
		edu.WithCourseControllerContextKey(cfg.GetContextKey()),
		edu.WithCourseControllerErrorHandler(errHandler),
	)

	edu.RegisterRoutes(app.srv.Router().Group("/api"), users, courses, protected)
	return nil
}

func WaitExitSignal() os.Signal {
	ch := make(chan os.Signal, 3)
	signal.Notify(ch,
		syscall.SIGINT,
		syscall.SIGQUIT,
		syscall.SIGTERM,
	)
	return <-ch
}
