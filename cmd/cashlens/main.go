// Command cashlens runs the CashLens HTTP API.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/cashlens/cashlens/db"
	"github.com/cashlens/cashlens/handler"
	"github.com/cashlens/cashlens/modules/account"
	"github.com/cashlens/cashlens/modules/ledger"
	"github.com/cashlens/cashlens/modules/twofactor"
	"github.com/cashlens/cashlens/pkg/clientip"
	"github.com/cashlens/cashlens/pkg/config"
	"github.com/cashlens/cashlens/pkg/email"
	"github.com/cashlens/cashlens/pkg/environment"
	"github.com/cashlens/cashlens/pkg/httpserver"
	"github.com/cashlens/cashlens/pkg/jwt"
	"github.com/cashlens/cashlens/pkg/logger"
	"github.com/cashlens/cashlens/pkg/pg"
	"github.com/cashlens/cashlens/pkg/qrcode"
	"github.com/cashlens/cashlens/pkg/ratelimiter"
	"github.com/cashlens/cashlens/pkg/redis"
	"github.com/cashlens/cashlens/pkg/requestid"
	"github.com/cashlens/cashlens/pkg/totp"
)

// appConfig holds process-wide settings.
type appConfig struct {
	Env              string        `env:"APP_ENV" envDefault:"development"`     // development, staging or production
	Name             string        `env:"APP_NAME" envDefault:"cashlens"`       // service attribute on every log record
	ReadinessTimeout time.Duration `env:"READINESS_TIMEOUT" envDefault:"2s"`    // Budget for all readiness checks
	EmailDrainTime   time.Duration `env:"EMAIL_DRAIN_TIMEOUT" envDefault:"15s"` // Wait for queued emails on shutdown
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "cashlens: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context, out io.Writer) error {
	var (
		app       appConfig
		logCfg    logger.Config
		pgCfg     pg.Config
		redisCfg  redis.Config
		httpCfg   httpserver.Config
		totpCfg   totp.Config
		emailCfg  email.Config
		authCfg   account.Config
		clientCfg clientip.Config
	)
	for _, load := range []func() error{
		func() error { return config.Load(&app) },
		func() error { return config.Load(&logCfg) },
		func() error { return config.Load(&pgCfg) },
		func() error { return config.Load(&redisCfg) },
		func() error { return config.Load(&httpCfg) },
		func() error { return config.Load(&totpCfg) },
		func() error { return config.Load(&emailCfg) },
		func() error { return config.Load(&authCfg) },
		func() error { return config.Load(&clientCfg) },
	} {
		if err := load(); err != nil {
			return fmt.Errorf("load config: %w", err)
		}
	}

	env := environment.Parse(app.Env)
	log := logger.New(
		logger.WithOutput(out),
		logger.WithEnvironment(env, app.Name),
		logger.WithConfig(logCfg),
		logger.WithContextExtractors(requestid.LoggerExtractor()),
	)
	ctx = environment.WithContext(ctx, env)

	encryptionKey, err := totpCfg.ResolveEncryptionKey()
	switch {
	case errors.Is(err, totp.ErrInsecureFallbackKeyInUse):
		log.WarnContext(ctx, "TOTP_ENCRYPTION_KEY is not set, two-factor secrets are encrypted with the public fallback key")
	case err != nil:
		return fmt.Errorf("two-factor encryption key: %w", err)
	}
	codec, err := totp.NewCodec(encryptionKey)
	if err != nil {
		return err
	}

	pool, err := pg.Connect(ctx, pgCfg)
	if err != nil {
		return err
	}
	defer pool.Close()
	if err := pg.Migrate(ctx, pool, db.Migrations(), pgCfg, log); err != nil {
		return err
	}

	checks := []httpserver.Check{{Name: "postgres", Fn: pg.Healthcheck(pool)}}

	var store ratelimiter.Store
	if redisCfg.Enabled() {
		client, err := redis.Connect(ctx, redisCfg)
		if err != nil {
			return err
		}
		defer client.Close()
		if err := ratelimiter.CheckServerVersion(ctx, client); err != nil {
			return err
		}
		store = ratelimiter.NewRedisStore(client, ratelimiter.WithKeyPrefix(app.Name+":ratelimit:"))
		checks = append(checks, httpserver.Check{Name: "redis", Fn: redis.Healthcheck(client)})
	} else {
		mem := ratelimiter.NewMemoryStore()
		defer mem.Close()
		store = mem
		log.InfoContext(ctx, "REDIS_URL is not set, rate limits are kept in process memory")
	}
	limits, err := newLimiters(store)
	if err != nil {
		return err
	}

	mailer, err := email.New(emailCfg)
	if err != nil {
		return err
	}
	if !emailCfg.UsePostmark() {
		log.InfoContext(ctx, "postmark is not configured, emails are written to disk", slog.String("dir", emailCfg.DevDir))
	}
	async := email.NewAsyncSender(mailer, log, email.DefaultSendTimeout)
	defer func() {
		drainCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), app.EmailDrainTime)
		defer cancel()
		if err := async.Wait(drainCtx); err != nil {
			log.WarnContext(drainCtx, "pending emails dropped on shutdown", logger.Error(err))
		}
	}()

	tokens, err := jwt.New(authCfg.SigningKey, authCfg.Issuer)
	if err != nil {
		return fmt.Errorf("token service: %w", err)
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	twoFactorSvc := twofactor.NewService(twofactor.NewPGStorage(pool), codec,
		twofactor.WithIssuer(totpCfg.Issuer),
		twofactor.WithQREncoder(qrcode.NewEncoder(totpCfg.QRCodeSize)),
		twofactor.WithLogger(log),
		twofactor.WithMetrics(twofactor.NewMetrics(registry)),
		twofactor.WithNotifier(twofactor.NewEmailNotifier(async, emailCfg.SupportEmail, log)),
	)
	accountSvc, err := account.NewService(account.NewPGStorage(pool), tokens, twoFactorSvc, authCfg,
		account.WithLogger(log),
		account.WithMetrics(account.NewMetrics(registry)),
	)
	if err != nil {
		return err
	}
	ledgerSvc := ledger.NewService(ledger.NewPGStorage(pool), ledger.WithLogger(log))

	errorHandler := handler.NewErrorHandler(log)
	router := newRouter(routerDeps{
		log:       log,
		registry:  registry,
		clientIP:  clientip.NewResolver(clientCfg.TrustedHeaders...),
		tokens:    tokens,
		limits:    limits,
		account:   account.NewHandler(accountSvc, errorHandler),
		twoFactor: twofactor.NewHandler(twoFactorSvc, errorHandler),
		ledger:    ledger.NewHandler(ledgerSvc, errorHandler),
		checks:    checks,
		readiness: app.ReadinessTimeout,
	})

	return httpserver.New(httpCfg, log).Run(ctx, router)
}
