package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"

	"pet-records/internal/adapters/auth/gotrue"
	"pet-records/internal/adapters/auth/jwtauth"
	s3blob "pet-records/internal/adapters/blob/s3"
	"pet-records/internal/adapters/capabilities/plansfeatures"
	dedupredis "pet-records/internal/adapters/dedup/redis"
	"pet-records/internal/adapters/email/resend"
	pg "pet-records/internal/adapters/storage/postgres"
	"pet-records/internal/adapters/storage/sqlite"
	"pet-records/internal/config"
	"pet-records/internal/domain/documents"
	"pet-records/internal/domain/notify"
	"pet-records/internal/outbox"
	"pet-records/internal/platform/logger"
	"pet-records/internal/router"
)

// app junta config, logger, adapters y servicios. close libera lo que se abrió.
type app struct {
	cfg      config.Config
	log      logger.Logger
	opts     router.Options
	services *router.Services
	closers  []io.Closer
}

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, err
	}
	log := logger.New(logger.Options{
		Level:  logger.ParseLevel(cfg.Log.Level),
		Format: logger.ParseFormat(cfg.Log.Format),
		App:    cfg.Log.App,
	})
	return buildApp(ctx, cfg, log)
}

func buildApp(ctx context.Context, cfg config.Config, log logger.Logger) (_ *app, err error) {
	a := &app{cfg: cfg, log: log}
	defer func() {
		if err != nil {
			a.close()
		}
	}()

	opts := router.Options{
		Logger:        log,
		DedupTTL:      cfg.Dedup.TTL,
		JobToken:      cfg.Jobs.Token,
		CORSOrigins:   cfg.CORS.AllowedOrigins,
		ContactRate:   cfg.RateLimit.Requests,
		ContactWindow: cfg.RateLimit.Window,
		Documents: documents.Options{
			PresignTTL:      cfg.Blob.PresignTTL,
			DefaultShareTTL: cfg.Shares.DefaultTTL,
			MaxShareTTL:     cfg.Shares.MaxTTL,
			MaxUploadBytes:  cfg.Blob.MaxUploadBytes,
		},
		Notify: notify.Config{
			From:        cfg.Email.From,
			ContactTo:   cfg.Email.ContactTo,
			AppURL:      cfg.Email.AppURL,
			ShareTTL:    cfg.Shares.DefaultTTL,
			QueueDelay:  cfg.Outbox.BaseBackoff,
			Concurrency: cfg.Jobs.Concurrency,
		},
	}

	if cfg.Database.DSN != "" {
		db, err := openDB(ctx, cfg)
		if err != nil {
			return nil, err
		}
		a.closers = append(a.closers, db)
		opts.DB = db
	} else {
		log.Warn("database.dsn vacío: usando repos en memoria", nil)
	}

	switch cfg.Auth.Mode {
	case config.AuthModeJWT:
		v, err := jwtauth.NewVerifier(jwtauth.Config{
			Secret:   cfg.Auth.JWTSecret,
			Issuer:   cfg.Auth.JWTIssuer,
			Audience: cfg.Auth.JWTAudience,
		})
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		opts.AuthVerifier = v
	case config.AuthModeGoTrue:
		c, err := gotrue.NewClient(gotrue.Config{
			BaseURL: cfg.Auth.GoTrueURL,
			APIKey:  cfg.Auth.GoTrueAPIKey,
			Timeout: cfg.Auth.Timeout,
		})
		if err != nil {
			return nil, fmt.Errorf("auth: %w", err)
		}
		opts.AuthVerifier = gotrue.NewVerifier(c)
	default:
		log.Warn("auth.mode=dev: se acepta X-Debug-User-ID", nil)
	}

	if cfg.Blob.Driver == "s3" {
		store, err := s3blob.New(ctx, s3blob.Config{
			Bucket:          cfg.Blob.Bucket,
			Region:          cfg.Blob.Region,
			Endpoint:        cfg.Blob.Endpoint,
			PathStyle:       cfg.Blob.PathStyle,
			AccessKeyID:     cfg.Blob.AccessKeyID,
			SecretAccessKey: cfg.Blob.SecretKey,
		})
		if err != nil {
			return nil, fmt.Errorf("blob: %w", err)
		}
		opts.Blobs = store
	}

	if cfg.Email.Driver == "resend" {
		sender, err := resend.New(resend.Config{
			APIKey:        cfg.Email.APIKey,
			BaseURL:       cfg.Email.BaseURL,
			RatePerSecond: cfg.Email.RatePerSecond,
			Timeout:       cfg.Email.Timeout,
		}, log)
		if err != nil {
			return nil, fmt.Errorf("email: %w", err)
		}
		opts.Sender = sender
	}

	if cfg.Outbox.Driver == "sqlite" {
		store, err := sqlite.OpenOutbox(cfg.Outbox.Path)
		if err != nil {
			return nil, fmt.Errorf("outbox: %w", err)
		}
		a.closers = append(a.closers, store)
		opts.Outbox = store
	}

	if cfg.Dedup.Driver == "redis" {
		guard := dedupredis.New(dedupredis.NewClient(cfg.Dedup.RedisAddr, cfg.Dedup.RedisPassword, cfg.Dedup.RedisDB))
		a.closers = append(a.closers, closerFunc(guard.Close))
		if err := guard.Ping(ctx); err != nil {
			// el middleware deja pasar si redis no responde
			log.Warn("dedup: redis no responde", map[string]any{"error": err.Error()})
		}
		opts.Dedup = guard
	}

	plans, err := plansfeatures.NewClient(plansfeatures.Config{
		BaseURL: cfg.Plans.BaseURL,
		APIKey:  cfg.Plans.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("plans: %w", err)
	}
	opts.Capabilities = plansfeatures.NewResolver(plans, cfg.Plans.AllowAll, cfg.Plans.CacheTTL)

	a.opts = opts
	a.services = router.NewServices(opts)
	return a, nil
}

func openDB(ctx context.Context, cfg config.Config) (*sql.DB, error) {
	db, err := pg.Open(cfg.Database.DSN, cfg.Database.MaxOpenConns, cfg.Database.MaxIdleConns)
	if err != nil {
		return nil, fmt.Errorf("database: %w", err)
	}
	if cfg.Database.AutoMigrate {
		if err := pg.Migrate(ctx, db); err != nil {
			_ = db.Close()
			return nil, fmt.Errorf("database: migrate: %w", err)
		}
	}
	return db, nil
}

func (a *app) outboxWorker() *outbox.Worker {
	c := a.cfg.Outbox
	return outbox.NewWorker(a.services.Outbox, a.services.Sender, notify.NewLogRecorder(a.services.EmailLogs), outbox.WorkerConfig{
		PollInterval: c.PollInterval,
		MaxAttempts:  c.MaxAttempts,
		BaseBackoff:  c.BaseBackoff,
		MaxBackoff:   c.MaxBackoff,
		BatchSize:    c.BatchSize,
	}, a.log)
}

func (a *app) reminderJob() *notify.Job {
	j := a.cfg.Jobs
	return notify.NewReminderJob(a.services.Notify, j.ReminderInterval, j.ReminderWindow, j.RunTimeout, a.log)
}

func (a *app) welcomeJob() *notify.Job {
	j := a.cfg.Jobs
	return notify.NewWelcomeJob(a.services.Notify, j.WelcomeInterval, j.RunTimeout, a.log)
}

func (a *app) close() {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		errs = append(errs, a.closers[i].Close())
	}
	if err := errors.Join(errs...); err != nil {
		a.log.Warn("close resources", map[string]any{"error": err.Error()})
	}
}

type closerFunc func() error

func (f closerFunc) Close() error { return f() }
