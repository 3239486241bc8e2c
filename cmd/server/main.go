package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"go.uber.org/zap"

	"github.com/iliyamo/cleaning-booking/internal/config"
	"github.com/iliyamo/cleaning-booking/internal/database"
	"github.com/iliyamo/cleaning-booking/internal/handler"
	"github.com/iliyamo/cleaning-booking/internal/jobs"
	"github.com/iliyamo/cleaning-booking/internal/logger"
	"github.com/iliyamo/cleaning-booking/internal/mail"
	"github.com/iliyamo/cleaning-booking/internal/queue"
	"github.com/iliyamo/cleaning-booking/internal/repository"
	"github.com/iliyamo/cleaning-booking/internal/router"
	"github.com/iliyamo/cleaning-booking/internal/service"
	"github.com/iliyamo/cleaning-booking/internal/storage"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	log := logger.Must(cfg.Env)
	defer func() { _ = log.Sync() }()

	if err := run(cfg, log); err != nil {
		log.Fatal("server stopped", zap.Error(err))
	}
}

func run(cfg config.Config, log *zap.Logger) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := database.Open(cfg.Database, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := database.Close(db); err != nil {
			log.Warn("close database", zap.Error(err))
		}
	}()
	if err := database.Migrate(ctx, db); err != nil {
		return err
	}

	rdb := config.NewRedisClient(cfg.Redis)
	if rdb == nil {
		log.Warn("redis unavailable; rate limiting and caching disabled", zap.String("addr", cfg.Redis.Addr))
	} else {
		defer func() { _ = rdb.Close() }()
	}

	store, err := storage.NewS3(ctx, cfg.Storage)
	if err != nil {
		return err
	}

	var pub *queue.Publisher
	if cfg.Mail.Transport == "queue" {
		pub, err = queue.NewPublisher(cfg.RabbitMQ.URL, cfg.RabbitMQ.Queue)
		if err != nil {
			return err
		}
		defer pub.Close()
	}
	sender, err := mail.New(cfg.Mail, pub, log)
	if err != nil {
		return err
	}

	users := repository.NewUserRepo(db)
	tokens := service.NewTokenService(cfg.JWT, db)
	accounts := service.NewAccountService(db, tokens, cfg.BcryptCost, log)
	resets := service.NewPasswordResetService(db, cfg, sender, log)
	bookings := service.NewBookingService(db, store, sender, cfg, log)
	catalog := service.NewCatalogService(repository.NewCatalogRepo(db), store, cfg.Storage.ServiceImageBucket)
	agencies := service.NewAgencyService(repository.NewAgencyRepo(db), users, log)

	authH := handler.NewAuthHandler(cfg, accounts, tokens, resets)
	e := router.New(router.Deps{Config: cfg, Log: log, Redis: rdb, Tokens: tokens, Users: users}, router.Handlers{
		Auth:     authH,
		Account:  handler.NewAccountHandler(accounts, cfg.RequestTimeout, authH),
		Catalog:  handler.NewCatalogHandler(catalog, cfg.RequestTimeout),
		Bookings: handler.NewBookingHandler(bookings, cfg.RequestTimeout, cfg.UploadTimeout),
		Agencies: handler.NewAgencyHandler(agencies, cfg.RequestTimeout),
	})

	cleanup := jobs.NewCleanupJob(db, cfg.Cleanup, log)
	if err := cleanup.Start(); err != nil {
		return err
	}

	errCh := make(chan error, 1)
	go func() {
		addr := ":" + cfg.Port
		log.Info("listening", zap.String("addr", addr), zap.String("env", cfg.Env))
		if err := e.Start(addr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			return err
		}
	case <-ctx.Done():
	}

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Warn("http shutdown", zap.Error(err))
	}
	cleanup.Stop(shutdownCtx)
	bookings.Wait()
	resets.Wait()
	return nil
}
