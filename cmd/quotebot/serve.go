package main

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"

	"github.com/joho/godotenv"
	"github.com/rotisserie/eris"
	"github.com/sirupsen/logrus"

	"quotebot/app/internal/bot"
	"quotebot/app/internal/config"
	appdb "quotebot/app/internal/db"
	"quotebot/app/internal/guild"
	apphttp "quotebot/app/internal/http"
	applog "quotebot/app/internal/log"
	"quotebot/app/internal/story"
)

func run(ctx context.Context) error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return eris.Wrap(err, "failure loading configuration")
	}

	if cfg.DiscordToken == "" {
		return eris.New("DISCORD_TOKEN must be set")
	}

	logger, err := applog.NewLogger(cfg.LogLevel)
	if err != nil {
		return eris.Wrap(err, "failure initialising logger")
	}

	sentryHub, flush, err := applog.InitSentry(logger, applog.SentrySettings{
		DSN:         cfg.SentryDSN,
		Environment: cfg.Environment,
		Release:     version,
	})
	if err != nil {
		return eris.Wrap(err, "failure initialising sentry")
	}
	defer flush()

	dbConn, err := appdb.Open(appdb.Options{Path: cfg.DBPath})
	if err != nil {
		return eris.Wrap(err, "opening database")
	}
	defer func() {
		if closeErr := appdb.Close(dbConn); closeErr != nil {
			logger.WithError(closeErr).Error("closing database")
		}
	}()

	if err := guild.Migrate(ctx, dbConn, logger); err != nil {
		return eris.Wrap(err, "running migrations")
	}

	guilds, err := guild.NewRepository(dbConn, logger)
	if err != nil {
		return eris.Wrap(err, "building guild repository")
	}

	library := story.NewLibrary(logger)
	if err := library.Load(cfg.DataDir); err != nil {
		return eris.Wrap(err, "loading story library")
	}

	quoteBot, err := bot.New(bot.Options{
		Token:           cfg.DiscordToken,
		OwnerID:         cfg.OwnerID,
		DefaultPrefixes: cfg.DefaultPrefixes,
		Library:         library,
		Guilds:          guilds,
		Logger:          logger,
		SentryHub:       sentryHub,
	})
	if err != nil {
		return eris.Wrap(err, "creating bot")
	}

	transport, err := apphttp.NewServer(apphttp.Options{
		Library:   library,
		Guilds:    guilds,
		Database:  dbConn,
		Gateway:   quoteBot,
		Logger:    logger,
		SentryHub: sentryHub,
	})
	if err != nil {
		return eris.Wrap(err, "initialising ops transport")
	}

	if err := quoteBot.Start(ctx); err != nil {
		return eris.Wrap(err, "starting bot")
	}
	defer func() {
		if closeErr := quoteBot.Close(); closeErr != nil {
			logger.WithError(closeErr).Error("closing bot")
		}
	}()

	httpServer := &stdhttp.Server{
		Addr:    fmt.Sprintf("0.0.0.0:%d", cfg.ServerPort),
		Handler: transport.Handler(),
	}

	logger.WithFields(logrus.Fields{
		"addr":    httpServer.Addr,
		"stories": library.StoryCount(),
	}).Info("quotebot running")

	serverErrCh := make(chan error, 1)
	go func() {
		err := httpServer.ListenAndServe()
		if err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			serverErrCh <- err
		} else {
			serverErrCh <- nil
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-serverErrCh:
		if err != nil {
			return eris.Wrap(err, "ops server error")
		}
		return nil
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownGrace)
	defer cancel()

	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return eris.Wrap(err, "shutting down ops server")
	}

	logger.Info("quotebot shut down cleanly")
	return nil
}
