/*
Webapi is the executable for the forum web server.
It builds a web server around the APIs of the `pkg` packages: authentication, users, posts, comments, likes and
categories.
Webapi connects to the external resources it needs (the SQLite database and, optionally, an SMTP server) and serves
every route from a single API web server.

Usage:

	webapi [flags]

Flags and configurations are handled automatically by the code in `load-configuration.go`.

Return values (exit codes):

	0
		The program ended successfully (no errors, stopped by signal)

	> 0
		The program ended due to an error

Note that this program will create the database schema when missing (embedded in the executable during the build) and
refuse to start on databases whose schema differs.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"github.com/ardanlabs/conf"
	"github.com/gorilla/handlers"
	"github.com/silktrader/usof/pkg/auth"
	"github.com/silktrader/usof/pkg/categories"
	"github.com/silktrader/usof/pkg/comments"
	"github.com/silktrader/usof/pkg/likes"
	"github.com/silktrader/usof/pkg/mailer"
	"github.com/silktrader/usof/pkg/posts"
	"github.com/silktrader/usof/pkg/rest"
	"github.com/silktrader/usof/pkg/storage/sqlite"
	"github.com/silktrader/usof/pkg/users"
	"github.com/sirupsen/logrus"
	"net/http"
	"os"
	"os/signal"
	"syscall"
)

// main is the program entry point. The only purpose of this function is to call run() and set the exit code if there is
// any error
func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error: ", err)
		os.Exit(1)
	}
}

// run executes the program. The body of this function performs the following steps:
// * reads the configuration
// * creates and configure the logger
// * connects to any external resources (the database and the mail server)
// * registers the handlers of every package
// * starts the principal web server
// * waits for any termination event: SIGTERM signal (UNIX), non-recoverable server error, etc.
// * closes the principal web server
func run() error {
	// Load Configuration and defaults
	cfg, err := loadConfiguration(os.Args[1:])
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil
		}
		return err
	}

	// Init logging
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.Infof("application initializing")

	// initialise database before registering handlers for an immediate exit in case of issues
	storage, err := sqlite.New(logger, cfg.DB.Filename)
	if err != nil {
		logger.WithError(err).Error("error initialising storage")
		return fmt.Errorf("error while initialising storage: %w", err)
	}
	defer storage.Close()

	sender, err := mailer.New(mailer.Config{
		Host:     cfg.Mail.Host,
		Port:     cfg.Mail.Port,
		Username: cfg.Mail.Username,
		Password: cfg.Mail.Password,
		From:     cfg.Mail.From,
	}, logger)
	if err != nil {
		logger.WithError(err).Error("error configuring mail delivery")
		return fmt.Errorf("configuring mail delivery: %w", err)
	}

	// Start (main) API server
	logger.Info("initializing API server")

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	handler, err := buildHandler(cfg, logger, storage, sender)
	if err != nil {
		logger.WithError(err).Error("error creating the API server instance")
		return fmt.Errorf("creating the API server instance: %w", err)
	}

	// create the API server
	server := http.Server{
		Addr:              cfg.Web.APIHost,
		Handler:           handler,
		ReadTimeout:       cfg.Web.ReadTimeout,
		ReadHeaderTimeout: cfg.Web.ReadTimeout,
		WriteTimeout:      cfg.Web.WriteTimeout,
	}

	// Start the service listening for requests in a separate goroutine
	go func() {
		logger.Infof("API listening on %s", server.Addr)
		serverErrors <- server.ListenAndServe()
		logger.Infof("stopping API server")
	}()

	// Waiting for shutdown signal or POSIX signals
	select {
	case err := <-serverErrors:
		// Non-recoverable server error
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("signal %v received, start shutdown", sig)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and load shed.
		err = server.Shutdown(ctx)
		if err != nil {
			logger.WithError(err).Warning("error during graceful shutdown of HTTP server")
			err = server.Close()
		}

		if err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}

// buildHandler registers every route on a new engine and decorates it with panic recovery and the CORS policy.
func buildHandler(cfg WebAPIConfiguration, logger *logrus.Logger, storage *sqlite.Storage, notifier auth.ResetNotifier) (http.Handler, error) {
	e, err := rest.New(rest.Config{
		Logger: logger,
	})
	if err != nil {
		return nil, err
	}
	if cfg.Web.MaxBodyBytes > 0 {
		e.Use(rest.LimitBody(cfg.Web.MaxBodyBytes))
	}

	issuer, err := auth.NewIssuer(cfg.Auth.Secret, cfg.Auth.TokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("configuring tokens: %w", err)
	}

	// setup handlers
	var authRepository = auth.NewRepository(storage.Connection)
	var gate = auth.NewGate(issuer, authRepository, cfg.Policy.RevalidateRole)
	var hasher = auth.Hasher{Cost: cfg.Auth.BcryptCost}

	auth.RegisterHandlers(e, auth.Handlers{
		Repository:    authRepository,
		Gate:          gate,
		Issuer:        issuer,
		Hasher:        hasher,
		Notifier:      notifier,
		ResetURL:      cfg.Mail.ResetURL,
		ResetLifetime: cfg.Auth.ResetLifetime,
		SecureCookie:  cfg.Auth.SecureCookie,
	})
	users.RegisterHandlers(e, users.NewRepository(storage.Connection), gate, hasher,
		users.Options{ExposePasswordHash: cfg.Policy.ExposePasswordHash})
	posts.RegisterHandlers(e, posts.NewRepository(storage.Connection), gate)
	comments.RegisterHandlers(e, comments.NewRepository(storage.Connection), gate,
		comments.Options{RequireOwnership: cfg.Policy.CommentOwnership})
	likes.RegisterHandlers(e, likes.NewRepository(storage.Connection), gate)
	categories.RegisterHandlers(e, categories.NewRepository(storage.Connection), gate,
		categories.Options{AdminOnly: cfg.Policy.AdminCategories})

	var handler = handlers.RecoveryHandler(
		handlers.RecoveryLogger(logger),
		handlers.PrintRecoveryStack(cfg.Debug),
	)(e.Handler())

	// Apply CORS policy
	return applyCORSHandler(handler, cfg.Web.AllowedOrigins), nil
}
