// Package server initializes and runs the application server. It wires the
// storage backend, the session manager and the wallet verifier, handles
// graceful shutdown and starts the HTTP API.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/0xkotaromiyabi/decentranews-v2/internal/logging"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/articles"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/config"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/httpapi"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/sessions"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/shared/db"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/siwe"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/uploads"
	"github.com/0xkotaromiyabi/decentranews-v2/internal/server/users"
)

const sessionCleanupInterval = 10 * time.Minute

type App struct {
	config         *config.Config
	logger         logging.Logger
	sessionManager *sessions.Manager
	userService    *users.Service
	articleService *articles.Service
	uploadService  *uploads.Service
}

func NewApp(c *config.Config) (*App, error) {

	slog := slog.New(slog.NewJSONHandler(os.Stdout, nil))
	logger := logging.NewSlogLogger(slog)

	var rm db.RepositoryManager
	if c.DatabaseDSN == "" {
		logger.Warn(context.Background(), "no database DSN configured, using in-memory storage")
		rm = db.NewInMemoryRepositoryManager()
	} else {
		var err error
		rm, err = db.NewPostgresRepositoryManager(c.DatabaseDSN)
		if err != nil {
			return nil, fmt.Errorf("db init error: %w", err)
		}
	}

	us := users.NewService(rm.Users(), c.AdminAddresses)
	as := articles.NewService(rm.Articles(), us, logger, c.FallbackAuthorAddress)
	up := uploads.NewService(c)
	sm := sessions.NewManager(c.SessionTTL, logger)

	return &App{
		config:         c,
		logger:         logger,
		sessionManager: sm,
		userService:    us,
		articleService: as,
		uploadService:  up,
	}, nil
}

func (app *App) initSignalHandler(cancelFunc context.CancelFunc) {
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM, syscall.SIGQUIT)

	go func() {
		<-sigs
		cancelFunc()
	}()
}

func (app *App) startHTTPServer(ctx context.Context, cancelFunc context.CancelFunc) {

	s, err := httpapi.NewServer(app.config, app.logger, app.sessionManager,
		siwe.NewMessageVerifier(), app.userService, app.articleService, app.uploadService)

	if err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
		return
	}

	if err := s.Run(ctx); err != nil {
		app.logger.Error(ctx, err.Error())
		cancelFunc()
	}
}

func (app *App) Run(ctx context.Context) {

	ctx, cancelFunc := context.WithCancel(ctx)

	app.logger.Info(ctx, "Starting app...")

	app.initSignalHandler(cancelFunc)

	var wg sync.WaitGroup

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.sessionManager.RunCleanup(ctx, sessionCleanupInterval)
	}()

	wg.Add(1)
	go func() {
		defer wg.Done()
		app.startHTTPServer(ctx, cancelFunc)
	}()

	wg.Wait()
}
