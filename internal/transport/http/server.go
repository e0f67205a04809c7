package http

import (
	"context"
	"errors"
	"fmt"
	stdhttp "net/http"
	"time"

	"go.uber.org/zap"

	"socialnet/internal/config"
	"socialnet/internal/database"
	"socialnet/internal/handler"
	"socialnet/internal/redis"
	"socialnet/internal/repository"
	"socialnet/internal/service"
	"socialnet/internal/worker"
)

const shutdownTimeout = 15 * time.Second

// Run wires the application and serves until ctx is cancelled, then drains in-flight requests.
func Run(ctx context.Context, cfg *config.Config, log *zap.Logger) error {
	// 1. Connect to Database
	db, err := database.Connect(cfg, log)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := database.Migrate(ctx, db, log); err != nil {
		return err
	}

	// 2. Optional Redis-backed token denylist
	var denylist service.TokenDenylist
	if cfg.RedisURL != "" {
		rc, err := redis.NewClient(cfg.RedisURL)
		if err != nil {
			return err
		}
		defer rc.Close()
		if err := rc.Ping(ctx); err != nil {
			return err
		}
		denylist = redis.NewTokenDenylist(rc.Client)
		log.Info("token denylist enabled")
	} else {
		log.Warn("REDIS_URL not set; logout only clears the session cookie")
	}

	// 3. Media storage and the cleanup pool behind it
	media, err := service.NewMediaService(ctx, cfg, log.Named("media_service"))
	if err != nil {
		return err
	}
	defer media.Close()

	cleanup := worker.NewManager(
		worker.NewHandler(media, worker.DefaultKeyTimeout, log.Named("cleanup")),
		worker.ManagerConfig{WorkerCount: cfg.CleanupWorkers, QueueSize: cfg.CleanupQueueLen},
		log.Named("cleanup"),
	)
	cleanup.Start()
	defer cleanup.Stop()

	// 4. Repositories and services
	userRepo := repository.NewUserRepository(db)
	graphRepo := repository.NewGraphRepository(db)
	postRepo := repository.NewPostRepository(db)
	commentRepo := repository.NewCommentRepository(db)

	authService := service.NewAuthService(cfg, denylist, log.Named("auth_service"))
	userService := service.NewUserService(userRepo, graphRepo, media, cleanup, cfg.DefaultProfileImageURL, log.Named("user_service"))
	graphService := service.NewGraphService(userRepo, graphRepo, cfg.UnblockPolicy, log.Named("graph_service"))
	postService := service.NewPostService(postRepo, commentRepo, media, cleanup, log.Named("post_service"))
	commentService := service.NewCommentService(commentRepo, log.Named("comment_service"))

	// 5. Handlers and routes
	secure := cfg.IsProduction()
	router := NewRouter(RouterConfig{
		AuthHandler:    handler.NewAuthHandler(userService, authService, secure, log.Named("auth_handler")),
		UserHandler:    handler.NewUserHandler(userService, graphService, secure, log.Named("user_handler")),
		PostHandler:    handler.NewPostHandler(postService, log.Named("post_handler")),
		CommentHandler: handler.NewCommentHandler(commentService, log.Named("comment_handler")),
		Tokens:         authService,
		Users:          userService,
		DB:             db,
		Logger:         log.Named("http"),
	})

	srv := &stdhttp.Server{
		Addr:              ":" + cfg.ServerPort,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Info("starting server", zap.String("addr", srv.Addr), zap.String("env", cfg.Env))
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, stdhttp.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server failed: %w", err)
	case <-ctx.Done():
	}

	log.Info("shutting down server")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("graceful shutdown: %w", err)
	}
	log.Info("server stopped")
	return nil
}
