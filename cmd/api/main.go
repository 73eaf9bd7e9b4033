package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/marketloop/marketloop-backend/api/routes"
	authsvc "github.com/marketloop/marketloop-backend/internal/auth"
	cartsvc "github.com/marketloop/marketloop-backend/internal/cart"
	checkoutsvc "github.com/marketloop/marketloop-backend/internal/checkout"
	mediasvc "github.com/marketloop/marketloop-backend/internal/media"
	ordersvc "github.com/marketloop/marketloop-backend/internal/orders"
	productsvc "github.com/marketloop/marketloop-backend/internal/products"
	shopsvc "github.com/marketloop/marketloop-backend/internal/shops"
	usersvc "github.com/marketloop/marketloop-backend/internal/users"
	"github.com/marketloop/marketloop-backend/pkg/config"
	"github.com/marketloop/marketloop-backend/pkg/db"
	"github.com/marketloop/marketloop-backend/pkg/logger"
	"github.com/marketloop/marketloop-backend/pkg/metrics"
	"github.com/marketloop/marketloop-backend/pkg/migrate"
	"github.com/marketloop/marketloop-backend/pkg/redis"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func run() error {
	_ = godotenv.Load()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}

	logg := logger.New(logger.Options{
		ServiceName: "marketloop-api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	dbClient, err := db.New(ctx, cfg.DB, logg)
	if err != nil {
		return fmt.Errorf("connecting to database: %w", err)
	}
	defer dbClient.Close()

	if err := migrate.MaybeRunDev(ctx, cfg, logg, dbClient); err != nil {
		return fmt.Errorf("running migrations: %w", err)
	}

	redisClient, err := redis.New(ctx, cfg.Redis)
	if err != nil {
		return fmt.Errorf("connecting to redis: %w", err)
	}
	defer redisClient.Close()

	svcs, err := buildServices(cfg, logg, dbClient)
	if err != nil {
		return err
	}

	httpMetrics := metrics.NewHTTPMetrics()
	handler := routes.NewRouter(cfg, logg, dbClient, redisClient, httpMetrics, svcs)

	server := &http.Server{
		Addr:              ":" + cfg.App.Port,
		Handler:           handler,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logg.Info(logg.WithField(ctx, "port", cfg.App.Port), "server.listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	logg.Info(shutdownCtx, "server.shutting_down")
	if err := server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down: %w", err)
	}
	return nil
}

func buildServices(cfg *config.Config, logg *logger.Logger, dbClient *db.Client) (routes.Services, error) {
	conn := dbClient.DB()

	userRepo := usersvc.NewRepository(conn)
	productRepo := productsvc.NewRepository(conn)
	shopRepo := shopsvc.NewRepository(conn)
	cartRepo := cartsvc.NewRepository(conn)
	orderRepo := ordersvc.NewRepository(conn)

	authService, err := authsvc.NewService(userRepo, cfg.JWT, cfg.Password)
	if err != nil {
		return routes.Services{}, fmt.Errorf("building auth service: %w", err)
	}
	userService, err := usersvc.NewService(userRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("building user service: %w", err)
	}
	productService, err := productsvc.NewService(productRepo, dbClient)
	if err != nil {
		return routes.Services{}, fmt.Errorf("building product service: %w", err)
	}
	shopService, err := shopsvc.NewService(shopRepo, productRepo, dbClient)
	if err != nil {
		return routes.Services{}, fmt.Errorf("building shop service: %w", err)
	}
	cartService, err := cartsvc.NewService(cartRepo, productRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("building cart service: %w", err)
	}
	orderService, err := ordersvc.NewService(orderRepo, productRepo)
	if err != nil {
		return routes.Services{}, fmt.Errorf("building order service: %w", err)
	}
	checkoutService, err := checkoutsvc.NewService(productRepo, orderRepo, orderService, dbClient, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("building checkout service: %w", err)
	}
	mediaService, err := mediasvc.NewService(cfg.Media, logg)
	if err != nil {
		return routes.Services{}, fmt.Errorf("building media service: %w", err)
	}

	return routes.Services{
		Auth:     authService,
		Users:    userService,
		Products: productService,
		Shops:    shopService,
		Cart:     cartService,
		Checkout: checkoutService,
		Orders:   orderService,
		Media:    mediaService,
	}, nil
}
