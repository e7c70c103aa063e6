package main

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	redisClient "github.com/go-redis/redis/v8"
	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echoMiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/shopspring/decimal"

	"yoursell/internal/api/handlers"
	"yoursell/internal/api/middleware"
	"yoursell/internal/config"
	"yoursell/internal/infrastructure/leader"
	"yoursell/internal/infrastructure/mysql"
	"yoursell/internal/infrastructure/redis"
	"yoursell/internal/infrastructure/websocket"
	"yoursell/internal/services"
	"yoursell/pkg/keymutex"
	"yoursell/pkg/logger"
)

func main() {
	log := logger.New()
	log.Info("Starting marketplace service")

	cfg, err := config.Load()
	if err != nil {
		log.Error("Failed to load config", "error", err)
		os.Exit(1)
	}

	// Initialize Redis
	rdb := redisClient.NewClient(&redisClient.Options{
		Addr:     cfg.Redis.Address,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		log.Error("Failed to connect to Redis", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to Redis", "address", cfg.Redis.Address)

	// Initialize MySQL
	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		log.Error("Failed to open MySQL connection", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.PingContext(ctx); err != nil {
		log.Error("Failed to ping MySQL", "error", err)
		os.Exit(1)
	}
	log.Info("Connected to MySQL")

	// Repositories
	auctionRepo := mysql.NewMySQLAuctionRepository(db)
	bidRepo := mysql.NewMySQLBidRepository(db)
	vehicleRepo := mysql.NewMySQLVehicleRepository(db)
	txManager := mysql.NewTxManager(db)

	// Event bus and leader election
	eventPublisher := redis.NewEventPublisher(rdb)
	eventSubscriber := redis.NewEventSubscriber(rdb, log)
	leaderElection := leader.NewRedisLeaderElection(rdb, cfg.Leader.TTL)

	// The keyed mutex shared by every writer of auction state. Bid
	// admission, the sweeper and lifecycle changes all serialize on it.
	locks := keymutex.New()

	policy, err := bidPolicy(cfg.Bidding)
	if err != nil {
		log.Error("Invalid bidding config", "error", err)
		os.Exit(1)
	}

	vehicleService := services.NewVehicleService(vehicleRepo, log)
	validator := services.NewBidValidator(policy)
	extender := services.NewAntiSnipeExtender(auctionRepo, log)
	auctionService := services.NewAuctionService(
		auctionRepo, bidRepo, vehicleService, eventPublisher, locks,
		services.AutoExtendPolicy{
			Enabled:         cfg.AutoExtend.Enabled,
			ThresholdMillis: cfg.AutoExtend.Threshold.Milliseconds(),
			DurationMillis:  cfg.AutoExtend.Duration.Milliseconds(),
		},
		log,
	)
	bidService := services.NewBidService(
		auctionRepo, bidRepo, txManager, validator, extender, eventPublisher, locks, log)
	sweeper := services.NewExpirationSweeper(
		auctionRepo, bidRepo, vehicleService, eventPublisher, leaderElection,
		locks, cfg.Instance.ID, cfg.Sweeper.Interval, log)

	// Websocket fanout of auction events
	connManager := websocket.NewConnectionManager(log)
	wsHandler := websocket.NewHandler(bidService, auctionRepo, connManager, log)
	fanout := websocket.NewFanout(connManager, log)

	subscriberCtx, stopSubscriber := context.WithCancel(context.Background())
	defer stopSubscriber()
	go func() {
		if err := eventSubscriber.SubscribeToAuctionEvents(subscriberCtx, fanout.Handle); err != nil &&
			!errors.Is(err, context.Canceled) {
			log.Error("Event subscriber stopped", "error", err)
		}
	}()

	// Initialize Echo
	e := echo.New()
	e.HideBanner = true

	e.Use(echoMiddleware.RequestID())
	e.Use(echoMiddleware.Recover())
	e.Use(echoMiddleware.CORS())

	auctionHandler := handlers.NewAuctionHandler(auctionService, log)
	bidHandler := handlers.NewBidHandler(bidService, log)
	vehicleHandler := handlers.NewVehicleHandler(vehicleService, log)
	websocketHandler := handlers.NewWebSocketHandler(wsHandler)

	api := e.Group("/api/v1")

	api.GET("/auctions", auctionHandler.ListAuctions)
	api.GET("/auctions/:id", auctionHandler.GetAuction)
	api.GET("/auctions/:id/bids", bidHandler.ListBidsByAuction)
	api.GET("/bids/:id", bidHandler.GetBid)
	api.GET("/vehicles", vehicleHandler.ListVehicles)
	api.GET("/vehicles/:id", vehicleHandler.GetVehicle)
	api.GET("/auctions/:id/live", websocketHandler.HandleConnection)

	authed := api.Group("", middleware.RequireIdentity)
	authed.POST("/auctions", auctionHandler.CreateAuction)
	authed.POST("/auctions/:id/start", auctionHandler.StartAuction)
	authed.POST("/auctions/:id/pause", auctionHandler.PauseAuction)
	authed.POST("/auctions/:id/resume", auctionHandler.ResumeAuction)
	authed.POST("/auctions/:id/cancel", auctionHandler.CancelAuction)
	authed.POST("/auctions/:id/restart", auctionHandler.RestartAuction)
	authed.POST("/auctions/:id/extend", auctionHandler.ExtendAuction)
	authed.DELETE("/auctions/:id", auctionHandler.DeleteAuction)
	authed.POST("/auctions/:id/bids", bidHandler.PlaceBid)
	authed.POST("/vehicles", vehicleHandler.RegisterVehicle)
	authed.DELETE("/vehicles/:id", vehicleHandler.DeleteVehicle)

	e.GET("/health", func(c echo.Context) error {
		return c.JSON(http.StatusOK, map[string]interface{}{
			"status":    "ok",
			"service":   "marketplace",
			"timestamp": time.Now().Format(time.RFC3339),
		})
	})

	// Start the sweeper
	if err := sweeper.Start(context.Background()); err != nil {
		log.Error("Failed to start sweeper", "error", err)
		os.Exit(1)
	}

	// Keep trying to become the sweeping leader
	go func() {
		for {
			became, err := leaderElection.BecomeLeader(context.Background(), cfg.Instance.ID)
			if err != nil {
				log.Error("Failed to attempt leadership", "error", err)
				time.Sleep(5 * time.Second)
				continue
			}
			if became {
				log.Info("Became sweeper leader", "instance_id", cfg.Instance.ID)
			}
			time.Sleep(10 * time.Second)
		}
	}()

	serverAddr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("Starting marketplace server", "address", serverAddr)

	go func() {
		if err := e.Start(serverAddr); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("Server failed to start", "error", err)
			os.Exit(1)
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down marketplace service...")

	ctx, cancel = context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if err := sweeper.Stop(); err != nil {
		log.Error("Failed to stop sweeper", "error", err)
	}
	stopSubscriber()
	if err := leaderElection.ReleaseLeadership(ctx, cfg.Instance.ID); err != nil {
		log.Error("Failed to release leadership", "error", err)
	}
	if err := e.Shutdown(ctx); err != nil {
		log.Error("Server forced to shutdown", "error", err)
	}

	log.Info("Marketplace service stopped")
}

func bidPolicy(cfg config.BiddingConfig) (services.BidPolicy, error) {
	minIncrement, err := decimal.NewFromString(cfg.MinIncrement)
	if err != nil {
		return services.BidPolicy{}, fmt.Errorf("invalid bidding.min_increment: %w", err)
	}
	maxIncrement, err := decimal.NewFromString(cfg.MaxIncrement)
	if err != nil {
		return services.BidPolicy{}, fmt.Errorf("invalid bidding.max_increment: %w", err)
	}
	return services.BidPolicy{
		MinIncrement: minIncrement,
		MaxIncrement: maxIncrement,
		AllowRebid:   cfg.AllowRebid,
	}, nil
}
