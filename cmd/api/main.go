package main

import (
	"context"
	"errors"
	"log"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/fekuna/omnipos-erp-service/config"
	"github.com/fekuna/omnipos-erp-service/internal/auth"
	"github.com/fekuna/omnipos-erp-service/internal/cache"
	"github.com/fekuna/omnipos-erp-service/internal/model"
	"github.com/fekuna/omnipos-erp-service/internal/refcode"
	"github.com/fekuna/omnipos-erp-service/pkg/broker"
	pkgcache "github.com/fekuna/omnipos-erp-service/pkg/cache"
	"github.com/fekuna/omnipos-erp-service/pkg/database/postgres"
	"github.com/fekuna/omnipos-erp-service/pkg/i18n"
	"github.com/fekuna/omnipos-erp-service/pkg/lock"
	"github.com/fekuna/omnipos-erp-service/pkg/logger"
	"github.com/fekuna/omnipos-erp-service/pkg/middleware"
	"github.com/fekuna/omnipos-erp-service/pkg/search"

	adminH "github.com/fekuna/omnipos-erp-service/internal/admin/handler"
	adminRepoPkg "github.com/fekuna/omnipos-erp-service/internal/admin/repository"
	adminUCPkg "github.com/fekuna/omnipos-erp-service/internal/admin/usecase"

	"github.com/fekuna/omnipos-erp-service/internal/audit"
	auditH "github.com/fekuna/omnipos-erp-service/internal/audit/handler"
	auditListenerPkg "github.com/fekuna/omnipos-erp-service/internal/audit/listener"
	auditRecorderPkg "github.com/fekuna/omnipos-erp-service/internal/audit/recorder"
	auditRepoPkg "github.com/fekuna/omnipos-erp-service/internal/audit/repository"
	auditUCPkg "github.com/fekuna/omnipos-erp-service/internal/audit/usecase"

	companyH "github.com/fekuna/omnipos-erp-service/internal/company/handler"
	companyRepoPkg "github.com/fekuna/omnipos-erp-service/internal/company/repository"
	companyUCPkg "github.com/fekuna/omnipos-erp-service/internal/company/usecase"

	importH "github.com/fekuna/omnipos-erp-service/internal/importer/handler"
	importUCPkg "github.com/fekuna/omnipos-erp-service/internal/importer/usecase"

	invH "github.com/fekuna/omnipos-erp-service/internal/inventory/handler"
	invRepoPkg "github.com/fekuna/omnipos-erp-service/internal/inventory/repository"
	invUCPkg "github.com/fekuna/omnipos-erp-service/internal/inventory/usecase"

	"github.com/fekuna/omnipos-erp-service/internal/item"
	itemH "github.com/fekuna/omnipos-erp-service/internal/item/handler"
	itemRepoPkg "github.com/fekuna/omnipos-erp-service/internal/item/repository"
	itemUCPkg "github.com/fekuna/omnipos-erp-service/internal/item/usecase"

	orderH "github.com/fekuna/omnipos-erp-service/internal/order/handler"
	orderRepoPkg "github.com/fekuna/omnipos-erp-service/internal/order/repository"
	orderUCPkg "github.com/fekuna/omnipos-erp-service/internal/order/usecase"

	userH "github.com/fekuna/omnipos-erp-service/internal/user/handler"
	userRepoPkg "github.com/fekuna/omnipos-erp-service/internal/user/repository"
	userUCPkg "github.com/fekuna/omnipos-erp-service/internal/user/usecase"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/rs/cors"
	"go.uber.org/zap"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
	"google.golang.org/grpc/reflection"
)

func main() {
	// 1. Load Configuration
	_ = godotenv.Load() // Load .env file if it exists
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}
	i18n.Init()

	// 2. Initialize Logger
	logConfig := &logger.ZapLoggerConfig{
		IsDevelopment:     false,
		Encoding:          cfg.Logger.Encoding,
		Level:             cfg.Logger.Level,
		DisableCaller:     cfg.Logger.DisableCaller,
		DisableStacktrace: cfg.Logger.DisableStacktrace,
	}
	if cfg.IsDevelopment() {
		logConfig.IsDevelopment = true
		logConfig.Encoding = "console"
		logConfig.Level = "debug"
	}

	appLogger := logger.NewZapLogger(logConfig)
	defer appLogger.Sync()

	// 3. Connect to Database
	db, err := postgres.NewPostgres(&postgres.Config{
		Host:            cfg.Postgres.Host,
		Port:            cfg.Postgres.Port,
		User:            cfg.Postgres.User,
		Password:        cfg.Postgres.Password,
		DBName:          cfg.Postgres.DBName,
		SSLMode:         cfg.Postgres.SSLMode,
		MaxOpenConns:    cfg.Postgres.MaxOpenConns,
		MaxIdleConns:    cfg.Postgres.MaxIdleConns,
		ConnMaxLifetime: time.Duration(cfg.Postgres.ConnMaxLifetime) * time.Second,
		ConnMaxIdleTime: time.Duration(cfg.Postgres.ConnMaxIdleTime) * time.Second,
	})
	if err != nil {
		appLogger.Fatal("Could not connect to database", zap.Error(err))
	}
	defer db.Close()
	appLogger.Info("Connected to PostgreSQL database", zap.String("db_name", cfg.Postgres.DBName))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// 4. Redis: cross-instance locks and cache invalidation. Optional.
	var cacheOpts []cache.Option
	var broadcaster *cache.RedisBroadcaster
	locker := lock.NewLocalLocker()
	if cfg.Redis.Enabled {
		redisClient, err := pkgcache.NewRedisClient(&pkgcache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Redis, using process-local locks", zap.Error(err))
		} else {
			defer redisClient.Close()
			appLogger.Info("Connected to Redis", zap.String("addr", cfg.Redis.Addr))
			locker = lock.NewRedisLocker(redisClient, appLogger)
			broadcaster = cache.NewRedisBroadcaster(redisClient, appLogger)
			cacheOpts = append(cacheOpts, cache.WithBroadcaster(broadcaster))
		}
	}

	entityCache := cache.New(cfg.Cache.TTL, appLogger, cacheOpts...)
	if broadcaster != nil {
		go broadcaster.Listen(ctx, entityCache)
	}

	// 5. Elasticsearch for item search. Optional.
	var itemIndex item.SearchIndex
	if cfg.Elastic.Enabled {
		esClient, err := search.NewClient(&search.Config{
			Addresses: cfg.Elastic.Addresses,
			Username:  cfg.Elastic.Username,
			Password:  cfg.Elastic.Password,
		})
		if err != nil {
			appLogger.Warn("Could not connect to Elasticsearch (search falls back to the database)", zap.Error(err))
		} else {
			itemIndex = esClient
			appLogger.Info("Connected to Elasticsearch", zap.Strings("addresses", cfg.Elastic.Addresses))
		}
	}

	// 6. Audit: direct insert, or through Kafka with a listener persisting.
	auditRepo := auditRepoPkg.NewPGRepository(db)
	var recorder audit.Recorder
	if cfg.Kafka.Enabled {
		kafkaCfg := &broker.Config{Brokers: cfg.Kafka.Brokers, Topic: cfg.Kafka.AuditTopic, GroupID: cfg.Kafka.GroupID}
		producer := broker.NewProducer(kafkaCfg)
		defer producer.Close()
		consumer := broker.NewConsumer(kafkaCfg)
		defer consumer.Close()

		kafkaRecorder := auditRecorderPkg.NewKafkaRecorder(producer, appLogger)
		defer kafkaRecorder.Wait()
		recorder = kafkaRecorder

		go auditListenerPkg.NewAuditListener(consumer, auditRepo, entityCache, appLogger).Start(ctx)
		appLogger.Info("Audit events go through Kafka", zap.Strings("brokers", cfg.Kafka.Brokers), zap.String("topic", cfg.Kafka.AuditTopic))
	} else {
		dbRecorder := auditRecorderPkg.NewDBRecorder(auditRepo, entityCache, appLogger)
		defer dbRecorder.Wait()
		recorder = dbRecorder
	}

	// 7. Initialize Repositories
	itemRepo := itemRepoPkg.NewPGRepository(db)
	companyRepo := companyRepoPkg.NewPGRepository(db, model.CompanyKindCustomer)
	transportRepo := companyRepoPkg.NewPGRepository(db, model.CompanyKindTransport)
	orderRepo := orderRepoPkg.NewPGRepository(db)
	invRepo := invRepoPkg.NewPGRepository(db)
	userRepo := userRepoPkg.NewPGRepository(db)
	adminRepo := adminRepoPkg.NewPGRepository(db)

	// 8. Initialize UseCases
	auditUC := auditUCPkg.NewAuditUseCase(auditRepo, entityCache, appLogger)
	itemUC := itemUCPkg.NewItemUseCase(itemRepo, entityCache, itemIndex, recorder, appLogger)
	companyUC := companyUCPkg.NewCompanyUseCase(model.CompanyKindCustomer, companyRepo, entityCache, recorder, appLogger)
	transportUC := companyUCPkg.NewCompanyUseCase(model.CompanyKindTransport, transportRepo, entityCache, recorder, appLogger)
	orderUC := orderUCPkg.NewOrderUseCase(orderRepo, locker, entityCache, recorder, cfg.Server.DeliveryTimeout, appLogger)
	invUC := invUCPkg.NewInventoryUseCase(invRepo, locker, entityCache, recorder, appLogger)
	userUC := userUCPkg.NewUserUseCase(userRepo, auditUC, entityCache, recorder, appLogger)
	adminUC := adminUCPkg.NewAdminUseCase(adminRepo, entityCache, recorder, appLogger)
	importUC := importUCPkg.NewImportUseCase(itemUC, companyUC, transportUC, orderUC, appLogger)

	// 9. HTTP routes
	if !cfg.IsDevelopment() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger(appLogger),
		middleware.Recovery(appLogger),
		middleware.Timeout(cfg.Server.RequestTimeout),
	)

	router.GET("/health", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	verifier := auth.NewTokenVerifier(cfg.JWT.SecretKey)
	api := router.Group("/api")

	userHandler := userH.NewUserHandler(userUC, appLogger)
	userHandler.RegisterPublic(api)

	protected := api.Group("", auth.Middleware(verifier))
	itemH.NewItemHandler(itemUC, appLogger).Register(protected)
	companyH.NewCompanyHandler(companyUC, appLogger).Register(protected, "/companies")
	companyH.NewCompanyHandler(transportUC, appLogger).Register(protected, "/transport-companies")
	orderH.NewOrderHandler(orderUC, appLogger).Register(protected)
	invH.NewInventoryHandler(invUC, appLogger).Register(protected)
	auditH.NewAuditHandler(auditUC, appLogger).Register(protected)
	importH.NewImportHandler(importUC, cfg.Import.MaxUploadBytes, appLogger).Register(protected)
	refcode.NewHandler(refcode.NewGenerator(db)).Register(protected)

	adminOnly := protected.Group("", auth.RequireAdmin())
	userHandler.RegisterAdmin(adminOnly)
	adminH.NewAdminHandler(adminUC, appLogger).Register(adminOnly)

	corsHandler := cors.New(cors.Options{
		AllowedOrigins:   cfg.Server.AllowedOrigins,
		AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowedHeaders:   []string{"Authorization", "Content-Type", "Accept-Language", "X-Request-ID"},
		AllowCredentials: true,
	})
	httpServer := &http.Server{
		Addr:              cfg.Server.HTTPPort,
		Handler:           corsHandler.Handler(router),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.Info("Starting HTTP server", zap.String("port", cfg.Server.HTTPPort))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.Fatal("failed to serve http", zap.Error(err))
		}
	}()

	// 10. gRPC: health and reflection for probes
	lis, err := net.Listen("tcp", cfg.Server.GRPCPort)
	if err != nil {
		appLogger.Fatal("failed to listen", zap.Error(err))
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	healthServer.SetServingStatus("", healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcServer, healthServer)
	reflection.Register(grpcServer)

	go func() {
		appLogger.Info("Starting gRPC server", zap.String("port", cfg.Server.GRPCPort))
		if err := grpcServer.Serve(lis); err != nil {
			appLogger.Fatal("failed to serve grpc", zap.Error(err))
		}
	}()

	// Graceful Shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")
	healthServer.Shutdown()

	shutdownCtx, stop := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer stop()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		appLogger.Error("http shutdown", zap.Error(err))
	}
	grpcServer.GracefulStop()
	cancel()
	appLogger.Info("Server stopped")
}
