package cmd

import (
	"context"
	"database/sql"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/cache"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/controller"
	paymentgrpc "github.com/Youndhen-tamang/kundcoffee-sub002/app/grpc"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/notifier"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/provider"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/repository"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/service"
	"github.com/Youndhen-tamang/kundcoffee-sub002/app/types"
	"github.com/Youndhen-tamang/kundcoffee-sub002/config"
	authclient "github.com/vibast-solutions/lib-go-auth/client"
	authmiddleware "github.com/vibast-solutions/lib-go-auth/middleware"
	authlibservice "github.com/vibast-solutions/lib-go-auth/service"

	_ "github.com/go-sql-driver/mysql"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	healthpb "google.golang.org/grpc/health/grpc_health_v1"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP and gRPC servers",
	Long:  "Start both HTTP (Echo) and gRPC servers for the POS payments service.",
	Run:   runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(_ *cobra.Command, _ []string) {
	cfg, paymentService, cleanup := mustCreatePaymentService()
	defer cleanup()

	paymentController := controller.NewPaymentController(paymentService)
	grpcPaymentServer := paymentgrpc.NewServer(paymentService)

	authGRPCClient, err := authclient.NewGRPCClientFromAddr(context.Background(), cfg.InternalEndpoints.AuthGRPCAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to initialize auth gRPC client")
	}
	defer authGRPCClient.Close()

	internalAuthService := authlibservice.NewInternalAuthService(authGRPCClient)
	echoInternalAuthMiddleware := authmiddleware.NewEchoInternalAuthMiddleware(internalAuthService)
	grpcInternalAuthMiddleware := authmiddleware.NewGRPCInternalAuthMiddleware(internalAuthService)

	e := setupHTTPServer(paymentController, echoInternalAuthMiddleware, cfg.App.ServiceName)
	grpcSrv, healthSrv, lis := setupGRPCServer(cfg, grpcPaymentServer, grpcInternalAuthMiddleware, cfg.App.ServiceName)

	go func() {
		httpAddr := net.JoinHostPort(cfg.HTTP.Host, cfg.HTTP.Port)
		logrus.WithField("addr", httpAddr).Info("Starting HTTP server")
		if err := e.Start(httpAddr); err != nil && err != http.ErrServerClosed {
			logrus.WithError(err).Fatal("HTTP server error")
		}
	}()

	go func() {
		logrus.WithField("addr", lis.Addr().String()).Info("Starting gRPC server")
		if err := grpcSrv.Serve(lis); err != nil {
			logrus.WithError(err).Fatal("gRPC server error")
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit
	logrus.Info("Shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	healthSrv.Shutdown()
	if err := e.Shutdown(shutdownCtx); err != nil {
		logrus.WithError(err).Warn("HTTP shutdown error")
	}
	grpcSrv.GracefulStop()

	logrus.Info("Server stopped")
}

func setupHTTPServer(
	paymentController *controller.PaymentController,
	internalAuthMiddleware *authmiddleware.EchoInternalAuthMiddleware,
	appServiceName string,
) *echo.Echo {
	e := echo.New()
	e.HideBanner = true

	e.Use(echomiddleware.RequestLoggerWithConfig(echomiddleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogRemoteIP:  true,
		LogLatency:   true,
		LogUserAgent: true,
		LogError:     true,
		HandleError:  true,
		LogRequestID: true,
		LogValuesFunc: func(_ echo.Context, v echomiddleware.RequestLoggerValues) error {
			fields := logrus.Fields{
				"remote_ip":  v.RemoteIP,
				"host":       v.Host,
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency.String(),
				"latency_ns": v.Latency.Nanoseconds(),
				"user_agent": v.UserAgent,
				"request_id": v.RequestID,
			}
			entry := logrus.WithFields(fields)
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("http_request")
			return nil
		},
	}))
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.CORS())
	e.Use(requireRequestID())
	e.Use(internalAuthMiddleware.RequireInternalAccess(appServiceName))

	registerRoutes(e, paymentController)

	return e
}

func registerRoutes(e *echo.Echo, paymentController *controller.PaymentController) {
	e.GET("/health", paymentController.Health)

	payments := e.Group("/payments", requireStoreID())
	payments.POST("", paymentController.CreatePayment)
	payments.GET("", paymentController.ListPayments)
	payments.POST("/esewa/callback", paymentController.HandleGatewayCallback)
	payments.GET("/:id", paymentController.GetPayment)
	payments.POST("/:id/cancel", paymentController.CancelPayment)
	payments.GET("/:id/status", paymentController.GetPaymentStatus)
	payments.GET("/:id/esewa", paymentController.GetGatewayConfig)
}

func requireRequestID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			requestID := strings.TrimSpace(ctx.Request().Header.Get(echo.HeaderXRequestID))
			if requestID == "" {
				return ctx.JSON(http.StatusBadRequest, &types.ErrorResponse{Error: "x-request-id header is required"})
			}
			ctx.Response().Header().Set(echo.HeaderXRequestID, requestID)
			return next(ctx)
		}
	}
}

// requireStoreID answers 400 before any payment route runs without a tenant.
func requireStoreID() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			if strings.TrimSpace(ctx.Request().Header.Get(types.HeaderStoreID)) == "" {
				return ctx.JSON(http.StatusBadRequest, &types.ErrorResponse{Error: "x-store-id header is required"})
			}
			return next(ctx)
		}
	}
}

func setupGRPCServer(
	cfg *config.Config,
	paymentServer *paymentgrpc.Server,
	internalAuthMiddleware *authmiddleware.GRPCInternalAuthMiddleware,
	appServiceName string,
) (*grpc.Server, *health.Server, net.Listener) {
	grpcAddr := net.JoinHostPort(cfg.GRPC.Host, cfg.GRPC.Port)
	lis, err := net.Listen("tcp", grpcAddr)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to listen on gRPC port")
	}

	grpcSrv := grpc.NewServer(
		grpc.ChainUnaryInterceptor(
			paymentgrpc.RecoveryInterceptor(),
			paymentgrpc.RequestIDInterceptor(),
			paymentgrpc.LoggingInterceptor(),
			internalAuthMiddleware.UnaryRequireInternalAccess(appServiceName),
		),
	)
	types.RegisterPaymentsServiceServer(grpcSrv, paymentServer)

	healthSrv := health.NewServer()
	healthSrv.SetServingStatus(types.PaymentsServiceName, healthpb.HealthCheckResponse_SERVING)
	healthpb.RegisterHealthServer(grpcSrv, healthSrv)

	return grpcSrv, healthSrv, lis
}

func mustCreatePaymentService() (*config.Config, *service.PaymentService, func()) {
	cfg, err := config.Load()
	if err != nil {
		logrus.WithError(err).Fatal("Failed to load configuration")
	}
	if err := configureLogging(cfg); err != nil {
		logrus.WithError(err).Fatal("Failed to configure logging")
	}

	db, err := sql.Open("mysql", cfg.MySQL.DSN)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to connect to database")
	}

	db.SetMaxOpenConns(cfg.MySQL.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MySQL.MaxIdleConns)
	db.SetConnMaxLifetime(cfg.MySQL.ConnMaxLifetime)

	if err := db.Ping(); err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to ping database")
	}
	closers := []func() error{db.Close}

	if cfg.ESewa.UsingTestCredentials {
		logrus.WithField("product_code", cfg.ESewa.ProductCode).Warn("Using eSewa sandbox credentials; set ESEWA_SECRET_KEY for live payments")
	}
	esewaProvider, err := provider.NewESewaProvider(provider.ESewaConfig{
		SecretKey:   cfg.ESewa.SecretKey,
		ProductCode: cfg.ESewa.ProductCode,
		FormURL:     cfg.ESewa.FormURL,
		StatusURL:   cfg.ESewa.StatusURL,
		SuccessURL:  cfg.ESewa.SuccessURL,
		FailureURL:  cfg.ESewa.FailureURL,
		HTTPTimeout: cfg.ESewa.HTTPTimeout,
	})
	if err != nil {
		_ = db.Close()
		logrus.WithError(err).Fatal("Failed to initialize eSewa provider")
	}
	providerRegistry := provider.NewRegistry(esewaProvider)
	logrus.WithField("providers", providerRegistry.Codes()).Debug("Payment providers registered")

	statusNotifier, closeNotifier := mustCreateNotifier(cfg)
	if closeNotifier != nil {
		closers = append(closers, closeNotifier)
	}

	paymentService := service.NewPaymentService(
		repository.NewPaymentRepository(db),
		repository.NewPaymentEventRepository(db),
		repository.NewGatewayCallbackRepository(db),
		repository.NewSessionRepository(db),
		repository.NewSettlementRepository(db),
		providerRegistry,
		statusNotifier,
		cfg.Payments,
	)

	if addr := strings.TrimSpace(cfg.Redis.Addr); addr != "" {
		redisClient := cache.NewRedisClient(addr, cfg.Redis.Password, cfg.Redis.DB)
		pingCtx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
		err := redisClient.Ping(pingCtx).Err()
		cancel()
		if err != nil {
			logrus.WithError(err).WithField("addr", addr).Warn("Redis unavailable, status cache disabled")
			_ = redisClient.Close()
		} else {
			paymentService.WithStatusCache(cache.NewStatusCache(redisClient, cfg.Redis.StatusTTL))
			closers = append(closers, redisClient.Close)
		}
	}

	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			if err := closers[i](); err != nil {
				logrus.WithError(err).Warn("Failed to close resource")
			}
		}
	}

	return cfg, paymentService, cleanup
}

// mustCreateNotifier publishes to Kafka when brokers are configured and falls
// back to HTTP delivery to each payment's status_callback_url.
func mustCreateNotifier(cfg *config.Config) (notifier.Notifier, func() error) {
	if len(cfg.Kafka.Brokers) == 0 {
		return notifier.NewHTTPNotifier(cfg.Payments.NotificationHTTPTimeout, cfg.App.APIKey), nil
	}

	producer, err := notifier.NewKafkaProducer(cfg.Kafka.Brokers)
	if err != nil {
		logrus.WithError(err).Fatal("Failed to create Kafka producer")
	}
	kafkaNotifier := notifier.NewKafkaNotifier(producer, cfg.Kafka.NotificationTopic)
	return kafkaNotifier, kafkaNotifier.Close
}
