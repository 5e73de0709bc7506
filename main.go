package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	appParcel "github.com/zapshift/zapshift-backend/internal/application/parcel"
	appPayment "github.com/zapshift/zapshift-backend/internal/application/payment"
	appUser "github.com/zapshift/zapshift-backend/internal/application/user"
	"github.com/zapshift/zapshift-backend/internal/infrastructure/auth"
	"github.com/zapshift/zapshift-backend/internal/infrastructure/eventbus"
	"github.com/zapshift/zapshift-backend/internal/infrastructure/mongodb"
	"github.com/zapshift/zapshift-backend/internal/infrastructure/notification"
	"github.com/zapshift/zapshift-backend/internal/infrastructure/observability/oteltrace"
	"github.com/zapshift/zapshift-backend/internal/infrastructure/observability/prometrics"
	"github.com/zapshift/zapshift-backend/internal/infrastructure/observability/telemetry"
	"github.com/zapshift/zapshift-backend/internal/infrastructure/observability/zaplogger"
	"github.com/zapshift/zapshift-backend/internal/infrastructure/stripegw"
	"github.com/zapshift/zapshift-backend/internal/infrastructure/tracking"
	"github.com/zapshift/zapshift-backend/internal/pkg/logging"
	httppresentation "github.com/zapshift/zapshift-backend/internal/presentation/http"
)

type Config struct {
	HTTPPort        string
	MongoURI        string
	MongoDatabase   string
	StripeAPIKey    string
	JWTSecret       string
	TokenLifespan   time.Duration
	Currency        string
	SuccessURL      string
	CancelURL       string
	ShutdownTimeout time.Duration
}

func loadConfig() *Config {
	return &Config{
		HTTPPort:      getenvDefault("HTTP_PORT", "9000"),
		MongoURI:      getenvDefault("MONGO_URI", "mongodb://localhost:27017"),
		MongoDatabase: getenvDefault("MONGO_DB", "zap_shift_db"),
		StripeAPIKey:  os.Getenv("STRIPE_API_KEY"),
		JWTSecret:     getenvDefault("JWT_SECRET", "zap-shift-dev-secret"),
		TokenLifespan: 24 * time.Hour,
		Currency:      getenvDefault("CURRENCY", "usd"),
		SuccessURL: getenvDefault("CHECKOUT_SUCCESS_URL",
			"http://localhost:5173/payment-success?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:       getenvDefault("CHECKOUT_CANCEL_URL", "http://localhost:5173/payment-cancelled"),
		ShutdownTimeout: 10 * time.Second,
	}
}

func main() {
	cfg := loadConfig()

	serviceName := getenvDefault("SERVICE_NAME", "zapshift")
	env := getenvDefault("ENV", "dev")
	baseLogger := logging.MustNewLogger(serviceName, env)
	defer func() { _ = baseLogger.Sync() }()
	zap.ReplaceGlobals(baseLogger)

	systemLogger := logging.WithTrace(baseLogger, logging.SystemTraceID, logging.SystemSpanID)

	tel := telemetry.New(
		oteltrace.New(serviceName),
		zaplogger.Wrap(baseLogger),
		prometrics.New(serviceName, prometheus.DefaultRegisterer),
	)

	// One store connection for the whole process, torn down on shutdown.
	connectCtx, cancelConnect := context.WithTimeout(context.Background(), 15*time.Second)
	db, err := mongodb.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
	cancelConnect()
	if err != nil {
		systemLogger.Fatal("mongo_connect_failed", zap.Error(err))
	}
	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := mongodb.Disconnect(ctx, db); err != nil {
			systemLogger.Error("mongo_disconnect_failed", zap.Error(err))
		}
	}()

	indexCtx, cancelIndex := context.WithTimeout(context.Background(), 15*time.Second)
	err = mongodb.EnsureIndexes(indexCtx, db)
	cancelIndex()
	if err != nil {
		systemLogger.Fatal("mongo_index_failed", zap.Error(err))
	}

	parcelRepo := mongodb.NewParcelRepository(db)
	paymentRepo := mongodb.NewPaymentRepository(db)
	userRepo := mongodb.NewUserRepository(db)

	gateway := stripegw.New(cfg.StripeAPIKey, tel.Logger())
	verifier := auth.NewVerifier(cfg.JWTSecret, cfg.TokenLifespan)
	trackingGen := tracking.NewGenerator()

	bus := eventbus.NewBus(tel.Logger())
	bus.Start(context.Background())
	defer bus.Stop(context.Background())

	receiptWorker := notification.New(bus, tel)
	receiptWorker.Start()

	parcelService := appParcel.NewService(parcelRepo)
	userService := appUser.NewService(userRepo)
	paymentService := appPayment.NewService(paymentRepo)
	createCheckout := appPayment.NewCreateCheckoutUseCase(gateway, cfg.Currency, cfg.SuccessURL, cfg.CancelURL, tel)
	confirmPayment := appPayment.NewConfirmPaymentUseCase(gateway, paymentRepo, parcelRepo, trackingGen, bus, tel)

	handler := httppresentation.NewHandler(
		parcelService,
		userService,
		paymentService,
		createCheckout,
		confirmPayment,
		verifier,
		verifier,
		tel,
	)

	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	mux.Handle("/", handler.Router())

	server := &http.Server{
		Addr:         ":" + cfg.HTTPPort,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	go func() {
		systemLogger.Info("http_server_start",
			zap.String("addr", server.Addr),
		)
		err := server.ListenAndServe()
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			systemLogger.Error("http_server_error",
				zap.Error(err),
			)
		}
	}()

	<-ctx.Done()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		systemLogger.Error("http_server_shutdown_error",
			zap.Error(err),
		)
	} else {
		systemLogger.Info("http_server_stopped")
	}
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
