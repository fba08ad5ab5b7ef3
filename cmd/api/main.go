package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"time"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ssewanyana/hotspotbill-backend/api/routes"
	"github.com/ssewanyana/hotspotbill-backend/internal/categories"
	"github.com/ssewanyana/hotspotbill-backend/internal/notify"
	"github.com/ssewanyana/hotspotbill-backend/internal/packages"
	"github.com/ssewanyana/hotspotbill-backend/internal/payments"
	"github.com/ssewanyana/hotspotbill-backend/internal/portal"
	"github.com/ssewanyana/hotspotbill-backend/internal/smscredit"
	"github.com/ssewanyana/hotspotbill-backend/internal/stats"
	"github.com/ssewanyana/hotspotbill-backend/internal/tenants"
	"github.com/ssewanyana/hotspotbill-backend/internal/vouchers"
	"github.com/ssewanyana/hotspotbill-backend/internal/withdrawals"
	"github.com/ssewanyana/hotspotbill-backend/pkg/auth/session"
	"github.com/ssewanyana/hotspotbill-backend/pkg/config"
	"github.com/ssewanyana/hotspotbill-backend/pkg/db"
	"github.com/ssewanyana/hotspotbill-backend/pkg/gateway"
	"github.com/ssewanyana/hotspotbill-backend/pkg/logger"
	"github.com/ssewanyana/hotspotbill-backend/pkg/mail"
	"github.com/ssewanyana/hotspotbill-backend/pkg/metrics"
	"github.com/ssewanyana/hotspotbill-backend/pkg/migrate"
	"github.com/ssewanyana/hotspotbill-backend/pkg/redis"
	"github.com/ssewanyana/hotspotbill-backend/pkg/sms"
)

const shutdownGrace = 15 * time.Second

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	sessionManager, err := session.NewManager(redisClient, cfg.JWT)
	if err != nil {
		logg.Error(context.Background(), "failed to create session manager", err)
		os.Exit(1)
	}

	gatewayClient := gateway.New(cfg.Gateway)
	notifyService, err := notify.NewService(notify.ServiceParams{
		SMS:    sms.New(cfg.SMS),
		Mail:   mail.New(cfg.Mail),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notify service", err)
		os.Exit(1)
	}

	gdb := dbClient.DB()
	tenantRepo := tenants.NewRepository(gdb)
	packageRepo := packages.NewRepository(gdb)
	categoryRepo := categories.NewRepository(gdb)
	creditRepo := smscredit.NewRepository(gdb)

	creditService, err := smscredit.NewService(smscredit.ServiceParams{
		Repo:    creditRepo,
		Tenants: tenantRepo,
		Gateway: gatewayClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sms credit service", err)
		os.Exit(1)
	}

	tenantService, err := tenants.NewService(tenants.ServiceParams{
		Repo:     tenantRepo,
		Sessions: sessionManager,
		Ledger:   creditRepo,
		Mail:     mail.New(cfg.Mail),
		JWT:      cfg.JWT,
		Password: cfg.Password,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create tenant service", err)
		os.Exit(1)
	}

	packageService, err := packages.NewService(packages.ServiceParams{
		Repo:       packageRepo,
		Categories: categoryRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create package service", err)
		os.Exit(1)
	}

	categoryService, err := categories.NewService(categories.ServiceParams{Repo: categoryRepo})
	if err != nil {
		logg.Error(context.Background(), "failed to create category service", err)
		os.Exit(1)
	}

	voucherService, err := vouchers.NewService(vouchers.ServiceParams{
		Repo:     vouchers.NewRepository(gdb),
		Packages: packageRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create voucher service", err)
		os.Exit(1)
	}

	paymentService, err := payments.NewService(payments.ServiceParams{
		DB:       dbClient,
		Repo:     payments.NewRepository(gdb),
		Packages: packageRepo,
		Tenants:  tenantRepo,
		Vouchers: voucherService,
		Credits:  creditService,
		Gateway:  gatewayClient,
		Notify:   notifyService,
		Metrics:  metrics.NewPaymentMetrics(prometheus.DefaultRegisterer),
		Billing:  cfg.Billing,
		Logger:   logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create payment service", err)
		os.Exit(1)
	}

	withdrawalService, err := withdrawals.NewService(withdrawals.ServiceParams{
		DB:      dbClient,
		Repo:    withdrawals.NewRepository(gdb),
		Tenants: tenantRepo,
		Gateway: gatewayClient,
		Notify:  notifyService,
		Billing: cfg.Billing,
		Logger:  logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create withdrawal service", err)
		os.Exit(1)
	}

	portalService, err := portal.NewService(portal.ServiceParams{
		Store:  redisClient,
		Portal: cfg.Portal,
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create portal service", err)
		os.Exit(1)
	}

	statsService, err := stats.NewService(stats.ServiceParams{
		Repo:    stats.NewRepository(gdb),
		Stock:   voucherService,
		Credits: creditService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create stats service", err)
		os.Exit(1)
	}

	router := routes.NewRouter(routes.Deps{
		Config:      cfg,
		Logger:      logg,
		DB:          dbClient,
		Redis:       redisClient,
		Sessions:    sessionManager,
		Tenants:     tenantService,
		Payments:    paymentService,
		Packages:    packageService,
		Categories:  categoryService,
		Vouchers:    voucherService,
		Credit:      creditService,
		Withdrawals: withdrawalService,
		Portal:      portalService,
		Stats:       statsService,
	})

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithFields(ctx, map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr:    addr,
		Handler: router,
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownGrace)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "api server shutdown failed", err)
			os.Exit(1)
		}
		logg.Info(ctx, "api server shut down gracefully")
	}
}
