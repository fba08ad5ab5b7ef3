package main

import (
	"context"
	"errors"
	"os"
	"os/signal"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/ssewanyana/hotspotbill-backend/internal/cron"
	"github.com/ssewanyana/hotspotbill-backend/internal/notify"
	"github.com/ssewanyana/hotspotbill-backend/internal/packages"
	"github.com/ssewanyana/hotspotbill-backend/internal/payments"
	"github.com/ssewanyana/hotspotbill-backend/internal/smscredit"
	"github.com/ssewanyana/hotspotbill-backend/internal/tenants"
	"github.com/ssewanyana/hotspotbill-backend/internal/vouchers"
	"github.com/ssewanyana/hotspotbill-backend/internal/withdrawals"
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

func main() {
	logg := logger.New(logger.Options{ServiceName: "cron-worker"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "cron-worker",
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

	gdb := dbClient.DB()
	gatewayClient := gateway.New(cfg.Gateway)
	tenantRepo := tenants.NewRepository(gdb)
	packageRepo := packages.NewRepository(gdb)

	notifyService, err := notify.NewService(notify.ServiceParams{
		SMS:    sms.New(cfg.SMS),
		Mail:   mail.New(cfg.Mail),
		Logger: logg,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create notify service", err)
		os.Exit(1)
	}

	creditService, err := smscredit.NewService(smscredit.ServiceParams{
		Repo:    smscredit.NewRepository(gdb),
		Tenants: tenantRepo,
		Gateway: gatewayClient,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create sms credit service", err)
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

	sweepJob, err := cron.NewPendingSweepJob(cron.PendingSweepJobParams{
		Logger:   logg,
		Payments: paymentService,
		Age:      cfg.Cron.PendingSweepAge,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create pending sweep job", err)
		os.Exit(1)
	}
	otpJob, err := cron.NewOTPCleanupJob(cron.OTPCleanupJobParams{
		Logger:      logg,
		Withdrawals: withdrawalService,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create otp cleanup job", err)
		os.Exit(1)
	}
	expiryJob, err := cron.NewSubscriptionExpiryJob(cron.SubscriptionExpiryJobParams{
		Logger:  logg,
		Tenants: tenantRepo,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create subscription expiry job", err)
		os.Exit(1)
	}

	lock, err := cron.NewRedisLock(redisClient, redisClient.LockKey("cron-worker"), cfg.Cron.LockTTL)
	if err != nil {
		logg.Error(context.Background(), "failed to create cron lock", err)
		os.Exit(1)
	}

	service, err := cron.NewService(cron.ServiceParams{
		Logger:   logg,
		Registry: cron.NewRegistry(sweepJob, otpJob, expiryJob),
		Lock:     lock,
		Metrics:  metrics.NewCronJobMetrics(prometheus.DefaultRegisterer),
		Interval: cfg.Cron.Interval,
	})
	if err != nil {
		logg.Error(context.Background(), "failed to create cron service", err)
		os.Exit(1)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()
	ctx = logg.WithField(ctx, "env", cfg.App.Env)
	logg.Info(ctx, "starting cron worker")

	if err := service.Run(ctx); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error(ctx, "cron worker stopped unexpectedly", err)
		os.Exit(1)
	}

	logg.Info(ctx, "cron worker shutting down gracefully")
}
