package cmd

import (
	"context"
	"os/signal"
	"syscall"
	"time"

	"github.com/Youndhen-tamang/kundcoffee-sub002/app/service"
	"github.com/Youndhen-tamang/kundcoffee-sub002/config"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

var (
	workerMode bool
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Ask eSewa about stale pending payments and settle completed ones",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"reconcile",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ReconcileInterval },
			func(s *service.PaymentService, ctx context.Context) error {
				return s.RunReconcileBatch(ctx)
			},
		)
	},
}

var notificationsCmd = &cobra.Command{
	Use:   "notifications",
	Short: "Run payment status notification commands",
}

var notificationsDispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Deliver pending terminal-status notifications",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"notifications_dispatch",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.NotificationDispatchInterval },
			func(s *service.PaymentService, ctx context.Context) error {
				return s.RunDispatchNotificationsBatch(ctx)
			},
		)
	},
}

var expireCmd = &cobra.Command{
	Use:   "expire",
	Short: "Run expiration-related commands",
}

var expirePendingCmd = &cobra.Command{
	Use:   "pending",
	Short: "Mark pending payments older than the configured timeout as expired",
	Run: func(_ *cobra.Command, _ []string) {
		runCommand(
			"expire_pending",
			func(cfg *config.Config) time.Duration { return cfg.Jobs.ExpirePendingInterval },
			func(s *service.PaymentService, ctx context.Context) error {
				return s.RunExpirePendingBatch(ctx)
			},
		)
	},
}

func init() {
	rootCmd.AddCommand(reconcileCmd)
	rootCmd.AddCommand(notificationsCmd)
	rootCmd.AddCommand(expireCmd)
	notificationsCmd.AddCommand(notificationsDispatchCmd)
	expireCmd.AddCommand(expirePendingCmd)

	rootCmd.PersistentFlags().BoolVar(&workerMode, "worker", false, "Run continuously using configured interval")
}

func runCommand(
	name string,
	intervalResolver func(cfg *config.Config) time.Duration,
	fn func(s *service.PaymentService, ctx context.Context) error,
) {
	cfg, paymentService, cleanup := mustCreatePaymentService()
	defer cleanup()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	job := func(ctx context.Context) error { return fn(paymentService, ctx) }
	if workerMode {
		runWorker(ctx, name, intervalResolver(cfg), job)
		return
	}

	runJob(ctx, name, job)
}

// runWorker runs the job immediately and then on every tick until ctx is
// canceled. A canceled context also aborts the batch in flight.
func runWorker(ctx context.Context, name string, interval time.Duration, job func(ctx context.Context) error) {
	if interval <= 0 {
		logrus.WithField("job", name).Fatal("invalid worker interval")
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	runJob(ctx, name, job)
	for {
		select {
		case <-ctx.Done():
			logrus.WithField("job", name).Info("Worker shutdown requested")
			return
		case <-ticker.C:
			runJob(ctx, name, job)
		}
	}
}

func runJob(ctx context.Context, name string, job func(ctx context.Context) error) error {
	start := time.Now()
	err := job(ctx)

	entry := logrus.WithFields(logrus.Fields{
		"job":     name,
		"latency": time.Since(start).String(),
	})
	if err != nil {
		entry.WithError(err).Error("job_failed")
		return err
	}
	entry.Info("job_completed")
	return nil
}
