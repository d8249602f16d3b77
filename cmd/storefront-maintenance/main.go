// Command storefront-maintenance runs scheduled housekeeping jobs:
// stale cart cleanup and daily order statistics rollup.
package main

import (
	"context"
	"database/sql"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"

	"github.com/storefrontd/storefrontd/pkg/store"
)

func main() {
	var (
		dbURL         = flag.String("db-url", os.Getenv("STOREFRONT_DATABASE_URL"), "PostgreSQL connection URL")
		cartSchedule  = flag.String("cart-schedule", "0 * * * *", "cron schedule for stale cart cleanup")
		statsSchedule = flag.String("stats-schedule", "30 0 * * *", "cron schedule for the daily order rollup")
		cartMaxAge    = flag.Duration("cart-max-age", 14*24*time.Hour, "cart items older than this are deleted")
		runOnce       = flag.Bool("run-once", false, "run all jobs immediately and exit")
	)
	flag.Parse()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})

	if *dbURL == "" {
		log.Fatal("database URL is required (-db-url or STOREFRONT_DATABASE_URL)")
	}

	db, err := sql.Open("postgres", *dbURL)
	if err != nil {
		log.WithError(err).Fatal("failed to open database")
	}
	defer db.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pingCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		log.WithError(err).Fatal("failed to ping database")
	}

	carts := store.NewCartStore(db)
	orders := store.NewOrderStore(db)

	cleanCarts := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		deleted, err := carts.DeleteStale(jobCtx, *cartMaxAge)
		if err != nil {
			log.WithError(err).Error("stale cart cleanup failed")
			return
		}
		log.WithField("deleted", deleted).Info("stale cart cleanup complete")
	}

	rollupStats := func() {
		jobCtx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
		defer cancel()

		yesterday := time.Now().UTC().AddDate(0, 0, -1)
		if err := orders.RollupDaily(jobCtx, yesterday); err != nil {
			log.WithError(err).Error("daily order rollup failed")
			return
		}
		log.WithField("day", yesterday.Format("2006-01-02")).Info("daily order rollup complete")
	}

	if *runOnce {
		cleanCarts()
		rollupStats()
		return
	}

	scheduler := cron.New()
	if _, err := scheduler.AddFunc(*cartSchedule, cleanCarts); err != nil {
		log.WithError(err).Fatal("invalid cart cleanup schedule")
	}
	if _, err := scheduler.AddFunc(*statsSchedule, rollupStats); err != nil {
		log.WithError(err).Fatal("invalid stats rollup schedule")
	}

	log.WithFields(logrus.Fields{
		"cart_schedule":  *cartSchedule,
		"stats_schedule": *statsSchedule,
	}).Info("maintenance scheduler started")
	scheduler.Start()

	<-ctx.Done()
	log.Info("shutting down")

	stopCtx := scheduler.Stop()
	select {
	case <-stopCtx.Done():
	case <-time.After(time.Minute):
		log.Warn("jobs still running at shutdown deadline")
	}
}
