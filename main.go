package main

import (
	"context"
	"log"
	"log/slog"
	"os"
	"os/signal"
	"sync"
	"syscall"
	_ "time/tzdata"

	redis "github.com/redis/go-redis/v9"

	"github.com/aouyang1/iotacanvas/api"
	"github.com/aouyang1/iotacanvas/artwork"
	"github.com/aouyang1/iotacanvas/config"
	"github.com/aouyang1/iotacanvas/display"
	"github.com/aouyang1/iotacanvas/logging"
	"github.com/aouyang1/iotacanvas/store"
	"github.com/aouyang1/iotacanvas/wallet"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	logCloser := logging.Setup(cfg.Log)
	defer logCloser.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// Initialize database
	database, err := store.NewDatabase(cfg.Storage.DBPath())
	if err != nil {
		log.Fatalf("Failed to initialize database: %v", err)
	}
	defer database.Close()

	if cfg.Wallet.Node != "" {
		if err := database.SetNode(ctx, cfg.Wallet.Node); err != nil {
			log.Fatalf("Failed to set iota node: %v", err)
		}
	}

	var rdb *redis.Client
	if cfg.Redis.Addr != "" {
		rdb = redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		defer rdb.Close()
		if err := rdb.Ping(ctx).Err(); err != nil {
			slog.Warn("redis unreachable, balance will not be cached", "addr", cfg.Redis.Addr, "error", err)
		}
	}

	walletClient := wallet.NewClient(cfg.Wallet.URL, cfg.Wallet.Timeout)
	if walletClient == nil {
		slog.Info("no wallet service configured, balance will be reported as unknown")
	}

	var bucket artwork.Bucket
	if cfg.S3.Enabled() {
		s3Bucket, err := artwork.NewS3Bucket(ctx, cfg.S3.Profile, cfg.S3.Bucket)
		if err != nil {
			log.Fatalf("Failed to initialize s3 bucket: %v", err)
		}
		bucket = s3Bucket
	} else {
		slog.Info("no s3 bucket configured, rotating local artwork only")
	}
	remoteManager := artwork.NewRemoteManager(database, bucket, cfg.Storage.ArtworkDir())
	if walletClient != nil && cfg.Wallet.Commission {
		if bucket != nil {
			slog.Warn("commissioning from the ai marketplace, s3 bucket will not be synced", "bucket", cfg.S3.Bucket)
		}
		remoteManager.UseMarketplace(artwork.NewMarketplace(walletClient, cfg.Wallet.Timeout))
	}

	watcher, err := artwork.NewWatcher(cfg.Storage.ArtworkDir())
	if err != nil {
		log.Fatalf("Failed to watch artwork directory: %v", err)
	}
	defer watcher.Close()

	webServer, err := api.NewWebServer(database, api.Options{
		Wallet:       walletClient,
		BalanceCache: wallet.NewBalanceCache(rdb, cfg.Redis.BalanceTTL),
		Refresher:    remoteManager,
		ArtworkDir:   cfg.Storage.ArtworkDir(),
		QRPath:       cfg.Storage.QRPath(),
		CORSOrigins:  cfg.Server.CORSOrigins,
	})
	if err != nil {
		log.Fatalf("Failed to initialize web server: %v", err)
	}

	var wg sync.WaitGroup
	run := func(f func(context.Context)) {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f(ctx)
		}()
	}

	run(remoteManager.Run)
	run(watcher.Run)

	if cfg.Display.Disabled {
		slog.Info("display disabled, not starting viewer or schedule")
	} else {
		viewer := display.NewViewer(cfg.Display.ImvPath, cfg.Storage.ArtworkDir(), database)
		scheduleManager := display.NewScheduleManager(database, display.NewMonitor(cfg.Display.Output))
		run(func(ctx context.Context) {
			viewer.Run(ctx, remoteManager.Updated, watcher.Updated)
		})
		run(func(ctx context.Context) {
			viewer.ShowOn(ctx, remoteManager.LowBalance, cfg.Storage.QRPath())
		})
		run(scheduleManager.Run)
	}

	if err := webServer.Start(ctx, cfg.Server.Addr); err != nil {
		slog.Error("web server stopped", "error", err)
		stop()
	}
	wg.Wait()
}
