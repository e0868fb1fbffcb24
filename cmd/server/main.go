package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
	"google.golang.org/api/option"

	"seatserve/internal/config"
	"seatserve/internal/handler"
	"seatserve/internal/logging"
	"seatserve/internal/queue"
	"seatserve/internal/repository"
	"seatserve/internal/service"
	"seatserve/internal/store"
	transport "seatserve/internal/transport/http"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("load config: %v", err)
	}
	logger, err := logging.New(cfg.LogLevel, cfg.LogFormat)
	if err != nil {
		log.Fatalf("init logger: %v", err)
	}
	defer logger.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		<-sigCh
		logger.Info("shutdown signal received")
		cancel()
	}()

	// Document store
	var st store.Store
	switch cfg.StoreBackend {
	case "memory":
		st = store.NewMemStore()
		logger.Warn("using in-memory store, data will not survive restarts")
	default:
		var opts []option.ClientOption
		if creds := cfg.FirebaseCredentialsJSON(); creds != nil {
			opts = append(opts, option.WithCredentialsJSON(creds))
		}
		fs, err := store.NewFirestore(ctx, cfg.FirebaseProjectID, cfg.StoreTimeout, opts...)
		if err != nil {
			logger.Fatal("connect firestore", zap.Error(err))
		}
		defer fs.Close()
		st = fs
	}

	members := repository.NewMemberRepository(st)
	sessions := repository.NewAttendanceRepository(st)
	alerts := repository.NewAlertRepository(st)
	admins := repository.NewAdminRepository(st)
	tokens := repository.NewTokenRepository(st, members, admins)

	// Push provider, optional. Without credentials alerts are persisted but
	// not pushed.
	var push service.PushSender
	if cfg.FirebaseProjectID != "" && cfg.FirebaseClientEmail != "" && cfg.FirebasePrivateKey != "" {
		fcm, err := service.NewFCMClient(ctx, cfg.FirebaseProjectID, cfg.FirebaseClientEmail,
			cfg.FirebasePrivateKey, cfg.PushTimeout, cfg.DispatchConcurrency)
		if err != nil {
			logger.Fatal("init fcm client", zap.Error(err))
		}
		push = fcm
	} else {
		logger.Warn("push credentials not configured, alerts will not be pushed")
	}

	notifications := service.NewNotificationService(alerts, members, admins, tokens, push, logger)

	// Alert events flow either straight onto goroutines or through the
	// stream to the worker.
	var notifier service.Notifier
	switch cfg.QueueBackend {
	case "redis":
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			logger.Fatal("connect redis", zap.Error(err))
		}
		defer rdb.Close()
		notifier = queue.NewPublisher(rdb, logger)
		logger.Info("alert events published to redis stream", zap.String("addr", cfg.RedisAddr))
	default:
		notifier = service.NewAsyncNotifier(notifications, cfg.PushTimeout, logger)
	}

	seats := service.NewSeatAllocator(cfg.SeatUniverse())
	membership := service.NewMembershipService(members, seats, cfg.Fees, cfg.Policy, notifier, logger)
	billing := service.NewBillingService(members, cfg.Policy, notifier, logger)
	attendance := service.NewAttendanceService(sessions, membership, cfg.Windows, notifier, logger)

	router := transport.NewRouter(transport.RouterConfig{
		MemberHandler:     handler.NewMemberHandler(membership, logger),
		BillingHandler:    handler.NewBillingHandler(billing, logger),
		AttendanceHandler: handler.NewAttendanceHandler(attendance, logger),
		AlertHandler:      handler.NewAlertHandler(notifications, logger),
	})

	server := transport.NewServer(cfg.ServerPort, router, logger)
	if err := server.Run(ctx, 15*time.Second); err != nil {
		logger.Fatal("server", zap.Error(err))
	}
	logger.Info("server stopped")
}
