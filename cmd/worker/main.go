// The worker runs the asynchronous side of the system: it consumes alert
// events from the redis stream and periodically sweeps the roster so
// lifecycle transitions fire even for members nobody reads.
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
	"seatserve/internal/logging"
	"seatserve/internal/queue"
	"seatserve/internal/repository"
	"seatserve/internal/service"
	"seatserve/internal/store"
)

const (
	readBatch    = 32
	readBlock    = 5 * time.Second
	sweepEvery   = time.Hour
	handleBudget = 30 * time.Second
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
	alerts := repository.NewAlertRepository(st)
	admins := repository.NewAdminRepository(st)
	tokens := repository.NewTokenRepository(st, members, admins)

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

	// The sweep persists its own transitions; the resulting events are
	// dispatched directly here rather than re-published to the stream.
	direct := service.NewAsyncNotifier(notifications, cfg.PushTimeout, logger)
	seats := service.NewSeatAllocator(cfg.SeatUniverse())
	membership := service.NewMembershipService(members, seats, cfg.Fees, cfg.Policy, direct, logger)

	go runSweeper(ctx, membership, logger)

	if cfg.QueueBackend != "redis" {
		// Events are dispatched in-process by the server; only the periodic
		// sweep runs here.
		logger.Info("queue backend is direct, running sweeper only")
		<-ctx.Done()
		return
	}

	rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	if err := rdb.Ping(ctx).Err(); err != nil {
		logger.Fatal("connect redis", zap.Error(err))
	}
	defer rdb.Close()

	consumer := queue.NewConsumer(rdb, logger)
	if err := consumer.EnsureGroup(ctx); err != nil {
		logger.Fatal("ensure consumer group", zap.Error(err))
	}

	// The consumer name must survive restarts so the pending read below finds
	// what a crashed predecessor on this host left behind.
	hostname, _ := os.Hostname()
	name := queue.ConsumerName(hostname)
	logger.Info("worker started", zap.String("consumer", name))

	// Recover messages left pending by a previous crash before reading new
	// ones.
	if msgs, err := consumer.ReadPending(ctx, name, readBatch); err != nil {
		logger.Warn("read pending", zap.Error(err))
	} else {
		handleMessages(ctx, consumer, notifications, msgs, logger)
	}

	for ctx.Err() == nil {
		msgs, err := consumer.Read(ctx, name, readBatch, readBlock)
		if err != nil {
			if ctx.Err() != nil {
				break
			}
			logger.Warn("read stream", zap.Error(err))
			time.Sleep(time.Second)
			continue
		}
		handleMessages(ctx, consumer, notifications, msgs, logger)
	}
	logger.Info("worker stopped")
}

func handleMessages(ctx context.Context, consumer queue.Consumer, notifications *service.NotificationService, msgs []queue.Message, logger *zap.Logger) {
	for _, msg := range msgs {
		handleCtx, cancel := context.WithTimeout(ctx, handleBudget)
		err := notifications.HandleEvent(handleCtx, msg.Event)
		cancel()

		if err != nil {
			// Left unacked; the message is retried on the next pending read.
			logger.Warn("handle alert event",
				zap.String("message_id", msg.ID),
				zap.String("event_type", msg.Event.Type),
				zap.Error(err))
			continue
		}
		if err := consumer.Ack(ctx, msg.ID); err != nil {
			logger.Warn("ack message", zap.String("message_id", msg.ID), zap.Error(err))
		}
	}
}

// runSweeper periodically persists time-driven lifecycle transitions for the
// whole roster.
func runSweeper(ctx context.Context, membership *service.MembershipService, logger *zap.Logger) {
	ticker := time.NewTicker(sweepEvery)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}

		changed, err := membership.RefreshAll(ctx)
		if err != nil {
			logger.Warn("lifecycle sweep", zap.Error(err))
			continue
		}
		if changed > 0 {
			logger.Info("lifecycle sweep applied transitions", zap.Int("members", changed))
		}
	}
}
