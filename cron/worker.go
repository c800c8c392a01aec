package cron

import (
	"context"
	"encoding/json"
	"time"

	"clinq/config"
	schedulerRepo "clinq/database/repository/scheduler"
	"clinq/services/notification"
	"clinq/services/tasks"
	"clinq/utils"

	"github.com/go-redis/redis/v8"
	"github.com/hibiken/asynq"
	"go.uber.org/zap"
)

// staleReservationAge is how old an unclaimed "reserved" row must be before
// the sweep deletes it. Writers treat rows as stale after 30 seconds; the
// sweep waits a full minute so it never races a live claim.
const staleReservationAge = time.Minute

// InitNotificationWorker starts the asynq worker and the cron scheduler in
// the background. The scheduler runs in the clinic zone so batch windows fire
// at clinic-local wall time.
func InitNotificationWorker(dispatcher notification.Dispatcher, scheduler schedulerRepo.SchedulerRepository, clock utils.Clock) {
	redisOpts := asynq.RedisClientOpt{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	}

	srv := asynq.NewServer(
		redisOpts,
		asynq.Config{
			Concurrency: 10,
			Queues: map[string]int{
				"default": 1,
			},
		},
	)

	mux := asynq.NewServeMux()
	mux.HandleFunc(tasks.TypeReminderBatch, handleReminderBatch(dispatcher))
	mux.HandleFunc(tasks.TypeFollowUpExpiry, handleFollowUpExpiry(dispatcher))
	mux.HandleFunc(tasks.TypeReservationsCleanup, handleReservationsCleanup(scheduler, clock))

	go monitorRedisConnection()
	go runWorker(srv, mux)
	go runScheduler(redisOpts, clock)
}

func runWorker(srv *asynq.Server, mux *asynq.ServeMux) {
	logger := utils.GetLogger()
	logger.Info("starting notification worker")

	const maxAttempts = 5
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		err := srv.Run(mux)
		if err == nil {
			return
		}
		logger.Error("notification worker failed to start",
			zap.Int("attempt", attempt),
			zap.Int("maxAttempts", maxAttempts),
			zap.Error(err))
		if attempt == maxAttempts {
			logger.Fatal("notification worker out of retries")
		}
		time.Sleep(time.Duration(attempt*2) * time.Second)
	}
}

// runScheduler registers the recurring entries. Entry times are clinic-local.
func runScheduler(redisOpts asynq.RedisClientOpt, clock utils.Clock) {
	logger := utils.GetLogger()
	sched := asynq.NewScheduler(redisOpts, &asynq.SchedulerOpts{
		Location: clock.Location(),
	})

	eveningTask, err := tasks.NewReminderBatchTask(string(notification.WindowEvening))
	if err != nil {
		logger.Error("build evening reminder task", zap.Error(err))
		return
	}
	morningTask, err := tasks.NewReminderBatchTask(string(notification.WindowMorning))
	if err != nil {
		logger.Error("build morning reminder task", zap.Error(err))
		return
	}

	entries := []struct {
		spec string
		task *asynq.Task
	}{
		{"0 17 * * *", eveningTask},
		{"0 7 * * *", morningTask},
		{"0 9 * * *", tasks.NewFollowUpExpiryTask()},
		{"*/5 * * * *", tasks.NewReservationsCleanupTask()},
	}
	for _, e := range entries {
		if _, err := sched.Register(e.spec, e.task); err != nil {
			logger.Error("register cron entry",
				zap.String("spec", e.spec),
				zap.String("type", e.task.Type()),
				zap.Error(err))
			return
		}
	}

	if err := sched.Run(); err != nil {
		logger.Error("cron scheduler stopped", zap.Error(err))
	}
}

func handleReminderBatch(dispatcher notification.Dispatcher) asynq.HandlerFunc {
	return func(ctx context.Context, task *asynq.Task) error {
		var p tasks.ReminderBatchPayload
		if err := json.Unmarshal(task.Payload(), &p); err != nil {
			utils.GetLogger().Error("invalid reminder batch payload", zap.Error(err))
			return err
		}
		return dispatcher.RunBatchReminders(ctx, notification.ReminderWindow(p.Window))
	}
}

func handleFollowUpExpiry(dispatcher notification.Dispatcher) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		return dispatcher.RunFollowUpExpiry(ctx)
	}
}

func handleReservationsCleanup(scheduler schedulerRepo.SchedulerRepository, clock utils.Clock) asynq.HandlerFunc {
	return func(ctx context.Context, _ *asynq.Task) error {
		cutoff := clock.Now().Add(-staleReservationAge)
		removed, err := scheduler.CleanupStaleReservations(ctx, cutoff)
		if err != nil {
			return err
		}
		if removed > 0 {
			utils.GetLogger().Info("stale reservations swept", zap.Int64("removed", removed))
		}
		return nil
	}
}

// monitorRedisConnection pings the queue Redis periodically so a lost broker
// shows up in the logs before tasks silently stall.
func monitorRedisConnection() {
	client := redis.NewClient(&redis.Options{
		Addr:     config.AppConfig.RedisAddr,
		Password: config.AppConfig.RedisPassword,
		DB:       config.AppConfig.RedisQueueDB,
	})

	ctx := context.Background()
	logger := utils.GetLogger()
	for {
		if err := client.Ping(ctx).Err(); err != nil {
			logger.Warn("queue redis connection lost", zap.Error(err))
		}
		time.Sleep(10 * time.Second)
	}
}
